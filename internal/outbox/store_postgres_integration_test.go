//go:build integration

package outbox_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"coverbase/internal/outbox"
	"coverbase/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *outbox.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = outbox.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "outbox")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) appendEvent(eventType string) outbox.Event {
	payload, err := json.Marshal(map[string]string{"state": "quoted"})
	s.Require().NoError(err)
	event := outbox.NewEvent(outbox.AggregateTypePolicy, "1", eventType, payload, time.Now())
	s.Require().NoError(s.store.Append(context.Background(), event))
	return event
}

func (s *PostgresStoreSuite) TestAppendAndListPending() {
	first := s.appendEvent(outbox.EventPolicyCreated)
	second := s.appendEvent(outbox.EventPolicyStateChanged)

	pending, err := s.store.ListPending(context.Background(), 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	// Oldest first so broker ordering follows append ordering.
	s.Equal(first.ID, pending[0].ID)
	s.Equal(second.ID, pending[1].ID)
	s.Equal(outbox.EventPolicyCreated, pending[0].EventType)
	s.JSONEq(`{"state": "quoted"}`, string(pending[0].Payload))
}

func (s *PostgresStoreSuite) TestMarkPublished() {
	first := s.appendEvent(outbox.EventPolicyCreated)
	second := s.appendEvent(outbox.EventPolicyStateChanged)

	ctx := context.Background()
	err := s.store.MarkPublished(ctx, []uuid.UUID{first.ID}, time.Now())
	s.Require().NoError(err)

	pending, err := s.store.ListPending(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(second.ID, pending[0].ID)

	err = s.store.MarkPublished(ctx, []uuid.UUID{second.ID}, time.Now())
	s.Require().NoError(err)
	pending, err = s.store.ListPending(ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *PostgresStoreSuite) TestListPendingHonorsLimit() {
	for i := 0; i < 5; i++ {
		s.appendEvent(outbox.EventPolicyStateChanged)
	}

	pending, err := s.store.ListPending(context.Background(), 3)
	s.Require().NoError(err)
	s.Len(pending, 3)
}
