//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	customermodels "coverbase/internal/customer/models"
	customerstore "coverbase/internal/customer/store"
	"coverbase/internal/quote/models"
	"coverbase/internal/quote/store"
	"coverbase/pkg/platform/sentinel"
	"coverbase/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	store     *store.PostgresStore
	customers *customerstore.PostgresStore
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
	s.store = store.NewPostgres(s.postgres.DB)
	s.customers = customerstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "policy_state_history", "policies", "quotes", "customers")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) seedQuote() *models.Quote {
	ctx := context.Background()
	dob, err := time.Parse(customermodels.DOBFormat, "25-06-1991")
	s.Require().NoError(err)
	customer := &customermodels.Customer{FirstName: "John", LastName: "Doe", DateOfBirth: dob}
	s.Require().NoError(s.customers.Create(ctx, customer))

	quote := &models.Quote{
		Status:     models.StatusNew,
		Type:       models.TypeAuto,
		Premium:    decimal.RequireFromString("450.50"),
		Cover:      decimal.NewFromInt(33000),
		CustomerID: customer.ID,
	}
	s.Require().NoError(s.store.Create(ctx, quote))
	return quote
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	quote := s.seedQuote()
	s.NotZero(quote.ID)
	s.False(quote.Created.IsZero())

	found, err := s.store.FindByID(context.Background(), quote.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusNew, found.Status)
	s.Equal(models.TypeAuto, found.Type)
	// Money survives the round trip exactly.
	s.True(found.Premium.Equal(decimal.RequireFromString("450.50")), found.Premium.String())
	s.True(found.Cover.Equal(decimal.NewFromInt(33000)), found.Cover.String())

	_, err = s.store.FindByID(context.Background(), quote.ID+100)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateStatus() {
	quote := s.seedQuote()

	updated, err := s.store.UpdateStatus(context.Background(), quote.ID, models.StatusAccepted)
	s.Require().NoError(err)
	s.Equal(models.StatusAccepted, updated.Status)
	s.True(updated.LastModified.After(updated.Created) || updated.LastModified.Equal(updated.Created))

	found, err := s.store.FindByID(context.Background(), quote.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusAccepted, found.Status)

	_, err = s.store.UpdateStatus(context.Background(), quote.ID+100, models.StatusAccepted)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
