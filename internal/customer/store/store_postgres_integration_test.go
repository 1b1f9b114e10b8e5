//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"coverbase/internal/customer/models"
	"coverbase/internal/customer/store"
	quotemodels "coverbase/internal/quote/models"
	"coverbase/pkg/platform/sentinel"
	"coverbase/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
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
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "policy_state_history", "policies", "quotes", "customers")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) seed(firstName, lastName, dob string) *models.Customer {
	parsed, err := time.Parse(models.DOBFormat, dob)
	s.Require().NoError(err)
	customer := &models.Customer{FirstName: firstName, LastName: lastName, DateOfBirth: parsed}
	s.Require().NoError(s.store.Create(context.Background(), customer))
	return customer
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	created := s.seed("Ada", "Lovelace", "10-12-1985")
	s.NotZero(created.ID)
	s.False(created.Created.IsZero())

	found, err := s.store.FindByID(context.Background(), created.ID)
	s.Require().NoError(err)
	s.Equal("Ada", found.FirstName)
	s.Equal("10-12-1985", found.DateOfBirth.Format(models.DOBFormat))

	_, err = s.store.FindByID(context.Background(), created.ID+100)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSearchByName() {
	s.seed("Ada", "Lovelace", "10-12-1985")
	s.seed("Adam", "Smith", "05-06-1990")
	s.seed("Grace", "Hopper", "09-12-1986")

	ctx := context.Background()
	matched, err := s.store.Search(ctx, models.Filter{FirstName: "ADA"}, 10, 0)
	s.Require().NoError(err)
	s.Len(matched, 2)
	s.Equal("Ada", matched[0].FirstName)
	s.Equal("Adam", matched[1].FirstName)

	matched, err = s.store.Search(ctx, models.Filter{FirstName: "ada", LastName: "smith"}, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(matched, 1)
	s.Equal("Adam", matched[0].FirstName)

	total, err := s.store.CountSearch(ctx, models.Filter{FirstName: "ada"})
	s.Require().NoError(err)
	s.Equal(2, total)
}

func (s *PostgresStoreSuite) TestSearchByDateOfBirth() {
	s.seed("Ada", "Lovelace", "10-12-1985")
	target := s.seed("Grace", "Hopper", "09-12-1986")

	dob := target.DateOfBirth
	matched, err := s.store.Search(context.Background(), models.Filter{DateOfBirth: &dob}, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(matched, 1)
	s.Equal(target.ID, matched[0].ID)
}

func (s *PostgresStoreSuite) TestSearchByPolicyType() {
	holder := s.seed("Ada", "Lovelace", "10-12-1985")
	s.seed("Grace", "Hopper", "09-12-1986")

	ctx := context.Background()
	db := s.postgres.DB
	var quoteID int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO quotes (status, type, premium, cover, customer_id)
		VALUES ('new', 'auto', 300, 33000, $1) RETURNING id
	`, holder.ID).Scan(&quoteID)
	s.Require().NoError(err)
	_, err = db.ExecContext(ctx, `
		INSERT INTO policies (type, state, premium, cover, customer_id, quote_id)
		VALUES ('auto', 'quoted', 300, 33000, $1, $2)
	`, holder.ID, quoteID)
	s.Require().NoError(err)

	matched, err := s.store.Search(ctx, models.Filter{PolicyType: string(quotemodels.TypeAuto)}, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(matched, 1)
	s.Equal(holder.ID, matched[0].ID)

	matched, err = s.store.Search(ctx, models.Filter{PolicyType: string(quotemodels.TypeHomeownerInsurance)}, 10, 0)
	s.Require().NoError(err)
	s.Empty(matched)
}

func (s *PostgresStoreSuite) TestSearchWindowing() {
	for i := 0; i < 5; i++ {
		s.seed("Ada", "Lovelace", "10-12-1985")
	}

	matched, err := s.store.Search(context.Background(), models.Filter{}, 2, 2)
	s.Require().NoError(err)
	s.Require().Len(matched, 2)
	s.Less(matched[0].ID, matched[1].ID)

	matched, err = s.store.Search(context.Background(), models.Filter{}, 2, 10)
	s.Require().NoError(err)
	s.Empty(matched)
}
