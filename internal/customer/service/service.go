package service

import (
	"context"
	"log/slog"
	"time"

	"coverbase/internal/customer/models"
	"coverbase/internal/pagination"
	"coverbase/internal/platform/metrics"
	dErrors "coverbase/pkg/domain-errors"
)

// Store is the customer persistence the service depends on.
type Store interface {
	Create(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id int64) (*models.Customer, error)
	Search(ctx context.Context, filter models.Filter, limit, offset int) ([]*models.Customer, error)
	CountSearch(ctx context.Context, filter models.Filter) (int, error)
}

type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(store Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, logger: logger, metrics: m}
}

// Create registers a new customer.
func (s *Service) Create(ctx context.Context, firstName, lastName string, dateOfBirth time.Time) (*models.Customer, error) {
	customer, err := models.NewCustomer(firstName, lastName, dateOfBirth)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, customer); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create customer")
	}

	s.metrics.IncrementCustomersCreated()
	s.logger.InfoContext(ctx, "customer created", "customer_id", customer.ID)
	return customer, nil
}

// SearchResult is one offset window of a customer search.
type SearchResult struct {
	Customers    []*models.Customer
	TotalPages   int
	PreviousPage *int
	NextPage     *int
}

// Search returns the requested page of customers matching the filter. An
// out-of-range page is a validation error, except page 1 of an empty result.
func (s *Service) Search(ctx context.Context, filter models.Filter, page, perPage int) (*SearchResult, error) {
	total, err := s.store.CountSearch(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count customers")
	}

	window, err := pagination.OffsetWindow(total, page, perPage)
	if err != nil {
		return nil, err
	}

	customers, err := s.store.Search(ctx, filter, perPage, window.Offset)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search customers")
	}

	return &SearchResult{
		Customers:    customers,
		TotalPages:   window.TotalPages,
		PreviousPage: window.PreviousPage,
		NextPage:     window.NextPage,
	}, nil
}
