package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	customermodels "coverbase/internal/customer/models"
	"coverbase/internal/platform/metrics"
	policymodels "coverbase/internal/policy/models"
	"coverbase/internal/pricing"
	"coverbase/internal/quote/models"
	dErrors "coverbase/pkg/domain-errors"
	"coverbase/pkg/platform/sentinel"
	"coverbase/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,CustomerDirectory,Ledger,TxRunner

// Store is the quote persistence the service depends on.
type Store interface {
	Create(ctx context.Context, quote *models.Quote) error
	FindByID(ctx context.Context, id int64) (*models.Quote, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) (*models.Quote, error)
}

// CustomerDirectory resolves the customer a quote belongs to.
type CustomerDirectory interface {
	FindByID(ctx context.Context, id int64) (*customermodels.Customer, error)
}

// Ledger opens a policy for a freshly created quote. It must run inside the
// same transaction as the quote insert so a quote never exists without its
// policy shell.
type Ledger interface {
	CreateFromQuote(ctx context.Context, quote *models.Quote, customer *customermodels.Customer) (*policymodels.Policy, error)
}

// TxRunner executes fn inside a database transaction carried on the context.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	quotes            Store
	customers         CustomerDirectory
	ledger            Ledger
	tx                TxRunner
	strictTransitions bool
	logger            *slog.Logger
	metrics           *metrics.Metrics
}

func NewService(quotes Store, customers CustomerDirectory, ledger Ledger, tx TxRunner, strictTransitions bool, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		quotes:            quotes,
		customers:         customers,
		ledger:            ledger,
		tx:                tx,
		strictTransitions: strictTransitions,
		logger:            logger,
		metrics:           m,
	}
}

// Result pairs a quote with its resolved customer for serialization.
type Result struct {
	Quote    *models.Quote
	Customer *customermodels.Customer
}

// Create prices a quote for the customer and opens its policy shell in one
// transaction. Premium and cover are computed from the product type and the
// customer's age at request time, and never recomputed afterwards.
func (s *Service) Create(ctx context.Context, customerID int64, quoteType models.Type) (*Result, error) {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}

	cover, premium := pricing.Quote(string(quoteType), customer.DateOfBirth, requestcontext.Now(ctx))
	quote := &models.Quote{
		Status:     models.StatusNew,
		Type:       quoteType,
		Premium:    premium,
		Cover:      cover,
		CustomerID: customer.ID,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.quotes.Create(ctx, quote); err != nil {
			return err
		}
		if _, err := s.ledger.CreateFromQuote(ctx, quote, customer); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create quote")
	}

	s.metrics.IncrementQuotesCreated(string(quoteType))
	s.logger.InfoContext(ctx, "quote created",
		"quote_id", quote.ID,
		"customer_id", customer.ID,
		"type", quote.Type,
	)
	return &Result{Quote: quote, Customer: customer}, nil
}

// UpdateStatus moves a quote through its lifecycle. In strict mode only the
// transitions new→accepted, new→rejected and accepted→active are allowed;
// otherwise any known status can be set.
func (s *Service) UpdateStatus(ctx context.Context, quoteID int64, status models.Status) (*Result, error) {
	quote, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "quote not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load quote")
	}

	if s.strictTransitions && !quote.Status.CanTransitionTo(status) {
		return nil, dErrors.NewField(dErrors.CodeValidation, "status",
			fmt.Sprintf("cannot transition from %s to %s", quote.Status, status))
	}

	updated, err := s.quotes.UpdateStatus(ctx, quoteID, status)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "quote not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update quote status")
	}

	customer, err := s.customers.FindByID(ctx, updated.CustomerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}

	s.metrics.IncrementQuoteStatusUpdates(string(status))
	s.logger.InfoContext(ctx, "quote status updated",
		"quote_id", updated.ID,
		"status", updated.Status,
	)
	return &Result{Quote: updated, Customer: customer}, nil
}
