package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	customermodels "coverbase/internal/customer/models"
	"coverbase/internal/outbox"
	"coverbase/internal/pagination"
	"coverbase/internal/platform/metrics"
	"coverbase/internal/policy/models"
	quotemodels "coverbase/internal/quote/models"
	dErrors "coverbase/pkg/domain-errors"
	"coverbase/pkg/platform/sentinel"
	"coverbase/pkg/requestcontext"
)

// Store is the policy persistence the service depends on.
type Store interface {
	Create(ctx context.Context, policy *models.Policy) error
	FindByID(ctx context.Context, id int64) (*models.Aggregate, error)
	ListByCustomer(ctx context.Context, customerID, cursor int64, limit int) ([]*models.Aggregate, error)
	UpdateState(ctx context.Context, id int64, state models.State) error
	AppendHistory(ctx context.Context, history *models.StateHistory) error
	ListHistory(ctx context.Context, policyID, cursor int64, limit int) ([]*models.StateHistory, error)
}

// OutboxAppender appends an event in the ambient transaction.
type OutboxAppender interface {
	Append(ctx context.Context, event outbox.Event) error
}

// TxRunner executes fn inside a database transaction carried on the context.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Cache is the optional read-through aggregate cache.
type Cache interface {
	Get(ctx context.Context, policyID int64) (*models.Aggregate, bool)
	Set(ctx context.Context, aggregate *models.Aggregate)
	Invalidate(ctx context.Context, policyID int64)
}

// Service owns the policy ledger: every state write appends a history row and
// an outbox event in the same transaction as the state itself.
type Service struct {
	store   Store
	outbox  OutboxAppender
	tx      TxRunner
	cache   Cache
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(store Store, appender OutboxAppender, tx TxRunner, cache Cache, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		outbox:  appender,
		tx:      tx,
		cache:   cache,
		logger:  logger,
		metrics: m,
	}
}

func snapshot(aggregate *models.Aggregate) (json.RawMessage, error) {
	payload, err := json.Marshal(aggregate.Serialize())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to snapshot policy")
	}
	return payload, nil
}

// CreateFromQuote opens the policy for a freshly created quote in state
// quoted, writes the first ledger row, and appends the created event. It must
// run inside the caller's transaction so the quote, policy, ledger row, and
// event commit or roll back together.
func (s *Service) CreateFromQuote(ctx context.Context, quote *quotemodels.Quote, customer *customermodels.Customer) (*models.Policy, error) {
	policy := &models.Policy{
		Type:       quote.Type,
		State:      models.StateQuoted,
		Premium:    quote.Premium,
		Cover:      quote.Cover,
		CustomerID: customer.ID,
		QuoteID:    quote.ID,
	}
	if err := s.store.Create(ctx, policy); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "policy already exists for quote")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create policy")
	}

	aggregate := &models.Aggregate{Policy: *policy, Quote: *quote, Customer: *customer}
	payload, err := snapshot(aggregate)
	if err != nil {
		return nil, err
	}
	if err := s.appendLedger(ctx, aggregate, payload, outbox.EventPolicyCreated); err != nil {
		return nil, err
	}

	s.metrics.IncrementPolicyStateChanges(string(policy.State))
	s.logger.InfoContext(ctx, "policy created",
		"policy_id", policy.ID,
		"quote_id", quote.ID,
		"customer_id", customer.ID,
	)
	return policy, nil
}

func (s *Service) appendLedger(ctx context.Context, aggregate *models.Aggregate, payload json.RawMessage, eventType string) error {
	history := &models.StateHistory{
		PolicyID: aggregate.Policy.ID,
		State:    aggregate.Policy.State,
		AsJSON:   payload,
	}
	if err := s.store.AppendHistory(ctx, history); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append policy history")
	}

	event := outbox.NewEvent(
		outbox.AggregateTypePolicy,
		strconv.FormatInt(aggregate.Policy.ID, 10),
		eventType,
		payload,
		requestcontext.Now(ctx),
	)
	if err := s.outbox.Append(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append outbox event")
	}
	return nil
}

// ChangeState transitions the policy and appends the matching ledger row and
// event in one transaction, then drops the cached aggregate.
func (s *Service) ChangeState(ctx context.Context, policyID int64, state models.State) (*models.Aggregate, error) {
	var aggregate *models.Aggregate
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateState(ctx, policyID, state); err != nil {
			return err
		}
		fresh, err := s.store.FindByID(ctx, policyID)
		if err != nil {
			return err
		}
		aggregate = fresh

		payload, err := snapshot(aggregate)
		if err != nil {
			return err
		}
		return s.appendLedger(ctx, aggregate, payload, outbox.EventPolicyStateChanged)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "policy not found")
		}
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to change policy state")
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, policyID)
	}
	s.metrics.IncrementPolicyStateChanges(string(state))
	s.logger.InfoContext(ctx, "policy state changed",
		"policy_id", policyID,
		"state", state,
	)
	return aggregate, nil
}

// Get returns the policy aggregate, serving from the cache when possible.
func (s *Service) Get(ctx context.Context, policyID int64) (*models.Aggregate, error) {
	if s.cache != nil {
		if aggregate, ok := s.cache.Get(ctx, policyID); ok {
			return aggregate, nil
		}
	}

	aggregate, err := s.store.FindByID(ctx, policyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "policy not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load policy")
	}

	if s.cache != nil {
		s.cache.Set(ctx, aggregate)
	}
	return aggregate, nil
}

// List returns one keyset page of the customer's policies in ascending id order.
func (s *Service) List(ctx context.Context, customerID, cursor int64, perPage int) (pagination.Page[*models.Aggregate], error) {
	aggregates, err := s.store.ListByCustomer(ctx, customerID, cursor, perPage+1)
	if err != nil {
		return pagination.Page[*models.Aggregate]{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list policies")
	}
	return pagination.Trim(aggregates, perPage, func(a *models.Aggregate) int64 { return a.Policy.ID }), nil
}

// History returns one keyset page of the policy's ledger, newest first, along
// with the current aggregate for serialization.
func (s *Service) History(ctx context.Context, policyID, cursor int64, perPage int) (pagination.Page[*models.StateHistory], *models.Aggregate, error) {
	aggregate, err := s.store.FindByID(ctx, policyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return pagination.Page[*models.StateHistory]{}, nil, dErrors.New(dErrors.CodeNotFound, "policy not found")
		}
		return pagination.Page[*models.StateHistory]{}, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load policy")
	}

	entries, err := s.store.ListHistory(ctx, policyID, cursor, perPage+1)
	if err != nil {
		return pagination.Page[*models.StateHistory]{}, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list policy history")
	}
	page := pagination.Trim(entries, perPage, func(h *models.StateHistory) int64 { return h.ID })
	return page, aggregate, nil
}
