package store

import (
	"context"
	"sort"
	"sync"
	"time"

	customermodels "coverbase/internal/customer/models"
	"coverbase/internal/policy/models"
	quotemodels "coverbase/internal/quote/models"
	"coverbase/pkg/platform/sentinel"
)

// CustomerSource resolves customers when assembling aggregates in memory.
type CustomerSource interface {
	FindByID(ctx context.Context, id int64) (*customermodels.Customer, error)
}

// QuoteSource resolves quotes when assembling aggregates in memory.
type QuoteSource interface {
	FindByID(ctx context.Context, id int64) (*quotemodels.Quote, error)
}

// InMemoryStore backs unit tests and local development without Postgres. It
// joins against the in-memory customer and quote stores to build aggregates.
type InMemoryStore struct {
	mu            sync.RWMutex
	policies      map[int64]*models.Policy
	history       []*models.StateHistory
	nextID        int64
	nextHistoryID int64
	customers     CustomerSource
	quotes        QuoteSource
	quoteIDs      map[int64]struct{}
}

func NewInMemory(customers CustomerSource, quotes QuoteSource) *InMemoryStore {
	return &InMemoryStore{
		policies:      make(map[int64]*models.Policy),
		nextID:        1,
		nextHistoryID: 1,
		customers:     customers,
		quotes:        quotes,
		quoteIDs:      make(map[int64]struct{}),
	}
}

func (s *InMemoryStore) Create(_ context.Context, policy *models.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.quoteIDs[policy.QuoteID]; exists {
		return sentinel.ErrConflict
	}

	now := time.Now().UTC()
	policy.ID = s.nextID
	policy.Created = now
	policy.LastModified = now
	s.nextID++

	clone := *policy
	s.policies[clone.ID] = &clone
	s.quoteIDs[clone.QuoteID] = struct{}{}
	return nil
}

func (s *InMemoryStore) aggregate(ctx context.Context, policy *models.Policy) (*models.Aggregate, error) {
	quote, err := s.quotes.FindByID(ctx, policy.QuoteID)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.FindByID(ctx, policy.CustomerID)
	if err != nil {
		return nil, err
	}
	return &models.Aggregate{Policy: *policy, Quote: *quote, Customer: *customer}, nil
}

func (s *InMemoryStore) FindByID(ctx context.Context, id int64) (*models.Aggregate, error) {
	s.mu.RLock()
	policy, ok := s.policies[id]
	if ok {
		clone := *policy
		policy = &clone
	}
	s.mu.RUnlock()

	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.aggregate(ctx, policy)
}

func (s *InMemoryStore) ListByCustomer(ctx context.Context, customerID, cursor int64, limit int) ([]*models.Aggregate, error) {
	s.mu.RLock()
	var matched []*models.Policy
	for _, policy := range s.policies {
		if policy.CustomerID == customerID && policy.ID >= cursor {
			clone := *policy
			matched = append(matched, &clone)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	if len(matched) > limit {
		matched = matched[:limit]
	}

	aggregates := make([]*models.Aggregate, 0, len(matched))
	for _, policy := range matched {
		aggregate, err := s.aggregate(ctx, policy)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, aggregate)
	}
	return aggregates, nil
}

func (s *InMemoryStore) UpdateState(_ context.Context, id int64, state models.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	policy, ok := s.policies[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	policy.State = state
	policy.LastModified = time.Now().UTC()
	return nil
}

func (s *InMemoryStore) AppendHistory(_ context.Context, history *models.StateHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history.ID = s.nextHistoryID
	history.Created = time.Now().UTC()
	s.nextHistoryID++

	clone := *history
	s.history = append(s.history, &clone)
	return nil
}

func (s *InMemoryStore) ListHistory(_ context.Context, policyID, cursor int64, limit int) ([]*models.StateHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.StateHistory
	for _, entry := range s.history {
		if entry.PolicyID != policyID {
			continue
		}
		if cursor > 0 && entry.ID > cursor {
			continue
		}
		clone := *entry
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// TypesByCustomer lists the policy types held by a customer; it feeds the
// customer search policy_type filter when running without Postgres.
func (s *InMemoryStore) TypesByCustomer(customerID int64) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var types []string
	for _, policy := range s.policies {
		if policy.CustomerID == customerID {
			types = append(types, string(policy.Type))
		}
	}
	return types
}
