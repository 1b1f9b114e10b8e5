package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"coverbase/internal/customer/models"
	"coverbase/pkg/platform/sentinel"
)

// PolicyTypeIndex reports the policy types held by a customer. The in-memory
// policy store implements it so the policy_type filter works without Postgres.
type PolicyTypeIndex interface {
	TypesByCustomer(customerID int64) []string
}

// InMemoryStore backs unit tests and local development without Postgres.
type InMemoryStore struct {
	mu          sync.RWMutex
	customers   map[int64]*models.Customer
	nextID      int64
	policyTypes PolicyTypeIndex
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{customers: make(map[int64]*models.Customer), nextID: 1}
}

// SetPolicyTypeIndex wires the policy-type filter source. Searches filtering
// by policy_type match nothing until an index is set.
func (s *InMemoryStore) SetPolicyTypeIndex(index PolicyTypeIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policyTypes = index
}

func (s *InMemoryStore) Create(_ context.Context, customer *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	customer.ID = s.nextID
	customer.Created = now
	customer.LastModified = now
	s.nextID++

	clone := *customer
	s.customers[clone.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *customer
	return &clone, nil
}

func (s *InMemoryStore) matches(customer *models.Customer, filter models.Filter) bool {
	if filter.FirstName != "" && !strings.Contains(strings.ToLower(customer.FirstName), strings.ToLower(filter.FirstName)) {
		return false
	}
	if filter.LastName != "" && !strings.Contains(strings.ToLower(customer.LastName), strings.ToLower(filter.LastName)) {
		return false
	}
	if filter.DateOfBirth != nil && !customer.DateOfBirth.Equal(*filter.DateOfBirth) {
		return false
	}
	if filter.PolicyType != "" {
		if s.policyTypes == nil {
			return false
		}
		held := false
		for _, policyType := range s.policyTypes.TypesByCustomer(customer.ID) {
			if policyType == filter.PolicyType {
				held = true
				break
			}
		}
		if !held {
			return false
		}
	}
	return true
}

func (s *InMemoryStore) all(filter models.Filter) []*models.Customer {
	var matched []*models.Customer
	for _, customer := range s.customers {
		if s.matches(customer, filter) {
			clone := *customer
			matched = append(matched, &clone)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched
}

func (s *InMemoryStore) Search(_ context.Context, filter models.Filter, limit, offset int) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.all(filter)
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *InMemoryStore) CountSearch(_ context.Context, filter models.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.all(filter)), nil
}
