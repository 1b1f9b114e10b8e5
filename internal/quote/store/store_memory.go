package store

import (
	"context"
	"sync"
	"time"

	"coverbase/internal/quote/models"
	"coverbase/pkg/platform/sentinel"
)

// InMemoryStore backs unit tests and local development without Postgres.
type InMemoryStore struct {
	mu     sync.RWMutex
	quotes map[int64]*models.Quote
	nextID int64
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{quotes: make(map[int64]*models.Quote), nextID: 1}
}

func (s *InMemoryStore) Create(_ context.Context, quote *models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	quote.ID = s.nextID
	quote.Created = now
	quote.LastModified = now
	s.nextID++

	clone := *quote
	s.quotes[clone.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quote, ok := s.quotes[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *quote
	return &clone, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, id int64, status models.Status) (*models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quote, ok := s.quotes[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	quote.Status = status
	quote.LastModified = time.Now().UTC()
	clone := *quote
	return &clone, nil
}
