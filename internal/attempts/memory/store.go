package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
)

// Store keeps payment attempts in process memory.
type Store struct {
	mu    sync.RWMutex
	items map[string]domain.PaymentAttempt
}

// NewStore creates a new in-memory attempt ledger.
func NewStore() *Store {
	return &Store{items: make(map[string]domain.PaymentAttempt)}
}

// Get returns the attempt with id, or nil when unknown.
func (s *Store) Get(_ context.Context, id string) (*domain.PaymentAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	copy := value
	copy.OrderIDs = slices.Clone(value.OrderIDs)
	return &copy, nil
}

// Save inserts or updates an attempt. A terminal outcome is never overwritten.
func (s *Store) Save(_ context.Context, attempt domain.PaymentAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[attempt.ID]; ok {
		if existing.IsTerminal() {
			return nil
		}
		attempt.CreatedAt = existing.CreatedAt
	}
	attempt.OrderIDs = slices.Clone(attempt.OrderIDs)
	s.items[attempt.ID] = attempt
	return nil
}
