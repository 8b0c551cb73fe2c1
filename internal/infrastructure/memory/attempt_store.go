package memory

import (
	"context"
	"fmt"
	"sync"

	dompayment "github.com/fanaka-furniture/checkout/internal/domain/payment"
)

// AttemptStore keeps payment attempts for status queries.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]*dompayment.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[string]*dompayment.Attempt)}
}

// Save upserts the attempt.
func (s *AttemptStore) Save(ctx context.Context, a *dompayment.Attempt) error {
	_ = ctx
	if a == nil || a.ID == "" {
		return fmt.Errorf("attempt store: id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts[a.ID] = a.Clone()
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, id string) (*dompayment.Attempt, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.attempts[id]
	if !ok {
		return nil, dompayment.ErrAttemptNotFound
	}
	return a.Clone(), nil
}
