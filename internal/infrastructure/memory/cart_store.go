package memory

import (
	"context"
	"sync"

	domcart "github.com/fanaka-furniture/checkout/internal/domain/cart"
)

// CartStore keeps one cart per session. Reads return clones so callers
// cannot mutate stored state without going back through Save.
type CartStore struct {
	mu    sync.RWMutex
	carts map[string]*domcart.Cart
}

func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]*domcart.Cart)}
}

// Get returns the session's cart, or a fresh empty cart for new sessions.
func (s *CartStore) Get(ctx context.Context, sessionID string) (*domcart.Cart, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	crt, ok := s.carts[sessionID]
	if !ok {
		return domcart.New(), nil
	}
	return crt.Clone(), nil
}

func (s *CartStore) Save(ctx context.Context, sessionID string, crt *domcart.Cart) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[sessionID] = crt.Clone()
	return nil
}

func (s *CartStore) Clear(ctx context.Context, sessionID string) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}
