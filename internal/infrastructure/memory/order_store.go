package memory

import (
	"context"
	"fmt"
	"sync"

	domorder "github.com/fanaka-furniture/checkout/internal/domain/order"
)

// OrderStore mirrors remote orders locally as read-mostly snapshots.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domorder.Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]*domorder.Order)}
}

// Save upserts the snapshot.
func (s *OrderStore) Save(ctx context.Context, o *domorder.Order) error {
	_ = ctx
	if o == nil || o.ID == "" {
		return fmt.Errorf("order store: id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.ID] = o.Clone()
	return nil
}

func (s *OrderStore) Get(ctx context.Context, id string) (*domorder.Order, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domorder.ErrNotFound
	}
	return o.Clone(), nil
}
