package cart

import (
	"context"

	domcart "github.com/fanaka-furniture/checkout/internal/domain/cart"
	"github.com/fanaka-furniture/checkout/internal/observability"
	"github.com/fanaka-furniture/checkout/internal/observability/logctx"
)

// Store persists one cart per session.
type Store interface {
	Get(ctx context.Context, sessionID string) (*domcart.Cart, error)
	Save(ctx context.Context, sessionID string, c *domcart.Cart) error
	Clear(ctx context.Context, sessionID string) error
}

// Service owns cart mutations for a session. The checkout orchestrator uses
// its Get and Clear; Clear runs only under a confirmed payment success.
type Service struct {
	store Store
	log   observability.Logger
}

func NewService(store Store, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		store: store,
		log:   logger.With(observability.F("component", "cart_service")),
	}
}

func (s *Service) Get(ctx context.Context, sessionID string) (*domcart.Cart, error) {
	return s.store.Get(ctx, sessionID)
}

func (s *Service) AddItem(ctx context.Context, sessionID string, line domcart.Line) (*domcart.Cart, error) {
	crt, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := crt.AddLine(line); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sessionID, crt); err != nil {
		return nil, err
	}
	logctx.FromOr(ctx, s.log).Info("cart_item_added",
		observability.F("session_id", sessionID),
		observability.F("product_id", line.ProductID),
		observability.F("quantity", line.Quantity),
	)
	return crt, nil
}

func (s *Service) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*domcart.Cart, error) {
	crt, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := crt.UpdateQuantity(productID, quantity); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sessionID, crt); err != nil {
		return nil, err
	}
	return crt, nil
}

func (s *Service) RemoveItem(ctx context.Context, sessionID, productID string) (*domcart.Cart, error) {
	crt, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := crt.RemoveLine(productID); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sessionID, crt); err != nil {
		return nil, err
	}
	return crt, nil
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return err
	}
	logctx.FromOr(ctx, s.log).Info("cart_cleared",
		observability.F("session_id", sessionID),
	)
	return nil
}
