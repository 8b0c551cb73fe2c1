package checkout

import (
	"context"

	domcart "github.com/fanaka-furniture/checkout/internal/domain/cart"
	domorder "github.com/fanaka-furniture/checkout/internal/domain/order"
	dompayment "github.com/fanaka-furniture/checkout/internal/domain/payment"
)

// GatewayStatus is the remote view of one push-payment prompt.
type GatewayStatus string

const (
	GatewayStatusPending GatewayStatus = "pending"
	GatewayStatusSuccess GatewayStatus = "success"
	GatewayStatusFailed  GatewayStatus = "failed"
)

// InitiateResult is the gateway's answer to a push-payment trigger.
// Accepted=true means a prompt may have been sent; it says nothing about
// eventual completion. CheckoutRequestID may be empty even when accepted.
type InitiateResult struct {
	Accepted          bool
	CheckoutRequestID string
}

// Gateway is the outbound port over the remote order/payment service.
// Each operation is a single request/response; the adapter owns error
// classification and performs no retries of its own.
type Gateway interface {
	CreateOrder(ctx context.Context, draft *domorder.Draft, token string) (*domorder.Order, error)
	InitiatePayment(ctx context.Context, orderID, msisdn string, amount int64, token string) (InitiateResult, error)
	CheckStatus(ctx context.Context, checkoutRequestID string) (GatewayStatus, error)
}

// StatusChecker is the slice of Gateway the poller needs.
type StatusChecker interface {
	CheckStatus(ctx context.Context, checkoutRequestID string) (GatewayStatus, error)
}

// TokenSource supplies a bearer token for authenticated gateway calls.
// Injected as a capability rather than read from ambient storage.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// CartController is the slice of the cart service the orchestrator needs.
// Clear is invoked only on a confirmed terminal success.
type CartController interface {
	Get(ctx context.Context, sessionID string) (*domcart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

// OrderStore keeps the local read-mostly mirror of remote orders.
type OrderStore interface {
	Save(ctx context.Context, o *domorder.Order) error
	Get(ctx context.Context, id string) (*domorder.Order, error)
}

// AttemptStore keeps payment attempts for status queries. Save upserts.
type AttemptStore interface {
	Save(ctx context.Context, a *dompayment.Attempt) error
	Get(ctx context.Context, id string) (*dompayment.Attempt, error)
}

type IDGenerator interface {
	NewID() string
}
