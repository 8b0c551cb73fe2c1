package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPhone aborts a checkout before any network call is made.
	ErrInvalidPhone = errors.New("payment: phone is not a valid mobile number")
	// ErrAttemptInFlight rejects a second attempt while one is awaiting confirmation.
	ErrAttemptInFlight = errors.New("payment: an attempt is already awaiting confirmation for this order")
	ErrAttemptNotFound = errors.New("payment: attempt not found")
	// ErrAmountMismatch guards the invariant that the amount charged equals
	// the draft total echoed back by the remote order.
	ErrAmountMismatch = errors.New("payment: remote order total does not match draft total")
)

// OrderCreationError means the remote create-order call failed. No payment
// was attempted and the cart is untouched.
type OrderCreationError struct {
	Err error
}

func (e *OrderCreationError) Error() string {
	return fmt.Sprintf("payment: order creation failed: %v", e.Err)
}

func (e *OrderCreationError) Unwrap() error { return e.Err }

// InitiationError means the push-payment trigger failed or was declined.
// No prompt was sent; the order remains pending_payment and retryable.
type InitiationError struct {
	// Declined is true when the gateway answered but refused the request,
	// as opposed to a transport failure.
	Declined bool
	Err      error
}

func (e *InitiationError) Error() string {
	if e.Declined {
		return "payment: initiation declined by gateway"
	}
	return fmt.Sprintf("payment: initiation failed: %v", e.Err)
}

func (e *InitiationError) Unwrap() error { return e.Err }

// TransportError is a single failed status check. The poller absorbs these
// as "pending" up to its poll bound; only sustained failure becomes a timeout.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("payment: status check failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
