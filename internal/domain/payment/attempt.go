package payment

import "time"

type AttemptStatus string

const (
	AttemptInitiated            AttemptStatus = "initiated"
	AttemptAwaitingConfirmation AttemptStatus = "awaiting_confirmation"
	AttemptSucceeded            AttemptStatus = "succeeded"
	AttemptFailed               AttemptStatus = "failed"
	AttemptTimedOut             AttemptStatus = "timed_out"
)

// Terminal reports whether no further automatic transition occurs from s.
func (s AttemptStatus) Terminal() bool {
	switch s {
	case AttemptSucceeded, AttemptFailed, AttemptTimedOut:
		return true
	}
	return false
}

// Attempt is one push-payment attempt against an order. At most one attempt
// per order may be in flight; a new attempt may only start once the previous
// one has reached a terminal status.
type Attempt struct {
	ID string
	// OrderID is the remote order this attempt pays for.
	OrderID string
	// CheckoutRequestID is the provider's polling handle. Empty when the
	// gateway accepted the request but returned no trackable handle.
	CheckoutRequestID string
	// Phone is the normalized MSISDN the prompt was pushed to.
	Phone           string
	AmountRequested int64
	Status          AttemptStatus
	FailureReason   string
	StartedAt       time.Time
	PollCount       int
	LastPolledAt    time.Time
}

func (a *Attempt) Clone() *Attempt {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}
