package checkout

import "time"

// ProcessingEvent is emitted once a payment attempt starts awaiting
// confirmation. The UI uses it to block a second Pay action on the order.
type ProcessingEvent struct {
	AttemptID  string
	OrderID    string
	OccurredAt time.Time
}

func (ProcessingEvent) EventName() string { return "checkout.processing" }

// PaidEvent is emitted exactly once per attempt, on confirmed success.
type PaidEvent struct {
	AttemptID  string
	OrderID    string
	Amount     int64
	OccurredAt time.Time
}

func (PaidEvent) EventName() string { return "checkout.paid" }

// FailedEvent is emitted on a confirmed gateway failure. The cart is intact
// and a fresh attempt against the same order is allowed.
type FailedEvent struct {
	AttemptID  string
	OrderID    string
	Reason     string
	OccurredAt time.Time
}

func (FailedEvent) EventName() string { return "checkout.failed" }

// TimedOutEvent reports an ambiguous outcome: the poll bound was exhausted
// without a terminal signal. Payment may still complete server-side later.
type TimedOutEvent struct {
	AttemptID  string
	OrderID    string
	PollCount  int
	OccurredAt time.Time
}

func (TimedOutEvent) EventName() string { return "checkout.timed_out" }
