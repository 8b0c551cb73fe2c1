package notification

import (
	"context"
	"testing"
	"time"

	appcheckout "github.com/fanaka-furniture/checkout/internal/application/checkout"
	domevent "github.com/fanaka-furniture/checkout/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	handlers map[string][]domevent.Handler
}

func (f *fakeSubscriber) Subscribe(eventName string, h domevent.Handler) {
	if f.handlers == nil {
		f.handlers = make(map[string][]domevent.Handler)
	}
	f.handlers[eventName] = append(f.handlers[eventName], h)
}

func (f *fakeSubscriber) emit(t *testing.T, e domevent.Event) {
	t.Helper()
	handlers := f.handlers[e.EventName()]
	require.NotEmpty(t, handlers, "no handler for %s", e.EventName())
	for _, h := range handlers {
		require.NoError(t, h(context.Background(), e))
	}
}

func TestWorkerSubscribesToTerminalEvents(t *testing.T) {
	sub := &fakeSubscriber{}
	New(sub, nil).Start()

	assert.Contains(t, sub.handlers, "checkout.paid")
	assert.Contains(t, sub.handlers, "checkout.failed")
	assert.Contains(t, sub.handlers, "checkout.timed_out")
	assert.NotContains(t, sub.handlers, "checkout.processing")
}

func TestWorkerHandlesTerminalEvents(t *testing.T) {
	sub := &fakeSubscriber{}
	New(sub, nil).Start()

	now := time.Now().UTC()
	sub.emit(t, appcheckout.PaidEvent{AttemptID: "att-1", OrderID: "ord-1", Amount: 16250, OccurredAt: now})
	sub.emit(t, appcheckout.FailedEvent{AttemptID: "att-2", OrderID: "ord-2", Reason: "payment_declined", OccurredAt: now})
	sub.emit(t, appcheckout.TimedOutEvent{AttemptID: "att-3", OrderID: "ord-3", PollCount: 10, OccurredAt: now})
}

func TestWorkerIgnoresMistypedEvents(t *testing.T) {
	sub := &fakeSubscriber{}
	New(sub, nil).Start()

	// A different event type under a subscribed name is skipped, not an error.
	for _, h := range sub.handlers["checkout.paid"] {
		require.NoError(t, h(context.Background(), appcheckout.FailedEvent{}))
	}
}

func TestWorkerNilSubscriber(t *testing.T) {
	assert.NotPanics(t, func() { New(nil, nil).Start() })
}
