package notification

import (
	"context"

	appcheckout "github.com/fanaka-furniture/checkout/internal/application/checkout"
	domevent "github.com/fanaka-furniture/checkout/internal/domain/event"
	"github.com/fanaka-furniture/checkout/internal/observability"
	"github.com/fanaka-furniture/checkout/internal/observability/logctx"
)

const notificationWorker = "notification_worker"

// Worker turns terminal checkout events into user-facing notifications.
// Timeouts deliberately read differently from failures: a timeout is an
// ambiguous outcome, not a confirmed one.
type Worker struct {
	subscriber domevent.Subscriber
	log        observability.Logger
}

func New(subscriber domevent.Subscriber, logger observability.Logger) *Worker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Worker{
		subscriber: subscriber,
		log:        logger.With(observability.F("component", notificationWorker)),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(appcheckout.PaidEvent{}.EventName(), w.handlePaid)
	w.subscriber.Subscribe(appcheckout.FailedEvent{}.EventName(), w.handleFailed)
	w.subscriber.Subscribe(appcheckout.TimedOutEvent{}.EventName(), w.handleTimedOut)
}

func (w *Worker) handlePaid(ctx context.Context, e domevent.Event) error {
	evt, ok := e.(appcheckout.PaidEvent)
	if !ok {
		return nil
	}
	logctx.FromOr(ctx, w.log).Info("notify_payment_received",
		observability.F("order_id", evt.OrderID),
		observability.F("amount", evt.Amount),
		observability.F("message", "Payment received. Your order is confirmed."),
	)
	return nil
}

func (w *Worker) handleFailed(ctx context.Context, e domevent.Event) error {
	evt, ok := e.(appcheckout.FailedEvent)
	if !ok {
		return nil
	}
	logctx.FromOr(ctx, w.log).Info("notify_payment_failed",
		observability.F("order_id", evt.OrderID),
		observability.F("reason", evt.Reason),
		observability.F("message", "Payment was not completed. You can try paying again."),
	)
	return nil
}

func (w *Worker) handleTimedOut(ctx context.Context, e domevent.Event) error {
	evt, ok := e.(appcheckout.TimedOutEvent)
	if !ok {
		return nil
	}
	logctx.FromOr(ctx, w.log).Warn("notify_payment_unconfirmed",
		observability.F("order_id", evt.OrderID),
		observability.F("polls", evt.PollCount),
		observability.F("message", "We could not confirm your payment yet. If you entered your PIN, the order will update once the payment settles."),
	)
	return nil
}
