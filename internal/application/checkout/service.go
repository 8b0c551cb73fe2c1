package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domevent "github.com/fanaka-furniture/checkout/internal/domain/event"
	domorder "github.com/fanaka-furniture/checkout/internal/domain/order"
	dompayment "github.com/fanaka-furniture/checkout/internal/domain/payment"
	"github.com/fanaka-furniture/checkout/internal/domain/phone"
	"github.com/fanaka-furniture/checkout/internal/observability"
	"github.com/fanaka-furniture/checkout/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
)

const useCasePay = "checkout.pay"

// ErrOrderNotPayable rejects a retry against an order that is not in a
// payable state (already paid, or unknown).
var ErrOrderNotPayable = errors.New("checkout: order is not in a payable state")

// Service sequences one checkout attempt: draft, remote order creation,
// payment initiation, and confirmation polling. It exclusively owns the
// active attempt per order; no other component writes attempt status.
type Service struct {
	gateway  Gateway
	tokens   TokenSource
	carts    CartController
	orders   OrderStore
	attempts AttemptStore
	bus      domevent.Publisher
	ids      IDGenerator
	pollCfg  PollerConfig
	tel      observability.Telemetry
	log      observability.Logger

	mu           sync.Mutex
	busySessions map[string]struct{}
	busyOrders   map[string]struct{}
	pollers      map[string]*Poller // keyed by order id
}

func NewService(
	gateway Gateway,
	tokens TokenSource,
	carts CartController,
	orders OrderStore,
	attempts AttemptStore,
	bus domevent.Publisher,
	ids IDGenerator,
	pollCfg PollerConfig,
	tel observability.Telemetry,
) *Service {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Service{
		gateway:      gateway,
		tokens:       tokens,
		carts:        carts,
		orders:       orders,
		attempts:     attempts,
		bus:          bus,
		ids:          ids,
		pollCfg:      pollCfg.withDefaults(),
		tel:          tel,
		log:          tel.Logger().With(observability.F("component", "checkout_service")),
		busySessions: make(map[string]struct{}),
		busyOrders:   make(map[string]struct{}),
		pollers:      make(map[string]*Poller),
	}
}

type PayInput struct {
	SessionID string
	// OrderID retries payment against an existing order. Empty for a fresh
	// checkout, where the order is created from the session cart.
	OrderID  string
	Phone    string
	Shipping domorder.ShippingInfo
}

type PayResult struct {
	OrderID   string
	AttemptID string
	Status    dompayment.AttemptStatus
}

// Pay starts one checkout attempt and returns as soon as the confirmation
// poller is running. Terminal and interim outcomes are delivered on the
// event bus; callers observe progress via Attempt.
func (s *Service) Pay(ctx context.Context, in PayInput) (result *PayResult, err error) {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("use_case", useCasePay),
		observability.F("session_id", in.SessionID),
	)
	ctx, span := s.tel.Tracer().Start(ctx, "UC.Pay",
		attribute.String("use_case", useCasePay),
	)
	start := time.Now()
	defer func() {
		span.End()
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		s.tel.Counter(observability.MUsecaseRequests).Add(1,
			observability.L("use_case", useCasePay),
			observability.L("outcome", outcome),
		)
		s.tel.Histogram(observability.MUsecaseDuration).Observe(time.Since(start).Seconds(),
			observability.L("use_case", useCasePay),
		)
	}()

	msisdn := phone.Normalize(in.Phone)
	if !msisdn.Valid {
		logger.Warn("checkout_invalid_phone")
		return nil, dompayment.ErrInvalidPhone
	}

	if in.OrderID != "" {
		return s.retryPay(ctx, in, msisdn.Normalized, logger)
	}
	return s.freshPay(ctx, in, msisdn.Normalized, logger)
}

func (s *Service) freshPay(ctx context.Context, in PayInput, msisdn string, logger observability.Logger) (*PayResult, error) {
	crt, err := s.carts.Get(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("checkout: load cart: %w", err)
	}
	draft, err := BuildDraft(crt, in.Shipping)
	if err != nil {
		return nil, err
	}

	if err := s.acquire(in.SessionID, ""); err != nil {
		return nil, err
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		s.release(in.SessionID, "")
		return nil, fmt.Errorf("checkout: auth token: %w", err)
	}

	// createOrder is not idempotent remotely, so it runs at most once per
	// attempt regardless of downstream failures.
	ord, err := s.gateway.CreateOrder(ctx, draft, token)
	if err != nil {
		s.release(in.SessionID, "")
		return nil, err
	}
	if ord.Total != draft.Total {
		s.release(in.SessionID, "")
		return nil, dompayment.ErrAmountMismatch
	}
	s.markOrderBusy(ord.ID)

	ord.MarkPendingPayment()
	if err := s.orders.Save(ctx, ord); err != nil {
		s.release(in.SessionID, ord.ID)
		return nil, fmt.Errorf("checkout: save order: %w", err)
	}
	logger.Info("checkout_order_created",
		observability.F("order_id", ord.ID),
		observability.F("total", ord.Total),
	)

	return s.initiateAndWatch(ctx, in.SessionID, ord, msisdn, draft.Total, token, logger)
}

func (s *Service) retryPay(ctx context.Context, in PayInput, msisdn string, logger observability.Logger) (*PayResult, error) {
	ord, err := s.orders.Get(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if ord.Status != domorder.StatusPendingPayment && ord.Status != domorder.StatusFailed {
		return nil, ErrOrderNotPayable
	}

	if err := s.acquire(in.SessionID, ord.ID); err != nil {
		return nil, err
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		s.release(in.SessionID, ord.ID)
		return nil, fmt.Errorf("checkout: auth token: %w", err)
	}

	ord.MarkPendingPayment()
	if err := s.orders.Save(ctx, ord); err != nil {
		s.release(in.SessionID, ord.ID)
		return nil, fmt.Errorf("checkout: save order: %w", err)
	}
	logger.Info("checkout_retry",
		observability.F("order_id", ord.ID),
	)

	return s.initiateAndWatch(ctx, in.SessionID, ord, msisdn, ord.Total, token, logger)
}

func (s *Service) initiateAndWatch(ctx context.Context, sessionID string, ord *domorder.Order, msisdn string, amount int64, token string, logger observability.Logger) (*PayResult, error) {
	res, err := s.gateway.InitiatePayment(ctx, ord.ID, msisdn, amount, token)
	if err != nil {
		s.release(sessionID, ord.ID)
		return nil, err
	}
	if !res.Accepted {
		// No prompt was sent; the order stays pending_payment and retryable.
		s.release(sessionID, ord.ID)
		return nil, &dompayment.InitiationError{Declined: true}
	}

	att := &dompayment.Attempt{
		ID:                s.ids.NewID(),
		OrderID:           ord.ID,
		CheckoutRequestID: res.CheckoutRequestID,
		Phone:             msisdn,
		AmountRequested:   amount,
		Status:            dompayment.AttemptAwaitingConfirmation,
		StartedAt:         time.Now().UTC(),
	}
	if err := s.attempts.Save(ctx, att); err != nil {
		s.release(sessionID, ord.ID)
		return nil, fmt.Errorf("checkout: save attempt: %w", err)
	}

	poller := NewPoller(s.gateway, s.pollCfg, s.log)
	s.mu.Lock()
	s.pollers[ord.ID] = poller
	s.mu.Unlock()

	s.publish(ctx, ProcessingEvent{
		AttemptID:  att.ID,
		OrderID:    ord.ID,
		OccurredAt: time.Now().UTC(),
	})
	logger.Info("checkout_awaiting_confirmation",
		observability.F("order_id", ord.ID),
		observability.F("attempt_id", att.ID),
		observability.F("checkout_request_id", att.CheckoutRequestID),
	)

	// The poller outlives the triggering request.
	bg := context.WithoutCancel(ctx)
	poller.Watch(bg, att,
		func(a *dompayment.Attempt) {
			if err := s.attempts.Save(bg, a); err != nil {
				s.log.Warn("attempt_save_failed", observability.F("error", err.Error()))
			}
		},
		func(a *dompayment.Attempt, out Outcome) {
			s.finish(bg, sessionID, a, out)
		},
	)

	return &PayResult{
		OrderID:   ord.ID,
		AttemptID: att.ID,
		Status:    dompayment.AttemptAwaitingConfirmation,
	}, nil
}

// finish applies a terminal poll outcome: it is the only place where a
// confirmed result mutates the order mirror or clears the cart.
func (s *Service) finish(ctx context.Context, sessionID string, att *dompayment.Attempt, out Outcome) {
	logger := s.log.With(
		observability.F("order_id", att.OrderID),
		observability.F("attempt_id", att.ID),
		observability.F("status", string(out.Status)),
	)

	if err := s.attempts.Save(ctx, att); err != nil {
		logger.Warn("attempt_save_failed", observability.F("error", err.Error()))
	}

	ord, err := s.orders.Get(ctx, att.OrderID)
	if err != nil {
		logger.Error("order_lookup_failed", observability.F("error", err.Error()))
	}

	now := time.Now().UTC()
	switch out.Status {
	case dompayment.AttemptSucceeded:
		if ord != nil {
			ord.MarkPaid()
			if err := s.orders.Save(ctx, ord); err != nil {
				logger.Error("order_save_failed", observability.F("error", err.Error()))
			}
		}
		if err := s.carts.Clear(ctx, sessionID); err != nil {
			logger.Error("cart_clear_failed", observability.F("error", err.Error()))
		}
		s.publish(ctx, PaidEvent{AttemptID: att.ID, OrderID: att.OrderID, Amount: att.AmountRequested, OccurredAt: now})
	case dompayment.AttemptFailed:
		if ord != nil {
			ord.MarkFailed()
			if err := s.orders.Save(ctx, ord); err != nil {
				logger.Error("order_save_failed", observability.F("error", err.Error()))
			}
		}
		s.publish(ctx, FailedEvent{AttemptID: att.ID, OrderID: att.OrderID, Reason: out.Reason, OccurredAt: now})
	case dompayment.AttemptTimedOut:
		// Ambiguous: payment may still complete server-side. The order stays
		// pending_payment and the cart is untouched.
		s.publish(ctx, TimedOutEvent{AttemptID: att.ID, OrderID: att.OrderID, PollCount: att.PollCount, OccurredAt: now})
	}

	s.tel.Counter(observability.MPaymentAttempts).Add(1,
		observability.L("status", string(out.Status)),
	)
	s.tel.Counter(observability.MPaymentPolls).Add(float64(att.PollCount))
	logger.Info("checkout_attempt_finished")

	s.release(sessionID, att.OrderID)
}

// Attempt returns the attempt snapshot, including the interim
// awaiting_confirmation state the UI uses as its processing indicator.
func (s *Service) Attempt(ctx context.Context, id string) (*dompayment.Attempt, error) {
	return s.attempts.Get(ctx, id)
}

func (s *Service) Order(ctx context.Context, id string) (*domorder.Order, error) {
	return s.orders.Get(ctx, id)
}

// Shutdown cancels every in-flight poller. No callbacks fire after it returns.
func (s *Service) Shutdown() {
	s.mu.Lock()
	pollers := make([]*Poller, 0, len(s.pollers))
	for _, p := range s.pollers {
		pollers = append(pollers, p)
	}
	s.mu.Unlock()

	for _, p := range pollers {
		p.Cancel()
	}
}

func (s *Service) acquire(sessionID, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.busySessions[sessionID]; busy {
		return dompayment.ErrAttemptInFlight
	}
	if orderID != "" {
		if _, busy := s.busyOrders[orderID]; busy {
			return dompayment.ErrAttemptInFlight
		}
		s.busyOrders[orderID] = struct{}{}
	}
	s.busySessions[sessionID] = struct{}{}
	return nil
}

// markOrderBusy claims the order slot once the remote id is known.
func (s *Service) markOrderBusy(orderID string) {
	s.mu.Lock()
	s.busyOrders[orderID] = struct{}{}
	s.mu.Unlock()
}

func (s *Service) release(sessionID, orderID string) {
	s.mu.Lock()
	delete(s.busySessions, sessionID)
	if orderID != "" {
		delete(s.busyOrders, orderID)
		delete(s.pollers, orderID)
	}
	s.mu.Unlock()
}

func (s *Service) publish(ctx context.Context, e domevent.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, e); err != nil {
		s.log.Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	}
}
