package checkout

import (
	"context"
	"sync"
	"time"

	dompayment "github.com/fanaka-furniture/checkout/internal/domain/payment"
	"github.com/fanaka-furniture/checkout/internal/observability"
)

// NoHandlePolicy decides what happens when the gateway accepts a payment
// request but returns no checkout request id to poll. The original storefront
// assumed success after a long delay; that trades unconfirmed charges for
// simplicity, so the policy is configuration, not a silent default.
type NoHandlePolicy string

const (
	NoHandleAssumeSuccess NoHandlePolicy = "assume_success"
	NoHandleTimeOut       NoHandlePolicy = "time_out"
)

// PollerConfig names every timing knob of the confirmation loop.
type PollerConfig struct {
	// GraceDelay runs before the first status check so the customer has had
	// time to see the PIN prompt.
	GraceDelay   time.Duration
	PollInterval time.Duration
	// MaxPolls bounds the loop; exhausting it without a terminal signal
	// resolves the attempt as timed out.
	MaxPolls int
	// OptimisticDelay is the single long timer armed when there is no
	// checkout request id to poll.
	OptimisticDelay time.Duration
	NoHandlePolicy  NoHandlePolicy
}

func (c PollerConfig) withDefaults() PollerConfig {
	if c.GraceDelay <= 0 {
		c.GraceDelay = 5 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 3 * time.Second
	}
	if c.MaxPolls <= 0 {
		c.MaxPolls = 10
	}
	if c.OptimisticDelay <= 0 {
		c.OptimisticDelay = 20 * time.Second
	}
	if c.NoHandlePolicy == "" {
		c.NoHandlePolicy = NoHandleAssumeSuccess
	}
	return c
}

// Outcome is the terminal resolution of one attempt.
type Outcome struct {
	Status dompayment.AttemptStatus
	Reason string
}

// Poller resolves one accepted payment attempt into a terminal outcome by
// querying the gateway until success, failure, or the poll bound.
//
// Callback ordering: every pending observation is delivered before the
// terminal callback, and the terminal callback fires at most once. After
// Cancel returns, no further callbacks are invoked.
type Poller struct {
	checker StatusChecker
	cfg     PollerConfig
	log     observability.Logger

	mu        sync.Mutex
	started   bool
	cancelled bool
	stop      context.CancelFunc
	done      chan struct{}
}

func NewPoller(checker StatusChecker, cfg PollerConfig, logger observability.Logger) *Poller {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Poller{
		checker: checker,
		cfg:     cfg.withDefaults(),
		log:     logger.With(observability.F("component", "payment_poller")),
		done:    make(chan struct{}),
	}
}

// Watch starts the confirmation loop in the background and returns
// immediately. The poller works on its own copy of the attempt; callbacks
// receive the updated copy and the caller persists it. Watch may be called
// once per Poller.
func (p *Poller) Watch(ctx context.Context, attempt *dompayment.Attempt, onPending func(*dompayment.Attempt), onTerminal func(*dompayment.Attempt, Outcome)) {
	p.mu.Lock()
	if p.started || p.cancelled {
		p.mu.Unlock()
		return
	}
	p.started = true
	runCtx, cancel := context.WithCancel(ctx)
	p.stop = cancel
	p.mu.Unlock()

	go p.run(runCtx, attempt.Clone(), onPending, onTerminal)
}

// Cancel stops all pending timers. It is synchronous: once Cancel returns,
// neither callback will be invoked again.
func (p *Poller) Cancel() {
	p.mu.Lock()
	p.cancelled = true
	stop := p.stop
	p.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Done is closed when the background loop has exited.
func (p *Poller) Done() <-chan struct{} { return p.done }

func (p *Poller) run(ctx context.Context, att *dompayment.Attempt, onPending func(*dompayment.Attempt), onTerminal func(*dompayment.Attempt, Outcome)) {
	defer close(p.done)
	logger := p.log.With(
		observability.F("attempt_id", att.ID),
		observability.F("order_id", att.OrderID),
	)

	att.Status = dompayment.AttemptAwaitingConfirmation

	if att.CheckoutRequestID == "" {
		p.resolveWithoutHandle(ctx, att, logger, onTerminal)
		return
	}

	if !p.sleep(ctx, p.cfg.GraceDelay) {
		return
	}

	for {
		status, err := p.checker.CheckStatus(ctx, att.CheckoutRequestID)
		if ctx.Err() != nil {
			return
		}
		att.PollCount++
		att.LastPolledAt = time.Now().UTC()

		if err != nil {
			// A single failed check is not fatal; treat it as pending and
			// let the poll bound decide.
			logger.Warn("payment_poll_transport_error",
				observability.F("poll_count", att.PollCount),
				observability.F("error", err.Error()),
			)
			status = GatewayStatusPending
		}

		switch status {
		case GatewayStatusSuccess:
			p.emitTerminal(att, Outcome{Status: dompayment.AttemptSucceeded}, logger, onTerminal)
			return
		case GatewayStatusFailed:
			p.emitTerminal(att, Outcome{Status: dompayment.AttemptFailed, Reason: "payment_declined"}, logger, onTerminal)
			return
		default:
			logger.Debug("payment_poll_pending",
				observability.F("poll_count", att.PollCount),
			)
			p.emitPending(att, onPending)
		}

		if att.PollCount >= p.cfg.MaxPolls {
			p.emitTerminal(att, Outcome{Status: dompayment.AttemptTimedOut, Reason: "poll_bound_exceeded"}, logger, onTerminal)
			return
		}
		if !p.sleep(ctx, p.cfg.PollInterval) {
			return
		}
	}
}

// resolveWithoutHandle arms a single long timer: there is nothing to query,
// so on expiry the attempt resolves by policy alone.
func (p *Poller) resolveWithoutHandle(ctx context.Context, att *dompayment.Attempt, logger observability.Logger, onTerminal func(*dompayment.Attempt, Outcome)) {
	if !p.sleep(ctx, p.cfg.OptimisticDelay) {
		return
	}
	out := Outcome{Status: dompayment.AttemptSucceeded, Reason: "assumed_success_no_handle"}
	if p.cfg.NoHandlePolicy == NoHandleTimeOut {
		out = Outcome{Status: dompayment.AttemptTimedOut, Reason: "no_handle_to_poll"}
	}
	logger.Warn("payment_resolved_without_confirmation",
		observability.F("policy", string(p.cfg.NoHandlePolicy)),
		observability.F("status", string(out.Status)),
	)
	p.emitTerminal(att, out, logger, onTerminal)
}

// emitPending and emitTerminal hold the mutex while invoking the callback so
// a concurrent Cancel cannot return until an in-progress callback finishes.
func (p *Poller) emitPending(att *dompayment.Attempt, onPending func(*dompayment.Attempt)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelled || onPending == nil {
		return
	}
	onPending(att.Clone())
}

func (p *Poller) emitTerminal(att *dompayment.Attempt, out Outcome, logger observability.Logger, onTerminal func(*dompayment.Attempt, Outcome)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelled {
		return
	}
	att.Status = out.Status
	att.FailureReason = out.Reason
	logger.Info("payment_attempt_terminal",
		observability.F("status", string(out.Status)),
		observability.F("poll_count", att.PollCount),
	)
	if onTerminal != nil {
		onTerminal(att.Clone(), out)
	}
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
