package bus

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	domevent "github.com/fanaka-furniture/checkout/internal/domain/event"
	"github.com/fanaka-furniture/checkout/internal/observability"
	"github.com/fanaka-furniture/checkout/internal/observability/logctx"
)

const componentBus = "event_bus"

// ErrStopped is returned by Publish once the bus has been stopped.
var ErrStopped = errors.New("bus: stopped")

// Bus is an in-memory event bus: checkout outcomes fan out to in-process
// subscribers (notifications, logging). It is not durable; events published
// after Stop are rejected with ErrStopped.
type Bus struct {
	mu        sync.RWMutex
	subs      map[string][]domevent.Handler
	queue     chan domevent.Event
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	log       observability.Logger
}

func New(logger observability.Logger) *Bus {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Bus{
		subs:  make(map[string][]domevent.Handler),
		queue: make(chan domevent.Event, 256),
		done:  make(chan struct{}),
		log:   logger.With(observability.F("component", componentBus)),
	}
}

func (b *Bus) Subscribe(eventName string, h domevent.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		bg, cancel := context.WithCancel(ctx)
		b.cancel = cancel
		go b.dispatchLoop(bg)
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

// Stop ends dispatching. The queue channel is never closed; concurrent
// publishers observe the done signal instead, so a publish racing Stop can
// neither panic nor block on a queue nobody drains.
func (b *Bus) Stop(ctx context.Context) {
	b.stopOnce.Do(func() {
		if b.cancel != nil {
			b.cancel()
		}
		close(b.done)
		logctx.FromOr(ctx, b.log).Info("event_bus_stopped")
	})
}

func (b *Bus) Publish(ctx context.Context, e domevent.Event) error {
	if e == nil {
		return nil
	}
	select {
	case <-b.done:
		return ErrStopped
	default:
	}
	select {
	case b.queue <- e:
		return nil
	case <-b.done:
		return ErrStopped
	case <-ctx.Done():
		b.log.Warn("event_enqueue_aborted",
			observability.F("event", e.EventName()),
			observability.F("error", ctx.Err().Error()),
		)
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-b.queue:
			b.fanout(ctx, e)
		}
	}
}

// fanout delivers one event to all handlers sequentially, in subscription
// order, so a subscriber observes events in the order they were published.
func (b *Bus) fanout(ctx context.Context, e domevent.Event) {
	name := e.EventName()

	b.mu.RLock()
	handlers := append([]domevent.Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.Debug("event_dropped_no_subscriber", observability.F("event", name))
		return
	}

	ctx = logctx.With(context.WithoutCancel(ctx), b.log)
	for _, h := range handlers {
		b.deliver(ctx, name, e, h)
	}
}

func (b *Bus) deliver(ctx context.Context, name string, e domevent.Event, h domevent.Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event_handler_panic",
				observability.F("event", name),
				observability.F("panic", r),
				observability.F("stack", string(debug.Stack())),
			)
		}
	}()

	hctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := h(hctx, e); err != nil {
		b.log.Warn("event_handler_error",
			observability.F("event", name),
			observability.F("error", err.Error()),
		)
	}
}
