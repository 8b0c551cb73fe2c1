package bus_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domevent "github.com/fanaka-furniture/checkout/internal/domain/event"
	"github.com/fanaka-furniture/checkout/internal/infrastructure/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	name string
	seq  int
}

func (e testEvent) EventName() string { return e.name }

func collect(out *[]domevent.Event, mu *sync.Mutex, done chan<- struct{}) domevent.Handler {
	return func(_ context.Context, e domevent.Event) error {
		mu.Lock()
		*out = append(*out, e)
		mu.Unlock()
		if done != nil {
			done <- struct{}{}
		}
		return nil
	}
}

func TestBusDeliversToSubscribers(t *testing.T) {
	b := bus.New(nil)
	b.Start(context.Background())
	defer b.Stop(context.Background())

	var mu sync.Mutex
	var got []domevent.Event
	done := make(chan struct{}, 1)
	b.Subscribe("order.paid", collect(&got, &mu, done))

	require.NoError(t, b.Publish(context.Background(), testEvent{name: "order.paid"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "order.paid", got[0].EventName())
}

func TestBusPreservesOrderPerSubscriber(t *testing.T) {
	b := bus.New(nil)
	b.Start(context.Background())
	defer b.Stop(context.Background())

	var mu sync.Mutex
	var got []domevent.Event
	done := make(chan struct{}, 16)
	b.Subscribe("tick", collect(&got, &mu, done))

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Publish(context.Background(), testEvent{name: "tick", seq: i}))
	}
	for i := 0; i < 5; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("missing delivery")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 5)
	for i, e := range got {
		assert.Equal(t, i, e.(testEvent).seq)
	}
}

func TestBusIgnoresUnsubscribedEvents(t *testing.T) {
	b := bus.New(nil)
	b.Start(context.Background())
	defer b.Stop(context.Background())

	var mu sync.Mutex
	var got []domevent.Event
	b.Subscribe("wanted", collect(&got, &mu, nil))

	require.NoError(t, b.Publish(context.Background(), testEvent{name: "unwanted"}))
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, got)
}

func TestBusSurvivesHandlerPanicAndError(t *testing.T) {
	b := bus.New(nil)
	b.Start(context.Background())
	defer b.Stop(context.Background())

	var mu sync.Mutex
	var got []domevent.Event
	done := make(chan struct{}, 1)

	b.Subscribe("boom", func(context.Context, domevent.Event) error {
		panic("handler bug")
	})
	b.Subscribe("boom", func(context.Context, domevent.Event) error {
		return errors.New("handler failed")
	})
	b.Subscribe("boom", collect(&got, &mu, done))

	require.NoError(t, b.Publish(context.Background(), testEvent{name: "boom"}))

	// The panicking and failing handlers must not block later subscribers.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery stopped after handler panic")
	}
}

func TestBusPublishAfterStopReturnsError(t *testing.T) {
	b := bus.New(nil)
	b.Start(context.Background())
	b.Stop(context.Background())

	err := b.Publish(context.Background(), testEvent{name: "late"})
	assert.ErrorIs(t, err, bus.ErrStopped)
}

func TestBusPublishRacingStopDoesNotPanic(t *testing.T) {
	for i := 0; i < 200; i++ {
		b := bus.New(nil)
		b.Start(context.Background())

		var wg sync.WaitGroup
		for g := 0; g < 2; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for n := 0; n < 50; n++ {
					err := b.Publish(context.Background(), testEvent{name: "race", seq: n})
					if err != nil {
						assert.ErrorIs(t, err, bus.ErrStopped)
					}
				}
			}()
		}
		b.Stop(context.Background())
		wg.Wait()
	}
}

func TestBusPublishDoesNotBlockOnFullQueueAfterStop(t *testing.T) {
	b := bus.New(nil)
	// Never started: fill the queue so a late publish has no free slot, then
	// stop. The publish must return promptly instead of blocking forever.
	for i := 0; i < 256; i++ {
		require.NoError(t, b.Publish(context.Background(), testEvent{name: "fill"}))
	}
	b.Stop(context.Background())

	doneCh := make(chan error, 1)
	go func() {
		doneCh <- b.Publish(context.Background(), testEvent{name: "overflow"})
	}()
	select {
	case err := <-doneCh:
		assert.ErrorIs(t, err, bus.ErrStopped)
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked after stop")
	}
}

func TestBusPublishAbortsOnCancelledContext(t *testing.T) {
	b := bus.New(nil)
	// Never started: the queue fills and Publish must respect the context.
	for i := 0; i < 256; i++ {
		require.NoError(t, b.Publish(context.Background(), testEvent{name: "fill"}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Publish(ctx, testEvent{name: "overflow"})
	assert.ErrorIs(t, err, context.Canceled)
}
