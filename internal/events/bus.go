package events

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mobil-koeln/ojp-sign/internal/metrics"
)

const (
	// DefaultCapacity is the queue depth of the bus
	DefaultCapacity = 32

	// DefaultPublishWait bounds how long Publish blocks on a full queue
	DefaultPublishWait = 2 * time.Second
)

var (
	// ErrPublishTimeout is returned when the queue stayed full for the whole wait
	ErrPublishTimeout = errors.New("event bus full")

	// ErrInvalidEvent is returned for tags outside the defined set
	ErrInvalidEvent = errors.New("invalid event")
)

// Publisher is the producer side of the bus
type Publisher interface {
	// Publish enqueues ev, waiting up to the bus's bounded wait
	Publish(ctx context.Context, ev Event) error
	// TryPublish enqueues ev without blocking. A press already pending
	// absorbs the new one.
	TryPublish(ev Event) bool
}

// Bus is a bounded FIFO with many producers and exactly one consumer.
// Events from one producer are received in the order they were published.
type Bus struct {
	ch      chan Event
	wait    time.Duration
	pending [numEvents]atomic.Int32
}

// NewBus creates a bus. Non-positive arguments select the defaults.
func NewBus(capacity int, wait time.Duration) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if wait <= 0 {
		wait = DefaultPublishWait
	}
	return &Bus{
		ch:   make(chan Event, capacity),
		wait: wait,
	}
}

// Publish enqueues ev. It blocks while the queue is full, up to the bounded
// wait or until ctx is done.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	if !ev.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidEvent, int(ev))
	}

	b.pending[ev].Add(1)

	// Fast path avoids a timer allocation for the common case
	select {
	case b.ch <- ev:
		metrics.EventsPublished.WithLabelValues(ev.String()).Inc()
		return nil
	default:
	}

	timer := time.NewTimer(b.wait)
	defer timer.Stop()

	select {
	case b.ch <- ev:
		metrics.EventsPublished.WithLabelValues(ev.String()).Inc()
		return nil
	case <-timer.C:
		b.pending[ev].Add(-1)
		metrics.EventsRejected.WithLabelValues(ev.String(), "timeout").Inc()
		return fmt.Errorf("%w: %s not enqueued within %v", ErrPublishTimeout, ev, b.wait)
	case <-ctx.Done():
		b.pending[ev].Add(-1)
		metrics.EventsRejected.WithLabelValues(ev.String(), "canceled").Inc()
		return ctx.Err()
	}
}

// TryPublish enqueues ev without blocking. If an identical event is already
// queued it is absorbed and TryPublish reports true. It reports false only
// when the queue is full.
func (b *Bus) TryPublish(ev Event) bool {
	if !ev.Valid() {
		return false
	}
	if !b.pending[ev].CompareAndSwap(0, 1) {
		metrics.EventsCoalesced.WithLabelValues(ev.String()).Inc()
		return true
	}

	select {
	case b.ch <- ev:
		metrics.EventsPublished.WithLabelValues(ev.String()).Inc()
		return true
	default:
		b.pending[ev].Add(-1)
		metrics.EventsRejected.WithLabelValues(ev.String(), "full").Inc()
		return false
	}
}

// Receive blocks until an event is available or ctx is done
func (b *Bus) Receive(ctx context.Context) (Event, error) {
	select {
	case ev := <-b.ch:
		b.pending[ev].Add(-1)
		return ev, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// ReceiveOr is Receive that also wakes when signal fires. ok is false when
// the signal won.
func (b *Bus) ReceiveOr(ctx context.Context, signal <-chan struct{}) (ev Event, ok bool, err error) {
	select {
	case ev = <-b.ch:
		b.pending[ev].Add(-1)
		return ev, true, nil
	case <-signal:
		return 0, false, nil
	case <-ctx.Done():
		return 0, false, ctx.Err()
	}
}

// Len returns the number of queued events
func (b *Bus) Len() int {
	return len(b.ch)
}

// Cap returns the queue capacity
func (b *Bus) Cap() int {
	return cap(b.ch)
}

// Pending returns how many copies of ev are queued
func (b *Bus) Pending(ev Event) int {
	if !ev.Valid() {
		return 0
	}
	return int(b.pending[ev].Load())
}
