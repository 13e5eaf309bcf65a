package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mobil-koeln/ojp-sign/internal/testutil"
)

func TestEvent_String(t *testing.T) {
	testutil.AssertEqual(t, ButtonMenu.String(), "ButtonMenu")
	testutil.AssertEqual(t, TimeSynced.String(), "TimeSynced")
	testutil.AssertEqual(t, Event(99).String(), "Event(99)")
	testutil.AssertLen(t, All(), 11)
	testutil.AssertFalse(t, Event(-1).Valid())
}

func TestNewBus_Defaults(t *testing.T) {
	b := NewBus(0, 0)
	testutil.AssertEqual(t, b.Cap(), DefaultCapacity)
	testutil.AssertEqual(t, b.wait, DefaultPublishWait)
}

func TestBus_FIFO(t *testing.T) {
	b := NewBus(8, time.Second)
	ctx := context.Background()

	sent := []Event{Init, WifiConnected, InternetOk, DataAvailable, DataAvailable}
	for _, ev := range sent {
		testutil.AssertNil(t, b.Publish(ctx, ev))
	}
	testutil.AssertEqual(t, b.Len(), 5)
	testutil.AssertEqual(t, b.Pending(DataAvailable), 2)

	for _, want := range sent {
		got, err := b.Receive(ctx)
		testutil.AssertNil(t, err)
		testutil.AssertEqual(t, got, want)
	}
	testutil.AssertEqual(t, b.Pending(DataAvailable), 0)
}

func TestBus_PublishWaitsForSpace(t *testing.T) {
	b := NewBus(1, time.Second)
	ctx := context.Background()
	testutil.AssertNil(t, b.Publish(ctx, Init))

	done := make(chan error, 1)
	go func() { done <- b.Publish(ctx, DataAvailable) }()

	time.Sleep(20 * time.Millisecond)
	ev, err := b.Receive(ctx)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, ev, Init)

	testutil.AssertNil(t, <-done)
	ev, err = b.Receive(ctx)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, ev, DataAvailable)
}

func TestBus_PublishTimeout(t *testing.T) {
	b := NewBus(1, 20*time.Millisecond)
	ctx := context.Background()
	testutil.AssertNil(t, b.Publish(ctx, Init))

	err := b.Publish(ctx, WifiLost)
	testutil.AssertErrorIs(t, err, ErrPublishTimeout)
	testutil.AssertEqual(t, b.Pending(WifiLost), 0)
	testutil.AssertEqual(t, b.Len(), 1)
}

func TestBus_PublishCanceled(t *testing.T) {
	b := NewBus(1, time.Minute)
	testutil.AssertNil(t, b.Publish(context.Background(), Init))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Publish(ctx, WifiLost)
	testutil.AssertErrorIs(t, err, context.Canceled)
}

func TestBus_PublishInvalid(t *testing.T) {
	b := NewBus(1, time.Second)
	testutil.AssertErrorIs(t, b.Publish(context.Background(), Event(42)), ErrInvalidEvent)
	testutil.AssertFalse(t, b.TryPublish(Event(42)))
}

func TestBus_TryPublishCoalesces(t *testing.T) {
	b := NewBus(8, time.Second)
	ctx := context.Background()

	testutil.AssertTrue(t, b.TryPublish(ButtonMenu))
	testutil.AssertTrue(t, b.TryPublish(ButtonMenu))
	testutil.AssertTrue(t, b.TryPublish(ButtonExit))
	testutil.AssertTrue(t, b.TryPublish(ButtonMenu))

	testutil.AssertEqual(t, b.Len(), 2)

	ev, err := b.Receive(ctx)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, ev, ButtonMenu)

	// Once consumed, the next press is queued again
	testutil.AssertTrue(t, b.TryPublish(ButtonMenu))
	testutil.AssertEqual(t, b.Len(), 2)
}

func TestBus_TryPublishNeverDropsDistinctEventsUnderCapacity(t *testing.T) {
	b := NewBus(4, time.Second)
	for _, ev := range []Event{ButtonMenu, ButtonExit, ButtonRotary} {
		testutil.AssertTrue(t, b.TryPublish(ev))
	}
	testutil.AssertEqual(t, b.Len(), 3)
}

func TestBus_TryPublishFull(t *testing.T) {
	b := NewBus(1, time.Second)
	testutil.AssertNil(t, b.Publish(context.Background(), Init))

	testutil.AssertFalse(t, b.TryPublish(ButtonRotary))
	testutil.AssertEqual(t, b.Pending(ButtonRotary), 0)
}

func TestBus_ReceiveCanceled(t *testing.T) {
	b := NewBus(1, time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := b.Receive(ctx)
	testutil.AssertErrorIs(t, err, context.DeadlineExceeded)
}

func TestBus_ReceiveOr(t *testing.T) {
	b := NewBus(2, time.Second)
	signal := make(chan struct{}, 1)

	signal <- struct{}{}
	_, ok, err := b.ReceiveOr(context.Background(), signal)
	testutil.AssertNil(t, err)
	testutil.AssertFalse(t, ok)

	testutil.AssertTrue(t, b.TryPublish(ButtonExit))
	ev, ok, err := b.ReceiveOr(context.Background(), signal)
	testutil.AssertNil(t, err)
	testutil.AssertTrue(t, ok)
	testutil.AssertEqual(t, ev, ButtonExit)
	testutil.AssertEqual(t, b.Pending(ButtonExit), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = b.ReceiveOr(ctx, signal)
	testutil.AssertErrorIs(t, err, context.Canceled)
}

func TestBus_PerProducerOrder(t *testing.T) {
	b := NewBus(4, time.Second)
	ctx := context.Background()

	producers := map[string][]Event{
		"connectivity": {WifiConnected, InternetOk, WifiLost, WifiConnected},
		"transport":    {DataAvailable, UpdateTrigger, DataAvailable},
		"time":         {TimeSynced},
	}

	var wg sync.WaitGroup
	for _, seq := range producers {
		wg.Add(1)
		go func(seq []Event) {
			defer wg.Done()
			for _, ev := range seq {
				if err := b.Publish(ctx, ev); err != nil {
					t.Errorf("publish %s: %v", ev, err)
				}
			}
		}(seq)
	}

	total := 0
	for _, seq := range producers {
		total += len(seq)
	}

	var got []Event
	for i := 0; i < total; i++ {
		ev, err := b.Receive(ctx)
		testutil.AssertNil(t, err)
		got = append(got, ev)
	}
	wg.Wait()

	// Each producer's events are a subsequence of what was received
	for name, seq := range producers {
		idx := 0
		for _, ev := range got {
			if idx < len(seq) && ev == seq[idx] && belongsTo(ev, name) {
				idx++
			}
		}
		if idx != len(seq) {
			t.Errorf("%s: order not preserved in %v", name, got)
		}
	}
}

func belongsTo(ev Event, producer string) bool {
	switch producer {
	case "connectivity":
		return ev == WifiConnected || ev == InternetOk || ev == WifiLost
	case "transport":
		return ev == DataAvailable || ev == UpdateTrigger
	default:
		return ev == TimeSynced
	}
}
