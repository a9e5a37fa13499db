package clock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStartTicksImmediately(t *testing.T) {
	fixed := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	src := New(time.Hour, WithNow(func() time.Time { return fixed }))

	got := make(chan time.Time, 1)
	cancel := src.Start(func(ts time.Time) {
		select {
		case got <- ts:
		default:
		}
	})
	defer cancel()

	select {
	case ts := <-got:
		if !ts.Equal(fixed) {
			t.Errorf("want %v, got %v", fixed, ts)
		}
	case <-time.After(time.Second):
		t.Fatal("no immediate tick")
	}
}

func TestStartTicksRepeatedly(t *testing.T) {
	src := New(5 * time.Millisecond)

	var n atomic.Int32
	done := make(chan struct{})
	var once sync.Once
	cancel := src.Start(func(time.Time) {
		if n.Add(1) >= 3 {
			once.Do(func() { close(done) })
		}
	})
	defer cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("want at least 3 ticks, got %d", n.Load())
	}
}

func TestCancelStopsTicksAndIsIdempotent(t *testing.T) {
	src := New(2 * time.Millisecond)

	var n atomic.Int32
	first := make(chan struct{})
	var once sync.Once
	cancel := src.Start(func(time.Time) {
		n.Add(1)
		once.Do(func() { close(first) })
	})

	<-first
	cancel()
	cancel()

	// Let any tick that was already being delivered finish.
	time.Sleep(10 * time.Millisecond)
	after := n.Load()
	time.Sleep(30 * time.Millisecond)
	if n.Load() != after {
		t.Errorf("ticks delivered after cancel: %d -> %d", after, n.Load())
	}
}

func TestCancelFromInsideTick(t *testing.T) {
	src := New(time.Millisecond)

	var n atomic.Int32
	var cancel CancelFunc
	ready := make(chan struct{})
	cancel = src.Start(func(time.Time) {
		<-ready
		n.Add(1)
		cancel()
	})
	close(ready)

	time.Sleep(30 * time.Millisecond)
	if got := n.Load(); got != 1 {
		t.Errorf("want exactly 1 tick, got %d", got)
	}
}

func TestStartContextStopsOnCancel(t *testing.T) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	src := New(2 * time.Millisecond)

	var n atomic.Int32
	first := make(chan struct{})
	var once sync.Once
	stop := src.StartContext(ctx, func(time.Time) {
		n.Add(1)
		once.Do(func() { close(first) })
	})
	defer stop()

	<-first
	cancelCtx()
	time.Sleep(10 * time.Millisecond)
	after := n.Load()
	time.Sleep(30 * time.Millisecond)
	if n.Load() != after {
		t.Errorf("ticks delivered after context cancel: %d -> %d", after, n.Load())
	}
}

func TestTicksDoNotOverlap(t *testing.T) {
	src := New(time.Millisecond)

	var inFlight, overlaps, total atomic.Int32
	cancel := src.Start(func(time.Time) {
		if inFlight.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(3 * time.Millisecond)
		total.Add(1)
		inFlight.Add(-1)
	})
	time.Sleep(40 * time.Millisecond)
	cancel()

	if overlaps.Load() != 0 {
		t.Errorf("%d overlapping ticks", overlaps.Load())
	}
	if total.Load() == 0 {
		t.Error("no ticks delivered")
	}
}

func TestWithLocation(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	fixed := time.Date(2026, 10, 19, 16, 30, 0, 0, time.UTC)
	src := New(0, WithNow(func() time.Time { return fixed }), WithLocation(loc))

	if src.Interval() != DefaultInterval {
		t.Errorf("interval: got %v", src.Interval())
	}
	got := src.Now()
	if got.Hour() != 8 || got.Minute() != 30 {
		t.Errorf("want 08:30 local, got %s", got.Format("15:04"))
	}
}

func TestCancelDuringSampleDropsTick(t *testing.T) {
	sampling := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	src := New(time.Hour, WithNow(func() time.Time {
		if calls.Add(1) == 1 {
			close(sampling)
			<-release
		}
		return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	}))

	var n atomic.Int32
	cancel := src.Start(func(time.Time) { n.Add(1) })

	<-sampling
	cancel()
	atCancel := n.Load()
	close(release)

	time.Sleep(20 * time.Millisecond)
	if atCancel != 0 || n.Load() != 0 {
		t.Errorf("ticks when cancel returned=%d, afterwards=%d", atCancel, n.Load())
	}
}
