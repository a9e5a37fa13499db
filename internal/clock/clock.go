// Package clock samples the wall clock at a fixed cadence. It is the only
// piece of the board that reads the real time.
package clock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is the board's tick cadence.
const DefaultInterval = time.Second

// CancelFunc stops a running source. Once it returns no further tick starts.
// It is safe to call more than once and from inside a tick callback.
type CancelFunc func()

// Source delivers the current instant to a callback: once immediately, then
// every interval. Ticks never overlap. If delivery is delayed the next tick
// simply carries the true current time; missed ticks are not replayed.
type Source struct {
	interval time.Duration
	now      func() time.Time
	loc      *time.Location
}

// Option configures a Source.
type Option func(*Source)

// WithNow replaces time.Now, mainly for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Source) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation converts every delivered instant into loc.
func WithLocation(loc *time.Location) Option {
	return func(s *Source) { s.loc = loc }
}

// New creates a Source. A non-positive interval means DefaultInterval.
func New(interval time.Duration, opts ...Option) *Source {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Source{
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the tick cadence.
func (s *Source) Interval() time.Duration { return s.interval }

// Now returns the current instant as the source would deliver it.
func (s *Source) Now() time.Time {
	t := s.now()
	if s.loc != nil {
		t = t.In(s.loc)
	}
	return t
}

// Start begins delivering ticks to onTick on a dedicated goroutine.
func (s *Source) Start(onTick func(time.Time)) CancelFunc {
	return s.StartContext(context.Background(), onTick)
}

// StartContext is Start that additionally stops when ctx is done.
func (s *Source) StartContext(ctx context.Context, onTick func(time.Time)) CancelFunc {
	var (
		mu       sync.Mutex // held from the stopped check through onTick
		stopped  atomic.Bool
		inTick   atomic.Bool // written only by the tick goroutine, under mu
		stopOnce sync.Once
		stopCh   = make(chan struct{})
	)

	cancel := func() {
		stopped.Store(true)
		// inTick means the tick began before cancel, possibly in the caller.
		if !inTick.Load() {
			mu.Lock()
			defer mu.Unlock()
		}
		stopOnce.Do(func() { close(stopCh) })
	}

	deliver := func() {
		now := s.Now()

		mu.Lock()
		defer mu.Unlock()
		if stopped.Load() {
			return
		}
		inTick.Store(true)
		defer inTick.Store(false)
		onTick(now)
	}

	go func() {
		defer cancel()

		deliver()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				// Prefer stopping over a tick that raced with cancellation.
				select {
				case <-stopCh:
					return
				case <-ctx.Done():
					return
				default:
				}
				deliver()
			}
		}
	}()

	return cancel
}
