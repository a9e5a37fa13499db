// Package board drives the schedule engine from the clock and hands every
// freshly derived snapshot to its consumers (HTTP, websocket, terminal).
package board

import (
	"context"
	"sync"
	"time"

	"bellboard/internal/clock"
	appLog "bellboard/internal/log"
	"bellboard/internal/schedule"
	"bellboard/internal/telemetry"
	"bellboard/internal/timetable"
)

var allPhases = []string{
	schedule.PhasePreSchool.String(),
	schedule.PhaseInProgress.String(),
	schedule.PhaseTransition.String(),
	schedule.PhaseDone.String(),
}

// Subscriber receives snapshots. Slow subscribers miss ticks; the next one
// always carries the current state.
type Subscriber chan schedule.Snapshot

// Board recomputes a Snapshot on every clock tick.
type Board struct {
	tt      *timetable.Timetable
	src     *clock.Source
	metrics *telemetry.Metrics

	mu     sync.RWMutex
	latest *schedule.Snapshot

	subsMu sync.RWMutex
	subs   []Subscriber
	closed bool
}

// New constructs a Board. metrics may be nil.
func New(tt *timetable.Timetable, src *clock.Source, metrics *telemetry.Metrics) *Board {
	return &Board{tt: tt, src: src, metrics: metrics}
}

// Timetable returns the board's timetable.
func (b *Board) Timetable() *timetable.Timetable { return b.tt }

// Metrics returns the board's collectors, or nil.
func (b *Board) Metrics() *telemetry.Metrics { return b.metrics }

// Run ticks until ctx is cancelled, then closes every subscriber.
func (b *Board) Run(ctx context.Context) {
	appLog.Info("board clock started",
		"interval", b.src.Interval().String(),
		"items", b.tt.Len(),
		"day_start", b.tt.First().Start.String(),
		"day_end", b.tt.Last().End.String(),
	)
	cancel := b.src.StartContext(ctx, b.Tick)
	<-ctx.Done()
	cancel()
	b.closeSubscribers()
	appLog.Info("board clock stopped")
}

// Tick derives and publishes the snapshot for now. Run calls it from the
// clock goroutine; tests call it directly with injected instants.
func (b *Board) Tick(now time.Time) {
	snap := schedule.Compute(b.tt, now)

	b.mu.Lock()
	prev := b.latest
	b.latest = &snap
	b.mu.Unlock()

	changed := prev == nil ||
		prev.State.Phase != snap.State.Phase ||
		prev.State.ItemIndex != snap.State.ItemIndex
	if changed {
		appLog.Info("day state changed",
			"phase", snap.State.Phase.String(),
			"item", snap.State.Item.Label,
			"at", now.Format("15:04:05"),
		)
	}

	if b.metrics != nil {
		b.metrics.Ticks.Inc()
		if changed {
			b.metrics.PhaseChanges.Inc()
		}
		b.metrics.SetPhase(snap.State.Phase.String(), allPhases)
		b.metrics.DayProgress.Set(snap.DayProgress)
		b.metrics.ItemProgress.Set(snap.State.Progress)
	}

	b.publish(snap)
}

// Latest returns the most recent snapshot. Before the first tick it computes
// one on demand from the clock's current time.
func (b *Board) Latest() schedule.Snapshot {
	b.mu.RLock()
	l := b.latest
	b.mu.RUnlock()
	if l != nil {
		return *l
	}
	return schedule.Compute(b.tt, b.src.Now())
}

// Subscribe registers a subscriber for future snapshots.
func (b *Board) Subscribe() Subscriber {
	ch := make(Subscriber, 4)
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Unsubscribe removes and closes sub.
func (b *Board) Unsubscribe(sub Subscriber) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	for i, candidate := range b.subs {
		if candidate == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// closeSubscribers closes and drops every subscriber. Later Subscribe calls
// get an already closed channel.
func (b *Board) closeSubscribers() {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	for _, sub := range b.subs {
		close(sub)
	}
	b.subs = nil
	b.closed = true
}

func (b *Board) publish(snap schedule.Snapshot) {
	// Hold the read lock while sending so Unsubscribe cannot close a channel
	// mid-send. Sends never block.
	b.subsMu.RLock()
	defer b.subsMu.RUnlock()
	for _, sub := range b.subs {
		select {
		case sub <- snap:
		default:
		}
	}
}
