package schedule

import (
	"testing"
	"time"

	"bellboard/internal/timetable"
)

func TestComputeMidPeriod(t *testing.T) {
	tt := timetable.Reference()
	now := time.Date(2026, 10, 19, 8, 56, 0, 0, time.UTC)

	snap := Compute(tt, now)
	if !snap.Instant.Equal(now) {
		t.Errorf("instant: got %v", snap.Instant)
	}
	if snap.State.Phase != PhaseInProgress {
		t.Fatalf("phase: got %s", snap.State.Phase)
	}
	if snap.NextIndex != 1 {
		t.Errorf("next index: want 1 (Period 2), got %d", snap.NextIndex)
	}

	active, ok := snap.Active()
	if !ok || active.Item.Label != "Period 1" {
		t.Fatalf("active: got %+v ok=%v", active, ok)
	}
	if active.ProgressRatio != 0.5 {
		t.Errorf("progress: got %v", active.ProgressRatio)
	}
	if active.Countdown() != 26*time.Minute {
		t.Errorf("countdown: got %v", active.Countdown())
	}

	p2 := snap.Items[1]
	if p2.IsActive || p2.IsDone || p2.ProgressRatio != 0 {
		t.Errorf("Period 2 should be pending: %+v", p2)
	}
	if p2.Countdown() != 32*time.Minute {
		t.Errorf("Period 2 countdown: got %v", p2.Countdown())
	}
}

func TestComputeConsistency(t *testing.T) {
	tt := timetable.Reference()
	for s := 0; s < 24*3600; s += 13 {
		cur := float64(s) / 60
		snap := ComputeAt(tt, cur)

		activeCount := 0
		for _, it := range snap.Items {
			if it.IsActive && it.IsDone {
				t.Fatalf("minute %.3f: %q both active and done", cur, it.Item.Label)
			}
			if it.IsActive {
				activeCount++
				if snap.State.ItemIndex != it.Index {
					t.Fatalf("minute %.3f: item %d active but state references %d", cur, it.Index, snap.State.ItemIndex)
				}
			}
			if !it.IsActive && it.ProgressRatio != 0 {
				t.Fatalf("minute %.3f: inactive %q has progress %v", cur, it.Item.Label, it.ProgressRatio)
			}
		}
		if activeCount > 1 {
			t.Fatalf("minute %.3f: %d active items", cur, activeCount)
		}
		if (activeCount == 1) != (snap.State.Phase == PhaseInProgress) {
			t.Fatalf("minute %.3f: active count %d but phase %s", cur, activeCount, snap.State.Phase)
		}
		if snap.State.Phase == PhaseTransition && snap.NextIndex != snap.State.ItemIndex {
			t.Fatalf("minute %.3f: next %d differs from transition target %d", cur, snap.NextIndex, snap.State.ItemIndex)
		}
	}
}

func TestComputeAfterSchool(t *testing.T) {
	snap := ComputeAt(timetable.Reference(), hm(16, 0))
	if snap.State.Phase != PhaseDone {
		t.Fatalf("phase: got %s", snap.State.Phase)
	}
	if snap.NextIndex != -1 {
		t.Errorf("next index: want -1, got %d", snap.NextIndex)
	}
	if _, ok := snap.Active(); ok {
		t.Error("no item should be active after school")
	}
	for _, it := range snap.Items {
		if !it.IsDone {
			t.Errorf("%q should be done", it.Item.Label)
		}
		if it.UntilEnd > 0 {
			t.Errorf("%q: until end should be non-positive, got %v", it.Item.Label, it.UntilEnd)
		}
	}
	if snap.DayProgress != 1 {
		t.Errorf("day progress: got %v", snap.DayProgress)
	}
}
