package schedule

import (
	"math"
	"time"

	"bellboard/internal/model"
	"bellboard/internal/timetable"
)

// ItemState is the per-item view of one instant. UntilStart and UntilEnd are
// signed: they go negative once the boundary has passed.
type ItemState struct {
	Index int
	Item  model.AgendaItem

	IsDone        bool
	IsActive      bool
	ProgressRatio float64

	UntilStart time.Duration
	UntilEnd   time.Duration
}

// Countdown is the duration the board shows next to the item: time left for
// the active item, time until start otherwise.
func (s ItemState) Countdown() time.Duration {
	if s.IsActive {
		return s.UntilEnd
	}
	return s.UntilStart
}

// ItemsAt classifies every item at curMin using [start, end) windows.
func ItemsAt(tt *timetable.Timetable, curMin float64) []ItemState {
	if math.IsNaN(curMin) {
		curMin = math.Inf(-1)
	}

	out := make([]ItemState, tt.Len())
	for i := range out {
		it := tt.Item(i)
		start := float64(it.StartMinute())
		end := float64(it.EndMinute())

		st := ItemState{
			Index:      i,
			Item:       it,
			IsDone:     curMin >= end,
			IsActive:   start <= curMin && curMin < end,
			UntilStart: minutesToDuration(start - curMin),
			UntilEnd:   minutesToDuration(end - curMin),
		}
		if st.IsActive {
			st.ProgressRatio = clamp01((curMin - start) / (end - start))
		}
		out[i] = st
	}
	return out
}

// Snapshot is everything derived for one tick.
type Snapshot struct {
	Instant time.Time
	Minute  float64

	State       DayState
	Items       []ItemState
	DayProgress float64

	// NextIndex is the first item that is neither done nor active, or -1.
	NextIndex int
}

// Compute derives a full Snapshot for now. It is recomputed from scratch on
// every call.
func Compute(tt *timetable.Timetable, now time.Time) Snapshot {
	snap := ComputeAt(tt, MinuteOfDay(now))
	snap.Instant = now
	return snap
}

// ComputeAt is Compute for an explicit minute-of-day.
func ComputeAt(tt *timetable.Timetable, curMin float64) Snapshot {
	items := ItemsAt(tt, curMin)

	next := -1
	for i, st := range items {
		if !st.IsDone && !st.IsActive {
			next = i
			break
		}
	}

	return Snapshot{
		Minute:      curMin,
		State:       DeriveAt(tt, curMin),
		Items:       items,
		DayProgress: DayProgressAt(tt, curMin),
		NextIndex:   next,
	}
}

// Active returns the active item state, if any.
func (s Snapshot) Active() (ItemState, bool) {
	if s.State.Phase != PhaseInProgress {
		return ItemState{}, false
	}
	return s.Items[s.State.ItemIndex], true
}
