// Package schedule derives "what is happening now" from a timetable and an
// instant. Everything here is pure: the same inputs always give the same
// output, and nothing is carried from one call to the next.
//
// All arithmetic is done in fractional minutes since midnight. Durations are
// converted to time.Duration only when a result is returned.
package schedule

import (
	"math"
	"time"

	"bellboard/internal/model"
	"bellboard/internal/timetable"
)

// Phase is the coarse classification of an instant.
type Phase int

const (
	// PhasePreSchool: the instant is before the first item starts.
	PhasePreSchool Phase = iota
	// PhaseInProgress: the instant lies inside exactly one item's window.
	PhaseInProgress
	// PhaseTransition: the instant lies in a gap between two items.
	PhaseTransition
	// PhaseDone: the instant is at or after the last item's end.
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhasePreSchool:
		return "pre_school"
	case PhaseInProgress:
		return "in_progress"
	case PhaseTransition:
		return "transition"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// DayState is the derived state for one instant.
//
// ItemIndex/Item reference the active item (InProgress) or the upcoming one
// (PreSchool, Transition). For Done, ItemIndex is -1 and Item is zero.
type DayState struct {
	Phase     Phase
	ItemIndex int
	Item      model.AgendaItem

	// Progress is the active item's elapsed ratio in [0,1]. InProgress only.
	Progress float64
	// Remaining is the time left in the active item, never negative.
	// InProgress only.
	Remaining time.Duration
	// UntilStart is the time until Item starts. PreSchool and Transition only.
	UntilStart time.Duration
}

// HasItem reports whether the state references an agenda item.
func (s DayState) HasItem() bool { return s.ItemIndex >= 0 }

// Derive computes the DayState for the wall-clock instant now.
func Derive(tt *timetable.Timetable, now time.Time) DayState {
	return DeriveAt(tt, MinuteOfDay(now))
}

// DeriveAt computes the DayState for curMin minutes since midnight.
// It is total: every value, including infinities and NaN, maps to one phase.
func DeriveAt(tt *timetable.Timetable, curMin float64) DayState {
	if math.IsNaN(curMin) {
		curMin = math.Inf(-1)
	}

	dayStart := float64(tt.DayStartMinute())
	dayEnd := float64(tt.DayEndMinute())

	if curMin >= dayEnd {
		return DayState{Phase: PhaseDone, ItemIndex: -1}
	}
	if curMin < dayStart {
		return DayState{
			Phase:      PhasePreSchool,
			ItemIndex:  0,
			Item:       tt.First(),
			UntilStart: minutesToDuration(dayStart - curMin),
		}
	}

	next := -1
	for i := 0; i < tt.Len(); i++ {
		it := tt.Item(i)
		start := float64(it.StartMinute())
		end := float64(it.EndMinute())

		if start <= curMin && curMin < end {
			return DayState{
				Phase:     PhaseInProgress,
				ItemIndex: i,
				Item:      it,
				Progress:  clamp01((curMin - start) / (end - start)),
				Remaining: minutesToDuration(math.Max(0, end-curMin)),
			}
		}
		if next < 0 && start > curMin {
			next = i
		}
	}

	if next < 0 {
		// Unreachable for a validated timetable: curMin < dayEnd and no item
		// is active means some item starts later.
		return DayState{Phase: PhaseDone, ItemIndex: -1}
	}

	it := tt.Item(next)
	return DayState{
		Phase:      PhaseTransition,
		ItemIndex:  next,
		Item:       it,
		UntilStart: minutesToDuration(float64(it.StartMinute()) - curMin),
	}
}

// DayProgressAt is the fraction of the school day elapsed at curMin, clamped
// to [0,1]. It does not depend on the phase.
func DayProgressAt(tt *timetable.Timetable, curMin float64) float64 {
	if math.IsNaN(curMin) {
		return 0
	}
	dayStart := float64(tt.DayStartMinute())
	dayEnd := float64(tt.DayEndMinute())
	return clamp01((curMin - dayStart) / (dayEnd - dayStart))
}

// MinuteOfDay reduces t to fractional minutes since midnight in t's own
// location, with second and sub-second precision.
func MinuteOfDay(t time.Time) float64 {
	return float64(t.Hour())*60 +
		float64(t.Minute()) +
		float64(t.Second())/60 +
		float64(t.Nanosecond())/float64(time.Minute)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// minutesToDuration converts at the output boundary, saturating values that
// do not fit in a time.Duration.
func minutesToDuration(m float64) time.Duration {
	ns := m * float64(time.Minute)
	switch {
	case math.IsNaN(ns):
		return 0
	case ns >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	case ns <= math.MinInt64:
		return time.Duration(math.MinInt64)
	default:
		return time.Duration(math.Round(ns))
	}
}
