package model

import "fmt"

// Kind distinguishes instructional time from break-like time (break, lunch,
// silent reading). It only affects presentation.
type Kind string

const (
	KindPeriod Kind = "period"
	KindBreak  Kind = "break"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindPeriod || k == KindBreak
}

// TimeOfDay is an (hour, minute) pair on a 24-hour clock.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// At is a small constructor used by compiled-in timetables.
func At(hour, minute int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute}
}

// Minutes returns the time as minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Valid reports whether the pair lies within 00:00..23:59, or is exactly
// 24:00 (end of day).
func (t TimeOfDay) Valid() bool {
	if t.Hour == 24 && t.Minute == 0 {
		return true
	}
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// String formats the time as zero-padded "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// AgendaItem is one entry of the day's bell schedule.
// Windows are half-open: [Start, End).
type AgendaItem struct {
	Label string
	Kind  Kind

	Start TimeOfDay
	End   TimeOfDay
}

// StartMinute returns Start as minutes since midnight.
func (a AgendaItem) StartMinute() int { return a.Start.Minutes() }

// EndMinute returns End as minutes since midnight.
func (a AgendaItem) EndMinute() int { return a.End.Minutes() }

// DurationMinutes returns the length of the item's window.
func (a AgendaItem) DurationMinutes() int { return a.EndMinute() - a.StartMinute() }

// IsBreak reports whether the item is a break rather than a period.
func (a AgendaItem) IsBreak() bool { return a.Kind == KindBreak }
