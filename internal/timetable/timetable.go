// Package timetable holds the validated, immutable bell schedule for one day.
package timetable

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bellboard/internal/config"
	"bellboard/internal/model"
)

// ErrInvalidTimetable is wrapped by every construction failure.
var ErrInvalidTimetable = errors.New("invalid timetable")

// Timetable is an ordered, non-empty, read-only sequence of agenda items.
// Invariants are checked once in New and never again.
type Timetable struct {
	items    []model.AgendaItem
	dayStart int
	dayEnd   int
}

// New validates items and returns a Timetable holding its own copy of them.
func New(items []model.AgendaItem) (*Timetable, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no agenda items", ErrInvalidTimetable)
	}

	for i, it := range items {
		if !it.Start.Valid() || !it.End.Valid() {
			return nil, fmt.Errorf("%w: item %d (%q) has out-of-range time %s-%s",
				ErrInvalidTimetable, i, it.Label, it.Start, it.End)
		}
		if it.StartMinute() >= it.EndMinute() {
			return nil, fmt.Errorf("%w: item %d (%q) starts at %s but ends at %s",
				ErrInvalidTimetable, i, it.Label, it.Start, it.End)
		}
		if i == 0 {
			continue
		}
		prev := items[i-1]
		if it.StartMinute() < prev.StartMinute() {
			return nil, fmt.Errorf("%w: item %d (%q) starts before item %d (%q)",
				ErrInvalidTimetable, i, it.Label, i-1, prev.Label)
		}
		// Overlap would allow two active items at once.
		if it.StartMinute() < prev.EndMinute() {
			return nil, fmt.Errorf("%w: item %d (%q) overlaps item %d (%q)",
				ErrInvalidTimetable, i, it.Label, i-1, prev.Label)
		}
	}

	cp := make([]model.AgendaItem, len(items))
	copy(cp, items)

	return &Timetable{
		items:    cp,
		dayStart: cp[0].StartMinute(),
		dayEnd:   cp[len(cp)-1].EndMinute(),
	}, nil
}

// MustNew is New for compiled-in timetables; it panics on invalid input.
func MustNew(items []model.AgendaItem) *Timetable {
	tt, err := New(items)
	if err != nil {
		panic(err)
	}
	return tt
}

// Items returns a copy of the agenda items in order.
func (t *Timetable) Items() []model.AgendaItem {
	out := make([]model.AgendaItem, len(t.items))
	copy(out, t.items)
	return out
}

// Len returns the number of agenda items.
func (t *Timetable) Len() int { return len(t.items) }

// Item returns the i-th agenda item. It panics if i is out of range.
func (t *Timetable) Item(i int) model.AgendaItem { return t.items[i] }

// First returns the first agenda item of the day.
func (t *Timetable) First() model.AgendaItem { return t.items[0] }

// Last returns the last agenda item of the day.
func (t *Timetable) Last() model.AgendaItem { return t.items[len(t.items)-1] }

// DayStartMinute is the first item's start in minutes since midnight.
func (t *Timetable) DayStartMinute() int { return t.dayStart }

// DayEndMinute is the last item's end in minutes since midnight.
func (t *Timetable) DayEndMinute() int { return t.dayEnd }

// FromConfig builds a Timetable from YAML entries. An empty list yields the
// compiled-in reference timetable.
func FromConfig(entries []config.PeriodConfig) (*Timetable, error) {
	if len(entries) == 0 {
		return Reference(), nil
	}

	items := make([]model.AgendaItem, 0, len(entries))
	for i, e := range entries {
		start, err := ParseTimeOfDay(e.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d (%q) start: %v", ErrInvalidTimetable, i, e.Label, err)
		}
		end, err := ParseTimeOfDay(e.End)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d (%q) end: %v", ErrInvalidTimetable, i, e.Label, err)
		}
		kind := model.Kind(strings.ToLower(strings.TrimSpace(e.Kind)))
		if kind == "" {
			kind = model.KindPeriod
		}
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: entry %d (%q) has unknown kind %q", ErrInvalidTimetable, i, e.Label, e.Kind)
		}
		label := strings.TrimSpace(e.Label)
		if label == "" {
			label = fmt.Sprintf("Item %d", i+1)
		}
		items = append(items, model.AgendaItem{
			Label: label,
			Kind:  kind,
			Start: start,
			End:   end,
		})
	}
	return New(items)
}

// ParseTimeOfDay parses "HH:MM" or "H:MM". "24:00" is accepted as end of day.
func ParseTimeOfDay(s string) (model.TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return model.TimeOfDay{}, fmt.Errorf("invalid time format: %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return model.TimeOfDay{}, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return model.TimeOfDay{}, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	t := model.At(hour, minute)
	if !t.Valid() {
		return model.TimeOfDay{}, fmt.Errorf("invalid time: %q", s)
	}
	return t, nil
}
