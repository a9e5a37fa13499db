package ics

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "bellboard/internal/log"
	"bellboard/internal/model"
	"bellboard/internal/timetable"
)

// ParseTimetable reads an iCalendar payload (such as one produced by Export)
// and builds a Timetable from its VEVENTs.
//
//   - Only the time of day of DTSTART/DTEND is used, read in loc.
//     The date is ignored: the board has a single fixed day.
//   - CATEGORIES:BREAK marks a break; everything else is a period.
//   - Events are ordered by start before validation.
func ParseTimetable(body []byte, loc *time.Location) (*timetable.Timetable, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics: parse calendar: %w", err)
	}

	items := make([]model.AgendaItem, 0)
	for _, ve := range cal.Events() {
		it, perr := parseVEvent(ve, loc)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent skipped", perr)
			continue
		}
		items = append(items, it)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].StartMinute() < items[j].StartMinute()
	})

	tt, err := timetable.New(items)
	if err != nil {
		return nil, err
	}
	appLog.Info("ics timetable parsed", "item_count", tt.Len())
	return tt, nil
}

// LoadTimetableFile is ParseTimetableForDay for a file on disk.
func LoadTimetableFile(path string, day time.Time) (*timetable.Timetable, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTimetableForDay(body, day)
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (model.AgendaItem, error) {
	var label string
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		label = strings.TrimSpace(p.Value)
	}
	if label == "" {
		return model.AgendaItem{}, errors.New("missing SUMMARY")
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return model.AgendaItem{}, fmt.Errorf("%q: DTSTART: %w", label, err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return model.AgendaItem{}, fmt.Errorf("%q: DTEND: %w", label, err)
	}

	return agendaItem(label, kindOf(ve), start, end, loc), nil
}

// agendaItem keeps only the time of day of start and end, read in loc.
func agendaItem(label string, kind model.Kind, start, end time.Time, loc *time.Location) model.AgendaItem {
	start = start.In(loc)
	end = end.In(loc)

	it := model.AgendaItem{
		Label: label,
		Kind:  kind,
		Start: model.At(start.Hour(), start.Minute()),
		End:   model.At(end.Hour(), end.Minute()),
	}
	// An item ending exactly at midnight of the next day closes the day.
	if it.End.Minutes() == 0 && end.After(start) {
		it.End = model.At(24, 0)
	}
	return it
}

// kindOf maps CATEGORIES:BREAK to a break; everything else is a period.
func kindOf(ve *ical.VEvent) model.Kind {
	for _, p := range ve.GetProperties(ical.ComponentPropertyCategories) {
		for _, c := range strings.Split(p.Value, ",") {
			if strings.EqualFold(strings.TrimSpace(c), "BREAK") {
				return model.KindBreak
			}
		}
	}
	return model.KindPeriod
}
