package ics

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "bellboard/internal/log"
	"bellboard/internal/model"
	"bellboard/internal/timetable"
)

// maxOccurrencesPerDay caps how many instances one recurring event may put
// on a single day.
const maxOccurrencesPerDay = 64

// feedEvent is a VEVENT with its recurrence data, before it is placed on a
// day.
type feedEvent struct {
	uid   string
	label string
	kind  model.Kind

	start time.Time
	end   time.Time

	rrule      string
	exDates    []time.Time
	recurrence *time.Time // RECURRENCE-ID of an overridden instance
}

// ParseTimetableForDay builds the timetable for day's calendar date (in
// day's location) from a feed that may describe several days:
//
//   - RRULE events contribute the instances that start on day, minus EXDATEs.
//   - A VEVENT with RECURRENCE-ID replaces the instance it names and counts
//     on the day it actually starts.
//   - A feed with no recurrence whose events all share one date is a
//     template for any day, as with ParseTimetable.
func ParseTimetableForDay(body []byte, day time.Time) (*timetable.Timetable, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	loc := day.Location()

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics: parse calendar: %w", err)
	}

	events := make([]feedEvent, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseFeedEvent(ve, loc)
		if perr != nil {
			appLog.Error("ics vevent skipped", perr)
			continue
		}
		events = append(events, ev)
	}

	if isTemplate(events, loc) {
		return ParseTimetable(body, loc)
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	// Overridden instances are excluded from their series like EXDATEs.
	overridden := make(map[string][]time.Time)
	for _, ev := range events {
		if ev.recurrence != nil {
			overridden[ev.uid] = append(overridden[ev.uid], *ev.recurrence)
		}
	}

	items := make([]model.AgendaItem, 0)
	for _, ev := range events {
		for _, start := range occurrencesOn(ev, overridden[ev.uid], dayStart, dayEnd) {
			end := start.Add(ev.end.Sub(ev.start))
			items = append(items, agendaItem(ev.label, ev.kind, start, end, loc))
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].StartMinute() < items[j].StartMinute()
	})

	tt, err := timetable.New(items)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dayStart.Format("2006-01-02"), err)
	}
	appLog.Info("ics timetable selected for day", "date", dayStart.Format("2006-01-02"), "item_count", tt.Len())
	return tt, nil
}

// occurrencesOn returns the start times of ev's instances in [dayStart, dayEnd).
func occurrencesOn(ev feedEvent, overridden []time.Time, dayStart, dayEnd time.Time) []time.Time {
	inDay := func(t time.Time) bool {
		return !t.Before(dayStart) && t.Before(dayEnd)
	}

	if ev.rrule == "" || ev.recurrence != nil {
		if inDay(ev.start) {
			return []time.Time{ev.start}
		}
		return nil
	}

	r, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		appLog.Error("ics rrule skipped", err, "uid", ev.uid, "rrule", ev.rrule)
		return nil
	}
	r.DTStart(ev.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.exDates {
		set.ExDate(ex.In(ev.start.Location()))
	}
	for _, rid := range overridden {
		set.ExDate(rid.In(ev.start.Location()))
	}

	out := make([]time.Time, 0)
	for _, t := range set.Between(dayStart, dayEnd, true) {
		if !inDay(t) {
			continue
		}
		if len(out) == maxOccurrencesPerDay {
			appLog.Warn("ics occurrences truncated", "uid", ev.uid, "cap", maxOccurrencesPerDay)
			break
		}
		out = append(out, t)
	}
	return out
}

// isTemplate reports whether events describe one undated day: nothing
// recurs and every event starts on the same date.
func isTemplate(events []feedEvent, loc *time.Location) bool {
	date := ""
	for _, ev := range events {
		if ev.rrule != "" || ev.recurrence != nil {
			return false
		}
		d := ev.start.In(loc).Format("2006-01-02")
		if date != "" && d != date {
			return false
		}
		date = d
	}
	return true
}

func parseFeedEvent(ve *ical.VEvent, loc *time.Location) (feedEvent, error) {
	var out feedEvent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.uid = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.label = strings.TrimSpace(p.Value)
	}
	if out.label == "" {
		return out, errors.New("missing SUMMARY")
	}
	out.kind = kindOf(ve)

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("%q: DTSTART: %w", out.label, err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return out, fmt.Errorf("%q: DTEND: %w", out.label, err)
	}
	out.start = start.In(loc)
	out.end = end.In(loc)

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.rrule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, tzidOf(p.ICalParameters, loc)); err == nil {
				out.exDates = append(out.exDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if out.uid == "" {
			return out, fmt.Errorf("%q: RECURRENCE-ID without UID", out.label)
		}
		t, err := parseICSTime(p.Value, tzidOf(p.ICalParameters, loc))
		if err != nil {
			return out, fmt.Errorf("%q: RECURRENCE-ID: %w", out.label, err)
		}
		out.recurrence = &t
	}

	return out, nil
}

// tzidOf resolves a TZID parameter, falling back to loc.
func tzidOf(params map[string][]string, loc *time.Location) *time.Location {
	if tz, ok := params["TZID"]; ok && len(tz) > 0 {
		if l, err := time.LoadLocation(tz[0]); err == nil {
			return l
		}
	}
	return loc
}

// parseICSTime parses an EXDATE/RECURRENCE-ID value in UTC, local
// date-time or date form.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
