package ics

import (
	"errors"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"bellboard/internal/format"
	appLog "bellboard/internal/log"
	"bellboard/internal/model"
	"bellboard/internal/timetable"
)

const productID = "-//bellboard//bell schedule//EN"

// uidNamespace scopes the deterministic per-item UIDs.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("bellboard"))

// ExportOptions controls how a timetable is rendered as iCalendar.
type ExportOptions struct {
	// Name becomes X-WR-CALNAME.
	Name string
	// RRule, if non-empty, is validated and attached to every event.
	RRule string
	// Stamp is used for DTSTAMP. Zero means time.Now().
	Stamp time.Time
}

// ValidateRRule checks that s parses as an RRULE value.
func ValidateRRule(s string) error {
	if s == "" {
		return nil
	}
	if _, err := rrule.StrToRRule(s); err != nil {
		return fmt.Errorf("ics: invalid rrule %q: %w", s, err)
	}
	return nil
}

// Export renders the timetable's items on the calendar date of day (in day's
// location) as one VEVENT each.
func Export(tt *timetable.Timetable, day time.Time, opts ExportOptions) ([]byte, error) {
	if tt == nil {
		return nil, errors.New("ics: timetable is nil")
	}
	if err := ValidateRRule(opts.RRule); err != nil {
		return nil, err
	}
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	cal.SetXWRTimezone(day.Location().String())

	date := day.Format("2006-01-02")
	for i, it := range tt.Items() {
		ev := cal.AddEvent(eventUID(date, i, it))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetStartAt(onDay(day, it.Start))
		ev.SetEndAt(onDay(day, it.End))
		ev.SetSummary(it.Label)
		ev.SetDescription(fmt.Sprintf("%s (%s)", format.Range(it), it.Kind))
		ev.AddProperty(ical.ComponentPropertyCategories, categoryFor(it.Kind))
		if opts.RRule != "" {
			ev.AddProperty(ical.ComponentPropertyRrule, opts.RRule)
		}
	}

	out := cal.Serialize()
	appLog.Debug("ics export completed", "date", date, "event_count", tt.Len(), "bytes", len(out))
	return []byte(out), nil
}

func onDay(day time.Time, tod model.TimeOfDay) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour, tod.Minute, 0, 0, day.Location())
}

// eventUID is stable for the same date, position and label so calendar
// clients update events in place on re-import.
func eventUID(date string, idx int, it model.AgendaItem) string {
	key := fmt.Sprintf("%s/%d/%s", date, idx, it.Label)
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@bellboard"
}

func categoryFor(k model.Kind) string {
	if k == model.KindBreak {
		return "BREAK"
	}
	return "PERIOD"
}
