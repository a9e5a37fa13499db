// Package format turns derived schedule values into display strings.
package format

import (
	"fmt"
	"math"
	"time"

	"bellboard/internal/model"
)

// Placeholder is shown instead of a negative countdown.
const Placeholder = "—"

// Countdown renders d as "1h 5m", "4m 07s" or "42s". Sub-second remainders
// are truncated. Negative durations render as Placeholder.
func Countdown(d time.Duration) string {
	if d < 0 {
		return Placeholder
	}
	s := int64(d / time.Second)
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, sec)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}

// TimeOfDay renders a 24-hour (hour, minute) pair as "8:30 AM" / "3:11 PM".
func TimeOfDay(hour, minute int) string {
	ap := "AM"
	if hour%24 >= 12 {
		ap = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, minute, ap)
}

// Range renders an item's window as "8:30 AM – 9:22 AM".
func Range(item model.AgendaItem) string {
	return TimeOfDay(item.Start.Hour, item.Start.Minute) + " – " + TimeOfDay(item.End.Hour, item.End.Minute)
}

// Clock renders the wall clock with one-second resolution ("10:22:30 AM").
func Clock(t time.Time) string {
	return t.Format("3:04:05 PM")
}

// Date renders the header date ("Mon, Oct 19").
func Date(t time.Time) string {
	return t.Format("Mon, Jan 2")
}

// Percent renders a ratio in [0,1] as a whole percentage ("42%").
func Percent(ratio float64) string {
	if math.IsNaN(ratio) {
		ratio = 0
	}
	return fmt.Sprintf("%d%%", int(math.Round(ratio*100)))
}
