package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"bellboard/internal/format"
	"bellboard/internal/schedule"
	"bellboard/internal/timetable"
)

var (
	nowAt   string
	nowJSON bool
)

var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Print the current day state once",
	Long: `Derive the day state for a single instant and print it.

Examples:
  # Where does the day stand right now?
  bellboard now

  # What would the board show at 10:22:30?
  bellboard now --at 10:22:30 --json
`,
	RunE: runNow,
}

func init() {
	nowCmd.Flags().StringVar(&nowAt, "at", "", "Time of day to evaluate (HH:MM or HH:MM:SS, default: now)")
	nowCmd.Flags().BoolVar(&nowJSON, "json", false, "Print JSON instead of text")
	rootCmd.AddCommand(nowCmd)
}

func runNow(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	now := time.Now().In(loc)
	if nowAt != "" {
		var err error
		now, err = parseAt(nowAt, now)
		if err != nil {
			return err
		}
	}

	tt, err := loadTimetable(cmd.Context(), now)
	if err != nil {
		return err
	}

	return writeNow(cmd.OutOrStdout(), tt, now, nowJSON)
}

// parseAt places an HH:MM[:SS] time of day on day's date.
func parseAt(s string, day time.Time) (time.Time, error) {
	var (
		t   time.Time
		err error
	)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err = time.Parse(layout, s); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("--at must be HH:MM or HH:MM:SS, got %q", s)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, day.Location()), nil
}

// nowResult is the --json shape.
type nowResult struct {
	At          string  `json:"at"`
	Phase       string  `json:"phase"`
	Item        string  `json:"item,omitempty"`
	ItemIndex   int     `json:"item_index"`
	Range       string  `json:"range,omitempty"`
	Progress    float64 `json:"progress"`
	Remaining   string  `json:"remaining"`
	UntilStart  string  `json:"until_start"`
	DayProgress float64 `json:"day_progress"`
}

func writeNow(w io.Writer, tt *timetable.Timetable, now time.Time, asJSON bool) error {
	snap := schedule.Compute(tt, now)
	st := snap.State

	res := nowResult{
		At:          now.Format("15:04:05"),
		Phase:       st.Phase.String(),
		ItemIndex:   st.ItemIndex,
		Progress:    st.Progress,
		Remaining:   format.Countdown(st.Remaining),
		UntilStart:  format.Countdown(st.UntilStart),
		DayProgress: snap.DayProgress,
	}
	if st.HasItem() {
		res.Item = st.Item.Label
		res.Range = format.Range(st.Item)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "%s  %s\n", format.Clock(now), res.Phase)
	switch st.Phase {
	case schedule.PhaseInProgress:
		fmt.Fprintf(w, "%s (%s)\n", res.Item, res.Range)
		fmt.Fprintf(w, "%s remaining, %s through\n", res.Remaining, format.Percent(st.Progress))
	case schedule.PhasePreSchool, schedule.PhaseTransition:
		fmt.Fprintf(w, "next: %s (%s)\n", res.Item, res.Range)
		fmt.Fprintf(w, "starts in %s\n", res.UntilStart)
	default:
		fmt.Fprintln(w, "school's out")
	}
	_, err := fmt.Fprintf(w, "day %s done\n", format.Percent(snap.DayProgress))
	return err
}
