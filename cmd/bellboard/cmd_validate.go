package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"bellboard/internal/capture"
	"bellboard/internal/config"
	"bellboard/internal/format"
	"bellboard/internal/ics"
	"bellboard/internal/timetable"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the config and timetable without starting anything",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	tt, err := loadTimetable(cmd.Context(), time.Now().In(loc))
	if err != nil {
		return err
	}
	if err := validateExtras(cfg); err != nil {
		return err
	}
	writeSummary(cmd.OutOrStdout(), tt)
	return nil
}

// validateExtras checks the settings the timetable itself does not cover.
func validateExtras(c *config.Config) error {
	if err := ics.ValidateRRule(c.ICSExport.RRule); err != nil {
		return fmt.Errorf("ics_export.rrule: %w", err)
	}
	if c.Capture.Enabled {
		if _, err := capture.NewScheduler(c.RefreshCron, nil, capture.Options{}, nil); err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
	}
	return nil
}

func writeSummary(w io.Writer, tt *timetable.Timetable) {
	first, last := tt.First(), tt.Last()
	fmt.Fprintf(w, "ok: %d items, %s to %s\n", tt.Len(), first.Start, last.End)
	for i, it := range tt.Items() {
		fmt.Fprintf(w, "  %02d  %-6s %-18s %s\n", i+1, it.Kind, it.Label, format.Range(it))
	}
}
