package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bellboard/internal/ics"
	appLog "bellboard/internal/log"
)

var (
	exportDate string
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export-ics",
	Short: "Write the timetable as an iCalendar file",
	Long: `Export the day's timetable as iCalendar events, one per item.

ics_export.rrule in the config, when set, is attached to every event
(e.g. "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR").

Examples:
  bellboard export-ics > today.ics
  bellboard export-ics --date 2026-10-20 --out schedule.ics
`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDate, "date", "", "Date to place the items on (YYYY-MM-DD, default: today)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	day := time.Now().In(loc)
	if exportDate != "" {
		var err error
		day, err = time.ParseInLocation("2006-01-02", exportDate, loc)
		if err != nil {
			return fmt.Errorf("--date must be YYYY-MM-DD, got %q", exportDate)
		}
	}

	tt, err := loadTimetable(cmd.Context(), day)
	if err != nil {
		return err
	}

	body, err := ics.Export(tt, day, ics.ExportOptions{
		Name:  cfg.ICSExport.Name,
		RRule: cfg.ICSExport.RRule,
	})
	if err != nil {
		return err
	}

	if exportOut == "" {
		_, err = cmd.OutOrStdout().Write(body)
		return err
	}
	if err := os.WriteFile(exportOut, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	appLog.Info("calendar exported", "path", exportOut, "items", tt.Len(), "date", day.Format("2006-01-02"))
	return nil
}
