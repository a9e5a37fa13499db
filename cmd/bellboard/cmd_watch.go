package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"bellboard/internal/board"
	"bellboard/internal/clock"
	appLog "bellboard/internal/log"
	"bellboard/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the board in the terminal",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	// Log lines would tear the alternate screen.
	if !debug {
		appLog.SetOutput(io.Discard)
	}

	ctx, cancel := signalContext()
	defer cancel()

	tt, err := loadTimetable(ctx, time.Now().In(loc))
	if err != nil {
		return err
	}

	b := board.New(tt, clock.New(cfg.TickInterval, clock.WithLocation(loc)), nil)
	go b.Run(ctx)

	err = tui.Run(ctx, cfg.SchoolName, b)
	cancel()
	return err
}
