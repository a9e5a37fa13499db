package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bellboard/internal/config"
	"bellboard/internal/ics"
	appLog "bellboard/internal/log"
	"bellboard/internal/timetable"
)

const version = "0.1.0"

var (
	configPath string
	icsPath    string
	debug      bool
	cfg        *config.Config
	loc        *time.Location
)

var rootCmd = &cobra.Command{
	Use:   "bellboard",
	Short: "Bellboard - school day schedule board",
	Long: `Bellboard shows where the school day stands: which period is running,
how long until the next bell, and how much of the day is done.

It serves an HTML board with a live websocket feed, a terminal board,
an iCalendar export and periodic PNG snapshots of the board.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/bellboard/config.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&icsPath, "ics", "", "Load the timetable from an .ics file or URL (overrides timetable_ics)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and applies the log level (called by
// commands that need it).
func loadConfig() error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := appLog.ParseLevel(cfg.LogLevel)
	if debug {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)

	loc, err = cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	appLog.Debug("effective config",
		"config_path", configPath,
		"listen", cfg.Listen,
		"timezone", loc.String(),
		"tick_interval", cfg.TickInterval.String(),
		"timetable_entries", len(cfg.Timetable),
		"capture", cfg.Capture.Enabled,
	)
	return nil
}

// loadTimetable builds day's timetable from --ics or timetable_ics when set,
// otherwise from the config entries (falling back to the reference
// timetable).
func loadTimetable(ctx context.Context, day time.Time) (*timetable.Timetable, error) {
	source := cfg.TimetableICS
	if icsPath != "" {
		source = icsPath
	}
	if source != "" {
		tt, err := ics.NewFetcher(cfg.CacheDir).LoadTimetable(ctx, source, day)
		if err != nil {
			return nil, fmt.Errorf("load timetable from %s: %w", source, err)
		}
		return tt, nil
	}
	tt, err := timetable.FromConfig(cfg.Timetable)
	if err != nil {
		return nil, fmt.Errorf("load timetable: %w", err)
	}
	return tt, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
