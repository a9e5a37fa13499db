package main

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"bellboard/internal/board"
	"bellboard/internal/capture"
	"bellboard/internal/clock"
	"bellboard/internal/config"
	appLog "bellboard/internal/log"
	"bellboard/internal/telemetry"
	"bellboard/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board over HTTP",
	Long: `Start the board clock and the HTTP server.

Endpoints:
  /               HTML board (live via /api/stream)
  /api/state      current derived state as JSON
  /api/timetable  the day's timetable as JSON
  /api/stream     websocket, one state per tick
  /calendar.ics   the timetable as iCalendar (?date=YYYY-MM-DD)
  /preview.png    last PNG snapshot, when capture is enabled
  /metrics        Prometheus metrics
  /health         liveness`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config if set)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Listen = serveListen
	}

	appLog.Info("bellboard starting", "version", version, "listen", cfg.Listen, "timezone", loc.String())

	ctx, cancel := signalContext()
	defer cancel()

	tt, err := loadTimetable(ctx, time.Now().In(loc))
	if err != nil {
		return err
	}

	b := board.New(tt, clock.New(cfg.TickInterval, clock.WithLocation(loc)), telemetry.NewMetrics())
	go b.Run(ctx)

	if cfg.Capture.Enabled {
		opts := capture.Options{
			URL:        captureURL(cfg),
			OutputPath: cfg.Capture.OutputPath,
			Width:      cfg.Capture.Width,
			Height:     cfg.Capture.Height,
		}
		sched, err := capture.NewScheduler(cfg.RefreshCron, loc, opts, nil)
		if err != nil {
			return err
		}
		go sched.Run(ctx)
	}

	if err := web.StartServer(ctx, cfg, web.NewServer(cfg, b, loc)); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	appLog.Info("bellboard exiting")
	return nil
}

// captureURL is the page the snapshot scheduler loads: capture.url when set,
// otherwise this server's own board, with basic auth credentials embedded.
func captureURL(c *config.Config) string {
	if c.Capture.URL != "" {
		return c.Capture.URL
	}

	host, port, err := net.SplitHostPort(c.Listen)
	if err != nil {
		host, port = c.Listen, "80"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	u := url.URL{Scheme: "http", Host: net.JoinHostPort(host, port), Path: "/"}
	if c.BasicAuth != nil && c.BasicAuth.Username != "" && c.BasicAuth.Password != "" {
		u.User = url.UserPassword(c.BasicAuth.Username, c.BasicAuth.Password)
	}
	return u.String()
}
