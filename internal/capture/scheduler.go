package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "bellboard/internal/log"
)

// CaptureFunc takes one snapshot. BoardPNG is the production implementation.
type CaptureFunc func(ctx context.Context, opts Options) error

// Scheduler runs a CaptureFunc on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	schedule cron.Schedule
	loc      *time.Location
	opts     Options
	capture  CaptureFunc
}

// NewScheduler validates spec (standard 5-field cron) and prepares a
// scheduler in loc. fn nil means BoardPNG.
func NewScheduler(spec string, loc *time.Location, opts Options, fn CaptureFunc) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	if fn == nil {
		fn = BoardPNG
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("capture: invalid refresh schedule %q: %w", spec, err)
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		spec:     spec,
		schedule: sched,
		loc:      loc,
		opts:     opts,
		capture:  fn,
	}, nil
}

// Next returns the first scheduled capture after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.loc))
}

// Run captures once right away and then on schedule until ctx is
// cancelled. Capture failures are logged, never fatal.
func (s *Scheduler) Run(ctx context.Context) {
	run := func() {
		if err := s.capture(ctx, s.opts); err != nil {
			appLog.Error("board snapshot failed", err, "url", s.opts.URL)
		}
	}
	s.cron.Schedule(s.schedule, cron.FuncJob(run))

	appLog.Info("board snapshot schedule started",
		"refresh", s.spec,
		"next", s.Next(time.Now()).Format(time.RFC3339),
		"output", s.opts.OutputPath,
	)
	run()
	s.cron.Start()

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	appLog.Info("board snapshot schedule stopped")
}
