package capture

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestOptionsNormalize(t *testing.T) {
	o := Options{URL: "http://127.0.0.1:8080/", OutputPath: "/tmp/x.png"}
	if err := o.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight {
		t.Errorf("size: got %dx%d", o.Width, o.Height)
	}
	if o.Timeout != DefaultTimeoutSec*time.Second {
		t.Errorf("timeout: got %v", o.Timeout)
	}

	if err := (&Options{OutputPath: "/tmp/x.png"}).normalize(); err == nil {
		t.Error("missing URL should fail")
	}
	if err := (&Options{URL: "http://x"}).normalize(); err == nil {
		t.Error("missing output path should fail")
	}
}

func TestWriteAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "preview.png")
	if err := writeAtomic(path, []byte("png")); err != nil {
		t.Fatalf("writeAtomic: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "png" {
		t.Fatalf("read back: %q %v", got, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	if _, err := NewScheduler("every now and then", time.UTC, Options{}, nil); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestSchedulerCapturesImmediatelyAndStops(t *testing.T) {
	var calls atomic.Int32
	fn := func(ctx context.Context, opts Options) error {
		calls.Add(1)
		return nil
	}
	s, err := NewScheduler("*/5 * * * *", time.UTC, Options{URL: "http://x", OutputPath: "/tmp/x"}, fn)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("no immediate capture")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSchedulerNextFollowsSpec(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	s, err := NewScheduler("30 7 * * 1-5", loc, Options{}, func(context.Context, Options) error { return nil })
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	tests := []struct {
		from time.Time
		want time.Time
	}{
		// Monday before school
		{time.Date(2026, 10, 19, 6, 0, 0, 0, loc), time.Date(2026, 10, 19, 7, 30, 0, 0, loc)},
		// Friday after the capture rolls to Monday
		{time.Date(2026, 10, 23, 8, 0, 0, 0, loc), time.Date(2026, 10, 26, 7, 30, 0, 0, loc)},
		// other zones are converted first
		{time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC), time.Date(2026, 10, 19, 7, 30, 0, 0, loc)},
	}
	for _, tc := range tests {
		if got := s.Next(tc.from); !got.Equal(tc.want) {
			t.Errorf("Next(%v) = %v, want %v", tc.from, got, tc.want)
		}
	}
}
