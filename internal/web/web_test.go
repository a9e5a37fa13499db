package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ws "nhooyr.io/websocket"

	"bellboard/internal/board"
	"bellboard/internal/clock"
	"bellboard/internal/config"
	"bellboard/internal/telemetry"
	"bellboard/internal/timetable"
)

func at(h, m, s int) time.Time {
	return time.Date(2026, 10, 19, h, m, s, 0, time.UTC)
}

func newTestServer(t *testing.T, now time.Time, mutate func(*config.Config)) (*Server, *board.Board) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Capture.OutputPath = filepath.Join(t.TempDir(), "preview.png")
	if mutate != nil {
		mutate(cfg)
	}
	src := clock.New(time.Hour, clock.WithNow(func() time.Time { return now }))
	b := board.New(timetable.Reference(), src, telemetry.NewMetrics())
	b.Tick(now)
	return NewServer(cfg, b, time.UTC), b
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, at(9, 0, 0), nil)
	rec := get(t, s.Handler(), "/health")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestStateInProgress(t *testing.T) {
	s, _ := newTestServer(t, at(8, 56, 0), nil)
	rec := get(t, s.Handler(), "/api/state")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}

	var resp stateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Phase != "in_progress" {
		t.Errorf("phase: got %q", resp.Phase)
	}
	if resp.Item == nil || resp.Item.Label != "Period 1" {
		t.Fatalf("item: got %+v", resp.Item)
	}
	if resp.ProgressRatio != 0.5 || resp.ProgressLabel != "50%" {
		t.Errorf("progress: %v %q", resp.ProgressRatio, resp.ProgressLabel)
	}
	if resp.RemainingMs != 26*60*1000 || resp.Remaining != "26m 00s" {
		t.Errorf("remaining: %d %q", resp.RemainingMs, resp.Remaining)
	}
	if resp.UntilStart != "" {
		t.Errorf("until_start should be empty in progress, got %q", resp.UntilStart)
	}
	if resp.DayStart != "8:30 AM" || resp.DayEnd != "3:11 PM" {
		t.Errorf("day bounds: %q-%q", resp.DayStart, resp.DayEnd)
	}
	if len(resp.Items) != 9 {
		t.Fatalf("items: got %d", len(resp.Items))
	}
	if !resp.Items[0].IsActive || !resp.Items[1].IsNext {
		t.Errorf("badges: active=%v next=%v", resp.Items[0].IsActive, resp.Items[1].IsNext)
	}
	if resp.Items[1].Countdown != "32m 00s" {
		t.Errorf("Period 2 countdown: got %q", resp.Items[1].Countdown)
	}
}

func TestStateDone(t *testing.T) {
	s, _ := newTestServer(t, at(15, 11, 0), nil)
	rec := get(t, s.Handler(), "/api/state")

	var resp stateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Phase != "done" || resp.Item != nil {
		t.Errorf("want done without item, got %q %+v", resp.Phase, resp.Item)
	}
	if resp.Remaining != "" || resp.UntilStart != "" {
		t.Errorf("done state should carry no countdown text, got %q %q", resp.Remaining, resp.UntilStart)
	}
	for _, it := range resp.Items {
		if !it.IsDone || it.Countdown != "" {
			t.Errorf("%q: done=%v countdown=%q", it.Label, it.IsDone, it.Countdown)
		}
	}
}

func TestTimetable(t *testing.T) {
	s, _ := newTestServer(t, at(9, 0, 0), nil)
	rec := get(t, s.Handler(), "/api/timetable")

	var resp timetableResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DayStart != "08:30" || resp.DayEnd != "15:11" {
		t.Errorf("bounds: %q-%q", resp.DayStart, resp.DayEnd)
	}
	if len(resp.Items) != 9 || resp.Items[6].Label != "Lunch" || resp.Items[6].Kind != "break" {
		t.Errorf("items: %+v", resp.Items)
	}
}

func TestBoardPage(t *testing.T) {
	s, _ := newTestServer(t, at(9, 25, 0), nil)
	rec := get(t, s.Handler(), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`data-ready="true"`, "Up Next", "Period 2", "3m 00s", "Mission San Jose High"} {
		if !strings.Contains(body, want) {
			t.Errorf("board page missing %q", want)
		}
	}
}

func TestICSExport(t *testing.T) {
	s, _ := newTestServer(t, at(9, 0, 0), nil)

	rec := get(t, s.Handler(), "/calendar.ics?date=2026-10-20")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type: %q", ct)
	}
	if n := strings.Count(rec.Body.String(), "BEGIN:VEVENT"); n != 9 {
		t.Errorf("want 9 events, got %d", n)
	}

	if rec := get(t, s.Handler(), "/calendar.ics?date=tomorrow"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: got %d", rec.Code)
	}
}

func TestPreview(t *testing.T) {
	s, _ := newTestServer(t, at(9, 0, 0), nil)
	if rec := get(t, s.Handler(), "/preview.png"); rec.Code != http.StatusNotFound {
		t.Errorf("before capture: got %d", rec.Code)
	}

	if err := os.WriteFile(s.cfg.Capture.OutputPath, []byte("\x89PNG"), 0o644); err != nil {
		t.Fatal(err)
	}
	if rec := get(t, s.Handler(), "/preview.png"); rec.Code != http.StatusOK {
		t.Errorf("after capture: got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	s, _ := newTestServer(t, at(9, 0, 0), nil)
	rec := get(t, s.Handler(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "bellboard_ticks_total 1") {
		t.Errorf("ticks metric missing:\n%s", rec.Body.String())
	}
}

func TestBasicAuth(t *testing.T) {
	s, _ := newTestServer(t, at(9, 0, 0), func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	})
	h := s.Handler()

	if rec := get(t, h, "/health"); rec.Code != http.StatusOK {
		t.Errorf("/health should bypass auth, got %d", rec.Code)
	}
	if rec := get(t, h, "/api/state"); rec.Code != http.StatusUnauthorized {
		t.Errorf("no credentials: got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid credentials: got %d", rec.Code)
	}
}

func TestStreamPushesTicks(t *testing.T) {
	s, b := newTestServer(t, at(8, 0, 0), nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	conn, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(ws.StatusNormalClosure, "")

	read := func() stateResponse {
		t.Helper()
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var resp stateResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return resp
	}

	if first := read(); first.Phase != "pre_school" || first.UntilStart != "30m 00s" {
		t.Errorf("initial: %q %q", first.Phase, first.UntilStart)
	}

	// The subscription is registered before the initial write, so this tick
	// is delivered.
	b.Tick(at(8, 30, 0))
	if next := read(); next.Phase != "in_progress" || next.Item == nil || next.Item.Label != "Period 1" {
		t.Errorf("after tick: %q %+v", next.Phase, next.Item)
	}
}

func TestStreamClosesWhenBoardStops(t *testing.T) {
	s, b := newTestServer(t, at(9, 0, 0), nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	boardCtx, stopBoard := context.WithCancel(context.Background())
	defer stopBoard()
	boardDone := make(chan struct{})
	go func() {
		b.Run(boardCtx)
		close(boardDone)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	conn, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(ws.StatusNormalClosure, "")

	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("initial read: %v", err)
	}

	stopBoard()
	<-boardDone

	for {
		_, _, err := conn.Read(ctx)
		if err == nil {
			continue
		}
		if got := ws.CloseStatus(err); got != ws.StatusGoingAway {
			t.Errorf("close status: got %v (%v), want going away", got, err)
		}
		return
	}
}
