package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bellboard/internal/board"
	"bellboard/internal/config"
	"bellboard/internal/ics"
	appLog "bellboard/internal/log"
)

// Server exposes the board over HTTP: the HTML page, JSON state, a
// websocket tick stream, the ICS export and the PNG preview.
type Server struct {
	cfg   *config.Config
	board *board.Board
	loc   *time.Location

	router chi.Router

	// In-memory cache for /calendar.ics. The export only changes with the
	// date, so one entry per day is enough.
	icsMu    sync.RWMutex
	icsCache *icsCache
}

// icsCache holds the last rendered calendar and the date it was rendered for.
type icsCache struct {
	date string
	body []byte
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, b *board.Board, loc *time.Location) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		cfg:   cfg,
		board: b,
		loc:   loc,
	}
	s.router = s.routes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleBoard)
	r.Get("/preview.png", s.handlePreview)
	r.Get("/calendar.ics", s.handleICS)
	if m := s.board.Metrics(); m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/timetable", s.handleTimetable)
		r.Get("/stream", s.handleStream)
	})
	return r
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="bellboard", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves s on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, s *Server) error {
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP graceful shutdown failed", err)
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleState returns the latest derived snapshot.
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	snap := s.board.Latest()
	writeJSON(w, http.StatusOK, buildState(s.board.Timetable(), snap))
}

// handleTimetable returns the static timetable.
func (s *Server) handleTimetable(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildTimetable(s.board.Timetable()))
}

// handlePreview serves the last captured PNG snapshot from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	// http.ServeFile returns 404 when no snapshot has been captured yet.
	http.ServeFile(w, r, s.cfg.Capture.OutputPath)
}

// handleICS renders the timetable as an iCalendar feed.
//
// GET /calendar.ics?date=2026-10-19
//   - date: calendar date to place the items on (default: today in the
//     configured timezone)
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	day := s.board.Latest().Instant.In(s.loc)
	if day.IsZero() {
		day = time.Now().In(s.loc)
	}
	if q := r.URL.Query().Get("date"); q != "" {
		d, err := time.ParseInLocation("2006-01-02", q, s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = d
	}
	date := day.Format("2006-01-02")

	s.icsMu.RLock()
	c := s.icsCache
	s.icsMu.RUnlock()

	var body []byte
	if c != nil && c.date == date {
		body = c.body
	} else {
		out, err := ics.Export(s.board.Timetable(), day, ics.ExportOptions{
			Name:  s.cfg.ICSExport.Name,
			RRule: s.cfg.ICSExport.RRule,
		})
		if err != nil {
			appLog.Error("ics export failed", err, "date", date)
			writeError(w, http.StatusInternalServerError, "failed to export calendar")
			return
		}
		body = out
		s.icsMu.Lock()
		s.icsCache = &icsCache{date: date, body: body}
		s.icsMu.Unlock()
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="bell-schedule-`+date+`.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
