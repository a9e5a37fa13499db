package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	appLog "bellboard/internal/log"
)

//go:embed templates/board.html
var templatesFS embed.FS

var boardTmpl = template.Must(template.New("board.html").Funcs(template.FuncMap{
	"width": cssWidth,
	"num":   func(i int) string { return fmt.Sprintf("%02d", i+1) },
}).ParseFS(templatesFS, "templates/board.html"))

// boardPage is the data the board template is rendered with.
type boardPage struct {
	School string
	State  stateResponse
}

// handleBoard renders the HTML board for the latest snapshot. The page then
// follows /api/stream to stay current.
func (s *Server) handleBoard(w http.ResponseWriter, _ *http.Request) {
	page := boardPage{
		School: s.cfg.SchoolName,
		State:  buildState(s.board.Timetable(), s.board.Latest()),
	}

	var buf bytes.Buffer
	if err := boardTmpl.Execute(&buf, page); err != nil {
		appLog.Error("board template failed", err)
		http.Error(w, "failed to render board", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// cssWidth renders a ratio as a CSS width percentage.
func cssWidth(ratio float64) string {
	switch {
	case ratio < 0:
		ratio = 0
	case ratio > 1:
		ratio = 1
	}
	return fmt.Sprintf("%.1f%%", ratio*100)
}
