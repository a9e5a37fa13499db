package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	ws "nhooyr.io/websocket"

	appLog "bellboard/internal/log"
	"bellboard/internal/schedule"
)

const streamWriteTimeout = 5 * time.Second

// handleStream upgrades to a websocket and pushes one stateResponse per
// clock tick, starting with the latest snapshot. Clients only read.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.Accept(w, r, &ws.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		appLog.Error("websocket accept failed", err)
		return
	}
	defer conn.Close(ws.StatusInternalError, "server error")

	if m := s.board.Metrics(); m != nil {
		m.StreamClients.Inc()
		defer m.StreamClients.Dec()
	}

	// CloseRead discards incoming frames and cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	sub := s.board.Subscribe()
	defer s.board.Unsubscribe(sub)

	if err := s.writeSnapshot(ctx, conn, s.board.Latest()); err != nil {
		appLog.Debug("websocket initial write failed", "err", err.Error())
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(ws.StatusNormalClosure, "")
			return
		case snap, ok := <-sub:
			if !ok {
				conn.Close(ws.StatusGoingAway, "board stopped")
				return
			}
			if err := s.writeSnapshot(ctx, conn, snap); err != nil {
				appLog.Debug("websocket write failed", "err", err.Error())
				return
			}
		}
	}
}

func (s *Server) writeSnapshot(ctx context.Context, conn *ws.Conn, snap schedule.Snapshot) error {
	data, err := json.Marshal(buildState(s.board.Timetable(), snap))
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return conn.Write(wctx, ws.MessageText, data)
}
