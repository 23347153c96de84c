// internal/httpserver/live.go
//
// WebSocket live feed for a session:
//   - GET /game/{id}/live → pushes the view on every tick until the game ends

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory-match/internal/game"
	"github.com/robalobadob/memory-match/internal/store"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = 25 * time.Second
)

// handleLive streams the session view over a WebSocket.
//
// The connection is the browser's timer: every TICK_INTERVAL the server ticks
// the session clock and pushes the view. The stream ends after the final
// view of a won or quit session, or when the session is gone.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Get(r.Context(), id); err != nil {
		s.gameErr(w, err)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("live upgrade")
		return
	}
	defer conn.Close()

	// Reader: only pongs and close frames are expected.
	done := make(chan struct{})
	conn.SetReadLimit(1 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	ping := time.NewTicker(livePingPeriod)
	defer ping.Stop()

	push := func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), liveWriteWait)
		defer cancel()
		if err := s.tick(ctx, id); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.Warn().Err(err).Str("gameId", id).Msg("live tick")
			}
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "gone"), time.Now().Add(liveWriteWait))
			return false
		}
		res, err := s.snapshot(ctx, id)
		if err != nil {
			return false
		}
		_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
		if err := conn.WriteJSON(res); err != nil {
			return false
		}
		if res.State == game.StateQuit || (res.State == game.StateWon && s.finalized(id)) {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(res.State)), time.Now().Add(liveWriteWait))
			return false
		}
		return true
	}

	if !push() {
		return
	}
	for {
		select {
		case <-ticker.C:
			if !push() {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// finalized reports whether win bookkeeping (record check) has completed.
func (s *Server) finalized(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.meta[id]
	return m == nil || m.Finalized
}

// checkOrigin accepts same-host requests and the configured client origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == s.cfg.ClientOrigin {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}
