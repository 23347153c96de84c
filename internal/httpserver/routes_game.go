// internal/httpserver/routes_game.go
//
// HTTP routes for playing a game:
//   - POST /game/new      → start a session at a difficulty
//   - GET  /game/{id}     → tick the clock and return the current view
//   - POST /game/select   → flip a tile; a completed pair resolves after RESOLVE_DELAY
//   - POST /game/pause    → toggle pause
//   - POST /game/restart  → quit the session and start a fresh one at the same difficulty
//   - POST /game/quit     → abandon the session
//
// Wins are finalised off the request path: record check, games row, user
// stats and published events.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory-match/internal/daily"
	"github.com/robalobadob/memory-match/internal/events"
	"github.com/robalobadob/memory-match/internal/game"
	"github.com/robalobadob/memory-match/internal/scores"
	"github.com/robalobadob/memory-match/internal/store"
)

// wonRetention is how long a finished session stays readable.
const wonRetention = 10 * time.Minute

func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.Post("/select", s.handleSelect)
		r.Post("/pause", s.handlePause)
		r.Post("/restart", s.handleRestart)
		r.Post("/quit", s.handleQuit)
		r.Get("/{id}", s.handleGetGame)
	})
}

// gameRes is the response body for every game endpoint.
type gameRes struct {
	game.View
	Message   string      `json:"message,omitempty"`
	NewRecord bool        `json:"newRecord"`
	Best      *game.Score `json:"best"`
	Daily     string      `json:"daily,omitempty"`
}

type newGameReq struct {
	Difficulty string `json:"difficulty"`
}

type gameIDReq struct {
	GameID string `json:"gameId"`
}

type selectReq struct {
	GameID string `json:"gameId"`
	Index  *int   `json:"index"`
}

// handleNewGame creates a session for the caller and a games row for history.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Difficulty == "" {
		req.Difficulty = string(game.Easy)
	}
	d, err := game.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "unknown_difficulty")
		return
	}
	ownerID, userID := s.owner(w, r)
	s.startGame(w, r, d, gameMeta{OwnerID: ownerID, UserID: userID})
}

// startGame builds, stores and returns a new session. A meta.Daily date
// deals that date's board.
func (s *Server) startGame(w http.ResponseWriter, r *http.Request, d game.Difficulty, meta gameMeta) {
	opts := []game.Option{game.WithClock(s.now)}
	if meta.Daily != "" {
		opts = append(opts, game.WithRand(daily.Rand(meta.Daily, s.cfg.DailySalt)))
	}
	g, err := game.New(d, opts...)
	if err != nil {
		log.Error().Err(err).Str("difficulty", string(d)).Msg("new game")
		writeErr(w, http.StatusInternalServerError, "new_game_failed")
		return
	}
	if err := s.store.Save(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("save game")
		writeErr(w, http.StatusInternalServerError, "save_failed")
		return
	}
	s.mu.Lock()
	s.meta[g.ID] = &gameMeta{OwnerID: meta.OwnerID, UserID: meta.UserID, Daily: meta.Daily}
	s.mu.Unlock()

	s.insertGameRow(r.Context(), g, meta.OwnerID, meta.UserID)
	log.Debug().Str("gameId", g.ID).Str("difficulty", string(d)).Msg("game started")
	s.respond(w, r, g.ID, http.StatusCreated)
}

// handleGetGame advances the clock and returns the view.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.tick(r.Context(), id); err != nil {
		s.gameErr(w, err)
		return
	}
	s.respond(w, r, id, http.StatusOK)
}

// handleSelect flips a tile and schedules resolution for a completed pair.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	var sel game.Selection
	err := s.store.Update(r.Context(), req.GameID, func(g *game.Session) error {
		g.Tick(s.now())
		var err error
		sel, err = g.SelectTile(*req.Index)
		return err
	})
	if err != nil {
		s.gameErr(w, err)
		return
	}
	if sel.PairComplete {
		id := req.GameID
		s.pending.Schedule(id, s.cfg.ResolveDelay, func() { s.resolve(id) })
	}
	s.respond(w, r, req.GameID, http.StatusOK)
}

// handlePause toggles pause.
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req gameIDReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	err := s.store.Update(r.Context(), req.GameID, func(g *game.Session) error {
		g.Tick(s.now())
		return g.TogglePause()
	})
	if err != nil {
		s.gameErr(w, err)
		return
	}
	s.respond(w, r, req.GameID, http.StatusOK)
}

// handleRestart abandons the session and starts a new one for the same owner.
// Restarting the board of the day deals the same board again.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	var req gameIDReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	d, meta, err := s.endGame(r.Context(), req.GameID)
	if err != nil {
		s.gameErr(w, err)
		return
	}
	s.startGame(w, r, d, gameMeta{OwnerID: meta.OwnerID, UserID: meta.UserID, Daily: meta.Daily})
}

// handleQuit abandons the session.
func (s *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	var req gameIDReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	if _, _, err := s.endGame(r.Context(), req.GameID); err != nil {
		s.gameErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// endGame quits a session, drops any pending resolution and forgets it.
// Quitting a won session only forgets it.
func (s *Server) endGame(ctx context.Context, id string) (game.Difficulty, gameMeta, error) {
	s.pending.Cancel(id)
	var (
		d         game.Difficulty
		wasActive bool
		sc        game.Score
	)
	err := s.store.Update(ctx, id, func(g *game.Session) error {
		d, wasActive = g.Difficulty, g.Active
		g.Tick(s.now())
		g.Quit()
		sc = g.Score()
		return nil
	})
	if err != nil {
		return "", gameMeta{}, err
	}
	_ = s.store.Delete(ctx, id)
	s.pending.Cancel("gc:" + id)

	s.mu.Lock()
	meta := s.meta[id]
	delete(s.meta, id)
	s.mu.Unlock()
	if meta == nil {
		meta = &gameMeta{}
	}

	if wasActive {
		s.finishGameRow(ctx, id, game.StateQuit, sc, meta.UserID, false)
	}
	return d, *meta, nil
}

// resolve runs after the display delay. It is a no-op when the session has
// been replaced, quit, or no longer has a full pending pair.
func (s *Server) resolve(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		res      game.Resolution
		msg      string
		finished game.Session
		meta     gameMeta
		applied  bool
	)
	err := s.store.Update(ctx, id, func(g *game.Session) error {
		if !g.Active || len(g.Pending()) != 2 {
			return nil
		}
		var err error
		if res, err = g.ResolvePending(); err != nil {
			return err
		}
		applied = true
		msg = res.Message(g.MatchedPairs)
		if res.Won {
			// A quit may forget the session as soon as the store lock is
			// released; the win is finalized with the bookkeeping seen here.
			finished = *g
			s.mu.Lock()
			if m := s.meta[id]; m != nil {
				meta = *m
			}
			s.mu.Unlock()
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("gameId", id).Msg("resolve pending")
		}
		return
	}
	if !applied {
		return
	}

	s.mu.Lock()
	if m := s.meta[id]; m != nil {
		m.Message = msg
	}
	s.mu.Unlock()

	if s.resolved != nil {
		s.resolved(id, res)
	}
	if res.Won {
		s.finishWin(ctx, &finished, meta)
	}
}

// finishWin records the best score, closes the games row, bumps user stats
// and publishes events. Failures are logged; the win stands regardless.
// m is the session's bookkeeping as of the winning resolution.
func (s *Server) finishWin(ctx context.Context, g *game.Session, m gameMeta) {
	rec := false
	if m.OwnerID != "" {
		var err error
		rec, err = g.RecordIfBest(ctx, scores.For(s.scores, m.OwnerID))
		if err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("record best score")
		}
	}
	s.finishGameRow(ctx, g.ID, game.StateWon, g.Score(), m.UserID, true)
	if m.Daily != "" && m.OwnerID != "" {
		if err := s.daily.InsertResult(ctx, daily.Result{
			OwnerID: m.OwnerID, Date: m.Daily, GameID: g.ID,
			Difficulty: string(g.Difficulty), Moves: g.Moves, ElapsedMs: g.ElapsedMs,
		}); err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("insert daily result")
		}
	}

	now := s.now()
	if err := s.events.Publish(ctx, events.FromSession(events.KindGameWon, g, m.OwnerID, now)); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("publish game won")
	}
	if rec {
		if err := s.events.Publish(ctx, events.FromSession(events.KindNewRecord, g, m.OwnerID, now)); err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("publish new record")
		}
	}

	s.mu.Lock()
	if meta := s.meta[g.ID]; meta != nil {
		meta.NewRecord = rec
		meta.Finalized = true
	}
	s.mu.Unlock()

	log.Info().Str("gameId", g.ID).Str("difficulty", string(g.Difficulty)).
		Int("moves", g.Moves).Int64("elapsedMs", g.ElapsedMs).Bool("newRecord", rec).Msg("game won")

	id := g.ID
	s.pending.Schedule("gc:"+id, wonRetention, func() {
		_ = s.store.Delete(context.Background(), id)
		s.mu.Lock()
		delete(s.meta, id)
		s.mu.Unlock()
	})
}

// tick advances the session clock.
func (s *Server) tick(ctx context.Context, id string) error {
	return s.store.Update(ctx, id, func(g *game.Session) error {
		g.Tick(s.now())
		return nil
	})
}

// snapshot assembles the response body for a session.
func (s *Server) snapshot(ctx context.Context, id string) (gameRes, error) {
	v, err := s.store.Get(ctx, id)
	if err != nil {
		return gameRes{}, err
	}
	res := gameRes{View: v}
	s.mu.Lock()
	meta := s.meta[id]
	if meta != nil {
		res.Message = meta.Message
		res.NewRecord = meta.NewRecord
		res.Daily = meta.Daily
	}
	s.mu.Unlock()
	if meta != nil && meta.OwnerID != "" {
		// Read failures degrade to "no best score".
		res.Best, _ = s.scores.Best(ctx, meta.OwnerID, v.Difficulty)
	}
	return res, nil
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, id string, status int) {
	res, err := s.snapshot(r.Context(), id)
	if err != nil {
		s.gameErr(w, err)
		return
	}
	writeJSON(w, status, res)
}

// gameErr maps engine and store errors onto HTTP responses.
func (s *Server) gameErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not_found")
	case errors.Is(err, game.ErrIndexOutOfRange):
		writeErr(w, http.StatusBadRequest, "index_out_of_range")
	case errors.Is(err, game.ErrNoPendingPair), errors.Is(err, game.ErrNoSession):
		writeErr(w, http.StatusConflict, "invalid_state")
	default:
		log.Error().Err(err).Msg("game request")
		writeErr(w, http.StatusInternalServerError, "server_error")
	}
}

// ------------------------------ games rows ---------------------------------

// insertGameRow persists an owner row for history/stats (best effort).
func (s *Server) insertGameRow(ctx context.Context, g *game.Session, ownerID, userID string) {
	now := s.now().UTC().Format(time.RFC3339)
	var err error
	if userID != "" {
		_, err = s.db.ExecContext(ctx, `INSERT INTO games (id, user_id, difficulty, status, started_at)
		                     VALUES (?,?,?,?,?)`, g.ID, userID, string(g.Difficulty), string(game.StatePlaying), now)
	} else {
		_, err = s.db.ExecContext(ctx, `INSERT INTO games (id, anonymous_id, difficulty, status, started_at)
		                     VALUES (?,?,?,?,?)`, g.ID, ownerID, string(g.Difficulty), string(game.StatePlaying), now)
	}
	if err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("insert game row")
	}
}

// finishGameRow closes a games row and, for users, bumps stats in one transaction.
func (s *Server) finishGameRow(ctx context.Context, id string, status game.State, sc game.Score, userID string, won bool) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("begin finish game")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE games SET status=?, moves=?, elapsed_ms=?, finished_at=? WHERE id=?`,
		string(status), sc.Moves, sc.TimeMs, s.now().UTC().Format(time.RFC3339), id); err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("finish game")
		return
	}
	if userID != "" {
		if err := bumpStats(ctx, tx, userID, won); err != nil {
			log.Warn().Err(err).Str("user", userID).Msg("bump stats")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("commit finish game")
	}
}
