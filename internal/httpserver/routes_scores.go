// internal/httpserver/routes_scores.go
//
// HTTP routes for best scores:
//   - GET /scores/best        → the caller's best per difficulty
//   - GET /scores/leaderboard → top records for ?difficulty=

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory-match/internal/game"
	"github.com/robalobadob/memory-match/internal/scores"
)

func (s *Server) mountScores(r chi.Router) {
	r.Get("/scores/best", s.handleBest)
	r.Get("/scores/leaderboard", s.handleLeaderboard)
}

// bestEntry is a best score with its display time.
type bestEntry struct {
	Moves   int    `json:"moves"`
	TimeMs  int64  `json:"timeMs"`
	Elapsed string `json:"elapsed"`
}

// handleBest returns the caller's record per difficulty (null when none).
func (s *Server) handleBest(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := s.owner(w, r)
	out := map[game.Difficulty]*bestEntry{}
	for d, sc := range scores.AllBest(r.Context(), scores.For(s.scores, ownerID)) {
		if sc == nil {
			out[d] = nil
			continue
		}
		out[d] = &bestEntry{Moves: sc.Moves, TimeMs: sc.TimeMs, Elapsed: game.FormatElapsed(sc.TimeMs)}
	}
	_ = json.NewEncoder(w).Encode(out)
}

type lbEntry struct {
	scores.LBRow
	Elapsed string `json:"elapsed"`
}

type lbRes struct {
	Difficulty game.Difficulty `json:"difficulty"`
	Top        []lbEntry       `json:"top"`
}

// handleLeaderboard returns the top records for ?difficulty= (default easy).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d := game.Easy
	if v := q.Get("difficulty"); v != "" {
		var err error
		if d, err = game.ParseDifficulty(v); err != nil {
			writeErr(w, http.StatusBadRequest, "unknown_difficulty")
			return
		}
	}
	limit := 20
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 && n <= 100 {
		limit = n
	}
	rows, err := s.scores.Leaderboard(r.Context(), d, limit)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		writeErr(w, http.StatusInternalServerError, "server_error")
		return
	}
	top := make([]lbEntry, 0, len(rows))
	for _, row := range rows {
		if row.Name == "" {
			// Anonymous owner IDs double as guest credentials.
			row.OwnerID, row.Name = "", "Guest"
		}
		top = append(top, lbEntry{LBRow: row, Elapsed: game.FormatElapsed(row.TimeMs)})
	}
	_ = json.NewEncoder(w).Encode(lbRes{Difficulty: d, Top: top})
}
