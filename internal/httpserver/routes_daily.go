// internal/httpserver/routes_daily.go
//
// HTTP routes for the "board of the day".
// Exposes two endpoints under /daily:
//   - POST /daily/new         → start (or resume) today's board
//   - GET  /daily/leaderboard → top results for today (or ?date=YYYY-MM-DD)
//
// Everyone gets the same shuffle for a date (HMAC of DAILY_SALT and the date).
// A win is recorded once per owner and date; after that /daily/new reports
// played=true instead of dealing again.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory-match/internal/daily"
	"github.com/robalobadob/memory-match/internal/game"
)

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", s.handleDailyNew)
		r.Get("/leaderboard", s.handleDailyLeaderboard)
	})
}

// playedRes is returned by /daily/new once today's board is done.
type playedRes struct {
	Date   string `json:"date"`
	Played bool   `json:"played"`
}

// handleDailyNew deals today's board, resumes an open one, or reports
// that the caller already won it.
func (s *Server) handleDailyNew(w http.ResponseWriter, r *http.Request) {
	ownerID, userID := s.owner(w, r)
	date := daily.DateKey(s.now())

	if played, err := s.daily.AlreadyPlayed(r.Context(), ownerID, date); err != nil {
		log.Warn().Err(err).Msg("daily already played")
	} else if played {
		_ = json.NewEncoder(w).Encode(playedRes{Date: date, Played: true})
		return
	}

	if id := s.openDaily(ownerID, date); id != "" {
		if _, err := s.store.Get(r.Context(), id); err == nil {
			s.respond(w, r, id, http.StatusOK)
			return
		}
	}
	s.startGame(w, r, s.dailyLevel, gameMeta{OwnerID: ownerID, UserID: userID, Daily: date})
}

// openDaily returns the owner's unfinished session for date, if any.
func (s *Server) openDaily(ownerID, date string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.meta {
		if m.Daily == date && m.OwnerID == ownerID && !m.Finalized {
			return id
		}
	}
	return ""
}

type dailyLBEntry struct {
	daily.LBRow
	Elapsed string `json:"elapsed"`
}

type dailyLBRes struct {
	Date       string          `json:"date"`
	Difficulty game.Difficulty `json:"difficulty"`
	Top        []dailyLBEntry  `json:"top"`
}

// handleDailyLeaderboard returns the leaderboard for ?date= (default today).
func (s *Server) handleDailyLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := daily.DateKey(s.now())
	if v := q.Get("date"); v != "" {
		var err error
		if date, err = daily.ParseDateKey(v); err != nil {
			writeErr(w, http.StatusBadRequest, "bad_date")
			return
		}
	}
	limit := 20
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 && n <= 100 {
		limit = n
	}
	rows, err := s.daily.Leaderboard(r.Context(), date, limit)
	if err != nil {
		log.Error().Err(err).Msg("daily leaderboard")
		writeErr(w, http.StatusInternalServerError, "server_error")
		return
	}
	top := make([]dailyLBEntry, 0, len(rows))
	for _, row := range rows {
		if row.Name == "" {
			row.OwnerID, row.Name = "", "Guest"
		}
		top = append(top, dailyLBEntry{LBRow: row, Elapsed: game.FormatElapsed(row.ElapsedMs)})
	}
	_ = json.NewEncoder(w).Encode(dailyLBRes{Date: date, Difficulty: s.dailyLevel, Top: top})
}
