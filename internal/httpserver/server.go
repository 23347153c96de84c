// internal/httpserver/server.go
//
// HTTP server wiring for the memory-match backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/difficulties".
//   - Game endpoints (optional auth): /game/new, /game/select, /game/pause,
//     /game/restart, /game/quit, GET /game/{id}, WS /game/{id}/live.
//   - Score endpoints (optional auth): /scores/best, /scores/leaderboard.
//   - Board of the day (optional auth): /daily/new, /daily/leaderboard.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - Live sessions are held in store.Store; every mutation goes through
//     Update so the deferred pair resolution never races a request.
//   - Pair resolution runs RESOLVE_DELAY after the second tile is flipped and
//     is cancelled when the session is restarted or quit.
//   - CORS is origin-aware and credentials-enabled (so cookies work).

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory-match/internal/config"
	"github.com/robalobadob/memory-match/internal/daily"
	"github.com/robalobadob/memory-match/internal/deferred"
	"github.com/robalobadob/memory-match/internal/events"
	"github.com/robalobadob/memory-match/internal/game"
	"github.com/robalobadob/memory-match/internal/scores"
	"github.com/robalobadob/memory-match/internal/store"
	"github.com/robalobadob/memory-match/internal/symbols"
)

// Deps are the collaborators a Server needs.
type Deps struct {
	Config   config.Config
	Sessions store.Store
	DB       *sql.DB
	Scores   *scores.SQLStore // defaults to scores.NewSQLStore(DB)
	Events   events.Publisher // defaults to events.Nop
}

// Server bundles router, live session store, score store and DB handle.
type Server struct {
	r       *chi.Mux
	cfg     config.Config
	store   store.Store
	db      *sql.DB
	scores  *scores.SQLStore
	daily   *daily.Store
	events  events.Publisher
	pending *deferred.Scheduler
	now     func() time.Time

	// resolved, when set, runs after a pair resolves and before a win is
	// finalized. Tests use it to land requests in that window.
	resolved func(id string, res game.Resolution)

	dailyLevel game.Difficulty

	mu   sync.Mutex
	meta map[string]*gameMeta // keyed by session ID

	httpSrv *http.Server
}

// gameMeta is per-session bookkeeping the engine does not own.
type gameMeta struct {
	OwnerID   string // user ID or anonymous ID; best scores are keyed by it
	UserID    string // empty for guests
	Message   string // last resolution message
	NewRecord bool
	Finalized bool   // win bookkeeping done
	Daily     string // date key when this is the board of the day
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     d.Config,
		store:   d.Sessions,
		db:      d.DB,
		scores:  d.Scores,
		daily:   daily.NewStore(d.DB),
		events:  d.Events,
		pending: deferred.New(),
		now:     time.Now,
		meta:    make(map[string]*gameMeta),
	}
	if s.scores == nil {
		s.scores = scores.NewSQLStore(d.DB)
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.cfg.ResolveDelay <= 0 {
		s.cfg.ResolveDelay = time.Second
	}
	if s.cfg.TickInterval <= 0 {
		s.cfg.TickInterval = time.Second
	}
	s.dailyLevel = game.Medium
	if s.cfg.DailyLevel != "" {
		if lvl, err := game.ParseDifficulty(s.cfg.DailyLevel); err == nil {
			s.dailyLevel = lvl
		} else {
			log.Warn().Str("difficulty", s.cfg.DailyLevel).Msg("unknown DAILY_DIFFICULTY, using medium")
		}
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(jsonContentType) // default JSON responses
	s.r.Use(s.cors)          // credentials-friendly CORS

	// Live feed stays outside the handler timeout.
	s.r.With(s.withOptionalAuth()).Get("/game/{id}/live", s.handleLive)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"memory-match","endpoints":["/health","/difficulties","POST /game/new","POST /game/select","POST /game/pause","/scores/*","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/difficulties", handleDifficulties)

		// Game, scores, daily: optional auth (guests play under the anon cookie)
		r.Group(func(r chi.Router) {
			r.Use(s.withOptionalAuth())
			s.mountGame(r)
			s.mountScores(r)
			s.mountDaily(r)
		})

		// Auth + profile/stats
		s.mountAuthRoutes(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Start begins serving HTTP on addr. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start(addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpSrv = hs
	s.mu.Unlock()
	return hs.ListenAndServe()
}

// Shutdown stops accepting requests, drops pending resolutions and waits for
// in-flight handlers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.pending.Stop()
	s.mu.Lock()
	hs := s.httpSrv
	s.mu.Unlock()
	if hs == nil {
		return nil
	}
	return hs.Shutdown(ctx)
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- helpers -----------------------------------

// writeErr writes {"error": code} with the given status.
func writeErr(w http.ResponseWriter, status int, code string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type difficultyRes struct {
	ID    game.Difficulty `json:"id"`
	Level game.Level      `json:"level"`
}

// handleDifficulties lists the board configurations.
func handleDifficulties(w http.ResponseWriter, r *http.Request) {
	out := make([]difficultyRes, 0, 3)
	for _, d := range game.Difficulties() {
		out = append(out, difficultyRes{ID: d, Level: d.Level()})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"difficulties": out, "symbols": symbols.Count()})
}
