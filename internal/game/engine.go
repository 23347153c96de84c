// internal/game/engine.go
//
// Core game engine for a single memory-match session.
// Responsibilities:
//   - Build shuffled boards for a difficulty (pairs of distinct symbols).
//   - Apply tile selections and resolve pending pairs (match / mismatch).
//   - Track pause/resume so elapsed time only counts active play.
//   - Track state transitions: playing ⇄ paused → won, playing → quit.
//
// Notes:
//   - The engine never reads the wall clock for ticks; callers drive Tick(now).
//   - The visual delay between completing a pair and resolving it is owned by
//     the caller (see internal/deferred).
package game

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/memory-match/internal/symbols"
)

// Option customises New.
type Option func(*config)

type config struct {
	clock   func() time.Time
	rng     *rand.Rand
	symbols []string
	id      string
}

// WithClock injects the time source used for start, pause and resume.
func WithClock(now func() time.Time) Option { return func(c *config) { c.clock = now } }

// WithRand injects the random source used by the shuffle.
func WithRand(r *rand.Rand) Option { return func(c *config) { c.rng = r } }

// WithSymbols overrides the symbol deck. Only the first Pairs entries are used.
func WithSymbols(deck []string) Option { return func(c *config) { c.symbols = deck } }

// WithID fixes the session identifier.
func WithID(id string) Option { return func(c *config) { c.id = id } }

// New starts a game at the given difficulty.
func New(d Difficulty, opts ...Option) (*Session, error) {
	lvl, ok := levels[d]
	if !ok {
		return nil, ErrUnknownDifficulty
	}
	cfg := config{clock: time.Now}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.symbols == nil {
		cfg.symbols = symbols.Deck()
	}
	if cfg.id == "" {
		cfg.id = uuid.New().String()
	}

	board, err := buildBoard(lvl.Pairs, cfg.symbols, cfg.rng)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:         cfg.id,
		Difficulty: d,
		Board:      board,
		StartTime:  cfg.clock(),
		Active:     true,
		pending:    make([]int, 0, 2),
		clock:      cfg.clock,
	}, nil
}

// buildBoard takes the first `pairs` distinct symbols, duplicates them and
// shuffles the result. Tile IDs are assigned before shuffling.
func buildBoard(pairs int, deck []string, rng *rand.Rand) ([]Tile, error) {
	picked := make([]string, 0, pairs)
	seen := make(map[string]struct{}, pairs)
	for _, s := range deck {
		if len(picked) == pairs {
			break
		}
		if _, dup := seen[s]; dup || s == "" {
			continue
		}
		seen[s] = struct{}{}
		picked = append(picked, s)
	}
	if len(picked) < pairs {
		return nil, ErrDeckTooSmall
	}

	tiles := make([]Tile, 0, 2*pairs)
	for i, s := range append(picked, picked...) {
		tiles = append(tiles, Tile{ID: i, Symbol: s})
	}
	Shuffle(tiles, rng)
	return tiles, nil
}

// Shuffle is an in-place Fisher–Yates shuffle.
// A nil rng uses the package-level source.
func Shuffle[T any](xs []T, rng *rand.Rand) {
	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}
	for i := len(xs) - 1; i > 0; i-- {
		j := intN(i + 1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}

// Selection reports what SelectTile did.
type Selection struct {
	Accepted     bool // false for designed no-ops
	PairComplete bool // two tiles pending; caller must schedule ResolvePending
}

// SelectTile flips the tile at index.
//
// Ignored without error when the game is not active, is paused, the tile is
// already flipped or matched, or two tiles are already pending.
// An out-of-range index is a caller bug and returns ErrIndexOutOfRange.
func (s *Session) SelectTile(index int) (Selection, error) {
	if s == nil {
		return Selection{}, ErrNoSession
	}
	if index < 0 || index >= len(s.Board) {
		return Selection{}, ErrIndexOutOfRange
	}
	if !s.Active || s.Paused || len(s.pending) >= 2 {
		return Selection{}, nil
	}
	t := &s.Board[index]
	if t.Flipped || t.Matched {
		return Selection{}, nil
	}

	t.Flipped = true
	s.pending = append(s.pending, index)
	if len(s.pending) < 2 {
		return Selection{Accepted: true}, nil
	}
	s.Moves++
	return Selection{Accepted: true, PairComplete: true}, nil
}

// Resolution reports the outcome of ResolvePending.
type Resolution struct {
	First, Second int
	Matched       bool
	Won           bool
}

// ResolvePending compares the two pending tiles.
//
// A match marks both tiles matched and may win the game; a mismatch turns
// both face down. Calling it with fewer than two pending tiles returns
// ErrNoPendingPair and leaves the session untouched.
func (s *Session) ResolvePending() (Resolution, error) {
	if s == nil {
		return Resolution{}, ErrNoSession
	}
	if len(s.pending) != 2 {
		return Resolution{}, ErrNoPendingPair
	}
	a, b := s.pending[0], s.pending[1]
	s.pending = s.pending[:0]
	res := Resolution{First: a, Second: b}

	if s.Board[a].Symbol != s.Board[b].Symbol {
		s.Board[a].Flipped = false
		s.Board[b].Flipped = false
		return res, nil
	}

	s.Board[a].Matched = true
	s.Board[b].Matched = true
	s.MatchedPairs++
	res.Matched = true
	if s.MatchedPairs == s.Difficulty.Level().Pairs && s.Active {
		s.win()
		res.Won = true
	}
	return res, nil
}

// win stops the clock with a final reading and deactivates the session.
func (s *Session) win() {
	end := s.now()
	if s.Paused {
		end = s.pausedAt
	}
	s.ElapsedMs = end.Sub(s.StartTime).Milliseconds()
	s.Active, s.Paused, s.Won = false, false, true
}

// TogglePause pauses or resumes play. It is a no-op once the game has ended.
// On resume StartTime is advanced by the paused duration.
func (s *Session) TogglePause() error {
	if s == nil {
		return ErrNoSession
	}
	if !s.Active {
		return nil
	}
	now := s.now()
	if !s.Paused {
		s.ElapsedMs = now.Sub(s.StartTime).Milliseconds()
		s.pausedAt = now
		s.Paused = true
		return nil
	}
	s.StartTime = s.StartTime.Add(now.Sub(s.pausedAt))
	s.Paused = false
	return nil
}

// Tick advances ElapsedMs while the game is active and not paused.
func (s *Session) Tick(now time.Time) {
	if s == nil || !s.Active || s.Paused {
		return
	}
	if ms := now.Sub(s.StartTime).Milliseconds(); ms > 0 {
		s.ElapsedMs = ms
	}
}

// Quit abandons the game. Pending tiles are discarded.
func (s *Session) Quit() {
	if s == nil || !s.Active {
		return
	}
	s.Active, s.Paused = false, false
	s.pending = s.pending[:0]
}

// Pending returns the indices currently flipped and awaiting resolution.
func (s *Session) Pending() []int {
	out := make([]int, len(s.pending))
	copy(out, s.pending)
	return out
}

// State reports the lifecycle state.
func (s *Session) State() State {
	switch {
	case s == nil:
		return StateIdle
	case s.Won:
		return StateWon
	case !s.Active:
		return StateQuit
	case s.Paused:
		return StatePaused
	default:
		return StatePlaying
	}
}

// Score returns the current moves and elapsed time.
func (s *Session) Score() Score { return Score{Moves: s.Moves, TimeMs: s.ElapsedMs} }

func (s *Session) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock()
}
