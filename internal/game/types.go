// internal/game/types.go
//
// Core type definitions for the memory-match game engine.
// Defines:
//   - Difficulty / Level: fixed board configurations.
//   - Tile: a single card on the board.
//   - Score: moves + elapsed time, the unit of best-score comparison.
//   - State: coarse lifecycle of a session.
//   - Session: state for a single in-progress or finished game.

package game

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Difficulty names a fixed board configuration.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Level is the immutable configuration behind a Difficulty.
type Level struct {
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	Pairs int    `json:"pairs"`
}

var levels = map[Difficulty]Level{
	Easy:   {Name: "Easy", Rows: 4, Cols: 4, Pairs: 8},
	Medium: {Name: "Medium", Rows: 4, Cols: 6, Pairs: 12},
	Hard:   {Name: "Hard", Rows: 6, Cols: 6, Pairs: 18},
}

// Difficulties lists every difficulty in ascending order.
func Difficulties() []Difficulty { return []Difficulty{Easy, Medium, Hard} }

// Level returns the board configuration. Unknown difficulties yield a zero Level.
func (d Difficulty) Level() Level { return levels[d] }

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	_, ok := levels[d]
	return ok
}

// ParseDifficulty maps a case-insensitive name onto a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
	}
	return d, nil
}

// Tile is one card on the board.
type Tile struct {
	ID      int    `json:"id"`
	Symbol  string `json:"symbol"`
	Flipped bool   `json:"flipped"`
	Matched bool   `json:"matched"`
}

// Score is a finished game's result. Fewer moves wins; time breaks ties.
type Score struct {
	Moves  int   `json:"moves"`
	TimeMs int64 `json:"time"`
}

// State is a coarse representation of the session lifecycle.
type State string

const (
	StateIdle    State = "idle"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateWon     State = "won"
	StateQuit    State = "quit"
)

// Contract violations. These indicate a caller bug, not player input.
var (
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrIndexOutOfRange   = errors.New("tile index out of range")
	ErrNoPendingPair     = errors.New("resolve requires two pending tiles")
	ErrNoSession         = errors.New("no game in progress")
	ErrDeckTooSmall      = errors.New("symbol deck too small for difficulty")
)

// Session holds the state of a single game.
type Session struct {
	ID           string     // Unique session identifier (uuid).
	Difficulty   Difficulty // Board configuration.
	Board        []Tile     // 2×Pairs tiles, shuffled.
	Moves        int        // Completed pair attempts.
	MatchedPairs int        // Pairs found so far.
	StartTime    time.Time  // Shifted forward on resume so now-StartTime excludes pauses.
	ElapsedMs    int64      // Active play time as of the last tick.
	Paused       bool
	Active       bool // False once won or quit.
	Won          bool

	pending  []int
	pausedAt time.Time
	clock    func() time.Time
}
