// internal/game/score.go
//
// Best-score comparison and the record check run when a game is won.
// Fewer moves wins; equal moves fall back to elapsed time.

package game

import (
	"context"
	"fmt"
)

// BestStore is the persistence boundary for one player's best scores.
// Get returns (nil, nil) when no record exists.
type BestStore interface {
	Get(ctx context.Context, d Difficulty) (*Score, error)
	Put(ctx context.Context, d Difficulty, sc Score) error
}

// Better reports whether a beats b: fewer moves, or equal moves and strictly less time.
func Better(a, b Score) bool {
	if a.Moves != b.Moves {
		return a.Moves < b.Moves
	}
	return a.TimeMs < b.TimeMs
}

// IsRecord reports whether sc would replace best. A nil best is always beaten.
func IsRecord(sc Score, best *Score) bool {
	return best == nil || Better(sc, *best)
}

// RecordIfBest compares the session score against the stored best for its
// difficulty and persists it when it is a new record.
//
// A failed read is treated as "no record". A failed write still reports the
// record; the error is returned so the boundary can log it.
func (s *Session) RecordIfBest(ctx context.Context, store BestStore) (bool, error) {
	if s == nil {
		return false, ErrNoSession
	}
	sc := s.Score()
	best, err := store.Get(ctx, s.Difficulty)
	if err != nil {
		best = nil
	}
	if !IsRecord(sc, best) {
		return false, nil
	}
	if err := store.Put(ctx, s.Difficulty, sc); err != nil {
		return true, fmt.Errorf("save best score: %w", err)
	}
	return true, nil
}

// FormatElapsed renders milliseconds as MM:SS. Minutes are not clamped, so
// 100 minutes and beyond render with three or more digits.
func FormatElapsed(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	secs := ms / 1000
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Message is the player-facing line for a resolution.
func (r Resolution) Message(matchedPairs int) string {
	if r.Matched {
		return fmt.Sprintf("Great! %d pairs found!", matchedPairs)
	}
	return "Try again!"
}
