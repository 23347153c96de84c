// internal/store/memory.go
//
// In-memory implementation of the live session Store.
// Sessions are only kept while they are being played; finished results
// live in the scores package and the games table.
//
// Characteristics:
//   - Stores *game.Session objects keyed by ID in a map.
//   - All mutation goes through Update, which holds the store lock, so HTTP
//     handlers, deferred resolutions and live tickers never interleave on a
//     session.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/memory-match/internal/game"
)

// ErrNotFound is returned when no session has the requested ID.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for live sessions.
type Store interface {
	// Save persists or replaces a session.
	Save(ctx context.Context, s *game.Session) error

	// Get returns a snapshot view of the session.
	Get(ctx context.Context, id string) (game.View, error)

	// Update runs fn against the session while holding the store lock.
	// The error from fn is returned as-is.
	Update(ctx context.Context, id string, fn func(*game.Session) error) error

	// Delete forgets a session. Missing IDs are not an error.
	Delete(ctx context.Context, id string) error
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.Mutex               // guards sessions and their contents
	sessions map[string]*game.Session // keyed by Session.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*game.Session)}
}

func (m *memory) Save(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (game.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return game.View{}, ErrNotFound
	}
	return s.View(), nil
}

func (m *memory) Update(ctx context.Context, id string, fn func(*game.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	return fn(s)
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
