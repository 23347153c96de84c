// internal/scores/store.go
//
// Best-score persistence ("Score Store").
// One record per (owner, difficulty): the fewest moves, ties broken by time.
// Implementations:
//   - SQLStore:    SQLite best_scores table, plus a per-difficulty leaderboard.
//   - FileStore:   single-player JSON document (terminal client).
//   - MemoryStore: map-backed, for development and tests.
//
// Reads of absent records return (nil, nil). Callers treat read errors as
// "no record" rather than failing the game. Put never replaces a record with
// a worse one: game.RecordIfBest reads before it writes, and two wins for
// one owner may overlap.

package scores

import (
	"context"
	"sync"

	"github.com/robalobadob/memory-match/internal/game"
)

// Store keeps best scores for many owners.
type Store interface {
	Best(ctx context.Context, owner string, d game.Difficulty) (*game.Score, error)
	Put(ctx context.Context, owner string, d game.Difficulty, sc game.Score) error
}

// ownerStore binds a Store to one owner so it satisfies game.BestStore.
type ownerStore struct {
	st    Store
	owner string
}

// For returns the game.BestStore view of owner's records.
func For(st Store, owner string) game.BestStore {
	return ownerStore{st: st, owner: owner}
}

func (o ownerStore) Get(ctx context.Context, d game.Difficulty) (*game.Score, error) {
	return o.st.Best(ctx, o.owner, d)
}

func (o ownerStore) Put(ctx context.Context, d game.Difficulty, sc game.Score) error {
	return o.st.Put(ctx, o.owner, d, sc)
}

// AllBest collects the owner's record for every difficulty.
// Difficulties without a record, or whose read fails, map to nil.
func AllBest(ctx context.Context, st game.BestStore) map[game.Difficulty]*game.Score {
	out := make(map[game.Difficulty]*game.Score, 3)
	for _, d := range game.Difficulties() {
		sc, err := st.Get(ctx, d)
		if err != nil {
			sc = nil
		}
		out[d] = sc
	}
	return out
}

// MemoryStore is a map-backed Store.
type MemoryStore struct {
	mu   sync.RWMutex
	best map[string]game.Score // key: owner|difficulty
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{best: make(map[string]game.Score)}
}

func (m *MemoryStore) Best(ctx context.Context, owner string, d game.Difficulty) (*game.Score, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc, ok := m.best[owner+"|"+string(d)]
	if !ok {
		return nil, nil
	}
	return &sc, nil
}

// Put stores sc unless the owner already has a better or equal record.
func (m *MemoryStore) Put(ctx context.Context, owner string, d game.Difficulty, sc game.Score) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := owner + "|" + string(d)
	if cur, ok := m.best[k]; ok && !game.Better(sc, cur) {
		return nil
	}
	m.best[k] = sc
	return nil
}
