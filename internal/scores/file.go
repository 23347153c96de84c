// internal/scores/file.go
//
// FileStore: the terminal client's best scores in one JSON document.
// A missing or corrupt file reads as "no records".

package scores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/robalobadob/memory-match/internal/game"
)

// Namespace is the key the single-player record document is stored under.
const Namespace = "memoryGameBestScores"

// FileStore keeps one player's best scores in a JSON file:
//
//	{"memoryGameBestScores": {"easy": {"moves": 9, "time": 41000}, "medium": null, "hard": null}}
//
// A missing or unreadable file means "no records"; it never fails the game.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on first Put.
func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

// DefaultPath is $XDG_CONFIG_HOME/memory-match/scores.json (or the OS equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "memory-match", "scores.json"), nil
}

type document map[string]map[game.Difficulty]*game.Score

// load returns the record map. Missing and corrupt files yield an empty map;
// only the corrupt case reports an error.
func (f *FileStore) load() (map[game.Difficulty]*game.Score, error) {
	empty := map[game.Difficulty]*game.Score{}
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return empty, nil
	}
	if err != nil {
		return empty, err
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return empty, fmt.Errorf("decode %s: %w", f.path, err)
	}
	rec := doc[Namespace]
	if rec == nil {
		return empty, nil
	}
	return rec, nil
}

func (f *FileStore) Get(ctx context.Context, d game.Difficulty) (*game.Score, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, err := f.load()
	if err != nil {
		return nil, err
	}
	return rec[d], nil
}

// Put writes the record for d, replacing a corrupt file if necessary.
// A stored record that is better or equal is kept.
func (f *FileStore) Put(ctx context.Context, d game.Difficulty, sc game.Score) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, _ := f.load()
	if cur := rec[d]; cur != nil && !game.Better(sc, *cur) {
		return nil
	}
	for _, k := range game.Difficulties() {
		if _, ok := rec[k]; !ok {
			rec[k] = nil
		}
	}
	rec[d] = &sc

	b, err := json.MarshalIndent(document{Namespace: rec}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(f.path), err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
