package store

import (
	"context"
	"errors"
	"testing"

	"github.com/robalobadob/memory-match/internal/game"
)

var deck = []string{"a", "b", "c", "d", "e", "f", "g", "h"}

func TestSaveGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s, err := game.New(game.Easy, game.WithSymbols(deck), game.WithID("g1"))
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Save(ctx, s); err != nil {
		t.Fatal(err)
	}

	if err := st.Update(ctx, "g1", func(s *game.Session) error {
		_, err := s.SelectTile(0)
		return err
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	v, err := st.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !v.Tiles[0].Flipped || v.Pending != 1 {
		t.Fatalf("update not applied: %+v", v.Tiles[0])
	}

	want := errors.New("boom")
	if err := st.Update(ctx, "g1", func(*game.Session) error { return want }); !errors.Is(err, want) {
		t.Fatalf("update error not propagated: %v", err)
	}

	_ = st.Delete(ctx, "g1")
	if _, err := st.Get(ctx, "g1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := st.Update(ctx, "g1", func(*game.Session) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing: %v", err)
	}
}
