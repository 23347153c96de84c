package daily

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/robalobadob/memory-match/assets"
	"github.com/robalobadob/memory-match/internal/db"
	"github.com/robalobadob/memory-match/internal/game"
)

var deck = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}

func board(t *testing.T, date, salt string) []string {
	t.Helper()
	g, err := game.New(game.Medium, game.WithSymbols(deck), game.WithRand(Rand(date, salt)))
	if err != nil {
		t.Fatal(err)
	}
	out := make([]string, len(g.Board))
	for i, tile := range g.Board {
		out[i] = tile.Symbol
	}
	return out
}

func TestSameDateSameBoard(t *testing.T) {
	a := board(t, "2026-10-19", "salt")
	if b := board(t, "2026-10-19", "salt"); !slices.Equal(a, b) {
		t.Fatalf("same date dealt different boards:\n%v\n%v", a, b)
	}
	if b := board(t, "2026-10-20", "salt"); slices.Equal(a, b) {
		t.Fatal("next day dealt the same board")
	}
	if b := board(t, "2026-10-19", "other"); slices.Equal(a, b) {
		t.Fatal("different salt dealt the same board")
	}
}

func TestDateKeys(t *testing.T) {
	late := time.Date(2026, 10, 19, 23, 30, 0, 0, time.FixedZone("x", -5*3600))
	if got := DateKey(late); got != "2026-10-20" {
		t.Fatalf("DateKey = %s", got)
	}
	if _, err := ParseDateKey("2026-13-01"); err == nil {
		t.Fatal("bad month accepted")
	}
	if got, err := ParseDateKey("2026-02-03"); err != nil || got != "2026-02-03" {
		t.Fatalf("ParseDateKey = %q, %v", got, err)
	}
}

func TestStore(t *testing.T) {
	conn, err := db.Open(filepath.Join(t.TempDir(), "daily.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if err := db.Migrate(conn, assets.Migrations()); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	st := NewStore(conn)
	const date = "2026-10-19"

	if played, err := st.AlreadyPlayed(ctx, "anon-1", date); err != nil || played {
		t.Fatalf("played=%v err=%v", played, err)
	}
	for _, r := range []Result{
		{OwnerID: "anon-1", Date: date, GameID: "g1", Difficulty: "medium", Moves: 15, ElapsedMs: 50_000},
		{OwnerID: "anon-2", Date: date, GameID: "g2", Difficulty: "medium", Moves: 14, ElapsedMs: 90_000},
		{OwnerID: "anon-3", Date: date, GameID: "g3", Difficulty: "medium", Moves: 15, ElapsedMs: 40_000},
		{OwnerID: "anon-1", Date: date, GameID: "g4", Difficulty: "medium", Moves: 12, ElapsedMs: 10_000}, // ignored
	} {
		if err := st.InsertResult(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	if played, _ := st.AlreadyPlayed(ctx, "anon-1", date); !played {
		t.Fatal("result not recorded")
	}

	rows, err := st.Leaderboard(ctx, date, 0)
	if err != nil {
		t.Fatal(err)
	}
	var order []string
	for _, r := range rows {
		order = append(order, r.OwnerID)
	}
	if !slices.Equal(order, []string{"anon-2", "anon-3", "anon-1"}) || rows[2].Moves != 15 {
		t.Fatalf("leaderboard %+v", rows)
	}

	if err := st.Reassign(ctx, "anon-3", "anon-2"); err != nil {
		t.Fatal(err)
	}
	if err := st.Reassign(ctx, "anon-1", "user-1"); err != nil {
		t.Fatal(err)
	}
	rows, _ = st.Leaderboard(ctx, date, 10)
	if len(rows) != 2 || rows[0].OwnerID != "anon-2" || rows[0].Moves != 14 || rows[1].OwnerID != "user-1" {
		t.Fatalf("after reassign %+v", rows)
	}
}
