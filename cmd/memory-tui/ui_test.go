package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/robalobadob/memory-match/internal/game"
	"github.com/robalobadob/memory-match/internal/scores"
)

func newTestApp(t *testing.T) (*app, tcell.SimulationScreen, *scores.FileStore) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	if err := sim.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	sim.SetSize(80, 30)
	t.Cleanup(sim.Fini)

	fs := scores.NewFileStore(filepath.Join(t.TempDir(), "scores.json"))
	a := newApp(sim, fs, time.Hour) // resolution is driven by hand
	t.Cleanup(a.pending.Stop)
	return a, sim, fs
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func char(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func screenText(sim tcell.SimulationScreen) string {
	cells, w, h := sim.GetContents()
	var b strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := cells[y*w+x]
			if len(c.Runes) > 0 {
				b.WriteString(string(c.Runes))
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (a *app) selectAt(i int) {
	a.cursor = i
	a.handle(char(' '))
}

func TestMoveCursorClamps(t *testing.T) {
	lvl := game.Medium.Level() // 4x6
	cases := []struct {
		cur, dr, dc, want int
	}{
		{0, 0, -1, 0},
		{0, -1, 0, 0},
		{0, 0, 1, 1},
		{5, 0, 1, 5},
		{5, 1, 0, 11},
		{23, 1, 0, 23},
		{18, -1, 0, 12},
	}
	for _, c := range cases {
		if got := moveCursor(c.cur, c.dr, c.dc, lvl); got != c.want {
			t.Errorf("moveCursor(%d,%d,%d) = %d, want %d", c.cur, c.dr, c.dc, got, c.want)
		}
	}
}

func TestMenuStartsSelectedDifficulty(t *testing.T) {
	a, sim, _ := newTestApp(t)
	a.draw()
	if !strings.Contains(screenText(sim), "Choose a difficulty") {
		t.Fatal("menu not drawn")
	}
	a.handle(key(tcell.KeyDown))
	a.handle(key(tcell.KeyEnter))
	if a.mode != modeGame || a.g.Difficulty != game.Medium || len(a.g.Board) != 24 {
		t.Fatalf("mode=%v game=%+v", a.mode, a.g)
	}
	a.draw()
	if !strings.Contains(screenText(sim), "Pairs: 0/12") {
		t.Fatalf("status line missing:\n%s", screenText(sim))
	}
}

func TestStartFailureShownOnMenu(t *testing.T) {
	a, sim, _ := newTestApp(t)
	a.deck = []string{"a", "b"} // too few symbols for any board
	a.handle(char('1'))
	if a.mode != modeMenu || a.g != nil {
		t.Fatalf("mode=%v game=%+v", a.mode, a.g)
	}
	a.draw()
	if !strings.Contains(screenText(sim), "Could not start a game") {
		t.Fatalf("start error not shown:\n%s", screenText(sim))
	}

	a.deck = nil
	a.handle(char('1'))
	if a.mode != modeGame || a.message != "" {
		t.Fatalf("mode=%v message=%q", a.mode, a.message)
	}
}

func TestStaleResolveIsIgnored(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.handle(char('1'))
	old := a.g.ID
	a.selectAt(0)
	a.selectAt(1)
	if len(a.g.Pending()) != 2 || !a.pending.Pending(resolveKey) {
		t.Fatal("pair not pending")
	}

	a.handle(char('r'))
	if a.g.ID == old || a.pending.Pending(resolveKey) {
		t.Fatal("restart kept the old resolution")
	}
	a.selectAt(0)
	a.selectAt(1)
	a.handle(&resolveEvent{gameID: old})
	if len(a.g.Pending()) != 2 {
		t.Fatal("stale resolution applied to the new session")
	}
	a.handle(&resolveEvent{gameID: a.g.ID})
	if len(a.g.Pending()) != 0 || a.message == "" {
		t.Fatalf("pending=%v message=%q", a.g.Pending(), a.message)
	}
}

func TestWinSavesBestScore(t *testing.T) {
	a, sim, fs := newTestApp(t)
	a.handle(char('1'))

	pos := map[string][]int{}
	for i, tile := range a.g.Board {
		pos[tile.Symbol] = append(pos[tile.Symbol], i)
	}
	for _, p := range pos {
		a.selectAt(p[0])
		a.selectAt(p[1])
		a.handle(&resolveEvent{gameID: a.g.ID})
	}
	if a.g.State() != game.StateWon || !a.newRecord {
		t.Fatalf("state=%s newRecord=%v", a.g.State(), a.newRecord)
	}
	best, err := fs.Get(context.Background(), game.Easy)
	if err != nil || best == nil || best.Moves != 8 {
		t.Fatalf("stored best %+v err=%v", best, err)
	}
	a.draw()
	if !strings.Contains(screenText(sim), "New record!") {
		t.Fatalf("win banner missing:\n%s", screenText(sim))
	}

	a.handle(char('q'))
	if a.mode != modeMenu || a.g != nil {
		t.Fatal("q did not return to the menu")
	}
	a.draw()
	if !strings.Contains(screenText(sim), "8 moves") {
		t.Fatalf("menu best missing:\n%s", screenText(sim))
	}
}

func TestPauseAndExit(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.handle(char('1'))
	a.handle(char('p'))
	if a.g.State() != game.StatePaused {
		t.Fatalf("state %s", a.g.State())
	}
	a.selectAt(0)
	if a.g.Board[0].Flipped {
		t.Fatal("flip applied while paused")
	}
	a.handle(char('p'))
	a.selectAt(0)
	if !a.g.Board[0].Flipped {
		t.Fatal("flip ignored after resume")
	}
	if a.handle(key(tcell.KeyEscape)) {
		t.Fatal("escape did not exit")
	}
}
