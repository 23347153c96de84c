package game

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock { return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)} }

var testDeck = []string{
	"a", "b", "c", "d", "e", "f", "g", "h", "i",
	"j", "k", "l", "m", "n", "o", "p", "q", "r",
}

func newTestSession(t *testing.T, d Difficulty, clk *fakeClock) *Session {
	t.Helper()
	s, err := New(d,
		WithClock(clk.Now),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithSymbols(testDeck),
		WithID("test"),
	)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return s
}

// pairIndices finds the board positions of each symbol.
func pairIndices(s *Session) map[string][]int {
	m := map[string][]int{}
	for i, t := range s.Board {
		m[t.Symbol] = append(m[t.Symbol], i)
	}
	return m
}

func mismatchPair(t *testing.T, s *Session) (int, int) {
	t.Helper()
	for i := 1; i < len(s.Board); i++ {
		if s.Board[i].Symbol != s.Board[0].Symbol {
			return 0, i
		}
	}
	t.Fatal("no mismatching tile")
	return 0, 0
}

func TestNewBoardHasEveryPairTwice(t *testing.T) {
	for _, d := range Difficulties() {
		s := newTestSession(t, d, newClock())
		lvl := d.Level()
		if len(s.Board) != 2*lvl.Pairs {
			t.Fatalf("%s: board len %d, want %d", d, len(s.Board), 2*lvl.Pairs)
		}
		if lvl.Rows*lvl.Cols != len(s.Board) {
			t.Fatalf("%s: rows*cols %d != board %d", d, lvl.Rows*lvl.Cols, len(s.Board))
		}
		pairs := pairIndices(s)
		if len(pairs) != lvl.Pairs {
			t.Fatalf("%s: %d distinct symbols, want %d", d, len(pairs), lvl.Pairs)
		}
		for sym, idx := range pairs {
			if len(idx) != 2 {
				t.Fatalf("%s: symbol %q appears %d times", d, sym, len(idx))
			}
		}
		if s.Moves != 0 || s.ElapsedMs != 0 || !s.Active || s.Paused {
			t.Fatalf("%s: fresh session not reset: %+v", d, s)
		}
		if s.State() != StatePlaying {
			t.Fatalf("%s: state %s", d, s.State())
		}
	}
}

func TestNewRejectsUnknownDifficultyAndSmallDeck(t *testing.T) {
	if _, err := New("nightmare", WithSymbols(testDeck)); !errors.Is(err, ErrUnknownDifficulty) {
		t.Fatalf("want ErrUnknownDifficulty, got %v", err)
	}
	if _, err := New(Hard, WithSymbols(testDeck[:10])); !errors.Is(err, ErrDeckTooSmall) {
		t.Fatalf("want ErrDeckTooSmall, got %v", err)
	}
	// Duplicates in the deck do not count as distinct symbols.
	dup := append([]string{"a", "a", "a"}, testDeck[:7]...)
	if _, err := New(Easy, WithSymbols(dup)); !errors.Is(err, ErrDeckTooSmall) {
		t.Fatalf("want ErrDeckTooSmall for duplicate deck, got %v", err)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	for n := 0; n < 40; n++ {
		xs := make([]int, n)
		for i := range xs {
			xs[i] = i % 5
		}
		before := map[int]int{}
		for _, x := range xs {
			before[x]++
		}
		Shuffle(xs, rng)
		after := map[int]int{}
		for _, x := range xs {
			after[x]++
		}
		if len(before) != len(after) {
			t.Fatalf("n=%d: multiset changed", n)
		}
		for k, v := range before {
			if after[k] != v {
				t.Fatalf("n=%d: count of %d changed %d -> %d", n, k, v, after[k])
			}
		}
	}
}

func TestMismatchFlipsBack(t *testing.T) {
	s := newTestSession(t, Easy, newClock())
	a, b := mismatchPair(t, s)

	if sel, err := s.SelectTile(a); err != nil || !sel.Accepted || sel.PairComplete {
		t.Fatalf("first select: %+v %v", sel, err)
	}
	sel, err := s.SelectTile(b)
	if err != nil || !sel.PairComplete {
		t.Fatalf("second select: %+v %v", sel, err)
	}
	if s.Moves != 1 {
		t.Fatalf("moves = %d, want 1", s.Moves)
	}
	res, err := s.ResolvePending()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Matched || res.Won {
		t.Fatalf("unexpected resolution %+v", res)
	}
	if s.Board[a].Flipped || s.Board[b].Flipped {
		t.Fatal("tiles should be face down after mismatch")
	}
	if s.MatchedPairs != 0 {
		t.Fatalf("matchedPairs = %d", s.MatchedPairs)
	}
	if got := res.Message(s.MatchedPairs); got != "Try again!" {
		t.Fatalf("message %q", got)
	}
}

func TestMatchMarksBothTiles(t *testing.T) {
	s := newTestSession(t, Easy, newClock())
	idx := pairIndices(s)[s.Board[0].Symbol]

	_, _ = s.SelectTile(idx[0])
	_, _ = s.SelectTile(idx[1])
	res, err := s.ResolvePending()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Matched || res.Won {
		t.Fatalf("unexpected resolution %+v", res)
	}
	if !s.Board[idx[0]].Matched || !s.Board[idx[1]].Matched {
		t.Fatal("both tiles should be matched")
	}
	if s.Moves != 1 || s.MatchedPairs != 1 {
		t.Fatalf("moves=%d matchedPairs=%d", s.Moves, s.MatchedPairs)
	}
	if got := res.Message(s.MatchedPairs); got != "Great! 1 pairs found!" {
		t.Fatalf("message %q", got)
	}
}

func TestDesignedNoOps(t *testing.T) {
	s := newTestSession(t, Easy, newClock())
	a, b := mismatchPair(t, s)

	_, _ = s.SelectTile(a)
	if sel, err := s.SelectTile(a); err != nil || sel.Accepted {
		t.Fatalf("reselecting flipped tile: %+v %v", sel, err)
	}
	_, _ = s.SelectTile(b)

	// A third tile while two are pending is ignored.
	third := -1
	for i := range s.Board {
		if i != a && i != b {
			third = i
			break
		}
	}
	if sel, err := s.SelectTile(third); err != nil || sel.Accepted {
		t.Fatalf("third select: %+v %v", sel, err)
	}
	if s.Board[third].Flipped || s.Moves != 1 {
		t.Fatal("third select mutated state")
	}
	_, _ = s.ResolvePending()

	// Paused sessions ignore clicks.
	_ = s.TogglePause()
	if sel, _ := s.SelectTile(third); sel.Accepted {
		t.Fatal("select while paused should be ignored")
	}
	_ = s.TogglePause()

	// Matched tiles are ignored.
	idx := pairIndices(s)[s.Board[third].Symbol]
	_, _ = s.SelectTile(idx[0])
	_, _ = s.SelectTile(idx[1])
	_, _ = s.ResolvePending()
	if sel, _ := s.SelectTile(idx[0]); sel.Accepted {
		t.Fatal("select on matched tile should be ignored")
	}

	// Quit sessions ignore clicks.
	s.Quit()
	if sel, _ := s.SelectTile(a); sel.Accepted {
		t.Fatal("select after quit should be ignored")
	}
	if s.State() != StateQuit {
		t.Fatalf("state %s, want quit", s.State())
	}
}

func TestContractViolations(t *testing.T) {
	s := newTestSession(t, Easy, newClock())
	for _, i := range []int{-1, len(s.Board)} {
		if _, err := s.SelectTile(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("index %d: want ErrIndexOutOfRange, got %v", i, err)
		}
	}
	if _, err := s.ResolvePending(); !errors.Is(err, ErrNoPendingPair) {
		t.Fatalf("empty resolve: got %v", err)
	}
	_, _ = s.SelectTile(0)
	if _, err := s.ResolvePending(); !errors.Is(err, ErrNoPendingPair) {
		t.Fatalf("single pending resolve: got %v", err)
	}
	if !s.Board[0].Flipped || len(s.Pending()) != 1 {
		t.Fatal("failed resolve must not change state")
	}

	var none *Session
	if err := none.TogglePause(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("pause without game: got %v", err)
	}
	if none.State() != StateIdle {
		t.Fatalf("nil session state %s", none.State())
	}
}

func TestWinExactlyOnce(t *testing.T) {
	clk := newClock()
	s := newTestSession(t, Easy, clk)
	wins := 0
	matched := 0
	for _, idx := range pairIndices(s) {
		clk.Advance(2 * time.Second)
		_, _ = s.SelectTile(idx[0])
		_, _ = s.SelectTile(idx[1])
		res, err := s.ResolvePending()
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if res.Won {
			wins++
		}
		// matched tiles never un-set
		n := 0
		for _, tile := range s.Board {
			if tile.Matched {
				n++
			}
		}
		if n < matched {
			t.Fatalf("matched count decreased %d -> %d", matched, n)
		}
		matched = n
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want 1", wins)
	}
	if s.Active || !s.Won || s.State() != StateWon {
		t.Fatalf("session should be won: %+v", s.State())
	}
	if s.Moves != 8 {
		t.Fatalf("moves = %d, want 8", s.Moves)
	}
	if s.ElapsedMs != 16000 {
		t.Fatalf("elapsed = %d, want 16000", s.ElapsedMs)
	}

	// Clock stopped.
	clk.Advance(time.Minute)
	s.Tick(clk.Now())
	if s.ElapsedMs != 16000 {
		t.Fatalf("tick after win moved clock to %d", s.ElapsedMs)
	}
	if err := s.TogglePause(); err != nil || s.Paused {
		t.Fatal("pause after win should be a no-op")
	}
}

func TestMismatchesNeverUnsetMatches(t *testing.T) {
	s := newTestSession(t, Medium, newClock())
	rng := rand.New(rand.NewPCG(3, 4))
	for step := 0; step < 500 && s.Active; step++ {
		before := make([]bool, len(s.Board))
		for i, tile := range s.Board {
			before[i] = tile.Matched
		}
		sel, err := s.SelectTile(rng.IntN(len(s.Board)))
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if sel.PairComplete {
			if _, err := s.ResolvePending(); err != nil {
				t.Fatalf("resolve: %v", err)
			}
		}
		flippedPending := 0
		for i, tile := range s.Board {
			if before[i] && !tile.Matched {
				t.Fatalf("tile %d lost matched flag", i)
			}
			if tile.Flipped && !tile.Matched {
				flippedPending++
			}
		}
		if flippedPending > 2 {
			t.Fatalf("%d tiles flipped-and-unmatched", flippedPending)
		}
	}
}

func TestPauseExcludesPausedTime(t *testing.T) {
	clk := newClock()
	s := newTestSession(t, Easy, clk)

	clk.Advance(5 * time.Second)
	s.Tick(clk.Now())
	if s.ElapsedMs != 5000 {
		t.Fatalf("elapsed = %d", s.ElapsedMs)
	}

	_ = s.TogglePause()
	if s.State() != StatePaused {
		t.Fatalf("state %s", s.State())
	}
	clk.Advance(30 * time.Second)
	s.Tick(clk.Now())
	if s.ElapsedMs != 5000 {
		t.Fatalf("tick while paused moved clock to %d", s.ElapsedMs)
	}
	_ = s.TogglePause()
	s.Tick(clk.Now())
	if s.ElapsedMs != 5000 {
		t.Fatalf("elapsed after resume = %d, want 5000", s.ElapsedMs)
	}

	clk.Advance(2 * time.Second)
	s.Tick(clk.Now())
	if s.ElapsedMs != 7000 {
		t.Fatalf("elapsed = %d, want 7000", s.ElapsedMs)
	}
}

func TestWinWhilePausedUsesPauseInstant(t *testing.T) {
	clk := newClock()
	s := newTestSession(t, Easy, clk)
	pairs := pairIndices(s)
	var last []int
	for _, idx := range pairs {
		if last == nil {
			last = idx
			continue
		}
		_, _ = s.SelectTile(idx[0])
		_, _ = s.SelectTile(idx[1])
		_, _ = s.ResolvePending()
	}
	clk.Advance(3 * time.Second)
	_, _ = s.SelectTile(last[0])
	_, _ = s.SelectTile(last[1])
	_ = s.TogglePause()
	clk.Advance(time.Minute)
	res, err := s.ResolvePending()
	if err != nil || !res.Won {
		t.Fatalf("expected win, got %+v %v", res, err)
	}
	if s.Paused {
		t.Fatal("won session should not stay paused")
	}
	if s.ElapsedMs != 3000 {
		t.Fatalf("elapsed = %d, want 3000", s.ElapsedMs)
	}
}

func TestQuitDiscardsPending(t *testing.T) {
	s := newTestSession(t, Easy, newClock())
	_, _ = s.SelectTile(0)
	_, _ = s.SelectTile(1)
	s.Quit()
	if _, err := s.ResolvePending(); !errors.Is(err, ErrNoPendingPair) {
		t.Fatalf("resolve after quit: %v", err)
	}
}

func TestParseDifficulty(t *testing.T) {
	for in, want := range map[string]Difficulty{"easy": Easy, " Medium ": Medium, "HARD": Hard} {
		got, err := ParseDifficulty(in)
		if err != nil || got != want {
			t.Fatalf("ParseDifficulty(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDifficulty("insane"); !errors.Is(err, ErrUnknownDifficulty) {
		t.Fatalf("want ErrUnknownDifficulty, got %v", err)
	}
}

func TestViewHidesFaceDownSymbols(t *testing.T) {
	s := newTestSession(t, Easy, newClock())
	_, _ = s.SelectTile(3)
	v := s.View()
	for _, tv := range v.Tiles {
		if tv.Index == 3 {
			if tv.Symbol != s.Board[3].Symbol || !tv.Flipped {
				t.Fatalf("flipped tile view %+v", tv)
			}
			continue
		}
		if tv.Symbol != "" {
			t.Fatalf("face-down tile %d leaks symbol", tv.Index)
		}
	}
	if v.Pending != 1 || v.Elapsed != "00:00" || v.State != StatePlaying {
		t.Fatalf("view %+v", v)
	}
}
