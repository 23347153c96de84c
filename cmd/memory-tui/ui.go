package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory-match/internal/deferred"
	"github.com/robalobadob/memory-match/internal/game"
	"github.com/robalobadob/memory-match/internal/scores"
)

type mode int

const (
	modeMenu mode = iota
	modeGame
)

const (
	cellWidth   = 5
	boardTop    = 3
	boardLeft   = 2
	resolveKey  = "resolve"
	faceDown    = "▒▒"
	titleString = "Memory Match"
)

// tickEvent advances the session clock.
type tickEvent struct{ tcell.EventTime }

// resolveEvent asks the loop to resolve the pending pair of gameID.
type resolveEvent struct {
	tcell.EventTime
	gameID string
}

var (
	styleDefault = tcell.StyleDefault
	styleTitle   = tcell.StyleDefault.Bold(true)
	styleDim     = tcell.StyleDefault.Dim(true)
	styleCursor  = tcell.StyleDefault.Reverse(true)
	styleMatched = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleMessage = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// app is the terminal client state. Only the event loop touches it.
type app struct {
	screen  tcell.Screen
	store   game.BestStore
	pending *deferred.Scheduler
	delay   time.Duration
	now     func() time.Time
	deck    []string // overrides the symbol deck when set

	mode      mode
	menuIdx   int
	g         *game.Session
	cursor    int
	message   string
	newRecord bool
	best      map[game.Difficulty]*game.Score
	exit      bool
}

func newApp(screen tcell.Screen, store game.BestStore, delay time.Duration) *app {
	a := &app{
		screen:  screen,
		store:   store,
		pending: deferred.New(),
		delay:   delay,
		now:     time.Now,
	}
	a.loadBest()
	return a
}

func (a *app) loadBest() {
	a.best = scores.AllBest(context.Background(), a.store)
}

// handle applies one event. It reports false once the user asked to exit.
func (a *app) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		a.handleKey(ev)
	case *tcell.EventResize:
		a.screen.Sync()
	case *tickEvent:
		if a.g != nil {
			a.g.Tick(a.now())
		}
	case *resolveEvent:
		a.resolve(ev.gameID)
	}
	return !a.exit
}

func (a *app) handleKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		a.exit = true
		return
	}
	if a.mode == modeMenu {
		a.menuKey(ev)
		return
	}
	a.gameKey(ev)
}

func (a *app) menuKey(ev *tcell.EventKey) {
	n := len(game.Difficulties())
	switch ev.Key() {
	case tcell.KeyUp:
		a.menuIdx = (a.menuIdx + n - 1) % n
	case tcell.KeyDown:
		a.menuIdx = (a.menuIdx + 1) % n
	case tcell.KeyEnter:
		a.start(game.Difficulties()[a.menuIdx])
	case tcell.KeyRune:
		switch ev.Rune() {
		case '1', '2', '3':
			a.menuIdx = int(ev.Rune() - '1')
			a.start(game.Difficulties()[a.menuIdx])
		case 'q':
			a.exit = true
		}
	}
}

func (a *app) gameKey(ev *tcell.EventKey) {
	lvl := a.g.Difficulty.Level()
	switch ev.Key() {
	case tcell.KeyLeft:
		a.cursor = moveCursor(a.cursor, 0, -1, lvl)
	case tcell.KeyRight:
		a.cursor = moveCursor(a.cursor, 0, 1, lvl)
	case tcell.KeyUp:
		a.cursor = moveCursor(a.cursor, -1, 0, lvl)
	case tcell.KeyDown:
		a.cursor = moveCursor(a.cursor, 1, 0, lvl)
	case tcell.KeyEnter:
		a.flip()
	case tcell.KeyRune:
		switch ev.Rune() {
		case ' ':
			a.flip()
		case 'p':
			a.g.Tick(a.now())
			if err := a.g.TogglePause(); err != nil {
				log.Warn().Err(err).Msg("toggle pause")
			}
		case 'r':
			a.start(a.g.Difficulty)
		case 'q':
			a.backToMenu()
		}
	}
}

// moveCursor moves within the grid, clamped at the edges.
func moveCursor(cur, dRow, dCol int, lvl game.Level) int {
	row, col := cur/lvl.Cols+dRow, cur%lvl.Cols+dCol
	row = min(max(row, 0), lvl.Rows-1)
	col = min(max(col, 0), lvl.Cols-1)
	return row*lvl.Cols + col
}

func (a *app) start(d game.Difficulty) {
	a.pending.Cancel(resolveKey)
	opts := []game.Option{game.WithClock(a.now)}
	if a.deck != nil {
		opts = append(opts, game.WithSymbols(a.deck))
	}
	g, err := game.New(d, opts...)
	if err != nil {
		log.Error().Err(err).Str("difficulty", string(d)).Msg("new game")
		a.message = "Could not start a game: " + err.Error()
		return
	}
	a.g, a.mode, a.cursor = g, modeGame, 0
	a.message, a.newRecord = "", false
	log.Debug().Str("gameId", g.ID).Str("difficulty", string(d)).Msg("game started")
}

func (a *app) backToMenu() {
	a.pending.Cancel(resolveKey)
	if a.g != nil {
		a.g.Tick(a.now())
		a.g.Quit()
	}
	a.g, a.mode, a.message = nil, modeMenu, ""
}

func (a *app) flip() {
	a.g.Tick(a.now())
	sel, err := a.g.SelectTile(a.cursor)
	if err != nil {
		log.Warn().Err(err).Int("index", a.cursor).Msg("select tile")
		return
	}
	if sel.Accepted {
		a.message = ""
	}
	if sel.PairComplete {
		id := a.g.ID
		a.pending.Schedule(resolveKey, a.delay, func() {
			ev := &resolveEvent{gameID: id}
			ev.SetEventNow()
			if err := a.screen.PostEvent(ev); err != nil {
				log.Warn().Err(err).Msg("post resolve")
			}
		})
	}
}

// resolve ignores requests for a session that has since been replaced.
func (a *app) resolve(id string) {
	if a.g == nil || a.g.ID != id || !a.g.Active {
		return
	}
	a.g.Tick(a.now())
	res, err := a.g.ResolvePending()
	if err != nil {
		return
	}
	a.message = res.Message(a.g.MatchedPairs)
	if !res.Won {
		return
	}
	rec, err := a.g.RecordIfBest(context.Background(), a.store)
	if err != nil {
		log.Warn().Err(err).Msg("save best score")
		a.message += " (best score not saved)"
	}
	a.newRecord = rec
	a.loadBest()
}

// ------------------------------- drawing -----------------------------------

func (a *app) draw() {
	a.screen.Clear()
	drawText(a.screen, boardLeft, 1, styleTitle, titleString)
	if a.mode == modeMenu {
		a.drawMenu()
	} else {
		a.drawGame()
	}
	a.screen.Show()
}

func (a *app) drawMenu() {
	y := boardTop
	drawText(a.screen, boardLeft, y, styleDefault, "Choose a difficulty:")
	for i, d := range game.Difficulties() {
		lvl := d.Level()
		st := styleDefault
		if i == a.menuIdx {
			st = styleCursor
		}
		line := fmt.Sprintf(" %d. %-7s %dx%d  best: %s ", i+1, lvl.Name, lvl.Rows, lvl.Cols, bestText(a.best[d]))
		drawText(a.screen, boardLeft, y+2+i, st, line)
	}
	drawText(a.screen, boardLeft, y+6, styleDim, "up/down + enter, 1-3 to start, q or esc to exit")
	drawText(a.screen, boardLeft, y+8, styleMessage, a.message)
}

func (a *app) drawGame() {
	v := a.g.View()
	lvl := v.Level
	for i, t := range v.Tiles {
		x := boardLeft + (i%lvl.Cols)*cellWidth
		y := boardTop + (i/lvl.Cols)*2
		st := styleDefault
		sym := faceDown
		switch {
		case t.Matched:
			st, sym = styleMatched, t.Symbol
		case t.Flipped:
			sym = t.Symbol
		}
		if i == a.cursor && v.State == game.StatePlaying {
			st = st.Reverse(true)
		}
		drawText(a.screen, x, y, st, "["+padTo(sym, 2)+"]")
	}

	y := boardTop + lvl.Rows*2 + 1
	status := fmt.Sprintf("%s  Moves: %d  Pairs: %d/%d  Time: %s",
		lvl.Name, v.Moves, v.MatchedPairs, lvl.Pairs, v.Elapsed)
	if v.State == game.StatePaused {
		status += "  [PAUSED]"
	}
	drawText(a.screen, boardLeft, y, styleDefault, status)
	drawText(a.screen, boardLeft, y+1, styleDim, "Best: "+bestText(a.best[v.Difficulty]))

	msg := a.message
	if v.State == game.StateWon {
		msg = fmt.Sprintf("You won in %d moves, %s!", v.Moves, v.Elapsed)
		if a.newRecord {
			msg += " New record!"
		}
	}
	drawText(a.screen, boardLeft, y+3, styleMessage, msg)
	drawText(a.screen, boardLeft, y+5, styleDim, "arrows move  space flip  p pause  r restart  q menu  esc exit")
}

func bestText(sc *game.Score) string {
	if sc == nil {
		return "-"
	}
	return fmt.Sprintf("%d moves / %s", sc.Moves, game.FormatElapsed(sc.TimeMs))
}

// padTo right-pads s with spaces to w terminal columns.
func padTo(s string, w int) string {
	for runewidth.StringWidth(s) < w {
		s += " "
	}
	return s
}

// drawText writes s at (x, y). Each grapheme's extra runes are passed as
// combining characters so emoji with variation selectors stay intact.
func drawText(s tcell.Screen, x, y int, st tcell.Style, text string) {
	runes := []rune(text)
	for i := 0; i < len(runes); {
		r := runes[i]
		j := i + 1
		for j < len(runes) && runewidth.RuneWidth(runes[j]) == 0 {
			j++
		}
		s.SetContent(x, y, r, runes[i+1:j], st)
		w := runewidth.RuneWidth(r)
		if w == 0 {
			w = 1
		}
		x += w
		i = j
	}
}
