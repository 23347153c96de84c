// Command memory-tui plays memory match in the terminal.
//
// Best scores are kept in a JSON file (SCORES_FILE, default under the user
// config dir). RESOLVE_DELAY and TICK_INTERVAL are read like the server's.
// Logs go to TUI_LOG when set, otherwise they are discarded.
package main

import (
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory-match/internal/config"
	"github.com/robalobadob/memory-match/internal/scores"
	"github.com/robalobadob/memory-match/internal/symbols"
)

func main() {
	cfg := config.Load()
	logOut := io.Discard
	if path := config.GetEnv("TUI_LOG", ""); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			defer f.Close()
			logOut = f
		}
	}
	log.Logger = zerolog.New(logOut).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := symbols.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load symbol deck")
	}

	path := config.GetEnv("SCORES_FILE", "")
	if path == "" {
		var err error
		if path, err = scores.DefaultPath(); err != nil {
			path = "memory-scores.json"
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal().Err(err).Msg("open terminal")
	}
	if err := screen.Init(); err != nil {
		log.Fatal().Err(err).Msg("init terminal")
	}
	defer screen.Fini()
	screen.SetStyle(styleDefault)

	a := newApp(screen, scores.NewFileStore(path), cfg.ResolveDelay)
	defer a.pending.Stop()

	done := make(chan struct{})
	defer close(done)
	go tick(screen, cfg.TickInterval, done)

	a.draw()
	for a.handle(screen.PollEvent()) {
		a.draw()
	}
}

// tick posts a tickEvent every interval until done is closed.
func tick(screen tcell.Screen, every time.Duration, done <-chan struct{}) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			ev := &tickEvent{}
			ev.SetEventNow()
			_ = screen.PostEvent(ev)
		}
	}
}
