// internal/symbols/symbols.go
//
// Provides the tile symbol deck for the game engine.
//
// Initialization behavior (Init):
//   1. If SYMBOLS_FILE is set, load one symbol per line from that file.
//   2. Otherwise use the deck embedded in assets/symbols.txt.
//
// Constraints:
//   • Blank lines and lines starting with '#' are skipped.
//   • Duplicates are dropped, first occurrence wins.
//   • The deck must hold at least MinDeck symbols (enough for hard).
//   • Initialization is run once (sync.Once).

package symbols

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/memory-match/assets"
)

// MinDeck is the number of distinct symbols the hardest board needs.
const MinDeck = 18

var (
	initOnce   sync.Once
	deck       []string
	initialErr error
)

// Init loads the deck exactly once.
func Init() error {
	initOnce.Do(func() {
		var list []string
		var err error
		if path := os.Getenv("SYMBOLS_FILE"); path != "" {
			list, err = readSymbolFile(path)
		} else {
			list, err = assets.SymbolList()
		}
		if err != nil {
			initialErr = err
			return
		}
		deck = dedupe(list)
		if len(deck) < MinDeck {
			initialErr = fmt.Errorf("symbols: deck has %d symbols, need %d", len(deck), MinDeck)
		}
	})
	return initialErr
}

// Deck returns a copy of the loaded deck, loading it on first use.
func Deck() []string {
	_ = Init()
	out := make([]string, len(deck))
	copy(out, deck)
	return out
}

// Count returns the number of loaded symbols.
func Count() int {
	_ = Init()
	return len(deck)
}

func readSymbolFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
