// internal/game/view.go
//
// Render-ready snapshots of a session. Only flipped or matched tiles
// reveal their symbol.

package game

// TileView is a tile as shown to the player. Face-down tiles carry no symbol.
type TileView struct {
	Index   int    `json:"index"`
	Symbol  string `json:"symbol,omitempty"`
	Flipped bool   `json:"flipped"`
	Matched bool   `json:"matched"`
}

// View is a render-ready snapshot of a session.
type View struct {
	GameID       string     `json:"gameId"`
	Difficulty   Difficulty `json:"difficulty"`
	Level        Level      `json:"level"`
	Tiles        []TileView `json:"tiles"`
	Moves        int        `json:"moves"`
	MatchedPairs int        `json:"matchedPairs"`
	ElapsedMs    int64      `json:"elapsedMs"`
	Elapsed      string     `json:"elapsed"` // MM:SS
	State        State      `json:"state"`
	Pending      int        `json:"pending"`
}

// View snapshots the session for a presentation layer.
func (s *Session) View() View {
	tiles := make([]TileView, len(s.Board))
	for i, t := range s.Board {
		tv := TileView{Index: i, Flipped: t.Flipped, Matched: t.Matched}
		if t.Flipped || t.Matched {
			tv.Symbol = t.Symbol
		}
		tiles[i] = tv
	}
	return View{
		GameID:       s.ID,
		Difficulty:   s.Difficulty,
		Level:        s.Difficulty.Level(),
		Tiles:        tiles,
		Moves:        s.Moves,
		MatchedPairs: s.MatchedPairs,
		ElapsedMs:    s.ElapsedMs,
		Elapsed:      FormatElapsed(s.ElapsedMs),
		State:        s.State(),
		Pending:      len(s.pending),
	}
}
