package daily

import (
	"context"
	"database/sql"
)

// Result is one player's winning daily game.
type Result struct {
	OwnerID    string `json:"ownerId"`
	Date       string `json:"date"`
	GameID     string `json:"gameId"`
	Difficulty string `json:"difficulty"`
	Moves      int    `json:"moves"`
	ElapsedMs  int64  `json:"elapsedMs"`
}

// Store keeps daily results in the daily_results table.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether owner has a result for date.
func (s *Store) AlreadyPlayed(ctx context.Context, ownerID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM daily_results WHERE owner_id=? AND date=?`,
		ownerID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult stores r. The first result per owner and date wins.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(owner_id, date, game_id, difficulty, moves, elapsed_ms)
		 VALUES(?,?,?,?,?,?)`, r.OwnerID, r.Date, r.GameID, r.Difficulty, r.Moves, r.ElapsedMs,
	)
	return err
}

// LBRow is one daily leaderboard line. Name is empty for guests.
type LBRow struct {
	OwnerID   string `json:"ownerId,omitempty"`
	Name      string `json:"name,omitempty"`
	Moves     int    `json:"moves"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Leaderboard ranks the date's results by moves, then time, then arrival.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.owner_id, COALESCE(u.username, ''), d.moves, d.elapsed_ms
		 FROM daily_results d LEFT JOIN users u ON u.id = d.owner_id
		 WHERE d.date=?
		 ORDER BY d.moves ASC, d.elapsed_ms ASC, d.created_at ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LBRow
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.OwnerID, &r.Name, &r.Moves, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Reassign moves from's results to to. Where both played the same date,
// to's own result is kept.
func (s *Store) Reassign(ctx context.Context, from, to string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `UPDATE OR IGNORE daily_results SET owner_id=? WHERE owner_id=?`, to, from); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_results WHERE owner_id=?`, from); err != nil {
		return err
	}
	return tx.Commit()
}
