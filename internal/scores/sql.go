// internal/scores/sql.go
//
// SQLStore: best_scores rows keyed by (owner_id, difficulty), plus the
// per-difficulty leaderboard and guest-to-user reassignment.

package scores

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/robalobadob/memory-match/internal/game"
)

// SQLStore keeps best scores in the best_scores table.
type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Best(ctx context.Context, owner string, d game.Difficulty) (*game.Score, error) {
	var sc game.Score
	err := s.db.QueryRowContext(ctx,
		`SELECT moves, time_ms FROM best_scores WHERE owner_id=? AND difficulty=?`,
		owner, string(d),
	).Scan(&sc.Moves, &sc.TimeMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// Put upserts the owner's record. An existing record is only replaced by a
// better one, so overlapping wins cannot lower it.
func (s *SQLStore) Put(ctx context.Context, owner string, d game.Difficulty, sc game.Score) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO best_scores (owner_id, difficulty, moves, time_ms, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(owner_id, difficulty) DO UPDATE SET
            moves=excluded.moves, time_ms=excluded.time_ms, updated_at=excluded.updated_at
        WHERE excluded.moves < best_scores.moves
           OR (excluded.moves = best_scores.moves AND excluded.time_ms < best_scores.time_ms)`,
		owner, string(d), sc.Moves, sc.TimeMs, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// LBRow is one leaderboard entry.
type LBRow struct {
	OwnerID string `json:"ownerId,omitempty"`
	Name    string `json:"name,omitempty"`
	Moves   int    `json:"moves"`
	TimeMs  int64  `json:"timeMs"`
}

// Leaderboard returns the top records for a difficulty.
// Ordered by moves ASC, then time ASC, then earliest record first.
// Owners that are registered users carry their username.
func (s *SQLStore) Leaderboard(ctx context.Context, d game.Difficulty, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT b.owner_id, COALESCE(u.username, ''), b.moves, b.time_ms
        FROM best_scores b
        LEFT JOIN users u ON u.id = b.owner_id
        WHERE b.difficulty=?
        ORDER BY b.moves ASC, b.time_ms ASC, b.updated_at ASC
        LIMIT ?`, string(d), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.OwnerID, &r.Name, &r.Moves, &r.TimeMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Reassign moves an anonymous owner's records to a user, keeping whichever
// record is better per difficulty.
func (s *SQLStore) Reassign(ctx context.Context, from, to string) error {
	if from == "" || to == "" || from == to {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, d := range game.Difficulties() {
		var anon game.Score
		err := tx.QueryRowContext(ctx,
			`SELECT moves, time_ms FROM best_scores WHERE owner_id=? AND difficulty=?`, from, string(d),
		).Scan(&anon.Moves, &anon.TimeMs)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return err
		}
		var cur game.Score
		err = tx.QueryRowContext(ctx,
			`SELECT moves, time_ms FROM best_scores WHERE owner_id=? AND difficulty=?`, to, string(d),
		).Scan(&cur.Moves, &cur.TimeMs)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx,
				`UPDATE best_scores SET owner_id=? WHERE owner_id=? AND difficulty=?`, to, from, string(d)); err != nil {
				return err
			}
			continue
		case err != nil:
			return err
		}
		if game.Better(anon, cur) {
			if _, err := tx.ExecContext(ctx,
				`UPDATE best_scores SET moves=?, time_ms=? WHERE owner_id=? AND difficulty=?`,
				anon.Moves, anon.TimeMs, to, string(d)); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM best_scores WHERE owner_id=? AND difficulty=?`, from, string(d)); err != nil {
			return err
		}
	}
	return tx.Commit()
}
