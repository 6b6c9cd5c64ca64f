// apps/go-server/internal/daily/store.go
//
// SQLite-backed store for daily-round results. One row per user per day,
// written once when the round ends; leaderboard is best score first, ties
// broken by elapsed time.

package daily

import (
	"context"
	"database/sql"
)

// Result is a single user's finished daily round.
type Result struct {
	UserID      string `json:"userId"`
	Date        string `json:"date"`
	Score       int    `json:"score"`
	PhraseCount int    `json:"phraseCount"`
	ElapsedMs   int    `json:"elapsedMs"`
}

// Store persists daily results.
type Store struct{ db *sql.DB }

// NewStore wraps a database handle.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether the user has a recorded result for the
// given date.
func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_results WHERE user_id=? AND date=?",
		userID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult records a finished round. Respects UNIQUE(user_id, date);
// a second insert for the same day is silently ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(user_id, date, score, phrase_count, elapsed_ms)
		 VALUES(?,?,?,?,?)`, r.UserID, r.Date, r.Score, r.PhraseCount, r.ElapsedMs,
	)
	return err
}

// LBRow is one leaderboard entry.
type LBRow struct {
	UserID    string `json:"userId"`
	Score     int    `json:"score"`
	ElapsedMs int    `json:"elapsedMs"`
}

// Leaderboard fetches the top results for a date: score DESC, then
// elapsed time ASC, then insertion order.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, score, elapsed_ms
		 FROM daily_results
		 WHERE date=?
		 ORDER BY score DESC, elapsed_ms ASC, created_at ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.Score, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
