// apps/go-server/db.go
//
// SQLite bootstrap.
// Responsibilities:
//   - Open the database file (creating the parent directory) with WAL and
//     a busy timeout suitable for a single-process server.
//   - Run idempotent schema migrations for users, games, and daily_results.

package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// openDB opens (and creates if needed) the SQLite database at path.
func openDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite handles one writer at a time; keep the pool small.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// migrate applies the schema. Statements are idempotent so the server can
// run them on every start.
func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			username        TEXT NOT NULL UNIQUE,
			password_hash   TEXT NOT NULL,
			created_at      TEXT NOT NULL,
			games_played    INTEGER NOT NULL DEFAULT 0,
			phrases_guessed INTEGER NOT NULL DEFAULT 0,
			best_score      INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users (lower(username))`,
		`CREATE TABLE IF NOT EXISTS games (
			id           TEXT PRIMARY KEY,
			user_id      TEXT REFERENCES users(id),
			anonymous_id TEXT,
			variant      TEXT NOT NULL,
			phrase_count INTEGER NOT NULL,
			score        INTEGER NOT NULL DEFAULT 0,
			status       TEXT NOT NULL DEFAULT 'playing',
			started_at   TEXT NOT NULL,
			finished_at  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_user ON games (user_id, started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_games_anon ON games (anonymous_id)`,
		`CREATE TABLE IF NOT EXISTS daily_results (
			user_id      TEXT NOT NULL,
			date         TEXT NOT NULL,
			score        INTEGER NOT NULL,
			phrase_count INTEGER NOT NULL,
			elapsed_ms   INTEGER NOT NULL,
			created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
			UNIQUE (user_id, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_date ON daily_results (date, score)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
