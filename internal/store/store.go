// Package store is the SQLite persistence layer for the suggestion
// pipeline: transcript messages and their links (read-mostly after
// ingest), the append-only embedding cache, the classifier work queue,
// and the canonical suggestion table.
//
// Components receive only the capability they need; the narrow
// interfaces are declared in the packages that consume them, and
// *Store satisfies all of them.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound indicates a row that does not exist.
var ErrNotFound = errors.New("store: not found")

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS messages (
			id        INTEGER PRIMARY KEY,
			timestamp TEXT NOT NULL,
			sender    TEXT NOT NULL,
			content   TEXT NOT NULL,
			has_media INTEGER NOT NULL DEFAULT 0,
			media_type TEXT
		);

		CREATE TABLE IF NOT EXISTS urls (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id INTEGER NOT NULL REFERENCES messages(id),
			url        TEXT NOT NULL,
			url_type   TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS embeddings (
			message_id INTEGER PRIMARY KEY REFERENCES messages(id),
			vector     BLOB NOT NULL
		);

		CREATE TABLE IF NOT EXISTS classifier_queue (
			message_id    INTEGER PRIMARY KEY REFERENCES messages(id),
			similarity    REAL NOT NULL,
			processed     INTEGER NOT NULL DEFAULT 0,
			is_suggestion INTEGER,
			activity      TEXT,
			location      TEXT,
			confidence    REAL
		);

		CREATE TABLE IF NOT EXISTS suggestions (
			message_id    INTEGER PRIMARY KEY REFERENCES messages(id),
			suggestion_type TEXT NOT NULL,
			confidence    REAL NOT NULL,
			activity      TEXT,
			location      TEXT,
			latitude      REAL,
			longitude     REAL,
			status        TEXT NOT NULL DEFAULT 'pending'
		);

		CREATE INDEX IF NOT EXISTS idx_urls_message_id ON urls(message_id);
		CREATE INDEX IF NOT EXISTS idx_urls_type ON urls(url_type);
		CREATE INDEX IF NOT EXISTS idx_queue_pending ON classifier_queue(processed, similarity);
		CREATE INDEX IF NOT EXISTS idx_suggestions_confidence ON suggestions(confidence);
	`
	_, err := s.db.Exec(schema)
	return err
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}
