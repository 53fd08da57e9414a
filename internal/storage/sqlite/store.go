package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"stockwatch/internal/storage"
)

// SQLiteStore implements the storage.Storer interface for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore and establishes a connection to the database file.
// It also runs migrations to ensure the schema is up to date.
func New(ctx context.Context, dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=journal_mode(WAL)", dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases consistent across calls.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	store := &SQLiteStore{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// migrate ensures the database schema is created.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS targets (
	position INTEGER PRIMARY KEY,
	url      TEXT NOT NULL UNIQUE,
	title    TEXT NOT NULL DEFAULT '',
	memo     TEXT NOT NULL DEFAULT ''
);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Load reads every target in registry order.
// An empty table yields storage.ErrNotFound.
func (s *SQLiteStore) Load(ctx context.Context) (*storage.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, title, memo FROM targets ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query targets: %w", err)
	}
	defer rows.Close()

	snap := storage.NewSnapshot(nil)
	for rows.Next() {
		var url, title, memo string
		if err := rows.Scan(&url, &title, &memo); err != nil {
			return nil, fmt.Errorf("failed to scan target row: %w", err)
		}
		snap.URLs = append(snap.URLs, url)
		snap.Titles[url] = title
		snap.Memos[url] = memo
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(snap.URLs) == 0 {
		return nil, storage.ErrNotFound
	}
	return snap, nil
}

// Save replaces the stored registry with snapshot in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snapshot *storage.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM targets`); err != nil {
		return fmt.Errorf("failed to clear targets: %w", err)
	}
	if snapshot != nil {
		for i, url := range snapshot.URLs {
			query := `INSERT INTO targets (position, url, title, memo) VALUES (?, ?, ?, ?)`
			if _, err := tx.ExecContext(ctx, query, i, url, snapshot.Titles[url], snapshot.Memos[url]); err != nil {
				return fmt.Errorf("failed to insert target: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
