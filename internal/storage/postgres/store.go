package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockwatch/internal/storage"
)

// PostgresStore implements the storage.Storer interface for PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// New creates a new PostgresStore and establishes a connection to the database.
// It also runs migrations to ensure the schema is up to date.
func New(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	store := &PostgresStore{db: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// migrate ensures the database schema is created.
func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS targets (
		position INTEGER PRIMARY KEY,
		url      TEXT NOT NULL UNIQUE,
		title    TEXT NOT NULL DEFAULT '',
		memo     TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := s.db.Exec(ctx, schema)
	return err
}

// Load implements the Storer interface.
func (s *PostgresStore) Load(ctx context.Context) (*storage.Snapshot, error) {
	rows, err := s.db.Query(ctx, `SELECT url, title, memo FROM targets ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query targets: %w", err)
	}
	defer rows.Close()

	snap := storage.NewSnapshot(nil)
	for rows.Next() {
		var url, title, memo string
		if err := rows.Scan(&url, &title, &memo); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
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

// Save implements the Storer interface.
func (s *PostgresStore) Save(ctx context.Context, snapshot *storage.Snapshot) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM targets`); err != nil {
			return fmt.Errorf("failed to clear targets: %w", err)
		}
		if snapshot == nil {
			return nil
		}
		batch := &pgx.Batch{}
		for i, url := range snapshot.URLs {
			batch.Queue(`INSERT INTO targets (position, url, title, memo) VALUES ($1, $2, $3, $4)`,
				i, url, snapshot.Titles[url], snapshot.Memos[url])
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert targets: %w", err)
		}
		return nil
	})
}
