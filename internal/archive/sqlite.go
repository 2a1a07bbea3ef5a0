package archive

import (
	"context"
	"database/sql"
	"fmt"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS price_samples (
	id          TEXT PRIMARY KEY,
	feed        TEXT NOT NULL,
	instrument  TEXT NOT NULL,
	price       REAL NOT NULL,
	sampled_at  INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL DEFAULT (unixepoch())
);
CREATE INDEX IF NOT EXISTS price_samples_instrument_idx
	ON price_samples (feed, instrument, sampled_at);
`

// SQLiteStore writes samples to a local SQLite file.
// sampled_at is stored as Unix microseconds.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open handle. Close closes the handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// EnsureSchema creates the samples table.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create price_samples: %w", err)
	}
	return nil
}

// Insert writes rows in one transaction with INSERT OR IGNORE.
func (s *SQLiteStore) Insert(ctx context.Context, rows []Sample) (conflicts int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO price_samples (id, feed, instrument, price, sampled_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		res, err := stmt.ExecContext(ctx, r.ID.String(), r.Feed, r.Instrument, r.Price, r.At.UnixMicro())
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", r.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			conflicts++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return conflicts, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
