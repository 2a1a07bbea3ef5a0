package archive

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS price_samples (
	id          UUID PRIMARY KEY,
	feed        TEXT NOT NULL,
	instrument  TEXT NOT NULL,
	price       DOUBLE PRECISION NOT NULL,
	sampled_at  TIMESTAMPTZ NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS price_samples_instrument_idx
	ON price_samples (feed, instrument, sampled_at DESC);
`

// PostgresStore writes samples to PostgreSQL or TimescaleDB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an open pool. Close closes the pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the samples table.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create price_samples: %w", err)
	}
	return nil
}

// Insert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (s *PostgresStore) Insert(ctx context.Context, rows []Sample) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO price_samples (id, feed, instrument, price, sampled_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING
		`, r.ID, r.Feed, r.Instrument, r.Price, r.At)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
