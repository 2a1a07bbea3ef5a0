package archive

import (
	"context"
	"fmt"

	"github.com/rickgao/pricedash/internal/config"
	"github.com/rickgao/pricedash/internal/database"
)

// Open connects the configured backend and ensures its schema.
func Open(ctx context.Context, cfg config.ArchiveConfig, appName string) (Store, error) {
	var store Store

	switch cfg.Backend {
	case "postgres":
		pool, err := database.Connect(ctx, cfg.Database, appName)
		if err != nil {
			return nil, fmt.Errorf("archive postgres: %w", err)
		}
		store = NewPostgresStore(pool)
	case "sqlite", "":
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("archive sqlite: %w", err)
		}
		store = NewSQLiteStore(db)
	default:
		return nil, fmt.Errorf("archive: unknown backend %q", cfg.Backend)
	}

	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// ConfigFrom converts archive settings to writer settings.
func ConfigFrom(cfg config.ArchiveConfig) Config {
	return Config{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		QueueSize:     cfg.QueueSize,
	}
}
