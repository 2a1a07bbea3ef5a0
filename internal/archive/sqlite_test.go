package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/pricedash/internal/config"
)

func TestSQLiteStore_InsertAndConflicts(t *testing.T) {
	ctx := context.Background()
	cfg := config.ArchiveConfig{
		Backend:    "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "samples.db"),
	}

	store, err := Open(ctx, cfg, "pricedash-test")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	at := time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC)
	rows := []Sample{
		{ID: uuid.New(), Feed: "coincap", Instrument: "bitcoin", Price: 42000.5, At: at},
		{ID: uuid.New(), Feed: "binance", Instrument: "bitcoin", Price: 42001.25, At: at.Add(time.Second)},
	}

	conflicts, err := store.Insert(ctx, rows)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if conflicts != 0 {
		t.Errorf("conflicts = %d, want 0", conflicts)
	}

	// re-inserting the same IDs is a no-op
	conflicts, err = store.Insert(ctx, rows)
	if err != nil {
		t.Fatalf("second Insert() error = %v", err)
	}
	if conflicts != 2 {
		t.Errorf("conflicts = %d, want 2", conflicts)
	}

	db := store.(*SQLiteStore).db
	var (
		n     int
		price float64
		ts    int64
	)
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM price_samples").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("rows = %d, want 2", n)
	}
	err = db.QueryRowContext(ctx,
		"SELECT price, sampled_at FROM price_samples WHERE feed = ? AND instrument = ?",
		"coincap", "bitcoin",
	).Scan(&price, &ts)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if price != 42000.5 || ts != at.UnixMicro() {
		t.Errorf("row = (%v, %d), want (42000.5, %d)", price, ts, at.UnixMicro())
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), config.ArchiveConfig{Backend: "redis"}, ""); err == nil {
		t.Error("Open() expected error for unknown backend")
	}
}
