package archive

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Sample is one archived price observation.
type Sample struct {
	ID         uuid.UUID
	Feed       string
	Instrument string
	Price      float64
	At         time.Time
}

// Store is an archive backend.
type Store interface {
	// EnsureSchema creates the samples table if it does not exist.
	EnsureSchema(ctx context.Context) error
	// Insert writes rows and reports how many already existed.
	Insert(ctx context.Context, rows []Sample) (conflicts int, err error)
	Close() error
}

// Config holds writer settings.
type Config struct {
	BatchSize     int           // Flush when batch reaches this size
	FlushInterval time.Duration // Flush at least this often
	QueueSize     int           // Pending samples kept before dropping the oldest
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     500,
		FlushInterval: 2 * time.Second,
		QueueSize:     10000,
	}
}

// Stats contains writer statistics.
type Stats struct {
	Inserts   int64 `json:"inserts"`
	Conflicts int64 `json:"conflicts"`
	Errors    int64 `json:"errors"`
	Flushes   int64 `json:"flushes"`
	Dropped   int64 `json:"dropped"`
}
