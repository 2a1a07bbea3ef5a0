package archive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/pricedash/internal/model"
)

const defaultDrainTimeout = 5 * time.Second

// Writer batches samples from a Queue into a Store.
type Writer struct {
	cfg    Config
	store  Store
	logger *slog.Logger

	// Input from the dispatch loop
	queue *Queue[Sample]

	// Batching
	batch        []Sample
	batchMu      sync.Mutex
	drainTimeout time.Duration // bound for inserts after the context is done

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	stats Stats
}

// NewWriter creates a writer. Call Start before recording.
func NewWriter(cfg Config, store Store, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	return &Writer{
		cfg:    cfg,
		store:  store,
		logger: logger,
		queue:  NewQueue[Sample](cfg.QueueSize),
		batch:  make([]Sample, 0, cfg.BatchSize),

		drainTimeout: defaultDrainTimeout,
	}
}

// Record queues an accepted sample. It never blocks.
func (w *Writer) Record(feed, instrument string, s model.Sample) {
	w.queue.Push(Sample{
		ID:         uuid.New(),
		Feed:       feed,
		Instrument: instrument,
		Price:      s.Price,
		At:         s.At,
	})
}

// Start begins consuming samples and writing to the store.
func (w *Writer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	// Consumer goroutine
	w.wg.Add(1)
	go w.consumeLoop()

	// Flush ticker goroutine
	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("archive writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
		"queue_size", w.cfg.QueueSize,
	)
	return nil
}

// Stop drains the queue, flushes the final batch and waits for the
// goroutines, bounded by ctx.
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info("stopping archive writer")

	w.queue.Close()
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("archive writer stop timed out")
	}

	// Final flush
	w.flush(ctx)

	stats := w.Stats()
	w.logger.Info("archive writer stopped",
		"inserts", stats.Inserts,
		"conflicts", stats.Conflicts,
		"dropped", stats.Dropped,
	)
	return nil
}

// Stats returns current metrics.
func (w *Writer) Stats() Stats {
	w.batchMu.Lock()
	stats := w.stats
	w.batchMu.Unlock()
	stats.Dropped = w.queue.Dropped()
	return stats
}

// consumeLoop moves queued samples into the batch until the queue is
// closed and drained.
func (w *Writer) consumeLoop() {
	defer w.wg.Done()

	for {
		s, ok := w.queue.Pop()
		if !ok {
			return
		}

		w.batchMu.Lock()
		w.batch = append(w.batch, s)
		shouldFlush := len(w.batch) >= w.cfg.BatchSize
		w.batchMu.Unlock()

		if shouldFlush {
			w.flush(w.ctx)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *Writer) flushLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.flush(w.ctx)
		}
	}
}

// flush writes the current batch to the store.
func (w *Writer) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]Sample, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	if ctx.Err() != nil {
		// draining after Stop; give the insert a short bounded window
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), w.drainTimeout)
		defer cancel()
	}

	start := time.Now()
	conflicts, err := w.store.Insert(ctx, batch)
	if err != nil {
		w.logger.Error("archive insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.stats.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.stats.Inserts += int64(len(batch) - conflicts)
	w.stats.Conflicts += int64(conflicts)
	w.stats.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed samples",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}
