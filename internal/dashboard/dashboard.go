package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/pricedash/internal/connection"
	"github.com/rickgao/pricedash/internal/feed"
	"github.com/rickgao/pricedash/internal/market"
	"github.com/rickgao/pricedash/internal/model"
	"github.com/rickgao/pricedash/internal/presenter"
)

type selectCommand struct {
	instrument string
	done       chan struct{}
}

// Dashboard is the process-scoped dashboard context.
type Dashboard struct {
	cfg       Config
	logger    *slog.Logger
	catalog   *market.Catalog
	presenter *presenter.Presenter
	sink      Sink
	recorder  Recorder
	now       func() time.Time

	pipelines map[string]*Pipeline
	order     []string

	commands chan selectCommand

	mu          sync.RWMutex
	selection   string
	connections map[string]connection.State
	cycles      int64
	rejected    int64
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithRecorder forwards accepted samples to r.
func WithRecorder(r Recorder) Option {
	return func(d *Dashboard) { d.recorder = r }
}

// WithClock sets the time source for the clock display.
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) {
		if now != nil {
			d.now = now
		}
	}
}

// New creates a dashboard over the given pipelines. A nil sink discards output.
func New(cfg Config, catalog *market.Catalog, pipelines []*Pipeline, sink Sink, logger *slog.Logger, opts ...Option) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = NopSink{}
	}
	if cfg.ClockInterval <= 0 {
		cfg.ClockInterval = DefaultConfig().ClockInterval
	}

	d := &Dashboard{
		cfg:         cfg,
		logger:      logger,
		catalog:     catalog,
		presenter:   presenter.New(),
		sink:        sink,
		now:         time.Now,
		pipelines:   make(map[string]*Pipeline, len(pipelines)),
		commands:    make(chan selectCommand),
		connections: make(map[string]connection.State, len(pipelines)),
	}
	for _, p := range pipelines {
		d.pipelines[p.Feed()] = p
		d.order = append(d.order, p.Feed())
		d.connections[p.Feed()] = connection.StateDisconnected
	}
	for _, opt := range opts {
		opt(d)
	}

	d.selection = cfg.DefaultSelection
	if !catalog.Has(d.selection) {
		d.selection = catalog.Default()
	}
	return d
}

// Run is the dispatch loop. It publishes the initial state, then handles
// frames, selection commands and clock ticks until ctx is done or in is closed.
func (d *Dashboard) Run(ctx context.Context, in <-chan connection.RawMessage) error {
	ticker := time.NewTicker(d.cfg.ClockInterval)
	defer ticker.Stop()

	d.publishInitial()
	d.logger.Info("dashboard loop started",
		"feeds", d.order,
		"selection", d.Selection(),
		"clock_interval", d.cfg.ClockInterval,
	)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dashboard loop stopped")
			return nil
		case raw, ok := <-in:
			if !ok {
				d.logger.Info("input channel closed")
				return nil
			}
			d.handle(raw)
		case cmd := <-d.commands:
			d.applySelection(cmd.instrument)
			close(cmd.done)
		case <-ticker.C:
			d.publishClock()
		}
	}
}

// Select changes the selected instrument and re-renders it for every feed.
// It blocks until the dispatch loop has applied the change.
func (d *Dashboard) Select(ctx context.Context, instrument string) error {
	if !d.catalog.Has(instrument) {
		return fmt.Errorf("%w: %q", ErrUnknownInstrument, instrument)
	}

	cmd := selectCommand{instrument: instrument, done: make(chan struct{})}
	select {
	case d.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Selection returns the selected instrument.
func (d *Dashboard) Selection() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.selection
}

// Instruments returns the tracked instrument names in display order.
func (d *Dashboard) Instruments() []string {
	return d.catalog.Names()
}

// Feeds returns the feed identifiers in display order.
func (d *Dashboard) Feeds() []string {
	return append([]string(nil), d.order...)
}

// Snapshot returns copies of all instruments of a feed.
func (d *Dashboard) Snapshot(feedName string) ([]model.Instrument, error) {
	p, ok := d.pipelines[feedName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeed, feedName)
	}
	return p.Store.Snapshot(), nil
}

// View renders the selected instrument of a feed from its last known state.
func (d *Dashboard) View(feedName string) (presenter.View, error) {
	p, ok := d.pipelines[feedName]
	if !ok {
		return presenter.View{}, fmt.Errorf("%w: %q", ErrUnknownFeed, feedName)
	}
	inst, ok := p.Store.Get(d.Selection())
	if !ok {
		return presenter.Placeholder(d.Selection()), nil
	}
	return d.presenter.Render(inst), nil
}

// SetConnectionState records and publishes a feed connection transition.
// It matches connection.StateFunc.
func (d *Dashboard) SetConnectionState(feedName string, state connection.State) {
	d.mu.Lock()
	d.connections[feedName] = state
	d.mu.Unlock()

	d.sink.PublishConnection(feedName, state)
}

// ConnectionStates returns the last known state of every feed.
func (d *Dashboard) ConnectionStates() map[string]connection.State {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]connection.State, len(d.connections))
	for k, v := range d.connections {
		out[k] = v
	}
	return out
}

// Stats returns current statistics.
func (d *Dashboard) Stats() Stats {
	d.mu.RLock()
	stats := Stats{
		Selection: d.selection,
		Cycles:    d.cycles,
		Rejected:  d.rejected,
	}
	conns := make(map[string]connection.State, len(d.connections))
	for k, v := range d.connections {
		conns[k] = v
	}
	d.mu.RUnlock()

	for _, name := range d.order {
		p := d.pipelines[name]
		stats.Feeds = append(stats.Feeds, FeedStats{
			Feed:       name,
			Messages:   p.Normalizer.Count(),
			Adapter:    p.Normalizer.Stats(),
			Connection: conns[name],
		})
	}
	return stats
}

// handle runs one update cycle for a frame.
func (d *Dashboard) handle(raw connection.RawMessage) {
	p, ok := d.pipelines[raw.Feed]
	if !ok {
		d.logger.Warn("message from unknown feed", "feed", raw.Feed)
		return
	}

	d.mu.Lock()
	d.cycles++
	d.mu.Unlock()

	msg, update, err := p.Normalizer.Handle(raw.Data)
	defer d.publishCounter(raw.Feed, p)

	if err != nil {
		d.logger.Warn("dropping malformed message", "feed", raw.Feed, "error", err)
		return
	}
	if update == nil {
		if u, ok := msg.(feed.Unrecognized); ok {
			d.logger.Debug("message not applicable", "feed", raw.Feed, "reason", u.Reason, "detail", u.Detail)
		}
		return
	}

	res := p.Store.Apply(update)

	for _, rej := range res.Rejected {
		d.logger.Warn("rejected price",
			"feed", raw.Feed,
			"instrument", rej.Instrument,
			"price", rej.Price,
			"error", rej.Err,
		)
	}
	if len(res.Rejected) > 0 {
		d.mu.Lock()
		d.rejected += int64(len(res.Rejected))
		d.mu.Unlock()
	}
	if res.Skipped > 0 {
		d.logger.Debug("skipped untracked instruments", "feed", raw.Feed, "count", res.Skipped)
	}

	if d.recorder != nil {
		for _, acc := range res.Accepted {
			d.recorder.Record(raw.Feed, acc.Instrument, acc.Sample)
		}
	}

	if inst, ok := res.ChangedNamed(d.Selection()); ok {
		d.sink.PublishView(raw.Feed, d.presenter.Render(inst))
	}
}

// applySelection sets the selection and renders it from every store.
func (d *Dashboard) applySelection(instrument string) {
	d.mu.Lock()
	prev := d.selection
	d.selection = instrument
	d.mu.Unlock()

	if prev != instrument {
		d.logger.Info("selection changed", "from", prev, "to", instrument)
	}
	d.sink.PublishSelection(instrument)
	d.renderSelection(instrument)
}

func (d *Dashboard) renderSelection(instrument string) {
	for _, name := range d.order {
		inst, ok := d.pipelines[name].Store.Get(instrument)
		if !ok {
			continue
		}
		d.sink.PublishView(name, d.presenter.Render(inst))
	}
}

func (d *Dashboard) publishClock() {
	now := d.now()
	d.sink.PublishClock(d.presenter.FormatClock(now), now)
}

func (d *Dashboard) publishInitial() {
	sel := d.Selection()
	d.sink.PublishSelection(sel)
	d.renderSelection(sel)
	for _, name := range d.order {
		d.publishCounter(name, d.pipelines[name])
	}
	d.publishClock()
}

func (d *Dashboard) publishCounter(feedName string, p *Pipeline) {
	count := p.Normalizer.Count()
	d.sink.PublishCounter(feedName, count, d.presenter.FormatCounter(count))
}
