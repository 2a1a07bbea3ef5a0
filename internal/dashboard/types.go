package dashboard

import (
	"errors"
	"time"

	"github.com/rickgao/pricedash/internal/connection"
	"github.com/rickgao/pricedash/internal/feed"
	"github.com/rickgao/pricedash/internal/model"
	"github.com/rickgao/pricedash/internal/presenter"
)

// Errors
var (
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrUnknownFeed       = errors.New("unknown feed")
)

// Sink receives everything the dashboard displays.
// Implementations must be safe for concurrent use.
type Sink interface {
	PublishView(feed string, view presenter.View)
	PublishCounter(feed string, count int64, label string)
	PublishClock(text string, at time.Time)
	PublishSelection(instrument string)
	PublishConnection(feed string, state connection.State)
}

// Recorder receives every accepted sample, e.g. for archiving.
type Recorder interface {
	Record(feed, instrument string, sample model.Sample)
}

// Config holds dashboard settings.
type Config struct {
	ClockInterval    time.Duration // Clock refresh period
	DefaultSelection string        // Initial selection; first catalog instrument if empty
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ClockInterval: time.Second,
	}
}

// FeedStats contains per-feed runtime statistics.
type FeedStats struct {
	Feed       string           `json:"feed"`
	Messages   int64            `json:"messages"`
	Adapter    feed.Stats       `json:"adapter"`
	Connection connection.State `json:"connection"`
}

// Stats contains dashboard runtime statistics.
type Stats struct {
	Selection string      `json:"selection"`
	Cycles    int64       `json:"cycles"`
	Rejected  int64       `json:"rejected"`
	Feeds     []FeedStats `json:"feeds"`
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) PublishView(string, presenter.View) {}
func (NopSink) PublishCounter(string, int64, string) {}
func (NopSink) PublishClock(string, time.Time) {}
func (NopSink) PublishSelection(string) {}
func (NopSink) PublishConnection(string, connection.State) {}
