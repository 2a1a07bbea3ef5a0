package model

import (
	"math"
	"sync"
	"time"
)

// Store holds the instruments of one feed.
// Apply is called by a single writer; snapshots may be taken concurrently.
type Store struct {
	feed       string
	maxSamples int
	now        func() time.Time

	mu          sync.RWMutex
	instruments []*instrumentState
	index       map[string]*instrumentState
}

type instrumentState struct {
	name    string
	hasData bool
	current float64
	high    float64
	low     float64
	history []Sample
}

// Option configures a Store.
type Option func(*Store)

// WithMaxSamples sets the history bound. Values below 1 are ignored.
func WithMaxSamples(n int) Option {
	return func(s *Store) {
		if n >= 1 {
			s.maxSamples = n
		}
	}
}

// WithClock sets the timestamp source for new samples.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a store with one empty instrument per name, in order.
// Duplicate names are ignored.
func NewStore(feed string, names []string, opts ...Option) *Store {
	s := &Store{
		feed:        feed,
		maxSamples:  DefaultMaxSamples,
		now:         time.Now,
		instruments: make([]*instrumentState, 0, len(names)),
		index:       make(map[string]*instrumentState, len(names)),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, name := range names {
		if _, ok := s.index[name]; ok {
			continue
		}
		st := &instrumentState{name: name, history: make([]Sample, 0, s.maxSamples)}
		s.instruments = append(s.instruments, st)
		s.index[name] = st
	}
	return s
}

// Feed returns the feed this store belongs to.
func (s *Store) Feed() string {
	return s.feed
}

// MaxSamples returns the history bound.
func (s *Store) MaxSamples() int {
	return s.maxSamples
}

// Apply folds an update into the store.
//
// Pairs are processed in order. Unknown names are skipped, non-finite
// prices are rejected, and every other pair appends a sample, trims the
// history from the front and updates current/high/low.
func (s *Store) Apply(u Update) ApplyResult {
	var res ApplyResult
	if len(u) == 0 {
		return res
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var touched []*instrumentState
	for _, pair := range u {
		st, ok := s.index[pair.Instrument]
		if !ok {
			res.Skipped++
			continue
		}
		if math.IsNaN(pair.Price) || math.IsInf(pair.Price, 0) {
			res.Rejected = append(res.Rejected, Rejection{
				Instrument: pair.Instrument,
				Price:      pair.Price,
				Err:        ErrNonFinitePrice,
			})
			continue
		}

		sample := Sample{At: s.now(), Price: pair.Price}
		st.record(sample, s.maxSamples)
		res.Accepted = append(res.Accepted, Accepted{Instrument: st.name, Sample: sample})

		if !containsState(touched, st) {
			touched = append(touched, st)
		}
	}

	for _, st := range touched {
		res.Changed = append(res.Changed, st.snapshot())
	}
	return res
}

// Snapshot returns copies of all instruments in store order.
func (s *Store) Snapshot() []Instrument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Instrument, len(s.instruments))
	for i, st := range s.instruments {
		out[i] = st.snapshot()
	}
	return out
}

// Get returns a copy of the named instrument.
func (s *Store) Get(name string) (Instrument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.index[name]
	if !ok {
		return Instrument{}, false
	}
	return st.snapshot(), true
}

func (st *instrumentState) record(sample Sample, maxSamples int) {
	st.history = append(st.history, sample)
	if over := len(st.history) - maxSamples; over > 0 {
		st.history = append(st.history[:0], st.history[over:]...)
	}

	st.current = sample.Price
	if !st.hasData || sample.Price > st.high {
		st.high = sample.Price
	}
	if !st.hasData || sample.Price < st.low {
		st.low = sample.Price
	}
	st.hasData = true
}

func (st *instrumentState) snapshot() Instrument {
	inst := Instrument{
		Name:    st.name,
		History: make([]Sample, len(st.history)),
	}
	copy(inst.History, st.history)
	if st.hasData {
		current, high, low := st.current, st.high, st.low
		inst.CurrentPrice = &current
		inst.HighPrice = &high
		inst.LowPrice = &low
	}
	return inst
}

func containsState(list []*instrumentState, st *instrumentState) bool {
	for _, s := range list {
		if s == st {
			return true
		}
	}
	return false
}
