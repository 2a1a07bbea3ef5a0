package model

import (
	"errors"
	"time"
)

// DefaultMaxSamples bounds each instrument history unless overridden.
const DefaultMaxSamples = 100

// ErrNonFinitePrice is reported for NaN or infinite prices.
var ErrNonFinitePrice = errors.New("price is not a finite number")

// Sample is one point of an instrument's price history.
type Sample struct {
	At    time.Time `json:"t"`
	Price float64   `json:"price"`
}

// PricePair is a single instrument price carried by an update.
type PricePair struct {
	Instrument string
	Price      float64
}

// Update is a normalized feed update: prices keyed by instrument name,
// in the order the feed delivered them.
type Update []PricePair

// Instrument is a point-in-time copy of one instrument's state.
type Instrument struct {
	Name         string   `json:"name"`
	CurrentPrice *float64 `json:"current_price"`
	HighPrice    *float64 `json:"high_price"`
	LowPrice     *float64 `json:"low_price"`
	History      []Sample `json:"history"`
}

// HasData reports whether at least one price has been applied.
func (i Instrument) HasData() bool {
	return i.CurrentPrice != nil && len(i.History) > 0
}

// Rejection describes a price pair that was not applied.
type Rejection struct {
	Instrument string
	Price      float64
	Err        error
}

// Accepted is a sample applied to an instrument.
type Accepted struct {
	Instrument string
	Sample     Sample
}

// ApplyResult reports the outcome of Store.Apply.
type ApplyResult struct {
	Changed  []Instrument // snapshots after the update, first-touch order
	Accepted []Accepted
	Rejected []Rejection
	Skipped  int // pairs naming an untracked instrument
}

// ChangedNamed returns the changed snapshot for name, if any.
func (r ApplyResult) ChangedNamed(name string) (Instrument, bool) {
	for _, inst := range r.Changed {
		if inst.Name == name {
			return inst, true
		}
	}
	return Instrument{}, false
}
