package feed

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rickgao/pricedash/internal/model"
)

// Normalizer runs one feed's adapter and keeps its counters.
// Safe for concurrent use.
type Normalizer struct {
	adapter Adapter

	mu            sync.RWMutex
	received      int64
	normalized    int64
	notApplicable int64
	parseErrors   int64
	byReason      map[Reason]int64
}

// NewNormalizer wraps an adapter.
func NewNormalizer(adapter Adapter) *Normalizer {
	return &Normalizer{
		adapter:  adapter,
		byReason: make(map[Reason]int64),
	}
}

// Feed returns the wrapped adapter's feed identifier.
func (n *Normalizer) Feed() string {
	return n.adapter.Feed()
}

// Handle classifies one frame and counts it. The returned update is nil
// when the frame is not applicable or malformed.
func (n *Normalizer) Handle(data []byte) (Message, model.Update, error) {
	msg, err := n.adapter.Classify(data)

	n.mu.Lock()
	defer n.mu.Unlock()

	n.received++
	if err != nil {
		n.parseErrors++
		if !errors.Is(err, ErrMalformedPayload) {
			err = fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return nil, nil, err
	}

	update, ok := Normalize(msg)
	if !ok {
		n.notApplicable++
		if u, isUnrecognized := msg.(Unrecognized); isUnrecognized {
			n.byReason[u.Reason]++
		}
		return msg, nil, nil
	}
	n.normalized++
	return msg, update, nil
}

// Count returns the number of frames seen, applicable or not.
func (n *Normalizer) Count() int64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.received
}

// Stats returns current counters.
func (n *Normalizer) Stats() Stats {
	n.mu.RLock()
	defer n.mu.RUnlock()

	byReason := make(map[Reason]int64, len(n.byReason))
	for k, v := range n.byReason {
		byReason[k] = v
	}
	return Stats{
		Received:      n.received,
		Normalized:    n.normalized,
		NotApplicable: n.notApplicable,
		ParseErrors:   n.parseErrors,
		ByReason:      byReason,
	}
}
