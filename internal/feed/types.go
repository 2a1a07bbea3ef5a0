package feed

import (
	"errors"
	"time"

	"github.com/rickgao/pricedash/internal/model"
)

// ErrMalformedPayload is returned when a frame cannot be decoded.
var ErrMalformedPayload = errors.New("malformed payload")

// Reason explains why a frame produced no update.
type Reason string

const (
	ReasonUnknownSymbol Reason = "unknown_symbol"
	ReasonBadPrice      Reason = "bad_price"
	ReasonIgnoredEvent  Reason = "ignored_event"
	ReasonControl       Reason = "control"
)

// Message is the classified form of one upstream frame.
// It is one of MultiInstrumentUpdate, SingleTradeEvent or Unrecognized.
type Message interface {
	messageKind() string
}

// MultiInstrumentUpdate carries prices for several instruments at once.
// Prices keep the frame's key order; unparsable prices are NaN.
type MultiInstrumentUpdate struct {
	Prices model.Update
}

// SingleTradeEvent is one executed trade for a known instrument.
type SingleTradeEvent struct {
	Symbol     string
	Instrument string
	Price      float64
	TradeID    int64
	TradeTime  time.Time
}

// Unrecognized is a well-formed frame with nothing to apply.
type Unrecognized struct {
	Reason Reason
	Detail string
}

func (MultiInstrumentUpdate) messageKind() string { return "multi_instrument_update" }
func (SingleTradeEvent) messageKind() string { return "single_trade_event" }
func (Unrecognized) messageKind() string { return "unrecognized" }

// Kind returns a short name for the message variant, for logging.
func Kind(msg Message) string {
	if msg == nil {
		return "none"
	}
	return msg.messageKind()
}

// Normalize maps a classified message to a model update.
// It reports false when the message is not applicable.
func Normalize(msg Message) (model.Update, bool) {
	switch m := msg.(type) {
	case MultiInstrumentUpdate:
		if len(m.Prices) == 0 {
			return nil, false
		}
		return m.Prices, true
	case SingleTradeEvent:
		return model.Update{{Instrument: m.Instrument, Price: m.Price}}, true
	default:
		return nil, false
	}
}

// Adapter classifies raw frames of one upstream feed.
type Adapter interface {
	// Feed returns the feed identifier, e.g. "coincap".
	Feed() string

	// Classify decodes one frame. It returns ErrMalformedPayload (wrapped)
	// only when the frame cannot be decoded at all.
	Classify(data []byte) (Message, error)
}

// Stats contains per-feed adapter counters.
type Stats struct {
	Received      int64            `json:"received"`
	Normalized    int64            `json:"normalized"`
	NotApplicable int64            `json:"not_applicable"`
	ParseErrors   int64            `json:"parse_errors"`
	ByReason      map[Reason]int64 `json:"by_reason"`
}
