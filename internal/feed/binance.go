package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rickgao/pricedash/internal/market"
)

const binanceTradeEvent = "trade"

// binanceEnvelope is decoded first to route a frame by its event type.
type binanceEnvelope struct {
	Event json.RawMessage `json:"e"`
	ID    json.RawMessage `json:"id"`
	Error json.RawMessage `json:"error"`
}

// binanceTrade is the payload of a "trade" event. Fields are kept raw so
// a mistyped field never fails the whole frame.
type binanceTrade struct {
	Symbol    json.RawMessage `json:"s"`
	TradeID   json.RawMessage `json:"t"`
	Price     json.RawMessage `json:"p"`
	TradeTime json.RawMessage `json:"T"`
}

// BinanceAdapter classifies frames of the Binance raw trade stream.
type BinanceAdapter struct {
	catalog *market.Catalog
}

// NewBinanceAdapter creates a Binance adapter resolving symbols via catalog.
func NewBinanceAdapter(catalog *market.Catalog) *BinanceAdapter {
	return &BinanceAdapter{catalog: catalog}
}

// Feed returns the feed identifier.
func (a *BinanceAdapter) Feed() string {
	return market.FeedBinance
}

// Classify decodes a trade frame. Only "trade" events for known symbols
// with a parsable price become SingleTradeEvent. Only a frame that is not
// a JSON object is an error.
func (a *BinanceAdapter) Classify(data []byte) (Message, error) {
	var env binanceEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if isAbsent(env.Event) {
		if !isAbsent(env.ID) {
			detail := "subscription response"
			if !isAbsent(env.Error) {
				detail = "subscription error: " + string(env.Error)
			}
			return Unrecognized{Reason: ReasonControl, Detail: detail}, nil
		}
		return Unrecognized{Reason: ReasonIgnoredEvent, Detail: "missing event type"}, nil
	}

	event, ok := rawString(env.Event)
	if !ok {
		return Unrecognized{Reason: ReasonIgnoredEvent, Detail: string(env.Event)}, nil
	}
	if event != binanceTradeEvent {
		return Unrecognized{Reason: ReasonIgnoredEvent, Detail: event}, nil
	}

	var trade binanceTrade
	if err := json.Unmarshal(data, &trade); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	symbol, _ := rawString(trade.Symbol)
	name, ok := a.catalog.LookupSymbol(symbol)
	if !ok {
		return Unrecognized{Reason: ReasonUnknownSymbol, Detail: string(trade.Symbol)}, nil
	}

	price, err := parseJSONPrice(trade.Price)
	if err != nil {
		return Unrecognized{Reason: ReasonBadPrice, Detail: string(trade.Price)}, nil
	}

	msg := SingleTradeEvent{
		Symbol:     symbol,
		Instrument: name,
		Price:      price,
	}
	// trade id and time are informational; mistyped values are left zero
	json.Unmarshal(trade.TradeID, &msg.TradeID)
	var tradeTime int64
	if json.Unmarshal(trade.TradeTime, &tradeTime) == nil && tradeTime > 0 {
		msg.TradeTime = time.UnixMilli(tradeTime)
	}
	return msg, nil
}

// isAbsent reports whether a raw field is missing or null.
func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// rawString decodes a raw field holding a JSON string.
func rawString(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}
