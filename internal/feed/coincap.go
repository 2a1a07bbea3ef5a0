package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rickgao/pricedash/internal/market"
	"github.com/rickgao/pricedash/internal/model"
)

// CoinCapAdapter classifies frames of the CoinCap prices stream.
// Asset ids are used as instrument names without mapping.
type CoinCapAdapter struct{}

// NewCoinCapAdapter creates a CoinCap adapter.
func NewCoinCapAdapter() *CoinCapAdapter {
	return &CoinCapAdapter{}
}

// Feed returns the feed identifier.
func (a *CoinCapAdapter) Feed() string {
	return market.FeedCoinCap
}

// Classify decodes a {"asset": price, ...} object, keeping key order.
// A repeated key keeps its first position and its last value.
func (a *CoinCapAdapter) Classify(data []byte) (Message, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected object, got %v", ErrMalformedPayload, tok)
	}

	var prices model.Update
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		name, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: value for %q: %v", ErrMalformedPayload, name, err)
		}
		pair := model.PricePair{Instrument: name, Price: parseRawPrice(raw)}
		if i, dup := index[name]; dup {
			prices[i] = pair
			continue
		}
		index[name] = len(prices)
		prices = append(prices, pair)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedPayload)
	}

	if len(prices) == 0 {
		return Unrecognized{Reason: ReasonControl, Detail: "empty prices object"}, nil
	}
	return MultiInstrumentUpdate{Prices: prices}, nil
}
