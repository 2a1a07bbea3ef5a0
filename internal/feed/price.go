package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var errNotPrice = errors.New("not a price")

// parsePrice parses a decimal price string exactly, then converts it.
// Values outside the float64 range are rejected.
func parsePrice(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return math.NaN(), fmt.Errorf("parse price %q: %w", s, err)
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) {
		return math.NaN(), fmt.Errorf("parse price %q: out of range", s)
	}
	return f, nil
}

// parseJSONPrice accepts a JSON string or number holding a decimal price.
func parseJSONPrice(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return math.NaN(), errNotPrice
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return math.NaN(), err
		}
		return parsePrice(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return parsePrice(string(raw))
	default:
		return math.NaN(), fmt.Errorf("%w: %s", errNotPrice, raw)
	}
}

// parseRawPrice is parseJSONPrice with failures mapped to NaN, so the
// store can reject them visibly.
func parseRawPrice(raw json.RawMessage) float64 {
	f, err := parseJSONPrice(raw)
	if err != nil {
		return math.NaN()
	}
	return f
}
