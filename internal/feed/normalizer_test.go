package feed

import (
	"errors"
	"testing"
)

func TestNormalizer_CountsEveryFrame(t *testing.T) {
	n := NewNormalizer(newBinanceAdapter())

	frames := []string{
		`{"result":null,"id":1}`,
		`{"e":"trade","s":"BTCUSDT","p":"42000.5"}`,
		`{"e":"trade","s":"DOGEUSDT","p":"0.12"}`,
		`{"e":"aggTrade","s":"BTCUSDT","p":"42000.5"}`,
		`garbage`,
		`{"e":"trade","s":"ETHUSDT","p":"2500"}`,
	}

	var updates int
	for _, f := range frames {
		_, update, err := n.Handle([]byte(f))
		if err != nil && !errors.Is(err, ErrMalformedPayload) {
			t.Fatalf("Handle(%q) unexpected error: %v", f, err)
		}
		if update != nil {
			updates++
		}
	}

	if updates != 2 {
		t.Errorf("updates = %d, want 2", updates)
	}
	if n.Count() != int64(len(frames)) {
		t.Errorf("Count() = %d, want %d", n.Count(), len(frames))
	}

	stats := n.Stats()
	if stats.Received != 6 || stats.Normalized != 2 || stats.NotApplicable != 3 || stats.ParseErrors != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
	if stats.ByReason[ReasonControl] != 1 || stats.ByReason[ReasonUnknownSymbol] != 1 || stats.ByReason[ReasonIgnoredEvent] != 1 {
		t.Errorf("ByReason = %v", stats.ByReason)
	}
}

func TestNormalizer_Feed(t *testing.T) {
	if got := NewNormalizer(NewCoinCapAdapter()).Feed(); got != "coincap" {
		t.Errorf("Feed() = %q, want coincap", got)
	}
	if got := NewNormalizer(newBinanceAdapter()).Feed(); got != "binance" {
		t.Errorf("Feed() = %q, want binance", got)
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		msg  Message
		want string
	}{
		{MultiInstrumentUpdate{}, "multi_instrument_update"},
		{SingleTradeEvent{}, "single_trade_event"},
		{Unrecognized{}, "unrecognized"},
		{nil, "none"},
	}
	for _, tt := range tests {
		if got := Kind(tt.msg); got != tt.want {
			t.Errorf("Kind(%T) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}

func TestNormalizer_MistypedFieldsAreNotParseErrors(t *testing.T) {
	n := NewNormalizer(newBinanceAdapter())

	for _, f := range []string{
		`{"e":"depthUpdate","s":"BTCUSDT","p":[1]}`,
		`{"e":"trade","s":"BTCUSDT","p":{"v":1}}`,
		`{"e":"trade","s":"BTCUSDT","p":42000.5,"t":"abc"}`,
	} {
		if _, _, err := n.Handle([]byte(f)); err != nil {
			t.Errorf("Handle(%q) error = %v, want nil", f, err)
		}
	}

	stats := n.Stats()
	if stats.ParseErrors != 0 {
		t.Errorf("ParseErrors = %d, want 0", stats.ParseErrors)
	}
	if stats.Normalized != 1 || stats.ByReason[ReasonIgnoredEvent] != 1 || stats.ByReason[ReasonBadPrice] != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
}
