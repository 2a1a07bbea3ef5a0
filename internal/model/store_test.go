package model

import (
	"errors"
	"math"
	"testing"
	"time"
)

var testNames = []string{"bitcoin", "ethereum", "monero", "litecoin"}

// stepClock returns a clock that advances one second per call.
func stepClock(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * time.Second)
		n++
		return t
	}
}

func newTestStore(opts ...Option) *Store {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	opts = append([]Option{WithClock(stepClock(start))}, opts...)
	return NewStore("coincap", testNames, opts...)
}

func TestNewStore(t *testing.T) {
	s := newTestStore()

	snap := s.Snapshot()
	if len(snap) != len(testNames) {
		t.Fatalf("len(Snapshot()) = %d, want %d", len(snap), len(testNames))
	}
	for i, inst := range snap {
		if inst.Name != testNames[i] {
			t.Errorf("Snapshot()[%d].Name = %q, want %q", i, inst.Name, testNames[i])
		}
		if inst.HasData() {
			t.Errorf("%s.HasData() = true on a new store", inst.Name)
		}
		if inst.CurrentPrice != nil || inst.HighPrice != nil || inst.LowPrice != nil {
			t.Errorf("%s prices should be nil before the first sample", inst.Name)
		}
	}
	if s.MaxSamples() != DefaultMaxSamples {
		t.Errorf("MaxSamples() = %d, want %d", s.MaxSamples(), DefaultMaxSamples)
	}
}

func TestApply_HighLowInvariant(t *testing.T) {
	s := newTestStore()

	prices := []float64{42000.5, 41000, 43500.25, 42999.99, 40000, 40000, 45000}
	wantHigh := []float64{42000.5, 42000.5, 43500.25, 43500.25, 43500.25, 43500.25, 45000}
	wantLow := []float64{42000.5, 41000, 41000, 41000, 40000, 40000, 40000}

	for i, p := range prices {
		res := s.Apply(Update{{Instrument: "bitcoin", Price: p}})
		if len(res.Changed) != 1 {
			t.Fatalf("step %d: len(Changed) = %d, want 1", i, len(res.Changed))
		}
		inst := res.Changed[0]
		cur, high, low := *inst.CurrentPrice, *inst.HighPrice, *inst.LowPrice

		if cur != p {
			t.Errorf("step %d: current = %v, want %v", i, cur, p)
		}
		if high < cur || low > cur {
			t.Errorf("step %d: invariant broken: high=%v current=%v low=%v", i, high, cur, low)
		}
		if high != wantHigh[i] {
			t.Errorf("step %d: high = %v, want %v", i, high, wantHigh[i])
		}
		if low != wantLow[i] {
			t.Errorf("step %d: low = %v, want %v", i, low, wantLow[i])
		}
	}
}

func TestApply_HistoryBound(t *testing.T) {
	s := newTestStore()

	for i := 1; i <= 101; i++ {
		s.Apply(Update{{Instrument: "ethereum", Price: float64(i)}})

		inst, _ := s.Get("ethereum")
		if len(inst.History) > DefaultMaxSamples {
			t.Fatalf("after %d updates: len(History) = %d, exceeds %d", i, len(inst.History), DefaultMaxSamples)
		}
	}

	inst, _ := s.Get("ethereum")
	if len(inst.History) != DefaultMaxSamples {
		t.Fatalf("len(History) = %d, want %d", len(inst.History), DefaultMaxSamples)
	}
	// sample 1 dropped, samples 2..101 remain in order
	for i, sample := range inst.History {
		if want := float64(i + 2); sample.Price != want {
			t.Fatalf("History[%d].Price = %v, want %v", i, sample.Price, want)
		}
		if i > 0 && !sample.At.After(inst.History[i-1].At) {
			t.Fatalf("History[%d] is not after History[%d]", i, i-1)
		}
	}
}

func TestApply_CustomMaxSamples(t *testing.T) {
	s := newTestStore(WithMaxSamples(3))

	for i := 1; i <= 5; i++ {
		s.Apply(Update{{Instrument: "monero", Price: float64(i)}})
	}

	inst, _ := s.Get("monero")
	if len(inst.History) != 3 {
		t.Fatalf("len(History) = %d, want 3", len(inst.History))
	}
	if inst.History[0].Price != 3 || inst.History[2].Price != 5 {
		t.Errorf("History = %+v, want prices 3..5", inst.History)
	}
	// extremes survive history trimming
	if *inst.LowPrice != 1 || *inst.HighPrice != 5 {
		t.Errorf("low/high = %v/%v, want 1/5", *inst.LowPrice, *inst.HighPrice)
	}
}

func TestApply_UnknownInstrument(t *testing.T) {
	s := newTestStore()
	s.Apply(Update{{Instrument: "bitcoin", Price: 100}})
	before := s.Snapshot()

	res := s.Apply(Update{{Instrument: "dogecoin", Price: 0.12}})

	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
	if len(res.Changed) != 0 || len(res.Rejected) != 0 || len(res.Accepted) != 0 {
		t.Errorf("unexpected result for unknown instrument: %+v", res)
	}
	assertSnapshotsEqual(t, before, s.Snapshot())
}

func TestApply_NonFinitePrice(t *testing.T) {
	tests := []struct {
		name  string
		price float64
	}{
		{"nan", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			s.Apply(Update{{Instrument: "litecoin", Price: 70}})
			before := s.Snapshot()

			res := s.Apply(Update{{Instrument: "litecoin", Price: tt.price}})

			if len(res.Rejected) != 1 {
				t.Fatalf("len(Rejected) = %d, want 1", len(res.Rejected))
			}
			if !errors.Is(res.Rejected[0].Err, ErrNonFinitePrice) {
				t.Errorf("Rejected[0].Err = %v, want ErrNonFinitePrice", res.Rejected[0].Err)
			}
			if len(res.Changed) != 0 {
				t.Errorf("len(Changed) = %d, want 0", len(res.Changed))
			}
			assertSnapshotsEqual(t, before, s.Snapshot())
		})
	}
}

func TestApply_MultiplePairs(t *testing.T) {
	s := newTestStore()

	res := s.Apply(Update{
		{Instrument: "ethereum", Price: 2500},
		{Instrument: "dogecoin", Price: 0.1},
		{Instrument: "bitcoin", Price: 42000},
		{Instrument: "ethereum", Price: 2510},
		{Instrument: "monero", Price: math.NaN()},
	})

	if len(res.Changed) != 2 {
		t.Fatalf("len(Changed) = %d, want 2", len(res.Changed))
	}
	if res.Changed[0].Name != "ethereum" || res.Changed[1].Name != "bitcoin" {
		t.Errorf("Changed order = [%s %s], want [ethereum bitcoin]", res.Changed[0].Name, res.Changed[1].Name)
	}
	if len(res.Accepted) != 3 {
		t.Errorf("len(Accepted) = %d, want 3", len(res.Accepted))
	}
	if res.Skipped != 1 || len(res.Rejected) != 1 {
		t.Errorf("Skipped = %d, Rejected = %d, want 1 and 1", res.Skipped, len(res.Rejected))
	}

	eth, ok := res.ChangedNamed("ethereum")
	if !ok {
		t.Fatal("ChangedNamed(ethereum) not found")
	}
	if len(eth.History) != 2 || *eth.CurrentPrice != 2510 {
		t.Errorf("ethereum = %d samples at %v, want 2 samples at 2510", len(eth.History), *eth.CurrentPrice)
	}
	if _, ok := res.ChangedNamed("monero"); ok {
		t.Error("monero should not be reported as changed")
	}
}

func TestApply_EmptyUpdate(t *testing.T) {
	s := newTestStore()
	res := s.Apply(nil)
	if len(res.Changed) != 0 || res.Skipped != 0 {
		t.Errorf("Apply(nil) = %+v, want empty result", res)
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	s := newTestStore()
	s.Apply(Update{{Instrument: "bitcoin", Price: 100}})

	snap, _ := s.Get("bitcoin")
	snap.History[0].Price = -1
	*snap.CurrentPrice = -1

	again, _ := s.Get("bitcoin")
	if again.History[0].Price != 100 || *again.CurrentPrice != 100 {
		t.Error("mutating a snapshot changed the store")
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore()
	if _, ok := s.Get("dogecoin"); ok {
		t.Error("Get(dogecoin) found, want not found")
	}
}

func TestStores_Independent(t *testing.T) {
	coincap := NewStore("coincap", testNames)
	binance := NewStore("binance", testNames)

	coincap.Apply(Update{{Instrument: "bitcoin", Price: 1}})

	inst, _ := binance.Get("bitcoin")
	if inst.HasData() {
		t.Error("update to one store leaked into the other")
	}
	if coincap.Feed() != "coincap" || binance.Feed() != "binance" {
		t.Errorf("Feed() = %q/%q", coincap.Feed(), binance.Feed())
	}
}

func assertSnapshotsEqual(t *testing.T, want, got []Instrument) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("snapshot length changed: %d -> %d", len(want), len(got))
	}
	for i := range want {
		w, g := want[i], got[i]
		if w.Name != g.Name || len(w.History) != len(g.History) {
			t.Errorf("instrument %d changed: %+v -> %+v", i, w, g)
			continue
		}
		if !equalPtr(w.CurrentPrice, g.CurrentPrice) || !equalPtr(w.HighPrice, g.HighPrice) || !equalPtr(w.LowPrice, g.LowPrice) {
			t.Errorf("%s prices changed", w.Name)
		}
	}
}

func equalPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
