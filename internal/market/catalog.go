package market

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rickgao/pricedash/internal/config"
)

// Feed identifiers.
const (
	FeedCoinCap = "coincap"
	FeedBinance = "binance"
)

// Feeds lists the known feeds in display order.
var Feeds = []string{FeedCoinCap, FeedBinance}

// binanceStreamSuffix selects the individual trade stream for a symbol.
const binanceStreamSuffix = "@trade"

// Instrument is one tracked instrument and its per-feed identifiers.
type Instrument struct {
	Name          string // CoinCap asset id, used as the canonical name
	BinanceSymbol string // lower-case trading pair, e.g. "btcusdt"
}

// Catalog is the fixed, ordered set of tracked instruments.
// It is immutable after construction and safe for concurrent use.
type Catalog struct {
	instruments []Instrument
	byName      map[string]int
	bySymbol    map[string]string
}

// NewCatalog builds a catalog from configuration, preserving order.
// Symbols are normalized to lower case.
func NewCatalog(cfgs []config.InstrumentConfig) *Catalog {
	c := &Catalog{
		instruments: make([]Instrument, 0, len(cfgs)),
		byName:      make(map[string]int, len(cfgs)),
		bySymbol:    make(map[string]string, len(cfgs)),
	}
	for _, ic := range cfgs {
		if _, dup := c.byName[ic.Name]; dup {
			continue
		}
		inst := Instrument{Name: ic.Name, BinanceSymbol: strings.ToLower(ic.BinanceSymbol)}
		c.byName[inst.Name] = len(c.instruments)
		c.instruments = append(c.instruments, inst)
		if inst.BinanceSymbol != "" {
			c.bySymbol[inst.BinanceSymbol] = inst.Name
		}
	}
	return c
}

// Instruments returns a copy of the instruments in catalog order.
func (c *Catalog) Instruments() []Instrument {
	out := make([]Instrument, len(c.instruments))
	copy(out, c.instruments)
	return out
}

// Names returns the instrument names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.instruments))
	for i, inst := range c.instruments {
		names[i] = inst.Name
	}
	return names
}

// Has reports whether name is a tracked instrument.
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Default returns the first instrument name, or "" for an empty catalog.
func (c *Catalog) Default() string {
	if len(c.instruments) == 0 {
		return ""
	}
	return c.instruments[0].Name
}

// LookupSymbol maps a Binance symbol to an instrument name, ignoring case.
func (c *Catalog) LookupSymbol(symbol string) (string, bool) {
	name, ok := c.bySymbol[strings.ToLower(symbol)]
	return name, ok
}

// CoinCapURL returns base with the assets query parameter set to the
// instrument names. Commas are kept literal.
func (c *Catalog) CoinCapURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse coincap url: %w", err)
	}
	q := u.Query()
	q.Del("assets")
	assets := "assets=" + strings.Join(c.Names(), ",")
	if rest := q.Encode(); rest != "" {
		u.RawQuery = rest + "&" + assets
	} else {
		u.RawQuery = assets
	}
	return u.String(), nil
}

// BinanceStreams returns the trade stream names to subscribe to.
func (c *Catalog) BinanceStreams() []string {
	streams := make([]string, 0, len(c.instruments))
	for _, inst := range c.instruments {
		if inst.BinanceSymbol == "" {
			continue
		}
		streams = append(streams, inst.BinanceSymbol+binanceStreamSuffix)
	}
	return streams
}
