// Package feed turns raw upstream frames into normalized price updates.
//
// Each upstream has an Adapter that classifies one frame into a Message:
//   - MultiInstrumentUpdate: a CoinCap prices frame, {"bitcoin":"42000.51", ...}
//   - SingleTradeEvent: a Binance trade frame, {"e":"trade","s":"BTCUSDT","p":"42000.5", ...}
//   - Unrecognized: anything that carries no applicable price, with a Reason
//
// Normalize maps a Message to a model.Update. A Normalizer wraps an Adapter
// and keeps per-feed counters; every frame counts, applicable or not.
//
// Malformed payloads (not JSON, wrong shape) return ErrMalformedPayload.
// Everything else is "not applicable" and never an error.
package feed
