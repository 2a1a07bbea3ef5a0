// Package model holds the per-feed instrument state of the dashboard.
//
// A Store is created once per feed with the fixed instrument list and is
// mutated in place by Apply. It tracks for every instrument:
//   - the current, highest and lowest price seen since startup
//   - a chronological price history bounded to a fixed number of samples
//
// Conventions:
//   - Prices: float64 quote-currency units (USD)
//   - Timestamps: time.Time taken from the store clock when a price is applied
//   - Nullable prices are *float64 in snapshots (nil until the first sample)
package model
