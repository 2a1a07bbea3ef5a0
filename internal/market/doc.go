// Package market holds the catalog of tracked instruments.
//
// The catalog maps each instrument to its identifier on every upstream feed:
//   - CoinCap uses the asset id directly ("bitcoin") as the instrument name
//   - Binance uses a trading pair symbol ("BTCUSDT"), matched case-insensitively
//
// It also derives the per-feed subscription details (CoinCap assets query,
// Binance trade stream names) from the same list.
package market
