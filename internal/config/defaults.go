package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultInstanceID       = "pricedash"
	DefaultCoinCapURL       = "wss://ws.coincap.io/prices"
	DefaultBinanceURL       = "wss://stream.binance.com:9443/ws"
	DefaultSubscribeID      = 1
	DefaultReconnectDelay   = 5 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultPingInterval     = 30 * time.Second
	DefaultPingTimeout      = 90 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
	DefaultBufferSize       = 1000
	DefaultMaxSamples       = 100
	DefaultServerHost       = "0.0.0.0"
	DefaultServerPort       = 8080
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultClockInterval    = 1 * time.Second
	DefaultArchiveBackend   = "sqlite"
	DefaultSQLitePath       = "pricedash.db"
	DefaultArchiveBatchSize = 500
	DefaultArchiveFlush     = 2 * time.Second
	DefaultArchiveQueueSize = 10000
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 4
	DefaultMinConns         = 1
	DefaultLogLevel         = "info"
)

// DefaultInstruments is the tracked instrument set used when none is configured.
func DefaultInstruments() []InstrumentConfig {
	return []InstrumentConfig{
		{Name: "bitcoin", BinanceSymbol: "btcusdt"},
		{Name: "ethereum", BinanceSymbol: "ethusdt"},
		{Name: "monero", BinanceSymbol: "xmrusdt"},
		{Name: "litecoin", BinanceSymbol: "ltcusdt"},
	}
}

func (c *DashboardConfig) applyDefaults() {
	// Feed defaults
	if c.Feeds.CoinCap.URL == "" {
		c.Feeds.CoinCap.URL = DefaultCoinCapURL
	}
	if c.Feeds.Binance.URL == "" {
		c.Feeds.Binance.URL = DefaultBinanceURL
	}
	if c.Feeds.Binance.SubscribeID == 0 {
		c.Feeds.Binance.SubscribeID = DefaultSubscribeID
	}

	if len(c.Instruments) == 0 {
		c.Instruments = DefaultInstruments()
	}

	// Connections defaults
	if c.Connections.ReconnectDelay == 0 {
		c.Connections.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Connections.ReconnectMaxDelay == 0 {
		// fixed delay unless a cap is configured
		c.Connections.ReconnectMaxDelay = c.Connections.ReconnectDelay
	}
	if c.Connections.HandshakeTimeout == 0 {
		c.Connections.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Connections.PingInterval == 0 {
		c.Connections.PingInterval = DefaultPingInterval
	}
	if c.Connections.PingTimeout == 0 {
		c.Connections.PingTimeout = DefaultPingTimeout
	}
	if c.Connections.WriteTimeout == 0 {
		c.Connections.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connections.BufferSize == 0 {
		c.Connections.BufferSize = DefaultBufferSize
	}

	if c.History.MaxSamples == 0 {
		c.History.MaxSamples = DefaultMaxSamples
	}

	// Server defaults
	if c.Server.Host == "" {
		c.Server.Host = DefaultServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Clock.Interval == 0 {
		c.Clock.Interval = DefaultClockInterval
	}

	// Archive defaults
	if c.Archive.Backend == "" {
		c.Archive.Backend = DefaultArchiveBackend
	}
	if c.Archive.SQLitePath == "" {
		c.Archive.SQLitePath = DefaultSQLitePath
	}
	if c.Archive.BatchSize == 0 {
		c.Archive.BatchSize = DefaultArchiveBatchSize
	}
	if c.Archive.FlushInterval == 0 {
		c.Archive.FlushInterval = DefaultArchiveFlush
	}
	if c.Archive.QueueSize == 0 {
		c.Archive.QueueSize = DefaultArchiveQueueSize
	}
	applyDBDefaults(&c.Archive.Database)

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
