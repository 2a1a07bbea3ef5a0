package config

import (
	"log/slog"
	"strings"
	"time"
)

// DashboardConfig is the root configuration for a dashboard instance.
type DashboardConfig struct {
	Instance    InstanceConfig     `yaml:"instance"`
	Feeds       FeedsConfig        `yaml:"feeds"`
	Instruments []InstrumentConfig `yaml:"instruments"`
	Connections ConnectionsConfig  `yaml:"connections"`
	History     HistoryConfig      `yaml:"history"`
	Server      ServerConfig       `yaml:"server"`
	Clock       ClockConfig        `yaml:"clock"`
	Archive     ArchiveConfig      `yaml:"archive"`
	Log         LogConfig          `yaml:"log"`
}

// InstanceConfig identifies this dashboard.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// FeedsConfig holds the upstream feed endpoints.
type FeedsConfig struct {
	CoinCap FeedConfig `yaml:"coincap"`
	Binance FeedConfig `yaml:"binance"`
}

// FeedConfig holds a single upstream feed.
type FeedConfig struct {
	URL         string `yaml:"url"`
	Disabled    bool   `yaml:"disabled"`
	SubscribeID int64  `yaml:"subscribe_id"` // only used by feeds with an explicit subscribe frame
}

// InstrumentConfig describes one tracked instrument.
type InstrumentConfig struct {
	Name          string `yaml:"name"`           // CoinCap asset id, also the display name
	BinanceSymbol string `yaml:"binance_symbol"` // e.g. btcusdt
}

// ConnectionsConfig holds WebSocket connection settings shared by both feeds.
type ConnectionsConfig struct {
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	ReconnectMaxDelay time.Duration `yaml:"reconnect_max_delay"`
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	PingInterval      time.Duration `yaml:"ping_interval"`
	PingTimeout       time.Duration `yaml:"ping_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	BufferSize        int           `yaml:"buffer_size"`
}

// HistoryConfig bounds the per-instrument sample history.
type HistoryConfig struct {
	MaxSamples int `yaml:"max_samples"`
}

// ServerConfig holds the browser-facing HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Debug           bool          `yaml:"debug"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ClockConfig holds the clock refresh interval.
type ClockConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// ArchiveConfig holds the optional write-only sample archive.
type ArchiveConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Backend       string        `yaml:"backend"` // postgres or sqlite
	SQLitePath    string        `yaml:"sqlite_path"`
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	QueueSize     int           `yaml:"queue_size"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// SlogLevel maps the configured level name to a slog.Level.
// Unknown names fall back to info; Validate rejects them earlier.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
