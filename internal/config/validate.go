package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *DashboardConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Feeds.CoinCap.Disabled && c.Feeds.Binance.Disabled {
		return errors.New("feeds: at least one feed must be enabled")
	}
	if !c.Feeds.CoinCap.Disabled && c.Feeds.CoinCap.URL == "" {
		return errors.New("feeds.coincap.url is required")
	}
	if !c.Feeds.Binance.Disabled && c.Feeds.Binance.URL == "" {
		return errors.New("feeds.binance.url is required")
	}

	if err := validateInstruments(c.Instruments); err != nil {
		return err
	}

	if c.Connections.ReconnectDelay <= 0 {
		return errors.New("connections.reconnect_delay must be > 0")
	}
	if c.Connections.ReconnectMaxDelay < c.Connections.ReconnectDelay {
		return fmt.Errorf("connections.reconnect_max_delay (%s) cannot be less than reconnect_delay (%s)",
			c.Connections.ReconnectMaxDelay, c.Connections.ReconnectDelay)
	}
	if c.Connections.BufferSize < 1 {
		return errors.New("connections.buffer_size must be >= 1")
	}

	if c.History.MaxSamples < 1 {
		return errors.New("history.max_samples must be >= 1")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Clock.Interval <= 0 {
		return errors.New("clock.interval must be > 0")
	}

	if err := c.Archive.validate(); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	return nil
}

func validateInstruments(instruments []InstrumentConfig) error {
	if len(instruments) == 0 {
		return errors.New("instruments: at least one instrument is required")
	}
	names := make(map[string]bool, len(instruments))
	symbols := make(map[string]bool, len(instruments))
	for i, inst := range instruments {
		if inst.Name == "" {
			return fmt.Errorf("instruments[%d].name is required", i)
		}
		if names[inst.Name] {
			return fmt.Errorf("instruments[%d].name %q is duplicated", i, inst.Name)
		}
		names[inst.Name] = true

		if inst.BinanceSymbol == "" {
			return fmt.Errorf("instruments[%d].binance_symbol is required", i)
		}
		sym := strings.ToLower(inst.BinanceSymbol)
		if symbols[sym] {
			return fmt.Errorf("instruments[%d].binance_symbol %q is duplicated", i, inst.BinanceSymbol)
		}
		symbols[sym] = true
	}
	return nil
}

func (a *ArchiveConfig) validate() error {
	if !a.Enabled {
		return nil
	}
	switch a.Backend {
	case "postgres":
		if err := a.Database.validate("archive.database"); err != nil {
			return err
		}
	case "sqlite":
		if a.SQLitePath == "" {
			return errors.New("archive.sqlite_path is required")
		}
	default:
		return fmt.Errorf("archive.backend must be postgres or sqlite, got %q", a.Backend)
	}
	if a.BatchSize < 1 {
		return errors.New("archive.batch_size must be >= 1")
	}
	if a.QueueSize < a.BatchSize {
		return fmt.Errorf("archive.queue_size (%d) cannot be less than batch_size (%d)", a.QueueSize, a.BatchSize)
	}
	if a.FlushInterval <= 0 {
		return errors.New("archive.flush_interval must be > 0")
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
