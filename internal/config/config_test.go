package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: desk-dashboard
feeds:
  coincap:
    url: wss://ws.coincap.io/prices
  binance:
    url: wss://stream.binance.com:9443/ws
    subscribe_id: 7
instruments:
  - name: bitcoin
    binance_symbol: btcusdt
  - name: ethereum
    binance_symbol: ETHUSDT
connections:
  reconnect_delay: 3s
  reconnect_max_delay: 30s
history:
  max_samples: 50
server:
  port: 9000
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "desk-dashboard" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "desk-dashboard")
	}
	if cfg.Feeds.Binance.SubscribeID != 7 {
		t.Errorf("Feeds.Binance.SubscribeID = %d, want 7", cfg.Feeds.Binance.SubscribeID)
	}
	if len(cfg.Instruments) != 2 {
		t.Fatalf("len(Instruments) = %d, want 2", len(cfg.Instruments))
	}
	if cfg.Instruments[1].BinanceSymbol != "ETHUSDT" {
		t.Errorf("Instruments[1].BinanceSymbol = %q, want %q", cfg.Instruments[1].BinanceSymbol, "ETHUSDT")
	}
	if cfg.Connections.ReconnectDelay != 3*time.Second {
		t.Errorf("Connections.ReconnectDelay = %v, want 3s", cfg.Connections.ReconnectDelay)
	}
	if cfg.Connections.ReconnectMaxDelay != 30*time.Second {
		t.Errorf("Connections.ReconnectMaxDelay = %v, want 30s", cfg.Connections.ReconnectMaxDelay)
	}
	if cfg.History.MaxSamples != 50 {
		t.Errorf("History.MaxSamples = %d, want 50", cfg.History.MaxSamples)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeTempFile(t, "instance: [unterminated")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() expected error for invalid yaml")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_ARCHIVE_PASSWORD", "secret123")

	yaml := `
instance:
  id: desk-dashboard
archive:
  enabled: true
  backend: postgres
  database:
    host: localhost
    name: prices
    user: dash
    password: ${TEST_ARCHIVE_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.Archive.Database.Password != "secret123" {
		t.Errorf("Archive.Database.Password = %q, want %q", cfg.Archive.Database.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, "instance:\n  id: desk-dashboard\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Feeds.CoinCap.URL != DefaultCoinCapURL {
		t.Errorf("Feeds.CoinCap.URL = %q, want default %q", cfg.Feeds.CoinCap.URL, DefaultCoinCapURL)
	}
	if cfg.Feeds.Binance.URL != DefaultBinanceURL {
		t.Errorf("Feeds.Binance.URL = %q, want default %q", cfg.Feeds.Binance.URL, DefaultBinanceURL)
	}
	if cfg.Connections.ReconnectDelay != DefaultReconnectDelay {
		t.Errorf("Connections.ReconnectDelay = %v, want default %v", cfg.Connections.ReconnectDelay, DefaultReconnectDelay)
	}
	if cfg.Connections.ReconnectMaxDelay != DefaultReconnectDelay {
		t.Errorf("Connections.ReconnectMaxDelay = %v, want fixed delay %v", cfg.Connections.ReconnectMaxDelay, DefaultReconnectDelay)
	}
	if cfg.History.MaxSamples != DefaultMaxSamples {
		t.Errorf("History.MaxSamples = %d, want default %d", cfg.History.MaxSamples, DefaultMaxSamples)
	}
	if cfg.Clock.Interval != DefaultClockInterval {
		t.Errorf("Clock.Interval = %v, want default %v", cfg.Clock.Interval, DefaultClockInterval)
	}
	if cfg.Archive.Database.Port != DefaultDBPort {
		t.Errorf("Archive.Database.Port = %d, want default %d", cfg.Archive.Database.Port, DefaultDBPort)
	}

	want := []string{"bitcoin", "ethereum", "monero", "litecoin"}
	if len(cfg.Instruments) != len(want) {
		t.Fatalf("len(Instruments) = %d, want %d", len(cfg.Instruments), len(want))
	}
	for i, name := range want {
		if cfg.Instruments[i].Name != name {
			t.Errorf("Instruments[%d].Name = %q, want %q", i, cfg.Instruments[i].Name, name)
		}
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() unexpected error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *DashboardConfig)
		wantErr string
	}{
		{
			name:    "missing instance id",
			mutate:  func(c *DashboardConfig) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name: "both feeds disabled",
			mutate: func(c *DashboardConfig) {
				c.Feeds.CoinCap.Disabled = true
				c.Feeds.Binance.Disabled = true
			},
			wantErr: "feeds: at least one feed must be enabled",
		},
		{
			name:    "duplicate instrument",
			mutate:  func(c *DashboardConfig) { c.Instruments[1].Name = "bitcoin" },
			wantErr: `instruments[1].name "bitcoin" is duplicated`,
		},
		{
			name:    "duplicate symbol ignores case",
			mutate:  func(c *DashboardConfig) { c.Instruments[1].BinanceSymbol = "BTCUSDT" },
			wantErr: `instruments[1].binance_symbol "BTCUSDT" is duplicated`,
		},
		{
			name:    "missing symbol",
			mutate:  func(c *DashboardConfig) { c.Instruments[2].BinanceSymbol = "" },
			wantErr: "instruments[2].binance_symbol is required",
		},
		{
			name:    "max delay below delay",
			mutate:  func(c *DashboardConfig) { c.Connections.ReconnectMaxDelay = time.Second },
			wantErr: "connections.reconnect_max_delay (1s) cannot be less than reconnect_delay (5s)",
		},
		{
			name:    "zero history",
			mutate:  func(c *DashboardConfig) { c.History.MaxSamples = 0 },
			wantErr: "history.max_samples must be >= 1",
		},
		{
			name:    "port out of range",
			mutate:  func(c *DashboardConfig) { c.Server.Port = 70000 },
			wantErr: "server.port must be between 1 and 65535, got 70000",
		},
		{
			name: "archive unknown backend",
			mutate: func(c *DashboardConfig) {
				c.Archive.Enabled = true
				c.Archive.Backend = "redis"
			},
			wantErr: `archive.backend must be postgres or sqlite, got "redis"`,
		},
		{
			name: "archive postgres missing host",
			mutate: func(c *DashboardConfig) {
				c.Archive.Enabled = true
				c.Archive.Backend = "postgres"
			},
			wantErr: "archive.database.host is required",
		},
		{
			name: "archive min_conns exceeds max_conns",
			mutate: func(c *DashboardConfig) {
				c.Archive.Enabled = true
				c.Archive.Backend = "postgres"
				c.Archive.Database = DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 2, MinConns: 5}
			},
			wantErr: "archive.database.min_conns (5) cannot exceed max_conns (2)",
		},
		{
			name: "archive disabled skips database checks",
			mutate: func(c *DashboardConfig) {
				c.Archive.Backend = "postgres"
			},
			wantErr: "",
		},
		{
			name:    "bad log level",
			mutate:  func(c *DashboardConfig) { c.Log.Level = "verbose" },
			wantErr: `log.level must be one of debug, info, warn, error, got "verbose"`,
		},
		{
			name:    "valid config",
			mutate:  func(c *DashboardConfig) {},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := (LogConfig{Level: tt.level}).SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestExampleConfig(t *testing.T) {
	t.Setenv("PRICEDASH_DB_PASSWORD", "s3cret")

	cfg, err := LoadAndValidate("../../configs/dashboard.example.yaml")
	if err != nil {
		t.Fatalf("LoadAndValidate() error = %v", err)
	}
	if len(cfg.Instruments) != 4 {
		t.Errorf("instruments = %d, want 4", len(cfg.Instruments))
	}
	if cfg.Archive.Database.Password != "s3cret" {
		t.Errorf("password = %q, want expanded env value", cfg.Archive.Database.Password)
	}
	if cfg.Connections.ReconnectDelay != DefaultReconnectDelay {
		t.Errorf("reconnect_delay = %v", cfg.Connections.ReconnectDelay)
	}
}
