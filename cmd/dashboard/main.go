// dashboard streams crypto prices from CoinCap and Binance and serves the
// live dashboard over HTTP and WebSocket.
// Usage: go run ./cmd/dashboard --config configs/dashboard.example.yaml
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/pricedash/internal/archive"
	"github.com/rickgao/pricedash/internal/config"
	"github.com/rickgao/pricedash/internal/connection"
	"github.com/rickgao/pricedash/internal/dashboard"
	"github.com/rickgao/pricedash/internal/market"
	"github.com/rickgao/pricedash/internal/model"
	"github.com/rickgao/pricedash/internal/server"
	"github.com/rickgao/pricedash/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (built-in defaults if empty)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("starting dashboard",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"instance_id", cfg.Instance.ID,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("dashboard failed", "error", err)
		os.Exit(1)
	}
	logger.Info("dashboard stopped")
}

func loadConfig(path string) (*config.DashboardConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadAndValidate(path)
}

func run(ctx context.Context, cfg *config.DashboardConfig, logger *slog.Logger) error {
	catalog := market.NewCatalog(cfg.Instruments)

	setups, err := dashboard.FeedSetups(cfg, catalog)
	if err != nil {
		return err
	}

	pipelines := make([]*dashboard.Pipeline, 0, len(setups))
	for _, s := range setups {
		pipelines = append(pipelines, dashboard.NewPipeline(s.Adapter, catalog.Names(),
			model.WithMaxSamples(cfg.History.MaxSamples)))
	}

	hub := server.NewHub(logger.With("component", "hub"))

	var opts []dashboard.Option
	var writer *archive.Writer
	if cfg.Archive.Enabled {
		store, err := archive.Open(ctx, cfg.Archive, cfg.Instance.ID)
		if err != nil {
			return err
		}
		defer store.Close()

		writer = archive.NewWriter(archive.ConfigFrom(cfg.Archive), store, logger.With("component", "archive"))
		if err := writer.Start(ctx); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			writer.Stop(shutdownCtx)
		}()
		opts = append(opts, dashboard.WithRecorder(writer))
		logger.Info("archive enabled", "backend", cfg.Archive.Backend)
	}

	dash := dashboard.New(dashboard.Config{
		ClockInterval: cfg.Clock.Interval,
	}, catalog, pipelines, hub, logger.With("component", "dashboard"), opts...)

	srv := server.New(server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		Debug:           cfg.Server.Debug,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, hub, dash, logger.With("component", "server"))

	// Every feed writes into one channel consumed by the dispatch loop.
	frames := make(chan connection.RawMessage, cfg.Connections.BufferSize)

	conns := make([]*connection.FeedConn, 0, len(setups))
	for _, s := range setups {
		conns = append(conns, connection.NewFeedConn(s.Conn, frames, dash.SetConnectionState, logger))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return dash.Run(gctx, frames) })
	g.Go(func() error { return srv.Run(gctx) })

	for _, c := range conns {
		if err := c.Start(gctx); err != nil {
			return err
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		for _, c := range conns {
			c.Stop(shutdownCtx)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				logStats(logger, dash, conns, writer)
			}
		}
	})

	logger.Info("dashboard running",
		"addr", cfg.Server.Host,
		"port", cfg.Server.Port,
		"feeds", len(conns),
		"instruments", catalog.Names(),
	)

	return g.Wait()
}

func logStats(logger *slog.Logger, dash *dashboard.Dashboard, conns []*connection.FeedConn, writer *archive.Writer) {
	stats := dash.Stats()
	logger.Info("dashboard stats",
		"selection", stats.Selection,
		"cycles", stats.Cycles,
		"rejected", stats.Rejected,
	)
	for _, c := range conns {
		cs := c.Stats()
		logger.Info("feed stats",
			"feed", cs.Feed,
			"state", cs.State,
			"messages", cs.Messages,
			"reconnects", cs.Reconnects,
			"failures", cs.Failures,
		)
	}
	if writer != nil {
		ws := writer.Stats()
		logger.Info("archive stats",
			"inserts", ws.Inserts,
			"conflicts", ws.Conflicts,
			"errors", ws.Errors,
			"dropped", ws.Dropped,
		)
	}
}
