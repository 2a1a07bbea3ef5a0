// feedprobe connects to the upstream price feeds and prints normalized
// updates to the console.
// Usage: go run ./cmd/feedprobe --feed binance --verbose
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rickgao/pricedash/internal/config"
	"github.com/rickgao/pricedash/internal/connection"
	"github.com/rickgao/pricedash/internal/dashboard"
	"github.com/rickgao/pricedash/internal/feed"
	"github.com/rickgao/pricedash/internal/market"
	"github.com/rickgao/pricedash/internal/model"
	"github.com/rickgao/pricedash/internal/presenter"
)

func main() {
	configPath := flag.String("config", "", "path to config file (built-in defaults if empty)")
	feedName := flag.String("feed", "all", "feed to probe: coincap, binance or all")
	verbose := flag.Bool("verbose", false, "print raw frames and ignored messages")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadAndValidate(*configPath); err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	switch strings.ToLower(*feedName) {
	case "all":
	case market.FeedCoinCap:
		cfg.Feeds.Binance.Disabled = true
		cfg.Feeds.CoinCap.Disabled = false
	case market.FeedBinance:
		cfg.Feeds.CoinCap.Disabled = true
		cfg.Feeds.Binance.Disabled = false
	default:
		logger.Error("unknown feed", "feed", *feedName)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog := market.NewCatalog(cfg.Instruments)
	setups, err := dashboard.FeedSetups(cfg, catalog)
	if err != nil {
		logger.Error("failed to build feeds", "error", err)
		os.Exit(1)
	}

	frames := make(chan connection.RawMessage, cfg.Connections.BufferSize)
	pipelines := make(map[string]*dashboard.Pipeline, len(setups))
	conns := make([]*connection.FeedConn, 0, len(setups))
	onState := func(name string, state connection.State) {
		fmt.Printf("[%s] connection %s\n", strings.ToUpper(name), state)
	}

	for _, s := range setups {
		pipelines[s.Name] = dashboard.NewPipeline(s.Adapter, catalog.Names(),
			model.WithMaxSamples(cfg.History.MaxSamples))
		c := connection.NewFeedConn(s.Conn, frames, onState, logger)
		if err := c.Start(ctx); err != nil {
			logger.Error("failed to start feed", "feed", s.Name, "error", err)
			os.Exit(1)
		}
		conns = append(conns, c)
	}

	go printStats(ctx, pipelines, conns, logger)

	logger.Info("streaming started - press Ctrl+C to stop")

	pres := presenter.New()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case raw := <-frames:
			printFrame(pres, pipelines[raw.Feed], raw, *verbose)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down...")
	for _, c := range conns {
		c.Stop(shutdownCtx)
	}
	logger.Info("shutdown complete")
}

func printFrame(pres *presenter.Presenter, p *dashboard.Pipeline, raw connection.RawMessage, verbose bool) {
	if p == nil {
		return
	}
	tag := strings.ToUpper(raw.Feed)
	if verbose {
		fmt.Printf("[%s RAW] %s\n", tag, raw.Data)
	}

	msg, update, err := p.Normalizer.Handle(raw.Data)
	if err != nil {
		fmt.Printf("[%s ERROR] %v\n", tag, err)
		return
	}

	switch m := msg.(type) {
	case feed.SingleTradeEvent:
		fmt.Printf("[%s TRADE] symbol=%s instrument=%s price=%s id=%d time=%s\n",
			tag, m.Symbol, m.Instrument, pres.FormatAmount(m.Price), m.TradeID, m.TradeTime.Format(time.RFC3339Nano))
	case feed.Unrecognized:
		if verbose {
			fmt.Printf("[%s IGNORED] reason=%s detail=%s\n", tag, m.Reason, m.Detail)
		}
		return
	}

	res := p.Store.Apply(update)
	for _, r := range res.Rejected {
		fmt.Printf("[%s REJECTED] instrument=%s error=%v\n", tag, r.Instrument, r.Err)
	}
	for _, inst := range res.Changed {
		v := pres.Render(inst)
		fmt.Printf("[%s PRICE] %s  %s  %s\n", tag, v.PriceLabel, v.DeltaLabel, v.RangeLabel)
	}
}

func printStats(ctx context.Context, pipelines map[string]*dashboard.Pipeline, conns []*connection.FeedConn, logger *slog.Logger) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, c := range conns {
				cs := c.Stats()
				fs := pipelines[c.Name()].Normalizer.Stats()
				logger.Info("stats",
					"feed", cs.Feed,
					"state", cs.State,
					"received", fs.Received,
					"normalized", fs.Normalized,
					"not_applicable", fs.NotApplicable,
					"parse_errors", fs.ParseErrors,
					"reconnects", cs.Reconnects,
				)
			}
		}
	}
}
