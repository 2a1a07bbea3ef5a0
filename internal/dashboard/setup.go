package dashboard

import (
	"fmt"
	"net/http"

	"github.com/rickgao/pricedash/internal/config"
	"github.com/rickgao/pricedash/internal/connection"
	"github.com/rickgao/pricedash/internal/feed"
	"github.com/rickgao/pricedash/internal/market"
	"github.com/rickgao/pricedash/internal/version"
)

// FeedSetup is everything needed to run one enabled feed.
type FeedSetup struct {
	Name    string
	Adapter feed.Adapter
	Conn    connection.FeedConfig
}

// FeedSetups builds adapters and connection settings for every enabled
// feed, in market.Feeds order.
func FeedSetups(cfg *config.DashboardConfig, catalog *market.Catalog) ([]FeedSetup, error) {
	header := http.Header{}
	header.Set("User-Agent", "pricedash/"+version.Version)

	client := connection.ClientConfig{
		Header:           header,
		HandshakeTimeout: cfg.Connections.HandshakeTimeout,
		PingInterval:     cfg.Connections.PingInterval,
		PingTimeout:      cfg.Connections.PingTimeout,
		WriteTimeout:     cfg.Connections.WriteTimeout,
		BufferSize:       cfg.Connections.BufferSize,
	}

	var setups []FeedSetup
	for _, name := range market.Feeds {
		fc := connection.FeedConfig{
			Name:              name,
			ReconnectDelay:    cfg.Connections.ReconnectDelay,
			ReconnectMaxDelay: cfg.Connections.ReconnectMaxDelay,
			Client:            client,
		}

		var adapter feed.Adapter
		switch name {
		case market.FeedCoinCap:
			if cfg.Feeds.CoinCap.Disabled {
				continue
			}
			url, err := catalog.CoinCapURL(cfg.Feeds.CoinCap.URL)
			if err != nil {
				return nil, fmt.Errorf("coincap url: %w", err)
			}
			fc.Client.URL = url
			adapter = feed.NewCoinCapAdapter()

		case market.FeedBinance:
			if cfg.Feeds.Binance.Disabled {
				continue
			}
			fc.Client.URL = cfg.Feeds.Binance.URL
			fc.Subscribe = connection.NewSubscribeCommand(catalog.BinanceStreams(), cfg.Feeds.Binance.SubscribeID)
			adapter = feed.NewBinanceAdapter(catalog)

		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownFeed, name)
		}

		setups = append(setups, FeedSetup{Name: name, Adapter: adapter, Conn: fc})
	}
	return setups, nil
}
