package dashboard

import (
	"testing"

	"github.com/rickgao/pricedash/internal/config"
	"github.com/rickgao/pricedash/internal/market"
)

func TestFeedSetups(t *testing.T) {
	cfg := config.Default()
	catalog := market.NewCatalog(cfg.Instruments)

	setups, err := FeedSetups(cfg, catalog)
	if err != nil {
		t.Fatalf("FeedSetups() error = %v", err)
	}
	if len(setups) != 2 {
		t.Fatalf("setups = %d, want 2", len(setups))
	}

	coincap, binance := setups[0], setups[1]
	if coincap.Name != market.FeedCoinCap || binance.Name != market.FeedBinance {
		t.Fatalf("order = %s, %s", coincap.Name, binance.Name)
	}

	wantURL := "wss://ws.coincap.io/prices?assets=bitcoin,ethereum,monero,litecoin"
	if coincap.Conn.Client.URL != wantURL {
		t.Errorf("coincap url = %q, want %q", coincap.Conn.Client.URL, wantURL)
	}
	if coincap.Conn.Subscribe != nil {
		t.Error("coincap should not send a subscribe frame")
	}
	if coincap.Adapter.Feed() != market.FeedCoinCap {
		t.Errorf("coincap adapter feed = %q", coincap.Adapter.Feed())
	}

	sub := binance.Conn.Subscribe
	if sub == nil {
		t.Fatal("binance subscribe frame missing")
	}
	if sub.Method != "SUBSCRIBE" || sub.ID != 1 || len(sub.Params) != 4 || sub.Params[0] != "btcusdt@trade" {
		t.Errorf("subscribe = %+v", sub)
	}
	if binance.Conn.ReconnectDelay != cfg.Connections.ReconnectDelay {
		t.Errorf("reconnect delay = %v", binance.Conn.ReconnectDelay)
	}
	if ua := binance.Conn.Client.Header.Get("User-Agent"); ua == "" {
		t.Error("User-Agent header not set")
	}
}

func TestFeedSetupsSkipsDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Feeds.CoinCap.Disabled = true
	catalog := market.NewCatalog(cfg.Instruments)

	setups, err := FeedSetups(cfg, catalog)
	if err != nil {
		t.Fatalf("FeedSetups() error = %v", err)
	}
	if len(setups) != 1 || setups[0].Name != market.FeedBinance {
		t.Errorf("setups = %+v, want binance only", setups)
	}
}
