package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// FeedConn keeps one upstream feed connected and forwards its frames.
type FeedConn struct {
	cfg     FeedConfig
	logger  *slog.Logger
	out     chan<- RawMessage
	onState StateFunc

	// newClient is swapped in tests.
	newClient func(ClientConfig, *slog.Logger) Client

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// State and stats
	mu            sync.RWMutex
	state         State
	connects      int64
	failures      int64
	messages      int64
	lastMessageAt time.Time
	lastError     string
}

// NewFeedConn creates a feed connection that writes frames to out.
// onState may be nil.
func NewFeedConn(cfg FeedConfig, out chan<- RawMessage, onState StateFunc, logger *slog.Logger) *FeedConn {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultFeedConfig().ReconnectDelay
	}
	if cfg.ReconnectMaxDelay < cfg.ReconnectDelay {
		cfg.ReconnectMaxDelay = cfg.ReconnectDelay
	}

	return &FeedConn{
		cfg:       cfg,
		logger:    logger.With("feed", cfg.Name),
		out:       out,
		onState:   onState,
		newClient: NewClient,
		state:     StateDisconnected,
	}
}

// Start begins connecting in the background and returns immediately.
func (f *FeedConn) Start(ctx context.Context) error {
	f.ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go f.run()

	f.logger.Info("feed connection started",
		"url", f.cfg.Client.URL,
		"reconnect_delay", f.cfg.ReconnectDelay,
		"reconnect_max_delay", f.cfg.ReconnectMaxDelay,
	)
	return nil
}

// Stop closes the connection and waits for the loop to exit.
func (f *FeedConn) Stop(ctx context.Context) error {
	f.logger.Info("stopping feed connection")

	if f.cancel != nil {
		f.cancel()
	}

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		f.logger.Info("feed connection stopped")
	case <-ctx.Done():
		f.logger.Warn("feed connection stop timed out")
		return ctx.Err()
	}
	return nil
}

// Name returns the feed name.
func (f *FeedConn) Name() string {
	return f.cfg.Name
}

// State returns the current connection state.
func (f *FeedConn) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// Stats returns current statistics.
func (f *FeedConn) Stats() FeedStats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var reconnects int64
	if f.connects > 1 {
		reconnects = f.connects - 1
	}
	return FeedStats{
		Feed:          f.cfg.Name,
		State:         f.state,
		Connects:      f.connects,
		Reconnects:    reconnects,
		Failures:      f.failures,
		Messages:      f.messages,
		LastMessageAt: f.lastMessageAt,
		LastError:     f.lastError,
	}
}

// run drives the reconnect state machine until the context is cancelled.
func (f *FeedConn) run() {
	defer f.wg.Done()
	defer f.setState(StateDisconnected)

	delay := f.cfg.ReconnectDelay
	for {
		f.setState(StateConnecting)

		client := f.newClient(f.cfg.Client, f.logger)
		err := client.Connect(f.ctx)
		if err == nil {
			f.mu.Lock()
			f.connects++
			f.mu.Unlock()
			delay = f.cfg.ReconnectDelay

			f.setState(StateConnected)
			f.logger.Info("feed connected")
			err = f.session(client)
		}
		client.Close()

		if f.ctx.Err() != nil {
			return
		}

		f.mu.Lock()
		f.failures++
		if err != nil {
			f.lastError = err.Error()
		}
		f.mu.Unlock()

		f.logger.Warn("feed connection lost, reconnecting",
			"error", err,
			"retry_in", delay,
		)
		f.setState(StateReconnecting)

		select {
		case <-f.ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = nextDelay(delay, f.cfg.ReconnectMaxDelay)
	}
}

// session subscribes and pumps frames until the connection fails.
// It returns nil when the context is cancelled.
func (f *FeedConn) session(client Client) error {
	if f.cfg.Subscribe != nil {
		data, err := json.Marshal(f.cfg.Subscribe)
		if err != nil {
			return fmt.Errorf("marshal subscribe: %w", err)
		}
		if err := client.Send(data); err != nil {
			return fmt.Errorf("send subscribe: %w", err)
		}
		f.logger.Debug("subscribe sent", "streams", f.cfg.Subscribe.Params)
	}

	for {
		select {
		case <-f.ctx.Done():
			return nil
		case err := <-client.Errors():
			return err
		case msg := <-client.Messages():
			f.mu.Lock()
			f.messages++
			f.lastMessageAt = msg.ReceivedAt
			f.mu.Unlock()

			raw := RawMessage{
				Feed:       f.cfg.Name,
				Data:       msg.Data,
				ReceivedAt: msg.ReceivedAt,
			}
			select {
			case f.out <- raw:
			case <-f.ctx.Done():
				return nil
			}
		}
	}
}

func (f *FeedConn) setState(s State) {
	f.mu.Lock()
	if f.state == s {
		f.mu.Unlock()
		return
	}
	f.state = s
	f.mu.Unlock()

	f.logger.Debug("feed state changed", "state", s)
	if f.onState != nil {
		f.onState(f.cfg.Name, s)
	}
}

// nextDelay doubles the delay up to limit.
func nextDelay(cur, limit time.Duration) time.Duration {
	next := cur * 2
	if next > limit {
		next = limit
	}
	return next
}
