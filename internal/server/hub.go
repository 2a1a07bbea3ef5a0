package server

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rickgao/pricedash/internal/connection"
	"github.com/rickgao/pricedash/internal/presenter"
)

const (
	broadcastBuffer = 1024
	clientBuffer    = 256
)

// HubStats contains push channel statistics.
type HubStats struct {
	Clients   int   `json:"clients"`
	Published int64 `json:"published"`
	Dropped   int64 `json:"dropped"`
	Evicted   int64 `json:"evicted"`
}

type directFrame struct {
	client *Client
	frame  Frame
}

// Hub fans frames out to connected browser clients.
type Hub struct {
	logger *slog.Logger

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan Frame
	direct     chan directFrame
	done       chan struct{}

	mu        sync.RWMutex
	latest    map[string]Frame
	clientCnt int
	published int64
	dropped   int64
	evicted   int64
}

// NewHub creates a hub. Call Run to start fan-out.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Frame, broadcastBuffer),
		direct:     make(chan directFrame),
		done:       make(chan struct{}),
		latest:     make(map[string]Frame),
	}
}

// Run is the hub loop. It returns when ctx is done, closing every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			h.logger.Info("push hub stopped")
			return nil

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.setClientCount(len(h.clients))
			// bring the new client up to date
			for _, f := range h.snapshot() {
				select {
				case client.send <- f:
				default:
				}
			}
			h.logger.Info("client connected", "session", client.id, "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
				h.logger.Info("client disconnected", "session", client.id, "clients", len(h.clients))
			}

		case d := <-h.direct:
			if _, ok := h.clients[d.client]; ok {
				select {
				case d.client.send <- d.frame:
				default:
				}
			}

		case f := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- f:
				default:
					// slow client, drop it so the hub never blocks
					h.remove(client)
					h.mu.Lock()
					h.evicted++
					h.mu.Unlock()
					h.logger.Warn("evicting slow client", "session", client.id)
				}
			}
		}
	}
}

// Publish records f as the latest frame of its region and queues it for
// every client. It never blocks.
func (h *Hub) Publish(f Frame) {
	h.mu.Lock()
	h.latest[f.key()] = f
	h.published++
	h.mu.Unlock()

	select {
	case h.broadcast <- f:
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
		h.logger.Warn("broadcast queue full, dropping frame", "type", f.Type, "feed", f.Feed)
	}
}

// PublishView implements dashboard.Sink.
func (h *Hub) PublishView(feed string, view presenter.View) {
	h.Publish(viewFrame(feed, view))
}

// PublishCounter implements dashboard.Sink.
func (h *Hub) PublishCounter(feed string, count int64, label string) {
	h.Publish(Frame{Type: FrameCounter, Feed: feed, Payload: CounterPayload{Count: count, Label: label}})
}

// PublishClock implements dashboard.Sink.
func (h *Hub) PublishClock(text string, at time.Time) {
	h.Publish(Frame{Type: FrameClock, Payload: ClockPayload{Text: text, At: at}})
}

// PublishSelection implements dashboard.Sink.
func (h *Hub) PublishSelection(instrument string) {
	h.Publish(Frame{Type: FrameSelection, Payload: SelectionPayload{Instrument: instrument}})
}

// PublishConnection implements dashboard.Sink.
func (h *Hub) PublishConnection(feed string, state connection.State) {
	h.Publish(Frame{Type: FrameConnection, Feed: feed, Payload: ConnectionPayload{State: state}})
}

// Latest returns the latest frame of every region, ordered by region.
func (h *Hub) Latest() []Frame {
	return h.snapshot()
}

// Stats returns current statistics.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HubStats{
		Clients:   h.clientCnt,
		Published: h.published,
		Dropped:   h.dropped,
		Evicted:   h.evicted,
	}
}

func (h *Hub) snapshot() []Frame {
	h.mu.RLock()
	defer h.mu.RUnlock()

	keys := make([]string, 0, len(h.latest))
	for k := range h.latest {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	frames := make([]Frame, len(keys))
	for i, k := range keys {
		frames[i] = h.latest[k]
	}
	return frames
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.setClientCount(len(h.clients))
}

func (h *Hub) setClientCount(n int) {
	h.mu.Lock()
	h.clientCnt = n
	h.mu.Unlock()
}

// join registers a client unless the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// sendTo queues f for a single client.
func (h *Hub) sendTo(client *Client, f Frame) {
	select {
	case h.direct <- directFrame{client: client, frame: f}:
	case <-h.done:
	}
}

// leave unregisters a client unless the hub has stopped.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
