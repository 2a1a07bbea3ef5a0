package connection

import (
	"errors"
	"net/http"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no traffic)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// RawMessage is a frame forwarded from a feed connection to the dashboard.
type RawMessage struct {
	Feed       string    // Feed the frame came from, e.g. "binance"
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when the client received it
}

// SubscribeCommand is a stream subscription request, sent after connecting.
type SubscribeCommand struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

// NewSubscribeCommand builds a SUBSCRIBE request for the given streams.
func NewSubscribeCommand(streams []string, id int64) *SubscribeCommand {
	return &SubscribeCommand{Method: "SUBSCRIBE", Params: streams, ID: id}
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL              string        // WebSocket URL
	Header           http.Header   // Extra handshake headers (nil = none)
	HandshakeTimeout time.Duration // Dial handshake timeout
	PingInterval     time.Duration // Interval between keepalive pings
	PingTimeout      time.Duration // Max time without traffic before considering connection stale
	WriteTimeout     time.Duration // Write deadline for sends
	BufferSize       int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		PingTimeout:      90 * time.Second,
		WriteTimeout:     10 * time.Second,
		BufferSize:       1000,
	}
}

// FeedConfig configures a FeedConn.
type FeedConfig struct {
	Name              string            // Feed identifier attached to every RawMessage
	Subscribe         *SubscribeCommand // Sent after each connect (nil = subscription via URL)
	ReconnectDelay    time.Duration     // Wait before the first reconnect attempt
	ReconnectMaxDelay time.Duration     // Backoff cap; equal to ReconnectDelay for a fixed delay
	Client            ClientConfig
}

// DefaultFeedConfig returns sensible defaults.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		ReconnectDelay:    5 * time.Second,
		ReconnectMaxDelay: 5 * time.Second,
		Client:            DefaultClientConfig(),
	}
}

// State is the lifecycle state of a feed connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StateFunc is notified of every state transition of a feed.
type StateFunc func(feed string, state State)

// FeedStats contains runtime statistics for one feed connection.
type FeedStats struct {
	Feed          string    `json:"feed"`
	State         State     `json:"state"`
	Connects      int64     `json:"connects"`
	Reconnects    int64     `json:"reconnects"`
	Failures      int64     `json:"failures"`
	Messages      int64     `json:"messages"`
	LastMessageAt time.Time `json:"last_message_at"`
	LastError     string    `json:"last_error,omitempty"`
}
