package server

import (
	"time"

	"github.com/rickgao/pricedash/internal/connection"
	"github.com/rickgao/pricedash/internal/presenter"
)

// Frame types pushed to browsers.
const (
	FrameView       = "view"
	FrameCounter    = "counter"
	FrameClock      = "clock"
	FrameSelection  = "selection"
	FrameConnection = "connection"
	FrameSession    = "session"
	FrameError      = "error"
)

// Frame is one message on the push channel.
type Frame struct {
	Type    string `json:"type"`
	Feed    string `json:"feed,omitempty"`
	Payload any    `json:"payload"`
}

// key identifies the display region a frame updates.
func (f Frame) key() string {
	if f.Feed == "" {
		return f.Type
	}
	return f.Type + "/" + f.Feed
}

// CounterPayload is the payload of a counter frame.
type CounterPayload struct {
	Count int64  `json:"count"`
	Label string `json:"label"`
}

// ClockPayload is the payload of a clock frame.
type ClockPayload struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// SelectionPayload is the payload of a selection frame.
type SelectionPayload struct {
	Instrument string `json:"instrument"`
}

// ConnectionPayload is the payload of a connection frame.
type ConnectionPayload struct {
	State connection.State `json:"state"`
}

// SessionPayload is sent once to every new client.
type SessionPayload struct {
	ID          string   `json:"id"`
	Instruments []string `json:"instruments"`
	Feeds       []string `json:"feeds"`
}

// ErrorPayload reports a rejected client command.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ClientCommand is a message sent by a browser.
type ClientCommand struct {
	Command    string `json:"command"`
	Instrument string `json:"instrument"`
}

func viewFrame(feed string, v presenter.View) Frame {
	return Frame{Type: FrameView, Feed: feed, Payload: v}
}
