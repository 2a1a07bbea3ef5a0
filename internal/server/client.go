package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	commandTimeout = 5 * time.Second
)

// Client is one browser connected to the push channel.
type Client struct {
	id     uuid.UUID
	server *Server
	conn   *websocket.Conn
	send   chan Frame
}

func newClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		id:     uuid.New(),
		server: s,
		conn:   conn,
		send:   make(chan Frame, clientBuffer),
	}
}

// ID returns the session identifier.
func (c *Client) ID() uuid.UUID {
	return c.id
}

// readPump reads client commands and detects dead peers.
func (c *Client) readPump() {
	defer func() {
		c.server.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Info("websocket read error", "session", c.id, "error", err)
			}
			return
		}
		c.handleCommand(data)
	}
}

// writePump writes frames and keepalive pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(f); err != nil {
				c.server.logger.Debug("websocket write error", "session", c.id, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleCommand(data []byte) {
	var cmd ClientCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		c.reply(Frame{Type: FrameError, Payload: ErrorPayload{Message: "invalid command: " + err.Error()}})
		return
	}

	switch cmd.Command {
	case "select":
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := c.server.ctrl.Select(ctx, cmd.Instrument); err != nil {
			c.reply(Frame{Type: FrameError, Payload: ErrorPayload{Message: err.Error()}})
			return
		}
		c.server.logger.Debug("selection changed by client", "session", c.id, "instrument", cmd.Instrument)
	default:
		c.reply(Frame{Type: FrameError, Payload: ErrorPayload{Message: "unknown command: " + cmd.Command}})
	}
}

// reply sends f to this client only.
func (c *Client) reply(f Frame) {
	c.server.hub.sendTo(c, f)
}
