/*
Package chat contains the room coordination engine.

This file defines the Client struct: one WebSocket connection and its send
queue. The read pump feeds inbound events to the coordinator; the write pump
drains the send queue and keeps the heartbeat alive. A slow or dead receiver
drops frames rather than stalling anyone else.
*/
package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"splitchat/internal/pkg/errs"
	"splitchat/internal/pkg/logx"
)

const (
	// writeWait bounds a single write to the socket.
	writeWait = 10 * time.Second

	// pongWait is how long the server waits for a pong before giving up on
	// the connection.
	pongWait = 60 * time.Second

	// pingPeriod is the heartbeat interval; must be under pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxFrameSize caps an inbound frame in bytes.
	maxFrameSize = 8192

	// sendQueueSize is the per-connection outbound buffer.
	sendQueueSize = 256

	// CloseCodeSessionReplaced tells a client its session moved to a newer
	// connection (custom close code in the 4000-4999 application range).
	CloseCodeSessionReplaced = 4001
)

// Client represents one live WebSocket connection.
type Client struct {
	// ID is the ephemeral connection identifier.
	ID string

	coordinator *Coordinator
	conn        *websocket.Conn
	send        chan []byte

	closeOnce sync.Once
	logger    zerolog.Logger
}

// NewClient wraps an upgraded connection. The caller starts the pumps.
func NewClient(coordinator *Coordinator, conn *websocket.Conn, connID string) *Client {
	return &Client{
		ID:          connID,
		coordinator: coordinator,
		conn:        conn,
		send:        make(chan []byte, sendQueueSize),
		logger:      logx.Logger().With().Str("component", "Client").Str("conn_id", connID).Logger(),
	}
}

// ReadPump reads frames until the connection dies, handing each event to the
// coordinator. On exit it triggers the coordinator's disconnect path.
func (c *Client) ReadPump() {
	defer c.coordinator.Disconnect(c.ID, "connection closed")

	c.conn.SetReadLimit(maxFrameSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Connection closed unexpectedly")
			}
			return
		}

		var event Event
		if err := json.Unmarshal(frame, &event); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid JSON frame")
			c.SendError(errs.NewError(errs.ErrInvalidJSONFormat))
			continue
		}

		c.coordinator.Dispatch(c, event)
	}
}

// WritePump drains the send queue to the socket and sends heartbeat pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Info().Err(err).Msg("Write failed, closing connection")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue queues a frame without blocking; a full queue drops the frame so a
// stalled receiver never holds up a broadcast.
func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Send queue full, dropping frame")
	}
}

// SendEvent marshals and queues one event for this connection.
func (c *Client) SendEvent(eventType EventType, payload any) {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to build event")
		return
	}

	frame, err := json.Marshal(event)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to marshal event")
		return
	}

	c.enqueue(frame)
}

// SendError sends a rejection scoped to this connection only.
func (c *Client) SendError(customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}
	c.SendEvent(EventError, ErrorPayload{Code: customErr.Code, Message: customErr.Message})
}

// Kick closes the connection with an application close code, used when a
// newer authentication displaces this session.
func (c *Client) Kick(reason string) {
	c.logger.Info().Str("reason", reason).Msg("Kicking connection")

	if c.conn != nil {
		frame := websocket.FormatCloseMessage(CloseCodeSessionReplaced, reason)
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.CloseMessage, frame); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to send close frame")
		}
	}

	c.Close()
}

// Close shuts the send queue exactly once; the write pump then closes the
// underlying connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}
