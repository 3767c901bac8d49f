package ws

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client represents a websocket subscriber of the snapshot feed.
type Client struct {
	id   string
	conn *websocket.Conn
	log  *slog.Logger
}

// NewClient constructs a client wrapper.
func NewClient(conn *websocket.Conn, logger *slog.Logger) *Client {
	id := uuid.NewString()
	if logger != nil {
		logger = logger.With("subscriber_id", id)
	}
	return &Client{id: id, conn: conn, log: logger}
}

// Send writes a snapshot frame to the websocket connection.
func (c *Client) Send(payload []byte) error {
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		if c.log != nil {
			c.log.Warn("websocket send failed", "error", err)
		}
		_ = c.conn.Close()
		return err
	}
	return nil
}

// Close terminates the connection.
func (c *Client) Close() {
	_ = c.conn.Close()
}
