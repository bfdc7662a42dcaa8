package ws

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"stream-chat-service/internal/models"
	"stream-chat-service/internal/observability"
)

// sendBufferSize bounds the per-client outbound queue. A slow viewer whose
// buffer fills loses live events instead of stalling senders; the persisted
// copy remains the durable record.
const sendBufferSize = 32

// Client is one websocket connection. Identity comes from the JWT presented
// at the handshake.
type Client struct {
	info ConnInfo
	conn *websocket.Conn

	// room is the current membership, owned and guarded by the Hub.
	room string

	mu     sync.Mutex
	closed bool
	send   chan models.RoomEvent
}

// NewClient wraps a connection. A nil conn is allowed in tests; events are
// then read straight from the outbound queue.
func NewClient(conn *websocket.Conn, info ConnInfo) *Client {
	return &Client{
		info: info,
		conn: conn,
		send: make(chan models.RoomEvent, sendBufferSize),
	}
}

// ID returns the connection id used to address relayed payloads.
func (c *Client) ID() string { return c.info.ConnID }

// UserID returns the authenticated user identity.
func (c *Client) UserID() string { return c.info.UserID }

// Username returns the authenticated display name.
func (c *Client) Username() string { return c.info.Username }

// Role returns the JWT role claim.
func (c *Client) Role() string { return c.info.Role }

// Send queues an event for delivery. It never blocks: events for a closed or
// saturated client are dropped and reported false.
func (c *Client) Send(event models.RoomEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- event:
		return true
	default:
		observability.IncWSEvent("room", "send_dropped")
		return false
	}
}

// Close shuts the outbound queue. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump drains the outbound queue onto the wire. It exits when Close is
// called or the write fails.
func (c *Client) writePump() {
	defer c.conn.Close()
	for event := range c.send {
		if err := c.conn.WriteJSON(event); err != nil {
			log.Printf("websocket write error: %v", err)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
