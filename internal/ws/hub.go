package ws

import (
	"sync"

	"stream-chat-service/internal/models"
)

// Hub tracks room membership, the per-room broadcast descriptor and the
// connection index used for addressed relay. All mutations are serialized by
// a single RWMutex so join, leave and descriptor changes are atomic with
// respect to concurrent connections.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*Client]bool
	conns      map[string]*Client
	broadcasts map[string]*models.Broadcast
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		conns:      make(map[string]*Client),
		broadcasts: make(map[string]*models.Broadcast),
	}
}

// Register adds a connection to the addressable index.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID()] = c
}

// Lookup resolves a connection id, for addressed relay.
func (h *Hub) Lookup(connID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[connID]
	return c, ok
}

// Join adds the client to a room and returns the new member count. Joining
// the current room again is a no-op; joining a different room leaves the
// previous one first.
func (h *Hub) Join(c *Client, roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.room == roomID {
		return len(h.rooms[roomID])
	}
	if c.room != "" {
		h.removeLocked(c, c.room)
	}

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[roomID] = members
	}
	members[c] = true
	c.room = roomID
	return len(members)
}

// Leave removes the client from a room and returns the remaining member
// count. Leaving a room the client is not in is a no-op.
func (h *Hub) Leave(c *Client, roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.room == roomID {
		c.room = ""
	}
	h.removeLocked(c, roomID)
	return len(h.rooms[roomID])
}

func (h *Hub) removeLocked(c *Client, roomID string) {
	if members, ok := h.rooms[roomID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Disconnect removes the connection everywhere. It reports the room the
// client belonged to, the remaining member count, and the broadcast
// descriptor that was cleared because the client owned it (nil otherwise).
// The caller fans out the resulting notifications.
func (h *Hub) Disconnect(c *Client) (roomID string, remaining int, ended *models.Broadcast) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns, c.ID())

	roomID = c.room
	if roomID == "" {
		return "", 0, nil
	}
	c.room = ""
	h.removeLocked(c, roomID)
	remaining = len(h.rooms[roomID])

	if b, ok := h.broadcasts[roomID]; ok && b.OwnerConnID == c.ID() {
		delete(h.broadcasts, roomID)
		ended = b
	}
	return roomID, remaining, ended
}

// CurrentRoom returns the room a client belongs to, empty when none.
func (h *Hub) CurrentRoom(c *Client) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.room
}

// Count returns a room's member count.
func (h *Hub) Count(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// SetBroadcast installs a room's broadcast descriptor, overwriting any
// previous one (last writer wins).
func (h *Hub) SetBroadcast(roomID string, b *models.Broadcast) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcasts[roomID] = b
}

// ClearBroadcast removes and returns a room's descriptor, nil if none.
func (h *Hub) ClearBroadcast(roomID string) *models.Broadcast {
	h.mu.Lock()
	defer h.mu.Unlock()
	b := h.broadcasts[roomID]
	delete(h.broadcasts, roomID)
	return b
}

// GetBroadcast returns a room's descriptor, nil if none.
func (h *Hub) GetBroadcast(roomID string) *models.Broadcast {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.broadcasts[roomID]
}

// BroadcastRoom fans an event out to every member of a room, best effort.
// Events for saturated or closed clients are dropped; the sender is never
// stalled by a slow viewer.
func (h *Hub) BroadcastRoom(roomID string, event models.RoomEvent) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		c.Send(event)
	}
}

// SendTo delivers an event to one connection by id. A missing target is
// reported false and otherwise ignored.
func (h *Hub) SendTo(connID string, event models.RoomEvent) bool {
	c, ok := h.Lookup(connID)
	if !ok {
		return false
	}
	return c.Send(event)
}
