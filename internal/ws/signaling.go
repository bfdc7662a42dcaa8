package ws

import (
	"context"
	"log"
	"time"

	"stream-chat-service/internal/models"
	"stream-chat-service/internal/observability"
	"stream-chat-service/internal/repositories"
)

// Relay brokers broadcast lifecycle and peer negotiation between one
// broadcaster and the viewers of a room. Negotiation payloads pass through
// unexamined; the relay holds no negotiation state.
type Relay struct {
	hub     *Hub
	streams repositories.StreamRepository
	now     func() time.Time
}

// NewRelay constructs a Relay. A nil clock defaults to time.Now.
func NewRelay(hub *Hub, streams repositories.StreamRepository, now func() time.Time) *Relay {
	if now == nil {
		now = time.Now
	}
	return &Relay{hub: hub, streams: streams, now: now}
}

// StartBroadcast installs the room's broadcast descriptor, overwriting any
// active one, and announces it to the room. Transcoded broadcasts are also
// mirrored into the stream record.
func (r *Relay) StartBroadcast(ctx context.Context, c *Client, p models.StartBroadcastPayload) {
	b := &models.Broadcast{
		OwnerConnID: c.ID(),
		OwnerUserID: p.UserID,
		Mode:        p.Mode,
		PlaybackURL: p.PlaybackURL,
		StartedAt:   r.now(),
	}
	r.hub.SetBroadcast(p.RoomID, b)

	if p.Mode == models.ModeTranscoded && r.streams != nil {
		if err := r.streams.MarkLive(ctx, p.RoomID, p.PlaybackURL); err != nil {
			log.Printf("stream record: mark live failed room=%s: %v", p.RoomID, err)
		}
	}

	observability.IncWSEvent("room", "broadcast_started")
	r.hub.BroadcastRoom(p.RoomID, models.RoomEvent{
		Type:    models.EventBroadcastStarted,
		Payload: snapshotPayload(b),
	})
}

// StopBroadcast clears the descriptor and announces the end of the
// broadcast. Stopping a room with no broadcast still fans out the end event.
func (r *Relay) StopBroadcast(ctx context.Context, p models.StopBroadcastPayload) {
	b := r.hub.ClearBroadcast(p.RoomID)
	if b != nil && b.Mode == models.ModeTranscoded && r.streams != nil {
		if err := r.streams.MarkOffline(ctx, p.RoomID); err != nil {
			log.Printf("stream record: mark offline failed room=%s: %v", p.RoomID, err)
		}
	}

	observability.IncWSEvent("room", "broadcast_ended")
	r.hub.BroadcastRoom(p.RoomID, models.RoomEvent{Type: models.EventBroadcastEnded})
}

// OwnerDisconnected finishes a broadcast whose descriptor was already
// cleared because the owning connection went away.
func (r *Relay) OwnerDisconnected(ctx context.Context, roomID string, b *models.Broadcast) {
	if b.Mode == models.ModeTranscoded && r.streams != nil {
		if err := r.streams.MarkOffline(ctx, roomID); err != nil {
			log.Printf("stream record: mark offline failed room=%s: %v", roomID, err)
		}
	}
	observability.IncWSEvent("room", "broadcast_ended")
	r.hub.BroadcastRoom(roomID, models.RoomEvent{Type: models.EventBroadcastEnded})
}

// RequestPeerLink forwards a viewer's request to the current broadcaster so
// it can open a dedicated peer link. No broadcaster, no delivery.
func (r *Relay) RequestPeerLink(c *Client, p models.PeerLinkPayload) {
	b := r.hub.GetBroadcast(p.RoomID)
	if b == nil {
		return
	}
	if p.ViewerID == "" {
		p.ViewerID = c.ID()
	}
	r.hub.SendTo(b.OwnerConnID, models.RoomEvent{Type: models.EventPeerLinkRequested, Payload: p})
}

// RelaySignal forwards an opaque offer, answer or candidate payload to its
// target connection. A vanished target is dropped silently: the payload is
// meaningless to a disconnected peer, and the sender gets no error.
func (r *Relay) RelaySignal(c *Client, eventType string, p models.PeerSignalPayload) {
	p.SenderID = c.ID()
	if !r.hub.SendTo(p.TargetID, models.RoomEvent{Type: eventType, Payload: p}) {
		observability.IncWSEvent("room", "relay_dropped")
	}
}

func snapshotPayload(b *models.Broadcast) models.BroadcastStatePayload {
	return models.BroadcastStatePayload{
		OwnerID:     b.OwnerConnID,
		Mode:        b.Mode,
		PlaybackURL: b.PlaybackURL,
	}
}
