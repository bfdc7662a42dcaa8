package ws

import (
	"testing"

	"stream-chat-service/internal/models"
)

func newTestClient(connID string) *Client {
	return NewClient(nil, ConnInfo{ConnID: connID, UserID: "user-" + connID})
}

func TestHubJoinAndLeave(t *testing.T) {
	hub := NewHub()
	a := newTestClient("a")
	b := newTestClient("b")

	if count := hub.Join(a, "room1"); count != 1 {
		t.Fatalf("expected 1 member, got %d", count)
	}
	if count := hub.Join(b, "room1"); count != 2 {
		t.Fatalf("expected 2 members, got %d", count)
	}

	if count := hub.Leave(a, "room1"); count != 1 {
		t.Fatalf("expected 1 remaining, got %d", count)
	}
	if count := hub.Leave(a, "room1"); count != 1 {
		t.Fatalf("leaving twice should be a no-op, got %d", count)
	}
}

func TestHubRejoinSameRoomIdempotent(t *testing.T) {
	hub := NewHub()
	a := newTestClient("a")

	hub.Join(a, "room1")
	if count := hub.Join(a, "room1"); count != 1 {
		t.Fatalf("expected rejoin to keep 1 member, got %d", count)
	}
}

func TestHubJoinSwitchesRooms(t *testing.T) {
	hub := NewHub()
	a := newTestClient("a")

	hub.Join(a, "room1")
	hub.Join(a, "room2")

	if count := hub.Count("room1"); count != 0 {
		t.Fatalf("expected old room empty, got %d", count)
	}
	if room := hub.CurrentRoom(a); room != "room2" {
		t.Fatalf("expected membership in room2, got %q", room)
	}
}

func TestHubDisconnectClearsOwnedBroadcast(t *testing.T) {
	hub := NewHub()
	owner := newTestClient("owner")
	viewer := newTestClient("viewer")
	hub.Register(owner)
	hub.Join(owner, "room1")
	hub.Join(viewer, "room1")

	hub.SetBroadcast("room1", &models.Broadcast{OwnerConnID: owner.ID()})

	roomID, remaining, ended := hub.Disconnect(owner)
	if roomID != "room1" || remaining != 1 {
		t.Fatalf("unexpected disconnect result: room=%q remaining=%d", roomID, remaining)
	}
	if ended == nil {
		t.Fatalf("expected owned broadcast to be cleared")
	}
	if hub.GetBroadcast("room1") != nil {
		t.Fatalf("expected no remaining broadcast descriptor")
	}
}

func TestHubDisconnectViewerKeepsBroadcast(t *testing.T) {
	hub := NewHub()
	owner := newTestClient("owner")
	viewer := newTestClient("viewer")
	hub.Join(owner, "room1")
	hub.Join(viewer, "room1")
	hub.SetBroadcast("room1", &models.Broadcast{OwnerConnID: owner.ID()})

	_, _, ended := hub.Disconnect(viewer)
	if ended != nil {
		t.Fatalf("viewer disconnect must not end the broadcast")
	}
	if hub.GetBroadcast("room1") == nil {
		t.Fatalf("expected broadcast descriptor to survive")
	}
}

func TestHubSetBroadcastLastWriterWins(t *testing.T) {
	hub := NewHub()

	hub.SetBroadcast("room1", &models.Broadcast{OwnerConnID: "first"})
	hub.SetBroadcast("room1", &models.Broadcast{OwnerConnID: "second"})

	b := hub.GetBroadcast("room1")
	if b == nil || b.OwnerConnID != "second" {
		t.Fatalf("expected the later descriptor to win, got %+v", b)
	}
}

func TestHubBroadcastRoomDeliversToMembers(t *testing.T) {
	hub := NewHub()
	a := newTestClient("a")
	b := newTestClient("b")
	outsider := newTestClient("c")
	hub.Join(a, "room1")
	hub.Join(b, "room1")
	hub.Join(outsider, "room2")

	hub.BroadcastRoom("room1", models.RoomEvent{Type: models.EventViewerCount})

	for _, c := range []*Client{a, b} {
		select {
		case ev := <-c.send:
			if ev.Type != models.EventViewerCount {
				t.Fatalf("unexpected event type %q", ev.Type)
			}
		default:
			t.Fatalf("expected member %s to receive the event", c.ID())
		}
	}
	select {
	case <-outsider.send:
		t.Fatalf("outsider must not receive room events")
	default:
	}
}

func TestHubSendToMissingTarget(t *testing.T) {
	hub := NewHub()

	if hub.SendTo("nope", models.RoomEvent{Type: models.EventError}) {
		t.Fatalf("expected delivery to a missing connection to fail")
	}
}

func TestClientSendDropsWhenSaturated(t *testing.T) {
	c := newTestClient("a")

	for i := 0; i < sendBufferSize; i++ {
		if !c.Send(models.RoomEvent{Type: models.EventViewerCount}) {
			t.Fatalf("expected send %d to be queued", i)
		}
	}
	if c.Send(models.RoomEvent{Type: models.EventViewerCount}) {
		t.Fatalf("expected saturated client to drop the event")
	}
}

func TestClientSendAfterClose(t *testing.T) {
	c := newTestClient("a")
	c.Close()
	c.Close()

	if c.Send(models.RoomEvent{Type: models.EventViewerCount}) {
		t.Fatalf("expected send to a closed client to fail")
	}
}
