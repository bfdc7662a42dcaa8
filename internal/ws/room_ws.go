package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"stream-chat-service/internal/chat"
	"stream-chat-service/internal/middleware"
	"stream-chat-service/internal/models"
	"stream-chat-service/internal/observability"
)

// RoomWebSocketHandler owns the per-connection event loop: handshake, event
// dispatch and disconnect cleanup.
type RoomWebSocketHandler struct {
	hub      *Hub
	chat     *chat.Service
	relay    *Relay
	verifier *middleware.TokenVerifier
}

// NewRoomWebSocketHandler constructs a RoomWebSocketHandler.
func NewRoomWebSocketHandler(hub *Hub, chatSvc *chat.Service, relay *Relay, verifier *middleware.TokenVerifier) *RoomWebSocketHandler {
	return &RoomWebSocketHandler{hub: hub, chat: chatSvc, relay: relay, verifier: verifier}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and serves its event loop until disconnect.
func (h *RoomWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("stream-chat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		if q := c.Query("token"); q != "" {
			token = "Bearer " + q
		}
	}
	claims, err := h.validateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      claims.UserID,
		Username:    claims.Username,
		Role:        claims.Role,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := NewClient(conn, info)
	h.hub.Register(client)
	go client.writePump()

	observability.IncWSActive("room")
	observability.IncWSEvent("room", "ws_connect")
	h.publishLifecycle(ctx, info, "ws_connect", "")

	defer func() {
		roomID, remaining, ended := h.hub.Disconnect(client)
		if ended != nil {
			h.relay.OwnerDisconnected(context.Background(), roomID, ended)
		}
		if roomID != "" {
			h.hub.BroadcastRoom(roomID, models.RoomEvent{
				Type:    models.EventViewerCount,
				Payload: models.ViewerCountPayload{Count: remaining},
			})
		}
		client.Close()
		observability.DecWSActive("room")
		observability.IncWSEvent("room", "ws_disconnect")
		h.publishLifecycle(ctx, info, "ws_disconnect", time.Since(info.ConnectedAt).String())
	}()

	for {
		var event models.ClientEvent
		if err := conn.ReadJSON(&event); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("room", "ws_error")
			}
			return
		}
		h.dispatch(ctx, client, event)
	}
}

// dispatch routes one inbound event. Malformed payloads earn the sender a
// private error event; the connection stays up.
func (h *RoomWebSocketHandler) dispatch(ctx context.Context, client *Client, event models.ClientEvent) {
	switch event.Type {
	case models.EventJoinRoom:
		var p models.JoinRoomPayload
		if !decode(client, event, &p) || !require(client, p.RoomID != "", "room_id is required") {
			return
		}
		h.handleJoin(client, p.RoomID)

	case models.EventCheckBlockStatus:
		var p models.CheckBlockPayload
		if !decode(client, event, &p) || !require(client, p.UserID != "", "user_id is required") {
			return
		}
		h.chat.CheckBlockStatus(ctx, client, p.UserID)

	case models.EventSendMessage:
		var p models.SendMessagePayload
		if !decode(client, event, &p) {
			return
		}
		if !require(client, p.UserID != "" && p.Content != "" && p.RoomID != "", "user_id, content and room_id are required") {
			return
		}
		h.chat.ProcessMessage(ctx, client, p)

	case models.EventDeleteMessage:
		var p models.DeleteMessagePayload
		if !decode(client, event, &p) || !require(client, p.MessageID > 0 && p.RoomID != "", "message_id and room_id are required") {
			return
		}
		h.chat.DeleteMessage(ctx, client, client.Role(), p)

	case models.EventSendReaction:
		var p models.ReactionPayload
		if !decode(client, event, &p) || !require(client, p.Emoji != "" && p.RoomID != "", "emoji and room_id are required") {
			return
		}
		h.chat.Reaction(p)

	case models.EventStartBroadcast:
		var p models.StartBroadcastPayload
		if !decode(client, event, &p) || !require(client, p.RoomID != "", "room_id is required") {
			return
		}
		if !require(client, p.Mode == models.ModeRelayed || p.Mode == models.ModeTranscoded, "mode must be relayed or transcoded") {
			return
		}
		if p.UserID == "" {
			p.UserID = client.UserID()
		}
		h.relay.StartBroadcast(ctx, client, p)

	case models.EventStopBroadcast:
		var p models.StopBroadcastPayload
		if !decode(client, event, &p) || !require(client, p.RoomID != "", "room_id is required") {
			return
		}
		h.relay.StopBroadcast(ctx, p)

	case models.EventRequestPeerLink:
		var p models.PeerLinkPayload
		if !decode(client, event, &p) || !require(client, p.RoomID != "", "room_id is required") {
			return
		}
		h.relay.RequestPeerLink(client, p)

	case models.EventPeerOffer, models.EventPeerAnswer, models.EventPeerCandidate:
		var p models.PeerSignalPayload
		if !decode(client, event, &p) || !require(client, p.TargetID != "", "target_id is required") {
			return
		}
		h.relay.RelaySignal(client, event.Type, p)

	default:
		sendError(client, "unknown event type")
	}
}

func (h *RoomWebSocketHandler) handleJoin(client *Client, roomID string) {
	prev := h.hub.CurrentRoom(client)
	count := h.hub.Join(client, roomID)

	if prev != "" && prev != roomID {
		h.hub.BroadcastRoom(prev, models.RoomEvent{
			Type:    models.EventViewerCount,
			Payload: models.ViewerCountPayload{Count: h.hub.Count(prev)},
		})
	}
	h.hub.BroadcastRoom(roomID, models.RoomEvent{
		Type:    models.EventViewerCount,
		Payload: models.ViewerCountPayload{Count: count},
	})

	// Late joiners learn about an already running broadcast privately.
	if b := h.hub.GetBroadcast(roomID); b != nil {
		client.Send(models.RoomEvent{Type: models.EventBroadcastState, Payload: snapshotPayload(b)})
	}
}

func (h *RoomWebSocketHandler) validateToken(header string) (middleware.Claims, error) {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return h.verifier.Verify(header[len(prefix):])
	}
	return middleware.Claims{}, middleware.ErrInvalidToken
}

func (h *RoomWebSocketHandler) publishLifecycle(ctx context.Context, info ConnInfo, event, detail string) {
	_ = observability.PublishEvent(ctx, "ws_events.rooms", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload: observability.LifecyclePayload{
			WS: observability.WSInfo{
				Kind:   "room",
				Event:  event,
				ConnID: info.ConnID,
				Detail: detail,
			},
			Identity: observability.IdentityInfo{
				UserID:   info.UserID,
				DeviceID: info.DeviceID,
				IP:       info.IP,
			},
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}

func decode(client *Client, event models.ClientEvent, dst any) bool {
	if len(event.Payload) == 0 {
		sendError(client, "payload is required")
		return false
	}
	if err := json.Unmarshal(event.Payload, dst); err != nil {
		sendError(client, "malformed payload")
		return false
	}
	return true
}

func require(client *Client, ok bool, message string) bool {
	if !ok {
		sendError(client, message)
	}
	return ok
}

func sendError(client *Client, message string) {
	client.Send(models.RoomEvent{Type: models.EventError, Payload: models.ErrorPayload{Message: message}})
}
