package models

import "encoding/json"

// Client-to-server event types.
const (
	EventJoinRoom         = "join_room"
	EventCheckBlockStatus = "check_block_status"
	EventSendMessage      = "send_message"
	EventDeleteMessage    = "delete_message"
	EventSendReaction     = "send_reaction"
	EventStartBroadcast   = "start_broadcast"
	EventStopBroadcast    = "stop_broadcast"
	EventRequestPeerLink  = "request_peer_link"
	EventPeerOffer        = "peer_offer"
	EventPeerAnswer       = "peer_answer"
	EventPeerCandidate    = "peer_candidate"
)

// Server-to-client event types.
const (
	EventViewerCount       = "viewer_count"
	EventReceiveMessage    = "receive_message"
	EventMessageDeleted    = "message_deleted"
	EventReceiveReaction   = "receive_reaction"
	EventBlocked           = "blocked"
	EventUserBlocked       = "user_blocked"
	EventBroadcastStarted  = "broadcast_started"
	EventBroadcastEnded    = "broadcast_ended"
	EventBroadcastState    = "broadcast_state"
	EventPeerLinkRequested = "peer_link_requested"
	EventError             = "error"
)

// ClientEvent is the inbound websocket envelope. The payload is decoded per
// event type by the dispatcher.
type ClientEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RoomEvent is the outbound websocket envelope.
type RoomEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type JoinRoomPayload struct {
	RoomID string `json:"room_id"`
}

type CheckBlockPayload struct {
	UserID string `json:"user_id"`
}

type SendMessagePayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Content  string `json:"content"`
	RoomID   string `json:"room_id"`
	Role     string `json:"role"`
}

type DeleteMessagePayload struct {
	MessageID int    `json:"message_id"`
	RoomID    string `json:"room_id"`
}

type ReactionPayload struct {
	Emoji  string `json:"emoji"`
	RoomID string `json:"room_id"`
}

type StartBroadcastPayload struct {
	RoomID      string `json:"room_id"`
	UserID      string `json:"user_id"`
	Mode        string `json:"mode"`
	PlaybackURL string `json:"playback_url,omitempty"`
}

type StopBroadcastPayload struct {
	RoomID string `json:"room_id"`
}

type PeerLinkPayload struct {
	RoomID   string `json:"room_id"`
	ViewerID string `json:"viewer_id"`
}

// PeerSignalPayload carries an opaque negotiation payload addressed to one
// connection. The relay never inspects Signal.
type PeerSignalPayload struct {
	TargetID string          `json:"target_id"`
	SenderID string          `json:"sender_id,omitempty"`
	Signal   json.RawMessage `json:"signal"`
}

type ViewerCountPayload struct {
	Count int `json:"count"`
}

type BlockedPayload struct {
	Reason   string `json:"reason"`
	Duration int    `json:"duration,omitempty"`
}

type UserBlockedPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Reason   string `json:"reason"`
	Duration int    `json:"duration"`
}

type BroadcastStatePayload struct {
	OwnerID     string `json:"owner_id"`
	Mode        string `json:"mode"`
	PlaybackURL string `json:"playback_url,omitempty"`
}

type ReactionEventPayload struct {
	Emoji string `json:"emoji"`
	ID    string `json:"id"`
}

type MessageDeletedPayload struct {
	MessageID int `json:"message_id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
