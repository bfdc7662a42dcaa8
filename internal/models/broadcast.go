package models

import "time"

// Distribution modes for a live broadcast.
const (
	// ModeRelayed distributes media over direct peer links negotiated
	// through the signaling relay.
	ModeRelayed = "relayed"
	// ModeTranscoded distributes media via the external transcoder's
	// segmented playback URL.
	ModeTranscoded = "transcoded"
)

// Broadcast describes the active broadcast in a room. A room holds at most
// one; starting a new broadcast overwrites the previous descriptor.
type Broadcast struct {
	OwnerConnID string    `json:"owner_conn_id"`
	OwnerUserID string    `json:"owner_user_id"`
	Mode        string    `json:"mode"`
	PlaybackURL string    `json:"playback_url,omitempty"`
	StartedAt   time.Time `json:"started_at"`
}

// Stream is the persisted record of a room's broadcast lifecycle. The
// transcoder itself is external; this row only mirrors its state.
type Stream struct {
	ID          int        `db:"id" json:"id"`
	RoomID      string     `db:"room_id" json:"room_id"`
	IsLive      bool       `db:"is_live" json:"is_live"`
	PlaybackURL string     `db:"playback_url" json:"playback_url,omitempty"`
	StartedAt   *time.Time `db:"started_at" json:"started_at,omitempty"`
	EndedAt     *time.Time `db:"ended_at" json:"ended_at,omitempty"`
}
