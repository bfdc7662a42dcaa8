package models

import "time"

// ActionTemporaryMute is the only enforcement action the spam guard takes.
const ActionTemporaryMute = "TEMPORARY_MUTE"

// ModerationLog records one enforcement decision.
type ModerationLog struct {
	ID        int       `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Reason    string    `db:"reason" json:"reason"`
	Action    string    `db:"action" json:"action"`
	Detail    string    `db:"detail" json:"detail"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ModerationStats is the aggregate view served by the moderation API.
type ModerationStats struct {
	TotalBlocked int `json:"total_blocked"`
	TotalLogs    int `json:"total_logs"`
}
