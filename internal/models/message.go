package models

import "time"

// Roles carried on chat messages. Issued by the auth service inside the JWT;
// the chat core only reads them.
const (
	RoleViewer    = "viewer"
	RoleModerator = "moderator"
)

// Message represents a persisted room chat message.
type Message struct {
	ID        int       `db:"id" json:"id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Username  string    `db:"username" json:"username"`
	Content   string    `db:"content" json:"content"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
