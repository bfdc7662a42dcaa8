package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"stream-chat-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for room chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, roomID, userID, username, content, role string) (models.Message, error)
	GetRecentMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error)
	DeleteMessage(ctx context.Context, messageID int) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores an accepted room message.
func (r *MessageRepo) CreateMessage(ctx context.Context, roomID, userID, username, content, role string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (room_id, user_id, username, content, role) VALUES ($1, $2, $3, $4, $5) RETURNING id, room_id, user_id, username, content, role, created_at`, roomID, userID, username, content, role).
		Scan(&msg.ID, &msg.RoomID, &msg.UserID, &msg.Username, &msg.Content, &msg.Role, &msg.CreatedAt)
	return msg, err
}

// GetRecentMessages returns the last limit messages for a room in ascending
// time order.
func (r *MessageRepo) GetRecentMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	query := `SELECT id, room_id, user_id, username, content, role, created_at FROM (
            SELECT id, room_id, user_id, username, content, role, created_at
            FROM messages
            WHERE room_id=$1
            ORDER BY created_at DESC, id DESC
            LIMIT $2
        ) recent
        ORDER BY created_at ASC, id ASC`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, roomID, limit)
	return msgs, err
}

// DeleteMessage removes a message by id.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
