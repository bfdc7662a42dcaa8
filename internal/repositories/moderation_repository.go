package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"stream-chat-service/internal/models"
)

// ModerationRepository stores the enforcement audit trail.
type ModerationRepository interface {
	CreateLog(ctx context.Context, entry models.ModerationLog) (models.ModerationLog, error)
	ListLogs(ctx context.Context, limit int) ([]models.ModerationLog, error)
	CountLogs(ctx context.Context) (int, error)
}

// ModerationRepo is a sqlx-backed repository.
type ModerationRepo struct {
	db *sqlx.DB
}

// NewModerationRepo constructs ModerationRepo.
func NewModerationRepo(db *sqlx.DB) *ModerationRepo {
	return &ModerationRepo{db: db}
}

// CreateLog records one enforcement decision.
func (r *ModerationRepo) CreateLog(ctx context.Context, entry models.ModerationLog) (models.ModerationLog, error) {
	err := r.db.QueryRowxContext(ctx, `INSERT INTO moderation_logs (user_id, reason, action, detail) VALUES ($1, $2, $3, $4) RETURNING id, created_at`, entry.UserID, entry.Reason, entry.Action, entry.Detail).
		Scan(&entry.ID, &entry.CreatedAt)
	return entry, err
}

// ListLogs returns recent entries, newest first.
func (r *ModerationRepo) ListLogs(ctx context.Context, limit int) ([]models.ModerationLog, error) {
	var logs []models.ModerationLog
	err := r.db.SelectContext(ctx, &logs, `SELECT id, user_id, reason, action, detail, created_at FROM moderation_logs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	return logs, err
}

// CountLogs returns the total number of entries.
func (r *ModerationRepo) CountLogs(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM moderation_logs`)
	return count, err
}
