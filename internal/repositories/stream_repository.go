package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"stream-chat-service/internal/models"
)

// StreamRepository mirrors the broadcast lifecycle into the stream record.
// The transcoder is external; these rows only track its reported state.
type StreamRepository interface {
	MarkLive(ctx context.Context, roomID, playbackURL string) error
	MarkOffline(ctx context.Context, roomID string) error
	GetStream(ctx context.Context, roomID string) (models.Stream, error)
}

// StreamRepo is a sqlx-backed repository.
type StreamRepo struct {
	db *sqlx.DB
}

// NewStreamRepo constructs StreamRepo.
func NewStreamRepo(db *sqlx.DB) *StreamRepo {
	return &StreamRepo{db: db}
}

// MarkLive upserts the stream row for a room as live.
func (r *StreamRepo) MarkLive(ctx context.Context, roomID, playbackURL string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO streams (room_id, is_live, playback_url, started_at, ended_at)
        VALUES ($1, TRUE, $2, NOW(), NULL)
        ON CONFLICT (room_id) DO UPDATE SET is_live = TRUE, playback_url = EXCLUDED.playback_url, started_at = NOW(), ended_at = NULL`, roomID, playbackURL)
	return err
}

// MarkOffline ends the stream row for a room. A room with no row is a no-op.
func (r *StreamRepo) MarkOffline(ctx context.Context, roomID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE streams SET is_live = FALSE, playback_url = '', ended_at = NOW() WHERE room_id=$1`, roomID)
	return err
}

// GetStream returns the stream record for a room. A room that never went
// live reports an offline zero-value record rather than an error.
func (r *StreamRepo) GetStream(ctx context.Context, roomID string) (models.Stream, error) {
	var stream models.Stream
	err := r.db.GetContext(ctx, &stream, `SELECT id, room_id, is_live, playback_url, started_at, ended_at FROM streams WHERE room_id=$1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Stream{RoomID: roomID}, nil
	}
	return stream, err
}
