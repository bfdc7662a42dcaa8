package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// UserRepository exposes the persistent block flag on the user record. The
// record itself is owned by the account service; this repository only reads
// and flips the moderation flag, which must survive process restarts.
type UserRepository interface {
	IsBlocked(ctx context.Context, userID string) (bool, error)
	SetBlocked(ctx context.Context, userID string, blocked bool) error
	CountBlocked(ctx context.Context) (int, error)
}

// UserRepo is a sqlx-backed repository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// IsBlocked reports the persistent block flag. An unknown user is not
// blocked.
func (r *UserRepo) IsBlocked(ctx context.Context, userID string) (bool, error) {
	var blocked bool
	err := r.db.GetContext(ctx, &blocked, `SELECT is_blocked FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return blocked, err
}

// SetBlocked updates the persistent flag. Unknown users are a no-op so that
// enforcement never fails on identities the account service has not synced.
func (r *UserRepo) SetBlocked(ctx context.Context, userID string, blocked bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_blocked=$2 WHERE id=$1`, userID, blocked)
	return err
}

// CountBlocked returns the number of currently blocked users.
func (r *UserRepo) CountBlocked(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE is_blocked = TRUE`)
	return count, err
}
