package repositories

import (
	"context"
	"time"

	"github.com/anvko/shop_admin_app/internal/core/domain"
)

// SessionRepository persists issued sessions. Expired or inactive rows are
// surfaced as apperrors.ErrNotFound by both Find methods so validation has a
// single failure path.
type SessionRepository interface {
	CreateSession(ctx context.Context, session domain.Session) error
	FindSessionByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.Session, error)
	FindSessionByRefreshTokenHash(ctx context.Context, refreshTokenHash string, now time.Time) (*domain.Session, error)
	// RotateSession deactivates the old session and inserts its replacement in
	// one transaction. When the old session was already rotated or revoked it
	// returns apperrors.ErrNotFound and inserts nothing, which is how replay
	// of an already-used refresh token is detected.
	RotateSession(ctx context.Context, oldSessionID string, replacement domain.Session) error
	DeactivateSession(ctx context.Context, sessionID string) error
	// DeactivateSessionByTokenHash deactivates whatever session the token
	// resolves to. Deactivating an unknown or already-inactive token is not an
	// error; logout is idempotent.
	DeactivateSessionByTokenHash(ctx context.Context, tokenHash string) error
	DeactivateAllForUser(ctx context.Context, userID string) error
	// TouchSession records when the session was last used for a validated
	// request. Touching an unknown session is not an error.
	TouchSession(ctx context.Context, sessionID string, seenAt time.Time) error
	// ListSessionsByUser returns sessions newest first, optionally only those
	// created before the cursor.
	ListSessionsByUser(ctx context.Context, userID string, limit int, before *time.Time) ([]domain.Session, error)
	// SweepExpiredSessions deletes rows that are expired or inactive and
	// returns how many were removed. Meant to run on a schedule, not
	// per-request.
	SweepExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
