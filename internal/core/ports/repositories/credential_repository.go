package repositories

import (
	"context"
	"time"

	"github.com/anvko/shop_admin_app/internal/core/domain"
)

// CredentialRepository persists password hashes and reset tokens, one row per
// password-registered user.
type CredentialRepository interface {
	// CreateCredential inserts the credential row. Returns
	// apperrors.ErrDuplicate when the user already has one.
	CreateCredential(ctx context.Context, cred domain.Credential) error
	// FindCredentialByUserID returns apperrors.ErrNotFound for OAuth-only
	// users.
	FindCredentialByUserID(ctx context.Context, userID string) (*domain.Credential, error)
	// ReplaceCredential overwrites the password hash (password change/reset).
	ReplaceCredential(ctx context.Context, userID string, newHash string, updatedAt time.Time) error
	SetResetToken(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error
	// ConsumeResetToken resolves a reset token hash to its user and clears the
	// token in the same statement, so a token can only ever be used once.
	// Returns apperrors.ErrInvalidOrExpiredToken for unknown, expired or
	// already-consumed tokens.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (string, error)
}
