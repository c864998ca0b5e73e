package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anvko/shop_admin_app/internal/apperrors"
	"github.com/anvko/shop_admin_app/internal/core/domain"
	portsrepo "github.com/anvko/shop_admin_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxCredentialRepository struct {
	db *pgxpool.Pool
}

func newPgxCredentialRepository(db *pgxpool.Pool) portsrepo.CredentialRepository {
	return &PgxCredentialRepository{db: db}
}

var _ portsrepo.CredentialRepository = (*PgxCredentialRepository)(nil)

func (r *PgxCredentialRepository) CreateCredential(ctx context.Context, cred domain.Credential) error {
	query := `
        INSERT INTO credentials (user_id, password_hash, created_at, created_by, last_updated_at, last_updated_by)
        VALUES ($1, $2, $3, $4, $5, $6);
    `
	_, err := r.db.Exec(ctx, query,
		cred.UserID,
		cred.PasswordHash,
		cred.CreatedAt,
		cred.CreatedBy,
		cred.LastUpdatedAt,
		cred.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

func (r *PgxCredentialRepository) FindCredentialByUserID(ctx context.Context, userID string) (*domain.Credential, error) {
	query := `
		SELECT user_id, password_hash, reset_token_hash, reset_expires_at,
			created_at, created_by, last_updated_at, last_updated_by
		FROM credentials
		WHERE user_id = $1;
	`
	var cred domain.Credential
	var resetTokenHash *string
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&cred.UserID,
		&cred.PasswordHash,
		&resetTokenHash,
		&cred.ResetExpiresAt,
		&cred.CreatedAt,
		&cred.CreatedBy,
		&cred.LastUpdatedAt,
		&cred.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find credential for user %s: %w", userID, err)
	}
	if resetTokenHash != nil {
		cred.ResetTokenHash = *resetTokenHash
	}
	return &cred, nil
}

func (r *PgxCredentialRepository) ReplaceCredential(ctx context.Context, userID string, newHash string, updatedAt time.Time) error {
	// Replacing also clears any pending reset token.
	query := `
        UPDATE credentials
        SET password_hash = $1, reset_token_hash = NULL, reset_expires_at = NULL,
            last_updated_at = $2, last_updated_by = $3
        WHERE user_id = $3;
    `
	cmdTag, err := r.db.Exec(ctx, query, newHash, updatedAt, userID)
	if err != nil {
		return fmt.Errorf("failed to replace credential: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxCredentialRepository) SetResetToken(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	query := `
        UPDATE credentials
        SET reset_token_hash = $1, reset_expires_at = $2, last_updated_at = now(), last_updated_by = $3
        WHERE user_id = $3;
    `
	cmdTag, err := r.db.Exec(ctx, query, tokenHash, expiresAt, userID)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxCredentialRepository) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	// Clearing the token in the same statement that resolves it makes the
	// token single-use even under concurrent attempts: only one UPDATE wins.
	query := `
        UPDATE credentials
        SET reset_token_hash = NULL, reset_expires_at = NULL, last_updated_at = $2
        WHERE reset_token_hash = $1 AND reset_expires_at > $2
        RETURNING user_id;
    `
	var userID string
	err := r.db.QueryRow(ctx, query, tokenHash, now).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrInvalidOrExpiredToken
		}
		return "", fmt.Errorf("failed to consume reset token: %w", err)
	}
	return userID, nil
}
