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

type PgxSessionRepository struct {
	BaseRepository
}

func newPgxSessionRepository(db *pgxpool.Pool) portsrepo.SessionRepository {
	return &PgxSessionRepository{BaseRepository{Pool: db}}
}

var _ portsrepo.SessionRepository = (*PgxSessionRepository)(nil)

const sessionColumns = `session_id, user_id, provider, token_hash, refresh_token_hash,
		expires_at, refresh_expires_at, user_agent, ip_address, is_active,
		rotated_from, created_at, last_seen_at`

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	var provider *string
	err := row.Scan(
		&s.SessionID,
		&s.UserID,
		&provider,
		&s.TokenHash,
		&s.RefreshTokenHash,
		&s.ExpiresAt,
		&s.RefreshExpiresAt,
		&s.UserAgent,
		&s.IPAddress,
		&s.IsActive,
		&s.RotatedFrom,
		&s.CreatedAt,
		&s.LastSeenAt,
	)
	if err != nil {
		return nil, err
	}
	if provider != nil {
		s.Provider = domain.AuthProvider(*provider)
	}
	return &s, nil
}

func (r *PgxSessionRepository) CreateSession(ctx context.Context, session domain.Session) error {
	query := `
        INSERT INTO sessions (session_id, user_id, provider, token_hash, refresh_token_hash,
            expires_at, refresh_expires_at, user_agent, ip_address, is_active,
            rotated_from, created_at)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12);
    `
	_, err := r.Pool.Exec(ctx, query,
		session.SessionID,
		session.UserID,
		string(session.Provider),
		session.TokenHash,
		session.RefreshTokenHash,
		session.ExpiresAt,
		session.RefreshExpiresAt,
		session.UserAgent,
		session.IPAddress,
		session.IsActive,
		session.RotatedFrom,
		session.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *PgxSessionRepository) FindSessionByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.Session, error) {
	// Expired or inactive rows are indistinguishable from missing ones.
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE token_hash = $1 AND is_active = TRUE AND expires_at > $2;
	`
	session, err := scanSession(r.Pool.QueryRow(ctx, query, tokenHash, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find session by token: %w", err)
	}
	return session, nil
}

func (r *PgxSessionRepository) FindSessionByRefreshTokenHash(ctx context.Context, refreshTokenHash string, now time.Time) (*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE refresh_token_hash = $1 AND is_active = TRUE AND refresh_expires_at > $2;
	`
	session, err := scanSession(r.Pool.QueryRow(ctx, query, refreshTokenHash, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find session by refresh token: %w", err)
	}
	return session, nil
}

func (r *PgxSessionRepository) RotateSession(ctx context.Context, oldSessionID string, replacement domain.Session) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	// Deactivating only-if-still-active makes rotation single-use: when two
	// refreshes race on the same token, the second UPDATE affects zero rows
	// and the whole rotation fails as "already rotated".
	cmdTag, err := tx.Exec(ctx, `
        UPDATE sessions SET is_active = FALSE
        WHERE session_id = $1 AND is_active = TRUE;
    `, oldSessionID)
	if err != nil {
		return fmt.Errorf("failed to deactivate session for rotation: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO sessions (session_id, user_id, provider, token_hash, refresh_token_hash,
            expires_at, refresh_expires_at, user_agent, ip_address, is_active,
            rotated_from, created_at)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12);
    `,
		replacement.SessionID,
		replacement.UserID,
		string(replacement.Provider),
		replacement.TokenHash,
		replacement.RefreshTokenHash,
		replacement.ExpiresAt,
		replacement.RefreshExpiresAt,
		replacement.UserAgent,
		replacement.IPAddress,
		replacement.IsActive,
		replacement.RotatedFrom,
		replacement.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to insert rotated session: %w", err)
	}

	return r.Commit(ctx, tx)
}

func (r *PgxSessionRepository) DeactivateSession(ctx context.Context, sessionID string) error {
	_, err := r.Pool.Exec(ctx, `
        UPDATE sessions SET is_active = FALSE WHERE session_id = $1;
    `, sessionID)
	if err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}
	return nil
}

func (r *PgxSessionRepository) DeactivateSessionByTokenHash(ctx context.Context, tokenHash string) error {
	// No row matched means already logged out; not an error.
	_, err := r.Pool.Exec(ctx, `
        UPDATE sessions SET is_active = FALSE WHERE token_hash = $1;
    `, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to deactivate session by token: %w", err)
	}
	return nil
}

func (r *PgxSessionRepository) TouchSession(ctx context.Context, sessionID string, seenAt time.Time) error {
	_, err := r.Pool.Exec(ctx, `
        UPDATE sessions SET last_seen_at = $2 WHERE session_id = $1;
    `, sessionID, seenAt)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (r *PgxSessionRepository) DeactivateAllForUser(ctx context.Context, userID string) error {
	_, err := r.Pool.Exec(ctx, `
        UPDATE sessions SET is_active = FALSE WHERE user_id = $1 AND is_active = TRUE;
    `, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate sessions for user: %w", err)
	}
	return nil
}

func (r *PgxSessionRepository) ListSessionsByUser(ctx context.Context, userID string, limit int, before *time.Time) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
        SELECT ` + sessionColumns + `
        FROM sessions
        WHERE user_id = $1 AND is_active = TRUE AND expires_at > now()
          AND ($2::timestamptz IS NULL OR created_at < $2)
        ORDER BY created_at DESC
        LIMIT $3;
    `
	rows, err := r.Pool.Query(ctx, query, userID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", rows.Err())
	}

	return sessions, nil
}

func (r *PgxSessionRepository) SweepExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	// A session is dead once its refresh window has closed or it was
	// deactivated; access-token expiry alone still leaves it refreshable.
	cmdTag, err := r.Pool.Exec(ctx, `
        DELETE FROM sessions WHERE refresh_expires_at <= $1 OR is_active = FALSE;
    `, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired sessions: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
