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

type PgxAccountLinkRepository struct {
	db *pgxpool.Pool
}

func newPgxAccountLinkRepository(db *pgxpool.Pool) portsrepo.AccountLinkRepository {
	return &PgxAccountLinkRepository{db: db}
}

var _ portsrepo.AccountLinkRepository = (*PgxAccountLinkRepository)(nil)

const linkColumns = `link_id, user_id, provider, provider_subject_id,
		provider_access_token, provider_refresh_token, provider_id_token, provider_token_expiry,
		created_at, created_by, last_updated_at, last_updated_by`

func scanLink(row pgx.Row) (*domain.AccountLink, error) {
	var l domain.AccountLink
	var accessToken, refreshToken, idToken *string
	err := row.Scan(
		&l.LinkID,
		&l.UserID,
		&l.Provider,
		&l.ProviderSubjectID,
		&accessToken,
		&refreshToken,
		&idToken,
		&l.ProviderTokenExpiry,
		&l.CreatedAt,
		&l.CreatedBy,
		&l.LastUpdatedAt,
		&l.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if accessToken != nil {
		l.ProviderAccessToken = *accessToken
	}
	if refreshToken != nil {
		l.ProviderRefreshToken = *refreshToken
	}
	if idToken != nil {
		l.ProviderIDToken = *idToken
	}
	return &l, nil
}

func (r *PgxAccountLinkRepository) CreateLink(ctx context.Context, link domain.AccountLink) error {
	query := `
        INSERT INTO account_links (link_id, user_id, provider, provider_subject_id,
            provider_access_token, provider_refresh_token, provider_id_token, provider_token_expiry,
            created_at, created_by, last_updated_at, last_updated_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
    `
	_, err := r.db.Exec(ctx, query,
		link.LinkID,
		link.UserID,
		link.Provider,
		link.ProviderSubjectID,
		link.ProviderAccessToken,
		link.ProviderRefreshToken,
		link.ProviderIDToken,
		link.ProviderTokenExpiry,
		link.CreatedAt,
		link.CreatedBy,
		link.LastUpdatedAt,
		link.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// The (provider, provider_subject_id) unique index decides the
			// winner when two logins race to create the same link.
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create account link: %w", err)
	}
	return nil
}

func (r *PgxAccountLinkRepository) FindLinkByProviderSubject(ctx context.Context, provider domain.AuthProvider, subjectID string) (*domain.AccountLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM account_links
		WHERE provider = $1 AND provider_subject_id = $2;
	`
	link, err := scanLink(r.db.QueryRow(ctx, query, provider, subjectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account link for %s subject: %w", provider, err)
	}
	return link, nil
}

func (r *PgxAccountLinkRepository) ListLinksByUser(ctx context.Context, userID string) ([]domain.AccountLink, error) {
	query := `
        SELECT ` + linkColumns + `
        FROM account_links
        WHERE user_id = $1
        ORDER BY created_at ASC;
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query account links: %w", err)
	}
	defer rows.Close()

	links := []domain.AccountLink{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account link row: %w", err)
		}
		links = append(links, *link)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating account link rows: %w", rows.Err())
	}

	return links, nil
}

func (r *PgxAccountLinkRepository) UpdateLinkTokens(ctx context.Context, linkID string, tokens domain.ProviderTokens, updatedAt time.Time) error {
	query := `
        UPDATE account_links
        SET provider_access_token = $1, provider_refresh_token = $2, provider_id_token = $3,
            provider_token_expiry = $4, last_updated_at = $5
        WHERE link_id = $6;
    `
	cmdTag, err := r.db.Exec(ctx, query,
		tokens.AccessToken,
		tokens.RefreshToken,
		tokens.IDToken,
		tokens.Expiry,
		updatedAt,
		linkID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account link tokens: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxAccountLinkRepository) DeleteLink(ctx context.Context, linkID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM account_links WHERE link_id = $1;`, linkID)
	if err != nil {
		return fmt.Errorf("failed to delete account link: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
