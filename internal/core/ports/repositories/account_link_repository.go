package repositories

import (
	"context"
	"time"

	"github.com/anvko/shop_admin_app/internal/core/domain"
)

// AccountLinkRepository persists links between users and external identity
// providers. (provider, provider_subject_id) is unique across all users; the
// database constraint is the arbiter under concurrent creation.
type AccountLinkRepository interface {
	// CreateLink inserts a new link. Returns apperrors.ErrDuplicate when the
	// (provider, subject) pair already exists.
	CreateLink(ctx context.Context, link domain.AccountLink) error
	FindLinkByProviderSubject(ctx context.Context, provider domain.AuthProvider, subjectID string) (*domain.AccountLink, error)
	ListLinksByUser(ctx context.Context, userID string) ([]domain.AccountLink, error)
	// UpdateLinkTokens refreshes the provider-issued tokens without touching
	// the link identity.
	UpdateLinkTokens(ctx context.Context, linkID string, tokens domain.ProviderTokens, updatedAt time.Time) error
	DeleteLink(ctx context.Context, linkID string) error
}
