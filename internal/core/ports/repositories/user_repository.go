package repositories

import (
	"context"
	"time"

	"github.com/anvko/shop_admin_app/internal/core/domain"
)

// UserRepository persists user identity records.
type UserRepository interface {
	// SaveUser inserts a new user. Returns apperrors.ErrDuplicate when the
	// email is already taken.
	SaveUser(ctx context.Context, user domain.User) error
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) error
	// UpdateLastLogin stamps last_login_at without touching audit fields.
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	// MarkUserDeleted soft-deactivates; users are never hard-deleted while
	// sessions may reference them.
	MarkUserDeleted(ctx context.Context, userID string, deletedAt time.Time, deletedBy string) error
}
