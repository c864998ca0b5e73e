package services

import (
	"context"

	"github.com/anvko/shop_admin_app/internal/core/domain"
	"github.com/anvko/shop_admin_app/internal/dto"
)

// UserSvcFacade exposes user identity lookups and profile mutation to the
// transport layer and to the auth middleware.
type UserSvcFacade interface {
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest) (*domain.User, error)
	// DeactivateUser soft-deactivates: the row stays while sessions reference it.
	DeactivateUser(ctx context.Context, userID string, deactivatedBy string) error
}
