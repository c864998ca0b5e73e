package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anvko/shop_admin_app/internal/apperrors"
	"github.com/anvko/shop_admin_app/internal/core/domain"
	portsrepo "github.com/anvko/shop_admin_app/internal/core/ports/repositories"
	portssvc "github.com/anvko/shop_admin_app/internal/core/ports/services"
	"github.com/anvko/shop_admin_app/internal/dto"
)

type userService struct {
	users    portsrepo.UserRepository
	sessions portsrepo.SessionRepository
}

// NewUserService creates the user service. It holds the session repository so
// deactivation can revoke the user's sessions in the same operation.
func NewUserService(users portsrepo.UserRepository, sessions portsrepo.SessionRepository) portssvc.UserSvcFacade {
	return &userService{users: users, sessions: sessions}
}

var _ portssvc.UserSvcFacade = (*userService)(nil)

func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest) (*domain.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	user.LastUpdatedAt = time.Now()
	user.LastUpdatedBy = userID

	if err := s.users.UpdateUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *userService) DeactivateUser(ctx context.Context, userID string, deactivatedBy string) error {
	if err := s.users.MarkUserDeleted(ctx, userID, time.Now(), deactivatedBy); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	// A deactivated user must not keep authenticating on old sessions.
	if err := s.sessions.DeactivateAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions for deactivated user: %w", err)
	}
	return nil
}
