package dto

import (
	"time"

	"github.com/anvko/shop_admin_app/internal/core/domain"
)

// UserResponse is the safe external representation of a user.
type UserResponse struct {
	UserID        string     `json:"userID"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"emailVerified"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ToUserResponse maps a domain user to its external representation.
func ToUserResponse(u domain.User) UserResponse {
	return UserResponse{
		UserID:        u.UserID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          string(u.Role),
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

// UpdateUserRequest updates mutable profile fields.
type UpdateUserRequest struct {
	Name *string `json:"name,omitempty" binding:"omitempty,max=120"`
}

// LinkResponse is the external representation of an account link.
type LinkResponse struct {
	LinkID    string    `json:"linkID"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToLinkResponse maps an account link, leaving provider tokens out.
func ToLinkResponse(l domain.AccountLink) LinkResponse {
	return LinkResponse{
		LinkID:    l.LinkID,
		Provider:  string(l.Provider),
		CreatedAt: l.CreatedAt,
	}
}
