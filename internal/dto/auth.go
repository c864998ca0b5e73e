package dto

import (
	"time"

	"github.com/anvko/shop_admin_app/internal/core/domain"
)

// RegisterRequest is the payload for password registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,max=120"`
}

// LoginRequest is the payload for password login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ProviderLoginRequest is the payload for provider login. Google sends an ID
// token verified server-side; GitHub sends an authorization code we exchange.
type ProviderLoginRequest struct {
	Provider    string `json:"provider" binding:"required,oneof=google github"`
	IDToken     string `json:"idToken,omitempty"`
	Code        string `json:"code,omitempty"`
	RedirectURI string `json:"redirectUri,omitempty"`
}

// RefreshRequest carries the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes a password reset with a single-use token.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=72"`
}

// ChangePasswordRequest changes the password of the authenticated user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
}

// AuthResult is what the orchestrator hands back on any successful
// authentication flow, before the handler shapes it into an AuthResponse.
type AuthResult struct {
	User      domain.User
	Pair      domain.TokenPair
	IsNewUser bool
	Provider  domain.AuthProvider // empty for password flows
}

// AuthResponse is the wire envelope for login/register/provider flows.
type AuthResponse struct {
	Success      bool          `json:"success"`
	User         *UserResponse `json:"user,omitempty"`
	AccessToken  string        `json:"accessToken,omitempty"`
	RefreshToken string        `json:"refreshToken,omitempty"`
	ExpiresAt    *time.Time    `json:"expiresAt,omitempty"`
	IsNewUser    bool          `json:"isNewUser,omitempty"`
	Provider     string        `json:"provider,omitempty"`
	Message      string        `json:"message,omitempty"`
	Code         string        `json:"code,omitempty"`
}

// ToAuthResponse shapes a successful AuthResult into the wire envelope.
func ToAuthResponse(res *AuthResult) AuthResponse {
	user := ToUserResponse(res.User)
	return AuthResponse{
		Success:      true,
		User:         &user,
		AccessToken:  res.Pair.AccessToken,
		RefreshToken: res.Pair.RefreshToken,
		ExpiresAt:    &res.Pair.AccessExpiresAt,
		IsNewUser:    res.IsNewUser,
		Provider:     string(res.Provider),
	}
}

// RefreshResponse is the wire envelope for token refresh.
type RefreshResponse struct {
	Success      bool       `json:"success"`
	AccessToken  string     `json:"accessToken,omitempty"`
	RefreshToken string     `json:"refreshToken,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	Message      string     `json:"message,omitempty"`
	Code         string     `json:"code,omitempty"`
}

// LogoutResponse is the wire envelope for logout.
type LogoutResponse struct {
	Success bool `json:"success"`
}

// MessageResponse is a generic success/message envelope.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SessionResponse is the user-visible view of one of their sessions.
type SessionResponse struct {
	SessionID  string     `json:"sessionID"`
	Provider   string     `json:"provider,omitempty"`
	UserAgent  string     `json:"userAgent"`
	IPAddress  string     `json:"ipAddress"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	Current    bool       `json:"current"`
}

// ListSessionsResponse pages through a user's active sessions.
type ListSessionsResponse struct {
	Sessions  []SessionResponse `json:"sessions"`
	NextToken string            `json:"nextToken,omitempty"`
}

// ToSessionResponse maps a session row, marking the one backing the request.
func ToSessionResponse(s domain.Session, currentSessionID string) SessionResponse {
	return SessionResponse{
		SessionID:  s.SessionID,
		Provider:   string(s.Provider),
		UserAgent:  s.UserAgent,
		IPAddress:  s.IPAddress,
		CreatedAt:  s.CreatedAt,
		LastSeenAt: s.LastSeenAt,
		ExpiresAt:  s.ExpiresAt,
		Current:    s.SessionID == currentSessionID,
	}
}
