package services

import (
	"context"

	"github.com/anvko/shop_admin_app/internal/core/domain"
	"github.com/anvko/shop_admin_app/internal/dto"
)

// AuthSvcFacade is the auth orchestrator: it composes the credential, account
// link and session stores into the login/registration/refresh/logout flows.
// Every method is stateless across calls; state lives in the stores. Failures
// come back as apperrors sentinels so the transport layer can map them
// without inspecting messages.
type AuthSvcFacade interface {
	Register(ctx context.Context, req dto.RegisterRequest, device domain.DeviceMeta) (*dto.AuthResult, error)
	Login(ctx context.Context, req dto.LoginRequest, device domain.DeviceMeta) (*dto.AuthResult, error)
	// LoginWithProvider resolves a verified external identity to a user,
	// creating the user and/or the account link on first contact.
	LoginWithProvider(ctx context.Context, identity domain.ExternalIdentity, device domain.DeviceMeta) (*dto.AuthResult, error)
	// Refresh rotates the session behind the presented refresh token. A
	// second call with the same token fails with ErrInvalidOrExpiredToken.
	Refresh(ctx context.Context, refreshToken string, device domain.DeviceMeta) (*dto.AuthResult, error)
	// Logout deactivates the session behind the presented access token.
	// Idempotent: logging out twice is not an error.
	Logout(ctx context.Context, accessToken string) error
	// ValidateSession resolves an access token to request-time authorization
	// info. Any miss, including expiry, is ErrUnauthenticated.
	ValidateSession(ctx context.Context, accessToken string) (*domain.SessionInfo, error)

	ChangePassword(ctx context.Context, userID string, req dto.ChangePasswordRequest) error
	// RequestPasswordReset returns the raw reset token so the (out of scope)
	// mailer can deliver it. Unknown emails return ("", nil) to avoid
	// enumeration.
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error

	// UnlinkProvider removes an account link, refusing when it is the user's
	// last authentication method.
	UnlinkProvider(ctx context.Context, userID string, provider domain.AuthProvider) error
	ListLinks(ctx context.Context, userID string) ([]domain.AccountLink, error)
	ListSessions(ctx context.Context, userID string, limit int, pageToken string) ([]domain.Session, string, error)
	// RevokeAllSessions logs the user out everywhere.
	RevokeAllSessions(ctx context.Context, userID string) error
}

// TokenSvcFacade mints token pairs for sessions.
type TokenSvcFacade interface {
	// MintPair creates a signed access token and a random refresh token bound
	// to the given session.
	MintPair(ctx context.Context, user *domain.User, sessionID string) (domain.TokenPair, error)
}

// ProviderVerifierSvcFacade verifies a provider login payload and maps it to
// a normalized external identity. Dispatch is over the closed
// domain.AuthProvider set.
type ProviderVerifierSvcFacade interface {
	Verify(ctx context.Context, req dto.ProviderLoginRequest) (domain.ExternalIdentity, error)
}
