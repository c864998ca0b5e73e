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
	"github.com/anvko/shop_admin_app/internal/platform/config"
	"github.com/anvko/shop_admin_app/internal/utils"
	"github.com/anvko/shop_admin_app/internal/utils/pagination"
	"github.com/google/uuid"
)

// authService is the auth orchestrator. Each flow is stateless across calls;
// all state lives in the user/credential/account-link/session stores.
type authService struct {
	cfg      *config.Config
	users    portsrepo.UserRepository
	creds    portsrepo.CredentialRepository
	links    portsrepo.AccountLinkRepository
	sessions portsrepo.SessionRepository
	tokens   portssvc.TokenSvcFacade

	now func() time.Time
}

// NewAuthService creates the auth orchestrator from the stores and the token
// service.
func NewAuthService(cfg *config.Config, repos portsrepo.RepositoryProvider, tokens portssvc.TokenSvcFacade) portssvc.AuthSvcFacade {
	return &authService{
		cfg:      cfg,
		users:    repos.UserRepo,
		creds:    repos.CredentialRepo,
		links:    repos.AccountLinkRepo,
		sessions: repos.SessionRepo,
		tokens:   tokens,
		now:      time.Now,
	}
}

var _ portssvc.AuthSvcFacade = (*authService)(nil)

// issueSession mints a token pair, persists the backing session row and
// stamps last_login_at.
func (s *authService) issueSession(ctx context.Context, user *domain.User, provider domain.AuthProvider, device domain.DeviceMeta) (*dto.AuthResult, error) {
	sessionID := uuid.NewString()

	pair, err := s.tokens.MintPair(ctx, user, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := domain.Session{
		SessionID:        sessionID,
		UserID:           user.UserID,
		Provider:         provider,
		TokenHash:        utils.HashToken(pair.AccessToken),
		RefreshTokenHash: utils.HashToken(pair.RefreshToken),
		ExpiresAt:        pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		UserAgent:        device.UserAgent,
		IPAddress:        device.IPAddress,
		IsActive:         true,
		CreatedAt:        now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	// Login already succeeded; a failed last-login stamp must not fail it.
	_ = s.users.UpdateLastLogin(ctx, user.UserID, now)
	user.LastLoginAt = &now

	return &dto.AuthResult{User: *user, Pair: pair, Provider: provider}, nil
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest, device domain.DeviceMeta) (*dto.AuthResult, error) {
	if _, err := s.users.FindUserByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.ErrEmailTaken
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}

	now := s.now()
	user := domain.User{
		UserID:        uuid.NewString(),
		Email:         req.Email,
		Name:          req.Name,
		Role:          domain.RoleCustomer,
		IsActive:      true,
		EmailVerified: false,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     "registration",
			LastUpdatedAt: now,
			LastUpdatedBy: "registration",
		},
	}
	if err := s.users.SaveUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Lost a race with a concurrent registration for the same email.
			return nil, apperrors.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	hash, err := utils.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	cred := domain.Credential{
		UserID:       user.UserID,
		PasswordHash: hash,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     user.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: user.UserID,
		},
	}
	if err := s.creds.CreateCredential(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	result, err := s.issueSession(ctx, &user, "", device)
	if err != nil {
		return nil, err
	}
	result.IsNewUser = true
	return result, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest, device domain.DeviceMeta) (*dto.AuthResult, error) {
	// Absent user, inactive user and wrong password all collapse into the
	// same error so responses cannot be used to enumerate accounts.
	user, err := s.users.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.CanAuthenticate() {
		return nil, apperrors.ErrInvalidCredentials
	}

	cred, err := s.creds.FindCredentialByUserID(ctx, user.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// OAuth-only account; indistinguishable from a wrong password.
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up credential: %w", err)
	}
	if !utils.CheckPasswordHash(req.Password, cred.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issueSession(ctx, user, "", device)
}

func (s *authService) LoginWithProvider(ctx context.Context, identity domain.ExternalIdentity, device domain.DeviceMeta) (*dto.AuthResult, error) {
	link, err := s.links.FindLinkByProviderSubject(ctx, identity.Provider, identity.SubjectID)
	if err == nil {
		return s.loginViaLink(ctx, link, identity, device, false)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up account link: %w", err)
	}

	// No link yet. Try to attach this external identity to an existing user
	// with the same email before minting a brand-new user.
	user, err := s.users.FindUserByEmail(ctx, identity.Email)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user by provider email: %w", err)
	}

	isNewUser := false
	if user == nil {
		created, err := s.createProviderUser(ctx, identity)
		if err != nil {
			return nil, err
		}
		user = created
		isNewUser = true
	}
	if !user.CanAuthenticate() {
		return nil, apperrors.ErrAccountInactive
	}

	if _, err := s.createLink(ctx, user.UserID, identity); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// A concurrent login for the same subject won the insert. Re-read
			// the winner and proceed as an ordinary linked login.
			link, lookupErr := s.links.FindLinkByProviderSubject(ctx, identity.Provider, identity.SubjectID)
			if lookupErr != nil {
				if errors.Is(lookupErr, apperrors.ErrNotFound) {
					// No row for this subject means the duplicate was the
					// one-link-per-provider rule: the user already has a
					// different identity linked for this provider.
					return nil, apperrors.ErrConflict
				}
				return nil, fmt.Errorf("failed to re-read account link after conflict: %w", lookupErr)
			}
			return s.loginViaLink(ctx, link, identity, device, false)
		}
		return nil, err
	}

	result, err := s.issueSession(ctx, user, identity.Provider, device)
	if err != nil {
		return nil, err
	}
	result.IsNewUser = isNewUser
	return result, nil
}

// loginViaLink completes a provider login for an already-linked identity.
func (s *authService) loginViaLink(ctx context.Context, link *domain.AccountLink, identity domain.ExternalIdentity, device domain.DeviceMeta, isNewUser bool) (*dto.AuthResult, error) {
	user, err := s.users.FindUserByID(ctx, link.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Link outlived a deactivated user.
			return nil, apperrors.ErrAccountInactive
		}
		return nil, fmt.Errorf("failed to load linked user: %w", err)
	}
	if !user.CanAuthenticate() {
		return nil, apperrors.ErrAccountInactive
	}

	// Keep the provider-issued tokens fresh; the link identity never changes.
	if err := s.links.UpdateLinkTokens(ctx, link.LinkID, identity.Tokens(), s.now()); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to refresh provider tokens: %w", err)
	}

	result, err := s.issueSession(ctx, user, identity.Provider, device)
	if err != nil {
		return nil, err
	}
	result.IsNewUser = isNewUser
	return result, nil
}

func (s *authService) createProviderUser(ctx context.Context, identity domain.ExternalIdentity) (*domain.User, error) {
	now := s.now()
	user := domain.User{
		UserID:        uuid.NewString(),
		Email:         identity.Email,
		Name:          identity.Name,
		Role:          domain.RoleCustomer,
		IsActive:      true,
		EmailVerified: identity.EmailVerified,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     string(identity.Provider),
			LastUpdatedAt: now,
			LastUpdatedBy: string(identity.Provider),
		},
	}
	if err := s.users.SaveUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Concurrent provider login created the user first; use theirs.
			existing, lookupErr := s.users.FindUserByEmail(ctx, identity.Email)
			if lookupErr != nil {
				return nil, fmt.Errorf("failed to re-read user after conflict: %w", lookupErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create user for provider login: %w", err)
	}
	return &user, nil
}

func (s *authService) createLink(ctx context.Context, userID string, identity domain.ExternalIdentity) (*domain.AccountLink, error) {
	now := s.now()
	link := domain.AccountLink{
		LinkID:               uuid.NewString(),
		UserID:               userID,
		Provider:             identity.Provider,
		ProviderSubjectID:    identity.SubjectID,
		ProviderAccessToken:  identity.AccessToken,
		ProviderRefreshToken: identity.RefreshToken,
		ProviderIDToken:      identity.IDToken,
		ProviderTokenExpiry:  identity.TokenExpiry,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.links.CreateLink(ctx, link); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create account link: %w", err)
	}
	return &link, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string, device domain.DeviceMeta) (*dto.AuthResult, error) {
	now := s.now()

	session, err := s.sessions.FindSessionByRefreshTokenHash(ctx, utils.HashToken(refreshToken), now)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	user, err := s.users.FindUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("failed to load user for refresh: %w", err)
	}
	if !user.CanAuthenticate() {
		return nil, apperrors.ErrAccountInactive
	}

	newSessionID := uuid.NewString()
	pair, err := s.tokens.MintPair(ctx, user, newSessionID)
	if err != nil {
		return nil, err
	}

	oldID := session.SessionID
	replacement := domain.Session{
		SessionID:        newSessionID,
		UserID:           user.UserID,
		Provider:         session.Provider,
		TokenHash:        utils.HashToken(pair.AccessToken),
		RefreshTokenHash: utils.HashToken(pair.RefreshToken),
		ExpiresAt:        pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		UserAgent:        device.UserAgent,
		IPAddress:        device.IPAddress,
		IsActive:         true,
		RotatedFrom:      &oldID,
		CreatedAt:        now,
	}
	if err := s.sessions.RotateSession(ctx, oldID, replacement); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Someone rotated this token between our lookup and now: replay.
			return nil, apperrors.ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}

	return &dto.AuthResult{User: *user, Pair: pair, Provider: session.Provider}, nil
}

func (s *authService) Logout(ctx context.Context, accessToken string) error {
	// Idempotent: deactivating an unknown or already-inactive token is fine.
	if err := s.sessions.DeactivateSessionByTokenHash(ctx, utils.HashToken(accessToken)); err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}
	return nil
}

func (s *authService) ValidateSession(ctx context.Context, accessToken string) (*domain.SessionInfo, error) {
	claims, err := utils.ParseAndValidateJWT(accessToken, s.cfg.JWTSecret)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}

	session, err := s.sessions.FindSessionByTokenHash(ctx, utils.HashToken(accessToken), s.now())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	// Best effort: a failed touch must not turn a valid session into a 401.
	_ = s.sessions.TouchSession(ctx, session.SessionID, s.now())

	return &domain.SessionInfo{
		UserID:    session.UserID,
		SessionID: session.SessionID,
		Role:      domain.UserRole(claims.Role),
		Provider:  session.Provider,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req dto.ChangePasswordRequest) error {
	cred, err := s.creds.FindCredentialByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrInvalidCredentials
		}
		return fmt.Errorf("failed to look up credential: %w", err)
	}
	if !utils.CheckPasswordHash(req.CurrentPassword, cred.PasswordHash) {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := utils.HashPassword(req.NewPassword, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.creds.ReplaceCredential(ctx, userID, hash, s.now()); err != nil {
		return fmt.Errorf("failed to replace credential: %w", err)
	}
	return nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Unknown email gets the same observable outcome as a known one.
			return "", nil
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if _, err := s.creds.FindCredentialByUserID(ctx, user.UserID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// OAuth-only account, nothing to reset.
			return "", nil
		}
		return "", fmt.Errorf("failed to look up credential: %w", err)
	}

	token, err := utils.GenerateSecureRandomString(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	expiresAt := s.now().Add(s.cfg.ResetTokenExpiryDuration)
	if err := s.creds.SetResetToken(ctx, user.UserID, utils.HashToken(token), expiresAt); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}
	return token, nil
}

func (s *authService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	userID, err := s.creds.ConsumeResetToken(ctx, utils.HashToken(req.Token), s.now())
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidOrExpiredToken) {
			return apperrors.ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	hash, err := utils.HashPassword(req.NewPassword, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.creds.ReplaceCredential(ctx, userID, hash, s.now()); err != nil {
		return fmt.Errorf("failed to replace credential: %w", err)
	}

	// A reset proves the old sessions may be in hostile hands.
	if err := s.sessions.DeactivateAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions after reset: %w", err)
	}
	return nil
}

func (s *authService) UnlinkProvider(ctx context.Context, userID string, provider domain.AuthProvider) error {
	links, err := s.links.ListLinksByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list account links: %w", err)
	}

	var target *domain.AccountLink
	for i := range links {
		if links[i].Provider == provider {
			target = &links[i]
			break
		}
	}
	if target == nil {
		return apperrors.ErrNotFound
	}

	hasPassword := true
	if _, err := s.creds.FindCredentialByUserID(ctx, userID); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("failed to look up credential: %w", err)
		}
		hasPassword = false
	}
	if !hasPassword && len(links) <= 1 {
		return apperrors.ErrLastAuthMethod
	}

	if err := s.links.DeleteLink(ctx, target.LinkID); err != nil {
		return fmt.Errorf("failed to delete account link: %w", err)
	}
	return nil
}

func (s *authService) ListLinks(ctx context.Context, userID string) ([]domain.AccountLink, error) {
	links, err := s.links.ListLinksByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list account links: %w", err)
	}
	return links, nil
}

func (s *authService) ListSessions(ctx context.Context, userID string, limit int, pageToken string) ([]domain.Session, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var before *time.Time
	if pageToken != "" {
		cursor, err := pagination.DecodeDateBasedToken(pageToken)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		before = &cursor
	}

	sessions, err := s.sessions.ListSessionsByUser(ctx, userID, limit, before)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list sessions: %w", err)
	}

	nextToken := ""
	if len(sessions) == limit {
		nextToken = pagination.EncodeDateBasedToken(sessions[len(sessions)-1].CreatedAt)
	}
	return sessions, nextToken, nil
}

func (s *authService) RevokeAllSessions(ctx context.Context, userID string) error {
	if err := s.sessions.DeactivateAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}
