package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anvko/shop_admin_app/internal/core/domain"
	portssvc "github.com/anvko/shop_admin_app/internal/core/ports/services"
	"github.com/anvko/shop_admin_app/internal/platform/config"
	"github.com/anvko/shop_admin_app/internal/utils"
)

// tokenService mints access/refresh token pairs. Access tokens are HS256
// JWTs; refresh tokens are 32-byte random hex strings with no structure.
type tokenService struct {
	cfg *config.Config
}

// NewTokenService creates a new instance of tokenService.
func NewTokenService(cfg *config.Config) portssvc.TokenSvcFacade {
	return &tokenService{cfg: cfg}
}

func (s *tokenService) MintPair(ctx context.Context, user *domain.User, sessionID string) (domain.TokenPair, error) {
	now := time.Now()

	accessToken, err := utils.GenerateJWT(user.UserID, string(user.Role), sessionID, s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateSecureRandomString(32)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  now.Add(s.cfg.JWTExpiryDuration),
		RefreshExpiresAt: now.Add(s.cfg.RefreshTokenExpiryDuration),
	}, nil
}
