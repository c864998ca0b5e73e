package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/anvko/shop_admin_app/internal/apperrors"
	"github.com/anvko/shop_admin_app/internal/core/domain"
	portssvc "github.com/anvko/shop_admin_app/internal/core/ports/services"
	"github.com/anvko/shop_admin_app/internal/dto"
	"github.com/anvko/shop_admin_app/internal/platform/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// providerVerifier verifies provider login payloads and normalizes them into
// domain.ExternalIdentity. Dispatch is a switch over the closed
// domain.AuthProvider set; an unknown provider is a validation error, not a
// fallthrough.
type providerVerifier struct {
	cfg          *config.Config
	googleConfig *oauth2.Config
	githubConfig *oauth2.Config

	// validateGoogleIDToken is swappable in tests.
	validateGoogleIDToken func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

// NewProviderVerifier creates the provider verifier service.
func NewProviderVerifier(cfg *config.Config) portssvc.ProviderVerifierSvcFacade {
	return &providerVerifier{
		cfg: cfg,
		googleConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
		githubConfig: &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.GitHubRedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		validateGoogleIDToken: idtoken.Validate,
	}
}

func (s *providerVerifier) Verify(ctx context.Context, req dto.ProviderLoginRequest) (domain.ExternalIdentity, error) {
	provider := domain.AuthProvider(req.Provider)
	switch provider {
	case domain.ProviderGoogle:
		return s.verifyGoogle(ctx, req)
	case domain.ProviderGitHub:
		return s.verifyGitHub(ctx, req)
	default:
		return domain.ExternalIdentity{}, fmt.Errorf("%w: unsupported provider %q", apperrors.ErrValidation, req.Provider)
	}
}

// verifyGoogle validates the ID token asserted by Google's sign-in flow.
func (s *providerVerifier) verifyGoogle(ctx context.Context, req dto.ProviderLoginRequest) (domain.ExternalIdentity, error) {
	if s.cfg.GoogleClientID == "" {
		return domain.ExternalIdentity{}, apperrors.NewInternalServerError("google client ID is not configured")
	}
	if req.IDToken == "" {
		return domain.ExternalIdentity{}, fmt.Errorf("%w: idToken is required for google login", apperrors.ErrValidation)
	}

	payload, err := s.validateGoogleIDToken(ctx, req.IDToken, s.cfg.GoogleClientID)
	if err != nil {
		return domain.ExternalIdentity{}, fmt.Errorf("%w: google ID token validation failed: %v", apperrors.ErrInvalidCredentials, err)
	}

	return mapGoogleIdentity(payload, req.IDToken)
}

// mapGoogleIdentity is the one place Google's claim map is inspected. It is a
// total mapping: every optional claim becomes an explicit field here, and
// nothing downstream re-checks presence.
func mapGoogleIdentity(payload *idtoken.Payload, rawIDToken string) (domain.ExternalIdentity, error) {
	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	emailVerified, _ := payload.Claims["email_verified"].(bool)

	if payload.Subject == "" || email == "" {
		return domain.ExternalIdentity{}, fmt.Errorf("%w: essential claims missing from google ID token", apperrors.ErrInvalidCredentials)
	}

	identity := domain.ExternalIdentity{
		Provider:      domain.ProviderGoogle,
		SubjectID:     payload.Subject,
		Email:         email,
		EmailVerified: emailVerified,
		Name:          name,
		IDToken:       rawIDToken,
	}
	if payload.Expires > 0 {
		expiry := time.Unix(payload.Expires, 0)
		identity.TokenExpiry = &expiry
	}
	return identity, nil
}

// githubUser is GitHub's /user response, reduced to what we map.
type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// githubEmail is one entry of GitHub's /user/emails response.
type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// verifyGitHub exchanges the authorization code and fetches the user's
// profile. GitHub hides the email on many profiles, so the primary verified
// address is resolved through /user/emails when needed.
func (s *providerVerifier) verifyGitHub(ctx context.Context, req dto.ProviderLoginRequest) (domain.ExternalIdentity, error) {
	if s.cfg.GitHubClientID == "" {
		return domain.ExternalIdentity{}, apperrors.NewInternalServerError("github client ID is not configured")
	}
	if req.Code == "" {
		return domain.ExternalIdentity{}, fmt.Errorf("%w: code is required for github login", apperrors.ErrValidation)
	}

	token, err := s.githubConfig.Exchange(ctx, req.Code)
	if err != nil {
		return domain.ExternalIdentity{}, fmt.Errorf("%w: github code exchange failed: %v", apperrors.ErrInvalidCredentials, err)
	}

	client := s.githubConfig.Client(ctx, token)

	var user githubUser
	if err := getJSON(client, "https://api.github.com/user", &user); err != nil {
		return domain.ExternalIdentity{}, fmt.Errorf("failed to fetch github user: %w", err)
	}
	if user.ID == 0 {
		return domain.ExternalIdentity{}, fmt.Errorf("%w: github user id missing", apperrors.ErrInvalidCredentials)
	}

	email := user.Email
	emailVerified := false
	if email == "" {
		var emails []githubEmail
		if err := getJSON(client, "https://api.github.com/user/emails", &emails); err != nil {
			return domain.ExternalIdentity{}, fmt.Errorf("failed to fetch github emails: %w", err)
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = e.Email
				emailVerified = true
				break
			}
		}
	}
	if email == "" {
		return domain.ExternalIdentity{}, fmt.Errorf("%w: github account has no verified primary email", apperrors.ErrInvalidCredentials)
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	identity := domain.ExternalIdentity{
		Provider:      domain.ProviderGitHub,
		SubjectID:     strconv.FormatInt(user.ID, 10),
		Email:         email,
		EmailVerified: emailVerified,
		Name:          name,
		AccessToken:   token.AccessToken,
		RefreshToken:  token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		identity.TokenExpiry = &expiry
	}
	return identity, nil
}

func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api returned non-200 status for %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
