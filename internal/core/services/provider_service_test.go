package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anvko/shop_admin_app/internal/apperrors"
	"github.com/anvko/shop_admin_app/internal/core/domain"
	"github.com/anvko/shop_admin_app/internal/dto"
	"github.com/anvko/shop_admin_app/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func testVerifier(t *testing.T, validate func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)) *providerVerifier {
	t.Helper()
	cfg := &config.Config{
		GoogleClientID:     "google-client-id",
		GoogleClientSecret: "google-secret",
		GitHubClientID:     "github-client-id",
		GitHubClientSecret: "github-secret",
	}
	v := NewProviderVerifier(cfg).(*providerVerifier)
	if validate != nil {
		v.validateGoogleIDToken = validate
	}
	return v
}

func TestVerify_UnknownProviderRejected(t *testing.T) {
	v := testVerifier(t, nil)

	_, err := v.Verify(context.Background(), dto.ProviderLoginRequest{Provider: "facebook", IDToken: "x"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestVerify_GoogleRequiresIDToken(t *testing.T) {
	v := testVerifier(t, nil)

	_, err := v.Verify(context.Background(), dto.ProviderLoginRequest{Provider: "google"})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestVerify_GitHubRequiresCode(t *testing.T) {
	v := testVerifier(t, nil)

	_, err := v.Verify(context.Background(), dto.ProviderLoginRequest{Provider: "github"})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestVerify_GoogleValidationFailure(t *testing.T) {
	v := testVerifier(t, func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error) {
		return nil, errors.New("token expired")
	})

	_, err := v.Verify(context.Background(), dto.ProviderLoginRequest{Provider: "google", IDToken: "expired-token"})

	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestVerify_GoogleMapsClaims(t *testing.T) {
	expires := time.Now().Add(time.Hour).Unix()
	v := testVerifier(t, func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error) {
		assert.Equal(t, "google-client-id", audience)
		return &idtoken.Payload{
			Subject: "sub-42",
			Expires: expires,
			Claims: map[string]any{
				"email":          "person@example.com",
				"email_verified": true,
				"name":           "A Person",
			},
		}, nil
	})

	identity, err := v.Verify(context.Background(), dto.ProviderLoginRequest{Provider: "google", IDToken: "good-token"})

	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGoogle, identity.Provider)
	assert.Equal(t, "sub-42", identity.SubjectID)
	assert.Equal(t, "person@example.com", identity.Email)
	assert.True(t, identity.EmailVerified)
	assert.Equal(t, "A Person", identity.Name)
	assert.Equal(t, "good-token", identity.IDToken)
	require.NotNil(t, identity.TokenExpiry)
	assert.Equal(t, expires, identity.TokenExpiry.Unix())
}

func TestMapGoogleIdentity_MissingEssentialClaims(t *testing.T) {
	cases := []struct {
		name    string
		payload *idtoken.Payload
	}{
		{"no subject", &idtoken.Payload{Claims: map[string]any{"email": "a@b.c"}}},
		{"no email", &idtoken.Payload{Subject: "sub", Claims: map[string]any{}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mapGoogleIdentity(tc.payload, "raw")
			assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		})
	}
}

func TestMapGoogleIdentity_OptionalClaimsDefault(t *testing.T) {
	payload := &idtoken.Payload{
		Subject: "sub-7",
		Claims:  map[string]any{"email": "min@example.com"},
	}

	identity, err := mapGoogleIdentity(payload, "raw")

	require.NoError(t, err)
	assert.Empty(t, identity.Name)
	assert.False(t, identity.EmailVerified)
	assert.Nil(t, identity.TokenExpiry)
}
