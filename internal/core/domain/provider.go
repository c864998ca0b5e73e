package domain

import "time"

// AuthProvider identifies an external identity provider. The set is closed:
// adding a provider means adding a constant here plus a verifier in the
// services layer, checked at compile time via AllProviders.
type AuthProvider string

const (
	ProviderGoogle AuthProvider = "google"
	ProviderGitHub AuthProvider = "github"
)

// AllProviders lists every supported provider.
var AllProviders = []AuthProvider{ProviderGoogle, ProviderGitHub}

// IsValid reports whether the provider is one of the supported providers.
func (p AuthProvider) IsValid() bool {
	for _, known := range AllProviders {
		if p == known {
			return true
		}
	}
	return false
}

// ExternalIdentity is the normalized result of verifying a provider payload.
// It is a total mapping of what the provider asserted: optional claims are
// explicit fields here, never re-checked for presence downstream.
type ExternalIdentity struct {
	Provider      AuthProvider
	SubjectID     string // provider-issued stable user id ("sub")
	Email         string
	EmailVerified bool
	Name          string // empty when the provider did not assert a name
	// Provider-issued tokens, opaque to us. Stored on the account link so the
	// admin console can call provider APIs on the user's behalf later.
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenExpiry  *time.Time // nil when the provider did not report one
}

// ProviderTokens groups the provider-issued tokens stored on an account link.
type ProviderTokens struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	Expiry       *time.Time
}

// Tokens extracts the provider-issued tokens from a verified identity.
func (id ExternalIdentity) Tokens() ProviderTokens {
	return ProviderTokens{
		AccessToken:  id.AccessToken,
		RefreshToken: id.RefreshToken,
		IDToken:      id.IDToken,
		Expiry:       id.TokenExpiry,
	}
}
