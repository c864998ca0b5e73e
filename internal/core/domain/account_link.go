package domain

import "time"

// AccountLink associates a user with one external identity provider account.
// (Provider, ProviderSubjectID) is globally unique and immutable once
// created; it is the lookup key for "does this external identity already map
// to a user". A user may hold links to several providers at once.
type AccountLink struct {
	LinkID            string       `json:"linkID"` // Primary Key (UUID)
	UserID            string       `json:"userID"`
	Provider          AuthProvider `json:"provider"`
	ProviderSubjectID string       `json:"providerSubjectID"`

	// Provider-issued tokens, opaque to this system.
	ProviderAccessToken  string     `json:"-"`
	ProviderRefreshToken string     `json:"-"`
	ProviderIDToken      string     `json:"-"`
	ProviderTokenExpiry  *time.Time `json:"providerTokenExpiry,omitempty"`

	AuditFields
}
