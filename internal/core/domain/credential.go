package domain

import "time"

// Credential holds the password material for a password-registered user.
// There is exactly one credential per such user; OAuth-only users have none.
type Credential struct {
	UserID       string `json:"userID"`
	PasswordHash string `json:"-"`
	// Reset token material. The token itself is only ever handed to the user;
	// we store its SHA-256 hash and a hard expiry.
	ResetTokenHash string     `json:"-"`
	ResetExpiresAt *time.Time `json:"-"`
	AuditFields
}
