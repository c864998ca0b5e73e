package domain

import "time"

// TokenPair is the transient access/refresh token pair handed to a client on
// login or refresh. It is never persisted as-is; the session row mirrors it
// as SHA-256 hashes.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// DeviceMeta captures where a session was established from.
type DeviceMeta struct {
	UserAgent string `json:"userAgent"`
	IPAddress string `json:"ipAddress"`
}

// Session backs one active login. The session token presented on requests is
// the access token string; TokenHash is its SHA-256. Refresh rotates the
// session: the old row is deactivated and a replacement row is inserted, so a
// stolen refresh token has a single-use window.
type Session struct {
	SessionID        string       `json:"sessionID"` // Primary Key (UUID)
	UserID           string       `json:"userID"`
	Provider         AuthProvider `json:"provider,omitempty"` // provider that established the session, empty for password logins
	TokenHash        string       `json:"-"`
	RefreshTokenHash string       `json:"-"`
	ExpiresAt        time.Time    `json:"expiresAt"`
	RefreshExpiresAt time.Time    `json:"refreshExpiresAt"`
	UserAgent        string       `json:"userAgent"`
	IPAddress        string       `json:"ipAddress"`
	IsActive         bool         `json:"isActive"`
	RotatedFrom      *string      `json:"rotatedFrom,omitempty"` // SessionID of the row this one replaced
	CreatedAt        time.Time    `json:"createdAt"`
	LastSeenAt       *time.Time   `json:"lastSeenAt,omitempty"`
}

// IsUsable reports whether the session may still authenticate requests.
func (s *Session) IsUsable(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}

// SessionInfo is the request-time authorization view of a validated session.
type SessionInfo struct {
	UserID    string       `json:"userID"`
	SessionID string       `json:"sessionID"`
	Role      UserRole     `json:"role"`
	Provider  AuthProvider `json:"provider,omitempty"` // empty for password sessions
	ExpiresAt time.Time    `json:"expiresAt"`
}
