// Package authclient is the Go SDK for the shop admin auth backend. It wraps
// the HTTP surface and layers token lifecycle management on top: a Manager
// that transparently refreshes the pair before expiry (coalescing concurrent
// refreshes into one), and a StateMachine that tracks the authentication
// state of a long-lived client such as the admin console's backend-for-frontend.
package authclient

import (
	"errors"
	"fmt"
	"time"
)

// TokenPair is the access/refresh pair issued by the backend.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// User is the profile the backend returns on login and from /users/me.
type User struct {
	UserID        string     `json:"userID"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"emailVerified"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Session is one of the user's active sessions as reported by the backend.
type Session struct {
	SessionID string    `json:"sessionID"`
	Provider  string    `json:"provider,omitempty"`
	UserAgent string    `json:"userAgent"`
	IPAddress string    `json:"ipAddress"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Current   bool      `json:"current"`
}

// Sentinel errors mirrored from the backend's error codes.
var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailTaken            = errors.New("email already taken")
	ErrAccountInactive       = errors.New("account inactive")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrConflict              = errors.New("conflict")
	ErrNotAuthenticated      = errors.New("no token pair stored")
)

// APIError carries the backend's failure envelope when the code does not map
// to a sentinel, and wraps the sentinel when it does.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	sentinel   error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth api: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// Unwrap lets errors.Is match the mirrored sentinel.
func (e *APIError) Unwrap() error {
	return e.sentinel
}

func newAPIError(status int, code, message string) *APIError {
	e := &APIError{StatusCode: status, Code: code, Message: message}
	switch code {
	case "INVALID_CREDENTIALS":
		e.sentinel = ErrInvalidCredentials
	case "EMAIL_TAKEN":
		e.sentinel = ErrEmailTaken
	case "ACCOUNT_INACTIVE":
		e.sentinel = ErrAccountInactive
	case "INVALID_OR_EXPIRED_TOKEN":
		e.sentinel = ErrInvalidOrExpiredToken
	case "UNAUTHENTICATED":
		e.sentinel = ErrUnauthenticated
	case "CONFLICT", "LAST_AUTH_METHOD":
		e.sentinel = ErrConflict
	}
	return e
}
