package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidCredentials covers both "no such user" and "wrong password" so
// callers cannot enumerate registered emails.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailTaken indicates that registration was attempted with an email that
// already has a user record.
var ErrEmailTaken = errors.New("email already registered")

// ErrAccountInactive indicates the user exists but has been deactivated.
var ErrAccountInactive = errors.New("account is inactive")

// ErrInvalidOrExpiredToken indicates a refresh or reset token that is unknown,
// expired, or already consumed/rotated.
var ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

// ErrUnauthenticated indicates the presented session token does not resolve to
// an active session.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrConflict indicates a state conflict, e.g. an account link already bound
// to a different user.
var ErrConflict = errors.New("conflict")

// ErrLastAuthMethod indicates an unlink that would leave the user with no way
// to sign in.
var ErrLastAuthMethod = errors.New("cannot remove the last authentication method")

// AppError carries an HTTP status code and a message safe to return to
// clients. Wrapped causes stay server-side.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// NewAppError creates an AppError with an explicit status code and cause.
func NewAppError(code int, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, cause: cause}
}

func NewInternalServerError(message string) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: message}
}
