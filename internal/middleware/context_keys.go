package middleware

import (
	"context"

	"github.com/anvko/shop_admin_app/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// contextKey is a private type so context values cannot collide with keys
// from other packages.
type contextKey string

const (
	loggerCtxKey   = contextKey("logger")
	userIDKey      = contextKey("userID")
	sessionInfoKey = contextKey("sessionInfo")
)

// GetUserIDFromContext retrieves the authenticated user ID set by the auth
// middleware.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Request.Context().Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// GetSessionInfoFromContext retrieves the validated session info set by the
// auth middleware.
func GetSessionInfoFromContext(c *gin.Context) (*domain.SessionInfo, bool) {
	info, ok := c.Request.Context().Value(sessionInfoKey).(*domain.SessionInfo)
	return info, ok && info != nil
}

// withSessionContext stores the validated session and an enriched logger on
// the request context.
func withSessionContext(ctx context.Context, info *domain.SessionInfo) context.Context {
	ctx = context.WithValue(ctx, userIDKey, info.UserID)
	return context.WithValue(ctx, sessionInfoKey, info)
}
