package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	portssvc "github.com/anvko/shop_admin_app/internal/core/ports/services"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token against the session store via the
// orchestrator and stores the resulting session info in the request context.
// Any miss, including an expired or revoked session, is a plain 401 with no
// further detail.
func AuthMiddleware(authSvc portssvc.AuthSvcFacade) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		token, ok := bearerToken(c)
		if !ok {
			logger.Warn("Authorization header missing or malformed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		info, err := authSvc.ValidateSession(c.Request.Context(), token)
		if err != nil {
			logger.Warn("Session validation failed", slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		ctx := withSessionContext(c.Request.Context(), info)

		enrichedLogger := logger.With(slog.String("user_id", info.UserID))
		ctx = context.WithValue(ctx, loggerCtxKey, enrichedLogger)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// BearerTokenFromRequest extracts the raw bearer token, for handlers like
// logout that act on the presented token without requiring validity.
func BearerTokenFromRequest(c *gin.Context) (string, bool) {
	return bearerToken(c)
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
