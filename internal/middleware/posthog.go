package middleware

import (
	"github.com/anvko/shop_admin_app/internal/utils"
	"github.com/gin-gonic/gin"
)

// PosthogAuthEvent sends an auth lifecycle event (login, register, refresh,
// logout) keyed by the user it concerns. The distinct id is explicit because
// most auth endpoints run before the auth middleware has identified anyone.
func PosthogAuthEvent(c *gin.Context, posthogClient *utils.PosthogClientWrapper, distinctID string, eventName string, properties map[string]any) {
	if posthogClient == nil || !posthogClient.IsInitialized() || distinctID == "" {
		return
	}

	if properties == nil {
		properties = make(map[string]any)
	}
	properties["method"] = c.Request.Method
	properties["path"] = c.Request.URL.Path

	posthogClient.Enqueue(distinctID, eventName, properties)
}
