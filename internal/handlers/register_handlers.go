package handlers

import (
	"log/slog"
	"net/http"

	"github.com/anvko/shop_admin_app/cmd/docs"
	portssvc "github.com/anvko/shop_admin_app/internal/core/ports/services"
	"github.com/anvko/shop_admin_app/internal/middleware"
	"github.com/anvko/shop_admin_app/internal/platform/config"
	"github.com/anvko/shop_admin_app/internal/utils"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	posthogClient *utils.PosthogClientWrapper,
) {

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	// Register public authentication routes
	registerAuthRoutes(r, cfg, services, posthogClient)

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	setupAPIV1Routes(r, services)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// registerAuthRoutes sets up the public authentication surface. Login,
// register, provider login, refresh and the password reset entry points are
// rate limited per client IP.
func registerAuthRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer, posthogClient *utils.PosthogClientWrapper) {
	h := NewAuthHandler(services.Auth, services.Provider, posthogClient)

	authLimiter, err := middleware.NewAuthRateLimiter(cfg)
	if err != nil {
		// A broken limiter config should not take the auth surface down with
		// it; fall through without limiting and say so loudly.
		slog.Warn("Auth rate limiter disabled", slog.String("error", err.Error()))
	}
	limit := middleware.RateLimit(authLimiter)

	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/register", limit, h.Register)
		auth.POST("/login", limit, h.Login)
		auth.POST("/provider", limit, h.LoginWithProvider)
		auth.POST("/refresh", limit, h.Refresh)
		auth.POST("/logout", h.Logout)
		auth.POST("/password/forgot", limit, h.ForgotPassword)
		auth.POST("/password/reset", limit, h.ResetPassword)
	}
}

// setupAPIV1Routes configures the authenticated /api/v1 group
func setupAPIV1Routes(r *gin.Engine, services *portssvc.ServiceContainer) {
	// Apply AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(services.Auth))

	registerUserRoutes(v1, services)
}

func registerUserRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := NewUserHandler(services.User, services.Auth)

	me := rg.Group("/users/me")
	{
		me.GET("", h.GetMe)
		me.PATCH("", h.UpdateMe)
		me.DELETE("", h.DeactivateMe)
		me.POST("/password", h.ChangePassword)
		me.GET("/links", h.ListLinks)
		me.DELETE("/links/:provider", h.UnlinkProvider)
		me.GET("/sessions", h.ListSessions)
		me.POST("/sessions/revoke_all", h.RevokeAllSessions)
	}
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
