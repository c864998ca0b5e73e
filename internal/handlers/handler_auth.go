package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/anvko/shop_admin_app/internal/apperrors"
	"github.com/anvko/shop_admin_app/internal/core/domain"
	portssvc "github.com/anvko/shop_admin_app/internal/core/ports/services"
	"github.com/anvko/shop_admin_app/internal/dto"
	"github.com/anvko/shop_admin_app/internal/middleware"
	"github.com/anvko/shop_admin_app/internal/utils"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication related requests.
type AuthHandler struct {
	authService     portssvc.AuthSvcFacade
	providerService portssvc.ProviderVerifierSvcFacade
	posthogClient   *utils.PosthogClientWrapper
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService portssvc.AuthSvcFacade, providerService portssvc.ProviderVerifierSvcFacade, posthogClient *utils.PosthogClientWrapper) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		providerService: providerService,
		posthogClient:   posthogClient,
	}
}

func deviceMeta(c *gin.Context) domain.DeviceMeta {
	return domain.DeviceMeta{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}
}

// authFailure maps an orchestrator error onto the wire envelope. Everything
// outside the taxonomy is an internal fault: logged in full, returned opaque.
func authFailure(c *gin.Context, err error) (status int, code string, message string) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"
	case errors.Is(err, apperrors.ErrEmailTaken):
		return http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists"
	case errors.Is(err, apperrors.ErrAccountInactive):
		return http.StatusForbidden, "ACCOUNT_INACTIVE", "This account has been deactivated"
	case errors.Is(err, apperrors.ErrInvalidOrExpiredToken):
		return http.StatusUnauthorized, "INVALID_OR_EXPIRED_TOKEN", "Token is invalid or has expired"
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required"
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrDuplicate):
		return http.StatusConflict, "CONFLICT", "The request conflicts with existing state"
	case errors.Is(err, apperrors.ErrLastAuthMethod):
		return http.StatusConflict, "LAST_AUTH_METHOD", "Cannot remove the last way to sign in"
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, "VALIDATION", "Invalid request"
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Resource not found"
	default:
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Error("Internal fault in auth flow", slog.String("error", err.Error()))
		return http.StatusInternalServerError, "INTERNAL", "Something went wrong"
	}
}

// Register godoc
// @Summary Register a new account
// @Description Creates a user with a password credential and starts a session.
// @Tags auth
// @Accept json
// @Produce json
// @Param register body dto.RegisterRequest true "Registration payload"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.AuthResponse
// @Failure 409 {object} dto.AuthResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.AuthResponse{Success: false, Code: "VALIDATION", Message: "Invalid request body: " + err.Error()})
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req, deviceMeta(c))
	if err != nil {
		status, code, message := authFailure(c, err)
		c.JSON(status, dto.AuthResponse{Success: false, Code: code, Message: message})
		return
	}

	middleware.PosthogAuthEvent(c, h.posthogClient, result.User.UserID, "auth_register", nil)
	c.JSON(http.StatusCreated, dto.ToAuthResponse(result))
}

// Login godoc
// @Summary Password login
// @Description Authenticates with email and password, returning a token pair.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.AuthResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.AuthResponse{Success: false, Code: "VALIDATION", Message: "Invalid request body"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req, deviceMeta(c))
	if err != nil {
		status, code, message := authFailure(c, err)
		c.JSON(status, dto.AuthResponse{Success: false, Code: code, Message: message})
		return
	}

	middleware.PosthogAuthEvent(c, h.posthogClient, result.User.UserID, "auth_login", map[string]any{"method": "password"})
	c.JSON(http.StatusOK, dto.ToAuthResponse(result))
}

// LoginWithProvider godoc
// @Summary Provider login
// @Description Verifies a provider payload (Google ID token or GitHub code) and logs the user in, creating the account on first contact.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body dto.ProviderLoginRequest true "Provider payload"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.AuthResponse
// @Router /auth/provider [post]
func (h *AuthHandler) LoginWithProvider(c *gin.Context) {
	var req dto.ProviderLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.AuthResponse{Success: false, Code: "VALIDATION", Message: "Invalid request body"})
		return
	}

	identity, err := h.providerService.Verify(c.Request.Context(), req)
	if err != nil {
		status, code, message := authFailure(c, err)
		c.JSON(status, dto.AuthResponse{Success: false, Code: code, Message: message})
		return
	}

	result, err := h.authService.LoginWithProvider(c.Request.Context(), identity, deviceMeta(c))
	if err != nil {
		status, code, message := authFailure(c, err)
		c.JSON(status, dto.AuthResponse{Success: false, Code: code, Message: message})
		return
	}

	middleware.PosthogAuthEvent(c, h.posthogClient, result.User.UserID, "auth_login", map[string]any{
		"method":      "provider",
		"provider":    string(result.Provider),
		"is_new_user": result.IsNewUser,
	})
	c.JSON(http.StatusOK, dto.ToAuthResponse(result))
}

// Refresh godoc
// @Summary Refresh the token pair
// @Description Rotates the session behind the refresh token. The old refresh token is single-use.
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh body dto.RefreshRequest true "Refresh token"
// @Success 200 {object} dto.RefreshResponse
// @Failure 401 {object} dto.RefreshResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.RefreshResponse{Success: false, Code: "VALIDATION", Message: "Invalid request body"})
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken, deviceMeta(c))
	if err != nil {
		status, code, message := authFailure(c, err)
		c.JSON(status, dto.RefreshResponse{Success: false, Code: code, Message: message})
		return
	}

	c.JSON(http.StatusOK, dto.RefreshResponse{
		Success:      true,
		AccessToken:  result.Pair.AccessToken,
		RefreshToken: result.Pair.RefreshToken,
		ExpiresAt:    &result.Pair.AccessExpiresAt,
	})
}

// Logout godoc
// @Summary Log out
// @Description Deactivates the session behind the presented token. Idempotent.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.LogoutResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := middleware.BearerTokenFromRequest(c)
	if !ok {
		// Nothing to log out of; still a success from the client's view.
		c.JSON(http.StatusOK, dto.LogoutResponse{Success: true})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		status, code, message := authFailure(c, err)
		c.JSON(status, dto.AuthResponse{Success: false, Code: code, Message: message})
		return
	}

	c.JSON(http.StatusOK, dto.LogoutResponse{Success: true})
}

// ForgotPassword godoc
// @Summary Start a password reset
// @Description Issues a single-use reset token. Responds identically for unknown emails.
// @Tags auth
// @Accept json
// @Produce json
// @Param forgot body dto.ForgotPasswordRequest true "Account email"
// @Success 200 {object} dto.MessageResponse
// @Router /auth/password/forgot [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.MessageResponse{Success: false, Message: "Invalid request body"})
		return
	}

	token, err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		status, _, message := authFailure(c, err)
		c.JSON(status, dto.MessageResponse{Success: false, Message: message})
		return
	}

	if token != "" {
		// Delivery belongs to the mailer, which is outside this service. The
		// token is only logged at debug level for local development.
		middleware.GetLoggerFromCtx(c.Request.Context()).Debug("Password reset token issued", slog.String("email", req.Email))
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "If the email exists, a reset link has been sent"})
}

// ResetPassword godoc
// @Summary Complete a password reset
// @Description Consumes a single-use reset token and replaces the password. All sessions are revoked.
// @Tags auth
// @Accept json
// @Produce json
// @Param reset body dto.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} dto.MessageResponse
// @Router /auth/password/reset [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.MessageResponse{Success: false, Message: "Invalid request body"})
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req); err != nil {
		status, _, message := authFailure(c, err)
		c.JSON(status, dto.MessageResponse{Success: false, Message: message})
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "Password has been reset"})
}
