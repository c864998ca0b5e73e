package handlers

import (
	"net/http"

	"github.com/anvko/shop_admin_app/internal/core/domain"
	portssvc "github.com/anvko/shop_admin_app/internal/core/ports/services"
	"github.com/anvko/shop_admin_app/internal/dto"
	"github.com/anvko/shop_admin_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// UserHandler handles the authenticated account surface: the current user's
// profile, password changes, linked providers and active sessions.
type UserHandler struct {
	userService portssvc.UserSvcFacade
	authService portssvc.AuthSvcFacade
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService portssvc.UserSvcFacade, authService portssvc.AuthSvcFacade) *UserHandler {
	return &UserHandler{userService: userService, authService: authService}
}

// GetMe godoc
// @Summary Get the current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.MessageResponse
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.MessageResponse{Success: false, Message: "Authentication required"})
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		status, code, message := authFailure(c, err)
		c.JSON(status, dto.AuthResponse{Success: false, Code: code, Message: message})
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(*user))
}

// UpdateMe godoc
// @Summary Update the current user's profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param update body dto.UpdateUserRequest true "Fields to update"
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.MessageResponse
// @Router /users/me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.MessageResponse{Success: false, Message: "Authentication required"})
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.MessageResponse{Success: false, Message: "Invalid request body: " + err.Error()})
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), userID, req)
	if err != nil {
		status, code, message := authFailure(c, err)
		c.JSON(status, dto.AuthResponse{Success: false, Code: code, Message: message})
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(*user))
}

// DeactivateMe godoc
// @Summary Deactivate the current user
// @Description Soft-deactivates the account and revokes every session.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} dto.MessageResponse
// @Router /users/me [delete]
func (h *UserHandler) DeactivateMe(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.MessageResponse{Success: false, Message: "Authentication required"})
		return
	}

	if err := h.userService.DeactivateUser(c.Request.Context(), userID, userID); err != nil {
		status, code, message := authFailure(c, err)
		c.JSON(status, dto.AuthResponse{Success: false, Code: code, Message: message})
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "Account deactivated"})
}

// ChangePassword godoc
// @Summary Change the current user's password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param change body dto.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} dto.MessageResponse
// @Router /users/me/password [post]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.MessageResponse{Success: false, Message: "Authentication required"})
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.MessageResponse{Success: false, Message: "Invalid request body"})
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), userID, req); err != nil {
		status, code, message := authFailure(c, err)
		c.JSON(status, dto.AuthResponse{Success: false, Code: code, Message: message})
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "Password changed"})
}

// ListLinks godoc
// @Summary List the current user's provider links
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.LinkResponse
// @Failure 401 {object} dto.MessageResponse
// @Router /users/me/links [get]
func (h *UserHandler) ListLinks(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.MessageResponse{Success: false, Message: "Authentication required"})
		return
	}

	links, err := h.authService.ListLinks(c.Request.Context(), userID)
	if err != nil {
		status, code, message := authFailure(c, err)
		c.JSON(status, dto.AuthResponse{Success: false, Code: code, Message: message})
		return
	}

	responses := make([]dto.LinkResponse, 0, len(links))
	for _, l := range links {
		responses = append(responses, dto.ToLinkResponse(l))
	}
	c.JSON(http.StatusOK, responses)
}

// UnlinkProvider godoc
// @Summary Remove a provider link
// @Description Fails with LAST_AUTH_METHOD when the link is the only way left to sign in.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param provider path string true "Provider name" Enums(google, github)
// @Success 200 {object} dto.MessageResponse
// @Failure 409 {object} dto.AuthResponse
// @Router /users/me/links/{provider} [delete]
func (h *UserHandler) UnlinkProvider(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.MessageResponse{Success: false, Message: "Authentication required"})
		return
	}

	provider := domain.AuthProvider(c.Param("provider"))
	if !provider.IsValid() {
		c.JSON(http.StatusBadRequest, dto.MessageResponse{Success: false, Message: "Unknown provider"})
		return
	}

	if err := h.authService.UnlinkProvider(c.Request.Context(), userID, provider); err != nil {
		status, code, message := authFailure(c, err)
		c.JSON(status, dto.AuthResponse{Success: false, Code: code, Message: message})
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "Provider unlinked"})
}

// ListSessions godoc
// @Summary List the current user's active sessions
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size" default(20)
// @Param pageToken query string false "Opaque page token"
// @Success 200 {object} dto.ListSessionsResponse
// @Failure 401 {object} dto.MessageResponse
// @Router /users/me/sessions [get]
func (h *UserHandler) ListSessions(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.MessageResponse{Success: false, Message: "Authentication required"})
		return
	}

	var query struct {
		Limit     int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
		PageToken string `form:"pageToken"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.MessageResponse{Success: false, Message: "Invalid query parameters"})
		return
	}

	sessions, nextToken, err := h.authService.ListSessions(c.Request.Context(), userID, query.Limit, query.PageToken)
	if err != nil {
		status, code, message := authFailure(c, err)
		c.JSON(status, dto.AuthResponse{Success: false, Code: code, Message: message})
		return
	}

	currentSessionID := ""
	if info, ok := middleware.GetSessionInfoFromContext(c); ok {
		currentSessionID = info.SessionID
	}
	responses := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		responses = append(responses, dto.ToSessionResponse(s, currentSessionID))
	}
	c.JSON(http.StatusOK, dto.ListSessionsResponse{Sessions: responses, NextToken: nextToken})
}

// RevokeAllSessions godoc
// @Summary Log out everywhere
// @Description Deactivates every session for the current user, including this one.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} dto.MessageResponse
// @Router /users/me/sessions/revoke_all [post]
func (h *UserHandler) RevokeAllSessions(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.MessageResponse{Success: false, Message: "Authentication required"})
		return
	}

	if err := h.authService.RevokeAllSessions(c.Request.Context(), userID); err != nil {
		status, code, message := authFailure(c, err)
		c.JSON(status, dto.AuthResponse{Success: false, Code: code, Message: message})
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "All sessions revoked"})
}
