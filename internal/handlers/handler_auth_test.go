package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anvko/shop_admin_app/internal/apperrors"
	"github.com/anvko/shop_admin_app/internal/core/domain"
	portssvc "github.com/anvko/shop_admin_app/internal/core/ports/services"
	"github.com/anvko/shop_admin_app/internal/dto"
	"github.com/anvko/shop_admin_app/internal/handlers"
	"github.com/anvko/shop_admin_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock AuthService ---
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req dto.RegisterRequest, device domain.DeviceMeta) (*dto.AuthResult, error) {
	args := m.Called(ctx, req, device)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req dto.LoginRequest, device domain.DeviceMeta) (*dto.AuthResult, error) {
	args := m.Called(ctx, req, device)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResult), args.Error(1)
}

func (m *MockAuthService) LoginWithProvider(ctx context.Context, identity domain.ExternalIdentity, device domain.DeviceMeta) (*dto.AuthResult, error) {
	args := m.Called(ctx, identity, device)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResult), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string, device domain.DeviceMeta) (*dto.AuthResult, error) {
	args := m.Called(ctx, refreshToken, device)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *MockAuthService) ValidateSession(ctx context.Context, accessToken string) (*domain.SessionInfo, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionInfo), args.Error(1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID string, req dto.ChangePasswordRequest) error {
	args := m.Called(ctx, userID, req)
	return args.Error(0)
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockAuthService) UnlinkProvider(ctx context.Context, userID string, provider domain.AuthProvider) error {
	args := m.Called(ctx, userID, provider)
	return args.Error(0)
}

func (m *MockAuthService) ListLinks(ctx context.Context, userID string) ([]domain.AccountLink, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountLink), args.Error(1)
}

func (m *MockAuthService) ListSessions(ctx context.Context, userID string, limit int, pageToken string) ([]domain.Session, string, error) {
	args := m.Called(ctx, userID, limit, pageToken)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]domain.Session), args.String(1), args.Error(2)
}

func (m *MockAuthService) RevokeAllSessions(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Mock ProviderVerifier ---
type MockProviderVerifier struct {
	mock.Mock
}

func (m *MockProviderVerifier) Verify(ctx context.Context, req dto.ProviderLoginRequest) (domain.ExternalIdentity, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.ExternalIdentity), args.Error(1)
}

// --- Mock UserService ---
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) DeactivateUser(ctx context.Context, userID string, deactivatedBy string) error {
	args := m.Called(ctx, userID, deactivatedBy)
	return args.Error(0)
}

// --- MockTokenService ---
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) MintPair(ctx context.Context, user *domain.User, sessionID string) (domain.TokenPair, error) {
	args := m.Called(ctx, user, sessionID)
	return args.Get(0).(domain.TokenPair), args.Error(1)
}

// --- Test Suite ---

type AuthHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockAuthSvc  *MockAuthService
	mockUserSvc  *MockUserService
	mockVerifier *MockProviderVerifier
}

func (s *AuthHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.mockAuthSvc = new(MockAuthService)
	s.mockUserSvc = new(MockUserService)
	s.mockVerifier = new(MockProviderVerifier)

	cfg := &config.Config{IsProduction: true, AuthRateLimit: "1000-S"}
	services := &portssvc.ServiceContainer{
		User:     s.mockUserSvc,
		Auth:     s.mockAuthSvc,
		Token:    new(MockTokenService),
		Provider: s.mockVerifier,
	}

	s.router = gin.New()
	handlers.RegisterRoutes(s.router, cfg, services, nil)
}

func (s *AuthHandlerTestSuite) postJSON(path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	data, err := json.Marshal(body)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AuthHandlerTestSuite) sampleResult(email string) *dto.AuthResult {
	now := time.Now()
	return &dto.AuthResult{
		User: domain.User{UserID: uuid.NewString(), Email: email, Role: domain.RoleStaff, IsActive: true},
		Pair: domain.TokenPair{
			AccessToken:      "access-token",
			RefreshToken:     "refresh-token",
			AccessExpiresAt:  now.Add(time.Hour),
			RefreshExpiresAt: now.Add(7 * 24 * time.Hour),
		},
	}
}

func (s *AuthHandlerTestSuite) TestLogin_Success() {
	result := s.sampleResult("a@example.com")
	s.mockAuthSvc.On("Login", mock.Anything, dto.LoginRequest{Email: "a@example.com", Password: "password1"}, mock.AnythingOfType("domain.DeviceMeta")).Return(result, nil).Once()

	w := s.postJSON("/api/v1/auth/login", gin.H{"email": "a@example.com", "password": "password1"}, nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.AuthResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Equal("access-token", resp.AccessToken)
	s.Equal("refresh-token", resp.RefreshToken)
	s.Require().NotNil(resp.User)
	s.Equal("a@example.com", resp.User.Email)
	s.mockAuthSvc.AssertExpectations(s.T())
}

func (s *AuthHandlerTestSuite) TestLogin_InvalidCredentialsMapsTo401() {
	s.mockAuthSvc.On("Login", mock.Anything, mock.AnythingOfType("dto.LoginRequest"), mock.AnythingOfType("domain.DeviceMeta")).Return(nil, apperrors.ErrInvalidCredentials).Once()

	w := s.postJSON("/api/v1/auth/login", gin.H{"email": "a@example.com", "password": "wrongwrong"}, nil)

	s.Equal(http.StatusUnauthorized, w.Code)
	var resp dto.AuthResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.False(resp.Success)
	s.Equal("INVALID_CREDENTIALS", resp.Code)
}

func (s *AuthHandlerTestSuite) TestLogin_MalformedBodyMapsTo400() {
	w := s.postJSON("/api/v1/auth/login", gin.H{"email": "not-an-email"}, nil)

	s.Equal(http.StatusBadRequest, w.Code)
	s.mockAuthSvc.AssertNotCalled(s.T(), "Login", mock.Anything, mock.Anything, mock.Anything)
}

func (s *AuthHandlerTestSuite) TestRegister_Success() {
	result := s.sampleResult("new@example.com")
	result.IsNewUser = true
	s.mockAuthSvc.On("Register", mock.Anything, mock.AnythingOfType("dto.RegisterRequest"), mock.AnythingOfType("domain.DeviceMeta")).Return(result, nil).Once()

	w := s.postJSON("/api/v1/auth/register", gin.H{"email": "new@example.com", "password": "password1", "name": "New"}, nil)

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.AuthResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.IsNewUser)
}

func (s *AuthHandlerTestSuite) TestRegister_EmailTakenMapsTo409() {
	s.mockAuthSvc.On("Register", mock.Anything, mock.AnythingOfType("dto.RegisterRequest"), mock.AnythingOfType("domain.DeviceMeta")).Return(nil, apperrors.ErrEmailTaken).Once()

	w := s.postJSON("/api/v1/auth/register", gin.H{"email": "dup@example.com", "password": "password1", "name": "Dup"}, nil)

	s.Equal(http.StatusConflict, w.Code)
	var resp dto.AuthResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("EMAIL_TAKEN", resp.Code)
}

func (s *AuthHandlerTestSuite) TestProviderLogin_VerifiesThenLogsIn() {
	identity := domain.ExternalIdentity{Provider: domain.ProviderGoogle, SubjectID: "sub", Email: "g@example.com"}
	result := s.sampleResult("g@example.com")
	result.Provider = domain.ProviderGoogle

	s.mockVerifier.On("Verify", mock.Anything, mock.MatchedBy(func(req dto.ProviderLoginRequest) bool {
		return req.Provider == "google" && req.IDToken == "the-id-token"
	})).Return(identity, nil).Once()
	s.mockAuthSvc.On("LoginWithProvider", mock.Anything, identity, mock.AnythingOfType("domain.DeviceMeta")).Return(result, nil).Once()

	w := s.postJSON("/api/v1/auth/provider", gin.H{"provider": "google", "idToken": "the-id-token"}, nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.AuthResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("google", resp.Provider)
	s.mockVerifier.AssertExpectations(s.T())
}

func (s *AuthHandlerTestSuite) TestProviderLogin_UnknownProviderRejectedByBinding() {
	w := s.postJSON("/api/v1/auth/provider", gin.H{"provider": "myspace", "idToken": "x"}, nil)

	s.Equal(http.StatusBadRequest, w.Code)
	s.mockVerifier.AssertNotCalled(s.T(), "Verify", mock.Anything, mock.Anything)
}

func (s *AuthHandlerTestSuite) TestProviderLogin_InactiveAccountMapsTo403() {
	identity := domain.ExternalIdentity{Provider: domain.ProviderGoogle, SubjectID: "sub", Email: "off@example.com"}
	s.mockVerifier.On("Verify", mock.Anything, mock.AnythingOfType("dto.ProviderLoginRequest")).Return(identity, nil).Once()
	s.mockAuthSvc.On("LoginWithProvider", mock.Anything, identity, mock.AnythingOfType("domain.DeviceMeta")).Return(nil, apperrors.ErrAccountInactive).Once()

	w := s.postJSON("/api/v1/auth/provider", gin.H{"provider": "google", "idToken": "x"}, nil)

	s.Equal(http.StatusForbidden, w.Code)
	var resp dto.AuthResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("ACCOUNT_INACTIVE", resp.Code)
}

func (s *AuthHandlerTestSuite) TestRefresh_ReplayMapsTo401() {
	s.mockAuthSvc.On("Refresh", mock.Anything, "used-token", mock.AnythingOfType("domain.DeviceMeta")).Return(nil, apperrors.ErrInvalidOrExpiredToken).Once()

	w := s.postJSON("/api/v1/auth/refresh", gin.H{"refreshToken": "used-token"}, nil)

	s.Equal(http.StatusUnauthorized, w.Code)
	var resp dto.RefreshResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("INVALID_OR_EXPIRED_TOKEN", resp.Code)
}

func (s *AuthHandlerTestSuite) TestRefresh_Success() {
	result := s.sampleResult("r@example.com")
	s.mockAuthSvc.On("Refresh", mock.Anything, "good-token", mock.AnythingOfType("domain.DeviceMeta")).Return(result, nil).Once()

	w := s.postJSON("/api/v1/auth/refresh", gin.H{"refreshToken": "good-token"}, nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.RefreshResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Equal("access-token", resp.AccessToken)
	s.Equal("refresh-token", resp.RefreshToken)
}

func (s *AuthHandlerTestSuite) TestLogout_WithToken() {
	s.mockAuthSvc.On("Logout", mock.Anything, "the-access-token").Return(nil).Once()

	w := s.postJSON("/api/v1/auth/logout", nil, map[string]string{"Authorization": "Bearer the-access-token"})

	s.Equal(http.StatusOK, w.Code)
	s.mockAuthSvc.AssertExpectations(s.T())
}

func (s *AuthHandlerTestSuite) TestLogout_WithoutTokenStillSucceeds() {
	w := s.postJSON("/api/v1/auth/logout", nil, nil)

	s.Equal(http.StatusOK, w.Code)
	s.mockAuthSvc.AssertNotCalled(s.T(), "Logout", mock.Anything, mock.Anything)
}

func (s *AuthHandlerTestSuite) TestForgotPassword_AlwaysGeneric() {
	s.mockAuthSvc.On("RequestPasswordReset", mock.Anything, "ghost@example.com").Return("", nil).Once()
	s.mockAuthSvc.On("RequestPasswordReset", mock.Anything, "real@example.com").Return("raw-token", nil).Once()

	wGhost := s.postJSON("/api/v1/auth/password/forgot", gin.H{"email": "ghost@example.com"}, nil)
	wReal := s.postJSON("/api/v1/auth/password/forgot", gin.H{"email": "real@example.com"}, nil)

	s.Equal(http.StatusOK, wGhost.Code)
	s.Equal(http.StatusOK, wReal.Code)
	// Identical bodies: the response must not leak whether the email exists.
	s.JSONEq(wGhost.Body.String(), wReal.Body.String())
}

func (s *AuthHandlerTestSuite) TestResetPassword_ExpiredTokenMapsTo401() {
	s.mockAuthSvc.On("ResetPassword", mock.Anything, mock.AnythingOfType("dto.ResetPasswordRequest")).Return(apperrors.ErrInvalidOrExpiredToken).Once()

	w := s.postJSON("/api/v1/auth/password/reset", gin.H{"token": "stale", "newPassword": "password-9"}, nil)

	s.Equal(http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}
