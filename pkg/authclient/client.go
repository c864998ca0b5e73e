package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client is a thin typed wrapper over the auth backend's HTTP surface. It
// performs no token management itself; pair it with a Manager for that.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the backend at baseURL, e.g.
// "https://admin-api.example.com".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// authEnvelope is the backend's response shape for login-family endpoints.
type authEnvelope struct {
	Success      bool       `json:"success"`
	User         *User      `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	ExpiresAt    *time.Time `json:"expiresAt"`
	IsNewUser    bool       `json:"isNewUser"`
	Provider     string     `json:"provider"`
	Message      string     `json:"message"`
	Code         string     `json:"code"`
}

func (e *authEnvelope) pair() TokenPair {
	pair := TokenPair{AccessToken: e.AccessToken, RefreshToken: e.RefreshToken}
	if e.ExpiresAt != nil {
		pair.ExpiresAt = *e.ExpiresAt
	}
	return pair
}

// LoginResult is a successful login or registration.
type LoginResult struct {
	User      User
	Pair      TokenPair
	IsNewUser bool
	Provider  string
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var failure struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &failure)
		if failure.Code == "" && resp.StatusCode == http.StatusUnauthorized {
			failure.Code = "UNAUTHENTICATED"
		}
		if failure.Message == "" {
			failure.Message = http.StatusText(resp.StatusCode)
		}
		return newAPIError(resp.StatusCode, failure.Code, failure.Message)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Register creates an account and returns the initial session.
func (c *Client) Register(ctx context.Context, email, password, name string) (*LoginResult, error) {
	var env authEnvelope
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	}, &env)
	if err != nil {
		return nil, err
	}
	return loginResult(&env), nil
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var env authEnvelope
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &env)
	if err != nil {
		return nil, err
	}
	return loginResult(&env), nil
}

// LoginProvider authenticates with a provider payload: a Google ID token or a
// GitHub authorization code.
func (c *Client) LoginProvider(ctx context.Context, provider, idToken, code string) (*LoginResult, error) {
	var env authEnvelope
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/provider", "", map[string]string{
		"provider": provider,
		"idToken":  idToken,
		"code":     code,
	}, &env)
	if err != nil {
		return nil, err
	}
	return loginResult(&env), nil
}

func loginResult(env *authEnvelope) *LoginResult {
	result := &LoginResult{Pair: env.pair(), IsNewUser: env.IsNewUser, Provider: env.Provider}
	if env.User != nil {
		result.User = *env.User
	}
	return result
}

// Refresh exchanges a refresh token for a fresh pair. The presented token is
// single-use; on success the previous pair is dead.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var env authEnvelope
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refreshToken": refreshToken,
	}, &env)
	if err != nil {
		return nil, err
	}
	pair := env.pair()
	return &pair, nil
}

// Logout deactivates the session behind the access token. Idempotent.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", accessToken, nil, nil)
}

// Me fetches the current user's profile.
func (c *Client) Me(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListSessions fetches a page of the current user's active sessions.
func (c *Client) ListSessions(ctx context.Context, accessToken string, limit int, pageToken string) ([]Session, string, error) {
	path := fmt.Sprintf("/api/v1/users/me/sessions?limit=%d", limit)
	if pageToken != "" {
		path += "&pageToken=" + pageToken
	}
	var out struct {
		Sessions  []Session `json:"sessions"`
		NextToken string    `json:"nextToken"`
	}
	if err := c.do(ctx, http.MethodGet, path, accessToken, nil, &out); err != nil {
		return nil, "", err
	}
	return out.Sessions, out.NextToken, nil
}

// RevokeAllSessions logs the user out everywhere, including this client.
func (c *Client) RevokeAllSessions(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/users/me/sessions/revoke_all", accessToken, nil, nil)
}
