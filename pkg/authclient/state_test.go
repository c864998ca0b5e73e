package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// authBackend fakes the login/refresh/me endpoints for state machine tests.
type authBackend struct {
	mu          sync.Mutex
	password    string
	validAccess map[string]bool
	user        map[string]any
}

func newAuthBackend() *authBackend {
	return &authBackend{
		password:    "correct-horse",
		validAccess: map[string]bool{},
		user: map[string]any{
			"userID": "user-1",
			"email":  "admin@example.com",
			"name":   "Admin",
			"role":   "admin",
		},
	}
}

func (b *authBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&req)

		b.mu.Lock()
		defer b.mu.Unlock()
		if req.Password != b.password {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false, "code": "INVALID_CREDENTIALS", "message": "Invalid email or password",
			})
			return
		}
		b.validAccess["access-login"] = true
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":      true,
			"user":         b.user,
			"accessToken":  "access-login",
			"refreshToken": "refresh-login",
			"expiresAt":    time.Now().Add(time.Hour).Format(time.RFC3339Nano),
		})
	})

	mux.HandleFunc("GET /api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		ok := b.validAccess[bearerOf(r)]
		b.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false, "code": "UNAUTHENTICATED", "message": "Authentication required",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(b.user)
	})

	mux.HandleFunc("POST /api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		delete(b.validAccess, bearerOf(r))
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func bearerOf(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) {
		return h[len(prefix):]
	}
	return ""
}

func (b *authBackend) grantAccess(token string) {
	b.mu.Lock()
	b.validAccess[token] = true
	b.mu.Unlock()
}

func newTestStateMachine(t *testing.T, srvURL string, store TokenStore, opts ...StateMachineOption) *StateMachine {
	t.Helper()
	client := NewClient(srvURL)
	sm := NewStateMachine(client, NewManager(client, store), opts...)
	t.Cleanup(sm.Close)
	return sm
}

func TestStateMachine_InitWithoutStoredPair(t *testing.T) {
	backend := newAuthBackend()
	sm := newTestStateMachine(t, backend.server(t).URL, NewMemoryStore())

	assert.Equal(t, StateUninitialized, sm.Snapshot().State)

	snapshot, err := sm.Init(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, snapshot.State)
	assert.Nil(t, snapshot.User)
	assert.NoError(t, snapshot.Err)
}

func TestStateMachine_InitWithValidStoredPair(t *testing.T) {
	backend := newAuthBackend()
	backend.grantAccess("access-stored")

	store := NewMemoryStore()
	require.NoError(t, store.Save(TokenPair{
		AccessToken:  "access-stored",
		RefreshToken: "refresh-stored",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))

	sm := newTestStateMachine(t, backend.server(t).URL, store)

	snapshot, err := sm.Init(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, snapshot.State)
	require.NotNil(t, snapshot.User)
	assert.Equal(t, "user-1", snapshot.User.UserID)
}

func TestStateMachine_InitWithRejectedStoredPair(t *testing.T) {
	backend := newAuthBackend()
	// "access-stale" is never granted; /users/me returns 401 for it.
	store := NewMemoryStore()
	require.NoError(t, store.Save(TokenPair{
		AccessToken:  "access-stale",
		RefreshToken: "refresh-stale",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))

	sm := newTestStateMachine(t, backend.server(t).URL, store)

	snapshot, err := sm.Init(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, snapshot.State, "a rejected pair settles into unauthenticated, not an error")
}

func TestStateMachine_LoginAndLogout(t *testing.T) {
	backend := newAuthBackend()
	sm := newTestStateMachine(t, backend.server(t).URL, NewMemoryStore())

	var transitions []State
	var mu sync.Mutex
	smObserved := newTestStateMachine(t, backend.server(t).URL, NewMemoryStore(), WithOnChange(func(s Snapshot) {
		mu.Lock()
		transitions = append(transitions, s.State)
		mu.Unlock()
	}))

	_, err := sm.Init(context.Background())
	require.NoError(t, err)
	_, err = smObserved.Init(context.Background())
	require.NoError(t, err)

	// Wrong password: state stays, error is surfaced and clearable.
	snapshot, err := sm.Login(context.Background(), "admin@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, StateUnauthenticated, snapshot.State)
	assert.Error(t, snapshot.Err)
	sm.ClearError()
	assert.NoError(t, sm.Snapshot().Err)

	// Correct password.
	snapshot, err = sm.Login(context.Background(), "admin@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, snapshot.State)
	require.NotNil(t, snapshot.User)
	assert.Equal(t, "admin@example.com", snapshot.User.Email)

	token, err := sm.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-login", token)

	snapshot = sm.Logout(context.Background())
	assert.Equal(t, StateUnauthenticated, snapshot.State)
	assert.Nil(t, snapshot.User)

	_, err = sm.Token(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	// Observer saw the init transition.
	_, err = smObserved.Login(context.Background(), "admin@example.com", "correct-horse")
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateUnauthenticated, StateAuthenticated}, transitions)
}

func TestStateMachine_DoubleInitRejected(t *testing.T) {
	backend := newAuthBackend()
	sm := newTestStateMachine(t, backend.server(t).URL, NewMemoryStore())

	_, err := sm.Init(context.Background())
	require.NoError(t, err)

	_, err = sm.Init(context.Background())
	assert.Error(t, err)
}
