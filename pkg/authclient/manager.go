package authclient

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultRefreshLead is how long before access expiry the Manager starts
// refreshing proactively.
const DefaultRefreshLead = 5 * time.Minute

// Manager layers token lifecycle on top of Client: it hands out a valid
// access token on demand, refreshing the pair behind the scenes when the
// access token is expired or about to expire. Concurrent callers needing a
// refresh are coalesced into a single backend call; every caller gets the
// resulting pair. Safe for concurrent use.
type Manager struct {
	client      *Client
	store       TokenStore
	refreshLead time.Duration

	group singleflight.Group

	mu   sync.Mutex
	pair *TokenPair

	now func() time.Time // swapped in tests
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRefreshLead overrides how early the proactive refresh kicks in.
func WithRefreshLead(lead time.Duration) ManagerOption {
	return func(m *Manager) { m.refreshLead = lead }
}

// NewManager creates a Manager over the given client and store. Any pair
// already in the store is picked up lazily on first use.
func NewManager(client *Client, store TokenStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		client:      client,
		store:       store,
		refreshLead: DefaultRefreshLead,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetPair installs a pair obtained out of band, e.g. from a fresh login.
func (m *Manager) SetPair(pair TokenPair) error {
	m.mu.Lock()
	m.pair = &pair
	m.mu.Unlock()
	return m.store.Save(pair)
}

// Pair returns the current pair without touching the network, loading from
// the store on first call. Returns nil when no pair is held.
func (m *Manager) Pair() (*TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentLocked()
}

func (m *Manager) currentLocked() (*TokenPair, error) {
	if m.pair != nil {
		copied := *m.pair
		return &copied, nil
	}
	stored, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, nil
	}
	m.pair = stored
	copied := *stored
	return &copied, nil
}

// IsExpired reports whether the pair's access token is past its expiry.
func (m *Manager) IsExpired(pair TokenPair) bool {
	return !m.now().Before(pair.ExpiresAt)
}

// ShouldRefresh reports whether the access token is inside the refresh lead
// window (or already expired).
func (m *Manager) ShouldRefresh(pair TokenPair) bool {
	return !m.now().Add(m.refreshLead).Before(pair.ExpiresAt)
}

// EnsureValidToken returns an access token that is valid now, refreshing the
// pair first when needed. It fails with ErrNotAuthenticated when no pair is
// held, and with ErrInvalidOrExpiredToken when the refresh token itself was
// rejected; in that case the stored pair is cleared and the caller must log
// in again.
func (m *Manager) EnsureValidToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	pair, err := m.currentLocked()
	m.mu.Unlock()
	if err != nil {
		return "", err
	}
	if pair == nil {
		return "", ErrNotAuthenticated
	}

	if !m.ShouldRefresh(*pair) {
		return pair.AccessToken, nil
	}

	refreshed, err := m.refresh(ctx, *pair)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// ForceRefresh rotates the pair regardless of expiry, e.g. after the server
// rejected an access token that looked fresh locally.
func (m *Manager) ForceRefresh(ctx context.Context) (*TokenPair, error) {
	m.mu.Lock()
	pair, err := m.currentLocked()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if pair == nil {
		return nil, ErrNotAuthenticated
	}
	return m.refresh(ctx, *pair)
}

// refresh coalesces concurrent refreshes of the same pair. The singleflight
// key is the refresh token itself: callers racing on the same pair share one
// backend call, while a caller holding an already-rotated pair (shouldn't
// happen, but) would not be wrongly coalesced.
func (m *Manager) refresh(ctx context.Context, pair TokenPair) (*TokenPair, error) {
	result, err, _ := m.group.Do(pair.RefreshToken, func() (any, error) {
		// Re-check under the flight: a just-finished refresh already rotated
		// the pair, so this caller only needs the fresh one.
		m.mu.Lock()
		if m.pair != nil && m.pair.RefreshToken != pair.RefreshToken {
			copied := *m.pair
			m.mu.Unlock()
			return &copied, nil
		}
		m.mu.Unlock()

		fresh, err := m.client.Refresh(ctx, pair.RefreshToken)
		if err != nil {
			// Any failed refresh forces re-authentication: a dead token would
			// just repeat the rejection, and after a timeout or server fault
			// the rotation outcome is unknown, so the old pair cannot be
			// trusted either.
			m.clear()
			return nil, err
		}

		m.mu.Lock()
		m.pair = fresh
		m.mu.Unlock()
		if saveErr := m.store.Save(*fresh); saveErr != nil {
			return nil, saveErr
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	fresh := result.(*TokenPair)
	copied := *fresh
	return &copied, nil
}

// Logout revokes the current session server-side and clears the stored pair.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	pair, err := m.currentLocked()
	m.mu.Unlock()
	if err != nil {
		return err
	}
	if pair == nil {
		return nil
	}
	// Clear locally even if the server call fails: the caller decided to log
	// out, and the sweeper will collect the session eventually.
	defer m.clear()
	return m.client.Logout(ctx, pair.AccessToken)
}

func (m *Manager) clear() {
	m.mu.Lock()
	m.pair = nil
	m.mu.Unlock()
	_ = m.store.Clear()
}
