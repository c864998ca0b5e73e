package authclient

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the authentication state of a long-lived client.
type State string

const (
	// StateUninitialized is the state before Init has been called.
	StateUninitialized State = "uninitialized"
	// StateInitializing is the transient state while the stored pair is being
	// validated against the backend.
	StateInitializing State = "initializing"
	// StateAuthenticated means a valid session is held.
	StateAuthenticated State = "authenticated"
	// StateUnauthenticated means no session is held; the user must log in.
	StateUnauthenticated State = "unauthenticated"
)

// DefaultCheckInterval is how often the background watcher re-checks the
// token's freshness.
const DefaultCheckInterval = 60 * time.Second

// Snapshot is a point-in-time view of the state machine.
type Snapshot struct {
	State State
	User  *User
	// Err is the last transition error, e.g. the refresh failure that dropped
	// the client to unauthenticated. Cleared by ClearError and by any
	// successful transition.
	Err error
}

// StateMachine tracks whether the client currently holds a usable session,
// driving a Manager underneath. Transitions:
//
//	uninitialized -> initializing          (Init)
//	initializing  -> authenticated         (stored pair validated)
//	initializing  -> unauthenticated       (no pair, or pair rejected)
//	unauthenticated -> authenticated       (Login)
//	authenticated -> unauthenticated       (Logout, refresh failure, revocation)
//
// A background watcher keeps the pair fresh while authenticated. Safe for
// concurrent use.
type StateMachine struct {
	client  *Client
	manager *Manager

	checkInterval time.Duration
	onChange      func(Snapshot)

	mu    sync.Mutex
	state State
	user  *User
	err   error

	cancel context.CancelFunc
	done   chan struct{}
}

// StateMachineOption configures a StateMachine.
type StateMachineOption func(*StateMachine)

// WithCheckInterval overrides the background check cadence.
func WithCheckInterval(d time.Duration) StateMachineOption {
	return func(sm *StateMachine) { sm.checkInterval = d }
}

// WithOnChange registers a callback invoked after every state transition.
// The callback runs on the transitioning goroutine and must not call back
// into the state machine.
func WithOnChange(fn func(Snapshot)) StateMachineOption {
	return func(sm *StateMachine) { sm.onChange = fn }
}

// NewStateMachine creates a state machine over the given client and manager.
func NewStateMachine(client *Client, manager *Manager, opts ...StateMachineOption) *StateMachine {
	sm := &StateMachine{
		client:        client,
		manager:       manager,
		checkInterval: DefaultCheckInterval,
		state:         StateUninitialized,
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// Snapshot returns the current state.
func (sm *StateMachine) Snapshot() Snapshot {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return Snapshot{State: sm.state, User: sm.user, Err: sm.err}
}

func (sm *StateMachine) transition(state State, user *User, err error) {
	sm.mu.Lock()
	sm.state = state
	sm.user = user
	sm.err = err
	snapshot := Snapshot{State: sm.state, User: sm.user, Err: sm.err}
	sm.mu.Unlock()

	if sm.onChange != nil {
		sm.onChange(snapshot)
	}
}

// Init validates any stored pair against the backend and settles into
// authenticated or unauthenticated. It also starts the background watcher,
// which runs until Close. Calling Init twice is an error.
func (sm *StateMachine) Init(ctx context.Context) (Snapshot, error) {
	sm.mu.Lock()
	if sm.state != StateUninitialized {
		sm.mu.Unlock()
		return sm.Snapshot(), errors.New("authclient: state machine already initialized")
	}
	sm.state = StateInitializing
	sm.mu.Unlock()

	watchCtx, cancel := context.WithCancel(context.Background())
	sm.mu.Lock()
	sm.cancel = cancel
	sm.done = make(chan struct{})
	sm.mu.Unlock()
	go sm.watch(watchCtx)

	token, err := sm.manager.EnsureValidToken(ctx)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrInvalidOrExpiredToken) || errors.Is(err, ErrUnauthenticated) {
			sm.transition(StateUnauthenticated, nil, nil)
			return sm.Snapshot(), nil
		}
		// Backend unreachable or store broken: stay unauthenticated but keep
		// the error visible so the caller can distinguish "logged out" from
		// "could not tell".
		sm.transition(StateUnauthenticated, nil, err)
		return sm.Snapshot(), err
	}

	user, err := sm.client.Me(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrAccountInactive) {
			sm.transition(StateUnauthenticated, nil, nil)
			return sm.Snapshot(), nil
		}
		sm.transition(StateUnauthenticated, nil, err)
		return sm.Snapshot(), err
	}

	sm.transition(StateAuthenticated, user, nil)
	return sm.Snapshot(), nil
}

// Login authenticates with email and password and moves to authenticated.
func (sm *StateMachine) Login(ctx context.Context, email, password string) (Snapshot, error) {
	result, err := sm.client.Login(ctx, email, password)
	if err != nil {
		sm.mu.Lock()
		sm.err = err
		snapshot := Snapshot{State: sm.state, User: sm.user, Err: sm.err}
		sm.mu.Unlock()
		return snapshot, err
	}

	if err := sm.manager.SetPair(result.Pair); err != nil {
		return sm.Snapshot(), err
	}
	sm.transition(StateAuthenticated, &result.User, nil)
	return sm.Snapshot(), nil
}

// LoginProvider authenticates with a provider payload and moves to
// authenticated.
func (sm *StateMachine) LoginProvider(ctx context.Context, provider, idToken, code string) (Snapshot, error) {
	result, err := sm.client.LoginProvider(ctx, provider, idToken, code)
	if err != nil {
		sm.mu.Lock()
		sm.err = err
		snapshot := Snapshot{State: sm.state, User: sm.user, Err: sm.err}
		sm.mu.Unlock()
		return snapshot, err
	}

	if err := sm.manager.SetPair(result.Pair); err != nil {
		return sm.Snapshot(), err
	}
	sm.transition(StateAuthenticated, &result.User, nil)
	return sm.Snapshot(), nil
}

// Logout revokes the session and moves to unauthenticated. The local pair is
// cleared even when the server call fails.
func (sm *StateMachine) Logout(ctx context.Context) Snapshot {
	_ = sm.manager.Logout(ctx)
	sm.transition(StateUnauthenticated, nil, nil)
	return sm.Snapshot()
}

// ClearError drops the last transition error without changing state.
func (sm *StateMachine) ClearError() {
	sm.mu.Lock()
	sm.err = nil
	sm.mu.Unlock()
}

// Token returns a valid access token while authenticated.
func (sm *StateMachine) Token(ctx context.Context) (string, error) {
	sm.mu.Lock()
	state := sm.state
	sm.mu.Unlock()
	if state != StateAuthenticated {
		return "", ErrNotAuthenticated
	}

	token, err := sm.manager.EnsureValidToken(ctx)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrInvalidOrExpiredToken) || errors.Is(err, ErrUnauthenticated) {
			sm.transition(StateUnauthenticated, nil, err)
		}
		return "", err
	}
	return token, nil
}

// watch keeps the pair fresh while authenticated. A refresh failure with a
// dead refresh token drops the machine to unauthenticated; transient errors
// are retried on the next tick.
func (sm *StateMachine) watch(ctx context.Context) {
	defer close(sm.done)

	ticker := time.NewTicker(sm.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.mu.Lock()
			state := sm.state
			sm.mu.Unlock()
			if state != StateAuthenticated {
				continue
			}

			if _, err := sm.manager.EnsureValidToken(ctx); err != nil {
				if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrInvalidOrExpiredToken) || errors.Is(err, ErrUnauthenticated) {
					sm.transition(StateUnauthenticated, nil, err)
				}
			}
		}
	}
}

// Close stops the background watcher. The state machine is unusable after.
func (sm *StateMachine) Close() {
	sm.mu.Lock()
	cancel, done := sm.cancel, sm.done
	sm.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}
