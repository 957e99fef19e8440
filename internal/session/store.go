package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bankdash/internal/core"
	"bankdash/internal/log"
)

var (
	// ErrAuthenticationFailed signals bad credentials. The store never
	// renders error text; the presentation layer localizes it.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrNoToken guards SetUser against producing an authenticated
	// state without a credential.
	ErrNoToken = errors.New("no token present")
)

// State is a point-in-time copy of the session.
// Invariant: IsAuthenticated holds exactly when User and Token are both
// present.
type State struct {
	User            *core.User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
}

// Snapshot is the subset of state that survives process restarts.
// IsLoading is deliberately excluded.
type Snapshot struct {
	User            *core.User `json:"user"`
	Token           string     `json:"token"`
	IsAuthenticated bool       `json:"isAuthenticated"`
}

// Authenticator exchanges credentials for an identity and a token.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (core.User, string, error)
}

// Repository persists session snapshots across restarts.
type Repository interface {
	Save(ctx context.Context, s Snapshot) error
	Load(ctx context.Context) (Snapshot, bool, error)
	Clear(ctx context.Context) error
}

// Store holds the authenticated session for the process. All
// transitions are atomic under the store's lock; observers only ever
// see complete states.
type Store struct {
	mu     sync.Mutex
	state  State
	auth   Authenticator
	repo   Repository
	logger *log.Logger
	subs   []func(State)
}

// New builds a store and rehydrates it from the repository. A persisted
// token is trusted as-is; freshness is the authenticator's concern.
func New(ctx context.Context, auth Authenticator, repo Repository, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &Store{
		auth:   auth,
		repo:   repo,
		logger: logger.WithComponent("session"),
	}

	if repo != nil {
		snap, ok, err := repo.Load(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to rehydrate session", log.FieldError, err)
		} else if ok && snap.User != nil && snap.Token != "" {
			s.state = State{
				User:            snap.User,
				Token:           snap.Token,
				IsAuthenticated: true,
			}
			s.logger.InfoContext(ctx, "Session rehydrated", log.FieldUserID, snap.User.ID)
		}
	}
	return s
}

// Current returns a copy of the session state.
func (s *Store) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyStateLocked()
}

// Token returns the current credential, empty when anonymous.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// Subscribe registers a callback invoked after every state transition.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Login exchanges credentials for a session. On failure the store
// returns to anonymous and the previously persisted session is left
// untouched.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.transition(func(st *State) {
		st.IsLoading = true
	})

	user, token, err := s.auth.Authenticate(ctx, email, password)
	if err != nil {
		s.transition(func(st *State) {
			st.User = nil
			st.Token = ""
			st.IsAuthenticated = false
			st.IsLoading = false
		})
		s.logger.WarnContext(ctx, "Login failed", log.FieldEmail, email, log.FieldError, err)
		return fmt.Errorf("%w: %s", ErrAuthenticationFailed, email)
	}

	s.transition(func(st *State) {
		st.User = &user
		st.Token = token
		st.IsAuthenticated = true
		st.IsLoading = false
	})
	s.persist(ctx)
	s.logger.InfoContext(ctx, "Login succeeded", log.FieldUserID, user.ID)
	return nil
}

// Logout clears the session. It is idempotent and never fails;
// persistence trouble is only logged.
func (s *Store) Logout(ctx context.Context) {
	s.transition(func(st *State) {
		st.User = nil
		st.Token = ""
		st.IsAuthenticated = false
		st.IsLoading = false
	})

	if s.repo != nil {
		if err := s.repo.Clear(ctx); err != nil {
			s.logger.WarnContext(ctx, "Failed to clear persisted session", log.FieldError, err)
		}
	}
}

// SetUser replaces the user wholesale, keeping the session
// authenticated. Used after profile updates. Calling it without a token
// would break the session invariant, so it is rejected.
func (s *Store) SetUser(ctx context.Context, user core.User) error {
	s.mu.Lock()
	if s.state.Token == "" {
		s.mu.Unlock()
		return ErrNoToken
	}
	s.mu.Unlock()

	s.transition(func(st *State) {
		st.User = &user
		st.IsAuthenticated = true
	})
	s.persist(ctx)
	return nil
}

// SetToken replaces the credential only.
func (s *Store) SetToken(ctx context.Context, token string) {
	s.transition(func(st *State) {
		st.Token = token
	})
	s.persist(ctx)
}

// SetLoading flips the loading flag only. Never fails.
func (s *Store) SetLoading(loading bool) {
	s.transition(func(st *State) {
		st.IsLoading = loading
	})
}

func (s *Store) transition(mutate func(*State)) {
	s.mu.Lock()
	mutate(&s.state)
	state := s.copyStateLocked()
	subs := append(([]func(State))(nil), s.subs...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

func (s *Store) persist(ctx context.Context) {
	if s.repo == nil {
		return
	}

	s.mu.Lock()
	snap := Snapshot{
		Token:           s.state.Token,
		IsAuthenticated: s.state.IsAuthenticated,
	}
	if s.state.User != nil {
		u := *s.state.User
		snap.User = &u
	}
	s.mu.Unlock()

	if err := s.repo.Save(ctx, snap); err != nil {
		s.logger.WarnContext(ctx, "Failed to persist session", log.FieldError, err)
	}
}

func (s *Store) copyStateLocked() State {
	state := s.state
	if s.state.User != nil {
		u := *s.state.User
		state.User = &u
	}
	return state
}
