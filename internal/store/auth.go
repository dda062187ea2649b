package store

import (
	"context"
	"sync"

	"recipebox/internal/models"
)

// AuthStore tracks the current session. The token it holds is sent with
// session lookups and sign-out.
type AuthStore struct {
	actions SessionActions

	mu      sync.RWMutex
	state   models.AuthStatus
	session *models.Session
	token   string
	status  status
}

// NewAuthStore creates a store in the loading state.
func NewAuthStore(a SessionActions) *AuthStore {
	return &AuthStore{actions: a, state: models.AuthLoading}
}

// SetAuthState overwrites the status and session.
func (s *AuthStore) SetAuthState(state models.AuthStatus, session *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.session = copySession(session)
	if session != nil && session.Token != "" {
		s.token = session.Token
	}
	if state == models.AuthUnauthenticated {
		s.token = ""
	}
}

// SetToken adopts a token obtained elsewhere, e.g. from a cookie.
func (s *AuthStore) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Status returns the current auth status.
func (s *AuthStore) Status() models.AuthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuth reports whether a session is established.
func (s *AuthStore) IsAuth() bool {
	return s.Status() == models.AuthAuthenticated
}

// Session returns a copy of the current session, nil when signed out.
func (s *AuthStore) Session() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.session)
}

func (s *AuthStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *AuthStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.pending > 0
}

func (s *AuthStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.err
}

// Refresh asks the backend for the session behind the held token.
func (s *AuthStore) Refresh(ctx context.Context) {
	s.mu.Lock()
	s.status.begin()
	token := s.token
	s.mu.Unlock()

	res := s.actions.GetSession(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.end(failureOf(res))
	switch {
	case !res.Success():
		// Keep the previous state on transport or server failures.
	case res.Value() == nil:
		s.state = models.AuthUnauthenticated
		s.session = nil
	default:
		s.state = models.AuthAuthenticated
		s.session = copySession(res.Value())
	}
}

// SignIn verifies credentials and stores the resulting session.
func (s *AuthStore) SignIn(ctx context.Context, email, password string) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	res := s.actions.SignIn(ctx, email, password)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.end(failureOf(res))
	if res.Success() && res.Value() != nil {
		s.state = models.AuthAuthenticated
		s.session = copySession(res.Value())
		s.token = res.Value().Token
	}
	_, err := res.Unwrap()
	return err
}

// SignOut revokes the held token, then refreshes the session state.
func (s *AuthStore) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.status.begin()
	token := s.token
	s.mu.Unlock()

	res := s.actions.SignOut(ctx, token)

	s.mu.Lock()
	s.status.end(failureOf(res))
	if res.Success() {
		s.token = ""
	}
	s.mu.Unlock()

	if _, err := res.Unwrap(); err != nil {
		return err
	}
	s.Refresh(ctx)
	return nil
}

func copySession(in *models.Session) *models.Session {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}
