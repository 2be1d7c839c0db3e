// Package auth keeps the signed-in session: it stores the backend token,
// re-verifies it on start-up and exposes the user's role.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"moviebook-cli/logging"
	"moviebook-cli/model"
	"moviebook-cli/service"
	"moviebook-cli/store"
	"moviebook-cli/validation"
)

// ErrNoToken is returned when a sign-in response carries no token.
var ErrNoToken = errors.New("login response did not include a token")

// Backend is the subset of the API client used for authentication.
type Backend interface {
	SignIn(ctx context.Context, creds model.Credentials) (json.RawMessage, error)
	SignUp(ctx context.Context, creds model.Credentials) (json.RawMessage, error)
	VerifyUser(ctx context.Context, token string) (model.User, error)
}

// Manager owns the current session.
type Manager struct {
	backend Backend
	now     func() time.Time

	mu      sync.RWMutex
	session *store.Session
}

func NewManager(backend Backend) *Manager {
	return &Manager{backend: backend, now: time.Now}
}

// Current returns a copy of the session, or nil when signed out.
func (m *Manager) Current() *store.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil
	}
	s := *m.session
	return &s
}

// Token returns the current access token or "".
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.Token
}

func (m *Manager) set(s *store.Session) {
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
}

// Bootstrap restores the stored session and checks it with the backend.
// Rejections clear the session. Server and network failures keep the local
// session so a flaky backend does not sign the user out.
func (m *Manager) Bootstrap(ctx context.Context) (*store.Session, error) {
	log := logging.With().Str("component", "auth").Logger()

	stored, err := store.LoadSession()
	if err != nil {
		log.Warn().Err(err).Msg("discarding unreadable session")
		_ = store.ClearSession()
		return nil, nil
	}
	if stored == nil {
		return nil, nil
	}
	if claims, err := ParseClaims(stored.Token); err == nil && claims.Expired(m.now()) {
		log.Info().Time("expired_at", claims.ExpiresAt).Msg("stored token expired")
		return nil, m.clear()
	}

	user, err := m.backend.VerifyUser(ctx, stored.Token)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		var apiErr *service.APIError
		if errors.As(err, &apiErr) && !service.IsServerError(err) {
			log.Info().Int("status", apiErr.StatusCode).Msg("session rejected by backend")
			return nil, m.clear()
		}
		log.Warn().Err(err).Msg("could not verify session, keeping local copy")
		m.set(stored)
		return m.Current(), nil
	}

	if user.Token == "" {
		user.Token = stored.Token
	}
	refreshed := &store.Session{Token: stored.Token, User: user, SavedAt: m.now()}
	if err := store.SaveSession(*refreshed); err != nil {
		log.Warn().Err(err).Msg("could not persist refreshed session")
	}
	m.set(refreshed)
	return m.Current(), nil
}

// Login signs in and stores the resulting session.
func (m *Manager) Login(ctx context.Context, creds model.Credentials) (*store.Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := validation.Struct(creds); err != nil {
		return nil, err
	}
	raw, err := m.backend.SignIn(ctx, creds)
	if err != nil {
		return nil, err
	}
	return m.adopt(raw)
}

// Signup registers an account. When the backend signs the user in directly
// the session is stored; otherwise nil is returned and the user logs in.
func (m *Manager) Signup(ctx context.Context, creds model.Credentials) (*store.Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.UserRole == "" {
		creds.UserRole = model.RoleCustomer
	}
	if err := validation.Struct(creds); err != nil {
		return nil, err
	}
	raw, err := m.backend.SignUp(ctx, creds)
	if err != nil {
		return nil, err
	}
	if ExtractToken(raw) == "" {
		return nil, nil
	}
	return m.adopt(raw)
}

func (m *Manager) adopt(raw []byte) (*store.Session, error) {
	token := ExtractToken(raw)
	if token == "" {
		return nil, ErrNoToken
	}
	user, err := ExtractUser(raw)
	if err != nil {
		return nil, err
	}
	user.Token = token
	if claims, err := ParseClaims(token); err == nil {
		if user.Id == "" {
			user.Id = claims.Subject
		}
		if user.EffectiveRole() == "" {
			user.UserRole = claims.Role
		}
	}

	session := &store.Session{Token: token, User: user, SavedAt: m.now()}
	if err := store.SaveSession(*session); err != nil {
		return nil, err
	}
	m.set(session)
	logging.Info().Str("component", "auth").Str("user", user.Email).Msg("signed in")
	return m.Current(), nil
}

// Logout forgets the session locally.
func (m *Manager) Logout() error {
	return m.clear()
}

func (m *Manager) clear() error {
	m.set(nil)
	return store.ClearSession()
}
