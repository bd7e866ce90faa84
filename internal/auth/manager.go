// Package auth owns the client session lifecycle: establishing it from the
// auth endpoints, restoring it on launch, and clearing it on logout.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/garagedesk/internal/domain"
	"github.com/gosuda/garagedesk/internal/gateway"
	"github.com/gosuda/garagedesk/internal/session"
)

// ErrNotAuthenticated is returned when an operation needs a session and
// there is none.
var ErrNotAuthenticated = errors.New("auth: not authenticated")

// Error is a failure reported by the server inside the response envelope.
// Error() returns the server message verbatim.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Envelope is the response of every auth-family endpoint.
type Envelope = domain.Response[domain.AuthData]

// API is the subset of *gateway.Client used by the Manager.
type API interface {
	Get(ctx context.Context, path string, mode gateway.Mode, out any) error
	Post(ctx context.Context, path string, mode gateway.Mode, body, out any) error
}

// Session is a snapshot of the in-memory session.
type Session struct {
	Token         string
	User          *domain.User
	Authenticated bool
}

type RegisterInput struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName,omitempty"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber,omitempty"`
	Password     string `json:"password"` //nolint:gosec // G117: credential DTO
}

type ProfileUpdate struct {
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	MobileNumber string `json:"mobileNumber,omitempty"`
}

// Manager performs auth flows and keeps the session in memory and in the
// persistent store. It is created once at the application root and passed to
// whatever needs it.
type Manager struct {
	api   API
	store session.Store
	now   func() time.Time

	mu      sync.RWMutex
	current Session
}

func NewManager(api API, store session.Store) *Manager {
	return &Manager{api: api, store: store, now: time.Now}
}

// Session returns a copy of the current session.
func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.current
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Token implements gateway.TokenSource.
func (m *Manager) Token(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current.Token == "" {
		return "", ErrNotAuthenticated
	}
	return m.current.Token, nil
}

func (m *Manager) Login(ctx context.Context, email, password string) (*Envelope, error) {
	body := map[string]string{"email": email, "password": password}
	return m.establish(ctx, "auth.Manager.Login", gateway.PathLogin, body)
}

func (m *Manager) Register(ctx context.Context, in RegisterInput) (*Envelope, error) {
	return m.establish(ctx, "auth.Manager.Register", gateway.PathRegister, in)
}

func (m *Manager) LoginWithOTP(ctx context.Context, mobileNumber, otp string) (*Envelope, error) {
	body := map[string]string{"mobileNumber": mobileNumber, "otp": otp}
	return m.establish(ctx, "auth.Manager.LoginWithOTP", gateway.PathLoginWithOTP, body)
}

func (m *Manager) SendLoginOTP(ctx context.Context, mobileNumber string) (*Envelope, error) {
	body := map[string]string{"mobileNumber": mobileNumber}
	return m.call(ctx, "auth.Manager.SendLoginOTP", gateway.PathSendLoginOTP, gateway.Anonymous, body)
}

func (m *Manager) ForgotPassword(ctx context.Context, email string) (*Envelope, error) {
	body := map[string]string{"email": email}
	return m.call(ctx, "auth.Manager.ForgotPassword", gateway.PathForgotPassword, gateway.Anonymous, body)
}

func (m *Manager) VerifyOTP(ctx context.Context, email, otp string) (*Envelope, error) {
	body := map[string]string{"email": email, "otp": otp}
	return m.call(ctx, "auth.Manager.VerifyOTP", gateway.PathVerifyOTP, gateway.Anonymous, body)
}

func (m *Manager) ResetPassword(ctx context.Context, email, otp, newPassword string) (*Envelope, error) {
	body := map[string]string{"email": email, "otp": otp, "newPassword": newPassword}
	return m.call(ctx, "auth.Manager.ResetPassword", gateway.PathResetPassword, gateway.Anonymous, body)
}

func (m *Manager) ChangePassword(ctx context.Context, currentPassword, newPassword string) (*Envelope, error) {
	body := map[string]string{"currentPassword": currentPassword, "newPassword": newPassword}
	return m.call(ctx, "auth.Manager.ChangePassword", gateway.PathChangePassword, gateway.Authenticated, body)
}

// UpdateProfile edits the profile and refreshes the cached user.
func (m *Manager) UpdateProfile(ctx context.Context, in ProfileUpdate) (*Envelope, error) {
	env, err := m.call(ctx, "auth.Manager.UpdateProfile", gateway.PathUpdateProfile, gateway.Authenticated, in)
	if err != nil {
		return env, err
	}
	if env.Data != nil && env.Data.User != nil {
		if err := m.saveUser(ctx, env.Data.User); err != nil {
			return env, fmt.Errorf("auth.Manager.UpdateProfile: %w", err)
		}
	}
	return env, nil
}

// MarkOnboarded records that the tenant finished onboarding.
func (m *Manager) MarkOnboarded(ctx context.Context) error {
	m.mu.RLock()
	user := m.current.User
	m.mu.RUnlock()

	if user == nil {
		return fmt.Errorf("auth.Manager.MarkOnboarded: %w", ErrNotAuthenticated)
	}

	updated := *user
	updated.OnboardingCompleted = true
	if err := m.saveUser(ctx, &updated); err != nil {
		return fmt.Errorf("auth.Manager.MarkOnboarded: %w", err)
	}
	return nil
}

// Restore rebuilds the session from the persistent store and validates the
// token with the server before trusting it. A missing, inconsistent, expired
// or rejected session leaves the manager unauthenticated with the stored keys
// removed. A network failure also leaves it unauthenticated but keeps the
// keys so the next launch can retry; the error is returned.
func (m *Manager) Restore(ctx context.Context) (Session, error) {
	m.reset()

	token, tokenErr := m.store.Get(ctx, session.KeyToken)
	rawUser, userErr := m.store.Get(ctx, session.KeyUser)

	switch {
	case errors.Is(tokenErr, session.ErrNotFound) && errors.Is(userErr, session.ErrNotFound):
		return m.Session(), nil
	case tokenErr != nil && !errors.Is(tokenErr, session.ErrNotFound):
		return m.Session(), fmt.Errorf("auth.Manager.Restore: read token: %w", tokenErr)
	case userErr != nil && !errors.Is(userErr, session.ErrNotFound):
		return m.Session(), fmt.Errorf("auth.Manager.Restore: read user: %w", userErr)
	}

	var user domain.User
	if tokenErr != nil || userErr != nil || token == "" || json.Unmarshal([]byte(rawUser), &user) != nil {
		log.Warn().Msg("auth: stored session is incomplete, clearing")
		return m.Session(), m.clearStore(ctx, "auth.Manager.Restore")
	}

	if exp, ok := TokenExpiry(token); ok && !exp.After(m.now()) {
		log.Info().Time("expired_at", exp).Msg("auth: stored token expired, clearing")
		return m.Session(), m.clearStore(ctx, "auth.Manager.Restore")
	}

	// Expose the token to the gateway for the validation call only.
	m.mu.Lock()
	m.current.Token = token
	m.mu.Unlock()

	var fresh domain.User
	err := m.api.Get(ctx, gateway.PathMe, gateway.Authenticated, &fresh)
	if err != nil {
		m.reset()
		var apiErr *gateway.Error
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			log.Info().Int("status", apiErr.Status).Msg("auth: stored token rejected, clearing")
			return m.Session(), m.clearStore(ctx, "auth.Manager.Restore")
		}
		return m.Session(), fmt.Errorf("auth.Manager.Restore: validate: %w", err)
	}

	switch {
	case fresh.ID == uuid.Nil:
		// Keep the cached profile.
	case user.ID != uuid.Nil && fresh.ID != user.ID:
		m.reset()
		log.Warn().Msg("auth: stored user does not match token owner, clearing")
		return m.Session(), m.clearStore(ctx, "auth.Manager.Restore")
	default:
		user = fresh
	}
	if err := m.persist(ctx, token, &user); err != nil {
		m.reset()
		return m.Session(), fmt.Errorf("auth.Manager.Restore: %w", err)
	}

	log.Debug().Str("user_id", user.ID.String()).Msg("auth: session restored")
	return m.Session(), nil
}

// Logout removes the stored session and clears the in-memory state.
func (m *Manager) Logout(ctx context.Context) error {
	m.reset()
	return m.clearStore(ctx, "auth.Manager.Logout")
}

// establish calls a token-issuing endpoint and persists the session on success.
func (m *Manager) establish(ctx context.Context, op, path string, body any) (*Envelope, error) {
	env, err := m.call(ctx, op, path, gateway.Anonymous, body)
	if err != nil {
		return env, err
	}
	if env.Data == nil || env.Data.Token == "" || env.Data.User == nil {
		return env, fmt.Errorf("%s: response carried no session: %w", op, gateway.ErrNetwork)
	}

	if err := m.persist(ctx, env.Data.Token, env.Data.User); err != nil {
		m.reset()
		return env, fmt.Errorf("%s: %w", op, err)
	}

	log.Info().Str("user_id", env.Data.User.ID.String()).Msg("auth: session established")
	return env, nil
}

// call posts to an envelope endpoint. A success:false body becomes *Error.
func (m *Manager) call(ctx context.Context, op, path string, mode gateway.Mode, body any) (*Envelope, error) {
	var env Envelope
	if err := m.api.Post(ctx, path, mode, body, &env); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !env.Success {
		return &env, &Error{Message: env.Message}
	}
	return &env, nil
}

// persist writes token then user. The two writes are not atomic; Restore
// detects a half-written session.
func (m *Manager) persist(ctx context.Context, token string, user *domain.User) error {
	if err := m.store.Set(ctx, session.KeyToken, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := m.store.Set(ctx, session.KeyUser, string(raw)); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	u := *user
	m.mu.Lock()
	m.current = Session{Token: token, User: &u, Authenticated: true}
	m.mu.Unlock()
	return nil
}

func (m *Manager) saveUser(ctx context.Context, user *domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := m.store.Set(ctx, session.KeyUser, string(raw)); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	u := *user
	m.mu.Lock()
	m.current.User = &u
	m.mu.Unlock()
	return nil
}

func (m *Manager) reset() {
	m.mu.Lock()
	m.current = Session{}
	m.mu.Unlock()
}

func (m *Manager) clearStore(ctx context.Context, op string) error {
	err := errors.Join(
		m.store.Remove(ctx, session.KeyToken),
		m.store.Remove(ctx, session.KeyUser),
	)
	if err != nil {
		return fmt.Errorf("%s: clear store: %w", op, err)
	}
	return nil
}
