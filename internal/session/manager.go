// Package session owns the authentication state machine: it derives the
// current session from persisted token material at startup and mutates it
// through register, login and logout.
package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ecowatch/api/internal/ecoerr"
	"ecowatch/api/internal/models"
	"ecowatch/api/internal/repository"
	"ecowatch/api/internal/security"
	"ecowatch/api/internal/store"
)

// Session is derived state, never persisted as an entity. The store holds
// only the raw token material (token, role, username, token_expiry).
type Session struct {
	IsLoggedIn  bool
	Role        models.Role
	Username    string
	Token       string
	TokenExpiry time.Time
}

type Manager struct {
	kv    store.KV
	users *repository.UserRepository
	log   zerolog.Logger
	ttl   time.Duration

	mu      sync.Mutex
	current Session
}

func NewManager(kv store.KV, users *repository.UserRepository, logger zerolog.Logger, ttl time.Duration) *Manager {
	return &Manager{
		kv:    kv,
		users: users,
		log:   logger.With().Str("component", "session").Logger(),
		ttl:   ttl,
	}
}

// Bootstrap reconstructs the session from persisted token material. An
// absent or expired token yields a logged-out session; stale keys are left
// for the reconciliation job to clear.
func (m *Manager) Bootstrap(ctx context.Context) error {
	token, ok, err := m.kv.Get(ctx, store.KeyToken)
	if err != nil {
		return fmt.Errorf("bootstrap session: %w", err)
	}
	if !ok || token == "" {
		return nil
	}

	expiryRaw, ok, err := m.kv.Get(ctx, store.KeyTokenExpiry)
	if err != nil {
		return fmt.Errorf("bootstrap session: %w", err)
	}
	expiry, parseErr := parseEpochMillis(expiryRaw)
	if !ok || parseErr != nil || !time.Now().Before(expiry) {
		m.log.Debug().Msg("persisted token expired or unreadable; starting logged out")
		return nil
	}

	roleRaw, _, err := m.kv.Get(ctx, store.KeyRole)
	if err != nil {
		return fmt.Errorf("bootstrap session: %w", err)
	}
	username, _, err := m.kv.Get(ctx, store.KeyUsername)
	if err != nil {
		return fmt.Errorf("bootstrap session: %w", err)
	}

	role, valid := models.ParseRole(roleRaw)
	if !valid {
		role = models.RoleNone
	}

	m.mu.Lock()
	m.current = Session{
		IsLoggedIn:  true,
		Role:        role,
		Username:    username,
		Token:       token,
		TokenExpiry: expiry,
	}
	m.mu.Unlock()

	m.log.Info().Str("username", username).Str("role", string(role)).Msg("session restored")
	return nil
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
	Phone    string
	FullName string
}

// Register creates a user profile and logs it in. Self-registration can
// never mint an admin; anything but "rescuer" collapses to "user".
func (m *Manager) Register(ctx context.Context, input RegisterInput) (Session, error) {
	if err := m.users.Sync(ctx); err != nil {
		return Session{}, err
	}

	role := models.RoleUser
	if input.Role == models.RoleRescuer {
		role = models.RoleRescuer
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return Session{}, err
	}

	user := models.UserProfile{
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.TrimSpace(strings.ToLower(input.Email)),
		PasswordHash: hash,
		Phone:        input.Phone,
		FullName:     input.FullName,
		Role:         role,
		Status:       models.UserStatusActive,
	}

	added, err := m.users.Add(ctx, user)
	if err != nil {
		return Session{}, err
	}

	return m.issue(ctx, added)
}

// Login matches the username case-insensitively, then verifies the
// password. Unknown user and bad password stay distinct errors.
func (m *Manager) Login(ctx context.Context, username, password string) (Session, error) {
	if err := m.users.Sync(ctx); err != nil {
		return Session{}, err
	}

	user, err := m.users.FindByUsername(ctx, username)
	if err != nil {
		return Session{}, err
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return Session{}, fmt.Errorf("login %q: %w", user.Username, ecoerr.ErrInvalidCredential)
	}

	return m.issue(ctx, user)
}

// issue mints a fresh opaque token and persists the token material in a
// single multi-key write.
func (m *Manager) issue(ctx context.Context, user models.UserProfile) (Session, error) {
	token, err := security.NewSessionToken()
	if err != nil {
		return Session{}, err
	}
	expiry := time.Now().Add(m.ttl)

	err = m.kv.SetMulti(ctx, map[string]string{
		store.KeyToken:       token,
		store.KeyRole:        string(user.Role),
		store.KeyUsername:    user.Username,
		store.KeyTokenExpiry: strconv.FormatInt(expiry.UnixMilli(), 10),
	})
	if err != nil {
		return Session{}, err
	}

	sess := Session{
		IsLoggedIn:  true,
		Role:        user.Role,
		Username:    user.Username,
		Token:       token,
		TokenExpiry: expiry,
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	m.log.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("session issued")
	return sess, nil
}

// Logout clears the persisted token material and resets the session.
// Local-only invalidation; there is no remote token registry.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.kv.RemoveMulti(ctx, []string{
		store.KeyToken, store.KeyRole, store.KeyUsername, store.KeyTokenExpiry,
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.current = Session{}
	m.mu.Unlock()
	return nil
}

// ForgotPassword acknowledges a recovery request for a known email.
// Mail transport is an external collaborator.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	if err := m.users.Sync(ctx); err != nil {
		return err
	}
	if _, err := m.users.FindByEmail(ctx, email); err != nil {
		return err
	}
	m.log.Info().Msg("password recovery requested")
	return nil
}

// Current returns the session state, expiring it lazily: reading past the
// token's expiry transitions the session to logged out.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Token != "" && !time.Now().Before(m.current.TokenExpiry) {
		m.log.Debug().Str("username", m.current.Username).Msg("token expired on read")
		m.current = Session{}
	}
	return m.current
}

// Token returns the current token, or false after lazy expiry.
func (m *Manager) Token() (string, bool) {
	sess := m.Current()
	if !sess.IsLoggedIn || sess.Token == "" {
		return "", false
	}
	return sess.Token, true
}

func (m *Manager) HasRole(role models.Role) bool {
	sess := m.Current()
	return sess.IsLoggedIn && sess.Role == role
}

func parseEpochMillis(raw string) (time.Time, error) {
	millis, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse token expiry: %w", err)
	}
	return time.UnixMilli(millis), nil
}
