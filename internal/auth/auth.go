package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tournament-admin/internal/logging"
	"tournament-admin/internal/metrics"
	"tournament-admin/internal/startup"
)

// Permission tags checked by the handlers.
const (
	PermRead   = "read"
	PermWrite  = "write"
	PermDelete = "delete"
	PermAdmin  = "admin"
)

// ErrInvalidCredentials is returned for unknown users and wrong passwords.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials holds one admin account's stored password and grants.
type Credentials struct {
	Password    string // bcrypt hash or plaintext (legacy)
	Role        string
	Permissions []string
}

// Session is a time-bounded authenticated context for one actor.
type Session struct {
	Token        string    `json:"-"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	Permissions  []string  `json:"permissions"`
	IssuedAt     time.Time `json:"issuedAt"`
	LastActivity time.Time `json:"-"`
}

// HasPermission reports whether the session carries the given tag.
func (s *Session) HasPermission(perm string) bool {
	for _, p := range s.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Manager verifies credentials and tracks active sessions.
type Manager struct {
	mu       sync.Mutex
	users    map[string]Credentials
	sessions map[string]*Session
	timeout  time.Duration

	// Injectable for tests.
	now func() time.Time
}

// NewManager builds the credential store from configuration. Accounts
// with no configured password are disabled rather than open.
func NewManager(cfg *startup.Config) *Manager {
	users := make(map[string]Credentials)

	if cfg.AdminPassword != "" {
		users["admin"] = Credentials{
			Password:    cfg.AdminPassword,
			Role:        "super_admin",
			Permissions: []string{PermRead, PermWrite, PermDelete, PermAdmin},
		}
	} else {
		logging.Warn("ADMIN_PASSWORD not set, admin account disabled")
	}

	if cfg.ModeratorPassword != "" {
		users["moderator"] = Credentials{
			Password:    cfg.ModeratorPassword,
			Role:        "moderator",
			Permissions: []string{PermRead, PermWrite},
		}
	}

	return &Manager{
		users:    users,
		sessions: make(map[string]*Session),
		timeout:  cfg.SessionTimeout,
		now:      time.Now,
	}
}

// Authenticate verifies a username/password pair and, on success,
// establishes a new session.
func (m *Manager) Authenticate(username, password string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	creds, ok := m.users[username]
	if !ok {
		logging.Warn("Login attempt for unknown user: %s", username)
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	if !verifyPassword(password, creds.Password) {
		logging.Warn("Failed login attempt for user: %s", username)
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := m.now()
	session := &Session{
		Token:        token,
		Username:     username,
		Role:         creds.Role,
		Permissions:  creds.Permissions,
		IssuedAt:     now,
		LastActivity: now,
	}
	m.sessions[token] = session

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	logging.Info("Login successful for user: %s (role %s)", username, creds.Role)

	return session, nil
}

// Validate checks a session token. A session is valid while the time
// since its last activity is below the configured timeout; validation
// refreshes the activity timestamp.
func (m *Manager) Validate(token string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[token]
	if !ok {
		return nil, false
	}

	now := m.now()
	if now.Sub(session.LastActivity) >= m.timeout {
		delete(m.sessions, token)
		metrics.SessionsActive.Set(float64(len(m.sessions)))
		logging.Debug("Session expired for user: %s", session.Username)
		return nil, false
	}

	session.LastActivity = now
	return session, true
}

// Logout removes a session. Unknown tokens are ignored.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[token]; ok {
		logging.Info("Logout for user: %s", session.Username)
		delete(m.sessions, token)
		metrics.SessionsActive.Set(float64(len(m.sessions)))
	}
}

// CleanExpiredSessions drops sessions past the inactivity timeout. Run
// periodically from main.
func (m *Manager) CleanExpiredSessions() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for token, session := range m.sessions {
		if now.Sub(session.LastActivity) >= m.timeout {
			delete(m.sessions, token)
			removed++
		}
	}
	if removed > 0 {
		metrics.SessionsActive.Set(float64(len(m.sessions)))
		logging.Debug("Cleaned %d expired sessions", removed)
	}
}

// verifyPassword compares against a bcrypt hash when the stored value
// looks like one, otherwise falls back to a constant-time plaintext
// comparison. The fallback is an inherited legacy behavior for
// development credential stores.
func verifyPassword(password, stored string) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
