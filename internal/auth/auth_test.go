package auth

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tournament-admin/internal/startup"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	return NewManager(&startup.Config{
		AdminPassword:     string(hash),
		ModeratorPassword: "plain-mod-pw",
		SessionTimeout:    time.Hour,
	})
}

func TestAuthenticateWithBcryptHash(t *testing.T) {
	m := newTestManager(t)

	session, err := m.Authenticate("admin", "hunter22")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if session.Username != "admin" {
		t.Errorf("Username = %q, want admin", session.Username)
	}
	if session.Role != "super_admin" {
		t.Errorf("Role = %q, want super_admin", session.Role)
	}
	if session.Token == "" {
		t.Error("session token is empty")
	}
	if len(session.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(session.Token))
	}
}

func TestAuthenticatePlaintextFallback(t *testing.T) {
	m := newTestManager(t)

	session, err := m.Authenticate("moderator", "plain-mod-pw")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if session.Role != "moderator" {
		t.Errorf("Role = %q, want moderator", session.Role)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	m := newTestManager(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"Wrong password", "admin", "wrong"},
		{"Unknown user", "root", "hunter22"},
		{"Hash as password", "admin", "$2a$04$abcdefghijklmnopqrstuv"},
		{"Empty password", "moderator", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Authenticate(tt.username, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestDisabledAccountWithoutPassword(t *testing.T) {
	m := NewManager(&startup.Config{
		ModeratorPassword: "pw",
		SessionTimeout:    time.Hour,
	})

	if _, err := m.Authenticate("admin", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("admin without configured password should be disabled, got %v", err)
	}
}

func TestValidateRefreshesActivity(t *testing.T) {
	m := newTestManager(t)

	current := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	session, err := m.Authenticate("admin", "hunter22")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}

	// 59 minutes later: still valid, activity refreshed.
	current = current.Add(59 * time.Minute)
	if _, ok := m.Validate(session.Token); !ok {
		t.Fatal("session invalid before timeout")
	}

	// Another 59 minutes: the sliding window moved, still valid.
	current = current.Add(59 * time.Minute)
	if _, ok := m.Validate(session.Token); !ok {
		t.Error("session invalid despite refreshed activity")
	}
}

func TestValidateExpiresIdleSession(t *testing.T) {
	m := newTestManager(t)

	current := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	session, err := m.Authenticate("admin", "hunter22")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}

	current = current.Add(time.Hour)
	if _, ok := m.Validate(session.Token); ok {
		t.Error("session valid at exactly the inactivity timeout")
	}

	// The expired session is gone for good.
	if _, ok := m.Validate(session.Token); ok {
		t.Error("expired session still resolvable")
	}
}

func TestValidateUnknownToken(t *testing.T) {
	m := newTestManager(t)
	if _, ok := m.Validate("deadbeef"); ok {
		t.Error("unknown token validated")
	}
}

func TestLogout(t *testing.T) {
	m := newTestManager(t)

	session, err := m.Authenticate("admin", "hunter22")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}

	m.Logout(session.Token)
	if _, ok := m.Validate(session.Token); ok {
		t.Error("session still valid after logout")
	}

	// Logging out twice is harmless.
	m.Logout(session.Token)
}

func TestHasPermission(t *testing.T) {
	m := newTestManager(t)

	admin, _ := m.Authenticate("admin", "hunter22")
	mod, _ := m.Authenticate("moderator", "plain-mod-pw")

	if !admin.HasPermission(PermDelete) {
		t.Error("admin missing delete permission")
	}
	if mod.HasPermission(PermDelete) {
		t.Error("moderator has delete permission")
	}
	if !mod.HasPermission(PermWrite) {
		t.Error("moderator missing write permission")
	}
}

func TestCleanExpiredSessions(t *testing.T) {
	m := newTestManager(t)

	current := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	old, _ := m.Authenticate("admin", "hunter22")
	current = current.Add(30 * time.Minute)
	fresh, _ := m.Authenticate("moderator", "plain-mod-pw")

	current = current.Add(45 * time.Minute)
	m.CleanExpiredSessions()

	if _, ok := m.Validate(old.Token); ok {
		t.Error("idle session survived cleanup")
	}
	if _, ok := m.Validate(fresh.Token); !ok {
		t.Error("active session removed by cleanup")
	}
}
