package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"tournament-admin/internal/auth"
	"tournament-admin/internal/logging"
)

// SessionCookieName is the name of the session cookie.
const SessionCookieName = "tournament_admin_session"

// LoginRequest carries the dashboard credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned by the authentication endpoints.
type AuthResponse struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message,omitempty"`
	Username    string   `json:"username,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	ExpiresIn   int      `json:"expiresIn,omitempty"` // Seconds until session expires
}

type contextKey string

const sessionContextKey contextKey = "session"

// sessionFrom returns the session stored by the auth guards.
func sessionFrom(r *http.Request) *auth.Session {
	s, _ := r.Context().Value(sessionContextKey).(*auth.Session)
	return s
}

// Login authenticates a moderator or admin and issues a session cookie.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.auth.Authenticate(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			logging.Error("Login failed: %v", err)
		}
		writeJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.cfg.SessionTimeout.Seconds()),
	})

	logging.Info("User %s logged in (role %s)", session.Username, session.Role)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{
		Success:     true,
		Username:    session.Username,
		Role:        session.Role,
		Permissions: session.Permissions,
		ExpiresIn:   int(h.cfg.SessionTimeout.Seconds()),
	})
}

// Logout destroys the current session and clears the cookie.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		h.auth.Logout(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})

	writeJSONStatus(w, "logged_out")
}

// CheckAuth reports whether the request carries a valid session.
func (h *Handlers) CheckAuth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	session, ok := h.sessionFromRequest(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(w, AuthResponse{Success: false})
		return
	}

	writeJSON(w, AuthResponse{
		Success:     true,
		Username:    session.Username,
		Role:        session.Role,
		Permissions: session.Permissions,
		ExpiresIn:   int(h.cfg.SessionTimeout.Seconds()),
	})
}

func (h *Handlers) sessionFromRequest(r *http.Request) (*auth.Session, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, false
	}
	return h.auth.Validate(cookie.Value)
}

// RequireAuth rejects requests without a valid session. The session is
// stored on the request context for the wrapped handler.
func (h *Handlers) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.sessionFromRequest(r)
		if !ok {
			writeJSONError(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next(w, r.WithContext(ctx))
	}
}

// RequirePermission rejects authenticated sessions lacking the named
// permission. Missing permission is 403; missing session is 401.
func (h *Handlers) RequirePermission(permission string, next http.HandlerFunc) http.HandlerFunc {
	return h.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		session := sessionFrom(r)
		if !session.HasPermission(permission) {
			logging.Warn("User %s denied %s (role %s)", session.Username, permission, session.Role)
			writeJSONError(w, "Insufficient permissions", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}
