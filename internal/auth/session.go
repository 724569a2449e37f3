package auth

import (
	"net/http"
	"strings"
	"time"
)

func (m *Manager) sessionCookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.cfg.Secure,
	}
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.cfg.Secure,
	})
}

func (m *Manager) tokenFrom(r *http.Request) string {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// CreateSession stores a new session for userID and sets the session cookie.
func (m *Manager) CreateSession(w http.ResponseWriter, userID int64) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", newError(KindSessionCreateFailed, "create session", "token", err)
	}
	now := m.now()
	expiresAt := now.Add(m.cfg.SessionTTL)
	if _, err := m.backend.Stores().Sessions.Create(token, userID, expiresAt, now); err != nil {
		return "", newError(KindSessionCreateFailed, "create session", "", err)
	}
	http.SetCookie(w, m.sessionCookie(token, expiresAt))
	return token, nil
}

// CurrentSession resolves the request's session cookie. It returns nil when
// there is no cookie, or when the token is unknown, expired or orphaned; in
// those cases the presented cookie is also invalidated.
func (m *Manager) CurrentSession(w http.ResponseWriter, r *http.Request) *AuthContext {
	token := m.tokenFrom(r)
	if token == "" {
		return nil
	}

	stores := m.backend.Stores()
	now := m.now()
	sess, err := stores.Sessions.GetValid(token, now)
	if err != nil {
		m.logger.Warn("session lookup", "error", err)
		m.InvalidateSession(w, r)
		return nil
	}
	if sess == nil || !sess.ValidAt(now) {
		m.InvalidateSession(w, r)
		return nil
	}

	user, err := stores.Users.GetByID(sess.UserID)
	if err != nil || user == nil {
		if err != nil {
			m.logger.Warn("session user lookup", "user_id", sess.UserID, "error", err)
		}
		m.InvalidateSession(w, r)
		return nil
	}
	return &AuthContext{User: user, Session: sess}
}

// RequireAuth returns the current session or, when there is none, responds
// with a redirect to the login path and returns nil. Callers must stop
// handling the request on nil.
func (m *Manager) RequireAuth(w http.ResponseWriter, r *http.Request) *AuthContext {
	ac := m.CurrentSession(w, r)
	if ac == nil {
		m.redirectToLogin(w, r)
		return nil
	}
	return ac
}

func (m *Manager) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Unauthorized"}` + "\n"))
		return
	}
	http.Redirect(w, r, m.cfg.LoginPath, http.StatusSeeOther)
}

// InvalidateSession deletes the presented session, if any, and always clears
// the cookie. A failed delete is logged, not returned.
func (m *Manager) InvalidateSession(w http.ResponseWriter, r *http.Request) {
	if token := m.tokenFrom(r); token != "" {
		if err := m.backend.Stores().Sessions.Delete(token); err != nil {
			m.logger.Warn("delete session", "error", err)
		}
	}
	m.clearCookie(w)
}
