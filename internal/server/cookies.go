package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// CookieName is the name of the chat session cookie
	CookieName = "intake_session"
	// CookieMaxAge is the duration the cookie is valid
	CookieMaxAge = 30 * time.Minute
)

// SetSessionCookie sets an HTTP-only session cookie.
func SetSessionCookie(w http.ResponseWriter, sessionID string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
}

// GetSessionCookie reads the session ID from the cookie
func GetSessionCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

func newSessionID() string {
	return uuid.NewString()
}

// getSessionID retrieves the session ID from the cookie or the X-Session-Id header.
func getSessionID(r *http.Request) string {
	if sid, err := GetSessionCookie(r); err == nil && validSessionID(sid) {
		return sid
	}
	if sid := r.Header.Get("X-Session-Id"); validSessionID(sid) {
		return sid
	}
	return ""
}

func validSessionID(sid string) bool {
	if sid == "" {
		return false
	}
	_, err := uuid.Parse(sid)
	return err == nil
}

// getOrCreateSessionID returns the caller's session, issuing a new cookie when
// there is none. The id is echoed in X-Session-Id either way.
func (s *Server) getOrCreateSessionID(w http.ResponseWriter, r *http.Request) string {
	sid := getSessionID(r)
	if sid == "" {
		sid = newSessionID()
		SetSessionCookie(w, sid, s.secureCookies)
	}
	w.Header().Set("X-Session-Id", sid)
	return sid
}
