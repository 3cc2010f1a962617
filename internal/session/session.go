// Package session provides in-memory cookie sessions for the web surface.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"sync"
	"time"
)

// CookieName is the session cookie set on successful login.
const CookieName = "spl_session"

// Session links a browser session to a stored user.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Manager stores sessions in memory, keyed by random session id.
// Sessions expire after the configured TTL and are pruned lazily on access.
type Manager struct {
	sessions map[string]*Session
	ttl      time.Duration
	mu       sync.RWMutex
}

// NewManager creates a session Manager with the given time-to-live.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create opens a new session for the given user id.
func (m *Manager) Create(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := make([]byte, 32)
	rand.Read(b)
	sessionID := base64.URLEncoding.EncodeToString(b)

	now := time.Now().UTC()
	session := &Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.sessions[sessionID] = session
	return session
}

// Get retrieves a session by id. Expired sessions are removed and reported as absent.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	session, exists := m.sessions[sessionID]
	m.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Now().UTC().After(session.ExpiresAt) {
		m.Delete(sessionID)
		return nil, false
	}

	return session, true
}

// Delete removes a session by id.
func (m *Manager) Delete(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// FromRequest resolves the session referenced by the request's cookie.
func (m *Manager) FromRequest(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	return m.Get(cookie.Value)
}

// SetCookie writes the session cookie on the response.
func (m *Manager) SetCookie(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on the response.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
