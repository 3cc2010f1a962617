package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/benjamesfleming/smarterplaylists/internal/repositories"
	"github.com/benjamesfleming/smarterplaylists/internal/services"
	"github.com/benjamesfleming/smarterplaylists/internal/session"
	"github.com/benjamesfleming/smarterplaylists/internal/shared"
	"github.com/charmbracelet/log"
)

// stateCookie carries the OAuth state token between the redirect and the callback.
const stateCookie = "spl_oauth_state"

// AuthHandler serves the Spotify SSO flow and the session-scoped auth endpoints.
//
// The callback is the single write path into the identity store: it exchanges
// the authorization code, fetches the provider profile, resolves it to a user
// row, and persists the serialized token as the user's credential.
type AuthHandler struct {
	provider services.Provider
	users    *repositories.UserRepository
	sessions *session.Manager
	logger   *log.Logger
}

// NewAuthHandler creates an AuthHandler wired to the given provider, store and session manager.
func NewAuthHandler(provider services.Provider, users *repositories.UserRepository, sessions *session.Manager, logger *log.Logger) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{
		"/auth/spotify/sso",
		"/auth/spotify/callback",
		"/auth/me",
		"/auth/logout",
	}
}

// ServeHTTP dispatches to the route-specific handlers.
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/spotify/sso":
		h.handleSSO(w, r)
	case "/auth/spotify/callback":
		h.handleCallback(w, r)
	case "/auth/me":
		h.handleMe(w, r)
	case "/auth/logout":
		h.handleLogout(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleSSO redirects the browser to the provider's authorize URL.
func (h *AuthHandler) handleSSO(w http.ResponseWriter, r *http.Request) {
	state := shared.GenerateState()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/spotify",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// handleCallback completes the authorization code flow: exchange the code,
// resolve the asserted identity, store the credential, open a session.
func (h *AuthHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusBadRequest, shared.ErrInvalidState.Error())
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("token exchange failed", "error", err)
		writeError(w, http.StatusBadGateway, "token exchange failed")
		return
	}

	profile, err := h.provider.Profile(r.Context(), token)
	if err != nil {
		h.logger.Error("profile fetch failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to fetch user profile")
		return
	}

	user, isNew, err := h.users.Resolve(profile.ID, profile.DisplayName, profile.Email)
	if err != nil {
		h.writeResolveError(w, err)
		return
	}

	// The full token is serialized so refresh and expiry data survive a
	// restart; the store itself treats the credential as opaque text.
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "An internal error occurred. Please try again later.")
		return
	}

	if err := h.users.SetAccessToken(user.ID(), string(tokenJSON)); err != nil {
		h.logger.Error("failed to store credential", "user", user.ID(), "error", err)
		writeError(w, http.StatusBadGateway, "failed to store credential")
		return
	}

	h.logger.Info("user authenticated", "user", user.ID(), "new", isNew)

	sess := h.sessions.Create(user.ID())
	h.sessions.SetCookie(w, sess)

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// handleMe returns the logged-in user's public identity fields.
func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized. You are not allowed to access that resource.")
		return
	}

	user, err := h.users.Get(sess.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "Unauthorized. You are not allowed to access that resource.")
			return
		}
		h.logger.Error("failed to load user", "user", sess.UserID, "error", err)
		writeError(w, http.StatusBadGateway, "storage unavailable")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleLogout drops the session and clears the cookie.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := h.sessions.FromRequest(r); ok {
		h.sessions.Delete(sess.ID)
	}
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// writeResolveError maps the resolver's typed outcomes onto HTTP statuses:
// validation 400, email conflict 409, storage faults 502.
func (h *AuthHandler) writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrEmailConflict):
		writeError(w, http.StatusConflict, "That email address is already linked to a different Spotify account.")
	case errors.Is(err, shared.ErrStorageUnavailable):
		writeError(w, http.StatusBadGateway, "storage unavailable")
	default:
		h.logger.Error("identity resolution failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An internal error occurred. Please try again later.")
	}
}
