package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/benjamesfleming/smarterplaylists/internal/repositories"
	"github.com/benjamesfleming/smarterplaylists/internal/shared"
	"github.com/charmbracelet/log"
)

// UsersHandler serves the read-only user endpoints consumed by the automation
// engine and operator tooling.
type UsersHandler struct {
	users  *repositories.UserRepository
	logger *log.Logger
}

// NewUsersHandler creates a UsersHandler backed by the given repository.
func NewUsersHandler(users *repositories.UserRepository, logger *log.Logger) *UsersHandler {
	return &UsersHandler{users: users, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *UsersHandler) Routes() []string {
	return []string{
		"/api/v1/users/list",
		"/api/v1/users/",
	}
}

// ServeHTTP dispatches to the route-specific handlers.
func (h *UsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/v1/users/list" {
		h.handleList(w, r)
		return
	}

	if id := strings.TrimPrefix(r.URL.Path, "/api/v1/users/"); id != "" {
		h.handleGet(w, r, id)
		return
	}

	writeError(w, http.StatusNotFound, "not found")
}

func (h *UsersHandler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(map[string]any{})
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		writeError(w, http.StatusBadGateway, "storage unavailable")
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *UsersHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	user, err := h.users.Get(id)
	if err != nil {
		if errors.Is(err, shared.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("failed to load user", "user", id, "error", err)
		writeError(w, http.StatusBadGateway, "storage unavailable")
		return
	}

	writeJSON(w, http.StatusOK, user)
}
