package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benjamesfleming/smarterplaylists/internal/repositories"
	"github.com/benjamesfleming/smarterplaylists/internal/services"
	"github.com/benjamesfleming/smarterplaylists/internal/session"
	"github.com/benjamesfleming/smarterplaylists/internal/shared"
	internaltesting "github.com/benjamesfleming/smarterplaylists/internal/testing"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

type authFixture struct {
	handler  *AuthHandler
	users    *repositories.UserRepository
	sessions *session.Manager
	provider *internaltesting.MockProvider
}

func newAuthFixture(t *testing.T, db *sql.DB, profile *services.Profile) *authFixture {
	t.Helper()

	provider := &internaltesting.MockProvider{ProfileResult: profile}
	users := repositories.NewUserRepository(db)
	sessions := session.NewManager(time.Hour)
	logger := shared.NewLogger(nil)

	return &authFixture{
		handler:  NewAuthHandler(provider, users, sessions, logger),
		users:    users,
		sessions: sessions,
		provider: provider,
	}
}

// doCallback performs a callback request with a matching state cookie and query parameter.
func (f *authFixture) doCallback(t *testing.T) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/auth/spotify/callback?code=auth-code&state=state-1", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "state-1"})

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthHandlerSSO(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	f := newAuthFixture(t, db, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/spotify/sso", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", rec.Code)
	}

	location := rec.Header().Get("Location")
	if !strings.Contains(location, "state=") {
		t.Errorf("authorize URL should carry the state token: %s", location)
	}

	var found bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == stateCookie && cookie.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected the state cookie to be set")
	}
}

func TestAuthHandlerCallback(t *testing.T) {
	t.Run("FirstLoginCreatesUser", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		f := newAuthFixture(t, db, &services.Profile{ID: "abc123", DisplayName: "ben", Email: "ben@x.com"})

		rec := f.doCallback(t)
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("expected 307, got %d: %s", rec.Code, rec.Body.String())
		}

		user, err := f.users.Get("abc123")
		if err != nil {
			t.Fatalf("expected user row: %v", err)
		}
		if user.Username() != "ben" {
			t.Errorf("expected username ben, got %s", user.Username())
		}

		token, ok, err := f.users.AccessToken("abc123")
		if err != nil || !ok {
			t.Fatalf("expected stored credential, got ok=%t err=%v", ok, err)
		}
		if !strings.Contains(token, "mock-access-token") {
			t.Errorf("stored credential should carry the exchanged token: %s", token)
		}

		var sessionSet bool
		for _, cookie := range rec.Result().Cookies() {
			if cookie.Name == session.CookieName && cookie.Value != "" {
				sessionSet = true
			}
		}
		if !sessionSet {
			t.Error("expected a session cookie on successful login")
		}
	})

	t.Run("SecondLoginRefreshesUser", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		f := newAuthFixture(t, db, &services.Profile{ID: "abc123", DisplayName: "ben", Email: "ben@x.com"})
		f.doCallback(t)

		f.provider.ProfileResult = &services.Profile{ID: "abc123", DisplayName: "benjamin", Email: "ben@x.com"}
		rec := f.doCallback(t)
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("expected 307, got %d", rec.Code)
		}

		user, err := f.users.Get("abc123")
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if user.Username() != "benjamin" {
			t.Errorf("expected refreshed username benjamin, got %s", user.Username())
		}
	})

	t.Run("EmailConflict", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		f := newAuthFixture(t, db, &services.Profile{ID: "abc123", DisplayName: "ben", Email: "ben@x.com"})
		f.doCallback(t)

		f.provider.ProfileResult = &services.Profile{ID: "xyz789", DisplayName: "other", Email: "ben@x.com"}
		rec := f.doCallback(t)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}

		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("expected JSON error body: %v", err)
		}
		if body["status"] != "error" {
			t.Errorf("expected error envelope, got %v", body)
		}
	})

	t.Run("StorageFault", func(t *testing.T) {
		db := setupTestDB(t)

		f := newAuthFixture(t, db, &services.Profile{ID: "abc123", DisplayName: "ben", Email: "ben@x.com"})
		db.Close()

		rec := f.doCallback(t)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502 when storage is down, got %d", rec.Code)
		}
	})

	t.Run("InvalidState", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		f := newAuthFixture(t, db, nil)

		req := httptest.NewRequest(http.MethodGet, "/auth/spotify/callback?code=auth-code&state=state-1", nil)
		req.AddCookie(&http.Cookie{Name: stateCookie, Value: "different-state"})

		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("expected JSON error body: %v", err)
		}
		if body["message"] != shared.ErrInvalidState.Error() {
			t.Errorf("unexpected message: %v", body["message"])
		}
	})

	t.Run("MissingCode", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		f := newAuthFixture(t, db, nil)

		req := httptest.NewRequest(http.MethodGet, "/auth/spotify/callback?state=state-1", nil)
		req.AddCookie(&http.Cookie{Name: stateCookie, Value: "state-1"})

		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuthHandlerMe(t *testing.T) {
	t.Run("Unauthorized", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		f := newAuthFixture(t, db, nil)

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("LoggedIn", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		f := newAuthFixture(t, db, nil)

		if _, _, err := f.users.Resolve("abc123", "ben", "ben@x.com"); err != nil {
			t.Fatalf("failed to seed user: %v", err)
		}
		sess := f.sessions.Create("abc123")

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sess.ID})

		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["id"] != "abc123" {
			t.Errorf("expected id abc123, got %s", body["id"])
		}
		if _, exists := body["spotify_access_token"]; exists {
			t.Error("response must not include the access token")
		}
	})
}

func TestAuthHandlerLogout(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	f := newAuthFixture(t, db, nil)
	sess := f.sessions.Create("abc123")

	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sess.ID})

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Errorf("expected 307, got %d", rec.Code)
	}

	if _, ok := f.sessions.Get(sess.ID); ok {
		t.Error("expected session to be dropped")
	}
}
