package models

import (
	"encoding/json"
	"fmt"

	"github.com/benjamesfleming/smarterplaylists/internal/shared"
)

// User holds the details of an authenticated Spotify user.
//
// The spotify id doubles as the primary key, so ID and SpotifyID return the
// same value. The access token is optional and treated as an opaque string.
type User struct {
	spotifyID   string
	username    string
	email       string
	accessToken string
	hasToken    bool
}

// NewUser creates a User from provider-asserted identity fields.
func NewUser(spotifyID, username, email string) *User {
	return &User{
		spotifyID: spotifyID,
		username:  username,
		email:     email,
	}
}

// ID returns the user's primary key, which equals the spotify account id.
func (u *User) ID() string { return u.spotifyID }

// SpotifyID returns the provider account identifier.
func (u *User) SpotifyID() string { return u.spotifyID }

// Username returns the display name as last reported by the provider.
func (u *User) Username() string { return u.username }

// Email returns the account email as last reported by the provider.
func (u *User) Email() string { return u.email }

// AccessToken returns the stored access credential and whether one is present.
func (u *User) AccessToken() (string, bool) {
	return u.accessToken, u.hasToken
}

// SetUsername replaces the display name.
func (u *User) SetUsername(username string) { u.username = username }

// SetEmail replaces the account email.
func (u *User) SetEmail(email string) { u.email = email }

// SetAccessToken overwrites the stored access credential.
func (u *User) SetAccessToken(token string) {
	u.accessToken = token
	u.hasToken = token != ""
}

// ClearAccessToken removes the stored access credential.
func (u *User) ClearAccessToken() {
	u.accessToken = ""
	u.hasToken = false
}

// Validate checks that all required identity fields are present.
func (u *User) Validate() error {
	if u.spotifyID == "" {
		return fmt.Errorf("%w: spotify id is required", shared.ErrInvalidInput)
	}
	if u.username == "" {
		return fmt.Errorf("%w: spotify username is required", shared.ErrInvalidInput)
	}
	if u.email == "" {
		return fmt.Errorf("%w: spotify email is required", shared.ErrInvalidInput)
	}
	return nil
}

// MarshalJSON serializes the public identity fields. The access token is
// never included in serialized output.
func (u *User) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string `json:"id"`
		Username string `json:"spotify_username"`
		Email    string `json:"spotify_email"`
	}{
		ID:       u.spotifyID,
		Username: u.username,
		Email:    u.email,
	})
}
