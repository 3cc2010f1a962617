// package services defines interface Provider for OAuth identity providers
package services

import (
	"context"

	"golang.org/x/oauth2"
)

// Provider defines the interface for an OAuth identity provider that the
// callback handler drives: build the authorize URL, exchange the code, and
// fetch the provider-asserted profile.
type Provider interface {
	// AuthURL returns the authorization URL for user login.
	// The state token should be cryptographically random for CSRF protection.
	AuthURL(state string) string

	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// Profile fetches the authenticated user's profile with the given token.
	Profile(ctx context.Context, token *oauth2.Token) (*Profile, error)

	// Name returns the name of the provider (e.g., "Spotify")
	Name() string
}

// Profile holds the identity fields a provider asserts about an account.
type Profile struct {
	ID          string
	DisplayName string
	Email       string
}
