// Package server provides HTTP routing, middleware, and the web surface of
// the identity store.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Auth Flow
//
// [AuthHandler] implements the Spotify authorization code flow. /auth/spotify/sso
// redirects to the provider with a random state token carried in a short-lived
// cookie; /auth/spotify/callback validates the state, exchanges the code,
// resolves the asserted identity to a user row, stores the serialized token as
// the user's credential, and opens a session.
//
// An email already bound to a different account yields a 409 with the standard
// JSON error envelope, so the front end can prompt instead of silently
// overwriting.
//
// # Read Surface
//
// [UsersHandler] exposes the user rows to operator tooling and the automation
// engine: /api/v1/users/list and /api/v1/users/{id}. Serialized users never
// include the stored credential.
package server
