// Package models defines the data model for the playlist automation backend.
//
// # User Identity
//
// [User] is the single persisted identity entity. One User exists per Spotify
// account; the provider's account id is the primary key (natural key), so the
// internal id and the spotify id are the same value. Username and email track
// whatever the provider last asserted, with email protected by a uniqueness
// invariant across accounts.
//
// # Credentials
//
// The access credential is an opaque string column. It is absent before the
// first successful token exchange and overwritten wholesale on every refresh.
// Absence means "re-authenticate required", never a fault.
package models
