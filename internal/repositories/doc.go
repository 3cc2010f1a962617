// Package repositories provides persistence layer implementations for all model types.
//
// # Identity Resolution
//
// [UserRepository.Resolve] implements find-or-create keyed on the spotify
// account id. Concurrent first-logins for the same account are arbitrated by
// the primary key constraint: both callers attempt the insert, exactly one
// succeeds, and the loser re-reads the row and takes the update path instead
// of surfacing the violation.
//
// # Email Uniqueness
//
// An application-level availability check runs before any write so callers
// receive a typed [shared.ErrEmailConflict] instead of a raw driver error.
// The unique index on spotify_email remains the last line of defense; a
// constraint violation that slips past the check is mapped to the same
// sentinel.
//
// # Credentials
//
// The access credential is overwritten unconditionally and reported as absent
// (not an error) when it has never been set or has been cleared.
package repositories
