package shared

import "fmt"

var (
	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Identity errors
	ErrUserNotFound  = fmt.Errorf("user not found")
	ErrEmailConflict = fmt.Errorf("email already bound to another account")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrInvalidState     = fmt.Errorf("invalid state parameter")

	// Storage and startup errors
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")
	ErrMigrationFailed    = fmt.Errorf("migration failed")
)
