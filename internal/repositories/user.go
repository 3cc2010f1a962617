package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/benjamesfleming/smarterplaylists/internal/models"
	"github.com/benjamesfleming/smarterplaylists/internal/shared"
	"github.com/mattn/go-sqlite3"
)

// UserRepository implements [models.Repository] for [models.User] persistence
// and the identity resolution and credential operations built on top of it.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Resolve maps provider-asserted identity fields to exactly one stored user.
//
// A previously unseen spotify id creates a row and returns isNew=true. A known
// id refreshes username and email to the supplied values and returns
// isNew=false. When the asserted email is already bound to a different spotify
// id, Resolve returns [shared.ErrEmailConflict] and writes nothing.
func (r *UserRepository) Resolve(spotifyID, username, email string) (*models.User, bool, error) {
	user := models.NewUser(spotifyID, username, email)
	if err := user.Validate(); err != nil {
		return nil, false, fmt.Errorf("validation failed: %w", err)
	}

	existing, err := r.Get(spotifyID)
	if err != nil && !errors.Is(err, shared.ErrUserNotFound) {
		return nil, false, err
	}

	if existing != nil {
		updated, err := r.refresh(existing, username, email)
		return updated, false, err
	}

	if err := r.Create(user); err != nil {
		if isConstraint(err, sqlite3.ErrConstraintPrimaryKey) {
			// Lost the insert race to a concurrent first-login.
			// Re-read the winner's row and take the update path.
			winner, err := r.Get(spotifyID)
			if err != nil {
				return nil, false, err
			}
			updated, err := r.refresh(winner, username, email)
			return updated, false, err
		}
		return nil, false, err
	}

	return user, true, nil
}

// EmailAvailable reports whether email is free for spotifyID to claim.
// Returns [shared.ErrEmailConflict] when a different spotify id already owns it.
func (r *UserRepository) EmailAvailable(spotifyID, email string) error {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE spotify_email = ? AND spotify_id != ?)`

	if err := r.db.QueryRow(query, email, spotifyID).Scan(&exists); err != nil {
		return storageFault("failed to check email availability", err)
	}

	if exists {
		return fmt.Errorf("%w: %s", shared.ErrEmailConflict, email)
	}

	return nil
}

// Create inserts a new user. The email-uniqueness guard runs first so the
// common conflict is reported as [shared.ErrEmailConflict] before touching
// the table; the unique index catches anything that slips through.
func (r *UserRepository) Create(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := r.EmailAvailable(user.SpotifyID(), user.Email()); err != nil {
		return err
	}

	query := `
		INSERT INTO users (spotify_id, spotify_username, spotify_email, spotify_access_token)
		VALUES (?, ?, ?, ?)
	`

	var token any
	if t, ok := user.AccessToken(); ok {
		token = t
	}

	if _, err := r.db.Exec(query, user.SpotifyID(), user.Username(), user.Email(), token); err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return fmt.Errorf("%w: %s", shared.ErrEmailConflict, user.Email())
		}
		if isConstraint(err, sqlite3.ErrConstraintPrimaryKey) {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		return storageFault("failed to insert user", err)
	}

	return nil
}

// Get retrieves a user by id (the spotify account id).
func (r *UserRepository) Get(id string) (*models.User, error) {
	query := `
		SELECT spotify_id, spotify_username, spotify_email, spotify_access_token
		FROM users
		WHERE spotify_id = ?
	`

	user, err := scanUser(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, storageFault("failed to query user", err)
	}

	return user, nil
}

// Update modifies an existing user's identity fields. The access token is not
// touched; use [UserRepository.SetAccessToken] for credential writes.
func (r *UserRepository) Update(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE users
		SET spotify_username = ?, spotify_email = ?
		WHERE spotify_id = ?
	`

	result, err := r.db.Exec(query, user.Username(), user.Email(), user.SpotifyID())
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return fmt.Errorf("%w: %s", shared.ErrEmailConflict, user.Email())
		}
		return storageFault("failed to update user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storageFault("failed to get affected rows", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, user.SpotifyID())
	}

	return nil
}

// List retrieves all users matching the given criteria.
func (r *UserRepository) List(criteria map[string]any) ([]*models.User, error) {
	query := `
		SELECT spotify_id, spotify_username, spotify_email, spotify_access_token
		FROM users
		WHERE 1 = 1
	`

	args := []any{}

	if email, ok := criteria["spotify_email"].(string); ok && email != "" {
		query += " AND spotify_email = ?"
		args = append(args, email)
	}

	query += " ORDER BY spotify_id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, storageFault("failed to query users", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, storageFault("failed to scan user", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, storageFault("row iteration error", err)
	}

	return users, nil
}

// SetAccessToken overwrites the stored access credential for the given user.
// Setting the same token twice is a no-op effect-wise.
func (r *UserRepository) SetAccessToken(id, token string) error {
	if token == "" {
		return fmt.Errorf("%w: access token must be non-empty", shared.ErrInvalidInput)
	}

	result, err := r.db.Exec("UPDATE users SET spotify_access_token = ? WHERE spotify_id = ?", token, id)
	if err != nil {
		return storageFault("failed to set access token", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storageFault("failed to get affected rows", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}

	return nil
}

// AccessToken returns the stored access credential for the given user.
// ok is false when no credential has ever been set or it has been cleared;
// callers must treat that as "re-authenticate required", not a fault.
func (r *UserRepository) AccessToken(id string) (string, bool, error) {
	var token sql.NullString

	err := r.db.QueryRow("SELECT spotify_access_token FROM users WHERE spotify_id = ?", id).Scan(&token)
	if err == sql.ErrNoRows {
		return "", false, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	if err != nil {
		return "", false, storageFault("failed to query access token", err)
	}

	if !token.Valid || token.String == "" {
		return "", false, nil
	}

	return token.String, true, nil
}

// ClearAccessToken removes the stored access credential for the given user.
func (r *UserRepository) ClearAccessToken(id string) error {
	result, err := r.db.Exec("UPDATE users SET spotify_access_token = NULL WHERE spotify_id = ?", id)
	if err != nil {
		return storageFault("failed to clear access token", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storageFault("failed to get affected rows", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}

	return nil
}

// refresh applies provider-asserted username and email to an existing user.
// The email guard runs before the write, so a conflict leaves the row untouched.
func (r *UserRepository) refresh(user *models.User, username, email string) (*models.User, error) {
	if err := r.EmailAvailable(user.SpotifyID(), email); err != nil {
		return nil, err
	}

	user.SetUsername(username)
	user.SetEmail(email)

	if err := r.Update(user); err != nil {
		return nil, err
	}

	return user, nil
}

// scanner abstracts over [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var (
		spotifyID   string
		username    string
		email       string
		accessToken sql.NullString
	)

	if err := row.Scan(&spotifyID, &username, &email, &accessToken); err != nil {
		return nil, err
	}

	user := models.NewUser(spotifyID, username, email)
	if accessToken.Valid && accessToken.String != "" {
		user.SetAccessToken(accessToken.String)
	}

	return user, nil
}

// storageFault tags a driver-level failure as [shared.ErrStorageUnavailable]
// so callers can treat it as a retryable outage rather than a business outcome.
// Constraint violations must be classified before reaching here.
func storageFault(msg string, err error) error {
	return fmt.Errorf("%s: %w: %v", msg, shared.ErrStorageUnavailable, err)
}

// isConstraint reports whether err is a sqlite constraint violation with the
// given extended code.
func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == code
	}
	return false
}
