package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lavishdadwani/Stock-Management/internal/model"
)

const userColumns = `id, name, email, number, role, password_hash, session_id,
	is_email_verified, is_active, photo IS NOT NULL, last_login, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Number, &u.Role, &u.PasswordHash, &u.SessionID,
		&u.IsEmailVerified, &u.IsActive, &u.HasPhoto, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser creates a new account from a normalized registration.
func CreateUser(ctx context.Context, db *sql.DB, in model.RegisterInput, passwordHash string) (*model.User, error) {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (name, email, number, role, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Name, model.NormalizeEmail(in.Email), in.Number, in.Role, passwordHash, now, now,
	)
	if isUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, q Querier, id int64) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email address.
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = ?`, model.NormalizeEmail(email),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns active users, optionally restricted to one role.
func ListUsers(ctx context.Context, db *sql.DB, role string) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_active = 1`
	var args []any
	if role != "" {
		query += ` AND role = ?`
		args = append(args, role)
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateProfile applies a validated profile patch.
func UpdateProfile(ctx context.Context, db *sql.DB, id int64, p model.ProfilePatch) (*model.User, error) {
	u, err := GetUser(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}

	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Number != nil {
		u.Number = *p.Number
	}

	_, err = db.ExecContext(ctx,
		`UPDATE users SET name = ?, number = ?, updated_at = ? WHERE id = ?`,
		u.Name, u.Number, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return GetUser(ctx, db, id)
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// SetUserActive enables or disables an account. Disabling also ends its session.
func SetUserActive(ctx context.Context, db *sql.DB, id int64, active bool) error {
	query := `UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`
	if !active {
		query = `UPDATE users SET is_active = ?, session_id = NULL, updated_at = ? WHERE id = ?`
	}
	res, err := db.ExecContext(ctx, query, active, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating user status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// StartSession records a login, replacing any previous session.
func StartSession(ctx context.Context, db *sql.DB, id int64, sessionID string) error {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx,
		`UPDATE users SET session_id = ?, last_login = ?, updated_at = ? WHERE id = ?`,
		sessionID, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	return nil
}

// EndSession clears the user's session if it is still sessionID. An empty
// sessionID clears whatever session is active.
func EndSession(ctx context.Context, db *sql.DB, id int64, sessionID string) error {
	var err error
	if sessionID == "" {
		_, err = db.ExecContext(ctx, `UPDATE users SET session_id = NULL WHERE id = ?`, id)
	} else {
		_, err = db.ExecContext(ctx,
			`UPDATE users SET session_id = NULL WHERE id = ? AND session_id = ?`, id, sessionID)
	}
	if err != nil {
		return fmt.Errorf("ending session: %w", err)
	}
	return nil
}

// SetUserPhoto stores a processed profile photo.
func SetUserPhoto(ctx context.Context, db *sql.DB, id int64, data []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET photo = ?, photo_mime = ?, updated_at = ? WHERE id = ?`,
		data, mime, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting user photo: %w", err)
	}
	return nil
}

// GetUserPhoto returns a user's photo and its MIME type, or nil if unset.
func GetUserPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var data []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM users WHERE id = ?`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting user photo: %w", err)
	}
	return data, mime.String, nil
}
