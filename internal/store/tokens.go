package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/lavishdadwani/Stock-Management/internal/model"
)

// One-time tokens are stored as SHA-256 digests; the raw value only travels by email.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SetVerificationToken stores a pending email verification token.
func SetVerificationToken(ctx context.Context, db *sql.DB, userID int64, token string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET email_verification_token = ?, email_verification_expires = ? WHERE id = ?`,
		hashToken(token), expiresAt.UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("storing verification token: %w", err)
	}
	return nil
}

// VerifyEmailToken marks the owner of a valid, unexpired token as verified.
func VerifyEmailToken(ctx context.Context, db *sql.DB, token string) (*model.User, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE email_verification_token = ? AND email_verification_expires > ?`,
		hashToken(token), time.Now().UTC(),
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("looking up verification token: %w", err)
	}

	if err := MarkEmailVerified(ctx, db, id); err != nil {
		return nil, err
	}
	return GetUser(ctx, db, id)
}

// MarkEmailVerified flags the user's email as verified and drops any pending token.
func MarkEmailVerified(ctx context.Context, db *sql.DB, userID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET is_email_verified = 1, email_verification_token = NULL,
		 email_verification_expires = NULL, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("marking email verified: %w", err)
	}
	return nil
}

// SetResetToken stores a pending password reset token.
func SetResetToken(ctx context.Context, db *sql.DB, userID int64, token string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_reset_token = ?, password_reset_expires = ? WHERE id = ?`,
		hashToken(token), expiresAt.UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("storing reset token: %w", err)
	}
	return nil
}

// ResetPassword replaces the password of the owner of a valid reset token,
// consuming the token and ending any active session.
func ResetPassword(ctx context.Context, db *sql.DB, token, passwordHash string) (*model.User, error) {
	var id int64
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM users WHERE password_reset_token = ? AND password_reset_expires > ?`,
			hashToken(token), time.Now().UTC(),
		).Scan(&id)
		if err == sql.ErrNoRows {
			return ErrInvalidToken
		}
		if err != nil {
			return fmt.Errorf("looking up reset token: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET password_hash = ?, password_reset_token = NULL, password_reset_expires = NULL,
			 session_id = NULL, updated_at = ? WHERE id = ?`,
			passwordHash, time.Now().UTC(), id,
		)
		if err != nil {
			return fmt.Errorf("resetting password: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetUser(ctx, db, id)
}
