package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/notevault/backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// CreateUser hashes the plaintext password and inserts the row. The unique
// index on email resolves concurrent registrations with the same address:
// exactly one insert succeeds, the rest surface a unique violation.
func (db *Postgres) CreateUser(ctx context.Context, username, email, password string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), db.bcryptCost)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, username, email, password_hash, role, created_at, updated_at
	`
	var user model.User
	err = db.Pool.QueryRow(ctx, query, username, email, string(hash)).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, username, email, password_hash, role, profile_picture,
		       otp_code_hash, otp_expires_at, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var user model.User
	err := db.Pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.ProfilePicture,
		&user.OTPCodeHash,
		&user.OTPExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID loads the user without the password hash, matching what the
// authentication gate attaches to the request context.
func (db *Postgres) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	query := `
		SELECT id, username, email, role, profile_picture, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user model.User
	err := db.Pool.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Role,
		&user.ProfilePicture,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *Postgres) SetProfilePicture(ctx context.Context, userID int64, path string) error {
	query := `
		UPDATE users
		SET profile_picture = $2, updated_at = NOW()
		WHERE id = $1
	`
	_, err := db.Pool.Exec(ctx, query, userID, path)
	return err
}

// SetOTP overwrites any pending OTP; a user has a single active slot.
func (db *Postgres) SetOTP(ctx context.Context, userID int64, codeHash string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET otp_code_hash = $2, otp_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	_, err := db.Pool.Exec(ctx, query, userID, codeHash, expiresAt)
	return err
}

// ResetPassword hashes the new password and clears the OTP slot in the same
// statement so a successful reset never leaves a usable OTP behind.
func (db *Postgres) ResetPassword(ctx context.Context, userID int64, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), db.bcryptCost)
	if err != nil {
		return err
	}

	query := `
		UPDATE users
		SET password_hash = $2, otp_code_hash = '', otp_expires_at = NULL, updated_at = NOW()
		WHERE id = $1
	`
	_, err = db.Pool.Exec(ctx, query, userID, string(hash))
	return err
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
