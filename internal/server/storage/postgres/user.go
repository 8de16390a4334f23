package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/contactkeeper/internal/models"
	"github.com/iudanet/contactkeeper/internal/server/storage"
)

const userColumns = `id, username, email, password_hash, refresh_token_hash, created_at, updated_at`

// CreateUser creates a new user
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (id, username, email, password_hash, refresh_token_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		nullString(user.RefreshTokenHash),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// GetUserByUsername retrieves user by username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return s.getUser(ctx, query, username)
}

// GetUserByEmail retrieves user by email
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return s.getUser(ctx, query, email)
}

// GetUserByUsernameOrEmail retrieves user by username, falling back to email
func (s *Storage) GetUserByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE username = $1 OR email = $1
		 ORDER BY (username = $1) DESC
		 LIMIT 1`
	return s.getUser(ctx, query, usernameOrEmail)
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	if !isUUID(userID) {
		return nil, storage.ErrUserNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.getUser(ctx, query, userID)
}

// UpdateUser applies a partial update; see storage.UserUpdate
func (s *Storage) UpdateUser(ctx context.Context, userID string, update storage.UserUpdate) error {
	if !isUUID(userID) {
		return storage.ErrUserNotFound
	}

	if update.RefreshTokenHash == nil {
		_, err := s.GetUserByID(ctx, userID)
		return err
	}

	query := `UPDATE users SET refresh_token_hash = $1, updated_at = $2 WHERE id = $3`
	args := []any{nullString(*update.RefreshTokenHash), time.Now().UTC(), userID}

	if update.ExpectedRefreshTokenHash != nil {
		query += ` AND COALESCE(refresh_token_hash, '') = $4`
		args = append(args, *update.ExpectedRefreshTokenHash)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if rows == 0 {
		if _, err := s.GetUserByID(ctx, userID); err != nil {
			return err
		}
		return storage.ErrConflict
	}

	return nil
}

func (s *Storage) getUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	user := &models.User{}
	var refreshTokenHash sql.NullString

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&refreshTokenHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.RefreshTokenHash = refreshTokenHash.String

	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
