package storage

import (
	"context"

	"github.com/iudanet/contactkeeper/internal/models"
)

// UserStorage defines interface for user credential persistence
type UserStorage interface {
	// CreateUser creates a new user in the storage
	// Returns ErrUserAlreadyExists if username or email already exists
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername retrieves user by username (case-sensitive)
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByEmail retrieves user by email
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByUsernameOrEmail retrieves the first user whose username or email
	// equals the given value, username match first
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*models.User, error)

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// UpdateUser applies a partial update to a single user atomically
	// Returns ErrUserNotFound if user doesn't exist and ErrConflict
	// if update.ExpectedRefreshTokenHash does not match the stored value
	UpdateUser(ctx context.Context, userID string, update UserUpdate) error
}

// UserUpdate describes a partial user update. Nil fields are left unchanged.
type UserUpdate struct {
	// RefreshTokenHash sets the stored hash; "" clears it (logout)
	RefreshTokenHash *string

	// ExpectedRefreshTokenHash makes the update conditional: it is applied
	// only if the stored hash still equals this value ("" means no session)
	ExpectedRefreshTokenHash *string
}

// SetRefreshTokenHash returns an unconditional update of the refresh token hash.
func SetRefreshTokenHash(hash string) UserUpdate {
	return UserUpdate{RefreshTokenHash: &hash}
}

// SwapRefreshTokenHash returns an update that replaces expected with hash,
// failing with ErrConflict if another writer got there first.
func SwapRefreshTokenHash(expected, hash string) UserUpdate {
	return UserUpdate{RefreshTokenHash: &hash, ExpectedRefreshTokenHash: &expected}
}

// ClearRefreshTokenHash returns an unconditional update that ends the session.
func ClearRefreshTokenHash() UserUpdate {
	return SetRefreshTokenHash("")
}
