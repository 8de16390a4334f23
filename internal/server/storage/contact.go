package storage

import (
	"context"

	"github.com/iudanet/contactkeeper/internal/models"
)

// ContactStorage defines interface for contact persistence
// Every method is scoped by owner; a contact of another user is reported
// as ErrContactNotFound
type ContactStorage interface {
	// CreateContact stores a new contact
	// Returns ErrContactAlreadyExists if the owner already has this phone number
	// or this non-empty email
	CreateContact(ctx context.Context, contact *models.Contact) error

	// ListContacts returns all contacts of the owner ordered by creation time
	// Returns empty slice if no contacts found
	ListContacts(ctx context.Context, userID string) ([]*models.Contact, error)

	// GetContact retrieves a single contact of the owner
	GetContact(ctx context.Context, userID, contactID string) (*models.Contact, error)

	// UpdateContact applies a partial update and returns the updated contact
	UpdateContact(ctx context.Context, userID, contactID string, update ContactUpdate) (*models.Contact, error)

	// DeleteContact deletes a contact of the owner
	DeleteContact(ctx context.Context, userID, contactID string) error
}

// ContactUpdate describes a partial contact update. Nil fields are left unchanged.
type ContactUpdate struct {
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	Email       *string
}

// IsEmpty reports whether the update changes nothing.
func (u ContactUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.PhoneNumber == nil && u.Email == nil
}
