package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/contactkeeper/internal/models"
	"github.com/iudanet/contactkeeper/internal/server/storage"
)

const contactColumns = `id, user_id, first_name, last_name, phone_number, email, created_at, updated_at`

// CreateContact stores a new contact
func (s *Storage) CreateContact(ctx context.Context, contact *models.Contact) error {
	query := `
		INSERT INTO contacts (` + contactColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		contact.ID,
		contact.UserID,
		contact.FirstName,
		contact.LastName,
		contact.PhoneNumber,
		contact.Email,
		contact.CreatedAt.UTC(),
		contact.UpdatedAt.UTC(),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrContactAlreadyExists
		}
		return fmt.Errorf("failed to insert contact: %w", err)
	}

	return nil
}

// ListContacts returns all contacts of the user ordered by creation time
func (s *Storage) ListContacts(ctx context.Context, userID string) ([]*models.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]*models.Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return contacts, nil
}

// GetContact retrieves a contact of the user
func (s *Storage) GetContact(ctx context.Context, userID, contactID string) (*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = ? AND user_id = ?`

	contact, err := scanContact(s.db.QueryRowContext(ctx, query, contactID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return contact, nil
}

// UpdateContact applies a partial update and returns the updated contact
func (s *Storage) UpdateContact(ctx context.Context, userID, contactID string, update storage.ContactUpdate) (*models.Contact, error) {
	if update.IsEmpty() {
		return s.GetContact(ctx, userID, contactID)
	}

	var (
		sets []string
		args []any
	)

	if update.FirstName != nil {
		sets = append(sets, "first_name = ?")
		args = append(args, *update.FirstName)
	}
	if update.LastName != nil {
		sets = append(sets, "last_name = ?")
		args = append(args, *update.LastName)
	}
	if update.PhoneNumber != nil {
		sets = append(sets, "phone_number = ?")
		args = append(args, *update.PhoneNumber)
	}
	if update.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *update.Email)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), contactID, userID)

	query := `UPDATE contacts SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND user_id = ?`

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrContactAlreadyExists
		}
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return nil, storage.ErrContactNotFound
	}

	return s.GetContact(ctx, userID, contactID)
}

// DeleteContact deletes a contact of the user
func (s *Storage) DeleteContact(ctx context.Context, userID, contactID string) error {
	query := `DELETE FROM contacts WHERE id = ? AND user_id = ?`

	result, err := s.db.ExecContext(ctx, query, contactID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrContactNotFound
	}

	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*models.Contact, error) {
	contact := &models.Contact{}
	err := row.Scan(
		&contact.ID,
		&contact.UserID,
		&contact.FirstName,
		&contact.LastName,
		&contact.PhoneNumber,
		&contact.Email,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return contact, nil
}
