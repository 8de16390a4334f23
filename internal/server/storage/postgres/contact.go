package postgres

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
	query :=
		`INSERT INTO contacts (` + contactColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.ExecContext(ctx, query,
		contact.ID,
		contact.UserID,
		contact.FirstName,
		contact.LastName,
		contact.PhoneNumber,
		contact.Email,
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrContactAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// ListContacts returns all contacts of the user ordered by creation time
func (s *Storage) ListContacts(ctx context.Context, userID string) ([]*models.Contact, error) {
	contacts := make([]*models.Contact, 0)
	if !isUUID(userID) {
		return contacts, nil
	}

	query :=
		`SELECT ` + contactColumns + ` FROM contacts
		 WHERE user_id = $1
		 ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		contacts = append(contacts, contact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return contacts, nil
}

// GetContact retrieves a contact of the user
func (s *Storage) GetContact(ctx context.Context, userID, contactID string) (*models.Contact, error) {
	if !isUUID(userID) || !isUUID(contactID) {
		return nil, storage.ErrContactNotFound
	}

	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND user_id = $2`

	contact, err := scanContact(s.db.QueryRowContext(ctx, query, contactID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrContactNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return contact, nil
}

// UpdateContact applies a partial update and returns the updated contact
func (s *Storage) UpdateContact(ctx context.Context, userID, contactID string, update storage.ContactUpdate) (*models.Contact, error) {
	if !isUUID(userID) || !isUUID(contactID) {
		return nil, storage.ErrContactNotFound
	}

	if update.IsEmpty() {
		return s.GetContact(ctx, userID, contactID)
	}

	var (
		sets []string
		args []any
	)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.FirstName != nil {
		add("first_name", *update.FirstName)
	}
	if update.LastName != nil {
		add("last_name", *update.LastName)
	}
	if update.PhoneNumber != nil {
		add("phone_number", *update.PhoneNumber)
	}
	if update.Email != nil {
		add("email", *update.Email)
	}
	add("updated_at", time.Now().UTC())

	args = append(args, contactID, userID)
	query := fmt.Sprintf(
		`UPDATE contacts SET %s WHERE id = $%d AND user_id = $%d RETURNING `+contactColumns,
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	contact, err := scanContact(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrContactNotFound
		}
		if isUniqueViolation(err) {
			return nil, storage.ErrContactAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return contact, nil
}

// DeleteContact deletes a contact of the user
func (s *Storage) DeleteContact(ctx context.Context, userID, contactID string) error {
	if !isUUID(userID) || !isUUID(contactID) {
		return storage.ErrContactNotFound
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1 AND user_id = $2`, contactID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if rows == 0 {
		return storage.ErrContactNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*models.Contact, error) {
	contact := &models.Contact{}
	if err := row.Scan(
		&contact.ID,
		&contact.UserID,
		&contact.FirstName,
		&contact.LastName,
		&contact.PhoneNumber,
		&contact.Email,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return contact, nil
}
