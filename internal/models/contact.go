package models

import (
	"strings"
	"time"
)

// UnknownFullName is reported for contacts whose first and last names are both blank.
const UnknownFullName = "Unknown"

// Contact представляет контакт, принадлежащий пользователю
type Contact struct {
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ID          string    `json:"id"`      // UUID контакта
	UserID      string    `json:"user_id"` // владелец
	FirstName   string    `json:"firstname"`
	LastName    string    `json:"lastname"`
	PhoneNumber string    `json:"phonenumber"`
	Email       string    `json:"email,omitempty"` // опционально
}

// FullName returns "First Last", or UnknownFullName when both are blank.
func (c *Contact) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
	if name == "" {
		return UnknownFullName
	}
	return name
}
