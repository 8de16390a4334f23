package api

import "time"

// CreateContactRequest представляет запрос на создание контакта
type CreateContactRequest struct {
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
	PhoneNumber string `json:"phonenumber"`
	Email       string `json:"email,omitempty"`
}

// UpdateContactRequest представляет частичное обновление контакта
// Отсутствующие поля не изменяются
type UpdateContactRequest struct {
	FirstName   *string `json:"firstname,omitempty"`
	LastName    *string `json:"lastname,omitempty"`
	PhoneNumber *string `json:"phonenumber,omitempty"`
	Email       *string `json:"email,omitempty"`
}

// Contact представляет контакт в ответах API
type Contact struct {
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ID          string    `json:"id"`
	FirstName   string    `json:"firstname"`
	LastName    string    `json:"lastname"`
	FullName    string    `json:"fullname"`
	PhoneNumber string    `json:"phonenumber"`
	Email       string    `json:"email,omitempty"`
}

// ContactResponse представляет ответ с одним контактом
type ContactResponse struct {
	Contact Contact `json:"contact"`
	Message string  `json:"message,omitempty"`
}

// ContactListResponse представляет ответ со списком контактов
type ContactListResponse struct {
	Contacts []Contact `json:"contacts"`
	Count    int       `json:"count"`
}
