package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that username or email is already taken
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrConflict indicates that a conditional update lost against a concurrent writer
	ErrConflict = errors.New("concurrent update conflict")

	// ErrContactNotFound indicates that contact was not found for this owner
	ErrContactNotFound = errors.New("contact not found")

	// ErrContactAlreadyExists indicates a duplicate phone number for the same owner
	ErrContactAlreadyExists = errors.New("contact already exists")
)
