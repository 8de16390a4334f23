package storage

import "errors"

var (
	// ErrAuthNotFound means the client has no stored session (never logged in or logged out).
	ErrAuthNotFound = errors.New("no stored session")
	// ErrStorageClosed is returned by any call made after Close.
	ErrStorageClosed = errors.New("storage is closed")
)
