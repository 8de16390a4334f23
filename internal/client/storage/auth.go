package storage

import (
	"context"
	"time"
)

// AuthStorage defines interface for storing the client session locally.
// It keeps tokens exactly as the server issued them.
type AuthStorage interface {
	// SaveAuth stores session data, replacing any previous session
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored session data
	// Returns ErrAuthNotFound if no session exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored session data (logout)
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated checks if an unexpired access token is stored
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData represents the client session in storage.
// RefreshToken is empty right after registration: only login issues one.
type AuthData struct {
	Username     string `json:"username"`
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at"` // unix-время истечения access token
}

// AccessExpired сообщает, истёк ли access token к моменту now
func (a *AuthData) AccessExpired(now time.Time) bool {
	return a.AccessToken == "" || now.Unix() >= a.ExpiresAt
}

// CanRefresh сообщает, есть ли refresh token для ротации
func (a *AuthData) CanRefresh() bool {
	return a.RefreshToken != ""
}
