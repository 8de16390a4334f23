package models

import "time"

// User представляет пользователя в системе
// PasswordHash и RefreshTokenHash не покидают слой storage/session
type User struct {
	CreatedAt        time.Time `json:"created_at"` // время создания
	UpdatedAt        time.Time `json:"updated_at"` // время последнего обновления
	ID               string    `json:"id"`         // UUID пользователя
	Username         string    `json:"username"`   // уникальный username (case-sensitive)
	Email            string    `json:"email"`      // уникальный email
	PasswordHash     string    `json:"-"`          // argon2id хеш пароля
	RefreshTokenHash string    `json:"-"`          // argon2id хеш текущего refresh token, "" если сессии нет
}

// HasSession reports whether the user has a live refresh token hash stored.
func (u *User) HasSession() bool {
	return u.RefreshTokenHash != ""
}
