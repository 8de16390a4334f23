package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// UsernamePattern определяет допустимый формат username
// Латинские буквы, цифры, "_", "." и "-". Символ "@" запрещен,
// чтобы username нельзя было спутать с email при логине
// Длина: 4-50 символов
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{4,50}$`)

const (
	// MinUsernameLen минимальная длина username
	MinUsernameLen = 4
	// MaxUsernameLen максимальная длина username
	MaxUsernameLen = 50
	// MinPasswordLen минимальная длина пароля
	MinPasswordLen = 6
	// MaxPasswordLen ограничивает стоимость хеширования
	MaxPasswordLen = 256
	// MaxEmailLen максимальная длина email (RFC 5321)
	MaxEmailLen = 254
)

// ValidateUsername проверяет, что username соответствует требованиям
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if len(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters (a-z, A-Z), numbers (0-9), dots, dashes and underscores")
	}

	return nil
}

// ValidatePassword проверяет минимальные требования к паролю
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if utf8.RuneCountInString(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordLen)
	}

	return nil
}

// ValidateEmail проверяет, что email - это один голый адрес без display name
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	if len(email) > MaxEmailLen {
		return fmt.Errorf("email must not exceed %d characters", MaxEmailLen)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return fmt.Errorf("email must be a valid address")
	}

	// net/mail допускает "user@localhost", требуем домен с точкой
	domain := email[strings.LastIndex(email, "@")+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return fmt.Errorf("email must be a valid address")
	}

	return nil
}

// ValidateLogin проверяет идентификатор для входа: username или email
func ValidateLogin(usernameOrEmail string) error {
	if strings.TrimSpace(usernameOrEmail) == "" {
		return fmt.Errorf("username or email cannot be empty")
	}
	if len(usernameOrEmail) > MaxEmailLen {
		return fmt.Errorf("username or email must not exceed %d characters", MaxEmailLen)
	}
	return nil
}
