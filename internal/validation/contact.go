package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// NamePattern - буквы, пробелы, дефисы и апострофы
	NamePattern = regexp.MustCompile(`^[\p{L}\s'\-]+$`)
	// PhonePattern - E.164: необязательный "+", первая цифра не 0, до 15 цифр
	PhonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

	whitespace = regexp.MustCompile(`\s+`)
)

const (
	// MinNameLen минимальная длина имени/фамилии контакта
	MinNameLen = 2
	// MaxNameLen максимальная длина имени/фамилии контакта
	MaxNameLen = 50
	// MaxContactEmailLen максимальная длина email контакта
	MaxContactEmailLen = 100
)

// NormalizeName убирает пробелы по краям имени
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// NormalizePhone удаляет все пробельные символы из номера
func NormalizePhone(phone string) string {
	return whitespace.ReplaceAllString(phone, "")
}

// ValidateName проверяет имя или фамилию контакта (уже нормализованные)
// field используется в тексте ошибки
func ValidateName(field, name string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}

	n := utf8.RuneCountInString(name)
	if n < MinNameLen {
		return fmt.Errorf("%s must be at least %d characters long", field, MinNameLen)
	}
	if n > MaxNameLen {
		return fmt.Errorf("%s must not exceed %d characters", field, MaxNameLen)
	}

	if !NamePattern.MatchString(name) {
		return fmt.Errorf("%s should only contain letters, spaces, hyphens, and apostrophes", field)
	}

	return nil
}

// ValidatePhone проверяет нормализованный номер телефона
func ValidatePhone(phone string) error {
	if phone == "" {
		return fmt.Errorf("phone number cannot be empty")
	}
	if !PhonePattern.MatchString(phone) {
		return fmt.Errorf("phone number must be a valid format")
	}
	return nil
}

// ValidateContactEmail проверяет необязательный email контакта
func ValidateContactEmail(email string) error {
	if email == "" {
		return nil
	}
	if len(email) > MaxContactEmailLen {
		return fmt.Errorf("email must not exceed %d characters", MaxContactEmailLen)
	}
	return ValidateEmail(email)
}
