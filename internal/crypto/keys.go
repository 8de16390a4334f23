package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id по умолчанию
const (
	// Argon2Time - количество итераций (time cost)
	Argon2Time = 1
	// Argon2Memory - объем памяти в KB (64MB = 64*1024 KB)
	Argon2Memory = 64 * 1024
	// Argon2Threads - количество параллельных потоков
	Argon2Threads = 4
	// Argon2KeyLen - длина выходного ключа в байтах
	Argon2KeyLen = 32
	// SaltSize - размер соли в байтах
	SaltSize = 16
)

// Params describes the Argon2id cost parameters used for a digest.
type Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultParams returns the production Argon2id parameters.
func DefaultParams() Params {
	return Params{
		Time:    Argon2Time,
		Memory:  Argon2Memory,
		Threads: Argon2Threads,
		SaltLen: SaltSize,
		KeyLen:  Argon2KeyLen,
	}
}

// Validate checks that params are usable for argon2.IDKey.
func (p Params) Validate() error {
	if p.Time == 0 {
		return fmt.Errorf("argon2 time must be positive")
	}
	if p.Threads == 0 {
		return fmt.Errorf("argon2 threads must be positive")
	}
	// argon2 требует минимум 8*threads KiB памяти
	if p.Memory < 8*uint32(p.Threads) {
		return fmt.Errorf("argon2 memory must be at least %d KiB", 8*uint32(p.Threads))
	}
	if p.SaltLen < 8 {
		return fmt.Errorf("salt must be at least 8 bytes, got %d", p.SaltLen)
	}
	if p.KeyLen < 16 {
		return fmt.Errorf("key must be at least 16 bytes, got %d", p.KeyLen)
	}
	return nil
}

// GenerateSalt генерирует криптографически случайную соль указанного размера
func GenerateSalt(size uint32) ([]byte, error) {
	salt := make([]byte, size)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// deriveKey вычисляет Argon2id ключ из секрета и соли
func deriveKey(secret, salt []byte, p Params) []byte {
	return argon2.IDKey(secret, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}
