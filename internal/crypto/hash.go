package crypto

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash indicates that a stored digest cannot be parsed.
var ErrMalformedHash = errors.New("malformed hash")

// Hasher produces salted one-way Argon2id digests encoded as PHC strings:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
//
// It is used both for user passwords and for refresh tokens at rest.
type Hasher struct {
	params Params
}

// NewHasher создает hasher с заданными параметрами
func NewHasher(params Params) (*Hasher, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid argon2 params: %w", err)
	}
	return &Hasher{params: params}, nil
}

// Hash хеширует plaintext со случайной солью, включая пустую строку.
// Два вызова с одинаковым входом дают разные digest.
// Ошибка возможна только при отказе источника случайности.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt, err := GenerateSalt(h.params.SaltLen)
	if err != nil {
		return "", err
	}

	key := deriveKey([]byte(plaintext), salt, h.params)

	return encodeHash(h.params, salt, key), nil
}

// Verify reports whether plaintext produced digest.
// Malformed digests yield false. Parameters are taken from the digest itself,
// so digests produced with older params keep verifying.
func (h *Hasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}

	params, salt, key, err := decodeHash(digest)
	if err != nil {
		return false
	}

	computed := deriveKey([]byte(plaintext), salt, params)

	return subtle.ConstantTimeCompare(computed, key) == 1
}

func encodeHash(p Params, salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

// decodeHash разбирает PHC строку, созданную encodeHash
func decodeHash(digest string) (Params, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Params{}, nil, nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return Params{}, nil, nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedHash, version)
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return Params{}, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, ErrMalformedHash
	}

	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))

	// Не даем подделанному digest заставить нас считать argon2 с нулевыми/огромными параметрами
	if err := p.Validate(); err != nil {
		return Params{}, nil, nil, ErrMalformedHash
	}
	if p.Memory > maxMemory || p.Time > maxTime {
		return Params{}, nil, nil, ErrMalformedHash
	}

	return p, salt, key, nil
}

const (
	maxMemory = 1024 * 1024 // 1 GiB
	maxTime   = 64
)
