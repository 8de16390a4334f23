package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Ошибки проверки токена
var (
	// ErrInvalidToken indicates a malformed, tampered, or wrong-kind token
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates a correctly signed token past its exp
	ErrTokenExpired = errors.New("token expired")
)

// DefaultIssuer is written into the iss claim of every token.
const DefaultIssuer = "contactkeeper"

// Kind отличает access token от refresh token
type Kind int

const (
	// AccessToken - короткоживущий токен для запросов к API
	AccessToken Kind = iota
	// RefreshToken - долгоживущий токен, используемый только для ротации пары
	RefreshToken
)

// String returns the value stored in the typ claim.
func (k Kind) String() string {
	switch k {
	case AccessToken:
		return "access"
	case RefreshToken:
		return "refresh"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Claims - минимальный набор данных о пользователе внутри токена
type Claims struct {
	Subject  string // user ID
	Username string
}

// tokenClaims представляет JWT claims на проводе
type tokenClaims struct {
	Username string `json:"username"`
	Type     string `json:"typ"`
	gojwt.RegisteredClaims
}

// Config содержит конфигурацию для JWT
type Config struct {
	AccessSecret    []byte
	RefreshSecret   []byte
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type signingKey struct {
	secret []byte
	ttl    time.Duration
}

// Service issues and verifies access and refresh tokens.
// Each kind has its own secret and TTL, so a token of one kind never
// verifies as the other.
type Service struct {
	now    func() time.Time
	keys   map[Kind]signingKey
	issuer string
}

// NewService creates a new JWT service
func NewService(cfg Config) (*Service, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, fmt.Errorf("access and refresh secrets are required")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}

	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}

	return &Service{
		keys: map[Kind]signingKey{
			AccessToken:  {secret: cfg.AccessSecret, ttl: cfg.AccessTokenTTL},
			RefreshToken: {secret: cfg.RefreshSecret, ttl: cfg.RefreshTokenTTL},
		},
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// AccessTokenTTL returns the lifetime of access tokens.
func (s *Service) AccessTokenTTL() time.Duration {
	return s.keys[AccessToken].ttl
}

// IssueAccess creates a new access token
func (s *Service) IssueAccess(c Claims) (string, error) {
	return s.issue(c, AccessToken)
}

// IssueRefresh creates a new refresh token
func (s *Service) IssueRefresh(c Claims) (string, error) {
	return s.issue(c, RefreshToken)
}

func (s *Service) issue(c Claims, kind Kind) (string, error) {
	if c.Subject == "" {
		return "", fmt.Errorf("subject is required")
	}

	ks := s.keys[kind]
	now := s.now()

	// jti делает токены, выпущенные в одну секунду, различными
	claims := tokenClaims{
		Username: c.Username,
		Type:     kind.String(),
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   c.Subject,
			Issuer:    s.issuer,
			ExpiresAt: gojwt.NewNumericDate(now.Add(ks.ttl)),
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ks.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return signed, nil
}

// Verify валидирует и парсит токен заданного вида.
// Возвращает ErrTokenExpired для истекших токенов и ErrInvalidToken для всего остального.
func (s *Service) Verify(token string, kind Kind) (*Claims, error) {
	ks, ok := s.keys[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %s", ErrInvalidToken, kind)
	}

	parser := gojwt.NewParser(
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithIssuer(s.issuer),
		gojwt.WithTimeFunc(s.now),
	)

	claims := &tokenClaims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *gojwt.Token) (interface{}, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ks.secret, nil
	})
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Type != kind.String() {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, kind, claims.Type)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Claims{Subject: claims.Subject, Username: claims.Username}, nil
}
