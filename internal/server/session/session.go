// Package session implements the credential and session-token lifecycle:
// registration, login, refresh-token rotation and logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/contactkeeper/internal/models"
	"github.com/iudanet/contactkeeper/internal/server/jwt"
	"github.com/iudanet/contactkeeper/internal/server/storage"
)

var (
	// ErrDuplicateIdentity username или email уже заняты
	ErrDuplicateIdentity = errors.New("duplicate identity")

	// ErrInvalidCredentials неизвестный пользователь или неверный пароль
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccessDenied refresh token не принят
	ErrAccessDenied = errors.New("access denied")

	// ErrUsernameTaken и ErrEmailTaken уточняют ErrDuplicateIdentity
	ErrUsernameTaken = fmt.Errorf("%w: username already exists", ErrDuplicateIdentity)
	ErrEmailTaken    = fmt.Errorf("%w: email already in use", ErrDuplicateIdentity)
)

// Messages returned to clients on success
const (
	MsgRegistered = "User created successfully"
	MsgLoggedIn   = "User logged in successfully"
	MsgRefreshed  = "Tokens refreshed successfully"
	MsgLoggedOut  = "User logged out successfully"
)

// Hasher hashes passwords and refresh tokens at rest
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer issues and verifies signed tokens
type TokenIssuer interface {
	IssueAccess(c jwt.Claims) (string, error)
	IssueRefresh(c jwt.Claims) (string, error)
	Verify(token string, kind jwt.Kind) (*jwt.Claims, error)
	AccessTokenTTL() time.Duration
}

// RegisterResult is returned by Register; registration does not start a session
type RegisterResult struct {
	AccessToken string
	Message     string
}

// TokenPair is returned by Login and Refresh
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Message      string
	ExpiresIn    time.Duration // время жизни access token
}

// Service orchestrates users, password hashing and token signing
type Service struct {
	logger    *slog.Logger
	users     storage.UserStorage
	hasher    Hasher
	tokens    TokenIssuer
	now       func() time.Time
	dummyHash string // для выравнивания времени ответа на неизвестного пользователя
}

// NewService creates a session service
func NewService(logger *slog.Logger, users storage.UserStorage, hasher Hasher, tokens TokenIssuer) (*Service, error) {
	dummyHash, err := hasher.Hash("contactkeeper-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &Service{
		logger:    logger,
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		now:       time.Now,
		dummyHash: dummyHash,
	}, nil
}

// Register creates a new user and returns an access token.
// Username is checked before email; no refresh token is issued.
func (s *Service) Register(ctx context.Context, username, email, password string) (*RegisterResult, error) {
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		s.logger.WarnContext(ctx, "registration rejected: username taken", slog.String("username", username))
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		s.logger.WarnContext(ctx, "registration rejected: email taken", slog.String("username", username))
		return nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		// Гонка двух регистраций: проверки выше прошли у обеих
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			return nil, fmt.Errorf("%w: %w", ErrDuplicateIdentity, err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	accessToken, err := s.tokens.IssueAccess(claimsOf(user))
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	return &RegisterResult{
		AccessToken: accessToken,
		Message:     MsgRegistered,
	}, nil
}

// Login authenticates by username or email and starts a new session,
// replacing any previous one.
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) (*TokenPair, error) {
	user, err := s.users.GetUserByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			s.logger.WarnContext(ctx, "login failed: user not found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.WarnContext(ctx, "login failed: wrong password", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	pair, refreshHash, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateUser(ctx, user.ID, storage.SetRefreshTokenHash(refreshHash)); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	pair.Message = MsgLoggedIn
	return pair, nil
}

// Refresh rotates the session: the presented refresh token must be the
// newest one issued to userID. On success the old token stops working.
func (s *Service) Refresh(ctx context.Context, userID, refreshToken string) (*TokenPair, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, s.deny(ctx, userID, "user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasSession() {
		return nil, s.deny(ctx, userID, "no active session")
	}

	claims, err := s.tokens.Verify(refreshToken, jwt.RefreshToken)
	if err != nil {
		return nil, s.deny(ctx, userID, err.Error())
	}
	if claims.Subject != user.ID {
		return nil, s.deny(ctx, userID, "token subject mismatch")
	}

	if !s.hasher.Verify(refreshToken, user.RefreshTokenHash) {
		return nil, s.deny(ctx, userID, "refresh token is not current")
	}

	pair, refreshHash, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	// CAS: параллельный Refresh тем же токеном должен проиграть
	err = s.users.UpdateUser(ctx, user.ID, storage.SwapRefreshTokenHash(user.RefreshTokenHash, refreshHash))
	if err != nil {
		if errors.Is(err, storage.ErrConflict) || errors.Is(err, storage.ErrUserNotFound) {
			return nil, s.deny(ctx, userID, "lost concurrent rotation")
		}
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "tokens refreshed", slog.String("user_id", user.ID))

	pair.Message = MsgRefreshed
	return pair, nil
}

// Logout ends the session of userID. Unknown users are not an error.
func (s *Service) Logout(ctx context.Context, userID string) error {
	err := s.users.UpdateUser(ctx, userID, storage.ClearRefreshTokenHash())
	if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out", slog.String("user_id", userID))
	return nil
}

func (s *Service) issuePair(user *models.User) (*TokenPair, string, error) {
	claims := claimsOf(user)

	accessToken, err := s.tokens.IssueAccess(claims)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.tokens.IssueRefresh(claims)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue refresh token: %w", err)
	}

	refreshHash, err := s.hasher.Hash(refreshToken)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.tokens.AccessTokenTTL(),
	}, refreshHash, nil
}

func (s *Service) deny(ctx context.Context, userID, reason string) error {
	s.logger.WarnContext(ctx, "refresh denied",
		slog.String("user_id", userID),
		slog.String("reason", reason))
	return ErrAccessDenied
}

func claimsOf(user *models.User) jwt.Claims {
	return jwt.Claims{Subject: user.ID, Username: user.Username}
}
