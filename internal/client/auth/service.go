// Package auth manages the client side of a session: it talks to the
// server's auth endpoints and keeps the issued tokens in local storage.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	clientapi "github.com/iudanet/contactkeeper/internal/client/api"
	"github.com/iudanet/contactkeeper/internal/client/storage"
	"github.com/iudanet/contactkeeper/internal/validation"
	"github.com/iudanet/contactkeeper/pkg/api"
)

var (
	// ErrNotAuthenticated локальная сессия отсутствует
	ErrNotAuthenticated = errors.New("not authenticated, please run 'contactkeeper login' first")

	// ErrSessionExpired access token истёк, а обновить его нечем
	ErrSessionExpired = errors.New("session expired, please run 'contactkeeper login' again")
)

// Service предоставляет функции авторизации
type Service struct {
	apiClient APIClient
	store     storage.AuthStorage
	logger    *slog.Logger
	now       func() time.Time
}

// NewService создает новый сервис авторизации
func NewService(logger *slog.Logger, apiClient APIClient, store storage.AuthStorage) *Service {
	return &Service{
		apiClient: apiClient,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// Register регистрирует нового пользователя и сохраняет выданный access token.
// Refresh token при регистрации не выдаётся.
func (s *Service) Register(ctx context.Context, username, email, password string) (*storage.AuthData, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.apiClient.Register(ctx, api.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	session := s.newSession(resp.AccessToken, "", 0)
	if session.Username == "" {
		session.Username = username
	}

	if err := s.store.SaveAuth(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// Login выполняет аутентификацию и сохраняет пару токенов
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) (*storage.AuthData, error) {
	usernameOrEmail = strings.TrimSpace(usernameOrEmail)

	if err := validation.ValidateLogin(usernameOrEmail); err != nil {
		return nil, fmt.Errorf("invalid login: %w", err)
	}
	if password == "" {
		return nil, errors.New("password is required")
	}

	resp, err := s.apiClient.Login(ctx, api.LoginRequest{
		UsernameOrEmail: usernameOrEmail,
		Password:        password,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	session := s.newSession(resp.AccessToken, resp.RefreshToken, resp.ExpiresIn)
	if session.Username == "" {
		session.Username = usernameOrEmail
	}

	if err := s.store.SaveAuth(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// Refresh обменивает сохранённый refresh token на новую пару.
// Если сервер отклонил токен, локальная сессия удаляется.
func (s *Service) Refresh(ctx context.Context) (*storage.AuthData, error) {
	current, err := s.Status(ctx)
	if err != nil {
		return nil, err
	}
	if !current.CanRefresh() {
		return nil, ErrSessionExpired
	}

	resp, err := s.apiClient.Refresh(ctx, current.RefreshToken)
	if err != nil {
		if errors.Is(err, clientapi.ErrUnauthorized) {
			s.logger.WarnContext(ctx, "refresh token rejected, dropping local session", slog.Any("error", err))
			if delErr := s.store.DeleteAuth(ctx); delErr != nil && !errors.Is(delErr, storage.ErrAuthNotFound) {
				s.logger.WarnContext(ctx, "failed to delete local session", slog.Any("error", delErr))
			}
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("refresh failed: %w", err)
	}

	session := s.newSession(resp.AccessToken, resp.RefreshToken, resp.ExpiresIn)
	if session.Username == "" {
		session.Username = current.Username
	}

	if err := s.store.SaveAuth(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// AccessToken возвращает действующий access token, при необходимости обновляя пару
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	current, err := s.Status(ctx)
	if err != nil {
		return "", err
	}

	if !current.AccessExpired(s.now()) {
		return current.AccessToken, nil
	}

	s.logger.DebugContext(ctx, "access token expired, refreshing")
	refreshed, err := s.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// Status возвращает сохранённую сессию
func (s *Service) Status(ctx context.Context) (*storage.AuthData, error) {
	session, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// Logout выполняет выход из системы
// Удаляет локальные данные авторизации и по возможности уведомляет сервер
func (s *Service) Logout(ctx context.Context) error {
	session, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return ErrNotAuthenticated
		}
		return fmt.Errorf("failed to get session: %w", err)
	}

	// Сервер очищает refresh hash только по живому access token,
	// поэтому истёкший сначала обновляем
	token, err := s.AccessToken(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "could not refresh before logout", slog.Any("error", err))
		token = session.AccessToken
	}

	// Ошибка сервера не мешает выйти локально
	if token != "" {
		if logoutErr := s.apiClient.Logout(ctx, token); logoutErr != nil {
			s.logger.WarnContext(ctx, "failed to logout on server", slog.Any("error", logoutErr))
		}
	}

	// Refresh с ответом 401 уже мог удалить сессию
	if err := s.store.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete local session: %w", err)
	}

	return nil
}

// tokenClaims часть claims, которую клиент читает из access token
type tokenClaims struct {
	Username string `json:"username"`
	gojwt.RegisteredClaims
}

// newSession строит AuthData из ответа сервера.
// Подпись не проверяется: клиент не знает секрета, ему нужны только sub, username и exp.
func (s *Service) newSession(accessToken, refreshToken string, expiresIn int64) *storage.AuthData {
	session := &storage.AuthData{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}

	var claims tokenClaims
	if _, _, err := gojwt.NewParser().ParseUnverified(accessToken, &claims); err == nil {
		session.UserID = claims.Subject
		session.Username = claims.Username
		if claims.ExpiresAt != nil {
			session.ExpiresAt = claims.ExpiresAt.Unix()
		}
	} else {
		s.logger.Debug("cannot decode access token claims", slog.Any("error", err))
	}

	if session.ExpiresAt == 0 && expiresIn > 0 {
		session.ExpiresAt = s.now().Add(time.Duration(expiresIn) * time.Second).Unix()
	}

	return session
}
