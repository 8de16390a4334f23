package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/contactkeeper/internal/server/session"
	"github.com/iudanet/contactkeeper/internal/validation"
	"github.com/iudanet/contactkeeper/pkg/api"
)

// SessionManager описывает операции жизненного цикла сессии
type SessionManager interface {
	Register(ctx context.Context, username, email, password string) (*session.RegisterResult, error)
	Login(ctx context.Context, usernameOrEmail, password string) (*session.TokenPair, error)
	Refresh(ctx context.Context, userID, refreshToken string) (*session.TokenPair, error)
	Logout(ctx context.Context, userID string) error
}

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	responder
	sessions SessionManager
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, sessions SessionManager) *AuthHandler {
	return &AuthHandler{
		responder: responder{logger: logger},
		sessions:  sessions,
	}
}

// Register обрабатывает POST /api/v1/auth/register
// Регистрация нового пользователя
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Парсим request body
	var req api.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	// Валидация
	if err := validation.ValidateUsername(req.Username); err != nil {
		h.logger.WarnContext(ctx, "invalid username", slog.String("username", req.Username), slog.Any("error", err))
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.sessions.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrDuplicateIdentity) {
			h.sendError(w, duplicateMessage(err), http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to register user", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.RegisterResponse{
		AccessToken: result.AccessToken,
		Message:     result.Message,
	}

	h.sendJSON(w, resp, http.StatusCreated)
}

// Login обрабатывает POST /api/v1/auth/login
// Аутентификация по username или email
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.UsernameOrEmail = strings.TrimSpace(req.UsernameOrEmail)

	if err := validation.ValidateLogin(req.UsernameOrEmail); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Password == "" {
		h.sendError(w, "password cannot be empty", http.StatusBadRequest)
		return
	}

	pair, err := h.sessions.Login(ctx, req.UsernameOrEmail, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			h.sendError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to login", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, tokenResponse(pair), http.StatusOK)
}

// Refresh обрабатывает POST /api/v1/auth/refresh
// Ротация пары токенов; refresh token проверен RefreshMiddleware
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	refreshToken, ok := GetRefreshToken(ctx)
	if !ok {
		h.sendError(w, "refresh token is required", http.StatusUnauthorized)
		return
	}

	pair, err := h.sessions.Refresh(ctx, userID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrAccessDenied) {
			h.sendError(w, "access denied", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to refresh tokens", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, tokenResponse(pair), http.StatusOK)
}

// Logout обрабатывает POST /api/v1/auth/logout
// Выход пользователя: единственный refresh token становится недействительным
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.sessions.Logout(ctx, userID); err != nil {
		h.logger.ErrorContext(ctx, "failed to logout", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, api.MessageResponse{Message: session.MsgLoggedOut}, http.StatusOK)
}

func tokenResponse(pair *session.TokenPair) api.TokenResponse {
	return api.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Message:      pair.Message,
		ExpiresIn:    int64(pair.ExpiresIn.Seconds()),
	}
}

// duplicateMessage сообщает, что именно занято
func duplicateMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrUsernameTaken):
		return "Username already exists"
	case errors.Is(err, session.ErrEmailTaken):
		return "Email already in use"
	default:
		return "Username or email already taken"
	}
}
