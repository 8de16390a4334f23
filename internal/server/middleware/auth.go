package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/contactkeeper/internal/server/handlers"
	"github.com/iudanet/contactkeeper/internal/server/jwt"
	"github.com/iudanet/contactkeeper/pkg/api"
)

// TokenVerifier проверяет подписанные токены
type TokenVerifier interface {
	Verify(token string, kind jwt.Kind) (*jwt.Claims, error)
}

// AuthMiddleware создает middleware для проверки access token
// Хранилище не используется: достаточно подписи и срока действия
func AuthMiddleware(logger *slog.Logger, verifier TokenVerifier) func(http.Handler) http.Handler {
	return bearerMiddleware(logger, verifier, jwt.AccessToken)
}

// RefreshMiddleware создает middleware для эндпоинта ротации:
// проверяет bearer как refresh token и кладёт его в контекст под handlers.RefreshTokenKey
func RefreshMiddleware(logger *slog.Logger, verifier TokenVerifier) func(http.Handler) http.Handler {
	return bearerMiddleware(logger, verifier, jwt.RefreshToken)
}

func bearerMiddleware(logger *slog.Logger, verifier TokenVerifier, kind jwt.Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenString, err := bearerToken(r)
			if err != nil {
				logger.WarnContext(ctx, "rejected request", slog.String("reason", err.Error()))
				unauthorized(w, err.Error())
				return
			}

			// Валидируем токен
			claims, err := verifier.Verify(tokenString, kind)
			if err != nil {
				// Клиент получает один ответ; причина только в логе
				logger.WarnContext(ctx, "invalid token",
					slog.String("kind", kind.String()),
					slog.Bool("expired", errors.Is(err, jwt.ErrTokenExpired)),
					slog.Any("error", err))
				unauthorized(w, "invalid token")
				return
			}

			// Добавляем данные из токена в контекст
			ctx = context.WithValue(ctx, handlers.UserIDKey, claims.Subject)
			ctx = context.WithValue(ctx, handlers.UsernameKey, claims.Username)
			if kind == jwt.RefreshToken {
				ctx = context.WithValue(ctx, handlers.RefreshTokenKey, tokenString)
			}

			logger.DebugContext(ctx, "user authenticated",
				slog.String("user_id", claims.Subject),
				slog.String("kind", kind.String()))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken извлекает токен из "Authorization: Bearer <token>"
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("missing token")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid token format")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("missing token")
	}

	return token, nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="contactkeeper"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Error:   http.StatusText(http.StatusUnauthorized),
		Message: message,
	})
}
