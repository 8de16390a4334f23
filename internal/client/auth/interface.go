package auth

import (
	"context"

	"github.com/iudanet/contactkeeper/pkg/api"
)

// APIClient описывает эндпоинты сервера, нужные для управления сессией.
// Реализуется *api.Client из internal/client/api.
type APIClient interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error)
	Logout(ctx context.Context, accessToken string) error
}
