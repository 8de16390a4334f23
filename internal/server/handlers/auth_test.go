package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/contactkeeper/internal/server/session"
	"github.com/iudanet/contactkeeper/pkg/api"
)

// mockSessionManager is a mock implementation of SessionManager for testing
type mockSessionManager struct {
	registerFunc func(ctx context.Context, username, email, password string) (*session.RegisterResult, error)
	loginFunc    func(ctx context.Context, usernameOrEmail, password string) (*session.TokenPair, error)
	refreshFunc  func(ctx context.Context, userID, refreshToken string) (*session.TokenPair, error)
	logoutFunc   func(ctx context.Context, userID string) error
}

func (m *mockSessionManager) Register(ctx context.Context, username, email, password string) (*session.RegisterResult, error) {
	if m.registerFunc == nil {
		panic("unexpected Register call")
	}
	return m.registerFunc(ctx, username, email, password)
}

func (m *mockSessionManager) Login(ctx context.Context, usernameOrEmail, password string) (*session.TokenPair, error) {
	if m.loginFunc == nil {
		panic("unexpected Login call")
	}
	return m.loginFunc(ctx, usernameOrEmail, password)
}

func (m *mockSessionManager) Refresh(ctx context.Context, userID, refreshToken string) (*session.TokenPair, error) {
	if m.refreshFunc == nil {
		panic("unexpected Refresh call")
	}
	return m.refreshFunc(ctx, userID, refreshToken)
}

func (m *mockSessionManager) Logout(ctx context.Context, userID string) error {
	if m.logoutFunc == nil {
		panic("unexpected Logout call")
	}
	return m.logoutFunc(ctx, userID)
}

func testPair(msg string) *session.TokenPair {
	return &session.TokenPair{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		Message:      msg,
		ExpiresIn:    15 * time.Minute,
	}
}

func TestAuthHandler_Register(t *testing.T) {
	okRegister := func(_ context.Context, username, email, password string) (*session.RegisterResult, error) {
		return &session.RegisterResult{AccessToken: "access-token", Message: session.MsgRegistered}, nil
	}

	tests := []struct {
		body        any
		register    func(ctx context.Context, username, email, password string) (*session.RegisterResult, error)
		name        string
		wantMessage string
		wantStatus  int
	}{
		{
			name:       "successful registration",
			body:       api.RegisterRequest{Username: "alice", Email: "a@x.com", Password: "secret1"},
			register:   okRegister,
			wantStatus: http.StatusCreated,
		},
		{
			name: "trims username and email",
			body: api.RegisterRequest{Username: "  alice ", Email: " a@x.com ", Password: "secret1"},
			register: func(_ context.Context, username, email, _ string) (*session.RegisterResult, error) {
				if username != "alice" || email != "a@x.com" {
					return nil, fmt.Errorf("unexpected input %q %q", username, email)
				}
				return okRegister(context.Background(), username, email, "")
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid json",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"username":"alice","email":"a@x.com","password":"secret1","admin":true}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "username too short",
			body:       api.RegisterRequest{Username: "abc", Email: "a@x.com", Password: "secret1"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid email",
			body:       api.RegisterRequest{Username: "alice", Email: "not-an-email", Password: "secret1"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "password too short",
			body:       api.RegisterRequest{Username: "alice", Email: "a@x.com", Password: "12345"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "username taken",
			body: api.RegisterRequest{Username: "alice", Email: "a@x.com", Password: "secret1"},
			register: func(context.Context, string, string, string) (*session.RegisterResult, error) {
				return nil, session.ErrUsernameTaken
			},
			wantStatus:  http.StatusConflict,
			wantMessage: "Username already exists",
		},
		{
			name: "email taken",
			body: api.RegisterRequest{Username: "alice", Email: "a@x.com", Password: "secret1"},
			register: func(context.Context, string, string, string) (*session.RegisterResult, error) {
				return nil, session.ErrEmailTaken
			},
			wantStatus:  http.StatusConflict,
			wantMessage: "Email already in use",
		},
		{
			name: "internal error is not leaked",
			body: api.RegisterRequest{Username: "alice", Email: "a@x.com", Password: "secret1"},
			register: func(context.Context, string, string, string) (*session.RegisterResult, error) {
				return nil, errors.New("pq: relation users does not exist")
			},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAuthHandler(setupTestLogger(), &mockSessionManager{registerFunc: tt.register})

			w := httptest.NewRecorder()
			handler.Register(w, newJSONRequest(t, http.MethodPost, "/api/v1/auth/register", tt.body))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			if tt.wantStatus == http.StatusCreated {
				resp := decodeBody[api.RegisterResponse](t, w)
				assert.Equal(t, "access-token", resp.AccessToken)
				assert.Equal(t, session.MsgRegistered, resp.Message)
				return
			}

			resp := decodeBody[api.ErrorResponse](t, w)
			assert.Equal(t, http.StatusText(tt.wantStatus), resp.Error)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, resp.Message)
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		body       any
		login      func(ctx context.Context, usernameOrEmail, password string) (*session.TokenPair, error)
		name       string
		wantStatus int
	}{
		{
			name: "successful login by email",
			body: api.LoginRequest{UsernameOrEmail: "a@x.com", Password: "secret1"},
			login: func(_ context.Context, login, password string) (*session.TokenPair, error) {
				if login != "a@x.com" || password != "secret1" {
					return nil, session.ErrInvalidCredentials
				}
				return testPair(session.MsgLoggedIn), nil
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "invalid credentials",
			body: api.LoginRequest{UsernameOrEmail: "alice", Password: "wrong"},
			login: func(context.Context, string, string) (*session.TokenPair, error) {
				return nil, session.ErrInvalidCredentials
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty login",
			body:       api.LoginRequest{UsernameOrEmail: "  ", Password: "secret1"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty password",
			body:       api.LoginRequest{UsernameOrEmail: "alice"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			body:       `{"username_or_email": 1}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "trailing garbage",
			body:       `{"username_or_email":"alice","password":"secret1"} {}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "storage failure",
			body: api.LoginRequest{UsernameOrEmail: "alice", Password: "secret1"},
			login: func(context.Context, string, string) (*session.TokenPair, error) {
				return nil, errors.New("db down")
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAuthHandler(setupTestLogger(), &mockSessionManager{loginFunc: tt.login})

			w := httptest.NewRecorder()
			handler.Login(w, newJSONRequest(t, http.MethodPost, "/api/v1/auth/login", tt.body))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			resp := decodeBody[api.TokenResponse](t, w)
			assert.Equal(t, "access-token", resp.AccessToken)
			assert.Equal(t, "refresh-token", resp.RefreshToken)
			assert.Equal(t, int64(900), resp.ExpiresIn)
			assert.Equal(t, session.MsgLoggedIn, resp.Message)
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	withRefresh := func(req *http.Request, userID, token string) *http.Request {
		req = withIdentity(req, userID, "alice")
		return req.WithContext(context.WithValue(req.Context(), RefreshTokenKey, token))
	}

	tests := []struct {
		refresh    func(ctx context.Context, userID, refreshToken string) (*session.TokenPair, error)
		prepare    func(req *http.Request) *http.Request
		name       string
		wantStatus int
	}{
		{
			name:    "successful rotation",
			prepare: func(req *http.Request) *http.Request { return withRefresh(req, "user-1", "old-refresh") },
			refresh: func(_ context.Context, userID, token string) (*session.TokenPair, error) {
				if userID != "user-1" || token != "old-refresh" {
					return nil, session.ErrAccessDenied
				}
				return testPair(session.MsgRefreshed), nil
			},
			wantStatus: http.StatusOK,
		},
		{
			name:    "access denied",
			prepare: func(req *http.Request) *http.Request { return withRefresh(req, "user-1", "stale") },
			refresh: func(context.Context, string, string) (*session.TokenPair, error) {
				return nil, session.ErrAccessDenied
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no identity in context",
			prepare:    func(req *http.Request) *http.Request { return req },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no refresh token in context",
			prepare:    func(req *http.Request) *http.Request { return withIdentity(req, "user-1", "alice") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:    "internal error",
			prepare: func(req *http.Request) *http.Request { return withRefresh(req, "user-1", "tok") },
			refresh: func(context.Context, string, string) (*session.TokenPair, error) {
				return nil, errors.New("db down")
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAuthHandler(setupTestLogger(), &mockSessionManager{refreshFunc: tt.refresh})

			req := tt.prepare(httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil))
			w := httptest.NewRecorder()
			handler.Refresh(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				resp := decodeBody[api.TokenResponse](t, w)
				assert.Equal(t, "refresh-token", resp.RefreshToken)
				assert.Equal(t, session.MsgRefreshed, resp.Message)
			}
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("successful logout", func(t *testing.T) {
		var loggedOut string
		handler := NewAuthHandler(setupTestLogger(), &mockSessionManager{
			logoutFunc: func(_ context.Context, userID string) error {
				loggedOut = userID
				return nil
			},
		})

		req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), "user-1", "alice")
		w := httptest.NewRecorder()
		handler.Logout(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-1", loggedOut)
		resp := decodeBody[api.MessageResponse](t, w)
		assert.Equal(t, session.MsgLoggedOut, resp.Message)
	})

	t.Run("no identity", func(t *testing.T) {
		handler := NewAuthHandler(setupTestLogger(), &mockSessionManager{})

		w := httptest.NewRecorder()
		handler.Logout(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		handler := NewAuthHandler(setupTestLogger(), &mockSessionManager{
			logoutFunc: func(context.Context, string) error { return errors.New("db down") },
		})

		req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), "user-1", "alice")
		w := httptest.NewRecorder()
		handler.Logout(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.False(t, strings.Contains(w.Body.String(), "db down"))
	})
}
