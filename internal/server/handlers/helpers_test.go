package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newJSONRequest builds a request with a JSON body; body may be a string for raw payloads
func newJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(v))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withIdentity emulates AuthMiddleware
func withIdentity(req *http.Request, userID, username string) *http.Request {
	ctx := context.WithValue(req.Context(), UserIDKey, userID)
	ctx = context.WithValue(ctx, UsernameKey, username)
	return req.WithContext(ctx)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()

	_, ok := GetUserID(ctx)
	require.False(t, ok)
	_, ok = GetRefreshToken(ctx)
	require.False(t, ok)

	ctx = context.WithValue(ctx, UserIDKey, "")
	_, ok = GetUserID(ctx)
	require.False(t, ok, "empty user id is not an identity")

	ctx = context.WithValue(ctx, UserIDKey, "user-1")
	ctx = context.WithValue(ctx, UsernameKey, "alice")
	ctx = context.WithValue(ctx, RefreshTokenKey, "tok")

	userID, ok := GetUserID(ctx)
	require.True(t, ok)
	require.Equal(t, "user-1", userID)

	username, ok := GetUsername(ctx)
	require.True(t, ok)
	require.Equal(t, "alice", username)

	token, ok := GetRefreshToken(ctx)
	require.True(t, ok)
	require.Equal(t, "tok", token)
}
