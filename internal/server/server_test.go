package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/contactkeeper/internal/crypto"
	"github.com/iudanet/contactkeeper/internal/server/config"
	"github.com/iudanet/contactkeeper/internal/server/storage/sqlite"
	"github.com/iudanet/contactkeeper/pkg/api"
)

// fastParams keeps argon2 cheap in tests
var fastParams = crypto.Params{Time: 1, Memory: 64, Threads: 1, SaltLen: 16, KeyLen: 32}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Address = "127.0.0.1:0"
	cfg.DatabaseDSN = ":memory:"
	cfg.AccessSecret = "test-access-secret"
	cfg.RefreshSecret = "test-refresh-secret"
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := newServer(testConfig(), logger, store, fastParams, "test")
	require.NoError(t, err)

	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestServer_SessionLifecycle(t *testing.T) {
	h := setupTestServer(t).Handler()

	// Регистрация выдаёт только access token
	w := do(t, h, http.MethodPost, "/api/v1/auth/register", "", api.RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decode[api.RegisterResponse](t, w)
	assert.NotEmpty(t, reg.AccessToken)
	assert.Equal(t, "User created successfully", reg.Message)

	// До логина refresh невозможен
	w = do(t, h, http.MethodPost, "/api/v1/auth/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/auth/register", "", api.RegisterRequest{
		Username: "alice", Email: "other@example.com", Password: "secret1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/auth/login", "", api.LoginRequest{
		UsernameOrEmail: "alice@example.com", Password: "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/auth/login", "", api.LoginRequest{
		UsernameOrEmail: "alice@example.com", Password: "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[api.TokenResponse](t, w)
	require.NotEmpty(t, login.RefreshToken)
	assert.Equal(t, int64((15 * time.Minute).Seconds()), login.ExpiresIn)

	// Access token не принимается вместо refresh
	w = do(t, h, http.MethodPost, "/api/v1/auth/refresh", login.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/auth/refresh", login.RefreshToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rotated := decode[api.TokenResponse](t, w)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// Старый refresh token после ротации отклоняется
	w = do(t, h, http.MethodPost, "/api/v1/auth/refresh", login.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/auth/logout", rotated.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/auth/refresh", rotated.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Access token остаётся действительным до истечения срока
	w = do(t, h, http.MethodGet, "/api/v1/contacts", rotated.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_Contacts(t *testing.T) {
	h := setupTestServer(t).Handler()

	register := func(username string) string {
		w := do(t, h, http.MethodPost, "/api/v1/auth/register", "", api.RegisterRequest{
			Username: username, Email: username + "@example.com", Password: "secret1",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return decode[api.RegisterResponse](t, w).AccessToken
	}
	aliceToken := register("alice")
	bobToken := register("bobby")

	w := do(t, h, http.MethodGet, "/api/v1/contacts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/contacts", aliceToken, api.CreateContactRequest{
		FirstName: "Carol", LastName: "Jones", PhoneNumber: "+15551234567",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[api.ContactResponse](t, w).Contact
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Carol Jones", created.FullName)

	w = do(t, h, http.MethodPost, "/api/v1/contacts", aliceToken, api.CreateContactRequest{
		FirstName: "Dave", LastName: "Jones", PhoneNumber: "+15551234567",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "duplicate phone for the same owner")

	// Чужой контакт не виден
	w = do(t, h, http.MethodGet, "/api/v1/contacts/"+created.ID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/contacts", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[api.ContactListResponse](t, w).Count)

	newName := "Caroline"
	w = do(t, h, http.MethodPatch, "/api/v1/contacts/"+created.ID, aliceToken, api.UpdateContactRequest{
		FirstName: &newName,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Caroline Jones", decode[api.ContactResponse](t, w).Contact.FullName)

	w = do(t, h, http.MethodGet, "/api/v1/contacts", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[api.ContactListResponse](t, w)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Caroline", list.Contacts[0].FirstName)

	w = do(t, h, http.MethodDelete, "/api/v1/contacts/"+created.ID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodDelete, "/api/v1/contacts/"+created.ID, aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/contacts/"+created.ID, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/contacts", bobToken, api.CreateContactRequest{
		FirstName: "Erin", LastName: "Stone", PhoneNumber: "+15550000001", Email: "erin@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/api/v1/contacts", bobToken, api.CreateContactRequest{
		FirstName: "Frank", LastName: "Stone", PhoneNumber: "+15550000002", Email: "erin@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "duplicate email for the same owner")
}

func TestServer_Health(t *testing.T) {
	h := setupTestServer(t).Handler()

	w := do(t, h, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[api.HealthResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	h := setupTestServer(t).Handler()

	w := do(t, h, http.MethodGet, "/api/v1/auth/login", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	srv := setupTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}

func TestOpenStorage_SQLite(t *testing.T) {
	store, err := OpenStorage(context.Background(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.PingContext(context.Background()))
}

func TestNewServer_InvalidConfig(t *testing.T) {
	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	cfg := testConfig()
	cfg.RefreshSecret = cfg.AccessSecret

	_, err = newServer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), store, fastParams, "test")
	assert.Error(t, err)
}
