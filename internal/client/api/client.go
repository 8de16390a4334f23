package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iudanet/contactkeeper/pkg/api"
)

// ErrUnauthorized сервер отклонил токен или учётные данные (HTTP 401)
var ErrUnauthorized = errors.New("unauthorized")

// StatusError ошибка с HTTP статусом от сервера
type StatusError struct {
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Is позволяет errors.Is(err, ErrUnauthorized) для ответов 401
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh обменивает refresh token на новую пару токенов
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/refresh", refreshToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// Logout завершает сессию на сервере
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/logout", accessToken, nil, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// CreateContact создает контакт
func (c *Client) CreateContact(ctx context.Context, accessToken string, req api.CreateContactRequest) (*api.Contact, error) {
	var resp api.ContactResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/contacts", accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("create contact request failed: %w", err)
	}
	return &resp.Contact, nil
}

// ListContacts возвращает контакты текущего пользователя
func (c *Client) ListContacts(ctx context.Context, accessToken string) ([]api.Contact, error) {
	var resp api.ContactListResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/contacts", accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("list contacts request failed: %w", err)
	}
	return resp.Contacts, nil
}

// GetContact возвращает контакт по ID
func (c *Client) GetContact(ctx context.Context, accessToken, id string) (*api.Contact, error) {
	var resp api.ContactResponse
	if err := c.doRequest(ctx, http.MethodGet, contactPath(id), accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("get contact request failed: %w", err)
	}
	return &resp.Contact, nil
}

// UpdateContact частично обновляет контакт
func (c *Client) UpdateContact(ctx context.Context, accessToken, id string, req api.UpdateContactRequest) (*api.Contact, error) {
	var resp api.ContactResponse
	if err := c.doRequest(ctx, http.MethodPatch, contactPath(id), accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("update contact request failed: %w", err)
	}
	return &resp.Contact, nil
}

// DeleteContact удаляет контакт
func (c *Client) DeleteContact(ctx context.Context, accessToken, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, contactPath(id), accessToken, nil, nil); err != nil {
		return fmt.Errorf("delete contact request failed: %w", err)
	}
	return nil
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", "", nil, &resp); err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	return &resp, nil
}

func contactPath(id string) string {
	return "/api/v1/contacts/" + url.PathEscape(id)
}

// doRequest выполняет HTTP запрос; token добавляется как Bearer, если не пустой
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			statusErr.Message = errResp.Message
			if statusErr.Message == "" {
				statusErr.Message = errResp.Error
			}
		}
		return statusErr
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
