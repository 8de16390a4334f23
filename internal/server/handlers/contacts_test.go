package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/contactkeeper/internal/models"
	"github.com/iudanet/contactkeeper/internal/server/storage"
	"github.com/iudanet/contactkeeper/pkg/api"
)

// mockContactStorage is an in-memory ContactStorage for testing
type mockContactStorage struct {
	contacts map[string]*models.Contact // id -> Contact
	err      error                      // если задана, возвращается всеми методами
	mu       sync.Mutex
}

func newMockContactStorage() *mockContactStorage {
	return &mockContactStorage{contacts: make(map[string]*models.Contact)}
}

func (m *mockContactStorage) phoneTaken(userID, phone, exceptID string) bool {
	for _, c := range m.contacts {
		if c.UserID == userID && c.PhoneNumber == phone && c.ID != exceptID {
			return true
		}
	}
	return false
}

func (m *mockContactStorage) CreateContact(_ context.Context, contact *models.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.phoneTaken(contact.UserID, contact.PhoneNumber, "") {
		return storage.ErrContactAlreadyExists
	}
	cp := *contact
	m.contacts[contact.ID] = &cp
	return nil
}

func (m *mockContactStorage) ListContacts(_ context.Context, userID string) ([]*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	result := make([]*models.Contact, 0)
	for _, c := range m.contacts {
		if c.UserID == userID {
			cp := *c
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockContactStorage) GetContact(_ context.Context, userID, contactID string) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.contacts[contactID]
	if !ok || c.UserID != userID {
		return nil, storage.ErrContactNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockContactStorage) UpdateContact(_ context.Context, userID, contactID string, update storage.ContactUpdate) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.contacts[contactID]
	if !ok || c.UserID != userID {
		return nil, storage.ErrContactNotFound
	}
	if update.PhoneNumber != nil && m.phoneTaken(userID, *update.PhoneNumber, contactID) {
		return nil, storage.ErrContactAlreadyExists
	}
	if update.FirstName != nil {
		c.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		c.LastName = *update.LastName
	}
	if update.PhoneNumber != nil {
		c.PhoneNumber = *update.PhoneNumber
	}
	if update.Email != nil {
		c.Email = *update.Email
	}
	cp := *c
	return &cp, nil
}

func (m *mockContactStorage) DeleteContact(_ context.Context, userID, contactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	c, ok := m.contacts[contactID]
	if !ok || c.UserID != userID {
		return storage.ErrContactNotFound
	}
	delete(m.contacts, contactID)
	return nil
}

func (m *mockContactStorage) seed(userID, id, first, last, phone string, createdAt time.Time) {
	m.contacts[id] = &models.Contact{
		ID:          id,
		UserID:      userID,
		FirstName:   first,
		LastName:    last,
		PhoneNumber: phone,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

// serveContacts routes through a ServeMux so that r.PathValue works
func serveContacts(h *ContactHandler, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/contacts", h.Create)
	mux.HandleFunc("GET /api/v1/contacts", h.List)
	mux.HandleFunc("GET /api/v1/contacts/{id}", h.Get)
	mux.HandleFunc("PATCH /api/v1/contacts/{id}", h.Update)
	mux.HandleFunc("DELETE /api/v1/contacts/{id}", h.Delete)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestContactHandler_Create(t *testing.T) {
	fixedNow := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		body       any
		check      func(t *testing.T, c api.Contact)
		name       string
		wantStatus int
	}{
		{
			name: "valid contact is normalized",
			body: api.CreateContactRequest{FirstName: "  John ", LastName: "O'Brien", PhoneNumber: "+1 555 0001", Email: "john@example.com"},
			check: func(t *testing.T, c api.Contact) {
				assert.NotEmpty(t, c.ID)
				assert.Equal(t, "John", c.FirstName)
				assert.Equal(t, "O'Brien", c.LastName)
				assert.Equal(t, "John O'Brien", c.FullName)
				assert.Equal(t, "+15550001", c.PhoneNumber)
				assert.True(t, fixedNow.Equal(c.CreatedAt), c.CreatedAt)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "email is optional",
			body:       api.CreateContactRequest{FirstName: "Анна", LastName: "Петрова", PhoneNumber: "79990001122"},
			check:      func(t *testing.T, c api.Contact) { assert.Empty(t, c.Email) },
			wantStatus: http.StatusCreated,
		},
		{
			name:       "first name too short",
			body:       api.CreateContactRequest{FirstName: "J", LastName: "Doe", PhoneNumber: "+15550001"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "digits in last name",
			body:       api.CreateContactRequest{FirstName: "John", LastName: "D0e", PhoneNumber: "+15550001"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid phone",
			body:       api.CreateContactRequest{FirstName: "John", LastName: "Doe", PhoneNumber: "0123"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid email",
			body:       api.CreateContactRequest{FirstName: "John", LastName: "Doe", PhoneNumber: "+15550001", Email: "nope"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       "[]",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewContactHandler(setupTestLogger(), newMockContactStorage())
			h.now = func() time.Time { return fixedNow }

			req := withIdentity(newJSONRequest(t, http.MethodPost, "/api/v1/contacts", tt.body), "user-1", "alice")
			w := serveContacts(h, req)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.check != nil {
				resp := decodeBody[api.ContactResponse](t, w)
				tt.check(t, resp.Contact)
			}
		})
	}
}

func TestContactHandler_CreateDuplicatePhone(t *testing.T) {
	store := newMockContactStorage()
	store.seed("user-1", "c1", "John", "Doe", "+15550001", time.Now())
	h := NewContactHandler(setupTestLogger(), store)

	body := api.CreateContactRequest{FirstName: "Jane", LastName: "Doe", PhoneNumber: "+1 555 0001"}
	w := serveContacts(h, withIdentity(newJSONRequest(t, http.MethodPost, "/api/v1/contacts", body), "user-1", "alice"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Другой владелец может сохранить тот же номер
	w = serveContacts(h, withIdentity(newJSONRequest(t, http.MethodPost, "/api/v1/contacts", body), "user-2", "bob"))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestContactHandler_List(t *testing.T) {
	store := newMockContactStorage()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.seed("user-1", "c1", "John", "Doe", "+15550001", base)
	store.seed("user-1", "c2", "", "", "+15550002", base.Add(time.Minute))
	store.seed("user-2", "c3", "Eve", "Spy", "+15550003", base)
	h := NewContactHandler(setupTestLogger(), store)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil), "user-1", "alice")
	w := serveContacts(h, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[api.ContactListResponse](t, w)
	require.Equal(t, 2, resp.Count)
	require.Len(t, resp.Contacts, 2)
	assert.Equal(t, "John Doe", resp.Contacts[0].FullName)
	assert.Equal(t, models.UnknownFullName, resp.Contacts[1].FullName)

	// Пустой список сериализуется как [], а не null
	req = withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil), "user-9", "nobody")
	w = serveContacts(h, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"contacts":[],"count":0}`, w.Body.String())
}

func TestContactHandler_GetUpdateDelete(t *testing.T) {
	store := newMockContactStorage()
	store.seed("user-1", "c1", "John", "Doe", "+15550001", time.Now())
	store.seed("user-1", "c2", "Jane", "Doe", "+15550002", time.Now())
	h := NewContactHandler(setupTestLogger(), store)

	tests := []struct {
		body       any
		name       string
		method     string
		target     string
		userID     string
		wantStatus int
	}{
		{name: "get own", method: http.MethodGet, target: "/api/v1/contacts/c1", userID: "user-1", wantStatus: http.StatusOK},
		{name: "get foreign", method: http.MethodGet, target: "/api/v1/contacts/c1", userID: "user-2", wantStatus: http.StatusNotFound},
		{name: "get unknown", method: http.MethodGet, target: "/api/v1/contacts/zzz", userID: "user-1", wantStatus: http.StatusNotFound},
		{
			name: "update last name", method: http.MethodPatch, target: "/api/v1/contacts/c1", userID: "user-1",
			body: `{"lastname":"Smith"}`, wantStatus: http.StatusOK,
		},
		{
			name: "update invalid phone", method: http.MethodPatch, target: "/api/v1/contacts/c1", userID: "user-1",
			body: `{"phonenumber":"abc"}`, wantStatus: http.StatusBadRequest,
		},
		{
			name: "update to taken phone", method: http.MethodPatch, target: "/api/v1/contacts/c1", userID: "user-1",
			body: `{"phonenumber":"+15550002"}`, wantStatus: http.StatusBadRequest,
		},
		{
			name: "update foreign", method: http.MethodPatch, target: "/api/v1/contacts/c1", userID: "user-2",
			body: `{"lastname":"Owned"}`, wantStatus: http.StatusNotFound,
		},
		{name: "delete foreign", method: http.MethodDelete, target: "/api/v1/contacts/c1", userID: "user-2", wantStatus: http.StatusNotFound},
		{name: "delete own", method: http.MethodDelete, target: "/api/v1/contacts/c1", userID: "user-1", wantStatus: http.StatusOK},
		{name: "get deleted", method: http.MethodGet, target: "/api/v1/contacts/c1", userID: "user-1", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withIdentity(newJSONRequest(t, tt.method, tt.target, tt.body), tt.userID, "someone")
			w := serveContacts(h, req)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.name == "update last name" {
				resp := decodeBody[api.ContactResponse](t, w)
				assert.Equal(t, "Smith", resp.Contact.LastName)
				assert.Equal(t, "John", resp.Contact.FirstName)
				assert.Equal(t, "John Smith", resp.Contact.FullName)
			}
		})
	}
}

func TestContactHandler_Errors(t *testing.T) {
	t.Run("no identity", func(t *testing.T) {
		h := NewContactHandler(setupTestLogger(), newMockContactStorage())
		w := serveContacts(h, httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("storage failure is not leaked", func(t *testing.T) {
		store := newMockContactStorage()
		store.err = errors.New("disk I/O error")
		h := NewContactHandler(setupTestLogger(), store)

		req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil), "user-1", "alice")
		w := serveContacts(h, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "disk")
	})
}
