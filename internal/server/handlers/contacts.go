package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/contactkeeper/internal/models"
	"github.com/iudanet/contactkeeper/internal/server/storage"
	"github.com/iudanet/contactkeeper/internal/validation"
	"github.com/iudanet/contactkeeper/pkg/api"
)

// ContactHandler обрабатывает CRUD контактов текущего пользователя
type ContactHandler struct {
	responder
	contacts storage.ContactStorage
	now      func() time.Time
}

// NewContactHandler создает новый handler для контактов
func NewContactHandler(logger *slog.Logger, contacts storage.ContactStorage) *ContactHandler {
	return &ContactHandler{
		responder: responder{logger: logger},
		contacts:  contacts,
		now:       time.Now,
	}
}

// Create обрабатывает POST /api/v1/contacts
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.CreateContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode contact request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	now := h.now()
	contact := &models.Contact{
		ID:          uuid.New().String(),
		UserID:      userID,
		FirstName:   validation.NormalizeName(req.FirstName),
		LastName:    validation.NormalizeName(req.LastName),
		PhoneNumber: validation.NormalizePhone(req.PhoneNumber),
		Email:       strings.TrimSpace(req.Email),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := validateContact(contact); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.contacts.CreateContact(ctx, contact); err != nil {
		h.handleStorageError(w, r, err, "failed to create contact")
		return
	}

	h.logger.InfoContext(ctx, "contact created",
		slog.String("user_id", userID),
		slog.String("contact_id", contact.ID))

	h.sendJSON(w, api.ContactResponse{
		Contact: toAPIContact(contact),
		Message: "Contact created successfully",
	}, http.StatusCreated)
}

// List обрабатывает GET /api/v1/contacts
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	contacts, err := h.contacts.ListContacts(ctx, userID)
	if err != nil {
		h.handleStorageError(w, r, err, "failed to list contacts")
		return
	}

	resp := api.ContactListResponse{
		Contacts: make([]api.Contact, 0, len(contacts)),
		Count:    len(contacts),
	}
	for _, c := range contacts {
		resp.Contacts = append(resp.Contacts, toAPIContact(c))
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Get обрабатывает GET /api/v1/contacts/{id}
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	contact, err := h.contacts.GetContact(ctx, userID, r.PathValue("id"))
	if err != nil {
		h.handleStorageError(w, r, err, "failed to get contact")
		return
	}

	h.sendJSON(w, api.ContactResponse{Contact: toAPIContact(contact)}, http.StatusOK)
}

// Update обрабатывает PATCH /api/v1/contacts/{id}
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.UpdateContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode contact update", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	update, err := buildContactUpdate(req)
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	contact, err := h.contacts.UpdateContact(ctx, userID, r.PathValue("id"), update)
	if err != nil {
		h.handleStorageError(w, r, err, "failed to update contact")
		return
	}

	h.sendJSON(w, api.ContactResponse{
		Contact: toAPIContact(contact),
		Message: "Contact updated successfully",
	}, http.StatusOK)
}

// Delete обрабатывает DELETE /api/v1/contacts/{id}
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	contactID := r.PathValue("id")
	if err := h.contacts.DeleteContact(ctx, userID, contactID); err != nil {
		h.handleStorageError(w, r, err, "failed to delete contact")
		return
	}

	h.logger.InfoContext(ctx, "contact deleted",
		slog.String("user_id", userID),
		slog.String("contact_id", contactID))

	h.sendJSON(w, api.MessageResponse{Message: "Contact deleted successfully"}, http.StatusOK)
}

func (h *ContactHandler) handleStorageError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, storage.ErrContactNotFound):
		h.sendError(w, "contact not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrContactAlreadyExists):
		h.sendError(w, "contact with this phone number or email already exists", http.StatusBadRequest)
	default:
		h.logger.ErrorContext(r.Context(), msg, slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
	}
}

func validateContact(c *models.Contact) error {
	if err := validation.ValidateName("firstname", c.FirstName); err != nil {
		return err
	}
	if err := validation.ValidateName("lastname", c.LastName); err != nil {
		return err
	}
	if err := validation.ValidatePhone(c.PhoneNumber); err != nil {
		return err
	}
	return validation.ValidateContactEmail(c.Email)
}

// buildContactUpdate нормализует и валидирует только переданные поля
func buildContactUpdate(req api.UpdateContactRequest) (storage.ContactUpdate, error) {
	var update storage.ContactUpdate

	if req.FirstName != nil {
		v := validation.NormalizeName(*req.FirstName)
		if err := validation.ValidateName("firstname", v); err != nil {
			return update, err
		}
		update.FirstName = &v
	}
	if req.LastName != nil {
		v := validation.NormalizeName(*req.LastName)
		if err := validation.ValidateName("lastname", v); err != nil {
			return update, err
		}
		update.LastName = &v
	}
	if req.PhoneNumber != nil {
		v := validation.NormalizePhone(*req.PhoneNumber)
		if err := validation.ValidatePhone(v); err != nil {
			return update, err
		}
		update.PhoneNumber = &v
	}
	if req.Email != nil {
		v := strings.TrimSpace(*req.Email)
		if err := validation.ValidateContactEmail(v); err != nil {
			return update, err
		}
		update.Email = &v
	}

	return update, nil
}

func toAPIContact(c *models.Contact) api.Contact {
	return api.Contact{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		FullName:    c.FullName(),
		PhoneNumber: c.PhoneNumber,
		Email:       c.Email,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
