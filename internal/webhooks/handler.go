package webhooks

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bissquit/hookrelay/internal/domain"
	"github.com/bissquit/hookrelay/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrWebhookNotFound, Status: http.StatusNotFound, Message: "webhook not found"},
	{Error: ErrWebhookExists, Status: http.StatusConflict, Message: "webhook with this section, verb and callback already exists"},
	{Error: ErrValidation, Status: http.StatusBadRequest},
	{Error: httputil.ErrInvalidID, Status: http.StatusBadRequest, Message: "invalid webhook id"},
}

// Bulk actions.
const (
	BulkEnable  = "enable"
	BulkDisable = "disable"
	BulkDelete  = "delete"
)

// Handler handles HTTP requests for webhook administration.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new webhooks handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers webhook routes (admin only).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/webhooks", func(r chi.Router) {
		r.Get("/", h.ListWebhooks)
		r.Post("/", h.CreateWebhook)
		r.Post("/bulk", h.BulkAction)
		r.Get("/{id}", h.GetWebhook)
		r.Put("/{id}", h.UpdateWebhook)
		r.Delete("/{id}", h.DeleteWebhook)
	})
}

// WebhookRequest represents the request body for creating or updating a webhook.
type WebhookRequest struct {
	Label       string `json:"label" validate:"required,max=64"`
	SectionID   int64  `json:"section_id" validate:"required,gt=0"`
	Verb        string `json:"verb" validate:"required,oneof=POST PUT DELETE"`
	CallbackURL string `json:"callback_url" validate:"required,max=256"`
	IsActive    *bool  `json:"is_active"`
}

// ToInput converts the request to service input.
func (r *WebhookRequest) ToInput() WebhookInput {
	return WebhookInput{
		Label:       r.Label,
		SectionID:   r.SectionID,
		Verb:        domain.Verb(r.Verb),
		CallbackURL: r.CallbackURL,
		IsActive:    r.IsActive,
	}
}

// BulkRequest represents the request body for a bulk action.
type BulkRequest struct {
	Action string  `json:"action" validate:"required,oneof=enable disable delete"`
	IDs    []int64 `json:"ids" validate:"required,min=1,max=1000,dive,gt=0"`
}

// CreateWebhook handles POST /webhooks.
func (h *Handler) CreateWebhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if !h.decode(w, r, &req) {
		return
	}

	hook, err := h.service.CreateWebhook(r.Context(), req.ToInput())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, hook)
}

// GetWebhook handles GET /webhooks/{id}.
func (h *Handler) GetWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	hook, err := h.service.GetWebhook(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, hook)
}

// ListWebhooks handles GET /webhooks.
func (h *Handler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	offset, err := httputil.IntQuery(r, "offset", 0)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := httputil.IntQuery(r, "limit", DefaultListLimit)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, limit = NormalizePage(offset, limit)

	hooks, total, err := h.service.ListWebhooks(r.Context(), offset, limit)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.List(w, hooks, httputil.ListMeta{Total: total, Offset: offset, Limit: limit})
}

// UpdateWebhook handles PUT /webhooks/{id}.
func (h *Handler) UpdateWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	var req WebhookRequest
	if !h.decode(w, r, &req) {
		return
	}

	hook, err := h.service.UpdateWebhook(r.Context(), id, req.ToInput())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, hook)
}

// DeleteWebhook handles DELETE /webhooks/{id}.
func (h *Handler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	if err := h.service.DeleteWebhook(r.Context(), id); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkAction handles POST /webhooks/bulk.
func (h *Handler) BulkAction(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if !h.decode(w, r, &req) {
		return
	}

	var err error
	switch req.Action {
	case BulkEnable:
		err = h.service.SetActive(r.Context(), req.IDs, true)
	case BulkDisable:
		err = h.service.SetActive(r.Context(), req.IDs, false)
	case BulkDelete:
		err = h.service.DeleteWebhooks(r.Context(), req.IDs)
	default:
		err = errors.New("unknown bulk action")
	}
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		httputil.ValidationError(w, err)
		return false
	}
	return true
}
