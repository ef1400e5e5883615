package sections

import (
	"encoding/json"
	"net/http"

	"github.com/bissquit/hookrelay/internal/domain"
	"github.com/bissquit/hookrelay/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrSectionNotFound, Status: http.StatusNotFound},
	{Error: ErrHandleExists, Status: http.StatusConflict},
	{Error: ErrInvalidHandle, Status: http.StatusBadRequest},
	{Error: httputil.ErrInvalidID, Status: http.StatusBadRequest},
}

// Handler handles HTTP requests for sections.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new sections handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers section routes (admin only).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sections", func(r chi.Router) {
		r.Get("/", h.ListSections)
		r.Post("/", h.CreateSection)
		r.Get("/{id}", h.GetSection)
	})
}

// CreateSectionRequest represents the request body for creating a section.
type CreateSectionRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=255"`
	Handle    string `json:"handle" validate:"required,min=1,max=255"`
	SortOrder int    `json:"sort_order"`
}

// CreateSection handles POST /sections.
func (h *Handler) CreateSection(w http.ResponseWriter, r *http.Request) {
	var req CreateSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	section := &domain.Section{
		Name:      req.Name,
		Handle:    req.Handle,
		SortOrder: req.SortOrder,
	}
	if err := h.service.CreateSection(r.Context(), section); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, section)
}

// GetSection handles GET /sections/{id}.
func (h *Handler) GetSection(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	section, err := h.service.GetSection(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, section)
}

// ListSections handles GET /sections.
func (h *Handler) ListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.service.ListSections(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, sections)
}
