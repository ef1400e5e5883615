package mutations

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bissquit/hookrelay/internal/pkg/ctxlog"
	"github.com/bissquit/hookrelay/internal/pkg/httputil"
	"github.com/bissquit/hookrelay/internal/webhooks"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errSectionNotFound = errors.New("section not found")

var errorMappings = []httputil.ErrorMapping{
	{Error: errSectionNotFound, Status: http.StatusNotFound},
	{Error: httputil.ErrInvalidID, Status: http.StatusBadRequest, Message: "invalid section id"},
	{Error: webhooks.ErrQueueFull, Status: http.StatusServiceUnavailable, Message: "dispatch queue is full, retry later"},
	{Error: webhooks.ErrQueueStopped, Status: http.StatusServiceUnavailable, Message: "service is shutting down"},
}

// Handler accepts mutation events over HTTP.
type Handler struct {
	queue     Enqueuer
	sections  SectionResolver
	validator *validator.Validate
}

// NewHandler creates a new mutations handler.
func NewHandler(queue Enqueuer, sections SectionResolver) *Handler {
	return &Handler{
		queue:     queue,
		sections:  sections,
		validator: validator.New(),
	}
}

// RegisterRoutes registers mutation routes (publisher role).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sections/{id}/mutations", h.Submit)
}

// Accepted is the response body of an accepted mutation.
type Accepted struct {
	SectionID  int64  `json:"section_id"`
	Kind       string `json:"kind"`
	ResourceID int64  `json:"resource_id"`
}

// Submit handles POST /sections/{id}/mutations.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sectionID, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	exists, err := h.sections.SectionExists(r.Context(), sectionID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	if !exists {
		httputil.HandleError(r.Context(), w, errSectionNotFound, errorMappings)
		return
	}

	if err := h.queue.Enqueue(req.ToEvent(sectionID)); err != nil {
		ctxlog.FromContext(r.Context()).Warn("mutation not queued",
			"section_id", sectionID,
			"resource_id", req.ResourceID,
			"error", err,
		)
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusAccepted, Accepted{
		SectionID:  sectionID,
		Kind:       req.Kind,
		ResourceID: req.ResourceID,
	})
}
