package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/bissquit/hookrelay/internal/pkg/ctxlog"
	"github.com/go-playground/validator/v10"
)

// ErrorMapping defines how a domain error maps to an HTTP response.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses err.Error()
}

// HandleError writes the response for err.
//
// Validator errors become a 400 with field details. Otherwise mappings are
// checked in order, so more specific errors go first. Unmapped errors are
// logged with the request logger and answered with a bare 500.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		ValidationError(w, fieldErrs)
		return
	}

	for _, m := range mappings {
		if !errors.Is(err, m.Error) {
			continue
		}
		msg := m.Message
		if msg == "" {
			msg = err.Error()
		}
		if m.Status >= http.StatusInternalServerError {
			ctxlog.FromContext(ctx).Warn("request rejected", "status", m.Status, "error", err)
		}
		Error(w, m.Status, msg)
		return
	}

	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}
