package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bissquit/hookrelay/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	subject string
	role    domain.Role
	err     error
}

func (s stubValidator) ValidateToken(_ context.Context, _ string) (string, domain.Role, error) {
	return s.subject, s.role, s.err
}

func protected(validator TokenValidator, minRole domain.Role) http.Handler {
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Text(w, http.StatusOK, GetSubject(r.Context())+":"+string(GetRole(r.Context())))
	})
	return AuthMiddleware(validator)(RequireRole(minRole)(final))
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		validator  stubValidator
		minRole    domain.Role
		wantStatus int
		wantBody   string
	}{
		{"missing header", "", stubValidator{}, domain.RolePublisher, http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", stubValidator{}, domain.RolePublisher, http.StatusUnauthorized, ""},
		{"invalid token", "Bearer abc", stubValidator{err: errors.New("bad")}, domain.RolePublisher, http.StatusUnauthorized, ""},
		{"insufficient role", "Bearer abc", stubValidator{subject: "cms", role: domain.RolePublisher}, domain.RoleAdmin, http.StatusForbidden, ""},
		{"publisher allowed", "Bearer abc", stubValidator{subject: "cms", role: domain.RolePublisher}, domain.RolePublisher, http.StatusOK, "cms:publisher"},
		{"admin inherits", "bearer abc", stubValidator{subject: "ops", role: domain.RoleAdmin}, domain.RolePublisher, http.StatusOK, "ops:admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protected(tt.validator, tt.minRole).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	handler := RequireRole(domain.RolePublisher)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not be called")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleError(t *testing.T) {
	errKnown := errors.New("known")
	mappings := []ErrorMapping{
		{Error: errKnown, Status: http.StatusConflict, Message: "already there"},
		{Error: ErrInvalidID, Status: http.StatusBadRequest},
	}

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"mapped with message", errKnown, http.StatusConflict, "already there"},
		{"wrapped", errors.Join(errors.New("ctx"), errKnown), http.StatusConflict, "already there"},
		{"mapped without message", ErrInvalidID, http.StatusBadRequest, "invalid id"},
		{"unmapped", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(context.Background(), rec, tt.err, mappings)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantMessage, body.Error.Message)
		})
	}
}

func TestIDParam(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.raw)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			got, err := IDParam(req, "id")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&offset=-2&page=x", nil)

	v, err := IntQuery(req, "limit", 20)
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	v, err = IntQuery(req, "missing", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	_, err = IntQuery(req, "offset", 0)
	assert.Error(t, err)

	_, err = IntQuery(req, "page", 0)
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	rec := httptest.NewRecorder()
	List(rec, []int{1, 2}, ListMeta{Total: 7, Offset: 2, Limit: 2})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[1,2],"meta":{"total":7,"offset":2,"limit":2}}`, rec.Body.String())
}

func TestAccessLevel(t *testing.T) {
	assert.Equal(t, slog.LevelError, accessLevel("/api/v1/webhooks", http.StatusInternalServerError))
	assert.Equal(t, slog.LevelWarn, accessLevel("/api/v1/webhooks", http.StatusNotFound))
	assert.Equal(t, slog.LevelDebug, accessLevel("/healthz", http.StatusOK))
	assert.Equal(t, slog.LevelError, accessLevel("/readyz", http.StatusServiceUnavailable))
	assert.Equal(t, slog.LevelInfo, accessLevel("/api/v1/webhooks", http.StatusOK))
}

func TestRequestLoggerMiddleware_EchoesRequestID(t *testing.T) {
	var logged bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logged, nil))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLoggerMiddleware(logger))
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		Text(w, http.StatusOK, "pong")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	reqID := rec.Header().Get(middleware.RequestIDHeader)
	assert.NotEmpty(t, reqID)
	assert.Contains(t, logged.String(), "request_id="+reqID)
	assert.Contains(t, logged.String(), "status=200")
}

func TestHandleError_ValidatorErrors(t *testing.T) {
	err := validator.New().Struct(struct {
		Label string `validate:"required"`
	}{})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	HandleError(context.Background(), rec, err, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t,
		`{"error":{"message":"validation error","details":[{"field":"Label","message":"required"}]}}`,
		rec.Body.String())
}
