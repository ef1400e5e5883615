package webhooks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bissquit/hookrelay/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(repo *mockRepository) http.Handler {
	svc, _ := newTestService(repo)
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CreateWebhook(t *testing.T) {
	h := newTestHandler(newMockRepository())
	body := `{"label":"Indexer","section_id":3,"verb":"POST","callback_url":"https://i.example/hook"}`

	rec := doRequest(t, h, http.MethodPost, "/webhooks", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data domain.Webhook `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(1), resp.Data.ID)
	assert.True(t, resp.Data.IsActive)

	rec = doRequest(t, h, http.MethodPost, "/webhooks", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_CreateWebhook_Validation(t *testing.T) {
	h := newTestHandler(newMockRepository())

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing label", `{"section_id":3,"verb":"POST","callback_url":"https://i.example/hook"}`},
		{"bad verb", `{"label":"x","section_id":3,"verb":"GET","callback_url":"https://i.example/hook"}`},
		{"unknown section", `{"label":"x","section_id":77,"verb":"POST","callback_url":"https://i.example/hook"}`},
		{"bad url", `{"label":"x","section_id":3,"verb":"POST","callback_url":"mailto:ops@example.com"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/webhooks", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandler_GetUpdateDelete(t *testing.T) {
	repo := newMockRepository(hook(1, 3, domain.VerbCreate, "https://a.example/hook", true))
	h := newTestHandler(repo)

	assert.Equal(t, http.StatusOK, doRequest(t, h, http.MethodGet, "/webhooks/1", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(t, h, http.MethodGet, "/webhooks/2", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, h, http.MethodGet, "/webhooks/x", "").Code)

	rec := doRequest(t, h, http.MethodPut, "/webhooks/1",
		`{"label":"Moved","section_id":4,"verb":"DELETE","callback_url":"https://a.example/hook","is_active":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	stored := repo.hooks[1]
	assert.Equal(t, "Moved", stored.Label)
	assert.Equal(t, domain.VerbDelete, stored.Verb)
	assert.False(t, stored.IsActive)

	assert.Equal(t, http.StatusNoContent, doRequest(t, h, http.MethodDelete, "/webhooks/1", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(t, h, http.MethodDelete, "/webhooks/1", "").Code)
}

func TestHandler_ListWebhooks(t *testing.T) {
	repo := newMockRepository(
		hook(1, 3, domain.VerbCreate, "https://a.example/hook", true),
		hook(2, 3, domain.VerbCreate, "https://b.example/hook", true),
		hook(3, 3, domain.VerbCreate, "https://c.example/hook", true),
	)
	h := newTestHandler(repo)

	rec := doRequest(t, h, http.MethodGet, "/webhooks?offset=1&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []domain.Webhook `json:"data"`
		Meta struct {
			Total  int `json:"total"`
			Offset int `json:"offset"`
			Limit  int `json:"limit"`
		} `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(2), resp.Data[0].ID)
	assert.Equal(t, 3, resp.Meta.Total)
	assert.Equal(t, 1, resp.Meta.Offset)
	assert.Equal(t, 1, resp.Meta.Limit)

	assert.Equal(t, http.StatusBadRequest, doRequest(t, h, http.MethodGet, "/webhooks?limit=abc", "").Code)
}

func TestHandler_BulkAction(t *testing.T) {
	repo := newMockRepository(
		hook(1, 3, domain.VerbCreate, "https://a.example/hook", true),
		hook(2, 3, domain.VerbCreate, "https://b.example/hook", true),
	)
	h := newTestHandler(repo)

	rec := doRequest(t, h, http.MethodPost, "/webhooks/bulk", `{"action":"disable","ids":[1,2,3]}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, repo.hooks[1].IsActive)
	assert.False(t, repo.hooks[2].IsActive)

	rec = doRequest(t, h, http.MethodPost, "/webhooks/bulk", `{"action":"enable","ids":[2]}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, repo.hooks[2].IsActive)

	rec = doRequest(t, h, http.MethodPost, "/webhooks/bulk", `{"action":"delete","ids":[1]}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, repo.hooks, int64(1))

	assert.Equal(t, http.StatusBadRequest, doRequest(t, h, http.MethodPost, "/webhooks/bulk", `{"action":"archive","ids":[2]}`).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, h, http.MethodPost, "/webhooks/bulk", `{"action":"enable","ids":[]}`).Code)
}
