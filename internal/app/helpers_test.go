//go:build integration

package app_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/bissquit/hookrelay/internal/testutil"
	"github.com/stretchr/testify/require"
)

// createTestSection creates a section with a random handle and returns its id.
func createTestSection(t *testing.T, client *testutil.Client, name string) int64 {
	t.Helper()

	resp, err := client.POST("/api/v1/sections", map[string]interface{}{
		"name":   name,
		"handle": testutil.RandomHandle("section"),
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data.ID
}

type webhookOption func(map[string]interface{})

func inactive() webhookOption {
	return func(m map[string]interface{}) {
		m["is_active"] = false
	}
}

// createTestWebhook registers a webhook and returns its id.
func createTestWebhook(t *testing.T, client *testutil.Client, sectionID int64, verb, url string, opts ...webhookOption) int64 {
	t.Helper()

	payload := map[string]interface{}{
		"label":        "hook " + verb,
		"section_id":   sectionID,
		"verb":         verb,
		"callback_url": url,
	}
	for _, opt := range opts {
		opt(payload)
	}

	resp, err := client.POST("/api/v1/webhooks", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data.ID
}

// submitMutation reports a mutation through the API and expects it to be accepted.
func submitMutation(t *testing.T, client *testutil.Client, sectionID int64, body map[string]interface{}) {
	t.Helper()

	resp, err := client.POST(sectionPath(sectionID)+"/mutations", body)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	_ = resp.Body.Close()
}

func sectionPath(id int64) string {
	return "/api/v1/sections/" + strconv.FormatInt(id, 10)
}

func webhookPath(id int64) string {
	return "/api/v1/webhooks/" + strconv.FormatInt(id, 10)
}
