package webhooks

import (
	"encoding/json"
	"testing"

	"github.com/bissquit/hookrelay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFields() []domain.FieldEntry {
	return []domain.FieldEntry{
		{FieldID: 1, Metadata: json.RawMessage(`{"name":"Title","type":"input"}`), Value: json.RawMessage(`"Hello"`)},
		{FieldID: 2, Metadata: json.RawMessage(`{"name":"Count","type":"number"}`), Value: json.RawMessage(`3`)},
	}
}

func TestBuildPayload_Create(t *testing.T) {
	event := domain.MutationEvent{SectionID: 3, Kind: domain.MutationCreate, ResourceID: 42, Fields: testFields()}
	hook := domain.Webhook{ID: 1, SectionID: 3, Verb: domain.VerbCreate, CallbackURL: "https://h.example/c"}

	payload, err := BuildPayload(event, hook)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Len(t, got, 3)
	assert.Equal(t, "POST", got["verb"])
	assert.Equal(t, "https://h.example/c", got["callback"])

	body, ok := got["body"].(string)
	require.True(t, ok, "body must be a JSON string")
	assert.JSONEq(t,
		`[{"field_id":1,"field":{"name":"Title","type":"input"},"value":"Hello"},
		  {"field_id":2,"field":{"name":"Count","type":"number"},"value":3}]`,
		body)
}

func TestBuildPayload_EditUsesPut(t *testing.T) {
	event := domain.MutationEvent{SectionID: 3, Kind: domain.MutationEdit, ResourceID: 42, Fields: testFields()[:1]}
	hook := domain.Webhook{ID: 1, SectionID: 3, Verb: domain.VerbUpdate, CallbackURL: "https://h.example/u"}

	payload, err := BuildPayload(event, hook)
	require.NoError(t, err)

	var got envelope
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, domain.VerbUpdate, got.Verb)
	assert.Equal(t, "https://h.example/u", got.Callback)
	assert.JSONEq(t, `[{"field_id":1,"field":{"name":"Title","type":"input"},"value":"Hello"}]`, got.Body)
}

func TestBuildPayload_CreateWithoutFields(t *testing.T) {
	event := domain.MutationEvent{SectionID: 3, Kind: domain.MutationCreate, ResourceID: 42}
	hook := domain.Webhook{Verb: domain.VerbCreate, CallbackURL: "https://h.example/c"}

	payload, err := BuildPayload(event, hook)
	require.NoError(t, err)

	var got envelope
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "[]", got.Body)
}

func TestBuildPayload_DeleteIsBareIdentity(t *testing.T) {
	event := domain.MutationEvent{SectionID: 3, Kind: domain.MutationDelete, ResourceID: 42, Fields: testFields()}
	hook := domain.Webhook{Verb: domain.VerbDelete, CallbackURL: "https://h.example/d"}

	payload, err := BuildPayload(event, hook)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":42,"section_id":3}`, string(payload))
}

func TestBuildPayload_Deterministic(t *testing.T) {
	event := domain.MutationEvent{SectionID: 3, Kind: domain.MutationCreate, ResourceID: 42, Fields: testFields()}
	hook := domain.Webhook{Verb: domain.VerbCreate, CallbackURL: "https://h.example/c"}

	first, err := BuildPayload(event, hook)
	require.NoError(t, err)
	second, err := BuildPayload(event, hook)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, testFields(), event.Fields)
}

func TestBuildPayload_UnknownKind(t *testing.T) {
	_, err := BuildPayload(domain.MutationEvent{Kind: "publish"}, domain.Webhook{})
	assert.ErrorIs(t, err, ErrUnknownMutationKind)
}

func TestBuildPayload_PreservesRawFieldJSON(t *testing.T) {
	var event domain.MutationEvent
	require.NoError(t, json.Unmarshal([]byte(`{
		"section_id": 3, "kind": "edit", "resource_id": 42,
		"fields": [{"field_id": 1, "field": {"max": 12345678901234567, "b": 1, "a": 2}, "value": 9007199254740993}]
	}`), &event))
	hook := domain.Webhook{Verb: domain.VerbUpdate, CallbackURL: "https://h.example/u"}

	payload, err := BuildPayload(event, hook)
	require.NoError(t, err)

	var got envelope
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t,
		`[{"field_id":1,"field":{"max":12345678901234567,"b":1,"a":2},"value":9007199254740993}]`,
		got.Body)
}

func TestBuildPayload_UnencodableValue(t *testing.T) {
	event := domain.MutationEvent{
		Kind:   domain.MutationCreate,
		Fields: []domain.FieldEntry{{FieldID: 1, Value: json.RawMessage(`{`)}},
	}
	_, err := BuildPayload(event, domain.Webhook{Verb: domain.VerbCreate})
	assert.Error(t, err)
}
