package webhooks

import (
	"encoding/json"
	"fmt"

	"github.com/bissquit/hookrelay/internal/domain"
)

// envelope is the wire format for create and edit notifications.
// Body carries the JSON-encoded field list as a string.
type envelope struct {
	Verb     domain.Verb `json:"verb"`
	Callback string      `json:"callback"`
	Body     string      `json:"body"`
}

// BuildPayload renders the request body sent to hook for event.
//
// Create and edit events produce {"verb","callback","body"} where body is the
// field list encoded as a JSON string. Delete events produce the bare
// {"id","section_id"} record of the removed resource.
func BuildPayload(event domain.MutationEvent, hook domain.Webhook) ([]byte, error) {
	switch event.Kind {
	case domain.MutationDelete:
		payload, err := json.Marshal(event.Identity())
		if err != nil {
			return nil, fmt.Errorf("marshal identity: %w", err)
		}
		return payload, nil

	case domain.MutationCreate, domain.MutationEdit:
		fields := event.Fields
		if fields == nil {
			fields = []domain.FieldEntry{}
		}
		body, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("marshal fields: %w", err)
		}

		payload, err := json.Marshal(envelope{
			Verb:     hook.Verb,
			Callback: hook.CallbackURL,
			Body:     string(body),
		})
		if err != nil {
			return nil, fmt.Errorf("marshal envelope: %w", err)
		}
		return payload, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMutationKind, event.Kind)
	}
}
