package domain

import "time"

// Verb is the mutation kind a webhook listens for.
// Values mirror the HTTP-style names stored and sent on the wire;
// the delivery itself is always an HTTP POST.
type Verb string

// Webhook verbs.
const (
	VerbCreate Verb = "POST"
	VerbUpdate Verb = "PUT"
	VerbDelete Verb = "DELETE"
)

// IsValid checks if the verb is valid.
func (v Verb) IsValid() bool {
	return v == VerbCreate || v == VerbUpdate || v == VerbDelete
}

// Kind returns the mutation kind that triggers this verb.
func (v Verb) Kind() MutationKind {
	switch v {
	case VerbCreate:
		return MutationCreate
	case VerbUpdate:
		return MutationEdit
	case VerbDelete:
		return MutationDelete
	}
	return ""
}

// Webhook is a stored rule mapping a (section, verb) pair to a callback URL.
type Webhook struct {
	ID          int64     `json:"id"`
	Label       string    `json:"label"`
	SectionID   int64     `json:"section_id"`
	Verb        Verb      `json:"verb"`
	CallbackURL string    `json:"callback_url"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
