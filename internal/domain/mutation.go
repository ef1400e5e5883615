package domain

import "encoding/json"

// MutationKind is the kind of content change reported by a mutation source.
type MutationKind string

// Mutation kinds.
const (
	MutationCreate MutationKind = "create"
	MutationEdit   MutationKind = "edit"
	MutationDelete MutationKind = "delete"
)

// IsValid checks if the mutation kind is valid.
func (k MutationKind) IsValid() bool {
	return k == MutationCreate || k == MutationEdit || k == MutationDelete
}

// Verb returns the webhook verb matching the mutation kind.
// Returns an empty verb for unknown kinds.
func (k MutationKind) Verb() Verb {
	switch k {
	case MutationCreate:
		return VerbCreate
	case MutationEdit:
		return VerbUpdate
	case MutationDelete:
		return VerbDelete
	}
	return ""
}

// FieldEntry is one field of a mutated resource: its id, schema metadata and current value.
// Metadata and Value are carried as raw JSON so that numbers and key order
// reach subscribers exactly as the mutation source sent them.
type FieldEntry struct {
	FieldID  int64           `json:"field_id"`
	Metadata json.RawMessage `json:"field"`
	Value    json.RawMessage `json:"value"`
}

// ResourceIdentity is the minimal record identifying a resource.
// It is all that is known about a resource once it has been deleted.
type ResourceIdentity struct {
	ID        int64 `json:"id"`
	SectionID int64 `json:"section_id"`
}

// MutationEvent reports that a resource in a section was created, edited or deleted.
// Fields is ordered and only meaningful for create and edit.
type MutationEvent struct {
	SectionID  int64
	Kind       MutationKind
	ResourceID int64
	Fields     []FieldEntry
}

// Verb returns the webhook verb this event triggers.
func (e MutationEvent) Verb() Verb {
	return e.Kind.Verb()
}

// Identity returns the identifying record of the mutated resource.
func (e MutationEvent) Identity() ResourceIdentity {
	return ResourceIdentity{ID: e.ResourceID, SectionID: e.SectionID}
}
