// Package mutations accepts content mutation events and hands them to the dispatch queue.
package mutations

import (
	"context"

	"github.com/bissquit/hookrelay/internal/domain"
)

// Enqueuer schedules a dispatch cycle for a mutation.
type Enqueuer interface {
	Enqueue(event domain.MutationEvent) error
}

// BlockingEnqueuer schedules a dispatch cycle for a mutation, waiting for
// capacity instead of rejecting the event.
type BlockingEnqueuer interface {
	EnqueueWait(ctx context.Context, event domain.MutationEvent) error
}

// SectionResolver checks that a section exists.
type SectionResolver interface {
	SectionExists(ctx context.Context, id int64) (bool, error)
}

// Request is the body of a mutation submitted over HTTP.
type Request struct {
	Kind       string              `json:"kind" validate:"required,oneof=create edit delete"`
	ResourceID int64               `json:"resource_id" validate:"required,gt=0"`
	Fields     []domain.FieldEntry `json:"fields"`
}

// ToEvent converts the request to a mutation event for sectionID.
// Fields are dropped for deletions.
func (r *Request) ToEvent(sectionID int64) domain.MutationEvent {
	event := domain.MutationEvent{
		SectionID:  sectionID,
		Kind:       domain.MutationKind(r.Kind),
		ResourceID: r.ResourceID,
		Fields:     r.Fields,
	}
	if event.Kind == domain.MutationDelete {
		event.Fields = nil
	}
	return event
}

// Message is a mutation published on the message bus.
// It carries its section id in the body.
type Message struct {
	SectionID int64 `json:"section_id" validate:"required,gt=0"`
	Request
}

// ToEvent converts the message to a mutation event.
func (m *Message) ToEvent() domain.MutationEvent {
	return m.Request.ToEvent(m.SectionID)
}
