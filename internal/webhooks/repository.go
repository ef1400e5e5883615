package webhooks

import (
	"context"

	"github.com/bissquit/hookrelay/internal/domain"
)

// Matcher selects the webhooks a mutation should be delivered to.
type Matcher interface {
	// FindActiveMatches returns active webhooks for the pair ordered by id ascending.
	// The result is read in a single statement.
	FindActiveMatches(ctx context.Context, sectionID int64, verb domain.Verb) ([]domain.Webhook, error)
}

// Repository defines the interface for webhook data operations.
type Repository interface {
	Matcher

	CreateWebhook(ctx context.Context, hook *domain.Webhook) error
	GetWebhookByID(ctx context.Context, id int64) (*domain.Webhook, error)
	UpdateWebhook(ctx context.Context, hook *domain.Webhook) error
	DeleteWebhook(ctx context.Context, id int64) error
	ListWebhooks(ctx context.Context, offset, limit int) ([]domain.Webhook, int, error)

	// Bulk operations ignore unknown ids and return the number of rows affected.
	DeleteWebhooks(ctx context.Context, ids []int64) (int64, error)
	SetActive(ctx context.Context, ids []int64, active bool) (int64, error)
}

// SectionResolver checks that a section exists.
type SectionResolver interface {
	SectionExists(ctx context.Context, id int64) (bool, error)
}
