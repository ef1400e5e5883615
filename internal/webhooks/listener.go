package webhooks

import (
	"context"

	"github.com/bissquit/hookrelay/internal/pkg/ctxlog"
)

// ChangeKind names an administrative change to webhooks.
type ChangeKind string

// Change kinds.
const (
	ChangeCreated  ChangeKind = "created"
	ChangeUpdated  ChangeKind = "updated"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeEnabled  ChangeKind = "enabled"
	ChangeDisabled ChangeKind = "disabled"
)

// Change describes a committed change to one or more webhooks.
type Change struct {
	Kind       ChangeKind
	WebhookIDs []int64
}

// ChangeListener is notified after webhooks are changed through the Service.
type ChangeListener interface {
	WebhookChanged(ctx context.Context, change Change)
}

// AuditLogListener writes every change to the context logger.
type AuditLogListener struct{}

// WebhookChanged implements ChangeListener.
func (AuditLogListener) WebhookChanged(ctx context.Context, change Change) {
	ctxlog.FromContext(ctx).Info("webhooks changed",
		"change", change.Kind,
		"webhook_ids", change.WebhookIDs,
	)
}

type nopListener struct{}

func (nopListener) WebhookChanged(context.Context, Change) {}
