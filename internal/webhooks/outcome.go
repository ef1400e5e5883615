package webhooks

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/bissquit/hookrelay/internal/domain"
	"github.com/bissquit/hookrelay/internal/pkg/ctxlog"
)

// FailureReason classifies a failed delivery.
type FailureReason string

// Failure reasons.
const (
	ReasonTransportError FailureReason = "transport_error"
	ReasonBadStatus      FailureReason = "bad_status"
	ReasonBuildError     FailureReason = "build_error"
)

// DeliveryOutcome is the result of one delivery attempt.
type DeliveryOutcome struct {
	DispatchID string
	WebhookID  int64
	URL        string
	Verb       domain.Verb
	SectionID  int64
	ResourceID int64
	Succeeded  bool
	StatusCode int // 0 when no response was received
	Reason     FailureReason
	Err        error
	Duration   time.Duration
}

// OutcomeLog receives every delivery outcome.
type OutcomeLog interface {
	Record(ctx context.Context, outcome DeliveryOutcome)
}

// LogRecorder writes outcomes to the context logger and, optionally, to a
// separate failure sink. It also updates delivery metrics.
type LogRecorder struct {
	failures *slog.Logger
}

// NewLogRecorder creates a LogRecorder. When failureSink is non-nil every
// failed delivery is also appended to it as a text log line.
func NewLogRecorder(failureSink io.Writer) *LogRecorder {
	r := &LogRecorder{}
	if failureSink != nil {
		r.failures = slog.New(slog.NewTextHandler(failureSink, nil))
	}
	return r
}

// Record logs and counts the outcome.
func (r *LogRecorder) Record(ctx context.Context, o DeliveryOutcome) {
	if o.Succeeded {
		recordDelivery(string(o.Verb), "success", o.Duration)
		ctxlog.FromContext(ctx).Debug("webhook delivered",
			"webhook_id", o.WebhookID,
			"url", o.URL,
			"status", o.StatusCode,
			"duration", o.Duration,
		)
		return
	}

	recordDelivery(string(o.Verb), string(o.Reason), o.Duration)

	attrs := []any{
		"reason", o.Reason,
		"section_id", o.SectionID,
		"resource_id", o.ResourceID,
		"verb", o.Verb,
		"url", o.URL,
		"webhook_id", o.WebhookID,
		"status", o.StatusCode,
		"error", errString(o.Err),
	}
	ctxlog.FromContext(ctx).Warn("webhook delivery failed", attrs...)
	if r.failures != nil {
		r.failures.Warn("webhook delivery failed", append(attrs, "dispatch_id", o.DispatchID)...)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
