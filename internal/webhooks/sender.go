package webhooks

import (
	"context"
	"net/http"
	"time"

	"github.com/bissquit/hookrelay/internal/domain"
)

// DeliveryRequest is one outbound notification.
type DeliveryRequest struct {
	URL     string
	Verb    domain.Verb
	Payload []byte
	Timeout time.Duration
}

// DeliveryResult is the response received from a callback.
type DeliveryResult struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the delivery counts as successful. Only 200 does.
func (r *DeliveryResult) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}

// Sender performs a single HTTP delivery.
// A returned error means no HTTP response was obtained.
type Sender interface {
	Send(ctx context.Context, req DeliveryRequest) (*DeliveryResult, error)
}
