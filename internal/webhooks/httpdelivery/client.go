// Package httpdelivery delivers webhook payloads over HTTP.
package httpdelivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/bissquit/hookrelay/internal/pkg/ctxlog"
	"github.com/bissquit/hookrelay/internal/webhooks"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout          = webhooks.DefaultDeliveryTimeout
	defaultUserAgent        = "hookrelay"
	defaultMaxResponseBytes = 64 << 10
)

// Config holds delivery client configuration.
type Config struct {
	UserAgent        string
	Timeout          time.Duration // used when a request carries none
	RateLimit        float64       // requests per second across all deliveries, 0 disables
	RateBurst        int
	MaxResponseBytes int64
}

// Client implements webhooks.Sender. Every delivery is an HTTP POST with a
// JSON body, whatever the webhook verb.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new delivery client.
func NewClient(config Config) *Client {
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.MaxResponseBytes <= 0 {
		config.MaxResponseBytes = defaultMaxResponseBytes
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			// Redirects are reported as the 3xx they are.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}
	return c
}

// Send posts req.Payload to req.URL and returns the response status and body.
// Any failure to obtain a response is returned as *TransportError.
func (c *Client) Send(ctx context.Context, req webhooks.DeliveryRequest) (*webhooks.DeliveryResult, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.config.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: req.URL, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Payload))
	if err != nil {
		return nil, &TransportError{URL: req.URL, Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	if req.Verb != "" {
		httpReq.Header.Set("X-Webhook-Verb", string(req.Verb))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{URL: req.URL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes))
	if err != nil {
		ctxlog.FromContext(ctx).Debug("failed to read webhook response body", "url", req.URL, "status", resp.StatusCode, "error", err)
	}

	return &webhooks.DeliveryResult{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// TransportError reports a delivery that produced no HTTP response:
// DNS or connection failures, timeouts and malformed URLs.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the delivery ran out of time.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
