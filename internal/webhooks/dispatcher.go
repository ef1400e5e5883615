package webhooks

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bissquit/hookrelay/internal/domain"
	"github.com/bissquit/hookrelay/internal/pkg/ctxlog"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultDeliveryTimeout bounds a single delivery.
const DefaultDeliveryTimeout = 15 * time.Second

// DispatcherConfig contains dispatcher configuration.
type DispatcherConfig struct {
	Timeout     time.Duration // per delivery
	Concurrency int           // deliveries in flight per cycle
}

// DispatchSummary describes a finished dispatch cycle.
type DispatchSummary struct {
	DispatchID string
	Matched    int
	Succeeded  int
	Failed     int
}

// Dispatcher runs dispatch cycles: it selects the active webhooks matching a
// mutation and delivers the payload to each of them once.
type Dispatcher struct {
	matcher Matcher
	sender  Sender
	log     OutcomeLog
	config  DispatcherConfig
	now     func() time.Time
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(matcher Matcher, sender Sender, log OutcomeLog, config DispatcherConfig) *Dispatcher {
	if config.Timeout <= 0 {
		config.Timeout = DefaultDeliveryTimeout
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &Dispatcher{
		matcher: matcher,
		sender:  sender,
		log:     log,
		config:  config,
		now:     time.Now,
	}
}

// Dispatch delivers event to every matching active webhook.
// Failures are recorded per webhook and never abort the cycle or reach the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.MutationEvent) DispatchSummary {
	summary := DispatchSummary{DispatchID: uuid.NewString()}
	verb := event.Verb()

	ctx = ctxlog.With(ctx,
		"dispatch_id", summary.DispatchID,
		"section_id", event.SectionID,
		"resource_id", event.ResourceID,
		"verb", verb,
	)
	logger := ctxlog.FromContext(ctx)

	if !verb.IsValid() {
		logger.Warn("dropping mutation with unknown kind", "kind", event.Kind)
		return summary
	}

	hooks, err := d.matcher.FindActiveMatches(ctx, event.SectionID, verb)
	if err != nil {
		logger.Error("failed to find matching webhooks", "error", err)
		return summary
	}

	summary.Matched = len(hooks)
	if len(hooks) == 0 {
		logger.Debug("no webhooks match mutation")
		return summary
	}

	recordDispatchCycle(string(verb))
	logger.Info("dispatching webhooks", "matched", len(hooks))

	var succeeded, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(d.config.Concurrency)

	for _, hook := range hooks {
		hook := hook
		g.Go(func() error {
			outcome := d.deliver(ctx, summary.DispatchID, event, hook)
			d.log.Record(ctx, outcome)
			if outcome.Succeeded {
				succeeded.Add(1)
			} else {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary.Succeeded = int(succeeded.Load())
	summary.Failed = int(failed.Load())

	logger.Info("dispatch cycle finished",
		"matched", summary.Matched,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)
	return summary
}

func (d *Dispatcher) deliver(ctx context.Context, dispatchID string, event domain.MutationEvent, hook domain.Webhook) (outcome DeliveryOutcome) {
	outcome = DeliveryOutcome{
		DispatchID: dispatchID,
		WebhookID:  hook.ID,
		URL:        hook.CallbackURL,
		Verb:       hook.Verb,
		SectionID:  event.SectionID,
		ResourceID: event.ResourceID,
	}

	start := d.now()
	defer func() {
		if p := recover(); p != nil {
			outcome.Succeeded = false
			outcome.Reason = ReasonTransportError
			outcome.Err = fmt.Errorf("delivery panic: %v", p)
		}
		outcome.Duration = d.now().Sub(start)
	}()

	payload, err := BuildPayload(event, hook)
	if err != nil {
		outcome.Reason = ReasonBuildError
		outcome.Err = err
		return outcome
	}

	result, err := d.sender.Send(ctx, DeliveryRequest{
		URL:     hook.CallbackURL,
		Verb:    hook.Verb,
		Payload: payload,
		Timeout: d.config.Timeout,
	})
	if err != nil {
		outcome.Reason = ReasonTransportError
		outcome.Err = err
		return outcome
	}

	outcome.StatusCode = result.StatusCode
	if !result.OK() {
		outcome.Reason = ReasonBadStatus
		outcome.Err = fmt.Errorf("unexpected status %d", result.StatusCode)
		return outcome
	}

	outcome.Succeeded = true
	return outcome
}
