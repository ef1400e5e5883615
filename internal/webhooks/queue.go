package webhooks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bissquit/hookrelay/internal/domain"
	"github.com/panjf2000/ants/v2"
)

const (
	enqueueRetryMin = 5 * time.Millisecond
	enqueueRetryMax = 200 * time.Millisecond
)

// EventDispatcher runs one dispatch cycle.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event domain.MutationEvent) DispatchSummary
}

// Queue runs dispatch cycles on a bounded goroutine pool so that the
// mutation source only pays for the hand-off.
type Queue struct {
	pool       *ants.Pool
	dispatcher EventDispatcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewQueue creates a queue running at most size dispatch cycles at once.
// Enqueue fails with ErrQueueFull instead of blocking when all slots are busy.
func NewQueue(size int, dispatcher EventDispatcher) (*Queue, error) {
	pool, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p interface{}) {
			slog.Error("dispatch cycle panicked", "panic", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create dispatch pool: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		pool:       pool,
		dispatcher: dispatcher,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Enqueue schedules a dispatch cycle for event and returns immediately.
func (q *Queue) Enqueue(event domain.MutationEvent) error {
	err := q.submit(event)
	if errors.Is(err, ErrQueueFull) {
		queueRejected.Inc()
	}
	return err
}

func (q *Queue) submit(event domain.MutationEvent) error {
	q.mu.RLock()
	if q.stopped {
		q.mu.RUnlock()
		return ErrQueueStopped
	}
	q.wg.Add(1)
	q.mu.RUnlock()

	err := q.pool.Submit(func() {
		defer q.wg.Done()
		queueInFlight.Inc()
		defer queueInFlight.Dec()
		q.dispatcher.Dispatch(q.ctx, event)
	})
	if err != nil {
		q.wg.Done()
		switch {
		case errors.Is(err, ants.ErrPoolOverload):
			return ErrQueueFull
		case errors.Is(err, ants.ErrPoolClosed):
			return ErrQueueStopped
		default:
			return fmt.Errorf("submit dispatch cycle: %w", err)
		}
	}
	return nil
}

// EnqueueWait schedules a dispatch cycle for event, waiting for a free slot
// while the queue is full. It gives up when ctx is done or the queue stops.
func (q *Queue) EnqueueWait(ctx context.Context, event domain.MutationEvent) error {
	backoff := enqueueRetryMin
	for {
		err := q.submit(event)
		if !errors.Is(err, ErrQueueFull) {
			return err
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("wait for dispatch slot: %w", ctx.Err())
		case <-timer.C:
		}
		backoff = min(backoff*2, enqueueRetryMax)
	}
}

// Running returns the number of dispatch cycles in progress.
func (q *Queue) Running() int {
	return q.pool.Running()
}

// Stop rejects new events and waits for running cycles to finish.
// If ctx expires first, in-flight deliveries are cancelled.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		q.cancel()
		<-done
		err = fmt.Errorf("drain dispatch queue: %w", ctx.Err())
	}

	q.cancel()
	q.pool.Release()
	slog.Info("dispatch queue stopped")
	return err
}
