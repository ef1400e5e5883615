// Package redis consumes mutation events from a Redis Pub/Sub channel.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bissquit/hookrelay/internal/mutations"
	"github.com/go-playground/validator/v10"
	goredis "github.com/redis/go-redis/v9"
)

// Config holds subscriber configuration.
type Config struct {
	URL     string
	Channel string
}

// Subscriber reads mutation messages from a channel and enqueues them.
type Subscriber struct {
	client    *goredis.Client
	channel   string
	queue     mutations.BlockingEnqueuer
	validator *validator.Validate

	pubsub *goredis.PubSub
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSubscriber creates a subscriber connected to cfg.URL.
// Messages are not acknowledged by Redis, so the consumer waits for a free
// dispatch slot rather than dropping a message when the queue is full.
func NewSubscriber(cfg Config, queue mutations.BlockingEnqueuer) (*Subscriber, error) {
	opt, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Subscriber{
		client:    goredis.NewClient(opt),
		channel:   cfg.Channel,
		queue:     queue,
		validator: validator.New(),
	}, nil
}

// Start subscribes to the channel and consumes messages until Stop is called.
func (s *Subscriber) Start(ctx context.Context) error {
	s.pubsub = s.client.Subscribe(ctx, s.channel)
	if _, err := s.pubsub.Receive(ctx); err != nil {
		_ = s.pubsub.Close()
		return fmt.Errorf("subscribe to %s: %w", s.channel, err)
	}

	slog.Info("consuming mutations from redis", "channel", s.channel)

	consumeCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	ch := s.pubsub.Channel()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for msg := range ch {
			s.handle(consumeCtx, msg.Payload)
		}
	}()
	return nil
}

// Stop unsubscribes and waits for the consumer to exit.
func (s *Subscriber) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.pubsub != nil {
		_ = s.pubsub.Close()
	}
	s.wg.Wait()
	_ = s.client.Close()
	slog.Info("redis mutation subscriber stopped")
}

// Ping checks the connection to Redis.
func (s *Subscriber) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Subscriber) handle(ctx context.Context, payload string) {
	var msg mutations.Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		slog.Warn("dropping malformed mutation message", "channel", s.channel, "error", err)
		return
	}
	if err := s.validator.Struct(msg); err != nil {
		slog.Warn("dropping invalid mutation message", "channel", s.channel, "error", err)
		return
	}

	if err := s.queue.EnqueueWait(ctx, msg.ToEvent()); err != nil {
		slog.Error("failed to enqueue mutation",
			"channel", s.channel,
			"section_id", msg.SectionID,
			"resource_id", msg.ResourceID,
			"error", err,
		)
	}
}

// Publish sends msg to channel. It is used by producers and tests.
func Publish(ctx context.Context, client *goredis.Client, channel string, msg mutations.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mutation message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish mutation message: %w", err)
	}
	return nil
}
