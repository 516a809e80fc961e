// Package queue consumes application events other services push onto a Redis
// list and feeds them into the automation layer.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// EventSink receives decoded events; the worker wires this to the automation
// service's EmitEvent.
type EventSink func(ctx context.Context, ownerID, eventName string, payload map[string]string) error

// queuedEvent is the wire shape producers push onto the list.
type queuedEvent struct {
	OwnerID string            `json:"owner_id"`
	Name    string            `json:"name"`
	Payload map[string]string `json:"payload"`
}

type Consumer struct {
	Queue string

	client redis.UniversalClient
	sink   EventSink
	logger *slog.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewConsumer(redisURL, queue string, sink EventSink, logger *slog.Logger) (*Consumer, error) {
	if queue == "" {
		return nil, errors.New("queue name is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	return &Consumer{
		Queue:  queue,
		client: redis.NewClient(opts),
		sink:   sink,
		logger: logger.With("module", "queue_consumer", "queue", queue),
		stopCh: make(chan struct{}),
	}, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	c.logger.InfoContext(ctx, "Starting queue consumer")

	c.wg.Add(1)

	go c.consume(ctx)

	return nil
}

func (c *Consumer) Stop(ctx context.Context) error {
	close(c.stopCh)
	c.wg.Wait()

	c.logger.InfoContext(ctx, "Queue consumer stopped")

	return c.client.Close()
}

func (c *Consumer) consume(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		result, err := c.client.BRPop(ctx, 5*time.Second, c.Queue).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}

		if err != nil {
			if ctx.Err() != nil {
				return
			}

			c.logger.Error("Failed to pop from queue", "error", err)
			time.Sleep(time.Second)

			continue
		}

		// BRPop returns [queue, value].
		if len(result) != 2 {
			continue
		}

		c.handle(ctx, []byte(result[1]))
	}
}

func (c *Consumer) handle(ctx context.Context, raw []byte) {
	var event queuedEvent

	if err := json.Unmarshal(raw, &event); err != nil {
		c.logger.Error("Failed to decode queued event", "error", err)

		return
	}

	if err := c.sink(ctx, event.OwnerID, event.Name, event.Payload); err != nil {
		c.logger.Error("Failed to process queued event",
			"owner_id", event.OwnerID,
			"event", event.Name,
			"error", err)
	}
}
