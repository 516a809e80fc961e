// Package main provides the FlowLink worker, which consumes application
// events from the event bus and the Redis queue and dispatches matching
// workflows.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kikukafandi/flowlink/pkg/eventbus"
	"github.com/kikukafandi/flowlink/pkg/events"
	"github.com/kikukafandi/flowlink/pkg/persistence"
	"github.com/kikukafandi/flowlink/pkg/queue"
	"github.com/kikukafandi/flowlink/pkg/registry"
	"github.com/kikukafandi/flowlink/pkg/services"
	"github.com/kikukafandi/flowlink/pkg/workflow"
)

type Worker struct {
	id         string
	logger     *slog.Logger
	eventBus   eventbus.EventBus
	automation *services.Automation
}

func NewWorker(
	id string,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	registry *registry.Registry,
	logger *slog.Logger,
) *Worker {
	matcher := workflow.NewTriggerMatcher(persistence, logger)
	dispatcher := workflow.NewDispatcher(registry, eventBus, logger)

	return &Worker{
		id:         id,
		logger:     logger.With("module", "flowlink-worker", "worker_id", id),
		eventBus:   eventBus,
		automation: services.NewAutomation(persistence, registry, matcher, dispatcher, logger),
	}
}

func (w *Worker) Start(ctx context.Context, redisURL, eventQueue string) error {
	w.logger.InfoContext(ctx, "Starting worker", "worker_id", w.id)

	w.eventBus.Handle(events.EventReceivedType, w.handleEventReceived)

	err := w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	var consumer *queue.Consumer
	if redisURL != "" {
		consumer, err = queue.NewConsumer(redisURL, eventQueue, w.sink, w.logger)
		if err != nil {
			return err
		}

		if err := consumer.Start(ctx); err != nil {
			return err
		}
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	if consumer != nil {
		if err := consumer.Stop(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Failed to stop queue consumer", "error", err)
		}
	}

	return nil
}

func (w *Worker) handleEventReceived(ctx context.Context, event any) error {
	received, ok := event.(*events.EventReceived)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for EventReceived")

		return nil
	}

	logger := w.logger.With(
		"owner_id", received.OwnerID,
		"event_name", received.Name,
		"event_id", received.ID,
	)
	logger.InfoContext(ctx, "Processing application event")

	dispatches, err := w.automation.EmitEvent(ctx, received.OwnerID, received.Name, received.Payload)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to dispatch event", "error", err)

		return err
	}

	logger.InfoContext(ctx, "Event dispatched", "matched_workflows", len(dispatches))

	return nil
}

// sink adapts EmitEvent to the queue consumer callback.
func (w *Worker) sink(ctx context.Context, ownerID, eventName string, payload map[string]string) error {
	_, err := w.automation.EmitEvent(ctx, ownerID, eventName, payload)

	return err
}
