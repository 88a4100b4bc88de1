// Package main provides the Cascade worker: it consumes record triggers from
// the event bus and runs the matching workflows.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldkit/cascade/pkg/eventbus"
	"github.com/fieldkit/cascade/pkg/events"
	"github.com/fieldkit/cascade/pkg/workflow"
)

type Worker struct {
	id       string
	engine   *workflow.Engine
	eventBus eventbus.EventBus
	logger   *slog.Logger
}

func NewWorker(id string, engine *workflow.Engine, eventBus eventbus.EventBus, logger *slog.Logger) *Worker {
	return &Worker{
		id:       id,
		engine:   engine,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Start subscribes to trigger events and blocks until a shutdown signal.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := w.eventBus.Handle(events.TriggerReceivedEvent, w.handleTriggerReceived); err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Worker started")

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-signals:
		w.logger.InfoContext(ctx, "Shutting down", "signal", sig)
	case <-ctx.Done():
	}

	return nil
}

// handleTriggerReceived runs the engine for one trigger. Invalid triggers are
// acknowledged and dropped: redelivering them can never succeed. Load
// failures are returned so the message is retried.
func (w *Worker) handleTriggerReceived(ctx context.Context, event any) error {
	received, ok := event.(*events.TriggerReceived)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event payload for trigger.received")

		return nil
	}

	trigger := workflow.Trigger{
		ObjectType: received.ObjectType,
		Event:      received.TriggerEvent,
		Record:     received.Record,
		Previous:   received.Previous,
		UserID:     received.UserID,
	}

	results, err := w.engine.ProcessTrigger(ctx, trigger)
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidTrigger) {
			w.logger.WarnContext(ctx, "Dropping invalid trigger", "error", err)

			return nil
		}

		w.logger.ErrorContext(ctx, "Failed to process trigger", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Trigger processed",
		"object_type", trigger.ObjectType,
		"trigger_event", trigger.Event,
		"workflows_executed", len(results))

	return nil
}
