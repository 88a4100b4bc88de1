// Package main provides the Cascade activator: it resumes pipelines paused
// by DELAY actions and fires SCHEDULED workflows on their cron expressions.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/persistence"
	"github.com/fieldkit/cascade/pkg/scheduler"
	"github.com/fieldkit/cascade/pkg/workflow"
)

type Activator struct {
	id        string
	engine    *workflow.Engine
	scheduler *scheduler.Scheduler
	workflows persistence.WorkflowRepository
	cron      *cron.Cron
	logger    *slog.Logger

	pollInterval    time.Duration
	refreshInterval time.Duration

	// entries tracks the cron registration per scheduled workflow so a
	// changed or deactivated schedule can be swapped out on refresh.
	entries map[string]scheduleEntry
}

type scheduleEntry struct {
	id   cron.EntryID
	spec string
}

func NewActivator(
	id string,
	engine *workflow.Engine,
	sched *scheduler.Scheduler,
	workflows persistence.WorkflowRepository,
	logger *slog.Logger,
	pollInterval time.Duration,
) *Activator {
	return &Activator{
		id:              id,
		engine:          engine,
		scheduler:       sched,
		workflows:       workflows,
		cron:            cron.New(),
		logger:          logger,
		pollInterval:    pollInterval,
		refreshInterval: time.Minute,
		entries:         make(map[string]scheduleEntry),
	}
}

// Start runs the poll and refresh loops until a shutdown signal.
func (a *Activator) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.refreshSchedules(ctx)
	a.cron.Start()
	defer a.cron.Stop()

	a.logger.InfoContext(ctx, "Activator started",
		"poll_interval", a.pollInterval,
		"refresh_interval", a.refreshInterval)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	poll := time.NewTicker(a.pollInterval)
	defer poll.Stop()

	refresh := time.NewTicker(a.refreshInterval)
	defer refresh.Stop()

	for {
		select {
		case <-poll.C:
			a.pollOnce(ctx)
		case <-refresh.C:
			a.refreshSchedules(ctx)
		case sig := <-signals:
			a.logger.InfoContext(ctx, "Shutting down", "signal", sig)

			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// pollOnce resumes every continuation that has come due.
func (a *Activator) pollOnce(ctx context.Context) {
	due, err := a.scheduler.Due(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to list due continuations", "error", err)

		return
	}

	for _, continuation := range due {
		result, err := a.engine.ResumeContinuation(ctx, continuation)
		if err != nil {
			a.logger.ErrorContext(ctx, "Failed to resume continuation",
				"continuation_id", continuation.ID,
				"error", err)

			continue
		}

		a.logger.InfoContext(ctx, "Continuation resumed",
			"continuation_id", continuation.ID,
			"execution_id", result.ExecutionID,
			"status", result.Status)
	}
}

// refreshSchedules syncs cron registrations with the stored SCHEDULED
// workflows: new and changed schedules are (re)registered, deactivated ones
// dropped.
func (a *Activator) refreshSchedules(ctx context.Context) {
	workflows, err := a.workflows.ActiveScheduled(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to list scheduled workflows", "error", err)

		return
	}

	seen := make(map[string]bool, len(workflows))

	for _, wf := range workflows {
		seen[wf.ID] = true

		existing, registered := a.entries[wf.ID]
		if registered && existing.spec == wf.TriggerSchedule {
			continue
		}

		if registered {
			a.cron.Remove(existing.id)
		}

		a.registerSchedule(ctx, wf)
	}

	for workflowID, entry := range a.entries {
		if !seen[workflowID] {
			a.cron.Remove(entry.id)
			delete(a.entries, workflowID)

			a.logger.InfoContext(ctx, "Schedule removed", "workflow_id", workflowID)
		}
	}
}

func (a *Activator) registerSchedule(ctx context.Context, wf *models.Workflow) {
	workflowID := wf.ID

	entryID, err := a.cron.AddFunc(wf.TriggerSchedule, func() {
		result, err := a.engine.RunScheduled(context.Background(), workflowID)
		if err != nil {
			a.logger.Error("Failed to run scheduled workflow",
				"workflow_id", workflowID,
				"error", err)

			return
		}

		a.logger.Info("Scheduled workflow ran",
			"workflow_id", workflowID,
			"execution_id", result.ExecutionID,
			"status", result.Status)
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "Invalid cron expression",
			"workflow_id", wf.ID,
			"schedule", wf.TriggerSchedule,
			"error", err)

		return
	}

	a.entries[wf.ID] = scheduleEntry{id: entryID, spec: wf.TriggerSchedule}

	a.logger.InfoContext(ctx, "Schedule registered",
		"workflow_id", wf.ID,
		"schedule", wf.TriggerSchedule)
}
