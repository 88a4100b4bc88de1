// Package scheduler manages scheduled continuations for paused pipelines.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/persistence"
)

// Scheduler persists and surfaces continuations. It never resumes anything
// itself: the engine writes continuations through Schedule, and the activator
// polls Due and reports consumption back.
type Scheduler struct {
	continuations persistence.ContinuationRepository
	logger        *slog.Logger
	now           func() time.Time
}

func NewScheduler(continuations persistence.ContinuationRepository, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		continuations: continuations,
		logger:        logger.With("module", "scheduler"),
		now:           time.Now,
	}
}

// WithClock replaces the scheduler's clock, for tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now

	return s
}

// Schedule persists a pending continuation that becomes due after delay.
func (s *Scheduler) Schedule(ctx context.Context, executionID, workflowID, actionID string, delay time.Duration, payload models.ContinuationPayload) (*models.ScheduledContinuation, error) {
	scheduledFor := s.now().UTC().Add(delay)

	continuation := models.NewScheduledContinuation(executionID, workflowID, actionID, scheduledFor, payload)

	if err := s.continuations.Save(ctx, continuation); err != nil {
		return nil, fmt.Errorf("failed to schedule continuation for execution %s: %w", executionID, err)
	}

	s.logger.InfoContext(ctx, "Continuation scheduled",
		"continuation_id", continuation.ID,
		"execution_id", executionID,
		"workflow_id", workflowID,
		"scheduled_for", scheduledFor)

	return continuation, nil
}

// Due returns pending continuations that should be resumed now.
func (s *Scheduler) Due(ctx context.Context) ([]*models.ScheduledContinuation, error) {
	due, err := s.continuations.ListDue(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list due continuations: %w", err)
	}

	return due, nil
}

// MarkConsumed records that a continuation's pipeline was resumed.
func (s *Scheduler) MarkConsumed(ctx context.Context, id string) error {
	return s.continuations.UpdateStatus(ctx, id, models.ContinuationStatusConsumed)
}

// MarkFailed records that resuming a continuation failed. Failed
// continuations are left for operators; they are never retried automatically.
func (s *Scheduler) MarkFailed(ctx context.Context, id string) error {
	return s.continuations.UpdateStatus(ctx, id, models.ContinuationStatusFailed)
}
