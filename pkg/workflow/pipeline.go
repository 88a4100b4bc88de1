package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldkit/cascade/pkg/actions"
	"github.com/fieldkit/cascade/pkg/conditions"
	"github.com/fieldkit/cascade/pkg/events"
	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/objects"
)

// runPipeline executes the workflow's actions in order starting at
// startIndex, appending to prior outcomes from an earlier pass.
//
// It returns the accumulated outcomes, whether the pipeline paused on a DELAY
// and, when it aborted, the failure message. Per-action policy:
//   - action condition false        → SKIPPED, continue
//   - DELAY with positive minutes   → SCHEDULED, pause
//   - misconfiguration / unregistered object type → FAILED, always abort
//   - other failures                → FAILED, abort iff stop_on_failure
func (e *Engine) runPipeline(ctx context.Context, wf *models.Workflow, trigger Trigger, execution *models.WorkflowExecution, startIndex int, prior []models.ActionOutcome, logger *slog.Logger) ([]models.ActionOutcome, bool, string) {
	sorted := models.SortActions(wf.Actions)

	outcomes := make([]models.ActionOutcome, len(prior), len(sorted))
	copy(outcomes, prior)

	ectx := actions.ExecutionContext{
		ExecutionID: execution.ID,
		WorkflowID:  wf.ID,
		ObjectType:  trigger.ObjectType,
		Event:       trigger.Event,
		Record:      trigger.Record,
		Previous:    trigger.Previous,
		UserID:      trigger.UserID,
	}

	for i := startIndex; i < len(sorted); i++ {
		action := sorted[i]

		actionLogger := logger.With("action_id", action.ID, "action_type", action.Type)

		if !conditions.Evaluate(action.Condition, trigger.Record, trigger.Previous) {
			actionLogger.DebugContext(ctx, "Action condition not met, skipping")

			outcomes = append(outcomes, models.ActionOutcome{
				ActionID: action.ID,
				Type:     action.Type,
				Status:   models.OutcomeSkipped,
			})

			continue
		}

		if action.Type == models.ActionTypeDelay {
			if action.DelayMinutes <= 0 {
				outcomes = append(outcomes, models.ActionOutcome{
					ActionID: action.ID,
					Type:     action.Type,
					Status:   models.OutcomeCompleted,
				})

				continue
			}

			outcome, paused := e.scheduleDelay(ctx, wf, trigger, execution, action, i+1, actionLogger)

			outcomes = append(outcomes, outcome)

			if paused {
				return outcomes, true, ""
			}

			// Scheduling failed: a lost delay means every later action
			// would run at the wrong time, so the pipeline aborts.
			return outcomes, false, outcome.Error
		}

		handler, err := e.actions.Create(action)
		if err != nil {
			actionLogger.ErrorContext(ctx, "Action is misconfigured", "error", err)

			outcomes = append(outcomes, models.ActionOutcome{
				ActionID: action.ID,
				Type:     action.Type,
				Status:   models.OutcomeFailed,
				Error:    err.Error(),
			})

			return outcomes, false, err.Error()
		}

		output, err := handler.Execute(ctx, ectx, actionLogger)
		if err != nil {
			actionLogger.ErrorContext(ctx, "Action failed", "error", err)

			outcomes = append(outcomes, models.ActionOutcome{
				ActionID: action.ID,
				Type:     action.Type,
				Status:   models.OutcomeFailed,
				Error:    err.Error(),
			})

			if actions.IsConfigError(err) || objects.IsObjectTypeNotRegistered(err) || action.AbortsOnFailure() {
				return outcomes, false, err.Error()
			}

			continue
		}

		outcomes = append(outcomes, models.ActionOutcome{
			ActionID: action.ID,
			Type:     action.Type,
			Status:   models.OutcomeCompleted,
			Output:   output,
		})
	}

	return outcomes, false, ""
}

// scheduleDelay persists the continuation that will resume the pipeline at
// nextIndex after the configured delay.
func (e *Engine) scheduleDelay(ctx context.Context, wf *models.Workflow, trigger Trigger, execution *models.WorkflowExecution, action models.Action, nextIndex int, logger *slog.Logger) (models.ActionOutcome, bool) {
	delay := time.Duration(action.DelayMinutes) * time.Minute

	payload := models.ContinuationPayload{
		ObjectType:      trigger.ObjectType,
		TriggerEvent:    trigger.Event,
		Record:          trigger.Record,
		Previous:        trigger.Previous,
		UserID:          trigger.UserID,
		NextActionIndex: nextIndex,
	}

	continuation, err := e.scheduler.Schedule(ctx, execution.ID, wf.ID, action.ID, delay, payload)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to schedule continuation", "error", err)

		return models.ActionOutcome{
			ActionID: action.ID,
			Type:     action.Type,
			Status:   models.OutcomeFailed,
			Error:    err.Error(),
		}, false
	}

	logger.InfoContext(ctx, "Pipeline paused",
		"continuation_id", continuation.ID,
		"resume_at", continuation.ScheduledFor)

	e.publish(ctx, execution.ID, &events.ExecutionPaused{
		BaseEvent:      events.NewBaseEvent(events.ExecutionPausedEvent),
		ExecutionID:    execution.ID,
		WorkflowID:     wf.ID,
		ContinuationID: continuation.ID,
		ResumeAt:       continuation.ScheduledFor,
	})

	return models.ActionOutcome{
		ActionID: action.ID,
		Type:     action.Type,
		Status:   models.OutcomeScheduled,
		Output: map[string]any{
			"continuation_id": continuation.ID,
			"resume_at":       continuation.ScheduledFor.Format(time.RFC3339),
			"delay_minutes":   action.DelayMinutes,
		},
	}, true
}
