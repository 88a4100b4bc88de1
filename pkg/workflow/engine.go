package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/fieldkit/cascade/pkg/actions"
	"github.com/fieldkit/cascade/pkg/conditions"
	"github.com/fieldkit/cascade/pkg/eventbus"
	"github.com/fieldkit/cascade/pkg/events"
	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/persistence"
	"github.com/fieldkit/cascade/pkg/scheduler"
	"github.com/fieldkit/cascade/pkg/tracer"
)

// Config wires the engine's collaborators. Publisher and Tracer are optional.
type Config struct {
	Logger     *slog.Logger
	Repository *Repository
	Actions    *actions.Registry
	Executions persistence.ExecutionRepository
	Audit      persistence.AuditRepository
	Scheduler  *scheduler.Scheduler
	Publisher  eventbus.EventPublisher
	Tracer     trace.Tracer
	Now        func() time.Time
}

// Engine matches triggers to workflows and runs their action pipelines.
type Engine struct {
	logger     *slog.Logger
	repository *Repository
	actions    *actions.Registry
	executions persistence.ExecutionRepository
	audit      persistence.AuditRepository
	scheduler  *scheduler.Scheduler
	publisher  eventbus.EventPublisher
	tracer     trace.Tracer
	now        func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngine(cfg Config) *Engine {
	t := cfg.Tracer
	if t == nil {
		t = noop.NewTracerProvider().Tracer("cascade")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		logger:     cfg.Logger.With("module", "engine"),
		repository: cfg.Repository,
		actions:    cfg.Actions,
		executions: cfg.Executions,
		audit:      cfg.Audit,
		scheduler:  cfg.Scheduler,
		publisher:  cfg.Publisher,
		tracer:     t,
		now:        now,
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockRecord serializes trigger processing per (objectType, recordID) so two
// concurrent mutations of the same record cannot interleave their pipelines.
// Different records proceed in parallel.
func (e *Engine) lockRecord(objectType, recordID string) func() {
	key := objectType + ":" + recordID

	e.mu.Lock()
	lock, exists := e.locks[key]

	if !exists {
		lock = &sync.Mutex{}
		e.locks[key] = lock
	}
	e.mu.Unlock()

	lock.Lock()

	return lock.Unlock
}

// ProcessTrigger runs every matching active workflow against the trigger.
// One workflow's failure is reported in its WorkflowResult and never aborts
// the others; the error return is reserved for invalid triggers and workflow
// load failures.
func (e *Engine) ProcessTrigger(ctx context.Context, trigger Trigger) ([]models.WorkflowResult, error) {
	if err := trigger.Validate(); err != nil {
		return nil, err
	}

	recordID := trigger.RecordID()

	ctx, span := tracer.StartSpan(ctx, e.tracer, "engine.process_trigger",
		attribute.String(tracer.ObjectTypeKey, trigger.ObjectType),
		attribute.String(tracer.TriggerEventKey, string(trigger.Event)),
		attribute.String(tracer.RecordIDKey, recordID),
	)
	defer span.End()

	unlock := e.lockRecord(trigger.ObjectType, recordID)
	defer unlock()

	logger := e.logger.With(
		"object_type", trigger.ObjectType,
		"trigger_event", trigger.Event,
		"record_id", recordID,
	)

	workflows, err := e.repository.FetchActiveByTrigger(ctx, trigger.ObjectType, trigger.Event)
	if err != nil {
		tracer.SetError(span, err)

		return nil, err
	}

	logger.InfoContext(ctx, "Processing trigger", "workflows_matched", len(workflows))

	results := make([]models.WorkflowResult, 0, len(workflows))

	for _, wf := range workflows {
		if !conditions.Evaluate(wf.TriggerConditions, trigger.Record, trigger.Previous) {
			logger.DebugContext(ctx, "Trigger conditions not met, skipping workflow",
				"workflow_id", wf.ID, "workflow_name", wf.Name)

			continue
		}

		results = append(results, e.runWorkflow(ctx, wf, trigger, logger))
	}

	e.appendAudit(ctx, triggerAuditEntry(trigger, recordID, len(workflows), results))

	return results, nil
}

func triggerAuditEntry(trigger Trigger, recordID string, matched int, results []models.WorkflowResult) *models.AuditLogEntry {
	executed := make([]any, 0, len(results))
	for _, result := range results {
		executed = append(executed, map[string]any{
			"workflow_id":  result.WorkflowID,
			"execution_id": result.ExecutionID,
			"status":       string(result.Status),
		})
	}

	entry := models.NewAuditLogEntry(trigger.ObjectType, recordID, "automation_trigger")
	entry.UserID = trigger.UserID
	entry.NewValues = map[string]any{
		"trigger_event":      string(trigger.Event),
		"workflows_matched":  matched,
		"workflows_executed": executed,
	}

	return entry
}

// runWorkflow executes one workflow's pipeline and returns its result. All
// failures end up in the result, never as a panic or error escape.
func (e *Engine) runWorkflow(ctx context.Context, wf *models.Workflow, trigger Trigger, logger *slog.Logger) models.WorkflowResult {
	started := e.now().UTC()

	execution := models.NewWorkflowExecution(wf.ID, trigger.RecordID(), trigger.Record)

	logger = logger.With("workflow_id", wf.ID, "execution_id", execution.ID)

	ctx, span := tracer.StartSpan(ctx, e.tracer, "engine.run_workflow",
		attribute.String(tracer.WorkflowIDKey, wf.ID),
		attribute.String(tracer.WorkflowNameKey, wf.Name),
		attribute.String(tracer.ExecutionIDKey, execution.ID),
	)
	defer span.End()

	e.saveExecution(ctx, execution, logger)

	e.publish(ctx, execution.ID, &events.ExecutionStarted{
		BaseEvent:    events.NewBaseEvent(events.ExecutionStartedEvent),
		ExecutionID:  execution.ID,
		WorkflowID:   wf.ID,
		WorkflowName: wf.Name,
		RecordID:     trigger.RecordID(),
	})

	outcomes, paused, failure := e.runPipeline(ctx, wf, trigger, execution, 0, nil, logger)

	if paused {
		// The execution stays RUNNING until the continuation resumes it.
		execution.Results = outcomes
		e.saveExecution(ctx, execution, logger)

		return models.WorkflowResult{
			WorkflowID:   wf.ID,
			WorkflowName: wf.Name,
			ExecutionID:  execution.ID,
			Status:       models.ExecutionStatusRunning,
			Actions:      outcomes,
		}
	}

	return e.finishExecution(ctx, wf, execution, outcomes, failure, started, logger)
}

// finishExecution sets the terminal status, persists it and publishes the
// lifecycle event.
func (e *Engine) finishExecution(ctx context.Context, wf *models.Workflow, execution *models.WorkflowExecution, outcomes []models.ActionOutcome, failure string, started time.Time, logger *slog.Logger) models.WorkflowResult {
	duration := e.now().UTC().Sub(started)

	if failure != "" {
		execution.Finish(models.ExecutionStatusFailed, outcomes, failure)
		e.saveExecution(ctx, execution, logger)

		logger.ErrorContext(ctx, "Workflow execution failed", "error", failure)

		e.publish(ctx, execution.ID, &events.ExecutionFailed{
			BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent),
			ExecutionID: execution.ID,
			WorkflowID:  wf.ID,
			Error:       failure,
			Duration:    duration,
		})

		return models.WorkflowResult{
			WorkflowID:   wf.ID,
			WorkflowName: wf.Name,
			ExecutionID:  execution.ID,
			Status:       models.ExecutionStatusFailed,
			Actions:      outcomes,
			Error:        failure,
		}
	}

	execution.Finish(models.ExecutionStatusCompleted, outcomes, "")
	e.saveExecution(ctx, execution, logger)

	logger.InfoContext(ctx, "Workflow execution completed", "actions_executed", len(outcomes))

	e.publish(ctx, execution.ID, &events.ExecutionCompleted{
		BaseEvent:       events.NewBaseEvent(events.ExecutionCompletedEvent),
		ExecutionID:     execution.ID,
		WorkflowID:      wf.ID,
		ActionsExecuted: len(outcomes),
		Duration:        duration,
	})

	return models.WorkflowResult{
		WorkflowID:   wf.ID,
		WorkflowName: wf.Name,
		ExecutionID:  execution.ID,
		Status:       models.ExecutionStatusCompleted,
		Actions:      outcomes,
	}
}

// ResumeContinuation re-enters a paused pipeline at the stored action index
// with the record snapshot taken when the DELAY ran. The continuation is
// marked CONSUMED on success and FAILED when the workflow can no longer run.
func (e *Engine) ResumeContinuation(ctx context.Context, continuation *models.ScheduledContinuation) (models.WorkflowResult, error) {
	logger := e.logger.With(
		"continuation_id", continuation.ID,
		"execution_id", continuation.ExecutionID,
		"workflow_id", continuation.WorkflowID,
	)

	ctx, span := tracer.StartSpan(ctx, e.tracer, "engine.resume_continuation",
		attribute.String(tracer.WorkflowIDKey, continuation.WorkflowID),
		attribute.String(tracer.ExecutionIDKey, continuation.ExecutionID),
	)
	defer span.End()

	wf, err := e.repository.FetchByID(ctx, continuation.WorkflowID)
	if err != nil {
		tracer.SetError(span, err)

		if markErr := e.scheduler.MarkFailed(ctx, continuation.ID); markErr != nil {
			logger.ErrorContext(ctx, "Failed to mark continuation failed", "error", markErr)
		}

		return models.WorkflowResult{}, fmt.Errorf("cannot resume continuation %s: %w", continuation.ID, err)
	}

	payload := continuation.Payload

	trigger := Trigger{
		ObjectType: payload.ObjectType,
		Event:      payload.TriggerEvent,
		Record:     payload.Record,
		Previous:   payload.Previous,
		UserID:     payload.UserID,
	}

	unlock := e.lockRecord(trigger.ObjectType, trigger.RecordID())
	defer unlock()

	started := e.now().UTC()

	execution := e.loadExecution(ctx, continuation, wf, trigger, logger)

	e.publish(ctx, execution.ID, &events.ExecutionResumed{
		BaseEvent:      events.NewBaseEvent(events.ExecutionResumedEvent),
		ExecutionID:    execution.ID,
		WorkflowID:     wf.ID,
		ContinuationID: continuation.ID,
	})

	outcomes, paused, failure := e.runPipeline(ctx, wf, trigger, execution, payload.NextActionIndex, execution.Results, logger)

	var result models.WorkflowResult

	if paused {
		execution.Results = outcomes
		e.saveExecution(ctx, execution, logger)

		result = models.WorkflowResult{
			WorkflowID:   wf.ID,
			WorkflowName: wf.Name,
			ExecutionID:  execution.ID,
			Status:       models.ExecutionStatusRunning,
			Actions:      outcomes,
		}
	} else {
		result = e.finishExecution(ctx, wf, execution, outcomes, failure, started, logger)
	}

	if err := e.scheduler.MarkConsumed(ctx, continuation.ID); err != nil {
		logger.ErrorContext(ctx, "Failed to mark continuation consumed", "error", err)
	}

	return result, nil
}

// RunScheduled runs one SCHEDULED workflow off its timer firing. The trigger
// record is synthetic: scheduled workflows have no mutated record, so actions
// see the workflow id and the firing time.
func (e *Engine) RunScheduled(ctx context.Context, workflowID string) (models.WorkflowResult, error) {
	wf, err := e.repository.FetchByID(ctx, workflowID)
	if err != nil {
		return models.WorkflowResult{}, err
	}

	if !wf.Active || wf.TriggerEvent != models.TriggerEventScheduled {
		return models.WorkflowResult{}, fmt.Errorf("workflow %s is not an active scheduled workflow", workflowID)
	}

	firedAt := e.now().UTC()

	trigger := Trigger{
		ObjectType: wf.TriggerObject,
		Event:      models.TriggerEventScheduled,
		Record: map[string]any{
			"id":          "schedule:" + wf.ID,
			"workflow_id": wf.ID,
			"fired_at":    firedAt.Format(time.RFC3339),
		},
	}

	ctx, span := tracer.StartSpan(ctx, e.tracer, "engine.run_scheduled",
		attribute.String(tracer.WorkflowIDKey, wf.ID),
		attribute.String(tracer.WorkflowNameKey, wf.Name),
	)
	defer span.End()

	unlock := e.lockRecord(trigger.ObjectType, trigger.RecordID())
	defer unlock()

	logger := e.logger.With("workflow_id", wf.ID, "trigger_event", trigger.Event)

	return e.runWorkflow(ctx, wf, trigger, logger), nil
}

// loadExecution fetches the paused run record, or reconstructs one when the
// snapshot is gone so the resumed actions still land in the ledger.
func (e *Engine) loadExecution(ctx context.Context, continuation *models.ScheduledContinuation, wf *models.Workflow, trigger Trigger, logger *slog.Logger) *models.WorkflowExecution {
	execution, err := e.executions.GetByID(ctx, continuation.ExecutionID)
	if err == nil && execution.Status == models.ExecutionStatusRunning {
		return execution
	}

	if err != nil {
		logger.WarnContext(ctx, "Paused execution not found, reconstructing", "error", err)
	}

	reconstructed := models.NewWorkflowExecution(wf.ID, trigger.RecordID(), trigger.Record)
	reconstructed.ID = continuation.ExecutionID

	return reconstructed
}

func (e *Engine) saveExecution(ctx context.Context, execution *models.WorkflowExecution, logger *slog.Logger) {
	if err := e.executions.Save(ctx, execution); err != nil {
		logger.ErrorContext(ctx, "Failed to persist execution", "error", err)
	}
}

// appendAudit writes best-effort: a failing audit store must never abort
// automation.
func (e *Engine) appendAudit(ctx context.Context, entry *models.AuditLogEntry) {
	if err := e.audit.Append(ctx, entry); err != nil {
		e.logger.ErrorContext(ctx, "Failed to append audit entry",
			"table_name", entry.TableName,
			"record_id", entry.RecordID,
			"error", err)
	}
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, key, event); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.GetType(),
			"error", err)
	}
}
