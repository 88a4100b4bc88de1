// Package persistence provides the data storage abstraction for workflows,
// executions, audit history and scheduled continuations.
package persistence

import (
	"context"
	"time"

	"github.com/fieldkit/cascade/pkg/models"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	AuditRepository() AuditRepository
	ContinuationRepository() ContinuationRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	GetAll(ctx context.Context) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)

	// ActiveByTrigger returns every active workflow listening for the given
	// object-type/event pair. The engine calls this on every trigger, so
	// implementations must reflect saves immediately.
	ActiveByTrigger(ctx context.Context, objectType string, event models.TriggerEvent) ([]*models.Workflow, error)

	// ActiveScheduled returns active workflows with a SCHEDULED trigger.
	ActiveScheduled(ctx context.Context) ([]*models.Workflow, error)

	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// ExecutionRepository stores workflow run records.
type ExecutionRepository interface {
	Save(ctx context.Context, execution *models.WorkflowExecution) error
	GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error)
}

// AuditRepository stores the append-only mutation history.
type AuditRepository interface {
	Append(ctx context.Context, entry *models.AuditLogEntry) error
	ListByRecord(ctx context.Context, tableName, recordID string, limit int) ([]*models.AuditLogEntry, error)
}

// ContinuationRepository stores scheduled continuations left behind by DELAY
// actions.
type ContinuationRepository interface {
	Save(ctx context.Context, continuation *models.ScheduledContinuation) error
	GetByID(ctx context.Context, id string) (*models.ScheduledContinuation, error)

	// ListDue returns pending continuations whose scheduled time is at or
	// before now.
	ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledContinuation, error)

	UpdateStatus(ctx context.Context, id string, status models.ContinuationStatus) error
}
