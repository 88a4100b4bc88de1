package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fieldkit/cascade/pkg/conditions"
	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const workflowColumns = `
	id
  , name
  , description
  , trigger_object
  , trigger_event
  , trigger_conditions
  , trigger_schedule
  , active
  , actions
  , created_at
  , updated_at
`

// GetAll returns all workflows, newest first.
func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows ORDER BY created_at DESC`

	return r.queryWorkflows(ctx, query)
}

// GetByID returns a workflow by its ID. A missing workflow returns nil, nil.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	workflow, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

// ActiveByTrigger returns active workflows for the object-type/event pair.
// Hits the database on every call: the engine never caches workflows, so a
// deactivation is honored on the next trigger.
func (r *WorkflowRepository) ActiveByTrigger(ctx context.Context, objectType string, event models.TriggerEvent) ([]*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE active AND trigger_object = $1 AND trigger_event = $2
		ORDER BY created_at
	`

	return r.queryWorkflows(ctx, query, objectType, string(event))
}

// ActiveScheduled returns active workflows with a SCHEDULED trigger.
func (r *WorkflowRepository) ActiveScheduled(ctx context.Context) ([]*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE active AND trigger_event = $1
		ORDER BY created_at
	`

	return r.queryWorkflows(ctx, query, string(models.TriggerEventScheduled))
}

func (r *WorkflowRepository) queryWorkflows(ctx context.Context, query string, args ...any) ([]*models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanWorkflow(row scannable) (*models.Workflow, error) {
	var (
		workflow       models.Workflow
		conditionsJSON []byte
		actionsJSON    []byte
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&workflow.TriggerObject,
		&workflow.TriggerEvent,
		&conditionsJSON,
		&workflow.TriggerSchedule,
		&workflow.Active,
		&actionsJSON,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(conditionsJSON) > 0 {
		var tree conditions.Tree
		if err := json.Unmarshal(conditionsJSON, &tree); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger conditions: %w", err)
		}

		workflow.TriggerConditions = &tree
	}

	if len(actionsJSON) > 0 {
		if err := json.Unmarshal(actionsJSON, &workflow.Actions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
		}
	}

	return &workflow, nil
}

// Save validates and upserts a workflow.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	if err := workflow.Validate(); err != nil {
		return fmt.Errorf("%w: %w", persistence.ErrInvalidWorkflow, err)
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	var conditionsJSON []byte

	if workflow.TriggerConditions != nil {
		encoded, err := json.Marshal(workflow.TriggerConditions)
		if err != nil {
			return fmt.Errorf("failed to marshal trigger conditions: %w", err)
		}

		conditionsJSON = encoded
	}

	actionsJSON, err := json.Marshal(workflow.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}

	query := `
		INSERT INTO workflows (
			id, name, description, trigger_object, trigger_event,
			trigger_conditions, trigger_schedule, active, actions,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			trigger_object = EXCLUDED.trigger_object,
			trigger_event = EXCLUDED.trigger_event,
			trigger_conditions = EXCLUDED.trigger_conditions,
			trigger_schedule = EXCLUDED.trigger_schedule,
			active = EXCLUDED.active,
			actions = EXCLUDED.actions,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		workflow.TriggerObject,
		string(workflow.TriggerEvent),
		conditionsJSON,
		workflow.TriggerSchedule,
		workflow.Active,
		actionsJSON,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

// Delete removes a workflow. Deleting a missing workflow is a no-op.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}
