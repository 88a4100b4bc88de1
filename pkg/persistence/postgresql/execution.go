package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/persistence"
)

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `
	id
  , workflow_id
  , trigger_record_id
  , trigger_data
  , status
  , started_at
  , completed_at
  , results
  , error_message
`

// Save upserts an execution snapshot.
func (r *ExecutionRepository) Save(ctx context.Context, execution *models.WorkflowExecution) error {
	triggerDataJSON, err := json.Marshal(execution.TriggerData)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	resultsJSON, err := json.Marshal(execution.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	query := `
		INSERT INTO workflow_executions (
			id, workflow_id, trigger_record_id, trigger_data, status,
			started_at, completed_at, results, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			results = EXCLUDED.results,
			error_message = EXCLUDED.error_message
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowID,
		execution.TriggerRecordID,
		triggerDataJSON,
		string(execution.Status),
		execution.StartedAt,
		execution.CompletedAt,
		resultsJSON,
		execution.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution %s: %w", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	query := `SELECT ` + executionColumns + ` FROM workflow_executions WHERE id = $1`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrExecutionNotFound, id)
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

// ListByWorkflow returns executions for a workflow, newest first.
func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT ` + executionColumns + `
		FROM workflow_executions
		WHERE workflow_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.WorkflowExecution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func scanExecution(row scannable) (*models.WorkflowExecution, error) {
	var (
		execution       models.WorkflowExecution
		triggerDataJSON []byte
		resultsJSON     []byte
	)

	err := row.Scan(
		&execution.ID,
		&execution.WorkflowID,
		&execution.TriggerRecordID,
		&triggerDataJSON,
		&execution.Status,
		&execution.StartedAt,
		&execution.CompletedAt,
		&resultsJSON,
		&execution.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}

	if len(triggerDataJSON) > 0 {
		if err := json.Unmarshal(triggerDataJSON, &execution.TriggerData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger data: %w", err)
		}
	}

	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &execution.Results); err != nil {
			return nil, fmt.Errorf("failed to unmarshal results: %w", err)
		}
	}

	return &execution, nil
}
