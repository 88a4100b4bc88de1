package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/persistence"
)

// ContinuationRepository handles scheduled continuation database operations.
type ContinuationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewContinuationRepository(db *sql.DB, logger *slog.Logger) *ContinuationRepository {
	return &ContinuationRepository{db: db, logger: logger}
}

const continuationColumns = `
	id
  , execution_id
  , workflow_id
  , action_id
  , scheduled_for
  , status
  , payload
  , created_at
`

func (r *ContinuationRepository) Save(ctx context.Context, continuation *models.ScheduledContinuation) error {
	payloadJSON, err := json.Marshal(continuation.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal continuation payload: %w", err)
	}

	query := `
		INSERT INTO scheduled_continuations (
			id, execution_id, workflow_id, action_id, scheduled_for,
			status, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status
	`

	_, err = r.db.ExecContext(ctx, query,
		continuation.ID,
		continuation.ExecutionID,
		continuation.WorkflowID,
		continuation.ActionID,
		continuation.ScheduledFor,
		string(continuation.Status),
		payloadJSON,
		continuation.CreatedAt,
	)
	if err != nil {
		return &persistence.ContinuationError{Op: "Save", ContinuationID: continuation.ID, Err: err}
	}

	return nil
}

func (r *ContinuationRepository) GetByID(ctx context.Context, id string) (*models.ScheduledContinuation, error) {
	query := `SELECT ` + continuationColumns + ` FROM scheduled_continuations WHERE id = $1`

	continuation, err := scanContinuation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrContinuationNotFound, id)
		}

		return nil, fmt.Errorf("failed to scan continuation: %w", err)
	}

	return continuation, nil
}

// ListDue returns pending continuations due at or before now, oldest first.
func (r *ContinuationRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledContinuation, error) {
	query := `
		SELECT ` + continuationColumns + `
		FROM scheduled_continuations
		WHERE status = $1 AND scheduled_for <= $2
		ORDER BY scheduled_for
	`

	rows, err := r.db.QueryContext(ctx, query, string(models.ContinuationStatusPending), now)
	if err != nil {
		return nil, fmt.Errorf("failed to query continuations: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	continuations := make([]*models.ScheduledContinuation, 0)

	for rows.Next() {
		continuation, err := scanContinuation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan continuation: %w", err)
		}

		continuations = append(continuations, continuation)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating continuations: %w", err)
	}

	return continuations, nil
}

func (r *ContinuationRepository) UpdateStatus(ctx context.Context, id string, status models.ContinuationStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_continuations SET status = $1 WHERE id = $2`,
		string(status), id)
	if err != nil {
		return &persistence.ContinuationError{Op: "UpdateStatus", ContinuationID: id, Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return &persistence.ContinuationError{Op: "UpdateStatus", ContinuationID: id, Err: err}
	}

	if affected == 0 {
		return &persistence.ContinuationError{Op: "UpdateStatus", ContinuationID: id, Err: persistence.ErrContinuationNotFound}
	}

	return nil
}

func scanContinuation(row scannable) (*models.ScheduledContinuation, error) {
	var (
		continuation models.ScheduledContinuation
		payloadJSON  []byte
	)

	err := row.Scan(
		&continuation.ID,
		&continuation.ExecutionID,
		&continuation.WorkflowID,
		&continuation.ActionID,
		&continuation.ScheduledFor,
		&continuation.Status,
		&payloadJSON,
		&continuation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &continuation.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal continuation payload: %w", err)
		}
	}

	return &continuation, nil
}
