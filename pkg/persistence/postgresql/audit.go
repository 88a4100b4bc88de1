package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fieldkit/cascade/pkg/models"
)

// AuditRepository handles the append-only audit log. There is deliberately no
// update or delete operation.
type AuditRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewAuditRepository(db *sql.DB, logger *slog.Logger) *AuditRepository {
	return &AuditRepository{db: db, logger: logger}
}

func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	oldValuesJSON, err := json.Marshal(entry.OldValues)
	if err != nil {
		return fmt.Errorf("failed to marshal old values: %w", err)
	}

	newValuesJSON, err := json.Marshal(entry.NewValues)
	if err != nil {
		return fmt.Errorf("failed to marshal new values: %w", err)
	}

	query := `
		INSERT INTO audit_log (
			id, table_name, record_id, action, old_values, new_values,
			user_id, source, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.TableName,
		entry.RecordID,
		entry.Action,
		oldValuesJSON,
		newValuesJSON,
		entry.UserID,
		entry.Source,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry %s: %w", entry.ID, err)
	}

	return nil
}

// ListByRecord returns entries for one record, newest first.
func (r *AuditRepository) ListByRecord(ctx context.Context, tableName, recordID string, limit int) ([]*models.AuditLogEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT
			id
		  , table_name
		  , record_id
		  , action
		  , old_values
		  , new_values
		  , user_id
		  , source
		  , created_at
		FROM audit_log
		WHERE table_name = $1 AND record_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, tableName, recordID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	entries := make([]*models.AuditLogEntry, 0)

	for rows.Next() {
		var (
			entry         models.AuditLogEntry
			oldValuesJSON []byte
			newValuesJSON []byte
		)

		err := rows.Scan(
			&entry.ID,
			&entry.TableName,
			&entry.RecordID,
			&entry.Action,
			&oldValuesJSON,
			&newValuesJSON,
			&entry.UserID,
			&entry.Source,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		if len(oldValuesJSON) > 0 {
			if err := json.Unmarshal(oldValuesJSON, &entry.OldValues); err != nil {
				return nil, fmt.Errorf("failed to unmarshal old values: %w", err)
			}
		}

		if len(newValuesJSON) > 0 {
			if err := json.Unmarshal(newValuesJSON, &entry.NewValues); err != nil {
				return nil, fmt.Errorf("failed to unmarshal new values: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}
