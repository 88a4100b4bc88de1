// Package postgresql provides PostgreSQL persistence for workflows,
// executions, audit history and continuations.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Register the postgres driver.
	_ "github.com/lib/pq"

	"github.com/fieldkit/cascade/pkg/persistence"
	"github.com/fieldkit/cascade/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db               *sql.DB
	logger           *slog.Logger
	workflowRepo     *WorkflowRepository
	executionRepo    *ExecutionRepository
	auditRepo        *AuditRepository
	continuationRepo *ContinuationRepository
}

// NewPersistence creates a new PostgreSQL persistence layer and runs pending
// schema migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:               database,
		logger:           logger,
		workflowRepo:     NewWorkflowRepository(database, logger),
		executionRepo:    NewExecutionRepository(database, logger),
		auditRepo:        NewAuditRepository(database, logger),
		continuationRepo: NewContinuationRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return p.executionRepo
}

func (p *Persistence) AuditRepository() persistence.AuditRepository {
	return p.auditRepo
}

func (p *Persistence) ContinuationRepository() persistence.ContinuationRepository {
	return p.continuationRepo
}
