package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/persistence"
	"github.com/fieldkit/cascade/pkg/persistence/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("cascade_test"),
			postgres.WithUsername("cascade"),
			postgres.WithPassword("cascade"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropTables(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, p.Close(ctx))
		cancel()
	})

	return p, ctx, databaseURL
}

func dropTables(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, db.Close())
	}()

	_, err = db.ExecContext(ctx, `
		DROP TABLE IF EXISTS schema_migrations;
		DROP TABLE IF EXISTS workflows;
		DROP TABLE IF EXISTS workflow_executions;
		DROP TABLE IF EXISTS audit_log;
		DROP TABLE IF EXISTS scheduled_continuations;
	`)
	require.NoError(t, err)
}

func TestMigrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, db.Close())
	}()

	for _, table := range []string{"workflows", "workflow_executions", "audit_log", "scheduled_continuations"} {
		var exists bool

		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}
}

func TestWorkflowLifecycle(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.WorkflowRepository()

	workflow := &models.Workflow{
		Name:          "Won deal follow-up",
		TriggerObject: "Opportunity",
		TriggerEvent:  models.TriggerEventUpdate,
		Active:        true,
		Actions: []models.Action{
			{ID: "a1", Type: models.ActionTypeSendSMS, Order: 1, Config: map[string]any{"message": "hi"}},
			{ID: "a2", Type: models.ActionTypeCreateCommission, Order: 2},
		},
	}

	require.NoError(t, repo.Save(ctx, workflow))
	require.NotEmpty(t, workflow.ID)

	loaded, err := repo.GetByID(ctx, workflow.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Won deal follow-up", loaded.Name)
	require.Len(t, loaded.Actions, 2)
	assert.Equal(t, models.ActionTypeCreateCommission, loaded.Actions[1].Type)

	found, err := repo.ActiveByTrigger(ctx, "Opportunity", models.TriggerEventUpdate)
	require.NoError(t, err)
	require.Len(t, found, 1)

	// Deactivation must be visible on the next lookup.
	workflow.Active = false
	require.NoError(t, repo.Save(ctx, workflow))

	found, err = repo.ActiveByTrigger(ctx, "Opportunity", models.TriggerEventUpdate)
	require.NoError(t, err)
	assert.Empty(t, found)

	require.NoError(t, repo.Delete(ctx, workflow.ID))

	loaded, err = repo.GetByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestExecutionLifecycle(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.ExecutionRepository()

	execution := models.NewWorkflowExecution("wf-1", "rec-1", map[string]any{"stage": "CLOSED_WON"})
	require.NoError(t, repo.Save(ctx, execution))

	execution.Finish(models.ExecutionStatusFailed, []models.ActionOutcome{
		{ActionID: "a1", Type: models.ActionTypeSendSMS, Status: models.OutcomeFailed, Error: "gateway down"},
	}, "gateway down")
	require.NoError(t, repo.Save(ctx, execution))

	loaded, err := repo.GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, loaded.Status)
	assert.Equal(t, "gateway down", loaded.ErrorMessage)
	require.Len(t, loaded.Results, 1)
	assert.Equal(t, models.OutcomeFailed, loaded.Results[0].Status)

	_, err = repo.GetByID(ctx, "exec-missing")
	assert.True(t, persistence.IsExecutionNotFound(err))

	list, err := repo.ListByWorkflow(ctx, "wf-1", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAuditAppendOnly(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.AuditRepository()

	entry := models.NewAuditLogEntry("Opportunity", "rec-1", "field_update")
	entry.OldValues = map[string]any{"stage": "PROPOSAL"}
	entry.NewValues = map[string]any{"stage": "CLOSED_WON"}
	entry.UserID = "user-1"

	require.NoError(t, repo.Append(ctx, entry))

	entries, err := repo.ListByRecord(ctx, "Opportunity", "rec-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditSourceAutomation, entries[0].Source)
	assert.Equal(t, map[string]any{"stage": "PROPOSAL"}, entries[0].OldValues)
}

func TestContinuationLifecycle(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.ContinuationRepository()

	now := time.Now().UTC()

	due := models.NewScheduledContinuation("exec-1", "wf-1", "a3", now.Add(-time.Minute), models.ContinuationPayload{
		ObjectType:      "Opportunity",
		TriggerEvent:    models.TriggerEventUpdate,
		Record:          map[string]any{"id": "rec-1"},
		NextActionIndex: 3,
	})
	later := models.NewScheduledContinuation("exec-2", "wf-1", "a3", now.Add(time.Hour), models.ContinuationPayload{})

	require.NoError(t, repo.Save(ctx, due))
	require.NoError(t, repo.Save(ctx, later))

	pending, err := repo.ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, due.ID, pending[0].ID)
	assert.Equal(t, 3, pending[0].Payload.NextActionIndex)

	require.NoError(t, repo.UpdateStatus(ctx, due.ID, models.ContinuationStatusConsumed))

	pending, err = repo.ListDue(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, pending)

	err = repo.UpdateStatus(ctx, "00000000-0000-0000-0000-000000000000", models.ContinuationStatusConsumed)
	assert.True(t, persistence.IsContinuationNotFound(err))
}

func TestHealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	assert.NoError(t, p.HealthCheck(ctx))
}
