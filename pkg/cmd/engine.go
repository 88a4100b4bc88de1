package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/fieldkit/cascade/pkg/actions"
	"github.com/fieldkit/cascade/pkg/eventbus"
	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/persistence"
	"github.com/fieldkit/cascade/pkg/scheduler"
	"github.com/fieldkit/cascade/pkg/workflow"
)

const webhookTimeout = 30 * time.Second

// EngineOptions collects everything a processing service needs to build the
// automation engine.
type EngineOptions struct {
	Logger      *slog.Logger
	Persistence persistence.Persistence
	RedisURL    string
	ObjectTypes []string
	Publisher   eventbus.EventPublisher
	Tracer      trace.Tracer
}

// NewEngine assembles the engine with dry-run collaborators, the built-in
// action registry and a continuation scheduler backed by the shared store.
func NewEngine(opts EngineOptions) (*workflow.Engine, *scheduler.Scheduler) {
	messenger, commissions, signer := LogCollaborators(opts.Logger)

	deps := actions.Deps{
		Objects:     NewObjectRegistry(opts.RedisURL, opts.ObjectTypes),
		Messenger:   messenger,
		Commissions: commissions,
		Signer:      signer,
		Audit: func(ctx context.Context, entry *models.AuditLogEntry) {
			if err := opts.Persistence.AuditRepository().Append(ctx, entry); err != nil {
				opts.Logger.ErrorContext(ctx, "Failed to append audit entry", "error", err)
			}
		},
		HTTPClient: &http.Client{Timeout: webhookTimeout},
	}

	sched := scheduler.NewScheduler(opts.Persistence.ContinuationRepository(), opts.Logger)

	engine := workflow.NewEngine(workflow.Config{
		Logger:     opts.Logger,
		Repository: workflow.NewRepository(opts.Persistence),
		Actions:    NewActionRegistry(deps),
		Executions: opts.Persistence.ExecutionRepository(),
		Audit:      opts.Persistence.AuditRepository(),
		Scheduler:  sched,
		Publisher:  opts.Publisher,
		Tracer:     opts.Tracer,
	})

	return engine, sched
}
