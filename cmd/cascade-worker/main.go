package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/fieldkit/cascade/pkg/cmd"
	"github.com/fieldkit/cascade/pkg/log"
	"github.com/fieldkit/cascade/pkg/tracer"
)

func main() {
	command := &cli.Command{
		Name:                  "cascade-worker",
		Usage:                 "Consume record triggers and run matching workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file:// or postgres://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka broker list",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the shared record store (in-memory when empty)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringSliceFlag{
				Name:    "object-types",
				Usage:   "CRM object types the engine may read and write",
				Value:   []string{"Opportunity", "Contact", "Task", "Appointment", "Agreement"},
				Sources: cli.EnvVars("OBJECT_TYPES"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("worker").With("worker_id", workerID)
			logger.InfoContext(ctx, "Initializing Cascade worker")

			var tr trace.Tracer

			tracerProvider, err := tracer.InitTracer(ctx, "cascade-worker")
			if err != nil {
				logger.WarnContext(ctx, "Tracing disabled", "error", err)
			} else {
				tr = tracerProvider.Tracer("cascade-worker")

				defer func() {
					if err := tracerProvider.Shutdown(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
					}
				}()
			}

			persist := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persist.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), "cascade-worker", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			engine, _ := cmd.NewEngine(cmd.EngineOptions{
				Logger:      logger,
				Persistence: persist,
				RedisURL:    command.String("redis-url"),
				ObjectTypes: command.StringSlice("object-types"),
				Publisher:   eventBus,
				Tracer:      tr,
			})

			worker := NewWorker(workerID, engine, eventBus, logger)

			return worker.Start(ctx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
