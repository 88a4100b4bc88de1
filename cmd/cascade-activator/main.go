package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/fieldkit/cascade/pkg/cmd"
	"github.com/fieldkit/cascade/pkg/log"
)

const defaultPollInterval = 30 * time.Second

func main() {
	command := &cli.Command{
		Name:                  "cascade-activator",
		Usage:                 "Resume delayed pipelines and fire scheduled workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "activator-id",
				Aliases: []string{"id"},
				Usage:   "Custom activator ID (auto-generated if not provided)",
				Sources: cli.EnvVars("ACTIVATOR_ID"),
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
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "How often to check for due continuations",
				Value:   defaultPollInterval,
				Sources: cli.EnvVars("POLL_INTERVAL"),
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

			activatorID := command.String("activator-id")
			if activatorID == "" {
				activatorID = "activator-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("activator").With("activator_id", activatorID)
			logger.InfoContext(ctx, "Initializing Cascade activator")

			persist := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persist.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), "cascade-activator", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			engine, sched := cmd.NewEngine(cmd.EngineOptions{
				Logger:      logger,
				Persistence: persist,
				RedisURL:    command.String("redis-url"),
				ObjectTypes: command.StringSlice("object-types"),
				Publisher:   eventBus,
			})

			activator := NewActivator(
				activatorID,
				engine,
				sched,
				persist.WorkflowRepository(),
				logger,
				command.Duration("poll-interval"),
			)

			return activator.Start(ctx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
