package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/fieldkit/cascade/pkg/channels/gochannel"
	"github.com/fieldkit/cascade/pkg/channels/kafka"
	"github.com/fieldkit/cascade/pkg/eventbus"
)

// NewEventBus creates the event bus for the given provider. "kafka" needs a
// comma-separated broker list; "gochannel" is in-process and suited to
// single-binary deployments.
func NewEventBus(provider, brokers, serviceName string, logger *slog.Logger) eventbus.EventBus {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, brokers, serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "gochannel", "":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			panic(fmt.Errorf("failed to create in-process pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
