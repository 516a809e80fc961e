package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/kikukafandi/flowlink/pkg/channels/gochannel"
	"github.com/kikukafandi/flowlink/pkg/channels/kafka"
	"github.com/kikukafandi/flowlink/pkg/eventbus"
)

// NewEventBus picks an event bus backend. "memory" keeps everything in
// process; "kafka" hands events to a broker so a separate worker can consume
// them.
func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "memory":
		pub, sub := gochannel.CreateChannel(watermill.NewSlogLogger(logger))

		return eventbus.NewWatermillEventBus(pub, sub)
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), "flowlink")
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		panic("unsupported event bus provider: " + provider)
	}
}
