package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/kikukafandi/flowlink/pkg/cmd"
	"github.com/kikukafandi/flowlink/pkg/collab"
	"github.com/kikukafandi/flowlink/pkg/gateway"
	"github.com/kikukafandi/flowlink/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "flowlink-worker",
		Usage:                 "Consume application events and dispatch automation workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (memory, kafka)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis connection URL for the inbound event queue",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "event-queue",
				Usage:   "Redis list the application pushes events onto",
				Value:   "flowlink:events",
				Sources: cli.EnvVars("EVENT_QUEUE"),
			},
			&cli.StringFlag{
				Name:     "gateway-url",
				Usage:    "Base URL of the messaging gateway",
				Required: true,
				Sources:  cli.EnvVars("GATEWAY_URL"),
			},
			&cli.StringFlag{
				Name:     "gateway-api-key",
				Usage:    "API key for the messaging gateway",
				Required: true,
				Sources:  cli.EnvVars("GATEWAY_API_KEY"),
			},
			&cli.StringFlag{
				Name:     "app-api-url",
				Usage:    "Base URL of the core application API",
				Required: true,
				Sources:  cli.EnvVars("APP_API_URL"),
			},
			&cli.StringFlag{
				Name:    "app-api-key",
				Usage:   "API key for the core application API",
				Sources: cli.EnvVars("APP_API_KEY"),
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
				workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
			}

			logger := log.WithModule("flowlink-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing FlowLink Worker")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			clock := clockwork.NewRealClock()

			gatewayClient := gateway.NewClient(
				command.String("gateway-url"),
				command.String("gateway-api-key"),
				logger,
			)
			manager := gateway.NewManager(gatewayClient, gateway.NewSessionStore(clock), clock, logger)

			appClient := collab.NewClient(
				command.String("app-api-url"),
				command.String("app-api-key"),
				logger,
			)

			registry := cmd.NewRegistry(
				logger,
				manager,
				gateway.NewSender(gatewayClient),
				appClient,
				appClient,
			)

			worker := NewWorker(
				workerID,
				persistence,
				eventBus,
				registry,
				logger,
			)

			if err := worker.Start(ctx, command.String("redis-url"), command.String("event-queue")); err != nil {
				logger.ErrorContext(ctx, "Failed to start worker", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
