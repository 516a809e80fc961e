package main

import (
	"context"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/kikukafandi/flowlink/pkg/cmd"
	"github.com/kikukafandi/flowlink/pkg/collab"
	"github.com/kikukafandi/flowlink/pkg/gateway"
	"github.com/kikukafandi/flowlink/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "flowlink-api",
		Usage:                 "Create and manage automation workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
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
				Name:    "event-bus",
				Usage:   "Event bus type (memory, kafka)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
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

			logger.InfoContext(ctx, "Initializing FlowLink API")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
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
			sessionStore := gateway.NewSessionStore(clock)
			sessionStore.StartReaper(ctx, sessionReapInterval, sessionMaxIdle, logger)

			manager := gateway.NewManager(gatewayClient, sessionStore, clock, logger)

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

			api := NewAPI(
				logger,
				persistence,
				registry,
				eventBus,
				manager,
			)

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
