// Package main provides the FlowLink API server implementation.
package main

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/kikukafandi/flowlink/pkg/eventbus"
	"github.com/kikukafandi/flowlink/pkg/gateway"
	"github.com/kikukafandi/flowlink/pkg/persistence"
	"github.com/kikukafandi/flowlink/pkg/registry"
	"github.com/kikukafandi/flowlink/pkg/services"
	"github.com/kikukafandi/flowlink/pkg/web"
	"github.com/kikukafandi/flowlink/pkg/workflow"
)

const (
	sessionReapInterval = 5 * time.Minute
	sessionMaxIdle      = 30 * time.Minute
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	manager     *gateway.Manager
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	manager *gateway.Manager,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		manager:     manager,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	matcher := workflow.NewTriggerMatcher(a.persistence, a.logger)
	dispatcher := workflow.NewDispatcher(a.registry, a.eventBus, a.logger)

	automationService := services.NewAutomation(a.persistence, a.registry, matcher, dispatcher, a.logger)
	channelService := services.NewChannel(a.manager, a.logger)

	handlers := web.NewAPIHandlers(automationService, channelService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("FlowLink API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/test-run", handlers.TestRunWorkflow)

	app.Post("/events", handlers.EmitEvent)

	ch := app.Group("/channel")
	ch.Post("/connection", handlers.RequestChannelConnection)
	ch.Delete("/connection", handlers.DisconnectChannel)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
