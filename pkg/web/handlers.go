// Package web provides the HTTP surface of the automation layer: workflow
// CRUD, the event entry point, and the channel-pairing endpoints.
package web

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/kikukafandi/flowlink/pkg/models"
	"github.com/kikukafandi/flowlink/pkg/services"
)

// ownerHeader carries the authenticated owner identity, set by the app's auth
// middleware upstream of this layer.
const ownerHeader = "X-Owner-Id"

type APIHandlers struct {
	automationService *services.Automation
	channelService    *services.Channel
	validator         *validator.Validate
}

func NewAPIHandlers(
	automationService *services.Automation,
	channelService *services.Channel,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		automationService: automationService,
		channelService:    channelService,
		validator:         validator,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.automationService.ListWorkflows(c.Context(), c.Get(ownerHeader))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.automationService.GetWorkflow(c.Context(), c.Get(ownerHeader), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	return h.saveWorkflow(c, "")
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	return h.saveWorkflow(c, c.Params("id"))
}

func (h *APIHandlers) saveWorkflow(c fiber.Ctx, id string) error {
	var req SaveWorkflowRequest

	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{
		ID:      id,
		Name:    req.Name,
		Nodes:   req.Nodes,
		Edges:   req.Edges,
		Enabled: req.Enabled,
	}

	saved, err := h.automationService.SaveWorkflow(c.Context(), c.Get(ownerHeader), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	status := fiber.StatusOK
	if id == "" {
		status = fiber.StatusCreated
	}

	return c.Status(status).JSON(saved)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	err := h.automationService.DeleteWorkflow(c.Context(), c.Get(ownerHeader), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) TestRunWorkflow(c fiber.Ctx) error {
	var req TestRunRequest

	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	dispatches, err := h.automationService.TestRun(c.Context(), c.Get(ownerHeader), c.Params("id"), req.Payload)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"dispatches": dispatches})
}

func (h *APIHandlers) EmitEvent(c fiber.Ctx) error {
	var req EmitEventRequest

	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	dispatches, err := h.automationService.EmitEvent(c.Context(), c.Get(ownerHeader), req.Name, req.Payload)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"dispatches": dispatches})
}

func (h *APIHandlers) RequestChannelConnection(c fiber.Ctx) error {
	status, err := h.channelService.RequestConnection(c.Context(), c.Get(ownerHeader))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(status)
}

func (h *APIHandlers) DisconnectChannel(c fiber.Ctx) error {
	if err := h.channelService.Disconnect(c.Context(), c.Get(ownerHeader)); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, healthy := h.automationService.HealthCheck(c.Context())
	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": message})
	}

	return c.JSON(fiber.Map{"status": message})
}
