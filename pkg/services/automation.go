package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kikukafandi/flowlink/pkg/models"
	"github.com/kikukafandi/flowlink/pkg/persistence"
	"github.com/kikukafandi/flowlink/pkg/registry"
	"github.com/kikukafandi/flowlink/pkg/workflow"
)

// Automation owns the workflow lifecycle and the trigger-to-action dispatch
// path. Everything runs synchronously inside the caller's request; concurrency
// only comes from multiple callers.
type Automation struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	matcher     *workflow.TriggerMatcher
	dispatcher  *workflow.Dispatcher
	logger      *slog.Logger
}

func NewAutomation(
	persistence persistence.Persistence,
	registry *registry.Registry,
	matcher *workflow.TriggerMatcher,
	dispatcher *workflow.Dispatcher,
	logger *slog.Logger,
) *Automation {
	return &Automation{
		persistence: persistence,
		registry:    registry,
		matcher:     matcher,
		dispatcher:  dispatcher,
		logger:      logger.With("module", "automation_service"),
	}
}

// EventDispatch reports the outcome of one matched trigger.
type EventDispatch struct {
	WorkflowID    string                `json:"workflow_id"`
	TriggerNodeID string                `json:"trigger_node_id"`
	Results       []models.ActionResult `json:"results"`
}

// EmitEvent is the trigger entry point: it finds every enabled workflow of
// the owner whose trigger matches the event and dispatches its actions. All
// matches are processed; a failing action never aborts siblings or other
// workflows.
func (a *Automation) EmitEvent(ctx context.Context, ownerID, eventName string, payload map[string]string) ([]EventDispatch, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	matches, err := a.matcher.Match(ctx, ownerID, eventName)
	if err != nil {
		return nil, err
	}

	dispatches := make([]EventDispatch, 0, len(matches))

	for _, match := range matches {
		results := a.dispatcher.Dispatch(ctx, match.Workflow, match.TriggerNode, payload)

		dispatches = append(dispatches, EventDispatch{
			WorkflowID:    match.Workflow.ID,
			TriggerNodeID: match.TriggerNode.ID,
			Results:       results,
		})
	}

	a.logger.Info("Event processed",
		"owner_id", ownerID,
		"event", eventName,
		"workflows_dispatched", len(dispatches))

	return dispatches, nil
}

// SaveWorkflow validates and persists a workflow. An invalid graph blocks the
// save; the validation errors are surfaced verbatim.
func (a *Automation) SaveWorkflow(ctx context.Context, ownerID string, wf *models.Workflow) (*models.Workflow, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	wf.OwnerID = ownerID

	if errs := a.validate(wf); errs != nil {
		return nil, errs
	}

	now := time.Now().UTC()

	if wf.ID == "" {
		wf.ID = uuid.New().String()
		wf.CreatedAt = now
	} else {
		existing, err := a.ownedWorkflow(ctx, ownerID, wf.ID)
		if err != nil {
			return nil, err
		}

		wf.CreatedAt = existing.CreatedAt
	}

	wf.UpdatedAt = now

	if err := a.persistence.SaveWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	return wf, nil
}

func (a *Automation) GetWorkflow(ctx context.Context, ownerID, id string) (*models.Workflow, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	return a.ownedWorkflow(ctx, ownerID, id)
}

func (a *Automation) ListWorkflows(ctx context.Context, ownerID string) ([]*models.Workflow, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	workflows, err := a.persistence.WorkflowsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	models.SortWorkflowsByID(workflows)

	return workflows, nil
}

func (a *Automation) DeleteWorkflow(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return ErrUnauthorized
	}

	if _, err := a.ownedWorkflow(ctx, ownerID, id); err != nil {
		return err
	}

	return a.persistence.DeleteWorkflow(ctx, id)
}

// TestRun validates the stored workflow, then dispatches each of its triggers
// with a caller-supplied payload. The graph must be valid; actions run for
// real.
func (a *Automation) TestRun(ctx context.Context, ownerID, id string, payload map[string]string) ([]EventDispatch, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	wf, err := a.ownedWorkflow(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if errs := a.validate(wf); errs != nil {
		return nil, errs
	}

	var dispatches []EventDispatch

	for _, trigger := range wf.TriggerNodes() {
		results := a.dispatcher.Dispatch(ctx, wf, trigger, payload)

		dispatches = append(dispatches, EventDispatch{
			WorkflowID:    wf.ID,
			TriggerNodeID: trigger.ID,
			Results:       results,
		})
	}

	return dispatches, nil
}

// HealthCheck reports the persistence layer's health.
func (a *Automation) HealthCheck(ctx context.Context) (string, bool) {
	if err := a.persistence.HealthCheck(ctx); err != nil {
		return "persistence layer is unhealthy: " + err.Error(), false
	}

	return "persistence layer is healthy", true
}

func (a *Automation) validate(wf *models.Workflow) error {
	errs := workflow.Validate(wf)

	// Structural validation does not know the registry; config schemas do.
	for _, node := range wf.Nodes {
		if !node.IsActionNode() || node.ActionType() == "" {
			continue
		}

		if err := a.registry.ValidateActionConfig(node.ActionType(), node.Data); err != nil {
			errs = append(errs, workflow.ValidationError{
				NodeID:  node.ID,
				Message: err.Error(),
			})
		}
	}

	if len(errs) > 0 {
		return &InvalidGraphError{Errors: errs}
	}

	return nil
}

func (a *Automation) ownedWorkflow(ctx context.Context, ownerID, id string) (*models.Workflow, error) {
	wf, err := a.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if wf == nil {
		return nil, ErrWorkflowNotFound
	}

	if wf.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	return wf, nil
}
