package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kikukafandi/flowlink/pkg/eventbus"
	"github.com/kikukafandi/flowlink/pkg/events"
	"github.com/kikukafandi/flowlink/pkg/models"
	"github.com/kikukafandi/flowlink/pkg/protocol"
	"github.com/kikukafandi/flowlink/pkg/registry"
	"github.com/kikukafandi/flowlink/pkg/template"
)

// Dispatcher walks a matched trigger's outgoing edges and invokes the handler
// registered for each reachable action node. Every invocation is isolated: a
// handler error, or even a panic, is recorded on that node's result and never
// stops the siblings.
type Dispatcher struct {
	registry  *registry.Registry
	publisher eventbus.EventPublisher
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. The publisher is optional; when set,
// dispatch outcomes are published best-effort for the rest of the app to
// observe.
func NewDispatcher(registry *registry.Registry, publisher eventbus.EventPublisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		publisher: publisher,
		logger:    logger.With("module", "dispatcher"),
	}
}

// Dispatch executes every action node connected to the trigger node and
// returns one result per edge, in edge order. There are no retries here;
// readiness concerns belong to the handlers themselves.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	workflow *models.Workflow,
	triggerNode *models.Node,
	payload map[string]string,
) []models.ActionResult {
	logger := d.logger.With(
		"workflow_id", workflow.ID,
		"trigger_node_id", triggerNode.ID,
	)

	edges := workflow.EdgesFrom(triggerNode.ID)

	results := make([]models.ActionResult, 0, len(edges))

	for _, edge := range edges {
		result := d.executeEdge(ctx, workflow, edge, payload, logger)
		results = append(results, result)
	}

	logger.Info("Completed dispatch", "actions", len(results))

	d.publishOutcome(ctx, workflow, triggerNode, results)

	return results
}

func (d *Dispatcher) executeEdge(
	ctx context.Context,
	workflow *models.Workflow,
	edge *models.Edge,
	payload map[string]string,
	logger *slog.Logger,
) models.ActionResult {
	result := models.ActionResult{
		NodeID:    edge.TargetNodeID,
		Timestamp: time.Now().UTC(),
	}

	node := workflow.NodeByID(edge.TargetNodeID)
	if node == nil {
		result.Status = models.ActionStatusFailed
		result.Error = fmt.Sprintf("edge %s points at missing node %s", edge.ID, edge.TargetNodeID)

		return result
	}

	if !node.IsActionNode() {
		result.Status = models.ActionStatusFailed
		result.Error = fmt.Sprintf("target node %s is not an action node", node.ID)

		return result
	}

	result.ActionType = node.ActionType()

	output, err := d.executeAction(ctx, workflow, node, payload, logger)

	var skip *protocol.SkipError

	switch {
	case err == nil:
		result.Status = models.ActionStatusCompleted
		result.Output = output
	case errors.As(err, &skip):
		result.Status = models.ActionStatusSkipped
		result.Error = skip.Reason

		logger.Info("Action skipped", "node_id", node.ID, "reason", skip.Reason)
	default:
		result.Status = models.ActionStatusFailed
		result.Error = err.Error()

		logger.Error("Action failed", "node_id", node.ID, "error", err)
	}

	return result
}

func (d *Dispatcher) executeAction(
	ctx context.Context,
	workflow *models.Workflow,
	node *models.Node,
	payload map[string]string,
	logger *slog.Logger,
) (output map[string]any, err error) {
	// A panicking handler must not take down the dispatch loop.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action handler panicked: %v", r)
		}
	}()

	config := template.RenderConfig(node.Data, payload)

	handler, err := d.registry.CreateAction(node.ActionType(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create handler for node %s: %w", node.ID, err)
	}

	return handler.Execute(ctx, protocol.Invocation{
		OwnerID:    workflow.OwnerID,
		WorkflowID: workflow.ID,
		NodeID:     node.ID,
		Payload:    payload,
	}, logger)
}

func (d *Dispatcher) publishOutcome(
	ctx context.Context,
	workflow *models.Workflow,
	triggerNode *models.Node,
	results []models.ActionResult,
) {
	if d.publisher == nil {
		return
	}

	event := events.NewDispatchCompleted(workflow, triggerNode, results)

	if err := d.publisher.Publish(ctx, workflow.OwnerID, event); err != nil {
		d.logger.Warn("Failed to publish dispatch outcome",
			"workflow_id", workflow.ID, "error", err)
	}
}
