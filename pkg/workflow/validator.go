// Package workflow implements graph validation, trigger matching, and action
// dispatch for the automation layer.
package workflow

import (
	"fmt"

	"github.com/kikukafandi/flowlink/pkg/models"
)

// ValidationError points at a single problem in a workflow graph.
type ValidationError struct {
	NodeID  string `json:"node_id,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("node %s: %s", e.NodeID, e.Message)
	}

	return e.Message
}

// requiredActionFields maps each action type to the configuration fields that
// must be non-empty for the node to be executable.
var requiredActionFields = map[string][]string{
	models.ActionTypeSendMessage: {"message"},
	models.ActionTypeCreateTask:  {"title"},
	models.ActionTypeSendEmail:   {"subject", "body"},
}

// Validate checks the structural invariants of a workflow graph and returns
// every violation found. Nodes are scanned left to right, so the first error
// in the list is deterministic for callers that block on it.
func Validate(workflow *models.Workflow) []ValidationError {
	var errs []ValidationError

	if len(workflow.TriggerNodes()) == 0 {
		errs = append(errs, ValidationError{
			Message: "workflow must have at least one trigger node",
		})
	}

	inbound := make(map[string]int, len(workflow.Nodes))
	for _, edge := range workflow.Edges {
		inbound[edge.TargetNodeID]++
	}

	for _, node := range workflow.Nodes {
		switch {
		case node.IsTriggerNode():
			errs = append(errs, validateTrigger(workflow, node)...)
		case node.IsActionNode():
			errs = append(errs, validateAction(node, inbound[node.ID])...)
		default:
			errs = append(errs, ValidationError{
				NodeID:  node.ID,
				Message: fmt.Sprintf("unknown node kind '%s'", node.Kind),
			})
		}
	}

	return errs
}

func validateTrigger(workflow *models.Workflow, node *models.Node) []ValidationError {
	var errs []ValidationError

	if node.Event() == "" {
		errs = append(errs, ValidationError{
			NodeID:  node.ID,
			Message: "trigger node must declare an event name",
		})
	}

	outgoing := workflow.EdgesFrom(node.ID)
	if len(outgoing) == 0 {
		errs = append(errs, ValidationError{
			NodeID:  node.ID,
			Message: "trigger node has no outgoing edges",
		})

		return errs
	}

	for _, edge := range outgoing {
		if workflow.NodeByID(edge.TargetNodeID) == nil {
			errs = append(errs, ValidationError{
				NodeID:  node.ID,
				Message: fmt.Sprintf("edge %s points at missing node %s", edge.ID, edge.TargetNodeID),
			})
		}
	}

	return errs
}

func validateAction(node *models.Node, inboundCount int) []ValidationError {
	var errs []ValidationError

	if inboundCount == 0 {
		errs = append(errs, ValidationError{
			NodeID:  node.ID,
			Message: "action node has no inbound edges",
		})
	}

	actionType := node.ActionType()
	if actionType == "" {
		errs = append(errs, ValidationError{
			NodeID:  node.ID,
			Message: "action node must declare an action type",
		})

		return errs
	}

	for _, field := range requiredActionFields[actionType] {
		value, _ := node.Data[field].(string)
		if value == "" {
			errs = append(errs, ValidationError{
				NodeID:  node.ID,
				Message: fmt.Sprintf("action '%s' requires a non-empty '%s'", actionType, field),
			})
		}
	}

	return errs
}
