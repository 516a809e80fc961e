package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kikukafandi/flowlink/pkg/models"
	"github.com/kikukafandi/flowlink/pkg/persistence"
)

// TriggerMatcher finds the trigger nodes that react to an application event.
type TriggerMatcher struct {
	persistence persistence.Persistence
	logger      *slog.Logger
}

// TriggerMatch pairs a matched trigger node with the workflow that owns it.
type TriggerMatch struct {
	Workflow    *models.Workflow
	TriggerNode *models.Node
}

func NewTriggerMatcher(persistence persistence.Persistence, logger *slog.Logger) *TriggerMatcher {
	return &TriggerMatcher{
		persistence: persistence,
		logger:      logger.With("module", "trigger_matcher"),
	}
}

// Match returns every enabled workflow of the owner containing a trigger node
// whose event equals eventName. Multiple workflows, and multiple triggers
// within one workflow, may match; all of them are returned. Workflows are
// iterated in id order so results are deterministic within a call.
func (tm *TriggerMatcher) Match(ctx context.Context, ownerID, eventName string) ([]TriggerMatch, error) {
	workflows, err := tm.persistence.EnabledWorkflowsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load enabled workflows for owner %s: %w", ownerID, err)
	}

	models.SortWorkflowsByID(workflows)

	var matches []TriggerMatch

	for _, workflow := range workflows {
		for _, node := range workflow.Nodes {
			if !node.IsTriggerNode() || node.Event() != eventName {
				continue
			}

			matches = append(matches, TriggerMatch{
				Workflow:    workflow,
				TriggerNode: node,
			})

			tm.logger.Debug("Found matching trigger",
				"workflow_id", workflow.ID,
				"node_id", node.ID,
				"event", eventName)
		}
	}

	tm.logger.Info("Completed trigger matching",
		"owner_id", ownerID,
		"event", eventName,
		"matches_found", len(matches))

	return matches, nil
}
