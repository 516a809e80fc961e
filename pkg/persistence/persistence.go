// Package persistence provides the storage abstraction for workflows.
package persistence

import (
	"context"

	"github.com/kikukafandi/flowlink/pkg/models"
)

type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowsByOwner(ctx context.Context, ownerID string) ([]*models.Workflow, error)

	// EnabledWorkflowsByOwner is the matcher's read path: only enabled
	// workflows of the given owner, sorted by id.
	EnabledWorkflowsByOwner(ctx context.Context, ownerID string) ([]*models.Workflow, error)

	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
