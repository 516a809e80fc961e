// Package file provides a file-backed persistence implementation, one JSON
// document per workflow. Intended for local development and tests.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kikukafandi/flowlink/pkg/models"
	"github.com/kikukafandi/flowlink/pkg/persistence"
)

type Persistence struct {
	root string
	mu   sync.RWMutex
}

func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.loadAll(ctx)
}

func (p *Persistence) WorkflowsByOwner(ctx context.Context, ownerID string) ([]*models.Workflow, error) {
	all, err := p.Workflows(ctx)
	if err != nil {
		return nil, err
	}

	owned := make([]*models.Workflow, 0, len(all))

	for _, workflow := range all {
		if workflow.OwnerID == ownerID {
			owned = append(owned, workflow)
		}
	}

	return owned, nil
}

func (p *Persistence) EnabledWorkflowsByOwner(ctx context.Context, ownerID string) ([]*models.Workflow, error) {
	owned, err := p.WorkflowsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	enabled := make([]*models.Workflow, 0, len(owned))

	for _, workflow := range owned {
		if workflow.Enabled {
			enabled = append(enabled, workflow)
		}
	}

	models.SortWorkflowsByID(enabled)

	return enabled, nil
}

func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.load(id)
}

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(p.workflowsDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode workflow %s: %w", workflow.ID, err)
	}

	if err := os.WriteFile(p.workflowPath(workflow.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write workflow %s: %w", workflow.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.Remove(p.workflowPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return persistence.ErrWorkflowNotFound
	}

	return err
}

func (p *Persistence) loadAll(_ context.Context) ([]*models.Workflow, error) {
	root := os.DirFS(p.workflowsDir())

	files, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(files))

	for _, file := range files {
		workflow, err := p.load(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		if workflow != nil {
			workflows = append(workflows, workflow)
		}
	}

	return workflows, nil
}

func (p *Persistence) load(id string) (*models.Workflow, error) {
	data, err := os.ReadFile(p.workflowPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read workflow %s: %w", id, err)
	}

	var workflow models.Workflow

	if err := json.Unmarshal(data, &workflow); err != nil {
		return nil, fmt.Errorf("failed to decode workflow %s: %w", id, err)
	}

	return &workflow, nil
}

func (p *Persistence) workflowsDir() string {
	return filepath.Join(p.root, "workflows")
}

func (p *Persistence) workflowPath(id string) string {
	return filepath.Join(p.workflowsDir(), id+".json")
}
