package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kikukafandi/flowlink/pkg/models"
	"github.com/kikukafandi/flowlink/pkg/persistence"
)

// WorkflowRepository stores workflow graphs as JSONB documents; the graph is
// read and written as a whole, matching how the editor saves it.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{
		db:     db,
		logger: logger.With("module", "workflow_repository"),
	}
}

const workflowColumns = "id, owner_id, name, enabled, nodes, edges, created_at, updated_at"

func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	return p.workflowRepo.query(ctx,
		"SELECT "+workflowColumns+" FROM workflows ORDER BY id")
}

func (p *Persistence) WorkflowsByOwner(ctx context.Context, ownerID string) ([]*models.Workflow, error) {
	return p.workflowRepo.query(ctx,
		"SELECT "+workflowColumns+" FROM workflows WHERE owner_id = $1 ORDER BY id", ownerID)
}

func (p *Persistence) EnabledWorkflowsByOwner(ctx context.Context, ownerID string) ([]*models.Workflow, error) {
	return p.workflowRepo.query(ctx,
		"SELECT "+workflowColumns+" FROM workflows WHERE owner_id = $1 AND enabled ORDER BY id", ownerID)
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflows, err := p.workflowRepo.query(ctx,
		"SELECT "+workflowColumns+" FROM workflows WHERE id = $1", id)
	if err != nil {
		return nil, err
	}

	if len(workflows) == 0 {
		return nil, nil
	}

	return workflows[0], nil
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	nodes, err := json.Marshal(workflow.Nodes)
	if err != nil {
		return fmt.Errorf("failed to encode nodes for workflow %s: %w", workflow.ID, err)
	}

	edges, err := json.Marshal(workflow.Edges)
	if err != nil {
		return fmt.Errorf("failed to encode edges for workflow %s: %w", workflow.ID, err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO workflows (id, owner_id, name, enabled, nodes, edges, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			name = EXCLUDED.name,
			enabled = EXCLUDED.enabled,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			updated_at = EXCLUDED.updated_at
	`, workflow.ID, workflow.OwnerID, workflow.Name, workflow.Enabled,
		nodes, edges, workflow.CreatedAt, workflow.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	result, err := p.db.ExecContext(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result for workflow %s: %w", id, err)
	}

	if affected == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}

func (r *WorkflowRepository) query(ctx context.Context, query string, args ...any) ([]*models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*models.Workflow

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workflows: %w", err)
	}

	return workflows, nil
}

func scanWorkflow(rows *sql.Rows) (*models.Workflow, error) {
	var (
		workflow models.Workflow
		nodes    []byte
		edges    []byte
	)

	err := rows.Scan(
		&workflow.ID,
		&workflow.OwnerID,
		&workflow.Name,
		&workflow.Enabled,
		&nodes,
		&edges,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan workflow row: %w", err)
	}

	if err := json.Unmarshal(nodes, &workflow.Nodes); err != nil {
		return nil, fmt.Errorf("failed to decode nodes for workflow %s: %w", workflow.ID, err)
	}

	if err := json.Unmarshal(edges, &workflow.Edges); err != nil {
		return nil, fmt.Errorf("failed to decode edges for workflow %s: %w", workflow.ID, err)
	}

	return &workflow, nil
}
