// Package models defines the core domain models for the automation layer.
package models

import (
	"sort"
	"time"
)

// Workflow is a user-authored automation graph. It is owned by exactly one
// user and only executable while Enabled.
type Workflow struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"   validate:"required"`
	Name      string    `json:"name"       validate:"required,min=3"`
	Nodes     []*Node   `json:"nodes"`
	Edges     []*Edge   `json:"edges"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NodeByID returns the node with the given id, or nil. Node ids are unique
// within a workflow, not globally.
func (w *Workflow) NodeByID(id string) *Node {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// TriggerNodes returns the workflow's trigger nodes in declaration order.
func (w *Workflow) TriggerNodes() []*Node {
	var triggers []*Node

	for _, node := range w.Nodes {
		if node.IsTriggerNode() {
			triggers = append(triggers, node)
		}
	}

	return triggers
}

// EdgesFrom returns all edges whose source is the given node.
func (w *Workflow) EdgesFrom(nodeID string) []*Edge {
	var edges []*Edge

	for _, edge := range w.Edges {
		if edge.SourceNodeID == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// SortWorkflowsByID orders workflows by id so that matching and dispatch are
// deterministic within a single call.
func SortWorkflowsByID(workflows []*Workflow) {
	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].ID < workflows[j].ID
	})
}
