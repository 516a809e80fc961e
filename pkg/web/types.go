package web

import "github.com/kikukafandi/flowlink/pkg/models"

// SaveWorkflowRequest is the editor's save payload.
type SaveWorkflowRequest struct {
	Name    string         `json:"name"    validate:"required,min=3"`
	Nodes   []*models.Node `json:"nodes"`
	Edges   []*models.Edge `json:"edges"`
	Enabled bool           `json:"enabled"`
}

// EmitEventRequest is an application event entering the automation layer.
type EmitEventRequest struct {
	Name    string            `json:"name" validate:"required"`
	Payload map[string]string `json:"payload"`
}

// TestRunRequest carries a caller-supplied payload for a workflow test run.
type TestRunRequest struct {
	Payload map[string]string `json:"payload"`
}
