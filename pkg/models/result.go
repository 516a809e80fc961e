package models

import "time"

// ActionStatus is the per-node outcome of a dispatch.
type ActionStatus string

const (
	ActionStatusCompleted ActionStatus = "completed"
	ActionStatusFailed    ActionStatus = "failed"
	ActionStatusSkipped   ActionStatus = "skipped" // missing configuration, informational
)

// ActionResult records the outcome of a single action node invocation. A
// failed result never aborts sibling actions or other matched workflows.
type ActionResult struct {
	NodeID     string         `json:"node_id"`
	ActionType string         `json:"action_type"`
	Status     ActionStatus   `json:"status"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// ConnectionState tags the public result of a connection request.
type ConnectionState string

const (
	ConnectionStateConnected     ConnectionState = "connected"
	ConnectionStateAwaitingScan  ConnectionState = "awaiting_scan"
	ConnectionStateResetRequired ConnectionState = "reset_required"
	ConnectionStateError         ConnectionState = "error"
)

// ConnectionStatus is what the session manager reports back to callers.
type ConnectionStatus struct {
	State   ConnectionState `json:"state"`
	Phone   string          `json:"phone,omitempty"`
	QR      string          `json:"qr,omitempty"`
	Message string          `json:"message,omitempty"`
}
