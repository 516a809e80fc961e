// Package protocol defines the contracts between the dispatcher and the
// pluggable action handler capability set.
package protocol

import (
	"context"
	"log/slog"
)

// Invocation carries the context of a single action node execution.
type Invocation struct {
	OwnerID    string
	WorkflowID string
	NodeID     string

	// Payload is the triggering event payload, also used for template
	// substitution before the handler sees its config.
	Payload map[string]string
}

// ActionHandler executes one capability with the already template-resolved
// node configuration it was created from.
type ActionHandler interface {
	Execute(ctx context.Context, invocation Invocation, logger *slog.Logger) (map[string]any, error)
}

// ActionHandlerFactory creates handlers for one action type. Registering a
// factory is how a new capability enters the system; dispatch never switches
// on the type tag directly.
type ActionHandlerFactory interface {
	ID() string
	Create(config map[string]any) (ActionHandler, error)
	Schema() map[string]any
}
