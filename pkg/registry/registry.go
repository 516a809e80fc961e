// Package registry indexes the action handler capability set by type tag.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/kikukafandi/flowlink/pkg/protocol"
)

type Registry struct {
	logger          *slog.Logger
	actionFactories map[string]protocol.ActionHandlerFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger,
		actionFactories: make(map[string]protocol.ActionHandlerFactory),
	}
}

func (r *Registry) RegisterAction(factory protocol.ActionHandlerFactory) {
	r.actionFactories[factory.ID()] = factory
}

// CreateAction builds a handler for the given action type from its node
// configuration.
func (r *Registry) CreateAction(actionType string, config map[string]any) (protocol.ActionHandler, error) {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return nil, fmt.Errorf("action type '%s' not registered", actionType)
	}

	return factory.Create(config)
}

func (r *Registry) IsActionRegistered(actionType string) bool {
	_, exists := r.actionFactories[actionType]

	return exists
}

// AvailableActions returns the registered action type tags.
func (r *Registry) AvailableActions() []string {
	types := make([]string, 0, len(r.actionFactories))
	for actionType := range r.actionFactories {
		types = append(types, actionType)
	}

	return types
}
