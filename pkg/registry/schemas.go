package registry

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateActionConfig checks an action node's configuration against the JSON
// schema declared by its handler factory. Save-time validation uses this so a
// misconfigured node is rejected before it can ever be dispatched.
func (r *Registry) ValidateActionConfig(actionType string, config map[string]any) error {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return fmt.Errorf("action type '%s' not registered", actionType)
	}

	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("failed to validate config for action '%s': %w", actionType, err)
	}

	if !result.Valid() {
		first := result.Errors()[0]

		return fmt.Errorf("invalid config for action '%s': %s", actionType, first.String())
	}

	return nil
}
