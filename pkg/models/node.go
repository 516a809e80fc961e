package models

// NodeKind represents the role of a node in the automation graph.
type NodeKind string

const (
	NodeKindTrigger NodeKind = "trigger" // "when event X happens"
	NodeKindAction  NodeKind = "action"  // "do Y"
)

// Built-in action types. Adding a capability means registering a new handler
// factory; the type tag itself is just the registry key.
const (
	ActionTypeSendMessage = "send_message"
	ActionTypeCreateTask  = "create_task"
	ActionTypeSendEmail   = "send_email"
)

// Node is a single vertex of a workflow graph. Trigger nodes carry the event
// name they react to in Data["event"]; action nodes carry Data["action_type"]
// plus type-specific parameters (message template, subject, ...).
type Node struct {
	ID   string         `json:"id"   validate:"required"`
	Kind NodeKind       `json:"kind" validate:"required"`
	Data map[string]any `json:"data"`
}

func (n *Node) IsTriggerNode() bool {
	return n.Kind == NodeKindTrigger
}

func (n *Node) IsActionNode() bool {
	return n.Kind == NodeKindAction
}

// Event returns the event name a trigger node reacts to, or "".
func (n *Node) Event() string {
	return n.stringData("event")
}

// ActionType returns the capability tag of an action node, or "".
func (n *Node) ActionType() string {
	return n.stringData("action_type")
}

func (n *Node) stringData(key string) string {
	if n.Data == nil {
		return ""
	}

	value, _ := n.Data[key].(string)

	return value
}

// Edge is a directed connection between two nodes of the same workflow,
// trigger→action or action→action.
type Edge struct {
	ID           string `json:"id"`
	SourceNodeID string `json:"source_node_id" validate:"required"`
	TargetNodeID string `json:"target_node_id" validate:"required"`
}
