// Package events defines the bus payloads carrying automation lifecycle
// notifications between the app and the automation worker.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/kikukafandi/flowlink/pkg/models"
)

type EventType string

// Topic is the bus topic all automation events travel on.
const Topic = "flowlink.automation"

const EventKeyMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// EventReceivedType is published when the app emits an event that the
	// automation layer should evaluate.
	EventReceivedType EventType = "automation.event.received"

	// DispatchCompletedType is published after a trigger's actions ran,
	// carrying per-node outcomes.
	DispatchCompletedType EventType = "automation.dispatch.completed"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	OwnerID   string    `json:"owner_id"`
}

// EventReceived is an application event entering the automation layer, e.g.
// "item.completed" from the catalog.
type EventReceived struct {
	BaseEvent

	Name    string            `json:"name"`
	Payload map[string]string `json:"payload,omitempty"`
}

func (e EventReceived) GetType() EventType {
	return EventReceivedType
}

func NewEventReceived(ownerID, name string, payload map[string]string) *EventReceived {
	return &EventReceived{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventReceivedType,
			Timestamp: time.Now().UTC(),
			OwnerID:   ownerID,
		},
		Name:    name,
		Payload: payload,
	}
}

// DispatchCompleted reports the outcome of one trigger dispatch.
type DispatchCompleted struct {
	BaseEvent

	WorkflowID    string                `json:"workflow_id"`
	TriggerNodeID string                `json:"trigger_node_id"`
	Results       []models.ActionResult `json:"results"`
}

func (e DispatchCompleted) GetType() EventType {
	return DispatchCompletedType
}

func NewDispatchCompleted(workflow *models.Workflow, triggerNode *models.Node, results []models.ActionResult) *DispatchCompleted {
	return &DispatchCompleted{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      DispatchCompletedType,
			Timestamp: time.Now().UTC(),
			OwnerID:   workflow.OwnerID,
		},
		WorkflowID:    workflow.ID,
		TriggerNodeID: triggerNode.ID,
		Results:       results,
	}
}
