// Package sendmessage delivers a templated message through the paired
// messaging channel.
package sendmessage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kikukafandi/flowlink/pkg/models"
	"github.com/kikukafandi/flowlink/pkg/protocol"
)

// Channel reports whether the owner's messaging channel is paired, pairing it
// transparently when needed.
type Channel interface {
	RequestConnection(ctx context.Context, ownerID string) (*models.ConnectionStatus, error)
}

// Sender is the message-send capability, an external collaborator.
type Sender interface {
	Send(ctx context.Context, ownerID, destination, text string) (string, error)
}

type ActionFactory struct {
	channel Channel
	sender  Sender
}

func NewActionFactory(channel Channel, sender Sender) *ActionFactory {
	return &ActionFactory{
		channel: channel,
		sender:  sender,
	}
}

func (*ActionFactory) ID() string {
	return models.ActionTypeSendMessage
}

func (f *ActionFactory) Create(config map[string]any) (protocol.ActionHandler, error) {
	if config == nil {
		config = map[string]any{}
	}

	message, _ := config["message"].(string)
	destination, _ := config["destination"].(string)

	return &Action{
		Message:     message,
		Destination: destination,
		channel:     f.channel,
		sender:      f.sender,
	}, nil
}

func (*ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Message template, {field} placeholders resolve against the event payload.",
			},
			"destination": map[string]any{
				"type":        "string",
				"description": "Destination address on the messaging channel.",
			},
		},
		"required": []any{"message"},
	}
}

type Action struct {
	Message     string
	Destination string

	channel Channel
	sender  Sender
}

// Execute sends the resolved message. A missing destination or an unpaired
// channel is a skip, not a failure; the pairing flow has its own retry policy
// and this handler never stacks another one on top.
func (a *Action) Execute(ctx context.Context, invocation protocol.Invocation, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", models.ActionTypeSendMessage)

	if a.Destination == "" {
		return nil, protocol.Skip("no destination address configured")
	}

	status, err := a.channel.RequestConnection(ctx, invocation.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check channel session: %w", err)
	}

	if status.State != models.ConnectionStateConnected {
		return nil, protocol.Skip("messaging channel is not paired")
	}

	sendStatus, err := a.sender.Send(ctx, invocation.OwnerID, a.Destination, a.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	logger.Info("Message sent", "destination", a.Destination, "status", sendStatus)

	return map[string]any{
		"destination": a.Destination,
		"status":      sendStatus,
	}, nil
}
