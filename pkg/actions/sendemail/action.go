// Package sendemail delivers a templated email to a configured recipient.
package sendemail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kikukafandi/flowlink/pkg/models"
	"github.com/kikukafandi/flowlink/pkg/protocol"
)

// Mailer is the email capability, an external collaborator.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type ActionFactory struct {
	mailer Mailer
}

func NewActionFactory(mailer Mailer) *ActionFactory {
	return &ActionFactory{mailer: mailer}
}

func (*ActionFactory) ID() string {
	return models.ActionTypeSendEmail
}

func (f *ActionFactory) Create(config map[string]any) (protocol.ActionHandler, error) {
	if config == nil {
		config = map[string]any{}
	}

	to, _ := config["to"].(string)
	subject, _ := config["subject"].(string)
	body, _ := config["body"].(string)

	return &Action{
		To:      to,
		Subject: subject,
		Body:    body,
		mailer:  f.mailer,
	}, nil
}

func (*ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to": map[string]any{
				"type":        "string",
				"description": "Recipient email address.",
			},
			"subject": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Subject template.",
			},
			"body": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Body template.",
			},
		},
		"required": []any{"subject", "body"},
	}
}

type Action struct {
	To      string
	Subject string
	Body    string

	mailer Mailer
}

func (a *Action) Execute(ctx context.Context, invocation protocol.Invocation, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", models.ActionTypeSendEmail)

	if a.To == "" {
		return nil, protocol.Skip("no recipient address configured")
	}

	if err := a.mailer.SendEmail(ctx, a.To, a.Subject, a.Body); err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info("Email sent", "to", a.To)

	return map[string]any{
		"to":      a.To,
		"subject": a.Subject,
	}, nil
}
