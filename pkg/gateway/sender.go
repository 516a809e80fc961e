package gateway

import (
	"context"
	"fmt"
	"net/http"
)

type sendTextResponse struct {
	Status string `json:"status"`
}

// SendText delivers a text message through the owner's paired instance. It
// implements the message-send capability the send-message action depends on.
func (c *Client) SendText(ctx context.Context, name, destination, text string) (string, error) {
	body := map[string]any{
		"number": destination,
		"text":   text,
	}

	var response sendTextResponse

	err := c.doWithBody(ctx, http.MethodPost, "/message/sendText/"+name, body, &response)
	if err != nil {
		return "", err
	}

	return response.Status, nil
}

// Sender adapts the client to the owner-keyed send capability: the owner id
// resolves to the instance the message goes out on.
type Sender struct {
	client *Client
}

func NewSender(client *Client) *Sender {
	return &Sender{client: client}
}

func (s *Sender) Send(ctx context.Context, ownerID, destination, text string) (string, error) {
	status, err := s.client.SendText(ctx, InstanceName(ownerID), destination, text)
	if err != nil {
		return "", fmt.Errorf("failed to send text via gateway: %w", err)
	}

	return status, nil
}
