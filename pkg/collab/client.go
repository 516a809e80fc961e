// Package collab holds thin HTTP clients for the app-internal services the
// action handlers delegate to (task list, transactional email).
package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client talks to the app's internal API on behalf of the automation layer.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With("module", "collab_client"),
	}
}

type createTaskResponse struct {
	ID string `json:"id"`
}

// CreateTask adds a task to the owner's list and returns the new task id.
func (c *Client) CreateTask(ctx context.Context, ownerID, title, notes string) (string, error) {
	body := map[string]any{
		"owner_id": ownerID,
		"title":    title,
		"notes":    notes,
	}

	var response createTaskResponse

	if err := c.post(ctx, "/internal/tasks", body, &response); err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}

	return response.ID, nil
}

// SendEmail queues a transactional email.
func (c *Client) SendEmail(ctx context.Context, to, subject, body string) error {
	payload := map[string]any{
		"to":      to,
		"subject": subject,
		"body":    body,
	}

	if err := c.post(ctx, "/internal/emails", payload, nil); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(string(encoded)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request %s failed with status %d", path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	return json.Unmarshal(payload, out)
}
