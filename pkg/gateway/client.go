// Package gateway drives the channel-pairing session against the external
// messaging gateway: the HTTP client, the keyed session store, and the state
// machine that walks a session from creation through QR scan to connected.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// ErrUnreachable is returned for network failures and remote 5xx responses.
// Callers can retry immediately: no session state was mutated.
var ErrUnreachable = errors.New("gateway unreachable")

func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// Instance is one remote messaging instance as listed by the gateway.
type Instance struct {
	Name             string `json:"name"`
	ConnectionStatus string `json:"connectionStatus"`
	OwnerJID         string `json:"ownerJid"`
}

// CreateResponse is the gateway's answer to an instance creation request. The
// QR may be embedded immediately, either raw or already as a data URI.
type CreateResponse struct {
	Base64 string  `json:"base64"`
	QRCode *QRCode `json:"qrcode"`
}

// QR returns whichever QR payload the response carries, or "".
func (r *CreateResponse) QR() string {
	if r.Base64 != "" {
		return r.Base64
	}

	if r.QRCode != nil {
		return r.QRCode.Base64
	}

	return ""
}

type QRCode struct {
	Base64 string `json:"base64"`
}

// ConnectResponse is the gateway's answer to a connect poll.
type ConnectResponse struct {
	Count    int            `json:"count"`
	Base64   string         `json:"base64"`
	QRCode   *QRCode        `json:"qrcode"`
	Instance *InstanceState `json:"instance"`
}

func (r *ConnectResponse) QR() string {
	if r.Base64 != "" {
		return r.Base64
	}

	if r.QRCode != nil {
		return r.QRCode.Base64
	}

	return ""
}

// Open reports whether the poll says the instance already has a live
// connection.
func (r *ConnectResponse) Open() bool {
	return r.Instance != nil && r.Instance.State == "open"
}

type InstanceState struct {
	State    string `json:"state"`
	OwnerJID string `json:"ownerJid"`
}

// API is the gateway surface the session manager depends on. Tests inject a
// fake.
type API interface {
	FetchInstances(ctx context.Context) ([]Instance, error)
	CreateInstance(ctx context.Context, name string) (*CreateResponse, error)
	ConnectInstance(ctx context.Context, name string) (*ConnectResponse, error)
	LogoutInstance(ctx context.Context, name string) error
	DeleteInstance(ctx context.Context, name string) error
}

const requestTimeout = 15 * time.Second

// Client is the HTTP implementation of API. Every call carries the static API
// key header and runs behind a circuit breaker so a dead gateway fails fast
// instead of tying up request handlers.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "messaging-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		breaker:    breaker,
		logger:     logger.With("module", "gateway_client"),
	}
}

func (c *Client) FetchInstances(ctx context.Context) ([]Instance, error) {
	var instances []Instance

	err := c.do(ctx, http.MethodGet, "/instance/fetchInstances", &instances)
	if err != nil {
		return nil, err
	}

	return instances, nil
}

func (c *Client) CreateInstance(ctx context.Context, name string) (*CreateResponse, error) {
	body := map[string]any{
		"instanceName": name,
		"integration":  "WHATSAPP-BAILEYS",
		"qrcode":       true,
	}

	var response CreateResponse

	err := c.doWithBody(ctx, http.MethodPost, "/instance/create", body, &response)
	if err != nil {
		return nil, err
	}

	return &response, nil
}

func (c *Client) ConnectInstance(ctx context.Context, name string) (*ConnectResponse, error) {
	var response ConnectResponse

	err := c.do(ctx, http.MethodGet, "/instance/connect/"+name, &response)
	if err != nil {
		return nil, err
	}

	return &response, nil
}

func (c *Client) LogoutInstance(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/instance/logout/"+name, nil)
}

func (c *Client) DeleteInstance(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/instance/delete/"+name, nil)
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	return c.doWithBody(ctx, method, path, nil, out)
}

func (c *Client) doWithBody(ctx context.Context, method, path string, body any, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, body, out)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: circuit open", ErrUnreachable)
		}

		return err
	}

	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var bodyReader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}

		bodyReader = strings.NewReader(string(encoded))
	}

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create gateway request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: gateway returned status %d", ErrUnreachable, resp.StatusCode)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("gateway request %s %s failed with status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return nil
}
