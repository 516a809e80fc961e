package services

import (
	"context"
	"log/slog"

	"github.com/kikukafandi/flowlink/pkg/gateway"
	"github.com/kikukafandi/flowlink/pkg/models"
)

// Channel fronts the gateway session manager with the owner checks the HTTP
// layer needs.
type Channel struct {
	manager *gateway.Manager
	logger  *slog.Logger
}

func NewChannel(manager *gateway.Manager, logger *slog.Logger) *Channel {
	return &Channel{
		manager: manager,
		logger:  logger.With("module", "channel_service"),
	}
}

func (c *Channel) RequestConnection(ctx context.Context, ownerID string) (*models.ConnectionStatus, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	return c.manager.RequestConnection(ctx, ownerID)
}

func (c *Channel) Disconnect(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return ErrUnauthorized
	}

	c.manager.Disconnect(ctx, ownerID)

	return nil
}
