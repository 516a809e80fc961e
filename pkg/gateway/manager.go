package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kikukafandi/flowlink/pkg/models"
)

// Pairing lifecycle policy. BootTimeout governs the session, not individual
// HTTP calls; those carry their own request timeout in the client.
const (
	BootDelay   = 5 * time.Second  // wait after instance creation before the first poll
	BootTimeout = 45 * time.Second // total budget before a boot is declared a zombie
	RetryDelay  = 2 * time.Second  // base poll backoff, +1s per prior retry
	MaxRetry    = 5
)

const instancePrefix = "user_"

// InstanceName derives the remote instance name for an owner.
func InstanceName(ownerID string) string {
	return instancePrefix + ownerID
}

// BootPredicate classifies a connect poll as "instance still booting". The
// default reads the gateway's zero-session count marker, which is a
// best-effort heuristic rather than a documented contract, so deployments can
// swap it out.
type BootPredicate func(*ConnectResponse) bool

func DefaultBootPredicate(resp *ConnectResponse) bool {
	return resp.Count == 0 && resp.QR() == "" && !resp.Open()
}

// Manager walks one owner's pairing session through creation, boot-wait, QR
// issuance, retry/backoff, and timeout-triggered reset. "Connected" is always
// re-derived from the remote instance list, never from local state, which
// makes the manager tolerant of process restarts.
type Manager struct {
	api           API
	store         *SessionStore
	clock         clockwork.Clock
	bootPredicate BootPredicate
	logger        *slog.Logger
}

type ManagerOption func(*Manager)

func WithBootPredicate(predicate BootPredicate) ManagerOption {
	return func(m *Manager) {
		m.bootPredicate = predicate
	}
}

func NewManager(api API, store *SessionStore, clock clockwork.Clock, logger *slog.Logger, opts ...ManagerOption) *Manager {
	manager := &Manager{
		api:           api,
		store:         store,
		clock:         clock,
		bootPredicate: DefaultBootPredicate,
		logger:        logger.With("module", "gateway_manager"),
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

// RequestConnection is the single entry point of the pairing state machine.
// It is safe to call repeatedly; the UI polls it until a CONNECTED or
// RESET_REQUIRED status comes back.
func (m *Manager) RequestConnection(ctx context.Context, ownerID string) (*models.ConnectionStatus, error) {
	name := InstanceName(ownerID)
	logger := m.logger.With("owner_id", ownerID)

	instances, err := m.api.FetchInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list gateway instances: %w", err)
	}

	remote := findInstance(instances, name)

	if remote != nil && remote.ConnectionStatus == "open" {
		handle := m.store.Acquire(name)
		handle.Delete()
		handle.Release()

		logger.Info("Channel already connected", "phone", remote.OwnerJID)

		return connectedStatus(remote.OwnerJID), nil
	}

	handle := m.store.Acquire(name)

	session := handle.Session()

	if session == nil {
		return m.startSession(ctx, name, remote, handle, logger)
	}

	now := m.clock.Now()

	if now.Sub(session.CreatedAt) > BootTimeout {
		handle.Delete()
		handle.Release()

		m.forceDeleteRemote(ctx, name, logger)

		logger.Warn("Pairing timed out, session reset", "elapsed", now.Sub(session.CreatedAt))

		return resetStatus("pairing timed out, please retry shortly"), nil
	}

	backoff := RetryDelay + time.Duration(session.RetryCount)*time.Second
	if now.Sub(session.LastAttemptAt) < backoff {
		// Poll suppression: answer from local state without a remote call.
		status := awaitingStatus(session.QRPayload, "waiting for the QR code to be scanned")
		handle.Release()

		return status, nil
	}

	return m.poll(ctx, name, handle, logger)
}

// startSession handles the first request for an owner with no local session:
// either adopt a half-booted remote instance left over from a restart, or
// create a fresh one.
func (m *Manager) startSession(
	ctx context.Context,
	name string,
	remote *Instance,
	handle *SessionHandle,
	logger *slog.Logger,
) (*models.ConnectionStatus, error) {
	now := m.clock.Now()

	if remote != nil {
		handle.Put(&models.ChannelSession{
			OwnerKey:  name,
			State:     models.SessionStateBooting,
			CreatedAt: now,
		})

		logger.Info("Adopted existing remote instance", "status", remote.ConnectionStatus)

		return m.poll(ctx, name, handle, logger)
	}

	response, err := m.api.CreateInstance(ctx, name)
	if err != nil {
		handle.Release()

		return nil, fmt.Errorf("failed to create gateway instance: %w", err)
	}

	if qr := response.QR(); qr != "" {
		handle.Put(&models.ChannelSession{
			OwnerKey:      name,
			State:         models.SessionStateAwaitingScan,
			QRPayload:     NormalizeQR(qr),
			CreatedAt:     now,
			LastAttemptAt: now,
		})

		status := awaitingStatus(NormalizeQR(qr), "scan the QR code with your phone")
		handle.Release()

		logger.Info("Instance created with immediate QR")

		return status, nil
	}

	handle.Put(&models.ChannelSession{
		OwnerKey:  name,
		State:     models.SessionStateBooting,
		CreatedAt: now,
	})

	generation := handle.Generation()
	handle.Release()

	logger.Info("Instance created, waiting for boot")

	m.clock.Sleep(BootDelay)

	handle = m.store.Acquire(name)

	if handle.Generation() != generation || handle.Session() == nil {
		handle.Release()

		return resetStatus("pairing was reset, please retry shortly"), nil
	}

	return m.poll(ctx, name, handle, logger)
}

// poll issues a connect call and interprets the response. The handle is
// released while the call is in flight; a generation check afterwards discards
// the result if the session was reset concurrently.
func (m *Manager) poll(
	ctx context.Context,
	name string,
	handle *SessionHandle,
	logger *slog.Logger,
) (*models.ConnectionStatus, error) {
	session := handle.Session()

	previousRetry := session.RetryCount
	previousAttempt := session.LastAttemptAt

	session.RetryCount++
	session.LastAttemptAt = m.clock.Now()

	generation := handle.Generation()
	handle.Release()

	response, err := m.api.ConnectInstance(ctx, name)

	handle = m.store.Acquire(name)
	defer handle.Release()

	if handle.Generation() != generation || handle.Session() == nil {
		logger.Info("Discarding stale poll result")

		return resetStatus("pairing was reset, please retry shortly"), nil
	}

	session = handle.Session()

	if err != nil {
		// Roll back so an immediate retry is safe.
		session.RetryCount = previousRetry
		session.LastAttemptAt = previousAttempt

		return nil, fmt.Errorf("failed to poll gateway instance: %w", err)
	}

	switch {
	case response.Open():
		phone := response.Instance.OwnerJID

		handle.Delete()

		logger.Info("Channel connected", "phone", phone)

		return connectedStatus(phone), nil

	case response.QR() != "":
		session.State = models.SessionStateAwaitingScan
		session.QRPayload = NormalizeQR(response.QR())

		return awaitingStatus(session.QRPayload, "scan the QR code with your phone"), nil

	case m.bootPredicate(response):
		if session.RetryCount > MaxRetry {
			handle.Delete()

			m.forceDeleteRemote(ctx, name, logger)

			logger.Warn("Boot retries exhausted, session reset", "retries", session.RetryCount)

			return resetStatus("channel instance never finished booting, please retry shortly"), nil
		}

		session.State = models.SessionStateBooting

		return awaitingStatus("", "channel instance is still booting, hold on"), nil

	default:
		return awaitingStatus(session.QRPayload, "waiting for the gateway"), nil
	}
}

// Disconnect clears the owner's local session and best-effort tears down the
// remote instance. Cleanup failures are logged, not returned: the goal is
// local-state cleanup, and an orphaned remote instance only costs an operator
// a log line.
func (m *Manager) Disconnect(ctx context.Context, ownerID string) {
	name := InstanceName(ownerID)
	logger := m.logger.With("owner_id", ownerID)

	handle := m.store.Acquire(name)
	handle.Delete()
	handle.Release()

	if err := m.api.LogoutInstance(ctx, name); err != nil {
		logger.Warn("Failed to log out remote instance", "error", err)
	}

	if err := m.api.DeleteInstance(ctx, name); err != nil {
		logger.Warn("Failed to delete remote instance", "error", err)
	}

	logger.Info("Channel disconnected")
}

func (m *Manager) forceDeleteRemote(ctx context.Context, name string, logger *slog.Logger) {
	if err := m.api.DeleteInstance(ctx, name); err != nil {
		logger.Warn("Failed to delete zombie instance", "error", err)
	}
}

func findInstance(instances []Instance, name string) *Instance {
	for i := range instances {
		if instances[i].Name == name {
			return &instances[i]
		}
	}

	return nil
}

func connectedStatus(phone string) *models.ConnectionStatus {
	return &models.ConnectionStatus{
		State: models.ConnectionStateConnected,
		Phone: phone,
	}
}

func awaitingStatus(qr, message string) *models.ConnectionStatus {
	return &models.ConnectionStatus{
		State:   models.ConnectionStateAwaitingScan,
		QR:      qr,
		Message: message,
	}
}

func resetStatus(message string) *models.ConnectionStatus {
	return &models.ConnectionStatus{
		State:   models.ConnectionStateResetRequired,
		Message: message,
	}
}
