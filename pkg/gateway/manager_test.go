package gateway

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikukafandi/flowlink/pkg/models"
)

// fakeGateway implements API with canned responses and call counters.
type fakeGateway struct {
	instances  []Instance
	fetchErr   error
	createResp *CreateResponse
	createErr  error
	connectFn  func(call int) (*ConnectResponse, error)

	createCalls  int
	connectCalls int
	logoutCalls  int
	deleteCalls  int

	logoutErr error
	deleteErr error
}

func (f *fakeGateway) FetchInstances(_ context.Context) ([]Instance, error) {
	return f.instances, f.fetchErr
}

func (f *fakeGateway) CreateInstance(_ context.Context, _ string) (*CreateResponse, error) {
	f.createCalls++

	return f.createResp, f.createErr
}

func (f *fakeGateway) ConnectInstance(_ context.Context, _ string) (*ConnectResponse, error) {
	f.connectCalls++

	return f.connectFn(f.connectCalls)
}

func (f *fakeGateway) LogoutInstance(_ context.Context, _ string) error {
	f.logoutCalls++

	return f.logoutErr
}

func (f *fakeGateway) DeleteInstance(_ context.Context, _ string) error {
	f.deleteCalls++

	return f.deleteErr
}

func managerLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func bootingResponse() (*ConnectResponse, error) {
	return &ConnectResponse{Count: 0}, nil
}

func seedSession(store *SessionStore, session *models.ChannelSession) {
	handle := store.Acquire(session.OwnerKey)
	handle.Put(session)
	handle.Release()
}

func storedSession(store *SessionStore, ownerKey string) *models.ChannelSession {
	handle := store.Acquire(ownerKey)
	defer handle.Release()

	return handle.Session()
}

func TestInstanceName(t *testing.T) {
	assert.Equal(t, "user_42", InstanceName("42"))
}

func TestManager_RequestConnection_AlreadyOpenRemotely(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)
	api := &fakeGateway{
		instances: []Instance{
			{Name: "user_1", ConnectionStatus: "open", OwnerJID: "5511999999999@s.whatsapp.net"},
		},
	}
	manager := NewManager(api, store, clock, managerLogger())

	// A stale local session must not shadow the remote truth.
	seedSession(store, &models.ChannelSession{
		OwnerKey:  "user_1",
		State:     models.SessionStateAwaitingScan,
		CreatedAt: clock.Now(),
	})

	status, err := manager.RequestConnection(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, models.ConnectionStateConnected, status.State)
	assert.Equal(t, "5511999999999@s.whatsapp.net", status.Phone)
	assert.Nil(t, storedSession(store, "user_1"))
	assert.Zero(t, api.connectCalls)
}

func TestManager_RequestConnection_CreateWithImmediateQR(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)
	api := &fakeGateway{
		createResp: &CreateResponse{Base64: "qr-payload"},
	}
	manager := NewManager(api, store, clock, managerLogger())

	status, err := manager.RequestConnection(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, models.ConnectionStateAwaitingScan, status.State)
	assert.Equal(t, "data:image/png;base64,qr-payload", status.QR)
	assert.Equal(t, 1, api.createCalls)

	session := storedSession(store, "user_1")
	require.NotNil(t, session)
	assert.Equal(t, models.SessionStateAwaitingScan, session.State)
	assert.Equal(t, "data:image/png;base64,qr-payload", session.QRPayload)
}

func TestManager_RequestConnection_CreateThenBootWait(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)
	api := &fakeGateway{
		createResp: &CreateResponse{},
		connectFn: func(int) (*ConnectResponse, error) {
			return bootingResponse()
		},
	}
	manager := NewManager(api, store, clock, managerLogger())

	type outcome struct {
		status *models.ConnectionStatus
		err    error
	}

	done := make(chan outcome, 1)

	go func() {
		status, err := manager.RequestConnection(context.Background(), "1")
		done <- outcome{status: status, err: err}
	}()

	// The manager sleeps between creation and the first poll.
	clock.BlockUntil(1)
	clock.Advance(BootDelay)

	result := <-done
	require.NoError(t, result.err)

	assert.Equal(t, models.ConnectionStateAwaitingScan, result.status.State)
	assert.Empty(t, result.status.QR)
	assert.Contains(t, result.status.Message, "still booting")
	assert.Equal(t, 1, api.connectCalls)

	session := storedSession(store, "user_1")
	require.NotNil(t, session)
	assert.Equal(t, models.SessionStateBooting, session.State)
	assert.Equal(t, 1, session.RetryCount)
}

func TestManager_RequestConnection_AdoptsExistingRemoteInstance(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)
	api := &fakeGateway{
		instances: []Instance{{Name: "user_1", ConnectionStatus: "connecting"}},
		connectFn: func(int) (*ConnectResponse, error) {
			return &ConnectResponse{Count: 1, Base64: "qr-after-boot"}, nil
		},
	}
	manager := NewManager(api, store, clock, managerLogger())

	status, err := manager.RequestConnection(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, models.ConnectionStateAwaitingScan, status.State)
	assert.Equal(t, "data:image/png;base64,qr-after-boot", status.QR)
	assert.Zero(t, api.createCalls)
}

func TestManager_RequestConnection_PollFindsOpen(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)
	api := &fakeGateway{
		connectFn: func(int) (*ConnectResponse, error) {
			return &ConnectResponse{
				Instance: &InstanceState{State: "open", OwnerJID: "5511888@s.whatsapp.net"},
			}, nil
		},
	}
	manager := NewManager(api, store, clock, managerLogger())

	seedSession(store, &models.ChannelSession{
		OwnerKey:  "user_1",
		State:     models.SessionStateAwaitingScan,
		CreatedAt: clock.Now(),
	})

	status, err := manager.RequestConnection(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, models.ConnectionStateConnected, status.State)
	assert.Equal(t, "5511888@s.whatsapp.net", status.Phone)
	assert.Nil(t, storedSession(store, "user_1"))
}

func TestManager_RequestConnection_PollSuppressedWithinBackoff(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)
	api := &fakeGateway{
		connectFn: func(int) (*ConnectResponse, error) {
			return bootingResponse()
		},
	}
	manager := NewManager(api, store, clock, managerLogger())

	seedSession(store, &models.ChannelSession{
		OwnerKey:      "user_1",
		State:         models.SessionStateAwaitingScan,
		QRPayload:     "data:image/png;base64,current-qr",
		CreatedAt:     clock.Now(),
		LastAttemptAt: clock.Now(),
	})

	status, err := manager.RequestConnection(context.Background(), "1")
	require.NoError(t, err)

	// Answered from local state, no remote poll.
	assert.Equal(t, models.ConnectionStateAwaitingScan, status.State)
	assert.Equal(t, "data:image/png;base64,current-qr", status.QR)
	assert.Zero(t, api.connectCalls)
}

func TestManager_RequestConnection_BackoffGrowsWithRetries(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)
	api := &fakeGateway{
		connectFn: func(int) (*ConnectResponse, error) {
			return bootingResponse()
		},
	}
	manager := NewManager(api, store, clock, managerLogger())

	seedSession(store, &models.ChannelSession{
		OwnerKey:      "user_1",
		State:         models.SessionStateBooting,
		CreatedAt:     clock.Now(),
		LastAttemptAt: clock.Now(),
		RetryCount:    2,
	})

	// The base delay is no longer enough once retries accumulated.
	clock.Advance(RetryDelay + time.Second)

	_, err := manager.RequestConnection(context.Background(), "1")
	require.NoError(t, err)
	assert.Zero(t, api.connectCalls)

	clock.Advance(2 * time.Second)

	_, err = manager.RequestConnection(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 1, api.connectCalls)
}

func TestManager_RequestConnection_RetriesExhaustedResetsSession(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)
	api := &fakeGateway{
		connectFn: func(int) (*ConnectResponse, error) {
			return bootingResponse()
		},
	}
	manager := NewManager(api, store, clock, managerLogger())

	seedSession(store, &models.ChannelSession{
		OwnerKey:      "user_1",
		State:         models.SessionStateBooting,
		CreatedAt:     clock.Now(),
		LastAttemptAt: clock.Now().Add(-time.Minute),
		RetryCount:    MaxRetry,
	})

	status, err := manager.RequestConnection(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, models.ConnectionStateResetRequired, status.State)
	assert.Nil(t, storedSession(store, "user_1"))
	assert.Equal(t, 1, api.deleteCalls)
}

func TestManager_RequestConnection_SixthPollResets(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)
	api := &fakeGateway{
		connectFn: func(int) (*ConnectResponse, error) {
			return bootingResponse()
		},
	}
	manager := NewManager(api, store, clock, managerLogger())

	seedSession(store, &models.ChannelSession{
		OwnerKey:  "user_1",
		State:     models.SessionStateBooting,
		CreatedAt: clock.Now(),
	})

	// Five polls against a never-booting instance stay in the waiting state.
	for i := 0; i < MaxRetry; i++ {
		status, err := manager.RequestConnection(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, models.ConnectionStateAwaitingScan, status.State)

		clock.Advance(RetryDelay + time.Duration(i+1)*time.Second + time.Second)
	}

	status, err := manager.RequestConnection(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, models.ConnectionStateResetRequired, status.State)
	assert.Equal(t, MaxRetry+1, api.connectCalls)
	assert.Nil(t, storedSession(store, "user_1"))
}

func TestManager_RequestConnection_BootTimeoutResets(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)
	api := &fakeGateway{}
	manager := NewManager(api, store, clock, managerLogger())

	seedSession(store, &models.ChannelSession{
		OwnerKey:      "user_1",
		State:         models.SessionStateAwaitingScan,
		CreatedAt:     clock.Now(),
		LastAttemptAt: clock.Now(),
	})

	clock.Advance(BootTimeout + time.Second)

	status, err := manager.RequestConnection(context.Background(), "1")
	require.NoError(t, err)

	// Timeout wins regardless of retry budget left.
	assert.Equal(t, models.ConnectionStateResetRequired, status.State)
	assert.Nil(t, storedSession(store, "user_1"))
	assert.Equal(t, 1, api.deleteCalls)
	assert.Zero(t, api.connectCalls)
}

func TestManager_RequestConnection_PollErrorLeavesStateUntouched(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)
	api := &fakeGateway{
		connectFn: func(int) (*ConnectResponse, error) {
			return nil, ErrUnreachable
		},
	}
	manager := NewManager(api, store, clock, managerLogger())

	lastAttempt := clock.Now().Add(-time.Minute)

	seedSession(store, &models.ChannelSession{
		OwnerKey:      "user_1",
		State:         models.SessionStateBooting,
		CreatedAt:     clock.Now(),
		LastAttemptAt: lastAttempt,
		RetryCount:    2,
	})

	_, err := manager.RequestConnection(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))

	// Retry bookkeeping rolled back, so an immediate retry is safe.
	session := storedSession(store, "user_1")
	require.NotNil(t, session)
	assert.Equal(t, 2, session.RetryCount)
	assert.Equal(t, lastAttempt, session.LastAttemptAt)
}

func TestManager_RequestConnection_FetchErrorFailsClosed(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)
	api := &fakeGateway{fetchErr: ErrUnreachable}
	manager := NewManager(api, store, clock, managerLogger())

	status, err := manager.RequestConnection(context.Background(), "1")

	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
	assert.Nil(t, status)
}

func TestManager_RequestConnection_CustomBootPredicate(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)
	api := &fakeGateway{
		connectFn: func(int) (*ConnectResponse, error) {
			return &ConnectResponse{Count: 3}, nil
		},
	}

	// Treat every QR-less response as still booting, ignoring the count.
	predicate := func(resp *ConnectResponse) bool {
		return resp.QR() == "" && !resp.Open()
	}

	manager := NewManager(api, store, clock, managerLogger(), WithBootPredicate(predicate))

	seedSession(store, &models.ChannelSession{
		OwnerKey:  "user_1",
		State:     models.SessionStateBooting,
		CreatedAt: clock.Now(),
	})

	status, err := manager.RequestConnection(context.Background(), "1")
	require.NoError(t, err)

	assert.Contains(t, status.Message, "still booting")
}

func TestManager_Disconnect(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)
	api := &fakeGateway{}
	manager := NewManager(api, store, clock, managerLogger())

	seedSession(store, &models.ChannelSession{
		OwnerKey:  "user_1",
		State:     models.SessionStateAwaitingScan,
		CreatedAt: clock.Now(),
	})

	manager.Disconnect(context.Background(), "1")

	assert.Nil(t, storedSession(store, "user_1"))
	assert.Equal(t, 1, api.logoutCalls)
	assert.Equal(t, 1, api.deleteCalls)
}

func TestManager_Disconnect_RemoteFailuresAreBestEffort(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)
	api := &fakeGateway{
		logoutErr: errors.New("logout failed"),
		deleteErr: errors.New("delete failed"),
	}
	manager := NewManager(api, store, clock, managerLogger())

	seedSession(store, &models.ChannelSession{
		OwnerKey:  "user_1",
		State:     models.SessionStateAwaitingScan,
		CreatedAt: clock.Now(),
	})

	manager.Disconnect(context.Background(), "1")

	// Local state is gone even though remote cleanup failed.
	assert.Nil(t, storedSession(store, "user_1"))
	assert.Equal(t, 1, api.logoutCalls)
	assert.Equal(t, 1, api.deleteCalls)
}

func TestDefaultBootPredicate(t *testing.T) {
	assert.True(t, DefaultBootPredicate(&ConnectResponse{Count: 0}))
	assert.False(t, DefaultBootPredicate(&ConnectResponse{Count: 1}))
	assert.False(t, DefaultBootPredicate(&ConnectResponse{Count: 0, Base64: "qr"}))
	assert.False(t, DefaultBootPredicate(&ConnectResponse{
		Count:    0,
		Instance: &InstanceState{State: "open"},
	}))
}
