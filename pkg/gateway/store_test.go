package gateway

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikukafandi/flowlink/pkg/models"
)

func TestSessionStore_PutAndGet(t *testing.T) {
	store := NewSessionStore(clockwork.NewFakeClock())

	handle := store.Acquire("user_1")
	assert.Nil(t, handle.Session())

	handle.Put(&models.ChannelSession{OwnerKey: "user_1", State: models.SessionStateBooting})
	handle.Release()

	handle = store.Acquire("user_1")
	defer handle.Release()

	require.NotNil(t, handle.Session())
	assert.Equal(t, models.SessionStateBooting, handle.Session().State)
}

func TestSessionStore_DeleteBumpsGeneration(t *testing.T) {
	store := NewSessionStore(clockwork.NewFakeClock())

	handle := store.Acquire("user_1")
	handle.Put(&models.ChannelSession{OwnerKey: "user_1"})

	before := handle.Generation()
	handle.Delete()

	assert.Nil(t, handle.Session())
	assert.Equal(t, before+1, handle.Generation())
	handle.Release()
}

func TestSessionStore_DifferentOwnersDoNotBlock(t *testing.T) {
	store := NewSessionStore(clockwork.NewFakeClock())

	first := store.Acquire("user_1")
	defer first.Release()

	acquired := make(chan struct{})

	go func() {
		second := store.Acquire("user_2")
		second.Release()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("acquiring an unrelated owner blocked")
	}
}

func TestSessionStore_SameOwnerSerializes(t *testing.T) {
	store := NewSessionStore(clockwork.NewFakeClock())

	first := store.Acquire("user_1")

	acquired := make(chan struct{})

	go func() {
		second := store.Acquire("user_1")
		second.Release()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire did not wait for the first to release")
	case <-time.After(50 * time.Millisecond):
	}

	first.Release()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second acquire never completed after release")
	}
}

func TestSessionStore_ReapDropsIdleEmptyEntries(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)

	// An empty entry and one still holding a session.
	store.Acquire("user_idle").Release()

	handle := store.Acquire("user_active")
	handle.Put(&models.ChannelSession{OwnerKey: "user_active"})
	handle.Release()

	clock.Advance(time.Hour)

	reaped := store.Reap(30 * time.Minute)

	assert.Equal(t, 1, reaped)
	assert.Equal(t, 1, store.Len())
}

func TestSessionStore_ReapKeepsRecentEntries(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewSessionStore(clock)

	store.Acquire("user_1").Release()

	clock.Advance(time.Minute)

	assert.Equal(t, 0, store.Reap(30*time.Minute))
	assert.Equal(t, 1, store.Len())
}
