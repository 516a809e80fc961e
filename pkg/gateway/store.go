package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kikukafandi/flowlink/pkg/models"
)

// SessionStore is the process-wide registry of pairing sessions, keyed by
// owner. Owners are independent: concurrent requests for different owners
// never block each other, while requests for the same owner serialize on a
// per-key lock so retry counters cannot race.
type SessionStore struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	clock   clockwork.Clock
}

type sessionEntry struct {
	mu         sync.Mutex
	session    *models.ChannelSession
	generation uint64
	lastAccess time.Time
}

func NewSessionStore(clock clockwork.Clock) *SessionStore {
	return &SessionStore{
		entries: make(map[string]*sessionEntry),
		clock:   clock,
	}
}

// Acquire locks the owner's entry and returns a handle to it. The caller must
// Release the handle; holding it is what serializes same-owner requests.
func (s *SessionStore) Acquire(ownerKey string) *SessionHandle {
	s.mu.Lock()

	entry, ok := s.entries[ownerKey]
	if !ok {
		entry = &sessionEntry{}
		s.entries[ownerKey] = entry
	}

	entry.lastAccess = s.clock.Now()
	s.mu.Unlock()

	entry.mu.Lock()

	return &SessionHandle{entry: entry}
}

// Reap drops entries with no session that have been idle longer than maxIdle.
// Entries currently held by a handle are left alone.
func (s *SessionStore) Reap(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	reaped := 0

	for key, entry := range s.entries {
		if now.Sub(entry.lastAccess) < maxIdle {
			continue
		}

		if !entry.mu.TryLock() {
			continue
		}

		if entry.session == nil {
			delete(s.entries, key)

			reaped++
		}

		entry.mu.Unlock()
	}

	return reaped
}

// StartReaper reaps idle entries every interval until the context is done.
func (s *SessionStore) StartReaper(ctx context.Context, interval, maxIdle time.Duration, logger *slog.Logger) {
	go func() {
		ticker := s.clock.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if n := s.Reap(maxIdle); n > 0 {
					logger.Debug("Reaped idle session entries", "count", n)
				}
			}
		}
	}()
}

// Len returns the number of live entries.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// SessionHandle is an exclusive view of one owner's session slot.
type SessionHandle struct {
	entry *sessionEntry
}

// Session returns the stored session, or nil when the owner is idle.
func (h *SessionHandle) Session() *models.ChannelSession {
	return h.entry.session
}

func (h *SessionHandle) Put(session *models.ChannelSession) {
	h.entry.session = session
}

// Delete clears the slot and bumps the generation so in-flight polls started
// against the old session discard their results.
func (h *SessionHandle) Delete() {
	h.entry.session = nil
	h.entry.generation++
}

func (h *SessionHandle) Generation() uint64 {
	return h.entry.generation
}

func (h *SessionHandle) Release() {
	h.entry.mu.Unlock()
}
