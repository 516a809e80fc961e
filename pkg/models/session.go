package models

import "time"

// SessionState is the pairing state machine position for one owner's channel
// session. IDLE is represented by the absence of a session in the store.
type SessionState string

const (
	SessionStateCreating     SessionState = "creating"
	SessionStateBooting      SessionState = "booting"
	SessionStateAwaitingScan SessionState = "awaiting_scan"
	SessionStateConnected    SessionState = "connected"
)

// ChannelSession tracks one owner's in-flight pairing with the messaging
// gateway. It lives only in memory; a process restart loses it and the user
// simply re-initiates pairing. "Connected" is never derived from this state,
// it is re-checked against the remote instance list on every request.
type ChannelSession struct {
	OwnerKey      string       `json:"owner_key"`
	State         SessionState `json:"state"`
	QRPayload     string       `json:"qr_payload,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	LastAttemptAt time.Time    `json:"last_attempt_at"`
	RetryCount    int          `json:"retry_count"`
}
