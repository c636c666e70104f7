package feed

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyClosed = errors.New("already closed")
	ErrAlreadyRun    = errors.New("session already started")
)

// SessionState is one phase of the feed-session lifecycle.
type SessionState string

const (
	StateIdle        SessionState = "idle"
	StateAuthorizing SessionState = "authorizing"
	StateConnected   SessionState = "connected"
	StateSubscribed  SessionState = "subscribed"
	StateClosing     SessionState = "closing" // terminal, clean
	StateFailed      SessionState = "failed"  // terminal, error
)

// CloseEvent reports how a session terminated.
type CloseEvent struct {
	State SessionState // StateClosing or StateFailed
	Code  int          // Websocket close code for clean closes
	Err   error        // Cause, nil for clean closes
}

// TimestampedMessage wraps raw frame bytes with the receive timestamp.
type TimestampedMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// ClientConfig configures the websocket transport client.
type ClientConfig struct {
	URL          string        // One-time redirect URL from the authorization exchange
	AccessToken  string        // Bearer token for the dial request
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		WriteTimeout: 5 * time.Second,
		BufferSize:   1000,
	}
}

// SessionConfig configures a feed session.
type SessionConfig struct {
	AccessToken       string
	HeartbeatInterval time.Duration // Ping cadence while subscribed
	WriteTimeout      time.Duration
	BufferSize        int
	LogEpsilon        float64 // Suppress tick debug logs for moves smaller than this
}

// DefaultSessionConfig returns sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		HeartbeatInterval: 20 * time.Second,
		WriteTimeout:      5 * time.Second,
		BufferSize:        1000,
		LogEpsilon:        0.01,
	}
}

// subscribeRequest is the one outbound control message, sent on connect.
type subscribeRequest struct {
	GUID   string        `json:"guid"`
	Method string        `json:"method"`
	Data   subscribeData `json:"data"`
}

type subscribeData struct {
	Mode           string   `json:"mode"`
	InstrumentKeys []string `json:"instrumentKeys"`
}
