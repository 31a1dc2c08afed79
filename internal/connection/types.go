package connection

import (
	"encoding/json"
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected       = errors.New("not connected")
	ErrStaleConnection    = errors.New("connection stale (no ping)")
	ErrTimeout            = errors.New("operation timeout")
	ErrAlreadyClosed      = errors.New("already closed")
	ErrAlreadyStarted     = errors.New("already started")
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
)

// State describes where a feed is in its connection lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed // handshake acked, no data yet
	StateStreaming  // at least one data frame received
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// RawFrame is a data frame from the Feed to the pipeline.
type RawFrame struct {
	Data       []byte    // Raw frame bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when the frame arrived
}

// Command is a WebSocket command to send to the server.
type Command struct {
	ID     int64       `json:"id"`
	Cmd    string      `json:"cmd"`
	Params interface{} `json:"params"`
}

// SubscribeParams are parameters for a subscribe command.
type SubscribeParams struct {
	Channel string `json:"channel"`
}

// Response is a command response from the server.
type Response struct {
	ID   int64           `json:"id"`
	Type string          `json:"type"` // "subscribed", "error", "ok"
	Msg  json.RawMessage `json:"msg"`
}

// ErrorMsg is the message content for an "error" response.
type ErrorMsg struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // WebSocket URL
	APIKey       string        // optional Bearer token
	PingInterval time.Duration // Keep-alive ping cadence
	PingGrace    time.Duration // Extra silence allowed after a ping before stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingInterval: 30 * time.Second,
		PingGrace:    10 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   1000,
	}
}

// FeedConfig configures the push feed.
type FeedConfig struct {
	URL                  string        // WebSocket URL
	Channel              string        // Channel to subscribe
	APIKey               string        // optional Bearer token
	ReconnectInterval    time.Duration // Base wait between reconnect attempts
	ReconnectMaxInterval time.Duration // Cap for escalating waits; == base means fixed wait
	MaxReconnectAttempts int           // Consecutive failures before giving up; 0 = unlimited
	SubscribeTimeout     time.Duration // Timeout for the subscribe handshake
	PingInterval         time.Duration
	PingGrace            time.Duration
	BufferSize           int // Frame channel buffer size
}

// DefaultFeedConfig returns sensible defaults.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		Channel:              "token",
		ReconnectInterval:    5 * time.Second,
		ReconnectMaxInterval: 5 * time.Second,
		MaxReconnectAttempts: 0,
		SubscribeTimeout:     10 * time.Second,
		PingInterval:         30 * time.Second,
		PingGrace:            10 * time.Second,
		BufferSize:           1000,
	}
}
