package types

import "github.com/mrsingh-rishi/brahmastra/model"

type SessionStatus string

const (
	StatusDisconnected SessionStatus = "DISCONNECTED"
	StatusConnecting   SessionStatus = "CONNECTING"
	StatusConnected    SessionStatus = "CONNECTED"
	StatusError        SessionStatus = "ERROR"
)

// CanStart reports whether a new session may be started from this status.
func (s SessionStatus) CanStart() bool {
	return s == StatusDisconnected || s == StatusError
}

// ServerMessage is one inbound live-session message. Any combination of
// fields may be set at once.
type ServerMessage struct {
	ToolCalls           []model.ToolCall
	InputTranscription  string
	OutputTranscription string
	TurnComplete        bool
	Interrupted         bool
	// Audio holds every inline PCM payload of the model turn, in part order.
	Audio [][]byte
}

type EventKind int

const (
	EventMessage EventKind = iota
	EventError
	EventClose
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventClose:
		return "close"
	}
	return "unknown"
}

// SessionEvent is what the receive side of a session emits.
type SessionEvent struct {
	SessionID string
	Kind      EventKind
	Message   *ServerMessage
	Err       error
}
