package llm

import (
	"context"
	"errors"

	"github.com/mrsingh-rishi/brahmastra/model"
	"github.com/mrsingh-rishi/brahmastra/types"
)

// ErrClosed is returned by Receive once the transport has been closed locally.
var ErrClosed = errors.New("live session closed")

// SessionConfig is what a live session is opened with.
type SessionConfig struct {
	SystemInstruction string
	Voice             string
}

// Transport is one open bidirectional live session. SendMedia and
// SendToolResponse may be called from different goroutines; implementations
// serialize them. Both may run concurrently with Receive.
type Transport interface {
	SendMedia(frame model.MediaFrame) error
	SendToolResponse(responses []model.ToolResponse) error
	// Receive blocks for the next inbound message.
	Receive() (*types.ServerMessage, error)
	// Close is idempotent.
	Close() error
}

// Connector performs the live-session handshake.
type Connector interface {
	Connect(ctx context.Context, cfg SessionConfig) (Transport, error)
}

// Searcher answers one-shot scripture queries.
type Searcher interface {
	Search(ctx context.Context, query string) (*model.ScriptureResult, error)
}
