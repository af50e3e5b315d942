// Package llmtest provides in-memory live-session fakes.
package llmtest

import (
	"context"
	"sync"

	"github.com/mrsingh-rishi/brahmastra/llm"
	"github.com/mrsingh-rishi/brahmastra/model"
	"github.com/mrsingh-rishi/brahmastra/types"
)

// Transport records everything sent to it and replays what is pushed.
type Transport struct {
	incoming  chan *types.ServerMessage
	failures  chan error
	closed    chan struct{}
	closeOnce sync.Once

	mu            sync.Mutex
	media         []model.MediaFrame
	toolResponses [][]model.ToolResponse
}

func NewTransport() *Transport {
	return &Transport{
		incoming: make(chan *types.ServerMessage, 64),
		failures: make(chan error, 1),
		closed:   make(chan struct{}),
	}
}

// Push queues msg for Receive.
func (t *Transport) Push(msg *types.ServerMessage) {
	t.incoming <- msg
}

// Fail makes the next Receive return err.
func (t *Transport) Fail(err error) {
	t.failures <- err
}

func (t *Transport) SendMedia(frame model.MediaFrame) error {
	if t.IsClosed() {
		return llm.ErrClosed
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.media = append(t.media, frame)
	return nil
}

func (t *Transport) SendToolResponse(responses []model.ToolResponse) error {
	if t.IsClosed() {
		return llm.ErrClosed
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toolResponses = append(t.toolResponses, responses)
	return nil
}

func (t *Transport) Receive() (*types.ServerMessage, error) {
	select {
	case msg := <-t.incoming:
		return msg, nil
	case err := <-t.failures:
		return nil, err
	case <-t.closed:
		return nil, llm.ErrClosed
	}
}

func (t *Transport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

func (t *Transport) IsClosed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}

func (t *Transport) Media() []model.MediaFrame {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.MediaFrame(nil), t.media...)
}

func (t *Transport) ToolResponses() [][]model.ToolResponse {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][]model.ToolResponse(nil), t.toolResponses...)
}

// Connector hands out a fresh Transport per Connect. When Gate is set the
// handshake waits for it to be closed or for ctx to end.
type Connector struct {
	Err  error
	Gate chan struct{}

	mu         sync.Mutex
	transports []*Transport
	configs    []llm.SessionConfig
}

func (c *Connector) Connect(ctx context.Context, cfg llm.SessionConfig) (llm.Transport, error) {
	c.mu.Lock()
	c.configs = append(c.configs, cfg)
	gate, err := c.Gate, c.Err
	c.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	t := NewTransport()
	c.mu.Lock()
	c.transports = append(c.transports, t)
	c.mu.Unlock()
	return t, nil
}

func (c *Connector) SetErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Err = err
}

// Last returns the most recently opened transport, or nil.
func (c *Connector) Last() *Transport {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.transports) == 0 {
		return nil
	}
	return c.transports[len(c.transports)-1]
}

func (c *Connector) Connects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.configs)
}

func (c *Connector) Configs() []llm.SessionConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]llm.SessionConfig(nil), c.configs...)
}

// Searcher returns Result or Err for every query.
type Searcher struct {
	Result *model.ScriptureResult
	Err    error

	mu      sync.Mutex
	queries []string
}

func (s *Searcher) Search(ctx context.Context, query string) (*model.ScriptureResult, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Result, nil
}

func (s *Searcher) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}
