package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrsingh-rishi/brahmastra/llm"
	"github.com/mrsingh-rishi/brahmastra/metrics"
	"github.com/mrsingh-rishi/brahmastra/types"
)

// MessageReceiver is the inbound half of a live session.
type MessageReceiver interface {
	Receive() (*types.ServerMessage, error)
}

// ReceiveWorker turns the blocking Receive loop of one session into
// SessionEvents tagged with that session's id. It emits exactly one terminal
// event: close when the link ended normally, error otherwise.
type ReceiveWorker struct {
	ctx       context.Context
	cancel    context.CancelFunc
	SessionID string
	Receiver  MessageReceiver
	Events    chan<- types.SessionEvent

	metrics *metrics.Metrics
	done    chan struct{}
}

func NewReceiveWorker(sessionID string, receiver MessageReceiver, events chan<- types.SessionEvent, m *metrics.Metrics) (*ReceiveWorker, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if receiver == nil {
		return nil, fmt.Errorf("message receiver is required")
	}
	if events == nil {
		return nil, fmt.Errorf("events channel is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ReceiveWorker{
		ctx:       ctx,
		cancel:    cancel,
		SessionID: sessionID,
		Receiver:  receiver,
		Events:    events,
		metrics:   m,
		done:      make(chan struct{}),
	}, nil
}

func (w *ReceiveWorker) Start() {
	go func() {
		defer close(w.done)
		for {
			msg, err := w.Receiver.Receive()
			if err != nil {
				kind := types.EventError
				if errors.Is(err, llm.ErrClosed) {
					kind, err = types.EventClose, nil
				}
				w.emit(types.SessionEvent{SessionID: w.SessionID, Kind: kind, Err: err})
				return
			}
			if w.metrics != nil {
				w.metrics.MessagesReceived.Inc()
			}
			if !w.emit(types.SessionEvent{SessionID: w.SessionID, Kind: types.EventMessage, Message: msg}) {
				return
			}
		}
	}()
}

func (w *ReceiveWorker) emit(ev types.SessionEvent) bool {
	select {
	case w.Events <- ev:
		return true
	case <-w.ctx.Done():
		return false
	}
}

// Stop stops event delivery. The loop itself exits once the transport is
// closed and Receive returns.
func (w *ReceiveWorker) Stop() {
	w.cancel()
}

// Done is closed when the receive loop has exited.
func (w *ReceiveWorker) Done() <-chan struct{} {
	return w.done
}
