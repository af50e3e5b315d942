// Package output fans assistant state out to HUD websocket clients.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/mrsingh-rishi/brahmastra/logger"
	"github.com/mrsingh-rishi/brahmastra/model"
)

const (
	EventSnapshot = "snapshot"
	EventClock    = "clock"

	clientBuffer = 16
)

// Event is one websocket frame sent to the HUD.
type Event struct {
	Event    string          `json:"event"`
	Snapshot *model.Snapshot `json:"snapshot,omitempty"`
	Time     string          `json:"time,omitempty"`
}

// Conn is the part of a websocket connection the hub uses.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type client struct {
	ctx    context.Context
	cancel context.CancelFunc
	conn   Conn
	send   chan []byte
}

func (c *client) start() {
	go func() {
		for {
			select {
			case <-c.ctx.Done():
				return
			case payload := <-c.send:
				if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					logger.Debug("HUD write failed", "error", err)
					c.cancel()
					c.conn.Close()
					return
				}
			}
		}
	}()
}

// HUD keeps the latest snapshot and pushes every new one, plus a clock
// tick, to all connected clients. Slow clients miss frames instead of
// holding up the assistant.
type HUD struct {
	ctx    context.Context
	cancel context.CancelFunc
	tick   time.Duration

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
}

func NewHUD(tick time.Duration) (*HUD, error) {
	if tick <= 0 {
		return nil, fmt.Errorf("clock tick must be positive")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &HUD{
		ctx:     ctx,
		cancel:  cancel,
		tick:    tick,
		clients: make(map[*client]struct{}),
	}, nil
}

// Start runs the clock until Stop.
func (h *HUD) Start() {
	go func() {
		ticker := time.NewTicker(h.tick)
		defer ticker.Stop()
		for {
			select {
			case <-h.ctx.Done():
				return
			case now := <-ticker.C:
				h.broadcast(Event{Event: EventClock, Time: now.Format(time.RFC3339)}, false)
			}
		}
	}()
}

func (h *HUD) Stop() {
	h.cancel()
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.cancel()
		c.conn.Close()
		delete(h.clients, c)
	}
}

// Publish implements assistant.Publisher.
func (h *HUD) Publish(snap model.Snapshot) {
	h.broadcast(Event{Event: EventSnapshot, Snapshot: &snap}, true)
}

func (h *HUD) broadcast(ev Event, remember bool) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error("Encoding HUD event failed", "event", ev.Event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if remember {
		h.last = payload
	}
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
		}
	}
}

// Serve attaches conn until the peer goes away. The latest snapshot is sent
// first. Inbound frames are read and discarded.
func (h *HUD) Serve(conn Conn) {
	ctx, cancel := context.WithCancel(h.ctx)
	c := &client{ctx: ctx, cancel: cancel, conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	if h.last != nil {
		c.send <- h.last
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	c.start()
	logger.Info("HUD client connected", "clients", h.Clients())

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		cancel()
		logger.Info("HUD client disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("HUD read error", "error", err)
			}
			return
		}
	}
}

func (h *HUD) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
