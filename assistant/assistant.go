// Package assistant is the session event dispatcher. One goroutine (Run)
// owns all state; every public method and every inbound session event is
// funnelled through it, so handlers never race each other.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mrsingh-rishi/brahmastra/audio"
	"github.com/mrsingh-rishi/brahmastra/device"
	"github.com/mrsingh-rishi/brahmastra/llm"
	"github.com/mrsingh-rishi/brahmastra/logger"
	"github.com/mrsingh-rishi/brahmastra/metrics"
	"github.com/mrsingh-rishi/brahmastra/model"
	"github.com/mrsingh-rishi/brahmastra/queue"
	"github.com/mrsingh-rishi/brahmastra/session"
	"github.com/mrsingh-rishi/brahmastra/store"
	"github.com/mrsingh-rishi/brahmastra/types"
)

const (
	LogBoot         = "Core systems initialized... awaiting boss command."
	LogHandshake    = "SYNC: INITIATING HANDSHAKE..."
	LogOnline       = "SYNC: BRAHMASTRA ONLINE [v4.2.5]"
	LogLinkFailure  = "ERR: LINK TERMINATED. NETWORK INSTABILITY."
	LogTerminated   = "SYNC: SESSION TERMINATED. CORE STANDBY."
	LogAuthFailure  = "ERR: AUTHENTICATION FAILURE. RETRY HANDSHAKE."
	LogHistoryPurge = "SYSTEM: Archives purged successfully."
)

var (
	ErrNotRunning        = errors.New("assistant is not running")
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid request")
	ErrSearchUnavailable = errors.New("scripture search is not configured")
)

// InitialStats are the gauges shown before any command has run.
var InitialStats = model.Stats{Power: 88, Memory: 45, Logic: 95}

// Publisher receives a fresh snapshot after every state change. Publish is
// called from the dispatcher goroutine and must not block.
type Publisher interface {
	Publish(snap model.Snapshot)
}

type Options struct {
	Store     *store.Store
	Connector llm.Connector
	Searcher  llm.Searcher
	Devices   device.Devices
	Scheduler *audio.Scheduler
	Metrics   *metrics.Metrics
	Publisher Publisher

	Voice        string
	InputRate    int
	ChunkFrames  int
	OutputFrames int
	RecordDir    string

	ResponseClearDelay time.Duration
	LogCapacity        int
	// HistoryLimit keeps only the newest entries; zero keeps everything.
	HistoryLimit int
}

type Assistant struct {
	opts    Options
	metrics *metrics.Metrics

	commands chan func()
	events   chan types.SessionEvent
	stopped  chan struct{}
	runCtx   context.Context

	status        types.SessionStatus
	listening     bool
	muted         bool
	searching     bool
	transcription string
	response      string
	pendingUser   strings.Builder
	pendingReply  strings.Builder
	logs          *queue.Queue[string]
	stats         model.Stats
	protocols     []model.Protocol
	memories      []string
	history       []model.ConversationTurn
	scripture     *model.ScriptureResult

	session       *session.Session
	attempt       int
	connectCancel context.CancelFunc
	clearTimer    *time.Timer
	clearGen      int
}

func New(opts Options) (*Assistant, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.Connector == nil {
		return nil, fmt.Errorf("connector is required")
	}
	if opts.Devices == nil {
		return nil, fmt.Errorf("audio devices are required")
	}
	if opts.Scheduler == nil {
		return nil, fmt.Errorf("playback scheduler is required")
	}
	if opts.InputRate <= 0 || opts.ChunkFrames <= 0 || opts.OutputFrames <= 0 {
		return nil, fmt.Errorf("input rate, chunk frames and output frames must be positive")
	}
	if opts.ResponseClearDelay <= 0 {
		opts.ResponseClearDelay = 4 * time.Second
	}
	if opts.LogCapacity <= 0 {
		opts.LogCapacity = 16
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewMetrics(prometheus.NewRegistry())
	}

	state, err := opts.Store.Load(context.Background())
	if err != nil {
		logger.Warn("Loading persisted state failed, using what could be read", "error", err)
	}

	a := &Assistant{
		opts:      opts,
		metrics:   m,
		commands:  make(chan func()),
		events:    make(chan types.SessionEvent, 64),
		stopped:   make(chan struct{}),
		runCtx:    context.Background(),
		status:    types.StatusDisconnected,
		logs:      queue.NewBounded[string](opts.LogCapacity),
		stats:     InitialStats,
		protocols: state.Protocols,
		memories:  state.Memories,
		history:   state.History,
	}
	a.trimHistory()
	a.metrics.SetStatus(string(a.status))
	a.log(LogBoot)
	return a, nil
}

// Run processes commands and session events until ctx is done. Any open
// session is closed on the way out.
func (a *Assistant) Run(ctx context.Context) error {
	a.runCtx = ctx
	defer close(a.stopped)
	defer a.shutdown()

	a.publish()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-a.commands:
			fn()
		case ev := <-a.events:
			if !a.handleEvent(ev) {
				continue
			}
		}
		a.publish()
	}
}

func (a *Assistant) shutdown() {
	a.attempt++
	if a.connectCancel != nil {
		a.connectCancel()
		a.connectCancel = nil
	}
	a.cancelResponseClear()
	a.closeSession()
}

// exec runs fn on the dispatcher goroutine and waits for it.
func (a *Assistant) exec(fn func()) error {
	done := make(chan struct{})
	select {
	case a.commands <- func() { defer close(done); fn() }:
	case <-a.stopped:
		return ErrNotRunning
	}
	<-done
	return nil
}

// post queues fn without waiting. It reports false once Run has exited.
func (a *Assistant) post(fn func()) bool {
	select {
	case a.commands <- fn:
		return true
	case <-a.stopped:
		return false
	}
}

func (a *Assistant) log(line string) {
	a.logs.Enqueue(line)
	logger.Info(line, "component", "hud")
}

func (a *Assistant) setStatus(s types.SessionStatus) {
	a.status = s
	a.metrics.SetStatus(string(s))
}

func (a *Assistant) publish() {
	if a.opts.Publisher != nil {
		a.opts.Publisher.Publish(a.snapshot())
	}
}

func (a *Assistant) snapshot() model.Snapshot {
	var result *model.ScriptureResult
	if a.scripture != nil {
		r := *a.scripture
		r.URLs = append([]model.SourceRef(nil), r.URLs...)
		result = &r
	}
	return model.Snapshot{
		Status:          string(a.status),
		Listening:       a.listening,
		Muted:           a.muted,
		Transcription:   a.transcription,
		Response:        a.response,
		Logs:            a.logs.Items(),
		Stats:           a.stats,
		Protocols:       append([]model.Protocol{}, a.protocols...),
		Memories:        append([]string{}, a.memories...),
		History:         append([]model.ConversationTurn{}, a.history...),
		Searching:       a.searching,
		ScriptureResult: result,
	}
}

// Snapshot returns a copy of everything the HUD shows.
func (a *Assistant) Snapshot() (model.Snapshot, error) {
	var snap model.Snapshot
	err := a.exec(func() { snap = a.snapshot() })
	return snap, err
}

func (a *Assistant) persist() {
	state := model.PersistedState{Protocols: a.protocols, Memories: a.memories, History: a.history}
	if err := a.opts.Store.Save(a.runCtx, state); err != nil {
		logger.Error("Persisting state failed", "error", err)
	}
}

func (a *Assistant) trimHistory() {
	if limit := a.opts.HistoryLimit; limit > 0 && len(a.history) > limit {
		a.history = append([]model.ConversationTurn(nil), a.history[len(a.history)-limit:]...)
	}
}
