package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mrsingh-rishi/brahmastra/audio"
	"github.com/mrsingh-rishi/brahmastra/llm"
	"github.com/mrsingh-rishi/brahmastra/logger"
	"github.com/mrsingh-rishi/brahmastra/model"
	"github.com/mrsingh-rishi/brahmastra/session"
	"github.com/mrsingh-rishi/brahmastra/types"
)

// StartSession begins the handshake. It returns once the session is
// Connecting; the outcome arrives asynchronously. Starting while a session
// is Connecting or Connected does nothing.
func (a *Assistant) StartSession() error {
	return a.exec(a.startSession)
}

// StopSession closes the live session, silences playback and moves to
// Disconnected, whatever the current status.
func (a *Assistant) StopSession() error {
	return a.exec(a.stopSession)
}

func (a *Assistant) startSession() {
	if !a.status.CanStart() {
		return
	}
	a.setStatus(types.StatusConnecting)
	a.log(LogHandshake)

	a.attempt++
	attempt := a.attempt
	ctx, cancel := context.WithCancel(a.runCtx)
	a.connectCancel = cancel

	opts := session.Options{
		Connector: a.opts.Connector,
		Devices:   a.opts.Devices,
		Scheduler: a.opts.Scheduler,
		Config: llm.SessionConfig{
			SystemInstruction: BuildSystemInstruction(a.memories, a.protocols),
			Voice:             a.opts.Voice,
		},
		InputRate:    a.opts.InputRate,
		ChunkFrames:  a.opts.ChunkFrames,
		OutputFrames: a.opts.OutputFrames,
		RecordDir:    a.opts.RecordDir,
		Events:       a.events,
		Metrics:      a.metrics,
	}

	go func() {
		s, err := session.Open(ctx, opts)
		if !a.post(func() { a.sessionOpened(attempt, s, err) }) && s != nil {
			s.Close()
		}
	}()
}

func (a *Assistant) sessionOpened(attempt int, s *session.Session, err error) {
	if attempt != a.attempt {
		// Stopped while the handshake was in flight.
		if s != nil {
			s.Close()
		}
		return
	}
	a.connectCancel()
	a.connectCancel = nil

	if err != nil {
		logger.Error("Session handshake failed", "error", err)
		a.metrics.SessionFailures.Inc()
		a.setStatus(types.StatusError)
		a.log(LogAuthFailure)
		return
	}
	a.session = s
	a.handleOpen()
}

func (a *Assistant) stopSession() {
	a.attempt++
	if a.connectCancel != nil {
		a.connectCancel()
		a.connectCancel = nil
	}
	if a.session != nil {
		a.closeSession()
		a.log(LogTerminated)
	}
	if n := a.opts.Scheduler.Interrupt(); n > 0 {
		a.metrics.Interruptions.Inc()
	}
	a.setStatus(types.StatusDisconnected)
	a.listening = false
}

func (a *Assistant) closeSession() {
	if a.session == nil {
		return
	}
	a.session.Close()
	a.session = nil
}

// handleEvent reports whether the event changed anything the HUD shows.
func (a *Assistant) handleEvent(ev types.SessionEvent) bool {
	if a.session == nil || ev.SessionID != a.session.ID {
		logger.Debug("Ignoring event from a stale session", "session", ev.SessionID, "kind", ev.Kind.String())
		return false
	}
	switch ev.Kind {
	case types.EventMessage:
		if ev.Message == nil {
			return false
		}
		return a.handleMessage(ev.Message)
	case types.EventError:
		a.handleError(ev.Err)
	case types.EventClose:
		a.handleClose()
	}
	return true
}

func (a *Assistant) handleOpen() {
	a.setStatus(types.StatusConnected)
	a.listening = true
	a.log(LogOnline)
	a.metrics.SessionsStarted.Inc()
	logger.Info("Live session open", "session", a.session.ID)

	if err := a.session.StartCapture(); err != nil {
		a.handleError(fmt.Errorf("start capture: %w", err))
	}
}

func (a *Assistant) handleError(err error) {
	logger.Error("Live session failed", "error", err)
	a.metrics.SessionFailures.Inc()
	a.setStatus(types.StatusError)
	a.listening = false
	a.log(LogLinkFailure)
	a.closeSession()
}

func (a *Assistant) handleClose() {
	a.setStatus(types.StatusDisconnected)
	a.listening = false
	a.log(LogTerminated)
	a.closeSession()
	a.opts.Scheduler.Reset()
}

// handleMessage evaluates every concern a message can carry, in order.
// None of them excludes another. Playback and interruption are not part of
// the snapshot, so a message carrying only those reports false.
func (a *Assistant) handleMessage(msg *types.ServerMessage) bool {
	for _, call := range msg.ToolCalls {
		a.handleToolCall(call)
	}

	if msg.InputTranscription != "" {
		a.transcription += msg.InputTranscription
		a.pendingUser.WriteString(msg.InputTranscription)
	}

	if msg.OutputTranscription != "" {
		if a.cancelResponseClear() {
			a.response = ""
		}
		a.response += msg.OutputTranscription
		a.pendingReply.WriteString(msg.OutputTranscription)
	}

	if msg.TurnComplete {
		a.completeTurn()
	}

	for _, data := range msg.Audio {
		a.play(data)
	}

	if msg.Interrupted {
		n := a.opts.Scheduler.Interrupt()
		a.metrics.Interruptions.Inc()
		logger.Debug("Playback interrupted", "stopped", n)
	}

	return len(msg.ToolCalls) > 0 || msg.InputTranscription != "" ||
		msg.OutputTranscription != "" || msg.TurnComplete
}

func (a *Assistant) handleToolCall(call model.ToolCall) {
	var response map[string]any
	if call.Name == llm.SystemCommandFunction {
		a.metrics.ToolCalls.WithLabelValues(toolLabel(call.Args)).Inc()
		response = map[string]any{"result": ExecuteCommand(call.Args, &a.stats, a.log)}
	} else {
		logger.Warn("Model called an unknown function", "name", call.Name)
		response = map[string]any{"error": fmt.Sprintf("unknown function %q", call.Name)}
	}

	reply := []model.ToolResponse{{ID: call.ID, Name: call.Name, Response: response}}
	if err := a.session.SendToolResponse(reply); err != nil {
		logger.Warn("Sending tool response failed", "call", call.ID, "error", err)
	}
}

// completeTurn moves the pending buffers into history and starts the
// response clear timer.
func (a *Assistant) completeTurn() {
	user := strings.TrimSpace(a.pendingUser.String())
	reply := strings.TrimSpace(a.pendingReply.String())

	var flushed []model.ConversationTurn
	if user != "" {
		flushed = append(flushed, model.NewTurn(model.RoleUser, user))
	}
	if reply != "" {
		flushed = append(flushed, model.NewTurn(model.RoleAssistant, reply))
	}
	if len(flushed) > 0 {
		a.history = append(a.history, flushed...)
		a.trimHistory()
		a.persist()
		a.metrics.TurnsFlushed.Add(float64(len(flushed)))
	}

	a.pendingUser.Reset()
	a.pendingReply.Reset()
	a.transcription = ""
	a.scheduleResponseClear()
}

func (a *Assistant) play(data []byte) {
	buf, err := audio.DecodePCM(data, a.opts.Scheduler.SampleRate(), 1)
	if err != nil {
		a.metrics.DecodeErrors.Inc()
		logger.Warn("Dropping undecodable audio", "bytes", len(data), "error", err)
		return
	}
	if _, err := a.opts.Scheduler.Schedule(buf); err != nil {
		a.metrics.DecodeErrors.Inc()
		logger.Warn("Scheduling audio failed", "error", err)
		return
	}
	a.metrics.BuffersScheduled.Inc()
}

func (a *Assistant) scheduleResponseClear() {
	a.cancelResponseClear()
	gen := a.clearGen
	a.clearTimer = time.AfterFunc(a.opts.ResponseClearDelay, func() {
		a.post(func() {
			if gen == a.clearGen && a.clearTimer != nil {
				a.clearTimer = nil
				a.response = ""
			}
		})
	})
}

// cancelResponseClear reports whether a clear was pending.
func (a *Assistant) cancelResponseClear() bool {
	a.clearGen++
	if a.clearTimer == nil {
		return false
	}
	a.clearTimer.Stop()
	a.clearTimer = nil
	return true
}
