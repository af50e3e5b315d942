// Package session owns the resources of one live session: microphone,
// speaker, transport and optional recorder. Everything acquired by Open is
// released by Close.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mrsingh-rishi/brahmastra/audio"
	"github.com/mrsingh-rishi/brahmastra/device"
	"github.com/mrsingh-rishi/brahmastra/llm"
	"github.com/mrsingh-rishi/brahmastra/logger"
	"github.com/mrsingh-rishi/brahmastra/metrics"
	"github.com/mrsingh-rishi/brahmastra/model"
	"github.com/mrsingh-rishi/brahmastra/recorder"
	"github.com/mrsingh-rishi/brahmastra/types"
	"github.com/mrsingh-rishi/brahmastra/workers"
)

type Options struct {
	Connector llm.Connector
	Devices   device.Devices
	Scheduler *audio.Scheduler
	Config    llm.SessionConfig

	InputRate    int
	ChunkFrames  int
	OutputFrames int
	// RecordDir enables WAV recording when set.
	RecordDir string

	Events  chan<- types.SessionEvent
	Metrics *metrics.Metrics
}

func (o Options) validate() error {
	if o.Connector == nil {
		return fmt.Errorf("connector is required")
	}
	if o.Devices == nil {
		return fmt.Errorf("audio devices are required")
	}
	if o.Scheduler == nil {
		return fmt.Errorf("playback scheduler is required")
	}
	if o.Events == nil {
		return fmt.Errorf("events channel is required")
	}
	if o.InputRate <= 0 || o.ChunkFrames <= 0 || o.OutputFrames <= 0 {
		return fmt.Errorf("input rate, chunk frames and output frames must be positive")
	}
	return nil
}

type Session struct {
	ID        string
	Transport llm.Transport
	Mic       device.Source
	Speaker   device.Speaker
	Recorder  *recorder.Recorder

	capture  *workers.CaptureWorker
	receiver *workers.ReceiveWorker
	opts     Options

	mu     sync.Mutex
	closed bool
}

// Open acquires the devices, performs the handshake and starts receiving.
// Capture does not start until StartCapture. On error nothing stays held.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	s := &Session{ID: uuid.NewString(), opts: opts}
	if err := s.acquire(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) acquire(ctx context.Context) error {
	var err error
	if s.opts.RecordDir != "" {
		s.Recorder, err = recorder.New(s.opts.RecordDir, s.ID, s.opts.InputRate, s.opts.Scheduler.SampleRate())
		if err != nil {
			return err
		}
	}

	s.Mic, err = s.opts.Devices.OpenMicrophone(s.opts.InputRate, s.opts.ChunkFrames)
	if err != nil {
		return fmt.Errorf("microphone: %w", err)
	}

	s.Speaker, err = s.opts.Devices.OpenSpeaker(s.opts.Scheduler.SampleRate(), s.opts.OutputFrames)
	if err != nil {
		return fmt.Errorf("speaker: %w", err)
	}
	if err := s.Speaker.Start(s.render); err != nil {
		return fmt.Errorf("speaker: %w", err)
	}

	s.Transport, err = s.opts.Connector.Connect(ctx, s.opts.Config)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	s.receiver, err = workers.NewReceiveWorker(s.ID, s.Transport, s.opts.Events, s.opts.Metrics)
	if err != nil {
		return err
	}
	s.receiver.Start()
	return nil
}

func (s *Session) render(out []float32) {
	s.opts.Scheduler.Render(out)
	if s.Recorder != nil {
		if err := s.Recorder.WriteOutput(out); err != nil && !errors.Is(err, recorder.ErrClosed) {
			logger.Warn("Recording output failed", "session", s.ID, "error", err)
		}
	}
}

// StartCapture begins streaming the microphone. Calling it twice is a no-op.
func (s *Session) StartCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return llm.ErrClosed
	}
	if s.capture != nil {
		return nil
	}

	w, err := workers.NewCaptureWorker(s.Mic, s.Transport, s.opts.ChunkFrames, s.opts.Metrics)
	if err != nil {
		return err
	}
	if s.Recorder != nil {
		rec := s.Recorder
		w.OnCapture = func(samples []float32) {
			if err := rec.WriteInput(samples); err != nil && !errors.Is(err, recorder.ErrClosed) {
				logger.Warn("Recording input failed", "session", s.ID, "error", err)
			}
		}
	}
	w.Start()
	s.capture = w
	return nil
}

func (s *Session) SendToolResponse(responses []model.ToolResponse) error {
	if s.Transport == nil {
		return llm.ErrClosed
	}
	return s.Transport.SendToolResponse(responses)
}

// Close releases every resource the session acquired. Closing an already
// closed session does nothing.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	capture := s.capture
	s.mu.Unlock()

	if s.receiver != nil {
		s.receiver.Stop()
	}
	if s.Transport != nil {
		if err := s.Transport.Close(); err != nil {
			logger.Warn("Closing transport failed", "session", s.ID, "error", err)
		}
	}
	if capture != nil {
		capture.Stop()
	}
	if s.Mic != nil {
		s.Mic.Close()
	}
	if s.Speaker != nil {
		s.Speaker.Close()
	}
	if s.Recorder != nil {
		if err := s.Recorder.Close(); err != nil {
			logger.Warn("Finalizing recording failed", "session", s.ID, "error", err)
		}
	}
}
