package device

import (
	"context"
	"sync"
	"time"
)

// Silence is a microphone that only ever hears zeros.
type Silence struct {
	rate     int
	frames   int
	realtime bool
}

func NewSilence(rate, frames int, realtime bool) *Silence {
	return &Silence{rate: rate, frames: frames, realtime: realtime}
}

func (s *Silence) SampleRate() int { return s.rate }

func (s *Silence) Read(ctx context.Context) ([]float32, error) {
	if s.realtime {
		pace(ctx, s.frames, s.rate)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return make([]float32, s.frames), nil
}

func (s *Silence) Close() error { return nil }

// NullSpeaker pulls audio at the device rate and discards it, so the
// playback timeline advances as it would on real hardware.
type NullSpeaker struct {
	rate   int
	frames int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewNullSpeaker(rate, frames int) *NullSpeaker {
	return &NullSpeaker{rate: rate, frames: frames}
}

func (s *NullSpeaker) Start(render func(out []float32)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		out := make([]float32, s.frames)
		ticker := time.NewTicker(time.Duration(s.frames) * time.Second / time.Duration(s.rate))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				render(out)
			}
		}
	}()
	return nil
}

func (s *NullSpeaker) Close() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}
