//go:build portaudio

package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudio opens the default input and output devices.
type PortAudio struct{}

// NewPortAudio initializes the PortAudio library. Close terminates it.
func NewPortAudio() (*PortAudio, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &PortAudio{}, nil
}

func (p *PortAudio) Close() error {
	return portaudio.Terminate()
}

func (p *PortAudio) OpenMicrophone(rate, frames int) (Source, error) {
	in := make([]float32, frames)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(rate), frames, in)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}
	return &microphone{stream: stream, in: in, rate: rate}, nil
}

func (p *PortAudio) OpenSpeaker(rate, frames int) (Speaker, error) {
	return &speaker{rate: rate, frames: frames}, nil
}

type microphone struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	in     []float32
	rate   int
}

func (m *microphone) SampleRate() int { return m.rate }

// Read blocks until the device has filled one buffer.
func (m *microphone) Read(ctx context.Context) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return nil, context.Canceled
	}
	if err := m.stream.Read(); err != nil {
		return nil, fmt.Errorf("read microphone: %w", err)
	}
	out := make([]float32, len(m.in))
	copy(out, m.in)
	return out, nil
}

func (m *microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return nil
	}
	m.stream.Stop()
	err := m.stream.Close()
	m.stream = nil
	return err
}

type speaker struct {
	rate   int
	frames int

	mu     sync.Mutex
	stream *portaudio.Stream
}

func (s *speaker) Start(render func(out []float32)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		return nil
	}
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(s.rate), s.frames, func(out []float32) {
		render(out)
	})
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	s.stream = stream
	return nil
}

func (s *speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil
	}
	s.stream.Stop()
	err := s.stream.Close()
	s.stream = nil
	return err
}
