// Package device provides the platform audio endpoints: a microphone source
// and a speaker sink. PortAudio devices need the portaudio build tag; the WAV
// and null devices are always available.
package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrsingh-rishi/brahmastra/logger"
)

var ErrUnsupported = errors.New("audio backend not compiled in")

// Source is a mono microphone stream. Read returns io.EOF once exhausted.
type Source interface {
	Read(ctx context.Context) ([]float32, error)
	SampleRate() int
	Close() error
}

// Speaker pulls mono output from render on its own clock until closed.
type Speaker interface {
	Start(render func(out []float32)) error
	Close() error
}

// Devices opens fresh endpoints for each session.
type Devices interface {
	OpenMicrophone(rate, frames int) (Source, error)
	OpenSpeaker(rate, frames int) (Speaker, error)
	Close() error
}

// Open builds the device set named by backend (portaudio, wav or null).
// A binary built without PortAudio falls back to the null devices.
func Open(backend, inputWAV string) (Devices, error) {
	switch backend {
	case "portaudio":
		pa, err := NewPortAudio()
		if errors.Is(err, ErrUnsupported) {
			logger.Warn("PortAudio not compiled in, using null audio devices", "error", err)
			return &Files{Realtime: true}, nil
		}
		if err != nil {
			return nil, err
		}
		return pa, nil
	case "wav":
		return &Files{InputWAV: inputWAV, Realtime: true}, nil
	case "null":
		return &Files{Realtime: true}, nil
	}
	return nil, fmt.Errorf("unknown audio backend %q", backend)
}

// Files serves the microphone from a WAV file, or silence when InputWAV is
// empty, and renders the speaker into the void.
type Files struct {
	InputWAV string
	Realtime bool
}

func (f *Files) OpenMicrophone(rate, frames int) (Source, error) {
	if f.InputWAV == "" {
		return NewSilence(rate, frames, f.Realtime), nil
	}
	return OpenWAV(f.InputWAV, rate, frames, f.Realtime)
}

func (f *Files) OpenSpeaker(rate, frames int) (Speaker, error) {
	return NewNullSpeaker(rate, frames), nil
}

func (f *Files) Close() error { return nil }
