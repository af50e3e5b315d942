//go:build !portaudio

package device

import "fmt"

// PortAudio is unavailable in builds without the portaudio tag.
type PortAudio struct{}

func NewPortAudio() (*PortAudio, error) {
	return nil, fmt.Errorf("%w: rebuild with -tags portaudio", ErrUnsupported)
}

func (p *PortAudio) OpenMicrophone(rate, frames int) (Source, error) {
	return nil, ErrUnsupported
}

func (p *PortAudio) OpenSpeaker(rate, frames int) (Speaker, error) {
	return nil, ErrUnsupported
}

func (p *PortAudio) Close() error { return nil }
