package device

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSource replays a PCM WAV file as if it were a microphone.
type WAVSource struct {
	file     *os.File
	dec      *wav.Decoder
	rate     int
	frames   int
	channels int
	scale    float32
	realtime bool
	buf      *goaudio.IntBuffer
}

// OpenWAV opens path and yields frames-sized mono chunks. The file must be
// recorded at rate; multi-channel files are down-mixed.
func OpenWAV(path string, rate, frames int, realtime bool) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%s is not a valid wav file", path)
	}
	if int(dec.SampleRate) != rate {
		f.Close()
		return nil, fmt.Errorf("wav sample rate %d does not match capture rate %d", dec.SampleRate, rate)
	}
	if dec.BitDepth == 0 || dec.NumChans == 0 {
		f.Close()
		return nil, fmt.Errorf("wav header of %s is incomplete", path)
	}

	channels := int(dec.NumChans)
	return &WAVSource{
		file:     f,
		dec:      dec,
		rate:     rate,
		frames:   frames,
		channels: channels,
		scale:    float32(int64(1) << (dec.BitDepth - 1)),
		realtime: realtime,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{NumChannels: channels, SampleRate: rate},
			Data:   make([]int, frames*channels),
		},
	}, nil
}

func (s *WAVSource) SampleRate() int { return s.rate }

func (s *WAVSource) Read(ctx context.Context) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read wav: %w", err)
	}
	if n == 0 {
		return nil, io.EOF
	}

	out := make([]float32, n/s.channels)
	for i := range out {
		var sum float32
		for ch := 0; ch < s.channels; ch++ {
			sum += float32(s.buf.Data[i*s.channels+ch]) / s.scale
		}
		out[i] = sum / float32(s.channels)
	}

	if s.realtime {
		pace(ctx, len(out), s.rate)
	}
	return out, nil
}

func (s *WAVSource) Close() error {
	return s.file.Close()
}

func pace(ctx context.Context, frames, rate int) {
	t := time.NewTimer(time.Duration(frames) * time.Second / time.Duration(rate))
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
