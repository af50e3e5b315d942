package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

const pcmScale = 32768.0

var (
	ErrMisalignedPCM      = errors.New("pcm length is not a multiple of the frame size")
	ErrSampleRateMismatch = errors.New("buffer sample rate does not match output rate")
)

// Buffer is decoded audio, one float slice per channel.
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return framesToDuration(int64(b.Frames()), b.SampleRate)
}

// mono returns frame i down-mixed to a single sample.
func (b *Buffer) mono(i int) float32 {
	if len(b.Channels) == 1 {
		return b.Channels[0][i]
	}
	var sum float32
	for _, ch := range b.Channels {
		sum += ch[i]
	}
	return sum / float32(len(b.Channels))
}

// SamplesToBytes converts interleaved float samples in [-1, 1] to PCM16
// little-endian. Values are scaled by 32768, truncated toward zero and
// clamped to the int16 range.
func SamplesToBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(toInt16(s)))
	}
	return out
}

// Quantize converts float samples to int16 values using the same rounding
// as SamplesToBytes.
func Quantize(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		out[i] = int(toInt16(s))
	}
	return out
}

func toInt16(s float32) int16 {
	v := math.Trunc(float64(s) * pcmScale)
	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}

// DecodePCM is the inverse of SamplesToBytes: it de-interleaves PCM16
// little-endian bytes into per-channel float samples divided by 32768.
func DecodePCM(data []byte, sampleRate, channels int) (*Buffer, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	frameSize := 2 * channels
	if len(data)%frameSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes, %d channels", ErrMisalignedPCM, len(data), channels)
	}

	frames := len(data) / frameSize
	buf := &Buffer{SampleRate: sampleRate, Channels: make([][]float32, channels)}
	for ch := range buf.Channels {
		buf.Channels[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * 2
			v := int16(binary.LittleEndian.Uint16(data[off:]))
			buf.Channels[ch][i] = float32(v) / pcmScale
		}
	}
	return buf, nil
}

// Interleave flattens per-channel samples into frame order.
func Interleave(channels [][]float32) []float32 {
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	out := make([]float32, 0, frames*len(channels))
	for i := 0; i < frames; i++ {
		for _, ch := range channels {
			out = append(out, ch[i])
		}
	}
	return out
}

// EncodeText turns raw bytes into the printable form used on the wire.
func EncodeText(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeText reverses EncodeText.
func DecodeText(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode audio payload: %w", err)
	}
	return data, nil
}

func framesToDuration(frames int64, rate int) time.Duration {
	return time.Duration(frames * int64(time.Second) / int64(rate))
}
