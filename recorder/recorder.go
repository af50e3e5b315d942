// Package recorder writes the microphone input and the assistant output of a
// session to 16-bit WAV files.
package recorder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/mrsingh-rishi/brahmastra/audio"
)

const bitDepth = 16

var ErrClosed = errors.New("recorder is closed")

type track struct {
	path string
	file *os.File
	enc  *wav.Encoder
	rate int
}

func openTrack(path string, rate int) (*track, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	// 1 is the PCM audio format tag.
	return &track{path: path, file: f, enc: wav.NewEncoder(f, rate, bitDepth, 1, 1), rate: rate}, nil
}

func (t *track) write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: t.rate},
		Data:           audio.Quantize(samples),
		SourceBitDepth: bitDepth,
	}
	return t.enc.Write(buf)
}

func (t *track) close() error {
	encErr := t.enc.Close()
	fileErr := t.file.Close()
	return errors.Join(encErr, fileErr)
}

// Recorder holds one input track and one output track.
type Recorder struct {
	mu     sync.Mutex
	input  *track
	output *track
	closed bool
}

// New creates <dir>/<sessionID>-input.wav and <dir>/<sessionID>-output.wav.
func New(dir, sessionID string, inputRate, outputRate int) (*Recorder, error) {
	if dir == "" {
		return nil, fmt.Errorf("recording directory is required")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recording directory: %w", err)
	}

	input, err := openTrack(filepath.Join(dir, sessionID+"-input.wav"), inputRate)
	if err != nil {
		return nil, err
	}
	output, err := openTrack(filepath.Join(dir, sessionID+"-output.wav"), outputRate)
	if err != nil {
		input.close()
		return nil, err
	}
	return &Recorder{input: input, output: output}, nil
}

func (r *Recorder) WriteInput(samples []float32) error {
	return r.write(r.input, samples)
}

func (r *Recorder) WriteOutput(samples []float32) error {
	return r.write(r.output, samples)
}

func (r *Recorder) write(t *track, samples []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return t.write(samples)
}

// Paths returns the input and output file paths.
func (r *Recorder) Paths() (string, string) {
	return r.input.path, r.output.path
}

// Close finalizes both WAV headers. It is safe to call more than once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return errors.Join(r.input.close(), r.output.close())
}
