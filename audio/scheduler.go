package audio

import (
	"fmt"
	"sync"
	"time"
)

// Handle is one buffer scheduled on the playback timeline.
type Handle struct {
	buf        *Buffer
	rate       int
	start, end int64
	stopped    bool
	done       chan struct{}
	once       sync.Once
}

func (h *Handle) Start() time.Duration { return framesToDuration(h.start, h.rate) }

func (h *Handle) End() time.Duration { return framesToDuration(h.end, h.rate) }

// Done is closed when the handle finishes playing or is stopped.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Stopped reports whether the handle was cut short by an interruption.
func (h *Handle) Stopped() bool {
	select {
	case <-h.done:
		return h.stopped
	default:
		return false
	}
}

func (h *Handle) finish(stopped bool) {
	h.once.Do(func() {
		h.stopped = stopped
		close(h.done)
	})
}

// Scheduler lines decoded buffers up back to back on an output timeline.
// The timeline clock is the number of frames the output device has pulled
// through Render.
type Scheduler struct {
	mu     sync.Mutex
	rate   int
	now    int64
	next   int64
	active map[*Handle]struct{}
	gain   *Gain
}

// NewScheduler creates a scheduler for an output device running at rate.
// ramp is the mute/unmute time constant.
func NewScheduler(rate int, ramp time.Duration) *Scheduler {
	return &Scheduler{
		rate:   rate,
		active: make(map[*Handle]struct{}),
		gain:   NewGain(rate, ramp, 1),
	}
}

func (s *Scheduler) SampleRate() int { return s.rate }

// Schedule enqueues buf to start exactly at the cursor, clamped to the
// current output time, and advances the cursor by its duration.
func (s *Scheduler) Schedule(buf *Buffer) (*Handle, error) {
	if buf == nil {
		return nil, fmt.Errorf("buffer is required")
	}
	if buf.SampleRate != s.rate {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSampleRateMismatch, buf.SampleRate, s.rate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next < s.now {
		s.next = s.now
	}
	h := &Handle{
		buf:   buf,
		rate:  s.rate,
		start: s.next,
		end:   s.next + int64(buf.Frames()),
		done:  make(chan struct{}),
	}
	s.next = h.end

	if h.end == h.start {
		h.finish(false)
		return h, nil
	}
	s.active[h] = struct{}{}
	return h, nil
}

// Interrupt stops every active handle, empties the active set and rewinds
// the cursor to zero. It returns how many handles were stopped.
func (s *Scheduler) Interrupt() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.active)
	for h := range s.active {
		h.finish(true)
		delete(s.active, h)
	}
	s.next = 0
	return n
}

// Reset rewinds the cursor without touching active handles.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.next = 0
	s.mu.Unlock()
}

// SetMuted ramps the shared gain toward 0 or 1. Playback keeps running.
func (s *Scheduler) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if muted {
		s.gain.SetTarget(0)
	} else {
		s.gain.SetTarget(1)
	}
}

// Now is the output clock.
func (s *Scheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return framesToDuration(s.now, s.rate)
}

// Cursor is where the next buffer would start before clamping.
func (s *Scheduler) Cursor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return framesToDuration(s.next, s.rate)
}

// Active returns the number of handles still playing or waiting to play.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Render fills out with the mix of every handle overlapping the next
// len(out) frames, applies the gain, and advances the clock. Handles whose
// end has been reached are completed and dropped from the active set.
func (s *Scheduler) Render(out []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handles := make([]*Handle, 0, len(s.active))
	for h := range s.active {
		handles = append(handles, h)
	}

	for i := range out {
		t := s.now + int64(i)
		var v float32
		for _, h := range handles {
			if t >= h.start && t < h.end {
				v += h.buf.mono(int(t - h.start))
			}
		}
		out[i] = v * s.gain.Next()
	}
	s.now += int64(len(out))

	for _, h := range handles {
		if h.end <= s.now {
			delete(s.active, h)
			h.finish(false)
		}
	}
}
