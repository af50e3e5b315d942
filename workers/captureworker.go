package workers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/mrsingh-rishi/brahmastra/audio"
	"github.com/mrsingh-rishi/brahmastra/device"
	"github.com/mrsingh-rishi/brahmastra/logger"
	"github.com/mrsingh-rishi/brahmastra/metrics"
	"github.com/mrsingh-rishi/brahmastra/model"
	"github.com/mrsingh-rishi/brahmastra/queue"
)

// MediaSender is the outbound half of a live session.
type MediaSender interface {
	SendMedia(frame model.MediaFrame) error
}

// CaptureWorker reads the microphone, cuts it into fixed-size chunks and
// hands each chunk to the transport in arrival order. Sending never blocks
// the microphone: chunks wait in an unbounded queue.
type CaptureWorker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	Source   device.Source
	Sender   MediaSender
	Chunker  *audio.Chunker
	Queue    *queue.Queue[model.MediaFrame]
	MIMEType string
	// OnCapture sees every raw microphone read, before chunking.
	OnCapture func(samples []float32)

	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

func NewCaptureWorker(source device.Source, sender MediaSender, chunkFrames int, m *metrics.Metrics) (*CaptureWorker, error) {
	if source == nil {
		return nil, fmt.Errorf("capture source is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("media sender is required")
	}
	if chunkFrames <= 0 {
		return nil, fmt.Errorf("chunk size must be positive")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &CaptureWorker{
		ctx:      ctx,
		cancel:   cancel,
		Source:   source,
		Sender:   sender,
		Chunker:  audio.NewChunker(chunkFrames),
		Queue:    queue.New[model.MediaFrame](),
		MIMEType: fmt.Sprintf("audio/pcm;rate=%d", source.SampleRate()),
		metrics:  m,
	}, nil
}

func (w *CaptureWorker) Start() {
	w.wg.Add(2)
	go w.capture()
	go w.send()
}

// Stop ends capture and waits for both loops. Chunks still queued are dropped.
func (w *CaptureWorker) Stop() {
	w.cancel()
	w.wg.Wait()
}

func (w *CaptureWorker) capture() {
	defer w.wg.Done()
	for {
		samples, err := w.Source.Read(w.ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				if rest := w.Chunker.Flush(); len(rest) > 0 {
					w.enqueue(rest)
				}
				logger.Info("Capture source exhausted")
			case w.ctx.Err() != nil:
			default:
				logger.Error("Capture read failed", "error", err)
			}
			return
		}

		if w.OnCapture != nil {
			w.OnCapture(samples)
		}
		for _, chunk := range w.Chunker.Push(samples) {
			w.enqueue(chunk)
		}
	}
}

func (w *CaptureWorker) enqueue(chunk []float32) {
	w.Queue.Enqueue(model.MediaFrame{
		Data:     audio.EncodeText(audio.SamplesToBytes(chunk)),
		MIMEType: w.MIMEType,
	})
	if w.metrics != nil {
		w.metrics.SendQueueDepth.Set(float64(w.Queue.Len()))
	}
}

func (w *CaptureWorker) send() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.Queue.Ready():
			for {
				frame, ok := w.Queue.Dequeue()
				if !ok {
					break
				}
				w.deliver(frame)
				if w.ctx.Err() != nil {
					return
				}
			}
		}
	}
}

func (w *CaptureWorker) deliver(frame model.MediaFrame) {
	err := w.Sender.SendMedia(frame)
	if w.metrics != nil {
		w.metrics.SendQueueDepth.Set(float64(w.Queue.Len()))
		if err != nil {
			w.metrics.ChunkSendErrors.Inc()
		} else {
			w.metrics.ChunksSent.Inc()
		}
	}
	if err != nil {
		logger.Debug("Dropped capture chunk", "error", err)
	}
}
