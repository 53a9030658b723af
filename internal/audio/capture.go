package audio

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// Errors
var (
	ErrAlreadyStarted = errors.New("audio capture already started")
	ErrNotStarted     = errors.New("audio capture not started")
	ErrClosed         = errors.New("audio capture stopped")
)

// AudioBuffer represents a block of audio samples
type AudioBuffer struct {
	Samples    []float32 // Interleaved when Channels > 1
	SampleRate int
	Channels   int
}

// Frames returns the number of samples per channel
func (b *AudioBuffer) Frames() int {
	if b.Channels <= 1 {
		return len(b.Samples)
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the span of time the block covers
func (b *AudioBuffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// FirstChannel returns the samples of the first channel as float64. The
// remaining channels are dropped, not averaged.
func (b *AudioBuffer) FirstChannel() []float64 {
	stride := max(b.Channels, 1)
	out := make([]float64, b.Frames())
	for i := range out {
		out[i] = float64(b.Samples[i*stride])
	}
	return out
}

// Capturer defines the interface for audio capture
type Capturer interface {
	// Start begins audio capture
	Start() error

	// Stop ends audio capture. Pending and future reads fail with ErrClosed.
	Stop() error

	// Read blocks until the next captured block is available. Blocks are
	// returned in arrival order.
	Read(ctx context.Context) (*AudioBuffer, error)

	// IsCapturing returns true if currently capturing audio
	IsCapturing() bool
}

// blockQueue hands blocks from a capture callback to a reader. The callback
// never waits: when the queue is full the block is dropped and counted.
type blockQueue struct {
	blocks  chan *AudioBuffer
	closed  chan struct{}
	once    atomic.Bool
	dropped atomic.Uint64
}

func newBlockQueue(size int) *blockQueue {
	return &blockQueue{
		blocks: make(chan *AudioBuffer, size),
		closed: make(chan struct{}),
	}
}

func (q *blockQueue) push(b *AudioBuffer) {
	select {
	case <-q.closed:
		return
	default:
	}
	select {
	case q.blocks <- b:
	default:
		q.dropped.Add(1)
	}
}

func (q *blockQueue) pop(ctx context.Context) (*AudioBuffer, error) {
	select {
	case <-q.closed:
		return nil, ErrClosed
	default:
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.closed:
		return nil, ErrClosed
	case b := <-q.blocks:
		return b, nil
	}
}

func (q *blockQueue) close() {
	if q.once.CompareAndSwap(false, true) {
		close(q.closed)
	}
}
