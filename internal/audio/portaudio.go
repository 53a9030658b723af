package audio

import (
	"context"
	"errors"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// queuedBlocks is how many captured blocks may wait for the reader before
// new ones are dropped
const queuedBlocks = 8

// PortAudioCapturer implements audio capture using PortAudio
type PortAudioCapturer struct {
	mu          sync.Mutex
	isCapturing bool
	stream      *portaudio.Stream
	queue       *blockQueue
	bufferSize  int // Frames per block
	sampleRate  int
	channels    int
}

// NewPortAudioCapturer creates a new audio capturer using PortAudio. Each
// block holds bufferSize frames of the default input device.
func NewPortAudioCapturer(bufferSize, sampleRate, channels int) (*PortAudioCapturer, error) {
	// Initialize PortAudio
	err := portaudio.Initialize()
	if err != nil {
		return nil, err
	}

	return &PortAudioCapturer{
		bufferSize: bufferSize,
		sampleRate: sampleRate,
		channels:   channels,
		queue:      newBlockQueue(queuedBlocks),
	}, nil
}

// Start begins audio capture
func (c *PortAudioCapturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isCapturing {
		return ErrAlreadyStarted
	}

	c.queue = newBlockQueue(queuedBlocks)

	// Open default input stream
	var err error
	c.stream, err = portaudio.OpenDefaultStream(
		c.channels, // input channels
		0,          // output channels (we don't need output)
		float64(c.sampleRate),
		c.bufferSize,   // frames per buffer
		c.processAudio, // callback function
	)
	if err != nil {
		return err
	}

	// Start the stream
	err = c.stream.Start()
	if err != nil {
		c.stream.Close()
		return err
	}

	c.isCapturing = true
	return nil
}

// Stop ends audio capture
func (c *PortAudioCapturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isCapturing {
		return ErrNotStarted
	}
	c.isCapturing = false
	c.queue.close()

	// Stop and close the stream
	return errors.Join(c.stream.Stop(), c.stream.Close())
}

// Close releases PortAudio. The capturer cannot be started again afterwards.
func (c *PortAudioCapturer) Close() error {
	if c.IsCapturing() {
		if err := c.Stop(); err != nil {
			return err
		}
	}
	return portaudio.Terminate()
}

// processAudio is the callback function for audio processing. PortAudio
// reuses in, so the block is copied before it is queued.
func (c *PortAudioCapturer) processAudio(in []float32) {
	block := &AudioBuffer{
		Samples:    make([]float32, len(in)),
		SampleRate: c.sampleRate,
		Channels:   c.channels,
	}
	copy(block.Samples, in)
	c.queue.push(block)
}

// Read returns the next captured block
func (c *PortAudioCapturer) Read(ctx context.Context) (*AudioBuffer, error) {
	c.mu.Lock()
	if !c.isCapturing {
		c.mu.Unlock()
		return nil, ErrNotStarted
	}
	queue := c.queue
	c.mu.Unlock()

	return queue.pop(ctx)
}

// IsCapturing returns true if currently capturing audio
func (c *PortAudioCapturer) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isCapturing
}

// Dropped returns how many blocks were discarded because the reader fell behind
func (c *PortAudioCapturer) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.dropped.Load()
}
