package audio

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// ToneCapturer is a Capturer that synthesises a sine tone instead of
// recording. It stands in for a microphone when none is available.
type ToneCapturer struct {
	mu          sync.Mutex
	isCapturing bool
	closed      chan struct{}
	frequency   float64
	amplitude   float64
	noise       float64 // Amplitude of uniform noise added to every sample
	bufferSize  int
	sampleRate  int
	channels    int
	realtime    bool  // Deliver blocks no faster than they would be recorded
	position    int64 // Frames generated so far
	rng         *rand.Rand
	next        time.Time
}

// NewToneCapturer creates a capturer producing a sine at frequency Hz with
// the given peak amplitude. Every channel carries the same signal.
func NewToneCapturer(frequency, amplitude float64, bufferSize, sampleRate, channels int) *ToneCapturer {
	return &ToneCapturer{
		frequency:  frequency,
		amplitude:  amplitude,
		bufferSize: bufferSize,
		sampleRate: sampleRate,
		channels:   max(channels, 1),
		rng:        rand.New(rand.NewPCG(1, 2)),
	}
}

// SetNoise mixes uniform noise of the given amplitude into the tone
func (c *ToneCapturer) SetNoise(amplitude float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.noise = amplitude
}

// SetRealtime paces Read to one block per block duration
func (c *ToneCapturer) SetRealtime(realtime bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.realtime = realtime
}

// Start begins audio capture
func (c *ToneCapturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isCapturing {
		return ErrAlreadyStarted
	}
	c.isCapturing = true
	c.closed = make(chan struct{})
	c.next = time.Now()
	return nil
}

// Stop ends audio capture
func (c *ToneCapturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isCapturing {
		return ErrNotStarted
	}
	c.isCapturing = false
	close(c.closed)
	return nil
}

// Read returns the next block. Consecutive blocks continue the waveform
// where the previous one ended.
func (c *ToneCapturer) Read(ctx context.Context) (*AudioBuffer, error) {
	c.mu.Lock()
	if !c.isCapturing {
		c.mu.Unlock()
		return nil, ErrNotStarted
	}
	closed := c.closed
	var wait time.Duration
	if c.realtime {
		c.next = c.next.Add(time.Duration(c.bufferSize) * time.Second / time.Duration(c.sampleRate))
		wait = time.Until(c.next)
	}
	block := c.generate()
	c.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-closed:
			return nil, ErrClosed
		case <-timer.C:
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return block, nil
}

// IsCapturing returns true if currently capturing audio
func (c *ToneCapturer) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isCapturing
}

// generate renders the next block; c.mu must be held
func (c *ToneCapturer) generate() *AudioBuffer {
	block := &AudioBuffer{
		Samples:    make([]float32, c.bufferSize*c.channels),
		SampleRate: c.sampleRate,
		Channels:   c.channels,
	}

	for i := 0; i < c.bufferSize; i++ {
		t := float64(c.position+int64(i)) / float64(c.sampleRate)
		v := c.amplitude * math.Sin(2*math.Pi*c.frequency*t)
		if c.noise > 0 {
			v += c.noise * (2*c.rng.Float64() - 1)
		}
		for ch := 0; ch < c.channels; ch++ {
			block.Samples[i*c.channels+ch] = float32(v)
		}
	}
	c.position += int64(c.bufferSize)

	return block
}
