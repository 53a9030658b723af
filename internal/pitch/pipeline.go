package pitch

import (
	"fmt"

	"github.com/0xlemi/notelisten/internal/audio"
)

// Result is what the pipeline makes of one block
type Result struct {
	Outcome  Outcome
	Level    float64   // RMS of the analysed channel
	Estimate *Estimate // Set only when Outcome is OutcomeDetected
}

// Pipeline runs the loudness gate and the detector over audio blocks. It
// keeps no state between blocks and is safe for concurrent use.
type Pipeline struct {
	cfg      Config
	detector Detector
}

// NewPipeline validates cfg and builds a pipeline around an FFTDetector
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, detector: NewFFTDetector(cfg)}, nil
}

// Config returns the settings the pipeline was built with
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Process analyses one block. Multi-channel blocks are reduced to their
// first channel; the others are ignored rather than mixed in.
func (p *Pipeline) Process(buffer *audio.AudioBuffer) (Result, error) {
	if buffer == nil {
		return Result{Outcome: OutcomeInvalid}, fmt.Errorf("%w: nil audio buffer", ErrInvalidInput)
	}

	samples := buffer.FirstChannel()
	level, err := RMS(samples)
	if err != nil {
		return Result{Outcome: OutcomeInvalid}, err
	}

	result := Result{Level: level}
	if !passesGate(level, p.cfg.LoudnessThreshold) {
		result.Outcome = OutcomeQuiet
		return result, nil
	}

	sampleRate := buffer.SampleRate
	if sampleRate <= 0 {
		sampleRate = p.cfg.SampleRate
	}

	result.Estimate, result.Outcome, err = p.detector.Detect(samples, sampleRate)
	return result, err
}
