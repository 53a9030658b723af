package pitch

import (
	"errors"
	"fmt"
	"math"
)

// Errors
var (
	// ErrInvalidInput reports a broken caller contract: an empty block, a
	// non-positive frequency or sample rate, or an unusable Config.
	ErrInvalidInput = errors.New("invalid input")
)

// Default detector settings
const (
	DefaultSampleRate   = 44100
	DefaultMinFrequency = 50.0
	DefaultMaxFrequency = 5000.0
	DefaultSNRThreshold = 10.0
)

// Config holds the pipeline parameters. Build one with DefaultConfig and
// override fields as needed.
type Config struct {
	SampleRate        int     // Used when a block carries no sample rate of its own
	LoudnessThreshold float64 // Minimum RMS level for analysis
	MinFrequency      float64 // Lowest frequency considered (Hz, inclusive)
	MaxFrequency      float64 // Highest frequency considered (Hz, inclusive)
	SNRThreshold      float64 // Peak to median ratio a peak must exceed
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		SampleRate:        DefaultSampleRate,
		LoudnessThreshold: DefaultLoudnessThreshold,
		MinFrequency:      DefaultMinFrequency,
		MaxFrequency:      DefaultMaxFrequency,
		SNRThreshold:      DefaultSNRThreshold,
	}
}

// Validate checks the config for values the pipeline cannot work with
func (c Config) Validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate %d must be positive", c.SampleRate))
	}
	if c.LoudnessThreshold < 0 || math.IsNaN(c.LoudnessThreshold) {
		errs = append(errs, fmt.Errorf("loudness threshold %v must not be negative", c.LoudnessThreshold))
	}
	if !(c.MinFrequency > 0) {
		errs = append(errs, fmt.Errorf("min frequency %v must be positive", c.MinFrequency))
	}
	if !(c.MaxFrequency >= c.MinFrequency) {
		errs = append(errs, fmt.Errorf("max frequency %v must not be below min frequency %v", c.MaxFrequency, c.MinFrequency))
	}
	if c.SNRThreshold < 0 || math.IsNaN(c.SNRThreshold) {
		errs = append(errs, fmt.Errorf("snr threshold %v must not be negative", c.SNRThreshold))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// Outcome says how the analysis of a block ended
type Outcome int

const (
	// OutcomeDetected means a note was found
	OutcomeDetected Outcome = iota
	// OutcomeQuiet means the block did not pass the loudness gate
	OutcomeQuiet
	// OutcomeNoBins means no spectral bin fell inside the frequency range
	OutcomeNoBins
	// OutcomeNoNoiseFloor means the median magnitude was zero
	OutcomeNoNoiseFloor
	// OutcomeLowSNR means the peak did not stand out from the noise floor
	OutcomeLowSNR
	// OutcomeInvalid means the block violated the pipeline contract
	OutcomeInvalid
)

var outcomeNames = map[Outcome]string{
	OutcomeDetected:     "detected",
	OutcomeQuiet:        "quiet",
	OutcomeNoBins:       "no_bins",
	OutcomeNoNoiseFloor: "no_noise_floor",
	OutcomeLowSNR:       "low_snr",
	OutcomeInvalid:      "invalid",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Estimate is an accepted pitch
type Estimate struct {
	Frequency  float64 // Peak bin frequency in Hz
	Magnitude  float64 // Peak bin magnitude
	NoiseFloor float64 // Median magnitude over the frequency range
	SNR        float64 // Magnitude / NoiseFloor
	Note       Note
}

// String formats the estimate the way it is shown to the user
func (e Estimate) String() string {
	return fmt.Sprintf("Frequency: %.1f Hz | Note: %s", e.Frequency, e.Note)
}

// Detector defines the interface for pitch detection
type Detector interface {
	// Detect analyzes single-channel samples and returns the dominant pitch.
	// A nil estimate with a nil error means the block holds no usable pitch;
	// the outcome tells why.
	Detect(samples []float64, sampleRate int) (*Estimate, Outcome, error)
}
