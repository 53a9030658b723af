package pitch

import (
	"fmt"
	"math/cmplx"
	"slices"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// Bin is one slot of a magnitude spectrum
type Bin struct {
	Frequency float64 // Hz
	Magnitude float64
}

// Spectrum returns the one-sided magnitude spectrum of samples: N/2+1 bins
// where bin k sits at k*sampleRate/N.
func Spectrum(samples []float64, sampleRate int) []Bin {
	n := len(samples)
	if n == 0 {
		return nil
	}

	coefficients := fft.FFTReal(samples)

	// Calculate frequency resolution (Hz per bin)
	binSizeHz := float64(sampleRate) / float64(n)

	bins := make([]Bin, n/2+1)
	for k := range bins {
		bins[k] = Bin{
			Frequency: float64(k) * binSizeHz,
			Magnitude: cmplx.Abs(coefficients[k]),
		}
	}
	return bins
}

// FFTDetector implements pitch detection by picking the strongest spectral
// peak and checking it against the median magnitude.
type FFTDetector struct {
	minFrequency float64 // Lowest frequency to detect (Hz)
	maxFrequency float64 // Highest frequency to detect (Hz)
	snrThreshold float64 // Minimum peak to noise floor ratio
}

// NewFFTDetector creates a new FFT-based pitch detector
func NewFFTDetector(cfg Config) *FFTDetector {
	return &FFTDetector{
		minFrequency: cfg.MinFrequency,
		maxFrequency: cfg.MaxFrequency,
		snrThreshold: cfg.SNRThreshold,
	}
}

// Detect runs the spectral analysis on single-channel samples
func (d *FFTDetector) Detect(samples []float64, sampleRate int) (*Estimate, Outcome, error) {
	if len(samples) == 0 {
		return nil, OutcomeInvalid, fmt.Errorf("%w: empty audio block", ErrInvalidInput)
	}
	if sampleRate <= 0 {
		return nil, OutcomeInvalid, fmt.Errorf("%w: sample rate %d must be positive", ErrInvalidInput, sampleRate)
	}
	return d.analyze(Spectrum(samples, sampleRate))
}

// analyze picks the peak out of a spectrum
func (d *FFTDetector) analyze(spectrum []Bin) (*Estimate, Outcome, error) {
	candidates := inRange(spectrum, d.minFrequency, d.maxFrequency)
	if len(candidates) == 0 {
		return nil, OutcomeNoBins, nil
	}

	magnitudes := make([]float64, len(candidates))
	for i, bin := range candidates {
		magnitudes[i] = bin.Magnitude
	}

	// MaxIdx returns the first maximum, so ties go to the lowest frequency
	peak := candidates[floats.MaxIdx(magnitudes)]

	noiseFloor := median(magnitudes)
	if noiseFloor == 0 {
		return nil, OutcomeNoNoiseFloor, nil
	}

	snr := peak.Magnitude / noiseFloor
	if !(snr > d.snrThreshold) {
		return nil, OutcomeLowSNR, nil
	}

	note, err := FreqToNote(peak.Frequency)
	if err != nil {
		return nil, OutcomeInvalid, err
	}

	return &Estimate{
		Frequency:  peak.Frequency,
		Magnitude:  peak.Magnitude,
		NoiseFloor: noiseFloor,
		SNR:        snr,
		Note:       note,
	}, OutcomeDetected, nil
}

// inRange keeps the bins whose frequency lies in [low, high]
func inRange(spectrum []Bin, low, high float64) []Bin {
	var kept []Bin
	for _, bin := range spectrum {
		if bin.Frequency >= low && bin.Frequency <= high {
			kept = append(kept, bin)
		}
	}
	return kept
}

// median of values, averaging the two middle values for an even count.
// values is not modified.
func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
