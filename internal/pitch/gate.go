package pitch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultLoudnessThreshold is the RMS level a block must exceed to be analysed
const DefaultLoudnessThreshold = 0.01

// silenceDB is reported for blocks whose level is too low to take a logarithm of
const silenceDB = -100.0

// RMS returns the root-mean-square level of samples
func RMS(samples []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, fmt.Errorf("%w: empty audio block", ErrInvalidInput)
	}
	return math.Sqrt(floats.Dot(samples, samples) / float64(len(samples))), nil
}

// Gate reports whether the RMS level of samples is strictly above threshold
func Gate(samples []float64, threshold float64) (bool, error) {
	rms, err := RMS(samples)
	if err != nil {
		return false, err
	}
	return passesGate(rms, threshold), nil
}

// passesGate is the gate decision shared by Gate and Pipeline.Process
func passesGate(rms, threshold float64) bool {
	return rms > threshold
}

// Decibels converts an RMS level to dBFS
func Decibels(rms float64) float64 {
	if rms <= 0.0000001 { // Avoid log(0)
		return silenceDB
	}
	return 20 * math.Log10(rms)
}
