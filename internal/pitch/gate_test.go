package pitch_test

import (
	"errors"
	"math"
	"testing"

	"github.com/0xlemi/notelisten/internal/pitch"
)

func TestGate_EmptyBlock(t *testing.T) {
	t.Parallel()
	for _, threshold := range []float64{0, 0.01, 1} {
		if _, err := pitch.Gate(nil, threshold); !errors.Is(err, pitch.ErrInvalidInput) {
			t.Errorf("threshold %v: got %v, want ErrInvalidInput", threshold, err)
		}
		if _, err := pitch.Gate([]float64{}, threshold); !errors.Is(err, pitch.ErrInvalidInput) {
			t.Errorf("threshold %v: got %v, want ErrInvalidInput", threshold, err)
		}
	}
}

func TestRMS(t *testing.T) {
	t.Parallel()
	got, err := pitch.RMS([]float64{3, 4})
	if err != nil {
		t.Fatalf("RMS: %v", err)
	}
	if want := math.Sqrt(12.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestGate_StrictlyAboveThreshold(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		samples   []float64
		threshold float64
		want      bool
	}{
		{"above", []float64{0.02, -0.02, 0.02}, 0.01, true},
		{"below", []float64{0.005, -0.005}, 0.01, false},
		{"equal", []float64{0.5, -0.5, 0.5, -0.5}, 0.5, false},
		{"silence", make([]float64, 16), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pitch.Gate(tt.samples, tt.threshold)
			if err != nil {
				t.Fatalf("Gate: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGate_Monotonic(t *testing.T) {
	t.Parallel()
	base := uniformNoise(0.02, 512, 3)
	for _, threshold := range []float64{0.001, 0.005, 0.01, 0.02} {
		for _, c := range []float64{1.01, 1.5, 2, 10, 100} {
			scaled := make([]float64, len(base))
			for i, s := range base {
				scaled[i] = c * s
			}
			before, _ := pitch.Gate(base, threshold)
			after, _ := pitch.Gate(scaled, threshold)
			if before && !after {
				t.Errorf("threshold %v: scaling by %v turned a passing block into a failing one", threshold, c)
			}
		}
	}
}

func TestDecibels(t *testing.T) {
	t.Parallel()
	if got := pitch.Decibels(1); got != 0 {
		t.Errorf("Decibels(1) = %v, want 0", got)
	}
	if got := pitch.Decibels(0.1); math.Abs(got+20) > 1e-9 {
		t.Errorf("Decibels(0.1) = %v, want -20", got)
	}
	if got := pitch.Decibels(0); got != -100 {
		t.Errorf("Decibels(0) = %v, want -100", got)
	}
}
