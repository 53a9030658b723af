package pitch

import (
	"fmt"
	"math"
)

// NoteName is one of the 12 pitch classes, counted upwards from A.
type NoteName int

const (
	A NoteName = iota
	ASharp
	B
	C
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
)

// All note names in chromatic order, starting at the reference pitch class
var noteNames = [...]string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F", "F#", "G", "G#"}

// String returns the note name, e.g. "A" or "C#"
func (n NoteName) String() string {
	if n < 0 || int(n) >= len(noteNames) {
		return fmt.Sprintf("NoteName(%d)", int(n))
	}
	return noteNames[n]
}

// Sharp reports whether n is an accidental
func (n NoteName) Sharp() bool {
	switch n {
	case ASharp, CSharp, DSharp, FSharp, GSharp:
		return true
	}
	return false
}

// Piano key numbering: A0 is key 1, A4 (440Hz) is key 49
const (
	referenceFrequency = 440.0
	referenceKey       = 49
)

// Note represents a musical note
type Note struct {
	Name   NoteName // e.g. A, A#, B
	Octave int      // e.g. 4 for middle C (C4)
	Key    int      // Piano key number (A0 = 1)
	Cents  float64  // Deviation of the measured frequency from the key (-50 to +50)
}

// String returns the scientific pitch notation, e.g. "A4"
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// FreqToNote converts a frequency to the nearest equal-tempered note.
//
// The key number 12*log2(freq/440)+49 is rounded by roundKey. The name is
// taken from (key-1) mod 12 and the octave is floor((key+8)/12), both with
// floored arithmetic so keys below A0 keep counting downwards.
func FreqToNote(freq float64) (Note, error) {
	if !(freq > 0) || math.IsInf(freq, 1) {
		return Note{}, fmt.Errorf("%w: frequency %v Hz must be positive and finite", ErrInvalidInput, freq)
	}

	exact := 12*math.Log2(freq/referenceFrequency) + referenceKey
	key := roundKey(exact)

	return Note{
		Name:   NoteName(floorMod(key-1, 12)),
		Octave: floorDiv(key+8, 12),
		Key:    key,
		Cents:  100 * (exact - float64(key)),
	}, nil
}

// roundKey rounds a fractional key number to the nearest key, with exact
// halves going away from zero (48.5 is key 49, -0.5 is key -1). This is not
// banker's rounding: a frequency exactly between two keys always takes the
// upper one for positive keys, where round-half-to-even would pick the even
// key half of the time.
func roundKey(exact float64) int {
	return int(math.Round(exact))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
