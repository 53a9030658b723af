package listen

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/0xlemi/notelisten/internal/pitch"
)

// ConsoleReporter prints one line per accepted estimate:
//
//	Frequency: 440.4 Hz | Note: A4
//
// In verbose mode rejected blocks are printed as well, with the reason.
type ConsoleReporter struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool

	noteColor    *color.Color
	sharpColor   *color.Color
	dimColor     *color.Color
	warningColor *color.Color
}

// NewConsoleReporter writes to out. Colour follows fatih/color's terminal
// detection, so output redirected to a file or pipe stays plain.
func NewConsoleReporter(out io.Writer, verbose bool) *ConsoleReporter {
	return &ConsoleReporter{
		out:          out,
		verbose:      verbose,
		noteColor:    color.New(color.FgGreen, color.Bold),
		sharpColor:   color.New(color.FgCyan, color.Bold),
		dimColor:     color.New(color.Faint),
		warningColor: color.New(color.FgYellow),
	}
}

// Report implements [Reporter].
func (c *ConsoleReporter) Report(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case r.Err != nil:
		if c.verbose {
			c.warningColor.Fprintf(c.out, "[%6.2fs] invalid block: %v\n", r.Offset.Seconds(), r.Err)
		}
	case r.Estimate != nil:
		fmt.Fprintf(c.out, "Frequency: %.1f Hz | Note: %s", r.Estimate.Frequency, c.note(r.Estimate.Note))
		if c.verbose {
			c.dimColor.Fprintf(c.out, "  (%+.0f cents, snr %.1f, %.1f dBFS)",
				r.Estimate.Note.Cents, r.Estimate.SNR, pitch.Decibels(r.Level))
		}
		fmt.Fprintln(c.out)
	case c.verbose:
		c.dimColor.Fprintf(c.out, "[%6.2fs] %s (%.1f dBFS)\n",
			r.Offset.Seconds(), r.Outcome, pitch.Decibels(r.Level))
	}
}

func (c *ConsoleReporter) note(n pitch.Note) string {
	if n.Name.Sharp() {
		return c.sharpColor.Sprint(n.String())
	}
	return c.noteColor.Sprint(n.String())
}

// PrintSummary writes the end-of-session totals.
func (c *ConsoleReporter) PrintSummary(s Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "Analysed %d blocks in %s: %d notes", s.Blocks, s.Elapsed.Round(time.Millisecond), s.Estimates)
	if s.Invalid > 0 {
		fmt.Fprintf(c.out, ", %d invalid", s.Invalid)
	}
	if s.Dropped > 0 {
		c.warningColor.Fprintf(c.out, ", %d dropped", s.Dropped)
	}
	fmt.Fprintln(c.out)
}
