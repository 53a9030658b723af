package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/0xlemi/notelisten/internal/listen"
	"github.com/0xlemi/notelisten/internal/pitch"
)

const (
	tickInterval = 100 * time.Millisecond

	// Level meter range in dBFS
	meterFloor = -60.0
	meterWidth = 30
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	meterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	// Note colors
	noteColors = map[string]string{
		"C": "#E8D6B0", // Beige
		"D": "#A020F0", // Purple
		"E": "#FFFF00", // Yellow
		"F": "#FFA500", // Orange
		"G": "#00FF00", // Green
		"A": "#FF0000", // Red
		"B": "#0000FF", // Blue
	}
)

// noteBox is the box a note is drawn in; sharps use two halves of it.
func noteBox(background string) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(background)).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333"))
}

// Get the next natural note in the scale (for sharp note colors)
func getNextNote(note string) string {
	switch note {
	case "C":
		return "D"
	case "D":
		return "E"
	case "E":
		return "F"
	case "F":
		return "G"
	case "G":
		return "A"
	case "A":
		return "B"
	default:
		return "C"
	}
}

// renderNote draws a note in its colour. Sharps are split between the colour
// of their natural and the next natural up.
func renderNote(n pitch.Note) string {
	text := n.String()
	base := text[:1]

	if !n.Name.Sharp() {
		return noteBox(noteColors[base]).Padding(2, 4).Render(text)
	}

	left := noteBox(noteColors[base]).
		BorderRight(false).
		PaddingLeft(2).
		PaddingRight(1).
		PaddingTop(2).
		PaddingBottom(2)
	right := noteBox(noteColors[getNextNote(base)]).
		BorderLeft(false).
		PaddingLeft(1).
		PaddingRight(2).
		PaddingTop(2).
		PaddingBottom(2)

	return lipgloss.JoinHorizontal(lipgloss.Top, left.Render(base), right.Render(text[1:]))
}

// levelMeter renders an RMS level as a dBFS bar.
func levelMeter(rms float64) string {
	db := pitch.Decibels(rms)
	filled := int((db - meterFloor) / -meterFloor * meterWidth)
	filled = min(max(filled, 0), meterWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", meterWidth-filled)
	return meterStyle.Render(bar) + infoStyle.Render(fmt.Sprintf(" %6.1f dBFS", db))
}

// TickMsg represents a timer tick
type TickMsg time.Time

// ResultMsg carries the analysis of one block
type ResultMsg listen.Result

// DoneMsg is sent once the session has ended
type DoneMsg struct {
	Summary listen.Summary
	Err     error
}

// Model represents the UI state
type Model struct {
	estimate *pitch.Estimate // Latest accepted estimate, cleared on rejection
	outcome  pitch.Outcome
	level    float64
	blocks   int
	notes    int

	started  time.Time
	now      time.Time
	duration time.Duration // Zero means unlimited

	done    bool
	summary listen.Summary
	err     error

	width  int
	height int
}

// NewModel creates a new UI model for a session lasting duration
func NewModel(duration time.Duration) Model {
	now := time.Now()
	return Model{
		outcome:  pitch.OutcomeQuiet,
		started:  now,
		now:      now,
		duration: duration,
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Init initializes the UI model
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update updates the UI model based on messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		m.now = time.Time(msg)
		if m.done {
			return m, nil
		}
		return m, tick()

	case ResultMsg:
		m.blocks++
		m.outcome = msg.Outcome
		m.level = msg.Level
		m.estimate = msg.Estimate
		if msg.Estimate != nil {
			m.notes++
		}

	case DoneMsg:
		m.done = true
		m.summary = msg.Summary
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// remaining is the time left in a bounded session
func (m Model) remaining() time.Duration {
	left := m.duration - m.now.Sub(m.started)
	return max(left, 0).Truncate(time.Second)
}

// View renders the UI
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("NoteListen - Musical Note Detector"))
	b.WriteString("\n")

	if m.estimate != nil {
		b.WriteString(renderNote(m.estimate.Note))
		b.WriteString("\n\n")
		b.WriteString(infoStyle.Render(fmt.Sprintf("Frequency: %.1f Hz | Cents: %+.0f | SNR: %.1f",
			m.estimate.Frequency, m.estimate.Note.Cents, m.estimate.SNR)))
	} else {
		status := "Listening for audio..."
		if m.blocks > 0 && m.outcome != pitch.OutcomeQuiet {
			status = fmt.Sprintf("No clear pitch (%s)", m.outcome)
		}
		b.WriteString(infoStyle.Render(status))
	}
	b.WriteString("\n\n")

	b.WriteString(levelMeter(m.level))
	b.WriteString("\n")

	footer := fmt.Sprintf("%d blocks | %d notes", m.blocks, m.notes)
	if m.duration > 0 {
		footer += fmt.Sprintf(" | %s left", m.remaining())
	}
	b.WriteString(infoStyle.Render(footer))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(infoStyle.Render("Press q to quit"))

	return b.String()
}

// Err returns the error the session ended with, if any
func (m Model) Err() error {
	return m.err
}
