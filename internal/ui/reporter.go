package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/0xlemi/notelisten/internal/listen"
)

// Sender is the part of *tea.Program the reporter needs
type Sender interface {
	Send(msg tea.Msg)
}

// Reporter forwards session results to a running program
type Reporter struct {
	program Sender
}

// NewReporter creates a Reporter sending to program
func NewReporter(program Sender) *Reporter {
	return &Reporter{program: program}
}

// Report implements listen.Reporter
func (r *Reporter) Report(res listen.Result) {
	r.program.Send(ResultMsg(res))
}

// Done tells the program the session is over
func (r *Reporter) Done(summary listen.Summary, err error) {
	r.program.Send(DoneMsg{Summary: summary, Err: err})
}
