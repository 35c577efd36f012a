package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jesspatton/lazyspec/engine"
)

// SpecStartedMsg is sent when the executor starts a spec.
type SpecStartedMsg string

// OutputMsg carries a line of output from a running spec.
type OutputMsg struct {
	Spec string
	Line string
}

// SpecDoneMsg carries the result of one spec.
type SpecDoneMsg engine.SpecResult

// RunFinishedMsg carries the outcome of a whole pipeline run.
type RunFinishedMsg struct {
	Stats engine.Stats
	Err   error
}

// LogMsg is one rendered log line.
type LogMsg string

// WatcherMsg indicates a watched file changed.
type WatcherMsg string

// Events forwards executor progress into the program. Its methods match the
// runner.Executor callbacks, and it doubles as the console log writer.
type Events chan tea.Msg

// NewEvents creates a buffered event channel.
func NewEvents() Events {
	return make(Events, 256)
}

// Start reports a spec start.
func (e Events) Start(spec string) { e <- SpecStartedMsg(spec) }

// Output reports one output line.
func (e Events) Output(spec, line string) { e <- OutputMsg{Spec: spec, Line: line} }

// Done reports a finished spec.
func (e Events) Done(r engine.SpecResult) { e <- SpecDoneMsg(r) }

// Write implements io.Writer for log output. Lines are dropped rather than
// blocking when the program falls behind.
func (e Events) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		select {
		case e <- LogMsg(line):
		default:
		}
	}
	return len(p), nil
}

func (e Events) wait() tea.Msg {
	msg, ok := <-e
	if !ok {
		return nil
	}
	return msg
}
