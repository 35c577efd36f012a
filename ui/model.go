// Package ui implements the terminal dashboard of the watch command.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jesspatton/lazyspec/engine"
	"github.com/jesspatton/lazyspec/filesystem"
)

// Pane represents a distinct section of the UI.
type Pane int

const (
	// PaneSpecs is the spec list pane.
	PaneSpecs Pane = iota
	// PaneOutput is the spec output pane.
	PaneOutput
)

// Pipeline runs discovery and execution once. *engine.Engine satisfies it.
type Pipeline interface {
	Run(ctx context.Context, targets []string) (engine.Stats, error)
}

// Options configures a Model.
type Options struct {
	Pipeline Pipeline
	Targets  []string
	Events   Events
	// Changes delivers changed file paths; nil disables file watching.
	Changes <-chan string
	// Kill stops the spec currently running, if set.
	Kill    func()
	WorkDir string
}

// runMsg starts the first run.
type runMsg struct{}

// Model represents the application state for the Bubbletea program.
type Model struct {
	// UI State
	activePane Pane
	width      int
	height     int
	ready      bool
	showHelp   bool
	cursor     int
	follow     bool
	viewport   viewport.Model
	spinner    spinner.Model

	// Components
	keys KeyMap
	help help.Model

	// Dependencies
	pipeline Pipeline
	targets  []string
	events   Events
	changes  <-chan string
	kill     func()
	workDir  string
	ctx      context.Context
	cancel   context.CancelFunc

	// Run State
	running   bool
	pending   bool
	runs      int
	specs     []string
	status    map[string]engine.SpecStatus
	outputs   map[string]*strings.Builder
	lastStats *engine.Stats
	lastErr   error
	lastLog   string
}

// NewModel creates a Model. Call Init through tea.NewProgram to start the first run.
func NewModel(opts Options) Model {
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#A0A0A0"})
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B0B0B0", Dark: "#808080"})
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#606060"})
	h.Styles.FullKey = h.Styles.ShortKey
	h.Styles.FullDesc = h.Styles.ShortDesc
	h.Styles.FullSeparator = h.Styles.ShortSeparator

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = selectedStyle

	events := opts.Events
	if events == nil {
		events = NewEvents()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		activePane: PaneSpecs,
		follow:     true,
		spinner:    s,
		keys:       NewKeyMap(),
		help:       h,
		pipeline:   opts.Pipeline,
		targets:    opts.Targets,
		events:     events,
		changes:    opts.Changes,
		kill:       opts.Kill,
		workDir:    opts.WorkDir,
		ctx:        ctx,
		cancel:     cancel,
		status:     make(map[string]engine.SpecStatus),
		outputs:    make(map[string]*strings.Builder),
	}
}

// Init starts the first run and the event loops.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.events.wait,
		m.waitForChanges,
		func() tea.Msg { return runMsg{} },
	)
}

// Update handles incoming messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, m.keys.Tab):
			if m.activePane == PaneSpecs {
				m.activePane = PaneOutput
			} else {
				m.activePane = PaneSpecs
			}
			return m, nil
		case key.Matches(msg, m.keys.ReRun):
			if m.running {
				m.pending = true
				return m, nil
			}
			return m, m.triggerRun()
		case key.Matches(msg, m.keys.Kill):
			if m.running && m.kill != nil {
				m.kill()
			}
			return m, nil
		}

		if m.activePane == PaneSpecs {
			switch {
			case key.Matches(msg, m.keys.Up):
				if m.cursor > 0 {
					m.cursor--
					m.follow = false
				}
			case key.Matches(msg, m.keys.Down):
				if m.cursor < len(m.specs)-1 {
					m.cursor++
					m.follow = false
				}
			}
			m.refreshOutput()
		} else {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// Height: Total - Footer(1) - Border(2), minus title lines.
		paneHeight := m.height - 5
		viewportHeight := paneHeight - 2
		if !m.ready {
			m.viewport = viewport.New(m.outputWidth(), viewportHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.outputWidth()
			m.viewport.Height = viewportHeight
		}
		m.refreshOutput()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case runMsg:
		if !m.running {
			cmds = append(cmds, m.triggerRun())
		}

	case WatcherMsg:
		cmds = append(cmds, m.waitForChanges)
		if m.running {
			m.pending = true
			return m, tea.Batch(cmds...)
		}
		cmds = append(cmds, m.triggerRun())

	case SpecStartedMsg:
		spec := string(msg)
		if _, seen := m.status[spec]; !seen {
			m.specs = append(m.specs, spec)
		}
		m.status[spec] = engine.StatusRunning
		m.outputs[spec] = &strings.Builder{}
		if m.follow {
			m.cursor = m.indexOf(spec)
		}
		m.refreshOutput()
		return m, m.events.wait

	case OutputMsg:
		b, ok := m.outputs[msg.Spec]
		if !ok {
			b = &strings.Builder{}
			m.outputs[msg.Spec] = b
		}
		b.WriteString(msg.Line + "\n")
		if m.selected() == msg.Spec {
			m.refreshOutput()
			m.viewport.GotoBottom()
		}
		return m, m.events.wait

	case SpecDoneMsg:
		r := engine.SpecResult(msg)
		m.status[r.File] = r.Status()
		if b, ok := m.outputs[r.File]; ok {
			if r.Err != nil {
				fmt.Fprintf(b, "\nFAIL: %v\n", r.Err)
			} else {
				b.WriteString("\nPASS\n")
			}
		}
		if m.selected() == r.File {
			m.refreshOutput()
			m.viewport.GotoBottom()
		}
		return m, m.events.wait

	case RunFinishedMsg:
		m.running = false
		stats := msg.Stats
		m.lastStats = &stats
		m.lastErr = msg.Err
		cmds = append(cmds, m.events.wait)
		if m.pending && m.ctx.Err() == nil {
			cmds = append(cmds, m.triggerRun())
		}

	case LogMsg:
		m.lastLog = string(msg)
		return m, m.events.wait
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI based on the current state.
func (m Model) View() string {
	if m.showHelp {
		return m.renderHelp()
	}

	if m.width == 0 {
		return "Loading..."
	}

	paneHeight := m.height - 4
	specsRender := m.renderSpecs(m.specsWidth(), paneHeight)

	var outputView strings.Builder
	title := "OUTPUT"
	if spec := m.selected(); spec != "" {
		title += " " + filesystem.RelativeTo(m.workDir, spec)
	}
	outputView.WriteString(titleStyle.Render(title) + "\n\n")
	if !m.ready {
		outputView.WriteString("Initializing...")
	} else {
		outputView.WriteString(m.viewport.View())
	}

	outputStyle := paneStyle
	if m.activePane == PaneOutput {
		outputStyle = activePaneStyle
	}
	outputRender := outputStyle.
		Width(m.width - m.specsWidth() - 4).
		Height(paneHeight).
		Render(outputView.String())

	panes := lipgloss.JoinHorizontal(lipgloss.Top, specsRender, outputRender)
	return lipgloss.JoinVertical(lipgloss.Left, panes, m.renderFooter())
}

// Commands

// triggerRun starts one pipeline run. Its result is delivered through the
// event channel so it arrives after every spec event of the run.
func (m *Model) triggerRun() tea.Cmd {
	m.running = true
	m.pending = false
	m.runs++
	m.specs = nil
	m.cursor = 0
	m.follow = true
	m.status = make(map[string]engine.SpecStatus)
	m.outputs = make(map[string]*strings.Builder)
	m.refreshOutput()

	pipeline, ctx, targets, events := m.pipeline, m.ctx, m.targets, m.events
	return func() tea.Msg {
		stats, err := pipeline.Run(ctx, targets)
		events <- RunFinishedMsg{Stats: stats, Err: err}
		return nil
	}
}

func (m Model) waitForChanges() tea.Msg {
	if m.changes == nil {
		return nil
	}
	path, ok := <-m.changes
	if !ok {
		return nil
	}
	return WatcherMsg(path)
}

// Helpers

func (m Model) selected() string {
	if m.cursor < 0 || m.cursor >= len(m.specs) {
		return ""
	}
	return m.specs[m.cursor]
}

func (m Model) indexOf(spec string) int {
	for i, s := range m.specs {
		if s == spec {
			return i
		}
	}
	return 0
}

func (m *Model) refreshOutput() {
	if !m.ready {
		return
	}
	var content string
	if b, ok := m.outputs[m.selected()]; ok {
		content = b.String()
	}
	m.viewport.SetContent(wrapOutput(m.viewport.Width, content))
}

func (m Model) specsWidth() int {
	return m.width/3 - 2
}

func (m Model) outputWidth() int {
	// Width minus the spec pane, borders and padding.
	return m.width - m.specsWidth() - 8
}

func wrapOutput(width int, content string) string {
	if width <= 0 {
		return content
	}
	return lipgloss.NewStyle().Width(width).Render(content)
}
