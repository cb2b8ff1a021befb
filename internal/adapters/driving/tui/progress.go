// Package tui renders phase progress as an interactive terminal progress
// bar. The running phase drives it through the ProgressSink port; the
// model only consumes events and never influences the phase outcome.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	itemStyle  = lipgloss.NewStyle().Faint(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// eventMsg wraps a progress event for the bubbletea loop.
type eventMsg driven.ProgressEvent

// doneMsg signals that the phase finished.
type doneMsg struct{ err error }

// model is the bubbletea model for one phase run.
type model struct {
	phase   string
	bar     progress.Model
	current driven.ProgressEvent
	failed  []string
	width   int
	done    bool
	err     error
}

func newModel(phase string) model {
	return model{
		phase: phase,
		bar:   progress.New(progress.WithDefaultGradient()),
		width: 80,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 8
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}
		return m, nil

	case tea.KeyMsg:
		// The phase keeps running; only ctrl+c abandons the display.
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	case eventMsg:
		m.current = driven.ProgressEvent(msg)
		if m.current.Status == "failed" {
			m.failed = append(m.failed, m.current.Item)
		}
		return m, m.bar.SetPercent(m.current.Percent / 100)

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Sequence(m.bar.SetPercent(1), tea.Quit)

	case progress.FrameMsg:
		barModel, cmd := m.bar.Update(msg)
		m.bar = barModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.phase))
	b.WriteString("\n\n")
	b.WriteString(m.bar.View())
	b.WriteString("\n")

	if m.current.Total > 0 {
		b.WriteString(itemStyle.Render(
			fmt.Sprintf("[%d/%d] %s", m.current.Index, m.current.Total, m.current.Item)))
		b.WriteString("\n")
	}
	if m.current.Message != "" {
		b.WriteString(itemStyle.Render(m.current.Message))
		b.WriteString("\n")
	}
	if len(m.failed) > 0 {
		b.WriteString(failStyle.Render(fmt.Sprintf("%d failed", len(m.failed))))
		b.WriteString("\n")
	}

	return b.String()
}

// programSink forwards progress events into the bubbletea program.
type programSink struct {
	program *tea.Program
}

var _ driven.ProgressSink = (*programSink)(nil)

func (s *programSink) Emit(event driven.ProgressEvent) {
	s.program.Send(eventMsg(event))
}

// Run executes work under a live progress display. The phase's error is
// returned unchanged; display errors never mask it.
func Run(phase string, work func(sink driven.ProgressSink) error) error {
	program := tea.NewProgram(newModel(phase))

	errCh := make(chan error, 1)
	go func() {
		err := work(&programSink{program: program})
		program.Send(doneMsg{err: err})
		errCh <- err
	}()

	if _, err := program.Run(); err != nil {
		// Display failed; keep the phase running to completion.
		return <-errCh
	}
	return <-errCh
}
