package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sketchvm/sketchvm"
)

var (
	kindStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

const monitorHistoryLimit = 200

// monitorModel is a bubbletea Model that renders the live command
// stream of a running Engine, adapted from clarete-langlang's
// internal/ascii terminal-color conventions (internal/ascii/colors.go)
// but driven by bubbletea/bubbles instead of raw ANSI writes, since
// the monitor needs a scrolling, resizable view rather than one-shot
// pretty-printing.
type monitorModel struct {
	records []sketchvm.Record
	done    bool
	err     error
	width   int
	height  int
	spin    spinner.Model
}

type recordMsg sketchvm.Record
type doneMsg struct{ err error }

func newMonitorModel() monitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = dimStyle
	return monitorModel{width: 80, height: 24, spin: s}
}

func (m monitorModel) Init() tea.Cmd { return m.spin.Tick }

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case recordMsg:
		m.records = append(m.records, sketchvm.Record(msg))
		if len(m.records) > monitorHistoryLimit {
			m.records = m.records[len(m.records)-monitorHistoryLimit:]
		}
	case doneMsg:
		m.done = true
		m.err = msg.err
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m monitorModel) View() string {
	var b strings.Builder
	status := "idle"
	if !m.done {
		status = m.spin.View()
	}
	b.WriteString(dimStyle.Render("sketchvm monitor "+status+" — press q to quit") + "\n\n")

	start := 0
	visible := m.height - 4
	if visible < 1 {
		visible = 1
	}
	if len(m.records) > visible {
		start = len(m.records) - visible
	}
	for _, rec := range m.records[start:] {
		b.WriteString(formatRecord(rec) + "\n")
	}

	if m.done {
		if m.err != nil {
			b.WriteString("\n" + errorStyle.Render("run failed: "+m.err.Error()))
		} else {
			b.WriteString("\n" + dimStyle.Render("run complete"))
		}
	}
	return b.String()
}

func formatRecord(rec sketchvm.Record) string {
	if rec.Kind == sketchvm.KindError {
		return errorStyle.Render(string(rec.Kind)) + " " + fmt.Sprintf("%+v", rec.Fields)
	}
	return kindStyle.Render(string(rec.Kind)) + " " + dimStyle.Render(fmt.Sprintf("%+v", rec.Fields))
}

// teaSink adapts a bubbletea Program into a sketchvm.CommandSink.
type teaSink struct {
	program *tea.Program
}

func (s *teaSink) Emit(rec sketchvm.Record) error {
	s.program.Send(recordMsg(rec))
	return nil
}

func monitorProgram(cmd *cobra.Command, args []string) error {
	prog, err := loadProgram(args[0])
	if err != nil {
		return err
	}

	opts := sketchvm.DefaultOptions()
	opts.MaxLoopIterations = maxIterations

	engine := sketchvm.NewEngine(prog, opts)

	model := newMonitorModel()
	p := tea.NewProgram(model)
	engine.SetCommandSink(&teaSink{program: p})

	go func() {
		runErr := engine.Start()
		for runErr == nil && engine.State == sketchvm.StateRunningLoop {
			runErr = engine.Resume()
		}
		p.Send(doneMsg{err: runErr})
	}()

	_, err = p.Run()
	return err
}
