// Package tui shows a live progress view while a run executes.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/dynsm/internal/viz"
)

const barWidth = 40

// ProgressMsg reports the percentage of load steps completed.
type ProgressMsg int

// DoneMsg ends the view; Err is the run's result.
type DoneMsg struct{ Err error }

type tickMsg time.Time

// Model is a bubbletea model for one run.
type Model struct {
	name    string
	percent int
	start   time.Time
	elapsed time.Duration
	done    bool
	aborted bool
	err     error
	cancel  func()
}

// NewModel builds a progress view. cancel is called when the user quits
// before the run finishes.
func NewModel(name string, cancel func()) Model {
	return Model{name: name, start: time.Now(), cancel: cancel}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.done {
				m.aborted = true
				if m.cancel != nil {
					m.cancel()
				}
			}
			return m, tea.Quit
		}
	case ProgressMsg:
		m.percent = int(msg)
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		m.elapsed = time.Since(m.start)
		return m, tea.Quit
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.elapsed = time.Since(m.start)
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(viz.HeaderStyle.Render(strings.ToUpper(m.name)) + "\n\n")
	s.WriteString(viz.ProgressBar(float64(m.percent)/100, barWidth))
	s.WriteString(fmt.Sprintf(" %3d%%\n", m.percent))
	s.WriteString(viz.Field("elapsed", m.elapsed.Round(time.Millisecond).String()) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(viz.StatusFail.Render("failed: "+m.err.Error()) + "\n")
	case m.done:
		s.WriteString(viz.StatusOK.Render("done") + "\n")
	default:
		s.WriteString(viz.Subtle.Render("q to abort") + "\n")
	}
	return s.String()
}

// Err is the run's result once DoneMsg has arrived, or context.Canceled
// when the user quit first.
func (m Model) Err() error {
	if m.aborted && !m.done {
		return context.Canceled
	}
	return m.err
}

// Run shows the view while work executes. work receives a progress callback
// and the view closes when work returns. Run always waits for work to return
// and then reports its error, so callers may read what work produced.
func Run(name string, cancel func(), work func(progress func(int)) error) error {
	return run(name, cancel, work)
}

func run(name string, cancel func(), work func(progress func(int)) error, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(NewModel(name, cancel), opts...)
	workDone := make(chan error, 1)
	go func() {
		err := work(func(pct int) { p.Send(ProgressMsg(pct)) })
		workDone <- err
		p.Send(DoneMsg{Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		if cancel != nil {
			cancel()
		}
		<-workDone
		return err
	}
	workErr := <-workDone
	if m := final.(Model); m.aborted && workErr == nil {
		return m.Err()
	}
	return workErr
}
