// Package tui shows a live time response of a closed loop in the
// terminal.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/avench/looplab/internal/sim"
)

const (
	graphWidth    = 80
	graphHeight   = 14
	historyLimit  = 400
	stepsPerFrame = 20
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model steps a simulation on every tick and plots one observed
// signal.
type Model struct {
	dyn     sim.Dynamics
	integ   sim.Integrator
	observe func(x sim.State) float64

	title   string
	label   string
	dt      float64
	x0      sim.State
	state   sim.State
	t       float64
	history []float64
	running bool
}

func NewModel(title, label string, dyn sim.Dynamics, integ sim.Integrator, x0 sim.State, dt float64, observe func(x sim.State) float64) Model {
	return Model{
		dyn:     dyn,
		integ:   integ,
		observe: observe,
		title:   title,
		label:   label,
		dt:      dt,
		x0:      x0.Clone(),
		state:   x0.Clone(),
		running: true,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.state = m.x0.Clone()
			m.t = 0
			m.history = nil
		}
	case TickMsg:
		if m.running {
			for i := 0; i < stepsPerFrame; i++ {
				m.state = m.integ.Step(m.dyn, m.state, nil, m.t, m.dt)
				m.t += m.dt
			}
			m.history = append(m.history, m.observe(m.state))
			if len(m.history) > historyLimit {
				m.history = m.history[len(m.history)-historyLimit:]
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	view := headerStyle.Render(m.title) + "\n"

	if len(m.history) > 1 {
		graph := asciigraph.Plot(m.history,
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.Caption(m.label),
		)
		view += graphStyle.Render(graph) + "\n"
	}

	status := "running"
	if !m.running {
		status = "paused"
	}
	view += statusStyle.Render(fmt.Sprintf("t = %.2fs  %s = %.4f  [%s]", m.t, m.label, m.observe(m.state), status))
	view += helpStyle.Render("\nspace pause  r reset  q quit")
	return view
}

// Run starts the live view and blocks until the user quits.
func Run(m Model) error {
	p := tea.NewProgram(m)
	_, err := p.Run()
	return err
}
