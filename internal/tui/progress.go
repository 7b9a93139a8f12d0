package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/odesolve/internal/multistep"
)

const historyLen = 60

// StatusMsg carries the integrator position after an accepted step.
type StatusMsg struct {
	T     float64
	Stats multistep.Stats
}

// FailureMsg carries a rendered failure report.
type FailureMsg struct {
	Kind multistep.Kind
	Text string
}

// DoneMsg ends the run; Err is the run's result.
type DoneMsg struct {
	Err error
}

type Progress struct {
	title      string
	start, end float64

	t        float64
	stats    multistep.Stats
	steps    []float64
	failures []FailureMsg

	done bool
	err  error

	width int
}

func NewProgress(title string, start, end float64) Progress {
	return Progress{
		title: title,
		start: start,
		end:   end,
		t:     start,
		steps: make([]float64, 0, historyLen),
		width: 80,
	}
}

func (m Progress) Init() tea.Cmd { return nil }

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case StatusMsg:
		m.t = msg.T
		m.stats = msg.Stats
		if h := math.Abs(msg.Stats.LastStep); h > 0 {
			m.steps = append(m.steps, math.Log10(h))
			if len(m.steps) > historyLen {
				m.steps = m.steps[1:]
			}
		}
	case FailureMsg:
		m.failures = append(m.failures, msg)
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

// Fraction is the completed share of [start, end].
func (m Progress) Fraction() float64 {
	span := m.end - m.start
	if span == 0 {
		return 1
	}
	return (m.t - m.start) / span
}

func (m Progress) Err() error { return m.err }

func (m Progress) View() string {
	var b strings.Builder
	barWidth := m.width - 20
	if barWidth < 20 {
		barWidth = 20
	}

	b.WriteString("\n")
	b.WriteString("   " + cyan.Render(m.title) + "\n")
	b.WriteString(dimmer.Render("   "+strings.Repeat("─", barWidth+12)) + "\n\n")

	b.WriteString(fmt.Sprintf("   %s %s\n", bar(m.Fraction(), barWidth), white.Render(fmt.Sprintf("%5.1f%%", 100*m.Fraction()))))
	b.WriteString(fmt.Sprintf("   %s %s\n\n", dim.Render("t    "), white.Render(fmt.Sprintf("%.6g / %.6g", m.t, m.end))))

	st := m.stats
	b.WriteString(fmt.Sprintf("   %s %s   %s %s   %s %s\n",
		dim.Render("steps"), white.Render(fmt.Sprintf("%d", st.Steps)),
		dim.Render("f evals"), white.Render(fmt.Sprintf("%d", st.RHSEvals)),
		dim.Render("order"), magenta.Render(fmt.Sprintf("%d", st.LastOrder))))
	b.WriteString(fmt.Sprintf("   %s %s   %s %s   %s %s\n",
		dim.Render("h"), white.Render(fmt.Sprintf("%.3g", st.LastStep)),
		dim.Render("err fails"), yellow.Render(fmt.Sprintf("%d", st.ErrTestFails)),
		dim.Render("conv fails"), yellow.Render(fmt.Sprintf("%d", st.ConvFails))))
	if st.JacEvals > 0 {
		b.WriteString(fmt.Sprintf("   %s %s   %s %s\n",
			dim.Render("jacobians"), white.Render(fmt.Sprintf("%d", st.JacEvals)),
			dim.Render("lin setups"), white.Render(fmt.Sprintf("%d", st.LinSetups))))
	}
	if len(m.steps) > 0 {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("log h"), cyan.Render(sparkline(m.steps, barWidth))))
	}

	for _, f := range m.failures {
		style := red
		if f.Kind.Recoverable() {
			style = yellow
		}
		b.WriteString("   " + style.Render(f.Text) + "\n")
	}

	switch {
	case m.done && m.err != nil:
		b.WriteString("\n   " + red.Render("failed: "+m.err.Error()) + "\n")
	case m.done:
		b.WriteString("\n   " + green.Render("done") + "\n")
	default:
		b.WriteString("\n" + dim.Render("   q quit") + "\n")
	}
	return b.String()
}
