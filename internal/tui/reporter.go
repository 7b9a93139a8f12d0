package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/odesolve/internal/multistep"
	"github.com/san-kum/odesolve/internal/report"
	"github.com/san-kum/odesolve/internal/sim"
	"golang.org/x/text/message"
)

// Reporter forwards solver notifications to a running program. Stats, when
// set, is sampled on every forwarded status report; it runs on the solver's
// goroutine.
type Reporter struct {
	Stats func() multistep.Stats

	send    func(tea.Msg)
	printer *message.Printer
}

func NewReporter(send func(tea.Msg), lang string) *Reporter {
	return &Reporter{send: send, printer: report.Printer(lang)}
}

func (r *Reporter) ReportError(kind multistep.Kind, ctx multistep.ErrorContext) {
	r.send(FailureMsg{Kind: kind, Text: report.Describe(r.printer, kind, ctx)})
}

func (r *Reporter) ReportStatus(t float64) {
	msg := StatusMsg{T: t}
	if r.Stats != nil {
		msg.Stats = r.Stats()
	}
	r.send(msg)
}

var ErrAborted = errors.New("tui: aborted by user")

// Run shows a progress view while work runs. work receives a throttled
// reporter to hand to the integrator and must return when ctx is done.
func Run(ctx context.Context, title string, start, end float64, lang string, work func(ctx context.Context, rep *Reporter, throttled multistep.Reporter) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgress(title, start, end))
	rep := NewReporter(p.Send, lang)

	errc := make(chan error, 1)
	go func() {
		err := work(ctx, rep, sim.NewThrottle(rep, sim.DefaultThrottle))
		errc <- err
		p.Send(DoneMsg{Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		<-errc
		return err
	}
	if m, ok := final.(Progress); ok && !m.done {
		cancel()
		<-errc
		return ErrAborted
	}
	return <-errc
}
