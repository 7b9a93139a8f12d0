package main

import (
	"errors"
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/odesolve/internal/analysis"
	"github.com/san-kum/odesolve/internal/multistep"
	"github.com/san-kum/odesolve/internal/problems"
	"github.com/san-kum/odesolve/internal/storage"
	"github.com/spf13/cobra"
)

var (
	lyapInterval float64
	lyapPerturb  float64
)

func spectrumRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return errNoData
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("problem: %s, method: %s\n\n", meta.Problem, meta.Method)

	numVars := min(len(states[0]), maxPlots)
	for i := 0; i < numVars; i++ {
		values := column(states, i)
		s, err := analysis.PowerSpectrum(times, values)
		if err != nil {
			return fmt.Errorf("y%d: %w", i, err)
		}

		graph := asciigraph.Plot(s.Power[:max(len(s.Power)/4, 2)],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("power spectrum (y%d)", i)),
		)
		fmt.Println(graph)

		period, err := analysis.DominantPeriod(times, values)
		switch {
		case errors.Is(err, analysis.ErrNoOscillation):
			fmt.Printf("y%d: no oscillation\n\n", i)
		case err != nil:
			return err
		default:
			fmt.Printf("y%d: dominant frequency %.4g, period %.4g\n\n", i, 1/period, period)
		}
	}
	return nil
}

func lyapunovProblem(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	p, err := reg.GetProblem(cfg.Problem)
	if err != nil {
		return err
	}
	if c, ok := p.(problems.Configurable); ok {
		for name, v := range cfg.Params {
			if err := c.SetParam(name, v); err != nil {
				return err
			}
		}
	}
	y0 := p.DefaultState()
	if len(cfg.InitState) > 0 {
		if len(cfg.InitState) != p.Dim() {
			return fmt.Errorf("init state has %d components, %s needs %d", len(cfg.InitState), p.Name(), p.Dim())
		}
		y0 = cfg.InitState
	}

	opts := multistep.Options{
		Stiff:     cfg.Stiff(),
		RelTol:    cfg.RelTol,
		AbsTol:    cfg.AbsTol,
		AbsTolVec: cfg.AbsTolVec,
		MaxSteps:  cfg.MaxSteps,
		MaxOrder:  cfg.MaxOrder,
		Name:      p.Name(),
	}
	duration := cfg.End - cfg.Start
	fmt.Printf("estimating largest Lyapunov exponent of %s over t=%g...\n", p.Name(), duration)

	lambda, err := analysis.LyapunovExponent(p.Derive, y0, opts, lyapInterval, duration, lyapPerturb)
	if err != nil {
		return err
	}
	verdict := green.Render("regular")
	if lambda > 0 {
		verdict = red.Render("chaotic")
	}
	fmt.Printf("%s %.4g (%s)\n", label.Render("lambda"), lambda, verdict)
	return nil
}
