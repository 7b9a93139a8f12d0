package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/san-kum/odesolve/internal/config"
	"github.com/san-kum/odesolve/internal/experiment"
	"github.com/san-kum/odesolve/internal/export"
	"github.com/san-kum/odesolve/internal/multistep"
	"github.com/san-kum/odesolve/internal/report"
	"github.com/san-kum/odesolve/internal/sim"
	"github.com/san-kum/odesolve/internal/storage"
	"github.com/san-kum/odesolve/internal/tui"
	"github.com/spf13/cobra"
)

// buildConfig layers defaults, preset, config file, environment and flags,
// in that order.
func buildConfig(cmd *cobra.Command, problem string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p := config.GetPreset(problem, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q for %s, available: %v", preset, problem, config.ListPresets(problem))
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.Problem = problem
	env.Apply(cfg)

	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("stiff") && stiff {
		cfg.Method = "bdf"
	}
	if flags.Changed("rtol") {
		cfg.RelTol = rtol
	}
	if flags.Changed("atol") {
		cfg.AbsTol = atol
		cfg.AbsTolVec = nil
	}
	if flags.Changed("t0") {
		cfg.Start = tstart
	}
	if flags.Changed("tend") {
		cfg.End = tend
	}
	if flags.Changed("dt") {
		cfg.Interval = interval
	}
	if flags.Changed("step") {
		cfg.Step = step
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if flags.Changed("max-order") {
		cfg.MaxOrder = maxOrder
	}
	if flags.Changed("retries") {
		cfg.Retries = retries
	}
	if flags.Changed("init") {
		cfg.InitState = initState
	}
	if len(params) > 0 {
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64, len(params))
		}
		for name, raw := range params {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("param %s: %w", name, err)
			}
			cfg.Params[name] = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(reg, cfg)
	var (
		result *sim.Result
		runErr error
	)

	fmt.Printf("integrating %s with %s...\n", cfg.Problem, cfg.Method)
	start := time.Now()

	if live {
		title := fmt.Sprintf("%s / %s", cfg.Problem, cfg.Method)
		err := tui.Run(ctx, title, cfg.Start, cfg.End, lang, func(ctx context.Context, rep *tui.Reporter, throttled multistep.Reporter) error {
			if err := exp.Setup(throttled); err != nil {
				return err
			}
			rep.Stats = exp.Integrator().Stats
			result, runErr = exp.Run(ctx)
			return runErr
		})
		if result == nil {
			return err
		}
		if runErr == nil {
			runErr = err
		}
	} else {
		if err := exp.Setup(report.NewLogger(logger, lang)); err != nil {
			return err
		}
		result, runErr = exp.Run(ctx)
		if result == nil {
			return runErr
		}
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result, runErr)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	printSummary(runID, result, runErr, elapsed)

	if plotOut != "" {
		p, err := export.TimeSeries(result.Times, result.States, export.Options{
			Title: fmt.Sprintf("%s (%s)", cfg.Problem, cfg.Method),
		})
		if err != nil {
			return err
		}
		if err := export.Save(p, plotOut); err != nil {
			return err
		}
		fmt.Printf("plot written to %s\n", plotOut)
	}

	return runErr
}

func printSummary(runID string, result *sim.Result, runErr error, elapsed time.Duration) {
	reached := 0.0
	if n := len(result.Times); n > 0 {
		reached = result.Times[n-1]
	}

	status := green.Render("ok")
	if runErr != nil {
		status = red.Render(failureName(runErr))
	}
	fmt.Printf("%s %s\n", label.Render("run"), runID)
	fmt.Printf("%s %s, reached t=%g in %v\n", label.Render("status"), status, reached, elapsed)
	if result.Retried > 0 {
		fmt.Printf("%s %d\n", label.Render("retried"), result.Retried)
	}

	s := result.Stats
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEPS\tF-EVALS\tJAC\tSETUPS\tERR-FAILS\tCONV-FAILS\tITERS\tORDER\tLAST H")
	fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.3g\n",
		s.Steps, s.RHSEvals+s.JacRHSEvals, s.JacEvals, s.LinSetups,
		s.ErrTestFails, s.ConvFails, s.NonlinIters, s.LastOrder, s.LastStep)
	w.Flush()

	if len(result.Metrics) > 0 {
		fmt.Println(label.Render("metrics"))
		printMetrics(result.Metrics)
	}
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-16s %.6g\n", name, m[name])
	}
}

func failureName(err error) string {
	if k := multistep.KindOf(err); k != 0 {
		return k.String()
	}
	return err.Error()
}
