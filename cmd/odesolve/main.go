package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/san-kum/odesolve/internal/config"
	"github.com/san-kum/odesolve/internal/experiment"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	lang     string
	logLevel string
	logJSON  bool

	method     string
	stiff      bool
	rtol       float64
	atol       float64
	tstart     float64
	tend       float64
	interval   float64
	step       float64
	maxSteps   int
	maxOrder   int
	retries    int
	initState  []float64
	params     map[string]string
	configFile string
	preset     string
	live       bool
	plotOut    string

	// stored-run output
	outPath string
	logTime bool
	xAxis   int
	yAxis   int

	parallel int

	env    config.Env
	logger *slog.Logger
	reg    = experiment.NewRegistry()
)

// main registers the odesolve commands and exits with status 1 when the
// selected command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "odesolve",
		Short:         "adaptive ODE integration lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			env, err = config.LoadEnv()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("data") {
				dataDir = env.DataDir
			}
			if !cmd.Flags().Changed("lang") {
				lang = env.Lang
			}
			logger, err = newLogger(logLevel, logJSON)
			return err
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".odesolve", "data directory (ODESOLVE_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&lang, "lang", "en", "language for solver diagnostics (ODESOLVE_LANG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")

	runCmd := &cobra.Command{
		Use:   "run [problem]",
		Short: "integrate a problem and store the run",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&live, "live", false, "show a live progress view")
	runCmd.Flags().StringVar(&plotOut, "plot-out", "", "write a plot of the run (.png, .svg, .pdf)")

	compareCmd := &cobra.Command{
		Use:   "compare [problem] [method...]",
		Short: "run one problem with several methods side by side",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareMethods,
	}
	addRunFlags(compareCmd)
	compareCmd.Flags().IntVar(&parallel, "parallel", 0, "max concurrent runs (0 = one per method)")
	compareCmd.Flags().StringVarP(&outPath, "out", "o", "", "write an overlay plot of the first component")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run-id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the plot to a file instead of the terminal")
	plotCmd.Flags().BoolVar(&logTime, "log-time", false, "logarithmic time axis")

	phaseCmd := &cobra.Command{
		Use:   "phase [run-id]",
		Short: "write a phase portrait of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVarP(&xAxis, "x-axis", "x", 0, "component on the x axis")
	phaseCmd.Flags().IntVarP(&yAxis, "y-axis", "y", 1, "component on the y axis")
	phaseCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default phase.png)")

	exportCmd := &cobra.Command{
		Use:   "export-json [run-id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run-id]",
		Short: "export a run's states as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run-id]",
		Short: "frequency analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  spectrumRun,
	}

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [problem]",
		Short: "estimate the largest Lyapunov exponent",
		Args:  cobra.ExactArgs(1),
		RunE:  lyapunovProblem,
	}
	addRunFlags(lyapunovCmd)
	lyapunovCmd.Flags().Float64Var(&lyapInterval, "renorm", 1, "time between renormalizations")
	lyapunovCmd.Flags().Float64Var(&lyapPerturb, "perturb", 1e-8, "initial separation")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run and store every step of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [problem]",
		Short: "run a problem from randomly perturbed initial states",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	addRunFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturb", 0.01, "half-width of the uniform perturbation")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = from clock)")
	monteCarloCmd.Flags().IntVar(&parallel, "parallel", 0, "max concurrent trials (0 = unbounded)")

	tuneCmd := &cobra.Command{
		Use:   "tune [problem]",
		Short: "grid search over tolerances and parameters",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneProblem,
	}
	addRunFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVarP(&knobs, "knob", "k", nil, "knob values, name=v1,v2,... (rtol, atol, max_order, max_steps, step, interval or a parameter)")
	tuneCmd.Flags().StringVar(&objective, "objective", "global_error", "metric to minimize, or work")
	tuneCmd.MarkFlagRequired("knob")

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list presets for a problem",
		Args:  cobra.ExactArgs(1),
		RunE:  listPresets,
	}

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list available problems",
		RunE:  listProblems,
	}

	methodsCmd := &cobra.Command{
		Use:   "methods",
		Short: "list available methods",
		Run: func(cmd *cobra.Command, args []string) {
			for _, m := range reg.ListMethods() {
				fmt.Println(m)
			}
		},
	}

	rootCmd.AddCommand(runCmd, compareCmd, batchCmd, monteCarloCmd, tuneCmd, listCmd, plotCmd, phaseCmd,
		spectrumCmd, lyapunovCmd, exportCmd, exportCSVCmd, presetsCmd, problemsCmd, methodsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red.Render("error:"), err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&method, "method", "m", config.DefaultMethod, "method: "+strings.Join(config.Methods, ", "))
	f.BoolVar(&stiff, "stiff", false, "shorthand for --method bdf")
	f.Float64Var(&rtol, "rtol", config.DefaultRelTol, "relative tolerance")
	f.Float64Var(&atol, "atol", config.DefaultAbsTol, "absolute tolerance (0 uses the problem's recommended vector)")
	f.Float64Var(&tstart, "t0", 0, "initial time")
	f.Float64Var(&tend, "tend", config.DefaultEnd, "final time")
	f.Float64Var(&interval, "dt", config.DefaultInterval, "output interval")
	f.Float64Var(&step, "step", config.DefaultStep, "step size for euler and rk4")
	f.IntVar(&maxSteps, "max-steps", config.DefaultMaxSteps, "max internal steps per output (0 = default)")
	f.IntVar(&maxOrder, "max-order", 0, "max method order (0 = method maximum)")
	f.IntVar(&retries, "retries", 0, "resume an output interval this many times after too much work")
	f.Float64SliceVar(&initState, "init", nil, "initial state, comma separated")
	f.StringToStringVarP(&params, "param", "p", nil, "problem parameter, name=value")
	f.StringVarP(&configFile, "config", "c", "", "config file (YAML)")
	f.StringVar(&preset, "preset", "", "preset name (see 'presets')")
}

func newLogger(level string, asJSON bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if asJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}
