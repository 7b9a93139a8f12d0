package main

import (
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/odesolve/internal/automation"
	"github.com/san-kum/odesolve/internal/optim"
	"github.com/san-kum/odesolve/internal/report"
	"github.com/san-kum/odesolve/internal/storage"
	"github.com/spf13/cobra"
)

var (
	trials    int
	perturb   float64
	seed      int64
	knobs     []string
	objective string
)

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	r := &automation.Runner{
		Registry: reg,
		Store:    st,
		Reporter: report.NewLogger(logger, lang),
		Log:      logger,
	}
	fmt.Printf("running scenario %s (%d steps)...\n", sc.Name, len(sc.Steps))
	results, err := r.Run(ctx, sc)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN\tPOINTS\tSTEPS\tSTATUS")
	failed := 0
	for _, res := range results {
		status := "ok"
		if res.Err != nil {
			status = failureName(res.Err)
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", res.Name, res.RunID, len(res.Result.Times), res.Result.Stats.Steps, status)
	}
	w.Flush()

	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d steps failed", failed, len(results))
	}
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fmt.Printf("monte carlo: %d trials of %s/%s, perturbation %g\n", trials, cfg.Problem, cfg.Method, perturb)
	results, err := automation.RunMonteCarlo(ctx, automation.MonteCarlo{
		Base:         cfg,
		Perturbation: perturb,
		Trials:       trials,
		Seed:         seed,
		Limit:        parallel,
	}, reg)
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("%s %d\n", label.Render("stable"), stable)
	fmt.Printf("%s %d\n", label.Render("unstable"), unstable)

	if len(results) > 0 && len(results[0].FinalState) > 0 {
		fmt.Println(label.Render("spread"))
		for i := range results[0].FinalState {
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, r := range results {
				if i < len(r.FinalState) {
					lo = math.Min(lo, r.FinalState[i])
					hi = math.Max(hi, r.FinalState[i])
				}
			}
			fmt.Printf("  y%d in [%.6g, %.6g]\n", i, lo, hi)
		}
	}
	return nil
}

func tuneProblem(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	names, values, err := parseKnobs(knobs)
	if err != nil {
		return err
	}
	g, err := optim.NewGridSearch(names, values)
	if err != nil {
		return err
	}

	obj := optim.Metric(objective)
	if objective == "work" {
		obj = optim.Work
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fmt.Printf("grid search over %d combinations, minimizing %s...\n\n", g.Size(), objective)
	best, all, err := g.Search(ctx, optim.Configure(reg, cfg), obj)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KNOBS\tSCORE\tSTATUS")
	for _, t := range all {
		status := "ok"
		if t.Err != nil {
			status = failureName(t.Err)
		}
		fmt.Fprintf(w, "%s\t%.4g\t%s\n", formatKnobs(t.Knobs), t.Score, status)
	}
	w.Flush()

	if err != nil {
		return err
	}
	fmt.Printf("\n%s %s (%s %.4g)\n", label.Render("best"), formatKnobs(best.Knobs), objective, best.Score)
	return nil
}

// parseKnobs reads "name=v1,v2,..." specs.
func parseKnobs(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	values := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("knob %q: want name=v1,v2,...", spec)
		}
		var vs []float64
		for _, raw := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("knob %s: %w", name, err)
			}
			vs = append(vs, v)
		}
		names = append(names, name)
		values = append(values, vs)
	}
	return names, values, nil
}

func formatKnobs(k map[string]float64) string {
	parts := make([]string, 0, len(k))
	for name, v := range k {
		parts = append(parts, fmt.Sprintf("%s=%g", name, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
