package main

import (
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/odesolve/internal/experiment"
	"github.com/san-kum/odesolve/internal/export"
	"github.com/spf13/cobra"
)

// compareMethods runs one configuration with every listed method, or all
// registered methods when none are given.
func compareMethods(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	methods := args[1:]
	if len(methods) == 0 {
		methods = reg.ListMethods()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fmt.Printf("comparing %d methods on %s...\n\n", len(methods), cfg.Problem)
	start := time.Now()
	runs, err := experiment.Compare(ctx, reg, cfg, methods, parallel)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPOINTS\tSTEPS\tF-EVALS\tERR-FAILS\tCONV-FAILS\tGLOBAL ERR\tSTATUS")
	for _, run := range runs {
		status := "ok"
		if run.Err != nil {
			status = failureName(run.Err)
		}
		if run.Result == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t-\t%s\n", run.Method, status)
			continue
		}
		gerr := "-"
		if v, ok := run.Result.Metrics["global_error"]; ok {
			gerr = fmt.Sprintf("%.3g", v)
		}
		s := run.Result.Stats
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			run.Method, len(run.Result.Times), s.Steps, s.RHSEvals+s.JacRHSEvals,
			s.ErrTestFails, s.ConvFails, gerr, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nwall time %v\n\n", elapsed)

	series := make([]export.Series, 0, len(runs))
	curves := make([][]float64, 0, len(runs))
	for _, run := range runs {
		if run.Result == nil || len(run.Result.States) == 0 {
			continue
		}
		values := column(run.Result.States, 0)
		series = append(series, export.Series{Name: run.Method, Times: run.Result.Times, Values: values})
		curves = append(curves, values)
	}
	if len(curves) == 0 {
		return errNoData
	}

	graph := asciigraph.PlotMany(curves,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green, asciigraph.Blue, asciigraph.Yellow, asciigraph.Cyan),
		asciigraph.Caption("y0 vs time"),
	)
	fmt.Println(graph)

	if outPath != "" {
		p, err := export.Overlay(series, export.Options{Title: fmt.Sprintf("%s: y0 by method", cfg.Problem)})
		if err != nil {
			return err
		}
		if err := export.Save(p, outPath); err != nil {
			return err
		}
		fmt.Printf("\nplot written to %s\n", outPath)
	}
	return nil
}
