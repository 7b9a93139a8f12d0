package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/odesolve/internal/config"
	"github.com/san-kum/odesolve/internal/export"
	"github.com/san-kum/odesolve/internal/problems"
	"github.com/san-kum/odesolve/internal/storage"
	"github.com/spf13/cobra"
)

const maxPlots = 6

var errNoData = errors.New("no data to plot")

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROBLEM\tMETHOD\tPOINTS\tSTEPS\tSTATUS\tTIMESTAMP")
	for _, run := range runs {
		status := "ok"
		if !run.Succeeded() {
			status = run.Kind
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			run.ID, run.Problem, run.Method, run.Points, run.Stats.Steps, status,
			run.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
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

	if outPath != "" {
		p, err := export.TimeSeries(times, states, export.Options{
			Title:   fmt.Sprintf("%s (%s)", meta.Problem, meta.Method),
			LogTime: logTime,
		})
		if err != nil {
			return err
		}
		if err := export.Save(p, outPath); err != nil {
			return err
		}
		fmt.Printf("plot written to %s\n", outPath)
		return nil
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("problem: %s, method: %s\n", meta.Problem, meta.Method)
	fmt.Printf("samples: %d, t=%g..%g\n\n", len(states), times[0], times[len(times)-1])

	numVars := min(len(states[0]), maxPlots)
	for i := 0; i < numVars; i++ {
		graph := asciigraph.Plot(column(states, i),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("y%d vs time", i)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return errNoData
	}
	if len(states[0]) <= xAxis || len(states[0]) <= yAxis || xAxis < 0 || yAxis < 0 {
		return fmt.Errorf("state dimension %d too small for axes %d and %d", len(states[0]), xAxis, yAxis)
	}

	path := outPath
	if path == "" {
		path = "phase.png"
	}
	p, err := export.Phase(states, xAxis, yAxis, export.Options{
		Title: fmt.Sprintf("%s phase portrait", meta.Problem),
	})
	if err != nil {
		return err
	}
	if err := export.Save(p, path); err != nil {
		return err
	}
	fmt.Printf("phase portrait y%d/y%d written to %s\n", xAxis, yAxis, path)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outPath != "" {
		return st.ExportJSONFile(outPath, args[0])
	}
	return st.ExportJSON(os.Stdout, args[0])
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	w, closeFn, err := output(outPath)
	if err != nil {
		return err
	}
	if err := st.ExportCSV(w, args[0]); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func output(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	names := config.ListPresets(args[0])
	if len(names) == 0 {
		return fmt.Errorf("no presets for %q", args[0])
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tMETHOD\tRTOL\tATOL\tEND\tINTERVAL")
	for _, name := range names {
		p := config.GetPreset(args[0], name)
		fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\t%g\n", name, p.Method, p.RelTol, p.AbsTol, p.End, p.Interval)
	}
	return w.Flush()
}

func listProblems(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROBLEM\tDIM\tSTIFF\tEXACT\tPARAMS")
	for _, name := range reg.ListProblems() {
		p, err := reg.GetProblem(name)
		if err != nil {
			return err
		}
		_, exact := p.(problems.Exact)
		fmt.Fprintf(w, "%s\t%d\t%t\t%t\t%s\n", name, p.Dim(), p.Stiff(), exact, paramList(p))
	}
	return w.Flush()
}

func paramList(p problems.Problem) string {
	c, ok := p.(problems.Configurable)
	if !ok {
		return "-"
	}
	var parts []string
	for name, v := range c.Params() {
		parts = append(parts, fmt.Sprintf("%s=%g", name, v))
	}
	if len(parts) == 0 {
		return "-"
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

func column(states [][]float64, i int) []float64 {
	data := make([]float64, len(states))
	for k := range states {
		if i < len(states[k]) {
			data[k] = states[k][i]
		}
	}
	return data
}
