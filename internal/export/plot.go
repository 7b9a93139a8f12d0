package export

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

var ErrNoData = errors.New("export: nothing to plot")

type Options struct {
	Title string
	// Components selects state indices; nil plots all of them.
	Components []int
	// Labels names state components; missing names default to y<i>.
	Labels []string
	// LogTime puts time on a log axis and drops points with t <= 0.
	LogTime bool
}

func (o Options) label(i int) string {
	if i < len(o.Labels) && o.Labels[i] != "" {
		return o.Labels[i]
	}
	return fmt.Sprintf("y%d", i)
}

func (o Options) components(dim int) ([]int, error) {
	if o.Components == nil {
		idx := make([]int, dim)
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	}
	for _, c := range o.Components {
		if c < 0 || c >= dim {
			return nil, fmt.Errorf("component %d out of range [0, %d)", c, dim)
		}
	}
	return o.Components, nil
}

// TimeSeries plots the selected components against time.
func TimeSeries(times []float64, states [][]float64, opts Options) (*plot.Plot, error) {
	if len(times) == 0 || len(states) != len(times) {
		return nil, ErrNoData
	}
	comps, err := opts.components(len(states[0]))
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "t"
	p.Y.Label.Text = "y"
	if opts.LogTime {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	for n, c := range comps {
		pts := make(plotter.XYs, 0, len(times))
		for i, t := range times {
			if opts.LogTime && t <= 0 {
				continue
			}
			pts = append(pts, plotter.XY{X: t, Y: states[i][c]})
		}
		if len(pts) == 0 {
			return nil, ErrNoData
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", c, err)
		}
		line.Color = plotutil.Color(n)
		line.Dashes = plotutil.Dashes(0)
		p.Add(line)
		p.Legend.Add(opts.label(c), line)
	}
	p.Add(plotter.NewGrid())
	return p, nil
}

// Series is one named curve for Overlay.
type Series struct {
	Name   string
	Times  []float64
	Values []float64
}

// Overlay draws several curves on shared axes, one color per series.
func Overlay(series []Series, opts Options) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "t"
	if opts.LogTime {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	drawn := 0
	for n, s := range series {
		pts := make(plotter.XYs, 0, len(s.Times))
		for i, t := range s.Times {
			if opts.LogTime && t <= 0 {
				continue
			}
			pts = append(pts, plotter.XY{X: t, Y: s.Values[i]})
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name, err)
		}
		line.Color = plotutil.Color(n)
		line.Dashes = plotutil.Dashes(n)
		p.Add(line)
		p.Legend.Add(s.Name, line)
		drawn++
	}
	if drawn == 0 {
		return nil, ErrNoData
	}
	p.Add(plotter.NewGrid())
	return p, nil
}

// Phase plots component j against component i.
func Phase(states [][]float64, i, j int, opts Options) (*plot.Plot, error) {
	if len(states) == 0 {
		return nil, ErrNoData
	}
	dim := len(states[0])
	if i < 0 || i >= dim || j < 0 || j >= dim {
		return nil, fmt.Errorf("components (%d, %d) out of range [0, %d)", i, j, dim)
	}

	pts := make(plotter.XYs, len(states))
	for k, s := range states {
		pts[k] = plotter.XY{X: s[i], Y: s[j]}
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.label(i)
	p.Y.Label.Text = opts.label(j)

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = plotutil.Color(0)
	p.Add(line, plotter.NewGrid())
	return p, nil
}

// Save writes p to path. The format follows the extension: .png, .svg,
// .pdf, .eps, .jpg or .tif.
func Save(p *plot.Plot, path string) error {
	if !supported(filepath.Ext(path)) {
		return fmt.Errorf("unsupported plot format %q", filepath.Ext(path))
	}
	return p.Save(DefaultWidth, DefaultHeight, path)
}

// Write renders p in the given format ("png", "svg", ...) to w.
func Write(p *plot.Plot, w io.Writer, format string) error {
	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".png", ".svg", ".pdf", ".eps", ".jpg", ".jpeg", ".tif", ".tiff":
		return true
	}
	return false
}
