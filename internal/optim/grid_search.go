package optim

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"

	"github.com/san-kum/odesolve/internal/config"
	"github.com/san-kum/odesolve/internal/experiment"
	"github.com/san-kum/odesolve/internal/sim"
)

var ErrNoTrial = errors.New("optim: no trial produced a score")

// GridSearch runs an experiment for every combination of knob values and
// keeps the lowest score.
type GridSearch struct {
	names  []string
	values [][]float64
}

func NewGridSearch(names []string, values [][]float64) (*GridSearch, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("optim: no knobs")
	}
	if len(names) != len(values) {
		return nil, fmt.Errorf("optim: %d knobs with %d value lists", len(names), len(values))
	}
	for i, v := range values {
		if len(v) == 0 {
			return nil, fmt.Errorf("optim: knob %s has no values", names[i])
		}
	}
	return &GridSearch{names: names, values: values}, nil
}

// Size is the number of combinations Search will run.
func (g *GridSearch) Size() int {
	n := 1
	for _, v := range g.values {
		n *= len(v)
	}
	return n
}

// Trial is one evaluated combination. Score is +Inf when the run failed or
// the objective had no value for it.
type Trial struct {
	Knobs  map[string]float64
	Score  float64
	Result *sim.Result
	Err    error
}

// Objective scores a finished run, lower is better. ok is false when the
// run carries no value for it.
type Objective func(r *sim.Result) (score float64, ok bool)

// Metric scores a run by one of its metrics.
func Metric(name string) Objective {
	return func(r *sim.Result) (float64, bool) {
		v, ok := r.Metrics[name]
		return v, ok && !math.IsNaN(v)
	}
}

// Work scores a run by derivative evaluations, Jacobian ones included.
func Work(r *sim.Result) (float64, bool) {
	return float64(r.Stats.RHSEvals + r.Stats.JacRHSEvals), true
}

// Builder returns a set-up experiment for one combination of knobs.
type Builder func(knobs map[string]float64) (*experiment.Experiment, error)

// Search runs every combination in order. Setup and integration failures
// are kept as trials but never win. Cancelling ctx stops the search.
func (g *GridSearch) Search(ctx context.Context, build Builder, obj Objective) (Trial, []Trial, error) {
	trials := make([]Trial, 0, g.Size())
	err := g.walk(0, make(map[string]float64, len(g.names)), func(knobs map[string]float64) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		trials = append(trials, g.evaluate(ctx, knobs, build, obj))
		return nil
	})
	if err != nil {
		return Trial{}, trials, err
	}

	best := -1
	for i, t := range trials {
		if !math.IsInf(t.Score, 1) && (best < 0 || t.Score < trials[best].Score) {
			best = i
		}
	}
	if best < 0 {
		return Trial{}, trials, ErrNoTrial
	}
	return trials[best], trials, nil
}

func (g *GridSearch) evaluate(ctx context.Context, knobs map[string]float64, build Builder, obj Objective) Trial {
	t := Trial{Knobs: maps.Clone(knobs), Score: math.Inf(1)}
	exp, err := build(t.Knobs)
	if err != nil {
		t.Err = err
		return t
	}
	t.Result, t.Err = exp.Run(ctx)
	if t.Err != nil || t.Result == nil {
		return t
	}
	if v, ok := obj(t.Result); ok {
		t.Score = v
	}
	return t
}

func (g *GridSearch) walk(depth int, current map[string]float64, visit func(map[string]float64) error) error {
	if depth == len(g.names) {
		return visit(current)
	}
	name := g.names[depth]
	for _, v := range g.values[depth] {
		current[name] = v
		if err := g.walk(depth+1, current, visit); err != nil {
			return err
		}
	}
	return nil
}

// Configure builds experiments from base with knobs applied. Knobs rtol,
// atol, max_order, max_steps, step and interval set the matching config
// field; any other knob is a problem parameter.
func Configure(reg *experiment.Registry, base *config.Config) Builder {
	return func(knobs map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		for name, v := range knobs {
			switch name {
			case "rtol":
				cfg.RelTol = v
			case "atol":
				cfg.AbsTol = v
				cfg.AbsTolVec = nil
			case "max_order":
				cfg.MaxOrder = int(v)
			case "max_steps":
				cfg.MaxSteps = int(v)
			case "step":
				cfg.Step = v
			case "interval":
				cfg.Interval = v
			default:
				if cfg.Params == nil {
					cfg.Params = make(map[string]float64)
				}
				cfg.Params[name] = v
			}
		}
		exp := experiment.New(reg, cfg)
		if err := exp.Setup(nil); err != nil {
			return nil, err
		}
		return exp, nil
	}
}
