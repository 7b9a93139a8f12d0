package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/odesolve/internal/config"
	"github.com/san-kum/odesolve/internal/integrators"
	"github.com/san-kum/odesolve/internal/metrics"
	"github.com/san-kum/odesolve/internal/multistep"
	"github.com/san-kum/odesolve/internal/problems"
	"github.com/san-kum/odesolve/internal/sim"
)

// MethodFactory builds an integrator for p starting at (cfg.Start, y0).
type MethodFactory func(p problems.Problem, y0 []float64, cfg *config.Config, rep multistep.Reporter) (sim.Integrator, error)

type Registry struct {
	problems map[string]func() problems.Problem
	methods  map[string]MethodFactory
}

// recommendedTol is implemented by problems that ship per-component
// absolute tolerances.
type recommendedTol interface {
	AbsTol() []float64
}

func NewRegistry() *Registry {
	r := &Registry{
		problems: make(map[string]func() problems.Problem),
		methods:  make(map[string]MethodFactory),
	}

	r.problems["decay"] = func() problems.Problem { return problems.NewDecay() }
	r.problems["oscillator"] = func() problems.Problem { return problems.NewOscillator() }
	r.problems["vanderpol"] = func() problems.Problem { return problems.NewVanDerPol() }
	r.problems["robertson"] = func() problems.Problem { return problems.NewRobertson() }
	r.problems["lorenz"] = func() problems.Problem { return problems.NewLorenz() }
	r.problems["rossler"] = func() problems.Problem { return problems.NewRossler() }
	r.problems["brusselator"] = func() problems.Problem { return problems.NewBrusselator() }

	r.methods["adams"] = multistepFactory(false)
	r.methods["bdf"] = multistepFactory(true)
	r.methods["euler"] = fixedFactory(func() integrators.Stepper { return integrators.NewEuler() })
	r.methods["rk4"] = fixedFactory(func() integrators.Stepper { return integrators.NewRK4() })
	r.methods["rk45"] = func(p problems.Problem, y0 []float64, cfg *config.Config, rep multistep.Reporter) (sim.Integrator, error) {
		return integrators.NewAdaptive(p.Derive, cfg.Start, y0, integrators.Options{
			Step:     cfg.Step,
			RelTol:   cfg.RelTol,
			AbsTol:   cfg.AbsTol,
			MaxSteps: cfg.MaxSteps,
			Name:     runName(cfg),
			Reporter: rep,
		})
	}

	return r
}

func multistepFactory(stiff bool) MethodFactory {
	return func(p problems.Problem, y0 []float64, cfg *config.Config, rep multistep.Reporter) (sim.Integrator, error) {
		opts := multistep.Options{
			Stiff:     stiff,
			RelTol:    cfg.RelTol,
			AbsTol:    cfg.AbsTol,
			AbsTolVec: cfg.AbsTolVec,
			MaxSteps:  cfg.MaxSteps,
			MaxOrder:  cfg.MaxOrder,
			Name:      runName(cfg),
			Reporter:  rep,
		}
		if len(opts.AbsTolVec) == 0 {
			opts.AbsTolVec = nil
			if rt, ok := p.(recommendedTol); ok && cfg.AbsTol == 0 {
				opts.AbsTolVec = rt.AbsTol()
			}
		}
		return multistep.New(p.Derive, cfg.Start, y0, opts)
	}
}

func fixedFactory(newStepper func() integrators.Stepper) MethodFactory {
	return func(p problems.Problem, y0 []float64, cfg *config.Config, rep multistep.Reporter) (sim.Integrator, error) {
		maxSteps := cfg.MaxSteps
		if need := int((cfg.Interval/cfg.Step)*1.01) + 1; maxSteps < need {
			maxSteps = need
		}
		return integrators.NewFixed(newStepper(), p.Derive, cfg.Start, y0, integrators.Options{
			Step:     cfg.Step,
			MaxSteps: maxSteps,
			Name:     runName(cfg),
			Reporter: rep,
		})
	}
}

func runName(cfg *config.Config) string {
	return cfg.Problem + "/" + cfg.Method
}

func (r *Registry) GetProblem(name string) (problems.Problem, error) {
	fn, ok := r.problems[name]
	if !ok {
		return nil, fmt.Errorf("unknown problem: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetMethod(name string) (MethodFactory, error) {
	fn, ok := r.methods[name]
	if !ok {
		return nil, fmt.Errorf("unknown method: %s", name)
	}
	return fn, nil
}

func (r *Registry) ListProblems() []string {
	return sortedKeys(r.problems)
}

func (r *Registry) ListMethods() []string {
	return sortedKeys(r.methods)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics picks the accuracy metrics p supports.
func (r *Registry) DefaultMetrics(p problems.Problem) []sim.Metric {
	ms := []sim.Metric{metrics.NewStability(1e6)}
	if ex, ok := p.(problems.Exact); ok {
		ms = append(ms, metrics.NewGlobalError(ex))
	}
	if h, ok := p.(metrics.Hamiltonian); ok {
		ms = append(ms, metrics.NewEnergyDrift(h))
	}
	if inv, ok := p.(problems.Invariant); ok {
		ms = append(ms, metrics.NewInvariantDrift(inv.InvariantWeights()))
	}
	return ms
}
