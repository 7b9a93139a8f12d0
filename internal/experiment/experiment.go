package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/odesolve/internal/config"
	"github.com/san-kum/odesolve/internal/multistep"
	"github.com/san-kum/odesolve/internal/problems"
	"github.com/san-kum/odesolve/internal/sim"
)

type Experiment struct {
	cfg        *config.Config
	reg        *Registry
	problem    problems.Problem
	y0         []float64
	integrator sim.Integrator
	simulator  *sim.Simulator
}

func New(reg *Registry, cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg, reg: reg}
}

// Setup resolves the problem and method, applies parameters and the
// initial state, and attaches the problem's default metrics. rep may be nil.
func (e *Experiment) Setup(rep multistep.Reporter) error {
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	p, err := e.reg.GetProblem(e.cfg.Problem)
	if err != nil {
		return err
	}
	if len(e.cfg.Params) > 0 {
		c, ok := p.(problems.Configurable)
		if !ok {
			return fmt.Errorf("problem %s takes no parameters", p.Name())
		}
		for name, v := range e.cfg.Params {
			if err := c.SetParam(name, v); err != nil {
				return err
			}
		}
	}

	y0 := p.DefaultState()
	if len(e.cfg.InitState) > 0 {
		if len(e.cfg.InitState) != p.Dim() {
			return fmt.Errorf("init_state has %d components, %s needs %d", len(e.cfg.InitState), p.Name(), p.Dim())
		}
		y0 = append([]float64(nil), e.cfg.InitState...)
	}

	factory, err := e.reg.GetMethod(e.cfg.Method)
	if err != nil {
		return err
	}
	integ, err := factory(p, y0, e.cfg, rep)
	if err != nil {
		return fmt.Errorf("create %s integrator: %w", e.cfg.Method, err)
	}

	e.problem = p
	e.y0 = y0
	e.integrator = integ
	e.simulator = sim.New(integ)
	for _, m := range e.reg.DefaultMetrics(p) {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.y0, e.SimConfig())
}

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Start:    e.cfg.Start,
		End:      e.cfg.End,
		Interval: e.cfg.Interval,
		Retries:  e.cfg.Retries,
	}
}

func (e *Experiment) Config() *config.Config     { return e.cfg }
func (e *Experiment) Problem() problems.Problem  { return e.problem }
func (e *Experiment) Integrator() sim.Integrator { return e.integrator }
func (e *Experiment) InitialState() []float64    { return e.y0 }

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }
