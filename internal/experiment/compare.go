package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/odesolve/internal/config"
	"github.com/san-kum/odesolve/internal/sim"
)

// Comparison is one method's run within Compare.
type Comparison struct {
	Method string
	Config *config.Config
	Result *sim.Result
	Err    error
}

// Compare runs base once per method, concurrently. Integration failures are
// kept per method; setup errors abort the comparison.
func Compare(ctx context.Context, reg *Registry, base *config.Config, methods []string, limit int) ([]Comparison, error) {
	if len(methods) == 0 {
		return nil, fmt.Errorf("no methods to compare")
	}

	exps := make([]*Experiment, len(methods))
	for i, m := range methods {
		cfg := base.Clone()
		cfg.Method = m
		if cfg.FixedStep() && cfg.Step <= 0 {
			cfg.Step = config.DefaultStep
		}
		exp := New(reg, cfg)
		if err := exp.Setup(nil); err != nil {
			return nil, fmt.Errorf("%s: %w", m, err)
		}
		exps[i] = exp
	}

	ens := sim.NewEnsemble(func(run int) (*sim.Simulator, []float64, error) {
		return exps[run].Simulator(), exps[run].InitialState(), nil
	}, len(exps), limit).KeepGoing()

	members, err := ens.Run(ctx, exps[0].SimConfig())
	if err != nil {
		return nil, err
	}

	out := make([]Comparison, len(exps))
	for i, exp := range exps {
		out[i] = Comparison{
			Method: methods[i],
			Config: exp.Config(),
			Result: members[i].Result,
			Err:    members[i].Err,
		}
	}
	return out, nil
}
