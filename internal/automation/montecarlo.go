package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/odesolve/internal/config"
	"github.com/san-kum/odesolve/internal/experiment"
	"github.com/san-kum/odesolve/internal/sim"
)

// DefaultBound is the largest final component a stable trial may have.
const DefaultBound = 1e6

// MonteCarlo runs Base from randomly perturbed initial states.
type MonteCarlo struct {
	Base *config.Config
	// Perturbation is the half-width of the uniform offset added to each
	// component of the initial state.
	Perturbation float64
	Trials       int
	// Seed 0 seeds from the clock.
	Seed int64
	// Limit bounds concurrent trials; 0 means no bound.
	Limit int
	Bound float64
}

type MonteCarloResult struct {
	TrialID    int
	InitState  []float64
	FinalState []float64
	// Stable is false when the trial failed or left the bound.
	Stable bool
	Err    error
}

// RunMonteCarlo runs the trials concurrently. Trial failures are recorded
// per trial; setup errors abort.
func RunMonteCarlo(ctx context.Context, mc MonteCarlo, reg *experiment.Registry) ([]MonteCarloResult, error) {
	if mc.Trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", mc.Trials)
	}
	bound := mc.Bound
	if bound <= 0 {
		bound = DefaultBound
	}

	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	exps := make([]*experiment.Experiment, mc.Trials)
	for trial := range exps {
		cfg := mc.Base.Clone()
		base := cfg.InitState
		if len(base) == 0 {
			p, err := reg.GetProblem(cfg.Problem)
			if err != nil {
				return nil, err
			}
			base = p.DefaultState()
		}
		y0 := make([]float64, len(base))
		for i, v := range base {
			y0[i] = v + (rng.Float64()-0.5)*2*mc.Perturbation
		}
		cfg.InitState = y0

		exp := experiment.New(reg, cfg)
		if err := exp.Setup(nil); err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}
		exps[trial] = exp
	}

	ens := sim.NewEnsemble(func(run int) (*sim.Simulator, []float64, error) {
		return exps[run].Simulator(), exps[run].InitialState(), nil
	}, len(exps), mc.Limit).KeepGoing()
	members, err := ens.Run(ctx, exps[0].SimConfig())
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(exps))
	for i, m := range members {
		r := MonteCarloResult{TrialID: i, InitState: exps[i].InitialState(), Err: m.Err}
		if m.Result != nil {
			r.FinalState = m.Result.Final()
		}
		r.Stable = m.Err == nil && bounded(r.FinalState, bound)
		results[i] = r
	}
	return results, nil
}

func bounded(y []float64, bound float64) bool {
	if len(y) == 0 {
		return false
	}
	for _, v := range y {
		if math.IsNaN(v) || math.Abs(v) > bound {
			return false
		}
	}
	return true
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
