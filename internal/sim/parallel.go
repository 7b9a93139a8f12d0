package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Factory builds the simulator and initial state for one ensemble member.
// Each call must return an independent integrator.
type Factory func(run int) (*Simulator, []float64, error)

// Member is one ensemble run. Result holds the points reached even when
// Err is set.
type Member struct {
	Result *Result
	Err    error
}

type Ensemble struct {
	factory  Factory
	numRuns  int
	limit    int
	failFast bool
}

// NewEnsemble runs numRuns members with at most limit running at once.
// A limit <= 0 means no bound. The first failing member cancels the rest
// unless KeepGoing is set.
func NewEnsemble(factory Factory, numRuns, limit int) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, limit: limit, failFast: true}
}

// KeepGoing records member failures in their Member instead of cancelling
// the ensemble.
func (e *Ensemble) KeepGoing() *Ensemble {
	e.failFast = false
	return e
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]Member, error) {
	members := make([]Member, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			s, y0, err := e.factory(i)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			res, err := s.Run(ctx, y0, cfg)
			members[i] = Member{Result: res, Err: err}
			if err != nil && e.failFast {
				return fmt.Errorf("run %d: %w", i, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return members, err
	}
	return members, nil
}
