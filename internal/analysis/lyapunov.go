package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/odesolve/internal/multistep"
	"gonum.org/v1/gonum/floats"
)

var ErrCollapsed = errors.New("analysis: trajectories collapsed")

// LyapunovExponent estimates the largest Lyapunov exponent of f from y0.
//
// A reference and a perturbed trajectory, d0 apart in the first component,
// are advanced with separate solvers. Every interval the separation is
// logged and rescaled back to d0, and the perturbed solver restarts from
// the rescaled state:
//
//	lambda = sum(ln(d_k / d0)) / duration
func LyapunovExponent(f multistep.Func, y0 []float64, opts multistep.Options, interval, duration, d0 float64) (float64, error) {
	if len(y0) == 0 {
		return 0, fmt.Errorf("%w: empty initial state", multistep.ErrIllInput)
	}
	if interval <= 0 || duration < interval || d0 <= 0 {
		return 0, fmt.Errorf("%w: interval %g, duration %g, perturbation %g", multistep.ErrIllInput, interval, duration, d0)
	}

	ref, err := multistep.New(f, 0, y0, opts)
	if err != nil {
		return 0, err
	}
	yp := make([]float64, len(y0))
	copy(yp, y0)
	yp[0] += d0
	pert, err := multistep.New(f, 0, yp, opts)
	if err != nil {
		return 0, err
	}

	y := make([]float64, len(y0))
	t := 0.0
	sumLog := 0.0
	for k := 1; t < duration; k++ {
		tout := math.Min(float64(k)*interval, duration)
		if _, err := ref.Advance(tout, y); err != nil {
			return 0, fmt.Errorf("reference: %w", err)
		}
		if _, err := pert.Advance(tout, yp); err != nil {
			return 0, fmt.Errorf("perturbed: %w", err)
		}

		sep := floats.Distance(y, yp, 2)
		if sep == 0 || math.IsNaN(sep) {
			return 0, fmt.Errorf("%w at t=%g", ErrCollapsed, tout)
		}
		sumLog += math.Log(sep / d0)

		for i := range yp {
			yp[i] = y[i] + (yp[i]-y[i])*d0/sep
		}
		if err := pert.Reinit(tout, yp); err != nil {
			return 0, err
		}
		t = tout
	}
	return sumLog / t, nil
}
