package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/odesolve/internal/multistep"
)

// stretch lets the final step grow slightly instead of leaving a sliver
// step behind from roundoff in the accumulated time.
const stretch = 1 + 1e-6

// Fixed drives a Stepper with a constant step, shortening only the final
// step so each Advance lands exactly on tout.
type Fixed struct {
	driver
	stepper Stepper
}

func NewFixed(stepper Stepper, f multistep.Func, t0 float64, y0 []float64, opts Options) (*Fixed, error) {
	if stepper == nil {
		return nil, fmt.Errorf("%w: nil stepper", multistep.ErrIllInput)
	}
	if opts.Step <= 0 || math.IsNaN(opts.Step) || math.IsInf(opts.Step, 0) {
		return nil, fmt.Errorf("%w: fixed step must be finite and > 0, got %g", multistep.ErrIllInput, opts.Step)
	}
	d, err := newDriver(f, t0, y0, opts, stepper.Order())
	if err != nil {
		return nil, err
	}
	return &Fixed{driver: d, stepper: stepper}, nil
}

// Advance integrates forward to tout and writes y(tout) into yout.
func (x *Fixed) Advance(tout float64, yout []float64) (multistep.Outcome, error) {
	if err := x.checkRequest(tout, yout); err != nil {
		return x.abort(yout, err)
	}
	if tout < x.t {
		return x.abort(yout, x.fail(multistep.BadT, fmt.Sprintf("tout=%g is behind t=%g", tout, x.t), nil))
	}

	for nstloc := 0; x.t < tout; nstloc++ {
		if nstloc >= x.maxSteps {
			return x.abort(yout, x.fail(multistep.TooMuchWork, fmt.Sprintf("took %d steps before reaching tout=%g", x.maxSteps, tout), nil))
		}
		h := x.h
		last := x.t+h*stretch >= tout
		if last {
			h = tout - x.t
		}
		if err := x.stepper.Step(x.f, x.t, x.y, h, x.next); err != nil {
			return x.abort(yout, x.fail(multistep.RHSFuncFail, fmt.Sprintf("at t=%g", x.t), err))
		}
		x.accept(h, last, tout)
	}

	copy(yout, x.y)
	return multistep.Outcome{Succeeded: true, ReachedTime: tout}, nil
}
