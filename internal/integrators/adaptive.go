package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/odesolve/internal/multistep"
	"github.com/san-kum/odesolve/internal/nvector"
)

const (
	safety     = 0.9
	minScale   = 0.2
	maxScale   = 10.0
	maxRejects = 20
)

// Adaptive drives RK45 with a weighted RMS local error test.
type Adaptive struct {
	driver
	rk         *RK45
	rtol, atol float64
	ewt        nvector.Vector
	dir        float64
}

func NewAdaptive(f multistep.Func, t0 float64, y0 []float64, opts Options) (*Adaptive, error) {
	if opts.RelTol < 0 || opts.AbsTol < 0 || opts.RelTol+opts.AbsTol == 0 {
		return nil, fmt.Errorf("%w: tolerances must be >= 0 and not both zero", multistep.ErrIllInput)
	}
	rk := NewRK45()
	d, err := newDriver(f, t0, y0, opts, rk.Order())
	if err != nil {
		return nil, err
	}
	return &Adaptive{
		driver: d,
		rk:     rk,
		rtol:   opts.RelTol,
		atol:   opts.AbsTol,
		ewt:    nvector.New(len(y0)),
	}, nil
}

// Advance integrates toward tout in either direction and writes y(tout)
// into yout.
func (a *Adaptive) Advance(tout float64, yout []float64) (multistep.Outcome, error) {
	if err := a.checkRequest(tout, yout); err != nil {
		return a.abort(yout, err)
	}
	if tout == a.t {
		copy(yout, a.y)
		return multistep.Outcome{Succeeded: true, ReachedTime: tout}, nil
	}

	dir := math.Copysign(1, tout-a.t)
	if a.dir != 0 && dir != a.dir {
		return a.abort(yout, a.fail(multistep.BadT, fmt.Sprintf("tout=%g reverses the direction of integration", tout), nil))
	}
	a.dir = dir
	if a.h == 0 {
		a.h = 0.01 * (tout - a.t)
	}
	a.h = math.Copysign(a.h, dir)

	for nstloc := 0; (tout-a.t)*dir > 0; nstloc++ {
		if nstloc >= a.maxSteps {
			return a.abort(yout, a.fail(multistep.TooMuchWork, fmt.Sprintf("took %d steps before reaching tout=%g", a.maxSteps, tout), nil))
		}
		if err := a.step(tout); err != nil {
			return a.abort(yout, err)
		}
	}

	copy(yout, a.y)
	return multistep.Outcome{Succeeded: true, ReachedTime: tout}, nil
}

// step attempts steps from t until one passes the error test.
func (a *Adaptive) step(tout float64) error {
	for rejects := 0; ; rejects++ {
		if rejects >= maxRejects {
			return a.fail(multistep.ErrFailure, fmt.Sprintf("error test failed %d times", rejects), nil)
		}
		h := a.h
		last := (a.t+h-tout)*a.dir >= 0
		if last {
			h = tout - a.t
		}
		if a.t+h == a.t {
			return a.fail(multistep.ZeroStepSize, fmt.Sprintf("h=%g is below roundoff at t=%g", h, a.t), nil)
		}

		if err := a.rk.Step(a.f, a.t, a.y, h, a.next); err != nil {
			return a.fail(multistep.RHSFuncFail, fmt.Sprintf("at t=%g", a.t), err)
		}

		for i, yi := range a.y {
			a.ewt[i] = 1 / (a.rtol*math.Max(math.Abs(yi), math.Abs(a.next[i])) + a.atol)
		}
		errNorm := nvector.WrmsNorm(a.rk.ErrorEstimate(), a.ewt)
		if math.IsNaN(errNorm) {
			return a.fail(multistep.RHSFuncFail, "error estimate is NaN", nil)
		}

		if errNorm <= 1 {
			scale := maxScale
			if errNorm > 0 {
				scale = math.Min(maxScale, safety*math.Pow(errNorm, -0.2))
			}
			a.accept(h, last, tout)
			if !last || math.Abs(h*scale) < math.Abs(a.h) {
				a.h = h * scale
			}
			return nil
		}

		a.netf++
		a.h = h * math.Max(minScale, safety*math.Pow(errNorm, -0.25))
	}
}
