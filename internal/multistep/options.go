package multistep

import (
	"fmt"
	"math"
)

const (
	AdamsMaxOrder   = 12
	BDFMaxOrder     = 5
	DefaultMaxSteps = 500
)

// Options configures a Solver. Exactly one of AbsTol and AbsTolVec is used:
// AbsTolVec wins when it is non-nil.
type Options struct {
	// Stiff selects BDF with Newton iteration instead of Adams with
	// functional iteration.
	Stiff bool

	RelTol    float64
	AbsTol    float64
	AbsTolVec []float64

	// MaxSteps bounds the internal steps taken by one Advance call.
	// Zero means DefaultMaxSteps.
	MaxSteps int

	// MaxOrder lowers the method's maximum order. Zero keeps 12 (Adams) or 5 (BDF).
	MaxOrder int

	// InitStep, if nonzero, is used as the first step instead of the
	// estimate. Its sign must match the direction of integration.
	InitStep float64

	// MinStep and MaxStep bound |h|. Zero leaves the bound unset.
	MinStep float64
	MaxStep float64

	// Name identifies the integrator in error reports.
	Name string

	Reporter Reporter
}

func DefaultOptions() Options {
	return Options{
		RelTol:   1e-6,
		AbsTol:   1e-8,
		MaxSteps: DefaultMaxSteps,
	}
}

func (o Options) validate(n int) error {
	if o.RelTol < 0 || math.IsNaN(o.RelTol) || math.IsInf(o.RelTol, 0) {
		return fmt.Errorf("%w: rtol must be finite and >= 0, got %g", ErrIllInput, o.RelTol)
	}
	if o.AbsTolVec != nil {
		if len(o.AbsTolVec) != n {
			return fmt.Errorf("%w: atol has %d components, state has %d", ErrIllInput, len(o.AbsTolVec), n)
		}
		for i, a := range o.AbsTolVec {
			if a < 0 || math.IsNaN(a) || math.IsInf(a, 0) {
				return fmt.Errorf("%w: atol[%d] must be finite and >= 0, got %g", ErrIllInput, i, a)
			}
		}
	} else if o.AbsTol < 0 || math.IsNaN(o.AbsTol) || math.IsInf(o.AbsTol, 0) {
		return fmt.Errorf("%w: atol must be finite and >= 0, got %g", ErrIllInput, o.AbsTol)
	}
	if o.MaxSteps < 0 {
		return fmt.Errorf("%w: max steps must be >= 0, got %d", ErrIllInput, o.MaxSteps)
	}
	if o.MaxOrder < 0 {
		return fmt.Errorf("%w: max order must be >= 0, got %d", ErrIllInput, o.MaxOrder)
	}
	if o.MinStep < 0 || o.MaxStep < 0 {
		return fmt.Errorf("%w: step bounds must be >= 0", ErrIllInput)
	}
	if o.MaxStep > 0 && o.MinStep > o.MaxStep {
		return fmt.Errorf("%w: min step %g exceeds max step %g", ErrIllInput, o.MinStep, o.MaxStep)
	}
	return nil
}
