package problems

import (
	"errors"
	"fmt"
)

var ErrUnknownParam = errors.New("problems: unknown parameter")

type Problem interface {
	Name() string
	Dim() int
	Derive(t float64, y, dy []float64) error
	DefaultState() []float64
	// Stiff reports whether BDF is the recommended method.
	Stiff() bool
}

// Exact is implemented by problems with a closed-form solution.
type Exact interface {
	Solution(t float64, y0, y []float64)
}

type Configurable interface {
	Params() map[string]float64
	SetParam(name string, value float64) error
}

// Invariant is implemented by problems that conserve a linear combination
// w . y of their state.
type Invariant interface {
	InvariantWeights() []float64
}

func unknownParam(problem, name string) error {
	return fmt.Errorf("%w: %s has no parameter %q", ErrUnknownParam, problem, name)
}
