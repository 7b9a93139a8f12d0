package integrators

import "github.com/san-kum/odesolve/internal/multistep"

// Stepper advances y(t) by one step of size h into out. out must not alias y.
type Stepper interface {
	Step(f multistep.Func, t float64, y []float64, h float64, out []float64) error
	Order() int
}
