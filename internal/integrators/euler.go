package integrators

import "github.com/san-kum/odesolve/internal/multistep"

type Euler struct {
	dy []float64
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Order() int { return 1 }

func (e *Euler) Step(f multistep.Func, t float64, y []float64, h float64, out []float64) error {
	if len(e.dy) != len(y) {
		e.dy = make([]float64, len(y))
	}
	if err := f(t, y, e.dy); err != nil {
		return err
	}
	for i := range y {
		out[i] = y[i] + h*e.dy[i]
	}
	return nil
}
