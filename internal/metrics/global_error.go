package metrics

import (
	"math"

	"github.com/san-kum/odesolve/internal/problems"
)

// GlobalError is the largest componentwise deviation from a closed-form
// solution over all output points. The first observation is the reference
// initial condition.
type GlobalError struct {
	name   string
	exact  problems.Exact
	t0     float64
	y0     []float64
	ref    []float64
	maxErr float64
}

func NewGlobalError(exact problems.Exact) *GlobalError {
	return &GlobalError{
		name:  "global_error",
		exact: exact,
	}
}

func (g *GlobalError) Name() string { return g.name }

func (g *GlobalError) Observe(t float64, y []float64) {
	if g.y0 == nil {
		g.t0 = t
		g.y0 = append([]float64(nil), y...)
		g.ref = make([]float64, len(y))
		return
	}

	g.exact.Solution(t-g.t0, g.y0, g.ref)
	for i, v := range y {
		g.maxErr = math.Max(g.maxErr, math.Abs(v-g.ref[i]))
	}
}

func (g *GlobalError) Value() float64 { return g.maxErr }

func (g *GlobalError) Reset() {
	g.y0 = nil
	g.ref = nil
	g.maxErr = 0
}
