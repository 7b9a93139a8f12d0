package sim

import "github.com/san-kum/odesolve/internal/multistep"

// Integrator is implemented by multistep.Solver and by the one-step drivers
// in package integrators.
type Integrator interface {
	Advance(tout float64, yout []float64) (multistep.Outcome, error)
	Stats() multistep.Stats
}

type Metric interface {
	Name() string
	Observe(t float64, y []float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnOutput(t float64, y []float64)
}

// Config describes the output grid: Start, Start±Interval, ... up to and
// including End. End may lie before Start.
type Config struct {
	Start    float64
	End      float64
	Interval float64

	// Retries is how many times a recoverable failure may be resumed at one
	// output point before the run gives up.
	Retries int
}

type Result struct {
	Times   []float64
	States  [][]float64
	Stats   multistep.Stats
	Metrics map[string]float64
	// Retried counts resumed recoverable failures over the whole run.
	Retried int
}

// Final returns the last recorded state, or nil for an empty result.
func (r *Result) Final() []float64 {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}
