package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// InvariantDrift is the largest absolute change of w . y from its value at
// the first observation.
type InvariantDrift struct {
	name     string
	weights  []float64
	initial  float64
	maxDrift float64
	samples  int
}

func NewInvariantDrift(weights []float64) *InvariantDrift {
	return &InvariantDrift{
		name:    "invariant_drift",
		weights: weights,
	}
}

func (d *InvariantDrift) Name() string { return d.name }

func (d *InvariantDrift) Observe(t float64, y []float64) {
	v := floats.Dot(d.weights, y)
	if d.samples == 0 {
		d.initial = v
	}
	d.samples++
	d.maxDrift = math.Max(d.maxDrift, math.Abs(v-d.initial))
}

func (d *InvariantDrift) Value() float64 { return d.maxDrift }

func (d *InvariantDrift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}
