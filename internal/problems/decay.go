package problems

import "math"

// Decay is dy/dt = -k y.
type Decay struct {
	K float64
}

func NewDecay() *Decay { return &Decay{K: 1} }

func (d *Decay) Name() string { return "decay" }
func (d *Decay) Dim() int     { return 1 }
func (d *Decay) Stiff() bool  { return d.K > 1000 }

func (d *Decay) Derive(_ float64, y, dy []float64) error {
	dy[0] = -d.K * y[0]
	return nil
}

func (d *Decay) DefaultState() []float64 { return []float64{1} }

func (d *Decay) Solution(t float64, y0, y []float64) {
	y[0] = y0[0] * math.Exp(-d.K*t)
}

func (d *Decay) Params() map[string]float64 {
	return map[string]float64{"k": d.K}
}

func (d *Decay) SetParam(name string, value float64) error {
	if name != "k" {
		return unknownParam(d.Name(), name)
	}
	d.K = value
	return nil
}
