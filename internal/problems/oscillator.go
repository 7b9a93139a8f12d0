package problems

import "math"

// Oscillator is the undamped harmonic oscillator.
// State: [x, v]
//
//	dx/dt = v
//	dv/dt = -omega^2 x
type Oscillator struct {
	Omega float64
}

func NewOscillator() *Oscillator { return &Oscillator{Omega: 1} }

func (o *Oscillator) Name() string { return "oscillator" }
func (o *Oscillator) Dim() int     { return 2 }
func (o *Oscillator) Stiff() bool  { return false }

func (o *Oscillator) Derive(_ float64, y, dy []float64) error {
	dy[0] = y[1]
	dy[1] = -o.Omega * o.Omega * y[0]
	return nil
}

func (o *Oscillator) DefaultState() []float64 { return []float64{1, 0} }

func (o *Oscillator) Solution(t float64, y0, y []float64) {
	w := o.Omega
	c, s := math.Cos(w*t), math.Sin(w*t)
	y[0] = y0[0]*c + y0[1]*s/w
	y[1] = -y0[0]*w*s + y0[1]*c
}

// Energy returns the conserved quantity (v^2 + omega^2 x^2) / 2.
func (o *Oscillator) Energy(y []float64) float64 {
	return 0.5 * (y[1]*y[1] + o.Omega*o.Omega*y[0]*y[0])
}

func (o *Oscillator) Params() map[string]float64 {
	return map[string]float64{"omega": o.Omega}
}

func (o *Oscillator) SetParam(name string, value float64) error {
	if name != "omega" {
		return unknownParam(o.Name(), name)
	}
	o.Omega = value
	return nil
}
