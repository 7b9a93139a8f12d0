package problems

// VanDerPol implements the Van der Pol oscillator.
// State: [x, y] where y = dx/dt
// Equations:
//
//	dx/dt = y
//	dy/dt = mu(1 - x^2)y - x
type VanDerPol struct {
	mu float64 // Nonlinearity parameter
}

func NewVanDerPol() *VanDerPol {
	return &VanDerPol{
		mu: 1.0,
	}
}

func (v *VanDerPol) Name() string { return "vanderpol" }
func (v *VanDerPol) Dim() int     { return 2 }

// Stiff is true once relaxation dominates the cycle.
func (v *VanDerPol) Stiff() bool { return v.mu >= 100 }

func (v *VanDerPol) Derive(_ float64, state, dy []float64) error {
	x, y := state[0], state[1]

	dy[0] = y
	dy[1] = v.mu*(1-x*x)*y - x
	return nil
}

func (v *VanDerPol) DefaultState() []float64 {
	return []float64{2.0, 0.0}
}

func (v *VanDerPol) Params() map[string]float64 {
	return map[string]float64{
		"mu": v.mu,
	}
}

func (v *VanDerPol) SetParam(name string, value float64) error {
	if name != "mu" {
		return unknownParam(v.Name(), name)
	}
	v.mu = value
	return nil
}
