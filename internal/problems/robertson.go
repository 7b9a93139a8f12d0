package problems

// Robertson is the chemical kinetics problem
//
//	dy1/dt = -k1 y1 + k3 y2 y3
//	dy2/dt =  k1 y1 - k3 y2 y3 - k2 y2^2
//	dy3/dt =  k2 y2^2
//
// with rate constants spanning nine orders of magnitude. y1 + y2 + y3 is
// conserved.
type Robertson struct {
	k1, k2, k3 float64
}

func NewRobertson() *Robertson { return &Robertson{k1: 0.04, k2: 3e7, k3: 1e4} }

func (r *Robertson) Name() string { return "robertson" }
func (r *Robertson) Dim() int     { return 3 }
func (r *Robertson) Stiff() bool  { return true }

func (r *Robertson) Derive(_ float64, y, dy []float64) error {
	dy[0] = -r.k1*y[0] + r.k3*y[1]*y[2]
	dy[2] = r.k2 * y[1] * y[1]
	dy[1] = -dy[0] - dy[2]
	return nil
}

func (r *Robertson) DefaultState() []float64 { return []float64{1, 0, 0} }

// AbsTol returns per-component absolute tolerances suited to the very
// different magnitudes of the species.
func (r *Robertson) AbsTol() []float64 { return []float64{1e-8, 1e-14, 1e-6} }

func (r *Robertson) InvariantWeights() []float64 { return []float64{1, 1, 1} }

func (r *Robertson) Params() map[string]float64 {
	return map[string]float64{"k1": r.k1, "k2": r.k2, "k3": r.k3}
}

func (r *Robertson) SetParam(name string, value float64) error {
	switch name {
	case "k1":
		r.k1 = value
	case "k2":
		r.k2 = value
	case "k3":
		r.k3 = value
	default:
		return unknownParam(r.Name(), name)
	}
	return nil
}
