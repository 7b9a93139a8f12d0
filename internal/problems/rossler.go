package problems

type Rossler struct{ a, b, c float64 }

func NewRossler() *Rossler      { return &Rossler{0.2, 0.2, 5.7} }
func (r *Rossler) Name() string { return "rossler" }
func (r *Rossler) Dim() int     { return 3 }
func (r *Rossler) Stiff() bool  { return false }

// Derive calculates the Rossler attractor derivatives.
func (r *Rossler) Derive(_ float64, s, dy []float64) error {
	dy[0] = -s[1] - s[2]
	dy[1] = s[0] + r.a*s[1]
	dy[2] = r.b + s[2]*(s[0]-r.c)
	return nil
}
func (r *Rossler) DefaultState() []float64 { return []float64{1.0, 1.0, 1.0} }
func (r *Rossler) Params() map[string]float64 {
	return map[string]float64{"a": r.a, "b": r.b, "c": r.c}
}
func (r *Rossler) SetParam(n string, v float64) error {
	switch n {
	case "a":
		r.a = v
	case "b":
		r.b = v
	case "c":
		r.c = v
	default:
		return unknownParam(r.Name(), n)
	}
	return nil
}
