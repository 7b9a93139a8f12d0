package problems

type Lorenz struct{ sigma, rho, beta float64 }

func NewLorenz() *Lorenz       { return &Lorenz{10.0, 28.0, 8.0 / 3.0} }
func (l *Lorenz) Name() string { return "lorenz" }
func (l *Lorenz) Dim() int     { return 3 }
func (l *Lorenz) Stiff() bool  { return false }

// Derive calculates the Lorenz attractor derivatives.
func (l *Lorenz) Derive(_ float64, s, dy []float64) error {
	dy[0] = l.sigma * (s[1] - s[0])
	dy[1] = s[0]*(l.rho-s[2]) - s[1]
	dy[2] = s[0]*s[1] - l.beta*s[2]
	return nil
}
func (l *Lorenz) DefaultState() []float64 { return []float64{1.0, 1.0, 1.0} }
func (l *Lorenz) Params() map[string]float64 {
	return map[string]float64{"sigma": l.sigma, "rho": l.rho, "beta": l.beta}
}
func (l *Lorenz) SetParam(n string, v float64) error {
	switch n {
	case "sigma":
		l.sigma = v
	case "rho":
		l.rho = v
	case "beta":
		l.beta = v
	default:
		return unknownParam(l.Name(), n)
	}
	return nil
}
