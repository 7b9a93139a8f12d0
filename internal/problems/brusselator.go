package problems

// Brusselator is the autocatalytic reaction
//
//	dx/dt = a + x^2 y - (b + 1) x
//	dy/dt = b x - x^2 y
//
// It settles on a limit cycle when b > 1 + a^2.
type Brusselator struct {
	A, B float64
}

func NewBrusselator() *Brusselator { return &Brusselator{A: 1, B: 3} }

func (b *Brusselator) Name() string { return "brusselator" }
func (b *Brusselator) Dim() int     { return 2 }
func (b *Brusselator) Stiff() bool  { return false }

func (b *Brusselator) Derive(_ float64, s, dy []float64) error {
	x, y := s[0], s[1]
	x2y := x * x * y
	dy[0] = b.A + x2y - (b.B+1)*x
	dy[1] = b.B*x - x2y
	return nil
}

func (b *Brusselator) DefaultState() []float64 { return []float64{1.5, 3} }

func (b *Brusselator) Params() map[string]float64 {
	return map[string]float64{"a": b.A, "b": b.B}
}

func (b *Brusselator) SetParam(name string, value float64) error {
	switch name {
	case "a":
		b.A = value
	case "b":
		b.B = value
	default:
		return unknownParam(b.Name(), name)
	}
	return nil
}
