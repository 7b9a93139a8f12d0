package nvector

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

type Vector []float64

func New(n int) Vector {
	return make(Vector, n)
}

func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

func (v Vector) IsValid() bool {
	return !floats.HasNaN(v) && !hasInf(v)
}

func (v Vector) Norm() float64 {
	return floats.Norm(v, 2)
}

// Fill sets every component to c.
func (v Vector) Fill(c float64) {
	for i := range v {
		v[i] = c
	}
}

func hasInf(v []float64) bool {
	for _, x := range v {
		if math.IsInf(x, 0) {
			return true
		}
	}
	return false
}

// LinearSum sets z = a*x + b*y.
func LinearSum(a float64, x Vector, b float64, y Vector, z Vector) {
	checkLen(x, y, z)
	switch {
	case a == 1 && b == 1:
		floats.AddTo(z, x, y)
	case a == 1:
		floats.AddScaledTo(z, x, b, y)
	case b == 1:
		floats.AddScaledTo(z, y, a, x)
	default:
		for i := range z {
			z[i] = a*x[i] + b*y[i]
		}
	}
}

// Scale sets z = c*x.
func Scale(c float64, x, z Vector) {
	floats.ScaleTo(z, c, x)
}

// Abs sets z = |x| componentwise.
func Abs(x, z Vector) {
	checkLen(x, z)
	for i := range z {
		z[i] = math.Abs(x[i])
	}
}

// Div sets z = x / y componentwise.
func Div(x, y, z Vector) {
	floats.DivTo(z, x, y)
}

// Inv sets z = 1 / x componentwise.
func Inv(x, z Vector) {
	checkLen(x, z)
	for i := range z {
		z[i] = 1 / x[i]
	}
}

// AddConst sets z = x + b.
func AddConst(x Vector, b float64, z Vector) {
	checkLen(x, z)
	for i := range z {
		z[i] = x[i] + b
	}
}

// Min returns the smallest component, or +Inf for an empty vector.
func Min(x Vector) float64 {
	if len(x) == 0 {
		return math.Inf(1)
	}
	return floats.Min(x)
}

// MaxNorm returns max |x_i|.
func MaxNorm(x Vector) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Norm(x, math.Inf(1))
}

// WrmsNorm returns sqrt(sum((x_i*w_i)^2) / N).
func WrmsNorm(x, w Vector) float64 {
	checkLen(x, w)
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for i := range x {
		p := x[i] * w[i]
		sum += p * p
	}
	return math.Sqrt(sum / float64(len(x)))
}

func checkLen(vs ...Vector) {
	for _, v := range vs[1:] {
		if len(v) != len(vs[0]) {
			panic("nvector: length mismatch")
		}
	}
}
