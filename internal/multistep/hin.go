package multistep

import (
	"fmt"
	"math"

	"github.com/san-kum/odesolve/internal/nvector"
)

const (
	hlbFactor   = 100.0
	hubFactor   = 0.1
	hBias       = 0.5
	hinMaxIters = 100
)

// initialStep estimates the first step toward tout. It bounds h between a
// roundoff-based lower bound and an upper bound from |y0|/|y0'| and the
// distance to tout, then refines a trial step from an estimate of the second derivative.
func (s *Solver) initialStep(tout float64) (float64, *fault) {
	tdiff := tout - s.tn
	if tdiff == 0 {
		return 0, &fault{kind: TooClose, msg: fmt.Sprintf("tout=%g equals t0", tout)}
	}
	sign := 1.0
	if tdiff < 0 {
		sign = -1
	}
	tdist := math.Abs(tdiff)
	tround := uround * math.Max(math.Abs(s.tn), math.Abs(tout))
	if tdist < 2*tround {
		return 0, &fault{kind: TooClose, msg: fmt.Sprintf("tout=%g is within roundoff of t0=%g", tout, s.tn)}
	}

	hlb := hlbFactor * tround
	hub := s.upperBoundH0(tdist)
	hg := math.Sqrt(hlb * hub)
	if hub < hlb {
		return sign * hg, nil
	}

	var hnew float64
	for count := 1; ; count++ {
		yddnrm, f := s.yddNorm(sign * hg)
		if f != nil {
			return 0, f
		}
		if yddnrm*hub*hub > 2 {
			hnew = math.Sqrt(2 / yddnrm)
		} else {
			hnew = math.Sqrt(hg * hub)
		}
		if count >= hinMaxIters {
			break
		}
		hrat := hnew / hg
		if hrat > 0.5 && hrat < 2 {
			break
		}
		if count > 1 && hrat > 2 {
			hnew = hg
			break
		}
		hg = hnew
	}

	h0 := hBias * hnew
	h0 = math.Max(hlb, math.Min(h0, hub))
	return sign * h0, nil
}

// upperBoundH0 allows at most a relative change of hubFactor in y0 over a
// forward Euler step, and at most hubFactor of the distance to tout.
func (s *Solver) upperBoundH0(tdist float64) float64 {
	temp1 := s.tempv
	temp2 := s.acor
	nvector.Abs(s.zn[0], temp1)
	nvector.Abs(s.zn[1], temp2)
	if s.atolv != nil {
		nvector.LinearSum(hubFactor, temp1, 1, s.atolv, temp1)
	} else {
		nvector.Scale(hubFactor, temp1, temp1)
		nvector.AddConst(temp1, s.atol, temp1)
	}
	nvector.Div(temp2, temp1, temp1)
	hubInv := nvector.MaxNorm(temp1)

	hub := hubFactor * tdist
	if hub*hubInv > 1 {
		hub = 1 / hubInv
	}
	s.acor.Fill(0)
	return hub
}

// yddNorm estimates the second derivative norm from one extra derivative evaluation at t0+hg.
func (s *Solver) yddNorm(hg float64) (float64, *fault) {
	nvector.LinearSum(hg, s.zn[1], 1, s.zn[0], s.y)
	if f := s.rhs(s.tn+hg, s.y, s.tempv); f != nil {
		return 0, f
	}
	nvector.LinearSum(1, s.tempv, -1, s.zn[1], s.tempv)
	nvector.Scale(1/hg, s.tempv, s.tempv)
	return nvector.WrmsNorm(s.tempv, s.ewt), nil
}
