package multistep

import (
	"math"

	"github.com/san-kum/odesolve/internal/nvector"
)

// adjustParams applies a pending order change and rescales zn to hprime.
func (s *Solver) adjustParams() {
	if s.qprime != s.q {
		s.adjustOrder(s.qprime - s.q)
		s.q = s.qprime
		s.qwait = s.q + 1
	}
	s.rescale()
}

// adjustOrder modifies zn for an order change of deltaq (+1 or -1). The
// caller updates q.
func (s *Solver) adjustOrder(deltaq int) {
	if s.q == 2 && deltaq != 1 {
		s.zn[2].Fill(0)
		return
	}
	switch s.lmm {
	case adams:
		s.adjustAdams(deltaq)
	case bdf:
		if deltaq == 1 {
			s.increaseBDF()
		} else {
			s.decreaseBDF()
		}
	}
}

func (s *Solver) adjustAdams(deltaq int) {
	q := s.q
	if deltaq == 1 {
		s.zn[q+1].Fill(0)
		return
	}

	// Decrease: subtract a multiple of zn[q] from zn[2..q-1] so the
	// remaining columns describe the order q-1 interpolant.
	s.l = [lmax]float64{}
	s.l[1] = 1
	hsum := 0.0
	for j := 1; j <= q-2; j++ {
		hsum += s.tau[j]
		xi := hsum / s.hscale
		for i := j + 1; i >= 1; i-- {
			s.l[i] = s.l[i]*xi + s.l[i-1]
		}
	}
	for j := 1; j <= q-2; j++ {
		s.l[j+1] = float64(q) * (s.l[j] / float64(j+1))
	}
	for j := 2; j < q; j++ {
		nvector.LinearSum(-s.l[j], s.zn[q], 1, s.zn[j], s.zn[j])
	}
	s.zn[q].Fill(0)
}

// increaseBDF builds the new column zn[q+1] from the saved correction.
func (s *Solver) increaseBDF() {
	q := s.q
	s.l = [lmax]float64{}
	s.l[2] = 1
	alpha1, prod, xiold := 1.0, 1.0, 1.0
	alpha0 := -1.0
	hsum := s.hscale
	for j := 1; j < q; j++ {
		hsum += s.tau[j+1]
		xi := hsum / s.hscale
		prod *= xi
		alpha0 -= 1 / float64(j+1)
		alpha1 += 1 / xi
		for i := j + 2; i >= 2; i-- {
			s.l[i] = s.l[i]*xiold + s.l[i-1]
		}
		xiold = xi
	}
	a1 := (-alpha0 - alpha1) / prod
	nvector.Scale(a1, s.savedAcor, s.zn[q+1])
	for j := 2; j <= q; j++ {
		nvector.LinearSum(s.l[j], s.zn[q+1], 1, s.zn[j], s.zn[j])
	}
}

func (s *Solver) decreaseBDF() {
	q := s.q
	s.l = [lmax]float64{}
	s.l[2] = 1
	hsum := 0.0
	for j := 1; j <= q-2; j++ {
		hsum += s.tau[j]
		xi := hsum / s.hscale
		for i := j + 2; i >= 2; i-- {
			s.l[i] = s.l[i]*xi + s.l[i-1]
		}
	}
	for j := 2; j < q; j++ {
		nvector.LinearSum(-s.l[j], s.zn[q], 1, s.zn[j], s.zn[j])
	}
	s.zn[q].Fill(0)
}

// rescale multiplies zn[j] by eta^j and sets h = hscale*eta.
func (s *Solver) rescale() {
	factor := s.eta
	for j := 1; j <= s.q; j++ {
		nvector.Scale(factor, s.zn[j], s.zn[j])
		factor *= s.eta
	}
	s.h = s.hscale * s.eta
	s.hscale = s.h
	s.nscon = 0
}

// prepareNextStep picks hprime and qprime after a successful step with
// error norm dsm.
func (s *Solver) prepareNextStep(dsm float64) {
	if s.etamax == 1 {
		s.qwait = max(s.qwait, 2)
		s.qprime = s.q
		s.hprime = s.h
		s.eta = 1
		return
	}

	s.etaq = 1 / (math.Pow(bias2*dsm, 1/float64(s.q+1)) + addon)

	if s.qwait != 0 {
		s.eta = s.etaq
		s.qprime = s.q
		s.setEta()
		return
	}

	s.qwait = 2
	s.etaqm1 = s.computeEtaqm1()
	s.etaqp1 = s.computeEtaqp1()
	s.chooseEta()
	s.setEta()
}

func (s *Solver) setEta() {
	if s.eta < thresh {
		s.eta = 1
		s.hprime = s.h
		return
	}
	s.eta = math.Min(s.eta, s.etamax)
	s.eta /= math.Max(1, math.Abs(s.h)*s.hmaxInv*s.eta)
	s.hprime = s.h * s.eta
	if s.qprime < s.q {
		s.nscon = 0
	}
}

func (s *Solver) computeEtaqm1() float64 {
	if s.q <= 1 {
		return 0
	}
	ddn := nvector.WrmsNorm(s.zn[s.q], s.ewt) * s.tq[1]
	return 1 / (math.Pow(bias1*ddn, 1/float64(s.q)) + addon)
}

func (s *Solver) computeEtaqp1() float64 {
	if s.q == s.qmax || s.savedTq5 == 0 {
		return 0
	}
	cquot := (s.tq[5] / s.savedTq5) * math.Pow(s.h/s.tau[2], float64(s.q+1))
	nvector.LinearSum(-cquot, s.savedAcor, 1, s.acor, s.tempv)
	dup := nvector.WrmsNorm(s.tempv, s.ewt) * s.tq[3]
	return 1 / (math.Pow(bias3*dup, 1/float64(s.q+2)) + addon)
}

// chooseEta picks the largest of the three candidate ratios, preferring
// to keep the order on ties.
func (s *Solver) chooseEta() {
	etam := math.Max(s.etaqm1, math.Max(s.etaq, s.etaqp1))
	if etam < thresh {
		s.eta = 1
		s.qprime = s.q
		return
	}

	switch etam {
	case s.etaq:
		s.eta = s.etaq
		s.qprime = s.q
	case s.etaqm1:
		s.eta = s.etaqm1
		s.qprime = s.q - 1
	default:
		s.eta = s.etaqp1
		s.qprime = s.q + 1
		if s.lmm == bdf {
			copy(s.savedAcor, s.acor)
		}
	}
}
