package multistep

import "math"

// nlsCoef is the safety factor in the nonlinear convergence test.
const nlsCoef = 0.1

// setCoefficients computes l, tq, rl1 and gamma for the current order and
// step history.
func (s *Solver) setCoefficients() {
	switch s.lmm {
	case adams:
		s.setAdams()
	case bdf:
		s.setBDF()
	}
	s.rl1 = 1 / s.l[1]
	s.gamma = s.h * s.rl1
	if s.nst == 0 {
		s.gammap = s.gamma
	}
	s.gamrat = 1
	if s.nst > 0 {
		s.gamrat = s.gamma / s.gammap
	}
}

// setAdams computes the Adams-Moulton coefficients. l is built from the
// polynomial m(x) = prod_{j=1}^{q-1} (x + xi_j); the test constants come
// from alternating sums of its coefficients.
func (s *Solver) setAdams() {
	q := s.q
	if q == 1 {
		s.l[0], s.l[1] = 1, 1
		s.tq[1], s.tq[5] = 1, 1
		s.tq[2] = 0.5
		s.tq[3] = 1.0 / 12
		s.tq[4] = nlsCoef / s.tq[2]
		return
	}

	var m [lmax]float64
	var mm [3]float64
	hsum := s.adamsStart(&m)
	mm[0] = altSum(q-1, m[:], 1)
	mm[1] = altSum(q-1, m[:], 2)
	s.adamsFinish(&m, &mm, hsum)
}

func (s *Solver) adamsStart(m *[lmax]float64) float64 {
	q := s.q
	hsum := s.h
	m[0] = 1
	for i := 1; i <= q; i++ {
		m[i] = 0
	}
	for j := 1; j < q; j++ {
		if j == q-1 && s.qwait == 1 {
			sum := altSum(q-2, m[:], 2)
			s.tq[1] = float64(q) * sum / m[q-2]
		}
		xiInv := s.h / hsum
		for i := j; i >= 1; i-- {
			m[i] += m[i-1] * xiInv
		}
		hsum += s.tau[j]
	}
	return hsum
}

func (s *Solver) adamsFinish(m *[lmax]float64, mm *[3]float64, hsum float64) {
	q := s.q
	m0Inv := 1 / mm[0]

	s.l[0] = 1
	for i := 1; i <= q; i++ {
		s.l[i] = m0Inv * (m[i-1] / float64(i))
	}
	xi := hsum / s.h
	xiInv := 1 / xi

	s.tq[2] = mm[1] * m0Inv / xi
	s.tq[5] = xi / s.l[q]

	if s.qwait == 1 {
		for i := q; i >= 1; i-- {
			m[i] += m[i-1] * xiInv
		}
		mm[2] = altSum(q, m[:], 2)
		s.tq[3] = mm[2] * m0Inv / float64(q+1)
	}
	s.tq[4] = nlsCoef / s.tq[2]
}

// altSum returns sum_{i=0}^{iend} (-1)^i a[i]/(i+k).
func altSum(iend int, a []float64, k int) float64 {
	if iend < 0 {
		return 0
	}
	sum := 0.0
	sign := 1.0
	for i := 0; i <= iend; i++ {
		sum += sign * (a[i] / float64(i+k))
		sign = -sign
	}
	return sum
}

// setBDF computes the fixed-leading-coefficient BDF coefficients from
// l(x) = (1 + x/xi*_q) * prod_{j=1}^{q-1} (1 + x/xi_j).
func (s *Solver) setBDF() {
	q := s.q
	s.l[0], s.l[1] = 1, 1
	xiInv, xistarInv := 1.0, 1.0
	for i := 2; i <= q; i++ {
		s.l[i] = 0
	}
	alpha0, alpha0Hat := -1.0, -1.0
	hsum := s.h

	if q > 1 {
		for j := 2; j < q; j++ {
			hsum += s.tau[j-1]
			xiInv = s.h / hsum
			alpha0 -= 1 / float64(j)
			for i := j; i >= 1; i-- {
				s.l[i] += s.l[i-1] * xiInv
			}
		}

		alpha0 -= 1 / float64(q)
		xistarInv = -s.l[1] - alpha0
		hsum += s.tau[q-1]
		xiInv = s.h / hsum
		alpha0Hat = -s.l[1] - xiInv
		for i := q; i >= 1; i-- {
			s.l[i] += s.l[i-1] * xistarInv
		}
	}

	s.setTqBDF(hsum, alpha0, alpha0Hat, xiInv, xistarInv)
}

func (s *Solver) setTqBDF(hsum, alpha0, alpha0Hat, xiInv, xistarInv float64) {
	q := s.q
	fq := float64(q)

	a1 := 1 - alpha0Hat + alpha0
	a2 := 1 + fq*a1
	s.tq[2] = math.Abs(a1 / (alpha0 * a2))
	s.tq[5] = math.Abs(a2 * xistarInv / (s.l[q] * xiInv))

	if s.qwait == 1 {
		if q > 1 {
			c := xistarInv / s.l[q]
			a3 := alpha0 + 1/fq
			a4 := alpha0Hat + xiInv
			cpInv := (1 - a4 + a3) / a3
			s.tq[1] = math.Abs(c * cpInv)
		} else {
			s.tq[1] = 1
		}
		hsum += s.tau[q]
		xiInv = s.h / hsum
		a5 := alpha0 - 1/float64(q+1)
		a6 := alpha0Hat - xiInv
		cppInv := (1 - a6 + a5) / a2
		s.tq[3] = math.Abs(cppInv / (xiInv * float64(q+2) * a5))
	}
	s.tq[4] = nlsCoef / s.tq[2]
}
