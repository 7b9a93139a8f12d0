package multistep

import (
	"math"

	"github.com/san-kum/odesolve/internal/nvector"
)

const (
	maxCor = 3   // corrector iterations per attempt
	crDown = 0.3 // decay applied to the previous rate estimate
	rDiv   = 2.0 // divergence threshold del/delp
	msbp   = 20  // max steps between linear solver setups
	dgMax  = 0.3 // max |gamma/gammap - 1| before a setup is forced
)

type nlsResult int

const (
	nlsSolved nlsResult = iota
	// nlsConvRecover asks the step executor to retry with a smaller h.
	nlsConvRecover
	// nlsTryAgain asks the Newton driver to refresh the Jacobian and retry.
	nlsTryAgain
)

type convFail int

const (
	convFailNone convFail = iota
	convFailBadJ
	convFailOther
)

// nls solves the corrector equation for the current step.
func (s *Solver) nls(nflag nlsFlag) (nlsResult, *fault) {
	if s.lmm == bdf {
		return s.nlsNewton(nflag)
	}
	return s.nlsFunctional()
}

// nlsFunctional iterates y = zn[0] + (h f(y) - zn[1]) / l1 from the
// predicted value. acor tracks the accumulated correction.
func (s *Solver) nlsFunctional() (nlsResult, *fault) {
	s.crate = 1
	if f := s.rhs(s.tn, s.zn[0], s.tempv); f != nil {
		return nlsSolved, f
	}
	s.acor.Fill(0)

	var delp float64
	for m := 0; ; {
		s.nni++
		nvector.LinearSum(s.h, s.tempv, -1, s.zn[1], s.tempv)
		nvector.Scale(s.rl1, s.tempv, s.tempv)
		nvector.LinearSum(1, s.zn[0], 1, s.tempv, s.y)

		nvector.LinearSum(1, s.tempv, -1, s.acor, s.acor)
		del := nvector.WrmsNorm(s.acor, s.ewt)
		copy(s.acor, s.tempv)

		if m > 0 {
			s.crate = math.Max(crDown*s.crate, del/delp)
		}
		dcon := del * math.Min(1, s.crate) / s.tq[4]
		if dcon <= 1 {
			if m == 0 {
				s.acnrm = del
			} else {
				s.acnrm = nvector.WrmsNorm(s.acor, s.ewt)
			}
			return nlsSolved, nil
		}

		m++
		if m == maxCor || (m >= 2 && del > rDiv*delp) {
			return nlsConvRecover, nil
		}
		delp = del
		if f := s.rhs(s.tn, s.y, s.tempv); f != nil {
			return nlsSolved, f
		}
	}
}

// nlsNewton drives the modified Newton iteration, refreshing the iteration
// matrix when it may be stale.
func (s *Solver) nlsNewton(nflag nlsFlag) (nlsResult, *fault) {
	cf := convFailOther
	if nflag == firstCall || nflag == prevErrFail {
		cf = convFailNone
	}
	callSetup := nflag == prevConvFail || nflag == prevErrFail ||
		s.nst == 0 || s.nst >= s.nstlp+msbp || math.Abs(s.gamrat-1) > dgMax

	for {
		if f := s.rhs(s.tn, s.zn[0], s.ftemp); f != nil {
			return nlsSolved, f
		}

		if callSetup {
			singular, f := s.lin.setup(s, cf, s.zn[0], s.ftemp)
			s.nsetups++
			callSetup = false
			s.gamrat, s.crate = 1, 1
			s.gammap = s.gamma
			s.nstlp = s.nst
			if f != nil {
				return nlsSolved, f
			}
			if singular {
				return nlsConvRecover, nil
			}
		}

		s.acor.Fill(0)
		copy(s.y, s.zn[0])

		res, f := s.newtonIteration()
		if f != nil || res != nlsTryAgain {
			return res, f
		}
		callSetup = true
		cf = convFailBadJ
	}
}

func (s *Solver) newtonIteration() (nlsResult, *fault) {
	var delp float64
	for m := 0; ; {
		// Residual gamma*f(y) - (rl1*zn[1] + acor).
		nvector.LinearSum(s.rl1, s.zn[1], 1, s.acor, s.tempv)
		nvector.LinearSum(s.gamma, s.ftemp, -1, s.tempv, s.tempv)

		finite, f := s.lin.solve(s, s.tempv)
		s.nni++
		if f != nil {
			return nlsSolved, f
		}
		if !finite {
			if !s.lin.jcur {
				return nlsTryAgain, nil
			}
			return nlsConvRecover, nil
		}

		del := nvector.WrmsNorm(s.tempv, s.ewt)
		nvector.LinearSum(1, s.acor, 1, s.tempv, s.acor)
		nvector.LinearSum(1, s.zn[0], 1, s.acor, s.y)

		if m > 0 {
			s.crate = math.Max(crDown*s.crate, del/delp)
		}
		dcon := del * math.Min(1, s.crate) / s.tq[4]
		if dcon <= 1 {
			if m == 0 {
				s.acnrm = del
			} else {
				s.acnrm = nvector.WrmsNorm(s.acor, s.ewt)
			}
			s.lin.jcur = false
			return nlsSolved, nil
		}

		m++
		if m == maxCor || (m >= 2 && del > rDiv*delp) {
			if !s.lin.jcur {
				return nlsTryAgain, nil
			}
			return nlsConvRecover, nil
		}

		delp = del
		if f := s.rhs(s.tn, s.y, s.ftemp); f != nil {
			return nlsSolved, f
		}
	}
}
