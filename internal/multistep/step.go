package multistep

import (
	"fmt"
	"math"

	"github.com/san-kum/odesolve/internal/nvector"
)

// nlsFlag tells the corrector what happened on the previous attempt of the
// current step.
type nlsFlag int

const (
	firstCall nlsFlag = iota
	prevConvFail
	prevErrFail
)

// step takes one internal step: predict, correct, test, and either accept
// or restore zn and retry with a smaller step or lower order.
func (s *Solver) step() *fault {
	savedT := s.tn
	ncf, nef := 0, 0
	nflag := firstCall

	if s.nst > 0 && s.hprime != s.h {
		s.adjustParams()
	}

	var dsm float64
	for {
		s.predict()
		s.setCoefficients()

		res, f := s.nls(nflag)
		retry, f := s.handleNFlag(&nflag, res, f, savedT, &ncf)
		if f != nil {
			return f
		}
		if retry {
			continue
		}

		var passed bool
		dsm, passed, f = s.doErrorTest(&nflag, savedT, &nef)
		if f != nil {
			return f
		}
		if passed {
			break
		}
	}

	s.completeStep()
	s.prepareNextStep(dsm)

	if s.nst <= smallNst {
		s.etamax = etaMx2
	} else {
		s.etamax = etaMx3
	}

	// acor becomes the estimated local error vector.
	nvector.Scale(s.tq[2], s.acor, s.acor)
	return nil
}

// predict advances tn and applies the Pascal triangle to zn.
func (s *Solver) predict() {
	s.tn += s.h
	for k := 1; k <= s.q; k++ {
		for j := s.q; j >= k; j-- {
			nvector.LinearSum(1, s.zn[j-1], 1, s.zn[j], s.zn[j-1])
		}
	}
}

// restore undoes predict.
func (s *Solver) restore(savedT float64) {
	s.tn = savedT
	for k := 1; k <= s.q; k++ {
		for j := s.q; j >= k; j-- {
			nvector.LinearSum(1, s.zn[j-1], -1, s.zn[j], s.zn[j-1])
		}
	}
}

// handleNFlag processes the corrector result. It reports retry=true when the
// step should be predicted again with a reduced h.
func (s *Solver) handleNFlag(nflag *nlsFlag, res nlsResult, f *fault, savedT float64, ncf *int) (bool, *fault) {
	if f == nil && res == nlsSolved {
		return false, nil
	}

	s.ncfn++
	s.restore(savedT)
	if f != nil {
		return false, f
	}

	*ncf++
	s.etamax = 1
	if math.Abs(s.h) <= s.hmin*onePSM || *ncf == mxncf {
		return false, &fault{kind: ConvFailure, msg: fmt.Sprintf("corrector failed to converge %d times", *ncf)}
	}

	s.eta = math.Max(etaCF, s.hmin/math.Abs(s.h))
	*nflag = prevConvFail
	s.rescale()
	return true, nil
}

// doErrorTest runs the local error test. On failure it restores zn and
// prepares the retry: smaller h for the first mxnef1 failures, then an order
// decrease, or at order 1 a restart from a fresh derivative.
func (s *Solver) doErrorTest(nflag *nlsFlag, savedT float64, nef *int) (float64, bool, *fault) {
	dsm := s.acnrm * s.tq[2]
	if dsm <= 1 {
		return dsm, true, nil
	}

	*nef++
	s.netf++
	*nflag = prevErrFail
	s.restore(savedT)

	if math.Abs(s.h) <= s.hmin*onePSM || *nef == mxnef {
		return dsm, false, &fault{kind: ErrFailure, msg: fmt.Sprintf("error test failed %d times", *nef)}
	}

	s.etamax = 1

	if *nef <= mxnef1 {
		s.eta = 1 / (math.Pow(bias2*dsm, 1/float64(s.q+1)) + addon)
		s.eta = math.Max(etaMin, math.Max(s.eta, s.hmin/math.Abs(s.h)))
		if *nef >= smallNef {
			s.eta = math.Min(s.eta, etaMxF)
		}
		s.rescale()
		return dsm, false, nil
	}

	if s.q > 1 {
		s.eta = math.Max(etaMin, s.hmin/math.Abs(s.h))
		s.adjustOrder(-1)
		s.q--
		s.qwait = s.q + 1
		s.rescale()
		return dsm, false, nil
	}

	s.eta = math.Max(etaMin, s.hmin/math.Abs(s.h))
	s.h *= s.eta
	s.hscale = s.h
	s.qwait = longWait
	s.nscon = 0
	if f := s.rhs(s.tn, s.zn[0], s.tempv); f != nil {
		return dsm, false, f
	}
	nvector.Scale(s.h, s.tempv, s.zn[1])
	return dsm, false, nil
}

// completeStep applies the accepted correction to the history and shifts
// the step size history.
func (s *Solver) completeStep() {
	s.nst++
	s.nscon++
	s.hu = s.h
	s.qu = s.q

	for i := s.q; i >= 2; i-- {
		s.tau[i] = s.tau[i-1]
	}
	if s.q == 1 && s.nst > 1 {
		s.tau[2] = s.tau[1]
	}
	s.tau[1] = s.h

	for j := 0; j <= s.q; j++ {
		nvector.LinearSum(s.l[j], s.acor, 1, s.zn[j], s.zn[j])
	}

	s.qwait--
	if s.qwait == 1 && s.q != s.qmax {
		copy(s.savedAcor, s.acor)
		s.savedTq5 = s.tq[5]
	}
}
