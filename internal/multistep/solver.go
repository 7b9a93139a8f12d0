package multistep

import (
	"fmt"
	"math"

	"github.com/san-kum/odesolve/internal/nvector"
)

// Func evaluates dy = f(t, y). It must not modify y. A non-nil error aborts
// the integration with RHSFuncFail.
type Func func(t float64, y, dy []float64) error

// uround is the unit roundoff of float64.
const uround = 2.220446049250313e-16

const (
	lmax     = AdamsMaxOrder + 1
	numTests = 5

	fuzzFactor = 100.0

	etaMx1   = 10000.0 // bound on eta for the first step
	etaMx2   = 10.0    // bound on eta while nst <= smallNst
	etaMx3   = 10.0    // bound on eta afterwards
	etaMxF   = 0.2     // eta bound after smallNef error test failures
	etaMin   = 0.1     // lower bound on eta after an error test failure
	etaCF    = 0.25    // eta after a convergence failure
	addon    = 1e-6
	bias1    = 6.0
	bias2    = 6.0
	bias3    = 10.0
	onePSM   = 1.000001
	thresh   = 1.5
	smallNst = 10
	mxncf    = 10
	mxnef    = 7
	mxnef1   = 3
	smallNef = 2
	longWait = 10
)

type method int

const (
	adams method = iota
	bdf
)

func (m method) String() string {
	if m == bdf {
		return "bdf"
	}
	return "adams"
}

// Outcome is the result of an Advance call.
type Outcome struct {
	Succeeded   bool
	ReachedTime float64
}

// Stats are cumulative counters and the current integrator position.
type Stats struct {
	Steps        int
	RHSEvals     int
	JacRHSEvals  int
	LinSetups    int
	JacEvals     int
	ErrTestFails int
	ConvFails    int
	NonlinIters  int
	LastStep     float64
	CurrentStep  float64
	LastOrder    int
	CurrentOrder int
	CurrentTime  float64
	TolScale     float64
}

// Solver holds the state of one integration run.
//
// Index conventions: l[0..q] is 0-based. tau[1..q+1] (most recent step
// sizes, tau[1] newest) and tq[1..5] (test constants) are 1-based, slot 0 is
// unused. tq[1] scales the error at order q-1, tq[2] is the error test
// divisor at order q, tq[3] scales the error at order q+1, tq[4] is the
// nonlinear convergence divisor and tq[5] relates the current correction to
// the next higher derivative.
type Solver struct {
	f        Func
	name     string
	n        int
	lmm      method
	reporter Reporter

	rtol  float64
	atol  float64
	atolv nvector.Vector

	zn    []nvector.Vector
	ewt   nvector.Vector
	y     nvector.Vector
	acor  nvector.Vector
	tempv nvector.Vector
	ftemp nvector.Vector

	// savedAcor holds the correction of the last step at the current order,
	// used by the order q+1 estimate and by BDF order increases.
	savedAcor nvector.Vector
	savedTq5  float64

	q, qprime, qmax, qwait, qu int

	tn     float64
	h      float64
	hprime float64
	hscale float64
	hu     float64
	hin    float64
	eta    float64
	etamax float64
	etaq   float64
	etaqm1 float64
	etaqp1 float64

	hmin, hmaxInv float64

	rl1, gamma, gammap float64
	gamrat, crate      float64
	acnrm, tolsf       float64

	l   [lmax]float64
	tau [lmax + 1]float64
	tq  [numTests + 1]float64

	nst, nfe, ncfn, netf, nni, nsetups int
	nstlp, nscon                       int
	mxstep                             int

	started bool

	lin *denseSolver
}

// New creates a solver for y' = f(t, y), y(t0) = y0.
func New(f Func, t0 float64, y0 []float64, opts Options) (*Solver, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil derivative function", ErrIllInput)
	}
	n := len(y0)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty initial state", ErrIllInput)
	}
	if err := opts.validate(n); err != nil {
		return nil, err
	}
	if !nvector.Vector(y0).IsValid() || math.IsNaN(t0) || math.IsInf(t0, 0) {
		return nil, fmt.Errorf("%w: initial condition contains NaN or Inf", ErrIllInput)
	}

	s := &Solver{
		f:        f,
		name:     opts.Name,
		n:        n,
		reporter: opts.Reporter,
		rtol:     opts.RelTol,
		atol:     opts.AbsTol,
	}
	if s.reporter == nil {
		s.reporter = nopReporter{}
	}
	if opts.AbsTolVec != nil {
		s.atolv = nvector.Vector(opts.AbsTolVec).Clone()
	}

	s.lmm, s.qmax = adams, AdamsMaxOrder
	if opts.Stiff {
		s.lmm, s.qmax = bdf, BDFMaxOrder
	}
	if opts.MaxOrder > 0 && opts.MaxOrder < s.qmax {
		s.qmax = opts.MaxOrder
	}

	s.zn = make([]nvector.Vector, s.qmax+1)
	for j := range s.zn {
		s.zn[j] = nvector.New(n)
	}
	s.ewt = nvector.New(n)
	s.y = nvector.New(n)
	s.acor = nvector.New(n)
	s.tempv = nvector.New(n)
	s.ftemp = nvector.New(n)
	s.savedAcor = nvector.New(n)

	s.hmin = opts.MinStep
	if opts.MaxStep > 0 {
		s.hmaxInv = 1 / opts.MaxStep
	}
	s.hin = opts.InitStep
	s.SetMaxSteps(opts.MaxSteps)

	if opts.Stiff {
		s.lin = newDenseSolver(n)
	}

	s.reset(t0, y0)
	return s, nil
}

// Reinit restarts the run from (t0, y0), keeping options and allocations.
func (s *Solver) Reinit(t0 float64, y0 []float64) error {
	if len(y0) != s.n {
		return fmt.Errorf("%w: state has %d components, want %d", ErrIllInput, len(y0), s.n)
	}
	if !nvector.Vector(y0).IsValid() {
		return fmt.Errorf("%w: initial condition contains NaN or Inf", ErrIllInput)
	}
	s.reset(t0, y0)
	return nil
}

func (s *Solver) reset(t0 float64, y0 []float64) {
	copy(s.zn[0], y0)
	for j := 1; j < len(s.zn); j++ {
		s.zn[j].Fill(0)
	}
	s.savedAcor.Fill(0)
	s.acor.Fill(0)

	s.tn = t0
	s.q, s.qprime, s.qu = 1, 1, 0
	s.qwait = s.q + 1
	s.etamax = etaMx1
	s.h, s.hprime, s.hscale, s.hu = 0, 0, 0, 0
	s.eta = 1
	s.savedTq5 = 0
	s.tolsf = 1
	s.l = [lmax]float64{}
	s.tau = [lmax + 1]float64{}
	s.tq = [numTests + 1]float64{}

	s.nst, s.nfe, s.ncfn, s.netf, s.nni, s.nsetups = 0, 0, 0, 0, 0, 0
	s.nstlp, s.nscon = 0, 0
	s.started = false

	if s.lin != nil {
		s.lin.reset()
	}
}

// SetMaxSteps sets the internal step budget of each Advance call. n <= 0
// restores DefaultMaxSteps.
func (s *Solver) SetMaxSteps(n int) {
	if n <= 0 {
		n = DefaultMaxSteps
	}
	s.mxstep = n
}

// Dim returns the number of equations.
func (s *Solver) Dim() int { return s.n }

// Stiff reports whether the solver uses BDF with Newton iteration.
func (s *Solver) Stiff() bool { return s.lmm == bdf }

// MaxOrder returns qmax.
func (s *Solver) MaxOrder() int { return s.qmax }

// Time returns the time reached by the last accepted step.
func (s *Solver) Time() float64 { return s.tn }

func (s *Solver) Stats() Stats {
	st := Stats{
		Steps:        s.nst,
		RHSEvals:     s.nfe,
		LinSetups:    s.nsetups,
		ErrTestFails: s.netf,
		ConvFails:    s.ncfn,
		NonlinIters:  s.nni,
		LastStep:     s.hu,
		CurrentStep:  s.hprime,
		LastOrder:    s.qu,
		CurrentOrder: s.qprime,
		CurrentTime:  s.tn,
		TolScale:     s.tolsf,
	}
	if s.lin != nil {
		st.JacEvals = s.lin.nje
		st.JacRHSEvals = s.lin.nfeJ
	}
	return st
}

// Advance integrates toward tout and writes y(tout) into yout. When the
// history already covers tout the result is interpolated without stepping,
// so repeated calls with the same tout are idempotent.
//
// On failure yout receives the state at the last accepted step and
// ReachedTime is that step's time.
func (s *Solver) Advance(tout float64, yout []float64) (Outcome, error) {
	if len(yout) != s.n {
		return s.abort(yout, &fault{kind: IllInput, msg: fmt.Sprintf("yout has %d components, want %d", len(yout), s.n)})
	}
	if math.IsNaN(tout) || math.IsInf(tout, 0) {
		return s.abort(yout, &fault{kind: IllInput, msg: "tout is not finite"})
	}

	if !s.started {
		if f := s.start(tout); f != nil {
			return s.abort(yout, f)
		}
	}

	if s.nst > 0 && (s.tn-tout)*s.h >= 0 {
		if f := s.interpolate(tout, 0, yout); f != nil {
			f.msg = fmt.Sprintf("tout=%g is behind the last step interval", tout)
			return s.abort(yout, f)
		}
		return Outcome{Succeeded: true, ReachedTime: tout}, nil
	}

	for nstloc := 0; ; nstloc++ {
		if s.nst > 0 && !s.setEwt(s.zn[0]) {
			return s.abort(yout, &fault{kind: IllInput, msg: "error weight became non-positive"})
		}
		if nstloc >= s.mxstep {
			return s.abort(yout, &fault{kind: TooMuchWork, msg: fmt.Sprintf("took %d steps before reaching tout=%g", s.mxstep, tout)})
		}
		s.tolsf = uround * nvector.WrmsNorm(s.zn[0], s.ewt)
		if s.tolsf > 1 {
			s.tolsf *= 2
			return s.abort(yout, &fault{kind: TooMuchAcc, msg: fmt.Sprintf("tolerances too small, scale them by at least %g", s.tolsf)})
		}
		s.tolsf = 1
		if s.tn+s.h == s.tn {
			return s.abort(yout, &fault{kind: ZeroStepSize, msg: fmt.Sprintf("h=%g is below roundoff at t=%g", s.h, s.tn)})
		}

		if f := s.step(); f != nil {
			return s.abort(yout, f)
		}
		s.reporter.ReportStatus(s.tn)

		if (s.tn-tout)*s.h >= 0 {
			if f := s.interpolate(tout, 0, yout); f != nil {
				return s.abort(yout, f)
			}
			return Outcome{Succeeded: true, ReachedTime: tout}, nil
		}
	}
}

// start performs the first-call initialization: error weights, f(t0, y0)
// and the initial step size.
func (s *Solver) start(tout float64) *fault {
	if !s.setEwt(s.zn[0]) {
		return &fault{kind: IllInput, msg: "initial error weight has a non-positive component"}
	}
	if f := s.rhs(s.tn, s.zn[0], s.zn[1]); f != nil {
		return f
	}

	h := s.hin
	if h != 0 && (tout-s.tn)*h < 0 {
		return &fault{kind: IllInput, msg: "initial step and tout - t0 have opposite signs"}
	}
	if h == 0 {
		var f *fault
		if h, f = s.initialStep(tout); f != nil {
			return f
		}
	}
	if rh := math.Abs(h) * s.hmaxInv; rh > 1 {
		h /= rh
	}
	if math.Abs(h) < s.hmin {
		h *= s.hmin / math.Abs(h)
	}

	s.h = h
	s.hscale = h
	s.hprime = h
	nvector.Scale(h, s.zn[1], s.zn[1])
	s.started = true
	return nil
}

// EvaluateAt computes the k-th derivative of the interpolating polynomial at
// t, which must lie within the last step (with a small roundoff allowance).
func (s *Solver) EvaluateAt(t float64, k int, out []float64) error {
	if len(out) != s.n {
		return s.errorFor(&fault{kind: IllInput, msg: fmt.Sprintf("out has %d components, want %d", len(out), s.n)})
	}
	if f := s.interpolate(t, k, out); f != nil {
		return s.errorFor(f)
	}
	return nil
}

func (s *Solver) interpolate(t float64, k int, dky nvector.Vector) *fault {
	if k < 0 || k > s.q {
		return &fault{kind: BadK, msg: fmt.Sprintf("k=%d not in [0, %d]", k, s.q)}
	}
	if !s.started {
		if t != s.tn {
			return &fault{kind: BadT, msg: fmt.Sprintf("t=%g, integration has not started at %g", t, s.tn)}
		}
		if k > 0 {
			return &fault{kind: BadK, msg: "derivatives unavailable before the first step"}
		}
		copy(dky, s.zn[0])
		return nil
	}

	tfuzz := fuzzFactor * uround * (math.Abs(s.tn) + math.Abs(s.hu))
	if s.hu < 0 {
		tfuzz = -tfuzz
	}
	tp := s.tn - s.hu - tfuzz
	tn1 := s.tn + tfuzz
	if (t-tp)*(t-tn1) > 0 {
		return &fault{kind: BadT, msg: fmt.Sprintf("t=%g not in [%g, %g]", t, s.tn-s.hu, s.tn)}
	}

	sc := (t - s.tn) / s.h
	for j := s.q; j >= k; j-- {
		c := 1.0
		for i := j; i >= j-k+1; i-- {
			c *= float64(i)
		}
		if j == s.q {
			nvector.Scale(c, s.zn[s.q], dky)
		} else {
			nvector.LinearSum(c, s.zn[j], sc, dky, dky)
		}
	}
	if k > 0 {
		nvector.Scale(math.Pow(s.h, -float64(k)), dky, dky)
	}
	return nil
}

// LocalErrors writes the estimated local error vector of the last accepted
// step into out.
func (s *Solver) LocalErrors(out []float64) error {
	if len(out) != s.n {
		return fmt.Errorf("%w: out has %d components, want %d", ErrIllInput, len(out), s.n)
	}
	copy(out, s.acor)
	return nil
}

// ErrorWeights writes the current error weight vector into out.
func (s *Solver) ErrorWeights(out []float64) error {
	if len(out) != s.n {
		return fmt.Errorf("%w: out has %d components, want %d", ErrIllInput, len(out), s.n)
	}
	copy(out, s.ewt)
	return nil
}

// setEwt sets ewt = 1 / (rtol*|ycur| + atol) and reports whether every
// weight is finite and positive.
func (s *Solver) setEwt(ycur nvector.Vector) bool {
	nvector.Abs(ycur, s.tempv)
	if s.atolv != nil {
		nvector.LinearSum(s.rtol, s.tempv, 1, s.atolv, s.tempv)
	} else {
		nvector.Scale(s.rtol, s.tempv, s.tempv)
		nvector.AddConst(s.tempv, s.atol, s.tempv)
	}
	if !s.tempv.IsValid() || nvector.Min(s.tempv) <= 0 {
		return false
	}
	nvector.Inv(s.tempv, s.ewt)
	return s.ewt.IsValid() && nvector.Min(s.ewt) > 0
}

func (s *Solver) rhs(t float64, y, dy nvector.Vector) *fault {
	s.nfe++
	if err := s.f(t, y, dy); err != nil {
		return &fault{kind: RHSFuncFail, msg: fmt.Sprintf("at t=%g", t), cause: err}
	}
	return nil
}

func (s *Solver) abort(yout []float64, f *fault) (Outcome, error) {
	if len(yout) == s.n {
		copy(yout, s.zn[0])
	}
	err := s.errorFor(f)
	s.reporter.ReportError(err.Kind, ErrorContext{
		Name: err.Name,
		T:    err.T,
		H:    err.H,
		Q:    err.Q,
		Step: err.Step,
		Msg:  err.Msg,
	})
	return Outcome{Succeeded: false, ReachedTime: s.tn}, err
}

func (s *Solver) errorFor(f *fault) *Error {
	return &Error{
		Kind:  f.kind,
		Name:  s.name,
		T:     s.tn,
		H:     s.h,
		Q:     s.q,
		Step:  s.nst,
		Msg:   f.msg,
		Cause: f.cause,
	}
}

// fault is an internal failure before it is decorated with solver context.
type fault struct {
	kind  Kind
	msg   string
	cause error
}
