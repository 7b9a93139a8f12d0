package multistep

import (
	"errors"
	"math"
	"testing"
)

func oscillator(t float64, y, dy []float64) error {
	dy[0] = y[1]
	dy[1] = -y[0]
	return nil
}

type recordingReporter struct {
	errors   []Kind
	contexts []ErrorContext
	statuses int
	lastT    float64
}

func (r *recordingReporter) ReportError(kind Kind, ctx ErrorContext) {
	r.errors = append(r.errors, kind)
	r.contexts = append(r.contexts, ctx)
}

func (r *recordingReporter) ReportStatus(t float64) {
	r.statuses++
	r.lastT = t
}

func TestNew_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		f    Func
		y0   []float64
		opts Options
	}{
		{"nil func", nil, []float64{1}, DefaultOptions()},
		{"empty state", decay, nil, DefaultOptions()},
		{"negative rtol", decay, []float64{1}, Options{RelTol: -1, AbsTol: 1e-8}},
		{"negative atol", decay, []float64{1}, Options{RelTol: 1e-6, AbsTol: -1}},
		{"atol length", decay, []float64{1, 2}, Options{RelTol: 1e-6, AbsTolVec: []float64{1e-8}}},
		{"NaN state", decay, []float64{math.NaN()}, DefaultOptions()},
		{"step bounds", decay, []float64{1}, Options{RelTol: 1e-6, AbsTol: 1e-8, MinStep: 1, MaxStep: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.f, 0, tt.y0, tt.opts)
			if !errors.Is(err, ErrIllInput) {
				t.Errorf("New() error = %v, want ErrIllInput", err)
			}
		})
	}
}

func TestAdvance_ExponentialDecay(t *testing.T) {
	tests := []struct {
		name  string
		stiff bool
	}{
		{"adams", false},
		{"bdf", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Stiff = tt.stiff
			opts.MaxSteps = 5000
			s, err := New(decay, 0, []float64{1}, opts)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			y := make([]float64, 1)
			out, err := s.Advance(5, y)
			if err != nil {
				t.Fatalf("Advance() error = %v", err)
			}
			if !out.Succeeded || out.ReachedTime != 5 {
				t.Errorf("Advance() = %+v, want success at 5", out)
			}
			if want := math.Exp(-5); math.Abs(y[0]-want) > 1e-5 {
				t.Errorf("y(5) = %v, want %v", y[0], want)
			}
		})
	}
}

func TestAdvance_Idempotent(t *testing.T) {
	s, err := New(oscillator, 0, []float64{1, 0}, DefaultOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	y1 := make([]float64, 2)
	out1, err := s.Advance(1, y1)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	before := s.Stats()

	y2 := make([]float64, 2)
	out2, err := s.Advance(1, y2)
	if err != nil {
		t.Fatalf("second Advance() error = %v", err)
	}
	after := s.Stats()

	if out1 != out2 {
		t.Errorf("outcomes differ: %+v vs %+v", out1, out2)
	}
	if y1[0] != y2[0] || y1[1] != y2[1] {
		t.Errorf("states differ: %v vs %v", y1, y2)
	}
	if before.Steps != after.Steps || before.RHSEvals != after.RHSEvals {
		t.Errorf("re-query did work: steps %d -> %d, evals %d -> %d",
			before.Steps, after.Steps, before.RHSEvals, after.RHSEvals)
	}
}

func TestAdvance_BackwardRequestInsideLastStep(t *testing.T) {
	s, err := New(oscillator, 0, []float64{1, 0}, DefaultOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	y := make([]float64, 2)
	if _, err := s.Advance(1, y); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	st := s.Stats()
	back := st.CurrentTime - st.LastStep/2
	out, err := s.Advance(back, y)
	if err != nil {
		t.Fatalf("Advance(%v) error = %v", back, err)
	}
	if out.ReachedTime != back {
		t.Errorf("ReachedTime = %v, want %v", out.ReachedTime, back)
	}
	if math.Abs(y[0]-math.Cos(back)) > 1e-4 {
		t.Errorf("y(%v) = %v, want %v", back, y[0], math.Cos(back))
	}

	if _, err := s.Advance(0.1, y); KindOf(err) != BadT {
		t.Errorf("Advance(0.1) error = %v, want BadT", err)
	}
}

func TestEvaluateAt(t *testing.T) {
	s, err := New(oscillator, 0, []float64{1, 0}, DefaultOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	y := make([]float64, 2)
	if _, err := s.Advance(2, y); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	st := s.Stats()
	out := make([]float64, 2)
	if err := s.EvaluateAt(st.CurrentTime, 0, out); err != nil {
		t.Fatalf("EvaluateAt(tn, 0) error = %v", err)
	}
	for i := range out {
		if out[i] != s.zn[0][i] {
			t.Errorf("EvaluateAt(tn, 0)[%d] = %v, want %v", i, out[i], s.zn[0][i])
		}
	}

	if err := s.EvaluateAt(2, 1, out); err != nil {
		t.Fatalf("EvaluateAt(2, 1) error = %v", err)
	}
	if math.Abs(out[0]+math.Sin(2)) > 1e-4 || math.Abs(out[1]+math.Cos(2)) > 1e-4 {
		t.Errorf("y'(2) = %v, want [%v %v]", out, -math.Sin(2), -math.Cos(2))
	}

	tests := []struct {
		name string
		t    float64
		k    int
		want Kind
	}{
		{"negative k", st.CurrentTime, -1, BadK},
		{"k above q", st.CurrentTime, st.LastOrder + 1, BadK},
		{"after tn", st.CurrentTime + st.LastStep, 0, BadT},
		{"before window", st.CurrentTime - 2*st.LastStep, 0, BadT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.EvaluateAt(tt.t, tt.k, out)
			if KindOf(err) != tt.want {
				t.Errorf("EvaluateAt() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEvaluateAt_BeforeStart(t *testing.T) {
	s, err := New(decay, 3, []float64{2}, DefaultOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	out := make([]float64, 1)
	if err := s.EvaluateAt(3, 0, out); err != nil || out[0] != 2 {
		t.Errorf("EvaluateAt(t0, 0) = %v, %v, want 2, nil", out[0], err)
	}
	if err := s.EvaluateAt(4, 0, out); KindOf(err) != BadT {
		t.Errorf("EvaluateAt(4, 0) error = %v, want BadT", err)
	}
}

func TestAdvance_TooClose(t *testing.T) {
	r := &recordingReporter{}
	opts := DefaultOptions()
	opts.Name = "decay"
	opts.Reporter = r
	s, err := New(decay, 1, []float64{1}, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	y := make([]float64, 1)
	out, err := s.Advance(1, y)
	if !errors.Is(err, ErrTooClose) {
		t.Fatalf("Advance(t0) error = %v, want ErrTooClose", err)
	}
	if out.Succeeded || out.ReachedTime != 1 || y[0] != 1 {
		t.Errorf("Advance(t0) = %+v, y = %v", out, y)
	}
	if len(r.errors) != 1 || r.errors[0] != TooClose {
		t.Fatalf("reported %v, want [TOO_CLOSE]", r.errors)
	}
	if r.contexts[0].Name != "decay" {
		t.Errorf("context name = %q, want decay", r.contexts[0].Name)
	}
}

func TestAdvance_TooMuchAccuracy(t *testing.T) {
	s, err := New(decay, 0, []float64{1}, Options{RelTol: 0, AbsTol: 1e-300})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	y := make([]float64, 1)
	_, err = s.Advance(1, y)
	if KindOf(err) != TooMuchAcc {
		t.Fatalf("Advance() error = %v, want TooMuchAcc", err)
	}
	if ts := s.Stats().TolScale; ts <= 1 {
		t.Errorf("TolScale = %v, want > 1", ts)
	}
}

func TestAdvance_TooMuchWorkIsRecoverable(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxSteps = 5
	s, err := New(oscillator, 0, []float64{1, 0}, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	y := make([]float64, 2)
	out, err := s.Advance(20, y)
	if KindOf(err) != TooMuchWork || !KindOf(err).Recoverable() {
		t.Fatalf("Advance() error = %v, want recoverable TooMuchWork", err)
	}
	if out.Succeeded || out.ReachedTime != s.Time() || out.ReachedTime >= 20 {
		t.Errorf("Advance() = %+v, solver at %v", out, s.Time())
	}
	if y[0] != s.zn[0][0] || y[1] != s.zn[0][1] {
		t.Errorf("y = %v, want last accepted state %v", y, s.zn[0])
	}
	if s.Stats().Steps != 5 {
		t.Errorf("Steps = %d, want 5", s.Stats().Steps)
	}

	s.SetMaxSteps(100000)
	out, err = s.Advance(20, y)
	if err != nil {
		t.Fatalf("continued Advance() error = %v", err)
	}
	if math.Abs(y[0]-math.Cos(20)) > 1e-3 {
		t.Errorf("y(20) = %v, want %v", y[0], math.Cos(20))
	}
	if out.ReachedTime != 20 {
		t.Errorf("ReachedTime = %v, want 20", out.ReachedTime)
	}
}

func TestAdvance_OrderBounds(t *testing.T) {
	tests := []struct {
		name     string
		stiff    bool
		maxOrder int
		want     int
	}{
		{"adams", false, 0, AdamsMaxOrder},
		{"adams capped", false, 3, 3},
		{"bdf", true, 0, BDFMaxOrder},
		{"bdf capped", true, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Stiff = tt.stiff
			opts.MaxOrder = tt.maxOrder
			opts.RelTol, opts.AbsTol = 1e-7, 1e-9
			opts.MaxSteps = 100000
			s, err := New(oscillator, 0, []float64{1, 0}, opts)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if s.MaxOrder() != tt.want {
				t.Fatalf("MaxOrder() = %d, want %d", s.MaxOrder(), tt.want)
			}

			y := make([]float64, 2)
			w := make([]float64, 2)
			for tout := 0.5; tout <= 10; tout += 0.5 {
				if _, err := s.Advance(tout, y); err != nil {
					t.Fatalf("Advance(%v) error = %v", tout, err)
				}
				st := s.Stats()
				if st.LastOrder < 1 || st.LastOrder > tt.want {
					t.Errorf("order %d outside [1, %d] at t=%v", st.LastOrder, tt.want, tout)
				}
				if err := s.ErrorWeights(w); err != nil {
					t.Fatal(err)
				}
				for i, wi := range w {
					if !(wi > 0) || math.IsInf(wi, 0) {
						t.Errorf("ewt[%d] = %v at t=%v", i, wi, tout)
					}
				}
			}
		})
	}
}

func TestAdvance_AcceptedStepsPassErrorTest(t *testing.T) {
	s, err := New(oscillator, 0, []float64{1, 0}, DefaultOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	y := make([]float64, 2)
	le := make([]float64, 2)
	for tout := 1.0; tout <= 5; tout++ {
		if _, err := s.Advance(tout, y); err != nil {
			t.Fatalf("Advance(%v) error = %v", tout, err)
		}
		if err := s.LocalErrors(le); err != nil {
			t.Fatal(err)
		}
		// acor holds tq[2]*acor of the accepted step.
		if dsm := wrms(le, s.ewt); dsm > 1+1e-12 {
			t.Errorf("dsm = %v at t=%v, want <= 1", dsm, tout)
		}
	}
}

func wrms(x, w []float64) float64 {
	sum := 0.0
	for i := range x {
		sum += x[i] * w[i] * x[i] * w[i]
	}
	return math.Sqrt(sum / float64(len(x)))
}

func TestAdvance_DerivativeFailure(t *testing.T) {
	boom := errors.New("domain error")
	f := func(t float64, y, dy []float64) error {
		if t > 0.5 {
			return boom
		}
		dy[0] = -y[0]
		return nil
	}
	s, err := New(f, 0, []float64{1}, DefaultOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	y := make([]float64, 1)
	out, err := s.Advance(1, y)
	if KindOf(err) != RHSFuncFail {
		t.Fatalf("Advance() error = %v, want RHSFuncFail", err)
	}
	if !errors.Is(err, boom) || !errors.Is(err, ErrRHSFunc) {
		t.Errorf("error %v does not wrap both the cause and ErrRHSFunc", err)
	}
	if out.ReachedTime > 0.5 || out.ReachedTime <= 0 {
		t.Errorf("ReachedTime = %v, want in (0, 0.5]", out.ReachedTime)
	}
	if math.Abs(y[0]-math.Exp(-out.ReachedTime)) > 1e-5 {
		t.Errorf("y = %v, want last accepted state %v", y[0], math.Exp(-out.ReachedTime))
	}
}

func TestReinit(t *testing.T) {
	opts := DefaultOptions()
	opts.Stiff = true
	s, err := New(decay, 0, []float64{1}, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	first := make([]float64, 1)
	if _, err := s.Advance(2, first); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	stats := s.Stats()

	if err := s.Reinit(0, []float64{1}); err != nil {
		t.Fatalf("Reinit() error = %v", err)
	}
	if st := s.Stats(); st.Steps != 0 || st.RHSEvals != 0 || st.JacEvals != 0 {
		t.Errorf("counters not reset: %+v", st)
	}

	second := make([]float64, 1)
	if _, err := s.Advance(2, second); err != nil {
		t.Fatalf("Advance() after Reinit error = %v", err)
	}
	if first[0] != second[0] {
		t.Errorf("y(2) = %v after Reinit, want %v", second[0], first[0])
	}
	if s.Stats() != stats {
		t.Errorf("stats after Reinit = %+v, want %+v", s.Stats(), stats)
	}

	if err := s.Reinit(0, []float64{1, 2}); !errors.Is(err, ErrIllInput) {
		t.Errorf("Reinit(wrong length) error = %v, want ErrIllInput", err)
	}
}

func TestReporter_StatusPerStep(t *testing.T) {
	r := &recordingReporter{}
	opts := DefaultOptions()
	opts.Reporter = r
	s, err := New(oscillator, 0, []float64{1, 0}, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	y := make([]float64, 2)
	if _, err := s.Advance(3, y); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if r.statuses != s.Stats().Steps {
		t.Errorf("status reports = %d, want %d", r.statuses, s.Stats().Steps)
	}
	if r.lastT != s.Time() {
		t.Errorf("last status t = %v, want %v", r.lastT, s.Time())
	}
	if len(r.errors) != 0 {
		t.Errorf("unexpected error reports %v", r.errors)
	}
}

func TestAdvance_VectorTolerances(t *testing.T) {
	opts := DefaultOptions()
	opts.AbsTolVec = []float64{1e-10, 1e-6}
	s, err := New(oscillator, 0, []float64{1, 0}, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	y := make([]float64, 2)
	if _, err := s.Advance(1, y); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if !s.setEwt(s.zn[0]) {
		t.Fatal("setEwt() failed")
	}
	w := make([]float64, 2)
	s.ErrorWeights(w)
	if want := 1 / (1e-6*math.Abs(s.zn[0][0]) + 1e-10); math.Abs(w[0]-want)/want > 1e-12 {
		t.Errorf("ewt[0] = %v, want %v", w[0], want)
	}
}

// switchable runs healthy until broken is set, then replaces the derivative.
type switchable struct {
	healthy Func
	broken  Func
	failing bool
}

func (w *switchable) f(t float64, y, dy []float64) error {
	if w.failing {
		return w.broken(t, y, dy)
	}
	return w.healthy(t, y, dy)
}

func nanDerivative(t float64, y, dy []float64) error {
	for i := range dy {
		dy[i] = math.NaN()
	}
	return nil
}

// assertLastAccepted checks that a failed Advance left the history at the
// step accepted before the failure.
func assertLastAccepted(t *testing.T, s *Solver, out Outcome, y []float64, tn float64, zn0 []float64) {
	t.Helper()
	if out.Succeeded {
		t.Fatal("Advance() succeeded")
	}
	if s.tn != tn || out.ReachedTime != tn {
		t.Errorf("tn = %v, ReachedTime = %v, want %v", s.tn, out.ReachedTime, tn)
	}
	for i := range zn0 {
		if math.Abs(s.zn[0][i]-zn0[i]) > 1e-12*(1+math.Abs(zn0[i])) {
			t.Errorf("zn[0][%d] = %v, want %v", i, s.zn[0][i], zn0[i])
		}
		if y[i] != s.zn[0][i] {
			t.Errorf("y[%d] = %v, want zn[0][%d] = %v", i, y[i], i, s.zn[0][i])
		}
	}
}

func TestAdvance_ConvFailureKeepsLastStep(t *testing.T) {
	for _, stiff := range []bool{false, true} {
		name := "adams"
		if stiff {
			name = "bdf"
		}
		t.Run(name, func(t *testing.T) {
			w := &switchable{healthy: oscillator, broken: nanDerivative}
			opts := DefaultOptions()
			opts.Stiff = stiff
			s, err := New(w.f, 0, []float64{1, 0}, opts)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			y := make([]float64, 2)
			if _, err := s.Advance(1, y); err != nil {
				t.Fatalf("Advance(1) error = %v", err)
			}
			tn := s.tn
			zn0 := append([]float64(nil), s.zn[0]...)
			steps := s.Stats().Steps
			fails := s.Stats().ConvFails

			w.failing = true
			out, err := s.Advance(5, y)
			if KindOf(err) != ConvFailure || !errors.Is(err, ErrConvergence) {
				t.Fatalf("Advance() error = %v, want ConvFailure", err)
			}
			if KindOf(err).Recoverable() {
				t.Error("ConvFailure reported as recoverable")
			}
			assertLastAccepted(t, s, out, y, tn, zn0)

			st := s.Stats()
			if st.Steps != steps {
				t.Errorf("Steps = %d, want %d", st.Steps, steps)
			}
			if got := st.ConvFails - fails; got != mxncf {
				t.Errorf("convergence failures = %d, want %d", got, mxncf)
			}
		})
	}
}

func TestAdvance_ErrFailureKeepsLastStep(t *testing.T) {
	// A constant derivative lets the corrector converge at once, while the
	// jump against the stored history fails every error test.
	jump := func(t float64, y, dy []float64) error {
		dy[0], dy[1] = 1e8, 0
		return nil
	}
	w := &switchable{healthy: oscillator, broken: jump}
	opts := DefaultOptions()
	opts.RelTol, opts.AbsTol = 1e-10, 1e-12
	s, err := New(w.f, 0, []float64{1, 0}, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	y := make([]float64, 2)
	if _, err := s.Advance(10, y); err != nil {
		t.Fatalf("Advance(10) error = %v", err)
	}
	// Order reductions must not reach q = 1, where a fresh derivative
	// would repair the history.
	if q := min(s.q, s.qprime); q < mxnef-mxnef1 {
		t.Fatalf("order %d at the switch, want >= %d", q, mxnef-mxnef1)
	}
	tn := s.tn
	zn0 := append([]float64(nil), s.zn[0]...)
	netf := s.Stats().ErrTestFails

	w.failing = true
	out, err := s.Advance(20, y)
	if KindOf(err) != ErrFailure || !errors.Is(err, ErrErrorTest) {
		t.Fatalf("Advance() error = %v, want ErrFailure", err)
	}
	assertLastAccepted(t, s, out, y, tn, zn0)
	if got := s.Stats().ErrTestFails - netf; got != mxnef {
		t.Errorf("error test failures = %d, want %d", got, mxnef)
	}
}

func TestAdvance_ZeroStepSize(t *testing.T) {
	opts := DefaultOptions()
	opts.InitStep = 1
	s, err := New(decay, 1e20, []float64{1}, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	y := make([]float64, 1)
	out, err := s.Advance(1e21, y)
	if KindOf(err) != ZeroStepSize || !errors.Is(err, ErrZeroStepSize) {
		t.Fatalf("Advance() error = %v, want ZeroStepSize", err)
	}
	if out.Succeeded || out.ReachedTime != 1e20 || y[0] != 1 {
		t.Errorf("Advance() = %+v, y = %v, want the initial state at 1e20", out, y)
	}
	if s.Stats().Steps != 0 {
		t.Errorf("Steps = %d, want 0", s.Stats().Steps)
	}
}

// sqrt(y0) goes NaN when a trial iterate overshoots zero near t = 2.
func TestAdvance_NonFiniteIterateRecovers(t *testing.T) {
	f := func(t float64, y, dy []float64) error {
		dy[0] = -math.Sqrt(y[0])
		dy[1] = -1000 * (y[1] - math.Cos(t))
		return nil
	}
	for _, rtol := range []float64{1e-3, 1e-4} {
		opts := DefaultOptions()
		opts.Stiff = true
		opts.RelTol = rtol
		s, err := New(f, 0, []float64{1, 1}, opts)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		y := make([]float64, 2)
		out, err := s.Advance(1.99, y)
		if err != nil {
			t.Fatalf("rtol %g: Advance() error = %v at t=%v", rtol, err, out.ReachedTime)
		}
		if want := math.Pow(1-1.99/2, 2); math.Abs(y[0]-want) > 1e-3 {
			t.Errorf("rtol %g: y0(1.99) = %v, want about %v", rtol, y[0], want)
		}
	}
}
