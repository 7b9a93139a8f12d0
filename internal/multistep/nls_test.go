package multistep

import (
	"math"
	"testing"
)

// The rate estimate must track del/delp once it exceeds crDown*crate. A
// contraction of 0.5 needs three iterations to pass the convergence test;
// decaying crate alone would accept after two.
func TestFunctionalIteration_RateEstimate(t *testing.T) {
	s, err := New(decay, 0, []float64{2}, Options{RelTol: 0, AbsTol: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !s.setEwt(s.zn[0]) {
		t.Fatal("setEwt() failed")
	}
	s.q, s.h = 1, 0.5
	s.zn[1][0] = 0
	s.setCoefficients()

	res, f := s.nlsFunctional()
	if f != nil {
		t.Fatalf("nlsFunctional() fault = %+v", f)
	}
	if res != nlsSolved {
		t.Fatalf("nlsFunctional() = %v, want solved", res)
	}
	if s.nni != 3 {
		t.Errorf("iterations = %d, want 3", s.nni)
	}
	if s.crate != 0.5 {
		t.Errorf("crate = %v, want 0.5", s.crate)
	}
	if math.Abs(s.acor[0]+0.75) > 1e-15 {
		t.Errorf("acor = %v, want -0.75", s.acor[0])
	}
	if math.Abs(s.y[0]-1.25) > 1e-15 {
		t.Errorf("y = %v, want 1.25", s.y[0])
	}
}

func TestFunctionalIteration_Diverges(t *testing.T) {
	// h*lambda = 4: the fixed point iteration amplifies the correction.
	s, err := New(decay, 0, []float64{1}, Options{RelTol: 0, AbsTol: 1e-6})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.setEwt(s.zn[0])
	s.q, s.h = 1, 4
	s.zn[1][0] = 0
	s.setCoefficients()

	res, f := s.nlsFunctional()
	if f != nil {
		t.Fatalf("nlsFunctional() fault = %+v", f)
	}
	if res != nlsConvRecover {
		t.Errorf("nlsFunctional() = %v, want convergence failure", res)
	}
}

func TestNewton_LinearProblemConvergesInOneIteration(t *testing.T) {
	opts := DefaultOptions()
	opts.Stiff = true
	s, err := New(decay, 0, []float64{1}, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.setEwt(s.zn[0])
	s.q, s.h = 1, 0.1
	// Predicted from y = 1 with zn[1] = h*f(1).
	s.zn[0][0] = 0.9
	s.zn[1][0] = -0.1
	s.tn = 0.1
	s.setCoefficients()

	res, f := s.nlsNewton(firstCall)
	if f != nil {
		t.Fatalf("nlsNewton() fault = %+v", f)
	}
	if res != nlsSolved {
		t.Fatalf("nlsNewton() = %v, want solved", res)
	}
	// Backward Euler on y' = -y: y1 = 1/(1+h).
	if want := 1 / 1.1; math.Abs(s.y[0]-want) > 1e-7 {
		t.Errorf("y = %v, want %v", s.y[0], want)
	}
	if s.nsetups != 1 || s.lin.nje != 1 {
		t.Errorf("setups, jacobians = %d, %d, want 1, 1", s.nsetups, s.lin.nje)
	}
}
