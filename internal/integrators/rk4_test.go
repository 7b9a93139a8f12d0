package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/odesolve/internal/multistep"
)

func oscillator(t float64, y, dy []float64) error {
	dy[0] = y[1]
	dy[1] = -y[0]
	return nil
}

func TestRK4Accuracy(t *testing.T) {
	integ := NewRK4()

	x := []float64{1.0, 0.0}
	next := make([]float64, 2)
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		if err := integ.Step(oscillator, float64(i)*dt, x, dt, next); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		x, next = next, x
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestEulerFirstOrder(t *testing.T) {
	integ := NewEuler()
	decay := func(t float64, y, dy []float64) error {
		dy[0] = -y[0]
		return nil
	}

	out := make([]float64, 1)
	if err := integ.Step(decay, 0, []float64{1}, 0.1, out); err != nil {
		t.Fatal(err)
	}
	if out[0] != 0.9 {
		t.Errorf("euler step = %v, want 0.9", out[0])
	}
}

func TestFixedLandsOnTout(t *testing.T) {
	d, err := NewFixed(NewRK4(), oscillator, 0, []float64{1, 0}, Options{Step: 0.03})
	if err != nil {
		t.Fatal(err)
	}

	y := make([]float64, 2)
	for _, tout := range []float64{0.1, 0.5, 1.0} {
		out, err := d.Advance(tout, y)
		if err != nil {
			t.Fatalf("advance to %g: %v", tout, err)
		}
		if !out.Succeeded || out.ReachedTime != tout {
			t.Errorf("outcome = %+v, want success at %g", out, tout)
		}
		if d.Time() != tout {
			t.Errorf("time = %v, want %v", d.Time(), tout)
		}
		if math.Abs(y[0]-math.Cos(tout)) > 1e-6 {
			t.Errorf("y0(%g) = %v, want %v", tout, y[0], math.Cos(tout))
		}
	}

	st := d.Stats()
	if st.Steps == 0 || st.RHSEvals != 4*st.Steps {
		t.Errorf("stats = %+v, want 4 evaluations per step", st)
	}
	if st.LastOrder != 4 {
		t.Errorf("order = %d, want 4", st.LastOrder)
	}
}

func TestFixedErrors(t *testing.T) {
	if _, err := NewFixed(NewRK4(), oscillator, 0, []float64{1, 0}, Options{}); !errors.Is(err, multistep.ErrIllInput) {
		t.Errorf("zero step: err = %v, want ErrIllInput", err)
	}

	d, err := NewFixed(NewRK4(), oscillator, 0, []float64{1, 0}, Options{Step: 0.01, MaxSteps: 15})
	if err != nil {
		t.Fatal(err)
	}
	y := make([]float64, 2)

	_, err = d.Advance(1, y)
	if multistep.KindOf(err) != multistep.TooMuchWork {
		t.Fatalf("err = %v, want TooMuchWork", err)
	}
	if math.Abs(d.Time()-0.15) > 1e-12 {
		t.Errorf("stopped at %v, want 0.15", d.Time())
	}
	if _, err := d.Advance(0.25, y); err != nil {
		t.Errorf("continuing after TooMuchWork: %v", err)
	}

	if _, err := d.Advance(0.1, y); multistep.KindOf(err) != multistep.BadT {
		t.Errorf("backward request: err = %v, want BadT", err)
	}
}

func TestFixedDerivativeFailure(t *testing.T) {
	boom := errors.New("boom")
	f := func(t float64, y, dy []float64) error {
		if t > 0.05 {
			return boom
		}
		dy[0] = 1
		return nil
	}

	d, err := NewFixed(NewEuler(), f, 0, []float64{0}, Options{Step: 0.01, Name: "ramp"})
	if err != nil {
		t.Fatal(err)
	}
	y := make([]float64, 1)
	out, err := d.Advance(1, y)
	if out.Succeeded {
		t.Fatal("expected failure")
	}
	if !errors.Is(err, boom) || !errors.Is(err, multistep.ErrRHSFunc) {
		t.Errorf("err = %v, want both the cause and ErrRHSFunc", err)
	}
	if y[0] != d.y[0] {
		t.Errorf("yout = %v, want last accepted state %v", y[0], d.y[0])
	}
}
