package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/odesolve/internal/multistep"
)

// Options configures the one-step drivers.
type Options struct {
	// Step is the fixed step for Fixed and the initial step for Adaptive.
	// Adaptive estimates a first step when it is zero.
	Step float64

	// RelTol and AbsTol control Adaptive's local error test.
	RelTol float64
	AbsTol float64

	// MaxSteps bounds the steps taken by one Advance call. Zero means
	// multistep.DefaultMaxSteps.
	MaxSteps int

	Name     string
	Reporter multistep.Reporter
}

type nopReporter struct{}

func (nopReporter) ReportError(multistep.Kind, multistep.ErrorContext) {}
func (nopReporter) ReportStatus(float64)                               {}

// driver holds the state shared by Fixed and Adaptive.
type driver struct {
	rhs      multistep.Func
	name     string
	order    int
	reporter multistep.Reporter
	maxSteps int

	t    float64
	y    []float64
	next []float64

	nst, nfe, netf int
	hu, h          float64
}

func newDriver(f multistep.Func, t0 float64, y0 []float64, opts Options, order int) (driver, error) {
	if f == nil {
		return driver{}, fmt.Errorf("%w: nil derivative function", multistep.ErrIllInput)
	}
	if len(y0) == 0 {
		return driver{}, fmt.Errorf("%w: empty initial state", multistep.ErrIllInput)
	}
	if opts.MaxSteps < 0 {
		return driver{}, fmt.Errorf("%w: max steps must be >= 0, got %d", multistep.ErrIllInput, opts.MaxSteps)
	}
	d := driver{
		rhs:      f,
		name:     opts.Name,
		order:    order,
		reporter: opts.Reporter,
		maxSteps: opts.MaxSteps,
		t:        t0,
		y:        append([]float64(nil), y0...),
		next:     make([]float64, len(y0)),
		h:        opts.Step,
	}
	if d.reporter == nil {
		d.reporter = nopReporter{}
	}
	if d.maxSteps == 0 {
		d.maxSteps = multistep.DefaultMaxSteps
	}
	return d, nil
}

// f evaluates the derivative and counts the call.
func (d *driver) f(t float64, y, dy []float64) error {
	d.nfe++
	return d.rhs(t, y, dy)
}

func (d *driver) Time() float64 { return d.t }

func (d *driver) Dim() int { return len(d.y) }

func (d *driver) Stats() multistep.Stats {
	return multistep.Stats{
		Steps:        d.nst,
		RHSEvals:     d.nfe,
		ErrTestFails: d.netf,
		LastStep:     d.hu,
		CurrentStep:  d.h,
		LastOrder:    d.order,
		CurrentOrder: d.order,
		CurrentTime:  d.t,
		TolScale:     1,
	}
}

func (d *driver) checkRequest(tout float64, yout []float64) error {
	if len(yout) != len(d.y) {
		return d.fail(multistep.IllInput, fmt.Sprintf("yout has %d components, want %d", len(yout), len(d.y)), nil)
	}
	if math.IsNaN(tout) || math.IsInf(tout, 0) {
		return d.fail(multistep.IllInput, "tout is not finite", nil)
	}
	return nil
}

// accept commits next as the new state after a step of size h.
func (d *driver) accept(h float64, last bool, tout float64) {
	d.y, d.next = d.next, d.y
	if last {
		d.t = tout
	} else {
		d.t += h
	}
	d.hu = h
	d.nst++
	d.reporter.ReportStatus(d.t)
}

func (d *driver) fail(kind multistep.Kind, msg string, cause error) *multistep.Error {
	err := &multistep.Error{
		Kind:  kind,
		Name:  d.name,
		T:     d.t,
		H:     d.h,
		Q:     d.order,
		Step:  d.nst,
		Msg:   msg,
		Cause: cause,
	}
	d.reporter.ReportError(kind, multistep.ErrorContext{
		Name: d.name,
		T:    d.t,
		H:    d.h,
		Q:    d.order,
		Step: d.nst,
		Msg:  msg,
	})
	return err
}

func (d *driver) abort(yout []float64, err error) (multistep.Outcome, error) {
	if len(yout) == len(d.y) {
		copy(yout, d.y)
	}
	return multistep.Outcome{Succeeded: false, ReachedTime: d.t}, err
}
