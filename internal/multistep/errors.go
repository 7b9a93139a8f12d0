package multistep

import (
	"errors"
	"fmt"
)

// Kind classifies an integrator failure.
type Kind int

const (
	RHSFuncFail Kind = iota + 1
	ConvFailure
	ErrFailure
	LSetupFail
	LSolveFail
	TooMuchWork
	TooMuchAcc
	ZeroStepSize
	TooClose
	IllInput
	BadT
	BadK
)

var kindNames = map[Kind]string{
	RHSFuncFail:  "RHSFUNC_FAIL",
	ConvFailure:  "CONV_FAILURE",
	ErrFailure:   "ERR_FAILURE",
	LSetupFail:   "LSETUP_FAIL",
	LSolveFail:   "LSOLVE_FAIL",
	TooMuchWork:  "TOO_MUCH_WORK",
	TooMuchAcc:   "TOO_MUCH_ACC",
	ZeroStepSize: "ZERO_STEPSIZE",
	TooClose:     "TOO_CLOSE",
	IllInput:     "ILL_INPUT",
	BadT:         "BAD_T",
	BadK:         "BAD_K",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Recoverable reports whether the caller can continue the run by calling
// Advance again, possibly with a larger step budget.
func (k Kind) Recoverable() bool {
	return k == TooMuchWork
}

// Sentinel errors, one per Kind.
var (
	ErrRHSFunc      = errors.New("multistep: derivative function failed")
	ErrConvergence  = errors.New("multistep: nonlinear solver failed to converge")
	ErrErrorTest    = errors.New("multistep: error test failed repeatedly")
	ErrLinearSetup  = errors.New("multistep: linear solver setup failed")
	ErrLinearSolve  = errors.New("multistep: linear solve failed")
	ErrTooMuchWork  = errors.New("multistep: step budget exhausted before reaching tout")
	ErrTooMuchAcc   = errors.New("multistep: requested accuracy not attainable")
	ErrZeroStepSize = errors.New("multistep: step size underflowed relative to t")
	ErrTooClose     = errors.New("multistep: tout too close to t0 to start integration")
	ErrIllInput     = errors.New("multistep: illegal input")
	ErrBadT         = errors.New("multistep: t outside the last step interval")
	ErrBadK         = errors.New("multistep: derivative order out of range")
)

var kindErrors = map[Kind]error{
	RHSFuncFail:  ErrRHSFunc,
	ConvFailure:  ErrConvergence,
	ErrFailure:   ErrErrorTest,
	LSetupFail:   ErrLinearSetup,
	LSolveFail:   ErrLinearSolve,
	TooMuchWork:  ErrTooMuchWork,
	TooMuchAcc:   ErrTooMuchAcc,
	ZeroStepSize: ErrZeroStepSize,
	TooClose:     ErrTooClose,
	IllInput:     ErrIllInput,
	BadT:         ErrBadT,
	BadK:         ErrBadK,
}

// Sentinel returns the sentinel error for k.
func (k Kind) Sentinel() error {
	if err, ok := kindErrors[k]; ok {
		return err
	}
	return ErrIllInput
}

// Error carries a failure kind with the integrator context at the time of
// failure. errors.Is matches both the kind's sentinel and Cause.
type Error struct {
	Kind  Kind
	Name  string
	T     float64
	H     float64
	Q     int
	Step  int
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	msg := e.Kind.Sentinel().Error()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	prefix := ""
	if e.Name != "" {
		prefix = e.Name + ": "
	}
	s := fmt.Sprintf("%sstep %d (t=%g, h=%g, q=%d): %s", prefix, e.Step, e.T, e.H, e.Q, msg)
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind.Sentinel(), e.Cause}
	}
	return []error{e.Kind.Sentinel()}
}

// KindOf extracts the failure kind from err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
