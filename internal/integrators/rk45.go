package integrators

import "github.com/san-kum/odesolve/internal/multistep"

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is the Dormand-Prince 5(4) pair. It also writes the difference
// between the fifth and fourth order solutions, used for step control.
type RK45 struct {
	k      [7][]float64
	stage  []float64
	errEst []float64
}

func NewRK45() *RK45 {
	return &RK45{}
}

func (r *RK45) Order() int { return 5 }

func (r *RK45) ensureScratch(n int) {
	if len(r.stage) != n {
		for i := range r.k {
			r.k[i] = make([]float64, n)
		}
		r.stage = make([]float64, n)
		r.errEst = make([]float64, n)
	}
}

// Step writes the fifth order solution into out. ErrorEstimate returns the
// local error vector of the last step.
func (r *RK45) Step(f multistep.Func, t float64, y []float64, h float64, out []float64) error {
	n := len(y)
	r.ensureScratch(n)
	k1, k2, k3, k4, k5, k6, k7 := r.k[0], r.k[1], r.k[2], r.k[3], r.k[4], r.k[5], r.k[6]

	if err := f(t, y, k1); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		r.stage[i] = y[i] + h*b21*k1[i]
	}
	if err := f(t+a2*h, r.stage, k2); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		r.stage[i] = y[i] + h*(b31*k1[i]+b32*k2[i])
	}
	if err := f(t+a3*h, r.stage, k3); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		r.stage[i] = y[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	if err := f(t+a4*h, r.stage, k4); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		r.stage[i] = y[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	if err := f(t+a5*h, r.stage, k5); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		r.stage[i] = y[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	if err := f(t+h, r.stage, k6); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		out[i] = y[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}
	if err := f(t+h, out, k7); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		r.errEst[i] = h * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
	}
	return nil
}

func (r *RK45) ErrorEstimate() []float64 { return r.errEst }
