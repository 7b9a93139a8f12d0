package multistep

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odesolve/internal/nvector"
)

const (
	msbj       = 50 // max steps between Jacobian evaluations
	minIncMult = 1000.0
)

// denseSolver owns the Newton iteration matrix M = I - gamma*J, its LU
// factors, and a saved copy of the finite-difference Jacobian J.
type denseSolver struct {
	n      int
	m      *mat.Dense
	savedJ *mat.Dense
	pivots []int

	nstlj    int
	jcur     bool
	factored bool
	nje      int
	nfeJ     int

	ytmp nvector.Vector
	ftmp nvector.Vector
	col  nvector.Vector
}

func newDenseSolver(n int) *denseSolver {
	return &denseSolver{
		n:      n,
		m:      mat.NewDense(n, n, nil),
		savedJ: mat.NewDense(n, n, nil),
		pivots: make([]int, n),
		ytmp:   nvector.New(n),
		ftmp:   nvector.New(n),
		col:    nvector.New(n),
	}
}

func (d *denseSolver) reset() {
	d.nstlj = 0
	d.jcur = false
	d.factored = false
	d.nje = 0
	d.nfeJ = 0
	d.savedJ.Zero()
}

// setup rebuilds and factors M. The Jacobian is re-evaluated when it is
// old, when the last Newton failure happened with a nearly unchanged gamma,
// or after any other failure. It reports singular=true when the factored
// matrix is singular, which the caller treats as a convergence failure.
func (d *denseSolver) setup(s *Solver, cf convFail, ypred, fpred nvector.Vector) (bool, *fault) {
	dgamma := math.Abs(s.gamma/s.gammap - 1)
	jbad := s.nst == 0 || s.nst > d.nstlj+msbj ||
		(cf == convFailBadJ && dgamma < dgMax) || cf == convFailOther

	if jbad {
		d.nje++
		d.nstlj = s.nst
		d.jcur = true
		if f := d.jacobian(s, ypred, fpred); f != nil {
			return false, f
		}
	} else {
		d.jcur = false
	}

	d.m.Scale(-s.gamma, d.savedJ)
	for i := 0; i < d.n; i++ {
		d.m.Set(i, i, d.m.At(i, i)+1)
	}
	d.factored = lapack64.Getrf(d.m.RawMatrix(), d.pivots)
	return !d.factored, nil
}

// jacobian fills savedJ by forward differences, one column per derivative
// evaluation.
func (d *denseSolver) jacobian(s *Solver, y, fy nvector.Vector) *fault {
	fnorm := nvector.WrmsNorm(fy, s.ewt)
	minInc := 1.0
	if fnorm != 0 {
		minInc = minIncMult * math.Abs(s.h) * uround * float64(d.n) * fnorm
	}
	srur := math.Sqrt(uround)

	copy(d.ytmp, y)
	for j := 0; j < d.n; j++ {
		yj := d.ytmp[j]
		inc := math.Max(srur*math.Abs(yj), minInc/s.ewt[j])
		d.ytmp[j] += inc
		d.nfeJ++
		if err := s.f(s.tn, d.ytmp, d.ftmp); err != nil {
			return &fault{kind: LSetupFail, msg: fmt.Sprintf("jacobian column %d", j), cause: err}
		}
		d.ytmp[j] = yj
		nvector.LinearSum(1/inc, d.ftmp, -1/inc, fy, d.col)
		d.savedJ.SetCol(j, d.col)
	}
	return nil
}

// solve overwrites b with the solution of M x = b. It reports false when
// the solution is not finite, which comes from a bad iterate rather than
// from the factors.
func (d *denseSolver) solve(s *Solver, b nvector.Vector) (bool, *fault) {
	if !d.factored {
		return false, &fault{kind: LSolveFail, msg: "iteration matrix is not factored"}
	}
	rhs := blas64.General{Rows: d.n, Cols: 1, Stride: 1, Data: b}
	lapack64.Getrs(blas.NoTrans, d.m.RawMatrix(), rhs, d.pivots)

	if s.gamrat != 1 {
		nvector.Scale(2/(1+s.gamrat), b, b)
	}
	return b.IsValid(), nil
}
