package multistep_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/odesolve/internal/multistep"
)

func robertson(t float64, y, dy []float64) error {
	dy[0] = -0.04*y[0] + 1e4*y[1]*y[2]
	dy[2] = 3e7 * y[1] * y[1]
	dy[1] = -dy[0] - dy[2]
	return nil
}

func vanDerPol(mu float64) multistep.Func {
	return func(t float64, y, dy []float64) error {
		dy[0] = y[1]
		dy[1] = mu*(1-y[0]*y[0])*y[1] - y[0]
		return nil
	}
}

var _ = Describe("Stiff integration", func() {
	var (
		s   *multistep.Solver
		err error
	)

	BeforeEach(func() {
		s, err = multistep.New(robertson, 0, []float64{1, 0, 0}, multistep.Options{
			Stiff:     true,
			RelTol:    1e-4,
			AbsTolVec: []float64{1e-8, 1e-14, 1e-6},
			Name:      "robertson",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("reaches t = 4e5 within the default budget per output", func() {
		y := make([]float64, 3)
		for _, tout := range []float64{0.4, 4, 40, 400, 4e3, 4e4, 4e5} {
			out, err := s.Advance(tout, y)
			Expect(err).NotTo(HaveOccurred(), "tout=%g", tout)
			Expect(out.Succeeded).To(BeTrue())
			Expect(out.ReachedTime).To(Equal(tout))
			Expect(y[0] + y[1] + y[2]).To(BeNumerically("~", 1, 1e-4))
		}

		st := s.Stats()
		Expect(st.ConvFails).To(BeNumerically("<", st.Steps/2))
		Expect(st.JacEvals).To(BeNumerically(">", 0))
		Expect(st.JacEvals).To(BeNumerically("<", st.Steps))
		Expect(st.LastOrder).To(BeNumerically("<=", multistep.BDFMaxOrder))
	})

	It("matches the reference concentrations", func() {
		y := make([]float64, 3)
		_, err := s.Advance(40, y)
		Expect(err).NotTo(HaveOccurred())
		Expect(y[0]).To(BeNumerically("~", 0.7158, 2e-3))
		Expect(y[2]).To(BeNumerically("~", 0.2842, 2e-3))
	})

	It("takes far fewer steps than the non-stiff method", func() {
		y := make([]float64, 3)
		_, err := s.Advance(1, y)
		Expect(err).NotTo(HaveOccurred())

		adams, err := multistep.New(robertson, 0, []float64{1, 0, 0}, multistep.Options{
			RelTol:    1e-4,
			AbsTolVec: []float64{1e-8, 1e-14, 1e-6},
			MaxSteps:  100000,
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = adams.Advance(1, y)
		Expect(err).NotTo(HaveOccurred())

		Expect(adams.Stats().Steps).To(BeNumerically(">", 5*s.Stats().Steps))
	})
})

var _ = Describe("Van der Pol oscillator", func() {
	solve := func(stiff bool, mu, tend float64) ([]float64, multistep.Stats) {
		s, err := multistep.New(vanDerPol(mu), 0, []float64{2, 0}, multistep.Options{
			Stiff:    stiff,
			RelTol:   1e-8,
			AbsTol:   1e-10,
			MaxSteps: 200000,
		})
		Expect(err).NotTo(HaveOccurred())
		y := make([]float64, 2)
		_, err = s.Advance(tend, y)
		Expect(err).NotTo(HaveOccurred())
		return y, s.Stats()
	}

	It("agrees between Adams and BDF", func() {
		ya, _ := solve(false, 1, 10)
		yb, _ := solve(true, 1, 10)
		Expect(ya[0]).To(BeNumerically("~", yb[0], 1e-4))
		Expect(ya[1]).To(BeNumerically("~", yb[1], 1e-4))
	})

	It("changes order on a smooth problem", func() {
		_, st := solve(false, 1, 10)
		Expect(st.LastOrder).To(BeNumerically(">", 1))
		Expect(st.Steps).To(BeNumerically(">", 0))
	})
})

var _ = Describe("Dense output", func() {
	It("interpolates the harmonic oscillator inside each step", func() {
		s, err := multistep.New(func(t float64, y, dy []float64) error {
			dy[0] = y[1]
			dy[1] = -y[0]
			return nil
		}, 0, []float64{1, 0}, multistep.Options{RelTol: 1e-8, AbsTol: 1e-10, MaxSteps: 10000})
		Expect(err).NotTo(HaveOccurred())

		y := make([]float64, 2)
		out := make([]float64, 2)
		_, err = s.Advance(math.Pi, y)
		Expect(err).NotTo(HaveOccurred())

		st := s.Stats()
		for _, frac := range []float64{0, 0.25, 0.5, 0.75, 1} {
			t := st.CurrentTime - frac*st.LastStep
			Expect(s.EvaluateAt(t, 0, out)).To(Succeed())
			Expect(out[0]).To(BeNumerically("~", math.Cos(t), 1e-6))
			Expect(out[1]).To(BeNumerically("~", -math.Sin(t), 1e-6))
		}
	})
})
