// Package problems provides the catalogue of initial value problems the
// solver is exercised on.
//
// Each problem implements [Problem], defining the right-hand side of
// y' = f(t, y) and a default initial state:
//
//   - [Decay]: linear decay, with a closed-form solution
//   - [Oscillator]: harmonic oscillator, with a closed-form solution
//   - [VanDerPol]: limit cycle, stiff for large mu
//   - [Robertson]: three-species chemical kinetics, very stiff
//   - [Lorenz], [Rossler]: chaotic attractors
//   - [Brusselator]: autocatalytic reaction
//
// Problems with a known solution also implement [Exact]; most implement
// [Configurable] for runtime parameter changes.
//
//	p := problems.NewVanDerPol()
//	p.SetParam("mu", 1000)
//	s, err := multistep.New(p.Derive, 0, p.DefaultState(), opts)
package problems
