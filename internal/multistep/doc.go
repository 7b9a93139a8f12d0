// Package multistep implements a variable-order, variable-step linear
// multistep ODE integrator in Nordsieck form.
//
// Two method families are available, selected once per problem:
//
//   - Adams-Moulton (orders 1..12) corrected by functional iteration, for
//     non-stiff problems
//   - BDF (orders 1..5) corrected by Newton iteration with a dense
//     finite-difference Jacobian and LU factorization, for stiff problems
//
// The solution history is kept as the Nordsieck array zn, where zn[j]
// approximates h^j/j! * y^(j)(tn). Every step predicts zn, solves the
// corrector equation, runs a local error test and then picks the next step
// size and order from the error history.
//
// # Example
//
//	s, err := multistep.New(f, 0, y0, multistep.Options{RelTol: 1e-6, AbsTol: 1e-8})
//	if err != nil { ... }
//	out, err := s.Advance(5, y)
//
// # Failures
//
// Unrecoverable failures abort the current Advance call and return an
// [*Error] whose Kind identifies the cause. The integrator is left at its
// last accepted step; only [TooMuchWork] can be continued by calling Advance
// again.
//
// # Thread Safety
//
// A Solver is NOT safe for concurrent use. Run independent integrations on
// separate Solver instances.
package multistep
