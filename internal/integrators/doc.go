// Package integrators provides one-step reference methods used to check and
// compare the multistep solver.
//
// [Euler] and [RK4] are fixed-step [Stepper]s driven by [Fixed]. [RK45] is
// the Dormand-Prince pair with an embedded error estimate, driven by
// [Adaptive]. Both drivers expose the same Advance/Stats surface as
// multistep.Solver so runs and comparisons can treat them uniformly.
package integrators
