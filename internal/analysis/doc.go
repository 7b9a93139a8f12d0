// Package analysis characterizes integrated trajectories.
//
//   - [PowerSpectrum] and [DominantPeriod]: frequency content of a sampled
//     component, for periodic and limit-cycle problems
//   - [LyapunovExponent]: largest Lyapunov exponent by trajectory separation
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	lambda, err := analysis.LyapunovExponent(f, y0, opts, 1, 200, 1e-8)
//	if err == nil && lambda > 0 {
//	    // chaotic
//	}
package analysis
