// Package nvector provides the vector kernel used by the multistep integrator.
//
// A [Vector] is a plain []float64. The free functions follow the usual
// N_Vector style: the destination is the last argument and may alias any of
// the inputs. The kernel covers exactly what the integrator needs:
//
//   - [LinearSum]: z = a*x + b*y
//   - [Scale], [Abs], [Div], [Inv], [AddConst]: elementwise maps
//   - [WrmsNorm], [MaxNorm], [Min]: reductions
//
// Length mismatches panic, as they do in gonum/floats.
package nvector
