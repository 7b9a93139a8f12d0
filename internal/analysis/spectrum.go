package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrTooShort      = errors.New("analysis: need at least 4 samples")
	ErrUneven        = errors.New("analysis: samples are not evenly spaced")
	ErrNoOscillation = errors.New("analysis: no oscillating component")
)

// spacingTol is the relative deviation allowed between sample spacings.
const spacingTol = 1e-6

// Spectrum is the one-sided power spectrum of a sampled signal, mean removed.
type Spectrum struct {
	Freqs []float64
	Power []float64
}

// PowerSpectrum transforms values sampled at evenly spaced times. A shorter
// final spacing, as produced by an output grid that does not divide the
// interval evenly, drops the last sample.
func PowerSpectrum(times, values []float64) (Spectrum, error) {
	if len(times) != len(values) {
		return Spectrum{}, fmt.Errorf("analysis: %d times for %d values", len(times), len(values))
	}
	n := len(values)
	if n < 4 {
		return Spectrum{}, ErrTooShort
	}

	dt := math.Abs(times[1] - times[0])
	if dt == 0 {
		return Spectrum{}, ErrUneven
	}
	for i := 2; i < n; i++ {
		if math.Abs(math.Abs(times[i]-times[i-1])-dt) <= spacingTol*dt {
			continue
		}
		if i == n-1 {
			n--
			break
		}
		return Spectrum{}, fmt.Errorf("%w: spacing %g at sample %d, want %g", ErrUneven, times[i]-times[i-1], i, dt)
	}

	x := make([]float64, n)
	copy(x, values[:n])
	mean := floats.Sum(x) / float64(n)
	floats.AddConst(-mean, x)

	coeffs := fft.FFTReal(x)
	half := n/2 + 1
	s := Spectrum{
		Freqs: make([]float64, half),
		Power: make([]float64, half),
	}
	for k := 0; k < half; k++ {
		s.Freqs[k] = float64(k) / (float64(n) * dt)
		a := cmplx.Abs(coeffs[k])
		s.Power[k] = a * a / float64(n)
	}
	return s, nil
}

// Peak returns the index of the strongest nonzero frequency, or -1 when the
// spectrum is flat.
func (s Spectrum) Peak() int {
	if len(s.Power) < 2 {
		return -1
	}
	k := 1 + floats.MaxIdx(s.Power[1:])
	if s.Power[k] == 0 {
		return -1
	}
	return k
}

// DominantPeriod returns the period of the strongest frequency, refined by
// a parabola through the peak and its neighbours.
func DominantPeriod(times, values []float64) (float64, error) {
	s, err := PowerSpectrum(times, values)
	if err != nil {
		return 0, err
	}
	k := s.Peak()
	if k < 0 {
		return 0, ErrNoOscillation
	}

	f := s.Freqs[k]
	if k+1 < len(s.Power) {
		a, b, c := s.Power[k-1], s.Power[k], s.Power[k+1]
		if d := a - 2*b + c; d != 0 {
			f += 0.5 * (a - c) / d * (s.Freqs[1] - s.Freqs[0])
		}
	}
	return 1 / f, nil
}
