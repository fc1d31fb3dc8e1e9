package mandel

import (
	"fmt"
	"math"
)

// Lattice holds the sample coordinates of one evaluation.
// Real indexes grid columns, Imag indexes grid rows.
type Lattice struct {
	Real []float64
	Imag []float64
}

func (l Lattice) Width() int  { return len(l.Real) }
func (l Lattice) Height() int { return len(l.Imag) }

func (l Lattice) Validate() error {
	if len(l.Real) == 0 || len(l.Imag) == 0 {
		return fmt.Errorf("%w: empty axis (%d real, %d imaginary)", ErrInvalidLattice, len(l.Real), len(l.Imag))
	}
	for _, axis := range [...][]float64{l.Real, l.Imag} {
		for i, v := range axis {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite coordinate at %d", ErrInvalidLattice, i)
			}
		}
	}
	return nil
}

// Sample converts a region and a resolution into the coordinate lattice.
// Both axes start at the low bound and end at the high bound inclusive.
func Sample(r Region, res Resolution) (Lattice, error) {
	if err := r.Validate(); err != nil {
		return Lattice{}, err
	}
	if err := res.Validate(); err != nil {
		return Lattice{}, err
	}
	l := Lattice{
		Real: Linspace(r.Xmin, r.Xmax, res.W),
		Imag: Linspace(r.Ymin, r.Ymax, res.H),
	}
	if err := checkAxis("real", l.Real, r.Xmin, r.Xmax); err != nil {
		return Lattice{}, err
	}
	if err := checkAxis("imaginary", l.Imag, r.Ymin, r.Ymax); err != nil {
		return Lattice{}, err
	}
	return l, nil
}

// checkAxis fails when the bounds are too close together for the number of
// samples to stay distinct and inside [lo, hi].
func checkAxis(name string, axis []float64, lo, hi float64) error {
	for i, v := range axis {
		if math.IsNaN(v) || v < lo || v > hi {
			return fmt.Errorf("%w: %s sample %d = %g falls outside [%g, %g]", ErrInvalidRegion, name, i, v, lo, hi)
		}
		if i > 0 && v <= axis[i-1] {
			return fmt.Errorf("%w: %s span [%g, %g] is too narrow for %d samples", ErrInvalidRegion, name, lo, hi, len(axis))
		}
	}
	return nil
}

// Linspace returns n evenly spaced values over [lo, hi].
// For n == 1 the single value is lo. It returns nil for n < 1.
func Linspace(lo, hi float64, n int) []float64 {
	if n < 1 {
		return nil
	}
	out := make([]float64, n)
	out[0] = lo
	if n == 1 {
		return out
	}
	step := (hi - lo) / float64(n-1)
	if math.IsInf(step, 0) {
		// hi-lo overflowed; weight the bounds instead so every term stays finite.
		last := float64(n - 1)
		for i := 1; i < n-1; i++ {
			t := float64(i) / last
			out[i] = lo*(1-t) + hi*t
		}
	} else {
		for i := 1; i < n-1; i++ {
			out[i] = lo + float64(i)*step
		}
	}
	out[n-1] = hi
	return out
}
