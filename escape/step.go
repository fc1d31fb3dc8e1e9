package escape

import (
	"fmt"
	"math"

	mandel "github.com/marben/mandel_engine"
)

// step computes z² + c. Every product is rounded on its own so the
// compiler cannot fuse it into an FMA; all strategies see the same bits.
func step(zr, zi, cr, ci float64) (float64, float64) {
	rr := float64(zr * zr)
	ii := float64(zi * zi)
	ri := float64(zr * zi)
	return float64(rr-ii) + cr, float64(2*ri) + ci
}

// escaped reports |z| > EscapeRadius. NaN counts as escaped.
func escaped(zr, zi float64) bool {
	return !(math.Hypot(zr, zi) <= mandel.EscapeRadius)
}

// bounded reports whether c stays inside the escape radius for maxIters steps.
// Without early exit the orbit keeps running after escaping, but the answer
// is fixed at the first escape.
func bounded(cr, ci float64, maxIters int, earlyExit bool) bool {
	var zr, zi float64
	in := true
	for range maxIters {
		zr, zi = step(zr, zi, cr, ci)
		if in && escaped(zr, zi) {
			in = false
			if earlyExit {
				break
			}
		}
	}
	return in
}

func validate(l mandel.Lattice, maxIters int) error {
	if maxIters < 1 {
		return fmt.Errorf("%w: %d", mandel.ErrInvalidIterations, maxIters)
	}
	return l.Validate()
}
