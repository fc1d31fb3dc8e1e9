// Package escape evaluates Mandelbrot set membership over a lattice.
//
// Every point c is iterated as z ← z² + c from z = 0 for at most maxIters
// steps; a point whose modulus exceeds mandel.EscapeRadius is marked 0 and
// stays 0. Three interchangeable strategies implement mandel.Evaluator:
//
//   - Scalar iterates one point at a time and stops each point as soon as it
//     escapes. With Workers > 1 the grid is split into tiles evaluated
//     concurrently.
//   - Vector advances the whole lattice one step per pass, exactly maxIters
//     passes, freezing escaped points behind a mask.
//   - Accelerator runs the same masked step as a WGSL kernel on a Vulkan GPU,
//     one compute pass per step, in float32. Without an adapter (or when
//     built with -tags nogpu) it fails with mandel.ErrBackendUnavailable
//     unless a fallback strategy is configured explicitly.
//
// Scalar and Vector share one iteration step in float64 and produce
// identical grids for identical input. The accelerator's single precision
// can flip a few cells near the boundary.
package escape
