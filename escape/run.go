package escape

import (
	"context"
	"fmt"
	"time"

	mandel "github.com/marben/mandel_engine"
)

// Result of one evaluation. Elapsed covers the iteration only.
type Result struct {
	Grid     *mandel.Grid
	Elapsed  time.Duration
	Strategy string
}

// Run validates the input, evaluates the lattice with ev and times it.
// Invalid input is rejected before the clock starts.
func Run(ctx context.Context, ev mandel.Evaluator, l mandel.Lattice, maxIters int) (Result, error) {
	if err := validate(l, maxIters); err != nil {
		return Result{}, err
	}

	start := time.Now()
	g, err := ev.Evaluate(ctx, l, maxIters)
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", ev.Name(), err)
	}

	mandel.Logger().Info("evaluated",
		"strategy", ev.Name(),
		"width", g.Width,
		"height", g.Height,
		"max_iters", maxIters,
		"members", g.Members(),
		"elapsed", elapsed)
	return Result{Grid: g, Elapsed: elapsed, Strategy: ev.Name()}, nil
}

// Compute samples region at res and evaluates it with the strategy cfg names.
func Compute(ctx context.Context, cfg Config, region mandel.Region, res mandel.Resolution, maxIters int) (Result, error) {
	if maxIters < 1 {
		return Result{}, fmt.Errorf("%w: %d", mandel.ErrInvalidIterations, maxIters)
	}
	l, err := mandel.Sample(region, res)
	if err != nil {
		return Result{}, err
	}
	ev, err := New(cfg)
	if err != nil {
		return Result{}, err
	}
	return Run(ctx, ev, l, maxIters)
}
