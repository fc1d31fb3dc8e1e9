package escape

import (
	"context"

	"golang.org/x/sync/errgroup"

	mandel "github.com/marben/mandel_engine"
	"github.com/marben/mandel_engine/hwinfo"
)

// DefaultLaneChunk is the number of cells one worker advances per pass.
const DefaultLaneChunk = 4096

// Vector advances every point of the lattice together, one step per pass.
type Vector struct {
	// Workers > 1 splits each pass into chunks advanced concurrently.
	// A pass completes for all chunks before the next one starts.
	Workers int
	// Chunk is the number of cells per chunk; <= 0 uses DefaultLaneChunk.
	Chunk int
}

func (v Vector) Name() string { return "vector" }

// lanes is the flattened lattice state, indexed like grid cells.
type lanes struct {
	cr, ci []float64
	zr, zi []float64
	active []bool
	cells  []uint8
}

func newLanes(l mandel.Lattice, g *mandel.Grid) *lanes {
	n := len(g.Cells)
	s := &lanes{
		cr:     make([]float64, n),
		ci:     make([]float64, n),
		zr:     make([]float64, n),
		zi:     make([]float64, n),
		active: make([]bool, n),
		cells:  g.Cells,
	}
	for y, im := range l.Imag {
		row := y * g.Width
		for x, re := range l.Real {
			s.cr[row+x] = re
			s.ci[row+x] = im
			s.active[row+x] = true
		}
	}
	return s
}

// advance runs one pass over [lo, hi). Escaped lanes are frozen: their z is
// never updated again and their cell is cleared exactly once.
func (s *lanes) advance(lo, hi int) {
	for k := lo; k < hi; k++ {
		if !s.active[k] {
			continue
		}
		zr, zi := step(s.zr[k], s.zi[k], s.cr[k], s.ci[k])
		s.zr[k], s.zi[k] = zr, zi
		if escaped(zr, zi) {
			s.active[k] = false
			s.cells[k] = 0
		}
	}
}

func (v Vector) Evaluate(ctx context.Context, l mandel.Lattice, maxIters int) (*mandel.Grid, error) {
	if err := validate(l, maxIters); err != nil {
		return nil, err
	}
	g := mandel.NewGrid(l.Width(), l.Height())
	s := newLanes(l, g)
	n := len(g.Cells)

	chunk := v.Chunk
	if chunk <= 0 {
		chunk = DefaultLaneChunk
	}
	var bounds [][2]int
	for lo := 0; lo < n; lo += chunk {
		bounds = append(bounds, [2]int{lo, min(lo+chunk, n)})
	}
	mandel.Logger().Debug("vector: lanes ready",
		"cells", n, "chunks", len(bounds), "workers", v.Workers, "simd_lanes", hwinfo.CPU().Lanes)

	for range maxIters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if v.Workers <= 1 || len(bounds) == 1 {
			s.advance(0, n)
			continue
		}
		var eg errgroup.Group
		eg.SetLimit(v.Workers)
		for _, b := range bounds {
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				s.advance(b[0], b[1])
				return nil
			})
		}
		// barrier: every lane finishes this step before any starts the next
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}
	return g, nil
}
