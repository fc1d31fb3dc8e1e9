package escape

import (
	"context"

	"golang.org/x/sync/errgroup"

	mandel "github.com/marben/mandel_engine"
)

// DefaultTileSize is the tile edge used by a parallel Scalar.
const DefaultTileSize = 64

// Scalar evaluates one point at a time.
type Scalar struct {
	// Workers > 1 evaluates tiles concurrently; otherwise everything runs
	// on the calling goroutine.
	Workers int
	// TileSize is the tile edge in cells; <= 0 uses DefaultTileSize.
	TileSize int
	// NoEarlyExit keeps iterating points that already escaped.
	NoEarlyExit bool
}

func (s Scalar) Name() string { return "scalar" }

func (s Scalar) Evaluate(ctx context.Context, l mandel.Lattice, maxIters int) (*mandel.Grid, error) {
	if err := validate(l, maxIters); err != nil {
		return nil, err
	}
	g := mandel.NewGrid(l.Width(), l.Height())

	if s.Workers <= 1 {
		if err := s.fill(ctx, g, l, maxIters, mandel.Tile{W: g.Width, H: g.Height}); err != nil {
			return nil, err
		}
		return g, nil
	}

	size := s.TileSize
	if size <= 0 {
		size = DefaultTileSize
	}
	tiles := mandel.SplitTiles(g.Width, g.Height, size, size)
	mandel.Logger().Debug("scalar: tiled evaluation", "tiles", len(tiles), "workers", s.Workers)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.Workers)
	for _, t := range tiles {
		eg.Go(func() error {
			return s.fill(ctx, g, l, maxIters, t)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return g, nil
}

// fill evaluates the cells of one tile, column by column.
// Tiles never overlap, so each cell has a single writer.
func (s Scalar) fill(ctx context.Context, g *mandel.Grid, l mandel.Lattice, maxIters int, t mandel.Tile) error {
	for x := t.X0; x < t.X0+t.W; x++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		cr := l.Real[x]
		for y := t.Y0; y < t.Y0+t.H; y++ {
			if !bounded(cr, l.Imag[y], maxIters, !s.NoEarlyExit) {
				g.Cells[y*g.Width+x] = 0
			}
		}
	}
	return nil
}
