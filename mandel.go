package mandel

import (
	"errors"
	"fmt"
	"math"
)

// EscapeRadius is the modulus beyond which an orbit is guaranteed to diverge.
const EscapeRadius = 2.0

var (
	ErrInvalidRegion      = errors.New("mandel: invalid region")
	ErrInvalidResolution  = errors.New("mandel: invalid resolution")
	ErrInvalidLattice     = errors.New("mandel: invalid lattice")
	ErrInvalidIterations  = errors.New("mandel: max iterations must be positive")
	ErrBackendUnavailable = errors.New("mandel: execution backend unavailable")
	ErrUnknownStrategy    = errors.New("mandel: unknown strategy")
)

// Region within the complex plane. X is the real axis, Y the imaginary one.
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

func (r Region) Validate() error {
	for _, v := range [...]float64{r.Xmin, r.Xmax, r.Ymin, r.Ymax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite bound in %s", ErrInvalidRegion, r)
		}
	}
	if r.Xmin >= r.Xmax {
		return fmt.Errorf("%w: real bounds %g >= %g", ErrInvalidRegion, r.Xmin, r.Xmax)
	}
	if r.Ymin >= r.Ymax {
		return fmt.Errorf("%w: imaginary bounds %g >= %g", ErrInvalidRegion, r.Ymin, r.Ymax)
	}
	return nil
}

func (r Region) String() string {
	return fmt.Sprintf("[%g, %g]x[%g, %g]i", r.Xmin, r.Xmax, r.Ymin, r.Ymax)
}

// Resolution is the number of samples along the real (W) and imaginary (H) axes.
type Resolution struct {
	W, H int
}

func (res Resolution) Validate() error {
	if res.W < 1 || res.H < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidResolution, res.W, res.H)
	}
	return nil
}

// Tile is a rectangular block of grid cells.
type Tile struct {
	X0, Y0 int // top-left cell in the grid
	W, H   int // tile width & height
}

// SplitTiles splits a w × h grid into tiles of size tileW × tileH.
// Tiles at the right and bottom edges are smaller if the grid is not divisible.
func SplitTiles(w, h, tileW, tileH int) []Tile {
	if tileW <= 0 || tileH <= 0 {
		panic("tile dimensions must be positive")
	}

	var tiles []Tile

	for oy := 0; oy < h; oy += tileH {
		th := tileH
		if oy+th > h {
			th = h - oy
		}

		for ox := 0; ox < w; ox += tileW {
			tw := tileW
			if ox+tw > w {
				tw = w - ox
			}
			tiles = append(tiles, Tile{X0: ox, Y0: oy, W: tw, H: th})
		}
	}

	return tiles
}
