package mandel

import "bytes"

// Grid is the membership result of one evaluation: Height rows of Width
// cells, row-major. Rows follow the imaginary axis, columns the real axis.
// A cell is 1 when the point did not diverge within the budget and 0 otherwise.
type Grid struct {
	Width, Height int
	Cells         []uint8
}

// NewGrid returns a w × h grid with every cell marked as a member.
func NewGrid(w, h int) *Grid {
	cells := make([]uint8, w*h)
	for i := range cells {
		cells[i] = 1
	}
	return &Grid{Width: w, Height: h, Cells: cells}
}

func (g *Grid) At(x, y int) uint8 {
	return g.Cells[y*g.Width+x]
}

// Row returns the cells of row y. The slice aliases the grid.
func (g *Grid) Row(y int) []uint8 {
	return g.Cells[y*g.Width : (y+1)*g.Width]
}

// Members counts the cells still marked 1.
func (g *Grid) Members() int {
	n := 0
	for _, c := range g.Cells {
		n += int(c)
	}
	return n
}

func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	return g.Width == o.Width && g.Height == o.Height && bytes.Equal(g.Cells, o.Cells)
}
