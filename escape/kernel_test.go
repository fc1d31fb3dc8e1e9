package escape

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	mandel "github.com/marben/mandel_engine"
)

func TestEscapeShaderCompiles(t *testing.T) {
	if escapeShaderWGSL == "" {
		t.Fatal("escape shader source is empty")
	}
	words, err := compileShader(escapeShaderWGSL)
	if err != nil {
		if strings.Contains(err.Error(), "not yet implemented") {
			t.Skipf("naga feature not yet implemented: %v", err)
		}
		t.Fatal(err)
	}
	if len(words) == 0 || words[0] != 0x07230203 {
		t.Fatalf("not SPIR-V: %d words, magic %#x", len(words), words[0])
	}
}

func TestDispatchSize(t *testing.T) {
	for _, n := range []int{1, 255, 256, 257, 4096 * 4096, kernelMaxGroupsX*kernelWorkgroupSize + 1, maxKernelCells} {
		x, y := dispatchSize(n)
		if x == 0 || y == 0 || x > kernelMaxGroupsX || y > kernelMaxGroupsX {
			t.Fatalf("dispatchSize(%d) = %d, %d", n, x, y)
		}
		if covered := int(x) * int(y) * kernelWorkgroupSize; covered < n {
			t.Fatalf("dispatchSize(%d) = %d, %d covers only %d lanes", n, x, y, covered)
		}
	}
}

func TestKernelParams(t *testing.T) {
	b := kernelParams(1000, 4)
	if len(b) != kernelParamsSize {
		t.Fatalf("len = %d", len(b))
	}
	if n := binary.LittleEndian.Uint32(b); n != 1000 {
		t.Fatalf("count = %d", n)
	}
	if s := binary.LittleEndian.Uint32(b[4:]); s != 4*kernelWorkgroupSize {
		t.Fatalf("stride = %d", s)
	}
}

func TestPackLattice(t *testing.T) {
	l := mandel.Lattice{Real: []float64{-2, 0.5, 1}, Imag: []float64{-1, 0.25}}
	b := packLattice(l)
	if len(b) != 8*6 {
		t.Fatalf("len = %d", len(b))
	}
	// cell (x=1, y=1) is lane 4
	re := math.Float32frombits(binary.LittleEndian.Uint32(b[32:]))
	im := math.Float32frombits(binary.LittleEndian.Uint32(b[36:]))
	if re != 0.5 || im != 0.25 {
		t.Fatalf("lane 4 = %g%+gi, want 0.5+0.25i", re, im)
	}
}

func TestUnpackCells(t *testing.T) {
	raw := activeCells(4)
	binary.LittleEndian.PutUint32(raw[4:], 0)
	cells := make([]uint8, 4)
	unpackCells(raw, cells)
	if want := []uint8{1, 0, 1, 1}; string(cells) != string(want) {
		t.Fatalf("cells = %v, want %v", cells, want)
	}
}

// emulateKernel runs escape.wgsl on the CPU over the packed buffers, one
// whole pass per step.
func emulateKernel(l mandel.Lattice, maxIters int) *mandel.Grid {
	g := mandel.NewGrid(l.Width(), l.Height())
	n := len(g.Cells)
	c := packLattice(l)
	z := make([]float32, 2*n)
	cells := activeCells(n)
	for range maxIters {
		for k := range n {
			if binary.LittleEndian.Uint32(cells[4*k:]) == 0 {
				continue
			}
			cr := math.Float32frombits(binary.LittleEndian.Uint32(c[8*k:]))
			ci := math.Float32frombits(binary.LittleEndian.Uint32(c[8*k+4:]))
			zr, zi := z[2*k], z[2*k+1]
			re := float32(float32(zr*zr)-float32(zi*zi)) + cr
			im := float32(2*zr*zi) + ci
			z[2*k], z[2*k+1] = re, im
			if !(float32(re*re)+float32(im*im) <= 4) {
				binary.LittleEndian.PutUint32(cells[4*k:], 0)
			}
		}
	}
	unpackCells(cells, g.Cells)
	return g
}

// singlePrecisionTolerance is the share of cells allowed to differ between
// the float32 kernel and the float64 strategies.
const singlePrecisionTolerance = 0.01

func differingCells(a, b *mandel.Grid) int {
	n := 0
	for i := range a.Cells {
		if a.Cells[i] != b.Cells[i] {
			n++
		}
	}
	return n
}

func TestEmulatedKernelMatchesVector(t *testing.T) {
	for name, r := range map[string]mandel.Region{
		"full":     mandel.FullView,
		"classic":  mandel.ClassicView,
		"seahorse": mandel.SeahorseValley,
	} {
		t.Run(name, func(t *testing.T) {
			l := lattice(t, r, 97, 61)
			want, err := Vector{}.Evaluate(t.Context(), l, 50)
			if err != nil {
				t.Fatal(err)
			}
			got := emulateKernel(l, 50)
			if d := differingCells(got, want); float64(d) > singlePrecisionTolerance*float64(len(want.Cells)) {
				t.Fatalf("%d of %d cells differ", d, len(want.Cells))
			}
			if got.At(0, 0) != want.At(0, 0) {
				t.Fatalf("corner cell differs")
			}
		})
	}
}
