package escape

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/naga"

	mandel "github.com/marben/mandel_engine"
)

//go:embed shaders/escape.wgsl
var escapeShaderWGSL string

const (
	// kernelWorkgroupSize matches @workgroup_size in escape.wgsl.
	kernelWorkgroupSize = 256
	// kernelMaxGroupsX is the per-dimension dispatch limit WebGPU guarantees.
	kernelMaxGroupsX = 65535
	// kernelParamsSize is the byte size of the Params uniform.
	kernelParamsSize = 16
	// maxKernelCells keeps cell indexes and buffer offsets in range.
	maxKernelCells = math.MaxInt32 / 8
)

// compileShader translates WGSL to SPIR-V words.
func compileShader(src string) ([]uint32, error) {
	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile escape shader: %w", err)
	}
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("compile escape shader: %d bytes is not whole words", len(spirv))
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirv[i*4:])
	}
	return words, nil
}

// dispatchSize spreads n lanes over a 2D grid of workgroups so that no
// dimension exceeds kernelMaxGroupsX. The shader flattens gid back using
// x*kernelWorkgroupSize as the row stride.
func dispatchSize(n int) (x, y uint32) {
	groups := (n + kernelWorkgroupSize - 1) / kernelWorkgroupSize
	if groups == 0 {
		return 1, 1
	}
	gx := min(groups, kernelMaxGroupsX)
	gy := (groups + gx - 1) / gx
	return uint32(gx), uint32(gy) //nolint:gosec // bounded by maxKernelCells
}

// kernelParams encodes the Params uniform.
func kernelParams(n int, groupsX uint32) []byte {
	b := make([]byte, kernelParamsSize)
	binary.LittleEndian.PutUint32(b[0:], uint32(n)) //nolint:gosec // bounded by maxKernelCells
	binary.LittleEndian.PutUint32(b[4:], groupsX*kernelWorkgroupSize)
	return b
}

// packLattice lays the lattice out as one vec2<f32> per cell in grid order.
func packLattice(l mandel.Lattice) []byte {
	w := l.Width()
	b := make([]byte, 8*w*l.Height())
	for y, im := range l.Imag {
		for x, re := range l.Real {
			off := 8 * (y*w + x)
			binary.LittleEndian.PutUint32(b[off:], math.Float32bits(float32(re)))
			binary.LittleEndian.PutUint32(b[off+4:], math.Float32bits(float32(im)))
		}
	}
	return b
}

// activeCells returns n u32 lanes set to 1.
func activeCells(n int) []byte {
	b := make([]byte, 4*n)
	for k := range n {
		binary.LittleEndian.PutUint32(b[4*k:], 1)
	}
	return b
}

// unpackCells copies the kernel's u32 membership lanes into grid cells.
func unpackCells(raw []byte, cells []uint8) {
	for k := range cells {
		if binary.LittleEndian.Uint32(raw[4*k:]) != 0 {
			cells[k] = 1
		} else {
			cells[k] = 0
		}
	}
}
