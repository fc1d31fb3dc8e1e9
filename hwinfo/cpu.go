package hwinfo

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// CPUInfo describes the host processor.
type CPUInfo struct {
	Arch     string
	Cores    int
	Features []string
	// Lanes is the number of float64 values one SIMD register holds.
	Lanes int
}

func CPU() CPUInfo {
	info := CPUInfo{Arch: runtime.GOARCH, Cores: runtime.NumCPU(), Lanes: 1}
	add := func(ok bool, name string, lanes int) {
		if !ok {
			return
		}
		info.Features = append(info.Features, name)
		if lanes > info.Lanes {
			info.Lanes = lanes
		}
	}

	add(cpu.X86.HasSSE2, "sse2", 2)
	add(cpu.X86.HasAVX, "avx", 4)
	add(cpu.X86.HasAVX2, "avx2", 4)
	add(cpu.X86.HasFMA, "fma", 0)
	add(cpu.X86.HasAVX512F, "avx512f", 8)
	add(cpu.ARM64.HasASIMD, "asimd", 2)
	add(cpu.ARM64.HasSVE, "sve", 2)
	return info
}
