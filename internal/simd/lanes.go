// Package simd provides the portable vector-lane capability used by the CPU kernels.
//
// Go has no portable SIMD intrinsics, so a Vec is a fixed-capacity register
// whose lanewise loops are short, branch-free and bounds-check free, which lets
// the compiler keep them in registers. The lane count is derived from the widest
// vector unit reported by the CPU, so that the loop structure (vector body plus
// scalar tail) matches what a native SIMD backend would execute.
package simd

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/born-ml/strided/internal/dtype"
)

// MaxLanes is the capacity of a Vec (64 bytes of uint8).
const MaxLanes = 64

var vectorBytes atomic.Int64

func init() {
	vectorBytes.Store(int64(detectVectorBytes()))
}

// detectVectorBytes returns the register width in bytes of the widest vector unit.
func detectVectorBytes() int {
	switch {
	case cpu.X86.HasAVX512F:
		return 64
	case cpu.X86.HasAVX2:
		return 32
	case cpu.ARM64.HasASIMD, cpu.X86.HasSSE2:
		return 16
	default:
		return 16
	}
}

// VectorBytes returns the vector register width used to size lanes.
func VectorBytes() int {
	return int(vectorBytes.Load())
}

// SetVectorBytes overrides the vector width and returns the previous value.
// Non-positive values restore the detected width.
func SetVectorBytes(n int) int {
	if n <= 0 {
		n = detectVectorBytes()
	}
	return int(vectorBytes.Swap(int64(n)))
}

// LanesFor returns the lane count for elements of the given byte size.
func LanesFor(elemSize, vecBytes int) int {
	n := vecBytes / elemSize
	switch {
	case n < 1:
		return 1
	case n > MaxLanes:
		return MaxLanes
	default:
		return n
	}
}

// Lanes returns the number of T elements that fit in one vector register.
func Lanes[T dtype.Num]() int {
	var dummy T
	return LanesFor(int(unsafe.Sizeof(dummy)), VectorBytes())
}

// Bound returns the largest multiple of lanes not exceeding n.
func Bound(n, lanes int) int {
	if lanes <= 0 {
		return 0
	}
	return n / lanes * lanes
}
