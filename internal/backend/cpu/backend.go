// Package cpu implements the CPU kernels of the strided engine: elementwise
// operators, reductions, strided copies, matrix products and decompositions.
//
// Every kernel is planned with a tensor.LoopDescriptor (or PairLoop) and runs
// in one of three shapes: unit-stride vector, constant-stride gather vector,
// and scalar tail. Only copies and matrix products use the worker pool.
package cpu

import (
	"unsafe"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/simd"
)

// Config controls the CPU backend.
type Config struct {
	Parallel          parallel.Config // worker pool for copies and matrix products
	L2CacheBytes      int             // cache size used to size matmul blocks
	ParallelCopyBytes int             // copies at least this large run on the pool (0 = L2CacheBytes/2)
	VectorBytes       int             // vector register width (0 = detected)
}

// DefaultConfig returns a configuration sized for the running machine.
func DefaultConfig() Config {
	const l2 = 1 << 20
	return Config{
		Parallel:          parallel.DefaultConfig(),
		L2CacheBytes:      l2,
		ParallelCopyBytes: l2 / 2,
	}
}

// CPUBackend executes tensor operations on the CPU.
type CPUBackend struct {
	cfg Config
}

// New creates a CPU backend with DefaultConfig.
func New() *CPUBackend {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a CPU backend with cfg. Zero fields take their defaults.
func NewWithConfig(cfg Config) *CPUBackend {
	def := DefaultConfig()
	if cfg.L2CacheBytes <= 0 {
		cfg.L2CacheBytes = def.L2CacheBytes
	}
	if cfg.ParallelCopyBytes <= 0 {
		cfg.ParallelCopyBytes = cfg.L2CacheBytes / 2
	}
	if cfg.Parallel == (parallel.Config{}) {
		cfg.Parallel = def.Parallel
	}
	return &CPUBackend{cfg: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Config returns the effective configuration.
func (cpu *CPUBackend) Config() Config {
	return cpu.cfg
}

// Workers returns the number of workers used by parallel kernels.
func (cpu *CPUBackend) Workers() int {
	return cpu.cfg.Parallel.Workers()
}

// VectorBytes returns the vector register width kernels are planned for.
func (cpu *CPUBackend) VectorBytes() int {
	if cpu.cfg.VectorBytes > 0 {
		return cpu.cfg.VectorBytes
	}
	return simd.VectorBytes()
}

// LanesFor returns the vector lane count for elements of the given kind.
func (cpu *CPUBackend) LanesFor(dt dtype.DataType) int {
	return simd.LanesFor(dt.Size(), cpu.VectorBytes())
}

func lanes[T dtype.Num](cpu *CPUBackend) int {
	var dummy T
	return simd.LanesFor(int(unsafe.Sizeof(dummy)), cpu.VectorBytes())
}
