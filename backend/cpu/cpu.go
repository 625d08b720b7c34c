// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/strided/internal/backend/cpu"
	"github.com/born-ml/strided/internal/parallel"
)

// Backend represents the CPU backend implementation.
//
// Kernels are written in pure Go over fixed-width lane blocks; matrix
// products and large copies are split across a bounded worker pool.
type Backend = internalcpu.CPUBackend

// Config tunes the backend. Zero fields take their defaults.
type Config = internalcpu.Config

// ParallelConfig tunes the worker pool.
type ParallelConfig = parallel.Config

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/born-ml/strided/backend/cpu"
//	    "github.com/born-ml/strided/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x, _ := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with explicit tuning.
//
// Example:
//
//	backend := cpu.NewWithConfig(cpu.Config{
//	    Parallel:    cpu.Sequential(),
//	    VectorBytes: 32,
//	})
func NewWithConfig(cfg Config) *Backend {
	return internalcpu.NewWithConfig(cfg)
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return internalcpu.DefaultConfig()
}

// Sequential returns a worker pool configuration that runs every task on the
// calling goroutine.
func Sequential() ParallelConfig {
	return parallel.Sequential()
}
