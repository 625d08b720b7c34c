// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend for strided tensors.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go kernels (no CGO) over blocks of vector lanes sized to the host
//   - Unit-stride, constant-stride and scalar loop shapes for every operator
//   - Cache-blocked matrix products on a bounded worker pool
//   - Parallel tiled copies for large buffers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/strided/backend/cpu"
//	    "github.com/born-ml/strided/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    a, _ := tensor.Random[float64](tensor.Shape{256, 128}, 1, backend)
//	    b, _ := tensor.Random[float64](tensor.Shape{128, 64}, 2, backend)
//	    c, _ := a.MM(b)
//	}
//
// # Tuning
//
// VectorBytes overrides the detected vector width, L2CacheBytes drives the
// matmul tile size and ParallelCopyBytes the threshold above which copies
// are split across workers. Kernel decisions are logged through klog at
// verbosity 4 and 5.
//
// # Thread Safety
//
// A Backend holds no mutable state and is safe for concurrent use. Tensors
// sharing a storage are not synchronized.
package cpu
