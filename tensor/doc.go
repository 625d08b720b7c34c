// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides dense strided tensors over flat typed storages.
//
// # Overview
//
// A Tensor is a StrideLayout (shape, offset, strides) over a Storage. Most
// structural operations only rewrite the layout:
//   - Views: Narrow, Select, Permute, Transpose, Squeeze, Unsqueeze, Expand, BroadcastTo
//   - Reshape and Ravel, which copy only when the strides cannot express the new shape
//   - Copy(order) to materialize a compact C, F or storage-ordered tensor
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
//
//	    x, _ := tensor.Seq[float64](tensor.Shape{2, 3}, tensor.C, backend)
//	    col, _ := x.Narrow(1, 1, 2)         // shares storage with x
//	    y, _ := x.Add(x.Transpose().Transpose())
//	    m, _ := x.MM(x.Transpose())         // [2, 2]
//	    fmt.Println(y.Sum(), m, col.Mean())
//	}
//
// # Supported Data Types
//
// uint8, int32, int64, float32 and float64. Transcendental operators, Pow and
// the decompositions are defined for the float kinds only and fail with
// ErrUnsupportedOperation otherwise.
//
// # Orders
//
// C is row-major, F column-major, and S storage order: the axes are walked by
// increasing stride, the cheapest traversal for the buffer. Elementwise
// operators and reductions run in S order; ToSlice, At and the arg-reductions
// use the order they are given or C.
//
// # Broadcasting
//
// Binary operations follow NumPy broadcasting rules:
//
//	a, _ := tensor.Zeros[float32](tensor.Shape{3, 1}, backend) // (3, 1)
//	b, _ := tensor.Full[float32](tensor.Shape{4}, 1, backend)  // (4)
//	c, _ := a.Add(b)                                           // (3, 4)
//
// In-place operations never change the shape of their receiver, and fail on
// views that repeat an element through a zero stride.
//
// # Memory Management
//
// Views retain their storage and Release drops the reference. Storages are
// not synchronized: concurrent writers to overlapping views must coordinate.
package tensor
