// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math"

	"github.com/born-ml/strided/internal/backend/cpu"
	"github.com/born-ml/strided/internal/tensor"
)

// Reduce folds every element of t with op. An empty fold yields the
// operator's identity.
func (t *Tensor[T]) Reduce(op ReduceOp) T {
	return cpu.Reduce(t.backend, op, t.storage, t.layout)
}

// Sum returns the sum of all elements.
func (t *Tensor[T]) Sum() T { return t.Reduce(ReduceSum) }

// Prod returns the product of all elements.
func (t *Tensor[T]) Prod() T { return t.Reduce(ReduceProd) }

// Min returns the smallest element. NaN propagates.
func (t *Tensor[T]) Min() T { return t.Reduce(ReduceMin) }

// Max returns the largest element. NaN propagates.
func (t *Tensor[T]) Max() T { return t.Reduce(ReduceMax) }

// NanSum returns the sum of all non-NaN elements.
func (t *Tensor[T]) NanSum() T { return t.Reduce(ReduceNanSum) }

// NanMin returns the smallest non-NaN element.
func (t *Tensor[T]) NanMin() T { return t.Reduce(ReduceNanMin) }

// NanMax returns the largest non-NaN element.
func (t *Tensor[T]) NanMax() T { return t.Reduce(ReduceNanMax) }

// Mean returns the arithmetic mean, computed in float64 with a correction pass.
func (t *Tensor[T]) Mean() float64 { return cpu.Mean(t.backend, t.storage, t.layout) }

// NanMean returns the mean of the non-NaN elements.
func (t *Tensor[T]) NanMean() float64 { return cpu.NanMean(t.backend, t.storage, t.layout) }

// Var returns the variance with ddof delta degrees of freedom: ddof 0 is the
// population variance, ddof 1 the sample variance.
func (t *Tensor[T]) Var(ddof int) float64 { return cpu.Var(t.backend, t.storage, t.layout, ddof) }

// NanVar returns the variance of the non-NaN elements.
func (t *Tensor[T]) NanVar(ddof int) float64 {
	return cpu.NanVar(t.backend, t.storage, t.layout, ddof)
}

// Std returns the standard deviation, √Var(ddof).
func (t *Tensor[T]) Std(ddof int) float64 { return math.Sqrt(t.Var(ddof)) }

// ArgMin returns the row-major position of the first smallest element.
func (t *Tensor[T]) ArgMin() int { return cpu.ArgMin(t.backend, t.storage, t.layout) }

// ArgMax returns the row-major position of the first largest element.
func (t *Tensor[T]) ArgMax() int { return cpu.ArgMax(t.backend, t.storage, t.layout) }

// reduceAxis applies f to every 1-D line of t along axis.
func reduceAxis[R, T Num](t *Tensor[T], axis int, keepDim bool, f func(line tensor.StrideLayout) R) (*Tensor[R], error) {
	s, l, err := cpu.ReduceAxis(t.layout, axis, keepDim, f)
	if err != nil {
		return nil, err
	}
	return newTensor(s, l, t.backend), nil
}

// ReduceAxis folds t along axis with op. The axis is removed, or kept with
// size 1 when keepDim is set.
//
// Example:
//
//	x, _ := tensor.Seq[float64](tensor.Shape{2, 3}, tensor.C, backend)
//	cols, _ := x.ReduceAxis(tensor.ReduceSum, 0, false) // [3 5 7]
func (t *Tensor[T]) ReduceAxis(op ReduceOp, axis int, keepDim bool) (*Tensor[T], error) {
	return reduceAxis(t, axis, keepDim, func(line tensor.StrideLayout) T {
		return cpu.Reduce(t.backend, op, t.storage, line)
	})
}

// SumAxis sums along axis.
func (t *Tensor[T]) SumAxis(axis int, keepDim bool) (*Tensor[T], error) {
	return t.ReduceAxis(ReduceSum, axis, keepDim)
}

// ProdAxis multiplies along axis.
func (t *Tensor[T]) ProdAxis(axis int, keepDim bool) (*Tensor[T], error) {
	return t.ReduceAxis(ReduceProd, axis, keepDim)
}

// MinAxis takes the minimum along axis.
func (t *Tensor[T]) MinAxis(axis int, keepDim bool) (*Tensor[T], error) {
	return t.ReduceAxis(ReduceMin, axis, keepDim)
}

// MaxAxis takes the maximum along axis.
func (t *Tensor[T]) MaxAxis(axis int, keepDim bool) (*Tensor[T], error) {
	return t.ReduceAxis(ReduceMax, axis, keepDim)
}

// MeanAxis averages along axis.
func (t *Tensor[T]) MeanAxis(axis int, keepDim bool) (*Tensor[float64], error) {
	return reduceAxis(t, axis, keepDim, func(line tensor.StrideLayout) float64 {
		return cpu.Mean(t.backend, t.storage, line)
	})
}

// VarAxis computes the variance along axis with ddof delta degrees of freedom.
func (t *Tensor[T]) VarAxis(axis, ddof int, keepDim bool) (*Tensor[float64], error) {
	return reduceAxis(t, axis, keepDim, func(line tensor.StrideLayout) float64 {
		return cpu.Var(t.backend, t.storage, line, ddof)
	})
}

// ArgMinAxis returns the index of the first minimum along axis.
func (t *Tensor[T]) ArgMinAxis(axis int, keepDim bool) (*Tensor[int64], error) {
	return reduceAxis(t, axis, keepDim, func(line tensor.StrideLayout) int64 {
		return int64(cpu.ArgMin(t.backend, t.storage, line))
	})
}

// ArgMaxAxis returns the index of the first maximum along axis.
func (t *Tensor[T]) ArgMaxAxis(axis int, keepDim bool) (*Tensor[int64], error) {
	return reduceAxis(t, axis, keepDim, func(line tensor.StrideLayout) int64 {
		return int64(cpu.ArgMax(t.backend, t.storage, line))
	})
}
