// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/strided/internal/backend/cpu"
	"github.com/born-ml/strided/internal/tensor"
)

// Operator identifiers re-exported from the CPU kernels.
type (
	// UnaryOp identifies an elementwise operator of one argument.
	UnaryOp = cpu.UnaryOp

	// BinaryOp identifies an elementwise operator of two arguments.
	BinaryOp = cpu.BinaryOp

	// ReduceOp identifies an associative fold.
	ReduceOp = cpu.ReduceOp
)

// Unary operators. Those other than Abs, Neg, Sqr, Sign, Ceil, Floor and Rint
// are defined for float kinds only.
const (
	OpAbs     = cpu.Abs
	OpNeg     = cpu.Neg
	OpSqr     = cpu.Sqr
	OpSqrt    = cpu.Sqrt
	OpExp     = cpu.Exp
	OpExpm1   = cpu.Expm1
	OpLog     = cpu.Log
	OpLog1p   = cpu.Log1p
	OpSin     = cpu.Sin
	OpCos     = cpu.Cos
	OpTan     = cpu.Tan
	OpAsin    = cpu.Asin
	OpAcos    = cpu.Acos
	OpAtan    = cpu.Atan
	OpSinh    = cpu.Sinh
	OpCosh    = cpu.Cosh
	OpTanh    = cpu.Tanh
	OpCeil    = cpu.Ceil
	OpFloor   = cpu.Floor
	OpRint    = cpu.Rint
	OpSign    = cpu.Sign
	OpSigmoid = cpu.Sigmoid
)

// Binary operators. Pow is defined for float kinds only; integer division by
// zero yields zero.
const (
	OpAdd = cpu.Add
	OpSub = cpu.Sub
	OpMul = cpu.Mul
	OpDiv = cpu.Div
	OpMin = cpu.Min
	OpMax = cpu.Max
	OpPow = cpu.Pow
)

// Reduce operators.
const (
	ReduceSum     = cpu.ReduceSum
	ReduceProd    = cpu.ReduceProd
	ReduceMin     = cpu.ReduceMin
	ReduceMax     = cpu.ReduceMax
	ReduceNanSum  = cpu.ReduceNanSum
	ReduceNanProd = cpu.ReduceNanProd
	ReduceNanMin  = cpu.ReduceNanMin
	ReduceNanMax  = cpu.ReduceNanMax
)

// UnaryInPlace applies op to every element of t and returns t.
func (t *Tensor[T]) UnaryInPlace(op UnaryOp) (*Tensor[T], error) {
	if err := cpu.UnaryInPlace(t.backend, op, t.storage, t.layout); err != nil {
		return nil, err
	}
	return t, nil
}

// Unary returns a new tensor holding op applied to every element of t.
func (t *Tensor[T]) Unary(op UnaryOp) (*Tensor[T], error) {
	return t.Copy(S).UnaryInPlace(op)
}

// Map returns a new tensor holding f applied to every element of t.
func (t *Tensor[T]) Map(f func(T) T) (*Tensor[T], error) {
	out := t.Copy(S)
	if err := cpu.Map(t.backend, out.storage, out.layout, f); err != nil {
		return nil, err
	}
	return out, nil
}

// Abs returns |t|.
func (t *Tensor[T]) Abs() (*Tensor[T], error) { return t.Unary(OpAbs) }

// Neg returns -t.
func (t *Tensor[T]) Neg() (*Tensor[T], error) { return t.Unary(OpNeg) }

// Sqr returns t².
func (t *Tensor[T]) Sqr() (*Tensor[T], error) { return t.Unary(OpSqr) }

// Sqrt returns √t.
func (t *Tensor[T]) Sqrt() (*Tensor[T], error) { return t.Unary(OpSqrt) }

// Exp returns eᵗ.
func (t *Tensor[T]) Exp() (*Tensor[T], error) { return t.Unary(OpExp) }

// Log returns the natural logarithm of t.
func (t *Tensor[T]) Log() (*Tensor[T], error) { return t.Unary(OpLog) }

// Sin returns sin(t).
func (t *Tensor[T]) Sin() (*Tensor[T], error) { return t.Unary(OpSin) }

// Cos returns cos(t).
func (t *Tensor[T]) Cos() (*Tensor[T], error) { return t.Unary(OpCos) }

// Tanh returns tanh(t).
func (t *Tensor[T]) Tanh() (*Tensor[T], error) { return t.Unary(OpTanh) }

// BinaryInPlace computes t = op(t, other) with other broadcast to t's shape,
// and returns t.
func (t *Tensor[T]) BinaryInPlace(op BinaryOp, other *Tensor[T]) (*Tensor[T], error) {
	if err := cpu.BinaryInPlace(t.backend, op, t.storage, t.layout, other.storage, other.layout); err != nil {
		return nil, err
	}
	return t, nil
}

// Binary returns op(t, other) in a new tensor. The operands are broadcast to
// their common shape.
//
// Example:
//
//	a, _ := tensor.Seq[float64](tensor.Shape{2, 3}, tensor.C, backend)
//	b, _ := tensor.FromSlice([]float64{10, 20, 30}, tensor.Shape{3}, tensor.C, backend)
//	c, _ := a.Binary(tensor.OpAdd, b) // [[10 21 32] [13 24 35]]
func (t *Tensor[T]) Binary(op BinaryOp, other *Tensor[T]) (*Tensor[T], error) {
	shape, _, err := tensor.BroadcastShapes(t.layout.Shape(), other.layout.Shape())
	if err != nil {
		return nil, err
	}
	var out *Tensor[T]
	if shape.Equal(t.layout.Shape()) {
		out = t.Copy(S)
	} else {
		if out, err = alloc[T](shape, t.backend); err != nil {
			return nil, err
		}
		if err = out.CopyFrom(t); err != nil {
			return nil, err
		}
	}
	return out.BinaryInPlace(op, other)
}

// BinaryScalarInPlace computes t = op(t, x) and returns t.
func (t *Tensor[T]) BinaryScalarInPlace(op BinaryOp, x T) (*Tensor[T], error) {
	if err := cpu.BinaryScalarInPlace(t.backend, op, t.storage, t.layout, x); err != nil {
		return nil, err
	}
	return t, nil
}

// BinaryScalar returns op(t, x) in a new tensor.
func (t *Tensor[T]) BinaryScalar(op BinaryOp, x T) (*Tensor[T], error) {
	return t.Copy(S).BinaryScalarInPlace(op, x)
}

// Add returns t + other.
func (t *Tensor[T]) Add(other *Tensor[T]) (*Tensor[T], error) { return t.Binary(OpAdd, other) }

// Sub returns t - other.
func (t *Tensor[T]) Sub(other *Tensor[T]) (*Tensor[T], error) { return t.Binary(OpSub, other) }

// Mul returns t * other elementwise.
func (t *Tensor[T]) Mul(other *Tensor[T]) (*Tensor[T], error) { return t.Binary(OpMul, other) }

// Div returns t / other elementwise.
func (t *Tensor[T]) Div(other *Tensor[T]) (*Tensor[T], error) { return t.Binary(OpDiv, other) }

// Minimum returns the elementwise minimum of t and other.
func (t *Tensor[T]) Minimum(other *Tensor[T]) (*Tensor[T], error) { return t.Binary(OpMin, other) }

// Maximum returns the elementwise maximum of t and other.
func (t *Tensor[T]) Maximum(other *Tensor[T]) (*Tensor[T], error) { return t.Binary(OpMax, other) }

// AddInPlace computes t += other.
func (t *Tensor[T]) AddInPlace(other *Tensor[T]) (*Tensor[T], error) {
	return t.BinaryInPlace(OpAdd, other)
}

// SubInPlace computes t -= other.
func (t *Tensor[T]) SubInPlace(other *Tensor[T]) (*Tensor[T], error) {
	return t.BinaryInPlace(OpSub, other)
}

// MulInPlace computes t *= other.
func (t *Tensor[T]) MulInPlace(other *Tensor[T]) (*Tensor[T], error) {
	return t.BinaryInPlace(OpMul, other)
}

// DivInPlace computes t /= other.
func (t *Tensor[T]) DivInPlace(other *Tensor[T]) (*Tensor[T], error) {
	return t.BinaryInPlace(OpDiv, other)
}

// AddScalar returns t + x.
func (t *Tensor[T]) AddScalar(x T) (*Tensor[T], error) { return t.BinaryScalar(OpAdd, x) }

// SubScalar returns t - x.
func (t *Tensor[T]) SubScalar(x T) (*Tensor[T], error) { return t.BinaryScalar(OpSub, x) }

// MulScalar returns t * x.
func (t *Tensor[T]) MulScalar(x T) (*Tensor[T], error) { return t.BinaryScalar(OpMul, x) }

// DivScalar returns t / x.
func (t *Tensor[T]) DivScalar(x T) (*Tensor[T], error) { return t.BinaryScalar(OpDiv, x) }
