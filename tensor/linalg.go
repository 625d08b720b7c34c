// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/pkg/errors"

	"github.com/born-ml/strided/internal/backend/cpu"
	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/tensor"
)

// Dot returns the inner product of two vectors of equal length.
func (t *Tensor[T]) Dot(other *Tensor[T]) (T, error) {
	return cpu.Dot(t.backend, t.storage, t.layout, other.storage, other.layout)
}

// MV returns the matrix-vector product t·x for t of shape [m, n] and x of
// shape [n].
func (t *Tensor[T]) MV(x *Tensor[T]) (*Tensor[T], error) {
	s, l, err := cpu.MatVec(t.backend, t.storage, t.layout, x.storage, x.layout)
	if err != nil {
		return nil, err
	}
	return newTensor(s, l, t.backend), nil
}

// MM returns the matrix product t·other for t of shape [m, k] and other of
// shape [k, n]. Large products run tiled on the backend's worker pool.
func (t *Tensor[T]) MM(other *Tensor[T]) (*Tensor[T], error) {
	s, l, err := cpu.MatMul(t.backend, t.storage, t.layout, other.storage, other.layout)
	if err != nil {
		return nil, err
	}
	return newTensor(s, l, t.backend), nil
}

// BatchMM multiplies stacks of matrices. The last two axes are the matrix
// axes; leading batch axes broadcast against each other and a rank 2 operand
// is shared by every batch.
func (t *Tensor[T]) BatchMM(other *Tensor[T]) (*Tensor[T], error) {
	s, l, err := cpu.BatchMatMul(t.backend, t.storage, t.layout, other.storage, other.layout)
	if err != nil {
		return nil, err
	}
	return newTensor(s, l, t.backend), nil
}

// fromFloat64 wraps row-major float64 values as a C-ordered tensor of kind T.
func fromFloat64[T Num](data []float64, shape Shape, b *Backend) *Tensor[T] {
	s := tensor.NewStorage[T](len(data))
	out := s.Data()
	for i, v := range data {
		out[i] = dtype.FromFloat64[T](v)
	}
	return newTensor(s, tensor.DenseLayout(shape, 0, C), b)
}

// rhs reads a right-hand side of shape [rows] or [rows, k] as a row-major
// float64 matrix and reports its column count.
func rhs[T Num](b *Tensor[T], rows int) ([]float64, int, error) {
	switch {
	case b.Rank() == 1 && b.Dim(0) == rows:
		return cpu.DenseFloat64(b.storage, b.layout), 1, nil
	case b.Rank() == 2 && b.Dim(0) == rows:
		return cpu.DenseFloat64(b.storage, b.layout), b.Dim(1), nil
	default:
		return nil, 0, errors.Wrapf(ErrDimensionMismatch, "right-hand side %v for %d rows", b.layout.Shape(), rows)
	}
}

// solution shapes x like the right-hand side b: [n] or [n, k].
func solution[T Num](x []float64, n int, b *Tensor[T]) *Tensor[T] {
	if b.Rank() == 1 {
		return fromFloat64[T](x, Shape{n}, b.backend)
	}
	return fromFloat64[T](x, Shape{n, b.Dim(1)}, b.backend)
}

// Cholesky holds the factorization A = L·Lᵀ of a symmetric positive definite
// matrix.
type Cholesky[T Num] struct {
	d       *cpu.Cholesky
	backend *Backend
}

// Cholesky factorizes the square float matrix t.
func (t *Tensor[T]) Cholesky() (*Cholesky[T], error) {
	d, err := cpu.NewCholesky(t.storage, t.layout)
	if err != nil {
		return nil, err
	}
	return &Cholesky[T]{d: d, backend: t.backend}, nil
}

// IsSPD reports whether the factorized matrix was symmetric positive definite.
func (c *Cholesky[T]) IsSPD() bool { return c.d.IsSPD() }

// L returns the lower triangular factor.
func (c *Cholesky[T]) L() *Tensor[T] {
	n := c.d.N()
	return fromFloat64[T](c.d.L(), Shape{n, n}, c.backend)
}

// Solve returns X with A·X = b for b of shape [n] or [n, k].
func (c *Cholesky[T]) Solve(b *Tensor[T]) (*Tensor[T], error) {
	data, k, err := rhs(b, c.d.N())
	if err != nil {
		return nil, err
	}
	x, err := c.d.Solve(data, k)
	if err != nil {
		return nil, err
	}
	return solution(x, c.d.N(), b), nil
}

// QR holds the Householder factorization A = Q·R of a matrix with at least
// as many rows as columns.
type QR[T Num] struct {
	d       *cpu.QR
	backend *Backend
}

// QR factorizes the float matrix t of shape [m, n] with m ≥ n.
func (t *Tensor[T]) QR() (*QR[T], error) {
	d, err := cpu.NewQR(t.storage, t.layout)
	if err != nil {
		return nil, err
	}
	return &QR[T]{d: d, backend: t.backend}, nil
}

// IsFullRank reports whether R has no negligible diagonal entry.
func (q *QR[T]) IsFullRank() bool { return q.d.IsFullRank() }

// Q returns the [m, n] factor with orthonormal columns.
func (q *QR[T]) Q() *Tensor[T] {
	m, n := q.d.Dims()
	return fromFloat64[T](q.d.Q(), Shape{m, n}, q.backend)
}

// R returns the [n, n] upper triangular factor.
func (q *QR[T]) R() *Tensor[T] {
	_, n := q.d.Dims()
	return fromFloat64[T](q.d.R(), Shape{n, n}, q.backend)
}

// Solve returns the least squares solution X of A·X = b for b of shape [m]
// or [m, k].
func (q *QR[T]) Solve(b *Tensor[T]) (*Tensor[T], error) {
	m, n := q.d.Dims()
	data, k, err := rhs(b, m)
	if err != nil {
		return nil, err
	}
	x, err := q.d.Solve(data, k)
	if err != nil {
		return nil, err
	}
	return solution(x, n, b), nil
}

// Solve returns X with t·X = b. Square systems are solved exactly and tall
// ones in the least squares sense, both through a QR factorization.
//
// Example:
//
//	a, _ := tensor.FromSlice([]float64{4, 1, 1, 3}, tensor.Shape{2, 2}, tensor.C, backend)
//	b, _ := tensor.FromSlice([]float64{1, 2}, tensor.Shape{2}, tensor.C, backend)
//	x, err := a.Solve(b)
func (t *Tensor[T]) Solve(b *Tensor[T]) (*Tensor[T], error) {
	q, err := t.QR()
	if err != nil {
		return nil, err
	}
	return q.Solve(b)
}
