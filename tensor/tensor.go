// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/born-ml/strided/internal/backend/cpu"
	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/tensor"
)

// Core types re-exported from the internal packages.
type (
	// Num is the set of supported element types.
	Num = dtype.Num

	// Float is the set of floating point element types.
	Float = dtype.Float

	// DataType identifies an element type at runtime.
	DataType = dtype.DataType

	// Shape represents the dimensions of a tensor.
	Shape = tensor.Shape

	// Order is a traversal order: C (row-major), F (column-major) or S
	// (storage order).
	Order = tensor.Order

	// StrideLayout maps multi-indices to storage offsets.
	StrideLayout = tensor.StrideLayout

	// Storage is a flat, reference-counted element buffer.
	Storage[T Num] = tensor.Storage[T]

	// Backend executes the kernels of a tensor.
	Backend = cpu.CPUBackend
)

// Element types.
const (
	Uint8   = dtype.Uint8
	Int32   = dtype.Int32
	Int64   = dtype.Int64
	Float32 = dtype.Float32
	Float64 = dtype.Float64
)

// Traversal orders.
const (
	C = tensor.C
	F = tensor.F
	S = tensor.S
)

// Errors returned by tensor operations. Test with errors.Is.
var (
	ErrInvalidShape         = tensor.ErrInvalidShape
	ErrRankMismatch         = tensor.ErrRankMismatch
	ErrOutOfBounds          = tensor.ErrOutOfBounds
	ErrShapeMismatch        = tensor.ErrShapeMismatch
	ErrUnsupportedOperation = tensor.ErrUnsupportedOperation
	ErrDimensionMismatch    = tensor.ErrDimensionMismatch
	ErrSingular             = tensor.ErrSingular
)

// Tensor is a typed view over a storage. Views created by Narrow, Permute,
// Transpose and friends share the storage of their source, so writes through
// one are visible through the other.
type Tensor[T Num] struct {
	layout   tensor.StrideLayout
	storage  *tensor.Storage[T]
	backend  *Backend
	released atomic.Bool
}

func newTensor[T Num](s *tensor.Storage[T], l tensor.StrideLayout, b *Backend) *Tensor[T] {
	return &Tensor[T]{layout: l, storage: s, backend: b}
}

// view returns a tensor sharing the receiver's storage through l.
func (t *Tensor[T]) view(l tensor.StrideLayout) *Tensor[T] {
	return newTensor(t.storage.Retain(), l, t.backend)
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor[T]) Shape() Shape { return t.layout.Shape().Clone() }

// Rank returns the number of axes.
func (t *Tensor[T]) Rank() int { return t.layout.Rank() }

// Dim returns the extent of axis i; negative i counts from the end.
func (t *Tensor[T]) Dim(i int) int { return t.layout.Dim(i) }

// Size returns the number of elements.
func (t *Tensor[T]) Size() int { return t.layout.Size() }

// DType returns the element type.
func (t *Tensor[T]) DType() DataType { return dtype.Of[T]() }

// Layout returns the stride layout.
func (t *Tensor[T]) Layout() StrideLayout { return t.layout }

// Storage returns the underlying storage.
func (t *Tensor[T]) Storage() *Storage[T] { return t.storage }

// Backend returns the backend executing this tensor's operations.
func (t *Tensor[T]) Backend() *Backend { return t.backend }

// Release drops this tensor's reference on its storage. Only the first call
// on a tensor has an effect.
func (t *Tensor[T]) Release() {
	if !t.released.Swap(true) {
		t.storage.Release()
	}
}

// Get returns the element at idx.
func (t *Tensor[T]) Get(idx ...int) (T, error) {
	p, err := t.layout.Pointer(idx...)
	if err != nil {
		return 0, err
	}
	return t.storage.Get(p), nil
}

// Set writes v at idx.
func (t *Tensor[T]) Set(v T, idx ...int) error {
	p, err := t.layout.Pointer(idx...)
	if err != nil {
		return err
	}
	t.storage.Set(p, v)
	return nil
}

// Inc adds v to the element at idx.
func (t *Tensor[T]) Inc(v T, idx ...int) error {
	p, err := t.layout.Pointer(idx...)
	if err != nil {
		return err
	}
	t.storage.Inc(p, v)
	return nil
}

// At returns the element at position pos of the row-major flattening.
func (t *Tensor[T]) At(pos int) (T, error) {
	idx, err := t.layout.Shape().IndexOf(tensor.C, pos)
	if err != nil {
		return 0, err
	}
	return t.Get(idx...)
}

// Item returns the only element of a tensor of size 1.
func (t *Tensor[T]) Item() (T, error) {
	if t.Size() != 1 {
		return 0, errors.Wrapf(ErrShapeMismatch, "item of tensor with shape %v", t.layout.Shape())
	}
	return t.storage.Get(t.layout.Offset()), nil
}

// ToSlice returns the elements in the given order. S is storage order.
func (t *Tensor[T]) ToSlice(order Order) []T {
	data := t.storage.Data()
	if f, ok := t.layout.ComputeCompact(order, true); ok {
		return slices.Clone(data[f.Offset() : f.Offset()+t.Size()])
	}
	out := make([]T, 0, t.Size())
	for c := range tensor.Chunks(t.layout, order) {
		for i, p := 0, c.Offset; i < c.Size; i, p = i+1, p+c.Step {
			out = append(out, data[p])
		}
	}
	return out
}

// String returns a compact description followed by up to 16 elements in C order.
func (t *Tensor[T]) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tensor[%s]%v[", t.DType(), t.layout.Shape())
	k := 0
	for p := range tensor.Pointers(t.layout, tensor.C) {
		if k == 16 {
			sb.WriteString(" ...")
			break
		}
		if k > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprint(&sb, t.storage.Get(p))
		k++
	}
	sb.WriteByte(']')
	return sb.String()
}

// DeepEqual reports whether both tensors have the same shape and every pair
// of elements differs by at most tol. NaNs compare equal to each other.
func (t *Tensor[T]) DeepEqual(other *Tensor[T], tol float64) bool {
	if !t.layout.Shape().Equal(other.layout.Shape()) {
		return false
	}
	a, b := t.ToSlice(C), other.ToSlice(C)
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		if dtype.IsNaN(x) || dtype.IsNaN(y) {
			if dtype.IsNaN(x) != dtype.IsNaN(y) {
				return false
			}
			continue
		}
		if x != y && !(x-y <= tol && y-x <= tol) {
			return false
		}
	}
	return true
}
