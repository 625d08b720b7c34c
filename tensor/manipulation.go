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

// Copy returns a compact copy of t laid out in order. With S the copy keeps
// an F-ordered source in F order and uses C otherwise.
func (t *Tensor[T]) Copy(order Order) *Tensor[T] {
	s, l := cpu.Copy(t.backend, t.storage, t.layout, order)
	return newTensor(s, l, t.backend)
}

// CopyFrom overwrites the elements of t with those of src broadcast to t's
// shape.
func (t *Tensor[T]) CopyFrom(src *Tensor[T]) error {
	sl, err := src.layout.BroadcastTo(t.layout.Shape())
	if err != nil {
		return err
	}
	return cpu.CopyInto(t.backend, t.storage, t.layout, src.storage, sl)
}

// Take gathers the given indices along axis into a new tensor. The result has
// len(indices) elements on axis.
//
// Example:
//
//	rows, _ := x.Take(0, 2, 0) // rows 2 and 0 of x
func (t *Tensor[T]) Take(axis int, indices ...int) (*Tensor[T], error) {
	if axis < 0 {
		axis += t.Rank()
	}
	if axis < 0 || axis >= t.Rank() {
		return nil, errors.Wrapf(ErrOutOfBounds, "take axis %d for rank %d", axis, t.Rank())
	}
	shape := t.Shape()
	shape[axis] = len(indices)
	out, err := alloc[T](shape, t.backend)
	if err != nil {
		return nil, err
	}
	for k, i := range indices {
		src, err := t.layout.Narrow(axis, true, i, i+1)
		if err != nil {
			return nil, err
		}
		dst, err := out.layout.Narrow(axis, true, k, k+1)
		if err != nil {
			return nil, err
		}
		if err := cpu.CopyInto(t.backend, out.storage, dst, t.storage, src); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Concat joins tensors along axis. All inputs must have the same rank and
// agree on every other axis.
func Concat[T Num](axis int, ts ...*Tensor[T]) (*Tensor[T], error) {
	if len(ts) == 0 {
		return nil, errors.Wrap(ErrInvalidShape, "concat of no tensors")
	}
	first := ts[0]
	if axis < 0 {
		axis += first.Rank()
	}
	if axis < 0 || axis >= first.Rank() {
		return nil, errors.Wrapf(ErrOutOfBounds, "concat axis %d for rank %d", axis, first.Rank())
	}
	shape := first.Shape()
	shape[axis] = 0
	for _, t := range ts {
		if t.Rank() != first.Rank() {
			return nil, errors.Wrapf(ErrRankMismatch, "concat %v with %v", first.layout.Shape(), t.layout.Shape())
		}
		for i := range shape {
			if i != axis && t.Dim(i) != shape[i] {
				return nil, errors.Wrapf(ErrShapeMismatch, "concat %v with %v on axis %d",
					first.layout.Shape(), t.layout.Shape(), axis)
			}
		}
		shape[axis] += t.Dim(axis)
	}

	out, err := alloc[T](shape, first.backend)
	if err != nil {
		return nil, err
	}
	start := 0
	for _, t := range ts {
		dst, err := out.layout.Narrow(axis, true, start, start+t.Dim(axis))
		if err != nil {
			return nil, err
		}
		if err := cpu.CopyInto(out.backend, out.storage, dst, t.storage, t.layout); err != nil {
			return nil, err
		}
		start += t.Dim(axis)
	}
	return out, nil
}

// Stack joins tensors of identical shape along a new axis.
func Stack[T Num](axis int, ts ...*Tensor[T]) (*Tensor[T], error) {
	if len(ts) == 0 {
		return nil, errors.Wrap(ErrInvalidShape, "stack of no tensors")
	}
	views := make([]*Tensor[T], len(ts))
	for i, t := range ts {
		if !t.layout.Shape().Equal(ts[0].layout.Shape()) {
			return nil, errors.Wrapf(ErrShapeMismatch, "stack %v with %v", ts[0].layout.Shape(), t.layout.Shape())
		}
		v, err := t.Unsqueeze(axis)
		if err != nil {
			return nil, err
		}
		views[i] = v
	}
	return Concat(axis, views...)
}

// Cast converts every element of t to U into a new C-ordered tensor. Float to
// integer conversions truncate toward zero.
func Cast[U, T Num](t *Tensor[T]) *Tensor[U] {
	out := tensor.NewStorage[U](t.Size())
	data := out.Data()
	k := 0
	for p := range tensor.Pointers(t.layout, C) {
		data[k] = dtype.Cast[U](t.storage.Get(p))
		k++
	}
	return newTensor(out, tensor.DenseLayout(t.layout.Shape(), 0, C), t.backend)
}
