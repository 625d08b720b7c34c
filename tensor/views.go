// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/strided/internal/tensor"
)

// View operations return tensors that share storage with their source. None
// of them moves data, except Reshape and Ravel when the strides cannot express
// the requested shape.

// Squeeze removes the given size 1 axes, or every size 1 axis when none are given.
func (t *Tensor[T]) Squeeze(axes ...int) (*Tensor[T], error) {
	l, err := t.layout.Squeeze(axes...)
	if err != nil {
		return nil, err
	}
	return t.view(l), nil
}

// Unsqueeze inserts a size 1 axis at position axis.
func (t *Tensor[T]) Unsqueeze(axis int) (*Tensor[T], error) {
	l, err := t.layout.Unsqueeze(axis)
	if err != nil {
		return nil, err
	}
	return t.view(l), nil
}

// Permute reorders the axes: axis i of the result is axis perm[i] of t.
func (t *Tensor[T]) Permute(perm ...int) (*Tensor[T], error) {
	l, err := t.layout.Permute(perm...)
	if err != nil {
		return nil, err
	}
	return t.view(l), nil
}

// MoveAxis moves axis src to position dst.
func (t *Tensor[T]) MoveAxis(src, dst int) (*Tensor[T], error) {
	l, err := t.layout.MoveAxis(src, dst)
	if err != nil {
		return nil, err
	}
	return t.view(l), nil
}

// SwapAxis exchanges axes a and b.
func (t *Tensor[T]) SwapAxis(a, b int) (*Tensor[T], error) {
	l, err := t.layout.SwapAxis(a, b)
	if err != nil {
		return nil, err
	}
	return t.view(l), nil
}

// Transpose reverses the axes.
func (t *Tensor[T]) Transpose() *Tensor[T] {
	return t.view(t.layout.Reverse())
}

// Narrow keeps the range [start, end) of axis.
//
// Example:
//
//	row, _ := x.Narrow(0, 1, 2) // shape [1, n]
func (t *Tensor[T]) Narrow(axis, start, end int) (*Tensor[T], error) {
	l, err := t.layout.Narrow(axis, true, start, end)
	if err != nil {
		return nil, err
	}
	return t.view(l), nil
}

// Select picks index i of axis and drops the axis.
func (t *Tensor[T]) Select(axis, i int) (*Tensor[T], error) {
	l, err := t.layout.Narrow(axis, false, i, i+1)
	if err != nil {
		return nil, err
	}
	return t.view(l), nil
}

// NarrowAll keeps the range [starts[k], ends[k]) of every axis k.
func (t *Tensor[T]) NarrowAll(starts, ends []int) (*Tensor[T], error) {
	l, err := t.layout.NarrowAll(true, starts, ends)
	if err != nil {
		return nil, err
	}
	return t.view(l), nil
}

// Expand repeats a size 1 axis size times without copying. The result is
// read-only: in-place operations on it fail.
func (t *Tensor[T]) Expand(axis, size int) (*Tensor[T], error) {
	l, err := t.layout.Expand(axis, size)
	if err != nil {
		return nil, err
	}
	return t.view(l), nil
}

// BroadcastTo views t with the given shape following NumPy broadcasting.
// The result is read-only when any axis was expanded.
func (t *Tensor[T]) BroadcastTo(shape Shape) (*Tensor[T], error) {
	l, err := t.layout.BroadcastTo(shape)
	if err != nil {
		return nil, err
	}
	return t.view(l), nil
}

// Reshape returns a tensor with the given shape whose elements, read in
// order, are those of t read in order. It is a view when the strides allow
// it and a fresh copy otherwise. S is treated as C.
func (t *Tensor[T]) Reshape(shape Shape, order Order) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.Size() != t.Size() {
		return nil, errors.Wrapf(ErrShapeMismatch, "reshape %v to %v", t.layout.Shape(), shape)
	}
	if order == S {
		order = C
	}
	if l, ok := t.layout.AttemptReshape(shape, order); ok {
		return t.view(l), nil
	}
	klog.V(5).Infof("tensor: reshape %v to %v (%s) copies", t.layout, shape, order)
	c := t.Copy(order)
	c.layout = tensor.DenseLayout(shape, 0, order)
	return c, nil
}

// Flatten returns a new 1-D tensor holding the elements of t in order.
func (t *Tensor[T]) Flatten(order Order) *Tensor[T] {
	if order == S {
		order = C
	}
	c := t.Copy(order)
	c.layout = tensor.DenseLayout(Shape{t.Size()}, 0, order)
	return c
}

// Ravel is Flatten without the copy when the strides allow it.
func (t *Tensor[T]) Ravel(order Order) *Tensor[T] {
	// A 1-D reshape of a valid tensor cannot fail.
	r, _ := t.Reshape(Shape{t.Size()}, order)
	return r
}
