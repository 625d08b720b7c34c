// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/tensor"
)

// alloc returns a zeroed C-ordered tensor of the given shape.
func alloc[T Num](shape Shape, b *Backend) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return newTensor(tensor.NewStorage[T](shape.Size()), tensor.DenseLayout(shape, 0, C), b), nil
}

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	x, err := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
func Zeros[T Num](shape Shape, b *Backend) (*Tensor[T], error) {
	return alloc[T](shape, b)
}

// Full creates a tensor filled with value.
func Full[T Num](shape Shape, value T, b *Backend) (*Tensor[T], error) {
	t, err := alloc[T](shape, b)
	if err != nil {
		return nil, err
	}
	t.storage.Fill(value)
	return t, nil
}

// Seq creates a tensor whose flattening in order is 0, 1, 2, ...
//
// Example:
//
//	x, _ := tensor.Seq[float64](tensor.Shape{2, 3}, tensor.C, backend)
//	// [[0 1 2] [3 4 5]]
func Seq[T Num](shape Shape, order Order, b *Backend) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if order == S {
		order = C
	}
	s := tensor.NewStorage[T](shape.Size())
	for i := range s.Data() {
		s.Set(i, T(i))
	}
	return newTensor(s, tensor.DenseLayout(shape, 0, order), b), nil
}

// Random creates a tensor with values drawn uniformly from [0, 1). The same
// seed always yields the same values.
func Random[T Float](shape Shape, seed uint64, b *Backend) (*Tensor[T], error) {
	t, err := alloc[T](shape, b)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // G404: reproducible numeric data, not secrets
	data := t.storage.Data()
	for i := range data {
		data[i] = T(rng.Float64())
	}
	return t, nil
}

// Normal creates a tensor with values drawn from N(mean, std²).
func Normal[T Float](shape Shape, mean, std float64, seed uint64, b *Backend) (*Tensor[T], error) {
	t, err := alloc[T](shape, b)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // G404: reproducible numeric data, not secrets
	data := t.storage.Data()
	for i := range data {
		data[i] = T(mean + std*rng.NormFloat64())
	}
	return t, nil
}

// FromSlice creates a tensor holding a copy of data, read in the given order.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, tensor.C, backend)
func FromSlice[T Num](data []T, shape Shape, order Order, b *Backend) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.Size() {
		return nil, errors.Wrapf(ErrShapeMismatch, "%d values for shape %v", len(data), shape)
	}
	if order == S {
		order = C
	}
	s := tensor.StorageFrom(append([]T(nil), data...))
	return newTensor(s, tensor.DenseLayout(shape, 0, order), b), nil
}

// Scalar creates a rank 0 tensor.
func Scalar[T Num](v T, b *Backend) *Tensor[T] {
	return newTensor(tensor.StorageFrom([]T{v}), tensor.ScalarLayout(0), b)
}

// Eye creates an n×n identity matrix.
func Eye[T Num](n int, b *Backend) (*Tensor[T], error) {
	t, err := alloc[T](Shape{n, n}, b)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		t.storage.Set(i*n+i, dtype.One[T]())
	}
	return t, nil
}

// FromLayout wraps an existing storage with a layout. Every element the layout
// addresses must lie inside the storage.
func FromLayout[T Num](s *Storage[T], l StrideLayout, b *Backend) (*Tensor[T], error) {
	if err := l.Shape().Validate(); err != nil {
		return nil, err
	}
	lo, hi := l.Offset(), l.Offset()
	for i, st := range l.Strides() {
		span := st * (l.Dim(i) - 1)
		if span < 0 {
			lo += span
		} else {
			hi += span
		}
	}
	if lo < 0 || hi >= s.Len() {
		return nil, errors.Wrapf(ErrOutOfBounds, "layout %v addresses [%d, %d] of storage with %d elements",
			l, lo, hi, s.Len())
	}
	return newTensor(s.Retain(), l, b), nil
}
