package simd

import "github.com/born-ml/strided/internal/dtype"

// Vec is a vector register holding N active lanes of T.
type Vec[T dtype.Num] struct {
	N int
	v [MaxLanes]T
}

// NewVec returns a zeroed vector with n active lanes.
func NewVec[T dtype.Num](n int) Vec[T] {
	if n > MaxLanes {
		n = MaxLanes
	}
	return Vec[T]{N: n}
}

// Broadcast returns a vector with every lane set to x.
func Broadcast[T dtype.Num](n int, x T) Vec[T] {
	v := NewVec[T](n)
	for i := range v.v[:v.N] {
		v.v[i] = x
	}
	return v
}

// Lane returns lane i.
func (v *Vec[T]) Lane(i int) T {
	return v.v[i]
}

// Lanes returns the active lanes as a slice aliasing the register.
func (v *Vec[T]) Lanes() []T {
	return v.v[:v.N]
}

// Load fills the vector from contiguous memory starting at src[off].
func (v *Vec[T]) Load(src []T, off int) {
	copy(v.v[:v.N], src[off:off+v.N])
}

// Store writes the vector to contiguous memory starting at dst[off].
func (v *Vec[T]) Store(dst []T, off int) {
	copy(dst[off:off+v.N], v.v[:v.N])
}

// Gather loads lane i from src[off+offsets[i]].
func (v *Vec[T]) Gather(src []T, off int, offsets []int) {
	lanes := v.v[:v.N]
	offsets = offsets[:len(lanes)]
	for i := range lanes {
		lanes[i] = src[off+offsets[i]]
	}
}

// Scatter stores lane i to dst[off+offsets[i]].
func (v *Vec[T]) Scatter(dst []T, off int, offsets []int) {
	lanes := v.v[:v.N]
	offsets = offsets[:len(lanes)]
	for i := range lanes {
		dst[off+offsets[i]] = lanes[i]
	}
}

// Map applies f to every lane.
func (v *Vec[T]) Map(f func(T) T) {
	lanes := v.v[:v.N]
	for i := range lanes {
		lanes[i] = f(lanes[i])
	}
}

// Zip combines v with w lanewise: v[i] = f(v[i], w[i]).
func (v *Vec[T]) Zip(w *Vec[T], f func(T, T) T) {
	lanes := v.v[:v.N]
	other := w.v[:len(lanes)]
	for i := range lanes {
		lanes[i] = f(lanes[i], other[i])
	}
}

// ZipScalar combines every lane with x: v[i] = f(v[i], x).
func (v *Vec[T]) ZipScalar(x T, f func(T, T) T) {
	lanes := v.v[:v.N]
	for i := range lanes {
		lanes[i] = f(lanes[i], x)
	}
}

// Fold reduces the lanes horizontally starting from init.
func (v *Vec[T]) Fold(init T, f func(T, T) T) T {
	acc := init
	for _, x := range v.v[:v.N] {
		acc = f(acc, x)
	}
	return acc
}
