package tensor

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/simd"
)

// Storage is a flat, typed, reference-counted buffer. It is shared by every
// view created over it: a write through any view is visible to all of them.
// Storage provides no synchronization for concurrent writers.
type Storage[T dtype.Num] struct {
	data     []T
	refCount atomic.Int32
}

// NewStorage allocates a zeroed storage of size elements with refCount = 1.
func NewStorage[T dtype.Num](size int) *Storage[T] {
	s := &Storage[T]{data: make([]T, size)}
	s.refCount.Store(1)
	return s
}

// StorageFrom wraps data without copying.
func StorageFrom[T dtype.Num](data []T) *Storage[T] {
	s := &Storage[T]{data: data}
	s.refCount.Store(1)
	return s
}

// DType returns the element kind.
func (s *Storage[T]) DType() dtype.DataType { return dtype.Of[T]() }

// Len returns the number of elements.
func (s *Storage[T]) Len() int { return len(s.data) }

// Data returns the backing slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (s *Storage[T]) Data() []T { return s.data }

// Get returns the element at ptr.
func (s *Storage[T]) Get(ptr int) T { return s.data[ptr] }

// Set stores v at ptr.
func (s *Storage[T]) Set(ptr int, v T) { s.data[ptr] = v }

// Inc adds v to the element at ptr.
func (s *Storage[T]) Inc(ptr int, v T) { s.data[ptr] += v }

// Fill sets every element to v.
func (s *Storage[T]) Fill(v T) {
	for i := range s.data {
		s.data[i] = v
	}
}

// LoadLanes loads v.N contiguous elements starting at ptr.
func (s *Storage[T]) LoadLanes(v *simd.Vec[T], ptr int) { v.Load(s.data, ptr) }

// StoreLanes stores v.N contiguous elements starting at ptr.
func (s *Storage[T]) StoreLanes(v *simd.Vec[T], ptr int) { v.Store(s.data, ptr) }

// GatherLanes loads lane k from ptr+index[k].
func (s *Storage[T]) GatherLanes(v *simd.Vec[T], ptr int, index []int) {
	v.Gather(s.data, ptr, index)
}

// ScatterLanes stores lane k to ptr+index[k].
func (s *Storage[T]) ScatterLanes(v *simd.Vec[T], ptr int, index []int) {
	v.Scatter(s.data, ptr, index)
}

// Retain increments the reference count (a new view shares the buffer).
// Retaining a released storage panics.
func (s *Storage[T]) Retain() *Storage[T] {
	for {
		n := s.refCount.Load()
		if n <= 0 {
			panic(errors.New("tensor: retain of a released storage"))
		}
		if s.refCount.CompareAndSwap(n, n+1) {
			return s
		}
	}
}

// Release decrements the reference count and drops the buffer when it reaches 0.
// Releasing an already released storage is a no-op.
func (s *Storage[T]) Release() {
	for {
		n := s.refCount.Load()
		if n <= 0 {
			return
		}
		if s.refCount.CompareAndSwap(n, n-1) {
			if n == 1 {
				s.data = nil
			}
			return
		}
	}
}

// RefCount returns the current number of references.
func (s *Storage[T]) RefCount() int {
	return int(s.refCount.Load())
}

// IsUnique returns true if this storage has a single reference.
func (s *Storage[T]) IsUnique() bool {
	return s.refCount.Load() == 1
}
