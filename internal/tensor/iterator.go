package tensor

import "iter"

// Chunk is one inner sweep of a traversal: Size elements starting at Offset,
// Step apart.
type Chunk struct {
	Offset int
	Size   int
	Step   int
}

// DensePointers yields offset, offset+1, ..., offset+size-1.
func DensePointers(offset, size int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for p := offset; p < offset+size; p++ {
			if !yield(p) {
				return
			}
		}
	}
}

// ScalarPointers yields a single pointer.
func ScalarPointers(offset int) iter.Seq[int] {
	return func(yield func(int) bool) {
		yield(offset)
	}
}

// Pointers yields the storage position of every element of layout in order.
// Dense layouts matching the order take the plain pointer walk.
func Pointers(layout StrideLayout, order Order) iter.Seq[int] {
	switch {
	case layout.Size() == 0:
		return func(func(int) bool) {}
	case layout.Rank() == 0:
		return ScalarPointers(layout.Offset())
	case order == C && layout.IsCOrdered(), order == F && layout.IsFOrdered():
		return DensePointers(layout.Offset(), layout.Size())
	case order == S && (layout.IsCOrdered() || layout.IsFOrdered()):
		return DensePointers(layout.Offset(), layout.Size())
	default:
		return StridePointers(layout, order)
	}
}

// StridePointers walks an arbitrary strided layout without materializing the
// outer offsets.
func StridePointers(layout StrideLayout, order Order) iter.Seq[int] {
	return func(yield func(int) bool) {
		for c := range Chunks(layout, order) {
			p := c.Offset
			for i := 0; i < c.Size; i++ {
				if !yield(p) {
					return
				}
				p += c.Step
			}
		}
	}
}

// Chunks yields one Chunk per inner loop of the compacted traversal.
func Chunks(layout StrideLayout, order Order) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		if layout.Size() == 0 {
			return
		}
		f := layout.ComputeFortranLayout(order, true)
		if f.Rank() == 0 {
			yield(Chunk{Offset: f.offset, Size: 1, Step: 1})
			return
		}
		size, step := f.shape[0], f.strides[0]
		dims, strides := f.shape[1:], f.strides[1:]
		idx := make([]int, len(dims))
		ptr := f.offset
		for {
			if !yield(Chunk{Offset: ptr, Size: size, Step: step}) {
				return
			}
			k := 0
			for ; k < len(idx); k++ {
				idx[k]++
				ptr += strides[k]
				if idx[k] < dims[k] {
					break
				}
				ptr -= idx[k] * strides[k]
				idx[k] = 0
			}
			if k == len(idx) {
				return
			}
		}
	}
}
