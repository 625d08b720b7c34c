package tensor

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
)

// StrideLayout is the addressing contract for a storage: element (i0, i1, ...)
// lives at offset + Σ ik*strides[k]. A layout never owns data; many layouts may
// describe views over the same storage.
type StrideLayout struct {
	shape   Shape
	offset  int
	strides []int
}

// DenseLayout builds a compact layout with C or F default strides.
func DenseLayout(shape Shape, offset int, order Order) StrideLayout {
	return StrideLayout{
		shape:   shape.Clone(),
		offset:  offset,
		strides: shape.Strides(order),
	}
}

// NewLayout builds a layout from raw strides.
func NewLayout(shape Shape, offset int, strides []int) (StrideLayout, error) {
	if len(strides) != len(shape) {
		return StrideLayout{}, errors.Wrapf(ErrRankMismatch,
			"strides %v do not match shape %v", strides, shape)
	}
	return StrideLayout{
		shape:   shape.Clone(),
		offset:  offset,
		strides: slices.Clone(strides),
	}, nil
}

// ScalarLayout returns a rank 0 layout addressing a single element.
func ScalarLayout(offset int) StrideLayout {
	return StrideLayout{shape: Shape{}, offset: offset, strides: []int{}}
}

// Shape returns the shape. The returned slice must not be modified.
func (l StrideLayout) Shape() Shape { return l.shape }

// Offset returns the storage position of the first element.
func (l StrideLayout) Offset() int { return l.offset }

// Strides returns the strides. The returned slice must not be modified.
func (l StrideLayout) Strides() []int { return l.strides }

// Stride returns the stride of axis i; negative i indexes from the end.
func (l StrideLayout) Stride(i int) int {
	if i < 0 {
		i += len(l.strides)
	}
	return l.strides[i]
}

// Dim returns the extent of axis i; negative i indexes from the end.
func (l StrideLayout) Dim(i int) int { return l.shape.Dim(i) }

// Rank returns the number of axes.
func (l StrideLayout) Rank() int { return len(l.shape) }

// Size returns the number of addressed elements.
func (l StrideLayout) Size() int { return l.shape.Size() }

// IsCOrdered reports whether strides equal the shape's row-major strides.
func (l StrideLayout) IsCOrdered() bool {
	return slices.Equal(l.strides, l.shape.Strides(C))
}

// IsFOrdered reports whether strides equal the shape's column-major strides.
func (l StrideLayout) IsFOrdered() bool {
	return slices.Equal(l.strides, l.shape.Strides(F))
}

// IsDense reports whether the layout is compact in the given order.
// S accepts either dense order.
func (l StrideLayout) IsDense(order Order) bool {
	switch order {
	case C:
		return l.IsCOrdered()
	case F:
		return l.IsFOrdered()
	default:
		return l.IsCOrdered() || l.IsFOrdered()
	}
}

// Pointer returns the storage position of the element at idx.
func (l StrideLayout) Pointer(idx ...int) (int, error) {
	if len(idx) != len(l.shape) {
		return 0, errors.Wrapf(ErrRankMismatch, "expected %d indices, got %d", len(l.shape), len(idx))
	}
	ptr := l.offset
	for i, v := range idx {
		if v < 0 || v >= l.shape[i] {
			return 0, errors.Wrapf(ErrOutOfBounds, "index %d for axis %d of size %d", v, i, l.shape[i])
		}
		ptr += v * l.strides[i]
	}
	return ptr, nil
}

// String implements fmt.Stringer.
func (l StrideLayout) String() string {
	return fmt.Sprintf("StrideLayout{shape:%v, offset:%d, strides:%v}", l.shape, l.offset, l.strides)
}

// Equal reports structural equality.
func (l StrideLayout) Equal(o StrideLayout) bool {
	return l.offset == o.offset && l.shape.Equal(o.shape) && slices.Equal(l.strides, o.strides)
}

// IsBroadcast reports whether two distinct indices address the same element
// through a zero stride. Such layouts are read-only.
func (l StrideLayout) IsBroadcast() bool {
	for i, s := range l.strides {
		if s == 0 && l.shape[i] > 1 {
			return true
		}
	}
	return false
}

// Squeeze removes size 1 axes. Without arguments every size 1 axis is removed;
// otherwise only the named axes, which must have size 1.
func (l StrideLayout) Squeeze(axes ...int) (StrideLayout, error) {
	drop := make([]bool, l.Rank())
	if len(axes) == 0 {
		for i, d := range l.shape {
			drop[i] = d == 1
		}
	}
	for _, a := range axes {
		axis, err := checkAxis(a, l.Rank())
		if err != nil {
			return StrideLayout{}, err
		}
		if l.shape[axis] != 1 {
			return StrideLayout{}, errors.Wrapf(ErrShapeMismatch,
				"cannot squeeze axis %d of size %d", axis, l.shape[axis])
		}
		drop[axis] = true
	}
	shape := make(Shape, 0, l.Rank())
	strides := make([]int, 0, l.Rank())
	for i := range l.shape {
		if !drop[i] {
			shape = append(shape, l.shape[i])
			strides = append(strides, l.strides[i])
		}
	}
	return StrideLayout{shape: shape, offset: l.offset, strides: strides}, nil
}

// Unsqueeze inserts a size 1 axis at position axis (0..rank).
func (l StrideLayout) Unsqueeze(axis int) (StrideLayout, error) {
	if axis < 0 {
		axis += l.Rank() + 1
	}
	if axis < 0 || axis > l.Rank() {
		return StrideLayout{}, errors.Wrapf(ErrOutOfBounds, "unsqueeze axis %d for rank %d", axis, l.Rank())
	}
	// Pick the stride a dense layout would use so compactness is preserved.
	stride := 1
	if axis < l.Rank() {
		stride = l.strides[axis] * l.shape[axis]
	}
	shape := slices.Insert(l.shape.Clone(), axis, 1)
	strides := slices.Insert(slices.Clone(l.strides), axis, stride)
	return StrideLayout{shape: shape, offset: l.offset, strides: strides}, nil
}

// Permute reorders the axes: axis i of the result is axis perm[i] of l.
func (l StrideLayout) Permute(perm ...int) (StrideLayout, error) {
	if len(perm) != l.Rank() {
		return StrideLayout{}, errors.Wrapf(ErrRankMismatch, "permutation %v for rank %d", perm, l.Rank())
	}
	seen := make([]bool, l.Rank())
	shape := make(Shape, l.Rank())
	strides := make([]int, l.Rank())
	for i, p := range perm {
		axis, err := checkAxis(p, l.Rank())
		if err != nil {
			return StrideLayout{}, err
		}
		if seen[axis] {
			return StrideLayout{}, errors.Wrapf(ErrOutOfBounds, "duplicate axis %d in permutation %v", axis, perm)
		}
		seen[axis] = true
		shape[i] = l.shape[axis]
		strides[i] = l.strides[axis]
	}
	return StrideLayout{shape: shape, offset: l.offset, strides: strides}, nil
}

// MoveAxis moves axis src to position dst, shifting the others.
func (l StrideLayout) MoveAxis(src, dst int) (StrideLayout, error) {
	src, err := checkAxis(src, l.Rank())
	if err != nil {
		return StrideLayout{}, err
	}
	if dst, err = checkAxis(dst, l.Rank()); err != nil {
		return StrideLayout{}, err
	}
	perm := make([]int, 0, l.Rank())
	for i := 0; i < l.Rank(); i++ {
		if i != src {
			perm = append(perm, i)
		}
	}
	perm = slices.Insert(perm, dst, src)
	return l.Permute(perm...)
}

// SwapAxis exchanges two axes.
func (l StrideLayout) SwapAxis(a, b int) (StrideLayout, error) {
	a, err := checkAxis(a, l.Rank())
	if err != nil {
		return StrideLayout{}, err
	}
	if b, err = checkAxis(b, l.Rank()); err != nil {
		return StrideLayout{}, err
	}
	shape := l.shape.Clone()
	strides := slices.Clone(l.strides)
	shape[a], shape[b] = shape[b], shape[a]
	strides[a], strides[b] = strides[b], strides[a]
	return StrideLayout{shape: shape, offset: l.offset, strides: strides}, nil
}

// WithOffset returns the same layout starting at offset.
func (l StrideLayout) WithOffset(offset int) StrideLayout {
	l.offset = offset
	return l
}

// Reverse reverses the order of all axes (full transpose).
func (l StrideLayout) Reverse() StrideLayout {
	shape := l.shape.Clone()
	strides := slices.Clone(l.strides)
	slices.Reverse(shape)
	slices.Reverse(strides)
	return StrideLayout{shape: shape, offset: l.offset, strides: strides}
}

// Narrow keeps the range [start, end) of axis. When keepDim is false and the
// range has a single element the axis is dropped.
func (l StrideLayout) Narrow(axis int, keepDim bool, start, end int) (StrideLayout, error) {
	axis, err := checkAxis(axis, l.Rank())
	if err != nil {
		return StrideLayout{}, err
	}
	if start < 0 || end > l.shape[axis] || start >= end {
		return StrideLayout{}, errors.Wrapf(ErrOutOfBounds,
			"narrow [%d, %d) on axis %d of size %d", start, end, axis, l.shape[axis])
	}
	offset := l.offset + start*l.strides[axis]
	if !keepDim && end-start == 1 {
		shape := slices.Delete(l.shape.Clone(), axis, axis+1)
		strides := slices.Delete(slices.Clone(l.strides), axis, axis+1)
		return StrideLayout{shape: shape, offset: offset, strides: strides}, nil
	}
	shape := l.shape.Clone()
	shape[axis] = end - start
	return StrideLayout{shape: shape, offset: offset, strides: slices.Clone(l.strides)}, nil
}

// NarrowAll narrows every axis at once.
func (l StrideLayout) NarrowAll(keepDim bool, starts, ends []int) (StrideLayout, error) {
	if len(starts) != l.Rank() || len(ends) != l.Rank() {
		return StrideLayout{}, errors.Wrapf(ErrRankMismatch,
			"narrow ranges %v..%v for rank %d", starts, ends, l.Rank())
	}
	out := l
	// Walk from the last axis so dropped axes do not shift pending ones.
	for axis := l.Rank() - 1; axis >= 0; axis-- {
		var err error
		out, err = out.Narrow(axis, keepDim, starts[axis], ends[axis])
		if err != nil {
			return StrideLayout{}, err
		}
	}
	return out, nil
}

// Expand broadcasts a size 1 axis to size by giving it a zero stride.
func (l StrideLayout) Expand(axis, size int) (StrideLayout, error) {
	axis, err := checkAxis(axis, l.Rank())
	if err != nil {
		return StrideLayout{}, err
	}
	if l.shape[axis] != 1 {
		return StrideLayout{}, errors.Wrapf(ErrShapeMismatch,
			"cannot expand axis %d of size %d", axis, l.shape[axis])
	}
	if size <= 0 {
		return StrideLayout{}, errors.Wrapf(ErrInvalidShape, "expand size %d", size)
	}
	shape := l.shape.Clone()
	strides := slices.Clone(l.strides)
	shape[axis] = size
	strides[axis] = 0
	return StrideLayout{shape: shape, offset: l.offset, strides: strides}, nil
}

// BroadcastTo aligns the layout to shape from the right, adding leading axes and
// expanding size 1 axes with zero strides.
func (l StrideLayout) BroadcastTo(shape Shape) (StrideLayout, error) {
	if len(shape) < l.Rank() {
		return StrideLayout{}, errors.Wrapf(ErrShapeMismatch, "cannot broadcast %v to %v", l.shape, shape)
	}
	lead := len(shape) - l.Rank()
	strides := make([]int, len(shape))
	for i := range shape {
		if i < lead {
			continue
		}
		d := l.shape[i-lead]
		switch {
		case d == shape[i]:
			strides[i] = l.strides[i-lead]
		case d == 1:
			strides[i] = 0
		default:
			return StrideLayout{}, errors.Wrapf(ErrShapeMismatch, "cannot broadcast %v to %v", l.shape, shape)
		}
	}
	return StrideLayout{shape: shape.Clone(), offset: l.offset, strides: strides}, nil
}

// NarrowStrides returns the layout with axis removed, keeping the offset.
// Iterating it enumerates the start of every 1-D lane along axis.
func (l StrideLayout) NarrowStrides(axis int) (StrideLayout, error) {
	axis, err := checkAxis(axis, l.Rank())
	if err != nil {
		return StrideLayout{}, err
	}
	shape := slices.Delete(l.shape.Clone(), axis, axis+1)
	strides := slices.Delete(slices.Clone(l.strides), axis, axis+1)
	return StrideLayout{shape: shape, offset: l.offset, strides: strides}, nil
}

// traversalAxes returns axis indices ordered from fastest to slowest for order.
func (l StrideLayout) traversalAxes(order Order) []int {
	axes := make([]int, l.Rank())
	for i := range axes {
		axes[i] = i
	}
	switch order {
	case C:
		slices.Reverse(axes)
	case S:
		slices.SortStableFunc(axes, func(a, b int) int {
			return absInt(l.strides[a]) - absInt(l.strides[b])
		})
	}
	return axes
}

// ComputeFortranLayout returns an equivalent layout whose axis 0 is the
// fastest varying axis of the requested traversal order. With compact set,
// size 1 axes are dropped and adjacent axes are fused whenever
// stride[k+1] == stride[k]*dim[k], which collapses contiguous runs into a
// single axis. The result addresses the same elements in the same order.
func (l StrideLayout) ComputeFortranLayout(order Order, compact bool) StrideLayout {
	axes := l.traversalAxes(order)
	shape := make(Shape, 0, len(axes))
	strides := make([]int, 0, len(axes))
	for _, a := range axes {
		d, s := l.shape[a], l.strides[a]
		if compact {
			if d == 1 {
				continue
			}
			if n := len(shape); n > 0 && strides[n-1]*shape[n-1] == s {
				shape[n-1] *= d
				continue
			}
		}
		shape = append(shape, d)
		strides = append(strides, s)
	}
	return StrideLayout{shape: shape, offset: l.offset, strides: strides}
}

// ComputeCompact returns the compacted traversal layout for order and reports
// whether the elements, visited in that order, form one contiguous run of the
// storage. A true result means a flatten in that order is a pure view.
func (l StrideLayout) ComputeCompact(order Order, compact bool) (StrideLayout, bool) {
	f := l.ComputeFortranLayout(order, compact)
	switch {
	case f.Rank() == 0:
		return f, true
	case f.Rank() == 1 && f.strides[0] == 1:
		return f, true
	default:
		return f, false
	}
}

// AttemptReshape computes a layout with the new shape that visits the same
// elements in the given order without moving data. It reports false when the
// current strides cannot express the new shape, in which case a copy is
// required.
func (l StrideLayout) AttemptReshape(shape Shape, order Order) (StrideLayout, bool) {
	if shape.Size() != l.Size() {
		return StrideLayout{}, false
	}
	if order == S {
		order = C
	}
	fOrder := order == F

	oldDims := make([]int, 0, l.Rank())
	oldStrides := make([]int, 0, l.Rank())
	for i, d := range l.shape {
		if d != 1 {
			oldDims = append(oldDims, d)
			oldStrides = append(oldStrides, l.strides[i])
		}
	}
	newDims := []int(shape)
	newStrides := make([]int, len(newDims))

	// [oi, oj) and [ni, nj) are the old and new axis groups with equal products.
	oi, oj, ni, nj := 0, 1, 0, 1
	for ni < len(newDims) && oi < len(oldDims) {
		np, op := newDims[ni], oldDims[oi]
		for np != op {
			if np < op {
				np *= newDims[nj]
				nj++
			} else {
				op *= oldDims[oj]
				oj++
			}
		}
		for ok := oi; ok < oj-1; ok++ {
			if fOrder {
				if oldStrides[ok+1] != oldDims[ok]*oldStrides[ok] {
					return StrideLayout{}, false
				}
			} else if oldStrides[ok] != oldDims[ok+1]*oldStrides[ok+1] {
				return StrideLayout{}, false
			}
		}
		if fOrder {
			newStrides[ni] = oldStrides[oi]
			for nk := ni + 1; nk < nj; nk++ {
				newStrides[nk] = newStrides[nk-1] * newDims[nk-1]
			}
		} else {
			newStrides[nj-1] = oldStrides[oj-1]
			for nk := nj - 1; nk > ni; nk-- {
				newStrides[nk-1] = newStrides[nk] * newDims[nk]
			}
		}
		ni = nj
		nj++
		oi = oj
		oj++
	}

	// Trailing size 1 axes of the new shape.
	last := 1
	if ni >= 1 {
		last = newStrides[ni-1]
		if fOrder {
			last *= newDims[ni-1]
		}
	}
	for nk := ni; nk < len(newDims); nk++ {
		newStrides[nk] = last
	}
	return StrideLayout{shape: shape.Clone(), offset: l.offset, strides: newStrides}, true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
