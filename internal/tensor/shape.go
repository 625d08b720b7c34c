// Package tensor holds the addressing core of the engine: shapes, stride
// layouts, typed storages and the loop descriptors that turn a layout into a
// small number of tight inner loops.
package tensor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Shape represents the dimensions of a tensor.
// A Shape of rank 0 describes a scalar.
type Shape []int

// NewShape validates dims and returns them as a Shape.
func NewShape(dims ...int) (Shape, error) {
	s := Shape(dims).Clone()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Size returns the total number of elements.
func (s Shape) Size() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Rank returns the number of axes.
func (s Shape) Rank() int {
	return len(s)
}

// Dim returns the extent of axis i; negative i indexes from the end.
func (s Shape) Dim(i int) int {
	if i < 0 {
		i += len(s)
	}
	return s[i]
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return errors.Wrapf(ErrInvalidShape, "dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// Key returns a comparable representation, usable as a map key.
func (s Shape) Key() string {
	var b strings.Builder
	for i, d := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(d))
	}
	return b.String()
}

// String implements fmt.Stringer.
func (s Shape) String() string {
	return "[" + s.Key() + "]"
}

// Strides returns the default dense strides of the shape in the given order.
// Only C and F are dense orders; S is treated as C.
func (s Shape) Strides(order Order) []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}
	if order == F {
		strides[0] = 1
		for i := 1; i < len(s); i++ {
			strides[i] = strides[i-1] * s[i-1]
		}
		return strides
	}
	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// IndexOf converts a linear position in the given dense order to a multi-index.
func (s Shape) IndexOf(order Order, pos int) ([]int, error) {
	if pos < 0 || pos >= s.Size() {
		return nil, errors.Wrapf(ErrOutOfBounds, "position %d for shape %v", pos, s)
	}
	idx := make([]int, len(s))
	strides := s.Strides(order)
	if order == F {
		for i := len(s) - 1; i >= 0; i-- {
			idx[i] = pos / strides[i]
			pos %= strides[i]
		}
		return idx, nil
	}
	for i := range s {
		idx[i] = pos / strides[i]
		pos %= strides[i]
	}
	return idx, nil
}

// PositionOf converts a multi-index to a linear position in the given dense order.
func (s Shape) PositionOf(order Order, idx ...int) (int, error) {
	if len(idx) != len(s) {
		return 0, errors.Wrapf(ErrRankMismatch, "expected %d indices, got %d", len(s), len(idx))
	}
	strides := s.Strides(order)
	pos := 0
	for i, v := range idx {
		if v < 0 || v >= s[i] {
			return 0, errors.Wrapf(ErrOutOfBounds, "index %d for axis %d of size %d", v, i, s[i])
		}
		pos += v * strides[i]
	}
	return pos, nil
}

// Remove returns the shape with axis removed.
func (s Shape) Remove(axis int) (Shape, error) {
	axis, err := checkAxis(axis, len(s))
	if err != nil {
		return nil, err
	}
	out := make(Shape, 0, len(s)-1)
	out = append(out, s[:axis]...)
	return append(out, s[axis+1:]...), nil
}

// BroadcastShapes implements NumPy-style broadcasting rules.
//
// Rules:
// 1. Compare shapes element-wise from right to left
// 2. Dimensions are compatible if:
//   - They are equal, OR
//   - One of them is 1
//
// 3. Missing dimensions are treated as 1
//
// Returns the broadcasted shape, a flag indicating if broadcasting is needed, and an error if incompatible.
//
// Examples:
//
//	(3, 1) + (3, 5) → (3, 5), true, nil
//	(1, 5) + (3, 5) → (3, 5), true, nil
//	(3, 5) + (3, 5) → (3, 5), false, nil
//	(3, 4) + (3, 5) → nil, false, ErrShapeMismatch
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	maxLen := max(len(a), len(b))
	result := make(Shape, maxLen)
	needsBroadcast := len(a) != len(b)

	for i := 0; i < maxLen; i++ {
		aIdx := len(a) - 1 - i
		bIdx := len(b) - 1 - i

		aDim := 1
		if aIdx >= 0 {
			aDim = a[aIdx]
		}

		bDim := 1
		if bIdx >= 0 {
			bDim = b[bIdx]
		}

		switch {
		case aDim == bDim:
			result[maxLen-1-i] = aDim
		case aDim == 1:
			result[maxLen-1-i] = bDim
			needsBroadcast = true
		case bDim == 1:
			result[maxLen-1-i] = aDim
			needsBroadcast = true
		default:
			return nil, false, errors.Wrap(ErrShapeMismatch,
				fmt.Sprintf("shapes not compatible for broadcasting: %v vs %v (dimension %d: %d vs %d)",
					a, b, maxLen-1-i, aDim, bDim))
		}
	}

	return result, needsBroadcast, nil
}
