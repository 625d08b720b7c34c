package tensor

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sorted(v []int) []int {
	out := slices.Clone(v)
	slices.Sort(out)
	return out
}

func TestLoopDescriptorDense(t *testing.T) {
	l := DenseLayout(Shape{4, 5}, 3, C)
	d := NewLoopDescriptor(l, C, 4)

	// Fully contiguous layouts collapse to a single inner loop.
	assert.Equal(t, 20, d.Size)
	assert.Equal(t, 1, d.Step)
	assert.Equal(t, 20, d.Bound)
	assert.Equal(t, []int{3}, d.Offsets)
	assert.Equal(t, []int{0, 1, 2, 3}, d.LaneOffsets)
	assert.Equal(t, 20, d.Count())
}

func TestLoopDescriptorBound(t *testing.T) {
	l := DenseLayout(Shape{11}, 0, C)
	d := NewLoopDescriptor(l, C, 4)
	assert.Equal(t, 11, d.Size)
	assert.Equal(t, 8, d.Bound)

	d = NewLoopDescriptor(l, C, 16)
	assert.Equal(t, 0, d.Bound)
}

func TestLoopDescriptorOrderMatchesPointers(t *testing.T) {
	base := DenseLayout(Shape{3, 4, 5}, 2, C)
	views := []StrideLayout{base, base.Reverse()}
	p, err := base.Permute(1, 0, 2)
	require.NoError(t, err)
	views = append(views, p)
	n, err := base.Narrow(2, true, 1, 4)
	require.NoError(t, err)
	views = append(views, n)
	n2, err := n.Narrow(0, false, 1, 2)
	require.NoError(t, err)
	views = append(views, n2)

	for _, v := range views {
		want := readAll(t, v)
		d := NewLoopDescriptor(v, C, 4)
		assert.Equal(t, want, d.Positions(), "C traversal of %v", v)
		assert.Equal(t, v.Size(), d.Count())

		// F traversal visits the same multiset of positions.
		df := NewLoopDescriptor(v, F, 4)
		assert.Equal(t, sorted(want), sorted(df.Positions()), "F traversal of %v", v)

		ds := NewLoopDescriptor(v, S, 4)
		assert.Equal(t, sorted(want), sorted(ds.Positions()), "S traversal of %v", v)
	}
}

func TestLoopDescriptorFOrder(t *testing.T) {
	l := DenseLayout(Shape{2, 3}, 0, C)
	d := NewLoopDescriptor(l, F, 2)
	assert.Equal(t, []int{0, 3, 1, 4, 2, 5}, d.Positions())
	assert.Equal(t, 2, d.Size)
	assert.Equal(t, 3, d.Step)
	assert.Equal(t, []int{0, 3}, d.LaneOffsets)
	assert.Equal(t, []int{0, 1, 2}, d.Offsets)
}

func TestLoopDescriptorCompactionCountsOuterLoops(t *testing.T) {
	// Rows of a column slice cannot fuse, so there is one outer loop per row.
	l, err := DenseLayout(Shape{8, 10}, 0, C).Narrow(1, true, 2, 7)
	require.NoError(t, err)
	d := NewLoopDescriptor(l, C, 4)
	assert.Equal(t, 5, d.Size)
	assert.Len(t, d.Offsets, 8)
	assert.Equal(t, []int{2, 12, 22, 32, 42, 52, 62, 72}, d.Offsets)

	// A leading-axis slice of a dense tensor stays a single run.
	r, err := DenseLayout(Shape{8, 10}, 0, C).Narrow(0, true, 2, 5)
	require.NoError(t, err)
	d = NewLoopDescriptor(r, C, 4)
	assert.Equal(t, 30, d.Size)
	assert.Equal(t, []int{20}, d.Offsets)
}

func TestLoopDescriptorScalar(t *testing.T) {
	d := NewLoopDescriptor(ScalarLayout(9), C, 8)
	assert.Equal(t, 1, d.Size)
	assert.Equal(t, 1, d.Step)
	assert.Equal(t, []int{9}, d.Offsets)
	assert.Equal(t, []int{9}, d.Positions())

	ones := DenseLayout(Shape{1, 1}, 4, C)
	d = NewLoopDescriptor(ones, C, 8)
	assert.Equal(t, []int{4}, d.Positions())
}

func TestLoopDescriptorEmpty(t *testing.T) {
	empty := StrideLayout{shape: Shape{3, 0, 2}, strides: []int{0, 2, 1}}
	d := NewLoopDescriptor(empty, C, 4)
	assert.Empty(t, d.Offsets)
	assert.Equal(t, 0, d.Count())
}

func TestLoopDescriptorBroadcastStride(t *testing.T) {
	l, err := DenseLayout(Shape{3, 1}, 0, C).Expand(1, 4)
	require.NoError(t, err)
	d := NewLoopDescriptor(l, C, 2)
	assert.Equal(t, 12, d.Count())
	assert.Equal(t, readAll(t, l), d.Positions())
	assert.Equal(t, 0, d.Step)
}

func TestPairLoop(t *testing.T) {
	a := DenseLayout(Shape{3, 4}, 0, C)
	b := DenseLayout(Shape{4, 3}, 100, C).Reverse()

	p, err := NewPairLoop(a, b, C, 4)
	require.NoError(t, err)
	assert.Equal(t, 12, p.Count())

	var gotA, gotB []int
	for k := range p.OffsetsA {
		for i := 0; i < p.Size; i++ {
			gotA = append(gotA, p.OffsetsA[k]+i*p.StepA)
			gotB = append(gotB, p.OffsetsB[k]+i*p.StepB)
		}
	}
	assert.Equal(t, readAll(t, a), gotA)
	assert.Equal(t, readAll(t, b), gotB)

	// Both dense: one fused loop.
	p, err = NewPairLoop(a, DenseLayout(Shape{3, 4}, 5, C), C, 4)
	require.NoError(t, err)
	assert.Equal(t, 12, p.Size)
	assert.Equal(t, []int{5}, p.OffsetsB)

	_, err = NewPairLoop(a, DenseLayout(Shape{4, 3}, 0, C), C, 4)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
