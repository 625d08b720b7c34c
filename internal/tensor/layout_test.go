package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readAll returns the storage positions of every element in C order, using
// only Pointer so it does not depend on the loop machinery.
func readAll(t *testing.T, l StrideLayout) []int {
	t.Helper()
	out := make([]int, 0, l.Size())
	for p := 0; p < l.Size(); p++ {
		idx, err := l.Shape().IndexOf(C, p)
		require.NoError(t, err)
		ptr, err := l.Pointer(idx...)
		require.NoError(t, err)
		out = append(out, ptr)
	}
	return out
}

func TestDenseLayout(t *testing.T) {
	c := DenseLayout(Shape{2, 3}, 5, C)
	assert.Equal(t, []int{3, 1}, c.Strides())
	assert.Equal(t, 5, c.Offset())
	assert.True(t, c.IsCOrdered())
	assert.False(t, c.IsFOrdered())

	f := DenseLayout(Shape{2, 3}, 0, F)
	assert.Equal(t, []int{1, 2}, f.Strides())
	assert.True(t, f.IsFOrdered())
	assert.True(t, f.IsDense(S))
}

func TestNewLayoutRankMismatch(t *testing.T) {
	_, err := NewLayout(Shape{2, 3}, 0, []int{1})
	assert.ErrorIs(t, err, ErrRankMismatch)

	l, err := NewLayout(Shape{2, 3}, 1, []int{1, 2})
	require.NoError(t, err)
	assert.True(t, l.IsFOrdered())
}

func TestLayoutTransformsRoundTrip(t *testing.T) {
	base := DenseLayout(Shape{2, 3, 4}, 7, C)
	want := readAll(t, base)

	u, err := base.Unsqueeze(1)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 1, 3, 4}, u.Shape())
	back, err := u.Squeeze(1)
	require.NoError(t, err)
	assert.Equal(t, want, readAll(t, back))

	p, err := base.Permute(2, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, Shape{4, 2, 3}, p.Shape())
	back, err = p.Permute(1, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, want, readAll(t, back))

	assert.Equal(t, want, readAll(t, base.Reverse().Reverse()))

	m, err := base.MoveAxis(0, 2)
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 4, 2}, m.Shape())
	back, err = m.MoveAxis(2, 0)
	require.NoError(t, err)
	assert.Equal(t, want, readAll(t, back))

	s, err := base.SwapAxis(0, -1)
	require.NoError(t, err)
	assert.Equal(t, Shape{4, 3, 2}, s.Shape())
	back, err = s.SwapAxis(0, 2)
	require.NoError(t, err)
	assert.Equal(t, want, readAll(t, back))
}

func TestUnsqueezeKeepsDense(t *testing.T) {
	base := DenseLayout(Shape{2, 3}, 0, C)
	for axis := 0; axis <= 2; axis++ {
		u, err := base.Unsqueeze(axis)
		require.NoError(t, err)
		assert.True(t, u.IsCOrdered(), "axis %d: %v", axis, u)
	}
	_, err := base.Unsqueeze(4)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestSqueeze(t *testing.T) {
	l := DenseLayout(Shape{1, 3, 1, 2}, 0, C)
	all, err := l.Squeeze()
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 2}, all.Shape())

	one, err := l.Squeeze(2)
	require.NoError(t, err)
	assert.Equal(t, Shape{1, 3, 2}, one.Shape())

	_, err = l.Squeeze(1)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestPermuteInvalid(t *testing.T) {
	l := DenseLayout(Shape{2, 3}, 0, C)
	_, err := l.Permute(0)
	assert.ErrorIs(t, err, ErrRankMismatch)
	_, err = l.Permute(0, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = l.Permute(0, 2)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestNarrow(t *testing.T) {
	l := DenseLayout(Shape{3, 3}, 0, C)
	n, err := l.Narrow(0, true, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, Shape{1, 3}, n.Shape())
	assert.Equal(t, 3, n.Offset())
	assert.Equal(t, []int{3, 4, 5}, readAll(t, n))

	d, err := l.Narrow(0, false, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, Shape{3}, d.Shape())

	col, err := l.Narrow(1, true, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4, 5, 7, 8}, readAll(t, col))

	for _, r := range [][2]int{{-1, 2}, {0, 4}, {2, 2}, {2, 1}} {
		_, err := l.Narrow(0, true, r[0], r[1])
		assert.ErrorIs(t, err, ErrOutOfBounds, "range %v", r)
	}
}

func TestNarrowAll(t *testing.T) {
	l := DenseLayout(Shape{3, 4}, 0, C)
	n, err := l.NarrowAll(false, []int{1, 2}, []int{2, 4})
	require.NoError(t, err)
	assert.Equal(t, Shape{2}, n.Shape())
	assert.Equal(t, []int{6, 7}, readAll(t, n))

	_, err = l.NarrowAll(true, []int{0}, []int{1})
	assert.ErrorIs(t, err, ErrRankMismatch)
}

func TestExpandAndBroadcast(t *testing.T) {
	l := DenseLayout(Shape{3, 1}, 0, C)
	e, err := l.Expand(1, 4)
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 4}, e.Shape())
	assert.Equal(t, []int{1, 0}, e.Strides())
	assert.Equal(t, []int{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2}, readAll(t, e))

	_, err = l.Expand(0, 5)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	b, err := DenseLayout(Shape{4}, 0, C).BroadcastTo(Shape{2, 4})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, b.Strides())

	_, err = DenseLayout(Shape{3}, 0, C).BroadcastTo(Shape{2, 4})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestNarrowStrides(t *testing.T) {
	l := DenseLayout(Shape{2, 3, 4}, 0, C)
	n, err := l.NarrowStrides(1)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 4}, n.Shape())
	assert.Equal(t, []int{12, 1}, n.Strides())
}

func TestComputeFortranLayout(t *testing.T) {
	c := DenseLayout(Shape{2, 3, 4}, 0, C)

	f := c.ComputeFortranLayout(C, false)
	assert.Equal(t, Shape{4, 3, 2}, f.Shape())
	assert.Equal(t, []int{1, 4, 12}, f.Strides())

	compact := c.ComputeFortranLayout(C, true)
	assert.Equal(t, Shape{24}, compact.Shape())
	assert.Equal(t, []int{1}, compact.Strides())

	// In F order the C layout cannot be fused.
	fo := c.ComputeFortranLayout(F, true)
	assert.Equal(t, Shape{2, 3, 4}, fo.Shape())

	// Storage order of a transposed view walks memory sequentially.
	tr := c.Reverse()
	so := tr.ComputeFortranLayout(S, true)
	assert.Equal(t, Shape{24}, so.Shape())

	// A column slice has no contiguous axis pair to fuse.
	col, err := DenseLayout(Shape{4, 6}, 0, C).Narrow(1, true, 0, 2)
	require.NoError(t, err)
	cc := col.ComputeFortranLayout(C, true)
	assert.Equal(t, Shape{2, 4}, cc.Shape())
	assert.Equal(t, []int{1, 6}, cc.Strides())
}

func TestComputeCompact(t *testing.T) {
	c := DenseLayout(Shape{2, 3}, 0, C)
	_, ok := c.ComputeCompact(C, true)
	assert.True(t, ok)
	_, ok = c.ComputeCompact(F, true)
	assert.False(t, ok)
	_, ok = c.Reverse().ComputeCompact(F, true)
	assert.True(t, ok)
}

func TestAttemptReshape(t *testing.T) {
	c := DenseLayout(Shape{2, 3, 4}, 0, C)

	r, ok := c.AttemptReshape(Shape{6, 4}, C)
	require.True(t, ok)
	assert.True(t, r.IsCOrdered())

	r, ok = c.AttemptReshape(Shape{4, 1, 6}, C)
	require.True(t, ok)
	assert.Equal(t, readAll(t, DenseLayout(Shape{4, 1, 6}, 0, C)), readAll(t, r))

	// A transposed view cannot be regrouped in C order without a copy ...
	_, ok = c.Reverse().AttemptReshape(Shape{24}, C)
	assert.False(t, ok)
	// ... but it is compact in F order.
	r, ok = c.Reverse().AttemptReshape(Shape{24}, F)
	require.True(t, ok)
	assert.Equal(t, []int{1}, r.Strides())

	_, ok = c.AttemptReshape(Shape{5, 5}, C)
	assert.False(t, ok)
}

func TestAttemptReshapeKeepsLogicalOrder(t *testing.T) {
	base := DenseLayout(Shape{4, 6}, 2, C)
	view, err := base.Narrow(1, true, 0, 6)
	require.NoError(t, err)
	flat := readAll(t, view)
	for _, s := range []Shape{{24}, {2, 12}, {8, 3}, {2, 2, 6}, {1, 24, 1}} {
		r, ok := view.AttemptReshape(s, C)
		require.True(t, ok, "shape %v", s)
		assert.Equal(t, flat, readAll(t, r), "shape %v", s)
	}
}

func TestIsBroadcast(t *testing.T) {
	l := DenseLayout(Shape{3, 1}, 0, C)
	assert.False(t, l.IsBroadcast())
	e, err := l.Expand(1, 2)
	require.NoError(t, err)
	assert.True(t, e.IsBroadcast())
	assert.False(t, ScalarLayout(0).IsBroadcast())
}
