package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/tensor"
)

func TestCopyTransposed(t *testing.T) {
	b := testBackend(16)
	s, l := dense(seq[float64](6), 2, 3)

	out, ol := Copy(b, s, l.Reverse(), tensor.C)
	assert.True(t, ol.IsCOrdered())
	assert.Equal(t, tensor.Shape{3, 2}, ol.Shape())
	assert.Equal(t, []float64{0, 3, 1, 4, 2, 5}, out.Data())

	out, ol = Copy(b, s, l, tensor.F)
	assert.True(t, ol.IsFOrdered())
	assert.Equal(t, []float64{0, 3, 1, 4, 2, 5}, out.Data())
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5}, collect(out, ol))
}

func TestCopyStorageOrder(t *testing.T) {
	b := testBackend(16)
	s, l := dense(seq[int32](6), 2, 3)
	_, ol := Copy(b, s, l.Reverse(), tensor.S)
	assert.True(t, ol.IsFOrdered())
	_, ol = Copy(b, s, l, tensor.S)
	assert.True(t, ol.IsCOrdered())
	assert.Equal(t, tensor.F, DenseOrder(l.Reverse(), tensor.S))
}

func TestCopyIsIdempotent(t *testing.T) {
	b := testBackend(16)
	s, l := dense(seq[float64](24), 2, 3, 4)
	view, err := l.Permute(1, 2, 0)
	require.NoError(t, err)
	for _, order := range []tensor.Order{tensor.C, tensor.F} {
		once, ol := Copy(b, s, view, order)
		twice, tl := Copy(b, once, ol, order)
		assert.Equal(t, once.Data(), twice.Data())
		assert.Equal(t, collect(s, view), collect(twice, tl))
	}
}

func TestCopyParallelMatchesSequential(t *testing.T) {
	s, l := dense(seq[float64](64*33), 64, 33)
	narrow, err := l.Narrow(1, true, 3, 30)
	require.NoError(t, err)
	views := []tensor.StrideLayout{l, l.Reverse(), narrow, narrow.Reverse()}

	seqBackend := NewWithConfig(Config{Parallel: parallel.Sequential(), VectorBytes: 16})
	par := testBackend(16)
	for _, v := range views {
		want, _ := Copy(seqBackend, s, v, tensor.C)
		got, gl := Copy(par, s, v, tensor.C)
		assert.Equal(t, want.Data(), got.Data(), "layout %v", v)
		assert.Equal(t, collect(s, v), collect(got, gl))
	}
}

func TestCopyIntoSingleRun(t *testing.T) {
	// A dense to dense copy is a single inner loop split across workers.
	b := testBackend(16)
	src, sl := dense(seq[float32](1001), 1001)
	dst, dl := dense(make([]float32, 1001), 1001)
	require.NoError(t, CopyInto(b, dst, dl, src, sl))
	assert.Equal(t, src.Data(), dst.Data())
}

func TestCopyIntoBroadcast(t *testing.T) {
	b := testBackend(16)
	src, sl := dense([]int64{1, 2, 3}, 3)
	bl, err := sl.BroadcastTo(tensor.Shape{2, 3})
	require.NoError(t, err)
	dst, dl := dense(make([]int64, 6), 2, 3)
	require.NoError(t, CopyInto(b, dst, dl, src, bl))
	assert.Equal(t, []int64{1, 2, 3, 1, 2, 3}, dst.Data())

	assert.ErrorIs(t, CopyInto(b, dst, dl, src, sl), tensor.ErrShapeMismatch)
	assert.ErrorIs(t, CopyInto(b, src, bl, dst, dl), tensor.ErrUnsupportedOperation)
}

func TestCopyIntoOverlappingViews(t *testing.T) {
	b := testBackend(16)
	s, l := dense(seq[float64](9), 3, 3)
	require.NoError(t, CopyInto(b, s, l, s, l.Reverse()))
	assert.Equal(t, []float64{0, 3, 6, 1, 4, 7, 2, 5, 8}, s.Data())
}

func TestCopyParts(t *testing.T) {
	b := testBackend(16) // 4 workers, 4 KiB L2
	assert.Equal(t, 4, b.copyParts(100))
	assert.Equal(t, 4, b.copyParts(8192))
	assert.Equal(t, 9, b.copyParts(64*33*8))
}
