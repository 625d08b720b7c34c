// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strided/tensor"
)

func TestReduceIdentities(t *testing.T) {
	b := newBackend()
	z, err := tensor.Zeros[float64](tensor.Shape{5, 7}, b)
	require.NoError(t, err)
	assert.Equal(t, 0.0, z.Sum())

	ones, err := tensor.Full[int64](tensor.Shape{3, 3, 3}, 1, b)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ones.Prod())
	assert.Equal(t, int64(27), ones.Sum())

	e, err := tensor.Eye[float32](3, b)
	require.NoError(t, err)
	assert.Equal(t, float32(3), e.Sum())

	s := tensor.Scalar(int32(4), b)
	assert.Equal(t, int32(4), s.Sum())
	assert.Equal(t, 4.0, s.Mean())
}

func TestMeanVarStd(t *testing.T) {
	b := newBackend()
	x := fromSlice(t, b, []float64{1, 2, 3, 4}, 4)
	assert.Equal(t, 2.5, x.Mean())
	assert.Equal(t, 1.25, x.Var(0))
	assert.InDelta(t, 5.0/3, x.Var(1), 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), x.Std(0), 1e-12)
	assert.True(t, math.IsNaN(x.Var(4)))

	// The statistics of a view only cover the addressed elements.
	m := seq(t, b, 4, 4)
	col, err := m.Select(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 7.0, col.Mean())
	assert.Equal(t, 20.0, col.Var(0))

	i := fromSlice(t, b, []uint8{250, 252, 254, 255}, 4)
	assert.Equal(t, 252.75, i.Mean())
}

func TestMinMaxArg(t *testing.T) {
	b := newBackend()
	x := fromSlice(t, b, []float64{3, 1, 4, 1, 5, 9, 2, 6}, 8)
	assert.Equal(t, 1.0, x.Min())
	assert.Equal(t, 9.0, x.Max())
	assert.Equal(t, 1, x.ArgMin())
	assert.Equal(t, 5, x.ArgMax())

	// Positions refer to the row-major order of the logical tensor.
	tr := fromSlice(t, b, []int32{5, 0, 7, 2, 9, 1}, 2, 3).Transpose() // [[5 2] [0 9] [7 1]]
	assert.Equal(t, 2, tr.ArgMin())
	assert.Equal(t, 3, tr.ArgMax())
}

func TestNaNReductions(t *testing.T) {
	b := newBackend()
	nan := math.NaN()
	x := fromSlice(t, b, []float64{1, nan, 3}, 3)
	assert.True(t, math.IsNaN(x.Sum()))
	assert.True(t, math.IsNaN(x.Min()))
	assert.True(t, math.IsNaN(x.Mean()))
	assert.Equal(t, 4.0, x.NanSum())
	assert.Equal(t, 1.0, x.NanMin())
	assert.Equal(t, 3.0, x.NanMax())
	assert.Equal(t, 2.0, x.NanMean())
	assert.Equal(t, 1.0, x.NanVar(0))
	assert.Equal(t, 1, x.ArgMax())
}

func TestAxisReductions(t *testing.T) {
	b := newBackend()
	x := seq(t, b, 2, 3) // [[0 1 2] [3 4 5]]

	sum, err := x.SumAxis(0, false)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3}, sum.Shape())
	assert.Equal(t, []float64{3, 5, 7}, sum.ToSlice(tensor.C))

	sum, err = x.SumAxis(1, true)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 1}, sum.Shape())
	assert.Equal(t, []float64{3, 12}, sum.ToSlice(tensor.C))

	prod, err := x.ProdAxis(0, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 4, 10}, prod.ToSlice(tensor.C))

	lo, err := x.MinAxis(0, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, lo.ToSlice(tensor.C))

	hi, err := x.MaxAxis(-1, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 5}, hi.ToSlice(tensor.C))

	mean, err := x.MeanAxis(1, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4}, mean.ToSlice(tensor.C))

	v, err := x.VarAxis(1, 0, false)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2.0 / 3, 2.0 / 3}, v.ToSlice(tensor.C), 1e-12)

	am, err := x.ArgMaxAxis(0, false)
	require.NoError(t, err)
	assert.Equal(t, tensor.Int64, am.DType())
	assert.Equal(t, []int64{1, 1, 1}, am.ToSlice(tensor.C))

	an, err := x.ArgMinAxis(1, true)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 1}, an.Shape())
	assert.Equal(t, []int64{0, 0}, an.ToSlice(tensor.C))

	_, err = x.SumAxis(2, false)
	assert.ErrorIs(t, err, tensor.ErrOutOfBounds)
}

func TestAxisReductionsOnViews(t *testing.T) {
	b := newBackend()
	tr := seq(t, b, 2, 3).Transpose() // [[0 3] [1 4] [2 5]]

	sum, err := tr.SumAxis(1, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 5, 7}, sum.ToSlice(tensor.C))

	mean, err := tr.MeanAxis(-1, true)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 1}, mean.Shape())
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, mean.ToSlice(tensor.C))

	// Reducing the only axis of a vector yields a scalar.
	total, err := seq(t, b, 5).SumAxis(0, false)
	require.NoError(t, err)
	assert.Equal(t, 0, total.Rank())
	got, err := total.Item()
	require.NoError(t, err)
	assert.Equal(t, 10.0, got)

	// Along-axis and full reductions agree.
	r, err := tensor.Random[float64](tensor.Shape{6, 7, 8}, 11, b)
	require.NoError(t, err)
	p, err := r.Permute(2, 0, 1)
	require.NoError(t, err)
	partial, err := p.SumAxis(1, false)
	require.NoError(t, err)
	assert.InDelta(t, r.Sum(), partial.Sum(), 1e-9)
}
