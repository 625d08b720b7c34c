package cpu

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/tensor"
)

func randomData(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

func assertDenseEqual(t *testing.T, want mat.Matrix, got []float64, tol float64) {
	t.Helper()
	r, c := want.Dims()
	require.Len(t, got, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.InDelta(t, want.At(i, j), got[i*c+j], tol, "(%d,%d)", i, j)
		}
	}
}

func TestDot(t *testing.T) {
	b := testBackend(16)
	x, xl := dense([]float64{1, 2, 3, 4, 5}, 5)
	y, yl := dense([]float64{5, 4, 3, 2, 1}, 5)
	got, err := Dot(b, x, xl, y, yl)
	require.NoError(t, err)
	assert.Equal(t, 35.0, got)

	_, short := dense([]float64{1, 2}, 2)
	_, err = Dot(b, x, xl, y, short)
	assert.ErrorIs(t, err, tensor.ErrDimensionMismatch)
}

func TestMatVecIdentity(t *testing.T) {
	b := testBackend(16)
	a, al := dense([]float64{1, 0, 0, 1}, 2, 2)
	x, xl := dense([]float64{7, 9}, 2)
	y, yl, err := MatVec(b, a, al, x, xl)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2}, yl.Shape())
	assert.Equal(t, []float64{7, 9}, y.Data())

	_, bad := dense([]float64{1, 2, 3}, 3)
	_, _, err = MatVec(b, a, al, x, bad)
	assert.ErrorIs(t, err, tensor.ErrDimensionMismatch)
	_, _, err = MatVec(b, x, xl, x, xl)
	assert.ErrorIs(t, err, tensor.ErrDimensionMismatch)
}

func TestMatVecAgainstGonum(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	ad, xd := randomData(rng, 13*9), randomData(rng, 13)
	b := testBackend(32)

	// A is a transposed view: [9,13] with strides [1,9].
	a, al := dense(ad, 13, 9)
	x, xl := dense(xd, 13)
	y, _, err := MatVec(b, a, al.Reverse(), x, xl)
	require.NoError(t, err)

	var want mat.VecDense
	want.MulVec(mat.NewDense(13, 9, ad).T(), mat.NewVecDense(13, xd))
	assertDenseEqual(t, &want, y.Data(), 1e-12)
}

func TestMatMulAgainstGonum(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	m, k, n := 37, 29, 41
	ad, bd := randomData(rng, m*k), randomData(rng, k*n)
	a, al := dense(ad, m, k)
	bs, bl := dense(bd, k, n)

	var want mat.Dense
	want.Mul(mat.NewDense(m, k, ad), mat.NewDense(k, n, bd))

	for _, cpu := range []*CPUBackend{
		testBackend(16),
		NewWithConfig(Config{Parallel: parallel.Sequential(), VectorBytes: 32}),
	} {
		c, cl, err := MatMul(cpu, a, al, bs, bl)
		require.NoError(t, err)
		assert.Equal(t, tensor.Shape{m, n}, cl.Shape())
		assertDenseEqual(t, &want, c.Data(), 1e-12)
	}

	// Strided operands: Aᵀ·Bᵀ with both operands viewed through Reverse.
	at, atl := dense(ad, k, m)
	bt, btl := dense(bd, n, k)
	var wantT mat.Dense
	wantT.Mul(mat.NewDense(k, m, ad).T(), mat.NewDense(n, k, bd).T())
	c, _, err := MatMul(testBackend(16), at, atl.Reverse(), bt, btl.Reverse())
	require.NoError(t, err)
	assertDenseEqual(t, &wantT, c.Data(), 1e-12)
}

func TestMatMulInteger(t *testing.T) {
	a, al := dense([]int32{1, 2, 3, 4, 5, 6}, 2, 3)
	b, bl := dense([]int32{7, 8, 9, 10, 11, 12}, 3, 2)
	c, _, err := MatMul(testBackend(16), a, al, b, bl)
	require.NoError(t, err)
	assert.Equal(t, []int32{58, 64, 139, 154}, c.Data())

	_, _, err = MatMul(testBackend(16), a, al, a, al)
	assert.ErrorIs(t, err, tensor.ErrDimensionMismatch)
}

func TestBlockSize(t *testing.T) {
	assert.Equal(t, 128, BlockSize(1<<20, 4, 8))
	assert.Equal(t, 88, BlockSize(1<<20, 8, 8))
	assert.Equal(t, 8, BlockSize(100, 4, 8))
	assert.Equal(t, 8, BlockSize(4096, 4, 8))
	assert.Zero(t, BlockSize(1<<22, 3, 4)%8)
}

func spdMatrix(rng *rand.Rand, n int) []float64 {
	g := mat.NewDense(n, n, randomData(rng, n*n))
	var a mat.Dense
	a.Mul(g, g.T())
	for i := 0; i < n; i++ {
		a.Set(i, i, a.At(i, i)+float64(n))
	}
	return a.RawMatrix().Data
}

func TestCholeskyAgainstGonum(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	n := 6
	ad := spdMatrix(rng, n)
	s, l := dense(ad, n, n)

	ch, err := NewCholesky(s, l)
	require.NoError(t, err)
	require.True(t, ch.IsSPD())
	assert.Equal(t, n, ch.N())

	var oracle mat.Cholesky
	require.True(t, oracle.Factorize(mat.NewSymDense(n, ad)))
	var lt mat.TriDense
	oracle.LTo(&lt)
	assertDenseEqual(t, &lt, ch.L(), 1e-10)

	bd := randomData(rng, n*2)
	x, err := ch.Solve(bd, 2)
	require.NoError(t, err)
	var want mat.Dense
	require.NoError(t, oracle.SolveTo(&want, mat.NewDense(n, 2, bd)))
	assertDenseEqual(t, &want, x, 1e-10)
}

func TestCholeskyRejects(t *testing.T) {
	s, l := dense([]float64{1, 2, 2, 1}, 2, 2)
	ch, err := NewCholesky(s, l)
	require.NoError(t, err)
	assert.False(t, ch.IsSPD())
	_, err = ch.Solve([]float64{1, 1}, 1)
	assert.ErrorIs(t, err, tensor.ErrSingular)

	// Only the upper triangle reaches the factorization, so symmetry is checked first.
	a, al := dense([]float64{2, 1, 0, 2}, 2, 2)
	ch, err = NewCholesky(a, al)
	require.NoError(t, err)
	assert.False(t, ch.IsSPD())
	assert.Equal(t, make([]float64, 4), ch.L())

	i, il := dense([]int32{1, 0, 0, 1}, 2, 2)
	_, err = NewCholesky(i, il)
	assert.ErrorIs(t, err, tensor.ErrUnsupportedOperation)

	r, rl := dense(seq[float64](6), 2, 3)
	_, err = NewCholesky(r, rl)
	assert.ErrorIs(t, err, tensor.ErrDimensionMismatch)
}

func TestQRAgainstGonum(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	m, n := 8, 5
	ad := randomData(rng, m*n)
	s, l := dense(ad, m, n)

	qr, err := NewQR(s, l)
	require.NoError(t, err)
	require.True(t, qr.IsFullRank())
	rows, cols := qr.Dims()
	assert.Equal(t, [2]int{m, n}, [2]int{rows, cols})

	// Q·R reconstructs A and Q has orthonormal columns.
	q := mat.NewDense(m, n, qr.Q())
	r := mat.NewDense(n, n, qr.R())
	var back mat.Dense
	back.Mul(q, r)
	assertDenseEqual(t, &back, ad, 1e-12)
	var qtq mat.Dense
	qtq.Mul(q.T(), q)
	eye := mat.NewDiagDense(n, nil)
	for i := 0; i < n; i++ {
		eye.SetDiag(i, 1)
	}
	assertDenseEqual(t, eye, qtq.RawMatrix().Data, 1e-12)

	// Least squares solution matches gonum.
	bd := randomData(rng, m)
	x, err := qr.Solve(bd, 1)
	require.NoError(t, err)
	var oracle mat.QR
	oracle.Factorize(mat.NewDense(m, n, ad))
	var want mat.Dense
	require.NoError(t, oracle.SolveTo(&want, false, mat.NewDense(m, 1, bd)))
	assertDenseEqual(t, &want, x, 1e-10)
}

func TestQRRejects(t *testing.T) {
	s, l := dense([]float64{1, 2, 2, 4, 3, 6}, 3, 2)
	qr, err := NewQR(s, l)
	require.NoError(t, err)
	assert.False(t, qr.IsFullRank())
	_, err = qr.Solve([]float64{1, 2, 3}, 1)
	assert.ErrorIs(t, err, tensor.ErrSingular)

	wide, wl := dense(seq[float64](6), 2, 3)
	_, err = NewQR(wide, wl)
	assert.ErrorIs(t, err, tensor.ErrDimensionMismatch)

	i, il := dense([]int64{1, 0, 0, 1}, 2, 2)
	_, err = NewQR(i, il)
	assert.ErrorIs(t, err, tensor.ErrUnsupportedOperation)
}

func TestSolveErrorMapping(t *testing.T) {
	err := solveError(mat.Condition(1e20), "qr solve")
	assert.ErrorIs(t, err, tensor.ErrSingular)

	other := solveError(mat.ErrShape, "qr solve")
	assert.NotErrorIs(t, other, tensor.ErrSingular)
	assert.ErrorIs(t, other, mat.ErrShape)
}
