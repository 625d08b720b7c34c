package cpu

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/tensor"
)

// Decompositions are computed by gonum on dense row-major float64 copies of
// the input. Inputs of kind float32 are widened on the way in and narrowed by
// the caller on the way out.

// Cholesky is the decomposition A = L·Lᵀ of a symmetric positive definite matrix.
type Cholesky struct {
	n    int
	chol mat.Cholesky
	l    []float64
	spd  bool
}

// NewCholesky decomposes the matrix addressed by l. The matrix must be square
// and of a float kind.
func NewCholesky[T dtype.Num](s *tensor.Storage[T], l tensor.StrideLayout) (*Cholesky, error) {
	if !dtype.IsFloat[T]() {
		return nil, errors.Wrapf(tensor.ErrUnsupportedOperation, "cholesky on %s", dtype.Of[T]())
	}
	if l.Rank() != 2 || l.Dim(0) != l.Dim(1) {
		return nil, errors.Wrapf(tensor.ErrDimensionMismatch, "cholesky of %v", l.Shape())
	}
	n := l.Dim(0)
	a := DenseFloat64(s, l)
	c := &Cholesky{n: n, l: make([]float64, n*n)}
	// gonum only reads the upper triangle.
	c.spd = isSymmetric(a, n) && c.chol.Factorize(mat.NewSymDense(n, a))
	if c.spd {
		var lt mat.TriDense
		c.chol.LTo(&lt)
		c.l = rowMajor(&lt)
	}
	return c, nil
}

// IsSPD reports whether the input was symmetric positive definite.
func (c *Cholesky) IsSPD() bool { return c.spd }

// N returns the order of the matrix.
func (c *Cholesky) N() int { return c.n }

// L returns the lower triangular factor, row-major n×n. It is all zeros when
// the input was not symmetric positive definite.
func (c *Cholesky) L() []float64 { return c.l }

// Solve returns X with A·X = B for B of shape n×nrhs, row-major.
func (c *Cholesky) Solve(b []float64, nrhs int) ([]float64, error) {
	if len(b) != c.n*nrhs {
		return nil, errors.Wrapf(tensor.ErrDimensionMismatch, "cholesky solve: %d values for %dx%d", len(b), c.n, nrhs)
	}
	if !c.spd {
		return nil, errors.Wrap(tensor.ErrSingular, "cholesky solve: matrix is not symmetric positive definite")
	}
	var x mat.Dense
	if err := c.chol.SolveTo(&x, mat.NewDense(c.n, nrhs, b)); err != nil {
		return nil, solveError(err, "cholesky solve")
	}
	return rowMajor(&x), nil
}

// QR is the Householder decomposition A = Q·R of an m×n matrix with m ≥ n.
type QR struct {
	m, n int
	qr   mat.QR
	q, r []float64
}

// NewQR decomposes the matrix addressed by l, which must have at least as
// many rows as columns and be of a float kind.
func NewQR[T dtype.Num](s *tensor.Storage[T], l tensor.StrideLayout) (*QR, error) {
	if !dtype.IsFloat[T]() {
		return nil, errors.Wrapf(tensor.ErrUnsupportedOperation, "qr on %s", dtype.Of[T]())
	}
	if l.Rank() != 2 || l.Dim(0) < l.Dim(1) {
		return nil, errors.Wrapf(tensor.ErrDimensionMismatch, "qr of %v needs rows >= columns", l.Shape())
	}
	m, n := l.Dim(0), l.Dim(1)
	d := &QR{m: m, n: n}
	d.qr.Factorize(mat.NewDense(m, n, DenseFloat64(s, l)))

	// Keep the thin factors: the first n columns of Q and the top n rows of R.
	var q, r mat.Dense
	d.qr.QTo(&q)
	d.qr.RTo(&r)
	d.q = rowMajor(q.Slice(0, m, 0, n))
	d.r = rowMajor(r.Slice(0, n, 0, n))
	return d, nil
}

// Dims returns the matrix dimensions.
func (d *QR) Dims() (m, n int) { return d.m, d.n }

// IsFullRank reports whether R has no negligible diagonal entry.
func (d *QR) IsFullRank() bool {
	scale := 0.0
	for i := 0; i < d.n; i++ {
		scale = math.Max(scale, math.Abs(d.r[i*d.n+i]))
	}
	if scale == 0 {
		return false
	}
	tol := scale * float64(max(d.m, d.n)) * 1e-13
	for i := 0; i < d.n; i++ {
		if math.Abs(d.r[i*d.n+i]) <= tol {
			return false
		}
	}
	return true
}

// R returns the upper triangular factor, row-major n×n.
func (d *QR) R() []float64 { return d.r }

// Q returns the orthogonal factor with orthonormal columns, row-major m×n.
func (d *QR) Q() []float64 { return d.q }

// Solve returns the least squares solution X (n×nrhs) of A·X = B for B of
// shape m×nrhs, row-major.
func (d *QR) Solve(b []float64, nrhs int) ([]float64, error) {
	if len(b) != d.m*nrhs {
		return nil, errors.Wrapf(tensor.ErrDimensionMismatch, "qr solve: %d values for %dx%d", len(b), d.m, nrhs)
	}
	if !d.IsFullRank() {
		return nil, errors.Wrap(tensor.ErrSingular, "qr solve: matrix is rank deficient")
	}
	var x mat.Dense
	if err := d.qr.SolveTo(&x, false, mat.NewDense(d.m, nrhs, b)); err != nil {
		return nil, solveError(err, "qr solve")
	}
	return rowMajor(&x), nil
}

// solveError maps a gonum conditioning failure to ErrSingular.
func solveError(err error, op string) error {
	var cond mat.Condition
	if errors.As(err, &cond) {
		return errors.Wrapf(tensor.ErrSingular, "%s: condition number %g", op, float64(cond))
	}
	return errors.Wrap(err, op)
}

// DenseFloat64 reads the elements addressed by l in C order into a new
// float64 slice.
func DenseFloat64[T dtype.Num](s *tensor.Storage[T], l tensor.StrideLayout) []float64 {
	out := make([]float64, 0, l.Size())
	data := s.Data()
	for p := range tensor.Pointers(l, tensor.C) {
		out = append(out, float64(data[p]))
	}
	return out
}

// rowMajor copies m into a new row-major slice.
func rowMajor(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out[i*c+j] = m.At(i, j)
		}
	}
	return out
}

func isSymmetric(a []float64, n int) bool {
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !nearlyEqual(a[i*n+j], a[j*n+i]) {
				return false
			}
		}
	}
	return true
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-12*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
