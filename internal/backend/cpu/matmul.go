package cpu

import (
	"math"
	"unsafe"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/simd"
	"github.com/born-ml/strided/internal/tensor"
)

// Dot returns Σ a[i]*b[i] over two 1-D layouts of equal length.
func Dot[T dtype.Num](cpu *CPUBackend,
	a *tensor.Storage[T], al tensor.StrideLayout,
	b *tensor.Storage[T], bl tensor.StrideLayout,
) (T, error) {
	if al.Rank() != 1 || bl.Rank() != 1 || al.Dim(0) != bl.Dim(0) {
		return 0, errors.Wrapf(tensor.ErrDimensionMismatch, "dot %v · %v", al.Shape(), bl.Shape())
	}
	return dot(a.Data(), al.Offset(), al.Stride(0), b.Data(), bl.Offset(), bl.Stride(0), al.Dim(0), lanes[T](cpu)), nil
}

// MatVec computes y = A·x for A of shape [m, n] and x of shape [n] on the
// calling goroutine. The result is a dense [m] storage.
func MatVec[T dtype.Num](cpu *CPUBackend,
	a *tensor.Storage[T], al tensor.StrideLayout,
	x *tensor.Storage[T], xl tensor.StrideLayout,
) (*tensor.Storage[T], tensor.StrideLayout, error) {
	if al.Rank() != 2 || xl.Rank() != 1 || al.Dim(1) != xl.Dim(0) {
		return nil, tensor.StrideLayout{}, errors.Wrapf(tensor.ErrDimensionMismatch,
			"mv %v · %v", al.Shape(), xl.Shape())
	}
	m, n := al.Dim(0), al.Dim(1)
	out := tensor.NewStorage[T](m)
	y, ad, xd := out.Data(), a.Data(), x.Data()
	lane := lanes[T](cpu)
	for i := range y {
		y[i] = dot(ad, al.Offset()+i*al.Stride(0), al.Stride(1), xd, xl.Offset(), xl.Stride(0), n, lane)
	}
	return out, tensor.DenseLayout(tensor.Shape{m}, 0, tensor.C), nil
}

// MatMul computes C = A·B for A of shape [m, k] and B of shape [k, n] into a
// dense C-order [m, n] storage. C is cut into square tiles of BlockSize; each
// tile is one task on the worker pool and owns its destination cells.
func MatMul[T dtype.Num](cpu *CPUBackend,
	a *tensor.Storage[T], al tensor.StrideLayout,
	b *tensor.Storage[T], bl tensor.StrideLayout,
) (*tensor.Storage[T], tensor.StrideLayout, error) {
	if al.Rank() != 2 || bl.Rank() != 2 || al.Dim(1) != bl.Dim(0) {
		return nil, tensor.StrideLayout{}, errors.Wrapf(tensor.ErrDimensionMismatch,
			"mm %v · %v", al.Shape(), bl.Shape())
	}
	m, k, n := al.Dim(0), al.Dim(1), bl.Dim(1)
	out := tensor.NewStorage[T](m * n)

	g := newGemm(cpu, a.Data(), al, b.Data(), bl, out.Data())
	tasks := g.tiles(m, nil)
	klog.V(5).Infof("cpu: mm [%d,%d]x[%d,%d] block %d, %d tiles", m, k, k, n, g.bs, len(tasks))
	parallel.Do(cpu.cfg.Parallel, tasks)
	return out, tensor.DenseLayout(tensor.Shape{m, n}, 0, tensor.C), nil
}

// BlockSize returns the matmul tile edge: ⌊√(l2 / (2·threads·elemSize))⌋
// rounded down to a multiple of 8, and at least 8.
func BlockSize(l2, threads, elemSize int) int {
	threads = max(threads, 1)
	bs := int(math.Sqrt(float64(l2) / float64(2*threads*elemSize)))
	bs = bs / 8 * 8
	return max(bs, 8)
}

type gemm[T dtype.Num] struct {
	a, b, c          []T
	aOff, aRow, aCol int
	bOff, bRow, bCol int
	n, k, bs, lanes  int
	bIdx             []int
}

// newGemm plans c = a·b for the 2-D layouts al and bl; c is dense row-major.
func newGemm[T dtype.Num](cpu *CPUBackend, a []T, al tensor.StrideLayout, b []T, bl tensor.StrideLayout, c []T) *gemm[T] {
	var dummy T
	g := &gemm[T]{
		a: a, b: b, c: c,
		aOff: al.Offset(), aRow: al.Stride(0), aCol: al.Stride(1),
		bOff: bl.Offset(), bRow: bl.Stride(0), bCol: bl.Stride(1),
		n: bl.Dim(1), k: al.Dim(1),
		bs:    BlockSize(cpu.cfg.L2CacheBytes, cpu.Workers(), int(unsafe.Sizeof(dummy))),
		lanes: lanes[T](cpu),
	}
	g.bIdx = laneIndex(g.lanes, g.bCol)
	return g
}

// tiles appends one task per bs×bs destination tile of an m-row product.
func (g *gemm[T]) tiles(m int, tasks []func()) []func() {
	for i0 := 0; i0 < m; i0 += g.bs {
		for j0 := 0; j0 < g.n; j0 += g.bs {
			i1, j1 := min(i0+g.bs, m), min(j0+g.bs, g.n)
			tasks = append(tasks, func() { g.tile(i0, i1, j0, j1) })
		}
	}
	return tasks
}

// tile accumulates C[i0:i1, j0:j1] over k in blocks of bs.
func (g *gemm[T]) tile(i0, i1, j0, j1 int) {
	w := j1 - j0
	for p0 := 0; p0 < g.k; p0 += g.bs {
		p1 := min(p0+g.bs, g.k)
		for i := i0; i < i1; i++ {
			row := g.c[i*g.n+j0 : i*g.n+j1]
			for p := p0; p < p1; p++ {
				aip := g.a[g.aOff+i*g.aRow+p*g.aCol]
				axpy(row, aip, g.b, g.bOff+p*g.bRow+j0*g.bCol, g.bCol, g.bIdx, w, g.lanes)
			}
		}
	}
}

// axpy computes y += alpha·x[off + j*step] for j in [0, n). idx is the lane
// gather pattern for step.
func axpy[T dtype.Num](y []T, alpha T, x []T, off, step int, idx []int, n, lane int) {
	bound := simd.Bound(n, lane)
	vx := simd.NewVec[T](lane)
	vy := simd.NewVec[T](lane)
	madd := func(a, b T) T { return a + alpha*b }
	if step == 1 {
		for j := 0; j < bound; j += lane {
			vy.Load(y, j)
			vx.Load(x, off+j)
			vy.Zip(&vx, madd)
			vy.Store(y, j)
		}
	} else {
		for j := 0; j < bound; j += lane {
			vy.Load(y, j)
			vx.Gather(x, off+j*step, idx)
			vy.Zip(&vx, madd)
			vy.Store(y, j)
		}
	}
	for j := bound; j < n; j++ {
		y[j] += alpha * x[off+j*step]
	}
}

// dot computes Σ a[pa+i*sa]·b[pb+i*sb] for i in [0, n).
func dot[T dtype.Num](a []T, pa, sa int, b []T, pb, sb, n, lane int) T {
	bound := simd.Bound(n, lane)
	acc := simd.NewVec[T](lane)
	va := simd.NewVec[T](lane)
	vb := simd.NewVec[T](lane)
	mul := func(x, y T) T { return x * y }
	add := func(x, y T) T { return x + y }
	ia, ib := laneIndex(lane, sa), laneIndex(lane, sb)
	for i := 0; i < bound; i += lane {
		if sa == 1 {
			va.Load(a, pa+i)
		} else {
			va.Gather(a, pa+i*sa, ia)
		}
		if sb == 1 {
			vb.Load(b, pb+i)
		} else {
			vb.Gather(b, pb+i*sb, ib)
		}
		va.Zip(&vb, mul)
		acc.Zip(&va, add)
	}
	sum := acc.Fold(0, add)
	for i := bound; i < n; i++ {
		sum += a[pa+i*sa] * b[pb+i*sb]
	}
	return sum
}

func laneIndex(lane, step int) []int {
	idx := make([]int, lane)
	for k := range idx {
		idx[k] = k * step
	}
	return idx
}
