package cpu

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/tensor"
)

// BatchMatMul performs batched matrix multiplication.
//
// The last two axes are the matrix axes and every leading axis is a batch
// axis; batch axes broadcast against each other:
//
//	[B, M, K] · [B, K, N]       -> [B, M, N]
//	[B, H, M, K] · [1, H, K, N] -> [B, H, M, N]
//
// Either operand may be rank 2, in which case it is shared by every batch.
// The result is dense in C order and every (batch, tile) pair is one task on
// the worker pool.
func BatchMatMul[T dtype.Num](cpu *CPUBackend,
	a *tensor.Storage[T], al tensor.StrideLayout,
	b *tensor.Storage[T], bl tensor.StrideLayout,
) (*tensor.Storage[T], tensor.StrideLayout, error) {
	ra, rb := al.Rank(), bl.Rank()
	if ra < 2 || rb < 2 || al.Dim(-1) != bl.Dim(-2) {
		return nil, tensor.StrideLayout{}, errors.Wrapf(tensor.ErrDimensionMismatch,
			"batch mm %v · %v", al.Shape(), bl.Shape())
	}
	m, k, n := al.Dim(-2), al.Dim(-1), bl.Dim(-1)

	aBatch, err := tensor.NewLayout(al.Shape()[:ra-2], al.Offset(), al.Strides()[:ra-2])
	if err != nil {
		return nil, tensor.StrideLayout{}, err
	}
	bBatch, err := tensor.NewLayout(bl.Shape()[:rb-2], bl.Offset(), bl.Strides()[:rb-2])
	if err != nil {
		return nil, tensor.StrideLayout{}, err
	}
	batch, _, err := tensor.BroadcastShapes(aBatch.Shape(), bBatch.Shape())
	if err != nil {
		return nil, tensor.StrideLayout{}, errors.Wrapf(tensor.ErrDimensionMismatch,
			"batch mm %v · %v: batch axes do not broadcast", al.Shape(), bl.Shape())
	}
	if aBatch, err = aBatch.BroadcastTo(batch); err != nil {
		return nil, tensor.StrideLayout{}, err
	}
	if bBatch, err = bBatch.BroadcastTo(batch); err != nil {
		return nil, tensor.StrideLayout{}, err
	}

	out := tensor.NewStorage[T](batch.Size() * m * n)
	c := out.Data()
	aMat, _ := tensor.NewLayout(tensor.Shape{m, k}, 0, []int{al.Stride(-2), al.Stride(-1)})
	bMat, _ := tensor.NewLayout(tensor.Shape{k, n}, 0, []int{bl.Stride(-2), bl.Stride(-1)})

	// Both batch layouts share a shape, so their C-order pointer walks pair up.
	var tasks []func()
	pa := make([]int, 0, batch.Size())
	for p := range tensor.Pointers(aBatch, tensor.C) {
		pa = append(pa, p)
	}
	i := 0
	for pb := range tensor.Pointers(bBatch, tensor.C) {
		g := newGemm(cpu, a.Data(), aMat.WithOffset(pa[i]), b.Data(), bMat.WithOffset(pb), c[i*m*n:(i+1)*m*n])
		tasks = g.tiles(m, tasks)
		i++
	}
	klog.V(5).Infof("cpu: batch mm %v x [%d,%d]x[%d,%d], %d tasks", batch, m, k, k, n, len(tasks))
	parallel.Do(cpu.cfg.Parallel, tasks)

	shape := append(batch.Clone(), m, n)
	return out, tensor.DenseLayout(shape, 0, tensor.C), nil
}
