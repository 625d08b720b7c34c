package cpu

import (
	"unsafe"

	"k8s.io/klog/v2"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/simd"
	"github.com/born-ml/strided/internal/tensor"
)

// DenseOrder resolves the destination order of a copy: S keeps an F-ordered
// source in F order and uses C otherwise.
func DenseOrder(l tensor.StrideLayout, order tensor.Order) tensor.Order {
	if order != tensor.S {
		return order
	}
	if l.IsFOrdered() && !l.IsCOrdered() {
		return tensor.F
	}
	return tensor.C
}

// Copy materializes the elements addressed by l into a new dense storage laid
// out in order.
func Copy[T dtype.Num](cpu *CPUBackend, s *tensor.Storage[T], l tensor.StrideLayout, order tensor.Order) (*tensor.Storage[T], tensor.StrideLayout) {
	order = DenseOrder(l, order)
	out := tensor.NewStorage[T](l.Size())
	dl := tensor.DenseLayout(l.Shape(), 0, order)
	if err := CopyInto(cpu, out, dl, s, l); err != nil {
		// dl is a fresh dense layout with the shape of l.
		panic(err)
	}
	return out, dl
}

// CopyInto copies src into dst element by element. Both layouts must have the
// same shape. Large copies are split into disjoint ranges of outer offsets (or
// of the inner loop when there is a single one), each covering about half an
// L2 cache, and run on the worker pool.
func CopyInto[T dtype.Num](cpu *CPUBackend,
	dst *tensor.Storage[T], dl tensor.StrideLayout,
	src *tensor.Storage[T], sl tensor.StrideLayout,
) error {
	if err := checkWritable(dl); err != nil {
		return err
	}
	if src == dst && sl.Shape().Equal(dl.Shape()) && !sl.Equal(dl) {
		src, sl = Copy(cpu, src, sl, tensor.C)
	}
	// Drive the traversal by the destination so that its writes stay contiguous.
	p, err := tensor.NewPairLoop(dl, sl, tensor.S, lanes[T](cpu))
	if err != nil {
		return err
	}
	a, b := dst.Data(), src.Data()

	var dummy T
	bytes := p.Count() * int(unsafe.Sizeof(dummy))
	workers := cpu.Workers()
	if workers < 2 || bytes < cpu.cfg.ParallelCopyBytes {
		copyRange(a, b, p, 0, len(p.OffsetsA), 0, p.Size)
		return nil
	}

	parts := cpu.copyParts(bytes)
	var tasks []func()
	if len(p.OffsetsA) > 1 {
		for _, r := range parallel.Partition(len(p.OffsetsA), parts) {
			tasks = append(tasks, func() { copyRange(a, b, p, r.Start, r.End, 0, p.Size) })
		}
	} else {
		// One long inner loop: split it on lane boundaries.
		chunks := parallel.Partition(p.Size/p.Lanes, parts)
		for i, r := range chunks {
			lo, hi := r.Start*p.Lanes, r.End*p.Lanes
			if i == len(chunks)-1 {
				hi = p.Size
			}
			tasks = append(tasks, func() { copyRange(a, b, p, 0, 1, lo, hi) })
		}
		if len(chunks) == 0 {
			tasks = append(tasks, func() { copyRange(a, b, p, 0, 1, 0, p.Size) })
		}
	}
	klog.V(5).Infof("cpu: parallel copy of %d bytes in %d tasks (inner %d, outer %d)",
		bytes, len(tasks), p.Size, len(p.OffsetsA))
	parallel.Do(cpu.cfg.Parallel, tasks)
	return nil
}

// copyParts returns the number of ranges a copy of bytes is split into: one
// per half L2 cache, and at least one per worker.
func (cpu *CPUBackend) copyParts(bytes int) int {
	tile := max(cpu.cfg.L2CacheBytes/2, 1)
	return max(cpu.Workers(), (bytes+tile-1)/tile)
}

// copyRange copies outer loops [k0, k1) restricted to inner positions [lo, hi).
// lo is a multiple of the lane count.
func copyRange[T dtype.Num](a, b []T, p *tensor.PairLoop, k0, k1, lo, hi int) {
	bound := min(hi, lo+simd.Bound(hi-lo, p.Lanes))
	v := simd.NewVec[T](p.Lanes)
	for k := k0; k < k1; k++ {
		baseA, baseB := p.OffsetsA[k], p.OffsetsB[k]
		switch {
		case p.StepA == 1 && p.StepB == 1:
			copy(a[baseA+lo:baseA+hi], b[baseB+lo:baseB+hi])
			continue
		case p.StepA == 1:
			for i := lo; i < bound; i += p.Lanes {
				v.Gather(b, baseB+i*p.StepB, p.LanesB)
				v.Store(a, baseA+i)
			}
		default:
			for i := lo; i < bound; i += p.Lanes {
				v.Gather(b, baseB+i*p.StepB, p.LanesB)
				v.Scatter(a, baseA+i*p.StepA, p.LanesA)
			}
		}
		pa, pb := baseA+bound*p.StepA, baseB+bound*p.StepB
		for i := bound; i < hi; i++ {
			a[pa] = b[pb]
			pa += p.StepA
			pb += p.StepB
		}
	}
}
