package tensor

import "github.com/born-ml/strided/internal/simd"

// LoopDescriptor is the execution plan of one operation over a layout.
//
// Every operator iterates it the same way:
//
//	for _, base := range d.Offsets {
//	    for i := 0; i < d.Bound; i += d.Lanes { vector op at base + i*d.Step }
//	    for i := d.Bound; i < d.Size; i++     { scalar op at base + i*d.Step }
//	}
//
// which visits every element of the layout exactly once, in the requested
// order whenever it is reachable without a copy.
type LoopDescriptor struct {
	Size        int   // extent of the inner (fastest) loop
	Step        int   // storage distance between inner loop elements
	Lanes       int   // vector lanes
	Bound       int   // largest multiple of Lanes not exceeding Size
	LaneOffsets []int // LaneOffsets[k] = k*Step, the gather/scatter pattern
	Offsets     []int // one base pointer per outer loop combination
}

// NewLoopDescriptor plans a traversal of layout in order using lanes wide vectors.
func NewLoopDescriptor(layout StrideLayout, order Order, lanes int) *LoopDescriptor {
	if lanes < 1 {
		lanes = 1
	}
	if layout.Size() == 0 {
		return &LoopDescriptor{Lanes: lanes, Step: 1, LaneOffsets: laneOffsets(lanes, 1)}
	}
	if layout.Rank() == 0 {
		return newLoop(1, 1, lanes, []int{layout.Offset()})
	}

	f := layout.ComputeFortranLayout(order, true)
	if f.Rank() == 0 {
		// Every axis had size 1.
		return newLoop(1, 1, lanes, []int{f.Offset()})
	}
	return newLoop(f.shape[0], f.strides[0], lanes,
		outerOffsets(f.offset, f.shape[1:], f.strides[1:]))
}

func newLoop(size, step, lanes int, offsets []int) *LoopDescriptor {
	return &LoopDescriptor{
		Size:        size,
		Step:        step,
		Lanes:       lanes,
		Bound:       simd.Bound(size, lanes),
		LaneOffsets: laneOffsets(lanes, step),
		Offsets:     offsets,
	}
}

// Count returns the number of elements the descriptor visits.
func (d *LoopDescriptor) Count() int {
	return d.Size * len(d.Offsets)
}

// Positions returns every visited storage position in visiting order.
// It is meant for tests and slow paths.
func (d *LoopDescriptor) Positions() []int {
	out := make([]int, 0, d.Count())
	for _, base := range d.Offsets {
		for i := 0; i < d.Size; i++ {
			out = append(out, base+i*d.Step)
		}
	}
	return out
}

func laneOffsets(lanes, step int) []int {
	offsets := make([]int, lanes)
	for k := range offsets {
		offsets[k] = k * step
	}
	return offsets
}

// outerOffsets enumerates base + Σ ik*strides[k] for every combination of the
// outer axes with an odometer in which axis 0 varies fastest.
func outerOffsets(base int, dims []int, strides []int) []int {
	count := 1
	for _, d := range dims {
		count *= d
	}
	offsets := make([]int, count)
	if count == 0 {
		return offsets
	}
	idx := make([]int, len(dims))
	ptr := base
	for n := range offsets {
		offsets[n] = ptr
		for k := range idx {
			idx[k]++
			ptr += strides[k]
			if idx[k] < dims[k] {
				break
			}
			// Carry: rewind this axis and advance the next one.
			ptr -= idx[k] * strides[k]
			idx[k] = 0
		}
	}
	return offsets
}

// PairLoop is a joint plan over two layouts of the same shape. Axes are fused
// only when they are contiguous in both layouts, so the k-th visit of one
// layout always pairs with the k-th visit of the other.
type PairLoop struct {
	Size     int
	Lanes    int
	Bound    int
	StepA    int
	StepB    int
	LanesA   []int
	LanesB   []int
	OffsetsA []int
	OffsetsB []int
}

// NewPairLoop plans a joint traversal. The axis order follows order, with S
// resolved against layout a.
func NewPairLoop(a, b StrideLayout, order Order, lanes int) (*PairLoop, error) {
	if !a.shape.Equal(b.shape) {
		return nil, wrapShapes(ErrShapeMismatch, a.shape, b.shape)
	}
	if lanes < 1 {
		lanes = 1
	}
	if a.Size() == 0 {
		return &PairLoop{Lanes: lanes, StepA: 1, StepB: 1,
			LanesA: laneOffsets(lanes, 1), LanesB: laneOffsets(lanes, 1)}, nil
	}

	var dims, sa, sb []int
	for _, ax := range a.traversalAxes(order) {
		d := a.shape[ax]
		if d == 1 {
			continue
		}
		if n := len(dims); n > 0 &&
			sa[n-1]*dims[n-1] == a.strides[ax] && sb[n-1]*dims[n-1] == b.strides[ax] {
			dims[n-1] *= d
			continue
		}
		dims = append(dims, d)
		sa = append(sa, a.strides[ax])
		sb = append(sb, b.strides[ax])
	}
	if len(dims) == 0 {
		dims, sa, sb = []int{1}, []int{1}, []int{1}
	}
	return &PairLoop{
		Size:     dims[0],
		Lanes:    lanes,
		Bound:    simd.Bound(dims[0], lanes),
		StepA:    sa[0],
		StepB:    sb[0],
		LanesA:   laneOffsets(lanes, sa[0]),
		LanesB:   laneOffsets(lanes, sb[0]),
		OffsetsA: outerOffsets(a.offset, dims[1:], sa[1:]),
		OffsetsB: outerOffsets(b.offset, dims[1:], sb[1:]),
	}, nil
}

// Count returns the number of element pairs visited.
func (p *PairLoop) Count() int {
	return p.Size * len(p.OffsetsA)
}
