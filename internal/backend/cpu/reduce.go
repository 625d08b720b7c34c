package cpu

import (
	"math"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/simd"
	"github.com/born-ml/strided/internal/tensor"
)

// ReduceOp identifies an associative fold.
type ReduceOp int

// Reduce operators. The Nan variants skip NaN elements.
const (
	ReduceSum ReduceOp = iota
	ReduceProd
	ReduceMin
	ReduceMax
	ReduceNanSum
	ReduceNanProd
	ReduceNanMin
	ReduceNanMax
)

var reduceNames = [...]string{
	ReduceSum: "sum", ReduceProd: "prod", ReduceMin: "min", ReduceMax: "max",
	ReduceNanSum: "nansum", ReduceNanProd: "nanprod", ReduceNanMin: "nanmin", ReduceNanMax: "nanmax",
}

func (op ReduceOp) String() string {
	if op < 0 || int(op) >= len(reduceNames) {
		return "unknown"
	}
	return reduceNames[op]
}

// Identity returns the neutral element of op for T.
func Identity[T dtype.Num](op ReduceOp) T {
	switch op {
	case ReduceProd, ReduceNanProd:
		return dtype.One[T]()
	case ReduceMin, ReduceNanMin:
		return dtype.MaxValue[T]()
	case ReduceMax, ReduceNanMax:
		return dtype.MinValue[T]()
	default:
		return dtype.Zero[T]()
	}
}

func reduceFunc[T dtype.Num](op ReduceOp) func(acc, x T) T {
	var f func(T, T) T
	switch op {
	case ReduceProd, ReduceNanProd:
		f = func(acc, x T) T { return acc * x }
	case ReduceMin, ReduceNanMin:
		f = minOf[T]
	case ReduceMax, ReduceNanMax:
		f = maxOf[T]
	default:
		f = func(acc, x T) T { return acc + x }
	}
	if op < ReduceNanSum || !dtype.IsFloat[T]() {
		return f
	}
	return func(acc, x T) T {
		if dtype.IsNaN(x) {
			return acc
		}
		return f(acc, x)
	}
}

// Reduce folds every element addressed by l with op. Vector lanes accumulate
// partial results that are combined horizontally before the scalar tail, so
// floating point sums may differ from a sequential fold by reassociation.
func Reduce[T dtype.Num](cpu *CPUBackend, op ReduceOp, s *tensor.Storage[T], l tensor.StrideLayout) T {
	d := tensor.NewLoopDescriptor(l, tensor.S, lanes[T](cpu))
	return foldLoop(s.Data(), d, Identity[T](op), reduceFunc[T](op))
}

func foldLoop[T dtype.Num](data []T, d *tensor.LoopDescriptor, init T, f func(T, T) T) T {
	acc := simd.Broadcast(d.Lanes, init)
	v := simd.NewVec[T](d.Lanes)
	tail := init
	for _, base := range d.Offsets {
		if d.Step == 1 {
			for i := 0; i < d.Bound; i += d.Lanes {
				v.Load(data, base+i)
				acc.Zip(&v, f)
			}
		} else {
			for i := 0; i < d.Bound; i += d.Lanes {
				v.Gather(data, base+i*d.Step, d.LaneOffsets)
				acc.Zip(&v, f)
			}
		}
		for i, p := d.Bound, base+d.Bound*d.Step; i < d.Size; i, p = i+1, p+d.Step {
			tail = f(tail, data[p])
		}
	}
	return f(acc.Fold(init, f), tail)
}

// accumulate sums g(x) over the layout in float64 with lane partial sums.
func accumulate[T dtype.Num](data []T, d *tensor.LoopDescriptor, g func(T) float64) float64 {
	part := simd.NewVec[float64](d.Lanes)
	sums := part.Lanes()
	tail := 0.0
	for _, base := range d.Offsets {
		if d.Step == 1 {
			for i := 0; i < d.Bound; i += d.Lanes {
				chunk := data[base+i : base+i+len(sums)]
				for k, x := range chunk {
					sums[k] += g(x)
				}
			}
		} else {
			for i := 0; i < d.Bound; i += d.Lanes {
				p := base + i*d.Step
				for k := range sums {
					sums[k] += g(data[p+d.LaneOffsets[k]])
				}
			}
		}
		for i, p := d.Bound, base+d.Bound*d.Step; i < d.Size; i, p = i+1, p+d.Step {
			tail += g(data[p])
		}
	}
	return part.Fold(0, func(a, b float64) float64 { return a + b }) + tail
}

// moments holds the passes shared by mean and variance.
type moments[T dtype.Num] struct {
	data []T
	d    *tensor.LoopDescriptor
	skip bool // skip NaN elements
}

func newMoments[T dtype.Num](cpu *CPUBackend, s *tensor.Storage[T], l tensor.StrideLayout, skipNaN bool) moments[T] {
	return moments[T]{
		data: s.Data(),
		d:    tensor.NewLoopDescriptor(l, tensor.S, lanes[T](cpu)),
		skip: skipNaN && dtype.IsFloat[T](),
	}
}

func (m moments[T]) count() float64 {
	if !m.skip {
		return float64(m.d.Count())
	}
	return accumulate(m.data, m.d, func(x T) float64 {
		if dtype.IsNaN(x) {
			return 0
		}
		return 1
	})
}

func (m moments[T]) sum(g func(float64) float64) float64 {
	return accumulate(m.data, m.d, func(x T) float64 {
		v := float64(x)
		if m.skip && math.IsNaN(v) {
			return 0
		}
		return g(v)
	})
}

// mean runs the two-pass mean: a raw mean followed by a correction pass that
// adds back the mean residual lost to rounding in the first pass.
func (m moments[T]) mean(n float64) float64 {
	mu := m.sum(func(v float64) float64 { return v }) / n
	return mu + m.sum(func(v float64) float64 { return v - mu })/n
}

// Mean returns the arithmetic mean. It is NaN for an empty layout.
func Mean[T dtype.Num](cpu *CPUBackend, s *tensor.Storage[T], l tensor.StrideLayout) float64 {
	return meanOf(newMoments(cpu, s, l, false))
}

// NanMean is Mean ignoring NaN elements.
func NanMean[T dtype.Num](cpu *CPUBackend, s *tensor.Storage[T], l tensor.StrideLayout) float64 {
	return meanOf(newMoments(cpu, s, l, true))
}

func meanOf[T dtype.Num](m moments[T]) float64 {
	n := m.count()
	if n == 0 {
		return math.NaN()
	}
	return m.mean(n)
}

// Var returns the variance with ddof delta degrees of freedom (0 is the
// population variance). It runs three passes: the two-pass mean, then the
// squared deviations together with the compensation term Σ(x-μ).
func Var[T dtype.Num](cpu *CPUBackend, s *tensor.Storage[T], l tensor.StrideLayout, ddof int) float64 {
	return varOf(newMoments(cpu, s, l, false), ddof)
}

// NanVar is Var ignoring NaN elements.
func NanVar[T dtype.Num](cpu *CPUBackend, s *tensor.Storage[T], l tensor.StrideLayout, ddof int) float64 {
	return varOf(newMoments(cpu, s, l, true), ddof)
}

func varOf[T dtype.Num](m moments[T], ddof int) float64 {
	n := m.count()
	if n-float64(ddof) <= 0 {
		return math.NaN()
	}
	mu := m.mean(n)
	ss := m.sum(func(v float64) float64 {
		d := v - mu
		return d * d
	})
	comp := m.sum(func(v float64) float64 { return v - mu })
	return (ss - comp*comp/n) / (n - float64(ddof))
}

// ArgMin returns the C-order position of the first minimum, or -1 when the
// layout is empty. A NaN element wins immediately.
func ArgMin[T dtype.Num](cpu *CPUBackend, s *tensor.Storage[T], l tensor.StrideLayout) int {
	return argReduce(cpu, s, l, func(x, best T) bool { return x < best })
}

// ArgMax returns the C-order position of the first maximum, or -1 when the
// layout is empty. A NaN element wins immediately.
func ArgMax[T dtype.Num](cpu *CPUBackend, s *tensor.Storage[T], l tensor.StrideLayout) int {
	return argReduce(cpu, s, l, func(x, best T) bool { return x > best })
}

func argReduce[T dtype.Num](cpu *CPUBackend, s *tensor.Storage[T], l tensor.StrideLayout, better func(x, best T) bool) int {
	// C order so that the visiting position is the logical position.
	d := tensor.NewLoopDescriptor(l, tensor.C, lanes[T](cpu))
	if d.Count() == 0 {
		return -1
	}
	data := s.Data()
	bestPos := 0
	best := data[d.Offsets[0]]
	if dtype.IsNaN(best) {
		return 0
	}
	pos := 0
	for _, base := range d.Offsets {
		for i, p := 0, base; i < d.Size; i, p = i+1, p+d.Step {
			x := data[p]
			if dtype.IsNaN(x) {
				return pos
			}
			if better(x, best) {
				best, bestPos = x, pos
			}
			pos++
		}
	}
	return bestPos
}

// ReduceAxis applies f to every 1-D line of l along axis and gathers the
// results into a new dense C-order storage. The reduced axis is removed, or
// kept with size 1 when keepDim is set.
func ReduceAxis[R dtype.Num](l tensor.StrideLayout, axis int, keepDim bool,
	f func(line tensor.StrideLayout) R,
) (*tensor.Storage[R], tensor.StrideLayout, error) {
	outer, err := l.NarrowStrides(axis)
	if err != nil {
		return nil, tensor.StrideLayout{}, err
	}
	if axis < 0 {
		axis += l.Rank()
	}
	line, err := tensor.NewLayout(tensor.Shape{l.Dim(axis)}, 0, []int{l.Stride(axis)})
	if err != nil {
		return nil, tensor.StrideLayout{}, err
	}

	shape := outer.Shape().Clone()
	if keepDim {
		shape = l.Shape().Clone()
		shape[axis] = 1
	}
	out := tensor.NewStorage[R](shape.Size())
	data := out.Data()
	k := 0
	for base := range tensor.Pointers(outer, tensor.C) {
		data[k] = f(line.WithOffset(base))
		k++
	}
	return out, tensor.DenseLayout(shape, 0, tensor.C), nil
}
