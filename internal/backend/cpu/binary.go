package cpu

import (
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/simd"
	"github.com/born-ml/strided/internal/tensor"
)

// BinaryOp identifies an elementwise operator of two arguments.
type BinaryOp int

// Binary operators.
const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Min
	Max
	Pow
)

var binaryNames = [...]string{Add: "add", Sub: "sub", Mul: "mul", Div: "div", Min: "min", Max: "max", Pow: "pow"}

func (op BinaryOp) String() string {
	if op < 0 || int(op) >= len(binaryNames) {
		return "unknown"
	}
	return binaryNames[op]
}

// FloatOnly reports whether the operator is undefined on integer kinds.
func (op BinaryOp) FloatOnly() bool {
	return op == Pow
}

// BinaryInPlace computes dst = dst op src elementwise. src is broadcast to the
// shape of dst; dst itself is never broadcast. src may be another view of dst.
func BinaryInPlace[T dtype.Num](cpu *CPUBackend, op BinaryOp,
	dst *tensor.Storage[T], dl tensor.StrideLayout,
	src *tensor.Storage[T], sl tensor.StrideLayout,
) error {
	if err := checkWritable(dl); err != nil {
		return err
	}
	f, err := binaryFunc[T](op)
	if err != nil {
		return err
	}
	if !sl.Shape().Equal(dl.Shape()) {
		if sl, err = sl.BroadcastTo(dl.Shape()); err != nil {
			return errors.Wrapf(err, "%s", op)
		}
	}
	if src == dst && !sl.Equal(dl) {
		// An overlapping view would read cells that were already written.
		src, sl = Copy(cpu, src, sl, tensor.C)
	}
	p, err := tensor.NewPairLoop(dl, sl, tensor.S, lanes[T](cpu))
	if err != nil {
		return err
	}
	zipLoop(dst.Data(), src.Data(), p, f)
	return nil
}

// BinaryScalarInPlace computes dst = dst op x for every element addressed by l.
func BinaryScalarInPlace[T dtype.Num](cpu *CPUBackend, op BinaryOp, s *tensor.Storage[T], l tensor.StrideLayout, x T) error {
	if err := checkWritable(l); err != nil {
		return err
	}
	f, err := binaryFunc[T](op)
	if err != nil {
		return err
	}
	d := tensor.NewLoopDescriptor(l, tensor.S, lanes[T](cpu))
	data := s.Data()
	v := simd.NewVec[T](d.Lanes)
	for _, base := range d.Offsets {
		if d.Step == 1 {
			for i := 0; i < d.Bound; i += d.Lanes {
				v.Load(data, base+i)
				v.ZipScalar(x, f)
				v.Store(data, base+i)
			}
		} else {
			for i := 0; i < d.Bound; i += d.Lanes {
				p := base + i*d.Step
				v.Gather(data, p, d.LaneOffsets)
				v.ZipScalar(x, f)
				v.Scatter(data, p, d.LaneOffsets)
			}
		}
		for i, p := d.Bound, base+d.Bound*d.Step; i < d.Size; i, p = i+1, p+d.Step {
			data[p] = f(data[p], x)
		}
	}
	return nil
}

func zipLoop[T dtype.Num](a, b []T, p *tensor.PairLoop, f func(T, T) T) {
	va := simd.NewVec[T](p.Lanes)
	vb := simd.NewVec[T](p.Lanes)
	for k, baseA := range p.OffsetsA {
		baseB := p.OffsetsB[k]
		if p.StepA == 1 && p.StepB == 1 {
			for i := 0; i < p.Bound; i += p.Lanes {
				va.Load(a, baseA+i)
				vb.Load(b, baseB+i)
				va.Zip(&vb, f)
				va.Store(a, baseA+i)
			}
		} else {
			for i := 0; i < p.Bound; i += p.Lanes {
				pa, pb := baseA+i*p.StepA, baseB+i*p.StepB
				va.Gather(a, pa, p.LanesA)
				vb.Gather(b, pb, p.LanesB)
				va.Zip(&vb, f)
				va.Scatter(a, pa, p.LanesA)
			}
		}
		pa, pb := baseA+p.Bound*p.StepA, baseB+p.Bound*p.StepB
		for i := p.Bound; i < p.Size; i++ {
			a[pa] = f(a[pa], b[pb])
			pa += p.StepA
			pb += p.StepB
		}
	}
}

func binaryFunc[T dtype.Num](op BinaryOp) (func(T, T) T, error) {
	isFloat := dtype.IsFloat[T]()
	if op.FloatOnly() && !isFloat {
		return nil, errors.Wrapf(tensor.ErrUnsupportedOperation, "%s on %s", op, dtype.Of[T]())
	}
	switch op {
	case Add:
		return func(x, y T) T { return x + y }, nil
	case Sub:
		return func(x, y T) T { return x - y }, nil
	case Mul:
		return func(x, y T) T { return x * y }, nil
	case Div:
		if isFloat {
			return func(x, y T) T { return x / y }, nil
		}
		// Integer division by zero yields zero instead of a runtime panic.
		return func(x, y T) T {
			if y == 0 {
				return 0
			}
			return x / y
		}, nil
	case Min:
		return minOf[T], nil
	case Max:
		return maxOf[T], nil
	case Pow:
		return func(x, y T) T { return T(math.Pow(float64(x), float64(y))) }, nil
	default:
		return nil, errors.Wrapf(tensor.ErrUnsupportedOperation, "binary %s", op)
	}
}

// minOf returns the smaller argument, propagating NaN.
func minOf[T dtype.Num](x, y T) T {
	switch {
	case dtype.IsNaN(x):
		return x
	case y < x || dtype.IsNaN(y):
		return y
	default:
		return x
	}
}

// maxOf returns the larger argument, propagating NaN.
func maxOf[T dtype.Num](x, y T) T {
	switch {
	case dtype.IsNaN(x):
		return x
	case y > x || dtype.IsNaN(y):
		return y
	default:
		return x
	}
}
