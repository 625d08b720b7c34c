package cpu

import (
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/simd"
	"github.com/born-ml/strided/internal/tensor"
)

// UnaryOp identifies an elementwise operator of one argument.
type UnaryOp int

// Unary operators.
const (
	Abs UnaryOp = iota
	Neg
	Sqr
	Sqrt
	Exp
	Expm1
	Log
	Log1p
	Sin
	Cos
	Tan
	Asin
	Acos
	Atan
	Sinh
	Cosh
	Tanh
	Ceil
	Floor
	Rint
	Sign
	Sigmoid
)

var unaryNames = [...]string{
	Abs: "abs", Neg: "neg", Sqr: "sqr", Sqrt: "sqrt", Exp: "exp", Expm1: "expm1",
	Log: "log", Log1p: "log1p", Sin: "sin", Cos: "cos", Tan: "tan", Asin: "asin",
	Acos: "acos", Atan: "atan", Sinh: "sinh", Cosh: "cosh", Tanh: "tanh",
	Ceil: "ceil", Floor: "floor", Rint: "rint", Sign: "sign", Sigmoid: "sigmoid",
}

func (op UnaryOp) String() string {
	if op < 0 || int(op) >= len(unaryNames) {
		return "unknown"
	}
	return unaryNames[op]
}

// FloatOnly reports whether the operator is undefined on integer kinds.
// Abs, Neg, Sqr and Sign work on every kind; rounding is the identity on integers.
func (op UnaryOp) FloatOnly() bool {
	switch op {
	case Abs, Neg, Sqr, Sign, Ceil, Floor, Rint:
		return false
	default:
		return true
	}
}

// UnaryInPlace applies op to every element addressed by l.
func UnaryInPlace[T dtype.Num](cpu *CPUBackend, op UnaryOp, s *tensor.Storage[T], l tensor.StrideLayout) error {
	if err := checkWritable(l); err != nil {
		return err
	}
	f, err := unaryFunc[T](op)
	if err != nil {
		return err
	}
	// Storage order: the result does not depend on traversal order.
	d := tensor.NewLoopDescriptor(l, tensor.S, lanes[T](cpu))
	mapLoop(s.Data(), d, f)
	return nil
}

// Map applies an arbitrary function to every element addressed by l.
func Map[T dtype.Num](cpu *CPUBackend, s *tensor.Storage[T], l tensor.StrideLayout, f func(T) T) error {
	if err := checkWritable(l); err != nil {
		return err
	}
	mapLoop(s.Data(), tensor.NewLoopDescriptor(l, tensor.S, lanes[T](cpu)), f)
	return nil
}

func mapLoop[T dtype.Num](data []T, d *tensor.LoopDescriptor, f func(T) T) {
	v := simd.NewVec[T](d.Lanes)
	for _, base := range d.Offsets {
		if d.Step == 1 {
			for i := 0; i < d.Bound; i += d.Lanes {
				v.Load(data, base+i)
				v.Map(f)
				v.Store(data, base+i)
			}
		} else {
			for i := 0; i < d.Bound; i += d.Lanes {
				p := base + i*d.Step
				v.Gather(data, p, d.LaneOffsets)
				v.Map(f)
				v.Scatter(data, p, d.LaneOffsets)
			}
		}
		for i, p := d.Bound, base+d.Bound*d.Step; i < d.Size; i, p = i+1, p+d.Step {
			data[p] = f(data[p])
		}
	}
}

func checkWritable(l tensor.StrideLayout) error {
	if l.IsBroadcast() {
		return errors.Wrapf(tensor.ErrUnsupportedOperation, "write through broadcast layout %v", l)
	}
	return nil
}

func unaryFunc[T dtype.Num](op UnaryOp) (func(T) T, error) {
	if dtype.IsFloat[T]() {
		if g := floatUnary(op); g != nil {
			return func(x T) T { return T(g(float64(x))) }, nil
		}
		return nil, errors.Wrapf(tensor.ErrUnsupportedOperation, "unary %s", op)
	}
	if op.FloatOnly() {
		return nil, errors.Wrapf(tensor.ErrUnsupportedOperation, "%s on %s", op, dtype.Of[T]())
	}
	switch op {
	case Abs:
		return func(x T) T {
			if x < 0 {
				return -x
			}
			return x
		}, nil
	case Neg:
		return func(x T) T { return -x }, nil
	case Sqr:
		return func(x T) T { return x * x }, nil
	case Sign:
		return func(x T) T {
			switch {
			case x > 0:
				return 1
			case x < 0:
				return dtype.Zero[T]() - 1
			default:
				return 0
			}
		}, nil
	case Ceil, Floor, Rint:
		return func(x T) T { return x }, nil
	default:
		return nil, errors.Wrapf(tensor.ErrUnsupportedOperation, "unary %s", op)
	}
}

func floatUnary(op UnaryOp) func(float64) float64 {
	switch op {
	case Abs:
		return math.Abs
	case Neg:
		return func(x float64) float64 { return -x }
	case Sqr:
		return func(x float64) float64 { return x * x }
	case Sqrt:
		return math.Sqrt
	case Exp:
		return math.Exp
	case Expm1:
		return math.Expm1
	case Log:
		return math.Log
	case Log1p:
		return math.Log1p
	case Sin:
		return math.Sin
	case Cos:
		return math.Cos
	case Tan:
		return math.Tan
	case Asin:
		return math.Asin
	case Acos:
		return math.Acos
	case Atan:
		return math.Atan
	case Sinh:
		return math.Sinh
	case Cosh:
		return math.Cosh
	case Tanh:
		return math.Tanh
	case Ceil:
		return math.Ceil
	case Floor:
		return math.Floor
	case Rint:
		return math.RoundToEven
	case Sign:
		return func(x float64) float64 {
			switch {
			case x > 0:
				return 1
			case x < 0:
				return -1
			default:
				return x // keeps ±0 and NaN
			}
		}
	case Sigmoid:
		return func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
	default:
		return nil
	}
}
