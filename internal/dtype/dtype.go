// Package dtype describes the closed set of numeric kinds the engine stores.
package dtype

import "math"

// Num is a constraint for supported element types.
// It uses Go generics to ensure compile-time type safety.
type Num interface {
	~uint8 | ~int32 | ~int64 | ~float32 | ~float64
}

// Float is the subset of Num that supports transcendental operations.
type Float interface {
	~float32 | ~float64
}

// DataType represents runtime type information for storages.
type DataType int

// Supported data types.
const (
	Uint8 DataType = iota
	Int32
	Int64
	Float32
	Float64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Uint8:
		return 1
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Uint8:
		return "uint8"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// IsFloat reports whether the kind is a floating point kind.
func (dt DataType) IsFloat() bool {
	return dt == Float32 || dt == Float64
}

// Of infers the DataType of T.
func Of[T Num]() DataType {
	var dummy T
	switch any(dummy).(type) {
	case uint8:
		return Uint8
	case int32:
		return Int32
	case int64:
		return Int64
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		panic("unsupported type")
	}
}

// Zero returns the additive identity.
func Zero[T Num]() T {
	var z T
	return z
}

// One returns the multiplicative identity.
func One[T Num]() T {
	return T(1)
}

// MinValue returns the smallest value of T. Floats use -Inf so that it is the
// identity of a max reduction.
func MinValue[T Num]() T {
	var dummy T
	switch any(dummy).(type) {
	case uint8:
		return T(0)
	case int32:
		v := int32(math.MinInt32)
		return T(v)
	case int64:
		v := int64(math.MinInt64)
		return T(v)
	case float32:
		v := float32(math.Inf(-1))
		return T(v)
	case float64:
		v := math.Inf(-1)
		return T(v)
	default:
		panic("unsupported type")
	}
}

// MaxValue returns the largest value of T. Floats use +Inf so that it is the
// identity of a min reduction.
func MaxValue[T Num]() T {
	var dummy T
	switch any(dummy).(type) {
	case uint8:
		v := uint8(math.MaxUint8)
		return T(v)
	case int32:
		v := int32(math.MaxInt32)
		return T(v)
	case int64:
		v := int64(math.MaxInt64)
		return T(v)
	case float32:
		v := float32(math.Inf(1))
		return T(v)
	case float64:
		v := math.Inf(1)
		return T(v)
	default:
		panic("unsupported type")
	}
}

// IsNaN reports whether v is NaN. Integers are never NaN.
func IsNaN[T Num](v T) bool {
	// NaN is the only value not equal to itself.
	return v != v //nolint:gocritic // self comparison is the NaN test
}

// NaN returns a NaN for float kinds and zero for integer kinds.
func NaN[T Num]() T {
	if !IsFloat[T]() {
		return Zero[T]()
	}
	var dummy T
	switch any(dummy).(type) {
	case float32:
		v := float32(math.NaN())
		return T(v)
	default:
		v := math.NaN()
		return T(v)
	}
}

// IsFloat reports whether T is a floating point kind.
func IsFloat[T Num]() bool {
	return Of[T]().IsFloat()
}

// Cast converts a value of kind T to kind U using Go conversion rules.
func Cast[U, T Num](v T) U {
	return U(v)
}

// FromFloat64 converts a float64 to T. Integer kinds truncate toward zero.
func FromFloat64[T Num](v float64) T {
	return T(v)
}

// ToFloat64 converts v to float64.
func ToFloat64[T Num](v T) float64 {
	return float64(v)
}
