package tensor

import "github.com/pkg/errors"

// Contract violations detected by the engine. They are deterministic for a
// given input and are returned to the caller wrapped with context; use
// errors.Is to classify them.
var (
	ErrInvalidShape         = errors.New("invalid shape")
	ErrRankMismatch         = errors.New("rank mismatch")
	ErrOutOfBounds          = errors.New("index out of bounds")
	ErrShapeMismatch        = errors.New("shape mismatch")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrDimensionMismatch    = errors.New("dimension mismatch")
	ErrSingular             = errors.New("singular matrix")
)

// checkAxis normalizes a possibly negative axis and validates it against rank.
func checkAxis(axis, rank int) (int, error) {
	a := axis
	if a < 0 {
		a += rank
	}
	if a < 0 || a >= rank {
		return 0, errors.Wrapf(ErrOutOfBounds, "axis %d for rank %d", axis, rank)
	}
	return a, nil
}

func wrapShapes(err error, a, b Shape) error {
	return errors.Wrapf(err, "%v vs %v", a, b)
}
