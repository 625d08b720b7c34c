package tensor

// Order is a traversal order over the elements of a layout.
type Order int

// Supported traversal orders.
const (
	// C is row-major order: the last axis varies fastest.
	C Order = iota
	// F is column-major order: the first axis varies fastest.
	F
	// S is storage-natural order: axes are visited by increasing stride,
	// which is the cheapest order for the underlying buffer.
	S
)

// String returns the order letter.
func (o Order) String() string {
	switch o {
	case C:
		return "C"
	case F:
		return "F"
	case S:
		return "S"
	default:
		return "unknown"
	}
}

// Dense reports whether the order describes a dense stride scheme (C or F).
func (o Order) Dense() bool {
	return o == C || o == F
}
