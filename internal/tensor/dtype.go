package tensor

// DataType is the runtime element type of a RawTensor.
//
// The plated core does all probability math in float64 and all index
// bookkeeping in int64, so only those (plus bool masks) are supported.
type DataType int

// Supported data types.
const (
	Float64 DataType = iota
	Int64
	Bool
)

// String returns a human-readable type name.
func (d DataType) String() string {
	switch d {
	case Float64:
		return "float64"
	case Int64:
		return "int64"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// Size returns the element size in bytes.
func (d DataType) Size() int {
	switch d {
	case Float64, Int64:
		return 8
	case Bool:
		return 1
	default:
		return 0
	}
}
