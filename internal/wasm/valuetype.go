// Package wasm holds the data model this translator assumes was already
// produced by an upstream parser and validator (spec.md §1 Non-goals): a
// typed, validated WASM module. Nothing here decodes binary bytes or
// checks validity — callers construct these types directly, the way a
// parser collaborator would after a successful validation pass.
package wasm

// ValueType is one of the six WASM value types this translator supports.
type ValueType byte

const (
	ValueTypeI32 ValueType = iota
	ValueTypeI64
	ValueTypeF32
	ValueTypeF64
	ValueTypeFuncRef
	ValueTypeExternRef
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeFuncRef:
		return "funcref"
	case ValueTypeExternRef:
		return "externref"
	default:
		return "unknown"
	}
}

// IsReference reports whether v is one of the two WASM reference types.
func (v ValueType) IsReference() bool {
	return v == ValueTypeFuncRef || v == ValueTypeExternRef
}

// IsNumeric reports whether v is one of the four WASM numeric types.
func (v ValueType) IsNumeric() bool {
	return !v.IsReference()
}

// Is64Bit reports whether v occupies two JVM locals/stack slots (i64, f64).
func (v ValueType) Is64Bit() bool {
	return v == ValueTypeI64 || v == ValueTypeF64
}
