// Package typemap implements the Type Mapper (spec.md §4.1): mapping
// WASM value/function/block types to JVM signatures, and deciding when
// multi-value results (or oversized parameter lists) must be packed into
// boxed object arrays at a function's JVM boundary.
package typemap

import (
	"fmt"
	"math"

	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/wasm"
)

// MaxDirectParamSlots is the JVM's 255-argument method limit, minus one
// reserved for the receiver (spec.md §4.1 "P ≤ 254 (reserve one for the
// receiver)").
const MaxDirectParamSlots = 254

// MaxDirectResults is the JVM's single-value-return limit.
const MaxDirectResults = 1

// ErrSignatureTooWide is returned when a signature cannot be represented
// even after object-array packing (spec.md §7.1). In practice this only
// fires when a declared arity exceeds what a 32-bit array length/index
// can represent — an extreme, essentially unreachable case for any
// validated module, but the translator checks it rather than silently
// truncating (spec.md's own design stance on narrowing, §9).
type ErrSignatureTooWide struct {
	Direction string // "parameters" or "results"
	Count     int
}

func (e *ErrSignatureTooWide) Error() string {
	return fmt.Sprintf("typemap: %s count %d exceeds the packed-array budget", e.Direction, e.Count)
}

// MapValueType returns the unboxed JVM type backing a WASM value type
// (spec.md §4.1: i32→int, i64→long, f32→float, f64→double,
// references→a one-slot reference). Reference types map to
// java.lang.Object since, per spec.md §3, a FuncRef's unboxed form is a
// method-handle reference and an ExternRef's is an opaque object
// reference, and both are held as plain references once on the JVM
// operand stack or in a local slot.
func MapValueType(v wasm.ValueType) jvm.Type {
	switch v {
	case wasm.ValueTypeI32:
		return jvm.Int
	case wasm.ValueTypeI64:
		return jvm.Long
	case wasm.ValueTypeF32:
		return jvm.Float
	case wasm.ValueTypeF64:
		return jvm.Double
	case wasm.ValueTypeFuncRef:
		return jvm.MethodHandleType
	case wasm.ValueTypeExternRef:
		return jvm.ObjectType
	default:
		panic(fmt.Sprintf("typemap: unknown value type %d", v))
	}
}

// BoxedType returns the always-reference boxed JVM type for v, used for
// every element of a packed object array (spec.md §4.1 "Boxing is
// mandatory for every element... mixed boxed/unboxed is disallowed").
func BoxedType(v wasm.ValueType) jvm.Type {
	switch v {
	case wasm.ValueTypeI32:
		return jvm.BoxedIntegerType
	case wasm.ValueTypeI64:
		return jvm.BoxedLongType
	case wasm.ValueTypeF32:
		return jvm.BoxedFloatType
	case wasm.ValueTypeF64:
		return jvm.BoxedDoubleType
	default:
		return jvm.ObjectType
	}
}

// Slots reports how many JVM local/stack slots a value of type v
// occupies: 2 for i64/f64, 1 otherwise (spec.md §4.1).
func Slots(v wasm.ValueType) int {
	if v.Is64Bit() {
		return 2
	}
	return 1
}

// ParamSlots sums Slots across an ordered parameter list.
func ParamSlots(params []wasm.ValueType) int {
	n := 0
	for _, p := range params {
		n += Slots(p)
	}
	return n
}

// Signature is the JVM-facing shape of one WASM function type, after the
// Type Mapper's packing decision.
type Signature struct {
	// ParamsPacked is true when parameters are passed as a single
	// java.lang.Object[] rather than one JVM parameter per WASM param
	// (spec.md §4.1: triggered when parameter slot count exceeds
	// MaxDirectParamSlots).
	ParamsPacked bool
	// ResultsPacked is true when results are returned as a single
	// java.lang.Object[] rather than a natural single JVM return value
	// (triggered whenever there is more than one WASM result).
	ResultsPacked bool

	// ParamTypes/ResultType are the *direct* JVM descriptor shape: when
	// ParamsPacked, ParamTypes is [ObjectArrayType]; when ResultsPacked,
	// ResultType is ObjectArrayType; when there are zero results and
	// results aren't packed, ResultType is jvm.Void.
	ParamTypes []jvm.Type
	ResultType jvm.Type

	// WasmParams/WasmResults are the original WASM-typed lists, needed by
	// the Operand-Stack Translator to know each packed array slot's true
	// type for boxing/unboxing (spec.md §4.1).
	WasmParams  []wasm.ValueType
	WasmResults []wasm.ValueType
}

// Descriptor renders this signature's JVM method-descriptor string.
func (s *Signature) Descriptor() string {
	return jvm.MethodDescriptor(s.ParamTypes, s.ResultType)
}

// MapFunctionType applies the Type Mapper's packing rule (spec.md §4.1)
// to a WASM function type, used for every top-level function (never for
// block types — multi-value blocks always stay on the operand stack,
// per spec.md §4.1's own carve-out, and are handled directly by
// internal/translator without going through this function).
func MapFunctionType(ft *wasm.FunctionType) (*Signature, error) {
	sig := &Signature{WasmParams: ft.Params, WasmResults: ft.Results}

	paramSlots := ParamSlots(ft.Params)
	sig.ParamsPacked = paramSlots > MaxDirectParamSlots
	sig.ResultsPacked = len(ft.Results) > MaxDirectResults

	if sig.ParamsPacked {
		if len(ft.Params) > math.MaxInt32 {
			return nil, &ErrSignatureTooWide{Direction: "parameters", Count: len(ft.Params)}
		}
		sig.ParamTypes = []jvm.Type{jvm.ObjectArrayType}
	} else {
		sig.ParamTypes = make([]jvm.Type, len(ft.Params))
		for i, p := range ft.Params {
			sig.ParamTypes[i] = MapValueType(p)
		}
	}

	if sig.ResultsPacked {
		if len(ft.Results) > math.MaxInt32 {
			return nil, &ErrSignatureTooWide{Direction: "results", Count: len(ft.Results)}
		}
		sig.ResultType = jvm.ObjectArrayType
	} else if len(ft.Results) == 1 {
		sig.ResultType = MapValueType(ft.Results[0])
	} else {
		sig.ResultType = jvm.Void
	}

	return sig, nil
}
