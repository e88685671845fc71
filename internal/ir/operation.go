package ir

import "github.com/wasm2jvm/translator/internal/wasm"

// OperationKind enumerates the flattened operation set the Control-Flow
// Compiler produces and the Operand-Stack Translator (internal/translator)
// consumes one at a time, each via a `compileFoo` method named after the
// Kind — mirroring wazero's `internal/engine/compiler` `compiler`
// interface, whose methods are literally named `compileAdd`,
// `compileBrTable`, `compileGlobalGet`, and so on, one per
// wazeroir.OperationFoo.
type OperationKind int

const (
	OpKindUnreachable OperationKind = iota
	OpKindLabel
	OpKindBr
	OpKindBrIf
	OpKindBrTable
	OpKindReturn
	OpKindCall
	OpKindCallIndirect
	OpKindDrop
	OpKindSelect

	// OpKindFrameEnter marks the point a block/loop/if frame's body begins
	// (spec.md §4.4): its FrameParams/FrameResults carry the frame's
	// declared T_in/T_out, letting the translator reset its own abstract
	// operand-type stack at frame exit and (for `if`) at its else arm
	// without separately re-deriving block-type information.
	OpKindFrameEnter

	OpKindLocalGet
	OpKindLocalSet
	OpKindLocalTee
	OpKindGlobalGet
	OpKindGlobalSet

	OpKindConstI32
	OpKindConstI64
	OpKindConstF32
	OpKindConstF64

	OpKindAdd
	OpKindSub
	OpKindMul
	OpKindDiv
	OpKindRem
	OpKindAnd
	OpKindOr
	OpKindXor
	OpKindShl
	OpKindShr
	OpKindRotl
	OpKindRotr
	OpKindClz
	OpKindCtz
	OpKindPopcnt

	OpKindAbs
	OpKindNeg
	OpKindCeil
	OpKindFloor
	OpKindTrunc
	OpKindNearest
	OpKindSqrt
	OpKindMin
	OpKindMax
	OpKindCopysign

	OpKindEq
	OpKindNe
	OpKindEqz
	OpKindLt
	OpKindGt
	OpKindLe
	OpKindGe

	OpKindI32WrapI64
	OpKindITruncFromF
	OpKindITruncSatFromF
	OpKindFConvertFromI
	OpKindF32DemoteF64
	OpKindF64PromoteF32
	OpKindExtend
	OpKindSignExtend
	OpKindReinterpret

	OpKindLoad
	OpKindLoad8
	OpKindLoad16
	OpKindLoad32
	OpKindStore
	OpKindStore8
	OpKindStore16
	OpKindStore32
	OpKindMemorySize
	OpKindMemoryGrow

	OpKindRefNull
	OpKindRefIsNull
	OpKindRefFunc

	operationKindEnd
)

var operationKindNames = map[OperationKind]string{
	OpKindUnreachable: "Unreachable", OpKindLabel: "Label", OpKindBr: "Br",
	OpKindBrIf: "BrIf", OpKindBrTable: "BrTable", OpKindReturn: "Return",
	OpKindCall: "Call", OpKindCallIndirect: "CallIndirect", OpKindDrop: "Drop",
	OpKindSelect: "Select", OpKindFrameEnter: "FrameEnter",
	OpKindLocalGet: "LocalGet", OpKindLocalSet: "LocalSet", OpKindLocalTee: "LocalTee",
	OpKindGlobalGet: "GlobalGet", OpKindGlobalSet: "GlobalSet",
	OpKindConstI32: "ConstI32", OpKindConstI64: "ConstI64",
	OpKindConstF32: "ConstF32", OpKindConstF64: "ConstF64",
	OpKindAdd: "Add", OpKindSub: "Sub", OpKindMul: "Mul", OpKindDiv: "Div", OpKindRem: "Rem",
	OpKindAnd: "And", OpKindOr: "Or", OpKindXor: "Xor", OpKindShl: "Shl", OpKindShr: "Shr",
	OpKindRotl: "Rotl", OpKindRotr: "Rotr", OpKindClz: "Clz", OpKindCtz: "Ctz", OpKindPopcnt: "Popcnt",
	OpKindAbs: "Abs", OpKindNeg: "Neg", OpKindCeil: "Ceil", OpKindFloor: "Floor",
	OpKindTrunc: "Trunc", OpKindNearest: "Nearest", OpKindSqrt: "Sqrt",
	OpKindMin: "Min", OpKindMax: "Max", OpKindCopysign: "Copysign",
	OpKindEq: "Eq", OpKindNe: "Ne", OpKindEqz: "Eqz", OpKindLt: "Lt", OpKindGt: "Gt",
	OpKindLe: "Le", OpKindGe: "Ge",
	OpKindI32WrapI64: "I32WrapI64", OpKindITruncFromF: "ITruncFromF",
	OpKindITruncSatFromF: "ITruncSatFromF", OpKindFConvertFromI: "FConvertFromI",
	OpKindF32DemoteF64: "F32DemoteF64", OpKindF64PromoteF32: "F64PromoteF32",
	OpKindExtend: "Extend", OpKindSignExtend: "SignExtend", OpKindReinterpret: "Reinterpret",
	OpKindLoad: "Load", OpKindLoad8: "Load8", OpKindLoad16: "Load16", OpKindLoad32: "Load32",
	OpKindStore: "Store", OpKindStore8: "Store8", OpKindStore16: "Store16", OpKindStore32: "Store32",
	OpKindMemorySize: "MemorySize", OpKindMemoryGrow: "MemoryGrow",
	OpKindRefNull: "RefNull", OpKindRefIsNull: "RefIsNull", OpKindRefFunc: "RefFunc",
}

func (k OperationKind) String() string {
	if name, ok := operationKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Operation is one flattened instruction the translator lowers, with a
// single-struct "union" shape (unused fields for a given Kind are simply
// zero) rather than one Go type per Kind — the same trade wazero itself
// makes internally (its compiler_test.go/operations_test.go exercise a
// `UnionOperation` with a `Kind` field and a per-Kind String method,
// which this type mirrors).
type Operation struct {
	Kind OperationKind

	// Type is the WASM value type a numeric/comparison/conversion
	// operation applies to (disambiguates i32.add from i64.add the way
	// the flat operand list can't by Kind alone).
	Type wasm.ValueType
	// SrcType is the source type for conversions (e.g. ITruncFromF's
	// float operand type, Reinterpret's source type).
	SrcType wasm.ValueType

	Signed     bool // DivS/RemS/ShrS/LtS/.../TruncS vs. the U variants
	Saturating bool // ITruncSatFromF vs. the trapping ITruncFromF

	// Label is the Br/BrIf jump target, or the label this OpKindLabel
	// operation marks.
	Label *Label
	// Negate reverses an OpKindBrIf's test, turning "branch if true" into
	// "branch if false" — how `if` itself lowers: WASM's `if` pops a
	// condition and continues inline on true, jumping to the else-or-end
	// label on false (spec.md §4.4), the mirror image of `br_if`.
	Negate bool
	// Arity is the number of operand-stack values carried across a
	// branch: the target frame's result arity for forward targets, or
	// parameter arity for loop (backward) targets (spec.md §4.4 "br k").
	Arity int

	// BrTableTargets/BrTableDefault carry OpKindBrTable's jump table.
	BrTableTargets []*Label
	BrTableDefault *Label

	// Types is the exact declared value-type list a Br/BrIf/BrTable/Return
	// target carries across the branch (spec.md §4.4's branch arity,
	// typed rather than just counted, since stack-height reconciliation
	// needs each value's width — int vs. long/double take a different
	// number of JVM local slots when spilled to a temporary).
	Types []wasm.ValueType

	// FrameParams/FrameResults carry a block/loop/if frame's T_in/T_out
	// (only populated on OpKindFrameEnter).
	FrameParams  []wasm.ValueType
	FrameResults []wasm.ValueType

	Index      uint32 // local/global/function index
	TableIndex uint32 // call_indirect's table index

	// FuncType is populated for Call/CallIndirect so the translator knows
	// the target's JVM signature without a second module lookup.
	FuncType *wasm.FunctionType

	MemOffset uint64
	// AccessSize is the width in bytes of a Load8/16/32/Store8/16/32
	// access (1, 2, or 4); full-width Load/Store infer size from Type.
	AccessSize int

	ConstI32 int32
	ConstI64 int64
	ConstF32 float32
	ConstF64 float64

	RefType wasm.ValueType // OpKindRefNull's operand type
}
