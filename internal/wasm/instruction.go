package wasm

// Opcode identifies a WASM instruction. The set here covers the
// instructions spec.md §4.3's lowering table names explicitly, plus the
// structured control and reference-type instructions spec.md §4.4/§4.5
// need. It intentionally excludes the vector (SIMD) opcode family: v128
// is outside every [MODULE] spec.md defines, so it is not a "feature this
// translator carries" — a future extension, not a silent omission.
type Opcode int

const (
	OpUnreachable Opcode = iota
	OpNop
	OpBlock
	OpLoop
	OpIf
	OpElse
	OpEnd
	OpBr
	OpBrIf
	OpBrTable
	OpReturn
	OpCall
	OpCallIndirect

	OpDrop
	OpSelect

	OpLocalGet
	OpLocalSet
	OpLocalTee
	OpGlobalGet
	OpGlobalSet

	OpI32Load
	OpI64Load
	OpF32Load
	OpF64Load
	OpI32Load8S
	OpI32Load8U
	OpI32Load16S
	OpI32Load16U
	OpI64Load8S
	OpI64Load8U
	OpI64Load16S
	OpI64Load16U
	OpI64Load32S
	OpI64Load32U
	OpI32Store
	OpI64Store
	OpF32Store
	OpF64Store
	OpI32Store8
	OpI32Store16
	OpI64Store8
	OpI64Store16
	OpI64Store32
	OpMemorySize
	OpMemoryGrow

	OpI32Const
	OpI64Const
	OpF32Const
	OpF64Const

	// Integer/float numeric family. One opcode per (type, operator); the
	// operand-type is implied by the opcode name the way the real WASM
	// encoding does it (i32.add vs i64.add are distinct opcodes).
	OpI32Eqz
	OpI32Eq
	OpI32Ne
	OpI32LtS
	OpI32LtU
	OpI32GtS
	OpI32GtU
	OpI32LeS
	OpI32LeU
	OpI32GeS
	OpI32GeU
	OpI64Eqz
	OpI64Eq
	OpI64Ne
	OpI64LtS
	OpI64LtU
	OpI64GtS
	OpI64GtU
	OpI64LeS
	OpI64LeU
	OpI64GeS
	OpI64GeU
	OpF32Eq
	OpF32Ne
	OpF32Lt
	OpF32Gt
	OpF32Le
	OpF32Ge
	OpF64Eq
	OpF64Ne
	OpF64Lt
	OpF64Gt
	OpF64Le
	OpF64Ge

	OpI32Clz
	OpI32Ctz
	OpI32Popcnt
	OpI32Add
	OpI32Sub
	OpI32Mul
	OpI32DivS
	OpI32DivU
	OpI32RemS
	OpI32RemU
	OpI32And
	OpI32Or
	OpI32Xor
	OpI32Shl
	OpI32ShrS
	OpI32ShrU
	OpI32Rotl
	OpI32Rotr

	OpI64Clz
	OpI64Ctz
	OpI64Popcnt
	OpI64Add
	OpI64Sub
	OpI64Mul
	OpI64DivS
	OpI64DivU
	OpI64RemS
	OpI64RemU
	OpI64And
	OpI64Or
	OpI64Xor
	OpI64Shl
	OpI64ShrS
	OpI64ShrU
	OpI64Rotl
	OpI64Rotr

	OpF32Abs
	OpF32Neg
	OpF32Ceil
	OpF32Floor
	OpF32Trunc
	OpF32Nearest
	OpF32Sqrt
	OpF32Add
	OpF32Sub
	OpF32Mul
	OpF32Div
	OpF32Min
	OpF32Max
	OpF32Copysign

	OpF64Abs
	OpF64Neg
	OpF64Ceil
	OpF64Floor
	OpF64Trunc
	OpF64Nearest
	OpF64Sqrt
	OpF64Add
	OpF64Sub
	OpF64Mul
	OpF64Div
	OpF64Min
	OpF64Max
	OpF64Copysign

	OpI32WrapI64
	OpI32TruncF32S
	OpI32TruncF32U
	OpI32TruncF64S
	OpI32TruncF64U
	OpI64ExtendI32S
	OpI64ExtendI32U
	OpI64TruncF32S
	OpI64TruncF32U
	OpI64TruncF64S
	OpI64TruncF64U
	OpF32ConvertI32S
	OpF32ConvertI32U
	OpF32ConvertI64S
	OpF32ConvertI64U
	OpF32DemoteF64
	OpF64ConvertI32S
	OpF64ConvertI32U
	OpF64ConvertI64S
	OpF64ConvertI64U
	OpF64PromoteF32
	OpI32ReinterpretF32
	OpI64ReinterpretF64
	OpF32ReinterpretI32
	OpF64ReinterpretI64

	OpI32Extend8S
	OpI32Extend16S
	OpI64Extend8S
	OpI64Extend16S
	OpI64Extend32S

	OpI32TruncSatF32S
	OpI32TruncSatF32U
	OpI32TruncSatF64S
	OpI32TruncSatF64U
	OpI64TruncSatF32S
	OpI64TruncSatF32U
	OpI64TruncSatF64S
	OpI64TruncSatF64U

	OpRefNull
	OpRefIsNull
	OpRefFunc
)

// Instruction is one entry in a Code body's flat instruction stream. Only
// the fields relevant to Op are populated; this mirrors how a typed AST
// node from a validating parser would look — a tagged union expressed as
// a struct-of-optional-fields rather than a Go interface, so the
// Control-Flow Compiler (internal/ir) can walk a plain slice.
type Instruction struct {
	Op Opcode

	// Block carries Op's declared parameter/result arity for
	// OpBlock/OpLoop/OpIf.
	Block BlockType

	// Index is the local/global/function/table/type/memory index operand,
	// used by OpLocalGet/Set/Tee, OpGlobalGet/Set, OpCall, OpCallIndirect
	// (type index), OpRefFunc.
	Index uint32

	// TableIndex is the table operand for OpCallIndirect.
	TableIndex uint32

	// LabelDepth is the relative block-nesting depth operand for OpBr and
	// OpBrIf (spec.md §4.4 "br k").
	LabelDepth uint32

	// TableTargets and TableDefault are OpBrTable's operands: a dense list
	// of relative label depths plus the default depth.
	TableTargets []uint32
	TableDefault uint32

	// MemArg carries the offset operand for load/store instructions. WASM
	// also encodes an alignment hint; per spec.md §4.3's load/store row
	// ("every access goes through the byte-buffer primitives which permit
	// unaligned access") alignment is not semantically meaningful here and
	// is not modeled.
	MemArgOffset uint64

	// ConstI32/ConstI64/ConstF32/ConstF64 carry OpI32Const/.../OpF64Const's
	// immediate.
	ConstI32 int32
	ConstI64 int64
	ConstF32 float32
	ConstF64 float64

	// RefType carries OpRefNull's operand (funcref or externref).
	RefType ValueType
}
