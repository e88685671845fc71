package jvm

// Instruction is one finalized, assembled entry in a method's Code. It is
// the output of internal/jvmasm's Assembler.Assemble — every Label
// operand has already been resolved to a Target index into the enclosing
// MethodInfo.Code slice, the way a real class-file's bytecode
// resolves jump offsets, except expressed as an instruction index rather
// than a byte offset (byte-level encoding is the serializer's job). One
// Instruction slice becomes a MethodInfo's Code.
type Instruction struct {
	Op Opcode

	// IntOperand carries iconst/bipush-range constants, local-slot
	// indices (ILOAD/ISTORE/...), and NEWARRAY's type tag.
	IntOperand int64

	// ConstRef carries an LDC's constant-pool operand (int/long/float/
	// double/string too wide for an immediate form).
	ConstRef *ConstantPoolRequest

	// FieldOwner/FieldName/FieldType carry GETFIELD/PUTFIELD/GETSTATIC/
	// PUTSTATIC operands.
	FieldOwner string
	FieldName  string
	FieldType  Type

	// MethodOwner/MethodName/MethodDescriptor carry INVOKE* operands.
	MethodOwner      string
	MethodName       string
	MethodDescriptor string

	// ClassOperand carries NEW/ANEWARRAY/CHECKCAST/INSTANCEOF operands.
	ClassOperand string

	// Target carries the resolved jump destination for IF*/GOTO, as an
	// index into the enclosing method's Code slice.
	Target int

	// SwitchKeys/SwitchTargets/SwitchDefault carry LOOKUPSWITCH's sparse
	// case table (TABLESWITCH uses only SwitchTargets, densely, with
	// SwitchLow as its base case value).
	SwitchKeys    []int32
	SwitchLow     int32
	SwitchTargets []int
	SwitchDefault int
}
