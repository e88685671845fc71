package translator

import (
	"github.com/wasm2jvm/translator/internal/ir"
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/trap"
	"github.com/wasm2jvm/translator/internal/typemap"
	"github.com/wasm2jvm/translator/internal/wasm"
)

// compileNumeric dispatches every arithmetic/comparison/conversion
// Operation internal/ir's flattener didn't already special-case in
// control.go (spec.md §4.3's numeric instruction table).
func (tr *translator) compileNumeric(op ir.Operation) error {
	switch op.Kind {
	case ir.OpKindAdd, ir.OpKindSub, ir.OpKindMul, ir.OpKindAnd, ir.OpKindOr, ir.OpKindXor, ir.OpKindShl:
		return tr.compileBinary(op)
	case ir.OpKindShr:
		return tr.compileShr(op)
	case ir.OpKindDiv:
		return tr.compileDiv(op)
	case ir.OpKindRem:
		return tr.compileRem(op)
	case ir.OpKindRotl, ir.OpKindRotr:
		return tr.compileRotate(op)
	case ir.OpKindClz, ir.OpKindCtz, ir.OpKindPopcnt:
		return tr.compileBitCount(op)
	case ir.OpKindAbs:
		return tr.compileUnaryMath(op, "abs")
	case ir.OpKindNeg:
		return tr.compileNeg(op)
	case ir.OpKindCeil:
		return tr.compileRoundingOp(op, "ceil")
	case ir.OpKindFloor:
		return tr.compileRoundingOp(op, "floor")
	case ir.OpKindTrunc:
		return tr.compileRoundingOp(op, "rint_truncate")
	case ir.OpKindNearest:
		return tr.compileRoundingOp(op, "rint")
	case ir.OpKindSqrt:
		return tr.compileSqrt(op)
	case ir.OpKindMin:
		return tr.compileMinMax(op, "min")
	case ir.OpKindMax:
		return tr.compileMinMax(op, "max")
	case ir.OpKindCopysign:
		return tr.compileCopysign(op)
	case ir.OpKindEq, ir.OpKindNe, ir.OpKindLt, ir.OpKindGt, ir.OpKindLe, ir.OpKindGe:
		return tr.compileCompare(op)
	case ir.OpKindEqz:
		return tr.compileEqz(op)
	case ir.OpKindI32WrapI64:
		tr.pop()
		tr.asm.CompileStandAlone(jvm.L2I)
		tr.push(wasm.ValueTypeI32)
		return nil
	case ir.OpKindExtend:
		return tr.compileExtend(op)
	case ir.OpKindSignExtend:
		return tr.compileSignExtend(op)
	case ir.OpKindF32DemoteF64:
		tr.pop()
		tr.asm.CompileStandAlone(jvm.D2F)
		tr.push(wasm.ValueTypeF32)
		return nil
	case ir.OpKindF64PromoteF32:
		tr.pop()
		tr.asm.CompileStandAlone(jvm.F2D)
		tr.push(wasm.ValueTypeF64)
		return nil
	case ir.OpKindFConvertFromI:
		return tr.compileFConvertFromI(op)
	case ir.OpKindITruncFromF:
		return tr.compileITruncFromF(op, false)
	case ir.OpKindITruncSatFromF:
		return tr.compileITruncFromF(op, true)
	case ir.OpKindReinterpret:
		return tr.compileReinterpret(op)
	default:
		return tr.err("unhandled numeric operation %s", op.Kind)
	}
}

type opPair struct{ i, l, f, d jvm.Opcode }

func (p opPair) forType(t wasm.ValueType) jvm.Opcode {
	switch t {
	case wasm.ValueTypeI32:
		return p.i
	case wasm.ValueTypeI64:
		return p.l
	case wasm.ValueTypeF32:
		return p.f
	default:
		return p.d
	}
}

var binaryOps = map[ir.OperationKind]opPair{
	ir.OpKindAdd: {jvm.IADD, jvm.LADD, jvm.FADD, jvm.DADD},
	ir.OpKindSub: {jvm.ISUB, jvm.LSUB, jvm.FSUB, jvm.DSUB},
	ir.OpKindMul: {jvm.IMUL, jvm.LMUL, jvm.FMUL, jvm.DMUL},
	ir.OpKindDiv: {0, 0, jvm.FDIV, jvm.DDIV}, // integer division goes through compileDiv's guarded path
	ir.OpKindAnd: {jvm.IAND, jvm.LAND, 0, 0},
	ir.OpKindOr:  {jvm.IOR, jvm.LOR, 0, 0},
	ir.OpKindXor: {jvm.IXOR, jvm.LXOR, 0, 0},
	ir.OpKindShl: {jvm.ISHL, jvm.LSHL, 0, 0},
}

// compileBinary lowers a two-operand arithmetic/bitwise op with a direct
// JVM opcode counterpart (spec.md §4.3). i64 shift counts arrive as a
// second i64 per WASM's own operand typing, but JVM's LSHL/LSHR/LUSHR
// take an int shift amount, so the count is narrowed with L2I first.
func (tr *translator) compileBinary(op ir.Operation) error {
	if op.Type == wasm.ValueTypeI64 && op.Kind == ir.OpKindShl {
		tr.pop()
		tr.asm.CompileStandAlone(jvm.L2I)
	} else {
		tr.pop()
	}
	tr.pop()
	tr.asm.CompileStandAlone(binaryOps[op.Kind].forType(op.Type))
	tr.emitNaNCanon(op.Type)
	tr.push(op.Type)
	return nil
}

func (tr *translator) compileShr(op ir.Operation) error {
	if op.Type == wasm.ValueTypeI64 {
		tr.pop()
		tr.asm.CompileStandAlone(jvm.L2I)
	} else {
		tr.pop()
	}
	tr.pop()
	if op.Type == wasm.ValueTypeI64 {
		if op.Signed {
			tr.asm.CompileStandAlone(jvm.LSHR)
		} else {
			tr.asm.CompileStandAlone(jvm.LUSHR)
		}
	} else {
		if op.Signed {
			tr.asm.CompileStandAlone(jvm.ISHR)
		} else {
			tr.asm.CompileStandAlone(jvm.IUSHR)
		}
	}
	tr.push(op.Type)
	return nil
}

// compileDiv lowers i32/i64 division (guarded: zero-divisor and the
// INT_MIN/-1 overflow case both trap per spec.md §7.2) or float division
// (no guard: IEEE-754 division by zero produces an infinity or NaN, not a
// trap).
func (tr *translator) compileDiv(op ir.Operation) error {
	if op.Type == wasm.ValueTypeF32 || op.Type == wasm.ValueTypeF64 {
		return tr.compileBinary(op)
	}

	divisorSlot, dividendSlot := tr.spillDivPair(op.Type)
	jt := typemap.MapValueType(op.Type)

	tr.emitLoadLocalSlot(jt, divisorSlot)
	tr.guardZero(op.Type, divisorSlot)
	if op.Signed {
		tr.guardDivOverflow(op.Type, dividendSlot, divisorSlot)
	}

	tr.emitLoadLocalSlot(jt, dividendSlot)
	tr.emitLoadLocalSlot(jt, divisorSlot)
	if op.Signed {
		if op.Type == wasm.ValueTypeI64 {
			tr.asm.CompileStandAlone(jvm.LDIV)
		} else {
			tr.asm.CompileStandAlone(jvm.IDIV)
		}
	} else if op.Type == wasm.ValueTypeI64 {
		tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Long", "divideUnsigned", "(JJ)J")
	} else {
		tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Integer", "divideUnsigned", "(II)I")
	}
	tr.push(op.Type)
	return nil
}

func (tr *translator) compileRem(op ir.Operation) error {
	divisorSlot, dividendSlot := tr.spillDivPair(op.Type)
	jt := typemap.MapValueType(op.Type)

	tr.emitLoadLocalSlot(jt, divisorSlot)
	tr.guardZero(op.Type, divisorSlot)

	tr.emitLoadLocalSlot(jt, dividendSlot)
	tr.emitLoadLocalSlot(jt, divisorSlot)
	if op.Signed {
		if op.Type == wasm.ValueTypeI64 {
			tr.asm.CompileStandAlone(jvm.LREM)
		} else {
			tr.asm.CompileStandAlone(jvm.IREM)
		}
	} else if op.Type == wasm.ValueTypeI64 {
		tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Long", "remainderUnsigned", "(JJ)J")
	} else {
		tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Integer", "remainderUnsigned", "(II)I")
	}
	tr.push(op.Type)
	return nil
}

// spillDivPair spills the divisor (top of stack) and dividend to fresh
// temporaries, in that order, so both can be reloaded as many times as
// the trap guards below need without re-deriving them.
func (tr *translator) spillDivPair(t wasm.ValueType) (divisorSlot, dividendSlot int) {
	slots := tr.spillTop([]wasm.ValueType{t, t})
	return slots[1], slots[0]
}

func (tr *translator) guardZero(t wasm.ValueType, slot int) {
	jt := typemap.MapValueType(t)
	ok := tr.asm.NewLabel("divguard_nonzero")
	if t == wasm.ValueTypeI64 {
		tr.asm.CompileIntImmediate(jvm.LCONST, 0)
		tr.asm.CompileStandAlone(jvm.LCMP)
		tr.asm.CompileBranch(jvm.IFNE, ok)
	} else {
		tr.asm.CompileBranch(jvm.IFNE, ok)
	}
	tr.emitTrap(trap.IntegerDivideByZero)
	tr.asm.MarkLabel(ok)
	_ = jt
}

// guardDivOverflow traps the one signed-division case the JVM's own
// IDIV/LDIV would silently produce the wrong (wrapped) answer for:
// dividing the type's minimum value by -1 (spec.md §7.2 "integer
// overflow").
func (tr *translator) guardDivOverflow(t wasm.ValueType, dividendSlot, divisorSlot int) {
	jt := typemap.MapValueType(t)
	minVal := int64(-2147483648)
	if t == wasm.ValueTypeI64 {
		minVal = int64(-9223372036854775808)
	}

	notMinusOne := tr.asm.NewLabel("divguard_notminusone")
	tr.emitLoadLocalSlot(jt, divisorSlot)
	if t == wasm.ValueTypeI64 {
		tr.asm.CompileIntImmediate(jvm.LCONST, -1)
		tr.asm.CompileStandAlone(jvm.LCMP)
		tr.asm.CompileBranch(jvm.IFNE, notMinusOne)
	} else {
		tr.asm.CompileIntImmediate(jvm.ICONST, -1)
		tr.asm.CompileStandAlone(jvm.ISUB)
		tr.asm.CompileBranch(jvm.IFNE, notMinusOne)
	}

	ok := tr.asm.NewLabel("divguard_notoverflow")
	tr.emitLoadLocalSlot(jt, dividendSlot)
	if t == wasm.ValueTypeI64 {
		tr.asm.CompileIntImmediate(jvm.LCONST, minVal)
		tr.asm.CompileStandAlone(jvm.LCMP)
		tr.asm.CompileBranch(jvm.IFNE, ok)
	} else {
		tr.asm.CompileIntImmediate(jvm.ICONST, minVal)
		tr.asm.CompileStandAlone(jvm.ISUB)
		tr.asm.CompileBranch(jvm.IFNE, ok)
	}
	tr.emitTrap(trap.IntegerOverflow)
	tr.asm.MarkLabel(ok)
	tr.asm.MarkLabel(notMinusOne)
}

// compileRotate has no direct JVM opcode (spec.md §4.3's table routes it
// to a helper): java.lang.Integer/Long already expose exactly this
// operation as a static method. WASM's rotate count is the same width as
// the value being rotated (unlike JVM's shift opcodes, which always take
// an int count), so an i64 rotate's count operand is narrowed first.
func (tr *translator) compileRotate(op ir.Operation) error {
	owner, shiftDesc := "java/lang/Integer", "(II)I"
	if op.Type == wasm.ValueTypeI64 {
		owner, shiftDesc = "java/lang/Long", "(JI)J"
		tr.pop() // i64 shift count
		tr.asm.CompileStandAlone(jvm.L2I)
	} else {
		tr.pop() // i32 shift count
	}
	tr.pop()

	name := "rotateLeft"
	if op.Kind == ir.OpKindRotr {
		name = "rotateRight"
	}
	tr.asm.CompileInvoke(jvm.INVOKESTATIC, owner, name, shiftDesc)
	tr.push(op.Type)
	return nil
}

func (tr *translator) compileBitCount(op ir.Operation) error {
	tr.pop()
	owner := "java/lang/Integer"
	desc := "(I)I"
	if op.Type == wasm.ValueTypeI64 {
		owner, desc = "java/lang/Long", "(J)I"
	}
	name := map[ir.OperationKind]string{
		ir.OpKindClz:    "numberOfLeadingZeros",
		ir.OpKindCtz:    "numberOfTrailingZeros",
		ir.OpKindPopcnt: "bitCount",
	}[op.Kind]
	tr.asm.CompileInvoke(jvm.INVOKESTATIC, owner, name, desc)
	if op.Type == wasm.ValueTypeI64 {
		// Integer/Long's count methods always return int; i64 variants of
		// clz/ctz/popcnt still report an i64 result (spec.md §4.3).
		tr.asm.CompileStandAlone(jvm.I2L)
	}
	tr.push(op.Type)
	return nil
}

func (tr *translator) compileUnaryMath(op ir.Operation, name string) error {
	tr.pop()
	owner, desc := mathDesc1(op.Type)
	tr.asm.CompileInvoke(jvm.INVOKESTATIC, owner, name, desc)
	tr.emitNaNCanon(op.Type)
	tr.push(op.Type)
	return nil
}

func (tr *translator) compileNeg(op ir.Operation) error {
	tr.pop()
	if op.Type == wasm.ValueTypeF64 {
		tr.asm.CompileStandAlone(jvm.DNEG)
	} else {
		tr.asm.CompileStandAlone(jvm.FNEG)
	}
	tr.emitNaNCanon(op.Type)
	tr.push(op.Type)
	return nil
}

// compileRoundingOp lowers ceil/floor/trunc/nearest via java.lang.Math,
// widening f32 operands through double since Math exposes no float
// overloads for these (Math.ceil/floor/rint are double-only in the JDK).
// "rint_truncate" is this file's own synthetic name for Trunc (toward
// zero), which Math has no single intrinsic for: it is built from
// Math.floor/Math.ceil gated on the operand's sign.
func (tr *translator) compileRoundingOp(op ir.Operation, which string) error {
	if which == "rint_truncate" {
		return tr.compileTruncateToIntegral(op)
	}
	return tr.compileMathDoubleUnary(op, which)
}

func (tr *translator) compileMathDoubleUnary(op ir.Operation, name string) error {
	tr.pop()
	widened := op.Type == wasm.ValueTypeF32
	if widened {
		tr.asm.CompileStandAlone(jvm.F2D)
	}
	tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Math", name, "(D)D")
	if widened {
		tr.asm.CompileStandAlone(jvm.D2F)
	}
	tr.emitNaNCanon(op.Type)
	tr.push(op.Type)
	return nil
}

// compileTruncateToIntegral implements WASM's trunc (round toward zero,
// the float-to-float rounding op — not to be confused with
// ITruncFromF's float-to-int conversion): floor for non-negative
// operands, ceil for negative ones.
func (tr *translator) compileTruncateToIntegral(op ir.Operation) error {
	jt := typemap.MapValueType(op.Type)
	slot := tr.allocTemp(jt)
	tr.emitStoreLocalSlot(jt, slot)
	tr.pop()

	negLabel := tr.asm.NewLabel("trunc_neg")
	doneLabel := tr.asm.NewLabel("trunc_done")
	tr.emitLoadLocalSlot(jt, slot)
	if op.Type == wasm.ValueTypeF64 {
		tr.asm.CompileIntImmediate(jvm.DCONST, 0)
		tr.asm.CompileStandAlone(jvm.DCMPG)
	} else {
		tr.asm.CompileIntImmediate(jvm.FCONST, 0)
		tr.asm.CompileStandAlone(jvm.FCMPG)
	}
	tr.asm.CompileBranch(jvm.IFLT, negLabel)

	tr.emitLoadLocalSlot(jt, slot)
	widened := op.Type == wasm.ValueTypeF32
	if widened {
		tr.asm.CompileStandAlone(jvm.F2D)
	}
	tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Math", "floor", "(D)D")
	if widened {
		tr.asm.CompileStandAlone(jvm.D2F)
	}
	tr.emitNaNCanon(op.Type)
	tr.asm.CompileJump(doneLabel)

	tr.asm.MarkLabel(negLabel)
	tr.emitLoadLocalSlot(jt, slot)
	if widened {
		tr.asm.CompileStandAlone(jvm.F2D)
	}
	tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Math", "ceil", "(D)D")
	if widened {
		tr.asm.CompileStandAlone(jvm.D2F)
	}
	tr.emitNaNCanon(op.Type)
	tr.asm.MarkLabel(doneLabel)
	tr.push(op.Type)
	return nil
}

func (tr *translator) compileSqrt(op ir.Operation) error {
	tr.pop()
	widened := op.Type == wasm.ValueTypeF32
	if widened {
		tr.asm.CompileStandAlone(jvm.F2D)
	}
	tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Math", "sqrt", "(D)D")
	if widened {
		tr.asm.CompileStandAlone(jvm.D2F)
	}
	tr.emitNaNCanon(op.Type)
	tr.push(op.Type)
	return nil
}

// compileMinMax uses java.lang.Math directly: Math.min/max already
// implement IEEE-754's NaN-propagating, signed-zero-aware semantics WASM
// itself specifies (spec.md §4.3), but Math.min/max can return either
// operand's exact NaN bits unchanged when one is NaN, so the result
// still needs the same canonicalization pass every other float op does.
func (tr *translator) compileMinMax(op ir.Operation, name string) error {
	owner, desc := mathDesc2(op.Type)
	tr.pop()
	tr.pop()
	tr.asm.CompileInvoke(jvm.INVOKESTATIC, owner, name, desc)
	tr.emitNaNCanon(op.Type)
	tr.push(op.Type)
	return nil
}

func (tr *translator) compileCopysign(op ir.Operation) error {
	owner, desc := mathDesc2(op.Type)
	tr.pop()
	tr.pop()
	tr.asm.CompileInvoke(jvm.INVOKESTATIC, owner, "copySign", desc)
	tr.emitNaNCanon(op.Type)
	tr.push(op.Type)
	return nil
}

func mathDesc1(t wasm.ValueType) (owner, desc string) {
	if t == wasm.ValueTypeF64 {
		return "java/lang/Math", "(D)D"
	}
	return "java/lang/Math", "(F)F"
}

func mathDesc2(t wasm.ValueType) (owner, desc string) {
	if t == wasm.ValueTypeF64 {
		return "java/lang/Math", "(DD)D"
	}
	return "java/lang/Math", "(FF)F"
}

// compileCompare lowers Eq/Ne/Lt/Gt/Le/Ge (spec.md §4.3): ints use
// IF_ICMP<cond> directly; i64/floats have no two-operand IF form, so they
// first reduce to an ordered -1/0/1 via LCMP/FCMPL/FCMPG/DCMPL/DCMPG and
// then compare that against zero. Unordered (NaN-involving) float
// comparisons must evaluate to false for every comparison but Ne, which
// CMPG/CMPL's NaN-as-extreme-value behavior gives for free once CMPG is
// used for Lt/Le (NaN compares as "greater", so Lt/Le correctly report
// false) and CMPL is used for Gt/Ge (NaN compares as "less", so Gt/Ge
// correctly report false).
func (tr *translator) compileCompare(op ir.Operation) error {
	t := op.Type
	tr.pop()
	tr.pop()

	intCond := intCmpOp(op.Kind, op.Signed)
	switch t {
	case wasm.ValueTypeI32:
		tr.emitIntCompare(jvm.IF_ICMPEQ, intCond, t == wasm.ValueTypeI32 && !op.Signed && (op.Kind == ir.OpKindLt || op.Kind == ir.OpKindGt || op.Kind == ir.OpKindLe || op.Kind == ir.OpKindGe))
	case wasm.ValueTypeI64:
		if !op.Signed && (op.Kind == ir.OpKindLt || op.Kind == ir.OpKindGt || op.Kind == ir.OpKindLe || op.Kind == ir.OpKindGe) {
			tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Long", "compareUnsigned", "(JJ)I")
		} else {
			tr.asm.CompileStandAlone(jvm.LCMP)
		}
		tr.emitZeroCompare(intCond)
	default:
		cmp := jvm.FCMPG
		if op.Kind == ir.OpKindGt || op.Kind == ir.OpKindGe {
			cmp = jvm.FCMPL
		}
		if t == wasm.ValueTypeF64 {
			if cmp == jvm.FCMPG {
				cmp = jvm.DCMPG
			} else {
				cmp = jvm.DCMPL
			}
		}
		tr.asm.CompileStandAlone(cmp)
		tr.emitZeroCompare(intCond)
	}
	tr.push(wasm.ValueTypeI32)
	return nil
}

// emitIntCompare handles the one case with a direct two-operand JVM
// branch family (IF_ICMP*); unsigned i32 comparisons have no such
// family, so they go through Integer.compareUnsigned first instead.
func (tr *translator) emitIntCompare(_ jvm.Opcode, cond jvm.Opcode, unsigned bool) {
	if unsigned {
		tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Integer", "compareUnsigned", "(II)I")
		tr.emitZeroCompare(cond)
		return
	}
	icmp := map[jvm.Opcode]jvm.Opcode{
		jvm.IFEQ: jvm.IF_ICMPEQ, jvm.IFNE: jvm.IF_ICMPNE,
		jvm.IFLT: jvm.IF_ICMPLT, jvm.IFGT: jvm.IF_ICMPGT,
		jvm.IFLE: jvm.IF_ICMPLE, jvm.IFGE: jvm.IF_ICMPGE,
	}[cond]
	trueLbl := tr.asm.NewLabel("cmp_true")
	doneLbl := tr.asm.NewLabel("cmp_done")
	tr.asm.CompileBranch(icmp, trueLbl)
	tr.asm.CompileIntImmediate(jvm.ICONST, 0)
	tr.asm.CompileJump(doneLbl)
	tr.asm.MarkLabel(trueLbl)
	tr.asm.CompileIntImmediate(jvm.ICONST, 1)
	tr.asm.MarkLabel(doneLbl)
}

// emitZeroCompare turns an already-pushed -1/0/1 comparison result into a
// 0/1 boolean using the matching single-operand IF family.
func (tr *translator) emitZeroCompare(cond jvm.Opcode) {
	trueLbl := tr.asm.NewLabel("cmp_true")
	doneLbl := tr.asm.NewLabel("cmp_done")
	tr.asm.CompileBranch(cond, trueLbl)
	tr.asm.CompileIntImmediate(jvm.ICONST, 0)
	tr.asm.CompileJump(doneLbl)
	tr.asm.MarkLabel(trueLbl)
	tr.asm.CompileIntImmediate(jvm.ICONST, 1)
	tr.asm.MarkLabel(doneLbl)
}

func intCmpOp(kind ir.OperationKind, signed bool) jvm.Opcode {
	switch kind {
	case ir.OpKindEq:
		return jvm.IFEQ
	case ir.OpKindNe:
		return jvm.IFNE
	case ir.OpKindLt:
		return jvm.IFLT
	case ir.OpKindGt:
		return jvm.IFGT
	case ir.OpKindLe:
		return jvm.IFLE
	default:
		return jvm.IFGE
	}
}

// compileEqz lowers i32.eqz/i64.eqz: a single-operand test against zero
// (spec.md §4.3).
func (tr *translator) compileEqz(op ir.Operation) error {
	tr.pop()
	if op.Type == wasm.ValueTypeI64 {
		tr.asm.CompileIntImmediate(jvm.LCONST, 0)
		tr.asm.CompileStandAlone(jvm.LCMP)
		tr.emitZeroCompare(jvm.IFEQ)
	} else {
		tr.emitZeroCompareDirect(jvm.IFEQ)
	}
	tr.push(wasm.ValueTypeI32)
	return nil
}

func (tr *translator) emitZeroCompareDirect(cond jvm.Opcode) {
	trueLbl := tr.asm.NewLabel("eqz_true")
	doneLbl := tr.asm.NewLabel("eqz_done")
	tr.asm.CompileBranch(cond, trueLbl)
	tr.asm.CompileIntImmediate(jvm.ICONST, 0)
	tr.asm.CompileJump(doneLbl)
	tr.asm.MarkLabel(trueLbl)
	tr.asm.CompileIntImmediate(jvm.ICONST, 1)
	tr.asm.MarkLabel(doneLbl)
}

func (tr *translator) compileExtend(op ir.Operation) error {
	tr.pop()
	if op.Signed {
		tr.asm.CompileStandAlone(jvm.I2L)
	} else {
		tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Integer", "toUnsignedLong", "(I)J")
	}
	tr.push(wasm.ValueTypeI64)
	return nil
}

// compileSignExtend lowers the sign-extension proposal's i32.extend8_s
// and friends (spec.md §4.3): narrow to the named width then
// sign-extend back, exactly what I2B/I2S (or their i64 equivalent, built
// from I2L after an i32 narrowing) already do.
func (tr *translator) compileSignExtend(op ir.Operation) error {
	tr.pop()
	if op.Type == wasm.ValueTypeI64 {
		tr.asm.CompileStandAlone(jvm.L2I)
		tr.emitNarrowSignExtend(op.AccessSize)
		tr.asm.CompileStandAlone(jvm.I2L)
	} else {
		tr.emitNarrowSignExtend(op.AccessSize)
	}
	tr.push(op.Type)
	return nil
}

func (tr *translator) emitNarrowSignExtend(size int) {
	switch size {
	case 1:
		tr.asm.CompileStandAlone(jvm.I2B)
	case 2:
		tr.asm.CompileStandAlone(jvm.I2S)
	default:
		// size == 4: i64.extend32_s narrows via L2I only (already applied by
		// the caller), the 32-bit value's own sign bit is the extend point.
	}
}

// compileFConvertFromI lowers i32/i64 -> f32/f64 (spec.md §4.3). Unsigned
// sources are widened through Integer.toUnsignedLong first so the JVM's
// own (always-signed) I2F/I2D/L2F/L2D conversions see the correct
// magnitude.
func (tr *translator) compileFConvertFromI(op ir.Operation) error {
	tr.pop()
	if op.SrcType == wasm.ValueTypeI32 {
		if !op.Signed {
			tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Integer", "toUnsignedLong", "(I)J")
		} else {
			tr.asm.CompileStandAlone(jvm.I2L)
		}
		if op.Type == wasm.ValueTypeF32 {
			tr.asm.CompileStandAlone(jvm.L2F)
		} else {
			tr.asm.CompileStandAlone(jvm.L2D)
		}
	} else {
		if op.Signed {
			if op.Type == wasm.ValueTypeF32 {
				tr.asm.CompileStandAlone(jvm.L2F)
			} else {
				tr.asm.CompileStandAlone(jvm.L2D)
			}
		} else {
			tr.emitUnsignedLongToDouble()
			if op.Type == wasm.ValueTypeF32 {
				tr.asm.CompileStandAlone(jvm.D2F)
			}
		}
	}
	tr.push(op.Type)
	return nil
}

// emitUnsignedLongToDouble converts an i64 whose bit pattern is an
// unsigned magnitude (top of stack) to its correct double value, the one
// i64-to-float conversion the JVM's signed L2D cannot do directly: values
// with the sign bit set are split as (value >>> 1) combined with the
// dropped low bit, each half safely within signed long range, then
// doubled back (spec.md §4.3 "unsigned operand widths without a native
// JVM counterpart").
func (tr *translator) emitUnsignedLongToDouble() {
	slot := tr.allocTemp(jvm.Long)
	tr.emitStoreLocalSlot(jvm.Long, slot)

	negLabel := tr.asm.NewLabel("u64tod_neg")
	doneLabel := tr.asm.NewLabel("u64tod_done")
	tr.emitLoadLocalSlot(jvm.Long, slot)
	tr.asm.CompileIntImmediate(jvm.LCONST, 0)
	tr.asm.CompileStandAlone(jvm.LCMP)
	tr.asm.CompileBranch(jvm.IFLT, negLabel)

	tr.emitLoadLocalSlot(jvm.Long, slot)
	tr.asm.CompileStandAlone(jvm.L2D)
	tr.asm.CompileJump(doneLabel)

	tr.asm.MarkLabel(negLabel)
	tr.emitLoadLocalSlot(jvm.Long, slot)
	tr.asm.CompileIntImmediate(jvm.ICONST, 1)
	tr.asm.CompileStandAlone(jvm.LUSHR)
	tr.asm.CompileStandAlone(jvm.L2D)
	tr.asm.CompileIntImmediate(jvm.DCONST, 2)
	tr.asm.CompileStandAlone(jvm.DMUL)
	tr.emitLoadLocalSlot(jvm.Long, slot)
	tr.asm.CompileIntImmediate(jvm.LCONST, 1)
	tr.asm.CompileStandAlone(jvm.LAND)
	tr.asm.CompileStandAlone(jvm.L2D)
	tr.asm.CompileStandAlone(jvm.DADD)
	tr.asm.MarkLabel(doneLabel)
}

// compileReinterpret lowers a Reinterpret operation to the JVM static
// helper that exposes the raw bit reinterpretation java.lang has no
// dedicated instruction for (spec.md §4.3): Float/Double's
// (from|to)(Raw)?(Int|Long)Bits pairs.
func (tr *translator) compileReinterpret(op ir.Operation) error {
	tr.pop()
	switch {
	case op.SrcType == wasm.ValueTypeF32 && op.Type == wasm.ValueTypeI32:
		tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Float", "floatToRawIntBits", "(F)I")
	case op.SrcType == wasm.ValueTypeF64 && op.Type == wasm.ValueTypeI64:
		tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Double", "doubleToRawLongBits", "(D)J")
	case op.SrcType == wasm.ValueTypeI32 && op.Type == wasm.ValueTypeF32:
		tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Float", "intBitsToFloat", "(I)F")
	default:
		tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Double", "longBitsToDouble", "(J)D")
	}
	tr.push(op.Type)
	return nil
}

// compileITruncFromF lowers both the trapping (spec.md §4.3's
// i32/i64.trunc_f32/f64_s/u) and saturating (sat variant) float-to-int
// conversions. The trapping form traps on NaN and on any magnitude
// outside the destination's representable range (spec.md §7.2 "invalid
// conversion to integer"); the saturating form clamps to the nearest
// representable bound instead and maps NaN to zero (spec.md §4.3's own
// saturating-truncation carve-out).
func (tr *translator) compileITruncFromF(op ir.Operation, saturating bool) error {
	srcJ := typemap.MapValueType(op.SrcType)
	slot := tr.allocTemp(srcJ)
	tr.emitStoreLocalSlot(srcJ, slot)
	tr.pop()

	minVal, maxVal := truncBounds(op.Type, op.Signed)
	isF64 := op.SrcType == wasm.ValueTypeF64
	// Unsigned destinations exclude their -1.0 low bound (it truncates to
	// an unrepresentable -1); f64→i32 signed widens its low bound to an
	// exclusive -2^31-1, since everything above it truncates to >= -2^31.
	lowBranch := jvm.IFLT
	if !op.Signed {
		lowBranch = jvm.IFLE
	} else if op.Type == wasm.ValueTypeI32 && isF64 {
		minVal, lowBranch = -2147483649.0, jvm.IFLE
	}

	nanLabel := tr.asm.NewLabel("trunc_nan")
	belowLabel := tr.asm.NewLabel("trunc_below")
	aboveLabel := tr.asm.NewLabel("trunc_above")
	convertLabel := tr.asm.NewLabel("trunc_convert")
	doneLabel := tr.asm.NewLabel("trunc_done")

	tr.emitLoadLocalSlot(srcJ, slot)
	tr.emitLoadLocalSlot(srcJ, slot)
	if isF64 {
		tr.asm.CompileStandAlone(jvm.DCMPL)
	} else {
		tr.asm.CompileStandAlone(jvm.FCMPL)
	}
	tr.asm.CompileBranch(jvm.IFNE, nanLabel)

	tr.emitLoadLocalSlot(srcJ, slot)
	tr.emitConst(op.SrcType, minVal)
	if isF64 {
		tr.asm.CompileStandAlone(jvm.DCMPG)
	} else {
		tr.asm.CompileStandAlone(jvm.FCMPG)
	}
	tr.asm.CompileBranch(lowBranch, belowLabel)

	tr.emitLoadLocalSlot(srcJ, slot)
	tr.emitConst(op.SrcType, maxVal)
	if isF64 {
		tr.asm.CompileStandAlone(jvm.DCMPG)
	} else {
		tr.asm.CompileStandAlone(jvm.FCMPG)
	}
	tr.asm.CompileBranch(jvm.IFGE, aboveLabel)
	tr.asm.CompileJump(convertLabel)

	tr.asm.MarkLabel(nanLabel)
	if saturating {
		tr.emitConstInt(op.Type, 0)
		tr.asm.CompileJump(doneLabel)
	} else {
		tr.emitTrap(trap.InvalidConversionToInteger)
	}

	tr.asm.MarkLabel(belowLabel)
	if saturating {
		tr.emitConstInt(op.Type, truncSaturateLow(op.Type, op.Signed))
		tr.asm.CompileJump(doneLabel)
	} else {
		tr.emitTrap(trap.InvalidConversionToInteger)
	}

	tr.asm.MarkLabel(aboveLabel)
	if saturating {
		tr.emitConstInt(op.Type, truncSaturateHigh(op.Type, op.Signed))
		tr.asm.CompileJump(doneLabel)
	} else {
		tr.emitTrap(trap.InvalidConversionToInteger)
	}

	tr.asm.MarkLabel(convertLabel)
	tr.emitLoadLocalSlot(srcJ, slot)
	tr.emitTruncConversion(op)
	tr.asm.MarkLabel(doneLabel)
	tr.push(op.Type)
	return nil
}

// emitTruncConversion performs the in-range conversion itself: signed
// narrow truncation maps directly to F2I/F2L/D2I/D2L; unsigned
// destinations go through the wider signed type first (the bounds check
// above has already proven the magnitude fits) and narrow with L2I when
// the destination is i32.
func (tr *translator) emitTruncConversion(op ir.Operation) {
	isF64 := op.SrcType == wasm.ValueTypeF64
	if op.Type == wasm.ValueTypeI32 {
		if op.Signed {
			if isF64 {
				tr.asm.CompileStandAlone(jvm.D2I)
			} else {
				tr.asm.CompileStandAlone(jvm.F2I)
			}
		} else {
			if isF64 {
				tr.asm.CompileStandAlone(jvm.D2L)
			} else {
				tr.asm.CompileStandAlone(jvm.F2L)
			}
			tr.asm.CompileStandAlone(jvm.L2I)
		}
		return
	}
	// i64 destination.
	if op.Signed {
		if isF64 {
			tr.asm.CompileStandAlone(jvm.D2L)
		} else {
			tr.asm.CompileStandAlone(jvm.F2L)
		}
		return
	}
	tr.emitUnsignedTruncToI64(op.SrcType)
}

// emitUnsignedTruncToI64 handles unsigned i64 truncation's one
// magnitude range the JVM's signed D2L/F2L cannot represent directly
// (values in [2^63, 2^64)): 2^63 is subtracted first to bring the value
// into signed range, it is converted with the signed D2L/F2L, and the
// top bit is then set again by an LXOR with Long.MIN_VALUE.
func (tr *translator) emitUnsignedTruncToI64(srcType wasm.ValueType) {
	srcJ := typemap.MapValueType(srcType)
	slot := tr.allocTemp(srcJ)
	tr.emitStoreLocalSlot(srcJ, slot)

	isF64 := srcType == wasm.ValueTypeF64
	smallLabel := tr.asm.NewLabel("u64trunc_small")
	doneLabel := tr.asm.NewLabel("u64trunc_done")

	tr.emitLoadLocalSlot(srcJ, slot)
	tr.emitConst(srcType, 9223372036854775808.0)
	if isF64 {
		tr.asm.CompileStandAlone(jvm.DCMPG)
	} else {
		tr.asm.CompileStandAlone(jvm.FCMPG)
	}
	tr.asm.CompileBranch(jvm.IFLT, smallLabel)

	tr.emitLoadLocalSlot(srcJ, slot)
	tr.emitConst(srcType, 9223372036854775808.0)
	if isF64 {
		tr.asm.CompileStandAlone(jvm.DSUB)
		tr.asm.CompileStandAlone(jvm.D2L)
	} else {
		tr.asm.CompileStandAlone(jvm.FSUB)
		tr.asm.CompileStandAlone(jvm.F2L)
	}
	tr.asm.CompileIntImmediate(jvm.LCONST, math_MinInt64)
	tr.asm.CompileStandAlone(jvm.LXOR)
	tr.asm.CompileJump(doneLabel)

	tr.asm.MarkLabel(smallLabel)
	tr.emitLoadLocalSlot(srcJ, slot)
	if isF64 {
		tr.asm.CompileStandAlone(jvm.D2L)
	} else {
		tr.asm.CompileStandAlone(jvm.F2L)
	}
	tr.asm.MarkLabel(doneLabel)
}

const math_MinInt64 = -9223372036854775808

func (tr *translator) emitConst(t wasm.ValueType, v float64) {
	if t == wasm.ValueTypeF32 {
		tr.asm.CompileConstantPoolLoad(jvm.FloatConst(float32(v)))
	} else {
		tr.asm.CompileConstantPoolLoad(jvm.DoubleConst(v))
	}
}

func (tr *translator) emitConstInt(t wasm.ValueType, v int64) {
	if t == wasm.ValueTypeI64 {
		tr.asm.CompileIntImmediate(jvm.LCONST, v)
	} else {
		tr.asm.CompileIntImmediate(jvm.ICONST, v)
	}
}

// truncBounds returns the valid source range for a trapping truncation
// to dst (spec.md §4.3). maxVal is exclusive (IFGE). minVal is inclusive
// (IFLT) for signed destinations and exclusive (IFLE) for unsigned ones;
// compileITruncFromF widens the f64→i32 signed low bound itself. Both
// bounds are exact powers of two (or their negation), so they round-trip
// exactly through float32 as well as float64.
func truncBounds(dst wasm.ValueType, signed bool) (minVal, maxVal float64) {
	if dst == wasm.ValueTypeI32 {
		if signed {
			return -2147483648.0, 2147483648.0
		}
		return -1.0, 4294967296.0
	}
	if signed {
		return -9223372036854775808.0, 9223372036854775808.0
	}
	return -1.0, 18446744073709551616.0
}

func truncSaturateLow(dst wasm.ValueType, signed bool) int64 {
	if dst == wasm.ValueTypeI32 {
		if signed {
			return -2147483648
		}
		return 0
	}
	if signed {
		return math_MinInt64
	}
	return 0
}

func truncSaturateHigh(dst wasm.ValueType, signed bool) int64 {
	if dst == wasm.ValueTypeI32 {
		if signed {
			return 2147483647
		}
		return -1 // 0xFFFFFFFF as the i32 bit pattern for 2^32-1
	}
	if signed {
		return 9223372036854775807
	}
	return -1 // 0xFFFFFFFFFFFFFFFF as the i64 bit pattern for 2^64-1
}
