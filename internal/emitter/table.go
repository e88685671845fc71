package emitter

import (
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/jvmasm"
	"github.com/wasm2jvm/translator/internal/trap"
)

// noTypeIndex is the sentinel stored in a table slot's types[] entry for
// a slot no active element segment ever populated: it never equals any
// real WASM type index (which are always >= 0), so a call_indirect
// through an empty slot always fails the signature-identity compare in
// internal/translator/calls.go's compileCallIndirect (it also fails the
// preceding null-handle check first, but keeping the sentinel mismatched
// too means the two checks never disagree).
const noTypeIndex = -1

// BuildTableCarrier emits the ClassDescriptor for one defined table
// (spec.md §4.5): an array-typed `table` field (spec.md §6, elemType one
// of MethodHandle for funcref or Object for externref) holding the
// callable values, a parallel `int[] types` field holding each slot's
// WASM type-index token (spec.md §4.3's call_indirect row: "signature
// identity encoded as a type-index token shared with the module table"),
// plus get/set/size/grow/typeAt. Object-array element access needs no
// ByteBuffer-style helper the way memory's byte[] does — AALOAD/AASTORE
// are themselves already bounds-checked by the JVM, but this translator
// still checks first so an out-of-bounds access raises the WASM-defined
// trap.TableOutOfBounds rather than an ArrayIndexOutOfBoundsException a
// downstream host would have no trap-kind mapping for.
func BuildTableCarrier(className string, elemType jvm.Type) *jvm.ClassDescriptor {
	c := jvm.NewClassDescriptor(className)
	arrType := jvm.ArrayOf(elemType)
	typesType := jvm.ArrayOf(jvm.Int)
	c.AddField(jvm.FieldDescriptor{Name: "table", Type: arrType, AccessFlags: jvm.AccPublic})
	c.AddField(jvm.FieldDescriptor{Name: "types", Type: typesType, AccessFlags: jvm.AccPublic})
	c.AddMethod(defaultConstructor(c.SuperName))
	c.AddMethod(buildTableSize(className, arrType))
	c.AddMethod(buildTableGet(className, arrType, elemType))
	c.AddMethod(buildTableSet(className, arrType, elemType))
	c.AddMethod(buildTableGrow(className, arrType, elemType))
	c.AddMethod(buildTableTypeAt(className, typesType))
	return c
}

// buildTableTypeAt emits `int typeAt(int index)`: internal/translator/
// calls.go's compileCallIndirect calls this to read the slot's stored
// type-index token and compare it against the call site's statically
// known expected type index before invoking, trapping
// trap.IndirectCallTypeMismatch on a mismatch.
func buildTableTypeAt(className string, typesType jvm.Type) jvm.MethodInfo {
	asm := jvmasm.New()
	const addrLocal = 1
	emitNonNegativeCheck(asm, addrLocal)
	emitTableBoundsCheck(asm, className, "types", typesType, addrLocal)
	asm.CompileIntImmediate(jvm.ILOAD, addrLocal)
	asm.CompileStandAlone(jvm.IALOAD)
	asm.CompileStandAlone(jvm.IRETURN)
	return finish(asm, "typeAt", []jvm.Type{jvm.Int}, jvm.Int, 2, 3)
}

func buildTableSize(className string, arrType jvm.Type) jvm.MethodInfo {
	asm := jvmasm.New()
	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileFieldAccess(jvm.GETFIELD, className, "table", arrType)
	asm.CompileStandAlone(jvm.ARRAYLENGTH)
	asm.CompileStandAlone(jvm.IRETURN)
	return finish(asm, "size", nil, jvm.Int, 1, 2)
}

// emitTableBoundsCheck leaves `this.<fieldName>` on the stack (duplicated
// so the caller can AALOAD/AASTORE/IALOAD it directly) after trapping
// trap.TableOutOfBounds for addr >= length. Callers run
// emitNonNegativeCheck first to cover addr < 0, since length - addr > 0
// alone doesn't rule out a negative addr.
func emitTableBoundsCheck(asm *jvmasm.Assembler, className, fieldName string, arrType jvm.Type, addrLocal int) {
	inBounds := asm.NewLabel("table_bounds_ok")
	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileFieldAccess(jvm.GETFIELD, className, fieldName, arrType)
	asm.CompileStandAlone(jvm.DUP)
	asm.CompileStandAlone(jvm.ARRAYLENGTH)
	asm.CompileIntImmediate(jvm.ILOAD, int64(addrLocal))
	asm.CompileStandAlone(jvm.ISUB) // length - addr
	asm.CompileBranch(jvm.IFGT, inBounds) // in range iff length - addr > 0, i.e. addr < length
	asm.CompileStandAlone(jvm.POP)
	emitTrap(asm, trap.TableOutOfBounds)
	asm.MarkLabel(inBounds)
}

func buildTableGet(className string, arrType, elemType jvm.Type) jvm.MethodInfo {
	asm := jvmasm.New()
	const addrLocal = 1
	emitNonNegativeCheck(asm, addrLocal)
	emitTableBoundsCheck(asm, className, "table", arrType, addrLocal)
	asm.CompileIntImmediate(jvm.ILOAD, addrLocal)
	asm.CompileStandAlone(jvm.AALOAD)
	asm.CompileStandAlone(jvm.ARETURN)
	return finish(asm, "get", []jvm.Type{jvm.Int}, elemType, 2, 3)
}

func buildTableSet(className string, arrType, elemType jvm.Type) jvm.MethodInfo {
	asm := jvmasm.New()
	const addrLocal = 1
	const valLocal = 2
	emitNonNegativeCheck(asm, addrLocal)
	emitTableBoundsCheck(asm, className, "table", arrType, addrLocal)
	asm.CompileIntImmediate(jvm.ILOAD, addrLocal)
	asm.CompileIntImmediate(jvm.ALOAD, valLocal)
	asm.CompileStandAlone(jvm.AASTORE)
	asm.CompileStandAlone(jvm.RETURN)
	return finish(asm, "set", []jvm.Type{jvm.Int, elemType}, jvm.Void, 3, 3)
}

// emitNonNegativeCheck traps trap.TableOutOfBounds immediately for a
// negative index, before the length-relative check in
// emitTableBoundsCheck (which alone would let a sufficiently negative
// addr survive the "length - addr > 0" comparison on some inputs —
// spelled out as its own guard rather than folded in for clarity, since
// it's shared between get/set and absent from grow, which never takes a
// caller-supplied index at all).
func emitNonNegativeCheck(asm *jvmasm.Assembler, addrLocal int) {
	ok := asm.NewLabel("nonneg_ok")
	asm.CompileIntImmediate(jvm.ILOAD, int64(addrLocal))
	asm.CompileBranch(jvm.IFGE, ok)
	emitTrap(asm, trap.TableOutOfBounds)
	asm.MarkLabel(ok)
}

// buildTableGrow emits `int grow(int delta, ElemType fill)` lowered
// from table.grow's WASM form: note the unusual (delta, fill) parameter
// order mirrored here from spec.md §4.5 matches internal/translator's
// call-site convention. Returns the *old* size on success or -1 (the
// table.grow failure sentinel) without mutating the field, same
// structure as buildMemoryGrow.
func buildTableGrow(className string, arrType, elemType jvm.Type) jvm.MethodInfo {
	asm := jvmasm.New()
	fail := asm.NewLabel("tgrow_fail")
	ok := asm.NewLabel("tgrow_ok")
	fillLoopTest := asm.NewLabel("tgrow_fill_test")

	const deltaLocal, fillLocal = 1, 2
	const oldArr, oldLen, newLen, newArr, i = 3, 4, 5, 6, 7

	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileFieldAccess(jvm.GETFIELD, className, "table", arrType)
	asm.CompileIntImmediate(jvm.ASTORE, oldArr)

	asm.CompileIntImmediate(jvm.ALOAD, oldArr)
	asm.CompileStandAlone(jvm.ARRAYLENGTH)
	asm.CompileIntImmediate(jvm.ISTORE, oldLen)

	asm.CompileIntImmediate(jvm.ILOAD, deltaLocal)
	asm.CompileBranch(jvm.IFLT, fail)
	asm.CompileIntImmediate(jvm.ILOAD, oldLen)
	asm.CompileIntImmediate(jvm.ILOAD, deltaLocal)
	asm.CompileStandAlone(jvm.IADD)
	asm.CompileIntImmediate(jvm.ISTORE, newLen)

	asm.CompileIntImmediate(jvm.ILOAD, newLen)
	asm.CompileIntImmediate(jvm.ILOAD, oldLen)
	asm.CompileBranch(jvm.IF_ICMPLT, fail) // newLen < oldLen means 32-bit overflow wrapped it negative

	asm.CompileIntImmediate(jvm.ILOAD, newLen)
	asm.CompileClassOp(jvm.ANEWARRAY, elemType.ClassName)
	asm.CompileIntImmediate(jvm.ASTORE, newArr)

	asm.CompileIntImmediate(jvm.ALOAD, oldArr)
	asm.CompileIntImmediate(jvm.ICONST, 0)
	asm.CompileIntImmediate(jvm.ALOAD, newArr)
	asm.CompileIntImmediate(jvm.ICONST, 0)
	asm.CompileIntImmediate(jvm.ILOAD, oldLen)
	asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/System", "arraycopy",
		"(Ljava/lang/Object;ILjava/lang/Object;II)V")

	// Fill the newly grown slots [oldLen, newLen) with fillLocal.
	asm.CompileIntImmediate(jvm.ILOAD, oldLen)
	asm.CompileIntImmediate(jvm.ISTORE, i)
	asm.MarkLabel(fillLoopTest)
	asm.CompileIntImmediate(jvm.ILOAD, i)
	asm.CompileIntImmediate(jvm.ILOAD, newLen)
	asm.CompileBranch(jvm.IF_ICMPGE, ok) // loop exit: i == newLen, fall into the success path below
	asm.CompileIntImmediate(jvm.ALOAD, newArr)
	asm.CompileIntImmediate(jvm.ILOAD, i)
	asm.CompileIntImmediate(jvm.ALOAD, fillLocal)
	asm.CompileStandAlone(jvm.AASTORE)
	asm.CompileIntImmediate(jvm.ILOAD, i)
	asm.CompileIntImmediate(jvm.ICONST, 1)
	asm.CompileStandAlone(jvm.IADD)
	asm.CompileIntImmediate(jvm.ISTORE, i)
	asm.CompileJump(fillLoopTest)

	asm.MarkLabel(ok)
	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileIntImmediate(jvm.ALOAD, newArr)
	asm.CompileFieldAccess(jvm.PUTFIELD, className, "table", arrType)
	asm.CompileIntImmediate(jvm.ILOAD, oldLen)
	asm.CompileStandAlone(jvm.IRETURN)

	asm.MarkLabel(fail)
	asm.CompileIntImmediate(jvm.ICONST, -1)
	asm.CompileStandAlone(jvm.IRETURN)

	return finish(asm, "grow", []jvm.Type{jvm.Int, elemType}, jvm.Int, 8, 4)
}
