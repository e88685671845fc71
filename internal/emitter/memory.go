package emitter

import (
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/jvmasm"
	"github.com/wasm2jvm/translator/internal/trap"
)

// PageSize is the fixed WASM linear-memory page size in bytes.
const PageSize = 65536

// MaxPages is the narrowed page ceiling spec.md §3 imposes on this
// translator's 31-bit-addressable memory model: (2^31-1)/PageSize,
// truncated down so a full page always fits inside the signed byte[]
// length a JVM array can hold.
const MaxPages = (1<<31 - 1) / PageSize

const byteOrderClass = "java/nio/ByteOrder"
const byteBufferClass = "java/nio/ByteBuffer"

// BuildMemoryCarrier emits the ClassDescriptor for one defined memory
// (spec.md §4.5): a single `byte[] memory` field (spec.md §6) plus
// size/grow and the narrow/full-width load/store accessors
// internal/translator/memory.go calls by the loadMethodName/
// storeMethodName convention. Bounds checking happens once per accessor
// call, then the actual multi-byte transfer goes through
// java.nio.ByteBuffer's own little-endian get/put methods — the JDK's
// own answer to "read/write N bytes at an offset in a fixed order",
// reached for here the way a hand-written Java runtime would, rather
// than re-deriving bit-shift sequences the way internal/translator's own
// numeric.go must for the handful of WASM ops with no JDK equivalent at
// all.
func BuildMemoryCarrier(className string) *jvm.ClassDescriptor {
	c := jvm.NewClassDescriptor(className)
	c.AddField(jvm.FieldDescriptor{Name: "memory", Type: jvm.ByteArrayType, AccessFlags: jvm.AccPublic})
	c.AddMethod(defaultConstructor(c.SuperName))
	c.AddMethod(buildMemorySize(className))
	c.AddMethod(buildMemoryGrow(className))
	for _, acc := range memoryAccessors {
		c.AddMethod(acc.build(className))
	}
	return c
}

// buildMemorySize emits `int size()`: page count is the field's current
// byte length divided by the fixed page size (spec.md §4.5 memory.size).
func buildMemorySize(className string) jvm.MethodInfo {
	asm := jvmasm.New()
	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileFieldAccess(jvm.GETFIELD, className, "memory", jvm.ByteArrayType)
	asm.CompileStandAlone(jvm.ARRAYLENGTH)
	asm.CompileIntImmediate(jvm.ICONST, PageSize)
	asm.CompileStandAlone(jvm.IDIV)
	asm.CompileStandAlone(jvm.IRETURN)
	return finish(asm, "size", nil, jvm.Int, 1, 2)
}

// buildMemoryGrow emits `int grow(int deltaPages)` (spec.md §4.5
// memory.grow): returns the *old* page count on success, or -1 without
// mutating the field at all if the requested size would exceed MaxPages
// — memory.grow reports failure through its return value, never a trap.
func buildMemoryGrow(className string) jvm.MethodInfo {
	asm := jvmasm.New()
	fail := asm.NewLabel("grow_fail")
	ok := asm.NewLabel("grow_ok")

	const oldArr, oldPages, newPages, newArr = 2, 3, 4, 5

	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileFieldAccess(jvm.GETFIELD, className, "memory", jvm.ByteArrayType)
	asm.CompileIntImmediate(jvm.ASTORE, oldArr)

	asm.CompileIntImmediate(jvm.ALOAD, oldArr)
	asm.CompileStandAlone(jvm.ARRAYLENGTH)
	asm.CompileIntImmediate(jvm.ICONST, PageSize)
	asm.CompileStandAlone(jvm.IDIV)
	asm.CompileIntImmediate(jvm.ISTORE, oldPages)

	asm.CompileIntImmediate(jvm.ILOAD, oldPages)
	asm.CompileIntImmediate(jvm.ILOAD, 1) // delta param
	asm.CompileStandAlone(jvm.IADD)
	asm.CompileIntImmediate(jvm.ISTORE, newPages)

	// Reject a negative delta, and reject newPages past MaxPages (an
	// unsigned compare also rejects the 32-bit-overflow case, since a
	// wrapped sum either lands back at/below oldPages — only reachable
	// with a negative delta, already rejected above — or lands as a huge
	// unsigned value well past MaxPages).
	asm.CompileIntImmediate(jvm.ILOAD, 1)
	asm.CompileBranch(jvm.IFLT, fail)
	asm.CompileIntImmediate(jvm.ILOAD, newPages)
	asm.CompileIntImmediate(jvm.ICONST, MaxPages)
	asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Integer", "compareUnsigned", "(II)I")
	asm.CompileBranch(jvm.IFGT, fail)

	asm.CompileIntImmediate(jvm.ILOAD, newPages)
	asm.CompileIntImmediate(jvm.ICONST, PageSize)
	asm.CompileStandAlone(jvm.IMUL)
	asm.CompileIntImmediate(jvm.NEWARRAY, int64(jvm.KindByte))
	asm.CompileIntImmediate(jvm.ASTORE, newArr)

	asm.CompileIntImmediate(jvm.ALOAD, oldArr)
	asm.CompileIntImmediate(jvm.ICONST, 0)
	asm.CompileIntImmediate(jvm.ALOAD, newArr)
	asm.CompileIntImmediate(jvm.ICONST, 0)
	asm.CompileIntImmediate(jvm.ALOAD, oldArr)
	asm.CompileStandAlone(jvm.ARRAYLENGTH)
	asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/System", "arraycopy",
		"(Ljava/lang/Object;ILjava/lang/Object;II)V")

	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileIntImmediate(jvm.ALOAD, newArr)
	asm.CompileFieldAccess(jvm.PUTFIELD, className, "memory", jvm.ByteArrayType)

	asm.CompileJump(ok)
	asm.MarkLabel(fail)
	asm.CompileIntImmediate(jvm.ICONST, -1)
	asm.CompileStandAlone(jvm.IRETURN)
	asm.MarkLabel(ok)
	asm.CompileIntImmediate(jvm.ILOAD, oldPages)
	asm.CompileStandAlone(jvm.IRETURN)

	return finish(asm, "grow", []jvm.Type{jvm.Int}, jvm.Int, 6, 4)
}

// memoryAccessor describes one load/store accessor method to generate:
// its full JVM name (matching internal/translator/memory.go's
// loadMethodName/storeMethodName), the access width in bytes, the JVM
// value type it loads/stores, and (loads only) whether a narrower-than-
// valType read sign- or zero-extends.
type memoryAccessor struct {
	name    string
	width   int
	store   bool
	valType jvm.Type
	signed  bool
}

var memoryAccessors = []memoryAccessor{
	{name: "loadI32", width: 4, valType: jvm.Int},
	{name: "loadI32_8S", width: 1, valType: jvm.Int, signed: true},
	{name: "loadI32_8U", width: 1, valType: jvm.Int},
	{name: "loadI32_16S", width: 2, valType: jvm.Int, signed: true},
	{name: "loadI32_16U", width: 2, valType: jvm.Int},
	{name: "loadI64", width: 8, valType: jvm.Long},
	{name: "loadI64_8S", width: 1, valType: jvm.Long, signed: true},
	{name: "loadI64_8U", width: 1, valType: jvm.Long},
	{name: "loadI64_16S", width: 2, valType: jvm.Long, signed: true},
	{name: "loadI64_16U", width: 2, valType: jvm.Long},
	{name: "loadI64_32S", width: 4, valType: jvm.Long, signed: true},
	{name: "loadI64_32U", width: 4, valType: jvm.Long},
	{name: "loadF32", width: 4, valType: jvm.Float},
	{name: "loadF64", width: 8, valType: jvm.Double},
	{name: "storeI32", width: 4, store: true, valType: jvm.Int},
	{name: "storeI32_8", width: 1, store: true, valType: jvm.Int},
	{name: "storeI32_16", width: 2, store: true, valType: jvm.Int},
	{name: "storeI64", width: 8, store: true, valType: jvm.Long},
	{name: "storeI64_8", width: 1, store: true, valType: jvm.Long},
	{name: "storeI64_16", width: 2, store: true, valType: jvm.Long},
	{name: "storeI64_32", width: 4, store: true, valType: jvm.Long},
	{name: "storeF32", width: 4, store: true, valType: jvm.Float},
	{name: "storeF64", width: 8, store: true, valType: jvm.Double},
}

// emitNonNegativeCheckLong traps trap.MemoryOutOfBounds immediately for a
// negative long address, mirroring internal/emitter/table.go's
// emitNonNegativeCheck for the int-addressed table carrier: the
// length-relative check below compares length against addr+width as a
// 64-bit subtraction, which (unlike the old 32-bit form this replaces)
// can no longer be fooled by a high base wrapping into range, but a
// belt-and-suspenders guard here keeps the accessor safe even if a
// caller ever passes a raw negative long.
func emitNonNegativeCheckLong(asm *jvmasm.Assembler, addrLocal int) {
	ok := asm.NewLabel("mem_nonneg_ok")
	asm.CompileIntImmediate(jvm.LLOAD, int64(addrLocal))
	asm.CompileIntImmediate(jvm.LCONST, 0)
	asm.CompileStandAlone(jvm.LCMP)
	asm.CompileBranch(jvm.IFGE, ok)
	emitTrap(asm, trap.MemoryOutOfBounds)
	asm.MarkLabel(ok)
}

// build emits a's method body: GETFIELD `this.memory`, a single bounds
// check against addr+width computed entirely in 64-bit arithmetic
// (spec.md §4.3: the effective address "is computed as a 64-bit sum; if
// it exceeds the memory's current byte length or is negative, trap" —
// addr arrives as a long already widened unsigned by internal/translator/
// memory.go's emitEffectiveAddress, so a high i32 base plus offset can
// never wrap back into range the way a 32-bit sum could), then either one
// ByteBuffer getter call (plus widening for a narrow load) or one
// ByteBuffer setter call (the value parameter truncates implicitly, since
// put(Int|Short|Byte) only looks at the low-order bits it's defined to
// write). addr is narrowed back to int via L2I only after the bounds
// check has proven addr+width <= length <= 2^31-1, which is what
// ByteBuffer's own int-indexed get/put methods require.
func (a memoryAccessor) build(className string) jvm.MethodInfo {
	asm := jvmasm.New()
	inBounds := asm.NewLabel("bounds_ok")

	const addrLocal = 1 // long, occupies slots 1-2
	valLocal := addrLocal + jvm.Long.Slots()

	emitNonNegativeCheckLong(asm, addrLocal)

	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileFieldAccess(jvm.GETFIELD, className, "memory", jvm.ByteArrayType)
	asm.CompileStandAlone(jvm.DUP)
	asm.CompileStandAlone(jvm.ARRAYLENGTH)
	asm.CompileStandAlone(jvm.I2L)
	asm.CompileIntImmediate(jvm.LLOAD, addrLocal)
	asm.CompileIntImmediate(jvm.LCONST, int64(a.width))
	asm.CompileStandAlone(jvm.LADD)
	asm.CompileStandAlone(jvm.LSUB) // length - (addr+width), as a long
	asm.CompileIntImmediate(jvm.LCONST, 0)
	asm.CompileStandAlone(jvm.LCMP)
	asm.CompileBranch(jvm.IFGE, inBounds)
	asm.CompileStandAlone(jvm.POP) // drop the duplicated memory array ref
	emitTrap(asm, trap.MemoryOutOfBounds)
	asm.MarkLabel(inBounds)

	asm.CompileInvoke(jvm.INVOKESTATIC, byteBufferClass, "wrap", "([B)Ljava/nio/ByteBuffer;")
	asm.CompileFieldAccess(jvm.GETSTATIC, byteOrderClass, "LITTLE_ENDIAN", jvm.Ref(byteOrderClass))
	asm.CompileInvoke(jvm.INVOKEVIRTUAL, byteBufferClass, "order", "(Ljava/nio/ByteOrder;)Ljava/nio/ByteBuffer;")
	asm.CompileIntImmediate(jvm.LLOAD, addrLocal)
	asm.CompileStandAlone(jvm.L2I)

	if a.store {
		a.emitLoadValue(asm, valLocal)
		asm.CompileInvoke(jvm.INVOKEVIRTUAL, byteBufferClass, a.bufferPutName(), a.bufferPutDescriptor())
		asm.CompileStandAlone(jvm.POP) // discard ByteBuffer.put's own `this` return value
		asm.CompileStandAlone(jvm.RETURN)
		maxLocals := valLocal + a.valType.Slots()
		return finish(asm, a.name, []jvm.Type{jvm.Long, a.valType}, jvm.Void, maxLocals, 8)
	}

	asm.CompileInvoke(jvm.INVOKEVIRTUAL, byteBufferClass, a.bufferGetName(), a.bufferGetDescriptor())
	a.emitWiden(asm)
	asm.CompileStandAlone(a.returnOp())
	return finish(asm, a.name, []jvm.Type{jvm.Long}, a.valType, valLocal, 8)
}

func (a memoryAccessor) emitLoadValue(asm *jvmasm.Assembler, slot int) {
	switch a.valType {
	case jvm.Long:
		asm.CompileIntImmediate(jvm.LLOAD, int64(slot))
	case jvm.Float:
		asm.CompileIntImmediate(jvm.FLOAD, int64(slot))
	case jvm.Double:
		asm.CompileIntImmediate(jvm.DLOAD, int64(slot))
	default:
		asm.CompileIntImmediate(jvm.ILOAD, int64(slot))
	}
}

func (a memoryAccessor) bufferGetName() string {
	switch a.width {
	case 1:
		return "get"
	case 2:
		return "getShort"
	case 4:
		if a.valType.Kind == jvm.KindFloat {
			return "getFloat"
		}
		return "getInt"
	default:
		if a.valType.Kind == jvm.KindDouble {
			return "getDouble"
		}
		return "getLong"
	}
}

func (a memoryAccessor) bufferGetDescriptor() string {
	switch a.width {
	case 1:
		return "(I)B"
	case 2:
		return "(I)S"
	case 4:
		if a.valType.Kind == jvm.KindFloat {
			return "(I)F"
		}
		return "(I)I"
	default:
		if a.valType.Kind == jvm.KindDouble {
			return "(I)D"
		}
		return "(I)J"
	}
}

func (a memoryAccessor) bufferPutName() string {
	switch a.width {
	case 1:
		return "put"
	case 2:
		return "putShort"
	case 4:
		if a.valType.Kind == jvm.KindFloat {
			return "putFloat"
		}
		return "putInt"
	default:
		if a.valType.Kind == jvm.KindDouble {
			return "putDouble"
		}
		return "putLong"
	}
}

func (a memoryAccessor) bufferPutDescriptor() string {
	switch a.width {
	case 1:
		return "(IB)Ljava/nio/ByteBuffer;"
	case 2:
		return "(IS)Ljava/nio/ByteBuffer;"
	case 4:
		if a.valType.Kind == jvm.KindFloat {
			return "(IF)Ljava/nio/ByteBuffer;"
		}
		return "(II)Ljava/nio/ByteBuffer;"
	default:
		if a.valType.Kind == jvm.KindDouble {
			return "(ID)Ljava/nio/ByteBuffer;"
		}
		return "(IJ)Ljava/nio/ByteBuffer;"
	}
}

func (a memoryAccessor) returnOp() jvm.Opcode {
	switch a.valType {
	case jvm.Long:
		return jvm.LRETURN
	case jvm.Float:
		return jvm.FRETURN
	case jvm.Double:
		return jvm.DRETURN
	default:
		return jvm.IRETURN
	}
}

// emitWiden extends a narrow ByteBuffer result up to a.valType.
// ByteBuffer.get/getShort already sign-extend byte/short into the int
// the JVM stack holds them as, so a signed narrow load needs nothing
// beyond an I2L for an i64 destination; an unsigned narrow load must
// mask out the sign-extended high bits first (or, for the 32-bit-wide
// i64 case, go through Integer.toUnsignedLong since a plain mask can't
// express "zero bit 31 and above" on a value already occupying all 32
// bits). Full-width loads (I32/I64/F32/F64) need no widening at all.
func (a memoryAccessor) emitWiden(asm *jvmasm.Assembler) {
	if a.valType.Kind == jvm.KindInt {
		if a.width == 4 {
			return
		}
		if !a.signed {
			asm.CompileIntImmediate(jvm.ICONST, int64(1<<(uint(a.width)*8)-1))
			asm.CompileStandAlone(jvm.IAND)
		}
		return
	}
	if a.valType.Kind == jvm.KindLong {
		if a.width == 8 {
			return
		}
		if a.width == 4 {
			if a.signed {
				asm.CompileStandAlone(jvm.I2L)
			} else {
				asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Integer", "toUnsignedLong", "(I)J")
			}
			return
		}
		if !a.signed {
			asm.CompileIntImmediate(jvm.ICONST, int64(1<<(uint(a.width)*8)-1))
			asm.CompileStandAlone(jvm.IAND)
		}
		asm.CompileStandAlone(jvm.I2L)
		return
	}
	// F32/F64 are already full width; nothing to widen.
}
