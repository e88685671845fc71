package assemble

import (
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/jvmasm"
	"github.com/wasm2jvm/translator/internal/trap"
	"github.com/wasm2jvm/translator/internal/wasm"
)

const throwerDescriptor = "()Ljava/lang/RuntimeException;"

// emitTrap mirrors internal/translator/traps.go's and internal/emitter's
// own copy of the same two-instruction convention: INVOKESTATIC the
// shared per-module thrower, then ATHROW what it constructs (spec.md
// §4.3, §7.2). Constructor-body bounds checks need the identical
// sequence a compiled function body or a carrier accessor would use.
func emitTrap(asm *jvmasm.Assembler, kind trap.Kind) {
	asm.CompileInvoke(jvm.INVOKESTATIC, trap.HelperClassName, kind.ThrowerMethodName(), throwerDescriptor)
	asm.CompileStandAlone(jvm.ATHROW)
}

// asciiBytesAsLatin1 renders a byte slice as a Go string whose runes are
// each exactly one of the slice's bytes (0-255): the ISO-8859-1 encoding
// round-trips every byte value to a distinct char 1:1, so embedding a
// data segment's raw init bytes as a string constant this way, then
// decoding with String.getBytes(StandardCharsets.ISO_8859_1) at
// construction time, reproduces the exact original bytes. JVM bytecode
// has no BASTORE-style per-element primitive array literal this
// translator's instruction set models (spec.md §1 places class-file
// encoding out of scope), so a segment's content is carried through the
// one binary-safe constant-pool entry the instruction set does support.
func asciiBytesAsLatin1(b []byte) string {
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}

// initDataSegment copies one active data segment's bytes into its target
// memory at the segment's offset, trapping MemoryOutOfBounds if the copy
// would run past the memory's current length (spec.md §4.7 "initialize
// data/element segments... trapping on out-of-range offsets"). A passive
// segment (MemoryIndex == nil) is skipped: it's only ever applied by an
// explicit memory.init, which this translator's constant-expression-only
// constructor context never emits.
func initDataSegment(asm *jvmasm.Assembler, env *moduleEnv, seg wasm.DataSegment, next *int) {
	if seg.MemoryIndex == nil {
		return
	}
	memClass := env.MemoryCarrierClass(*seg.MemoryIndex)
	memField := env.MemoryCarrierField(*seg.MemoryIndex)

	srcLocal := int64(nextLocal(next))
	memArrLocal := int64(nextLocal(next))
	offsetLocal := int64(nextLocal(next))

	asm.CompileConstantPoolLoad(jvm.StringConst(asciiBytesAsLatin1(seg.Init)))
	asm.CompileFieldAccess(jvm.GETSTATIC, "java/nio/charset/StandardCharsets", "ISO_8859_1", jvm.Ref("java/nio/charset/Charset"))
	asm.CompileInvoke(jvm.INVOKEVIRTUAL, "java/lang/String", "getBytes", "(Ljava/nio/charset/Charset;)[B")
	asm.CompileIntImmediate(jvm.ASTORE, srcLocal)

	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileFieldAccess(jvm.GETFIELD, env.MainClassName(), memField, jvm.Ref(memClass))
	asm.CompileFieldAccess(jvm.GETFIELD, memClass, "memory", jvm.ByteArrayType)
	asm.CompileIntImmediate(jvm.ASTORE, memArrLocal)

	emitConstantExpr(asm, env, seg.Offset)
	asm.CompileIntImmediate(jvm.ISTORE, offsetLocal)

	ok := asm.NewLabel("data_seg_bounds_ok")
	asm.CompileIntImmediate(jvm.ALOAD, memArrLocal)
	asm.CompileStandAlone(jvm.ARRAYLENGTH)
	asm.CompileIntImmediate(jvm.ILOAD, offsetLocal)
	asm.CompileIntImmediate(jvm.ICONST, int64(len(seg.Init)))
	asm.CompileStandAlone(jvm.IADD)
	asm.CompileStandAlone(jvm.ISUB)
	asm.CompileBranch(jvm.IFGE, ok)
	emitTrap(asm, trap.MemoryOutOfBounds)
	asm.MarkLabel(ok)

	asm.CompileIntImmediate(jvm.ALOAD, srcLocal)
	asm.CompileIntImmediate(jvm.ICONST, 0)
	asm.CompileIntImmediate(jvm.ALOAD, memArrLocal)
	asm.CompileIntImmediate(jvm.ILOAD, offsetLocal)
	asm.CompileIntImmediate(jvm.ALOAD, srcLocal)
	asm.CompileStandAlone(jvm.ARRAYLENGTH)
	asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/System", "arraycopy", "(Ljava/lang/Object;ILjava/lang/Object;II)V")
}

// initElementSegment stores one active element segment's function/null
// references into its target table at the segment's offset, trapping
// TableOutOfBounds the same way initDataSegment traps on a memory
// overrun, and stamps each populated slot's types[] entry with its
// function's WASM type index (or leaves it at the noTypeIndex sentinel
// allocTableCarrier filled the whole array with, for a null entry) so
// internal/translator/calls.go's compileCallIndirect has a signature-
// identity token to compare against (spec.md §4.3). Table elements have
// no bulk-copy primitive analogous to System.arraycopy's byte-wise form
// available through this translator's modeled instruction set once boxed
// to references, so each slot is stored individually with AASTORE/IASTORE.
func initElementSegment(asm *jvmasm.Assembler, env *moduleEnv, seg wasm.ElementSegment, next *int) {
	if seg.TableIndex == nil {
		return
	}
	tableClass := env.TableCarrierClass(*seg.TableIndex)
	tableField := env.TableCarrierField(*seg.TableIndex)
	elemType := env.TableElemType(*seg.TableIndex)

	carrierLocal := int64(nextLocal(next))
	tableArrLocal := int64(nextLocal(next))
	typesArrLocal := int64(nextLocal(next))
	offsetLocal := int64(nextLocal(next))

	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileFieldAccess(jvm.GETFIELD, env.MainClassName(), tableField, jvm.Ref(tableClass))
	asm.CompileIntImmediate(jvm.ASTORE, carrierLocal)

	asm.CompileIntImmediate(jvm.ALOAD, carrierLocal)
	asm.CompileFieldAccess(jvm.GETFIELD, tableClass, "table", jvm.ArrayOf(elemType))
	asm.CompileIntImmediate(jvm.ASTORE, tableArrLocal)

	asm.CompileIntImmediate(jvm.ALOAD, carrierLocal)
	asm.CompileFieldAccess(jvm.GETFIELD, tableClass, "types", jvm.ArrayOf(jvm.Int))
	asm.CompileIntImmediate(jvm.ASTORE, typesArrLocal)

	emitConstantExpr(asm, env, seg.Offset)
	asm.CompileIntImmediate(jvm.ISTORE, offsetLocal)

	ok := asm.NewLabel("elem_seg_bounds_ok")
	asm.CompileIntImmediate(jvm.ALOAD, tableArrLocal)
	asm.CompileStandAlone(jvm.ARRAYLENGTH)
	asm.CompileIntImmediate(jvm.ILOAD, offsetLocal)
	asm.CompileIntImmediate(jvm.ICONST, int64(len(seg.FuncIndices)))
	asm.CompileStandAlone(jvm.IADD)
	asm.CompileStandAlone(jvm.ISUB)
	asm.CompileBranch(jvm.IFGE, ok)
	emitTrap(asm, trap.TableOutOfBounds)
	asm.MarkLabel(ok)

	for i, fi := range seg.FuncIndices {
		asm.CompileIntImmediate(jvm.ALOAD, tableArrLocal)
		asm.CompileIntImmediate(jvm.ILOAD, offsetLocal)
		if i > 0 {
			asm.CompileIntImmediate(jvm.ICONST, int64(i))
			asm.CompileStandAlone(jvm.IADD)
		}
		if fi == nil {
			asm.CompileStandAlone(jvm.ACONST_NULL)
		} else {
			emitFunctionHandleLoad(asm, env, *fi)
		}
		asm.CompileStandAlone(jvm.AASTORE)

		if fi == nil {
			continue
		}
		asm.CompileIntImmediate(jvm.ALOAD, typesArrLocal)
		asm.CompileIntImmediate(jvm.ILOAD, offsetLocal)
		if i > 0 {
			asm.CompileIntImmediate(jvm.ICONST, int64(i))
			asm.CompileStandAlone(jvm.IADD)
		}
		asm.CompileIntImmediate(jvm.ICONST, int64(env.FunctionTypeIndex(*fi)))
		asm.CompileStandAlone(jvm.IASTORE)
	}
}

// bindDefinedFunctionHandle populates a defined function's own bound
// MethodHandle field: MethodHandles.lookup() grants private access from
// within this class's own <init>, findVirtual resolves the already-
// compiled instance method by name and descriptor, and bindTo(this)
// fixes the receiver once so every later ref.func/export read is a plain
// field load (spec.md §4.6's function-handle uniformity, mirrored from
// the identical imported-function contract internal/binder.
// BindFunctionImport already satisfies).
func bindDefinedFunctionHandle(asm *jvmasm.Assembler, env *moduleEnv, funcIdx uint32, methodName, descriptor string) {
	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/invoke/MethodHandles", "lookup", "()Ljava/lang/invoke/MethodHandles$Lookup;")
	asm.CompileConstantPoolLoad(jvm.ClassConst(env.MainClassName()))
	asm.CompileConstantPoolLoad(jvm.StringConst(methodName))
	asm.CompileConstantPoolLoad(jvm.StringConst(descriptor))
	asm.CompileStandAlone(jvm.ACONST_NULL)
	asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/invoke/MethodType", "fromMethodDescriptorString",
		"(Ljava/lang/String;Ljava/lang/ClassLoader;)Ljava/lang/invoke/MethodType;")
	asm.CompileInvoke(jvm.INVOKEVIRTUAL, "java/lang/invoke/MethodHandles$Lookup", "findVirtual",
		"(Ljava/lang/Class;Ljava/lang/String;Ljava/lang/invoke/MethodType;)Ljava/lang/invoke/MethodHandle;")
	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileInvoke(jvm.INVOKEVIRTUAL, jvm.MethodHandleType.ClassName, "bindTo", "(Ljava/lang/Object;)Ljava/lang/invoke/MethodHandle;")
	asm.CompileFieldAccess(jvm.PUTFIELD, env.MainClassName(), env.DefinedFunctionHandleField(funcIdx), jvm.MethodHandleType)
}

// invokeStart calls the start function once every carrier, import, and
// global has been bound (spec.md §4.7 "invoke the start function if
// present"): the start function is always defined and always takes and
// returns nothing per WASM's own validation rules, so it's simply
// INVOKEVIRTUAL'd on `this` with no arguments and its (void) result
// discarded.
func invokeStart(asm *jvmasm.Assembler, env *moduleEnv, startFunc uint32) {
	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileInvoke(jvm.INVOKEVIRTUAL, env.MainClassName(), env.FunctionMethodName(startFunc), "()V")
}
