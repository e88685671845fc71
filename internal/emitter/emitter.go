// Package emitter implements the Memory/Table/Global Emitter (spec.md
// §4.5): it builds the carrier jvm.ClassDescriptors that back a defined
// memory, table, or global, each exposing the conventionally named
// field spec.md §6 requires at the JVM boundary ("memory"/"table"/
// "global"; a table carrier also exposes a parallel `types` array) plus
// whatever resize/access helper methods
// internal/translator's memory.go/calls.go call into by name.
//
// Grounded on spec.md §4.5 directly; the carrier-as-tiny-object shape
// and its reliance on a shared trap-thrower convention mirrors
// internal/translator/traps.go's own INVOKESTATIC-then-ATHROW pattern,
// so a carrier's bounds checks read the same way a function body's do.
package emitter

import (
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/jvmasm"
	"github.com/wasm2jvm/translator/internal/trap"
)

// defaultConstructor emits the no-arg `<init>` every carrier class needs:
// just a super() call. Carrier fields are populated from the outside
// (internal/assemble's constructor-building logic, spec.md §4.7) via
// direct PUTFIELD, since the carrier class itself has no constructor
// argument to receive an initial value through.
func defaultConstructor(superName string) jvm.MethodInfo {
	asm := jvmasm.New()
	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileInvoke(jvm.INVOKESPECIAL, superName, "<init>", "()V")
	asm.CompileStandAlone(jvm.RETURN)
	code, err := asm.Assemble()
	if err != nil {
		// Only fails on an unresolved label, and this body marks none.
		panic(err)
	}
	return jvm.MethodInfo{
		Name:        "<init>",
		ParamTypes:  nil,
		ResultType:  jvm.Void,
		AccessFlags: jvm.AccPublic,
		MaxLocals:   1,
		MaxStack:    1,
		Code:        code,
	}
}

// valueConstructor emits a one-argument `<init>(T)` that assigns field
// straight from the sole parameter before returning. Needed whenever
// field carries AccFinal (JVMS restricts a final instance field's only
// legal assignment to a putfield inside an <init> of its declaring
// class, so an immutable global's value can never be set from outside
// via a later, separate PUTFIELD the way a mutable memory/table field's
// can).
func valueConstructor(className, superName, fieldName string, fieldType jvm.Type) jvm.MethodInfo {
	asm := jvmasm.New()
	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileInvoke(jvm.INVOKESPECIAL, superName, "<init>", "()V")
	asm.CompileIntImmediate(jvm.ALOAD, 0)
	loadParam(asm, fieldType, 1)
	asm.CompileFieldAccess(jvm.PUTFIELD, className, fieldName, fieldType)
	asm.CompileStandAlone(jvm.RETURN)
	code, err := asm.Assemble()
	if err != nil {
		panic(err)
	}
	return jvm.MethodInfo{
		Name:        "<init>",
		ParamTypes:  []jvm.Type{fieldType},
		ResultType:  jvm.Void,
		AccessFlags: jvm.AccPublic,
		MaxLocals:   1 + fieldType.Slots(),
		MaxStack:    2,
		Code:        code,
	}
}

// loadParam pushes local slot n, picking the load opcode for t's JVM
// category.
func loadParam(asm *jvmasm.Assembler, t jvm.Type, n int) {
	switch t.Kind {
	case jvm.KindLong:
		asm.CompileIntImmediate(jvm.LLOAD, int64(n))
	case jvm.KindFloat:
		asm.CompileIntImmediate(jvm.FLOAD, int64(n))
	case jvm.KindDouble:
		asm.CompileIntImmediate(jvm.DLOAD, int64(n))
	case jvm.KindRef, jvm.KindArray:
		asm.CompileIntImmediate(jvm.ALOAD, int64(n))
	default:
		asm.CompileIntImmediate(jvm.ILOAD, int64(n))
	}
}

// emitTrap appends an INVOKESTATIC-to-the-trap-helper-then-ATHROW
// sequence, the same convention internal/translator/traps.go uses inside
// ordinary function bodies: the thrower method constructs and returns the
// exception rather than throwing it internally, so it stays a verifier-
// valid ATHROW at every call site regardless of which class calls it.
func emitTrap(asm *jvmasm.Assembler, kind trap.Kind) {
	asm.CompileInvoke(jvm.INVOKESTATIC, trap.HelperClassName, kind.ThrowerMethodName(), "()Ljava/lang/RuntimeException;")
	asm.CompileStandAlone(jvm.ATHROW)
}

// finish assembles asm's accumulated instructions into a MethodInfo,
// panicking on an unresolved-label error: every carrier method body this
// package builds marks every label it references before calling finish,
// so such an error can only mean a bug in this package, not bad input.
func finish(asm *jvmasm.Assembler, name string, params []jvm.Type, result jvm.Type, maxLocals, maxStack int) jvm.MethodInfo {
	code, err := asm.Assemble()
	if err != nil {
		panic(err)
	}
	return jvm.MethodInfo{
		Name:        name,
		ParamTypes:  params,
		ResultType:  result,
		AccessFlags: jvm.AccPublic,
		MaxLocals:   maxLocals,
		MaxStack:    maxStack,
		Code:        code,
	}
}
