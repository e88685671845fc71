package assemble

import (
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/jvmasm"
	"github.com/wasm2jvm/translator/internal/nan"
)

// BuildNaNHelperClass emits the module-wide nan.HelperClassName class:
// one static canonicalization method per float width (SPEC_FULL §C.4),
// each passing its argument through unchanged unless it's already NaN,
// in which case it's replaced with the platform's canonical NaN
// constant. Built unconditionally, like BuildTrapsHelperClass, rather
// than only when a compiled function actually emits a NaN-producing op.
func BuildNaNHelperClass() *jvm.ClassDescriptor {
	c := jvm.NewClassDescriptor(nan.HelperClassName)
	c.AddMethod(buildCanon(jvm.Float, "java/lang/Float", jvm.FLOAD, jvm.FRETURN, nan.CanonFloatMethod))
	c.AddMethod(buildCanon(jvm.Double, "java/lang/Double", jvm.DLOAD, jvm.DRETURN, nan.CanonDoubleMethod))
	return c
}

// buildCanon builds `static <t> name(<t> v) { return <boxedOwner>.isNaN(v)
// ? <boxedOwner>.NaN : v; }` for one float width.
func buildCanon(t jvm.Type, boxedOwner string, load, ret jvm.Opcode, name string) jvm.MethodInfo {
	asm := jvmasm.New()
	notNaN := asm.NewLabel("not_nan")

	asm.CompileIntImmediate(load, 0)
	asm.CompileInvoke(jvm.INVOKESTATIC, boxedOwner, "isNaN", jvm.MethodDescriptor([]jvm.Type{t}, jvm.Boolean))
	asm.CompileBranch(jvm.IFEQ, notNaN)
	asm.CompileFieldAccess(jvm.GETSTATIC, boxedOwner, "NaN", t)
	asm.CompileStandAlone(ret)

	asm.MarkLabel(notNaN)
	asm.CompileIntImmediate(load, 0)
	asm.CompileStandAlone(ret)

	code, err := asm.Assemble()
	if err != nil {
		panic(err)
	}
	return jvm.MethodInfo{
		Name:        name,
		ParamTypes:  []jvm.Type{t},
		ResultType:  t,
		AccessFlags: jvm.AccPublic | jvm.AccStatic,
		MaxLocals:   t.Slots(),
		MaxStack:    t.Slots(),
		Code:        code,
	}
}
