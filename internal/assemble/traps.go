package assemble

import (
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/jvmasm"
	"github.com/wasm2jvm/translator/internal/trap"
)

// BuildTrapsHelperClass emits the module-wide trap.HelperClassName class:
// one static thrower per trap.Kind (spec.md §4.3, §7.2), each
// constructing and returning a RuntimeException carrying the trap's
// stable kind string (spec.md §8 "every WASM runtime trap scenario
// produces the corresponding trap kind... at the JVM boundary") rather
// than throwing it directly, so every call site can follow up with its
// own ATHROW and stay a verifier-valid terminator regardless of which
// method calls in.
//
// Every trap.Kind gets a thrower unconditionally, rather than only the
// ones internal/translator.Result.UsedTraps reports as actually called:
// a handful of unused static methods cost nothing the verifier or a
// class loader cares about, and this sidesteps needing the union of
// every defined function's UsedTraps plus whatever internal/assemble's
// own data/element-segment and table/memory carrier bounds checks use
// before this class can be built.
func BuildTrapsHelperClass() *jvm.ClassDescriptor {
	c := jvm.NewClassDescriptor(trap.HelperClassName)
	for _, k := range trap.AllKinds {
		c.AddMethod(buildThrower(k))
	}
	return c
}

func buildThrower(kind trap.Kind) jvm.MethodInfo {
	asm := jvmasm.New()
	asm.CompileClassOp(jvm.NEW, "java/lang/RuntimeException")
	asm.CompileStandAlone(jvm.DUP)
	asm.CompileConstantPoolLoad(jvm.StringConst(kind.String()))
	asm.CompileInvoke(jvm.INVOKESPECIAL, "java/lang/RuntimeException", "<init>", "(Ljava/lang/String;)V")
	asm.CompileStandAlone(jvm.ARETURN)
	code, err := asm.Assemble()
	if err != nil {
		panic(err)
	}
	return jvm.MethodInfo{
		Name:        kind.ThrowerMethodName(),
		ParamTypes:  nil,
		ResultType:  jvm.Ref("java/lang/RuntimeException"),
		AccessFlags: jvm.AccPublic | jvm.AccStatic,
		MaxLocals:   0,
		MaxStack:    3,
		Code:        code,
	}
}
