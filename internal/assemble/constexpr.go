package assemble

import (
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/jvmasm"
	"github.com/wasm2jvm/translator/internal/wasm"
)

// emitConstantExpr pushes the value of a restricted constant-expression
// initializer (spec.md §4.7 "restricted to the constant-expression
// subset"): a numeric literal, a null reference, a previously-bound
// global's current value, or a previously-bound function's own
// MethodHandle. Every referenceable global or function must already be
// populated by this point in the constructor — the assembled constructor
// binds imports and defined-function handles before evaluating any
// global initializer or segment offset (buildConstructor's step order).
func emitConstantExpr(asm *jvmasm.Assembler, env *moduleEnv, expr wasm.ConstantExpression) {
	switch expr.Kind {
	case wasm.ConstExprI32:
		asm.CompileIntImmediate(jvm.ICONST, int64(expr.I32))
	case wasm.ConstExprI64:
		asm.CompileIntImmediate(jvm.LCONST, expr.I64)
	case wasm.ConstExprF32:
		asm.CompileConstantPoolLoad(jvm.FloatConst(expr.F32))
	case wasm.ConstExprF64:
		asm.CompileConstantPoolLoad(jvm.DoubleConst(expr.F64))
	case wasm.ConstExprRefNull:
		asm.CompileStandAlone(jvm.ACONST_NULL)
	case wasm.ConstExprGlobalGet:
		class := env.GlobalCarrierClass(expr.GlobalIdx)
		asm.CompileIntImmediate(jvm.ALOAD, 0)
		asm.CompileFieldAccess(jvm.GETFIELD, env.MainClassName(), env.GlobalCarrierField(expr.GlobalIdx), jvm.Ref(class))
		asm.CompileFieldAccess(jvm.GETFIELD, class, "global", env.GlobalType(expr.GlobalIdx))
	case wasm.ConstExprRefFunc:
		emitFunctionHandleLoad(asm, env, expr.FuncIdx)
	}
}

// emitFunctionHandleLoad pushes funcIdx's bound MethodHandle field,
// mirroring internal/translator's compileRefFunc exactly (spec.md §4.6):
// imported and defined functions both resolve to a field the constructor
// has already populated by this point.
func emitFunctionHandleLoad(asm *jvmasm.Assembler, env *moduleEnv, funcIdx uint32) {
	var field string
	if env.module.IsImportedFunc(funcIdx) {
		field = env.ImportedFunctionHandleField(funcIdx)
	} else {
		field = env.DefinedFunctionHandleField(funcIdx)
	}
	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileFieldAccess(jvm.GETFIELD, env.MainClassName(), field, jvm.MethodHandleType)
}
