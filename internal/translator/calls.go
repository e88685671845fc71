package translator

import (
	"github.com/wasm2jvm/translator/internal/ir"
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/trap"
	"github.com/wasm2jvm/translator/internal/typemap"
	"github.com/wasm2jvm/translator/internal/wasm"
)

func (tr *translator) compileLocalGet(op ir.Operation) error {
	l := tr.locals[op.Index]
	tr.emitLoadLocalSlot(l.jvmType, l.slot)
	tr.push(l.wasmType)
	return nil
}

func (tr *translator) compileLocalSet(op ir.Operation) error {
	l := tr.locals[op.Index]
	tr.pop()
	tr.emitStoreLocalSlot(l.jvmType, l.slot)
	return nil
}

// compileLocalTee stores without consuming: the value stays on the
// operand stack (spec.md §4.3 "local.tee").
func (tr *translator) compileLocalTee(op ir.Operation) error {
	l := tr.locals[op.Index]
	if typemap.Slots(l.wasmType) == 2 {
		tr.asm.CompileStandAlone(jvm.DUP2)
	} else {
		tr.asm.CompileStandAlone(jvm.DUP)
	}
	tr.emitStoreLocalSlot(l.jvmType, l.slot)
	return nil
}

// compileGlobalGet reads a global through its carrier's instance field
// (spec.md §4.5, §4.2's one-field-per-global layout): ALOAD 0 for `this`,
// GETFIELD the carrier, then GETFIELD the carrier's own single value
// field. Globals are modeled as tiny single-field carrier objects so a
// table of heterogeneous mutable globals can still share one naming and
// mutation story with memories/tables (internal/layout's Shape
// abstraction covers all three).
func (tr *translator) compileGlobalGet(op ir.Operation) error {
	field := tr.env.GlobalCarrierField(op.Index)
	class := tr.env.GlobalCarrierClass(op.Index)
	t := tr.env.GlobalType(op.Index)

	tr.asm.CompileIntImmediate(jvm.ALOAD, 0)
	tr.asm.CompileFieldAccess(jvm.GETFIELD, tr.env.MainClassName(), field, jvm.Ref(class))
	tr.asm.CompileFieldAccess(jvm.GETFIELD, class, "global", t) // spec.md §6: carrier field literally named "global"
	tr.push(wasmTypeFor(t))
	return nil
}

func (tr *translator) compileGlobalSet(op ir.Operation) error {
	field := tr.env.GlobalCarrierField(op.Index)
	class := tr.env.GlobalCarrierClass(op.Index)
	t := tr.env.GlobalType(op.Index)

	valType := tr.stack[len(tr.stack)-1]
	slots := tr.spillTop([]wasm.ValueType{valType})

	tr.asm.CompileIntImmediate(jvm.ALOAD, 0)
	tr.asm.CompileFieldAccess(jvm.GETFIELD, tr.env.MainClassName(), field, jvm.Ref(class))
	tr.emitLoadLocalSlot(typemap.MapValueType(valType), slots[0])
	tr.asm.CompileFieldAccess(jvm.PUTFIELD, class, "global", t)
	return nil
}

// wasmTypeFor inverts typemap.MapValueType closely enough for the one
// case that needs it here: deciding a value freshly loaded from a
// carrier field's push arity. Numeric kinds round-trip exactly;
// reference kinds always push as externref's representation, the only
// reference shape a global can hold verbatim through this path (funcref
// globals are vanishingly rare and carry the same one-slot-reference
// push arity regardless).
func wasmTypeFor(t jvm.Type) wasm.ValueType {
	switch t.Kind {
	case jvm.KindInt:
		return wasm.ValueTypeI32
	case jvm.KindLong:
		return wasm.ValueTypeI64
	case jvm.KindFloat:
		return wasm.ValueTypeF32
	case jvm.KindDouble:
		return wasm.ValueTypeF64
	default:
		return wasm.ValueTypeExternRef
	}
}

func (tr *translator) compileConst(op ir.Operation) error {
	switch op.Kind {
	case ir.OpKindConstI32:
		tr.asm.CompileIntImmediate(jvm.ICONST, int64(op.ConstI32))
		tr.push(wasm.ValueTypeI32)
	case ir.OpKindConstI64:
		tr.asm.CompileIntImmediate(jvm.LCONST, op.ConstI64)
		tr.push(wasm.ValueTypeI64)
	case ir.OpKindConstF32:
		tr.asm.CompileConstantPoolLoad(jvm.FloatConst(op.ConstF32))
		tr.push(wasm.ValueTypeF32)
	case ir.OpKindConstF64:
		tr.asm.CompileConstantPoolLoad(jvm.DoubleConst(op.ConstF64))
		tr.push(wasm.ValueTypeF64)
	}
	return nil
}

func (tr *translator) compileRefNull(op ir.Operation) error {
	tr.asm.CompileStandAlone(jvm.ACONST_NULL)
	tr.push(op.RefType)
	return nil
}

func (tr *translator) compileRefIsNull() error {
	tr.pop()
	trueLbl := tr.asm.NewLabel("refisnull_true")
	doneLbl := tr.asm.NewLabel("refisnull_done")
	tr.asm.CompileBranch(jvm.IFNULL, trueLbl)
	tr.asm.CompileIntImmediate(jvm.ICONST, 0)
	tr.asm.CompileJump(doneLbl)
	tr.asm.MarkLabel(trueLbl)
	tr.asm.CompileIntImmediate(jvm.ICONST, 1)
	tr.asm.MarkLabel(doneLbl)
	tr.push(wasm.ValueTypeI32)
	return nil
}

// compileRefFunc pushes a bound MethodHandle for a function index (spec.md
// §4.6 "funcref values are represented uniformly as bound method handles
// regardless of import/definition origin"): both imported and defined
// functions resolve to a field the main class's constructor already
// populated (internal/assemble, spec.md §4.7), so neither case needs a
// runtime reflective lookup inside an ordinary function body.
func (tr *translator) compileRefFunc(op ir.Operation) error {
	var field string
	if tr.module.IsImportedFunc(op.Index) {
		field = tr.env.ImportedFunctionHandleField(op.Index)
	} else {
		field = tr.env.DefinedFunctionHandleField(op.Index)
	}
	tr.asm.CompileIntImmediate(jvm.ALOAD, 0)
	tr.asm.CompileFieldAccess(jvm.GETFIELD, tr.env.MainClassName(), field, jvm.MethodHandleType)
	tr.push(wasm.ValueTypeFuncRef)
	return nil
}

// compileCall lowers a direct call (spec.md §4.6): imported functions go
// through their bound MethodHandle field (invokeExact, since the
// signature is statically known and fixed at import-binding time);
// defined functions call their instance method directly. Either way the
// receiver (`this`, or the handle field) must sit *under* the arguments
// already sitting on the operand stack from evaluating the call's operand
// expressions, so both paths spill the arguments first.
func (tr *translator) compileCall(op ir.Operation) error {
	sig, err := typemap.MapFunctionType(op.FuncType)
	if err != nil {
		return tr.err("call target: %s", err)
	}

	if tr.module.IsImportedFunc(op.Index) {
		return tr.compileImportedCall(op.Index, sig)
	}

	argTypes := sig.WasmParams
	slots := tr.spillTop(argTypes)
	tr.asm.CompileIntImmediate(jvm.ALOAD, 0)
	tr.reloadSpilled(argTypes, slots)
	for range argTypes {
		tr.pop()
	}
	tr.asm.CompileInvoke(jvm.INVOKEVIRTUAL, tr.env.MainClassName(), tr.env.FunctionMethodName(op.Index), sig.Descriptor())
	tr.pushResults(sig)
	return nil
}

func (tr *translator) compileImportedCall(funcIdx uint32, sig *typemap.Signature) error {
	field := tr.env.ImportedFunctionHandleField(funcIdx)
	// The handle itself must be loaded *under* the already-pushed
	// arguments for invokeExact's receiver-less calling convention, so
	// spill the arguments, load the handle, then reload them.
	argTypes := sig.WasmParams
	slots := tr.spillTop(argTypes)
	tr.asm.CompileIntImmediate(jvm.ALOAD, 0)
	tr.asm.CompileFieldAccess(jvm.GETFIELD, tr.env.MainClassName(), field, jvm.MethodHandleType)
	tr.reloadSpilled(argTypes, slots)
	for range argTypes {
		tr.pop()
	}
	tr.asm.CompileInvoke(jvm.INVOKEVIRTUAL, "java/lang/invoke/MethodHandle", "invokeExact", sig.Descriptor())
	tr.pushResults(sig)
	return nil
}

func (tr *translator) pushResults(sig *typemap.Signature) {
	if sig.ResultsPacked {
		tr.unpackResults(sig)
		return
	}
	if len(sig.WasmResults) == 1 {
		tr.push(sig.WasmResults[0])
	}
}

// unpackResults explodes a call's packed java.lang.Object[] result back
// onto the operand stack as individual typed values (spec.md §4.1): the
// inverse of emitPackedReturn. The array itself is on the real JVM stack
// (just produced by the call instruction preceding this) but was never
// tracked on the abstract stack, so it is stored straight to a temp
// without a matching pop.
func (tr *translator) unpackResults(sig *typemap.Signature) {
	arrSlot := tr.allocTemp(jvm.ObjectArrayType)
	tr.emitStoreLocalSlot(jvm.ObjectArrayType, arrSlot)

	for i, rt := range sig.WasmResults {
		tr.emitLoadLocalSlot(jvm.ObjectArrayType, arrSlot)
		tr.asm.CompileIntImmediate(jvm.ICONST, int64(i))
		tr.asm.CompileStandAlone(jvm.AALOAD)
		boxed := typemap.BoxedType(rt)
		tr.asm.CompileClassOp(jvm.CHECKCAST, boxed.ClassName)
		tr.emitUnbox(rt, boxed)
		tr.push(rt)
	}
}

// compileCallIndirect lowers an indirect call through a funcref table
// (spec.md §4.6): index the table carrier, null-check (IndirectCallToNull
// trap), then compare the slot's stored type-index token (internal/
// emitter.BuildTableCarrier's parallel `types` field, populated by
// internal/assemble/segments.go's initElementSegment or, for an imported
// table, reflectively copied from the host import object) against
// op.Index — the call site's statically known expected WASM type index
// (spec.md §4.3's call_indirect row: "signature identity encoded as a
// type-index token shared with the module table") — trapping
// IndirectCallTypeMismatch on a mismatch before ever reaching
// MethodHandle.invoke.
func (tr *translator) compileCallIndirect(op ir.Operation) error {
	sig, err := typemap.MapFunctionType(op.FuncType)
	if err != nil {
		return tr.err("call_indirect target: %s", err)
	}

	tr.pop() // i32 table index operand
	elemSlot := tr.allocTemp(jvm.Int)
	tr.emitStoreLocalSlot(jvm.Int, elemSlot)

	argTypes := sig.WasmParams
	slots := tr.spillTop(argTypes)

	field := tr.env.TableCarrierField(op.TableIndex)
	class := tr.env.TableCarrierClass(op.TableIndex)
	tr.asm.CompileIntImmediate(jvm.ALOAD, 0)
	tr.asm.CompileFieldAccess(jvm.GETFIELD, tr.env.MainClassName(), field, jvm.Ref(class))
	tr.emitLoadLocalSlot(jvm.Int, elemSlot)
	tr.asm.CompileInvoke(jvm.INVOKEVIRTUAL, class, "get", jvm.MethodDescriptor([]jvm.Type{jvm.Int}, jvm.MethodHandleType))

	handleSlot := tr.allocTemp(jvm.MethodHandleType)
	tr.emitStoreLocalSlot(jvm.MethodHandleType, handleSlot)
	tr.emitLoadLocalSlot(jvm.MethodHandleType, handleSlot)
	ok := tr.asm.NewLabel("callindirect_ok")
	tr.asm.CompileBranch(jvm.IFNONNULL, ok)
	tr.emitTrap(trap.IndirectCallToNull)
	tr.asm.MarkLabel(ok)

	tr.asm.CompileIntImmediate(jvm.ALOAD, 0)
	tr.asm.CompileFieldAccess(jvm.GETFIELD, tr.env.MainClassName(), field, jvm.Ref(class))
	tr.emitLoadLocalSlot(jvm.Int, elemSlot)
	tr.asm.CompileInvoke(jvm.INVOKEVIRTUAL, class, "typeAt", jvm.MethodDescriptor([]jvm.Type{jvm.Int}, jvm.Int))
	tr.asm.CompileIntImmediate(jvm.ICONST, int64(op.Index))
	typeOk := tr.asm.NewLabel("callindirect_type_ok")
	tr.asm.CompileBranch(jvm.IF_ICMPEQ, typeOk)
	tr.emitTrap(trap.IndirectCallTypeMismatch)
	tr.asm.MarkLabel(typeOk)

	tr.emitLoadLocalSlot(jvm.MethodHandleType, handleSlot)
	tr.reloadSpilled(argTypes, slots)
	for range argTypes {
		tr.pop()
	}
	tr.asm.CompileInvoke(jvm.INVOKEVIRTUAL, "java/lang/invoke/MethodHandle", "invoke", sig.Descriptor())
	tr.pushResults(sig)
	return nil
}
