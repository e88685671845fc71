package translator

import (
	"fmt"

	"github.com/wasm2jvm/translator/internal/diag"
	"github.com/wasm2jvm/translator/internal/ir"
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/jvmasm"
	"github.com/wasm2jvm/translator/internal/trap"
	"github.com/wasm2jvm/translator/internal/typemap"
	"github.com/wasm2jvm/translator/internal/wasm"
)

// localInfo is one WASM local's JVM home: its declared type and the slot
// it occupies, parameters first, then declared locals, then this
// function's own temporaries (spec.md §4.3 "parameters first, then
// declared locals").
type localInfo struct {
	wasmType wasm.ValueType
	jvmType  jvm.Type
	slot     int
}

// txFrame mirrors one open ir control frame (block/loop/if) on the
// translator side: the abstract-stack height at its entry and its
// declared parameter/result types, so a Label or Else arm can reset the
// translator's operand-type stack to a known-good state rather than
// trust whatever dead code left behind (spec.md §4.3's operand stack is
// polymorphic after `unreachable`).
type txFrame struct {
	frameID    int
	baseHeight int
	params     []wasm.ValueType
	results    []wasm.ValueType
}

// translator lowers one function body's ir.Result into JVM bytecode. A
// fresh translator is built per function by CompileFunction; nothing
// here is safe to share across functions.
type translator struct {
	env     Env
	module  *wasm.Module
	funcIdx uint32

	sig *typemap.Signature
	asm *jvmasm.Assembler

	locals   []localInfo
	nextSlot int

	stack  []wasm.ValueType
	frames []*txFrame

	// deadCode marks operations between an Unreachable/Br/BrTable/Return
	// and the next Label as unreachable: their types are unconstrained, so
	// their bytecode is skipped outright rather than risk an operand-stack
	// shape the JVM verifier would reject (spec.md §4.3).
	deadCode bool

	labels map[ir.LabelID]*jvmasm.Label

	// usedTraps records which trap.Kind thrower helpers this function's
	// body actually calls; CompileFunction returns it as Result.UsedTraps.
	usedTraps map[trap.Kind]bool

	maxStack    int
	stackHeight int // current *slot* height, for MaxStack tracking
}

// Result is one defined function's compiled method plus the bookkeeping
// internal/assemble needs once every function in the module has been
// compiled.
type Result struct {
	Method *jvm.MethodInfo
	// UsedTraps is the set of trap.Kind thrower helpers this function's
	// body calls into (spec.md §4.3, §7.2). internal/assemble does not
	// read it: the module-wide trap helper class carries a thrower for
	// every trap.Kind.
	UsedTraps map[trap.Kind]bool
}

// CompileFunction lowers the defined function at funcIdx into a
// jvm.MethodInfo instance method (spec.md §4.3, §4.7 "one instance
// method per defined function"). env supplies the whole-module naming
// facts (carrier fields, callee method names) this function's body
// references but does not itself decide.
func CompileFunction(env Env, module *wasm.Module, funcIdx uint32) (*Result, error) {
	fn := &module.Functions[funcIdx]
	if !fn.Defined {
		return nil, diag.NewFunc(diag.KindInvariant, "translator", funcIdx, "CompileFunction called on an imported function")
	}
	funcType := module.FunctionType(funcIdx)
	sig, err := typemap.MapFunctionType(funcType)
	if err != nil {
		return nil, diag.NewFunc(diag.KindSignatureTooWide, "translator", funcIdx, err.Error())
	}

	result, err := ir.Build(module, funcType, fn.Code)
	if err != nil {
		return nil, diag.NewFunc(diag.KindInvariant, "translator", funcIdx, err.Error())
	}

	tr := &translator{
		env:       env,
		module:    module,
		funcIdx:   funcIdx,
		sig:       sig,
		asm:       jvmasm.New(),
		labels:    map[ir.LabelID]*jvmasm.Label{},
		usedTraps: map[trap.Kind]bool{},
	}
	tr.allocateLocals(funcType, fn.Code, sig)
	tr.emitParamPrologue(funcType, sig)

	for _, op := range result.Operations {
		if err := tr.compile(op); err != nil {
			return nil, diag.NewFunc(diag.KindInvariant, "translator", funcIdx, err.Error())
		}
	}

	code, err := tr.asm.Assemble()
	if err != nil {
		return nil, diag.NewFunc(diag.KindInvariant, "translator", funcIdx, err.Error())
	}

	return &Result{
		Method: &jvm.MethodInfo{
			Name:        env.FunctionMethodName(funcIdx),
			AccessFlags: jvm.AccPublic,
			ParamTypes:  sig.ParamTypes,
			ResultType:  sig.ResultType,
			MaxLocals:   tr.nextSlot,
			MaxStack:    tr.maxStack,
			Code:        code,
		},
		UsedTraps: tr.usedTraps,
	}, nil
}

// allocateLocals assigns JVM slots for every WASM local: slot 0 is
// reserved for `this` (every defined function is an instance method, so
// it can reach the main class's carrier fields), then parameters, then
// declared locals (spec.md §4.3). When the signature packs parameters
// into a single object array (spec.md §4.1), the incoming JVM parameter
// at slot 1 holds that array; the WASM-visible parameter locals get
// their own slots starting after it, filled in by emitParamPrologue.
func (tr *translator) allocateLocals(funcType *wasm.FunctionType, code *wasm.Code, sig *typemap.Signature) {
	slot := 1 // slot 0 is `this`
	if sig.ParamsPacked {
		slot++ // slot 1 holds the incoming Object[] itself
	}
	tr.locals = make([]localInfo, 0, len(funcType.Params)+len(code.Locals))
	for _, p := range funcType.Params {
		jt := typemap.MapValueType(p)
		tr.locals = append(tr.locals, localInfo{wasmType: p, jvmType: jt, slot: slot})
		slot += jt.Slots()
	}
	for _, l := range code.Locals {
		jt := typemap.MapValueType(l)
		tr.locals = append(tr.locals, localInfo{wasmType: l, jvmType: jt, slot: slot})
		slot += jt.Slots()
	}
	tr.nextSlot = slot
}

// emitParamPrologue unpacks the incoming Object[] into per-local slots
// when the signature packs parameters (spec.md §4.1 "unboxed on entry
// before use"). Unpacked parameters are otherwise already resident in
// their JVM parameter slots and need no prologue.
func (tr *translator) emitParamPrologue(funcType *wasm.FunctionType, sig *typemap.Signature) {
	if !sig.ParamsPacked {
		return
	}
	const arraySlot = 1
	for i, p := range funcType.Params {
		local := tr.locals[i]
		tr.asm.CompileIntImmediate(jvm.ALOAD, arraySlot)
		tr.asm.CompileIntImmediate(jvm.ICONST, int64(i))
		tr.asm.CompileStandAlone(jvm.AALOAD)
		boxed := typemap.BoxedType(p)
		tr.asm.CompileClassOp(jvm.CHECKCAST, boxed.ClassName)
		tr.emitUnbox(p, boxed)
		tr.emitStoreLocalSlot(local.jvmType, local.slot)
	}
}

// emitUnbox converts a boxed value (already CHECKCAST to its boxed
// wrapper) on top of the stack to its unboxed JVM primitive/reference.
func (tr *translator) emitUnbox(wasmType wasm.ValueType, boxed jvm.Type) {
	switch wasmType {
	case wasm.ValueTypeI32:
		tr.asm.CompileInvoke(jvm.INVOKEVIRTUAL, boxed.ClassName, "intValue", "()I")
	case wasm.ValueTypeI64:
		tr.asm.CompileInvoke(jvm.INVOKEVIRTUAL, boxed.ClassName, "longValue", "()J")
	case wasm.ValueTypeF32:
		tr.asm.CompileInvoke(jvm.INVOKEVIRTUAL, boxed.ClassName, "floatValue", "()F")
	case wasm.ValueTypeF64:
		tr.asm.CompileInvoke(jvm.INVOKEVIRTUAL, boxed.ClassName, "doubleValue", "()D")
	default:
		// References are already unboxed: the CHECKCAST above was the only
		// conversion needed (spec.md §4.1 boxed reference == unboxed
		// reference for funcref/externref).
	}
}

func localOpcodes(t jvm.Type) (load, store jvm.Opcode) {
	switch t.Kind {
	case jvm.KindInt:
		return jvm.ILOAD, jvm.ISTORE
	case jvm.KindLong:
		return jvm.LLOAD, jvm.LSTORE
	case jvm.KindFloat:
		return jvm.FLOAD, jvm.FSTORE
	case jvm.KindDouble:
		return jvm.DLOAD, jvm.DSTORE
	default:
		return jvm.ALOAD, jvm.ASTORE
	}
}

func (tr *translator) emitLoadLocalSlot(t jvm.Type, slot int) {
	load, _ := localOpcodes(t)
	tr.asm.CompileIntImmediate(load, int64(slot))
}

func (tr *translator) emitStoreLocalSlot(t jvm.Type, slot int) {
	_, store := localOpcodes(t)
	tr.asm.CompileIntImmediate(store, int64(slot))
}

// allocTemp reserves a fresh local slot wide enough for t, growing
// nextSlot/MaxLocals permanently: temporaries are never reused across
// reconciliation points within one function, trading a few extra local
// slots for never having to prove two temporaries' live ranges disjoint
// (spec.md §4.4's br-height reconciliation explicitly allows this: "a
// small, fixed number of temporary locals").
func (tr *translator) allocTemp(t jvm.Type) int {
	slot := tr.nextSlot
	tr.nextSlot += t.Slots()
	return slot
}

func (tr *translator) err(format string, args ...any) error {
	return fmt.Errorf("translator: func %d: %s", tr.funcIdx, fmt.Sprintf(format, args...))
}
