package translator

import (
	"github.com/wasm2jvm/translator/internal/ir"
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/jvmasm"
	"github.com/wasm2jvm/translator/internal/trap"
	"github.com/wasm2jvm/translator/internal/typemap"
	"github.com/wasm2jvm/translator/internal/wasm"
)

// compile lowers one ir.Operation. Operations reached only through dead
// code (after Unreachable/Br/BrTable/Return, before the next Label) are
// skipped outright rather than compiled with an unconstrained operand
// stack (spec.md §4.3) — FrameEnter and Label are the two exceptions,
// since their bookkeeping must stay in sync with internal/ir's own frame
// stack regardless of reachability.
func (tr *translator) compile(op ir.Operation) error {
	if tr.deadCode && op.Kind != ir.OpKindFrameEnter && op.Kind != ir.OpKindLabel {
		return nil
	}

	switch op.Kind {
	case ir.OpKindFrameEnter:
		return tr.compileFrameEnter(op)
	case ir.OpKindLabel:
		return tr.compileLabel(op)
	case ir.OpKindUnreachable:
		return tr.compileUnreachable()
	case ir.OpKindBr:
		return tr.compileBr(op)
	case ir.OpKindBrIf:
		return tr.compileBrIf(op)
	case ir.OpKindBrTable:
		return tr.compileBrTable(op)
	case ir.OpKindReturn:
		return tr.emitReturnSequence(op.Types)
	case ir.OpKindDrop:
		return tr.compileDrop()
	case ir.OpKindSelect:
		return tr.compileSelect()
	case ir.OpKindCall:
		return tr.compileCall(op)
	case ir.OpKindCallIndirect:
		return tr.compileCallIndirect(op)
	case ir.OpKindLocalGet:
		return tr.compileLocalGet(op)
	case ir.OpKindLocalSet:
		return tr.compileLocalSet(op)
	case ir.OpKindLocalTee:
		return tr.compileLocalTee(op)
	case ir.OpKindGlobalGet:
		return tr.compileGlobalGet(op)
	case ir.OpKindGlobalSet:
		return tr.compileGlobalSet(op)
	case ir.OpKindConstI32, ir.OpKindConstI64, ir.OpKindConstF32, ir.OpKindConstF64:
		return tr.compileConst(op)
	case ir.OpKindMemorySize:
		return tr.compileMemorySize(op)
	case ir.OpKindMemoryGrow:
		return tr.compileMemoryGrow(op)
	case ir.OpKindRefNull:
		return tr.compileRefNull(op)
	case ir.OpKindRefIsNull:
		return tr.compileRefIsNull()
	case ir.OpKindRefFunc:
		return tr.compileRefFunc(op)
	case ir.OpKindLoad, ir.OpKindLoad8, ir.OpKindLoad16, ir.OpKindLoad32:
		return tr.compileLoad(op)
	case ir.OpKindStore, ir.OpKindStore8, ir.OpKindStore16, ir.OpKindStore32:
		return tr.compileStore(op)
	default:
		return tr.compileNumeric(op)
	}
}

// compileFrameEnter opens a txFrame mirroring the ir control frame just
// entered. baseHeight is the abstract-stack slot height *below* the
// frame's own parameters, since those values are already on the real
// stack (block/loop/if never pop their T_in — the body consumes them
// directly, spec.md §4.4) and a branch back out to this frame's
// continuation reconciles down to that same base.
func (tr *translator) compileFrameEnter(op ir.Operation) error {
	base := tr.stackHeight - typemap.ParamSlots(op.FrameParams)
	tr.frames = append(tr.frames, &txFrame{
		frameID:    op.Label.FrameID,
		baseHeight: base,
		params:     op.FrameParams,
		results:    op.FrameResults,
	})
	return nil
}

// compileLabel marks a jump target and resets the translator's notion of
// the abstract operand stack to whatever this label's role guarantees is
// really present (spec.md §4.3's polymorphic post-unreachable stack means
// this reset, not whatever dead code left behind, is authoritative).
func (tr *translator) compileLabel(op ir.Operation) error {
	lbl := tr.labelFor(op.Label.ID(), op.Label.Kind.String())
	tr.asm.MarkLabel(lbl)
	tr.deadCode = false

	switch op.Label.Kind {
	case ir.LabelKindHeader:
		// A loop's entry immediately follows its FrameEnter with nothing in
		// between (internal/ir always emits them back to back), so the
		// stack FrameEnter already established is still exactly right.
	case ir.LabelKindElse:
		f := tr.frameByID(op.Label.FrameID)
		tr.resetStack(f.params)
	case ir.LabelKindContinuation:
		f := tr.frameByID(op.Label.FrameID)
		tr.resetStack(f.results)
		tr.popFrame(f.frameID)
	}
	return nil
}

func (tr *translator) popFrame(frameID int) {
	for i := len(tr.frames) - 1; i >= 0; i-- {
		if tr.frames[i].frameID == frameID {
			tr.frames = append(tr.frames[:i], tr.frames[i+1:]...)
			return
		}
	}
}

func (tr *translator) frameByID(frameID int) *txFrame {
	for i := len(tr.frames) - 1; i >= 0; i-- {
		if tr.frames[i].frameID == frameID {
			return tr.frames[i]
		}
	}
	return nil
}

func (tr *translator) compileUnreachable() error {
	tr.emitTrap(trap.Unreachable)
	tr.deadCode = true
	return nil
}

func (tr *translator) compileBr(op ir.Operation) error {
	if op.Label.Kind == ir.LabelKindReturn {
		return tr.emitReturnSequence(op.Types)
	}
	f := tr.frameByID(op.Label.FrameID)
	tr.reconcile(f.baseHeight, op.Types)
	tr.asm.CompileJump(tr.labelFor(op.Label.ID(), "br"))
	tr.deadCode = true
	return nil
}

func invertCond(op jvm.Opcode) jvm.Opcode {
	if op == jvm.IFEQ {
		return jvm.IFNE
	}
	return jvm.IFEQ
}

func (tr *translator) compileBrIf(op ir.Operation) error {
	tr.pop() // i32 condition, consumed by the IF* test below either way
	jumpOp := jvm.IFNE
	if op.Negate {
		jumpOp = jvm.IFEQ
	}

	if op.Label.Kind == ir.LabelKindReturn {
		// br_if to the function's own exit: reconciliation always runs at
		// base 0, so the simple gated-reconcile shape below applies
		// identically, with base 0 passed straight in instead of a frame's
		// base height.
		return tr.compileBrIfGeneral(jumpOp, 0, op.Types, tr.labelFor(op.Label.ID(), "brif_ret"))
	}

	f := tr.frameByID(op.Label.FrameID)
	return tr.compileBrIfGeneral(jumpOp, f.baseHeight, op.Types, tr.labelFor(op.Label.ID(), "brif"))
}

func (tr *translator) compileBrIfGeneral(jumpOp jvm.Opcode, base int, types []wasm.ValueType, target *jvmasm.Label) error {
	extra := tr.stackHeight - (base + typemap.ParamSlots(types))
	if extra == 0 {
		tr.asm.CompileBranch(jumpOp, target)
		return nil
	}

	// The carried values must only be reconciled along the taken path: the
	// not-taken (fallthrough) path keeps its full, unreconciled stack
	// (spec.md §4.4 "br_if" leaves the operand stack untouched when not
	// taken). Gate the reconciliation behind an inverted test to a local
	// "skip" label, then restore the translator's own bookkeeping to the
	// fallthrough shape once the gated block is emitted.
	skip := tr.asm.NewLabel("brif_skip")
	tr.asm.CompileBranch(invertCond(jumpOp), skip)

	savedStack := append([]wasm.ValueType(nil), tr.stack...)
	savedHeight := tr.stackHeight

	tr.reconcile(base, types)
	tr.asm.CompileJump(target)

	tr.stack = savedStack
	tr.stackHeight = savedHeight

	tr.asm.MarkLabel(skip)
	return nil
}

func (tr *translator) compileBrTable(op ir.Operation) error {
	tr.pop() // i32 selector

	type thunk struct {
		label *jvmasm.Label
		frame *txFrame
	}
	thunks := map[ir.LabelID]*thunk{}
	savedStack := append([]wasm.ValueType(nil), tr.stack...)
	savedHeight := tr.stackHeight

	operandFor := func(target *ir.Label) *jvmasm.Label {
		f := tr.frameByID(target.FrameID)
		if f == nil {
			// Only the implicit function-level Return label has no txFrame
			// (it is never pushed as a frame); its base is always 0.
			f = &txFrame{baseHeight: 0}
		}
		real := tr.labelFor(target.ID(), "brtable_target")
		extra := tr.stackHeight - (f.baseHeight + typemap.ParamSlots(op.Types))
		if extra == 0 {
			return real
		}
		if existing, ok := thunks[target.ID()]; ok {
			return existing.label
		}
		t := &thunk{label: tr.asm.NewLabel("brtable_thunk"), frame: f}
		thunks[target.ID()] = t
		return t.label
	}

	targets := make([]*jvmasm.Label, len(op.BrTableTargets))
	for i, t := range op.BrTableTargets {
		targets[i] = operandFor(t)
	}
	def := operandFor(op.BrTableDefault)

	tr.asm.CompileTableSwitch(0, targets, def)

	for id, t := range thunks {
		tr.asm.MarkLabel(t.label)
		tr.stack = append([]wasm.ValueType(nil), savedStack...)
		tr.stackHeight = savedHeight
		tr.reconcile(t.frame.baseHeight, op.Types)
		tr.asm.CompileJump(tr.labelFor(id, "brtable_real"))
	}

	tr.stack = savedStack
	tr.stackHeight = savedHeight
	tr.deadCode = true
	return nil
}

func (tr *translator) compileDrop() error {
	v := tr.pop()
	if typemap.Slots(v) == 2 {
		tr.asm.CompileStandAlone(jvm.POP2)
	} else {
		tr.asm.CompileStandAlone(jvm.POP)
	}
	return nil
}

// compileSelect lowers WASM's type-polymorphic `select`: its operand
// type is never carried on the Operation (spec.md §4.3's select has no
// dedicated type operand in the base instruction set), so it is inferred
// straight from the two values already tracked on the abstract stack.
// All three operands are spilled to temporaries first so the same
// sequence works uniformly for 1- and 2-slot operand types, where a bare
// SWAP (category-1 only) would not.
func (tr *translator) compileSelect() error {
	tr.pop() // i32 condition
	t2 := tr.pop()
	t1 := tr.pop()

	condSlot := tr.allocTemp(jvm.Int)
	tr.emitStoreLocalSlot(jvm.Int, condSlot)
	t2J := typemap.MapValueType(t2)
	t2Slot := tr.allocTemp(t2J)
	tr.emitStoreLocalSlot(t2J, t2Slot)
	t1J := typemap.MapValueType(t1)
	t1Slot := tr.allocTemp(t1J)
	tr.emitStoreLocalSlot(t1J, t1Slot)

	elseLbl := tr.asm.NewLabel("select_else")
	doneLbl := tr.asm.NewLabel("select_done")
	tr.emitLoadLocalSlot(jvm.Int, condSlot)
	tr.asm.CompileBranch(jvm.IFEQ, elseLbl)
	tr.emitLoadLocalSlot(t1J, t1Slot)
	tr.asm.CompileJump(doneLbl)
	tr.asm.MarkLabel(elseLbl)
	tr.emitLoadLocalSlot(t2J, t2Slot)
	tr.asm.MarkLabel(doneLbl)

	tr.push(t1)
	return nil
}

// emitReturnSequence implements both the explicit `return` instruction
// and the function body's implicit final branch (spec.md §4.4 "return:
// equivalent to a branch to the outermost frame"): it reconciles down to
// the function's entry height (base 0) regardless of how many blocks are
// still open, then emits the actual JVM return, packing into a boxed
// array first when the signature requires it (spec.md §4.1).
func (tr *translator) emitReturnSequence(types []wasm.ValueType) error {
	tr.reconcile(0, types)

	if tr.sig.ResultsPacked {
		return tr.emitPackedReturn(types)
	}
	if len(types) == 0 {
		tr.asm.CompileStandAlone(jvm.RETURN)
		return nil
	}
	t := tr.pop()
	switch t {
	case wasm.ValueTypeI32:
		tr.asm.CompileStandAlone(jvm.IRETURN)
	case wasm.ValueTypeI64:
		tr.asm.CompileStandAlone(jvm.LRETURN)
	case wasm.ValueTypeF32:
		tr.asm.CompileStandAlone(jvm.FRETURN)
	case wasm.ValueTypeF64:
		tr.asm.CompileStandAlone(jvm.DRETURN)
	default:
		tr.asm.CompileStandAlone(jvm.ARETURN)
	}
	return nil
}

// emitPackedReturn builds the java.lang.Object[] a multi-value result
// packs into (spec.md §4.1), boxing each value, then returns it.
func (tr *translator) emitPackedReturn(types []wasm.ValueType) error {
	slots := tr.spillTop(types)

	tr.asm.CompileIntImmediate(jvm.ICONST, int64(len(types)))
	tr.asm.CompileClassOp(jvm.ANEWARRAY, "java/lang/Object")
	for i, t := range types {
		tr.asm.CompileStandAlone(jvm.DUP)
		tr.asm.CompileIntImmediate(jvm.ICONST, int64(i))
		jt := typemap.MapValueType(t)
		tr.emitLoadLocalSlot(jt, slots[i])
		tr.emitBox(t)
		tr.asm.CompileStandAlone(jvm.AASTORE)
	}
	tr.asm.CompileStandAlone(jvm.ARETURN)
	return nil
}

// emitBox converts a raw JVM primitive/reference on top of the stack to
// its boxed form (spec.md §4.1 "boxing is mandatory for every element").
func (tr *translator) emitBox(t wasm.ValueType) {
	boxed := typemap.BoxedType(t)
	switch t {
	case wasm.ValueTypeI32:
		tr.asm.CompileInvoke(jvm.INVOKESTATIC, boxed.ClassName, "valueOf", "(I)"+boxed.Descriptor())
	case wasm.ValueTypeI64:
		tr.asm.CompileInvoke(jvm.INVOKESTATIC, boxed.ClassName, "valueOf", "(J)"+boxed.Descriptor())
	case wasm.ValueTypeF32:
		tr.asm.CompileInvoke(jvm.INVOKESTATIC, boxed.ClassName, "valueOf", "(F)"+boxed.Descriptor())
	case wasm.ValueTypeF64:
		tr.asm.CompileInvoke(jvm.INVOKESTATIC, boxed.ClassName, "valueOf", "(D)"+boxed.Descriptor())
	default:
		// References are already their own boxed form.
	}
}
