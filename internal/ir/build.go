package ir

import (
	"fmt"

	"github.com/wasm2jvm/translator/internal/wasm"
)

// frameKind distinguishes the four structured-control shapes a WASM
// function body nests (spec.md §4.4): the implicit outermost function
// frame, block, loop, and if/else.
type frameKind int

const (
	frameFunction frameKind = iota
	frameBlock
	frameLoop
	frameIf
)

// controlFrame tracks one open structured-control region while Build
// walks a function body's flat instruction stream — the same role
// wazeroir's frame stack plays. WASM encodes nesting only positionally
// (matching End opcodes), so the flattener reconstructs it to know which
// label a br/br_if/br_table/fallthrough resolves to.
type controlFrame struct {
	kind      frameKind
	blockType wasm.BlockType

	// continuation is the label a br targeting this frame (or falling off
	// its end) jumps to. It carries the frame's declared result arity,
	// since branching out of a block, if, or the function always passes
	// the frame's results (spec.md §4.4).
	continuation Label

	// loopHeader is populated only for frameLoop: br targeting a loop
	// jumps back to its entry, carrying the loop's *parameter* arity
	// (spec.md §4.4 "the loop re-enters with its declared parameters
	// still on the stack"), not its results.
	loopHeader *Label

	// elseLabel is populated only for frameIf.
	elseLabel *Label
	sawElse   bool

	// unreachable marks this frame's remaining instructions, until the
	// matching Else/End, as unreachable: WASM's operand stack is
	// polymorphic past an `unreachable` (spec.md §4.3). Build still
	// flattens them structurally — a later br_table inside dead code
	// still needs its labels resolved — it just never clears
	// unreachable back on ordinary instructions.
	unreachable bool
}

// Result is Build's output: one function body's structured control flow
// reduced to a linear operation list, plus the label metadata the
// translator needs to decide which labels are actually live.
type Result struct {
	Operations []Operation

	// LabelCallers counts, per label identity, how many branch operations
	// target it — mirroring wazeroir's CompilationResult.LabelCallers.
	// internal/translator uses this to skip materializing a jvmasm label
	// nobody branches to (every fallthrough-only block continuation, the
	// common case for a structured `if` with no early exit).
	LabelCallers map[LabelID]int
}

// Builder flattens one function body's structured control flow into a
// linear Operation list (spec.md §4.4) — the Control-Flow Compiler's IR
// half. It resolves control-flow shape only; internal/translator owns the
// typed operand stack, trap-guard emission, and NaN/packing concerns,
// mirroring the wazeroir/compiler split wazero itself draws.
type Builder struct {
	module   *wasm.Module
	funcType *wasm.FunctionType

	frames    []*controlFrame
	nextFrame int

	ops          []Operation
	labelCallers map[LabelID]int
}

// Build flattens code's body, whose signature is funcType, within module
// (needed to resolve call/call_indirect target signatures and
// call_indirect's table element type).
func Build(module *wasm.Module, funcType *wasm.FunctionType, code *wasm.Code) (*Result, error) {
	b := &Builder{
		module:       module,
		funcType:     funcType,
		labelCallers: map[LabelID]int{},
	}
	b.pushFrame(frameFunction, wasm.BlockType{Params: funcType.Params, Results: funcType.Results})

	for _, instr := range code.Body {
		if err := b.instruction(instr); err != nil {
			return nil, err
		}
	}

	if len(b.frames) != 0 {
		return nil, fmt.Errorf("ir: %d unclosed control frame(s) at end of body", len(b.frames))
	}

	return &Result{Operations: b.ops, LabelCallers: b.labelCallers}, nil
}

func (b *Builder) emit(op Operation) {
	b.ops = append(b.ops, op)
}

func (b *Builder) current() *controlFrame {
	return b.frames[len(b.frames)-1]
}

func (b *Builder) pushFrame(kind frameKind, bt wasm.BlockType) *controlFrame {
	id := b.nextFrame
	b.nextFrame++
	f := &controlFrame{
		kind:         kind,
		blockType:    bt,
		continuation: Label{Kind: LabelKindContinuation, FrameID: id},
	}
	if kind == frameLoop {
		h := Label{Kind: LabelKindHeader, FrameID: id}
		f.loopHeader = &h
	}
	if kind == frameIf {
		e := Label{Kind: LabelKindElse, FrameID: id}
		f.elseLabel = &e
	}
	if kind == frameFunction {
		f.continuation = Label{Kind: LabelKindReturn}
	}
	b.frames = append(b.frames, f)
	return f
}

// countCaller records that one branch operation targets label.
func (b *Builder) countCaller(label Label) {
	b.labelCallers[label.ID()]++
}

// emitFrameEnter emits the FrameEnter marker for a just-pushed block/loop/
// if frame (spec.md §4.4); frameFunction never gets one since its single
// implicit exit is handled as a direct return, not a jump to a label.
func (b *Builder) emitFrameEnter(f *controlFrame) {
	b.emit(Operation{
		Kind:         OpKindFrameEnter,
		Label:        &f.continuation,
		FrameParams:  f.blockType.Params,
		FrameResults: f.blockType.Results,
	})
}

// resolveBranch returns the target label and the typed value list it
// carries for a `br`/`br_if`/`br_table` depth operand (spec.md §4.4
// "br k": depth counts enclosing structured constructs, innermost first).
func (b *Builder) resolveBranch(depth uint32) (Label, []wasm.ValueType, error) {
	idx := len(b.frames) - 1 - int(depth)
	if idx < 0 {
		return Label{}, nil, fmt.Errorf("ir: branch depth %d exceeds frame nesting", depth)
	}
	f := b.frames[idx]
	if f.kind == frameLoop {
		return *f.loopHeader, f.blockType.Params, nil
	}
	return f.continuation, f.blockType.Results, nil
}

func (b *Builder) instruction(instr wasm.Instruction) error {
	switch instr.Op {
	case wasm.OpNop:
		// Structurally inert; nothing to flatten.

	case wasm.OpUnreachable:
		b.emit(Operation{Kind: OpKindUnreachable})
		b.current().unreachable = true

	case wasm.OpBlock:
		f := b.pushFrame(frameBlock, instr.Block)
		b.emitFrameEnter(f)

	case wasm.OpLoop:
		f := b.pushFrame(frameLoop, instr.Block)
		b.emitFrameEnter(f)
		b.emit(Operation{Kind: OpKindLabel, Label: f.loopHeader})

	case wasm.OpIf:
		f := b.pushFrame(frameIf, instr.Block)
		// The condition is popped by this implicit, negated br_if before
		// the frame's body is considered entered, so FrameEnter (which
		// snapshots the translator's stack height) is emitted after it.
		b.emit(Operation{Kind: OpKindBrIf, Label: f.elseLabel, Negate: true})
		b.countCaller(*f.elseLabel)
		b.emitFrameEnter(f)

	case wasm.OpElse:
		f := b.current()
		if f.kind != frameIf {
			return fmt.Errorf("ir: else outside an if frame")
		}
		b.emit(Operation{Kind: OpKindBr, Label: &f.continuation, Types: f.blockType.Results, Arity: len(f.blockType.Results)})
		b.countCaller(f.continuation)
		b.emit(Operation{Kind: OpKindLabel, Label: f.elseLabel})
		f.sawElse = true
		f.unreachable = false

	case wasm.OpEnd:
		f := b.current()
		if f.kind == frameIf && !f.sawElse {
			// No else arm: the implicit empty else falls straight through,
			// so the else label and the continuation label coincide.
			b.emit(Operation{Kind: OpKindLabel, Label: f.elseLabel})
		}
		if f.kind == frameFunction {
			b.emit(Operation{Kind: OpKindBr, Label: &f.continuation, Types: f.blockType.Results, Arity: len(f.blockType.Results)})
		} else {
			b.emit(Operation{Kind: OpKindLabel, Label: &f.continuation})
		}
		b.frames = b.frames[:len(b.frames)-1]
		if len(b.frames) > 0 {
			b.current().unreachable = false
		}

	case wasm.OpBr:
		target, types, err := b.resolveBranch(instr.LabelDepth)
		if err != nil {
			return err
		}
		b.emit(Operation{Kind: OpKindBr, Label: &target, Types: types, Arity: len(types)})
		b.countCaller(target)
		b.current().unreachable = true

	case wasm.OpBrIf:
		target, types, err := b.resolveBranch(instr.LabelDepth)
		if err != nil {
			return err
		}
		b.emit(Operation{Kind: OpKindBrIf, Label: &target, Types: types, Arity: len(types)})
		b.countCaller(target)

	case wasm.OpBrTable:
		targets := make([]*Label, len(instr.TableTargets))
		var types []wasm.ValueType
		for i, depth := range instr.TableTargets {
			t, ts, err := b.resolveBranch(depth)
			if err != nil {
				return err
			}
			targets[i] = &t
			types = ts
			b.countCaller(t)
		}
		def, ts, err := b.resolveBranch(instr.TableDefault)
		if err != nil {
			return err
		}
		types = ts
		b.countCaller(def)
		b.emit(Operation{Kind: OpKindBrTable, BrTableTargets: targets, BrTableDefault: &def, Types: types, Arity: len(types)})
		b.current().unreachable = true

	case wasm.OpReturn:
		ret := Label{Kind: LabelKindReturn}
		b.emit(Operation{Kind: OpKindReturn, Label: &ret, Types: b.funcType.Results, Arity: len(b.funcType.Results)})
		b.countCaller(ret)
		b.current().unreachable = true

	case wasm.OpCall:
		ft := b.module.FunctionType(instr.Index)
		b.emit(Operation{Kind: OpKindCall, Index: instr.Index, FuncType: ft})

	case wasm.OpCallIndirect:
		if int(instr.Index) >= len(b.module.Types) {
			return fmt.Errorf("ir: call_indirect type index %d out of range", instr.Index)
		}
		ft := &b.module.Types[instr.Index]
		b.emit(Operation{Kind: OpKindCallIndirect, Index: instr.Index, TableIndex: instr.TableIndex, FuncType: ft})

	case wasm.OpDrop:
		b.emit(Operation{Kind: OpKindDrop})

	case wasm.OpSelect:
		b.emit(Operation{Kind: OpKindSelect})

	case wasm.OpLocalGet:
		b.emit(Operation{Kind: OpKindLocalGet, Index: instr.Index})
	case wasm.OpLocalSet:
		b.emit(Operation{Kind: OpKindLocalSet, Index: instr.Index})
	case wasm.OpLocalTee:
		b.emit(Operation{Kind: OpKindLocalTee, Index: instr.Index})
	case wasm.OpGlobalGet:
		b.emit(Operation{Kind: OpKindGlobalGet, Index: instr.Index})
	case wasm.OpGlobalSet:
		b.emit(Operation{Kind: OpKindGlobalSet, Index: instr.Index})

	case wasm.OpI32Const:
		b.emit(Operation{Kind: OpKindConstI32, ConstI32: instr.ConstI32})
	case wasm.OpI64Const:
		b.emit(Operation{Kind: OpKindConstI64, ConstI64: instr.ConstI64})
	case wasm.OpF32Const:
		b.emit(Operation{Kind: OpKindConstF32, ConstF32: instr.ConstF32})
	case wasm.OpF64Const:
		b.emit(Operation{Kind: OpKindConstF64, ConstF64: instr.ConstF64})

	case wasm.OpMemorySize:
		b.emit(Operation{Kind: OpKindMemorySize})
	case wasm.OpMemoryGrow:
		b.emit(Operation{Kind: OpKindMemoryGrow})

	case wasm.OpRefNull:
		b.emit(Operation{Kind: OpKindRefNull, RefType: instr.RefType})
	case wasm.OpRefIsNull:
		b.emit(Operation{Kind: OpKindRefIsNull})
	case wasm.OpRefFunc:
		b.emit(Operation{Kind: OpKindRefFunc, Index: instr.Index})

	default:
		return b.numericOrMemoryInstruction(instr)
	}
	return nil
}

// numericOrMemoryInstruction handles every load/store/arithmetic/compare/
// conversion opcode: one (type, operator) pair per WASM opcode, collapsed
// here into the generic (Kind, Type, SrcType, Signed, Saturating,
// AccessSize) tuple internal/translator switches on.
func (b *Builder) numericOrMemoryInstruction(instr wasm.Instruction) error {
	i32, i64, f32, f64 := wasm.ValueTypeI32, wasm.ValueTypeI64, wasm.ValueTypeF32, wasm.ValueTypeF64

	load := func(t wasm.ValueType) { b.emit(Operation{Kind: OpKindLoad, Type: t, MemOffset: instr.MemArgOffset}) }
	load8 := func(t wasm.ValueType, signed bool) {
		b.emit(Operation{Kind: OpKindLoad8, Type: t, Signed: signed, AccessSize: 1, MemOffset: instr.MemArgOffset})
	}
	load16 := func(t wasm.ValueType, signed bool) {
		b.emit(Operation{Kind: OpKindLoad16, Type: t, Signed: signed, AccessSize: 2, MemOffset: instr.MemArgOffset})
	}
	load32 := func(t wasm.ValueType, signed bool) {
		b.emit(Operation{Kind: OpKindLoad32, Type: t, Signed: signed, AccessSize: 4, MemOffset: instr.MemArgOffset})
	}
	store := func(t wasm.ValueType) { b.emit(Operation{Kind: OpKindStore, Type: t, MemOffset: instr.MemArgOffset}) }
	store8 := func(t wasm.ValueType) {
		b.emit(Operation{Kind: OpKindStore8, Type: t, AccessSize: 1, MemOffset: instr.MemArgOffset})
	}
	store16 := func(t wasm.ValueType) {
		b.emit(Operation{Kind: OpKindStore16, Type: t, AccessSize: 2, MemOffset: instr.MemArgOffset})
	}
	store32 := func(t wasm.ValueType) {
		b.emit(Operation{Kind: OpKindStore32, Type: t, AccessSize: 4, MemOffset: instr.MemArgOffset})
	}
	num := func(k OperationKind, t wasm.ValueType) { b.emit(Operation{Kind: k, Type: t}) }
	numS := func(k OperationKind, t wasm.ValueType, signed bool) {
		b.emit(Operation{Kind: k, Type: t, Signed: signed})
	}
	conv := func(k OperationKind, dst, src wasm.ValueType, signed, sat bool) {
		b.emit(Operation{Kind: k, Type: dst, SrcType: src, Signed: signed, Saturating: sat})
	}
	signExt := func(t wasm.ValueType, size int) {
		b.emit(Operation{Kind: OpKindSignExtend, Type: t, Signed: true, AccessSize: size})
	}

	switch instr.Op {
	// Loads
	case wasm.OpI32Load:
		load(i32)
	case wasm.OpI64Load:
		load(i64)
	case wasm.OpF32Load:
		load(f32)
	case wasm.OpF64Load:
		load(f64)
	case wasm.OpI32Load8S:
		load8(i32, true)
	case wasm.OpI32Load8U:
		load8(i32, false)
	case wasm.OpI32Load16S:
		load16(i32, true)
	case wasm.OpI32Load16U:
		load16(i32, false)
	case wasm.OpI64Load8S:
		load8(i64, true)
	case wasm.OpI64Load8U:
		load8(i64, false)
	case wasm.OpI64Load16S:
		load16(i64, true)
	case wasm.OpI64Load16U:
		load16(i64, false)
	case wasm.OpI64Load32S:
		load32(i64, true)
	case wasm.OpI64Load32U:
		load32(i64, false)

	// Stores
	case wasm.OpI32Store:
		store(i32)
	case wasm.OpI64Store:
		store(i64)
	case wasm.OpF32Store:
		store(f32)
	case wasm.OpF64Store:
		store(f64)
	case wasm.OpI32Store8:
		store8(i32)
	case wasm.OpI32Store16:
		store16(i32)
	case wasm.OpI64Store8:
		store8(i64)
	case wasm.OpI64Store16:
		store16(i64)
	case wasm.OpI64Store32:
		store32(i64)

	// i32 comparisons
	case wasm.OpI32Eqz:
		num(OpKindEqz, i32)
	case wasm.OpI32Eq:
		num(OpKindEq, i32)
	case wasm.OpI32Ne:
		num(OpKindNe, i32)
	case wasm.OpI32LtS:
		numS(OpKindLt, i32, true)
	case wasm.OpI32LtU:
		numS(OpKindLt, i32, false)
	case wasm.OpI32GtS:
		numS(OpKindGt, i32, true)
	case wasm.OpI32GtU:
		numS(OpKindGt, i32, false)
	case wasm.OpI32LeS:
		numS(OpKindLe, i32, true)
	case wasm.OpI32LeU:
		numS(OpKindLe, i32, false)
	case wasm.OpI32GeS:
		numS(OpKindGe, i32, true)
	case wasm.OpI32GeU:
		numS(OpKindGe, i32, false)

	// i64 comparisons
	case wasm.OpI64Eqz:
		num(OpKindEqz, i64)
	case wasm.OpI64Eq:
		num(OpKindEq, i64)
	case wasm.OpI64Ne:
		num(OpKindNe, i64)
	case wasm.OpI64LtS:
		numS(OpKindLt, i64, true)
	case wasm.OpI64LtU:
		numS(OpKindLt, i64, false)
	case wasm.OpI64GtS:
		numS(OpKindGt, i64, true)
	case wasm.OpI64GtU:
		numS(OpKindGt, i64, false)
	case wasm.OpI64LeS:
		numS(OpKindLe, i64, true)
	case wasm.OpI64LeU:
		numS(OpKindLe, i64, false)
	case wasm.OpI64GeS:
		numS(OpKindGe, i64, true)
	case wasm.OpI64GeU:
		numS(OpKindGe, i64, false)

	// float comparisons (no unsigned variants)
	case wasm.OpF32Eq:
		num(OpKindEq, f32)
	case wasm.OpF32Ne:
		num(OpKindNe, f32)
	case wasm.OpF32Lt:
		num(OpKindLt, f32)
	case wasm.OpF32Gt:
		num(OpKindGt, f32)
	case wasm.OpF32Le:
		num(OpKindLe, f32)
	case wasm.OpF32Ge:
		num(OpKindGe, f32)
	case wasm.OpF64Eq:
		num(OpKindEq, f64)
	case wasm.OpF64Ne:
		num(OpKindNe, f64)
	case wasm.OpF64Lt:
		num(OpKindLt, f64)
	case wasm.OpF64Gt:
		num(OpKindGt, f64)
	case wasm.OpF64Le:
		num(OpKindLe, f64)
	case wasm.OpF64Ge:
		num(OpKindGe, f64)

	// i32 arithmetic
	case wasm.OpI32Clz:
		num(OpKindClz, i32)
	case wasm.OpI32Ctz:
		num(OpKindCtz, i32)
	case wasm.OpI32Popcnt:
		num(OpKindPopcnt, i32)
	case wasm.OpI32Add:
		num(OpKindAdd, i32)
	case wasm.OpI32Sub:
		num(OpKindSub, i32)
	case wasm.OpI32Mul:
		num(OpKindMul, i32)
	case wasm.OpI32DivS:
		numS(OpKindDiv, i32, true)
	case wasm.OpI32DivU:
		numS(OpKindDiv, i32, false)
	case wasm.OpI32RemS:
		numS(OpKindRem, i32, true)
	case wasm.OpI32RemU:
		numS(OpKindRem, i32, false)
	case wasm.OpI32And:
		num(OpKindAnd, i32)
	case wasm.OpI32Or:
		num(OpKindOr, i32)
	case wasm.OpI32Xor:
		num(OpKindXor, i32)
	case wasm.OpI32Shl:
		num(OpKindShl, i32)
	case wasm.OpI32ShrS:
		numS(OpKindShr, i32, true)
	case wasm.OpI32ShrU:
		numS(OpKindShr, i32, false)
	case wasm.OpI32Rotl:
		num(OpKindRotl, i32)
	case wasm.OpI32Rotr:
		num(OpKindRotr, i32)

	// i64 arithmetic
	case wasm.OpI64Clz:
		num(OpKindClz, i64)
	case wasm.OpI64Ctz:
		num(OpKindCtz, i64)
	case wasm.OpI64Popcnt:
		num(OpKindPopcnt, i64)
	case wasm.OpI64Add:
		num(OpKindAdd, i64)
	case wasm.OpI64Sub:
		num(OpKindSub, i64)
	case wasm.OpI64Mul:
		num(OpKindMul, i64)
	case wasm.OpI64DivS:
		numS(OpKindDiv, i64, true)
	case wasm.OpI64DivU:
		numS(OpKindDiv, i64, false)
	case wasm.OpI64RemS:
		numS(OpKindRem, i64, true)
	case wasm.OpI64RemU:
		numS(OpKindRem, i64, false)
	case wasm.OpI64And:
		num(OpKindAnd, i64)
	case wasm.OpI64Or:
		num(OpKindOr, i64)
	case wasm.OpI64Xor:
		num(OpKindXor, i64)
	case wasm.OpI64Shl:
		num(OpKindShl, i64)
	case wasm.OpI64ShrS:
		numS(OpKindShr, i64, true)
	case wasm.OpI64ShrU:
		numS(OpKindShr, i64, false)
	case wasm.OpI64Rotl:
		num(OpKindRotl, i64)
	case wasm.OpI64Rotr:
		num(OpKindRotr, i64)

	// f32 arithmetic
	case wasm.OpF32Abs:
		num(OpKindAbs, f32)
	case wasm.OpF32Neg:
		num(OpKindNeg, f32)
	case wasm.OpF32Ceil:
		num(OpKindCeil, f32)
	case wasm.OpF32Floor:
		num(OpKindFloor, f32)
	case wasm.OpF32Trunc:
		num(OpKindTrunc, f32)
	case wasm.OpF32Nearest:
		num(OpKindNearest, f32)
	case wasm.OpF32Sqrt:
		num(OpKindSqrt, f32)
	case wasm.OpF32Add:
		num(OpKindAdd, f32)
	case wasm.OpF32Sub:
		num(OpKindSub, f32)
	case wasm.OpF32Mul:
		num(OpKindMul, f32)
	case wasm.OpF32Div:
		num(OpKindDiv, f32)
	case wasm.OpF32Min:
		num(OpKindMin, f32)
	case wasm.OpF32Max:
		num(OpKindMax, f32)
	case wasm.OpF32Copysign:
		num(OpKindCopysign, f32)

	// f64 arithmetic
	case wasm.OpF64Abs:
		num(OpKindAbs, f64)
	case wasm.OpF64Neg:
		num(OpKindNeg, f64)
	case wasm.OpF64Ceil:
		num(OpKindCeil, f64)
	case wasm.OpF64Floor:
		num(OpKindFloor, f64)
	case wasm.OpF64Trunc:
		num(OpKindTrunc, f64)
	case wasm.OpF64Nearest:
		num(OpKindNearest, f64)
	case wasm.OpF64Sqrt:
		num(OpKindSqrt, f64)
	case wasm.OpF64Add:
		num(OpKindAdd, f64)
	case wasm.OpF64Sub:
		num(OpKindSub, f64)
	case wasm.OpF64Mul:
		num(OpKindMul, f64)
	case wasm.OpF64Div:
		num(OpKindDiv, f64)
	case wasm.OpF64Min:
		num(OpKindMin, f64)
	case wasm.OpF64Max:
		num(OpKindMax, f64)
	case wasm.OpF64Copysign:
		num(OpKindCopysign, f64)

	// Conversions
	case wasm.OpI32WrapI64:
		conv(OpKindI32WrapI64, i32, i64, false, false)
	case wasm.OpI32TruncF32S:
		conv(OpKindITruncFromF, i32, f32, true, false)
	case wasm.OpI32TruncF32U:
		conv(OpKindITruncFromF, i32, f32, false, false)
	case wasm.OpI32TruncF64S:
		conv(OpKindITruncFromF, i32, f64, true, false)
	case wasm.OpI32TruncF64U:
		conv(OpKindITruncFromF, i32, f64, false, false)
	case wasm.OpI64ExtendI32S:
		conv(OpKindExtend, i64, i32, true, false)
	case wasm.OpI64ExtendI32U:
		conv(OpKindExtend, i64, i32, false, false)
	case wasm.OpI64TruncF32S:
		conv(OpKindITruncFromF, i64, f32, true, false)
	case wasm.OpI64TruncF32U:
		conv(OpKindITruncFromF, i64, f32, false, false)
	case wasm.OpI64TruncF64S:
		conv(OpKindITruncFromF, i64, f64, true, false)
	case wasm.OpI64TruncF64U:
		conv(OpKindITruncFromF, i64, f64, false, false)
	case wasm.OpF32ConvertI32S:
		conv(OpKindFConvertFromI, f32, i32, true, false)
	case wasm.OpF32ConvertI32U:
		conv(OpKindFConvertFromI, f32, i32, false, false)
	case wasm.OpF32ConvertI64S:
		conv(OpKindFConvertFromI, f32, i64, true, false)
	case wasm.OpF32ConvertI64U:
		conv(OpKindFConvertFromI, f32, i64, false, false)
	case wasm.OpF32DemoteF64:
		conv(OpKindF32DemoteF64, f32, f64, false, false)
	case wasm.OpF64ConvertI32S:
		conv(OpKindFConvertFromI, f64, i32, true, false)
	case wasm.OpF64ConvertI32U:
		conv(OpKindFConvertFromI, f64, i32, false, false)
	case wasm.OpF64ConvertI64S:
		conv(OpKindFConvertFromI, f64, i64, true, false)
	case wasm.OpF64ConvertI64U:
		conv(OpKindFConvertFromI, f64, i64, false, false)
	case wasm.OpF64PromoteF32:
		conv(OpKindF64PromoteF32, f64, f32, false, false)
	case wasm.OpI32ReinterpretF32:
		conv(OpKindReinterpret, i32, f32, false, false)
	case wasm.OpI64ReinterpretF64:
		conv(OpKindReinterpret, i64, f64, false, false)
	case wasm.OpF32ReinterpretI32:
		conv(OpKindReinterpret, f32, i32, false, false)
	case wasm.OpF64ReinterpretI64:
		conv(OpKindReinterpret, f64, i64, false, false)

	// Sign extension (spec.md §4.3's sign-extension proposal ops)
	case wasm.OpI32Extend8S:
		signExt(i32, 1)
	case wasm.OpI32Extend16S:
		signExt(i32, 2)
	case wasm.OpI64Extend8S:
		signExt(i64, 1)
	case wasm.OpI64Extend16S:
		signExt(i64, 2)
	case wasm.OpI64Extend32S:
		signExt(i64, 4)

	// Saturating truncation (spec.md §4.3's saturating-truncation proposal)
	case wasm.OpI32TruncSatF32S:
		conv(OpKindITruncSatFromF, i32, f32, true, true)
	case wasm.OpI32TruncSatF32U:
		conv(OpKindITruncSatFromF, i32, f32, false, true)
	case wasm.OpI32TruncSatF64S:
		conv(OpKindITruncSatFromF, i32, f64, true, true)
	case wasm.OpI32TruncSatF64U:
		conv(OpKindITruncSatFromF, i32, f64, false, true)
	case wasm.OpI64TruncSatF32S:
		conv(OpKindITruncSatFromF, i64, f32, true, true)
	case wasm.OpI64TruncSatF32U:
		conv(OpKindITruncSatFromF, i64, f32, false, true)
	case wasm.OpI64TruncSatF64S:
		conv(OpKindITruncSatFromF, i64, f64, true, true)
	case wasm.OpI64TruncSatF64U:
		conv(OpKindITruncSatFromF, i64, f64, false, true)

	default:
		return fmt.Errorf("ir: unhandled opcode %v", instr.Op)
	}
	return nil
}
