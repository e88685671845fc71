package translator

import (
	"github.com/wasm2jvm/translator/internal/ir"
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/jvmasm"
	"github.com/wasm2jvm/translator/internal/typemap"
	"github.com/wasm2jvm/translator/internal/wasm"
)

// push records that a value of wasm type t now sits on top of the
// abstract operand stack, and grows MaxStack if this is the deepest the
// real JVM stack has reached so far.
func (tr *translator) push(t wasm.ValueType) {
	tr.stack = append(tr.stack, t)
	tr.stackHeight += typemap.Slots(t)
	if tr.stackHeight > tr.maxStack {
		tr.maxStack = tr.stackHeight
	}
}

// pop removes and returns the top of the abstract operand stack. Popping
// an empty stack is an internal invariant violation: a validated module
// never does this, so this panics rather than threading an error through
// every single compileFoo call site (mirrors typemap's posture on
// genuinely unreachable conditions).
func (tr *translator) pop() wasm.ValueType {
	n := len(tr.stack)
	t := tr.stack[n-1]
	tr.stack = tr.stack[:n-1]
	tr.stackHeight -= typemap.Slots(t)
	return t
}

// resetStack overwrites the abstract stack to exactly types, used at a
// Label or FrameEnter boundary where the frame's declared shape is
// authoritative regardless of what (possibly dead) code preceded it
// (spec.md §4.3's polymorphic post-unreachable stack).
func (tr *translator) resetStack(types []wasm.ValueType) {
	tr.stack = append([]wasm.ValueType(nil), types...)
	height := 0
	for _, t := range types {
		height += typemap.Slots(t)
	}
	tr.stackHeight = height
}

// spillTop pops len(types) values (types given bottom-most first, the
// order they appear in a branch's Types list) into fresh temporary
// locals, emitting the stores in reverse (since the last type is on
// top), and returns their slots in the same bottom-most-first order
// (spec.md §4.4's br-height reconciliation: "spills the carried values
// into a small, fixed number of temporary locals").
func (tr *translator) spillTop(types []wasm.ValueType) []int {
	slots := make([]int, len(types))
	for i := len(types) - 1; i >= 0; i-- {
		jt := typemap.MapValueType(types[i])
		slot := tr.allocTemp(jt)
		tr.emitStoreLocalSlot(jt, slot)
		slots[i] = slot
		tr.pop()
	}
	return slots
}

// reloadSpilled pushes previously spilled values back in their original
// (bottom-most-first) order.
func (tr *translator) reloadSpilled(types []wasm.ValueType, slots []int) {
	for i, t := range types {
		jt := typemap.MapValueType(t)
		tr.emitLoadLocalSlot(jt, slots[i])
		tr.push(t)
	}
}

// reconcile drops every abstract-stack value below the top len(types)
// values before a branch, the way spec.md §4.4 describes: "drops any
// values below them that the target frame does not expect". The dropped
// range sits strictly below the carried values, which were pushed most
// recently, so this only needs to remove stack.len-len(types)-dropCount
// .. stack.len-len(types) without touching the carried suffix — done
// here by spilling the carried suffix to temporaries, discarding
// whatever is left (via real POP/POP2 instructions), then reloading.
func (tr *translator) reconcile(base int, types []wasm.ValueType) {
	slots := tr.spillTop(types)
	for tr.stackHeight > base {
		t := tr.pop()
		if typemap.Slots(t) == 2 {
			tr.asm.CompileStandAlone(jvm.POP2)
		} else {
			tr.asm.CompileStandAlone(jvm.POP)
		}
	}
	tr.reloadSpilled(types, slots)
}

// currentFrame returns the innermost open txFrame, or nil at the
// function's outermost level (which has no txFrame of its own: the
// function body starts with an empty stack and its implicit return is
// handled directly by compileReturnLike, not via frame lookup).
func (tr *translator) currentFrame() *txFrame {
	if len(tr.frames) == 0 {
		return nil
	}
	return tr.frames[len(tr.frames)-1]
}

// labelFor returns the jvmasm.Label materialized for id, creating one on
// first reference (a branch can reference a label before the Label
// operation that marks it, since forward branches are the common case
// for block/if exits).
func (tr *translator) labelFor(id ir.LabelID, name string) *jvmasm.Label {
	if l, ok := tr.labels[id]; ok {
		return l
	}
	l := tr.asm.NewLabel(name)
	tr.labels[id] = l
	return l
}
