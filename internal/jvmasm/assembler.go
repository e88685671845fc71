// Package jvmasm is a small node-based bytecode assembler for the JVM
// target, modeled directly on wazero's internal/asm package: a Label is
// created before its target position is known (to support WASM's
// forward branches — spec.md §4.4 "block"/"if" targets jump forward),
// marked once the position is reached, and every jump operand resolves
// against marked labels when Assemble is called. The difference from
// wazero's asm.AssemblerBase is the target: JVM bytecode needs no
// register operands (the operand stack is implicit) and no native
// addressing modes, so this assembler's Compile* surface is a good deal
// smaller.
package jvmasm

import (
	"fmt"

	"github.com/wasm2jvm/translator/internal/jvm"
)

// Label is a not-yet-positioned jump target, analogous to asm.Node's
// jump-target role in wazero but modeled as its own value since JVM
// bytecode has no architecture-specific Node type to attach it to.
type Label struct {
	name     string
	resolved bool
	index    int
}

func (l *Label) String() string {
	if l.resolved {
		return fmt.Sprintf("%s@%d", l.name, l.index)
	}
	return l.name + "@unresolved"
}

type node struct {
	instr         jvm.Instruction
	jumpTarget    *Label
	switchTargets []*Label
	switchDefault *Label
}

// Assembler accumulates Nodes for a single method body and resolves
// label references into jvm.Instruction.Target indices at Assemble time.
type Assembler struct {
	nodes      []*node
	labelCount int
}

// New returns an empty Assembler for one method body.
func New() *Assembler {
	return &Assembler{}
}

// NewLabel creates an unresolved jump target. name is for diagnostics
// only (e.g. "block_exit_3", "loop_entry_1" — mirrors the Header/Else/
// Continuation label kinds spec.md §4.4 names).
func (a *Assembler) NewLabel(name string) *Label {
	a.labelCount++
	return &Label{name: fmt.Sprintf("%s#%d", name, a.labelCount)}
}

// MarkLabel binds label to the current end of the instruction stream: any
// jump already referencing label, or any emitted later, will target this
// position once Assemble resolves it.
func (a *Assembler) MarkLabel(label *Label) {
	label.index = len(a.nodes)
	label.resolved = true
	a.nodes = append(a.nodes, &node{instr: jvm.Instruction{Op: jvm.LABELMARK}})
}

// Len reports the number of instructions emitted so far (used by the
// translator to compute stack-map / branch-height diagnostics without a
// second pass).
func (a *Assembler) Len() int {
	return len(a.nodes)
}

// CompileStandAlone appends an instruction with no operand: arithmetic,
// comparisons that push their result, stack shuffles, and returns.
func (a *Assembler) CompileStandAlone(op jvm.Opcode) {
	a.nodes = append(a.nodes, &node{instr: jvm.Instruction{Op: op}})
}

// CompileIntImmediate appends an instruction whose operand is a plain
// integer immediate: ICONST/LCONST (value), ILOAD/ISTORE/.../ASTORE/
// (local slot index), NEWARRAY (type tag), BIPUSH-range constants.
func (a *Assembler) CompileIntImmediate(op jvm.Opcode, value int64) {
	a.nodes = append(a.nodes, &node{instr: jvm.Instruction{Op: op, IntOperand: value}})
}

// CompileConstantPoolLoad appends an LDC referencing req (float/double/
// string/wide-int constants, or any constant a translator wants to route
// through the constant pool rather than an immediate form).
func (a *Assembler) CompileConstantPoolLoad(req jvm.ConstantPoolRequest) {
	r := req
	a.nodes = append(a.nodes, &node{instr: jvm.Instruction{Op: jvm.LDC, ConstRef: &r}})
}

// CompileFieldAccess appends a GETFIELD/PUTFIELD/GETSTATIC/PUTSTATIC.
func (a *Assembler) CompileFieldAccess(op jvm.Opcode, owner, name string, t jvm.Type) {
	a.nodes = append(a.nodes, &node{instr: jvm.Instruction{
		Op: op, FieldOwner: owner, FieldName: name, FieldType: t,
	}})
}

// CompileInvoke appends an INVOKESTATIC/INVOKEVIRTUAL/INVOKESPECIAL/
// INVOKEINTERFACE.
func (a *Assembler) CompileInvoke(op jvm.Opcode, owner, name, descriptor string) {
	a.nodes = append(a.nodes, &node{instr: jvm.Instruction{
		Op: op, MethodOwner: owner, MethodName: name, MethodDescriptor: descriptor,
	}})
}

// CompileClassOp appends a NEW/ANEWARRAY/CHECKCAST/INSTANCEOF.
func (a *Assembler) CompileClassOp(op jvm.Opcode, internalClassName string) {
	a.nodes = append(a.nodes, &node{instr: jvm.Instruction{Op: op, ClassOperand: internalClassName}})
}

// CompileJump appends an unconditional GOTO to target.
func (a *Assembler) CompileJump(target *Label) {
	a.nodes = append(a.nodes, &node{instr: jvm.Instruction{Op: jvm.GOTO}, jumpTarget: target})
}

// CompileBranch appends a conditional branch (IFEQ, IF_ICMPNE, IFNULL,
// ...) to target.
func (a *Assembler) CompileBranch(op jvm.Opcode, target *Label) {
	a.nodes = append(a.nodes, &node{instr: jvm.Instruction{Op: op}, jumpTarget: target})
}

// CompileTableSwitch appends a dense jump table: index i (after low) maps
// to targets[i], anything outside [low, low+len(targets)) maps to def.
// internal/translator lowers every br_table through this method with
// low 0, since br_table's targets are always dense from 0.
func (a *Assembler) CompileTableSwitch(low int32, targets []*Label, def *Label) {
	ts := make([]*Label, len(targets))
	copy(ts, targets)
	a.nodes = append(a.nodes, &node{
		instr:         jvm.Instruction{Op: jvm.TABLESWITCH, SwitchLow: low},
		switchTargets: ts,
		switchDefault: def,
	})
}

// CompileLookupSwitch appends a sparse jump table keyed by explicit values.
func (a *Assembler) CompileLookupSwitch(keys []int32, targets []*Label, def *Label) {
	ts := make([]*Label, len(targets))
	copy(ts, targets)
	ks := make([]int32, len(keys))
	copy(ks, keys)
	a.nodes = append(a.nodes, &node{
		instr:         jvm.Instruction{Op: jvm.LOOKUPSWITCH, SwitchKeys: ks},
		switchTargets: ts,
		switchDefault: def,
	})
}

// Assemble resolves every jump/switch label reference and returns the
// finalized instruction stream ready to attach to a jvm.MethodInfo.
// It returns an error if any referenced Label was never marked — an
// internal invariant violation (spec.md §7.1), never something WASM
// input can trigger.
func (a *Assembler) Assemble() ([]jvm.Instruction, error) {
	out := make([]jvm.Instruction, len(a.nodes))
	for i, n := range a.nodes {
		instr := n.instr
		if n.jumpTarget != nil {
			if !n.jumpTarget.resolved {
				return nil, fmt.Errorf("jvmasm: unresolved jump target %q at instruction %d", n.jumpTarget.name, i)
			}
			instr.Target = n.jumpTarget.index
		}
		if n.switchDefault != nil {
			if !n.switchDefault.resolved {
				return nil, fmt.Errorf("jvmasm: unresolved switch default %q at instruction %d", n.switchDefault.name, i)
			}
			instr.SwitchDefault = n.switchDefault.index
		}
		if n.switchTargets != nil {
			targets := make([]int, len(n.switchTargets))
			for j, t := range n.switchTargets {
				if !t.resolved {
					return nil, fmt.Errorf("jvmasm: unresolved switch target %q at instruction %d", t.name, i)
				}
				targets[j] = t.index
			}
			instr.SwitchTargets = targets
		}
		out[i] = instr
	}
	return out, nil
}
