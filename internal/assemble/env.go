package assemble

import (
	"fmt"

	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/layout"
	"github.com/wasm2jvm/translator/internal/typemap"
	"github.com/wasm2jvm/translator/internal/wasm"
)

// moduleEnv is the concrete translator.Env/binder.ExportNaming
// implementation (spec.md §4.7): it answers every whole-module naming
// question internal/translator's per-function lowering and internal/
// binder's import/export bytecode need, built once from the Name &
// Layout Planner (internal/layout) before any function is compiled.
//
// Every index space (function, memory, table, global) is combined —
// imports first, then defined entities, mirroring internal/wasm.Module's
// own index-space convention — so a single moduleEnv serves both origins
// uniformly: an imported memory/table/global gets exactly the same kind
// of carrier field/class entry a defined one does (internal/binder wires
// the carrier's value in differently, but internal/translator's generated
// bodies never need to know the difference).
type moduleEnv struct {
	module    *wasm.Module
	mainClass string

	memField, memClass []string
	tableField         []string
	tableClass         []string
	tableElem          []jvm.Type
	globalField        []string
	globalClass        []string
	globalType         []jvm.Type

	importFnField  []string // len == module.ImportedFuncs
	definedFnField map[uint32]string
	funcMethodName []string // len == len(module.Functions); only valid for defined indices
}

// newModuleEnv plans every carrier class name (deduplicating structurally
// identical shapes via the Planner, spec.md §4.2) and every field/method
// name this module's translation will reference.
func newModuleEnv(module *wasm.Module, planner *layout.Planner) *moduleEnv {
	env := &moduleEnv{
		module:         module,
		mainClass:      planner.MainClassName(),
		memField:       make([]string, len(module.Memories)),
		memClass:       make([]string, len(module.Memories)),
		tableField:     make([]string, len(module.Tables)),
		tableClass:     make([]string, len(module.Tables)),
		tableElem:      make([]jvm.Type, len(module.Tables)),
		globalField:    make([]string, len(module.Globals)),
		globalClass:    make([]string, len(module.Globals)),
		globalType:     make([]jvm.Type, len(module.Globals)),
		importFnField:  make([]string, module.ImportedFuncs),
		definedFnField: map[uint32]string{},
		funcMethodName: make([]string, len(module.Functions)),
	}

	for i := range module.Memories {
		env.memField[i] = fmt.Sprintf("memory$%d", i)
		class, _ := planner.ClassNameFor(layout.MemoryShape())
		env.memClass[i] = class
	}

	for i, tbl := range module.Tables {
		elem := typemap.MapValueType(tbl.RefType)
		env.tableField[i] = fmt.Sprintf("table$%d", i)
		class, _ := planner.ClassNameFor(layout.TableShape(elem))
		env.tableClass[i] = class
		env.tableElem[i] = elem
	}

	for i, g := range module.Globals {
		t := typemap.MapValueType(g.Type)
		env.globalField[i] = fmt.Sprintf("global$%d", i)
		class, _ := planner.ClassNameFor(layout.GlobalShape(t, g.Mutable))
		env.globalClass[i] = class
		env.globalType[i] = t
	}

	for i := range env.importFnField {
		env.importFnField[i] = fmt.Sprintf("importFn$%d", i)
	}

	for idx := range module.Functions {
		if module.IsImportedFunc(uint32(idx)) {
			continue
		}
		env.funcMethodName[idx] = layout.FunctionMethodName(env.mainClass, uint32(idx), exportedFuncName(module, uint32(idx)))
	}

	for idx := range neededFunctionHandles(module) {
		if module.IsImportedFunc(idx) {
			continue // already has an importFnField entry
		}
		env.definedFnField[idx] = fmt.Sprintf("fn$%d", idx)
	}

	return env
}

// exportedFuncName returns the export name a defined function should take
// as its JVM method name (spec.md §4.2), or "" if it isn't exported.
func exportedFuncName(module *wasm.Module, funcIdx uint32) string {
	for _, exp := range module.Exports {
		if exp.Kind == wasm.ExternKindFunc && exp.Index == funcIdx {
			return exp.Name
		}
	}
	return ""
}

// neededFunctionHandles is every function index that needs a bound
// java.lang.invoke.MethodHandle field populated in the constructor
// (spec.md §4.6): every export of kind func (the exports map always
// publishes a function as a handle, spec.md §6), every function index an
// element segment initializes a funcref table slot with, and every
// function index any defined function body's own ref.func instruction
// takes the address of (spec.md §4.5 compileRefFunc's contract).
func neededFunctionHandles(module *wasm.Module) map[uint32]bool {
	need := map[uint32]bool{}
	for _, exp := range module.Exports {
		if exp.Kind == wasm.ExternKindFunc {
			need[exp.Index] = true
		}
	}
	for _, seg := range module.ElementSegments {
		for _, fi := range seg.FuncIndices {
			if fi != nil {
				need[*fi] = true
			}
		}
	}
	for _, fn := range module.Functions {
		if !fn.Defined {
			continue
		}
		for _, in := range fn.Code.Body {
			if in.Op == wasm.OpRefFunc {
				need[in.Index] = true
			}
		}
	}
	return need
}

func (e *moduleEnv) MainClassName() string { return e.mainClass }

func (e *moduleEnv) FunctionMethodName(funcIdx uint32) string {
	return e.funcMethodName[funcIdx]
}

func (e *moduleEnv) ImportedFunctionHandleField(funcIdx uint32) string {
	return e.importFnField[funcIdx]
}

// FunctionTypeIndex returns funcIdx's declared WASM type index, the same
// token internal/ir.Operation.Index carries for a call_indirect operand
// (spec.md §4.3): initElementSegment stamps this into a table slot's
// types[] entry so a later call_indirect through that slot can compare
// signatures without redoing the lookup.
func (e *moduleEnv) FunctionTypeIndex(funcIdx uint32) uint32 {
	return e.module.Functions[funcIdx].TypeIndex
}

func (e *moduleEnv) DefinedFunctionHandleField(funcIdx uint32) string {
	return e.definedFnField[funcIdx]
}

// FunctionHandleField implements binder.ExportNaming: an exported
// function may itself be a direct re-export of an import, so this picks
// the imported-handle field or the defined-handle field depending on
// which index space funcIdx actually falls in, unlike
// DefinedFunctionHandleField alone.
func (e *moduleEnv) FunctionHandleField(funcIdx uint32) string {
	if e.module.IsImportedFunc(funcIdx) {
		return e.ImportedFunctionHandleField(funcIdx)
	}
	return e.DefinedFunctionHandleField(funcIdx)
}

func (e *moduleEnv) MemoryCarrierField(memIdx uint32) string { return e.memField[memIdx] }
func (e *moduleEnv) MemoryCarrierClass(memIdx uint32) string { return e.memClass[memIdx] }

func (e *moduleEnv) TableCarrierField(tableIdx uint32) string { return e.tableField[tableIdx] }
func (e *moduleEnv) TableCarrierClass(tableIdx uint32) string { return e.tableClass[tableIdx] }
func (e *moduleEnv) TableElemType(tableIdx uint32) jvm.Type   { return e.tableElem[tableIdx] }

func (e *moduleEnv) GlobalCarrierField(globalIdx uint32) string { return e.globalField[globalIdx] }
func (e *moduleEnv) GlobalCarrierClass(globalIdx uint32) string { return e.globalClass[globalIdx] }
func (e *moduleEnv) GlobalType(globalIdx uint32) jvm.Type       { return e.globalType[globalIdx] }
