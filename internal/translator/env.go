// Package translator implements the Operand-Stack Translator and the
// lowering half of the Control-Flow Compiler (spec.md §4.3, §4.4): it
// consumes one internal/ir.Result per function and produces a
// jvm.MethodInfo, mirroring wazero's internal/engine/compiler
// `compiler` interface, whose `compileFoo` methods this package's
// `compileFoo` methods are named after.
package translator

import "github.com/wasm2jvm/translator/internal/jvm"

// Env supplies the whole-module naming facts a single function's
// translation needs but does not itself decide: which JVM field and
// class host a given memory/table/global carrier, and how a function
// index resolves to a callable JVM target. internal/assemble builds the
// concrete Env once the Name & Layout Planner (spec.md §4.2) and the
// Import/Export Binder (spec.md §4.6) have settled the whole module's
// naming, so this package stays focused on per-function bytecode
// lowering and never imports either of them directly.
type Env interface {
	// MainClassName is the internal (slash-separated) name of the class
	// every defined function is compiled as an instance method of, and
	// every carrier field lives on.
	MainClassName() string

	// FunctionMethodName returns the JVM instance-method name hosting a
	// *defined* function's body (spec.md §4.2).
	FunctionMethodName(funcIdx uint32) string
	// ImportedFunctionHandleField returns the main class field holding an
	// *imported* function's bound java.lang.invoke.MethodHandle (spec.md
	// §4.6 "imported-function calls go through the bound method-handle
	// field").
	ImportedFunctionHandleField(funcIdx uint32) string
	// DefinedFunctionHandleField returns the main class field holding a
	// *defined* function's own bound MethodHandle, populated once in the
	// constructor (internal/assemble, spec.md §4.7) for every defined
	// function that a ref.func instruction takes the address of, that is
	// exported, or that an element segment places in a table. Keeping this ahead-of-time and field-backed, the same
	// shape as an imported function's handle, avoids needing a runtime
	// reflective findVirtual lookup inside ordinary function bodies.
	DefinedFunctionHandleField(funcIdx uint32) string

	// MemoryCarrierField/MemoryCarrierClass identify the main-class field
	// (and that field's carrier class) backing a memory index.
	MemoryCarrierField(memIdx uint32) string
	MemoryCarrierClass(memIdx uint32) string

	// TableCarrierField/TableCarrierClass/TableElemType identify a table
	// index's carrier field, carrier class, and element JVM type (funcref
	// tables carry jvm.MethodHandleType elements, externref tables carry
	// jvm.ObjectType elements).
	TableCarrierField(tableIdx uint32) string
	TableCarrierClass(tableIdx uint32) string
	TableElemType(tableIdx uint32) jvm.Type

	// GlobalCarrierField/GlobalCarrierClass/GlobalType identify a global
	// index's carrier field, carrier class, and unboxed JVM field type.
	GlobalCarrierField(globalIdx uint32) string
	GlobalCarrierClass(globalIdx uint32) string
	GlobalType(globalIdx uint32) jvm.Type
}
