package wasm

// ExternKind discriminates the four kinds of importable/exportable
// entities (spec.md §3).
type ExternKind byte

const (
	ExternKindFunc ExternKind = iota
	ExternKindTable
	ExternKindMemory
	ExternKindGlobal
)

func (k ExternKind) String() string {
	switch k {
	case ExternKindFunc:
		return "func"
	case ExternKindTable:
		return "table"
	case ExternKindMemory:
		return "memory"
	case ExternKindGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Import names an entity a module requires from its host, canonicalized
// as a (Module, Name) namespace+name pair (spec.md §4.6).
type Import struct {
	Module string
	Name   string
	Kind   ExternKind

	// TypeIndex is valid when Kind == ExternKindFunc.
	TypeIndex uint32
	// Table/Memory/Global are valid when Kind matches.
	Table  *Table
	Memory *Memory
	Global *Global
}

// Export publishes a module-indexed entity under a public name.
type Export struct {
	Name  string
	Kind  ExternKind
	Index uint32
}

// Table is a bounded, resizable sequence of references of a single
// reference type (spec.md §3 "Table").
type Table struct {
	RefType ValueType // ValueTypeFuncRef or ValueTypeExternRef
	Min     uint32
	Max     *uint32 // nil means unbounded other than the JVM projection limit
}

// Memory is a bounded, resizable byte region, sized in 65536-byte pages
// (spec.md §3 "Memory").
type Memory struct {
	Min uint32
	Max *uint32
}

// PageSize is the fixed WASM linear-memory page granularity.
const PageSize = 65536

// ConstantExprKind enumerates the restricted constant-expression forms
// allowed for global initializers and segment offsets (spec.md §4.7
// "restricted to the constant-expression subset").
type ConstantExprKind byte

const (
	ConstExprI32 ConstantExprKind = iota
	ConstExprI64
	ConstExprF32
	ConstExprF64
	ConstExprGlobalGet
	ConstExprRefNull
	ConstExprRefFunc
)

// ConstantExpression is a single-instruction initializer expression.
type ConstantExpression struct {
	Kind       ConstantExprKind
	I32        int32
	I64        int64
	F32        float32
	F64        float64
	GlobalIdx  uint32
	FuncIdx    uint32
	RefNullTyp ValueType
}

// Global is a single typed, optionally-mutable cell (spec.md §3 "Global").
type Global struct {
	Type    ValueType
	Mutable bool
	Init    ConstantExpression
}

// Function is a module-owned function: either imported (Defined false)
// or defined (spec.md §3 "Function").
type Function struct {
	TypeIndex uint32
	// Defined is false for imported functions, whose implementation is
	// bound at construction time (spec.md §4.6) rather than compiled.
	Defined bool
	Code    *Code
}

// Code is a defined function's body: its local declarations and its flat
// typed instruction stream (see internal/wasm package doc for why the
// stream is flat rather than a nested tree).
type Code struct {
	// Locals are declared (non-parameter) local variables, in declaration
	// order. Parameters occupy JVM local slots before these (spec.md §4.3
	// "parameters first, then declared locals").
	Locals []ValueType
	Body   []Instruction
}

// DataSegment initializes a byte range of a memory (spec.md §3 "Segment").
// Passive segments (MemoryIndex == nil) are consumed only by an explicit
// memory.init and are not applied during module instantiation.
type DataSegment struct {
	MemoryIndex *uint32
	Offset      ConstantExpression
	Init        []byte
}

// ElementSegment initializes a range of a table with function references
// (spec.md §3 "Segment"). Passive segments (TableIndex == nil) are
// consumed only by an explicit table.init.
type ElementSegment struct {
	TableIndex *uint32
	Offset     ConstantExpression
	RefType    ValueType
	// FuncIndices holds a function-index initializer per element; a nil
	// entry represents a `ref.null` initializer for externref tables.
	FuncIndices []*uint32
}

// Module is the translation unit: the aggregate of every WASM entity plus
// its export map, optional start function, and the imports it requires
// (spec.md §3 "Module"). Index spaces (funcs, tables, mems, globals) place
// imports first in declaration order, followed by module-defined entities
// (spec.md §3 invariant) — Functions/Tables/Memories/Globals below already
// reflect that combined ordering; ImportCount per kind tells a caller
// where the imported prefix ends.
type Module struct {
	Types []FunctionType

	Functions []Function
	Tables    []Table
	Memories  []Memory
	Globals   []Global

	// ImportedFuncs, ImportedTables, ImportedMemories, ImportedGlobals are
	// the counts of each kind's imported prefix within the combined index
	// spaces above.
	ImportedFuncs    int
	ImportedTables   int
	ImportedMemories int
	ImportedGlobals  int

	Imports []Import
	Exports []Export

	StartFunc *uint32

	ElementSegments []ElementSegment
	DataSegments    []DataSegment
}

// FunctionType returns the signature of the function at the given
// module-wide index.
func (m *Module) FunctionType(funcIdx uint32) *FunctionType {
	return &m.Types[m.Functions[funcIdx].TypeIndex]
}

// IsImportedFunc reports whether funcIdx falls in the imported prefix of
// the function index space.
func (m *Module) IsImportedFunc(funcIdx uint32) bool {
	return int(funcIdx) < m.ImportedFuncs
}
