// Package layout implements the Name & Layout Planner (spec.md §4.2):
// deterministic class/field/method naming and structural deduplication
// of carrier classes.
package layout

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wasm2jvm/translator/internal/jvm"
)

// DefaultCacheSize bounds the Planner's shape→class cache (SPEC_FULL
// §B): a translation-time performance cache, not a correctness
// dependency — class names are deterministic functions of (base, kind,
// shape hash) regardless of whether a given shape was cached (spec.md
// §4.2), so a cache eviction can only cost a recomputation, never a
// different name.
const DefaultCacheSize = 4096

// Planner assigns deterministic names and deduplicates structurally
// identical carrier classes across a single translation (spec.md §4.2).
type Planner struct {
	base  string
	cache *lru.Cache[uint64, string]

	planned int
	reused  int
}

// NewPlanner constructs a Planner whose generated names are rooted at
// base (the user-provided main class base name).
func NewPlanner(base string, cacheSize int) *Planner {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	c, err := lru.New[uint64, string](cacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which is guarded
		// above — an internal invariant violation if ever reached.
		panic(err)
	}
	return &Planner{base: base, cache: c}
}

// MainClassName is the single main module class's name (spec.md §4.2,
// §4.7): a deterministic function of base alone.
func (p *Planner) MainClassName() string {
	return p.base
}

// ClassNameFor returns the carrier class name for shape, reusing a
// previously planned class for a structurally-equal shape (spec.md §4.2:
// "two exported i32 globals share a layout"). reused reports whether an
// existing class was returned rather than a newly planned one — exposed
// for the deduplication report SPEC_FULL §C.3 asks for.
func (p *Planner) ClassNameFor(shape Shape) (name string, reused bool) {
	h := shape.Hash()
	if cached, ok := p.cache.Get(h); ok {
		p.reused++
		return cached, true
	}
	name = classNameFromShape(p.base, shape, h)
	p.cache.Add(h, name)
	p.planned++
	return name, false
}

func classNameFromShape(base string, shape Shape, h uint64) string {
	return base + "$" + shape.Kind.String() + "Carrier_" + hexUint64(h)
}

// FunctionMethodName returns the JVM method name for a defined function.
// Exported functions keep their WASM export name verbatim when it is a
// valid JVM identifier-safe string (spec.md §6 "a method whose signature
// follows §4.1 packing rules" — named after the export, the natural
// public surface); non-exported functions get an index-qualified
// internal name, which is still a deterministic function of (base,
// index) as spec.md §4.2 requires.
func FunctionMethodName(base string, index uint32, exportName string) string {
	if exportName != "" {
		return sanitizeIdentifier(exportName)
	}
	return "func_" + uitoa(index)
}

// Stats reports how many carrier classes were newly planned vs. reused
// via structural sharing during this Planner's lifetime.
func (p *Planner) Stats() (planned, reused int) {
	return p.planned, p.reused
}

// MemoryShape, TableShape, and GlobalShape build the Shape for each
// carrier kind, fixing the main field's JVM type per spec.md §6's
// carrier conventions.
func MemoryShape() Shape {
	return Shape{Kind: CarrierMemory, FieldType: jvm.ByteArrayType}
}

func TableShape(elem jvm.Type) Shape {
	return Shape{Kind: CarrierTable, FieldType: jvm.ArrayOf(elem)}
}

func GlobalShape(fieldType jvm.Type, mutable bool) Shape {
	return Shape{Kind: CarrierGlobal, FieldType: fieldType, Mutable: mutable}
}
