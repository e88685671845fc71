// Package diag defines the translator's structured error and diagnostic
// types (spec.md §7), shared by every component that can fail a
// translation: internal/translator, internal/emitter, internal/binder,
// internal/assemble, and the root translate package, which re-exports
// Kind and Error as its own public API surface.
package diag

import "fmt"

// Kind classifies a translation-time error (spec.md §7.1). These are
// fatal and reported to the caller with a structured diagnostic — the
// counterpart to trap.Kind, which instead classifies a runtime trap
// emitted INTO the generated code.
type Kind int

const (
	// KindSignatureTooWide: a function signature doesn't fit even after
	// §4.1's object-array packing.
	KindSignatureTooWide Kind = iota
	// KindLimitExceeded: a memory/table initial or maximum exceeds
	// 2^31-1 (spec.md §4.5's bounds policy).
	KindLimitExceeded
	// KindUnsupportedInstruction: an opcode outside this translator's
	// supported set (spec.md §7.1 "future WASM extensions not
	// implemented").
	KindUnsupportedInstruction
	// KindInvariant: an internal invariant violation — a bug in the
	// translator, not a property of the input module.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindSignatureTooWide:
		return "signature-too-wide"
	case KindLimitExceeded:
		return "limit-exceeded"
	case KindUnsupportedInstruction:
		return "unsupported-instruction"
	case KindInvariant:
		return "internal-invariant"
	default:
		return "unknown"
	}
}

// Error is a structured translation-time error: a Kind plus the location
// it occurred at (function index, when applicable) and a human-readable
// message. Component and Msg are free text; Kind is what tests
// and callers match on (spec.md §8 "translation... produces a diagnostic
// with one of the defined translation-error kinds").
type Error struct {
	Kind      Kind
	Component string // e.g. "typemap", "translator", "emitter"
	FuncIndex int32  // -1 when not applicable to a single function
	Msg       string
}

func New(kind Kind, component, msg string) *Error {
	return &Error{Kind: kind, Component: component, FuncIndex: -1, Msg: msg}
}

func NewFunc(kind Kind, component string, funcIndex uint32, msg string) *Error {
	return &Error{Kind: kind, Component: component, FuncIndex: int32(funcIndex), Msg: msg}
}

func (e *Error) Error() string {
	if e.FuncIndex >= 0 {
		return fmt.Sprintf("%s: [%s] func %d: %s", e.Component, e.Kind, e.FuncIndex, e.Msg)
	}
	return fmt.Sprintf("%s: [%s] %s", e.Component, e.Kind, e.Msg)
}

// Diagnostic is a non-fatal observation surfaced alongside a successful
// translation (SPEC_FULL §C.2). The only one produced is the note for a
// memory or table whose declared maximum projects past the 2^31-1 limit
// while its minimum does not.
type Diagnostic struct {
	Kind             string
	Message          string
	FuncIndex        int32
	InstructionIndex int32
}
