// Package nan names the module-wide NaN-canonicalization helper
// (SPEC_FULL §C.4): a float/double result that WASM's own NaN
// propagation rules say should come out NaN is passed through one
// shared static method per width before it's pushed back onto the
// operand stack, so every NaN this translator's output ever produces
// carries the single canonical bit pattern spec.md's floating-point row
// requires, regardless of which JVM opcode or host JIT happened to
// compute it.
package nan

// HelperClassName is the JVM class the main module class's float/double
// arithmetic calls into, kept distinct from the main class for the same
// reason trap.HelperClassName is: every translated function reaches it
// without a circular field dependency.
const HelperClassName = "wasm2jvm/runtime/NaN"

// CanonFloatMethod and CanonDoubleMethod are the two static methods
// HelperClassName hosts, one per WASM float width.
const (
	CanonFloatMethod  = "canonF"
	CanonDoubleMethod = "canonD"
)
