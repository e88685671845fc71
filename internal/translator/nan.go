package translator

import (
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/nan"
	"github.com/wasm2jvm/translator/internal/wasm"
)

// emitNaNCanon passes the top-of-stack float/double result through the
// shared per-module canonicalization helper (spec.md §4.3 "results that
// could yield a non-canonical NaN must be passed through a
// canonicalization helper", SPEC_FULL §C.4). A no-op for i32/i64 results,
// so every arithmetic compile* helper can call it unconditionally on its
// own Operation.Type.
func (tr *translator) emitNaNCanon(t wasm.ValueType) {
	switch t {
	case wasm.ValueTypeF32:
		tr.asm.CompileInvoke(jvm.INVOKESTATIC, nan.HelperClassName, nan.CanonFloatMethod, "(F)F")
	case wasm.ValueTypeF64:
		tr.asm.CompileInvoke(jvm.INVOKESTATIC, nan.HelperClassName, nan.CanonDoubleMethod, "(D)D")
	}
}
