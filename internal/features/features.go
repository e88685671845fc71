// Package features implements SPEC_FULL §C.1's FeatureSet: the concrete
// gate deciding which optional WASM proposals a translation accepts
// before any bytecode is emitted, mirroring wazero's api.CoreFeatures.
// spec.md §7.1 lists "unsupported instruction (future WASM extensions
// not implemented)" as a translation-error kind; Validate is what turns
// that prose into a pre-pass over the module.
package features

import (
	"fmt"

	"github.com/wasm2jvm/translator/internal/diag"
	"github.com/wasm2jvm/translator/internal/wasm"
)

// Set is a bitmask of optional WASM proposals. The fixed target version
// this translator documents (DESIGN.md "Open Question decisions") is
// WASM 1.0 plus sign-extension, saturating-truncation, multi-value, and
// reference-types — All enables exactly that set.
type Set uint32

const (
	// SignExtension gates i32/i64.extendN_s (spec.md §4.3's numeric
	// family).
	SignExtension Set = 1 << iota
	// SaturatingTruncation gates the *_trunc_sat_* conversions (spec.md
	// §4.3 "saturating variants").
	SaturatingTruncation
	// ReferenceTypes gates externref, table element type externref, and
	// ref.null/ref.is_null/ref.func (spec.md §3, §4.3).
	ReferenceTypes
	// MultiValue gates block/function types with more than one result
	// (spec.md §4.1, §9 "Multi-value results").
	MultiValue
)

// All is every proposal this translator implements, the DESIGN.md-fixed
// default target.
const All = SignExtension | SaturatingTruncation | ReferenceTypes | MultiValue

// None disables every optional proposal, leaving the WASM 1.0 MVP
// instruction and type set.
const None Set = 0

func (s Set) has(f Set) bool { return s&f != 0 }

// Validate walks module and reports the first feature-gated construct it
// finds that enabled does not permit, as a *diag.Error of
// KindUnsupportedInstruction. A nil return means every instruction and
// type the module uses falls within enabled.
func Validate(module *wasm.Module, enabled Set) error {
	if !enabled.has(ReferenceTypes) {
		for i, t := range module.Tables {
			if t.RefType == wasm.ValueTypeExternRef {
				return unsupported("features", -1, "table %d: externref requires ReferenceTypes", i)
			}
		}
		for i, g := range module.Globals {
			if g.Type == wasm.ValueTypeExternRef {
				return unsupported("features", -1, "global %d: externref requires ReferenceTypes", i)
			}
		}
	}
	if !enabled.has(MultiValue) {
		for i, ft := range module.Types {
			if len(ft.Results) > 1 {
				return unsupported("features", -1, "type %d: %d results requires MultiValue", i, len(ft.Results))
			}
		}
	}
	for idx, fn := range module.Functions {
		if !fn.Defined {
			continue
		}
		if err := validateCode(uint32(idx), fn.Code, enabled); err != nil {
			return err
		}
	}
	return nil
}

func validateCode(funcIdx uint32, code *wasm.Code, enabled Set) error {
	for _, ins := range code.Body {
		switch ins.Op {
		case wasm.OpI32Extend8S, wasm.OpI32Extend16S,
			wasm.OpI64Extend8S, wasm.OpI64Extend16S, wasm.OpI64Extend32S:
			if !enabled.has(SignExtension) {
				return unsupportedFunc(funcIdx, "opcode %v requires SignExtension", ins.Op)
			}
		case wasm.OpI32TruncSatF32S, wasm.OpI32TruncSatF32U, wasm.OpI32TruncSatF64S, wasm.OpI32TruncSatF64U,
			wasm.OpI64TruncSatF32S, wasm.OpI64TruncSatF32U, wasm.OpI64TruncSatF64S, wasm.OpI64TruncSatF64U:
			if !enabled.has(SaturatingTruncation) {
				return unsupportedFunc(funcIdx, "opcode %v requires SaturatingTruncation", ins.Op)
			}
		case wasm.OpRefNull, wasm.OpRefIsNull, wasm.OpRefFunc:
			if !enabled.has(ReferenceTypes) {
				return unsupportedFunc(funcIdx, "opcode %v requires ReferenceTypes", ins.Op)
			}
		case wasm.OpBlock, wasm.OpLoop, wasm.OpIf:
			if !enabled.has(MultiValue) && len(ins.Block.Results) > 1 {
				return unsupportedFunc(funcIdx, "block with %d results requires MultiValue", len(ins.Block.Results))
			}
		}
	}
	return nil
}

func unsupported(component string, funcIdx int32, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if funcIdx < 0 {
		return diag.New(diag.KindUnsupportedInstruction, component, msg)
	}
	return diag.NewFunc(diag.KindUnsupportedInstruction, component, uint32(funcIdx), msg)
}

func unsupportedFunc(funcIdx uint32, format string, args ...any) error {
	return diag.NewFunc(diag.KindUnsupportedInstruction, "features", funcIdx, fmt.Sprintf(format, args...))
}
