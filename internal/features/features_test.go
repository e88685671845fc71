package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasm2jvm/translator/internal/diag"
	"github.com/wasm2jvm/translator/internal/wasm"
)

func TestValidate_AllAcceptsEveryGatedConstruct(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FunctionType{{Results: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI64}}},
		Tables: []wasm.Table{{RefType: wasm.ValueTypeExternRef, Min: 1}},
		Functions: []wasm.Function{{TypeIndex: 0, Defined: true, Code: &wasm.Code{Body: []wasm.Instruction{
			{Op: wasm.OpI32Extend8S},
			{Op: wasm.OpI32TruncSatF32S},
			{Op: wasm.OpRefNull, RefType: wasm.ValueTypeExternRef},
			{Op: wasm.OpEnd},
		}}}},
	}
	assert.NoError(t, Validate(m, All))
}

func TestValidate_RejectsSignExtensionWhenDisabled(t *testing.T) {
	m := &wasm.Module{
		Types:     []wasm.FunctionType{{}},
		Functions: []wasm.Function{{TypeIndex: 0, Defined: true, Code: &wasm.Code{Body: []wasm.Instruction{{Op: wasm.OpI64Extend32S}, {Op: wasm.OpEnd}}}}},
	}
	err := Validate(m, All&^SignExtension)
	require.Error(t, err)
	var dErr *diag.Error
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, diag.KindUnsupportedInstruction, dErr.Kind)
}

func TestValidate_RejectsSaturatingTruncationWhenDisabled(t *testing.T) {
	m := &wasm.Module{
		Types:     []wasm.FunctionType{{}},
		Functions: []wasm.Function{{TypeIndex: 0, Defined: true, Code: &wasm.Code{Body: []wasm.Instruction{{Op: wasm.OpI32TruncSatF64U}, {Op: wasm.OpEnd}}}}},
	}
	require.Error(t, Validate(m, All&^SaturatingTruncation))
}

func TestValidate_RejectsExternRefGlobalWhenDisabled(t *testing.T) {
	m := &wasm.Module{Globals: []wasm.Global{{Type: wasm.ValueTypeExternRef}}}
	require.Error(t, Validate(m, All&^ReferenceTypes))
}

func TestValidate_RejectsMultiValueBlockWhenDisabled(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FunctionType{{}},
		Functions: []wasm.Function{{TypeIndex: 0, Defined: true, Code: &wasm.Code{Body: []wasm.Instruction{
			{Op: wasm.OpBlock, Block: wasm.BlockType{Results: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}}},
			{Op: wasm.OpEnd},
			{Op: wasm.OpEnd},
		}}}},
	}
	require.Error(t, Validate(m, All&^MultiValue))
}

func TestValidate_AcceptsNoneOnAnMVPOnlyModule(t *testing.T) {
	m := &wasm.Module{
		Types:     []wasm.FunctionType{{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}}},
		Functions: []wasm.Function{{TypeIndex: 0, Defined: true, Code: &wasm.Code{Body: []wasm.Instruction{{Op: wasm.OpLocalGet, Index: 0}, {Op: wasm.OpEnd}}}}},
	}
	assert.NoError(t, Validate(m, None))
}
