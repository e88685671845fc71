package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasm2jvm/translator/internal/wasm"
)

// addModule is spec.md §8 scenario 1: (func (export "add") (param i32
// i32) (result i32) local.get 0 local.get 1 i32.add).
func addModule() *wasm.Module {
	return &wasm.Module{
		Types: []wasm.FunctionType{{
			Params:  []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
			Results: []wasm.ValueType{wasm.ValueTypeI32},
		}},
		Functions: []wasm.Function{{
			TypeIndex: 0,
			Defined:   true,
			Code: &wasm.Code{Body: []wasm.Instruction{
				{Op: wasm.OpLocalGet, Index: 0},
				{Op: wasm.OpLocalGet, Index: 1},
				{Op: wasm.OpI32Add},
				{Op: wasm.OpEnd},
			}},
		}},
		Exports: []wasm.Export{{Name: "add", Kind: wasm.ExternKindFunc, Index: 0}},
	}
}

func TestTranslate_Add(t *testing.T) {
	out, err := Translate(addModule(), WithBaseName("AddModule"))
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, "AddModule", out.MainClass.Name)
	require.Len(t, out.MainClass.Methods, 3, "constructor + add + exports getter")

	var add *struct{ Name, Desc string }
	for _, m := range out.MainClass.Methods {
		if m.Name == "add" {
			add = &struct{ Name, Desc string }{m.Name, m.Descriptor()}
		}
	}
	require.NotNil(t, add, "expected a method named after the export")
	assert.Equal(t, "(II)I", add.Desc)

	assert.NotNil(t, out.TrapsHelper)
	assert.Empty(t, out.Diagnostics)
}

func TestTranslate_DeterministicAcrossRuns(t *testing.T) {
	out1, err := Translate(addModule(), WithBaseName("AddModule"))
	require.NoError(t, err)
	out2, err := Translate(addModule(), WithBaseName("AddModule"))
	require.NoError(t, err)

	assert.Equal(t, out1.MainClass.Name, out2.MainClass.Name)
	require.Len(t, out2.MainClass.Methods, len(out1.MainClass.Methods))
	for i := range out1.MainClass.Methods {
		assert.Equal(t, out1.MainClass.Methods[i].Name, out2.MainClass.Methods[i].Name)
		assert.Equal(t, out1.MainClass.Methods[i].Descriptor(), out2.MainClass.Methods[i].Descriptor())
	}
}

func TestTranslate_RejectsRefTypesWhenDisabled(t *testing.T) {
	m := &wasm.Module{
		Tables: []wasm.Table{{RefType: wasm.ValueTypeExternRef, Min: 1}},
	}
	_, err := Translate(m, WithFeatures(FeaturesAll&^FeatureReferenceTypes))
	require.Error(t, err)

	var tErr *Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, KindUnsupportedInstruction, tErr.Kind)
}

func TestTranslate_AggregatesPerFunctionErrors(t *testing.T) {
	// Two independently-broken functions (an out-of-range br) should both
	// surface, not just the first (SPEC_FULL §A.2).
	badBody := []wasm.Instruction{
		{Op: wasm.OpBr, LabelDepth: 99},
		{Op: wasm.OpEnd},
	}
	m := &wasm.Module{
		Types: []wasm.FunctionType{{}},
		Functions: []wasm.Function{
			{TypeIndex: 0, Defined: true, Code: &wasm.Code{Body: badBody}},
			{TypeIndex: 0, Defined: true, Code: &wasm.Code{Body: badBody}},
		},
	}
	_, err := Translate(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "func 0")
	assert.Contains(t, err.Error(), "func 1")
}

func TestTranslate_LimitExceeded(t *testing.T) {
	tooBig := uint32(1 << 20)
	m := &wasm.Module{
		Memories: []wasm.Memory{{Min: tooBig}},
	}
	_, err := Translate(m)
	require.Error(t, err)
	var tErr *Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, KindLimitExceeded, tErr.Kind)
}
