package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasm2jvm/translator/internal/wasm"
)

// spec.md §8 scenario 1: one exported function, no memory/table/globals.
func TestAssemble_SimpleAddFunction(t *testing.T) {
	module := &wasm.Module{
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

	out, err := Assemble(module, "AddModule", 0)
	require.NoError(t, err)
	assert.Equal(t, "AddModule", out.MainClass.Name)
	assert.NotNil(t, out.TrapsHelper)
	assert.NotNil(t, out.NaNHelper)
	assert.Empty(t, out.CarrierClasses)

	var sawCtor, sawExportsGetter, sawAdd bool
	for _, m := range out.MainClass.Methods {
		switch m.Name {
		case "<init>":
			sawCtor = true
		case "exports":
			sawExportsGetter = true
		case "add":
			sawAdd = true
		}
	}
	assert.True(t, sawCtor)
	assert.True(t, sawExportsGetter)
	assert.True(t, sawAdd)
}

// spec.md §4.2: two exported i32 globals with the same mutability share a
// layout, so the planner builds exactly one carrier class for both.
func TestAssemble_DedupsStructurallyEqualGlobalCarriers(t *testing.T) {
	module := &wasm.Module{
		Globals: []wasm.Global{
			{Type: wasm.ValueTypeI32, Mutable: false, Init: wasm.ConstantExpression{Kind: wasm.ConstExprI32, I32: 1}},
			{Type: wasm.ValueTypeI32, Mutable: false, Init: wasm.ConstantExpression{Kind: wasm.ConstExprI32, I32: 2}},
		},
		Exports: []wasm.Export{
			{Name: "g0", Kind: wasm.ExternKindGlobal, Index: 0},
			{Name: "g1", Kind: wasm.ExternKindGlobal, Index: 1},
		},
	}

	out, err := Assemble(module, "Mod", 0)
	require.NoError(t, err)
	require.Len(t, out.CarrierClasses, 1, "both globals share one carrier class")
	assert.Equal(t, 1, out.CarrierClassesPlanned)
	assert.Equal(t, 1, out.CarrierClassesReused)
}

// spec.md §9: a memory whose declared minimum alone exceeds the 2^31-1
// projection limit is rejected before any translation work begins.
func TestAssemble_RejectsMemoryMinimumPastLimit(t *testing.T) {
	module := &wasm.Module{Memories: []wasm.Memory{{Min: 1 << 20}}}
	_, err := Assemble(module, "Mod", 0)
	require.Error(t, err)
}

// A module with one memory and one data segment builds a memory carrier
// and a constructor that references it.
func TestAssemble_MemoryAndDataSegment(t *testing.T) {
	module := &wasm.Module{
		Memories: []wasm.Memory{{Min: 1}},
		DataSegments: []wasm.DataSegment{{
			MemoryIndex: new(uint32),
			Offset:      wasm.ConstantExpression{Kind: wasm.ConstExprI32, I32: 0},
			Init:        []byte{1, 2, 3},
		}},
	}

	out, err := Assemble(module, "Mod", 0)
	require.NoError(t, err)
	require.Len(t, out.CarrierClasses, 1)
	assert.Equal(t, "memory", out.CarrierClasses[0].Fields[0].Name)
}
