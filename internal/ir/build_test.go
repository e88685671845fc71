package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasm2jvm/translator/internal/wasm"
)

func TestOperationKind_String(t *testing.T) {
	for k := OperationKind(0); k < operationKindEnd; k++ {
		assert.NotEqual(t, "Unknown", k.String(), "kind %d missing a name", int(k))
	}
	assert.Equal(t, "Unknown", (operationKindEnd + 1).String())
}

func TestLabel_ID_RoundTrip(t *testing.T) {
	l := Label{Kind: LabelKindHeader, FrameID: 7}
	id := l.ID()
	assert.Equal(t, LabelKindHeader, id.Kind())
	assert.Equal(t, 7, id.FrameID())
}

func TestBuild_Nullary(t *testing.T) {
	v_v := &wasm.FunctionType{}
	code := &wasm.Code{Body: []wasm.Instruction{{Op: wasm.OpEnd}}}

	result, err := Build(&wasm.Module{}, v_v, code)
	require.NoError(t, err)

	require.Len(t, result.Operations, 1)
	assert.Equal(t, OpKindBr, result.Operations[0].Kind)
	assert.Equal(t, LabelKindReturn, result.Operations[0].Label.Kind)
}

func TestBuild_Identity(t *testing.T) {
	i32_i32 := &wasm.FunctionType{
		Params:  []wasm.ValueType{wasm.ValueTypeI32},
		Results: []wasm.ValueType{wasm.ValueTypeI32},
	}
	code := &wasm.Code{Body: []wasm.Instruction{
		{Op: wasm.OpLocalGet, Index: 0},
		{Op: wasm.OpEnd},
	}}

	result, err := Build(&wasm.Module{}, i32_i32, code)
	require.NoError(t, err)

	require.Len(t, result.Operations, 2)
	assert.Equal(t, OpKindLocalGet, result.Operations[0].Kind)
	assert.Equal(t, OpKindBr, result.Operations[1].Kind)
	assert.Equal(t, 1, result.Operations[1].Arity)
}

func TestBuild_IfElse(t *testing.T) {
	v_v := &wasm.FunctionType{}
	code := &wasm.Code{Body: []wasm.Instruction{
		{Op: wasm.OpI32Const, ConstI32: 1},
		{Op: wasm.OpIf, Block: wasm.BlockType{}},
		{Op: wasm.OpI32Const, ConstI32: 10},
		{Op: wasm.OpDrop},
		{Op: wasm.OpElse},
		{Op: wasm.OpI32Const, ConstI32: 20},
		{Op: wasm.OpDrop},
		{Op: wasm.OpEnd},
		{Op: wasm.OpEnd},
	}}

	result, err := Build(&wasm.Module{}, v_v, code)
	require.NoError(t, err)

	var kinds []OperationKind
	for _, op := range result.Operations {
		kinds = append(kinds, op.Kind)
	}
	assert.Equal(t, []OperationKind{
		OpKindConstI32,
		OpKindBrIf,      // if's implicit, negated br_if to the else label
		OpKindFrameEnter,
		OpKindConstI32,
		OpKindDrop,
		OpKindBr, // then-arm falls through to the if's continuation
		OpKindLabel,
		OpKindConstI32,
		OpKindDrop,
		OpKindLabel, // if frame's continuation
		OpKindBr,    // function's implicit return
	}, kinds)
}

func TestBuild_Loop_Branches_To_Header(t *testing.T) {
	v_v := &wasm.FunctionType{}
	code := &wasm.Code{Body: []wasm.Instruction{
		{Op: wasm.OpLoop, Block: wasm.BlockType{}},
		{Op: wasm.OpBr, LabelDepth: 0},
		{Op: wasm.OpEnd},
		{Op: wasm.OpEnd},
	}}

	result, err := Build(&wasm.Module{}, v_v, code)
	require.NoError(t, err)

	require.Len(t, result.Operations, 5)
	assert.Equal(t, OpKindFrameEnter, result.Operations[0].Kind)
	assert.Equal(t, OpKindLabel, result.Operations[1].Kind)
	assert.Equal(t, LabelKindHeader, result.Operations[1].Label.Kind)

	br := result.Operations[2]
	assert.Equal(t, OpKindBr, br.Kind)
	assert.Equal(t, LabelKindHeader, br.Label.Kind)
	assert.Equal(t, 1, result.LabelCallers[br.Label.ID()])
}

func TestBuild_BrTable(t *testing.T) {
	v_v := &wasm.FunctionType{}
	code := &wasm.Code{Body: []wasm.Instruction{
		{Op: wasm.OpBlock, Block: wasm.BlockType{}},
		{Op: wasm.OpBlock, Block: wasm.BlockType{}},
		{Op: wasm.OpBlock, Block: wasm.BlockType{}},
		{Op: wasm.OpI32Const, ConstI32: 2},
		{Op: wasm.OpBrTable, TableTargets: []uint32{0, 1}, TableDefault: 2},
		{Op: wasm.OpEnd},
		{Op: wasm.OpEnd},
		{Op: wasm.OpEnd},
		{Op: wasm.OpEnd},
	}}

	result, err := Build(&wasm.Module{}, v_v, code)
	require.NoError(t, err)

	var brTable *Operation
	for i := range result.Operations {
		if result.Operations[i].Kind == OpKindBrTable {
			brTable = &result.Operations[i]
		}
	}
	require.NotNil(t, brTable)
	assert.Len(t, brTable.BrTableTargets, 2)
	assert.NotNil(t, brTable.BrTableDefault)
}

func TestBuild_UnclosedFrame(t *testing.T) {
	v_v := &wasm.FunctionType{}
	code := &wasm.Code{Body: []wasm.Instruction{{Op: wasm.OpBlock, Block: wasm.BlockType{}}}}

	_, err := Build(&wasm.Module{}, v_v, code)
	assert.Error(t, err)
}

func TestBuild_CallResolvesSignature(t *testing.T) {
	callee := wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}}
	module := &wasm.Module{
		Types:     []wasm.FunctionType{callee, {}},
		Functions: []wasm.Function{{TypeIndex: 0}, {TypeIndex: 1}},
	}
	code := &wasm.Code{Body: []wasm.Instruction{
		{Op: wasm.OpCall, Index: 0},
		{Op: wasm.OpDrop},
		{Op: wasm.OpEnd},
	}}

	result, err := Build(module, &module.Types[1], code)
	require.NoError(t, err)

	require.Equal(t, OpKindCall, result.Operations[0].Kind)
	require.NotNil(t, result.Operations[0].FuncType)
	assert.Equal(t, []wasm.ValueType{wasm.ValueTypeI32}, result.Operations[0].FuncType.Results)
}
