package typemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/wasm"
)

func TestMapValueType(t *testing.T) {
	assert.Equal(t, jvm.Int, MapValueType(wasm.ValueTypeI32))
	assert.Equal(t, jvm.Long, MapValueType(wasm.ValueTypeI64))
	assert.Equal(t, jvm.Float, MapValueType(wasm.ValueTypeF32))
	assert.Equal(t, jvm.Double, MapValueType(wasm.ValueTypeF64))
	assert.Equal(t, jvm.MethodHandleType, MapValueType(wasm.ValueTypeFuncRef))
	assert.Equal(t, jvm.ObjectType, MapValueType(wasm.ValueTypeExternRef))
}

func TestSlots(t *testing.T) {
	assert.Equal(t, 1, Slots(wasm.ValueTypeI32))
	assert.Equal(t, 2, Slots(wasm.ValueTypeI64))
	assert.Equal(t, 2, Slots(wasm.ValueTypeF64))
	assert.Equal(t, 1, Slots(wasm.ValueTypeFuncRef))
}

func TestMapFunctionType_Simple(t *testing.T) {
	ft := &wasm.FunctionType{
		Params:  []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
		Results: []wasm.ValueType{wasm.ValueTypeI32},
	}
	sig, err := MapFunctionType(ft)
	require.NoError(t, err)
	assert.False(t, sig.ParamsPacked)
	assert.False(t, sig.ResultsPacked)
	assert.Equal(t, "(II)I", sig.Descriptor())
}

func TestMapFunctionType_NoResults(t *testing.T) {
	sig, err := MapFunctionType(&wasm.FunctionType{})
	require.NoError(t, err)
	assert.Equal(t, "()V", sig.Descriptor())
}

// spec.md §8 scenario 5: a function returning (i32 i64 f32) returns an
// object array of length three with boxed values in order.
func TestMapFunctionType_MultiValueResultsPacked(t *testing.T) {
	ft := &wasm.FunctionType{
		Results: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI64, wasm.ValueTypeF32},
	}
	sig, err := MapFunctionType(ft)
	require.NoError(t, err)
	assert.True(t, sig.ResultsPacked)
	assert.Equal(t, jvm.ObjectArrayType, sig.ResultType)
	assert.Equal(t, "()[Ljava/lang/Object;", sig.Descriptor())

	assert.Equal(t, jvm.BoxedIntegerType, BoxedType(wasm.ValueTypeI32))
	assert.Equal(t, jvm.BoxedLongType, BoxedType(wasm.ValueTypeI64))
	assert.Equal(t, jvm.BoxedFloatType, BoxedType(wasm.ValueTypeF32))
}

func TestMapFunctionType_ParamsPackedPastDirectSlotBudget(t *testing.T) {
	params := make([]wasm.ValueType, MaxDirectParamSlots+1)
	for i := range params {
		params[i] = wasm.ValueTypeI32
	}
	sig, err := MapFunctionType(&wasm.FunctionType{Params: params})
	require.NoError(t, err)
	assert.True(t, sig.ParamsPacked)
	assert.Equal(t, []jvm.Type{jvm.ObjectArrayType}, sig.ParamTypes)
}

func TestMapFunctionType_LongDoubleParamsCountDoubleSlots(t *testing.T) {
	// 127 i64 params use 254 slots exactly (the budget), so this must NOT
	// pack even though there are only 127 declared parameters.
	params := make([]wasm.ValueType, MaxDirectParamSlots/2)
	for i := range params {
		params[i] = wasm.ValueTypeI64
	}
	sig, err := MapFunctionType(&wasm.FunctionType{Params: params})
	require.NoError(t, err)
	assert.False(t, sig.ParamsPacked)
}
