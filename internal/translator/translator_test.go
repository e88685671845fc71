package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/trap"
	"github.com/wasm2jvm/translator/internal/wasm"
)

// fakeEnv is the minimal Env a function body actually exercises in these
// tests: one main class, one memory carrier, no imports/tables/globals.
type fakeEnv struct{}

func (fakeEnv) MainClassName() string                         { return "Mod" }
func (fakeEnv) FunctionMethodName(funcIdx uint32) string       { return "func_" + itoa(int(funcIdx)) }
func (fakeEnv) ImportedFunctionHandleField(uint32) string      { return "importedFunc" }
func (fakeEnv) DefinedFunctionHandleField(uint32) string       { return "definedFunc" }
func (fakeEnv) MemoryCarrierField(uint32) string               { return "memory0" }
func (fakeEnv) MemoryCarrierClass(uint32) string               { return "Mod$MemoryCarrier_1" }
func (fakeEnv) TableCarrierField(uint32) string                { return "table0" }
func (fakeEnv) TableCarrierClass(uint32) string                { return "Mod$TableCarrier_1" }
func (fakeEnv) TableElemType(uint32) jvm.Type                  { return jvm.MethodHandleType }
func (fakeEnv) GlobalCarrierField(uint32) string               { return "global0" }
func (fakeEnv) GlobalCarrierClass(uint32) string               { return "Mod$GlobalCarrier_1" }
func (fakeEnv) GlobalType(uint32) jvm.Type                     { return jvm.Int }

func moduleWith(ft wasm.FunctionType, body []wasm.Instruction) *wasm.Module {
	return &wasm.Module{
		Types: []wasm.FunctionType{ft},
		Functions: []wasm.Function{{
			TypeIndex: 0,
			Defined:   true,
			Code:      &wasm.Code{Body: body},
		}},
	}
}

// spec.md §8 scenario 2: i32.div_s must trap on divide-by-zero.
func TestCompileFunction_DivByZeroEmitsTrapCall(t *testing.T) {
	module := moduleWith(
		wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
		[]wasm.Instruction{
			{Op: wasm.OpLocalGet, Index: 0},
			{Op: wasm.OpLocalGet, Index: 1},
			{Op: wasm.OpI32DivS},
			{Op: wasm.OpEnd},
		},
	)

	res, err := CompileFunction(fakeEnv{}, module, 0)
	require.NoError(t, err)
	assert.True(t, res.UsedTraps[trap.IntegerDivideByZero])
	assert.True(t, res.UsedTraps[trap.IntegerOverflow], "signed div always guards the MinValue/-1 overflow case too")
	assertCallsTrap(t, res.Method.Code, trap.IntegerDivideByZero)
}

// spec.md §8 scenario 2's other half: MinValue/-1 overflows rather than
// dividing cleanly, and the JVM's own IDIV would silently wrap.
func TestCompileFunction_SignedDivGuardsMinValueOverflow(t *testing.T) {
	module := moduleWith(
		wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
		[]wasm.Instruction{
			{Op: wasm.OpLocalGet, Index: 0},
			{Op: wasm.OpLocalGet, Index: 1},
			{Op: wasm.OpI32DivS},
			{Op: wasm.OpEnd},
		},
	)
	res, err := CompileFunction(fakeEnv{}, module, 0)
	require.NoError(t, err)
	assertCallsTrap(t, res.Method.Code, trap.IntegerOverflow)
}

// Unsigned division never needs the overflow guard, only the zero guard.
func TestCompileFunction_UnsignedDivOnlyGuardsZero(t *testing.T) {
	module := moduleWith(
		wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
		[]wasm.Instruction{
			{Op: wasm.OpLocalGet, Index: 0},
			{Op: wasm.OpLocalGet, Index: 1},
			{Op: wasm.OpI32DivU},
			{Op: wasm.OpEnd},
		},
	)
	res, err := CompileFunction(fakeEnv{}, module, 0)
	require.NoError(t, err)
	assert.True(t, res.UsedTraps[trap.IntegerDivideByZero])
	assert.False(t, res.UsedTraps[trap.IntegerOverflow])
}

// spec.md §8 scenario 1: a plain i32 add compiles to IADD with no traps.
func TestCompileFunction_Add(t *testing.T) {
	module := moduleWith(
		wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
		[]wasm.Instruction{
			{Op: wasm.OpLocalGet, Index: 0},
			{Op: wasm.OpLocalGet, Index: 1},
			{Op: wasm.OpI32Add},
			{Op: wasm.OpEnd},
		},
	)
	res, err := CompileFunction(fakeEnv{}, module, 0)
	require.NoError(t, err)
	assert.Empty(t, res.UsedTraps)
	assert.Equal(t, "(II)I", jvm.MethodDescriptor(res.Method.ParamTypes, res.Method.ResultType))

	var sawAdd bool
	for _, ins := range res.Method.Code {
		if ins.Op == jvm.IADD {
			sawAdd = true
		}
	}
	assert.True(t, sawAdd)
}

// spec.md §4.5's out-of-bounds access is the memory carrier's own concern
// (internal/emitter), not the translator's: the translator only has to
// route the call to the right carrier method and field.
func TestCompileFunction_LoadRoutesThroughMemoryCarrierField(t *testing.T) {
	module := moduleWith(
		wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
		[]wasm.Instruction{
			{Op: wasm.OpLocalGet, Index: 0},
			{Op: wasm.OpI32Load, MemArgOffset: 0},
			{Op: wasm.OpEnd},
		},
	)
	res, err := CompileFunction(fakeEnv{}, module, 0)
	require.NoError(t, err)

	var sawGetField, sawLoadCall bool
	for _, ins := range res.Method.Code {
		if ins.Op == jvm.GETFIELD && ins.FieldName == "memory0" {
			sawGetField = true
		}
		if ins.Op == jvm.INVOKEVIRTUAL && ins.MethodOwner == "Mod$MemoryCarrier_1" && ins.MethodName == "loadI32" {
			sawLoadCall = true
		}
	}
	assert.True(t, sawGetField)
	assert.True(t, sawLoadCall)
}

// invalid conversion to integer (e.g. i32.trunc_f32_s of NaN) traps too.
func TestCompileFunction_TruncTrapsOnInvalidConversion(t *testing.T) {
	module := moduleWith(
		wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeF32}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
		[]wasm.Instruction{
			{Op: wasm.OpLocalGet, Index: 0},
			{Op: wasm.OpI32TruncF32S},
			{Op: wasm.OpEnd},
		},
	)
	res, err := CompileFunction(fakeEnv{}, module, 0)
	require.NoError(t, err)
	assert.True(t, res.UsedTraps[trap.InvalidConversionToInteger])
}

// spec.md §8 scenario 4: br_table lowers to a dense TABLESWITCH.
func TestCompileFunction_BrTableLowersToTableSwitch(t *testing.T) {
	module := moduleWith(
		wasm.FunctionType{},
		[]wasm.Instruction{
			{Op: wasm.OpBlock, Block: wasm.BlockType{}},
			{Op: wasm.OpBlock, Block: wasm.BlockType{}},
			{Op: wasm.OpBlock, Block: wasm.BlockType{}},
			{Op: wasm.OpI32Const, ConstI32: 2},
			{Op: wasm.OpBrTable, TableTargets: []uint32{0, 1}, TableDefault: 2},
			{Op: wasm.OpEnd},
			{Op: wasm.OpEnd},
			{Op: wasm.OpEnd},
			{Op: wasm.OpEnd},
		},
	)
	res, err := CompileFunction(fakeEnv{}, module, 0)
	require.NoError(t, err)

	var sawSwitch bool
	for _, ins := range res.Method.Code {
		if ins.Op == jvm.TABLESWITCH {
			sawSwitch = true
			assert.Len(t, ins.SwitchTargets, 2)
		}
	}
	assert.True(t, sawSwitch)
}

func assertCallsTrap(t *testing.T, code []jvm.Instruction, kind trap.Kind) {
	t.Helper()
	for _, ins := range code {
		if ins.Op == jvm.INVOKESTATIC && ins.MethodOwner == trap.HelperClassName && ins.MethodName == kind.ThrowerMethodName() {
			return
		}
	}
	t.Fatalf("expected a call to %s's thrower, found none", kind.ThrowerMethodName())
}
