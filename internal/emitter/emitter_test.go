package emitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasm2jvm/translator/internal/jvm"
)

// spec.md §6: "A memory carrier has one field named `memory` of
// byte-buffer type."
func TestBuildMemoryCarrier_FieldConvention(t *testing.T) {
	c := BuildMemoryCarrier("Mod$MemoryCarrier_1")
	require.Len(t, c.Fields, 1)
	assert.Equal(t, "memory", c.Fields[0].Name)
	assert.Equal(t, jvm.ByteArrayType, c.Fields[0].Type)
	assert.Equal(t, jvm.AccPublic, c.Fields[0].AccessFlags)

	var names []string
	for _, m := range c.Methods {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "size")
	assert.Contains(t, names, "grow")
	assert.Contains(t, names, "loadI32")
	assert.Contains(t, names, "storeI32")
	assert.Contains(t, names, "loadI32_8S")
	assert.Contains(t, names, "loadI32_8U")
}

// spec.md §6: "A table carrier has one field named `table` of
// reference-array type matching the element reference type."
func TestBuildTableCarrier_FieldConvention(t *testing.T) {
	c := BuildTableCarrier("Mod$TableCarrier_1", jvm.MethodHandleType)
	require.Len(t, c.Fields, 1)
	assert.Equal(t, "table", c.Fields[0].Name)
	assert.Equal(t, jvm.ArrayOf(jvm.MethodHandleType), c.Fields[0].Type)

	var names []string
	for _, m := range c.Methods {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "get")
	assert.Contains(t, names, "set")
	assert.Contains(t, names, "size")
	assert.Contains(t, names, "grow")
}

// spec.md §6: "A global carrier has one field named `global` whose JVM
// type matches the WASM type."
func TestBuildGlobalCarrier_ImmutableFieldIsFinal(t *testing.T) {
	mutable := BuildGlobalCarrier("Mod$GlobalCarrier_1", jvm.Int, true)
	immutable := BuildGlobalCarrier("Mod$GlobalCarrier_2", jvm.Int, false)

	require.Len(t, mutable.Fields, 1)
	require.Len(t, immutable.Fields, 1)
	assert.Equal(t, "global", mutable.Fields[0].Name)
	assert.Equal(t, jvm.AccPublic, mutable.Fields[0].AccessFlags)
	assert.Equal(t, jvm.AccPublic|jvm.AccFinal, immutable.Fields[0].AccessFlags)

	// Both carriers take their value through a one-arg constructor
	// (spec.md §4.5): a final field's only legal assignment is inside
	// its own class's <init>.
	for _, c := range []*jvm.ClassDescriptor{mutable, immutable} {
		require.Len(t, c.Methods, 1)
		assert.Equal(t, "<init>", c.Methods[0].Name)
		assert.Equal(t, []jvm.Type{jvm.Int}, c.Methods[0].ParamTypes)
	}
}

func TestMaxPages_FitsWithin31BitProjection(t *testing.T) {
	assert.LessOrEqual(t, uint64(MaxPages)*PageSize, uint64(1<<31-1))
}
