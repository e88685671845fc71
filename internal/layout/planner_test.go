package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasm2jvm/translator/internal/jvm"
)

func TestPlanner_MainClassName(t *testing.T) {
	p := NewPlanner("MyModule", 0)
	assert.Equal(t, "MyModule", p.MainClassName())
}

// spec.md §4.2: "two exported i32 globals share a layout."
func TestPlanner_ClassNameFor_DedupsStructurallyEqualShapes(t *testing.T) {
	p := NewPlanner("Mod", 0)

	name1, reused1 := p.ClassNameFor(GlobalShape(jvm.Int, false))
	require.False(t, reused1)
	name2, reused2 := p.ClassNameFor(GlobalShape(jvm.Int, false))
	require.True(t, reused2)
	assert.Equal(t, name1, name2)

	planned, reused := p.Stats()
	assert.Equal(t, 1, planned)
	assert.Equal(t, 1, reused)
}

func TestPlanner_ClassNameFor_DistinguishesMutability(t *testing.T) {
	p := NewPlanner("Mod", 0)
	mutable, _ := p.ClassNameFor(GlobalShape(jvm.Int, true))
	immutable, _ := p.ClassNameFor(GlobalShape(jvm.Int, false))
	assert.NotEqual(t, mutable, immutable)
}

func TestPlanner_ClassNameFor_DistinguishesFieldType(t *testing.T) {
	p := NewPlanner("Mod", 0)
	memShape, _ := p.ClassNameFor(MemoryShape())
	tableShape, _ := p.ClassNameFor(TableShape(jvm.MethodHandleType))
	assert.NotEqual(t, memShape, tableShape)
}

func TestPlanner_Deterministic_AcrossInstances(t *testing.T) {
	p1 := NewPlanner("Mod", 0)
	p2 := NewPlanner("Mod", 0)

	n1, _ := p1.ClassNameFor(MemoryShape())
	n2, _ := p2.ClassNameFor(MemoryShape())
	assert.Equal(t, n1, n2, "repeated runs over the same input must produce byte-identical output")
}

func TestFunctionMethodName(t *testing.T) {
	assert.Equal(t, "add", FunctionMethodName("Mod", 3, "add"))
	assert.Equal(t, "func_3", FunctionMethodName("Mod", 3, ""))
}
