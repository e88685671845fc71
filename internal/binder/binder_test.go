package binder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/jvmasm"
	"github.com/wasm2jvm/translator/internal/wasm"
)

func TestCanonicalKey(t *testing.T) {
	assert.Equal(t, "env.g", CanonicalKey("env", "g"))
	assert.Equal(t, "env.mem", CanonicalKey("env", "mem"))
}

func TestBindFunctionImport(t *testing.T) {
	asm := jvmasm.New()
	BindFunctionImport(asm, "Mod", 1, "env.cb", "import$0")
	code, err := asm.Assemble()
	require.NoError(t, err)
	// aload this, aload map, ldc key, invokeinterface get, checkcast, putfield
	require.Len(t, code, 6)
}

func TestBindMemoryImport(t *testing.T) {
	asm := jvmasm.New()
	BindMemoryImport(asm, "Mod", "Mod$MemoryCarrier_1", 1, "env.mem", "memory$0", 2, 3)
	code, err := asm.Assemble()
	require.NoError(t, err)
	assert.NotEmpty(t, code)

	var sawFindGetter, sawPutfield bool
	for _, in := range code {
		if in.Op == jvm.INVOKEVIRTUAL && in.MethodName == "findGetter" {
			sawFindGetter = true
		}
		if in.Op == jvm.PUTFIELD && in.FieldOwner == "Mod" && in.FieldName == "memory$0" {
			sawPutfield = true
		}
	}
	assert.True(t, sawFindGetter, "expected a reflective findGetter lookup for the imported memory's field")
	assert.True(t, sawPutfield, "expected the bound carrier to be stored into the main class field")
}

func TestBindGlobalImport_ImmutableUsesConstructorArg(t *testing.T) {
	asm := jvmasm.New()
	BindGlobalImport(asm, "Mod", "Mod$GlobalCarrier_1", jvm.Int, 1, "env.g", "global$0", 2)
	code, err := asm.Assemble()
	require.NoError(t, err)

	for _, in := range code {
		// An imported global's carrier value must never reach the main
		// class field via a bare PUTFIELD on the carrier's own "global"
		// field — it can only go in through <init>(T), since an
		// immutable global's field carries AccFinal (spec.md §4.5).
		assert.Falsef(t, in.Op == jvm.PUTFIELD && in.FieldOwner == "Mod$GlobalCarrier_1",
			"unexpected direct PUTFIELD on the global carrier's own field: %+v", in)
	}
}

func TestBuildExportsMap(t *testing.T) {
	naming := fakeNaming{}
	asm := jvmasm.New()
	exports := []wasm.Export{
		{Name: "add", Kind: wasm.ExternKindFunc, Index: 0},
		{Name: "mem", Kind: wasm.ExternKindMemory, Index: 0},
	}
	BuildExportsMap(asm, naming, "exports", exports, 5)
	code, err := asm.Assemble()
	require.NoError(t, err)

	var puts int
	for _, in := range code {
		if in.Op == jvm.INVOKEINTERFACE && in.MethodName == "put" {
			puts++
		}
	}
	assert.Equal(t, 2, puts)
}

type fakeNaming struct{}

func (fakeNaming) MainClassName() string             { return "Mod" }
func (fakeNaming) FunctionHandleField(uint32) string { return "fn$0" }
func (fakeNaming) MemoryCarrierField(uint32) string  { return "memory$0" }
func (fakeNaming) MemoryCarrierClass(uint32) string  { return "Mod$MemoryCarrier_1" }
func (fakeNaming) TableCarrierField(uint32) string   { return "table$0" }
func (fakeNaming) TableCarrierClass(uint32) string   { return "Mod$TableCarrier_1" }
func (fakeNaming) GlobalCarrierField(uint32) string  { return "global$0" }
func (fakeNaming) GlobalCarrierClass(uint32) string  { return "Mod$GlobalCarrier_1" }
