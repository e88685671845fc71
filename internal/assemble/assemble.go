// Package assemble implements the Module Assembler (spec.md §4.7): the
// final pipeline stage tying internal/layout, internal/emitter, internal/
// translator, and internal/binder together into one translated module's
// worth of class descriptors — the main module class, every carrier
// class it references, and the shared trap-helper class.
package assemble

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/wasm2jvm/translator/internal/binder"
	"github.com/wasm2jvm/translator/internal/diag"
	"github.com/wasm2jvm/translator/internal/emitter"
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/jvmasm"
	"github.com/wasm2jvm/translator/internal/layout"
	"github.com/wasm2jvm/translator/internal/translator"
	"github.com/wasm2jvm/translator/internal/wasm"
)

// MaxLinearSize is the 2^31-1 ceiling spec.md §4.5/§9 narrows WASM's
// 64-bit-indexed linear memory and table address spaces to.
const MaxLinearSize = (1 << 31) - 1

// maxConstructorStack is a hand-traced, deliberately generous upper bound
// on the main class constructor's operand-stack depth. Every step
// buildConstructor emits (import binding, global-initializer evaluation,
// segment initialization, function-handle binding, export-map
// construction) nets back to an empty stack before the next step begins
// — confirmed by hand for each helper in internal/binder and this
// package — and the deepest any single step's own sub-sequence reaches
// is 7 (internal/binder.BindGlobalImport: this, the new carrier and its
// DUP beneath the reflective field-load chain's lookup, class, name,
// type). This constant isn't tracked instruction-by-instruction the
// way internal/translator.CompileFunction tracks MaxStack for a function
// body, since the constructor chains many independently-authored helper
// sequences rather than one operand-stack-tracked lowering pass.
const maxConstructorStack = 8

const exportsFieldName = "exports"
const importsParamLocal = 1

// Output is everything Assemble produces for one translated module:
// the main class, every carrier class it references, and the shared
// trap-helper class (spec.md §6 "an ordered collection of class
// descriptors").
type Output struct {
	MainClass      *jvm.ClassDescriptor
	CarrierClasses []*jvm.ClassDescriptor
	TrapsHelper    *jvm.ClassDescriptor
	NaNHelper      *jvm.ClassDescriptor

	// CarrierClassesPlanned/CarrierClassesReused report the Name & Layout
	// Planner's structural-dedup outcome (spec.md §4.2, SPEC_FULL §C.3):
	// how many distinct carrier shapes were newly planned vs. how many
	// entities reused an already-planned class for a structurally equal
	// shape.
	CarrierClassesPlanned int
	CarrierClassesReused  int
}

// Assemble translates module into an Output. base names the main class;
// cacheSize bounds the Name & Layout Planner's shape-dedup cache (0
// selects layout.DefaultCacheSize).
func Assemble(module *wasm.Module, base string, cacheSize int) (*Output, error) {
	if err := validateLimits(module); err != nil {
		return nil, err
	}

	planner := layout.NewPlanner(base, cacheSize)
	env := newModuleEnv(module, planner)

	carriers := buildCarrierClasses(module, env)

	main := jvm.NewClassDescriptor(env.MainClassName())
	declareFields(main, module, env)

	methodNames := map[uint32]string{}
	methodDescs := map[uint32]string{}
	var compileErr error
	for idx, fn := range module.Functions {
		if !fn.Defined {
			continue
		}
		funcIdx := uint32(idx)
		res, err := translator.CompileFunction(env, module, funcIdx)
		if err != nil {
			// Every function compiles independently (spec.md §4.3): a bad
			// function doesn't stop the rest from being attempted, so a
			// caller sees every function-level diagnostic in one pass
			// (SPEC_FULL §A.2) rather than only the first.
			compileErr = multierr.Append(compileErr, err)
			continue
		}
		main.AddMethod(*res.Method)
		methodNames[funcIdx] = res.Method.Name
		methodDescs[funcIdx] = res.Method.Descriptor()
	}
	if compileErr != nil {
		return nil, compileErr
	}

	ctor, err := buildConstructor(module, env, methodNames, methodDescs)
	if err != nil {
		return nil, err
	}
	main.Methods = append([]jvm.MethodInfo{*ctor}, main.Methods...)
	main.AddMethod(buildExportsGetter(env.MainClassName()))

	traps := BuildTrapsHelperClass()
	nanHelper := BuildNaNHelperClass()

	for _, c := range append(append([]*jvm.ClassDescriptor{main}, carriers...), traps, nanHelper) {
		populateConstantPoolRequests(c)
	}

	planned, reused := planner.Stats()
	return &Output{
		MainClass: main, CarrierClasses: carriers, TrapsHelper: traps, NaNHelper: nanHelper,
		CarrierClassesPlanned: planned, CarrierClassesReused: reused,
	}, nil
}

func validateLimits(module *wasm.Module) error {
	for i, m := range module.Memories {
		if uint64(m.Min)*wasm.PageSize > MaxLinearSize {
			return diag.New(diag.KindLimitExceeded, "assemble", fmt.Sprintf("memory %d: minimum %d pages projects past the 2^31-1 byte limit", i, m.Min))
		}
		if m.Max != nil && uint64(*m.Max)*wasm.PageSize > MaxLinearSize {
			return diag.New(diag.KindLimitExceeded, "assemble", fmt.Sprintf("memory %d: maximum %d pages projects past the 2^31-1 byte limit", i, *m.Max))
		}
	}
	for i, t := range module.Tables {
		if uint64(t.Min) > MaxLinearSize {
			return diag.New(diag.KindLimitExceeded, "assemble", fmt.Sprintf("table %d: minimum %d elements exceeds the 2^31-1 element limit", i, t.Min))
		}
		if t.Max != nil && uint64(*t.Max) > MaxLinearSize {
			return diag.New(diag.KindLimitExceeded, "assemble", fmt.Sprintf("table %d: maximum %d elements exceeds the 2^31-1 element limit", i, *t.Max))
		}
	}
	return nil
}

// buildCarrierClasses builds exactly one jvm.ClassDescriptor per distinct
// carrier class name the Planner assigned, across both imported and
// defined memories/tables/globals: internal/layout's shape dedup means
// several indices can legitimately share one class name, and this must
// build each such class exactly once regardless.
func buildCarrierClasses(module *wasm.Module, env *moduleEnv) []*jvm.ClassDescriptor {
	built := map[string]*jvm.ClassDescriptor{}
	var order []string
	ensure := func(name string, build func() *jvm.ClassDescriptor) {
		if _, ok := built[name]; ok {
			return
		}
		built[name] = build()
		order = append(order, name)
	}

	for i := range module.Memories {
		idx := uint32(i)
		name := env.MemoryCarrierClass(idx)
		ensure(name, func() *jvm.ClassDescriptor { return emitter.BuildMemoryCarrier(name) })
	}
	for i := range module.Tables {
		idx := uint32(i)
		name := env.TableCarrierClass(idx)
		elem := env.TableElemType(idx)
		ensure(name, func() *jvm.ClassDescriptor { return emitter.BuildTableCarrier(name, elem) })
	}
	for i, g := range module.Globals {
		idx := uint32(i)
		name := env.GlobalCarrierClass(idx)
		t := env.GlobalType(idx)
		mutable := g.Mutable
		ensure(name, func() *jvm.ClassDescriptor { return emitter.BuildGlobalCarrier(name, t, mutable) })
	}

	out := make([]*jvm.ClassDescriptor, len(order))
	for i, name := range order {
		out[i] = built[name]
	}
	return out
}

func declareFields(main *jvm.ClassDescriptor, module *wasm.Module, env *moduleEnv) {
	for i := range module.Memories {
		idx := uint32(i)
		main.AddField(jvm.FieldDescriptor{Name: env.MemoryCarrierField(idx), Type: jvm.Ref(env.MemoryCarrierClass(idx)), AccessFlags: jvm.AccPublic})
	}
	for i := range module.Tables {
		idx := uint32(i)
		main.AddField(jvm.FieldDescriptor{Name: env.TableCarrierField(idx), Type: jvm.Ref(env.TableCarrierClass(idx)), AccessFlags: jvm.AccPublic})
	}
	for i := range module.Globals {
		idx := uint32(i)
		main.AddField(jvm.FieldDescriptor{Name: env.GlobalCarrierField(idx), Type: jvm.Ref(env.GlobalCarrierClass(idx)), AccessFlags: jvm.AccPublic})
	}
	for _, f := range env.importFnField {
		main.AddField(jvm.FieldDescriptor{Name: f, Type: jvm.MethodHandleType, AccessFlags: jvm.AccPublic})
	}
	for _, idx := range sortedKeys(env.definedFnField) {
		main.AddField(jvm.FieldDescriptor{Name: env.definedFnField[idx], Type: jvm.MethodHandleType, AccessFlags: jvm.AccPublic})
	}
	main.AddField(jvm.FieldDescriptor{Name: exportsFieldName, Type: jvm.MapType, AccessFlags: jvm.AccPublic | jvm.AccFinal})
}

func sortedKeys(m map[uint32]string) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func nextLocal(n *int) int {
	v := *n
	*n++
	return v
}

// buildConstructor emits the main class's `<init>(Map imports)` body in
// spec.md §4.7's exact step order, plus the one ambient step (binding
// defined-function MethodHandle fields) that order leaves implicit but a
// ref.func/export/element-segment/global-initializer occurring before a
// later defined function is otherwise compiled requires.
func buildConstructor(module *wasm.Module, env *moduleEnv, methodNames, methodDescs map[uint32]string) (*jvm.MethodInfo, error) {
	asm := jvmasm.New()
	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileInvoke(jvm.INVOKESPECIAL, "java/lang/Object", "<init>", "()V")

	next := importsParamLocal + 1

	// Step 1 (part): allocate carrier instances for defined memories/tables.
	for i, m := range module.Memories {
		if i < module.ImportedMemories {
			continue
		}
		allocMemoryCarrier(asm, env, uint32(i), m, int64(nextLocal(&next)), int64(nextLocal(&next)))
	}
	for i, t := range module.Tables {
		if i < module.ImportedTables {
			continue
		}
		allocTableCarrier(asm, env, uint32(i), t, int64(nextLocal(&next)), int64(nextLocal(&next)), int64(nextLocal(&next)))
	}

	// Step 2: bind imports, in declaration order, tracking each kind's
	// running index within its own combined index space (spec.md §3
	// "imports first, in declaration order").
	var funcN, tableN, memN, globalN uint32
	for _, imp := range module.Imports {
		key := binder.CanonicalKey(imp.Module, imp.Name)
		switch imp.Kind {
		case wasm.ExternKindFunc:
			binder.BindFunctionImport(asm, env.MainClassName(), importsParamLocal, key, env.ImportedFunctionHandleField(funcN))
			funcN++
		case wasm.ExternKindMemory:
			binder.BindMemoryImport(asm, env.MainClassName(), env.MemoryCarrierClass(memN), importsParamLocal, key, env.MemoryCarrierField(memN), nextLocal(&next), nextLocal(&next))
			memN++
		case wasm.ExternKindTable:
			binder.BindTableImport(asm, env.MainClassName(), env.TableCarrierClass(tableN), env.TableElemType(tableN), importsParamLocal, key, env.TableCarrierField(tableN), nextLocal(&next), nextLocal(&next))
			tableN++
		case wasm.ExternKindGlobal:
			binder.BindGlobalImport(asm, env.MainClassName(), env.GlobalCarrierClass(globalN), env.GlobalType(globalN), importsParamLocal, key, env.GlobalCarrierField(globalN), nextLocal(&next))
			globalN++
		}
	}

	// Ambient step: populate defined-function MethodHandle fields, so any
	// ref.func reachable from a global initializer or element segment
	// below already has one (spec.md §4.6's function-handle uniformity).
	for _, idx := range sortedKeys(env.definedFnField) {
		name, ok := methodNames[idx]
		if !ok {
			return nil, diag.New(diag.KindInvariant, "assemble", fmt.Sprintf("func %d needs a bound handle but was never compiled", idx))
		}
		bindDefinedFunctionHandle(asm, env, idx, name, methodDescs[idx])
	}

	// Step 1 (part) + step 3: defined globals are allocated and
	// initialized in the same NEW/<init> sequence, since a global
	// carrier's value is a constructor argument, never a field settable
	// after the fact (internal/emitter/global.go's AccFinal design).
	for i, g := range module.Globals {
		if i < module.ImportedGlobals {
			continue
		}
		allocGlobalCarrier(asm, env, uint32(i), g)
	}

	// Step 4: initialize data and element segments.
	for _, seg := range module.DataSegments {
		initDataSegment(asm, env, seg, &next)
	}
	for _, seg := range module.ElementSegments {
		initElementSegment(asm, env, seg, &next)
	}

	// Step 5: invoke the start function if present.
	if module.StartFunc != nil {
		invokeStart(asm, env, *module.StartFunc)
	}

	// Step 6: publish the exports map.
	binder.BuildExportsMap(asm, env, exportsFieldName, module.Exports, nextLocal(&next))

	asm.CompileStandAlone(jvm.RETURN)
	code, err := asm.Assemble()
	if err != nil {
		return nil, diag.New(diag.KindInvariant, "assemble", err.Error())
	}
	return &jvm.MethodInfo{
		Name:        "<init>",
		ParamTypes:  []jvm.Type{jvm.MapType},
		ResultType:  jvm.Void,
		AccessFlags: jvm.AccPublic,
		MaxLocals:   next,
		MaxStack:    maxConstructorStack,
		Code:        code,
	}, nil
}

func allocMemoryCarrier(asm *jvmasm.Assembler, env *moduleEnv, idx uint32, mem wasm.Memory, carrierLocal, arrLocal int64) {
	class := env.MemoryCarrierClass(idx)
	size := int64(mem.Min) * wasm.PageSize

	asm.CompileClassOp(jvm.NEW, class)
	asm.CompileStandAlone(jvm.DUP)
	asm.CompileInvoke(jvm.INVOKESPECIAL, class, "<init>", "()V")
	asm.CompileIntImmediate(jvm.ASTORE, carrierLocal)

	asm.CompileIntImmediate(jvm.ICONST, size)
	asm.CompileIntImmediate(jvm.NEWARRAY, int64(jvm.KindByte))
	asm.CompileIntImmediate(jvm.ASTORE, arrLocal)

	asm.CompileIntImmediate(jvm.ALOAD, carrierLocal)
	asm.CompileIntImmediate(jvm.ALOAD, arrLocal)
	asm.CompileFieldAccess(jvm.PUTFIELD, class, "memory", jvm.ByteArrayType)

	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileIntImmediate(jvm.ALOAD, carrierLocal)
	asm.CompileFieldAccess(jvm.PUTFIELD, env.MainClassName(), env.MemoryCarrierField(idx), jvm.Ref(class))
}

func allocTableCarrier(asm *jvmasm.Assembler, env *moduleEnv, idx uint32, tbl wasm.Table, carrierLocal, arrLocal, typesArrLocal int64) {
	class := env.TableCarrierClass(idx)
	elem := env.TableElemType(idx)

	asm.CompileClassOp(jvm.NEW, class)
	asm.CompileStandAlone(jvm.DUP)
	asm.CompileInvoke(jvm.INVOKESPECIAL, class, "<init>", "()V")
	asm.CompileIntImmediate(jvm.ASTORE, carrierLocal)

	asm.CompileIntImmediate(jvm.ICONST, int64(tbl.Min))
	asm.CompileClassOp(jvm.ANEWARRAY, elem.ClassName)
	asm.CompileIntImmediate(jvm.ASTORE, arrLocal)

	asm.CompileIntImmediate(jvm.ALOAD, carrierLocal)
	asm.CompileIntImmediate(jvm.ALOAD, arrLocal)
	asm.CompileFieldAccess(jvm.PUTFIELD, class, "table", jvm.ArrayOf(elem))

	// types[] starts entirely noTypeIndex (-1, emitter.noTypeIndex):
	// initElementSegment below overwrites one entry per populated slot, so
	// any slot no active element segment reaches stays permanently
	// mismatched against every real call_indirect type index.
	asm.CompileIntImmediate(jvm.ICONST, int64(tbl.Min))
	asm.CompileIntImmediate(jvm.NEWARRAY, int64(jvm.KindInt))
	asm.CompileIntImmediate(jvm.ASTORE, typesArrLocal)
	asm.CompileIntImmediate(jvm.ALOAD, typesArrLocal)
	asm.CompileIntImmediate(jvm.ICONST, -1)
	asm.CompileInvoke(jvm.INVOKESTATIC, "java/util/Arrays", "fill", "([II)V")

	asm.CompileIntImmediate(jvm.ALOAD, carrierLocal)
	asm.CompileIntImmediate(jvm.ALOAD, typesArrLocal)
	asm.CompileFieldAccess(jvm.PUTFIELD, class, "types", jvm.ArrayOf(jvm.Int))

	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileIntImmediate(jvm.ALOAD, carrierLocal)
	asm.CompileFieldAccess(jvm.PUTFIELD, env.MainClassName(), env.TableCarrierField(idx), jvm.Ref(class))
}

// allocGlobalCarrier constructs and binds one defined global's carrier in
// a single expression: `this` is pushed first (for the trailing
// PUTFIELD) and stays untouched beneath new/dup/<value>/<init>, which
// nets to exactly the one freshly constructed carrier reference
// regardless of whether the global's JVM type is one or two stack slots
// — avoiding the SWAP-based ordering internal/binder.BindGlobalImport
// used to need fixing for the same reason (a category-1-only SWAP is
// illegal bytecode against a long/double value).
func allocGlobalCarrier(asm *jvmasm.Assembler, env *moduleEnv, idx uint32, g wasm.Global) {
	class := env.GlobalCarrierClass(idx)
	t := env.GlobalType(idx)

	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileClassOp(jvm.NEW, class)
	asm.CompileStandAlone(jvm.DUP)
	emitConstantExpr(asm, env, g.Init)
	asm.CompileInvoke(jvm.INVOKESPECIAL, class, "<init>", jvm.MethodDescriptor([]jvm.Type{t}, jvm.Void))
	asm.CompileFieldAccess(jvm.PUTFIELD, env.MainClassName(), env.GlobalCarrierField(idx), jvm.Ref(class))
}

// buildExportsGetter emits `Map exports()`, the main class's one ambient
// public accessor for the map Step 6 of buildConstructor populates
// (spec.md §6 "the constructor populates an exports mapping" — published
// through this getter rather than a bare public field, since the field
// itself is final and the getter is what a host actually calls).
func buildExportsGetter(mainClass string) jvm.MethodInfo {
	asm := jvmasm.New()
	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileFieldAccess(jvm.GETFIELD, mainClass, exportsFieldName, jvm.MapType)
	asm.CompileStandAlone(jvm.ARETURN)
	code, err := asm.Assemble()
	if err != nil {
		panic(err)
	}
	return jvm.MethodInfo{
		Name:        "exports",
		ParamTypes:  nil,
		ResultType:  jvm.MapType,
		AccessFlags: jvm.AccPublic,
		MaxLocals:   1,
		MaxStack:    1,
		Code:        code,
	}
}

// populateConstantPoolRequests scans every method c hosts and records the
// constant-pool entries its bytecode references (spec.md §6: a
// ClassDescriptor is "ready for a downstream serializer", which needs
// this list rather than re-deriving it from raw instructions).
func populateConstantPoolRequests(c *jvm.ClassDescriptor) {
	for _, m := range c.Methods {
		for _, in := range m.Code {
			switch in.Op {
			case jvm.LDC:
				if in.ConstRef != nil {
					c.RequestConstant(*in.ConstRef)
				}
			case jvm.NEW, jvm.ANEWARRAY, jvm.CHECKCAST, jvm.INSTANCEOF:
				c.RequestConstant(jvm.ClassConst(in.ClassOperand))
			case jvm.GETFIELD, jvm.PUTFIELD, jvm.GETSTATIC, jvm.PUTSTATIC:
				c.RequestConstant(jvm.FieldRef(in.FieldOwner, in.FieldName, in.FieldType))
			case jvm.INVOKESTATIC, jvm.INVOKEVIRTUAL, jvm.INVOKESPECIAL, jvm.INVOKEINTERFACE:
				c.RequestConstant(jvm.MethodRefConst(in.MethodOwner, in.MethodName, in.MethodDescriptor))
			}
		}
	}
}
