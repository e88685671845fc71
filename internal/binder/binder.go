// Package binder implements the Import/Export Binder (spec.md §4.6): the
// bytecode sequences, inserted into the main class's constructor by
// internal/assemble, that bind a module's imports from the caller-
// supplied name→object map and publish its exports as a second map on
// the way out.
//
// A function import's map value already IS the MethodHandle compiled
// code calls (spec.md §4.6 "a direct method-handle for functions"), so
// binding one is a single CHECKCAST-and-PUTFIELD. A memory/table/global
// import instead supplies a plain host object exposing the conventional
// `memory`/`table`/`global` field (spec.md §6) under a class this
// translator never sees at translation time — the binder recovers that
// field's value with java.lang.invoke reflection (MethodHandles.
// publicLookup().findGetter(...)) rather than assuming any particular
// host class, then wraps it in an ordinary instance of this
// translator's own carrier class (internal/emitter), so every later
// GETFIELD/PUTFIELD internal/translator emits reaches through a carrier
// of a class it actually knows, regardless of whether the underlying
// memory/table/global was imported or defined.
package binder

import (
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/jvmasm"
	"github.com/wasm2jvm/translator/internal/wasm"
)

const (
	objectClass = "java/lang/Object"
	classClass  = "java/lang/Class"
	lookupClass = "java/lang/invoke/MethodHandles$Lookup"
)

var classType = jvm.Ref(classClass)

// CanonicalKey joins a WASM import/export namespace and name into the
// single string both the imports map and the exports map key entries by
// (spec.md §4.6 "canonicalized to a single string"; spec.md §8 scenario
// 6 spells the convention out literally: module "env", name "g" →
// "env.g").
func CanonicalKey(module, name string) string {
	return module + "." + name
}

// emitMapGet leaves imports.get(key) on the stack, cast to no particular
// type yet — every caller below immediately CHECKCASTs or reflects on
// the result.
func emitMapGet(asm *jvmasm.Assembler, importsLocal int, key string) {
	asm.CompileIntImmediate(jvm.ALOAD, int64(importsLocal))
	asm.CompileConstantPoolLoad(jvm.StringConst(key))
	asm.CompileInvoke(jvm.INVOKEINTERFACE, jvm.MapType.ClassName, "get", "(Ljava/lang/Object;)Ljava/lang/Object;")
}

// BindFunctionImport emits `this.fieldName = (MethodHandle) imports.get(key)`
// (spec.md §4.6): no reflection needed, since a function import's map
// value already is the bound handle.
func BindFunctionImport(asm *jvmasm.Assembler, mainClass string, importsLocal int, key, fieldName string) {
	asm.CompileIntImmediate(jvm.ALOAD, 0)
	emitMapGet(asm, importsLocal, key)
	asm.CompileClassOp(jvm.CHECKCAST, jvm.MethodHandleType.ClassName)
	asm.CompileFieldAccess(jvm.PUTFIELD, mainClass, fieldName, jvm.MethodHandleType)
}

// emitTypeClassLiteral pushes the java.lang.Class literal for t: a
// GETSTATIC of the boxed wrapper's TYPE field for a primitive (the only
// legal way to reify a primitive Class constant in bytecode — unlike a
// reference or array type, `int.class` is not a loadable CONSTANT_Class
// entry), or an LDC Class constant otherwise.
func emitTypeClassLiteral(asm *jvmasm.Assembler, t jvm.Type) {
	switch t.Kind {
	case jvm.KindInt:
		asm.CompileFieldAccess(jvm.GETSTATIC, "java/lang/Integer", "TYPE", classType)
	case jvm.KindLong:
		asm.CompileFieldAccess(jvm.GETSTATIC, "java/lang/Long", "TYPE", classType)
	case jvm.KindFloat:
		asm.CompileFieldAccess(jvm.GETSTATIC, "java/lang/Float", "TYPE", classType)
	case jvm.KindDouble:
		asm.CompileFieldAccess(jvm.GETSTATIC, "java/lang/Double", "TYPE", classType)
	case jvm.KindArray:
		asm.CompileConstantPoolLoad(jvm.ClassConst(t.Descriptor()))
	default:
		asm.CompileConstantPoolLoad(jvm.ClassConst(t.ClassName))
	}
}

// emitAdaptFromObject converts the java.lang.Object MethodHandle.invoke
// just returned (boxed per its polymorphic-signature adaptation, spec.md
// §9 "reflective field/method-handle lookup... pushes a small cost onto
// module construction") down to t's own unboxed shape.
func emitAdaptFromObject(asm *jvmasm.Assembler, t jvm.Type) {
	switch t.Kind {
	case jvm.KindInt:
		asm.CompileClassOp(jvm.CHECKCAST, "java/lang/Integer")
		asm.CompileInvoke(jvm.INVOKEVIRTUAL, "java/lang/Integer", "intValue", "()I")
	case jvm.KindLong:
		asm.CompileClassOp(jvm.CHECKCAST, "java/lang/Long")
		asm.CompileInvoke(jvm.INVOKEVIRTUAL, "java/lang/Long", "longValue", "()J")
	case jvm.KindFloat:
		asm.CompileClassOp(jvm.CHECKCAST, "java/lang/Float")
		asm.CompileInvoke(jvm.INVOKEVIRTUAL, "java/lang/Float", "floatValue", "()F")
	case jvm.KindDouble:
		asm.CompileClassOp(jvm.CHECKCAST, "java/lang/Double")
		asm.CompileInvoke(jvm.INVOKEVIRTUAL, "java/lang/Double", "doubleValue", "()D")
	case jvm.KindArray:
		asm.CompileClassOp(jvm.CHECKCAST, t.Descriptor())
	default:
		asm.CompileClassOp(jvm.CHECKCAST, t.ClassName)
	}
}

// emitReflectiveFieldLoad leaves hostLocal's own fieldName field (typed
// fieldType) on the stack, found via MethodHandles.publicLookup().
// findGetter(hostLocal.getClass(), fieldName, fieldType) and read with
// MethodHandle.invoke (the polymorphic, asType-adapting form — not
// invokeExact, since the receiver's own class is only known at runtime
// and can never appear in the call site's own symbolic descriptor).
func emitReflectiveFieldLoad(asm *jvmasm.Assembler, fieldName string, fieldType jvm.Type, hostLocal int) {
	asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/invoke/MethodHandles", "publicLookup", "()L"+lookupClass+";")
	asm.CompileIntImmediate(jvm.ALOAD, int64(hostLocal))
	asm.CompileInvoke(jvm.INVOKEVIRTUAL, objectClass, "getClass", "()L"+classClass+";")
	asm.CompileConstantPoolLoad(jvm.StringConst(fieldName))
	emitTypeClassLiteral(asm, fieldType)
	asm.CompileInvoke(jvm.INVOKEVIRTUAL, lookupClass, "findGetter",
		"(Ljava/lang/Class;Ljava/lang/String;Ljava/lang/Class;)Ljava/lang/invoke/MethodHandle;")
	asm.CompileIntImmediate(jvm.ALOAD, int64(hostLocal))
	asm.CompileInvoke(jvm.INVOKEVIRTUAL, jvm.MethodHandleType.ClassName, "invoke", "(Ljava/lang/Object;)Ljava/lang/Object;")
	emitAdaptFromObject(asm, fieldType)
}

// carrierField names one field bindCarrierImport reflectively copies from
// the host import object into the freshly allocated carrier instance.
type carrierField struct {
	name string
	typ  jvm.Type
}

// bindCarrierImport binds an imported memory or table: it allocates a
// fresh instance of carrierClass (internal/emitter's no-arg-constructor,
// mutable-field shape) and populates each of fields by reflectively
// reading the host import object's same-named field. A table carrier
// lists two fields this way (`table` and `types`, spec.md §4.3's
// call_indirect signature-identity token) so an imported table's host
// object supplies the same per-slot type-index tokens a defined table's
// element segments populate, rather than leaving call_indirect through
// an imported table unable to ever detect a mismatch.
//
// carrierLocal/hostLocal are caller-allocated scratch locals (internal/
// assemble tracks one running counter across an entire constructor body,
// the same way internal/translator's allocTemp does within one function
// body) — left explicit here rather than self-allocated, since a single
// constructor binds many imports one after another and the locals can be
// reused once each binding finishes.
func bindCarrierImport(asm *jvmasm.Assembler, mainClass, carrierClass string, importsLocal int, key, mainField string, fields []carrierField, hostLocal, carrierLocal int) {
	asm.CompileClassOp(jvm.NEW, carrierClass)
	asm.CompileStandAlone(jvm.DUP)
	asm.CompileInvoke(jvm.INVOKESPECIAL, carrierClass, "<init>", "()V")
	asm.CompileIntImmediate(jvm.ASTORE, int64(carrierLocal))

	emitMapGet(asm, importsLocal, key)
	asm.CompileIntImmediate(jvm.ASTORE, int64(hostLocal))

	for _, f := range fields {
		asm.CompileIntImmediate(jvm.ALOAD, int64(carrierLocal))
		emitReflectiveFieldLoad(asm, f.name, f.typ, hostLocal)
		asm.CompileFieldAccess(jvm.PUTFIELD, carrierClass, f.name, f.typ)
	}

	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileIntImmediate(jvm.ALOAD, int64(carrierLocal))
	asm.CompileFieldAccess(jvm.PUTFIELD, mainClass, mainField, jvm.Ref(carrierClass))
}

// BindMemoryImport binds an imported memory into a MemoryCarrier
// instance (internal/emitter.BuildMemoryCarrier). A grown imported
// memory reallocates a new array local to this module (internal/
// emitter's buildMemoryGrow via System.arraycopy); that growth never
// writes back through to the host's own field, a limitation spec.md §5
// leaves for the embedder to manage rather than this translator to
// repair.
func BindMemoryImport(asm *jvmasm.Assembler, mainClass, carrierClass string, importsLocal int, key, mainField string, hostLocal, carrierLocal int) {
	fields := []carrierField{{"memory", jvm.ByteArrayType}}
	bindCarrierImport(asm, mainClass, carrierClass, importsLocal, key, mainField, fields, hostLocal, carrierLocal)
}

// BindTableImport binds an imported table into a TableCarrier instance
// (internal/emitter.BuildTableCarrier), elemType matching the table's
// declared reference type. The host import object must expose both a
// `table` field (the callable/reference values) and a parallel `types`
// int[] field (each slot's WASM type-index token) for call_indirect's
// signature-identity check to cover values reached through this table.
func BindTableImport(asm *jvmasm.Assembler, mainClass, carrierClass string, elemType jvm.Type, importsLocal int, key, mainField string, hostLocal, carrierLocal int) {
	fields := []carrierField{
		{"table", jvm.ArrayOf(elemType)},
		{"types", jvm.ArrayOf(jvm.Int)},
	}
	bindCarrierImport(asm, mainClass, carrierClass, importsLocal, key, mainField, fields, hostLocal, carrierLocal)
}

// BindGlobalImport binds an imported global into a GlobalCarrier
// instance (internal/emitter.BuildGlobalCarrier). Unlike memory/table,
// a global carrier's sole field may carry AccFinal (spec.md §4.5), so
// its value must be supplied to the one-argument constructor directly
// rather than assigned afterwards via an external PUTFIELD — the
// reflective read therefore happens after `new`/`dup` and before
// `invokespecial`, leaving the value on the stack for <init>(T) to consume.
func BindGlobalImport(asm *jvmasm.Assembler, mainClass, carrierClass string, fieldType jvm.Type, importsLocal int, key, mainField string, hostLocal int) {
	emitMapGet(asm, importsLocal, key)
	asm.CompileIntImmediate(jvm.ASTORE, int64(hostLocal))

	// this (pushed first, for the trailing PUTFIELD) stays untouched
	// beneath new/dup/<value>/<init>, which nets to exactly one value
	// (the freshly constructed carrier) regardless of whether fieldType
	// is a one- or two-slot JVM type — unlike a SWAP-based ordering, this
	// needs no category-1-only SWAP that a long/double-typed global's
	// two-slot value would make illegal bytecode.
	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileClassOp(jvm.NEW, carrierClass)
	asm.CompileStandAlone(jvm.DUP)
	emitReflectiveFieldLoad(asm, "global", fieldType, hostLocal)
	asm.CompileInvoke(jvm.INVOKESPECIAL, carrierClass, "<init>", jvm.MethodDescriptor([]jvm.Type{fieldType}, jvm.Void))

	asm.CompileFieldAccess(jvm.PUTFIELD, mainClass, mainField, jvm.Ref(carrierClass))
}

// ExportNaming supplies the whole-module naming facts export-map
// construction needs. Deliberately narrower than and independent of
// translator.Env (this package never imports internal/translator, the
// same way internal/translator never imports internal/binder);
// internal/assemble is the only package that builds both against the
// same underlying internal/layout tables.
type ExportNaming interface {
	MainClassName() string
	// FunctionHandleField returns the bound-MethodHandle field backing
	// funcIdx regardless of whether it's imported or defined (spec.md
	// §4.6's function-handle uniformity) — an export can name either, and
	// the exports map must publish whichever field the constructor
	// actually populated for that index.
	FunctionHandleField(funcIdx uint32) string
	MemoryCarrierField(memIdx uint32) string
	MemoryCarrierClass(memIdx uint32) string
	TableCarrierField(tableIdx uint32) string
	TableCarrierClass(tableIdx uint32) string
	GlobalCarrierField(globalIdx uint32) string
	GlobalCarrierClass(globalIdx uint32) string
}

// BuildExportsMap emits the constructor's final step (spec.md §4.7
// "publish the exports map"): a java.util.LinkedHashMap, insertion-
// ordered so a host iterating the published map sees export declaration
// order, with one entry per export (spec.md §4.6 "values are carrier
// objects with the conventional field names... the same carrier class is
// reused" — exactly the fields this main class's own constructor already
// populated for every memory/table/global/function, imported or
// defined), stored to exportsField.
func BuildExportsMap(asm *jvmasm.Assembler, naming ExportNaming, exportsField string, exports []wasm.Export, mapLocal int) {
	asm.CompileClassOp(jvm.NEW, jvm.LinkedHashMapType.ClassName)
	asm.CompileStandAlone(jvm.DUP)
	asm.CompileInvoke(jvm.INVOKESPECIAL, jvm.LinkedHashMapType.ClassName, "<init>", "()V")
	asm.CompileIntImmediate(jvm.ASTORE, int64(mapLocal))

	for _, exp := range exports {
		asm.CompileIntImmediate(jvm.ALOAD, int64(mapLocal))
		asm.CompileConstantPoolLoad(jvm.StringConst(exp.Name))
		emitExportValue(asm, naming, exp)
		asm.CompileInvoke(jvm.INVOKEINTERFACE, jvm.MapType.ClassName, "put",
			"(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;")
		asm.CompileStandAlone(jvm.POP) // discard Map.put's previous-value return
	}

	asm.CompileIntImmediate(jvm.ALOAD, 0)
	asm.CompileIntImmediate(jvm.ALOAD, int64(mapLocal))
	asm.CompileFieldAccess(jvm.PUTFIELD, naming.MainClassName(), exportsField, jvm.MapType)
}

func emitExportValue(asm *jvmasm.Assembler, naming ExportNaming, exp wasm.Export) {
	asm.CompileIntImmediate(jvm.ALOAD, 0)
	switch exp.Kind {
	case wasm.ExternKindFunc:
		field := naming.FunctionHandleField(exp.Index)
		asm.CompileFieldAccess(jvm.GETFIELD, naming.MainClassName(), field, jvm.MethodHandleType)
	case wasm.ExternKindMemory:
		field, class := naming.MemoryCarrierField(exp.Index), naming.MemoryCarrierClass(exp.Index)
		asm.CompileFieldAccess(jvm.GETFIELD, naming.MainClassName(), field, jvm.Ref(class))
	case wasm.ExternKindTable:
		field, class := naming.TableCarrierField(exp.Index), naming.TableCarrierClass(exp.Index)
		asm.CompileFieldAccess(jvm.GETFIELD, naming.MainClassName(), field, jvm.Ref(class))
	case wasm.ExternKindGlobal:
		field, class := naming.GlobalCarrierField(exp.Index), naming.GlobalCarrierClass(exp.Index)
		asm.CompileFieldAccess(jvm.GETFIELD, naming.MainClassName(), field, jvm.Ref(class))
	}
}
