package jvm

// ConstantPoolKind enumerates the constant-pool entry kinds this
// translator ever references. Named after the per-kind slices in
// jacobin's `ParsedClass` (other_examples artipop-jacobin
// classloader.go: classRefs, fieldRefs, methodRefs, intConsts,
// longConsts, floats, doubles, utf8Refs...) — this is the "request" side
// of that same taxonomy, made before a constant pool exists rather than
// recovered from one after parsing.
type ConstantPoolKind byte

const (
	CPUtf8 ConstantPoolKind = iota
	CPClass
	CPNameAndType
	CPFieldRef
	CPMethodRef
	CPInterfaceMethodRef
	CPInteger
	CPLong
	CPFloat
	CPDouble
	CPString
	CPMethodHandle
)

// ConstantPoolRequest is a value-comparable request for a constant-pool
// entry. Classes accumulate these in ClassDescriptor.ConstantPoolRequests
// (deduplicated) rather than pre-assigning indices, since index
// assignment belongs to the serializer collaborator (spec.md §1).
type ConstantPoolRequest struct {
	Kind ConstantPoolKind

	// Utf8/Class/String value or Class/NameAndType owner name.
	Text string

	// FieldRef/MethodRef/InterfaceMethodRef.
	Owner      string
	MemberName string
	MemberDesc string

	// Integer/Float.
	I32 int32
	F32 float32
	// Long/Double.
	I64 int64
	F64 float64
}

// FieldRef builds a CPFieldRef request.
func FieldRef(owner, name string, t Type) ConstantPoolRequest {
	return ConstantPoolRequest{Kind: CPFieldRef, Owner: owner, MemberName: name, MemberDesc: t.Descriptor()}
}

// MethodRefConst builds a CPMethodRef request.
func MethodRefConst(owner, name, descriptor string) ConstantPoolRequest {
	return ConstantPoolRequest{Kind: CPMethodRef, Owner: owner, MemberName: name, MemberDesc: descriptor}
}

// ClassConst builds a CPClass request.
func ClassConst(internalName string) ConstantPoolRequest {
	return ConstantPoolRequest{Kind: CPClass, Text: internalName}
}

// IntegerConst builds a CPInteger request, used for i32 constants LDC
// can't fold into iconst/bipush/sipush.
func IntegerConst(v int32) ConstantPoolRequest {
	return ConstantPoolRequest{Kind: CPInteger, I32: v}
}

// LongConst builds a CPLong request.
func LongConst(v int64) ConstantPoolRequest {
	return ConstantPoolRequest{Kind: CPLong, I64: v}
}

// FloatConst builds a CPFloat request.
func FloatConst(v float32) ConstantPoolRequest {
	return ConstantPoolRequest{Kind: CPFloat, F32: v}
}

// DoubleConst builds a CPDouble request.
func DoubleConst(v float64) ConstantPoolRequest {
	return ConstantPoolRequest{Kind: CPDouble, F64: v}
}

// StringConst builds a CPString request, used for the import/export name
// literals internal/binder's generated constructor loads via LDC.
func StringConst(v string) ConstantPoolRequest {
	return ConstantPoolRequest{Kind: CPString, Text: v}
}
