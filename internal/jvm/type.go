// Package jvm models the JVM-side shapes this translator emits: type
// descriptors, a symbolic instruction set, and class/field/method
// descriptors ready for a downstream serializer (spec.md §1 places
// "class-file serialization primitives" out of scope — this package is
// the data contract with that collaborator, not an encoder).
package jvm

import "strings"

// Type is a JVM type usable in a field or method descriptor.
type Type struct {
	// Kind is one of the primitive letters below, or KindRef/KindArray.
	Kind byte
	// ClassName is set when Kind == KindRef: the internal (slash-separated)
	// binary class name, e.g. "java/lang/Object".
	ClassName string
	// Elem is set when Kind == KindArray: the element type.
	Elem *Type
}

const (
	KindInt     = 'I'
	KindLong    = 'J'
	KindFloat   = 'F'
	KindDouble  = 'D'
	KindBoolean = 'Z'
	KindByte    = 'B'
	KindVoid    = 'V'
	KindRef     = 'L'
	KindArray   = '['
)

var (
	Int     = Type{Kind: KindInt}
	Long    = Type{Kind: KindLong}
	Float   = Type{Kind: KindFloat}
	Double  = Type{Kind: KindDouble}
	Boolean = Type{Kind: KindBoolean}
	Byte    = Type{Kind: KindByte}
	Void    = Type{Kind: KindVoid}
)

// Ref constructs a reference type for the given internal class name.
func Ref(className string) Type {
	return Type{Kind: KindRef, ClassName: className}
}

// ArrayOf constructs a single-dimension array type.
func ArrayOf(elem Type) Type {
	e := elem
	return Type{Kind: KindArray, Elem: &e}
}

// Well-known reference types this translator's carrier and helper classes
// use (spec.md §6 carrier conventions, §4.1 boxed multi-value arrays).
var (
	ObjectType        = Ref("java/lang/Object")
	ObjectArrayType   = ArrayOf(ObjectType)
	ByteArrayType     = ArrayOf(Byte)
	BoxedIntegerType  = Ref("java/lang/Integer")
	BoxedLongType     = Ref("java/lang/Long")
	BoxedFloatType    = Ref("java/lang/Float")
	BoxedDoubleType   = Ref("java/lang/Double")
	MethodHandleType  = Ref("java/lang/invoke/MethodHandle")
	MapType           = Ref("java/util/Map")
	LinkedHashMapType = Ref("java/util/LinkedHashMap")
)

// Descriptor renders the JVM field-descriptor encoding of t, e.g. "I",
// "[B", "Ljava/lang/Object;".
func (t Type) Descriptor() string {
	switch t.Kind {
	case KindArray:
		return "[" + t.Elem.Descriptor()
	case KindRef:
		return "L" + t.ClassName + ";"
	default:
		return string(t.Kind)
	}
}

// Slots reports how many JVM local/stack slots a value of type t occupies:
// 2 for long/double, 1 otherwise (spec.md §4.1).
func (t Type) Slots() int {
	if t.Kind == KindLong || t.Kind == KindDouble {
		return 2
	}
	return 1
}

// IsReference reports whether t is a reference type (array or class).
func (t Type) IsReference() bool {
	return t.Kind == KindRef || t.Kind == KindArray
}

// MethodDescriptor renders the JVM method-descriptor encoding, e.g.
// "(II)I" or "([Ljava/lang/Object;)Ljava/lang/Object;".
func MethodDescriptor(params []Type, result Type) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range params {
		b.WriteString(p.Descriptor())
	}
	b.WriteByte(')')
	b.WriteString(result.Descriptor())
	return b.String()
}
