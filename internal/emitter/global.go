package emitter

import "github.com/wasm2jvm/translator/internal/jvm"

// BuildGlobalCarrier emits the ClassDescriptor for one defined global
// (spec.md §4.5, §6): a single field named `global`, typed per
// fieldType, with no getter/setter methods of its own — internal/
// translator/calls.go's compileGlobalGet/compileGlobalSet already read
// and write this field directly via GETFIELD/PUTFIELD, the same way it
// reaches through a memory or table carrier's own field to call its
// accessor methods, except a global has no bounds check or resize logic
// worth hiding behind one.
//
// An immutable global's field carries AccFinal (spec.md §4.5 "immutable
// globals omit the setter emission" — read here as "the field itself
// never becomes writable", not as an accessor-method distinction, since
// internal/layout.Shape already makes a mutable and an immutable global
// of the same value type structurally distinct carrier classes purely
// off this AccessFlags difference). A final field's only legal
// assignment is inside its own class's <init>, so every global carrier
// (mutable or not) takes its initial value as a constructor argument
// rather than the no-arg-constructor-plus-external-PUTFIELD shape
// memory/table carriers use — internal/assemble evaluates the global's
// initializer expression (spec.md §4.7) and passes the result straight
// into `new` for this class.
func BuildGlobalCarrier(className string, fieldType jvm.Type, mutable bool) *jvm.ClassDescriptor {
	c := jvm.NewClassDescriptor(className)
	flags := jvm.AccPublic
	if !mutable {
		flags |= jvm.AccFinal
	}
	c.AddField(jvm.FieldDescriptor{Name: "global", Type: fieldType, AccessFlags: flags})
	c.AddMethod(valueConstructor(className, c.SuperName, "global", fieldType))
	return c
}
