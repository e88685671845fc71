package jvm

// AccessFlags mirrors the subset of JVMS access_flags bits this
// translator ever sets.
type AccessFlags uint16

const (
	AccPublic AccessFlags = 1 << iota
	AccStatic
	AccFinal
	AccSynthetic
)

// FieldDescriptor describes one field of a ClassDescriptor. Named after
// and shaped like jacobin's `field` struct (other_examples
// artipop-jacobin classloader.go), adapted from "already-parsed class
// bytes" to "not-yet-serialized descriptor": Name/Type are held directly
// rather than as constant-pool UTF8 indices, since constant-pool layout
// is the downstream serializer's concern.
type FieldDescriptor struct {
	Name        string
	Type        Type
	AccessFlags AccessFlags
}

// MethodInfo describes one method of a ClassDescriptor, including its
// generated code. Named after jacobin's `method`/`codeAttrib` pair
// (renamed off "MethodDescriptor" to leave that name to the
// method-descriptor-string function below, e.g. "(I)I").
type MethodInfo struct {
	Name        string
	ParamTypes  []Type
	ResultType  Type
	AccessFlags AccessFlags

	// MaxLocals is the number of local-variable slots the method needs
	// (spec.md §4.3: parameters first, then declared locals, then any
	// slots the translator allocates for stack-height reconciliation or
	// boxed-array staging).
	MaxLocals int
	// MaxStack is the deepest the JVM operand stack reaches during this
	// method, which the translator tracks alongside its abstract WASM
	// operand stack so a verifier-facing serializer never has to
	// recompute it.
	MaxStack int

	Code []Instruction
}

// Descriptor renders this method's JVM method-descriptor string.
func (m *MethodInfo) Descriptor() string {
	return MethodDescriptor(m.ParamTypes, m.ResultType)
}

// ClassDescriptor is one class this translator's pipeline produces,
// ready for a downstream serializer (spec.md §6). SuperName defaults to
// "java/lang/Object" the way every carrier and the main module class do.
type ClassDescriptor struct {
	Name      string
	SuperName string
	Fields    []FieldDescriptor
	Methods   []MethodInfo

	// ConstantPoolRequests lists every constant-pool entry this class's
	// bytecode references, deduplicated in first-use order. A serializer
	// assigns indices; this translator never allocates them itself
	// (spec.md §1 Non-goal: "class-file serialization primitives").
	ConstantPoolRequests []ConstantPoolRequest
}

// NewClassDescriptor constructs a ClassDescriptor rooted at
// java/lang/Object, the superclass of every class this translator emits
// (carriers, the main module class, and trap-helper holders alike).
func NewClassDescriptor(name string) *ClassDescriptor {
	return &ClassDescriptor{Name: name, SuperName: "java/lang/Object"}
}

// AddField appends a field.
func (c *ClassDescriptor) AddField(f FieldDescriptor) {
	c.Fields = append(c.Fields, f)
}

// AddMethod appends a method.
func (c *ClassDescriptor) AddMethod(m MethodInfo) {
	c.Methods = append(c.Methods, m)
}

// RequestConstant records a constant-pool request, deduplicating against
// any identical request already recorded for this class, and returns its
// position in ConstantPoolRequests (a serializer can use this as a stable
// per-class handle when it assigns real constant-pool indices).
func (c *ClassDescriptor) RequestConstant(req ConstantPoolRequest) int {
	for i, existing := range c.ConstantPoolRequests {
		if existing == req {
			return i
		}
	}
	c.ConstantPoolRequests = append(c.ConstantPoolRequests, req)
	return len(c.ConstantPoolRequests) - 1
}
