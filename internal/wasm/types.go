package wasm

// FunctionType is an ordered parameter list and an ordered result list.
// See spec.md §3 "Function type".
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// Key returns a stable string encoding of the signature, suitable for use
// as a map key when deduplicating identical function types (the type
// section itself may contain duplicate entries; callers that need
// canonical type identity should key on this, not on section index).
func (t *FunctionType) Key() string {
	buf := make([]byte, 0, len(t.Params)+len(t.Results)+1)
	for _, p := range t.Params {
		buf = append(buf, byte(p))
	}
	buf = append(buf, ':')
	for _, r := range t.Results {
		buf = append(buf, byte(r))
	}
	return string(buf)
}

// BlockType describes a structured control instruction's parameter and
// result arity. Structurally identical to FunctionType (spec.md §3 "Block
// type") but kept as a distinct Go type since blocks never get a JVM
// method signature of their own — the Operand-Stack Translator always
// materializes their parameters/results inline on the operand stack
// (spec.md §4.1).
type BlockType struct {
	Params  []ValueType
	Results []ValueType
}

// Empty reports whether the block takes no parameters and produces no
// results (the common case for `block` and `loop` without an explicit
// type-section entry).
func (b *BlockType) Empty() bool {
	return len(b.Params) == 0 && len(b.Results) == 0
}
