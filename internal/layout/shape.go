package layout

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/wasm2jvm/translator/internal/jvm"
)

// CarrierKind is the field-name convention a carrier class exposes
// (spec.md §6): its main field is named after its kind. A table carrier
// also has a fixed `int[] types` field, and an immutable global's field
// is final.
type CarrierKind byte

const (
	CarrierMemory CarrierKind = iota
	CarrierTable
	CarrierGlobal
)

func (k CarrierKind) fieldName() string {
	switch k {
	case CarrierMemory:
		return "memory"
	case CarrierTable:
		return "table"
	case CarrierGlobal:
		return "global"
	default:
		panic("layout: unknown carrier kind")
	}
}

func (k CarrierKind) String() string {
	switch k {
	case CarrierMemory:
		return "Memory"
	case CarrierTable:
		return "Table"
	case CarrierGlobal:
		return "Global"
	default:
		return "Unknown"
	}
}

// Shape is the canonical, order-independent structural identity of a
// carrier class: its kind plus its main field's JVM type, and — for
// globals only — whether a setter is emitted (spec.md §4.5 "immutable
// globals omit the setter emission", which makes a mutable and an
// immutable global of the same value type structurally distinct classes).
//
// spec.md §4.2 defines structural equality over "the ordered list of
// mutable field types and field names"; because memory and global
// carriers have exactly one field, and every table carrier pairs its
// `table` field with the same fixed `int[] types` field, that ordered
// list is determined by this single (kind, field type, mutable) triple.
type Shape struct {
	Kind      CarrierKind
	FieldType jvm.Type
	Mutable   bool // meaningful only for CarrierGlobal
}

// fieldName returns the fixed field name spec.md §6 mandates for Kind.
func (s Shape) fieldName() string {
	return s.Kind.fieldName()
}

// encode renders a canonical byte encoding of the shape for hashing.
// Canonical means independent of map/slice iteration order — there is
// none here, since a Shape is a flat tuple, but the encoding is still
// written explicitly (rather than via fmt.Sprintf("%v", s)) so its
// format is a stable contract across translator versions, per spec.md
// §4.2 "repeated runs over the same input produce byte-identical
// output".
func (s Shape) encode() []byte {
	mutableByte := byte(0)
	if s.Mutable {
		mutableByte = 1
	}
	return []byte(fmt.Sprintf("%d|%s|%d", s.Kind, s.FieldType.Descriptor(), mutableByte))
}

// Hash returns a stable 64-bit fingerprint of the shape using xxHash, the
// pack's own answer (open-policy-agent/opa) to "fast, stable,
// non-cryptographic content hash" — exactly spec.md §4.2's "shape hash"
// naming-input.
func (s Shape) Hash() uint64 {
	return xxhash.Sum64(s.encode())
}
