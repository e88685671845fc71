package translator

import (
	"github.com/wasm2jvm/translator/internal/ir"
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/typemap"
	"github.com/wasm2jvm/translator/internal/wasm"
)

// memoryIndex is always 0: spec.md §2's single-memory restriction (the
// MVP model this translator targets never carries a memory index operand
// on load/store instructions).
const memoryIndex = 0

// loadMethodName names the carrier instance method a Load/Load8/Load16/
// Load32 operation calls (spec.md §4.5's encapsulated bounds-checking
// accessors): the full-width loads are named after their value type
// alone, the narrow loads also encode their bit width and signedness.
func loadMethodName(op ir.Operation) string {
	base := "load" + jvmPrimName(op.Type)
	switch op.Kind {
	case ir.OpKindLoad8, ir.OpKindLoad16, ir.OpKindLoad32:
		bits := op.AccessSize * 8
		sign := "U"
		if op.Signed {
			sign = "S"
		}
		return base + "_" + itoa(bits) + sign
	default:
		return base
	}
}

func storeMethodName(op ir.Operation) string {
	base := "store" + jvmPrimName(op.Type)
	switch op.Kind {
	case ir.OpKindStore8, ir.OpKindStore16, ir.OpKindStore32:
		return base + "_" + itoa(op.AccessSize*8)
	default:
		return base
	}
}

func jvmPrimName(t wasm.ValueType) string {
	switch t {
	case wasm.ValueTypeI32:
		return "I32"
	case wasm.ValueTypeI64:
		return "I64"
	case wasm.ValueTypeF32:
		return "F32"
	case wasm.ValueTypeF64:
		return "F64"
	default:
		return "Ref"
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// loadResultType reports the WASM result type a narrow load pushes: the
// same width-extended type the full load's Type field already names
// (Load8/16/32 always extend to Type, never leaving a narrower value on
// the operand stack).
func loadResultType(op ir.Operation) wasm.ValueType {
	return op.Type
}

// emitEffectiveAddress widens the i32 address operand already on top of
// the stack to an unsigned long (Integer.toUnsignedLong, since a WASM
// address with its high bit set is a large positive value, not negative)
// and adds a load/store's static offset as a long constant (spec.md §4.3:
// "computed as a 64-bit sum"). Folding the offset in at translate time
// rather than carrying it as a second runtime argument means the sum, and
// the bounds check the carrier accessor runs against it, both happen
// entirely in 64-bit arithmetic — a 32-bit IADD here would let a high base
// plus offset wrap back into carrier-bounds range and silently hit the
// wrong byte instead of trapping.
func (tr *translator) emitEffectiveAddress(offset uint64) {
	tr.asm.CompileInvoke(jvm.INVOKESTATIC, "java/lang/Integer", "toUnsignedLong", "(I)J")
	if offset == 0 {
		return
	}
	tr.asm.CompileIntImmediate(jvm.LCONST, int64(offset))
	tr.asm.CompileStandAlone(jvm.LADD)
}

// compileLoad lowers Load/Load8/Load16/Load32 (spec.md §4.5): the carrier
// field must be loaded *under* the address, so the address is spilled to
// a temporary while `this` and the carrier field are fetched, then
// reloaded (plus the static offset) as the sole call argument.
func (tr *translator) compileLoad(op ir.Operation) error {
	tr.pop() // i32 address
	addrSlot := tr.allocTemp(jvm.Int)
	tr.emitStoreLocalSlot(jvm.Int, addrSlot)

	field := tr.env.MemoryCarrierField(memoryIndex)
	class := tr.env.MemoryCarrierClass(memoryIndex)
	tr.asm.CompileIntImmediate(jvm.ALOAD, 0)
	tr.asm.CompileFieldAccess(jvm.GETFIELD, tr.env.MainClassName(), field, jvm.Ref(class))
	tr.emitLoadLocalSlot(jvm.Int, addrSlot)
	tr.emitEffectiveAddress(op.MemOffset)

	resultType := loadResultType(op)
	jt := typemap.MapValueType(resultType)
	tr.asm.CompileInvoke(jvm.INVOKEVIRTUAL, class, loadMethodName(op), jvm.MethodDescriptor([]jvm.Type{jvm.Long}, jt))
	tr.push(resultType)
	return nil
}

// compileStore lowers Store/Store8/Store16/Store32: both the address and
// the value already sit on the operand stack (address pushed first,
// value last) ahead of the carrier reference the call needs underneath
// them, so both are spilled and reloaded in their original order.
func (tr *translator) compileStore(op ir.Operation) error {
	valType := op.Type
	slots := tr.spillTop([]wasm.ValueType{wasm.ValueTypeI32, valType})
	addrSlot, valSlot := slots[0], slots[1]

	field := tr.env.MemoryCarrierField(memoryIndex)
	class := tr.env.MemoryCarrierClass(memoryIndex)
	tr.asm.CompileIntImmediate(jvm.ALOAD, 0)
	tr.asm.CompileFieldAccess(jvm.GETFIELD, tr.env.MainClassName(), field, jvm.Ref(class))
	tr.emitLoadLocalSlot(jvm.Int, addrSlot)
	tr.emitEffectiveAddress(op.MemOffset)
	jt := typemap.MapValueType(valType)
	tr.emitLoadLocalSlot(jt, valSlot)

	tr.asm.CompileInvoke(jvm.INVOKEVIRTUAL, class, storeMethodName(op), jvm.MethodDescriptor([]jvm.Type{jvm.Long, jt}, jvm.Void))
	return nil
}

// compileMemorySize lowers memory.size to the carrier's own page-count
// accessor (spec.md §4.5).
func (tr *translator) compileMemorySize(op ir.Operation) error {
	field := tr.env.MemoryCarrierField(memoryIndex)
	class := tr.env.MemoryCarrierClass(memoryIndex)
	tr.asm.CompileIntImmediate(jvm.ALOAD, 0)
	tr.asm.CompileFieldAccess(jvm.GETFIELD, tr.env.MainClassName(), field, jvm.Ref(class))
	tr.asm.CompileInvoke(jvm.INVOKEVIRTUAL, class, "size", jvm.MethodDescriptor(nil, jvm.Int))
	tr.push(wasm.ValueTypeI32)
	return nil
}

// compileMemoryGrow lowers memory.grow to the carrier's grow method,
// which itself enforces the 2^31-1 byte limit (as a page bound) and returns -1 on failure
// (spec.md §4.5) rather than trapping: memory.grow is defined to report
// failure through its return value, never a trap.
func (tr *translator) compileMemoryGrow(op ir.Operation) error {
	deltaSlot := tr.spillTop([]wasm.ValueType{wasm.ValueTypeI32})[0]

	field := tr.env.MemoryCarrierField(memoryIndex)
	class := tr.env.MemoryCarrierClass(memoryIndex)
	tr.asm.CompileIntImmediate(jvm.ALOAD, 0)
	tr.asm.CompileFieldAccess(jvm.GETFIELD, tr.env.MainClassName(), field, jvm.Ref(class))
	tr.emitLoadLocalSlot(jvm.Int, deltaSlot)
	tr.asm.CompileInvoke(jvm.INVOKEVIRTUAL, class, "grow", jvm.MethodDescriptor([]jvm.Type{jvm.Int}, jvm.Int))
	tr.push(wasm.ValueTypeI32)
	return nil
}
