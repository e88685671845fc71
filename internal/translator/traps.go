package translator

import (
	"github.com/wasm2jvm/translator/internal/jvm"
	"github.com/wasm2jvm/translator/internal/trap"
)

// throwerDescriptor is every trap helper's fixed shape: construct and
// return the exception rather than throw it internally, so the call site
// can follow INVOKESTATIC with its own ATHROW. A void-returning helper
// would leave the JVM verifier unable to see that the code path
// following a trap call is unreachable, which matters for blocks whose
// only "return" is a trap (spec.md §4.3's dead-code-after-unreachable
// case).
const throwerDescriptor = "()Ljava/lang/RuntimeException;"

// emitTrap emits the call sequence for raising kind: INVOKESTATIC the
// shared per-module thrower, then ATHROW the value it constructs
// (spec.md §4.3, §7.2). kind is recorded in usedTraps, which
// CompileFunction reports as Result.UsedTraps.
func (tr *translator) emitTrap(kind trap.Kind) {
	tr.usedTraps[kind] = true
	tr.asm.CompileInvoke(jvm.INVOKESTATIC, trap.HelperClassName, kind.ThrowerMethodName(), throwerDescriptor)
	tr.asm.CompileStandAlone(jvm.ATHROW)
}
