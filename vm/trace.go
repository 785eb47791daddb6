package vm

import "github.com/kurogane-re/onigo/opcode"

// Tracer observes interpreter execution for diagnostics. The hot path
// calls it unconditionally, so NoopTracer must stay inlinable; release
// builds pay nothing beyond the (eliminated) interface call.
type Tracer interface {
	OnOpcode(pc int, op opcode.Opcode)
	OnBacktrack(pc int)
}

// NoopTracer discards every event. It is the default Tracer.
type NoopTracer struct{}

func (NoopTracer) OnOpcode(pc int, op opcode.Opcode) {}
func (NoopTracer) OnBacktrack(pc int)                {}
