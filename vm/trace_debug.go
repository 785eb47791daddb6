//go:build onigo_debug

package vm

import (
	"log/slog"

	"github.com/kurogane-re/onigo/opcode"
)

// SlogTracer wires interpreter events to log/slog. It only exists in
// builds tagged onigo_debug; release builds carry no tracing cost beyond
// the no-op interface call.
type SlogTracer struct {
	Logger *slog.Logger
}

func (t SlogTracer) OnOpcode(pc int, op opcode.Opcode) {
	t.Logger.Debug("opcode", "pc", pc, "op", op.String())
}

func (t SlogTracer) OnBacktrack(pc int) {
	t.Logger.Debug("backtrack", "resume_pc", pc)
}
