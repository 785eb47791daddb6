package vm

import (
	"github.com/kurogane-re/onigo/encoding"
	"github.com/kurogane-re/onigo/opcode"
	"github.com/kurogane-re/onigo/region"
)

// Match attempts the program at exactly one fixed start position at,
// without trying any other candidate. NoMatch is not an
// error; it means the program did not match starting there.
func Match(prog *opcode.Program, input []byte, str, end, at int, reg *region.Region, cfg Config, tracer Tracer, interrupter Interrupter) (int, error) {
	if prog == nil || reg == nil {
		return NoMatch, ErrInvalidArgument
	}
	if at < str || at > end {
		return NoMatch, nil
	}
	if err := cfg.Validate(); err != nil {
		return NoMatch, err
	}
	if cfg.ValidateEncoding && !prog.Encoding.IsValidString(input, str, end) {
		return NoMatch, ErrInvalidWideCharValue
	}
	ms := newMatchState(prog, input, str, end, at, reg, cfg, tracer, interrupter)
	return ms.run()
}

// SearchForOffset walks candidate start positions between start and
// rangeEnd and reports the offset the first successful one committed at.
// rangeEnd > start scans forward; rangeEnd < start scans backward;
// rangeEnd == start tries exactly one position, the shape a zero-width
// end-anchored match needs. It shares searchRange with Search, so the
// public search operation gets the same prefix-hint scanning the internal
// Scan-driven search does.
func SearchForOffset(prog *opcode.Program, input []byte, str, end, start, rangeEnd int, reg *region.Region, cfg Config, tracer Tracer, interrupter Interrupter) (int, error) {
	return searchRange(prog, input, str, end, start, rangeEnd, reg, cfg, tracer, interrupter)
}

// GetCaptureTree returns the capture-history tree built by the most recent
// successful match into reg, or nil if history tracking was disabled or
// the program declares no history-tracked groups.
func GetCaptureTree(reg *region.Region) *region.HistoryNode {
	return reg.HistoryRoot
}

// Encoding returns the encoding capability the program was compiled
// against.
func Encoding(prog *opcode.Program) encoding.Capability { return prog.Encoding }

// Options returns the program's compile-time option bitflags.
func Options(prog *opcode.Program) opcode.OptionType { return prog.Options }

// CaseFoldFlag returns the case-folding mode the program was compiled with.
func CaseFoldFlag(prog *opcode.Program) encoding.CaseFoldFlag { return prog.CaseFoldFlag }

// NumberOfCaptures returns the number of capture groups the program
// defines, excluding group 0.
func NumberOfCaptures(prog *opcode.Program) int { return prog.NumMem }

// NumberOfCaptureHistories returns how many groups have capture-history
// tracking enabled.
func NumberOfCaptureHistories(prog *opcode.Program) int {
	n := 0
	for _, enabled := range prog.CaptureHistory {
		if enabled {
			n++
		}
	}
	return n
}
