package vm

import (
	"github.com/kurogane-re/onigo/opcode"
	"github.com/kurogane-re/onigo/region"
)

// OnMatch is called once per match found by Scan: n is the zero-based match
// ordinal, matchPos the offset of the match start relative to str, and reg
// holds that match's captures until the next search reuses it. Returning
// false stops the scan early.
type OnMatch func(n, matchPos int, reg *region.Region) bool

// Scan repeatedly searches input[str:end] from the front, reporting every
// non-overlapping match to onMatch until the range is exhausted, onMatch
// returns false, or an error occurs. reg is reused across
// matches, cleared before each search; the returned count equals the number
// of onMatch invocations.
func Scan(prog *opcode.Program, input []byte, str, end int, reg *region.Region, cfg Config, tracer Tracer, interrupter Interrupter, onMatch OnMatch) (int, error) {
	if prog == nil || reg == nil || onMatch == nil {
		return 0, ErrInvalidArgument
	}
	n := 0
	pos := str
	for pos <= end {
		reg.Clear()
		matched, err := Search(prog, input, str, end, pos, reg, cfg, tracer, interrupter)
		if err != nil {
			return n, err
		}
		if !matched {
			return n, nil
		}
		matchPos := reg.Beg[0]
		if !onMatch(n, matchPos, reg) {
			return n + 1, nil
		}
		n++

		next := reg.End[0] + str
		if next <= pos {
			// Empty match: advance by one character so Scan can't spin
			// forever reporting the same zero-width position.
			if pos >= end {
				return n, nil
			}
			cl := prog.Encoding.CharLen(input, pos, end)
			if cl <= 0 {
				cl = 1
			}
			pos += cl
		} else {
			pos = next
		}
	}
	return n, nil
}
