package vm

import (
	"github.com/kurogane-re/onigo/btstack"
	"github.com/kurogane-re/onigo/opcode"
	"github.com/kurogane-re/onigo/region"
)

// NoMatch is the sentinel match_length the public API returns for
// MISMATCH. It is never an error.
const NoMatch = -1

// Interrupter is the cooperative cancellation hook: the host may
// set an external flag and the engine aborts with ErrInterrupted the next
// time it is polled. Called only at the designated interrupt-check
// opcodes: JUMP and the four REPEAT_INC variants (REPEAT_INC,
// REPEAT_INC_NG, REPEAT_INC_SG, REPEAT_INC_NG_SG).
type Interrupter interface {
	Interrupted() bool
}

// matchState is the per-match mutable state. It is
// never shared across goroutines and lives for exactly one Match/Search
// attempt at one candidate start.
type matchState struct {
	prog   *opcode.Program
	input  []byte
	str    int // lower bound of the whole haystack
	end    int // upper bound of the whole haystack
	start  int // the anchor this attempt started at

	s     int // current input position
	sprev int // previous-character head
	keep  int // \K mark; keep <= s at success

	rightRange int // effective upper limit for this attempt (spec glossary "right range")

	finishPC int // resume PC carried by the stack's bottom sentinel; reaching it is MISMATCH

	rd *opcode.Reader

	stack       *btstack.Stack
	memStartStk []int
	memEndStk   []int
	repeatStk   []int
	stopBtStk   []int // live PUSH_STOP_BT frame indices, innermost last

	stateCheck *btstack.StateCheckTable

	region *region.Region

	tracer      Tracer
	interrupter Interrupter
	cfg         Config

	// FIND_LONGEST bookkeeping: length of the best
	// candidate committed so far, kept across the forced backtracks that
	// hunt for a longer one. The region is filled at commit time.
	bestLen int
}

func newMatchState(prog *opcode.Program, input []byte, str, end, at int, reg *region.Region, cfg Config, tracer Tracer, interrupter Interrupter) *matchState {
	if tracer == nil {
		tracer = NoopTracer{}
	}
	numMem := prog.NumMem + 1
	// sprev is re-anchored from the real input so look-back opcodes
	// (WORD_BOUND, BEGIN_LINE) see the character before the match start,
	// not a synthetic buffer edge.
	sprev := -1
	if at > str {
		sprev = prog.Encoding.PrevCharHead(input, str, at)
	}
	ms := &matchState{
		prog:        prog,
		input:       input,
		str:         str,
		end:         end,
		start:       at,
		s:           at,
		sprev:       sprev,
		keep:        at,
		rightRange:  end,
		finishPC:    len(prog.Code),
		rd:          opcode.NewReader(prog.Code),
		stack:       btstack.New(len(prog.Code), cfg.StackInitSize),
		memStartStk: make([]int, numMem),
		memEndStk:   make([]int, numMem),
		repeatStk:   make([]int, prog.NumRepeat),
		region:      reg,
		tracer:      tracer,
		interrupter: interrupter,
		cfg:         cfg,
		bestLen:     -1,
	}
	for i := range ms.memStartStk {
		ms.memStartStk[i] = region.NotPos
		ms.memEndStk[i] = region.NotPos
	}
	for i := range ms.repeatStk {
		ms.repeatStk[i] = -1
	}
	if cfg.EnableStateCheck && end-str >= cfg.StateCheckThreshold {
		ms.stateCheck = btstack.NewStateCheckTable(end-str, numStateCheckSites(prog))
	}
	return ms
}

// numStateCheckSites reports how many distinct STATE_CHECK sites the
// program declares. Lacking a dedicated metadata field, onigo reuses
// NumRepeat as a conservative upper bound, since every STATE_CHECK site
// corresponds to a repetition construct.
func numStateCheckSites(prog *opcode.Program) int {
	return prog.NumRepeat
}

// popLevel converts the program's compiler-chosen pop strategy into the
// btstack enum.
func (ms *matchState) popLevel() btstack.PopLevel {
	switch ms.prog.PopLevel {
	case opcode.PopFree:
		return btstack.Free
	case opcode.PopMemStart:
		return btstack.MemStart
	default:
		return btstack.Default
	}
}

// getMemStart resolves group num's current start offset, following the
// bt_mem_start indirection: a raw offset if the group
// can never be rewritten by backtracking, otherwise a stack index into a
// live MemStart frame.
func (ms *matchState) getMemStart(num int) int {
	if num < len(ms.prog.BtMemStart) && ms.prog.BtMemStart[num] {
		idx := ms.memStartStk[num]
		if idx < 0 {
			return region.NotPos
		}
		return ms.stack.At(idx).S
	}
	return ms.memStartStk[num]
}

func (ms *matchState) getMemEnd(num int) int {
	if num < len(ms.prog.BtMemEnd) && ms.prog.BtMemEnd[num] {
		idx := ms.memEndStk[num]
		if idx < 0 {
			return region.NotPos
		}
		return ms.stack.At(idx).S
	}
	return ms.memEndStk[num]
}
