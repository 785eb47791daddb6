package btstack

import (
	"errors"
	"sync/atomic"

	"github.com/kurogane-re/onigo/opcode"
)

// ErrMatchStackLimitOver is returned when growing the backtrack stack would
// exceed the configured MatchStackLimit.
var ErrMatchStackLimitOver = errors.New("btstack: match stack limit exceeded")

// ErrStackBug is returned when a pop walks past the bottom sentinel, an
// internal consistency bug rather than a user-visible condition.
var ErrStackBug = errors.New("btstack: popped past bottom sentinel")

// defaultMatchStackLimit bounds the number of frames a single match may
// accumulate. Exceeding it aborts the match rather than growing without
// bound; see GetMatchStackLimit/SetMatchStackLimit.
const defaultMatchStackLimit = 1 << 20

var matchStackLimit atomic.Int64

func init() {
	matchStackLimit.Store(defaultMatchStackLimit)
}

// GetMatchStackLimit returns the process-wide frame ceiling applied to
// every subsequent match.
func GetMatchStackLimit() int { return int(matchStackLimit.Load()) }

// SetMatchStackLimit changes the process-wide frame ceiling. It applies to
// matches started after the call, not to one already in flight.
func SetMatchStackLimit(n int) { matchStackLimit.Store(int64(n)) }

// PopLevel selects how much bookkeeping a Pop/PopUntil call reverts while
// discarding frames.
type PopLevel int

const (
	// Free discards frames until an Alt-family frame is found, touching
	// nothing else. Safe only when the compiler knows no group endpoints
	// beyond the alternative need reversion.
	Free PopLevel = iota
	// MemStart additionally restores mem start/end slots recorded by
	// MemStart frames encountered along the way.
	MemStart
	// Default additionally restores on MemEnd frames and unwinds
	// RepeatInc counters.
	Default
)

// stackInitSize is the default capacity reserved up front: most matches
// never grow past it, so reallocation never triggers. Callers can override
// it per match via New's initSize.
const stackInitSize = 128

// Stack is the interpreter's backtrack stack: a growable array of Frame
// values plus a bottom sentinel. It is owned by one in-flight match; it is
// never shared across goroutines.
type Stack struct {
	frames []Frame
	sp     int // number of frames currently in play, including the sentinel
}

// New creates a Stack with its bottom sentinel Alt frame already pushed;
// the interpreter recognizes popping it as the end of all alternatives.
// initSize <= 0 selects the default initial capacity.
func New(finishPC, initSize int) *Stack {
	if initSize < 1 {
		initSize = stackInitSize
	}
	s := &Stack{frames: make([]Frame, initSize)}
	s.frames[0] = Frame{Type: Alt, PC: finishPC}
	s.sp = 1
	return s
}

// Reset clears the stack back to just the bottom sentinel, reusing the
// backing array. Used between search attempts at successive candidate
// start positions.
func (s *Stack) Reset(finishPC int) {
	s.frames[0] = Frame{Type: Alt, PC: finishPC}
	s.sp = 1
}

// Len reports the number of live frames, sentinel included.
func (s *Stack) Len() int { return s.sp }

// At returns a pointer to the frame at idx. The pointer is invalidated by
// the next Push that triggers growth.
func (s *Stack) At(idx int) *Frame { return &s.frames[idx] }

func (s *Stack) push(f Frame) (int, error) {
	if s.sp == len(s.frames) {
		limit := GetMatchStackLimit()
		if len(s.frames) >= limit {
			return 0, ErrMatchStackLimitOver
		}
		grown := len(s.frames) * 2
		if grown > limit {
			grown = limit
		}
		fresh := make([]Frame, grown)
		copy(fresh, s.frames)
		s.frames = fresh
	}
	idx := s.sp
	s.frames[idx] = f
	s.sp++
	return idx, nil
}

// PushAlt records a plain choice point.
func (s *Stack) PushAlt(pc, str, sprev int) error {
	_, err := s.push(Frame{Type: Alt, PC: pc, S: str, SPrev: sprev})
	return err
}

// PushAltPrecReadNot records the choice point a negative lookahead resumes
// at when its body never matches.
func (s *Stack) PushAltPrecReadNot(pc, str, sprev int) error {
	_, err := s.push(Frame{Type: AltPrecReadNot, PC: pc, S: str, SPrev: sprev})
	return err
}

// PushAltLookBehindNot is the look-behind analogue of PushAltPrecReadNot.
func (s *Stack) PushAltLookBehindNot(pc, str, sprev int) error {
	_, err := s.push(Frame{Type: AltLookBehindNot, PC: pc, S: str, SPrev: sprev})
	return err
}

// PushMemStart records group num's new start offset str, plus its prior
// start/end (for revert on backtrack), and returns the frame's stack
// index, used as the indirection target when BtMemStart[num] is set.
func (s *Stack) PushMemStart(num, str, prevStart, prevEnd int) (int, error) {
	return s.push(Frame{Type: MemStart, Num: num, S: str, PrevStart: prevStart, PrevEnd: prevEnd})
}

// PushMemEnd is the MEMORY_END analogue of PushMemStart.
func (s *Stack) PushMemEnd(num, str, prevStart, prevEnd int) (int, error) {
	return s.push(Frame{Type: MemEnd, Num: num, S: str, PrevStart: prevStart, PrevEnd: prevEnd})
}

// PushMemEndMark records that a subroutine body closed group num, so a
// balanced backward walk sees the pair even across a CALL/RETURN boundary.
func (s *Stack) PushMemEndMark(num int) error {
	_, err := s.push(Frame{Type: MemEndMark, Num: num})
	return err
}

// PushRepeat starts a counted-repetition site's live frame and returns its
// stack index, recorded by the interpreter's repeat_stk[id].
func (s *Stack) PushRepeat(id, bodyPC int) (int, error) {
	return s.push(Frame{Type: Repeat, RepeatID: id, PC: bodyPC, Count: 0})
}

// PushRepeatInc records that repeatFrameIdx's counter was incremented, so
// backtracking past this frame can undo the increment.
func (s *Stack) PushRepeatInc(repeatFrameIdx int) error {
	_, err := s.push(Frame{Type: RepeatInc, RepeatFrameIdx: repeatFrameIdx})
	return err
}

// PushEmptyCheckStart marks the position an empty-loop guard begins at.
func (s *Stack) PushEmptyCheckStart(id, str int) error {
	_, err := s.push(Frame{Type: EmptyCheckStart, EmptyCheckID: id, S: str})
	return err
}

// PushEmptyCheckEnd marks where an empty-loop guard's matching
// EmptyCheckStart should be looked up from (balanced across CALL/RETURN).
func (s *Stack) PushEmptyCheckEnd(id int) error {
	_, err := s.push(Frame{Type: EmptyCheckEnd, EmptyCheckID: id})
	return err
}

// PushPos records a zero-width lookahead's entry position.
func (s *Stack) PushPos(str, sprev int) error {
	_, err := s.push(Frame{Type: Pos, S: str, SPrev: sprev})
	return err
}

// PushStopBT marks the entry to an atomic group and returns its index, so
// POP_STOP_BT can void every Alt-family frame pushed above it in place.
func (s *Stack) PushStopBT() (int, error) {
	return s.push(Frame{Type: StopBT})
}

// PushCallFrame records a subroutine call's return address.
func (s *Stack) PushCallFrame(returnAddr int) error {
	_, err := s.push(Frame{Type: CallFrame, ReturnAddr: returnAddr})
	return err
}

// PushReturn marks a completed subroutine return, so balanced backward
// walks (EmptyCheck/Repeat/backref-with-level) stay correct across
// recursive calls.
func (s *Stack) PushReturn() error {
	_, err := s.push(Frame{Type: Return})
	return err
}

// PushSaveVal records a \K / restart-position / right-range save.
func (s *Stack) PushSaveVal(kind opcode.SaveType, id, val int) error {
	_, err := s.push(Frame{Type: SaveVal, SaveKind: kind, SaveID: id, SaveVal: val})
	return err
}

// PushStateCheckMark records that (pos, site) was visited, consumed by the
// optional state-check memoization pass.
func (s *Stack) PushStateCheckMark(pos, site int) error {
	_, err := s.push(Frame{Type: StateCheckMark, CheckPos: pos, CheckSite: site})
	return err
}

// Drop discards exactly the top frame with no reversion, used to commit
// past a choice point a PUSH created (OP_POP: "this PUSH's alternative is
// no longer reachable, forget it").
func (s *Stack) Drop() error {
	if s.sp == 0 {
		return ErrStackBug
	}
	s.sp--
	return nil
}

// Pop discards frames from the top, reverting memStartStk/memEndStk
// entries as dictated by level, until it consumes an Alt-family frame,
// which is returned as the new resume point. sc receives the state-check
// memoization bit for every StateCheckMark frame consumed along the way
// (the bit is set on backtrack, not on arrival); pass nil when state-check
// memoization is disabled.
//
// Popping the bottom sentinel itself (sp going from 1 to 0) is a normal
// outcome, not a bug: it returns the sentinel's ALT(FINISH_CODE) frame,
// which the interpreter recognizes by its PC and treats as MISMATCH.
// Only popping an already-empty stack is the bug condition.
func (s *Stack) Pop(level PopLevel, memStartStk, memEndStk []int, sc *StateCheckTable) (Frame, error) {
	for {
		if s.sp == 0 {
			return Frame{}, ErrStackBug
		}
		s.sp--
		f := s.frames[s.sp]
		if f.Type.IsAltFamily() {
			return f, nil
		}
		s.revert(f, level, memStartStk, memEndStk, sc)
	}
}

func (s *Stack) revert(f Frame, level PopLevel, memStartStk, memEndStk []int, sc *StateCheckTable) {
	switch f.Type {
	case MemStart:
		if level >= MemStart {
			memStartStk[f.Num] = f.PrevStart
			memEndStk[f.Num] = f.PrevEnd
		}
	case MemEnd:
		if level >= Default {
			memStartStk[f.Num] = f.PrevStart
			memEndStk[f.Num] = f.PrevEnd
		}
	case RepeatInc:
		if level >= Default {
			s.frames[f.RepeatFrameIdx].Count--
		}
	case StateCheckMark:
		sc.Mark(f.CheckPos, f.CheckSite)
	}
}

// PopUntil discards frames until it consumes a frame of type target (which
// is discarded too) and returns that frame. Used by the directed pops:
// POP_POS (target Pos), FAIL_PREC_READ_NOT (target AltPrecReadNot) and
// FAIL_LOOK_BEHIND_NOT (target AltLookBehindNot). Frames along the way are
// genuinely discarded rather than voided in place (see DESIGN.md). Each
// one gets Default-level reversion unless preserveCaptures is set; then
// MemStart/MemEnd frames are dropped without restoring the capture slots
// (POP_POS sets it so captures made inside a lookahead survive), while
// RepeatInc and StateCheckMark frames are still handled as at Default.
func (s *Stack) PopUntil(target FrameType, preserveCaptures bool, memStartStk, memEndStk []int, sc *StateCheckTable) (Frame, error) {
	for {
		if s.sp == 0 {
			return Frame{}, ErrStackBug
		}
		s.sp--
		f := s.frames[s.sp]
		if f.Type == target {
			return f, nil
		}
		if preserveCaptures {
			if f.Type == RepeatInc {
				s.frames[f.RepeatFrameIdx].Count--
			}
			if f.Type == StateCheckMark {
				sc.Mark(f.CheckPos, f.CheckSite)
			}
			continue
		}
		s.revert(f, Default, memStartStk, memEndStk, sc)
	}
}

// VoidAltsAbove rewrites every Alt-family frame above (and not including)
// markIdx to Void, without shrinking the stack, then discards the frame at
// markIdx itself. This is POP_STOP_BT: capture frames above
// markIdx stay live at their original indices (bt_mem_* indirection stays
// valid) while the atomic group becomes unbacktrackable.
func (s *Stack) VoidAltsAbove(markIdx int) {
	for i := markIdx + 1; i < s.sp; i++ {
		if s.frames[i].Type.IsAltFamily() {
			s.frames[i].Type = Void
		}
	}
	if markIdx == s.sp-1 {
		s.sp--
		return
	}
	// The StopBT frame is not at the top (more frames remain above it,
	// already voided); mark it Void in place too, it carries no payload
	// a future walk needs.
	s.frames[markIdx].Type = Void
}

// SearchBalanced walks backward from the top, treating Return as entering
// a nested call (level++) and CallFrame as leaving one (level--), and
// returns the index of the first frame at depth targetLevel satisfying
// pred. Used by EMPTY_CHECK_END, the _SG repeat variants, and
// BACKREF_WITH_LEVEL.
func (s *Stack) SearchBalanced(targetLevel int, pred func(*Frame) bool) (int, bool) {
	level := 0
	for i := s.sp - 1; i >= 0; i-- {
		f := &s.frames[i]
		switch f.Type {
		case Return:
			level++
		case CallFrame:
			level--
		}
		if level == targetLevel && pred(f) {
			return i, true
		}
	}
	return -1, false
}

// PopReturn performs OP_RETURN's stack surgery: find the nearest
// unbalanced CallFrame, remove it, and push a Return marker so subsequent
// balanced walks keep seeing a matched pair.
func (s *Stack) PopReturn() (returnAddr int, err error) {
	level := 0
	for i := s.sp - 1; i >= 0; i-- {
		switch s.frames[i].Type {
		case Return:
			level++
		case CallFrame:
			if level == 0 {
				returnAddr = s.frames[i].ReturnAddr
				s.frames[i].Type = Void
				if err := s.PushReturn(); err != nil {
					return 0, err
				}
				return returnAddr, nil
			}
			level--
		}
	}
	return 0, ErrStackBug
}
