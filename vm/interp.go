package vm

import (
	"github.com/kurogane-re/onigo/btstack"
	"github.com/kurogane-re/onigo/internal/conv"
	"github.com/kurogane-re/onigo/opcode"
	"github.com/kurogane-re/onigo/region"
)

// run executes the program from the current (pc, s) until it commits a
// match (OP_END, possibly after FIND_LONGEST keeps hunting for a longer
// one) or exhausts the backtrack stack down to its bottom sentinel
// (MISMATCH). It never allocates on the hot path beyond what growing the
// backtrack stack itself requires.
func (ms *matchState) run() (int, error) {
	prog := ms.prog
	input := ms.input
	rd := ms.rd
	stack := ms.stack

	for {
		pc := rd.PC
		op := rd.Opcode()
		ms.tracer.OnOpcode(pc, op)

		switch op {
		case opcode.END:
			if ms.keep > ms.s {
				ms.keep = ms.s
			}
			length := ms.s - ms.keep
			if prog.FindNotEmpty && length == 0 {
				goto fail
			}
			if prog.FindLongest {
				// The region must be filled now, while the capture slots
				// still hold this candidate's values; the forced backtrack
				// below unwinds them while hunting for a longer match.
				if length > ms.bestLen {
					ms.bestLen = length
					ms.finalizeSuccess(ms.keep, ms.s)
				}
				goto fail
			}
			ms.finalizeSuccess(ms.keep, ms.s)
			return length, nil

		case opcode.EXACT1:
			lit := rd.Byte()
			if ms.s >= ms.rightRange || input[ms.s] != lit {
				goto fail
			}
			ms.sprev = ms.s
			ms.s++

		case opcode.EXACT2:
			if !ms.matchLiteral(rd.Bytes(2)) {
				goto fail
			}
		case opcode.EXACT3:
			if !ms.matchLiteral(rd.Bytes(3)) {
				goto fail
			}
		case opcode.EXACT4:
			if !ms.matchLiteral(rd.Bytes(4)) {
				goto fail
			}
		case opcode.EXACT5:
			if !ms.matchLiteral(rd.Bytes(5)) {
				goto fail
			}
		case opcode.EXACTN:
			n := int(rd.Length())
			if !ms.matchLiteral(rd.Bytes(n)) {
				goto fail
			}

		case opcode.EXACT1_IC:
			lit := rd.Byte()
			if !ms.matchFold([]byte{lit}) {
				goto fail
			}
		case opcode.EXACTN_IC:
			n := int(rd.Length())
			if !ms.matchFold(rd.Bytes(n)) {
				goto fail
			}

		case opcode.EXACTMB2N1:
			if !ms.matchLiteral(rd.Bytes(2)) {
				goto fail
			}
		case opcode.EXACTMB2N2:
			if !ms.matchLiteral(rd.Bytes(4)) {
				goto fail
			}
		case opcode.EXACTMB2N3:
			if !ms.matchLiteral(rd.Bytes(6)) {
				goto fail
			}
		case opcode.EXACTMB2N:
			n := int(rd.Length())
			if !ms.matchLiteral(rd.Bytes(n * 2)) {
				goto fail
			}
		case opcode.EXACTMB3N:
			n := int(rd.Length())
			if !ms.matchLiteral(rd.Bytes(n * 3)) {
				goto fail
			}
		case opcode.EXACTMBN:
			charBytes := int(rd.Byte())
			n := int(rd.Length())
			if !ms.matchLiteral(rd.Bytes(n * charBytes)) {
				goto fail
			}

		case opcode.CCLASS, opcode.CCLASS_NOT:
			bitmap := rd.Bytes(32)
			if ms.s >= ms.rightRange {
				goto fail
			}
			match := bitmapTest(bitmap, input[ms.s])
			if op == opcode.CCLASS_NOT {
				match = !match
			}
			if !match {
				goto fail
			}
			ms.sprev = ms.s
			ms.s++

		case opcode.CCLASS_MB, opcode.CCLASS_MB_NOT:
			numRanges := int(rd.Length())
			ranges := readRanges(rd.Bytes(numRanges * 8))
			if ms.s >= ms.rightRange {
				goto fail
			}
			cl := prog.Encoding.CharLen(input, ms.s, ms.end)
			if ms.s+cl > ms.rightRange {
				goto fail
			}
			r := prog.Encoding.ToCode(input, ms.s, ms.s+cl)
			match := mbRangeTest(ranges, r)
			if op == opcode.CCLASS_MB_NOT {
				match = !match
			}
			if !match {
				goto fail
			}
			ms.sprev = ms.s
			ms.s += cl

		case opcode.CCLASS_MIX, opcode.CCLASS_MIX_NOT:
			bitmap := rd.Bytes(32)
			numRanges := int(rd.Length())
			ranges := readRanges(rd.Bytes(numRanges * 8))
			if ms.s >= ms.rightRange {
				goto fail
			}
			cl := prog.Encoding.CharLen(input, ms.s, ms.end)
			if ms.s+cl > ms.rightRange {
				goto fail
			}
			var match bool
			if cl == 1 {
				match = bitmapTest(bitmap, input[ms.s])
			} else {
				r := prog.Encoding.ToCode(input, ms.s, ms.s+cl)
				match = mbRangeTest(ranges, r)
			}
			if op == opcode.CCLASS_MIX_NOT {
				match = !match
			}
			if !match {
				goto fail
			}
			ms.sprev = ms.s
			ms.s += cl

		case opcode.CCLASS_NODE:
			idx := int(rd.AbsAddr())
			if ms.s >= ms.rightRange {
				goto fail
			}
			cl := prog.Encoding.CharLen(input, ms.s, ms.end)
			if ms.s+cl > ms.rightRange {
				goto fail
			}
			r := prog.Encoding.ToCode(input, ms.s, ms.s+cl)
			if idx >= len(prog.ClassNodes) || !prog.ClassNodes[idx].Contains(r) {
				goto fail
			}
			ms.sprev = ms.s
			ms.s += cl

		case opcode.ANYCHAR, opcode.ANYCHAR_ML:
			if ms.s >= ms.rightRange {
				goto fail
			}
			cl := prog.Encoding.CharLen(input, ms.s, ms.end)
			if ms.s+cl > ms.rightRange {
				goto fail
			}
			if op == opcode.ANYCHAR && prog.Encoding.IsNewline(input, ms.s, ms.end) {
				goto fail
			}
			ms.sprev = ms.s
			ms.s += cl

		case opcode.ANYCHAR_STAR, opcode.ANYCHAR_ML_STAR:
			// An Alt is pushed per consumed character, before consuming it:
			// the fall-through position itself is the first continuation, so
			// it never needs a choice point of its own.
			ml := op == opcode.ANYCHAR_ML_STAR
			for ms.s < ms.rightRange {
				if !ml && prog.Encoding.IsNewline(input, ms.s, ms.end) {
					break
				}
				if err := stack.PushAlt(rd.PC, ms.s, ms.sprev); err != nil {
					return ms.wrapErr(pc, op, err)
				}
				cl := prog.Encoding.CharLen(input, ms.s, ms.end)
				ms.sprev = ms.s
				ms.s += cl
			}

		case opcode.ANYCHAR_STAR_PEEK_NEXT, opcode.ANYCHAR_ML_STAR_PEEK_NEXT:
			peek := rd.Byte()
			ml := op == opcode.ANYCHAR_ML_STAR_PEEK_NEXT
			for ms.s < ms.rightRange {
				if !ml && prog.Encoding.IsNewline(input, ms.s, ms.end) {
					break
				}
				if input[ms.s] == peek {
					if err := stack.PushAlt(rd.PC, ms.s, ms.sprev); err != nil {
						return ms.wrapErr(pc, op, err)
					}
				}
				cl := prog.Encoding.CharLen(input, ms.s, ms.end)
				ms.sprev = ms.s
				ms.s += cl
			}

		case opcode.BEGIN_BUF:
			if ms.s != ms.str {
				goto fail
			}
		case opcode.END_BUF:
			if ms.s != ms.end {
				goto fail
			}
		case opcode.BEGIN_POSITION:
			if ms.s != ms.start {
				goto fail
			}
		case opcode.BEGIN_LINE:
			if ms.s != ms.str && !(ms.sprev >= ms.str && prog.Encoding.IsNewline(input, ms.sprev, ms.end)) {
				goto fail
			}
		case opcode.END_LINE:
			if ms.s != ms.end && !prog.Encoding.IsNewline(input, ms.s, ms.end) {
				goto fail
			}
		case opcode.SEMI_END_BUF:
			if ms.s != ms.end {
				cl := prog.Encoding.CharLen(input, ms.s, ms.end)
				if !(prog.Encoding.IsNewline(input, ms.s, ms.end) && ms.s+cl == ms.end) {
					goto fail
				}
			}

		case opcode.WORD_BOUND:
			if ms.isWordAt(ms.sprev) == ms.isWordAt(ms.s) {
				goto fail
			}
		case opcode.NOT_WORD_BOUND:
			if ms.isWordAt(ms.sprev) != ms.isWordAt(ms.s) {
				goto fail
			}
		case opcode.WORD_BEGIN:
			if ms.isWordAt(ms.sprev) || !ms.isWordAt(ms.s) {
				goto fail
			}
		case opcode.WORD_END:
			if !ms.isWordAt(ms.sprev) || ms.isWordAt(ms.s) {
				goto fail
			}

		case opcode.MEMORY_START:
			num := int(rd.MemNum())
			ms.memStartStk[num] = ms.s
		case opcode.MEMORY_START_PUSH:
			num := int(rd.MemNum())
			idx, err := stack.PushMemStart(num, ms.s, ms.memStartStk[num], ms.memEndStk[num])
			if err != nil {
				return ms.wrapErr(pc, op, err)
			}
			ms.memStartStk[num] = idx
			// Reopening the group invalidates its end until MEMORY_END runs
			// again; the saved PrevEnd restores it on backtrack.
			ms.memEndStk[num] = region.NotPos
		case opcode.MEMORY_END:
			num := int(rd.MemNum())
			ms.memEndStk[num] = ms.s
		case opcode.MEMORY_END_REC:
			num := int(rd.MemNum())
			ms.memEndStk[num] = ms.s
			if err := stack.PushMemEndMark(num); err != nil {
				return ms.wrapErr(pc, op, err)
			}
		case opcode.MEMORY_END_PUSH:
			num := int(rd.MemNum())
			idx, err := stack.PushMemEnd(num, ms.s, ms.memStartStk[num], ms.memEndStk[num])
			if err != nil {
				return ms.wrapErr(pc, op, err)
			}
			ms.memEndStk[num] = idx
		case opcode.MEMORY_END_PUSH_REC:
			num := int(rd.MemNum())
			idx, err := stack.PushMemEnd(num, ms.s, ms.memStartStk[num], ms.memEndStk[num])
			if err != nil {
				return ms.wrapErr(pc, op, err)
			}
			ms.memEndStk[num] = idx
			if err := stack.PushMemEndMark(num); err != nil {
				return ms.wrapErr(pc, op, err)
			}

		case opcode.BACKREF1:
			if !ms.backrefMatch(1, false) {
				goto fail
			}
		case opcode.BACKREF2:
			if !ms.backrefMatch(2, false) {
				goto fail
			}
		case opcode.BACKREFN:
			num := int(rd.MemNum())
			if !ms.backrefMatch(num, false) {
				goto fail
			}
		case opcode.BACKREFN_IC:
			num := int(rd.MemNum())
			if !ms.backrefMatch(num, true) {
				goto fail
			}
		case opcode.BACKREF_MULTI, opcode.BACKREF_MULTI_IC:
			count := int(rd.Length())
			nums := make([]int, count)
			for i := range nums {
				nums[i] = int(rd.MemNum())
			}
			fold := op == opcode.BACKREF_MULTI_IC
			matched := false
			for _, num := range nums {
				if ms.backrefMatch(num, fold) {
					matched = true
					break
				}
			}
			if !matched {
				goto fail
			}
		case opcode.BACKREF_WITH_LEVEL:
			flags := rd.Option()
			num := int(rd.MemNum())
			level := int(rd.Length())
			b, e, ok := ms.findCaptureAtLevel(num, level)
			if !ok || !ms.backrefMatchSpan(b, e, flags&1 != 0) {
				goto fail
			}

		case opcode.EMPTY_CHECK_START:
			id := int(rd.Length())
			if err := stack.PushEmptyCheckStart(id, ms.s); err != nil {
				return ms.wrapErr(pc, op, err)
			}

		case opcode.EMPTY_CHECK_END:
			id := int(rd.Length())
			idx, ok := stack.SearchBalanced(0, func(f *btstack.Frame) bool {
				return f.Type == btstack.EmptyCheckStart && f.EmptyCheckID == id
			})
			if !ok {
				return ms.wrapErr(pc, op, ErrStackBug)
			}
			if stack.At(idx).S == ms.s {
				if err := ms.skipInstruction(); err != nil {
					return ms.wrapErr(pc, op, err)
				}
			}

		case opcode.EMPTY_CHECK_END_MEMST:
			id := int(rd.Length())
			idx, ok := stack.SearchBalanced(0, func(f *btstack.Frame) bool {
				return f.Type == btstack.EmptyCheckStart && f.EmptyCheckID == id
			})
			if !ok {
				return ms.wrapErr(pc, op, ErrStackBug)
			}
			if stack.At(idx).S == ms.s {
				switch ms.emptyCheckVerdict(idx) {
				case emptyCheckFail:
					goto fail
				case emptyCheckSkip:
					if err := ms.skipInstruction(); err != nil {
						return ms.wrapErr(pc, op, err)
					}
				}
			}

		case opcode.EMPTY_CHECK_END_MEMST_REC:
			id := int(rd.Length())
			idx, ok := stack.SearchBalanced(0, func(f *btstack.Frame) bool {
				return f.Type == btstack.EmptyCheckStart && f.EmptyCheckID == id
			})
			if !ok {
				return ms.wrapErr(pc, op, ErrStackBug)
			}
			if err := stack.PushEmptyCheckEnd(id); err != nil {
				return ms.wrapErr(pc, op, err)
			}
			if stack.At(idx).S == ms.s {
				switch ms.emptyCheckVerdict(idx) {
				case emptyCheckFail:
					goto fail
				case emptyCheckSkip:
					if err := ms.skipInstruction(); err != nil {
						return ms.wrapErr(pc, op, err)
					}
				}
			}

		case opcode.REPEAT, opcode.REPEAT_NG:
			id := int(rd.Length())
			bodyAddr := rd.AbsAddr()
			after := rd.PC
			idx, err := stack.PushRepeat(id, int(bodyAddr))
			if err != nil {
				return ms.wrapErr(pc, op, err)
			}
			ms.repeatStk[id] = idx
			rr := prog.RepeatRange[id]
			if op == opcode.REPEAT {
				if rr.Lower == 0 {
					if err := stack.PushAlt(after, ms.s, ms.sprev); err != nil {
						return ms.wrapErr(pc, op, err)
					}
				}
				rd.Jump(bodyAddr)
			} else {
				// Reluctant: prefer the skip, keep the body as the
				// alternative. A non-zero lower bound forces the body
				// regardless of preference.
				if rr.Lower == 0 {
					if err := stack.PushAlt(int(bodyAddr), ms.s, ms.sprev); err != nil {
						return ms.wrapErr(pc, op, err)
					}
				} else {
					rd.Jump(bodyAddr)
				}
			}

		case opcode.REPEAT_INC, opcode.REPEAT_INC_NG, opcode.REPEAT_INC_SG, opcode.REPEAT_INC_NG_SG:
			if ms.interrupter != nil && ms.interrupter.Interrupted() {
				return ms.wrapErr(pc, op, ErrInterrupted)
			}
			id := int(rd.Length())
			sg := op == opcode.REPEAT_INC_SG || op == opcode.REPEAT_INC_NG_SG
			ng := op == opcode.REPEAT_INC_NG || op == opcode.REPEAT_INC_NG_SG
			frameIdx, err := ms.repeatFrameIndex(id, sg)
			if err != nil {
				return ms.wrapErr(pc, op, err)
			}
			frame := stack.At(frameIdx)
			frame.Count++
			bodyAddr := conv.IntToUint32(frame.PC)
			count := frame.Count
			if err := stack.PushRepeatInc(frameIdx); err != nil {
				return ms.wrapErr(pc, op, err)
			}
			rr := prog.RepeatRange[id]
			after := rd.PC
			switch {
			case count < rr.Lower:
				rd.Jump(bodyAddr)
			case rr.Upper == opcode.Unbounded || count < rr.Upper:
				if !ng {
					if err := stack.PushAlt(after, ms.s, ms.sprev); err != nil {
						return ms.wrapErr(pc, op, err)
					}
					rd.Jump(bodyAddr)
				} else {
					if err := stack.PushAlt(int(bodyAddr), ms.s, ms.sprev); err != nil {
						return ms.wrapErr(pc, op, err)
					}
				}
			}

		case opcode.JUMP:
			if ms.interrupter != nil && ms.interrupter.Interrupted() {
				return ms.wrapErr(pc, op, ErrInterrupted)
			}
			rd.JumpRelative(rd.RelAddr())

		case opcode.PUSH:
			rel := rd.RelAddr()
			target := rd.PC + int(rel)
			if err := stack.PushAlt(target, ms.s, ms.sprev); err != nil {
				return ms.wrapErr(pc, op, err)
			}

		case opcode.POP:
			if err := stack.Drop(); err != nil {
				return ms.wrapErr(pc, op, err)
			}

		case opcode.PUSH_OR_JUMP_EXACT1:
			rel := rd.RelAddr()
			base := rd.PC
			lit := rd.Byte()
			target := base + int(rel)
			if ms.s < ms.end && input[ms.s] == lit {
				if err := stack.PushAlt(target, ms.s, ms.sprev); err != nil {
					return ms.wrapErr(pc, op, err)
				}
			} else {
				rd.Jump(conv.IntToUint32(target))
			}

		case opcode.PUSH_IF_PEEK_NEXT:
			rel := rd.RelAddr()
			base := rd.PC
			peek := rd.Byte()
			target := base + int(rel)
			if ms.s < ms.end && input[ms.s] == peek {
				if err := stack.PushAlt(target, ms.s, ms.sprev); err != nil {
					return ms.wrapErr(pc, op, err)
				}
			}

		case opcode.PUSH_POS:
			if err := stack.PushPos(ms.s, ms.sprev); err != nil {
				return ms.wrapErr(pc, op, err)
			}
		case opcode.POP_POS:
			frame, err := stack.PopUntil(btstack.Pos, true, ms.memStartStk, ms.memEndStk, ms.stateCheck)
			if err != nil {
				return ms.wrapErr(pc, op, err)
			}
			ms.s, ms.sprev = frame.S, frame.SPrev

		case opcode.PUSH_STOP_BT:
			idx, err := stack.PushStopBT()
			if err != nil {
				return ms.wrapErr(pc, op, err)
			}
			ms.stopBtStk = append(ms.stopBtStk, idx)
		case opcode.POP_STOP_BT:
			n := len(ms.stopBtStk)
			if n == 0 {
				return ms.wrapErr(pc, op, ErrStackBug)
			}
			idx := ms.stopBtStk[n-1]
			ms.stopBtStk = ms.stopBtStk[:n-1]
			stack.VoidAltsAbove(idx)

		case opcode.PUSH_PREC_READ_NOT:
			rel := rd.RelAddr()
			target := rd.PC + int(rel)
			if err := stack.PushAltPrecReadNot(target, ms.s, ms.sprev); err != nil {
				return ms.wrapErr(pc, op, err)
			}
		case opcode.FAIL_PREC_READ_NOT:
			if _, err := stack.PopUntil(btstack.AltPrecReadNot, false, ms.memStartStk, ms.memEndStk, ms.stateCheck); err != nil {
				return ms.wrapErr(pc, op, err)
			}
			goto fail

		case opcode.LOOK_BEHIND:
			charLen := int(rd.Length())
			back := prog.Encoding.StepBack(input, ms.str, ms.s, charLen)
			if back < 0 {
				goto fail
			}
			ms.s = back
			ms.sprev = ms.prevHead(back)

		case opcode.PUSH_LOOK_BEHIND_NOT:
			rel := rd.RelAddr()
			base := rd.PC
			charLen := int(rd.Length())
			target := base + int(rel)
			back := prog.Encoding.StepBack(input, ms.str, ms.s, charLen)
			if back < 0 {
				if ms.cfg.LookBehindNotShortSucceeds {
					rd.Jump(conv.IntToUint32(target))
				} else {
					goto fail
				}
			} else {
				if err := stack.PushAltLookBehindNot(target, ms.s, ms.sprev); err != nil {
					return ms.wrapErr(pc, op, err)
				}
				ms.s = back
				ms.sprev = ms.prevHead(back)
			}
		case opcode.FAIL_LOOK_BEHIND_NOT:
			if _, err := stack.PopUntil(btstack.AltLookBehindNot, false, ms.memStartStk, ms.memEndStk, ms.stateCheck); err != nil {
				return ms.wrapErr(pc, op, err)
			}
			goto fail

		case opcode.CALL:
			addr := rd.AbsAddr()
			ret := rd.PC
			if err := stack.PushCallFrame(ret); err != nil {
				return ms.wrapErr(pc, op, err)
			}
			rd.Jump(addr)
		case opcode.RETURN:
			addr, err := stack.PopReturn()
			if err != nil {
				return ms.wrapErr(pc, op, err)
			}
			rd.Jump(conv.IntToUint32(addr))

		case opcode.PUSH_SAVE_VAL:
			kind := rd.SaveType()
			id := int(rd.Length())
			// KEEP and S both record the current position: \K later moves
			// keep to the recorded spot, restart moves s back to it.
			var val int
			switch kind {
			case opcode.SaveKeep, opcode.SaveS:
				val = ms.s
			case opcode.SaveRightRange:
				val = ms.rightRange
			}
			if err := stack.PushSaveVal(kind, id, val); err != nil {
				return ms.wrapErr(pc, op, err)
			}
		case opcode.UPDATE_VAR:
			kind := rd.SaveType()
			id := int(rd.Length())
			idx, ok := stack.SearchBalanced(0, func(f *btstack.Frame) bool {
				return f.Type == btstack.SaveVal && f.SaveKind == kind && f.SaveID == id
			})
			if !ok {
				return ms.wrapErr(pc, op, ErrStackBug)
			}
			val := stack.At(idx).SaveVal
			switch kind {
			case opcode.SaveKeep:
				ms.keep = val
			case opcode.SaveS:
				ms.s = val
				ms.sprev = ms.prevHead(val)
			case opcode.SaveRightRange:
				ms.rightRange = val
			}

		case opcode.STATE_CHECK_PUSH, opcode.STATE_CHECK_PUSH_OR_JUMP:
			site := int(rd.Length())
			rel := rd.RelAddr()
			target := rd.PC + int(rel)
			if ms.stateCheck != nil && ms.stateCheck.Test(ms.s-ms.str, site) {
				// Already tried and failed from this (position, site). The
				// PUSH form fails outright; the PUSH_OR_JUMP form skips the
				// alternative it would have pushed and takes the jump.
				if op == opcode.STATE_CHECK_PUSH {
					goto fail
				}
				rd.Jump(conv.IntToUint32(target))
				continue
			}
			if ms.stateCheck != nil {
				if err := stack.PushStateCheckMark(ms.s-ms.str, site); err != nil {
					return ms.wrapErr(pc, op, err)
				}
			}
			if err := stack.PushAlt(target, ms.s, ms.sprev); err != nil {
				return ms.wrapErr(pc, op, err)
			}

		case opcode.STATE_CHECK:
			site := int(rd.Length())
			if ms.stateCheck != nil {
				if ms.stateCheck.Test(ms.s-ms.str, site) {
					goto fail
				}
				if err := stack.PushStateCheckMark(ms.s-ms.str, site); err != nil {
					return ms.wrapErr(pc, op, err)
				}
			}

		case opcode.FAIL:
			goto fail

		default:
			return NoMatch, &OpcodeError{PC: pc, Op: op, Err: ErrUndefinedBytecode}
		}

		continue

	fail:
		frame, err := stack.Pop(ms.popLevel(), ms.memStartStk, ms.memEndStk, ms.stateCheck)
		if err != nil {
			return NoMatch, err
		}
		if frame.PC == ms.finishPC {
			if prog.FindLongest && ms.bestLen >= 0 {
				return ms.bestLen, nil
			}
			return NoMatch, nil
		}
		ms.tracer.OnBacktrack(frame.PC)
		rd.Jump(conv.IntToUint32(frame.PC))
		ms.s = frame.S
		ms.sprev = frame.SPrev
	}
}

// wrapErr attaches the failing opcode's position to err, matching the
// nfa.CompileError "context struct with Unwrap" convention.
func (ms *matchState) wrapErr(pc int, op opcode.Opcode, err error) (int, error) {
	return NoMatch, &OpcodeError{PC: pc, Op: op, Err: err}
}

// skipInstruction discards the one instruction EMPTY_CHECK_END is allowed
// to be immediately followed by, without executing it: the compiler only
// ever emits JUMP, PUSH or a REPEAT_INC family opcode there.
func (ms *matchState) skipInstruction() error {
	switch ms.rd.Opcode() {
	case opcode.JUMP, opcode.PUSH:
		ms.rd.RelAddr()
	case opcode.REPEAT_INC, opcode.REPEAT_INC_NG, opcode.REPEAT_INC_SG, opcode.REPEAT_INC_NG_SG:
		ms.rd.Length()
	default:
		return ErrUnexpectedBytecode
	}
	return nil
}

// Verdicts of the capture-aware empty-loop guard, EMPTY_CHECK_END_MEMST
// and its _REC variant: skip the loop-back instruction, fall through to it
// normally, or fail the whole iteration.
const (
	emptyCheckSkip     = 1
	emptyCheckContinue = 0
	emptyCheckFail     = -1
)

// emptyCheckVerdict scans the MemStart frames pushed above the guard's
// checkpoint at idx, resolving the previous span each one saved for its
// group. Any group whose saved span is non-empty, or that has no complete
// previous span yet (first pass through the loop), means the body made
// capture progress: continue. A saved span that is empty but whose
// endpoint differs from the current position means the captures moved
// while the position did not: fail. Only when every saved span is empty
// at the current position is the body truly empty: skip.
func (ms *matchState) emptyCheckVerdict(idx int) int {
	verdict := emptyCheckSkip
	for i := idx + 1; i < ms.stack.Len(); i++ {
		f := ms.stack.At(i)
		if f.Type != btstack.MemStart {
			continue
		}
		if f.PrevStart < 0 || f.PrevEnd < 0 {
			return emptyCheckContinue
		}
		endp := f.PrevEnd
		if f.Num < len(ms.prog.BtMemEnd) && ms.prog.BtMemEnd[f.Num] {
			endp = ms.stack.At(f.PrevEnd).S
		}
		startp := f.PrevStart
		if f.Num < len(ms.prog.BtMemStart) && ms.prog.BtMemStart[f.Num] {
			startp = ms.stack.At(f.PrevStart).S
		}
		if startp != endp {
			return emptyCheckContinue
		}
		if endp != ms.s {
			verdict = emptyCheckFail
		}
	}
	return verdict
}

// repeatFrameIndex resolves a repetition site's live STK_REPEAT frame: the
// direct repeat_stk[id] slot ordinarily, or a balanced backward search when
// sg is true (the _SG opcodes, used where the same id's slot is ambiguous
// across a recursive subroutine call).
func (ms *matchState) repeatFrameIndex(id int, sg bool) (int, error) {
	if !sg {
		idx := ms.repeatStk[id]
		if idx < 0 {
			return 0, ErrStackBug
		}
		return idx, nil
	}
	idx, ok := ms.stack.SearchBalanced(0, func(f *btstack.Frame) bool {
		return f.Type == btstack.Repeat && f.RepeatID == id
	})
	if !ok {
		return 0, ErrStackBug
	}
	return idx, nil
}

// findCaptureAtLevel locates group num's start/end at a CALL/RETURN
// nesting depth offset by level from the current point, for
// BACKREF_WITH_LEVEL.
func (ms *matchState) findCaptureAtLevel(num, level int) (b, e int, ok bool) {
	si, ok1 := ms.stack.SearchBalanced(level, func(f *btstack.Frame) bool {
		return f.Type == btstack.MemStart && f.Num == num
	})
	ei, ok2 := ms.stack.SearchBalanced(level, func(f *btstack.Frame) bool {
		return f.Type == btstack.MemEnd && f.Num == num
	})
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	return ms.stack.At(si).S, ms.stack.At(ei).S, true
}

// finalizeSuccess fills the caller's Region from the just-committed
// (keep, s) match span and, if enabled, builds the capture-history tree.
func (ms *matchState) finalizeSuccess(keep, s int) {
	reg := ms.region
	reg.Resize(ms.prog.NumRegs())
	reg.Set(0, keep-ms.str, s-ms.str)
	for g := 1; g <= ms.prog.NumMem; g++ {
		b := ms.getMemStart(g)
		e := ms.getMemEnd(g)
		if b == region.NotPos || e == region.NotPos {
			reg.Set(g, region.NotPos, region.NotPos)
		} else {
			reg.Set(g, b-ms.str, e-ms.str)
		}
	}
	reg.HistoryRoot = nil
	if ms.cfg.EnableCaptureHistory && NumberOfCaptureHistories(ms.prog) > 0 {
		reg.HistoryRoot = buildHistory(ms.prog, reg)
	}
}
