package vm

import (
	"errors"
	"testing"

	"github.com/kurogane-re/onigo/btstack"
	"github.com/kurogane-re/onigo/encoding"
	"github.com/kurogane-re/onigo/internal/asmtest"
	"github.com/kurogane-re/onigo/opcode"
	"github.com/kurogane-re/onigo/region"
)

// (?=ab)a: the lookahead body consumes "ab", POP_POS rewinds to the entry
// position, and the outer match consumes just "a".
func TestPositiveLookaheadRewindsPosition(t *testing.T) {
	b := asmtest.New()
	b.Op(opcode.PUSH_POS)
	b.OpBytes(opcode.EXACT2, []byte("ab"))
	b.Op(opcode.POP_POS)
	b.OpByte(opcode.EXACT1, 'a')
	b.Op(opcode.END)
	b.Patch()

	prog := baseProgram(b.Code())
	reg := requireMatch(t, prog, []byte("ab"), 0)
	assertRegion(t, reg, [2]int{0, 1})
}

// a(?!b): reaching FAIL_PREC_READ_NOT means the negated body matched, so
// the whole match fails; backtracking into the ALT_PREC_READ_NOT frame is
// how the assertion succeeds.
func TestNegativeLookahead(t *testing.T) {
	b := asmtest.New()
	b.OpByte(opcode.EXACT1, 'a')
	b.OpRel(opcode.PUSH_PREC_READ_NOT, "after")
	b.OpByte(opcode.EXACT1, 'b')
	b.Op(opcode.FAIL_PREC_READ_NOT)
	b.Label("after")
	b.Op(opcode.END)
	b.Patch()

	prog := baseProgram(b.Code())
	reg := requireMatch(t, prog, []byte("ac"), 0)
	assertRegion(t, reg, [2]int{0, 1})

	requireMismatch(t, prog, []byte("ab"), 0)
}

// A subroutine called twice: the group inside it ends up holding the second
// call's span, and RETURN's stack surgery keeps the walks balanced.
func TestSubroutineCalledTwice(t *testing.T) {
	b := asmtest.New()
	b.OpRel(opcode.JUMP, "main")
	b.Label("sub")
	b.OpMemNum(opcode.MEMORY_START_PUSH, 1)
	b.OpByte(opcode.EXACT1, 'a')
	b.OpMemNum(opcode.MEMORY_END_PUSH, 1)
	b.Op(opcode.RETURN)
	b.Label("main")
	b.OpAbsLabel(opcode.CALL, "sub")
	b.OpAbsLabel(opcode.CALL, "sub")
	b.Op(opcode.END)
	b.Patch()

	prog := baseProgram(b.Code())
	prog.NumMem = 1
	prog.BtMemStart = []bool{false, true}
	prog.BtMemEnd = []bool{false, true}

	reg := requireMatch(t, prog, []byte("aa"), 0)
	assertRegion(t, reg, [2]int{0, 2}, [2]int{1, 2})
}

// foo\Kbar: the keep mark moves the reported match start past "foo".
func TestKeepMarkMovesMatchStart(t *testing.T) {
	b := asmtest.New()
	b.OpBytes(opcode.EXACT3, []byte("foo"))
	b.OpSaveVar(opcode.PUSH_SAVE_VAL, opcode.SaveKeep, 0)
	b.OpSaveVar(opcode.UPDATE_VAR, opcode.SaveKeep, 0)
	b.OpBytes(opcode.EXACT3, []byte("bar"))
	b.Op(opcode.END)
	b.Patch()

	prog := baseProgram(b.Code())
	reg := region.New(prog.NumRegs())
	length, err := Match(prog, []byte("foobar"), 0, 6, 0, reg, DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("Match error: %v", err)
	}
	if length != 3 {
		t.Fatalf("length = %d, want 3 (keep mark excludes the prefix)", length)
	}
	assertRegion(t, reg, [2]int{3, 6})
}

// a|aa under FIND_LONGEST commits the two-character alternative even though
// the one-character branch succeeds first.
func TestFindLongestPrefersLongerAlternative(t *testing.T) {
	b := asmtest.New()
	b.OpRel(opcode.PUSH, "alt2")
	b.OpByte(opcode.EXACT1, 'a')
	b.OpRel(opcode.JUMP, "join")
	b.Label("alt2")
	b.OpBytes(opcode.EXACT2, []byte("aa"))
	b.Label("join")
	b.Op(opcode.END)
	b.Patch()

	prog := baseProgram(b.Code())
	prog.FindLongest = true

	reg := region.New(prog.NumRegs())
	length, err := Match(prog, []byte("aa"), 0, 2, 0, reg, DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("Match error: %v", err)
	}
	if length != 2 {
		t.Fatalf("length = %d, want 2 (longest across alternatives)", length)
	}
	assertRegion(t, reg, [2]int{0, 2})
}

// a*?b: the reluctant repeat prefers the skip, re-entering the body one
// character at a time only as 'b' keeps failing.
func TestReluctantRepeatConsumesMinimally(t *testing.T) {
	b := asmtest.New()
	b.OpLengthThenAbsLabel(opcode.REPEAT_NG, 0, "body")
	b.OpRel(opcode.JUMP, "after")
	b.Label("body")
	b.OpByte(opcode.EXACT1, 'a')
	b.OpLength(opcode.REPEAT_INC_NG, 0)
	b.Label("after")
	b.OpByte(opcode.EXACT1, 'b')
	b.Op(opcode.END)
	b.Patch()

	prog := baseProgram(b.Code())
	prog.NumRepeat = 1
	prog.RepeatRange = []opcode.RepeatRange{{Lower: 0, Upper: opcode.Unbounded}}

	reg := requireMatch(t, prog, []byte("aab"), 0)
	assertRegion(t, reg, [2]int{0, 3})
}

// \bcd searched in "abcd cd": the candidate inside "abcd" must be rejected
// because the character before it is a word character; the standalone "cd"
// matches.
func TestWordBoundSeesCharacterBeforeCandidate(t *testing.T) {
	b := asmtest.New()
	b.Op(opcode.WORD_BOUND)
	b.OpBytes(opcode.EXACT2, []byte("cd"))
	b.Op(opcode.END)
	b.Patch()

	prog := baseProgram(b.Code())
	prog.Exact = []byte("cd")

	input := []byte("abcd cd")
	reg := region.New(prog.NumRegs())
	start, err := SearchForOffset(prog, input, 0, len(input), 0, len(input), reg, DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("SearchForOffset error: %v", err)
	}
	if start != 5 {
		t.Fatalf("start = %d, want 5 (the mid-word candidate at 2 must fail the boundary)", start)
	}
}

// A repeated group that matches only empty, as in (()?)*c: the first pass
// has no completed previous span yet and continues; the second pass sees
// the saved span empty at the checkpoint position and skips out of the
// loop, keeping the empty capture.
func TestEmptyCheckMemstSkipsEmptyCapturingLoop(t *testing.T) {
	b := asmtest.New()
	b.OpLengthThenAbsLabel(opcode.REPEAT, 0, "body")
	b.OpRel(opcode.JUMP, "after")
	b.Label("body")
	b.OpLength(opcode.EMPTY_CHECK_START, 0)
	b.OpMemNum(opcode.MEMORY_START_PUSH, 1)
	b.OpMemNum(opcode.MEMORY_END_PUSH, 1)
	b.OpLength(opcode.EMPTY_CHECK_END_MEMST, 0)
	b.OpLength(opcode.REPEAT_INC, 0)
	b.Label("after")
	b.OpByte(opcode.EXACT1, 'c')
	b.Op(opcode.END)
	b.Patch()

	prog := baseProgram(b.Code())
	prog.NumMem = 1
	prog.NumRepeat = 1
	prog.NumEmptyCheck = 1
	prog.RepeatRange = []opcode.RepeatRange{{Lower: 0, Upper: opcode.Unbounded}}
	prog.BtMemStart = []bool{false, true}
	prog.BtMemEnd = []bool{false, true}

	reg := requireMatch(t, prog, []byte("c"), 0)
	assertRegion(t, reg, [2]int{0, 1}, [2]int{0, 0})
}

// A loop body that recaptures an empty span at a position other than the
// checkpoint (the body advances, captures, then steps back): position
// progress is zero but the captures moved, so the guard fails the
// iteration and the repeat exits through its alternative.
func TestEmptyCheckMemstFailsWhenCapturesMovedWithoutProgress(t *testing.T) {
	b := asmtest.New()
	b.OpLengthThenAbsLabel(opcode.REPEAT, 0, "body")
	b.OpRel(opcode.JUMP, "after")
	b.Label("body")
	b.OpLength(opcode.EMPTY_CHECK_START, 0)
	b.OpByte(opcode.EXACT1, 'a')
	b.OpMemNum(opcode.MEMORY_START_PUSH, 1)
	b.OpMemNum(opcode.MEMORY_END_PUSH, 1)
	b.OpLength(opcode.LOOK_BEHIND, 1)
	b.OpLength(opcode.EMPTY_CHECK_END_MEMST, 0)
	b.OpLength(opcode.REPEAT_INC, 0)
	b.Label("after")
	b.OpByte(opcode.EXACT1, 'a')
	b.Op(opcode.END)
	b.Patch()

	prog := baseProgram(b.Code())
	prog.NumMem = 1
	prog.NumRepeat = 1
	prog.NumEmptyCheck = 1
	prog.RepeatRange = []opcode.RepeatRange{{Lower: 0, Upper: opcode.Unbounded}}
	prog.BtMemStart = []bool{false, true}
	prog.BtMemEnd = []bool{false, true}

	reg := requireMatch(t, prog, []byte("a"), 0)
	assertRegion(t, reg, [2]int{0, 1}, [2]int{1, 1})
}

// A loop body that captures a non-empty span without net position
// progress falls through the guard normally: no skip, no fail, the
// loop-back instruction runs.
func TestEmptyCheckMemstContinuesOnNonEmptyCapture(t *testing.T) {
	b := asmtest.New()
	b.OpMemNum(opcode.MEMORY_START_PUSH, 1)
	b.OpByte(opcode.EXACT1, 'a')
	b.OpMemNum(opcode.MEMORY_END_PUSH, 1)
	b.OpLength(opcode.LOOK_BEHIND, 1)
	b.OpLength(opcode.EMPTY_CHECK_START, 0)
	b.OpMemNum(opcode.MEMORY_START_PUSH, 1)
	b.OpByte(opcode.EXACT1, 'a')
	b.OpMemNum(opcode.MEMORY_END_PUSH, 1)
	b.OpLength(opcode.LOOK_BEHIND, 1)
	b.OpLength(opcode.EMPTY_CHECK_END_MEMST, 0)
	b.OpRel(opcode.JUMP, "out")
	b.Op(opcode.FAIL)
	b.Label("out")
	b.OpByte(opcode.EXACT1, 'a')
	b.Op(opcode.END)
	b.Patch()

	prog := baseProgram(b.Code())
	prog.NumMem = 1
	prog.NumEmptyCheck = 1
	prog.BtMemStart = []bool{false, true}
	prog.BtMemEnd = []bool{false, true}

	// The recapture's saved span is (0,1): non-empty, so the guard must
	// let the JUMP after it run. A skip verdict would land on FAIL and
	// mismatch; a fail verdict would mismatch outright.
	reg := requireMatch(t, prog, []byte("a"), 0)
	assertRegion(t, reg, [2]int{0, 1}, [2]int{0, 1})
}

// (a(b)) with history tracking: the tree mirrors dynamic nesting under the
// whole-match root.
func TestCaptureHistoryTreeShape(t *testing.T) {
	b := asmtest.New()
	b.OpMemNum(opcode.MEMORY_START_PUSH, 1)
	b.OpByte(opcode.EXACT1, 'a')
	b.OpMemNum(opcode.MEMORY_START_PUSH, 2)
	b.OpByte(opcode.EXACT1, 'b')
	b.OpMemNum(opcode.MEMORY_END_PUSH, 2)
	b.OpMemNum(opcode.MEMORY_END_PUSH, 1)
	b.Op(opcode.END)
	b.Patch()

	prog := baseProgram(b.Code())
	prog.NumMem = 2
	prog.BtMemStart = []bool{false, true, true}
	prog.BtMemEnd = []bool{false, true, true}
	prog.CaptureHistory = []bool{false, true, true}

	reg := requireMatch(t, prog, []byte("ab"), 0)
	root := GetCaptureTree(reg)
	if root == nil {
		t.Fatalf("GetCaptureTree = nil, want a root node")
	}
	if root.Group != 0 || root.Beg != 0 || root.End != 2 {
		t.Fatalf("root = group %d (%d,%d), want group 0 (0,2)", root.Group, root.Beg, root.End)
	}
	if len(root.Children) != 1 || root.Children[0].Group != 1 {
		t.Fatalf("root children = %v, want exactly group 1", root.Children)
	}
	inner := root.Children[0]
	if len(inner.Children) != 1 || inner.Children[0].Group != 2 {
		t.Fatalf("group 1 children = %v, want exactly group 2", inner.Children)
	}
}

func TestValidateEncodingSurfacesInvalidInput(t *testing.T) {
	b := asmtest.New()
	b.Op(opcode.END)
	b.Patch()

	prog := baseProgram(b.Code())
	prog.Encoding = encoding.UTF8

	cfg := DefaultConfig()
	cfg.ValidateEncoding = true
	reg := region.New(prog.NumRegs())
	_, err := Match(prog, []byte{0xff, 0xfe}, 0, 2, 0, reg, cfg, nil, nil)
	if !errors.Is(err, ErrInvalidWideCharValue) {
		t.Fatalf("Match on malformed UTF-8 = %v, want ErrInvalidWideCharValue", err)
	}
}

func TestMatchStackLimitSurfacesThroughInterpreter(t *testing.T) {
	prev := btstack.GetMatchStackLimit()
	defer btstack.SetMatchStackLimit(prev)
	btstack.SetMatchStackLimit(150)

	b := asmtest.New()
	b.Op(opcode.ANYCHAR_ML_STAR)
	b.Op(opcode.FAIL)
	b.Patch()

	prog := baseProgram(b.Code())
	input := make([]byte, 400)
	reg := region.New(prog.NumRegs())
	_, err := Match(prog, input, 0, len(input), 0, reg, DefaultConfig(), nil, nil)
	if !errors.Is(err, ErrMatchStackLimitOver) {
		t.Fatalf("Match = %v, want ErrMatchStackLimitOver", err)
	}
}

type alwaysInterrupt struct{}

func (alwaysInterrupt) Interrupted() bool { return true }

func TestInterruptAbortsAtJump(t *testing.T) {
	b := asmtest.New()
	b.Label("loop")
	b.OpRel(opcode.JUMP, "loop")
	b.Patch()

	prog := baseProgram(b.Code())
	reg := region.New(prog.NumRegs())
	_, err := Match(prog, []byte("x"), 0, 1, 0, reg, DefaultConfig(), nil, alwaysInterrupt{})
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("Match = %v, want ErrInterrupted", err)
	}
}

func TestUndefinedOpcodeIsAnError(t *testing.T) {
	prog := baseProgram([]byte{0xee})
	reg := region.New(prog.NumRegs())
	_, err := Match(prog, []byte("x"), 0, 1, 0, reg, DefaultConfig(), nil, nil)
	if !errors.Is(err, ErrUndefinedBytecode) {
		t.Fatalf("Match = %v, want ErrUndefinedBytecode", err)
	}
	var oe *OpcodeError
	if !errors.As(err, &oe) || oe.PC != 0 {
		t.Fatalf("error = %#v, want *OpcodeError at pc 0", err)
	}
}

// Zero-width end-anchored search with range == start.
func TestSearchAtEndWithEqualStartAndRange(t *testing.T) {
	b := asmtest.New()
	b.Op(opcode.END_BUF)
	b.Op(opcode.END)
	b.Patch()

	prog := baseProgram(b.Code())
	input := []byte("abc")
	reg := region.New(prog.NumRegs())
	start, err := SearchForOffset(prog, input, 0, len(input), len(input), len(input), reg, DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("SearchForOffset error: %v", err)
	}
	if start != 3 {
		t.Fatalf("start = %d, want 3 (zero-width match at end)", start)
	}
	assertRegion(t, reg, [2]int{3, 3})
}

func TestMatchNilArgumentsRejected(t *testing.T) {
	if _, err := Match(nil, nil, 0, 0, 0, region.New(1), DefaultConfig(), nil, nil); err != ErrInvalidArgument {
		t.Fatalf("Match(nil prog) = %v, want ErrInvalidArgument", err)
	}
	prog := baseProgram([]byte{byte(opcode.END)})
	if _, err := Match(prog, nil, 0, 0, 0, nil, DefaultConfig(), nil, nil); err != ErrInvalidArgument {
		t.Fatalf("Match(nil region) = %v, want ErrInvalidArgument", err)
	}
}
