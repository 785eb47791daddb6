package vm

import (
	"testing"

	"github.com/kurogane-re/onigo/internal/asmtest"
	"github.com/kurogane-re/onigo/opcode"
	"github.com/kurogane-re/onigo/region"
)

func TestScanCollectsAllNonOverlappingMatches(t *testing.T) {
	prog := literalProgram("a")
	input := []byte("aaa")
	reg := region.New(prog.NumRegs())

	var starts []int
	count, err := Scan(prog, input, 0, len(input), reg, DefaultConfig(), nil, nil, func(n, matchPos int, r *region.Region) bool {
		if n != len(starts) {
			t.Errorf("callback ordinal = %d, want %d", n, len(starts))
		}
		starts = append(starts, matchPos)
		return true
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	want := []int{0, 1, 2}
	if count != len(want) {
		t.Fatalf("count = %d, want %d", count, len(want))
	}
	for i, w := range want {
		if starts[i] != w {
			t.Errorf("starts[%d] = %d, want %d", i, starts[i], w)
		}
	}
}

func TestScanStopsWhenCallbackReturnsFalse(t *testing.T) {
	prog := literalProgram("a")
	input := []byte("aaa")
	reg := region.New(prog.NumRegs())

	calls := 0
	count, err := Scan(prog, input, 0, len(input), reg, DefaultConfig(), nil, nil, func(n, matchPos int, r *region.Region) bool {
		calls++
		return false
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if calls != 1 || count != 1 {
		t.Fatalf("calls = %d, count = %d, want 1 and 1 (stopped after first)", calls, count)
	}
}

func TestScanAdvancesByOneCharacterOnEmptyMatch(t *testing.T) {
	b := asmtest.New()
	b.Op(opcode.END)
	b.Patch()
	prog := baseProgram(b.Code())
	input := []byte("ab")
	reg := region.New(prog.NumRegs())

	var starts []int
	count, err := Scan(prog, input, 0, len(input), reg, DefaultConfig(), nil, nil, func(n, matchPos int, r *region.Region) bool {
		starts = append(starts, matchPos)
		return true
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	want := []int{0, 1, 2}
	if count != len(want) {
		t.Fatalf("count = %d (starts %v), want %d", count, starts, len(want))
	}
	for i, w := range want {
		if starts[i] != w {
			t.Errorf("starts[%d] = %d, want %d", i, starts[i], w)
		}
	}
}

func TestScanReturnsZeroWhenNothingMatches(t *testing.T) {
	prog := literalProgram("zzz")
	input := []byte("aaa")
	reg := region.New(prog.NumRegs())

	count, err := Scan(prog, input, 0, len(input), reg, DefaultConfig(), nil, nil, func(n, matchPos int, r *region.Region) bool {
		t.Fatalf("callback invoked at %d, want no matches", matchPos)
		return true
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestScanRejectsNilCallback(t *testing.T) {
	prog := literalProgram("a")
	reg := region.New(prog.NumRegs())
	if _, err := Scan(prog, []byte("a"), 0, 1, reg, DefaultConfig(), nil, nil, nil); err != ErrInvalidArgument {
		t.Fatalf("Scan with nil callback = %v, want ErrInvalidArgument", err)
	}
}
