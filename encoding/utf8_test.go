package encoding

import "testing"

func TestUTF8CharLen(t *testing.T) {
	input := []byte("aé日")
	if got := UTF8.CharLen(input, 0, len(input)); got != 1 {
		t.Errorf("CharLen at 0 = %d, want 1", got)
	}
	if got := UTF8.CharLen(input, 1, len(input)); got != 2 {
		t.Errorf("CharLen at 1 = %d, want 2", got)
	}
	if got := UTF8.CharLen(input, 3, len(input)); got != 3 {
		t.Errorf("CharLen at 3 = %d, want 3", got)
	}
}

func TestUTF8PrevCharHeadSkipsContinuationBytes(t *testing.T) {
	input := []byte("aéb")
	if got := UTF8.PrevCharHead(input, 0, 3); got != 1 {
		t.Errorf("PrevCharHead(3) = %d, want 1 (head of the two-byte character)", got)
	}
	if got := UTF8.PrevCharHead(input, 0, 1); got != 0 {
		t.Errorf("PrevCharHead(1) = %d, want 0", got)
	}
}

func TestUTF8StepBack(t *testing.T) {
	input := []byte("aéb")
	if got := UTF8.StepBack(input, 0, 4, 2); got != 1 {
		t.Errorf("StepBack(4, 2) = %d, want 1", got)
	}
	if got := UTF8.StepBack(input, 0, 1, 2); got != -1 {
		t.Errorf("StepBack(1, 2) = %d, want -1 (not enough characters)", got)
	}
}

func TestUTF8CaseFoldAdvancesCursor(t *testing.T) {
	input := []byte("Éx") // É
	p := 0
	folded := UTF8.CaseFold(0, input, &p, len(input), nil)
	if p != 2 {
		t.Fatalf("cursor = %d after folding a two-byte character, want 2", p)
	}
	if string(folded) != "é" {
		t.Fatalf("folded = %q, want %q", folded, "é")
	}
}

func TestUTF8IsWord(t *testing.T) {
	input := []byte("日 ")
	if !UTF8.IsWord(input, 0, len(input)) {
		t.Errorf("IsWord(CJK letter) = false, want true")
	}
	if UTF8.IsWord(input, 3, len(input)) {
		t.Errorf("IsWord(space) = true, want false")
	}
}

func TestUTF8IsValidString(t *testing.T) {
	if !UTF8.IsValidString([]byte("aé"), 0, 3) {
		t.Errorf("IsValidString(well-formed) = false, want true")
	}
	if UTF8.IsValidString([]byte{0xff, 0xfe}, 0, 2) {
		t.Errorf("IsValidString(malformed) = true, want false")
	}
}
