package prefix

import (
	"github.com/kurogane-re/onigo/encoding"
	"github.com/kurogane-re/onigo/simd"
)

// LiteralScanner is the slow-scan variant: a direct substring search for
// the program's exact literal prefix. It delegates to simd.Memmem's
// rare-byte-accelerated substring search, so "slow" describes the
// algorithmic role (no precomputed shift table), not the implementation.
type LiteralScanner struct {
	Literal []byte
	Reverse bool
}

// Find implements Scanner.
func (l *LiteralScanner) Find(haystack []byte, start int) int {
	if l.Reverse {
		return findReverse(haystack, start, l.Literal)
	}
	if start >= len(haystack) {
		if len(l.Literal) == 0 && start == len(haystack) {
			return start
		}
		return -1
	}
	idx := simd.Memmem(haystack[start:], l.Literal)
	if idx < 0 {
		return -1
	}
	return start + idx
}

func findReverse(haystack []byte, start int, lit []byte) int {
	if len(lit) == 0 {
		if start >= 0 {
			return start
		}
		return -1
	}
	for i := start; i >= 0; i-- {
		end := i + len(lit)
		if end > len(haystack) {
			continue
		}
		if string(haystack[i:end]) == string(lit) {
			return i
		}
	}
	return -1
}

// LiteralFoldScanner is LiteralScanner's case-folding twin ("_ic" variant):
// it folds the haystack through the program's encoding capability, one
// character at a time, and compares the result against Literal, which is
// already folded; a folded character can change byte length under
// multibyte encodings.
type LiteralFoldScanner struct {
	Literal []byte // already folded at compile time
	Enc     encoding.Capability
	Flag    encoding.CaseFoldFlag
	Reverse bool
}

// Find implements Scanner.
func (l *LiteralFoldScanner) Find(haystack []byte, start int) int {
	if l.Reverse {
		for i := start; i >= 0; i-- {
			if l.matchesAt(haystack, i) {
				return i
			}
		}
		return -1
	}
	for i := start; i <= len(haystack); i++ {
		if l.matchesAt(haystack, i) {
			return i
		}
	}
	return -1
}

func (l *LiteralFoldScanner) matchesAt(haystack []byte, at int) bool {
	p := at
	var buf []byte
	for len(buf) < len(l.Literal) {
		if p >= len(haystack) {
			return false
		}
		buf = l.Enc.CaseFold(l.Flag, haystack, &p, len(haystack), buf)
	}
	if len(buf) != len(l.Literal) {
		return false
	}
	for i, b := range buf {
		if b != l.Literal[i] {
			return false
		}
	}
	return true
}
