package prefix

import "github.com/kurogane-re/onigo/simd"

// MapScanner is the byte-class-map scan: a 256-entry bitmap of allowed
// first bytes, delegating to simd.MemchrInTable, with a dedicated fast
// path (simd.MemchrDigit) when the map admits exactly the ASCII digits.
type MapScanner struct {
	Table   *[256]bool
	Reverse bool

	digit digitState
}

type digitState uint8

const (
	digitUnknown digitState = iota
	digitYes
	digitNo
)

// Find implements Scanner.
func (m *MapScanner) Find(haystack []byte, start int) int {
	if m.Reverse {
		if start >= len(haystack) {
			start = len(haystack) - 1
		}
		for i := start; i >= 0; i-- {
			if m.Table[haystack[i]] {
				return i
			}
		}
		return -1
	}
	if start >= len(haystack) {
		return -1
	}
	if m.isDigitTable() {
		return simd.MemchrDigitAt(haystack, start)
	}
	idx := simd.MemchrInTable(haystack[start:], m.Table)
	if idx < 0 {
		return -1
	}
	return start + idx
}

func (m *MapScanner) isDigitTable() bool {
	if m.digit == digitUnknown {
		m.digit = digitYes
		for b := 0; b < 256; b++ {
			want := b >= '0' && b <= '9'
			if m.Table[b] != want {
				m.digit = digitNo
				break
			}
		}
	}
	return m.digit == digitYes
}
