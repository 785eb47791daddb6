package prefix

// BoyerMooreScanner implements the bad-character Boyer-Moore scan.
// Table[b] gives the number of bytes it is safe to shift the window
// when a mismatch occurs against haystack byte b; it is precomputed by the
// compiler (out of scope here) from the literal and handed to onigo via
// opcode.Program.BMTable.
//
// Two modes are exposed: NotReversible is set when the literal's encoding is
// multibyte and byte-at-a-time reverse comparison could land mid-character,
// so the scanner falls back to comparing left-to-right once a candidate
// window is found instead of right-to-left.
type BoyerMooreScanner struct {
	Literal       []byte
	Table         *[256]int
	NotReversible bool
	Reverse       bool
}

// Find implements Scanner.
func (b *BoyerMooreScanner) Find(haystack []byte, start int) int {
	if len(b.Literal) == 0 {
		return start
	}
	if b.Reverse {
		return b.findReverse(haystack, start)
	}
	n, m := len(haystack), len(b.Literal)
	i := start
	for i+m <= n {
		if b.NotReversible {
			if equalAt(haystack, i, b.Literal) {
				return i
			}
			i += b.shiftFor(haystack[i+m-1])
			continue
		}
		j := m - 1
		for j >= 0 && haystack[i+j] == b.Literal[j] {
			j--
		}
		if j < 0 {
			return i
		}
		i += b.shiftFor(haystack[i+m-1])
	}
	return -1
}

func (b *BoyerMooreScanner) findReverse(haystack []byte, start int) int {
	m := len(b.Literal)
	i := start - m + 1
	for i >= 0 {
		if equalAt(haystack, i, b.Literal) {
			return i
		}
		shift := 1
		if i > 0 {
			shift = b.shiftFor(haystack[i-1])
		}
		i -= shift
	}
	return -1
}

func (b *BoyerMooreScanner) shiftFor(c byte) int {
	if b.Table == nil {
		return 1
	}
	shift := b.Table[c]
	if shift <= 0 {
		return 1
	}
	return shift
}

func equalAt(haystack []byte, at int, lit []byte) bool {
	if at < 0 || at+len(lit) > len(haystack) {
		return false
	}
	for i, c := range lit {
		if haystack[at+i] != c {
			return false
		}
	}
	return true
}

// BuildBadCharTable precomputes the bad-character shift table for lit, the
// table BoyerMooreScanner.Table expects: for each byte value, the distance
// from its rightmost occurrence in lit to the end of lit, or len(lit) if it
// does not occur. A byte whose rightmost occurrence is lit's last byte gets
// 1 rather than 0, so every shift advances.
func BuildBadCharTable(lit []byte) *[256]int {
	var table [256]int
	for i := range table {
		table[i] = len(lit)
	}
	for i, c := range lit {
		table[c] = len(lit) - i - 1
		if table[c] == 0 {
			table[c] = 1
		}
	}
	return &table
}
