package encoding

import "unicode/utf8"

// UTF8 is the multibyte Capability backed by Go's unicode/utf8 package.
// Unlike ASCII, character length, case folding and boundary lookups all
// require scanning the encoded byte sequence.
var UTF8 Capability = utf8Capability{}

type utf8Capability struct{}

func (utf8Capability) Name() string { return "UTF-8" }

func (utf8Capability) IsSingleByte() bool { return false }

func (utf8Capability) CharLen(input []byte, p, end int) int {
	_, size := utf8.DecodeRune(input[p:end])
	if size == 0 {
		return 1
	}
	return size
}

func (utf8Capability) PrevCharHead(input []byte, start, p int) int {
	if p <= start {
		return start
	}
	q := p - 1
	for q > start && isUTF8Cont(input[q]) {
		q--
	}
	return q
}

func (utf8Capability) StepBack(input []byte, start, p, n int) int {
	q := p
	for i := 0; i < n; i++ {
		if q <= start {
			return -1
		}
		q--
		for q > start && isUTF8Cont(input[q]) {
			q--
		}
	}
	return q
}

func (utf8Capability) RightAdjustHead(input []byte, start, p int) int {
	q := p
	for q < len(input) && isUTF8Cont(input[q]) {
		q++
	}
	return q
}

func (utf8Capability) ToCode(input []byte, p, end int) rune {
	r, _ := utf8.DecodeRune(input[p:end])
	return r
}

func (utf8Capability) CaseFold(flag CaseFoldFlag, input []byte, p *int, end int, dst []byte) []byte {
	r, size := utf8.DecodeRune(input[*p:end])
	if size == 0 {
		size = 1
	}
	*p += size
	folded := simpleFold(r)
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], folded)
	return append(dst, buf[:n]...)
}

func (utf8Capability) IsNewline(input []byte, p, end int) bool {
	r, _ := utf8.DecodeRune(input[p:end])
	switch r {
	case '\n', '\r', '\v', '\f', 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

func (utf8Capability) IsWord(input []byte, p, end int) bool {
	r, _ := utf8.DecodeRune(input[p:end])
	return isWordRune(r)
}

func (utf8Capability) IsValidString(input []byte, p, end int) bool {
	return utf8.Valid(input[p:end])
}

func isUTF8Cont(b byte) bool { return b&0xC0 == 0x80 }
