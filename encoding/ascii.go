package encoding

import "github.com/kurogane-re/onigo/simd"

// ASCII is the single-byte, 7-bit-clean Capability. It is the cheapest
// encoding to drive the interpreter with: every character is one byte, so
// CharLen, StepBack and RightAdjustHead never need to scan.
var ASCII Capability = asciiCapability{}

type asciiCapability struct{}

func (asciiCapability) Name() string { return "ASCII" }

func (asciiCapability) IsSingleByte() bool { return true }

func (asciiCapability) CharLen(input []byte, p, end int) int { return 1 }

func (asciiCapability) PrevCharHead(input []byte, start, p int) int {
	if p <= start {
		return start
	}
	return p - 1
}

func (asciiCapability) StepBack(input []byte, start, p, n int) int {
	if p-n < start {
		return -1
	}
	return p - n
}

func (asciiCapability) RightAdjustHead(input []byte, start, p int) int { return p }

func (asciiCapability) ToCode(input []byte, p, end int) rune {
	if p >= end {
		return -1
	}
	return rune(input[p])
}

func (asciiCapability) CaseFold(flag CaseFoldFlag, input []byte, p *int, end int, dst []byte) []byte {
	b := input[*p]
	*p++
	return append(dst, asciiToLower(b))
}

func (asciiCapability) IsNewline(input []byte, p, end int) bool {
	return p < end && input[p] == '\n'
}

func (asciiCapability) IsWord(input []byte, p, end int) bool {
	return p < end && isASCIIWordByte(input[p])
}

func (asciiCapability) IsValidString(input []byte, p, end int) bool {
	return simd.IsASCII(input[p:end])
}

func isASCIIWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= 'a' && b <= 'z')
}

func asciiToLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
