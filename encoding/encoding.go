// Package encoding defines the narrow capability interface the interpreter
// uses to treat input bytes as characters.
//
// The engine never hard-codes a character encoding. Every opcode that needs
// to know "how long is the character at this position" or "does this byte
// begin a word character" goes through a Capability value supplied by the
// caller, addressed by byte offset into the shared input buffer. The
// interpreter calls the capability; it never inspects bytes against
// encoding-specific rules itself.
package encoding

// CaseFoldFlag selects which case-fold transformation a Capability applies.
// The interpreter passes the flag embedded in the program through unchanged;
// it never interprets its bits.
type CaseFoldFlag uint32

// Capability is the full set of operations the interpreter needs from a
// character encoding. All positions are byte offsets into the same input
// slice; implementations must be pure and side-effect free, and may be
// called any number of times for the same input range.
type Capability interface {
	// Name identifies the encoding (e.g. "ASCII", "UTF-8") for diagnostics.
	Name() string

	// IsSingleByte reports whether every character is exactly one byte.
	// The interpreter and search driver use this to skip character-length
	// bookkeeping on the fast path.
	IsSingleByte() bool

	// CharLen returns the byte length of the character starting at input[p].
	// Requires p < end. Returns 1 for a malformed byte sequence; malformed
	// input is never rejected mid-match, only at IsValidString time.
	CharLen(input []byte, p, end int) int

	// PrevCharHead returns the offset of the character that input[p] is
	// part of or immediately follows, not stepping before start. Used to
	// maintain sprev, the "previous character head" cursor the interpreter
	// keeps alongside the current position.
	PrevCharHead(input []byte, start, p int) int

	// StepBack moves p backward by n characters, not stepping before
	// start. Returns -1 if n characters do not exist before p.
	StepBack(input []byte, start, p, n int) int

	// RightAdjustHead moves p forward to the nearest character boundary at
	// or after p. Used when a backward search lands mid-character.
	RightAdjustHead(input []byte, start, p int) int

	// ToCode decodes the character at input[p:end] into a code point.
	ToCode(input []byte, p, end int) rune

	// CaseFold decodes the character at input[*p:end], applies case
	// folding under flag, appends the folded bytes to dst, advances *p by
	// the number of input bytes consumed, and returns the extended dst.
	CaseFold(flag CaseFoldFlag, input []byte, p *int, end int, dst []byte) []byte

	// IsNewline reports whether the character at input[p:end] is a line
	// terminator.
	IsNewline(input []byte, p, end int) bool

	// IsWord reports whether the character at input[p:end] is a word
	// character (\w semantics).
	IsWord(input []byte, p, end int) bool

	// IsValidString reports whether input[p:end] is a well-formed sequence
	// of characters in this encoding. Called once by the search driver
	// before a match attempt begins, never mid-match.
	IsValidString(input []byte, p, end int) bool
}
