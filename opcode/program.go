package opcode

import (
	"github.com/kurogane-re/onigo/encoding"
	"github.com/kurogane-re/onigo/internal/sparse"
)

// Unbounded marks a repeat range's upper bound as infinite.
const Unbounded = -1

// PopLevel selects how much backtrack-stack reversion the compiler knows a
// program's fail path needs. Mirrored as plain ints here
// (rather than importing package btstack's enum) so opcode, the program's
// home package, never depends on the interpreter that consumes it.
// PopDefault, the full-reversion mode, is the zero value: a program that
// doesn't carry a compiler-chosen level gets the always-correct one.
type PopLevel int

const (
	PopDefault PopLevel = iota
	PopMemStart
	PopFree
)

// RepeatRange is the (lower, upper) bound for one counted-repetition site.
// Upper == Unbounded means no upper bound.
type RepeatRange struct {
	Lower int
	Upper int
}

// AnchorFlag records which search-range-trimming anchors a program carries,
// consumed by the search driver.
type AnchorFlag uint32

const (
	AnchorBeginBuf AnchorFlag = 1 << iota
	AnchorBeginPosition
	AnchorEndBuf
	AnchorSemiEndBuf
	AnchorAnycharStarML

	// AnchorBeginLine/AnchorEndLine are never set on Program.Anchor itself;
	// they are the only values Program.SubAnchor takes, a secondary filter
	// the search driver applies to a prefix scanner's candidate hits.
	AnchorBeginLine
	AnchorEndLine
)

// ClassNode backs OP_CCLASS_NODE: a precomputed set of code points handed to
// the interpreter as an opaque membership test, rather than re-scanning a
// packed range table on every visit.
type ClassNode struct {
	set *sparse.SparseSet
}

// NewClassNode builds a ClassNode whose universe covers code points up to
// maxCodePoint (exclusive) and which initially contains none of them.
func NewClassNode(maxCodePoint uint32) *ClassNode {
	return &ClassNode{set: sparse.NewSparseSet(maxCodePoint)}
}

// Add inserts a code point into the set.
func (c *ClassNode) Add(r rune) { c.set.Insert(uint32(r)) }

// Contains reports whether r is a member of the set.
func (c *ClassNode) Contains(r rune) bool {
	if r < 0 {
		return false
	}
	return c.set.Contains(uint32(r))
}

// Program is the immutable, compiled artifact the interpreter executes. It
// is produced by an out-of-scope compiler; onigo only reads it.
type Program struct {
	Code []byte

	NumMem        int
	NumRepeat     int
	NumEmptyCheck int

	RepeatRange []RepeatRange

	// BtMemStart/BtMemEnd: group i's bit set means its start/end may be
	// rewritten by backtracking, so the engine must store the endpoint as
	// a stack index rather than a raw offset.
	BtMemStart []bool
	BtMemEnd   []bool

	// CaptureHistory selects which groups record nested capture-history
	// nodes. Nil/empty means history tracking is off.
	CaptureHistory []bool

	ClassNodes []*ClassNode

	// Prefix hints.
	Exact       []byte
	ExactIC     bool
	AltLiterals [][]byte // OP_CCLASS-free alternative-literal hint, for the Aho-Corasick scanner
	Map         *[256]bool
	BMTable     *[256]int // Boyer-Moore bad-character shift table
	BMReverse   bool      // table built for backward scanning

	Dmin, Dmax    int
	ThresholdLen  int
	Anchor        AnchorFlag
	SubAnchor     AnchorFlag
	AnchorDmin    int
	AnchorDmax    int

	Encoding     encoding.Capability
	Options      OptionType
	CaseFoldFlag encoding.CaseFoldFlag

	FindLongest  bool
	FindNotEmpty bool

	PopLevel PopLevel
}

// NumRegs is the number of region slots this program needs: one pair per
// capture group plus group 0 (the whole match).
func (p *Program) NumRegs() int { return p.NumMem + 1 }
