// Package region holds the caller-owned capture storage the engine writes
// into: the parallel beg/end offset arrays for each capture group, and the
// optional capture-history tree recorded at successful match end.
//
// A Region is always owned by the caller; the engine only resizes and
// fills it, never allocating fresh storage per match.
package region

// NotPos is the sentinel for an unset capture endpoint.
const NotPos = -1

// Region holds the beg/end byte-offset pairs for every capture group in a
// match attempt, group 0 being the whole match, plus an optional
// capture-history tree.
type Region struct {
	Beg []int
	End []int

	// HistoryRoot is non-nil only when the program enables capture-history
	// tracking and the most recent match succeeded.
	HistoryRoot *HistoryNode
}

// New allocates a Region sized for n capture slots (including group 0),
// all unset.
func New(n int) *Region {
	r := &Region{}
	r.Init(n)
	return r
}

// Init resets an existing Region to hold n slots, all unset.
func (r *Region) Init(n int) {
	r.Resize(n)
	r.Clear()
}

// Resize grows or shrinks the Beg/End arrays to hold exactly n slots,
// preserving existing capacity where possible.
func (r *Region) Resize(n int) {
	r.Beg = resizeSlice(r.Beg, n)
	r.End = resizeSlice(r.End, n)
}

func resizeSlice(s []int, n int) []int {
	if cap(s) >= n {
		return s[:n]
	}
	fresh := make([]int, n)
	copy(fresh, s)
	return fresh
}

// Clear resets every slot to NotPos and drops any capture-history tree;
// the tree never outlives the next match into the same region.
func (r *Region) Clear() {
	for i := range r.Beg {
		r.Beg[i] = NotPos
		r.End[i] = NotPos
	}
	r.HistoryRoot = nil
}

// Set records the beg/end offsets for capture slot at.
func (r *Region) Set(at, beg, end int) {
	r.Beg[at] = beg
	r.End[at] = end
}

// NumRegs returns the number of capture slots.
func (r *Region) NumRegs() int { return len(r.Beg) }

// Copy deep-copies src into dst, including the capture-history tree.
func Copy(dst, src *Region) {
	dst.Resize(src.NumRegs())
	copy(dst.Beg, src.Beg)
	copy(dst.End, src.End)
	if src.HistoryRoot != nil {
		dst.HistoryRoot = src.HistoryRoot.Clone()
	} else {
		dst.HistoryRoot = nil
	}
}

// Equal reports whether a and b hold the same capture offsets and
// structurally equal history trees. Used by round-trip tests.
func Equal(a, b *Region) bool {
	if a.NumRegs() != b.NumRegs() {
		return false
	}
	for i := range a.Beg {
		if a.Beg[i] != b.Beg[i] || a.End[i] != b.End[i] {
			return false
		}
	}
	return historyEqual(a.HistoryRoot, b.HistoryRoot)
}

func historyEqual(a, b *HistoryNode) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Group != b.Group || a.Beg != b.Beg || a.End != b.End {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !historyEqual(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
