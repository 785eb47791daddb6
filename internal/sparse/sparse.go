// Package sparse provides a sparse set data structure for efficient membership testing.
//
// A sparse set is a data structure that supports O(1) insertion, deletion, and membership
// testing while maintaining a dense list of elements. It's particularly useful for NFA
// simulation where we need to track visited states.
package sparse

// defaultCapacity is used when a caller asks for a zero-capacity set.
const defaultCapacity = 64

// SparseSet is a set of uint32 values that supports O(1) operations.
// It maintains both a sparse array (for membership testing) and a dense array
// (for iteration). The sparse array maps values to indices in the dense array.
//
// This implementation is optimized for cases where the universe of possible
// values is known and relatively small (e.g., NFA state IDs).
type SparseSet struct {
	sparse []uint32 // Maps value -> index in dense
	dense  []uint32 // Contains the actual values
	size   uint32   // Current number of elements
}

// NewSparseSet creates a new sparse set with the given capacity.
// The capacity represents the maximum value that can be stored (exclusive).
// A capacity of 0 selects a small default.
func NewSparseSet(capacity uint32) *SparseSet {
	if capacity == 0 {
		capacity = defaultCapacity
	}
	return &SparseSet{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
		size:   0,
	}
}

// Insert adds a value to the set and reports whether it was newly added.
// Panics if value >= capacity.
func (s *SparseSet) Insert(value uint32) bool {
	if s.Contains(value) {
		return false
	}

	// Add to dense array
	s.dense = append(s.dense, value)
	// Map value to its index in dense
	s.sparse[value] = s.size
	s.size++
	return true
}

// Contains returns true if the value is in the set
func (s *SparseSet) Contains(value uint32) bool {
	// Bounds check: value must be within sparse array bounds
	// Check for potential overflow when converting len to uint32
	if len(s.sparse) > 0x7FFFFFFF {
		return false // len too large for safe conversion
	}
	//nolint:gosec // G115: len is checked above for safe conversion to uint32
	sparseLen := uint32(len(s.sparse))
	if value >= sparseLen {
		return false
	}
	idx := s.sparse[value]
	return idx < s.size && s.dense[idx] == value
}

// Remove removes a value from the set.
// If the value is not present, this is a no-op.
func (s *SparseSet) Remove(value uint32) {
	if !s.Contains(value) {
		return
	}

	// Get index of value in dense array
	idx := s.sparse[value]

	// Move last element to this position (swap and pop)
	lastValue := s.dense[s.size-1]
	s.dense[idx] = lastValue
	s.sparse[lastValue] = idx

	s.size--
	s.dense = s.dense[:s.size]
}

// Clear removes all elements from the set in O(1) time
func (s *SparseSet) Clear() {
	s.size = 0
	s.dense = s.dense[:0]
}

// Len returns the number of elements in the set
func (s *SparseSet) Len() int {
	return int(s.size)
}

// Size returns the number of elements in the set (alias for Len)
func (s *SparseSet) Size() int {
	return int(s.size)
}

// Capacity returns the maximum value the set can store (exclusive).
func (s *SparseSet) Capacity() int {
	return len(s.sparse)
}

// IsEmpty returns true if the set contains no elements
func (s *SparseSet) IsEmpty() bool {
	return s.size == 0
}

// Values returns a slice of all values in the set.
// The returned slice is valid until the next mutation.
func (s *SparseSet) Values() []uint32 {
	return s.dense[:s.size]
}

// Iter calls the given function for each value in the set.
// The iteration order is unspecified.
func (s *SparseSet) Iter(f func(uint32)) {
	for i := uint32(0); i < s.size; i++ {
		f(s.dense[i])
	}
}

// Resize changes the set's capacity. Growing preserves the current elements;
// shrinking (or resizing to the same capacity) clears the set. A capacity of
// 0 selects the same default as NewSparseSet.
func (s *SparseSet) Resize(capacity uint32) {
	if capacity == 0 {
		capacity = defaultCapacity
	}
	if int(capacity) > len(s.sparse) {
		grown := make([]uint32, capacity)
		copy(grown, s.sparse)
		s.sparse = grown
		dense := make([]uint32, s.size, capacity)
		copy(dense, s.dense)
		s.dense = dense
		return
	}
	s.sparse = make([]uint32, capacity)
	s.dense = make([]uint32, 0, capacity)
	s.size = 0
}

// Clone returns a deep copy of the set.
func (s *SparseSet) Clone() *SparseSet {
	clone := &SparseSet{
		sparse: make([]uint32, len(s.sparse)),
		dense:  make([]uint32, len(s.dense), cap(s.dense)),
		size:   s.size,
	}
	copy(clone.sparse, s.sparse)
	copy(clone.dense, s.dense)
	return clone
}

// MemoryUsage returns the heap memory usage in bytes.
func (s *SparseSet) MemoryUsage() int {
	return len(s.sparse)*4 + cap(s.dense)*4
}

// SparseSets is a pair of sparse sets that swap roles between iterations,
// the double-buffering shape NFA simulation uses for current/next state
// lists.
type SparseSets struct {
	Set1 *SparseSet
	Set2 *SparseSet
}

// NewSparseSets creates a pair of sets sharing one capacity.
func NewSparseSets(capacity uint32) *SparseSets {
	return &SparseSets{
		Set1: NewSparseSet(capacity),
		Set2: NewSparseSet(capacity),
	}
}

// Swap exchanges the two sets in O(1).
func (ss *SparseSets) Swap() {
	ss.Set1, ss.Set2 = ss.Set2, ss.Set1
}

// Clear empties both sets.
func (ss *SparseSets) Clear() {
	ss.Set1.Clear()
	ss.Set2.Clear()
}

// Resize resizes both sets; the same grow-preserves/shrink-clears rule as
// SparseSet.Resize applies to each.
func (ss *SparseSets) Resize(capacity uint32) {
	ss.Set1.Resize(capacity)
	ss.Set2.Resize(capacity)
}

// MemoryUsage returns the combined heap memory usage in bytes.
func (ss *SparseSets) MemoryUsage() int {
	return ss.Set1.MemoryUsage() + ss.Set2.MemoryUsage()
}
