// Package prefix implements the prefix-scan optimizers: pure
// byte-range searches that locate candidate match-start positions before
// the interpreter is invoked, so the search driver (package vm) can skip
// hopeless positions in O(1) per candidate instead of O(program size).
package prefix

// Scanner locates the next candidate start position in haystack at or
// after start. It returns -1 if no candidate exists. Every scanner has a
// backward-scan twin reachable through the Reverse flag on the concrete
// type.
type Scanner interface {
	Find(haystack []byte, start int) int
}
