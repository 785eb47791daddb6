package prefix

import "github.com/coregx/ahocorasick"

// MultiLiteralScanner backs the program's AltLiterals hint: when the
// compiled pattern's prefix reduces to a small set
// of alternative literals, `(foo|bar|baz)...`, rather than one exact
// string, the search driver runs a single Aho-Corasick automaton over all
// of them instead of retrying a Boyer-Moore scan once per alternative.
type MultiLiteralScanner struct {
	automaton *ahocorasick.Automaton
}

// NewMultiLiteralScanner builds the automaton once at program-load time.
func NewMultiLiteralScanner(literals [][]byte) (*MultiLiteralScanner, error) {
	builder := ahocorasick.NewBuilder()
	for _, lit := range literals {
		builder.AddPattern(lit)
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return &MultiLiteralScanner{automaton: auto}, nil
}

// Find implements Scanner.
func (m *MultiLiteralScanner) Find(haystack []byte, start int) int {
	if start >= len(haystack) {
		return -1
	}
	match := m.automaton.Find(haystack, start)
	if match == nil {
		return -1
	}
	return match.Start
}
