package prefix

import (
	"testing"

	"github.com/kurogane-re/onigo/encoding"
)

func TestLiteralScannerFindsSubstring(t *testing.T) {
	s := &LiteralScanner{Literal: []byte("bar")}
	haystack := []byte("foobarbaz")
	if got := s.Find(haystack, 0); got != 3 {
		t.Fatalf("Find(0) = %d, want 3", got)
	}
	if got := s.Find(haystack, 4); got != -1 {
		t.Fatalf("Find(4) = %d, want -1 (no later occurrence)", got)
	}
}

func TestLiteralScannerReverse(t *testing.T) {
	s := &LiteralScanner{Literal: []byte("foo"), Reverse: true}
	haystack := []byte("foobarfoo")
	if got := s.Find(haystack, 8); got != 6 {
		t.Fatalf("Find(8) reverse = %d, want 6 (nearest occurrence at or before 8)", got)
	}
	if got := s.Find(haystack, 5); got != 0 {
		t.Fatalf("Find(5) reverse = %d, want 0", got)
	}
}

func TestLiteralFoldScannerMatchesCaseInsensitively(t *testing.T) {
	s := &LiteralFoldScanner{Literal: []byte("bar"), Enc: encoding.ASCII}
	haystack := []byte("fooBARbaz")
	if got := s.Find(haystack, 0); got != 3 {
		t.Fatalf("Find(0) = %d, want 3", got)
	}
}

func TestLiteralFoldScannerNoMatch(t *testing.T) {
	s := &LiteralFoldScanner{Literal: []byte("xyz"), Enc: encoding.ASCII}
	haystack := []byte("fooBARbaz")
	if got := s.Find(haystack, 0); got != -1 {
		t.Fatalf("Find(0) = %d, want -1", got)
	}
}
