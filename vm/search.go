package vm

import (
	"github.com/kurogane-re/onigo/encoding"
	"github.com/kurogane-re/onigo/opcode"
	"github.com/kurogane-re/onigo/prefix"
	"github.com/kurogane-re/onigo/region"
)

// Search walks candidate start positions in input[str:end], beginning at
// at, running the interpreter at each one until a match commits or no
// candidate remains. On success reg holds the captures and
// Search returns true; on MISMATCH it returns false and leaves reg
// untouched, except that a FindNotEmpty program clears it.
func Search(prog *opcode.Program, input []byte, str, end, at int, reg *region.Region, cfg Config, tracer Tracer, interrupter Interrupter) (bool, error) {
	off, err := searchRange(prog, input, str, end, at, end, reg, cfg, tracer, interrupter)
	if err != nil {
		return false, err
	}
	return off != NoMatch, nil
}

// searchRange is the shared driver behind Search (used by Scan, always
// forward to end) and SearchForOffset (either direction). rangeEnd > start
// scans forward, rangeEnd < start scans backward, rangeEnd == start tries
// exactly one position. It is the only place that consults a
// prefix.Scanner, so every caller gets the prefix-hint optimization.
func searchRange(prog *opcode.Program, input []byte, str, end, start, rangeEnd int, reg *region.Region, cfg Config, tracer Tracer, interrupter Interrupter) (int, error) {
	if err := cfg.Validate(); err != nil {
		return NoMatch, err
	}
	if prog == nil || reg == nil {
		return NoMatch, ErrInvalidArgument
	}
	if cfg.ValidateEncoding && !prog.Encoding.IsValidString(input, str, end) {
		return NoMatch, ErrInvalidWideCharValue
	}
	if start < str || start > end || rangeEnd < str || rangeEnd > end {
		return NoMatch, nil
	}

	// Step 1: reject empty input when the program requires at least
	// threshold_len bytes to ever match.
	if str == end {
		if prog.ThresholdLen != 0 {
			return NoMatch, nil
		}
		start, rangeEnd = str, str
	} else {
		var ok bool
		start, rangeEnd, ok = tightenAnchors(prog, input, str, end, start, rangeEnd)
		if !ok {
			return NoMatch, nil
		}
	}

	forward := rangeEnd >= start
	enc := prog.Encoding
	scanner := buildScanner(prog, forward)

	var off int
	var err error
	if forward {
		off, err = searchForward(prog, input, str, end, start, rangeEnd, enc, scanner, reg, cfg, tracer, interrupter)
	} else {
		off, err = searchBackward(prog, input, str, end, start, rangeEnd, enc, scanner, reg, cfg, tracer, interrupter)
	}
	if err == nil && off == NoMatch && prog.FindNotEmpty {
		reg.Clear()
	}
	return off, err
}

// tightenAnchors narrows [start, rangeEnd] using the program's anchor
// flags. ok is false when the anchor rules out every position in the
// requested range.
func tightenAnchors(prog *opcode.Program, input []byte, str, end, start, rangeEnd int) (newStart, newRangeEnd int, ok bool) {
	if prog.Anchor == 0 {
		return start, rangeEnd, true
	}
	forward := rangeEnd > start
	enc := prog.Encoding

	switch {
	case prog.Anchor&opcode.AnchorBeginPosition != 0:
		rangeEnd = start

	case prog.Anchor&opcode.AnchorBeginBuf != 0:
		if forward {
			if start != str {
				return 0, 0, false
			}
			rangeEnd = str
		} else {
			if rangeEnd <= str {
				start, rangeEnd = str, str
			} else {
				return 0, 0, false
			}
		}

	case prog.Anchor&(opcode.AnchorEndBuf|opcode.AnchorSemiEndBuf) != 0:
		maxSemiEnd, minSemiEnd := end, end
		if prog.Anchor&opcode.AnchorSemiEndBuf != 0 {
			preEnd := enc.StepBack(input, str, end, 1)
			if preEnd >= 0 && enc.IsNewline(input, preEnd, end) {
				if preEnd > str && start <= preEnd {
					minSemiEnd = preEnd
				}
			}
		}
		dmin, dmax := prog.AnchorDmin, prog.AnchorDmax
		if maxSemiEnd-str < dmin {
			return 0, 0, false
		}
		if forward {
			if minSemiEnd-start > dmax {
				start = minSemiEnd - dmax
				if start < end {
					start = enc.RightAdjustHead(input, str, start)
				}
			}
			if maxSemiEnd-(rangeEnd-1) < dmin {
				rangeEnd = maxSemiEnd - dmin + 1
			}
			if start > rangeEnd {
				return 0, 0, false
			}
		} else {
			if minSemiEnd-rangeEnd > dmax {
				rangeEnd = minSemiEnd - dmax
			}
			if maxSemiEnd-start < dmin {
				start = maxSemiEnd - dmin
				start = enc.PrevCharHead(input, str, start)
			}
			if rangeEnd > start {
				return 0, 0, false
			}
		}

	case prog.Anchor&opcode.AnchorAnycharStarML != 0:
		rangeEnd = start
	}
	return start, rangeEnd, true
}

// subAnchorOK filters a scanner hit at p by the program's secondary
// line-boundary anchor: a literal hint alone does not know whether the text
// around it starts or ends a line, so candidates that don't satisfy
// sub_anchor are skipped rather than handed to the interpreter.
func subAnchorOK(prog *opcode.Program, input []byte, str, end, p int) bool {
	enc := prog.Encoding
	switch prog.SubAnchor {
	case opcode.AnchorBeginLine:
		if p == str {
			return true
		}
		prev := enc.PrevCharHead(input, str, p)
		return prev >= str && enc.IsNewline(input, prev, end)
	case opcode.AnchorEndLine:
		if p == end {
			return true
		}
		return enc.IsNewline(input, p, end)
	default:
		return true
	}
}

func searchForward(prog *opcode.Program, input []byte, str, end, start, rangeEnd int, enc encoding.Capability, scanner prefix.Scanner, reg *region.Region, cfg Config, tracer Tracer, interrupter Interrupter) (int, error) {
	if end-start < prog.ThresholdLen {
		return NoMatch, nil
	}

	schRange := rangeEnd
	if prog.Dmax != 0 {
		if prog.Dmax == opcode.Unbounded {
			schRange = end
		} else {
			schRange += prog.Dmax
			if schRange > end {
				schRange = end
			}
		}
	}

	pos := start
	for pos <= rangeEnd {
		low, high := pos, pos
		if scanner != nil {
			q := pos + prog.Dmin
			if q > end {
				return NoMatch, nil
			}
			for {
				q = scanner.Find(input[:schRange], q)
				if q < 0 || q >= schRange {
					return NoMatch, nil
				}
				if subAnchorOK(prog, input, str, end, q) {
					break
				}
				q += charLenAt(enc, input, q, end)
			}
			if prog.Dmax == opcode.Unbounded {
				low, high = q, q
			} else {
				if q-str < prog.Dmax {
					low = str
				} else {
					low = q - prog.Dmax
					if low > pos {
						low = enc.RightAdjustHead(input, pos, low)
					}
				}
				high = q - prog.Dmin
			}
			if low < pos {
				low = pos
			}
		}

		for s := low; s <= high; s += charLenAt(enc, input, s, end) {
			matched, err := attempt(prog, input, str, end, s, reg, cfg, tracer, interrupter)
			if err != nil {
				return NoMatch, err
			}
			if matched {
				return s, nil
			}
		}

		if prog.Anchor&(opcode.AnchorBeginBuf|opcode.AnchorBeginPosition|opcode.AnchorAnycharStarML) != 0 {
			return NoMatch, nil
		}
		if scanner == nil {
			pos += charLenAt(enc, input, pos, end)
			continue
		}
		pos = high + 1
	}
	return NoMatch, nil
}

func searchBackward(prog *opcode.Program, input []byte, str, end, start, rangeEnd int, enc encoding.Capability, scanner prefix.Scanner, reg *region.Region, cfg Config, tracer Tracer, interrupter Interrupter) (int, error) {
	if end-rangeEnd < prog.ThresholdLen {
		return NoMatch, nil
	}

	pos := start
	for pos >= rangeEnd {
		low, high := pos, pos
		if scanner != nil {
			q := pos
			if prog.Dmax != 0 {
				if prog.Dmax == opcode.Unbounded {
					q = end
				} else {
					q += prog.Dmax
					if q > end {
						q = end
					}
				}
			}
			for {
				q = scanner.Find(input[:end], q)
				if q < 0 || q < rangeEnd {
					return NoMatch, nil
				}
				if subAnchorOK(prog, input, str, end, q) {
					break
				}
				q--
			}
			high = q - prog.Dmin
			low = q - prog.Dmax
			if prog.Dmax == opcode.Unbounded || low < str {
				low = str
			}
			if high > pos {
				high = pos
			}
			if high < low {
				pos = low - 1
				continue
			}
		}

		if matched, s, err := tryDescending(prog, input, str, end, low, high, reg, enc, cfg, tracer, interrupter); err != nil {
			return NoMatch, err
		} else if matched {
			return s, nil
		}

		if scanner == nil {
			prev := enc.StepBack(input, str, pos, 1)
			if prev < 0 {
				return NoMatch, nil
			}
			pos = prev
			continue
		}
		pos = low - 1
	}
	return NoMatch, nil
}

// tryDescending attempts every character-boundary position in [low, high],
// from high down to low, used by the backward driver.
func tryDescending(prog *opcode.Program, input []byte, str, end, low, high int, reg *region.Region, enc encoding.Capability, cfg Config, tracer Tracer, interrupter Interrupter) (bool, int, error) {
	if high < low {
		return false, NoMatch, nil
	}
	s := high
	for s >= low {
		matched, err := attempt(prog, input, str, end, s, reg, cfg, tracer, interrupter)
		if err != nil {
			return false, NoMatch, err
		}
		if matched {
			return true, s, nil
		}
		if s == str {
			break
		}
		prev := enc.StepBack(input, str, s, 1)
		if prev < 0 {
			break
		}
		s = prev
	}
	return false, NoMatch, nil
}

func attempt(prog *opcode.Program, input []byte, str, end, at int, reg *region.Region, cfg Config, tracer Tracer, interrupter Interrupter) (bool, error) {
	ms := newMatchState(prog, input, str, end, at, reg, cfg, tracer, interrupter)
	length, err := ms.run()
	if err != nil {
		return false, err
	}
	return length != NoMatch, nil
}

func charLenAt(enc encoding.Capability, input []byte, p, end int) int {
	if p >= end {
		return 1
	}
	n := enc.CharLen(input, p, end)
	if n < 1 {
		return 1
	}
	return n
}

// buildScanner picks the cheapest prefix.Scanner the program's hints
// support, or nil when none apply and every position must be tried.
// forward selects which
// direction the literal and map scanners search in. The Boyer-Moore table's
// direction is fixed by how the compiler built it (BMReverse), and the
// Aho-Corasick MultiLiteralScanner always searches forward, whatever the
// caller's requested direction.
func buildScanner(prog *opcode.Program, forward bool) prefix.Scanner {
	reverse := !forward
	switch {
	case len(prog.AltLiterals) > 1:
		if s, err := prefix.NewMultiLiteralScanner(prog.AltLiterals); err == nil {
			return s
		}
		return nil
	case prog.BMTable != nil && len(prog.Exact) > 0:
		return &prefix.BoyerMooreScanner{
			Literal:       prog.Exact,
			Table:         prog.BMTable,
			Reverse:       prog.BMReverse,
			NotReversible: prog.BMReverse && !prog.Encoding.IsSingleByte(),
		}
	case prog.ExactIC && len(prog.Exact) > 0:
		return &prefix.LiteralFoldScanner{Literal: prog.Exact, Enc: prog.Encoding, Flag: prog.CaseFoldFlag, Reverse: reverse}
	case len(prog.Exact) > 0:
		return &prefix.LiteralScanner{Literal: prog.Exact, Reverse: reverse}
	case prog.Map != nil:
		return &prefix.MapScanner{Table: prog.Map, Reverse: reverse}
	default:
		return nil
	}
}
