// Package btstack implements the interpreter's backtrack stack: a growable
// array of typed frames recording every choice point and capture-mutation
// the interpreter needs to be able to undo.
//
// Frames are modeled as one
// flat struct whose fields are reinterpreted according to a discriminant
// tag, rather than a sum type per variant. Access discipline ("tag
// determines valid fields") is enforced centrally by the constructors below
// and by Pop.
package btstack

import "github.com/kurogane-re/onigo/opcode"

// FrameType discriminates the payload carried by a Frame.
type FrameType uint16

const (
	// Void is a tombstone frame: skipped during every walk. POP_STOP_BT
	// rewrites every ALT* frame inside an atomic group to Void so
	// backtracking can never re-enter it.
	Void FrameType = iota

	// Alt family. AltPrecReadNot and AltLookBehindNot terminate a negative
	// assertion; all three are "pop-used" frames that stop a FREE pop.
	Alt
	AltPrecReadNot
	AltLookBehindNot

	MemStart
	MemEnd
	MemEndMark

	Repeat
	RepeatInc

	EmptyCheckStart
	EmptyCheckEnd

	Pos
	StopBT

	CallFrame
	Return

	SaveVal

	StateCheckMark
)

// IsAltFamily reports whether t is one of the Alt/AltPrecReadNot/
// AltLookBehindNot frames: the markers a Free-level pop stops at.
func (t FrameType) IsAltFamily() bool {
	return t == Alt || t == AltPrecReadNot || t == AltLookBehindNot
}

// Frame is one backtrack-stack entry. Only the fields relevant to Type are
// meaningful; see the Push* constructors in stack.go for which fields each
// frame type uses.
type Frame struct {
	Type FrameType

	// Alt / AltPrecReadNot / AltLookBehindNot / Pos: resume point.
	PC    int
	S     int
	SPrev int

	// MemStart / MemEnd / MemEndMark: group number and the endpoint
	// values to restore on backtrack.
	Num       int
	PrevStart int
	PrevEnd   int

	// Repeat: repetition site id, body address, loop counter.
	RepeatID int
	Count    int

	// RepeatInc: index of the STK_REPEAT frame it increments.
	RepeatFrameIdx int

	// EmptyCheckStart / EmptyCheckEnd: empty-loop guard id.
	EmptyCheckID int

	// CallFrame: return address to resume at on RETURN.
	ReturnAddr int

	// SaveVal: which variable kind and its saved value.
	SaveKind opcode.SaveType
	SaveID   int
	SaveVal  int

	// StateCheckMark: memoization coordinates.
	CheckPos  int
	CheckSite int
}
