// Package asmtest is a minimal byte-sequence assembler used only by the
// engine's own tests to build concrete *opcode.Program values by hand. It is
// not a regex compiler: there is no pattern syntax here, just Op* emitters
// plus Label/Here/Patch helpers that let a test write out a program's
// opcodes directly.
package asmtest

import (
	"encoding/binary"

	"github.com/kurogane-re/onigo/opcode"
)

// Builder accumulates a bytecode stream plus unresolved relative-jump
// patches, producing a ready-to-run []byte for opcode.Program.Code.
type Builder struct {
	code    []byte
	labels  map[string]int
	patches []patch
}

type patch struct {
	operandAt int // byte offset of the operand
	base      int // cursor position JumpRelative measures from (relative patches only)
	label     string
	absolute  bool // true for AbsAddr operands (REPEAT's body, CALL's target)
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{labels: make(map[string]int)}
}

// Here returns the current write cursor, the byte offset the next Op*
// call will land at.
func (b *Builder) Here() int { return len(b.code) }

// Label records name as pointing at the current cursor. Patch resolves
// every RelAddr and AbsAddr placeholder that targets name against it, and
// LabelPos reads it back for OpAbsAddr.
func (b *Builder) Label(name string) {
	b.labels[name] = b.Here()
}

// LabelPos returns the byte offset a previously placed Label recorded.
func (b *Builder) LabelPos(name string) int {
	pos, ok := b.labels[name]
	if !ok {
		panic("asmtest: unknown label " + name)
	}
	return pos
}

func (b *Builder) byte(v byte)     { b.code = append(b.code, v) }
func (b *Builder) bytes(v []byte)  { b.code = append(b.code, v...) }
func (b *Builder) u16(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	b.bytes(buf[:])
}
func (b *Builder) u32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	b.bytes(buf[:])
}

// Op emits a bare opcode with no operands (END, POP, FAIL, LOOK_BEHIND's
// siblings that take no operand, etc).
func (b *Builder) Op(op opcode.Opcode) *Builder {
	b.byte(byte(op))
	return b
}

// OpByte emits op followed by a single raw byte operand (EXACT1, peek
// bytes, EXACTMBN's per-char width).
func (b *Builder) OpByte(op opcode.Opcode, v byte) *Builder {
	b.byte(byte(op))
	b.byte(v)
	return b
}

// OpBytes emits op followed by a raw byte run (EXACT2..EXACT5, class
// bitmaps, already-length-prefixed literal bodies).
func (b *Builder) OpBytes(op opcode.Opcode, v []byte) *Builder {
	b.byte(byte(op))
	b.bytes(v)
	return b
}

// OpMemNum emits op followed by a MemNum operand (MEMORY_START,
// BACKREFN, ...).
func (b *Builder) OpMemNum(op opcode.Opcode, num opcode.MemNum) *Builder {
	b.byte(byte(op))
	b.u16(num)
	return b
}

// OpLength emits op followed by a LengthType operand (EXACTN's count,
// EMPTY_CHECK_START's id, REPEAT's id, STATE_CHECK's site).
func (b *Builder) OpLength(op opcode.Opcode, n opcode.LengthType) *Builder {
	b.byte(byte(op))
	b.u16(n)
	return b
}

// OpLengthExact emits an EXACTN-family opcode: its length operand followed
// immediately by that many literal bytes.
func (b *Builder) OpLengthExact(op opcode.Opcode, lit []byte) *Builder {
	b.OpLength(op, opcode.LengthType(len(lit)))
	b.bytes(lit)
	return b
}

// OpAbsAddr emits op followed by an AbsAddr operand resolved right now
// from a Label already placed (CALL).
func (b *Builder) OpAbsAddr(op opcode.Opcode, addr opcode.AbsAddr) *Builder {
	b.byte(byte(op))
	b.u32(uint32(addr))
	return b
}

// OpAbsLabel emits op followed by a placeholder AbsAddr operand targeting
// label, resolved at Patch time once the label is placed (CALL to a
// forward-declared subroutine).
func (b *Builder) OpAbsLabel(op opcode.Opcode, label string) *Builder {
	b.byte(byte(op))
	at := b.Here()
	b.u32(0)
	b.patches = append(b.patches, patch{operandAt: at, label: label, absolute: true})
	return b
}

// OpLengthThenAbsLabel emits op followed by a LengthType operand (id)
// and then a placeholder AbsAddr targeting label, matching
// REPEAT/REPEAT_NG's encoding (the body address is absolute, not
// relative, per vm/interp.go's rd.AbsAddr() read).
func (b *Builder) OpLengthThenAbsLabel(op opcode.Opcode, n opcode.LengthType, label string) *Builder {
	b.byte(byte(op))
	b.u16(n)
	at := b.Here()
	b.u32(0)
	b.patches = append(b.patches, patch{operandAt: at, label: label, absolute: true})
	return b
}

// OpRel emits op followed by a placeholder RelAddr operand that targets
// label, patched once the label is placed via Patch. The relative offset
// is measured from the cursor immediately after this RelAddr operand,
// matching opcode.Reader.JumpRelative's convention.
func (b *Builder) OpRel(op opcode.Opcode, label string) *Builder {
	b.byte(byte(op))
	at := b.Here()
	b.u32(0)
	b.patches = append(b.patches, patch{operandAt: at, base: b.Here(), label: label})
	return b
}

// OpRelThenByte emits op, a placeholder RelAddr targeting label, then a raw
// byte operand (PUSH_OR_JUMP_EXACT1, PUSH_IF_PEEK_NEXT: the offset's base
// is measured between the two operands, per opcode.Reader's read order in
// vm/interp.go).
func (b *Builder) OpRelThenByte(op opcode.Opcode, label string, v byte) *Builder {
	b.byte(byte(op))
	at := b.Here()
	b.u32(0)
	base := b.Here()
	b.byte(v)
	b.patches = append(b.patches, patch{operandAt: at, base: base, label: label})
	return b
}

// OpRelThenLength emits op, a placeholder RelAddr targeting label, then a
// LengthType operand (PUSH_LOOK_BEHIND_NOT's char-length).
func (b *Builder) OpRelThenLength(op opcode.Opcode, label string, n opcode.LengthType) *Builder {
	b.byte(byte(op))
	at := b.Here()
	b.u32(0)
	base := b.Here()
	b.u16(n)
	b.patches = append(b.patches, patch{operandAt: at, base: base, label: label})
	return b
}

// OpLengthThenRelJump emits op followed by a LengthType operand (a
// STATE_CHECK site id) and then a placeholder RelAddr targeting label,
// matching STATE_CHECK_PUSH/STATE_CHECK_PUSH_OR_JUMP's encoding.
func (b *Builder) OpLengthThenRelJump(op opcode.Opcode, n opcode.LengthType, label string) *Builder {
	b.byte(byte(op))
	b.u16(n)
	at := b.Here()
	b.u32(0)
	b.patches = append(b.patches, patch{operandAt: at, base: b.Here(), label: label})
	return b
}

// OpSaveVar emits a PUSH_SAVE_VAL/UPDATE_VAR-shaped opcode: a SaveType
// byte followed by a LengthType id.
func (b *Builder) OpSaveVar(op opcode.Opcode, kind opcode.SaveType, id opcode.LengthType) *Builder {
	b.byte(byte(op))
	b.byte(byte(kind))
	b.u16(id)
	return b
}

// OpLevelBackref emits BACKREF_WITH_LEVEL's shape: an OptionType flag
// word, a MemNum, then a LengthType level.
func (b *Builder) OpLevelBackref(flags opcode.OptionType, num opcode.MemNum, level opcode.LengthType) *Builder {
	b.byte(byte(opcode.BACKREF_WITH_LEVEL))
	b.u32(uint32(flags))
	b.u16(num)
	b.u16(level)
	return b
}

// Patch resolves every placeholder RelAddr/AbsAddr operand recorded by the
// Op*Label/OpRel* helpers against its target label and must be called once
// all labels are placed, before Code is read.
func (b *Builder) Patch() {
	for _, p := range b.patches {
		target, ok := b.labels[p.label]
		if !ok {
			panic("asmtest: unresolved label " + p.label)
		}
		if p.absolute {
			binary.LittleEndian.PutUint32(b.code[p.operandAt:], uint32(target))
			continue
		}
		rel := int32(target - p.base)
		binary.LittleEndian.PutUint32(b.code[p.operandAt:], uint32(rel))
	}
	b.patches = nil
}

// Code returns the assembled byte stream. Call Patch first.
func (b *Builder) Code() []byte {
	return b.code
}
