package backend

import (
	"fmt"
	"strings"
)

// Image is a growable buffer of VM words and the position-dependent
// artifact the code generator builds: every emitted address is final the
// moment it is written, so forward references (if/while/break targets)
// are always patched in place once their target address is known, never
// re-laid-out.
type Image struct {
	words []int32
	emit  int32 // next word address new Emit* calls append at
}

// NewImage returns an empty image with its emit cursor at address 0.
func NewImage() *Image {
	return &Image{}
}

// Size returns the image's length in words.
func (img *Image) Size() int32 { return int32(len(img.words)) }

// Addr returns the address the next Emit call will write to.
func (img *Image) Addr() int32 { return img.emit }

// SetAddr repositions the emit cursor, e.g. to patch an already-emitted
// word in place. It never truncates the underlying buffer.
func (img *Image) SetAddr(addr int32) { img.emit = addr }

func (img *Image) ensure(addr int32) {
	for int32(len(img.words)) <= addr {
		img.words = append(img.words, 0)
	}
}

// writeWord stores value at addr, growing the image if addr is past its
// current end, and mirrors the emit cursor forward if this write extends
// the image (so sequential Emit calls keep appending after a patch).
func (img *Image) writeWord(addr int32, value int32) {
	img.ensure(addr)
	img.words[addr] = value
	if addr >= img.emit {
		img.emit = addr + 1
	}
}

// Emit0 appends an operand-free opcode and returns the address it was
// written at.
func (img *Image) Emit0(op Opcode) int32 {
	addr := img.emit
	img.writeWord(addr, int32(op))
	return addr
}

// Emit1 appends a one-operand instruction.
func (img *Image) Emit1(op Opcode, a int32) int32 {
	addr := img.emit
	img.writeWord(addr, int32(op))
	img.writeWord(addr+1, a)
	return addr
}

// Emit2 appends a two-operand instruction (CALL: entry address, arg
// count).
func (img *Image) Emit2(op Opcode, a, b int32) int32 {
	addr := img.emit
	img.writeWord(addr, int32(op))
	img.writeWord(addr+1, a)
	img.writeWord(addr+2, b)
	return addr
}

// Patch overwrites the operand word at operandAddr (an address returned
// by a prior Emit1, offset by 1) without disturbing the emit cursor. Used
// for forward-reference fix-up: a JMP/IFZERO emitted before its target is
// known, patched once the target address is reached.
func (img *Image) Patch(operandAddr int32, value int32) {
	cursor := img.emit
	img.writeWord(operandAddr, value)
	img.emit = cursor
}

// ReadWord returns the word at addr, or 0 if addr is past the image's
// current end.
func (img *Image) ReadWord(addr int32) int32 {
	if addr < 0 || int(addr) >= len(img.words) {
		return 0
	}
	return img.words[addr]
}

// Words returns the image's backing words. The caller must not retain a
// reference across further Emit calls, which may reallocate.
func (img *Image) Words() []int32 {
	return img.words
}

// Concat appends other's words verbatim starting at the current emit
// cursor, returning the base address they were placed at. The caller is
// responsible for relocating any absolute addresses embedded in other's
// instructions (CALL targets); JMP/IFZERO displacements are relative and
// survive the move unchanged. The generator itself does not call Concat.
func (img *Image) Concat(other *Image) int32 {
	base := img.emit
	for _, w := range other.words {
		img.writeWord(img.emit, w)
	}
	return base
}

// Disassemble renders the image as one mnemonic line per instruction,
// mirroring the original runtime's disassemble()/printMnemomic() pair —
// carried here as a supplemented feature wired to the driver's
// --dump-asm flag.
func (img *Image) Disassemble() string {
	var b strings.Builder
	addr := int32(0)
	for addr < int32(len(img.words)) {
		op := Opcode(img.words[addr])
		n := op.Operands()
		switch n {
		case 0:
			fmt.Fprintf(&b, "%6d: %s\n", addr, op)
		case 1:
			fmt.Fprintf(&b, "%6d: %-8s %d\n", addr, op, img.ReadWord(addr+1))
		case 2:
			fmt.Fprintf(&b, "%6d: %-8s %d, %d\n", addr, op, img.ReadWord(addr+1), img.ReadWord(addr+2))
		}
		addr += int32(1 + n)
	}
	return b.String()
}
