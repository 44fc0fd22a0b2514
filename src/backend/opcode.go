// Package backend lowers an ir.Node tree into a linear Image of VM words:
// the code generator (codegen.go), the growable word buffer it emits into
// together with its disassembler (image.go), and the opcode enumeration
// both share (opcode.go).
package backend

import "fmt"

// Opcode is a single VM instruction's operation code. Numeric values below
// 0x20 mirror the original Basheyev/CVM runtime's encoding exactly, except
// that DROP takes the original's reserved 0x1C slot; values at 0x20 and
// above (the extended conditional-jump family, DUP/INC/DEC) are additions
// the current instruction set makes on top of it —
// the generator never emits most of them, but the VM still dispatches
// them, so their numbering only has to be internally consistent.
type Opcode int32

const (
	HALT     Opcode = 0x00
	CONST    Opcode = 0x01
	PUSH     Opcode = 0x02
	POP      Opcode = 0x03
	ADD      Opcode = 0x04
	SUB      Opcode = 0x05
	MULTIPLY Opcode = 0x06
	DIVIDE   Opcode = 0x07
	AND      Opcode = 0x08
	OR       Opcode = 0x09
	XOR      Opcode = 0x0A
	NOT      Opcode = 0x0B
	SHL      Opcode = 0x0C
	SHR      Opcode = 0x0D
	JMP      Opcode = 0x0E
	IFZERO   Opcode = 0x0F
	EQ       Opcode = 0x10
	NEQUAL   Opcode = 0x11
	GREATER  Opcode = 0x12
	GREQUAL  Opcode = 0x13
	LESS     Opcode = 0x14
	LSEQUAL  Opcode = 0x15
	LAND     Opcode = 0x16
	LOR      Opcode = 0x17
	LNOT     Opcode = 0x18
	CALL     Opcode = 0x19
	RET      Opcode = 0x1A
	SYSCALL  Opcode = 0x1B
	LOAD     Opcode = 0x1D
	STORE    Opcode = 0x1E
	ARG      Opcode = 0x1F

	// DROP discards the top of stack. It fills the original encoding's
	// reserved 0x1C slot: the generator emits it after every
	// expression-statement call to keep the stack balanced across loop
	// iterations (the language has no void type, so a called function
	// always leaves exactly one word on the stack).
	DROP Opcode = 0x1C

	// The extended conditional-jump family: IFZERO is the only one this
	// generator ever emits (every surviving comparison form reduces to a
	// comparison opcode followed by IFZERO), but the VM dispatches all
	// five so a hand-assembled image may use them directly.
	IFNE Opcode = 0x20
	IFGR Opcode = 0x21
	IFGE Opcode = 0x22
	IFLS Opcode = 0x23
	IFLE Opcode = 0x24

	// DUP/INC/DEC round out the stack/arithmetic instruction groups; none
	// are emitted by this generator, which always materialises a fresh
	// CONST for literals and ADD/SUB for increment/decrement.
	DUP Opcode = 0x25
	INC Opcode = 0x26
	DEC Opcode = 0x27
)

var mnemonics = map[Opcode]string{
	HALT: "HALT", CONST: "CONST", PUSH: "PUSH", POP: "POP", DUP: "DUP", DROP: "DROP",
	INC: "INC", DEC: "DEC",
	ADD: "ADD", SUB: "SUB", MULTIPLY: "MULTIPLY", DIVIDE: "DIVIDE",
	AND: "AND", OR: "OR", XOR: "XOR", NOT: "NOT", SHL: "SHL", SHR: "SHR",
	JMP: "JMP", IFZERO: "IFZERO", IFNE: "IFNE", IFGR: "IFGR", IFGE: "IFGE", IFLS: "IFLS", IFLE: "IFLE",
	EQ: "EQ", NEQUAL: "NEQUAL", GREATER: "GREATER", GREQUAL: "GREQUAL",
	LESS: "LESS", LSEQUAL: "LSEQUAL",
	LAND: "LAND", LOR: "LOR", LNOT: "LNOT",
	CALL: "CALL", RET: "RET", SYSCALL: "SYSCALL",
	LOAD: "LOAD", STORE: "STORE", ARG: "ARG",
}

func (op Opcode) String() string {
	if m, ok := mnemonics[op]; ok {
		return m
	}
	return fmt.Sprintf("OP(%#x)", int32(op))
}

// Operands reports how many trailing words op carries.
func (op Opcode) Operands() int {
	switch op {
	case CONST, PUSH, POP, JMP, IFZERO, IFNE, IFGR, IFGE, IFLS, IFLE, LOAD, STORE, ARG, SYSCALL:
		return 1
	case CALL:
		return 2
	default:
		return 0
	}
}

// Syscall numbers recognised by the VM's sysCall dispatch.
const (
	SyscallWriteString int32 = 0x20
	SyscallPutInt      int32 = 0x21
	// SyscallGetInt is a supplemented host call: the original Basheyev/CVM
	// runtime declares the 0x22 slot but never implements it. iget reads
	// one line of ASCII decimal text from the host and pushes it as an
	// int32.
	SyscallGetInt int32 = 0x22
)
