// Package vm implements the stack machine the backend package targets: a
// flat word-addressable memory, four registers (IP/SP/FP/LP), a
// fetch-decode-execute dispatch loop, and the three host syscalls (string
// write, iput, iget).
package vm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"vslc/src/backend"
	"vslc/src/util"
)

// DefaultMemoryWords is the VM's default memory size, matching the
// original Basheyev/CVM runtime's 0xFFFF-word default.
const DefaultMemoryWords = 0xFFFF

// Word is the VM's native cell size: every register, stack slot, and
// memory cell is one Word wide.
type Word = int32

// VM is one stack-machine instance. Multiple instances are fully
// independent; nothing is shared across them.
type VM struct {
	memory []int32
	ip     int32
	sp     int32
	fp     int32
	lp     int32

	maxAddress int32

	in  *bufio.Reader
	out io.Writer
}

// New allocates a VM with memoryWords words of RAM. Host output goes to
// out; host input (iget) is read from in.
func New(memoryWords int, in io.Reader, out io.Writer) *VM {
	if memoryWords <= 0 {
		memoryWords = DefaultMemoryWords
	}
	return &VM{
		memory:     make([]int32, memoryWords),
		maxAddress: int32(memoryWords - 1),
		in:         bufio.NewReader(in),
		out:        out,
	}
}

// LoadImage copies img's words into memory starting at word 0. It fails
// if the image is larger than the VM's memory.
func (m *VM) LoadImage(img *backend.Image) error {
	words := img.Words()
	if int32(len(words)) > m.maxAddress+1 {
		return util.NewRuntimeError(0, "image of %d words exceeds %d words of memory", len(words), len(m.memory))
	}
	copy(m.memory, words)
	return nil
}

// Registers snapshots the VM's current IP/SP/FP/LP, mirroring the
// original runtime's printState(). It holds no stack contents, and the
// driver does not print it.
type Registers struct {
	IP, SP, FP, LP Word
}

// State returns the VM's current register snapshot.
func (m *VM) State() Registers {
	return Registers{IP: m.ip, SP: m.sp, FP: m.fp, LP: m.lp}
}

func (m *VM) push(v int32) { m.sp--; m.memory[m.sp] = v }
func (m *VM) pop() int32   { v := m.memory[m.sp]; m.sp++; return v }

// Execute boots the VM (IP=0, SP=FP=highest address, LP=SP-1) and runs
// until HALT or a fatal error. Stack grows toward lower addresses.
func (m *VM) Execute() error {
	m.ip = 0
	m.sp = m.maxAddress
	m.fp = m.sp
	m.lp = m.sp - 1

	for {
		op := backend.Opcode(m.memory[m.ip])
		m.ip++

		switch op {
		case backend.HALT:
			return nil

		case backend.CONST:
			v := m.memory[m.ip]
			m.ip++
			m.push(v)

		case backend.PUSH:
			a := m.memory[m.ip]
			m.ip++
			m.push(m.memory[a])

		case backend.POP:
			a := m.memory[m.ip]
			m.ip++
			m.memory[a] = m.pop()

		case backend.DUP:
			m.push(m.memory[m.sp])

		case backend.DROP:
			m.pop()

		case backend.INC:
			m.memory[m.sp]++
		case backend.DEC:
			m.memory[m.sp]--

		case backend.ADD:
			b, a := m.pop(), m.pop()
			m.push(a + b)
		case backend.SUB:
			b, a := m.pop(), m.pop()
			m.push(a - b)
		case backend.MULTIPLY:
			b, a := m.pop(), m.pop()
			m.push(a * b)
		case backend.DIVIDE:
			b, a := m.pop(), m.pop()
			m.push(a / b)

		case backend.AND:
			b, a := m.pop(), m.pop()
			m.push(a & b)
		case backend.OR:
			b, a := m.pop(), m.pop()
			m.push(a | b)
		case backend.XOR:
			b, a := m.pop(), m.pop()
			m.push(a ^ b)
		case backend.NOT:
			m.push(^m.pop())
		case backend.SHL:
			b, a := m.pop(), m.pop()
			m.push(a << uint32(b))
		case backend.SHR:
			b, a := m.pop(), m.pop()
			m.push(a >> uint32(b))

		case backend.JMP:
			d := m.memory[m.ip]
			m.ip++
			m.ip += d

		case backend.IFZERO:
			d := m.memory[m.ip]
			m.ip++
			if m.pop() == 0 {
				m.ip += d
			}
		case backend.IFNE:
			d := m.memory[m.ip]
			m.ip++
			if m.pop() != 0 {
				m.ip += d
			}
		case backend.IFGR:
			d := m.memory[m.ip]
			m.ip++
			if m.pop() > 0 {
				m.ip += d
			}
		case backend.IFGE:
			d := m.memory[m.ip]
			m.ip++
			if m.pop() >= 0 {
				m.ip += d
			}
		case backend.IFLS:
			d := m.memory[m.ip]
			m.ip++
			if m.pop() < 0 {
				m.ip += d
			}
		case backend.IFLE:
			d := m.memory[m.ip]
			m.ip++
			if m.pop() <= 0 {
				m.ip += d
			}

		case backend.EQ:
			b, a := m.pop(), m.pop()
			m.push(boolWord(a == b))
		case backend.NEQUAL:
			b, a := m.pop(), m.pop()
			m.push(boolWord(a != b))
		case backend.GREATER:
			b, a := m.pop(), m.pop()
			m.push(boolWord(a > b))
		case backend.GREQUAL:
			b, a := m.pop(), m.pop()
			m.push(boolWord(a >= b))
		case backend.LESS:
			b, a := m.pop(), m.pop()
			m.push(boolWord(a < b))
		case backend.LSEQUAL:
			b, a := m.pop(), m.pop()
			m.push(boolWord(a <= b))

		case backend.LAND:
			b, a := m.pop(), m.pop()
			m.push(boolWord(a != 0 && b != 0))
		case backend.LOR:
			b, a := m.pop(), m.pop()
			m.push(boolWord(a != 0 || b != 0))
		case backend.LNOT:
			m.push(boolWord(m.pop() == 0))

		case backend.CALL:
			addr := m.memory[m.ip]
			argc := m.memory[m.ip+1]
			m.ip += 2

			frame := m.sp + argc
			m.sp--
			m.memory[m.sp] = m.ip // return address
			m.sp--
			m.memory[m.sp] = m.fp
			m.sp--
			m.memory[m.sp] = m.lp

			m.fp = frame
			m.lp = m.sp - 1
			m.ip = addr

		case backend.RET:
			result := m.pop()
			saved := m.lp
			m.sp = m.fp
			m.lp = m.memory[saved+1]
			m.fp = m.memory[saved+2]
			m.ip = m.memory[saved+3]
			m.push(result)

		case backend.SYSCALL:
			id := m.memory[m.ip]
			m.ip++
			if err := m.sysCall(id); err != nil {
				return err
			}

		case backend.LOAD:
			i := m.memory[m.ip]
			m.ip++
			m.push(m.memory[m.lp-i])
		case backend.STORE:
			i := m.memory[m.ip]
			m.ip++
			m.memory[m.lp-i] = m.pop()
		case backend.ARG:
			i := m.memory[m.ip]
			m.ip++
			m.push(m.memory[m.fp-i-1])

		default:
			return util.NewRuntimeError(m.ip-1, "unknown opcode %#x", int32(op))
		}
	}
}

func boolWord(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// sysCall dispatches a host syscall. 0x20 (string write) pops a
// word-address and writes the nul-terminated byte string found there;
// 0x21 (iput) pops a word and prints it as a signed decimal integer
// followed by a line break; 0x22 (iget) is a supplemented call, absent
// from the original runtime, reading one line of ASCII decimal text from
// the host and pushing it as an int32.
func (m *VM) sysCall(id int32) error {
	switch id {
	case backend.SyscallWriteString:
		addr := m.pop()
		var b strings.Builder
		for a := addr; m.memory[a] != 0; a++ {
			b.WriteByte(byte(m.memory[a]))
		}
		fmt.Fprint(m.out, b.String())
		return nil

	case backend.SyscallPutInt:
		v := m.pop()
		fmt.Fprintf(m.out, "%d\n", v)
		return nil

	case backend.SyscallGetInt:
		line, err := m.in.ReadString('\n')
		if err != nil && line == "" {
			return util.NewRuntimeError(m.ip, "iget: %s", err)
		}
		v, err := strconv.ParseInt(strings.TrimSpace(line), 10, 32)
		if err != nil {
			return util.NewRuntimeError(m.ip, "iget: malformed integer input: %q", line)
		}
		m.push(int32(v))
		return nil

	default:
		return util.NewRuntimeError(m.ip, "unknown syscall %#x", id)
	}
}
