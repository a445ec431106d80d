package arch

import (
	"errors"
	"fmt"
)

// Image header layout. All header fields are big-endian.
const (
	HeaderSize = 12

	MagicOffset   = 0
	VersionOffset = 4
	EntryOffset   = 8

	WordSize = 4
)

var (
	Magic   = [4]byte{0xf1, 0x0f, 0x0a, 0x00}
	Version = [4]byte{0x00, 0x00, 0x00, 0x00}
)

// Syscall selectors, fetched as the operand word of a Syscall instruction.
const (
	SysOpen  = 0
	SysWrite = 1
)

// Standard streams bound in every descriptor table.
const (
	FdStdin  = 0
	FdStdout = 1
	FdStderr = 2

	// FdFirstFree is the first descriptor handed out by the open syscall.
	FdFirstFree = 3
)

// Opcode is a decoded instruction word.
type Opcode uint32

const (
	Halt       Opcode = 0x00
	IConst     Opcode = 0x01
	Syscall    Opcode = 0x03
	JumpIfZero Opcode = 0x04
	IAdd       Opcode = 0x10
	IMul       Opcode = 0x11
	ISub       Opcode = 0x12
	IDiv       Opcode = 0x13
	Dup        Opcode = 0x20
)

var ErrUnknownOpcode = errors.New("unknown opcode")

// UnknownOpcodeError carries the raw word that failed to decode.
type UnknownOpcodeError struct {
	Code uint32
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode %#x", e.Code)
}

func (e *UnknownOpcodeError) Unwrap() error {
	return ErrUnknownOpcode
}

// Decode converts a raw instruction word into an Opcode.
func Decode(code uint32) (Opcode, error) {
	switch op := Opcode(code); op {
	case Halt, IConst, Syscall, JumpIfZero, IAdd, IMul, ISub, IDiv, Dup:
		return op, nil
	default:
		return 0, &UnknownOpcodeError{Code: code}
	}
}

// Code returns the raw instruction word of the opcode.
func (op Opcode) Code() uint32 {
	return uint32(op)
}

// Operands returns the number of immediate words that follow the opcode word.
func (op Opcode) Operands() int {
	switch op {
	case IConst, Syscall, JumpIfZero:
		return 1
	default:
		return 0
	}
}

func (op Opcode) String() string {
	switch op {
	case Halt:
		return "halt"
	case IConst:
		return "iconst"
	case Syscall:
		return "syscall"
	case JumpIfZero:
		return "jz"
	case IAdd:
		return "iadd"
	case IMul:
		return "imul"
	case ISub:
		return "isub"
	case IDiv:
		return "idiv"
	case Dup:
		return "dup"
	default:
		return fmt.Sprintf("op(%#x)", uint32(op))
	}
}

// SyscallName returns a mnemonic for a syscall selector.
func SyscallName(sel uint32) string {
	switch sel {
	case SysOpen:
		return "open"
	case SysWrite:
		return "write"
	default:
		return fmt.Sprintf("sys(%#x)", sel)
	}
}
