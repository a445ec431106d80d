package fast

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/fluxvm/fvgo/arch"
)

var (
	ErrOutOfBounds        = errors.New("out of bounds")
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrDivisionByZero     = errors.New("division by zero")
	ErrUnknownSyscall     = errors.New("unknown syscall")
	ErrBufferOutOfRange   = errors.New("input buffer out of range")
	ErrUnterminatedString = errors.New("unterminated string")
)

type UnknownSyscallError struct {
	Selector uint32
}

func (e *UnknownSyscallError) Error() string {
	return fmt.Sprintf("unknown syscall %#x", e.Selector)
}

func (e *UnknownSyscallError) Unwrap() error {
	return ErrUnknownSyscall
}

// step fetches, decodes and executes a single instruction.
// A failed instruction leaves the state wherever it stopped; the run is over at that point.
func (m *InstrumentedState) step() error {
	s := m.state

	code, err := s.fetch()
	if err != nil {
		return err
	}
	op, err := arch.Decode(code)
	if err != nil {
		return err
	}

	switch op {
	case arch.Halt:
		s.Halted = true
	case arch.IConst:
		v, err := s.fetch()
		if err != nil {
			return err
		}
		s.push(v)
	case arch.Syscall:
		sel, err := s.fetch()
		if err != nil {
			return err
		}
		if err := m.syscall(sel); err != nil {
			return fmt.Errorf("syscall %s: %w", arch.SyscallName(sel), err)
		}
	case arch.JumpIfZero:
		v, err := s.pop()
		if err != nil {
			return err
		}
		// the target word is consumed whether or not the branch is taken
		dest, err := s.fetch()
		if err != nil {
			return err
		}
		if v == 0 {
			s.IP = dest
		}
	case arch.IAdd, arch.IMul, arch.ISub, arch.IDiv:
		a, b, err := s.pop2()
		if err != nil {
			return err
		}
		v, err := ALU(op, a, b)
		if err != nil {
			return err
		}
		s.push(v)
	case arch.Dup:
		v, err := s.pop()
		if err != nil {
			return err
		}
		s.push(v)
		s.push(v)
	default:
		// Decode only returns the opcodes above
		return &arch.UnknownOpcodeError{Code: code}
	}

	s.Step++
	return nil
}

func (m *InstrumentedState) syscall(sel uint32) error {
	switch sel {
	case arch.SysOpen:
		return m.sysOpen()
	case arch.SysWrite:
		return m.sysWrite()
	default:
		return &UnknownSyscallError{Selector: sel}
	}
}

// sysOpen: path_offset -> fd
func (m *InstrumentedState) sysOpen() error {
	s := m.state
	addr, err := s.pop()
	if err != nil {
		return err
	}
	path, err := s.Memory.CString(addr)
	if err != nil {
		return err
	}
	fd, err := m.files.Open(path)
	if err != nil {
		return err
	}
	s.push(fd)
	return nil
}

// sysWrite: fd, buf_offset, len -> (nothing). len is on top of the stack, fd at the bottom.
func (m *InstrumentedState) sysWrite() error {
	s := m.state
	length, err := s.pop()
	if err != nil {
		return err
	}
	buf, err := s.pop()
	if err != nil {
		return err
	}
	fd, err := s.pop()
	if err != nil {
		return err
	}
	data, ok := s.Memory.Range(buf, length)
	if !ok {
		return fmt.Errorf("%w: %d bytes at %08x, image size %d", ErrBufferOutOfRange, length, buf, s.Memory.Len())
	}
	return m.files.Write(fd, data)
}
