package fast

import (
	"fmt"

	"github.com/ethereum-optimism/fluxvm/fvgo/arch"
)

// Instruction is one decoded entry of a disassembly listing.
type Instruction struct {
	Addr    uint32
	Raw     uint32
	Op      arch.Opcode
	Operand *uint32
	// Invalid marks a word that does not decode, or an opcode whose operand runs past the image.
	Invalid bool
}

func (ins Instruction) String() string {
	if ins.Invalid {
		return fmt.Sprintf("%08x: %08x  ??", ins.Addr, ins.Raw)
	}
	if ins.Operand == nil {
		return fmt.Sprintf("%08x: %08x  %s", ins.Addr, ins.Raw, ins.Op)
	}
	if ins.Op == arch.Syscall {
		return fmt.Sprintf("%08x: %08x  %s %s", ins.Addr, ins.Raw, ins.Op, arch.SyscallName(*ins.Operand))
	}
	return fmt.Sprintf("%08x: %08x  %s %#x", ins.Addr, ins.Raw, ins.Op, *ins.Operand)
}

// Disassemble decodes instructions linearly from start to the end of the image.
// Code and data share the image, so the sweep stops at the first word that is not an instruction;
// that word is included with Invalid set.
func Disassemble(img *Image, start uint32) []Instruction {
	var out []Instruction
	for addr := uint64(start); addr+arch.WordSize <= img.Len(); {
		raw, _ := img.Word(uint32(addr))
		ins := Instruction{Addr: uint32(addr), Raw: raw}
		op, err := arch.Decode(raw)
		if err != nil {
			ins.Invalid = true
			return append(out, ins)
		}
		ins.Op = op
		addr += arch.WordSize
		if op.Operands() > 0 {
			v, err := img.Word(uint32(addr))
			if err != nil {
				ins.Invalid = true
				return append(out, ins)
			}
			ins.Operand = &v
			addr += arch.WordSize
		}
		out = append(out, ins)
	}
	return out
}
