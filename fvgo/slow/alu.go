package slow

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/fluxvm/fvgo/arch"
)

var ErrDivisionByZero = errors.New("division by zero")

// ALU is the reference implementation of the arithmetic opcodes, computing a op b on 256 bit
// words truncated to 32 bits. The fast interpreter must agree with it for every input.
func ALU(op arch.Opcode, a, b U32) (U32, error) {
	switch op {
	case arch.IAdd:
		return add32(a, b), nil
	case arch.ISub:
		return sub32(a, b), nil
	case arch.IMul:
		return mul32(a, b), nil
	case arch.IDiv:
		if iszero32(b) {
			return U32{}, ErrDivisionByZero
		}
		return div32(a, b), nil
	default:
		return U32{}, fmt.Errorf("not an arithmetic opcode: %s", op)
	}
}
