package fast

import (
	"fmt"

	"github.com/ethereum-optimism/fluxvm/fvgo/arch"
)

// ALU applies a binary arithmetic opcode to a and b, computing a op b.
// Add, Sub and Mul wrap around; division by zero is an error.
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
			return 0, fmt.Errorf("%w: %d / 0", ErrDivisionByZero, a)
		}
		return div32(a, b), nil
	default:
		return 0, fmt.Errorf("not an arithmetic opcode: %s", op)
	}
}
