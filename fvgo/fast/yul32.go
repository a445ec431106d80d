package fast

// Fast equivalent of the 32-bit yul functions of slow-mode.
// Go's uint32 arithmetic already wraps modulo 2**32.

type U32 = uint32

func add32(x, y U32) U32 { return x + y }

func sub32(x, y U32) U32 { return x - y }

func mul32(x, y U32) U32 { return x * y }

// div32 assumes y != 0
func div32(x, y U32) U32 { return x / y }

func iszero32(v U32) bool { return v == 0 }
