package slow

import "github.com/holiman/uint256"

// These are type-safe pure functions *styled to translate to yul*, to use uint256 variables for 32 bit math.

// U32 is like a Go uint32, always within range, but represented as uint256 in memory with 0 padding.
type U32 uint256.Int

func (v U32) val() uint32 {
	return uint32((*uint256.Int)(&v).Uint64())
}

func Val(v U32) uint32 {
	return v.val()
}

func FromU32(v uint32) U32 {
	return U32(*uint256.NewInt(uint64(v)))
}

func toU256(v uint8) U256 {
	return *uint256.NewInt(uint64(v))
}

func u32Mask() U256 { // max uint32
	return shr(toU256(224), not(U256{})) // 256-32 = 224
}

func u256ToU32(v U256) U32 {
	return U32(and(v, u32Mask()))
}

func add32(x, y U32) U32 {
	return u256ToU32(add(U256(x), U256(y)))
}

// sub32 relies on 256 bit two's complement wrap: the low 32 bits are the 32 bit difference.
func sub32(x, y U32) U32 {
	return u256ToU32(sub(U256(x), U256(y)))
}

func mul32(x, y U32) U32 {
	return u256ToU32(mul(U256(x), U256(y)))
}

func div32(x, y U32) U32 {
	return U32(div(U256(x), U256(y)))
}

func iszero32(v U32) bool {
	return iszero(U256(v))
}
