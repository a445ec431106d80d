package fast

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const witnessHeaderSize = 32 + 4 + 8 + 1 + 4

// StateWitness is the encoded form of a VMState, see VMState.EncodeWitness.
type StateWitness []byte

// StateHash commits to the full VM state. Two runs of the same image that end in the same
// place produce the same hash.
func (sw StateWitness) StateHash() (common.Hash, error) {
	if len(sw) < witnessHeaderSize || (len(sw)-witnessHeaderSize)%4 != 0 {
		return common.Hash{}, fmt.Errorf("invalid witness length: %d", len(sw))
	}
	return crypto.Keccak256Hash(sw), nil
}
