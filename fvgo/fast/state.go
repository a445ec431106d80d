package fast

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum-optimism/fluxvm/fvgo/arch"
)

type VMState struct {
	Memory *Image `json:"memory"`

	IP uint32 `json:"ip"`

	Stack []uint32 `json:"stack"`

	Step   uint64 `json:"step"`
	Halted bool   `json:"halted"`
}

// EncodeWitness serializes the state into a deterministic byte string:
// image hash, IP, step, halted flag, stack depth and the stack words bottom to top.
func (state *VMState) EncodeWitness() StateWitness {
	out := make([]byte, 0, witnessHeaderSize+4*len(state.Stack))
	memRoot := state.Memory.Hash()
	out = append(out, memRoot[:]...)
	out = binary.BigEndian.AppendUint32(out, state.IP)
	out = binary.BigEndian.AppendUint64(out, state.Step)
	if state.Halted {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	out = binary.BigEndian.AppendUint32(out, uint32(len(state.Stack)))
	for _, v := range state.Stack {
		out = binary.BigEndian.AppendUint32(out, v)
	}
	return out
}

// Instr returns the word at IP, for logging. It is zero when IP is out of bounds,
// in which case the next Step fails with ErrOutOfBounds.
func (state *VMState) Instr() uint32 {
	w, _ := state.Memory.Word(state.IP)
	return w
}

// Running reports whether another instruction can be fetched.
func (state *VMState) Running() bool {
	return !state.Halted && uint64(state.IP) < state.Memory.Len()
}

func (state *VMState) fetch() (uint32, error) {
	w, err := state.Memory.Word(state.IP)
	if err != nil {
		return 0, err
	}
	state.IP += arch.WordSize
	return w, nil
}

func (state *VMState) push(v uint32) {
	state.Stack = append(state.Stack, v)
}

func (state *VMState) pop() (uint32, error) {
	n := len(state.Stack)
	if n == 0 {
		return 0, ErrStackUnderflow
	}
	v := state.Stack[n-1]
	state.Stack = state.Stack[:n-1]
	return v, nil
}

// pop2 pops b then a, for binary operators computing a op b.
func (state *VMState) pop2() (a, b uint32, err error) {
	if b, err = state.pop(); err != nil {
		return
	}
	if a, err = state.pop(); err != nil {
		return
	}
	return
}

func (state *VMState) String() string {
	return fmt.Sprintf("ip=%08x step=%d halted=%t stack=%v", state.IP, state.Step, state.Halted, state.Stack)
}
