package fast

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Image is the flat, byte-addressed memory of a program: header, code and data share one space.
// It is never written to after construction.
type Image struct {
	data []byte
}

// NewImage copies data into a new Image.
func NewImage(data []byte) *Image {
	return &Image{data: append([]byte(nil), data...)}
}

// Len returns the image size in bytes.
func (m *Image) Len() uint64 {
	return uint64(len(m.data))
}

// Range returns the bytes in [addr, addr+size). The returned slice aliases the image and must not be modified.
func (m *Image) Range(addr uint32, size uint32) ([]byte, bool) {
	end := uint64(addr) + uint64(size)
	if end > m.Len() {
		return nil, false
	}
	return m.data[addr:end:end], true
}

// Word reads the big-endian word at addr.
func (m *Image) Word(addr uint32) (uint32, error) {
	b, ok := m.Range(addr, 4)
	if !ok {
		return 0, fmt.Errorf("%w: word at %08x, image size %d", ErrOutOfBounds, addr, m.Len())
	}
	return binary.BigEndian.Uint32(b), nil
}

// CString reads the NUL-terminated string starting at addr. Every byte is widened to one character,
// without any encoding validation.
func (m *Image) CString(addr uint32) (string, error) {
	if uint64(addr) >= m.Len() {
		return "", fmt.Errorf("%w: string at %08x, image size %d", ErrOutOfBounds, addr, m.Len())
	}
	var sb strings.Builder
	for _, c := range m.data[addr:] {
		if c == 0 {
			return sb.String(), nil
		}
		sb.WriteRune(rune(c))
	}
	return "", fmt.Errorf("%w: string at %08x", ErrUnterminatedString, addr)
}

// Hash is the keccak256 commitment to the image contents.
func (m *Image) Hash() common.Hash {
	return crypto.Keccak256Hash(m.data)
}

func (m *Image) MarshalJSON() ([]byte, error) {
	return json.Marshal(hexutil.Bytes(m.data))
}

func (m *Image) UnmarshalJSON(input []byte) error {
	var data hexutil.Bytes
	if err := json.Unmarshal(input, &data); err != nil {
		return err
	}
	m.data = data
	return nil
}
