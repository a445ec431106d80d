package fast

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum-optimism/fluxvm/fvgo/arch"
)

var (
	ErrShortHeader     = errors.New("image shorter than header")
	ErrInvalidMagic    = errors.New("invalid magic number")
	ErrVersionMismatch = errors.New("unsupported image version")
)

// LoadImage validates the image header and returns the initial VM state,
// with the instruction pointer at the image entry point.
func LoadImage(data []byte) (*VMState, error) {
	if len(data) < arch.HeaderSize {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrShortHeader, len(data), arch.HeaderSize)
	}
	if magic := data[arch.MagicOffset : arch.MagicOffset+4]; !bytes.Equal(magic, arch.Magic[:]) {
		return nil, fmt.Errorf("%w: %x", ErrInvalidMagic, magic)
	}
	if version := data[arch.VersionOffset : arch.VersionOffset+4]; !bytes.Equal(version, arch.Version[:]) {
		return nil, fmt.Errorf("%w: %x", ErrVersionMismatch, version)
	}
	return &VMState{
		Memory: NewImage(data),
		IP:     binary.BigEndian.Uint32(data[arch.EntryOffset:]),
		Stack:  []uint32{},
	}, nil
}

// LoadImageFile reads an image from disk, see LoadImage.
func LoadImageFile(path string) (*VMState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %q: %w", path, err)
	}
	state, err := LoadImage(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %q: %w", path, err)
	}
	return state, nil
}

// EntryPoint returns the entry point recorded in the image header.
// It fails with ErrShortHeader if the image is too short to carry one.
func (m *Image) EntryPoint() (uint32, error) {
	if m.Len() < arch.HeaderSize {
		return 0, fmt.Errorf("%w: got %d bytes, need %d", ErrShortHeader, m.Len(), arch.HeaderSize)
	}
	return m.Word(arch.EntryOffset)
}
