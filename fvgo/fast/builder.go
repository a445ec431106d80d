package fast

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum-optimism/fluxvm/fvgo/arch"
)

// Label is an address in an image under construction. It may be referenced before it is marked.
type Label struct {
	name   string
	marked bool
	addr   uint32
	refs   []int // body offsets of words to patch with addr
}

// ImageBuilder assembles a program image: header, then code and data in emission order.
// The entry point defaults to the first byte after the header.
type ImageBuilder struct {
	body   []byte
	entry  *Label
	labels []*Label
}

func NewImageBuilder() *ImageBuilder {
	return &ImageBuilder{body: make([]byte, 0, 64)}
}

// Addr returns the image address of the next emitted byte.
func (b *ImageBuilder) Addr() uint32 {
	return uint32(arch.HeaderSize + len(b.body))
}

func (b *ImageBuilder) NewLabel(name string) *Label {
	l := &Label{name: name}
	b.labels = append(b.labels, l)
	return l
}

// Mark binds l to the current address.
func (b *ImageBuilder) Mark(l *Label) *ImageBuilder {
	if l.marked {
		panic(fmt.Sprintf("label %q marked twice", l.name))
	}
	l.marked = true
	l.addr = b.Addr()
	return b
}

// Entry makes l the entry point.
func (b *ImageBuilder) Entry(l *Label) *ImageBuilder {
	b.entry = l
	return b
}

func (b *ImageBuilder) Word(v uint32) *ImageBuilder {
	b.body = binary.BigEndian.AppendUint32(b.body, v)
	return b
}

// Ref emits a word that is patched with the address of l.
func (b *ImageBuilder) Ref(l *Label) *ImageBuilder {
	l.refs = append(l.refs, len(b.body))
	return b.Word(0)
}

func (b *ImageBuilder) Op(op arch.Opcode) *ImageBuilder {
	return b.Word(op.Code())
}

func (b *ImageBuilder) IConst(v uint32) *ImageBuilder {
	return b.Op(arch.IConst).Word(v)
}

// IConstAddr pushes the address of l.
func (b *ImageBuilder) IConstAddr(l *Label) *ImageBuilder {
	return b.Op(arch.IConst).Ref(l)
}

func (b *ImageBuilder) Syscall(sel uint32) *ImageBuilder {
	return b.Op(arch.Syscall).Word(sel)
}

func (b *ImageBuilder) JumpIfZero(l *Label) *ImageBuilder {
	return b.Op(arch.JumpIfZero).Ref(l)
}

// Data emits raw bytes, without any alignment.
func (b *ImageBuilder) Data(p []byte) *ImageBuilder {
	b.body = append(b.body, p...)
	return b
}

// CString emits s followed by a NUL byte.
func (b *ImageBuilder) CString(s string) *ImageBuilder {
	b.body = append(b.body, s...)
	b.body = append(b.body, 0)
	return b
}

// Bytes resolves all label references and returns the finished image.
func (b *ImageBuilder) Bytes() ([]byte, error) {
	var errs []error
	for _, l := range b.labels {
		if len(l.refs) > 0 && !l.marked {
			errs = append(errs, fmt.Errorf("label %q referenced but never marked", l.name))
		}
	}
	entry := uint32(arch.HeaderSize)
	if b.entry != nil {
		if !b.entry.marked {
			errs = append(errs, fmt.Errorf("entry label %q never marked", b.entry.name))
		}
		entry = b.entry.addr
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	out := make([]byte, 0, arch.HeaderSize+len(b.body))
	out = append(out, arch.Magic[:]...)
	out = append(out, arch.Version[:]...)
	out = binary.BigEndian.AppendUint32(out, entry)
	out = append(out, b.body...)
	body := out[arch.HeaderSize:]
	for _, l := range b.labels {
		for _, ref := range l.refs {
			binary.BigEndian.PutUint32(body[ref:], l.addr)
		}
	}
	return out, nil
}
