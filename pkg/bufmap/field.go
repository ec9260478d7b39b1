package bufmap

import (
	"bytes"
	"fmt"
)

// Kind identifies one of the closed set of field kinds.
type Kind int

const (
	KindNumber Kind = iota
	KindBits
	KindString
	KindBuffer
	KindComposite
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBits:
		return "bits"
	case KindString:
		return "string"
	case KindBuffer:
		return "buffer"
	case KindComposite:
		return "composite"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Field is a bound field. Offsets are relative to the owning struct; byte
// fields report SizeBits() == 0 and bit fields report Size() == 0.
type Field interface {
	Name() string
	Kind() Kind
	Offset() int
	AbsOffset() int
	BitOffset() int
	Size() int
	SizeBits() int
	Reserved() bool
	// InBounds reports whether every byte the field covers exists in the buffer.
	InBounds() bool
	// Raw returns a copy of the bytes the field covers.
	Raw() ([]byte, error)
	// Decoded returns the field value as a plain Go value.
	Decoded() (any, error)
	// Display renders the value the way the dump shows it.
	Display() string

	display(o RenderOptions) string
	render(r *renderer, width int) []string
	info() string
	blank() bool
	setAny(v any) error
}

// base carries the placement every field kind shares.
type base struct {
	owner     *Struct
	name      string
	offset    int
	bitOffset int
	size      int
	bits      int
	reserved  bool
}

func (b *base) Name() string   { return b.name }
func (b *base) Offset() int    { return b.offset }
func (b *base) BitOffset() int { return b.bitOffset }
func (b *base) Size() int      { return b.size }
func (b *base) SizeBits() int  { return b.bits }
func (b *base) Reserved() bool { return b.reserved }

func (b *base) AbsOffset() int {
	if b.owner == nil {
		return b.offset
	}
	return b.owner.base + b.offset
}

// span is the number of bytes touched, counting a partial byte as whole.
func (b *base) span() int {
	if b.bits > 0 {
		return (b.bitOffset + b.bits + 7) / 8
	}
	return b.size
}

func (b *base) InBounds() bool {
	return b.owner != nil && b.owner.view.Contains(b.AbsOffset(), b.span())
}

func (b *base) Raw() ([]byte, error) {
	if b.owner == nil {
		return nil, ErrNotFound
	}
	w, err := b.owner.view.Window(b.AbsOffset(), b.span())
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", b.name, err)
	}
	return bytes.Clone(w.Bytes()), nil
}

func (b *base) byteInfo() string {
	return fmt.Sprintf("offset: %d, size: %s", b.offset, bytesToString(b.size))
}

func (b *base) bitInfo() string {
	return fmt.Sprintf("offset: %d, bit offset: %d, size: %s", b.offset, b.bitOffset, bitsToString(b.bits))
}

func bytesToString(n int) string {
	if n == 1 {
		return "1 byte"
	}
	return fmt.Sprintf("%d bytes", n)
}

func bitsToString(n int) string {
	if n == 1 {
		return "1 bit"
	}
	return fmt.Sprintf("%d bits", n)
}

func elementName(name string, i int) string {
	return fmt.Sprintf("%s[%d]", name, i)
}
