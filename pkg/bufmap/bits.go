package bufmap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twinfer/bufmap/pkg/byteview"
)

// BitsField is a run of 1 to 8 bits inside a single byte. Bit 0 is the least
// significant bit, so runs are declared from the low bits upwards.
type BitsField struct {
	base
	decimal bool
}

// BitField is a single bit.
type BitField struct {
	*BitsField
}

// Bits declares an n-bit field at the current bit cursor.
func (s *Struct) Bits(name string, n int, opts ...FieldOption) *BitsField {
	f := s.newBits(name, n, opts)
	if s.err == nil {
		s.add(f)
	}
	return f
}

// Bit declares a single-bit field.
func (s *Struct) Bit(name string) *BitField {
	f := &BitField{BitsField: s.newBits(name, 1, nil)}
	if s.err == nil {
		s.add(f)
	}
	return f
}

func (s *Struct) newBits(name string, n int, opts []FieldOption) *BitsField {
	cfg := newFieldConfig(fieldConfig{}, opts)
	f := &BitsField{base: base{owner: s, name: name}, decimal: cfg.decimal}
	off, bit, ok := s.reserveBits(name, n)
	if !ok {
		return f
	}
	f.offset, f.bitOffset, f.bits = off, bit, n
	return f
}

func (f *BitsField) Kind() Kind { return KindBits }

// Value returns the bits as an unsigned number.
func (f *BitsField) Value() (uint8, error) {
	return f.owner.view.ReadBits(f.AbsOffset(), f.bitOffset, f.bits)
}

// Int returns the value as an int.
func (f *BitsField) Int() (int, error) {
	v, err := f.Value()
	return int(v), err
}

// Set writes v into the bits, leaving the rest of the byte untouched.
func (f *BitsField) Set(v uint8) error {
	return f.owner.view.WriteBits(f.AbsOffset(), f.bitOffset, f.bits, v)
}

// Max returns the largest value the field can hold.
func (f *BitsField) Max() uint8 { return uint8(byteview.BitMask(f.bits)) }

func (f *BitsField) Decoded() (any, error) { return f.Value() }

func (f *BitsField) setAny(v any) error {
	n, err := toInt64(v)
	if err != nil {
		return err
	}
	if n < 0 || n > int64(f.Max()) {
		return fmt.Errorf("%d into %d bits: %w", n, f.bits, ErrValueTooLarge)
	}
	return f.Set(uint8(n))
}

func (f *BitsField) Display() string { return f.display(RenderOptions{}) }

func (f *BitsField) display(RenderOptions) string {
	v, err := f.Value()
	if err != nil {
		return ""
	}
	digits := (f.bits + 3) / 4
	out := fmt.Sprintf("0x%0*X", digits, v)
	if f.decimal && v > 9 {
		out += " (" + strconv.Itoa(int(v)) + ")"
	}
	bin := strconv.FormatUint(uint64(v), 2)
	return out + " (" + strings.Repeat("0", f.bits-len(bin)) + bin + "b)"
}

func (f *BitsField) blank() bool { return false }

func (f *BitsField) info() string { return f.bitInfo() }

func (f *BitsField) render(r *renderer, width int) []string {
	return []string{r.label(f, width) + f.display(r.opts)}
}

// Bool reports whether the bit is set.
func (f *BitField) Bool() (bool, error) {
	v, err := f.Value()
	return v == 1, err
}

// SetBool sets or clears the bit.
func (f *BitField) SetBool(set bool) error {
	if set {
		return f.Set(1)
	}
	return f.Set(0)
}

func (f *BitField) Decoded() (any, error) { return f.Bool() }

func (f *BitField) setAny(v any) error {
	if b, ok := v.(bool); ok {
		return f.SetBool(b)
	}
	return f.BitsField.setAny(v)
}

func (f *BitField) Display() string { return f.display(RenderOptions{}) }

func (f *BitField) display(RenderOptions) string {
	v, err := f.Value()
	if err != nil {
		return ""
	}
	return strconv.Itoa(int(v)) + "b"
}

func (f *BitField) render(r *renderer, width int) []string {
	return []string{r.label(f, width) + f.display(r.opts)}
}
