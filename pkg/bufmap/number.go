package bufmap

import (
	"fmt"
	"strconv"

	"github.com/twinfer/bufmap/pkg/byteview"
)

// NumberField is an integer of 0 to 8 bytes in the buffer's byte order.
type NumberField struct {
	base
	signed  bool
	decimal bool
}

// Number declares an integer field of size bytes. Decimal output is on by
// default; pass HexOnly to turn it off.
func (s *Struct) Number(name string, size int, opts ...FieldOption) *NumberField {
	f := s.newNumber(name, size, opts)
	if s.err == nil {
		s.add(f)
	}
	return f
}

// StaticNumber declares an integer field that must decode to expected.
func (s *Struct) StaticNumber(name string, size int, expected int64, opts ...FieldOption) *NumberField {
	f := s.newNumber(name, size, opts)
	if s.err != nil {
		return f
	}
	got, err := f.Value()
	switch {
	case err != nil:
		s.fail(name, fmt.Errorf("%w: %w", ErrValidation, err))
	case got != expected:
		s.fail(name, validationErr("expected 0x%0*X, found 0x%0*X", size*2, uint64(expected)&byteview.BitMask(size*8), size*2, uint64(got)&byteview.BitMask(size*8)))
	default:
		s.add(f)
	}
	return f
}

func (s *Struct) newNumber(name string, size int, opts []FieldOption) *NumberField {
	cfg := newFieldConfig(fieldConfig{decimal: true}, opts)
	f := &NumberField{base: base{owner: s, name: name}, signed: cfg.signed, decimal: cfg.decimal}
	if s.err == nil && (size < 0 || size > byteview.MaxIntSize) {
		s.fail(name, fmt.Errorf("%w: %w: number size %d", ErrLayout, byteview.ErrInvalidSize, size))
		return f
	}
	off, ok := s.reserveBytes(name, size)
	if !ok {
		return f
	}
	f.offset, f.size = off, size
	return f
}

func (f *NumberField) Kind() Kind { return KindNumber }

// Signed reports whether the field decodes as two's complement.
func (f *NumberField) Signed() bool { return f.signed }

// Value returns the decoded value.
func (f *NumberField) Value() (int64, error) {
	return f.owner.view.ReadInt(f.AbsOffset(), f.size, f.signed)
}

// Unsigned returns the bytes as an unsigned integer regardless of signedness.
func (f *NumberField) Unsigned() (uint64, error) {
	return f.owner.view.ReadUint(f.AbsOffset(), f.size)
}

// Int returns the value as an int, failing with ErrRange outside 32 bits.
func (f *NumberField) Int() (int, error) {
	v, err := f.owner.view.ReadIntNarrow(f.AbsOffset(), f.size, f.signed)
	return int(v), err
}

// Set writes v, failing with ErrValueTooLarge if it is outside the field's
// range: [0, Max()] when unsigned, two's complement bounds when signed.
func (f *NumberField) Set(v int64) error {
	fits := byteview.FitsUnsigned(f.size, v)
	if f.signed {
		fits = byteview.FitsSigned(f.size, v)
	}
	if !fits {
		return fmt.Errorf("%d into %q (%d bytes): %w", v, f.name, f.size, ErrValueTooLarge)
	}
	return f.owner.view.WriteInt(f.AbsOffset(), f.size, v)
}

// Max returns the largest unsigned value the field can hold.
func (f *NumberField) Max() uint64 { return byteview.BitMask(f.size * 8) }

func (f *NumberField) Decoded() (any, error) { return f.Value() }

func (f *NumberField) setAny(v any) error {
	n, err := toInt64(v)
	if err != nil {
		return err
	}
	return f.Set(n)
}

func (f *NumberField) Display() string { return f.display(RenderOptions{}) }

func (f *NumberField) display(RenderOptions) string {
	return f.format(f.decimal)
}

func (f *NumberField) format(decimal bool) string {
	if f.size == 0 {
		return ""
	}
	raw, err := f.Unsigned()
	if err != nil {
		return ""
	}
	out := fmt.Sprintf("0x%0*X", f.size*2, raw)
	if v, _ := f.Value(); decimal && (v < 0 || v > 9) {
		out += " (" + strconv.FormatInt(v, 10) + ")"
	}
	return out
}

func (f *NumberField) blank() bool { return f.size == 0 }

func (f *NumberField) info() string { return f.byteInfo() }

func (f *NumberField) render(r *renderer, width int) []string {
	return []string{r.label(f, width) + f.display(r.opts)}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("cannot use %T as an integer", v)
	}
}
