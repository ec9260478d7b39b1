package bufmap

import (
	"bytes"
	"fmt"

	"github.com/twinfer/bufmap/pkg/byteview"
)

// reservedName is the name every reserved field is bound under.
const reservedName = "Reserved"

// BufferField is an opaque byte range of any size.
type BufferField struct {
	base
	showContents bool
}

// Buffer declares a raw byte range of size bytes. With ShowContents the dump
// renders it as a hex grid, otherwise just its size.
func (s *Struct) Buffer(name string, size int, opts ...FieldOption) *BufferField {
	cfg := newFieldConfig(fieldConfig{}, opts)
	f := &BufferField{base: base{owner: s, name: name}, showContents: cfg.showContents}
	off, ok := s.reserveBytes(name, size)
	if !ok {
		return f
	}
	f.offset, f.size = off, size
	s.add(f)
	return f
}

// Reserved declares size reserved bytes. Reserved fields are hidden unless
// the render options ask for them.
func (s *Struct) Reserved(size int) *BufferField {
	f := s.Buffer(reservedName, size)
	f.reserved = true
	return f
}

func (f *BufferField) Kind() Kind { return KindBuffer }

// View returns a window over the field's bytes; writes through it patch the buffer.
func (f *BufferField) View() (*byteview.View, error) {
	return f.owner.view.Window(f.AbsOffset(), f.size)
}

// Bytes returns a copy of the field's bytes.
func (f *BufferField) Bytes() ([]byte, error) { return f.Raw() }

// SetShowContents toggles hex-dump rendering.
func (f *BufferField) SetShowContents(show bool) { f.showContents = show }

// Set overwrites the field; v must have exactly the field's size.
func (f *BufferField) Set(v []byte) error {
	w, err := f.View()
	if err != nil {
		return err
	}
	if len(v) != f.size {
		return fmt.Errorf("%d bytes into %q of %s: %w", len(v), f.name, bytesToString(f.size), ErrValueTooLarge)
	}
	copy(w.Bytes(), v)
	return nil
}

func (f *BufferField) Decoded() (any, error) { return f.Raw() }

func (f *BufferField) setAny(v any) error {
	switch t := v.(type) {
	case []byte:
		return f.Set(t)
	case string:
		return f.Set([]byte(t))
	default:
		return fmt.Errorf("cannot use %T as bytes", v)
	}
}

func (f *BufferField) Display() string { return f.display(RenderOptions{}) }

func (f *BufferField) display(RenderOptions) string {
	w, err := f.View()
	if err != nil {
		return ""
	}
	return w.HexDump()
}

func (f *BufferField) blank() bool { return false }

func (f *BufferField) info() string { return f.byteInfo() }

func (f *BufferField) render(r *renderer, width int) []string {
	if !f.showContents || f.size == 0 {
		return []string{fmt.Sprintf("%s{%s}", r.label(f, width), bytesToString(f.size))}
	}
	return indent(r.bareLabel(f), splitLines(f.display(r.opts)))
}

// Equal reports whether the field holds exactly b.
func (f *BufferField) Equal(b []byte) bool {
	raw, err := f.Raw()
	return err == nil && bytes.Equal(raw, b)
}
