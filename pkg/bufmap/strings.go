package bufmap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// StringField is a fixed-size ASCII string.
type StringField struct {
	base
	showHex        bool
	nullTerminated bool
	enc            encoding.Encoding
}

// FixedString declares an ASCII string of size bytes.
func (s *Struct) FixedString(name string, size int, opts ...FieldOption) *StringField {
	f := s.newString(name, size, opts)
	if s.err == nil {
		s.add(f)
	}
	return f
}

// StaticString declares a string that must equal expected byte for byte.
// Its size is len(expected).
func (s *Struct) StaticString(name, expected string, opts ...FieldOption) *StringField {
	f := s.newString(name, len(expected), opts)
	if s.err != nil {
		return f
	}
	got, err := f.RawString()
	switch {
	case err != nil:
		s.fail(name, fmt.Errorf("%w: %w", ErrValidation, err))
	case got != expected:
		s.fail(name, validationErr("expected %q, found %q", expected, got))
	default:
		s.add(f)
	}
	return f
}

// NullTerminatedString declares a string that runs up to and including the
// next zero byte. Its size is the content length plus one.
func (s *Struct) NullTerminatedString(name string, opts ...FieldOption) *StringField {
	f := &StringField{base: base{owner: s, name: name}, nullTerminated: true}
	if s.err != nil {
		return f
	}
	start := s.base + s.cursor
	if start >= s.view.Len() {
		s.fail(name, fmt.Errorf("%w: %w: no bytes left for terminator", ErrLayout, ErrOutOfBounds))
		return f
	}
	stream := kaitai.NewStream(bytes.NewReader(s.view.Bytes()[start:]))
	content, err := stream.ReadBytesTerm(0, false, true, true)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = ErrOutOfBounds
		}
		s.fail(name, fmt.Errorf("%w: missing zero terminator: %w", ErrLayout, err))
		return f
	}
	placed := s.newString(name, len(content)+1, opts)
	if s.err != nil {
		return f
	}
	placed.nullTerminated = true
	s.add(placed)
	return placed
}

func (s *Struct) newString(name string, size int, opts []FieldOption) *StringField {
	cfg := newFieldConfig(fieldConfig{}, opts)
	f := &StringField{base: base{owner: s, name: name}, showHex: cfg.showHex}
	if cfg.encoding != "" && s.err == nil {
		enc, err := LookupEncoding(cfg.encoding)
		if err != nil {
			s.fail(name, fmt.Errorf("%w: %w", ErrLayout, err))
			return f
		}
		f.enc = enc
	}
	off, ok := s.reserveBytes(name, size)
	if !ok {
		return f
	}
	f.offset, f.size = off, size
	return f
}

func (f *StringField) Kind() Kind { return KindString }

// NullTerminated reports whether the field was sized by a zero terminator.
func (f *StringField) NullTerminated() bool { return f.nullTerminated }

// Value returns the printable ASCII characters of the field; other bytes
// are dropped. For null-terminated strings the terminator is excluded.
func (f *StringField) Value() (string, error) {
	lossy, _, err := f.owner.view.ReadASCII(f.AbsOffset(), f.contentSize())
	return lossy, err
}

// RawString returns every byte of the field, so len == Size().
func (f *StringField) RawString() (string, error) {
	_, raw, err := f.owner.view.ReadASCII(f.AbsOffset(), f.size)
	return raw, err
}

// Valid reports whether every byte of the content is printable ASCII. A
// null-terminated string also needs more than one character, so the
// terminator of an empty or one-character string is shown in hex.
func (f *StringField) Valid() bool {
	lossy, raw, err := f.owner.view.ReadASCII(f.AbsOffset(), f.contentSize())
	if f.nullTerminated && len(raw) <= 1 {
		return false
	}
	return err == nil && lossy == raw
}

// Text decodes the content with a character encoding such as
// charmap.ISO8859_1 or unicode.UTF16.
func (f *StringField) Text(enc encoding.Encoding) (string, error) {
	_, raw, err := f.owner.view.ReadASCII(f.AbsOffset(), f.contentSize())
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().String(raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode %q: %w", f.name, err)
	}
	return out, nil
}

// Set overwrites the string; v must have exactly the field's size.
func (f *StringField) Set(v string) error {
	if len(v) != f.size {
		return fmt.Errorf("%q has length %d, field %q is %s: %w", v, len(v), f.name, bytesToString(f.size), ErrValueTooLarge)
	}
	return f.owner.view.WriteASCII(f.AbsOffset(), v)
}

func (f *StringField) contentSize() int {
	if f.nullTerminated && f.size > 0 {
		return f.size - 1
	}
	return f.size
}

// Decoded returns the text in the field's declared encoding, or Value when
// none was declared.
func (f *StringField) Decoded() (any, error) {
	if f.enc != nil {
		return f.Text(f.enc)
	}
	return f.Value()
}

func (f *StringField) setAny(v any) error {
	switch t := v.(type) {
	case string:
		return f.Set(t)
	case []byte:
		return f.Set(string(t))
	default:
		return fmt.Errorf("cannot use %T as a string", v)
	}
}

func (f *StringField) Display() string { return f.display(RenderOptions{}) }

func (f *StringField) display(o RenderOptions) string {
	v, err := f.Value()
	if err != nil {
		return ""
	}
	out := `"` + v + `"`
	if f.showHex || o.Debug || !f.Valid() {
		raw, _ := f.RawString()
		hex := make([]string, len(raw))
		for i := 0; i < len(raw); i++ {
			hex[i] = fmt.Sprintf("0x%02X", raw[i])
		}
		out += " [" + strings.Join(hex, ",") + "]"
	}
	return out
}

func (f *StringField) blank() bool { return false }

func (f *StringField) info() string { return f.byteInfo() }

func (f *StringField) render(r *renderer, width int) []string {
	return []string{r.label(f, width) + f.display(r.opts)}
}

// LookupEncoding maps a common encoding label to an x/text encoding.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.ReplaceAll(name, "_", "-")) {
	case "ASCII", "UTF-8", "UTF8":
		return unicode.UTF8, nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return charmap.ISO8859_1, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	case "CP437", "IBM437":
		return charmap.CodePage437, nil
	case "UTF-16LE":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case "UTF-16BE":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case "UTF-32LE":
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), nil
	case "UTF-32BE":
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), nil
	case "SJIS", "SHIFT-JIS", "SHIFT JIS":
		return japanese.ShiftJIS, nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", name)
	}
}
