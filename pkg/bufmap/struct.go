package bufmap

import (
	"errors"
	"fmt"

	"github.com/twinfer/bufmap/pkg/byteview"
)

// Shape is a named, ordered list of field declarations. Declare runs once per
// bound instance and must declare fields in buffer order.
type Shape struct {
	Name    string
	Declare func(s *Struct)
}

// Struct is a bound instance of a Shape: an ordered field list laid out over a
// shared byte/bit cursor.
//
// Declarations use a sticky first error: once a declaration fails, every
// later declaration is a no-op that returns an unbound field, and Err reports
// the original failure. Build never hands out a Struct whose Err is non-nil.
type Struct struct {
	name      string
	shape     string
	parent    *Struct
	view      *byteview.View
	base      int
	cursor    int
	bitCursor int
	fields    []Field
	index     map[string]Field
	sink      *[]Field
	err       error
	opts      *options
}

// Build lays out shape over data starting at offset 0 (or WithStartOffset)
// and returns the bound top-level struct. Construction is all or nothing.
func Build(name string, data []byte, endian byteview.Endian, shape Shape, opts ...Option) (*Struct, error) {
	return BuildView(name, byteview.New(data, endian), shape, opts...)
}

// BuildView is Build over an existing view.
func BuildView(name string, view *byteview.View, shape Shape, opts ...Option) (*Struct, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = defaultOptions().logger
	}
	if o.startOffset < 0 {
		return nil, fmt.Errorf("start offset %d: %w", o.startOffset, ErrOutOfBounds)
	}

	s := newStruct(name, nil, view, o.startOffset, &o)
	o.logger.Debug("building struct", "struct", name, "shape", shape.Name, "offset", o.startOffset, "buffer_size", view.Len())
	if err := s.run(shape); err != nil {
		o.logger.Error("failed to build struct", "struct", name, "shape", shape.Name, "error", err)
		return nil, err
	}
	if end := s.base + s.Size(); end > view.Len() {
		o.logger.Warn("layout exceeds buffer", "struct", name, "layout_end", end, "buffer_size", view.Len())
	}
	o.logger.Debug("built struct", "struct", name, "size", s.Size(), "fields", len(s.fields))
	return s, nil
}

func newStruct(name string, parent *Struct, view *byteview.View, base int, o *options) *Struct {
	return &Struct{
		name:   name,
		parent: parent,
		view:   view,
		base:   base,
		index:  make(map[string]Field),
		opts:   o,
	}
}

// child returns an unbound struct starting at the current cursor.
func (s *Struct) child(name string) *Struct {
	return newStruct(s.name+" -> "+name, s, s.view, s.base+s.cursor, s.opts)
}

func (s *Struct) run(shape Shape) error {
	s.shape = shape.Name
	if shape.Declare != nil {
		shape.Declare(s)
	}
	if s.err == nil && s.bitCursor != 0 {
		s.fail("", layoutErr("struct ends %d bits into byte %d", s.bitCursor, s.cursor))
	}
	return s.err
}

// fail records the first error only. Errors from nested structs already
// carry their own path and are kept as they are.
func (s *Struct) fail(field string, err error) {
	if s.err != nil {
		return
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		s.err = err
		return
	}
	s.err = &FieldError{Path: s.name, Field: field, Offset: s.cursor, Err: err}
}

// Err returns the first declaration error, if any.
func (s *Struct) Err() error { return s.err }

// Name returns the struct path, e.g. "PNG File -> Chunks[2]".
func (s *Struct) Name() string { return s.name }

// Shape returns the name of the shape this struct was bound with.
func (s *Struct) Shape() string { return s.shape }

// Parent returns the enclosing struct, or nil at the top level.
func (s *Struct) Parent() *Struct { return s.parent }

// Root returns the top-level struct.
func (s *Struct) Root() *Struct {
	r := s
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Base returns the absolute offset of the struct in the buffer.
func (s *Struct) Base() int { return s.base }

// Size returns the number of whole bytes laid out so far, which is the
// struct's total size once construction has finished.
func (s *Struct) Size() int { return s.cursor }

// Cursor returns the current (byte, bit) position relative to the struct.
func (s *Struct) Cursor() (int, int) { return s.cursor, s.bitCursor }

// Remaining returns how many bytes of the buffer lie past the cursor.
func (s *Struct) Remaining() int {
	return max(s.view.Len()-(s.base+s.cursor), 0)
}

// View returns the view over the whole buffer.
func (s *Struct) View() *byteview.View { return s.view }

// Fields returns the bound fields in declaration order.
func (s *Struct) Fields() []Field { return s.fields }

// Field returns the first field of this struct with the given name.
func (s *Struct) Field(name string) (Field, bool) {
	f, ok := s.index[name]
	return f, ok
}

// Lookup finds name in this struct or the nearest ancestor that has it.
func (s *Struct) Lookup(name string) (Field, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if f, ok := cur.index[name]; ok {
			return f, true
		}
	}
	return nil, false
}

// Child returns the nested struct of the named composite field.
func (s *Struct) Child(name string) (*Struct, bool) {
	f, ok := s.index[name]
	if !ok {
		return nil, false
	}
	c, ok := f.(*CompositeField)
	if !ok {
		return nil, false
	}
	return c.child, true
}

// Find walks a path of composite field names and returns the last field.
func (s *Struct) Find(path ...string) (Field, error) {
	cur := s
	for i, name := range path {
		f, ok := cur.index[name]
		if !ok {
			return nil, fmt.Errorf("%s: %q: %w", cur.name, name, ErrNotFound)
		}
		if i == len(path)-1 {
			return f, nil
		}
		c, ok := f.(*CompositeField)
		if !ok {
			return nil, fmt.Errorf("%s: %q is a %s, not a composite: %w", cur.name, name, f.Kind(), ErrNotFound)
		}
		cur = c.child
	}
	return nil, fmt.Errorf("empty path: %w", ErrNotFound)
}

// Get returns the named field of s as a concrete field type.
func Get[F Field](s *Struct, name string) (F, error) {
	var zero F
	f, ok := s.Lookup(name)
	if !ok {
		return zero, fmt.Errorf("%s: %q: %w", s.name, name, ErrNotFound)
	}
	typed, ok := f.(F)
	if !ok {
		return zero, fmt.Errorf("%s: %q is a %s field, not %T", s.name, name, f.Kind(), zero)
	}
	return typed, nil
}

func (s *Struct) mustField(name string) (Field, error) {
	f, ok := s.index[name]
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", s.name, name, ErrNotFound)
	}
	return f, nil
}

// Raw returns the bytes of the named field.
func (s *Struct) Raw(name string) ([]byte, error) {
	f, err := s.mustField(name)
	if err != nil {
		return nil, err
	}
	return f.Raw()
}

// Decoded returns the decoded value of the named field.
func (s *Struct) Decoded(name string) (any, error) {
	f, err := s.mustField(name)
	if err != nil {
		return nil, err
	}
	return f.Decoded()
}

// Enum returns the variant name of the named enum field; ok is false when
// the raw value has no variant.
func (s *Struct) Enum(name string) (string, bool, error) {
	f, err := s.mustField(name)
	if err != nil {
		return "", false, err
	}
	e, isEnum := f.(enumerated)
	if !isEnum {
		return "", false, fmt.Errorf("%s: %q is not an enum field", s.name, name)
	}
	return e.enumName()
}

// SetValue patches the named field in the underlying buffer. Fields decoded
// from the old bytes, and any layout that depended on them, are not refreshed;
// rebuild the struct to observe the new layout.
func (s *Struct) SetValue(name string, v any) error {
	f, err := s.mustField(name)
	if err != nil {
		return err
	}
	if err := f.setAny(v); err != nil {
		return fmt.Errorf("%s: set %q: %w", s.name, name, err)
	}
	return nil
}

// IntOf reads an already bound number or bits field for use as a size,
// count or offset in a later declaration. A failed read becomes the sticky
// error and IntOf returns 0.
func (s *Struct) IntOf(f Field) int {
	if s.err != nil {
		return 0
	}
	var (
		v   int
		err error
	)
	switch t := f.(type) {
	case interface{ Int() (int, error) }:
		v, err = t.Int()
	default:
		err = fmt.Errorf("%s field %q cannot be used as an integer", f.Kind(), f.Name())
	}
	if err != nil {
		s.fail(f.Name(), err)
		return 0
	}
	return v
}

// TextOf reads an already bound string field byte for byte, e.g. a chunk
// tag used as a discriminator. A failed read becomes the sticky error and
// TextOf returns "".
func (s *Struct) TextOf(f *StringField) string {
	if s.err != nil {
		return ""
	}
	v, err := f.RawString()
	if err != nil {
		s.fail(f.Name(), err)
		return ""
	}
	return v
}

// reserveBytes places a byte-aligned field of size bytes and advances the cursor.
func (s *Struct) reserveBytes(name string, size int) (int, bool) {
	if s.err != nil {
		return 0, false
	}
	if size < 0 {
		s.fail(name, layoutErr("negative size %d", size))
		return 0, false
	}
	if s.bitCursor != 0 {
		s.fail(name, fmt.Errorf("%w: byte field declared at bit %d of byte %d", ErrMisaligned, s.bitCursor, s.cursor))
		return 0, false
	}
	off := s.cursor
	s.cursor += size
	return off, true
}

// reserveBits places n bits inside the current byte and advances the cursor.
func (s *Struct) reserveBits(name string, n int) (int, int, bool) {
	if s.err != nil {
		return 0, 0, false
	}
	if n < 1 || n > 8 {
		s.fail(name, layoutErr("bit field size %d not in 1..8", n))
		return 0, 0, false
	}
	if s.bitCursor+n > 8 {
		s.fail(name, layoutErr("%d bits at bit %d cross the byte boundary", n, s.bitCursor))
		return 0, 0, false
	}
	off, bit := s.cursor, s.bitCursor
	s.bitCursor += n
	if s.bitCursor == 8 {
		s.bitCursor = 0
		s.cursor++
	}
	return off, bit, true
}

// add appends a bound field to the struct, or to the array being built.
func (s *Struct) add(f Field) {
	if s.sink != nil {
		*s.sink = append(*s.sink, f)
		return
	}
	s.fields = append(s.fields, f)
	if _, dup := s.index[f.Name()]; !dup {
		s.index[f.Name()] = f
	}
}
