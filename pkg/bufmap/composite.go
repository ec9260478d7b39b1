package bufmap

// CompositeField owns a nested struct laid out at the parent's cursor.
type CompositeField struct {
	base
	child *Struct
}

// Composite binds shape as a nested struct named "<parent> -> <name>". The
// nested struct inherits the parent's cursor, can look up ancestor fields,
// and its total size becomes the size of this field. A failure inside the
// nested struct fails the parent too.
func (s *Struct) Composite(name string, shape Shape) *CompositeField {
	f := &CompositeField{base: base{owner: s, name: name}}
	if s.err != nil {
		f.child = s.unbound(name)
		return f
	}
	if s.bitCursor != 0 {
		s.reserveBytes(name, 0) // records ErrMisaligned
		f.child = s.unbound(name)
		return f
	}
	child := s.child(name)
	f.child = child
	if err := child.run(shape); err != nil {
		s.fail(name, err)
		return f
	}
	off, _ := s.reserveBytes(name, child.Size())
	f.offset, f.size = off, child.Size()
	s.add(f)
	s.opts.logger.Debug("bound composite", "struct", s.name, "field", name, "shape", shape.Name, "offset", f.AbsOffset(), "size", f.size)
	return f
}

// unbound returns an empty struct standing in for a declaration that was
// skipped, so callers can chain on it without nil checks.
func (s *Struct) unbound(name string) *Struct {
	c := s.child(name)
	c.err = s.err
	return c
}

func (f *CompositeField) Kind() Kind { return KindComposite }

// Struct returns the nested struct.
func (f *CompositeField) Struct() *Struct { return f.child }

func (f *CompositeField) Decoded() (any, error) { return f.child, nil }

func (f *CompositeField) setAny(any) error { return ErrReadOnly }

func (f *CompositeField) Display() string { return f.display(RenderOptions{}) }

func (f *CompositeField) display(o RenderOptions) string {
	return joinLines(f.child.lines(&renderer{opts: o}, false))
}

func (f *CompositeField) blank() bool { return len(f.child.fields) == 0 }

func (f *CompositeField) info() string { return f.byteInfo() }

func (f *CompositeField) render(r *renderer, _ int) []string {
	return indent(r.bareLabel(f), f.child.lines(r, false))
}
