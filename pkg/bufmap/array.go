package bufmap

import (
	"fmt"
	"strings"
)

type sizeMode int

const (
	byCount sizeMode = iota
	byBudget
)

// ArraySize says how many elements an array holds.
type ArraySize struct {
	mode sizeMode
	n    int
}

// Count sizes an array by its number of elements.
func Count(n int) ArraySize { return ArraySize{mode: byCount, n: n} }

// ByteBudget sizes an array by its total byte length: elements are bound
// until their sizes add up to total. The sum is checked once the loop ends,
// so an element that overshoots the budget fails the array after it has
// been bound.
func ByteBudget(total int) ArraySize { return ArraySize{mode: byBudget, n: total} }

func (a ArraySize) String() string {
	if a.mode == byBudget {
		return bytesToString(a.n)
	}
	return fmt.Sprintf("%d elements", a.n)
}

// ArrayField owns a run of same-kind elements named "<name>[i]". Elements
// are private to the array and do not appear in the struct's field list.
type ArrayField struct {
	base
	elems     []Field
	verbose   bool
	composite bool
	bitUnits  bool
}

// Array binds elements of a single shape. Composite arrays always render one
// element per line.
func (s *Struct) Array(name string, size ArraySize, elem Shape) *ArrayField {
	return s.ArrayFunc(name, size, func(*Struct, int) Shape { return elem })
}

// ArrayFunc binds composite elements whose shape is chosen per element, e.g.
// by probing the bytes at the cursor. pick must not declare fields on s.
func (s *Struct) ArrayFunc(name string, size ArraySize, pick func(s *Struct, i int) Shape) *ArrayField {
	a := &ArrayField{base: base{owner: s, name: name}, verbose: true, composite: true}
	start, ok := s.reserveBytes(name, 0)
	if !ok {
		return a
	}
	elems := s.repeat(name, size, func(i int) Field {
		return s.Composite(elementName(name, i), pick(s, i))
	})
	if s.err != nil {
		return a
	}
	a.finish(start, elems)
	s.add(a)
	s.opts.logger.Debug("bound array", "struct", s.name, "field", name, "elements", len(elems), "size", a.size)
	return a
}

// NumberArray binds integers of elemSize bytes each. Compact by default;
// with Verbose each element gets its own line and a decimal suffix.
func (s *Struct) NumberArray(name string, elemSize int, size ArraySize, opts ...FieldOption) *ArrayField {
	cfg := newFieldConfig(fieldConfig{}, opts)
	a := &ArrayField{base: base{owner: s, name: name}, verbose: cfg.verbose}
	start, ok := s.reserveBytes(name, 0)
	if !ok {
		return a
	}
	elemOpts := []FieldOption{HexOnly()}
	if cfg.verbose {
		elemOpts[0] = Decimal()
	}
	if cfg.signed {
		elemOpts = append(elemOpts, Signed())
	}
	elems := s.repeat(name, size, func(i int) Field {
		return s.Number(elementName(name, i), elemSize, elemOpts...)
	})
	if s.err != nil {
		return a
	}
	a.finish(start, elems)
	s.add(a)
	return a
}

// ReservedBits declares n reserved bits. The run is split into the rest of
// the current byte, then whole bytes, then a final partial byte, so no
// element crosses a byte boundary.
func (s *Struct) ReservedBits(n int) *ArrayField {
	a := &ArrayField{base: base{owner: s, name: reservedName, reserved: true}, verbose: true, bitUnits: true}
	if s.err != nil {
		return a
	}
	if n < 0 {
		s.fail(reservedName, layoutErr("negative bit count %d", n))
		return a
	}
	var chunks []int
	if n > 0 {
		first := min(8-s.bitCursor, n)
		chunks = append(chunks, first)
		rest := n - first
		for ; rest >= 8; rest -= 8 {
			chunks = append(chunks, 8)
		}
		if rest > 0 {
			chunks = append(chunks, rest)
		}
	}
	start := s.cursor
	bit := s.bitCursor
	elems := s.collect(func() {
		for i, c := range chunks {
			s.Bits(elementName(reservedName, i), c)
		}
	})
	if s.err != nil {
		return a
	}
	a.finish(start, elems)
	if len(elems) == 0 {
		a.bitOffset = bit
	}
	s.add(a)
	return a
}

// repeat binds elements into a private list according to size.
func (s *Struct) repeat(name string, size ArraySize, elem func(i int) Field) []Field {
	if size.n < 0 {
		s.fail(name, layoutErr("negative array size %d", size.n))
		return nil
	}
	return s.collect(func() {
		switch size.mode {
		case byCount:
			for i := 0; i < size.n && s.err == nil; i++ {
				elem(i)
			}
		case byBudget:
			total := 0
			for i := 0; total < size.n; i++ {
				f := elem(i)
				if s.err != nil {
					return
				}
				if f.Size() == 0 {
					s.fail(name, layoutErr("element %d of a %s array is empty", i, size))
					return
				}
				total += f.Size()
			}
			if total != size.n {
				s.opts.logger.Warn("array overshot its byte budget", "struct", s.name, "field", name, "budget", size.n, "size", total)
				s.fail(name, layoutErr("array sized %s holds %s", size, bytesToString(total)))
			}
		}
	})
}

// collect redirects bindings made by declare into a private list.
func (s *Struct) collect(declare func()) []Field {
	prev := s.sink
	var elems []Field
	s.sink = &elems
	defer func() { s.sink = prev }()
	declare()
	return elems
}

func (a *ArrayField) finish(start int, elems []Field) {
	a.elems = elems
	a.offset = start
	if len(elems) > 0 {
		a.offset = elems[0].Offset()
		a.bitOffset = elems[0].BitOffset()
	}
	for _, e := range elems {
		a.size += e.Size()
		a.bits += e.SizeBits()
	}
	if a.size == 0 && a.bits == 0 {
		a.verbose = false
	}
}

func (a *ArrayField) Kind() Kind { return KindArray }

// Len returns the number of elements.
func (a *ArrayField) Len() int { return len(a.elems) }

// Elements returns the bound elements in order.
func (a *ArrayField) Elements() []Field { return a.elems }

// At returns element i.
func (a *ArrayField) At(i int) (Field, error) {
	if i < 0 || i >= len(a.elems) {
		return nil, fmt.Errorf("%s[%d] of %d elements: %w", a.name, i, len(a.elems), ErrNotFound)
	}
	return a.elems[i], nil
}

// Struct returns the nested struct of composite element i.
func (a *ArrayField) Struct(i int) (*Struct, error) {
	e, err := a.At(i)
	if err != nil {
		return nil, err
	}
	c, ok := e.(*CompositeField)
	if !ok {
		return nil, fmt.Errorf("%s is a %s element, not a composite", e.Name(), e.Kind())
	}
	return c.child, nil
}

// ValueAt decodes number element i.
func (a *ArrayField) ValueAt(i int) (int64, error) {
	n, err := a.number(i)
	if err != nil {
		return 0, err
	}
	return n.Value()
}

// SetAt writes number element i.
func (a *ArrayField) SetAt(i int, v int64) error {
	n, err := a.number(i)
	if err != nil {
		return err
	}
	return n.Set(v)
}

func (a *ArrayField) number(i int) (*NumberField, error) {
	e, err := a.At(i)
	if err != nil {
		return nil, err
	}
	n, ok := e.(*NumberField)
	if !ok {
		return nil, fmt.Errorf("%s is a %s element, not a number", e.Name(), e.Kind())
	}
	return n, nil
}

func (a *ArrayField) Decoded() (any, error) {
	out := make([]any, len(a.elems))
	for i, e := range a.elems {
		v, err := e.Decoded()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (a *ArrayField) setAny(any) error { return ErrReadOnly }

func (a *ArrayField) Display() string { return a.display(RenderOptions{}) }

func (a *ArrayField) display(o RenderOptions) string {
	vals := make([]string, len(a.elems))
	for i, e := range a.elems {
		vals[i] = e.display(o)
	}
	return "[" + strings.Join(vals, ",") + "]"
}

func (a *ArrayField) blank() bool { return false }

func (a *ArrayField) info() string {
	switch {
	case a.bitUnits:
		return a.bitInfo()
	case a.composite:
		return fmt.Sprintf("%s [length: %d]", a.byteInfo(), len(a.elems))
	default:
		return a.byteInfo()
	}
}

func (a *ArrayField) render(r *renderer, width int) []string {
	if !a.verbose {
		return []string{r.label(a, width) + a.display(r.opts)}
	}
	var out []string
	for _, e := range a.elems {
		out = append(out, e.render(r, width)...)
	}
	return out
}
