package bufmap

import "fmt"

// Integer is the set of Go integer kinds an enum can be declared over.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Enumeration is an integer type whose constants name the variants. Constants
// declared with iota map by ordinal; explicit values map by value.
type Enumeration interface {
	Integer
	String() string
}

// EnumTable maps raw field values to the variants of T.
type EnumTable[T Enumeration] struct {
	byValue map[int64]T
}

// NewEnumTable builds a lookup table over the given variants.
func NewEnumTable[T Enumeration](variants ...T) *EnumTable[T] {
	t := &EnumTable[T]{byValue: make(map[int64]T, len(variants))}
	for _, v := range variants {
		t.byValue[int64(v)] = v
	}
	return t
}

// Lookup returns the variant for a raw value. Unmatched values are not an
// error; ok is simply false.
func (t *EnumTable[T]) Lookup(raw int64) (T, bool) {
	v, ok := t.byValue[raw]
	return v, ok
}

type enumerated interface {
	enumName() (string, bool, error)
}

// EnumNumberField is a NumberField whose values name variants of T.
type EnumNumberField[T Enumeration] struct {
	*NumberField
	table *EnumTable[T]
}

// EnumNumber declares an enum-valued integer field.
func EnumNumber[T Enumeration](s *Struct, name string, size int, table *EnumTable[T], opts ...FieldOption) *EnumNumberField[T] {
	f := &EnumNumberField[T]{NumberField: s.newNumber(name, size, opts), table: table}
	if s.err == nil {
		s.add(f)
	}
	return f
}

// Enum returns the matching variant; ok is false for unmatched values.
func (f *EnumNumberField[T]) Enum() (T, bool, error) {
	var zero T
	v, err := f.Value()
	if err != nil {
		return zero, false, err
	}
	e, ok := f.table.Lookup(v)
	return e, ok, nil
}

// SetEnum writes the value of variant e.
func (f *EnumNumberField[T]) SetEnum(e T) error {
	return f.Set(int64(e))
}

func (f *EnumNumberField[T]) enumName() (string, bool, error) {
	e, ok, err := f.Enum()
	if err != nil || !ok {
		return "", false, err
	}
	return e.String(), true, nil
}

func (f *EnumNumberField[T]) setAny(v any) error {
	if e, ok := v.(T); ok {
		return f.SetEnum(e)
	}
	return f.NumberField.setAny(v)
}

func (f *EnumNumberField[T]) Display() string { return f.display(RenderOptions{}) }

func (f *EnumNumberField[T]) display(o RenderOptions) string {
	return withEnumName(f.NumberField.display(o), f)
}

func (f *EnumNumberField[T]) render(r *renderer, width int) []string {
	return []string{r.label(f, width) + f.display(r.opts)}
}

// EnumBitsField is a BitsField whose values name variants of T.
type EnumBitsField[T Enumeration] struct {
	*BitsField
	table *EnumTable[T]
}

// EnumBits declares an enum-valued bit field. Decimal output is on by default.
func EnumBits[T Enumeration](s *Struct, name string, n int, table *EnumTable[T], opts ...FieldOption) *EnumBitsField[T] {
	f := &EnumBitsField[T]{BitsField: s.newBits(name, n, append([]FieldOption{Decimal()}, opts...)), table: table}
	if s.err == nil {
		s.add(f)
	}
	return f
}

// Enum returns the matching variant; ok is false for unmatched values.
func (f *EnumBitsField[T]) Enum() (T, bool, error) {
	var zero T
	v, err := f.Value()
	if err != nil {
		return zero, false, err
	}
	e, ok := f.table.Lookup(int64(v))
	return e, ok, nil
}

// SetEnum writes the value of variant e.
func (f *EnumBitsField[T]) SetEnum(e T) error {
	if int64(e) < 0 || int64(e) > int64(f.Max()) {
		return fmt.Errorf("%v (%d) into %d bits: %w", e, int64(e), f.bits, ErrValueTooLarge)
	}
	return f.Set(uint8(e))
}

func (f *EnumBitsField[T]) enumName() (string, bool, error) {
	e, ok, err := f.Enum()
	if err != nil || !ok {
		return "", false, err
	}
	return e.String(), true, nil
}

func (f *EnumBitsField[T]) setAny(v any) error {
	if e, ok := v.(T); ok {
		return f.SetEnum(e)
	}
	return f.BitsField.setAny(v)
}

func (f *EnumBitsField[T]) Display() string { return f.display(RenderOptions{}) }

func (f *EnumBitsField[T]) display(o RenderOptions) string {
	return withEnumName(f.BitsField.display(o), f)
}

func (f *EnumBitsField[T]) render(r *renderer, width int) []string {
	return []string{r.label(f, width) + f.display(r.opts)}
}

func withEnumName(value string, e enumerated) string {
	if name, ok, err := e.enumName(); err == nil && ok {
		return fmt.Sprintf("%s (%s)", value, name)
	}
	return value
}
