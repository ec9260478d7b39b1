package bufmap

import "fmt"

// Variants is a closed registry from discriminator values to shapes.
// Values without an entry resolve to the fallback shape, which should keep
// the region's bytes intact (for example as a Buffer) so unknown variants
// still round-trip.
type Variants[K comparable] struct {
	name     string
	shapes   map[K]Shape
	fallback Shape
}

// NewVariants returns an empty registry that resolves everything to fallback.
func NewVariants[K comparable](name string, fallback Shape) *Variants[K] {
	return &Variants[K]{name: name, shapes: make(map[K]Shape), fallback: fallback}
}

// On registers shape for each key. Later registrations replace earlier ones.
func (v *Variants[K]) On(shape Shape, keys ...K) *Variants[K] {
	for _, k := range keys {
		v.shapes[k] = shape
	}
	return v
}

// Lookup returns the shape registered for key.
func (v *Variants[K]) Lookup(key K) (Shape, bool) {
	shape, ok := v.shapes[key]
	return shape, ok
}

// Resolve returns the shape registered for key, or the fallback.
func (v *Variants[K]) Resolve(key K) Shape {
	if shape, ok := v.shapes[key]; ok {
		return shape
	}
	return v.fallback
}

// Fallback returns the shape used for unmatched keys.
func (v *Variants[K]) Fallback() Shape { return v.fallback }

// Name returns the registry name.
func (v *Variants[K]) Name() string { return v.name }

// Resolve picks the shape for key and logs the decision against s.
func Resolve[K comparable](s *Struct, v *Variants[K], key K) Shape {
	shape, ok := v.Lookup(key)
	if !ok {
		shape = v.fallback
	}
	s.opts.logger.Debug("resolved variant", "struct", s.name, "variants", v.name, "key", key, "shape", shape.Name, "matched", ok)
	return shape
}

// Discriminator reads the named number or bits field from this struct or
// the nearest ancestor that has it. A missing field becomes the sticky error.
func (s *Struct) Discriminator(name string) int {
	if s.err != nil {
		return 0
	}
	f, ok := s.Lookup(name)
	if !ok {
		s.fail(name, fmt.Errorf("discriminator %q: %w", name, ErrNotFound))
		return 0
	}
	return s.IntOf(f)
}

// Probe binds shape at the cursor into a throwaway struct for reading a
// discriminator ahead of the real declaration. Nothing is added to s and
// the cursor does not move.
func (s *Struct) Probe(shape Shape) (*Struct, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.bitCursor != 0 {
		return nil, fmt.Errorf("%w: probe at bit %d of byte %d", ErrMisaligned, s.bitCursor, s.cursor)
	}
	p := s.child("probe " + shape.Name)
	if err := p.run(shape); err != nil {
		return nil, err
	}
	return p, nil
}

// ProbeInt probes shape and returns the integer value of its field. Any
// failure becomes the sticky error.
func (s *Struct) ProbeInt(shape Shape, field string) int {
	p, err := s.Probe(shape)
	if err != nil {
		s.fail(field, err)
		return 0
	}
	f, ok := p.Field(field)
	if !ok {
		s.fail(field, fmt.Errorf("probe %s: %q: %w", shape.Name, field, ErrNotFound))
		return 0
	}
	v := p.IntOf(f)
	if p.err != nil {
		s.fail(field, p.err)
	}
	return v
}
