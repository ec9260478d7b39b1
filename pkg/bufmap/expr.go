package bufmap

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode"

	internalCel "github.com/twinfer/bufmap/internal/cel"
)

// ExpressionPool caches compiled CEL programs. Pools are safe for
// concurrent use and can be shared between builds with WithExpressionPool.
type ExpressionPool = internalCel.ExpressionPool

// NewExpressionPool creates a pool over the layout CEL environment.
func NewExpressionPool() (*ExpressionPool, error) {
	return internalCel.NewExpressionPool()
}

var (
	defaultPool     *ExpressionPool
	defaultPoolErr  error
	defaultPoolOnce sync.Once
)

// sharedPool returns the process-wide CEL pool used when no pool is
// configured with WithExpressionPool.
func sharedPool() (*ExpressionPool, error) {
	defaultPoolOnce.Do(func() {
		defaultPool, defaultPoolErr = internalCel.NewExpressionPool()
	})
	return defaultPool, defaultPoolErr
}

// celReserved are words CEL refuses as identifiers.
var celReserved = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true, "else": true,
	"for": true, "function": true, "if": true, "import": true, "let": true,
	"loop": true, "package": true, "namespace": true, "return": true,
	"var": true, "void": true, "while": true, "in": true, "true": true,
	"false": true, "null": true,
}

// ExprName is the identifier a field is bound to in expressions: the name
// lowercased, with every run of other characters folded into "_".
// "Bits Per Pixel" becomes bits_per_pixel and "Chunks[2]" becomes chunks_2.
func ExprName(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	out := b.String()
	switch {
	case out == "":
		return "_"
	case out[0] >= '0' && out[0] <= '9':
		return "_" + out
	case celReserved[out]:
		return out + "_"
	}
	return out
}

// Eval evaluates a CEL expression against the fields bound so far. Fields
// of this struct and of every ancestor are in scope by ExprName, nearest
// first. _parent and _root hold the enclosing and top-level structs as maps,
// _offset is the absolute cursor and _remaining the bytes left after it.
func (s *Struct) Eval(expr string) (any, error) {
	if s.err != nil {
		return nil, s.err
	}
	pool := s.opts.pool
	if pool == nil {
		var err error
		if pool, err = sharedPool(); err != nil {
			return nil, err
		}
	}
	out, err := pool.Evaluate(expr, s.activation())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}
	s.opts.logger.Debug("evaluated expression", "struct", s.name, "expression", expr, "result", out)
	return out, nil
}

// Expr evaluates an integer expression for use as a size, count or offset.
// A failed or non-integer evaluation becomes the sticky error and Expr
// returns 0.
func (s *Struct) Expr(expr string) int {
	if s.err != nil {
		return 0
	}
	out, err := s.Eval(expr)
	if err != nil {
		s.fail(expr, err)
		return 0
	}
	switch v := out.(type) {
	case int64:
		if v >= math.MinInt && v <= math.MaxInt {
			return int(v)
		}
	case uint64:
		if v <= math.MaxInt {
			return int(v)
		}
	default:
		s.fail(expr, fmt.Errorf("expression %q yields %T, not an integer", expr, out))
		return 0
	}
	s.fail(expr, fmt.Errorf("expression %q: %w", expr, ErrRange))
	return 0
}

func (s *Struct) activation() map[string]any {
	var chain []*Struct
	for cur := s; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	vars := make(map[string]any)
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].exprFields() {
			vars[k] = v
		}
	}
	if s.parent != nil {
		vars["_parent"] = s.parent.exprFields()
	}
	vars["_root"] = s.Root().exprFields()
	vars["_offset"] = int64(s.base + s.cursor)
	vars["_remaining"] = int64(s.Remaining())
	return vars
}

// exprFields maps the readable fields of s by ExprName. Reserved and out of
// bounds fields are left out.
func (s *Struct) exprFields() map[string]any {
	out := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		if f.Reserved() || !f.InBounds() {
			continue
		}
		name := ExprName(f.Name())
		if _, dup := out[name]; dup {
			continue
		}
		if v, ok := exprValue(f); ok {
			out[name] = v
		}
	}
	return out
}

func exprValue(f Field) (any, bool) {
	switch t := f.(type) {
	case *CompositeField:
		return t.child.exprFields(), true
	case *ArrayField:
		out := make([]any, 0, len(t.elems))
		for _, e := range t.elems {
			v, ok := exprValue(e)
			if !ok {
				return nil, false
			}
			out = append(out, v)
		}
		return out, true
	case *BitsField:
		v, err := t.Value()
		return int64(v), err == nil
	}
	v, err := f.Decoded()
	if err != nil {
		return nil, false
	}
	if u, ok := v.(uint8); ok {
		return int64(u), true
	}
	return v, true
}
