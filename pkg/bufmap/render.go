package bufmap

import (
	"fmt"
	"os"
	"strings"
)

const indentUnit = "    "

// renderer carries the options and the per-dump state of one render call.
type renderer struct {
	opts   RenderOptions
	warned bool
}

// Render returns the aligned text dump of the struct tree. The struct is
// rendered as a top-level dump with a banner, whatever its depth.
func (s *Struct) Render(opts RenderOptions) string {
	return joinLines(s.lines(&renderer{opts: opts}, true))
}

// String renders with default options.
func (s *Struct) String() string {
	return s.Render(RenderOptions{})
}

// RenderToFile writes Render(opts) to path.
func (s *Struct) RenderToFile(path string, opts RenderOptions) error {
	if err := os.WriteFile(path, []byte(s.Render(opts)+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write dump to %s: %w", path, err)
	}
	return nil
}

func (s *Struct) lines(r *renderer, top bool) []string {
	var out []string
	if top {
		title := s.name
		if r.opts.Debug {
			title = fmt.Sprintf("%s (offset: %d, size %d bytes)", s.name, s.base, s.Size())
		}
		rule := strings.Repeat("-", len(title))
		out = append(out, rule, title, rule)
	}

	width := s.nameWidth()
	for _, f := range s.fields {
		if !r.visible(f) {
			continue
		}
		if f.InBounds() {
			out = append(out, f.render(r, width)...)
			continue
		}
		if !r.warned {
			r.warned = true
			out = append(out, "",
				fmt.Sprintf("WARNING: The size of the buffer is %d bytes. The remaining fields are outside the bounds of the buffer!", s.view.Len()),
				"")
		}
		out = append(out, fmt.Sprintf("%s (%s)", f.Name(), f.info()))
	}
	return out
}

func (r *renderer) visible(f Field) bool {
	if f.Reserved() {
		return r.opts.ShowReserved || r.opts.Debug
	}
	return r.opts.Debug || !f.InBounds() || !f.blank()
}

// nameWidth is the longest field name in the struct, array elements included.
func (s *Struct) nameWidth() int {
	width := 0
	for _, f := range s.fields {
		width = max(width, len(f.Name()))
		if a, ok := f.(*ArrayField); ok {
			for _, e := range a.elems {
				width = max(width, len(e.Name()))
			}
		}
	}
	return width
}

// label is the padded "name: " prefix, plus placement info in debug mode.
func (r *renderer) label(f Field, width int) string {
	out := fmt.Sprintf("%-*s: ", width, f.Name())
	if r.opts.Debug {
		out += "(" + f.info() + "): "
	}
	return out
}

// bareLabel is label without padding, for fields whose value starts on the
// next line.
func (r *renderer) bareLabel(f Field) string {
	return r.label(f, 0)
}

func indent(head string, lines []string) []string {
	out := make([]string, 0, len(lines)+1)
	out = append(out, head)
	for _, l := range lines {
		out = append(out, indentUnit+l)
	}
	return out
}

func splitLines(s string) []string { return strings.Split(s, "\n") }

func joinLines(lines []string) string { return strings.Join(lines, "\n") }
