// Package bufmap lays declarative field layouts over byte buffers and
// renders the decoded result as an aligned text dump.
//
// # Overview
//
// A Shape is an ordered list of field declarations. Binding a shape to a
// buffer produces a Struct whose fields are typed, positioned windows onto
// the shared bytes. Fields are placed on a running cursor: byte fields
// advance it by whole bytes, bit fields fill the current byte from the
// least significant bit upwards, and a composite binds a nested shape at
// the cursor.
//
//   - Numbers of 0 to 8 bytes, signed or unsigned, in either byte order
//   - Bit fields of 1 to 8 bits, single flags and reserved bit runs
//   - Fixed, static and null-terminated ASCII strings
//   - Raw buffers and reserved padding
//   - Enum fields over Go integer types with a String method
//   - Arrays sized by element count or by byte budget
//   - Variants selected from a discriminator read earlier in the layout
//   - CEL expressions for sizes and counts that depend on decoded fields
//
// # Quick Start
//
//	header := bufmap.Shape{Name: "Header", Declare: func(s *bufmap.Struct) {
//	    s.StaticString("Magic", "BM")
//	    size := s.Number("File Size", 4)
//	    s.Reserved(4)
//	    s.Buffer("Payload", s.IntOf(size)-10)
//	}}
//
//	st, err := bufmap.Build("Bitmap", data, byteview.LittleEndian, header)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(st.Render(bufmap.RenderOptions{}))
//
// # Errors
//
// Declarations inside a Declare function do not return errors. The first
// failure is recorded on the struct and every later declaration becomes a
// no-op, so Build either returns a complete struct or nil and a *FieldError
// naming the struct path, the field and the offset. Match the cause with
// errors.Is against ErrLayout, ErrMisaligned, ErrValidation,
// ErrOutOfBounds, ErrRange or ErrValueTooLarge.
//
// Declaring a field past the end of the buffer is not an error. The field
// is bound, reports InBounds false, fails on read and is listed after a
// warning in the dump.
//
// # Expressions
//
// Expr evaluates a CEL expression over the fields bound so far:
//
//	s.Buffer("Pixels", s.Expr("align(ceilDiv(bits_per_pixel * width, 8), 4) * height"))
//
// Field names are mapped to identifiers by ExprName. Besides the standard
// library, bitAnd, bitOr, bitXor, bitShiftLeft, bitShiftRight, bitTest, min,
// max, abs, align, pad and ceilDiv are available.
//
// # Configuration Options
//
//   - WithLogger(*slog.Logger): Custom logging
//   - WithStartOffset(int): Bind the top-level struct at an offset
//   - WithExpressionPool(*ExpressionPool): Share compiled expressions
//
// Rendering is controlled per call by RenderOptions, which can be loaded
// from YAML with LoadRenderOptions.
package bufmap
